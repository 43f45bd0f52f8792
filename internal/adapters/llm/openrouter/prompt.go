package openrouter

import (
	"fmt"
	"strings"

	"github.com/randomtoy/tarot-fan/internal/ports"
)

const defaultDisclaimer = "For reflection/entertainment; not medical/legal/financial advice."

const schema = `{
  "text": "<your interpretation>",
  "style": "neutral",
  "disclaimer": "` + defaultDisclaimer + `"
}`

// langNames maps common BCP 47 codes to language names.
var langNames = map[string]string{
	"de": "German",
	"en": "English",
	"es": "Spanish",
	"fr": "French",
	"it": "Italian",
	"ja": "Japanese",
	"pl": "Polish",
	"pt": "Portuguese",
	"ru": "Russian",
	"tr": "Turkish",
	"uk": "Ukrainian",
	"zh": "Chinese",
}

// spreadIntros tells the model how the positions of each spread relate.
var spreadIntros = map[string]string{
	"single":     "A single card gives the focus of the moment.",
	"pair":       "Two cards: the first shows the situation, the second the advice.",
	"three_card": "Three cards in time: past, present and future.",
	"five_card":  "Five cards: the present, its challenge, the past behind it, the near future and the likely outcome.",
}

func systemPrompt(lang string) string {
	var b strings.Builder
	b.WriteString(`You are a tarot reader. The querent drew the cards below from a fan of face-down cards and turned them over one at a time; positions follow the order they were turned.

Rules:
- Read each card through its position label, then tie the cards together.
- Reversed cards soften or turn inward the upright meaning; do not read them as doom.
- Stay balanced. Never predict specific outcomes or disasters.
- Never provide medical, legal or financial advice, command actions or diagnose conditions.
- If a question is given, speak to it without guarantees.
`)
	if lang != "" && lang != "en" {
		name, ok := langNames[lang]
		if !ok {
			name = lang
		}
		fmt.Fprintf(&b, "- Respond entirely in %s.\n", name)
	}
	b.WriteString("\nRespond with ONLY a JSON object (no markdown, no code fences, no extra text) matching this schema:\n")
	b.WriteString(schema)
	return b.String()
}

func readingPrompt(in ports.InterpretInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Deck: %s\nSpread: %s\n", in.DeckID, in.Spread)
	if intro, ok := spreadIntros[in.Spread]; ok {
		fmt.Fprintf(&b, "%s\n", intro)
	}

	b.WriteString("\nCards in the order they were turned:\n")
	for _, card := range in.Cards {
		if card.Label != "" {
			fmt.Fprintf(&b, "  Position %d (%s): %s (%s)\n", card.Position, card.Label, card.Name, card.Orientation)
		} else {
			fmt.Fprintf(&b, "  Position %d: %s (%s)\n", card.Position, card.Name, card.Orientation)
		}
		if len(card.Keywords) > 0 {
			fmt.Fprintf(&b, "    Keywords: %s\n", strings.Join(card.Keywords, ", "))
		}
		if card.Short != "" {
			fmt.Fprintf(&b, "    Meaning: %s\n", card.Short)
		}
	}

	if in.Question != "" {
		fmt.Fprintf(&b, "\nThe querent asks: %q\n", in.Question)
	}
	b.WriteString("\nInterpret the reading as a single JSON object.")
	return b.String()
}

func retryPrompt(previous string) string {
	return "Your previous response was not a valid reading. Here is what you returned:\n" +
		previous +
		"\n\nReturn ONLY the corrected JSON object matching this schema, with non-empty text (no markdown, no code fences):\n" +
		schema
}
