package domain

// RNG abstracts random number generation for deterministic testing.
type RNG interface {
	// Intn returns a non-negative random int in [0, n).
	Intn(n int) int
}

// Orientation represents the orientation of a drawn tarot card.
type Orientation string

const (
	Upright  Orientation = "upright"
	Reversed Orientation = "reversed"
)

// Card represents a single tarot card in a deck.
type Card struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
	Short    string   `json:"short"`
}

// DrawnCard is a card revealed as part of a reading.
type DrawnCard struct {
	Card
	Position    int         `json:"position"`
	Label       string      `json:"label,omitempty"`
	Orientation Orientation `json:"orientation"`
}

// Deck is a collection of tarot cards.
type Deck struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Cards []Card `json:"cards"`
}

// SpreadType identifies the type of spread.
type SpreadType string

const (
	SpreadSingle    SpreadType = "single"
	SpreadPair      SpreadType = "pair"
	SpreadThreeCard SpreadType = "three_card"
	SpreadFiveCard  SpreadType = "five_card"
)
