package domain_test

import (
	"testing"

	"github.com/randomtoy/tarot-fan/internal/domain"
)

// deterministicRNG returns values from a pre-set sequence.
type deterministicRNG struct {
	values []int
	idx    int
}

func (r *deterministicRNG) Intn(n int) int {
	v := r.values[r.idx%len(r.values)] % n
	r.idx++
	return v
}

func testDeck(n int) domain.Deck {
	cards := make([]domain.Card, n)
	for i := range n {
		cards[i] = domain.Card{
			ID:       "card_" + string(rune('a'+i)),
			Name:     "Card " + string(rune('A'+i)),
			Keywords: []string{"kw1", "kw2"},
			Short:    "Short description.",
		}
	}
	return domain.Deck{ID: "test", Name: "Test Deck", Cards: cards}
}

func TestShuffleDeck_KeepsEveryCard(t *testing.T) {
	deck := testDeck(22)
	rng := &deterministicRNG{values: []int{3, 17, 0, 8, 5, 11}}

	shuffled := domain.ShuffleDeck(deck, rng)
	if len(shuffled.Cards) != 22 {
		t.Fatalf("expected 22 cards, got %d", len(shuffled.Cards))
	}

	seen := make(map[string]bool)
	for _, c := range shuffled.Cards {
		if seen[c.ID] {
			t.Errorf("duplicate card ID: %s", c.ID)
		}
		seen[c.ID] = true
	}
	if shuffled.ID != deck.ID {
		t.Errorf("deck id changed to %s", shuffled.ID)
	}
}

func TestShuffleDeck_DoesNotTouchInput(t *testing.T) {
	deck := testDeck(5)
	// Swapping every card with index 0 rotates the order.
	rng := &deterministicRNG{values: []int{0}}

	shuffled := domain.ShuffleDeck(deck, rng)
	if deck.Cards[0].ID != "card_a" || deck.Cards[4].ID != "card_e" {
		t.Error("input deck was reordered")
	}
	if shuffled.Cards[0].ID == "card_a" {
		t.Error("expected a different first card")
	}
}

func TestSpreadTypeFor(t *testing.T) {
	cases := map[int]domain.SpreadType{
		1: domain.SpreadSingle,
		2: domain.SpreadPair,
		3: domain.SpreadThreeCard,
		5: domain.SpreadFiveCard,
		4: domain.SpreadPair,
	}
	for n, want := range cases {
		if got := domain.SpreadTypeFor(n); got != want {
			t.Errorf("SpreadTypeFor(%d) = %s, want %s", n, got, want)
		}
	}
}

func TestDrawCard(t *testing.T) {
	deck := testDeck(3)
	rng := &deterministicRNG{values: []int{0, 1, 0}}

	expected := []struct {
		label       string
		orientation domain.Orientation
	}{
		{"past", domain.Upright},
		{"present", domain.Reversed},
		{"future", domain.Upright},
	}
	for i, want := range expected {
		dc := domain.DrawCard(deck.Cards[i], domain.SpreadThreeCard, i, rng)
		if dc.Position != i+1 {
			t.Errorf("card %d: expected position %d, got %d", i, i+1, dc.Position)
		}
		if dc.Label != want.label {
			t.Errorf("card %d: expected label %s, got %s", i, want.label, dc.Label)
		}
		if dc.Orientation != want.orientation {
			t.Errorf("card %d: expected %s, got %s", i, want.orientation, dc.Orientation)
		}
	}
}

func TestPositionLabel_OutOfRange(t *testing.T) {
	if got := domain.PositionLabel(domain.SpreadSingle, 1); got != "" {
		t.Errorf("expected no label, got %q", got)
	}
}
