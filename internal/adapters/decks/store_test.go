package decks_test

import (
	"context"
	"errors"
	"testing"

	"github.com/randomtoy/tarot-fan/internal/adapters/decks"
	"github.com/randomtoy/tarot-fan/internal/domain"
)

func TestEmbeddedStore_MajorArcana(t *testing.T) {
	store := decks.NewEmbeddedStore()

	deck, err := store.GetDeck(context.Background(), "major_arcana")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(deck.Cards) != 22 {
		t.Fatalf("expected 22 cards, got %d", len(deck.Cards))
	}

	seen := make(map[string]bool)
	for _, c := range deck.Cards {
		if c.ID == "" || c.Name == "" {
			t.Errorf("card without identity: %+v", c)
		}
		if seen[c.ID] {
			t.Errorf("duplicate card ID: %s", c.ID)
		}
		seen[c.ID] = true
	}
	if deck.Cards[0].Name != "The Fool" {
		t.Errorf("unexpected first card: %s", deck.Cards[0].Name)
	}
}

func TestEmbeddedStore_UnknownDeck(t *testing.T) {
	store := decks.NewEmbeddedStore()

	_, err := store.GetDeck(context.Background(), "nonexistent")
	if !errors.Is(err, domain.ErrDeckNotFound) {
		t.Fatalf("expected ErrDeckNotFound, got %v", err)
	}
}

func TestEmbeddedStore_ReturnsCopies(t *testing.T) {
	store := decks.NewEmbeddedStore()
	ctx := context.Background()

	first, err := store.GetDeck(ctx, "major_arcana")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first.Cards[0], first.Cards[1] = first.Cards[1], first.Cards[0]

	second, err := store.GetDeck(ctx, "major_arcana")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Cards[0].Name != "The Fool" {
		t.Errorf("store deck was mutated through a returned copy: %s", second.Cards[0].Name)
	}
	if second.Name != "Major Arcana" {
		t.Errorf("unexpected deck name: %s", second.Name)
	}
}
