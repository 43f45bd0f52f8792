package decks

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/randomtoy/tarot-fan/internal/domain"
)

func storeWith(file, data string) *EmbeddedStore {
	return &EmbeddedStore{fsys: fstest.MapFS{file: {Data: []byte(data)}}}
}

func TestLoad_InvalidDecks(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"bad json", `[{"id":`, "parse deck"},
		{"missing id", `[{"id":"a","name":"A"},{"name":"B"}]`, "card 1 has no id"},
		{"duplicate id", `[{"id":"a","name":"A"},{"id":"a","name":"B"}]`, `duplicate card id "a"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := storeWith("data/custom.json", tt.data).GetDeck(context.Background(), "custom")
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoad_EmptyDeck(t *testing.T) {
	_, err := storeWith("data/empty.json", `[]`).GetDeck(context.Background(), "empty")
	if !errors.Is(err, domain.ErrEmptyDeck) {
		t.Fatalf("expected ErrEmptyDeck, got %v", err)
	}
}

func TestLoad_DeckIDFromFileName(t *testing.T) {
	s := storeWith("data/lenormand.json", `[{"id":"rider","name":"Rider"},{"id":"clover","name":"Clover"}]`)

	deck, err := s.GetDeck(context.Background(), "lenormand")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deck.ID != "lenormand" || deck.Name != "lenormand" || len(deck.Cards) != 2 {
		t.Errorf("unexpected deck: %+v", deck)
	}
}
