package decks

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"

	"github.com/randomtoy/tarot-fan/internal/domain"
)

//go:embed data/*.json
var deckFS embed.FS

// deckNames holds display names; a deck without one is named after its ID.
var deckNames = map[string]string{
	"major_arcana": "Major Arcana",
}

// EmbeddedStore serves the decks under data/. Each file is one deck whose
// ID is the file name without extension. Decks are parsed and checked once.
type EmbeddedStore struct {
	fsys  fs.FS
	once  sync.Once
	decks map[string]domain.Deck
	err   error
}

func NewEmbeddedStore() *EmbeddedStore {
	return &EmbeddedStore{fsys: deckFS}
}

func (s *EmbeddedStore) load() {
	files, err := fs.Glob(s.fsys, "data/*.json")
	if err != nil {
		s.err = fmt.Errorf("list embedded decks: %w", err)
		return
	}
	s.decks = make(map[string]domain.Deck, len(files))
	for _, file := range files {
		id := strings.TrimSuffix(path.Base(file), ".json")
		deck, err := s.parse(id, file)
		if err != nil {
			s.err = err
			return
		}
		s.decks[id] = deck
	}
}

func (s *EmbeddedStore) parse(id, file string) (domain.Deck, error) {
	raw, err := fs.ReadFile(s.fsys, file)
	if err != nil {
		return domain.Deck{}, fmt.Errorf("read deck %s: %w", id, err)
	}
	var cards []domain.Card
	if err := json.Unmarshal(raw, &cards); err != nil {
		return domain.Deck{}, fmt.Errorf("parse deck %s: %w", id, err)
	}
	if len(cards) == 0 {
		return domain.Deck{}, fmt.Errorf("deck %s: %w", id, domain.ErrEmptyDeck)
	}
	seen := make(map[string]bool, len(cards))
	for i, c := range cards {
		if c.ID == "" {
			return domain.Deck{}, fmt.Errorf("deck %s: card %d has no id", id, i)
		}
		if seen[c.ID] {
			return domain.Deck{}, fmt.Errorf("deck %s: duplicate card id %q", id, c.ID)
		}
		seen[c.ID] = true
	}

	name := deckNames[id]
	if name == "" {
		name = id
	}
	return domain.Deck{ID: id, Name: name, Cards: cards}, nil
}

// GetDeck returns a copy of the deck; callers may reorder its cards.
func (s *EmbeddedStore) GetDeck(_ context.Context, deckID string) (domain.Deck, error) {
	s.once.Do(s.load)
	if s.err != nil {
		return domain.Deck{}, s.err
	}
	deck, ok := s.decks[deckID]
	if !ok {
		return domain.Deck{}, fmt.Errorf("deck %q: %w", deckID, domain.ErrDeckNotFound)
	}
	deck.Cards = append([]domain.Card(nil), deck.Cards...)
	return deck, nil
}
