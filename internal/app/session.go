package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/randomtoy/tarot-fan/internal/domain"
	"github.com/randomtoy/tarot-fan/internal/ports"
	"github.com/randomtoy/tarot-fan/internal/spread"
)

// EventType tags a session event.
type EventType string

const (
	EventFrame        EventType = "frame"
	EventFanProgress  EventType = "fan_progress"
	EventCardSelected EventType = "card_selected"
	EventCardRevealed EventType = "card_revealed"
	EventPhase        EventType = "phase"
)

// Event is pushed to session subscribers.
type Event struct {
	Type     EventType         `json:"type"`
	Phase    spread.Phase      `json:"phase"`
	Progress float64           `json:"progress,omitempty"`
	CardID   string            `json:"card_id,omitempty"`
	Order    int               `json:"order"`
	Card     *domain.DrawnCard `json:"card,omitempty"`
	Frame    *spread.Frame     `json:"frame,omitempty"`
}

const subscriberBuffer = 64

// Session is one running spread. Its engine lives on its own frame loop; the
// methods below marshal host input onto that loop.
type Session struct {
	ID          string
	DeckID      string
	SpreadType  domain.SpreadType
	MaxSelected int
	Question    string
	Lang        string
	CreatedAt   time.Time

	loop   *spread.Loop
	cards  map[string]domain.Card
	rng    domain.RNG
	logger *slog.Logger

	mu    sync.Mutex
	phase spread.Phase
	// deal counts resets; an interpretation is kept only for the deal whose
	// cards it was computed from.
	deal           uint64
	revealed       []domain.DrawnCard
	interpretation *ports.InterpretOutput
	latencyMS      int64
	subs           map[int]chan Event
	nextSub        int
	closed         bool
}

func newSession(id string, deck domain.Deck, maxSelected int, req StartRequest, rng domain.RNG, logger *slog.Logger) *Session {
	cards := make(map[string]domain.Card, len(deck.Cards))
	for _, c := range deck.Cards {
		cards[c.ID] = c
	}
	return &Session{
		ID:          id,
		DeckID:      deck.ID,
		SpreadType:  domain.SpreadTypeFor(maxSelected),
		MaxSelected: maxSelected,
		Question:    req.Question,
		Lang:        req.Lang,
		CreatedAt:   time.Now(),
		cards:       cards,
		rng:         rng,
		logger:      logger.With("session_id", id),
		subs:        make(map[int]chan Event),
	}
}

func (s *Session) engineCards(deck domain.Deck) []spread.Card {
	out := make([]spread.Card, len(deck.Cards))
	for i, c := range deck.Cards {
		out[i] = spread.Card{ID: c.ID, Payload: c}
	}
	return out
}

// Hover reports pointer enter (on) or leave for a slot.
func (s *Session) Hover(ctx context.Context, slot int, on bool) error {
	return s.do(ctx, func(e *spread.Engine) { e.Hover(slot, on) })
}

// Select picks a slot. It reports whether the selection changed.
func (s *Session) Select(ctx context.Context, slot int) (bool, error) {
	var ok bool
	err := s.do(ctx, func(e *spread.Engine) { ok = e.Click(slot) })
	return ok, err
}

// Flip turns a selected card over once the reading row is in place.
func (s *Session) Flip(ctx context.Context, slot int) (bool, error) {
	var ok bool
	err := s.do(ctx, func(e *spread.Engine) { ok = e.RequestFlip(slot) })
	return ok, err
}

// Point applies pointer input at viewport coordinates: the slot under the
// pointer is hovered, and a click selects it or, in the reading row, flips it.
func (s *Session) Point(ctx context.Context, x, y float64, click bool) (int, error) {
	slot := -1
	err := s.do(ctx, func(e *spread.Engine) {
		hit, ok := e.SlotAt(x, y)
		if h := e.Hovered(); h >= 0 && (!ok || h != hit) {
			e.Hover(h, false)
		}
		if !ok {
			return
		}
		slot = hit
		e.Hover(hit, true)
		if !click {
			return
		}
		if e.Phase() == spread.FlipEnabled {
			e.RequestFlip(hit)
			return
		}
		e.Click(hit)
	})
	return slot, err
}

// Reset deals the same deck again from the stack.
func (s *Session) Reset(ctx context.Context) error {
	return s.do(ctx, func(e *spread.Engine) {
		e.Reset()
		s.mu.Lock()
		s.deal++
		s.revealed = nil
		s.interpretation = nil
		s.latencyMS = 0
		s.mu.Unlock()
	})
}

// Resize reports a new viewport size.
func (s *Session) Resize(ctx context.Context, width, height float64) error {
	return s.do(ctx, func(e *spread.Engine) { e.Resize(width, height) })
}

// Snapshot returns the current frame.
func (s *Session) Snapshot(ctx context.Context) (spread.Frame, error) {
	var f spread.Frame
	err := s.do(ctx, func(e *spread.Engine) { f = e.Frame() })
	return f, err
}

// Phase returns the last phase reported by the engine.
func (s *Session) Phase() spread.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Revealed returns the cards turned over so far, in reveal order.
func (s *Session) Revealed() []domain.DrawnCard {
	cards, _ := s.revealedDeal()
	return cards
}

func (s *Session) revealedDeal() ([]domain.DrawnCard, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.DrawnCard(nil), s.revealed...), s.deal
}

// Subscribe returns a channel of session events and a function that
// unsubscribes. The first event reports the current phase. Slow subscribers
// lose events rather than stall the loop.
func (s *Session) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan Event, subscriberBuffer)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	ch <- Event{Type: EventPhase, Phase: s.phase}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
}

func (s *Session) do(ctx context.Context, fn func(*spread.Engine)) error {
	if err := s.loop.Do(ctx, fn); err != nil {
		return fmt.Errorf("session %s: %w", s.ID, err)
	}
	return nil
}

func (s *Session) close() {
	s.loop.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

func (s *Session) cachedInterpretation() (ports.InterpretOutput, int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.interpretation == nil {
		return ports.InterpretOutput{}, 0, false
	}
	return *s.interpretation, s.latencyMS, true
}

// storeInterpretation caches out unless the session was reset since deal.
func (s *Session) storeInterpretation(deal uint64, out ports.InterpretOutput, latencyMS int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if deal != s.deal {
		return false
	}
	s.interpretation = &out
	s.latencyMS = latencyMS
	return true
}

func (s *Session) publish(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev.Phase = s.phase
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// The methods below run on the session's frame loop.

func (s *Session) FanProgress(progress float64) {
	s.publish(Event{Type: EventFanProgress, Progress: progress})
}

func (s *Session) CardSelected(cardID string) {
	s.logger.Debug("card selected", "card_id", cardID)
	s.publish(Event{Type: EventCardSelected, CardID: cardID})
}

func (s *Session) CardRevealed(cardID string, order int) {
	dc := domain.DrawCard(s.cards[cardID], s.SpreadType, order, s.rng)
	s.mu.Lock()
	s.revealed = append(s.revealed, dc)
	s.mu.Unlock()
	s.logger.Debug("card revealed", "card_id", cardID, "order", order, "orientation", dc.Orientation)
	s.publish(Event{Type: EventCardRevealed, CardID: cardID, Order: order, Card: &dc})
}

func (s *Session) PhaseChanged(phase spread.Phase) {
	s.mu.Lock()
	s.phase = phase
	s.mu.Unlock()
	s.logger.Debug("phase changed", "phase", phase.String())
	s.publish(Event{Type: EventPhase})
}

func (s *Session) Render(f spread.Frame) {
	s.publish(Event{Type: EventFrame, Progress: f.Progress, Frame: &f})
}
