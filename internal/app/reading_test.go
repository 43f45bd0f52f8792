package app_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/randomtoy/tarot-fan/internal/app"
	"github.com/randomtoy/tarot-fan/internal/domain"
	"github.com/randomtoy/tarot-fan/internal/ports"
	"github.com/randomtoy/tarot-fan/internal/spread"
)

type mockDeckStore struct {
	deck domain.Deck
	err  error
}

func (m *mockDeckStore) GetDeck(_ context.Context, _ string) (domain.Deck, error) {
	return m.deck, m.err
}

type mockInterpreter struct {
	mu    sync.Mutex
	out   ports.InterpretOutput
	err   error
	calls int
	last  ports.InterpretInput
	// during runs inside Interpret with the call number.
	during func(call int)
}

func (m *mockInterpreter) Interpret(_ context.Context, in ports.InterpretInput) (ports.InterpretOutput, error) {
	m.mu.Lock()
	m.calls++
	m.last = in
	call, out, err, during := m.calls, m.out, m.err, m.during
	m.mu.Unlock()
	if during != nil {
		during(call)
	}
	return out, err
}

type fixedRNG struct{ val int }

func (r fixedRNG) Intn(n int) int { return r.val % n }

func testDeck() domain.Deck {
	cards := make([]domain.Card, 22)
	for i := range 22 {
		cards[i] = domain.Card{
			ID:       "card_" + string(rune('a'+i)),
			Name:     "Card " + string(rune('A'+i)),
			Keywords: []string{"kw1"},
			Short:    "Short.",
		}
	}
	return domain.Deck{ID: "major_arcana", Name: "Major Arcana", Cards: cards}
}

// fastConfig makes the spread settle in a few dozen frames.
func fastConfig() spread.Config {
	cfg := spread.DefaultConfig()
	cfg.MountDelay = 0
	cfg.QuotaDelay = 0
	cfg.Speed = 0.5
	cfg.ConvergeSpeed = 0.5
	cfg.OffsetSpeed = 0.5
	return cfg
}

func newService(ds ports.DeckStore, interp ports.Interpreter) *app.ReadingService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return app.NewReadingService(ds, interp, fixedRNG{val: 0}, "test-model", fastConfig(), 500, logger)
}

func waitPhase(t *testing.T, sess *app.Session, phase spread.Phase) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if sess.Phase() == phase {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("phase %s not reached, still %s", phase, sess.Phase())
}

func startSession(t *testing.T, svc *app.ReadingService, maxSelected int) *app.Session {
	t.Helper()
	sess, err := svc.Start(context.Background(), app.StartRequest{
		DeckID:      "major_arcana",
		MaxSelected: maxSelected,
		Question:    "What now?",
		Width:       1280,
		Height:      800,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close(sess.ID) })
	return sess
}

func TestReadingService_FullReading(t *testing.T) {
	interp := &mockInterpreter{
		out: ports.InterpretOutput{
			Text:       "An insightful interpretation.",
			Style:      "neutral",
			Disclaimer: "For reflection only.",
		},
	}
	svc := newService(&mockDeckStore{deck: testDeck()}, interp)
	sess := startSession(t, svc, 3)
	ctx := context.Background()

	if sess.SpreadType != domain.SpreadThreeCard {
		t.Fatalf("unexpected spread type: %s", sess.SpreadType)
	}

	waitPhase(t, sess, spread.Selecting)
	for _, slot := range []int{2, 9, 15} {
		ok, err := sess.Select(ctx, slot)
		if err != nil || !ok {
			t.Fatalf("select %d: ok=%v err=%v", slot, ok, err)
		}
	}

	if _, err := svc.Reading(ctx, sess.ID); !errors.Is(err, domain.ErrReadingIncomplete) {
		t.Fatalf("expected ErrReadingIncomplete, got %v", err)
	}

	waitPhase(t, sess, spread.FlipEnabled)
	for _, slot := range []int{15, 2, 9} {
		ok, err := sess.Flip(ctx, slot)
		if err != nil || !ok {
			t.Fatalf("flip %d: ok=%v err=%v", slot, ok, err)
		}
	}

	resp, err := svc.Reading(ctx, sess.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Cards) != 3 {
		t.Fatalf("expected 3 cards, got %d", len(resp.Cards))
	}
	labels := []string{"past", "present", "future"}
	for i, c := range resp.Cards {
		if c.Position != i+1 || c.Label != labels[i] {
			t.Errorf("card %d: position %d label %q", i, c.Position, c.Label)
		}
	}
	if resp.Interpretation.Text != "An insightful interpretation." {
		t.Errorf("unexpected interpretation text: %s", resp.Interpretation.Text)
	}
	if resp.Model != "test-model" {
		t.Errorf("unexpected model: %s", resp.Model)
	}
	if interp.last.Question != "What now?" || len(interp.last.Cards) != 3 {
		t.Errorf("unexpected interpreter input: %+v", interp.last)
	}

	if _, err := svc.Reading(ctx, sess.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if interp.calls != 1 {
		t.Errorf("interpretation should be cached, got %d calls", interp.calls)
	}
}

func TestReadingService_RevealOrderFollowsFlips(t *testing.T) {
	svc := newService(&mockDeckStore{deck: testDeck()}, nil)
	sess := startSession(t, svc, 2)
	ctx := context.Background()

	waitPhase(t, sess, spread.Selecting)
	sess.Select(ctx, 4)
	sess.Select(ctx, 5)
	waitPhase(t, sess, spread.FlipEnabled)

	f, err := sess.Snapshot(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sess.Flip(ctx, 5)
	sess.Flip(ctx, 4)

	revealed := sess.Revealed()
	if len(revealed) != 2 {
		t.Fatalf("expected 2 revealed cards, got %d", len(revealed))
	}
	if revealed[0].ID != f.Cards[5].CardID || revealed[1].ID != f.Cards[4].CardID {
		t.Errorf("reveal order does not follow flips: %v", revealed)
	}

	resp, err := svc.Reading(ctx, sess.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Interpretation.Text != "" {
		t.Error("no interpreter, no interpretation")
	}
}

func TestReadingService_ResetClearsReading(t *testing.T) {
	svc := newService(&mockDeckStore{deck: testDeck()}, nil)
	sess := startSession(t, svc, 1)
	ctx := context.Background()

	waitPhase(t, sess, spread.Selecting)
	sess.Select(ctx, 0)
	waitPhase(t, sess, spread.FlipEnabled)
	sess.Flip(ctx, 0)

	if err := sess.Reset(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sess.Revealed()) != 0 {
		t.Error("reset should clear revealed cards")
	}
	if sess.Phase() != spread.Spreading {
		t.Errorf("phase after reset: %s", sess.Phase())
	}
	if _, err := svc.Reading(ctx, sess.ID); !errors.Is(err, domain.ErrReadingIncomplete) {
		t.Errorf("expected ErrReadingIncomplete, got %v", err)
	}
}

func TestReadingService_Events(t *testing.T) {
	svc := newService(&mockDeckStore{deck: testDeck()}, nil)
	sess := startSession(t, svc, 1)
	ctx := context.Background()

	events, unsubscribe := sess.Subscribe()
	defer unsubscribe()

	waitPhase(t, sess, spread.Selecting)
	sess.Select(ctx, 7)

	timeout := time.After(3 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Type == app.EventCardSelected {
				if ev.CardID == "" {
					t.Error("selected event without card id")
				}
				return
			}
		case <-timeout:
			t.Fatal("no card_selected event")
		}
	}
}

func TestReadingService_Point(t *testing.T) {
	svc := newService(&mockDeckStore{deck: testDeck()}, nil)
	sess := startSession(t, svc, 1)
	ctx := context.Background()

	waitPhase(t, sess, spread.Selecting)
	f, _ := sess.Snapshot(ctx)
	c := f.Cards[0]

	slot, err := sess.Point(ctx, c.X, c.Y, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slot != 0 {
		t.Fatalf("expected slot 0 under its own center, got %d", slot)
	}
	waitPhase(t, sess, spread.FlipEnabled)

	if slot, _ := sess.Point(ctx, -1000, -1000, true); slot != -1 {
		t.Errorf("expected no slot, got %d", slot)
	}
}

func TestReadingService_DeckNotFound(t *testing.T) {
	svc := newService(&mockDeckStore{err: domain.ErrDeckNotFound}, nil)

	_, err := svc.Start(context.Background(), app.StartRequest{DeckID: "nonexistent"})
	if !errors.Is(err, domain.ErrDeckNotFound) {
		t.Fatalf("expected ErrDeckNotFound, got %v", err)
	}
	if svc.Count() != 0 {
		t.Error("no session should be registered")
	}
}

func TestReadingService_LLMFailure(t *testing.T) {
	interp := &mockInterpreter{err: domain.ErrUpstreamLLM}
	svc := newService(&mockDeckStore{deck: testDeck()}, interp)
	sess := startSession(t, svc, 1)
	ctx := context.Background()

	waitPhase(t, sess, spread.Selecting)
	sess.Select(ctx, 3)
	waitPhase(t, sess, spread.FlipEnabled)
	sess.Flip(ctx, 3)

	if _, err := svc.Reading(ctx, sess.ID); !errors.Is(err, domain.ErrUpstreamLLM) {
		t.Fatalf("expected ErrUpstreamLLM, got %v", err)
	}
}

func TestReadingService_Close(t *testing.T) {
	svc := newService(&mockDeckStore{deck: testDeck()}, nil)
	sess, err := svc.Start(context.Background(), app.StartRequest{DeckID: "major_arcana", Width: 800, Height: 600})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	events, _ := sess.Subscribe()

	if err := svc.Close(sess.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Session(sess.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
	if err := svc.Close(sess.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound on second close, got %v", err)
	}
	if _, err := sess.Select(context.Background(), 0); !errors.Is(err, spread.ErrLoopStopped) {
		t.Errorf("expected ErrLoopStopped, got %v", err)
	}
	for range events {
	}
}

func TestReadingService_ResetDuringInterpretation(t *testing.T) {
	ctx := context.Background()
	interp := &mockInterpreter{out: ports.InterpretOutput{Text: "First deal."}}
	svc := newService(&mockDeckStore{deck: testDeck()}, interp)
	sess := startSession(t, svc, 1)
	interp.during = func(call int) {
		if call == 1 {
			if err := sess.Reset(ctx); err != nil {
				t.Errorf("reset: %v", err)
			}
		}
	}

	reveal := func() {
		t.Helper()
		waitPhase(t, sess, spread.Selecting)
		if ok, err := sess.Select(ctx, 4); err != nil || !ok {
			t.Fatalf("select: ok=%v err=%v", ok, err)
		}
		waitPhase(t, sess, spread.FlipEnabled)
		if ok, err := sess.Flip(ctx, 4); err != nil || !ok {
			t.Fatalf("flip: ok=%v err=%v", ok, err)
		}
	}

	reveal()
	resp, err := svc.Reading(ctx, sess.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Cards) != 1 || resp.Interpretation.Text != "First deal." {
		t.Errorf("unexpected response: %+v", resp)
	}

	if _, err := svc.Reading(ctx, sess.ID); !errors.Is(err, domain.ErrReadingIncomplete) {
		t.Fatalf("expected ErrReadingIncomplete after reset, got %v", err)
	}

	reveal()
	if _, err := svc.Reading(ctx, sess.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	interp.mu.Lock()
	defer interp.mu.Unlock()
	if interp.calls != 2 {
		t.Errorf("interpreter called %d times, want 2: the first result belongs to the old deal", interp.calls)
	}
}

func TestReadingService_DeckSmallerThanQuota(t *testing.T) {
	ctx := context.Background()
	deck := testDeck()
	deck.Cards = deck.Cards[:2]
	svc := newService(&mockDeckStore{deck: deck}, &mockInterpreter{})
	sess := startSession(t, svc, 3)

	if sess.MaxSelected != 2 {
		t.Fatalf("max selected = %d, want the deck size", sess.MaxSelected)
	}
	waitPhase(t, sess, spread.Selecting)
	for _, slot := range []int{0, 1} {
		if ok, err := sess.Select(ctx, slot); err != nil || !ok {
			t.Fatalf("select %d: ok=%v err=%v", slot, ok, err)
		}
	}
	waitPhase(t, sess, spread.FlipEnabled)
	for _, slot := range []int{1, 0} {
		if ok, err := sess.Flip(ctx, slot); err != nil || !ok {
			t.Fatalf("flip %d: ok=%v err=%v", slot, ok, err)
		}
	}

	resp, err := svc.Reading(ctx, sess.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Cards) != 2 {
		t.Errorf("expected 2 cards, got %d", len(resp.Cards))
	}
}
