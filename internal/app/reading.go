package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/randomtoy/tarot-fan/internal/domain"
	"github.com/randomtoy/tarot-fan/internal/ports"
	"github.com/randomtoy/tarot-fan/internal/spread"
)

// StartRequest is the application-level input for a new spread (no HTTP types).
type StartRequest struct {
	DeckID      string
	MaxSelected int
	Question    string
	Lang        string
	Width       float64
	Height      float64
}

// ReadingResponse is the application-level output of a fully revealed spread.
type ReadingResponse struct {
	SessionID      string
	SpreadType     domain.SpreadType
	DeckID         string
	Cards          []domain.DrawnCard
	Interpretation ports.InterpretOutput
	Model          string
	LatencyMS      int64
}

// ReadingService runs spread sessions and interprets finished readings.
type ReadingService struct {
	deckStore   ports.DeckStore
	interpreter ports.Interpreter
	rng         domain.RNG
	model       string
	engineCfg   spread.Config
	fps         int
	logger      *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewReadingService wires the service. interp may be nil, in which case
// readings come back without an interpretation.
func NewReadingService(ds ports.DeckStore, interp ports.Interpreter, rng domain.RNG, model string, engineCfg spread.Config, fps int, logger *slog.Logger) *ReadingService {
	return &ReadingService{
		deckStore:   ds,
		interpreter: interp,
		rng:         &lockedRNG{rng: rng},
		model:       model,
		engineCfg:   engineCfg,
		fps:         fps,
		logger:      logger,
		sessions:    make(map[string]*Session),
	}
}

// Start shuffles the requested deck and opens a spread session on it. The
// session's frame loop runs until Close.
func (s *ReadingService) Start(ctx context.Context, req StartRequest) (*Session, error) {
	deck, err := s.deckStore.GetDeck(ctx, req.DeckID)
	if err != nil {
		return nil, fmt.Errorf("get deck: %w", err)
	}
	if len(deck.Cards) == 0 {
		return nil, fmt.Errorf("deck %s: %w", req.DeckID, domain.ErrEmptyDeck)
	}
	deck = domain.ShuffleDeck(deck, s.rng)

	cfg := s.engineCfg
	if req.MaxSelected != 0 {
		cfg.MaxSelected = req.MaxSelected
	}
	cfg = cfg.Normalize()

	sess := newSession(newSessionID(), deck, cfg.MaxSelected, req, s.rng, s.logger)
	engine := spread.New(cfg, sess)
	engine.SetDeck(sess.engineCards(deck))
	engine.Resize(req.Width, req.Height)
	sess.MaxSelected = engine.Quota()
	sess.loop = spread.NewLoop(engine, s.fps, sess)
	sess.loop.Start(context.Background())

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "spread session started",
		"session_id", sess.ID,
		"deck", deck.ID,
		"cards", len(deck.Cards),
		"max_selected", sess.MaxSelected,
	)
	return sess, nil
}

// Session looks up a running session.
func (s *ReadingService) Session(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return sess, nil
}

// Close stops a session's frame loop and forgets it.
func (s *ReadingService) Close(id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return domain.ErrSessionNotFound
	}
	sess.close()
	s.logger.Info("spread session closed", "session_id", id)
	return nil
}

// CloseAll stops every session.
func (s *ReadingService) CloseAll() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()
	for _, sess := range sessions {
		sess.close()
	}
}

// Count returns the number of running sessions.
func (s *ReadingService) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Reading returns the revealed cards of a session together with an
// interpretation. It fails with ErrReadingIncomplete until every selected
// card has been turned over. The interpretation is computed once per reading.
func (s *ReadingService) Reading(ctx context.Context, id string) (ReadingResponse, error) {
	sess, err := s.Session(id)
	if err != nil {
		return ReadingResponse{}, err
	}
	cards, deal := sess.revealedDeal()
	if len(cards) < sess.MaxSelected {
		return ReadingResponse{}, domain.ErrReadingIncomplete
	}

	resp := ReadingResponse{
		SessionID:  sess.ID,
		SpreadType: sess.SpreadType,
		DeckID:     sess.DeckID,
		Cards:      cards,
	}
	if s.interpreter == nil {
		return resp, nil
	}

	if out, latency, ok := sess.cachedInterpretation(); ok {
		resp.Interpretation = out
		resp.Model = interpretationModel(out.Model, s.model)
		resp.LatencyMS = latency
		return resp, nil
	}

	llmInput := ports.InterpretInput{
		DeckID:   sess.DeckID,
		Spread:   string(sess.SpreadType),
		Question: sess.Question,
		Lang:     sess.Lang,
		Cards:    toCardInputs(cards),
	}

	start := time.Now()
	interpretation, err := s.interpreter.Interpret(ctx, llmInput)
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return ReadingResponse{}, fmt.Errorf("interpret: %w", err)
	}
	if !sess.storeInterpretation(deal, interpretation, latency) {
		s.logger.InfoContext(ctx, "session reset during interpretation, result not cached", "session_id", sess.ID)
	}

	resp.Interpretation = interpretation
	resp.Model = interpretationModel(interpretation.Model, s.model)
	resp.LatencyMS = latency
	return resp, nil
}

func interpretationModel(fromLLM, fallback string) string {
	if fromLLM != "" {
		return fromLLM
	}
	return fallback
}

func toCardInputs(cards []domain.DrawnCard) []ports.CardInput {
	out := make([]ports.CardInput, len(cards))
	for i, c := range cards {
		out[i] = ports.CardInput{
			Name:        c.Name,
			Position:    c.Position,
			Label:       c.Label,
			Orientation: string(c.Orientation),
			Keywords:    c.Keywords,
			Short:       c.Short,
		}
	}
	return out
}

func newSessionID() string {
	return uuid.NewString()
}

// lockedRNG serializes an RNG shared by every session's frame loop.
type lockedRNG struct {
	mu  sync.Mutex
	rng domain.RNG
}

func (r *lockedRNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Intn(n)
}
