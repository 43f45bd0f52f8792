package http

import (
	"time"

	"github.com/randomtoy/tarot-fan/internal/domain"
)

// CreateSpreadRequest is the body of POST /v1/spreads.
type CreateSpreadRequest struct {
	Deck        string  `json:"deck"`
	MaxSelected int     `json:"max_selected"`
	Question    string  `json:"question"`
	Lang        string  `json:"lang"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
}

type SpreadResponse struct {
	ID          string    `json:"id"`
	Deck        string    `json:"deck"`
	Spread      string    `json:"spread"`
	MaxSelected int       `json:"max_selected"`
	Phase       string    `json:"phase"`
	CreatedAt   time.Time `json:"created_at"`
}

type ViewportRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// SlotRequest is the body of the select and flip endpoints. Slot is a
// pointer so a missing field is distinguishable from slot 0.
type SlotRequest struct {
	Slot *int `json:"slot"`
}

type HoverRequest struct {
	Slot *int `json:"slot"`
	On   bool `json:"on"`
}

// ReadingResponse is the JSON shape returned by GET /v1/spreads/:id/reading.
type ReadingResponse struct {
	Spread         string              `json:"spread"`
	Deck           string              `json:"deck"`
	Cards          []CardResponse      `json:"cards"`
	Interpretation *InterpretationResp `json:"interpretation,omitempty"`
	Meta           MetaResp            `json:"meta"`
}

type CardResponse struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Position    int                `json:"position"`
	Label       string             `json:"label,omitempty"`
	Orientation domain.Orientation `json:"orientation"`
	Keywords    []string           `json:"keywords"`
	Short       string             `json:"short"`
}

type InterpretationResp struct {
	Style      string `json:"style"`
	Text       string `json:"text"`
	Disclaimer string `json:"disclaimer"`
}

type MetaResp struct {
	SessionID string `json:"session_id"`
	Model     string `json:"model,omitempty"`
	RequestID string `json:"request_id"`
	LatencyMS int64  `json:"latency_ms"`
}

// Envelope is a message received on the spread WebSocket.
type Envelope struct {
	Type   string  `json:"type"`
	Slot   int     `json:"slot"`
	On     bool    `json:"on"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Click  bool    `json:"click"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
