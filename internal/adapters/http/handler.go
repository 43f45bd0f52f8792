package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/randomtoy/tarot-fan/internal/app"
	"github.com/randomtoy/tarot-fan/internal/domain"
	"github.com/randomtoy/tarot-fan/internal/spread"
)

const (
	defaultDeck    = "major_arcana"
	maxQuestionLen = 500
	maxViewport    = 16384
)

type Handler struct {
	svc    *app.ReadingService
	logger *slog.Logger
}

func NewHandler(svc *app.ReadingService, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) Register(e *echo.Echo) {
	e.GET("/healthz", h.Healthz)

	g := e.Group("/v1/spreads")
	g.POST("", h.CreateSpread)
	g.GET("/:id", h.GetFrame)
	g.DELETE("/:id", h.DeleteSpread)
	g.POST("/:id/viewport", h.Viewport)
	g.POST("/:id/hover", h.Hover)
	g.POST("/:id/select", h.Select)
	g.POST("/:id/flip", h.Flip)
	g.POST("/:id/reset", h.Reset)
	g.GET("/:id/reading", h.Reading)
	g.GET("/:id/ws", h.Stream)
}

func (h *Handler) Healthz(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (h *Handler) CreateSpread(c echo.Context) error {
	var req CreateSpreadRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if len(req.Question) > maxQuestionLen {
		return badRequest(c, "question must be at most 500 characters")
	}
	if !validViewport(req.Width, req.Height) {
		return badRequest(c, "width and height must be between 0 and 16384")
	}
	if req.Deck == "" {
		req.Deck = defaultDeck
	}

	sess, err := h.svc.Start(c.Request().Context(), app.StartRequest{
		DeckID:      req.Deck,
		MaxSelected: req.MaxSelected,
		Question:    req.Question,
		Lang:        req.Lang,
		Width:       req.Width,
		Height:      req.Height,
	})
	if err != nil {
		return h.mapError(c, err)
	}

	return c.JSON(http.StatusCreated, SpreadResponse{
		ID:          sess.ID,
		Deck:        sess.DeckID,
		Spread:      string(sess.SpreadType),
		MaxSelected: sess.MaxSelected,
		Phase:       sess.Phase().String(),
		CreatedAt:   sess.CreatedAt,
	})
}

func (h *Handler) GetFrame(c echo.Context) error {
	sess, err := h.svc.Session(c.Param("id"))
	if err != nil {
		return h.mapError(c, err)
	}
	f, err := sess.Snapshot(c.Request().Context())
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, f)
}

func (h *Handler) DeleteSpread(c echo.Context) error {
	if err := h.svc.Close(c.Param("id")); err != nil {
		return h.mapError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Viewport(c echo.Context) error {
	var req ViewportRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if !validViewport(req.Width, req.Height) {
		return badRequest(c, "width and height must be between 0 and 16384")
	}
	return h.apply(c, func(sess *app.Session) error {
		return sess.Resize(c.Request().Context(), req.Width, req.Height)
	})
}

func (h *Handler) Hover(c echo.Context) error {
	var req HoverRequest
	if err := c.Bind(&req); err != nil || req.Slot == nil {
		return badRequest(c, "slot is required")
	}
	return h.apply(c, func(sess *app.Session) error {
		return sess.Hover(c.Request().Context(), *req.Slot, req.On)
	})
}

// Select and Flip answer 204 whether or not the engine accepted the input:
// out-of-phase requests are ordinary traffic and are dropped silently.
func (h *Handler) Select(c echo.Context) error {
	var req SlotRequest
	if err := c.Bind(&req); err != nil || req.Slot == nil {
		return badRequest(c, "slot is required")
	}
	return h.apply(c, func(sess *app.Session) error {
		_, err := sess.Select(c.Request().Context(), *req.Slot)
		return err
	})
}

func (h *Handler) Flip(c echo.Context) error {
	var req SlotRequest
	if err := c.Bind(&req); err != nil || req.Slot == nil {
		return badRequest(c, "slot is required")
	}
	return h.apply(c, func(sess *app.Session) error {
		_, err := sess.Flip(c.Request().Context(), *req.Slot)
		return err
	})
}

func (h *Handler) Reset(c echo.Context) error {
	return h.apply(c, func(sess *app.Session) error {
		return sess.Reset(c.Request().Context())
	})
}

func (h *Handler) Reading(c echo.Context) error {
	resp, err := h.svc.Reading(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.mapError(c, err)
	}
	requestID, _ := c.Get("request_id").(string)
	return c.JSON(http.StatusOK, toResponse(resp, requestID))
}

func (h *Handler) apply(c echo.Context, fn func(*app.Session) error) error {
	sess, err := h.svc.Session(c.Param("id"))
	if err != nil {
		return h.mapError(c, err)
	}
	if err := fn(sess); err != nil {
		return h.mapError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func validViewport(w, h float64) bool {
	return w >= 0 && h >= 0 && w <= maxViewport && h <= maxViewport
}

func toResponse(r app.ReadingResponse, requestID string) ReadingResponse {
	cards := make([]CardResponse, len(r.Cards))
	for i, dc := range r.Cards {
		cards[i] = CardResponse{
			ID:          dc.ID,
			Name:        dc.Name,
			Position:    dc.Position,
			Label:       dc.Label,
			Orientation: dc.Orientation,
			Keywords:    dc.Keywords,
			Short:       dc.Short,
		}
	}
	resp := ReadingResponse{
		Spread: string(r.SpreadType),
		Deck:   r.DeckID,
		Cards:  cards,
		Meta: MetaResp{
			SessionID: r.SessionID,
			Model:     r.Model,
			RequestID: requestID,
			LatencyMS: r.LatencyMS,
		},
	}
	if r.Interpretation.Text != "" {
		resp.Interpretation = &InterpretationResp{
			Style:      r.Interpretation.Style,
			Text:       r.Interpretation.Text,
			Disclaimer: r.Interpretation.Disclaimer,
		}
	}
	return resp
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func (h *Handler) mapError(c echo.Context, err error) error {
	requestID, _ := c.Get("request_id").(string)

	switch {
	case errors.Is(err, domain.ErrDeckNotFound), errors.Is(err, domain.ErrSessionNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, spread.ErrLoopStopped):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: domain.ErrSessionNotFound.Error()})
	case errors.Is(err, domain.ErrEmptyDeck):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrReadingIncomplete):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrUpstreamLLM), errors.Is(err, domain.ErrInvalidLLMJSON):
		h.logger.Error("upstream LLM failure", "request_id", requestID, "error", err)
		return c.JSON(http.StatusBadGateway, ErrorResponse{Error: "upstream LLM failure"})
	default:
		h.logger.Error("internal error", "request_id", requestID, "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
