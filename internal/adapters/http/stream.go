package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/randomtoy/tarot-fan/internal/app"
	"github.com/randomtoy/tarot-fan/internal/spread"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Stream upgrades to a WebSocket that pushes session events and accepts
// input envelopes. Pass frames=false to receive events without per-frame
// snapshots.
func (h *Handler) Stream(c echo.Context) error {
	sess, err := h.svc.Session(c.Param("id"))
	if err != nil {
		return h.mapError(c, err)
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("ws upgrade error", "session_id", sess.ID, "error", err)
		return nil
	}

	events, unsubscribe := sess.Subscribe()
	st := &stream{
		conn:   conn,
		sess:   sess,
		frames: c.QueryParam("frames") != "false",
		logger: h.logger.With("session_id", sess.ID),
	}
	st.logger.Debug("ws connected")

	go st.writePump(events)
	st.readPump(c.Request().Context())
	unsubscribe()

	st.logger.Debug("ws disconnected")
	return nil
}

type stream struct {
	conn   *websocket.Conn
	sess   *app.Session
	frames bool
	logger *slog.Logger
}

func (s *stream) readPump(ctx context.Context) {
	defer s.conn.Close()
	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("ws read error", "error", err)
			}
			return
		}
		var env Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			s.logger.Debug("ws parse error", "error", err)
			continue
		}
		if err := s.handle(ctx, env); err != nil {
			if !errors.Is(err, spread.ErrLoopStopped) {
				s.logger.Warn("ws input failed", "type", env.Type, "error", err)
			}
			return
		}
	}
}

func (s *stream) handle(ctx context.Context, env Envelope) error {
	var err error
	switch env.Type {
	case "hover":
		err = s.sess.Hover(ctx, env.Slot, env.On)
	case "select":
		_, err = s.sess.Select(ctx, env.Slot)
	case "flip":
		_, err = s.sess.Flip(ctx, env.Slot)
	case "reset":
		err = s.sess.Reset(ctx)
	case "viewport":
		if !validViewport(env.Width, env.Height) {
			return nil
		}
		err = s.sess.Resize(ctx, env.Width, env.Height)
	case "pointer":
		_, err = s.sess.Point(ctx, env.X, env.Y, env.Click)
	default:
		s.logger.Debug("ws unknown message type", "type", env.Type)
	}
	return err
}

// writePump owns all writes to the connection. It exits when the event
// channel closes (unsubscribe or session close) or a write fails.
func (s *stream) writePump(events <-chan app.Event) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-events:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if ev.Type == app.EventFrame && !s.frames {
				continue
			}
			if err := s.conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
