package http

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const headerRequestID = "X-Request-Id"

// RequestIDMiddleware ensures every request has an X-Request-Id, reusing
// the caller's when present.
func RequestIDMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(headerRequestID)
			if id == "" {
				id = uuid.NewString()
			}
			c.Response().Header().Set(headerRequestID, id)
			c.Set("request_id", id)
			return next(c)
		}
	}
}

// LoggingMiddleware logs each request with structured fields. Spread routes
// carry their session ID; server errors are logged at warn.
func LoggingMiddleware(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			level := slog.LevelInfo
			if status >= 500 {
				level = slog.LevelWarn
			}
			attrs := []any{
				"request_id", c.Get("request_id"),
				"method", c.Request().Method,
				"route", c.Path(),
				"status", status,
				"latency_ms", time.Since(start).Milliseconds(),
			}
			if id := c.Param("id"); id != "" {
				attrs = append(attrs, "session_id", id)
			}
			logger.Log(c.Request().Context(), level, "request", attrs...)
			return err
		}
	}
}
