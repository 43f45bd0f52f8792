package main

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/randomtoy/tarot-fan/internal/adapters/decks"
	httpadapter "github.com/randomtoy/tarot-fan/internal/adapters/http"
	"github.com/randomtoy/tarot-fan/internal/adapters/llm/openrouter"
	"github.com/randomtoy/tarot-fan/internal/app"
	"github.com/randomtoy/tarot-fan/internal/config"
	"github.com/randomtoy/tarot-fan/internal/ports"
)

// stdRNG delegates to math/rand/v2 (auto-seeded).
type stdRNG struct{}

func (stdRNG) Intn(n int) int { return rand.IntN(n) }

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	deckStore := decks.NewEmbeddedStore()

	var interpreter ports.Interpreter
	if cfg.LLMProvider == config.ProviderOpenRouter {
		interpreter = openrouter.NewClient(
			&http.Client{Timeout: cfg.LLMTimeout},
			cfg.OpenRouterAPIKey,
			cfg.OpenRouterBaseURL,
			cfg.LLMModel,
			cfg.LLMFallbackModels,
			logger,
		)
	}

	svc := app.NewReadingService(deckStore, interpreter, stdRNG{}, cfg.LLMModel, cfg.Spread, cfg.SpreadFPS, logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(httpadapter.RequestIDMiddleware())
	e.Use(httpadapter.LoggingMiddleware(logger))

	handler := httpadapter.NewHandler(svc, logger)
	handler.Register(e)

	// Graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		logger.Info("starting server",
			"addr", cfg.HTTPAddr,
			"llm_provider", cfg.LLMProvider,
			"fps", cfg.SpreadFPS,
			"max_selected", cfg.Spread.MaxSelected,
		)
		if err := e.Start(cfg.HTTPAddr); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	svc.CloseAll()
}
