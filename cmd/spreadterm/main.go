package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/term"

	"github.com/randomtoy/tarot-fan/internal/adapters/decks"
	"github.com/randomtoy/tarot-fan/internal/adapters/terminal"
	"github.com/randomtoy/tarot-fan/internal/config"
	"github.com/randomtoy/tarot-fan/internal/domain"
)

type stdRNG struct{}

func (stdRNG) Intn(n int) int { return rand.IntN(n) }

func main() {
	deckID := flag.String("deck", "major_arcana", "deck to spread")
	maxSelected := flag.Int("n", 0, "cards to pick (1, 2, 3 or 5); overrides SPREAD_MAX_SELECTED")
	logFile := flag.String("log", "", "write debug logs to this file")
	flag.Parse()

	// The terminal belongs to the screen; logs go to a file or nowhere.
	var logOut io.Writer = io.Discard
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			slog.Error("failed to open log file", "error", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	}
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{Level: slog.LevelDebug}))

	cfg, fps, err := config.LoadSpread()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *maxSelected != 0 {
		cfg.MaxSelected = *maxSelected
	}

	deck, err := decks.NewEmbeddedStore().GetDeck(context.Background(), *deckID)
	if err != nil {
		slog.Error("failed to load deck", "deck", *deckID, "error", err)
		os.Exit(1)
	}
	rng := stdRNG{}
	deck = domain.ShuffleDeck(deck, rng)

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		slog.Error("spreadterm needs an interactive terminal")
		os.Exit(1)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		slog.Error("failed to create screen", "error", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		slog.Error("failed to init screen", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	host := terminal.NewHost(screen, deck, cfg, rng, fps, logger)
	runErr := host.Run(ctx)
	screen.Fini()
	if runErr != nil {
		slog.Error("spread failed", "error", runErr)
		os.Exit(1)
	}

	for _, dc := range host.Revealed() {
		fmt.Printf("%d. %-10s %s (%s)\n", dc.Position, dc.Label, dc.Name, dc.Orientation)
	}
}
