package spread_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/randomtoy/tarot-fan/internal/spread"
)

func TestLoop_RendersAndMarshalsCommands(t *testing.T) {
	cfg := spread.DefaultConfig()
	cfg.MountDelay = 0
	e := spread.New(cfg, nil)

	frames := make(chan spread.Frame, 1)
	loop := spread.NewLoop(e, 250, spread.RendererFunc(func(f spread.Frame) {
		select {
		case frames <- f:
		default:
		}
	}))
	loop.Start(context.Background())
	defer loop.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := loop.Do(ctx, func(e *spread.Engine) {
		e.SetDeck(testCards(6))
		e.Resize(800, 600)
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}

	for {
		select {
		case f := <-frames:
			if len(f.Cards) == 6 {
				var deck []spread.Card
				if err := loop.Do(ctx, func(e *spread.Engine) { deck = e.Deck() }); err != nil {
					t.Fatalf("Do: %v", err)
				}
				if len(deck) != 6 {
					t.Fatalf("deck = %d cards, want 6", len(deck))
				}
				return
			}
		case <-ctx.Done():
			t.Fatal("no frame with cards rendered")
		}
	}
}

func TestLoop_StopClosesEngine(t *testing.T) {
	e := spread.New(spread.DefaultConfig(), nil)
	loop := spread.NewLoop(e, 100, nil)
	loop.Start(context.Background())
	loop.Stop()
	loop.Stop()

	select {
	case <-loop.Done():
	default:
		t.Fatal("loop goroutine still running")
	}
	err := loop.Do(context.Background(), func(*spread.Engine) {})
	if !errors.Is(err, spread.ErrLoopStopped) {
		t.Fatalf("Do after Stop = %v, want ErrLoopStopped", err)
	}

	e.SetDeck(testCards(4))
	if len(e.Deck()) != 0 {
		t.Error("engine should be closed after Stop")
	}
}

func TestLoop_StopBeforeStart(t *testing.T) {
	loop := spread.NewLoop(spread.New(spread.DefaultConfig(), nil), 60, nil)
	loop.Stop()
	loop.Start(context.Background())

	err := loop.Do(context.Background(), func(*spread.Engine) {})
	if !errors.Is(err, spread.ErrLoopStopped) {
		t.Fatalf("Do = %v, want ErrLoopStopped", err)
	}
}

func TestLoop_ContextCancelsLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	loop := spread.NewLoop(spread.New(spread.DefaultConfig(), nil), 60, nil)
	loop.Start(ctx)
	cancel()

	select {
	case <-loop.Done():
	case <-time.After(time.Second):
		t.Fatal("loop ignored context cancellation")
	}
	loop.Stop()
}
