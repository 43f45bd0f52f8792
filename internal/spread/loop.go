package spread

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrLoopStopped is returned by Do once the loop has shut down.
var ErrLoopStopped = errors.New("spread loop stopped")

// Renderer receives the frame produced by every tick.
type Renderer interface {
	Render(f Frame)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(f Frame)

func (fn RendererFunc) Render(f Frame) { fn(f) }

// Loop drives an Engine from a single goroutine: it steps the engine on a
// fixed tick and runs host mutations submitted through Do between ticks.
// All engine access must go through the loop once it has started.
type Loop struct {
	engine   *Engine
	interval time.Duration
	renderer Renderer

	cmds chan func(*Engine)
	done chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc
}

// NewLoop returns a loop ticking fps times per second. r may be nil.
func NewLoop(e *Engine, fps int, r Renderer) *Loop {
	if fps <= 0 {
		fps = springFPS
	}
	if r == nil {
		r = RendererFunc(func(Frame) {})
	}
	return &Loop{
		engine:   e,
		interval: time.Second / time.Duration(fps),
		renderer: r,
		cmds:     make(chan func(*Engine)),
		done:     make(chan struct{}),
		cancel:   func() {},
	}
}

// Start launches the loop goroutine. It runs until ctx is done or Stop is called.
func (l *Loop) Start(ctx context.Context) {
	l.startOnce.Do(func() {
		ctx, cancel := context.WithCancel(ctx)
		l.cancel = cancel
		go l.run(ctx)
	})
}

// Stop ends the loop, waits for it and closes the engine. It is safe to call
// more than once and before Start.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		l.startOnce.Do(func() { close(l.done) })
		l.cancel()
		<-l.done
		l.engine.Close()
	})
}

// Done is closed when the loop goroutine has exited.
func (l *Loop) Done() <-chan struct{} { return l.done }

// Do runs fn on the loop goroutine and waits for it to finish.
func (l *Loop) Do(ctx context.Context, fn func(*Engine)) error {
	finished := make(chan struct{})
	cmd := func(e *Engine) {
		fn(e)
		close(finished)
	}
	select {
	case l.cmds <- cmd:
	case <-l.done:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		select {
		case <-finished:
			return nil
		default:
			return ErrLoopStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Loop) run(ctx context.Context) {
	defer close(l.done)
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-l.cmds:
			cmd(l.engine)
		case <-ticker.C:
			l.engine.Step(l.interval)
			l.renderer.Render(l.engine.Frame())
		}
	}
}
