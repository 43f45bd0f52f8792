// Package terminal hosts a single spread in a tcell screen. Cells map onto
// the engine's pixel space at a fixed cell size, so the same geometry and
// hit testing serve both the terminal and the HTTP clients.
package terminal

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/randomtoy/tarot-fan/internal/domain"
	"github.com/randomtoy/tarot-fan/internal/spread"
)

const (
	CellWidth  = 8
	CellHeight = 16
)

var (
	styleBack     = tcell.StyleDefault.Foreground(tcell.ColorSteelBlue).Background(tcell.ColorNavy)
	styleFace     = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorWhite)
	styleSelected = tcell.StyleDefault.Foreground(tcell.ColorYellow).Background(tcell.ColorNavy)
	styleStatus   = tcell.StyleDefault.Foreground(tcell.ColorWhite).Reverse(true)
)

// Host owns the engine and draws it. Every engine call happens on the Run
// goroutine.
type Host struct {
	screen     tcell.Screen
	engine     *spread.Engine
	spreadType domain.SpreadType
	rng        domain.RNG
	interval   time.Duration
	logger     *slog.Logger

	phase    spread.Phase
	revealed []domain.DrawnCard
	pressed  bool
}

func NewHost(screen tcell.Screen, deck domain.Deck, cfg spread.Config, rng domain.RNG, fps int, logger *slog.Logger) *Host {
	if fps <= 0 {
		fps = 60
	}
	cfg = cfg.Normalize()
	h := &Host{
		screen:     screen,
		spreadType: domain.SpreadTypeFor(cfg.MaxSelected),
		rng:        rng,
		interval:   time.Second / time.Duration(fps),
		logger:     logger,
	}
	h.engine = spread.New(cfg, h)

	cards := make([]spread.Card, len(deck.Cards))
	for i, c := range deck.Cards {
		cards[i] = spread.Card{ID: c.ID, Payload: c}
	}
	h.engine.SetDeck(cards)
	return h
}

// Run steps and draws the spread until ctx ends or the user quits.
func (h *Host) Run(ctx context.Context) error {
	defer h.engine.Close()

	h.screen.EnableMouse(tcell.MouseMotionEvents)
	h.resize()

	done := make(chan struct{})
	defer close(done)
	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := h.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if !h.handleEvent(ev) {
				return nil
			}
		case <-ticker.C:
			h.engine.Step(h.interval)
			h.draw()
		}
	}
}

// Phase returns the last phase reported by the engine.
func (h *Host) Phase() spread.Phase { return h.phase }

// Revealed returns the cards turned over so far, in reveal order.
func (h *Host) Revealed() []domain.DrawnCard {
	return append([]domain.DrawnCard(nil), h.revealed...)
}

func (h *Host) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if ev.Key() == tcell.KeyRune {
			switch ev.Rune() {
			case 'q':
				return false
			case 'r':
				h.engine.Reset()
				h.revealed = nil
				h.logger.Debug("spread reset")
			}
		}
	case *tcell.EventMouse:
		h.handleMouse(ev)
	case *tcell.EventResize:
		h.resize()
		h.screen.Sync()
	}
	return true
}

func (h *Host) handleMouse(ev *tcell.EventMouse) {
	col, row := ev.Position()
	x, y := cellToPixel(col, row)

	slot, ok := h.engine.SlotAt(x, y)
	if hv := h.engine.Hovered(); hv >= 0 && (!ok || hv != slot) {
		h.engine.Hover(hv, false)
	}
	if ok {
		h.engine.Hover(slot, true)
	}

	// tcell repeats the button state on motion; act on the press edge only.
	down := ev.Buttons()&tcell.Button1 != 0
	pressed := down && !h.pressed
	h.pressed = down
	if !pressed || !ok {
		return
	}
	if h.engine.Phase() == spread.FlipEnabled {
		h.engine.RequestFlip(slot)
		return
	}
	h.engine.Click(slot)
}

func (h *Host) resize() {
	w, ht := h.screen.Size()
	// The bottom row is the status line.
	h.engine.Resize(float64(w*CellWidth), float64((ht-1)*CellHeight))
}

func cellToPixel(col, row int) (float64, float64) {
	return (float64(col) + 0.5) * CellWidth, (float64(row) + 0.5) * CellHeight
}

func (h *Host) draw() {
	h.screen.Clear()
	f := h.engine.Frame()
	cfg := h.engine.Config()

	cards := append([]spread.CardFrame(nil), f.Cards...)
	sort.SliceStable(cards, func(a, b int) bool { return cards[a].Z < cards[b].Z })
	deck := h.engine.Deck()
	for _, c := range cards {
		if !c.Visible {
			continue
		}
		name := ""
		if card, ok := deck[c.Slot].Payload.(domain.Card); ok {
			name = card.Name
		}
		h.drawCard(c, cfg, name)
	}
	h.drawStatus(f)
	h.screen.Show()
}

func (h *Host) drawCard(c spread.CardFrame, cfg spread.Config, name string) {
	sw, sh := h.screen.Size()
	pose := spread.Pose{X: c.X, Y: c.Y, Rotation: c.Rotation}
	w := cfg.CardWidth * c.ScaleX
	reach := math.Hypot(cfg.CardWidth, cfg.CardHeight) / 2 * c.Scale

	style := styleBack
	fill := '░'
	switch {
	case c.FaceUp:
		style, fill = styleFace, ' '
	case c.Selected:
		style = styleSelected
	}
	if c.Hovered {
		style = style.Bold(true).Reverse(true)
	}
	if c.Opacity < 0.5 {
		style = style.Dim(true)
	}

	minCol := max(0, int((c.X-reach)/CellWidth))
	maxCol := min(sw-1, int((c.X+reach)/CellWidth))
	minRow := max(0, int((c.Y-reach)/CellHeight))
	maxRow := min(sh-2, int((c.Y+reach)/CellHeight))
	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			x, y := cellToPixel(col, row)
			if pose.Contains(x, y, w, cfg.CardHeight, c.Scale) {
				h.screen.SetContent(col, row, fill, nil, style)
			}
		}
	}

	if c.FaceUp && name != "" {
		cols := int(w * c.Scale / CellWidth)
		label := runewidth.Truncate(name, cols, "…")
		col := int(c.X/CellWidth) - runewidth.StringWidth(label)/2
		putString(h.screen, col, int(c.Y/CellHeight), label, style)
	}
}

func (h *Host) drawStatus(f spread.Frame) {
	sw, sh := h.screen.Size()
	if sh < 1 {
		return
	}
	row := sh - 1
	for col := range sw {
		h.screen.SetContent(col, row, ' ', nil, styleStatus)
	}
	putString(h.screen, 0, row, runewidth.Truncate(h.status(f), sw, "…"), styleStatus)
}

func (h *Host) status(f spread.Frame) string {
	var b strings.Builder
	fmt.Fprintf(&b, " %s", f.Phase)
	quota := h.engine.Quota()
	switch f.Phase {
	case spread.Spreading, spread.Selecting:
		fmt.Fprintf(&b, " | pick %d of %d", len(f.Selection), quota)
	case spread.FlipEnabled:
		if len(h.revealed) < quota {
			b.WriteString(" | click a card to turn it")
		}
	}
	for _, dc := range h.revealed {
		fmt.Fprintf(&b, " | %s: %s", dc.Label, dc.Name)
		if dc.Orientation == domain.Reversed {
			b.WriteString(" (reversed)")
		}
	}
	b.WriteString(" | r reset, q quit")
	return b.String()
}

func putString(s tcell.Screen, col, row int, text string, style tcell.Style) {
	for _, r := range text {
		s.SetContent(col, row, r, nil, style)
		col += runewidth.RuneWidth(r)
	}
}

// The methods below are engine callbacks and run inside Step or input
// handling on the Run goroutine.

func (h *Host) FanProgress(float64) {}

func (h *Host) CardSelected(cardID string) {
	h.logger.Debug("card selected", "card_id", cardID)
}

func (h *Host) CardRevealed(cardID string, order int) {
	for _, c := range h.engine.Deck() {
		if c.ID != cardID {
			continue
		}
		card, _ := c.Payload.(domain.Card)
		dc := domain.DrawCard(card, h.spreadType, order, h.rng)
		h.revealed = append(h.revealed, dc)
		h.logger.Debug("card revealed", "card_id", cardID, "order", order, "orientation", dc.Orientation)
		return
	}
}

func (h *Host) PhaseChanged(phase spread.Phase) {
	h.phase = phase
	h.logger.Debug("phase changed", "phase", phase.String())
}
