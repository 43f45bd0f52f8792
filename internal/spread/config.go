package spread

import (
	"math"
	"time"
)

// Vec is a 2D vector in viewport pixels (y grows downward).
type Vec struct {
	X, Y float64
}

// Config holds every tunable of the spread engine. The visual constants
// (EdgeCorrection, FadeStart, HoverRatio, InteractiveProgress) are empirical
// and meant to be tuned per host, not derived.
type Config struct {
	// FanAngle is the total angle in degrees covered by the fan.
	FanAngle float64
	// FanRadius is the distance in px from the fan center to each card center.
	FanRadius float64
	// FanApexRatio places the fan apex at this fraction of the viewport height.
	FanApexRatio float64
	// PushDistance is how far in px a fully pushed card slides out of the fan.
	PushDistance float64
	// HoverRatio scales the hover offset relative to the selection push.
	HoverRatio float64

	// Stagger is the fraction of global progress each index waits before moving.
	Stagger float64
	// Speed is the per-frame exponential approach rate of fan-in progress.
	Speed float64
	// OffsetSpeed is the per-frame approach rate of the selection push.
	OffsetSpeed float64
	// ConvergeSpeed is the per-frame approach rate of both convergence progresses.
	ConvergeSpeed float64
	// Settle snaps an approach to its target once closer than this.
	Settle float64

	// MountDelay elapses between the first valid viewport and the fan starting.
	MountDelay time.Duration
	// QuotaDelay elapses between the last selection and the convergence phase.
	QuotaDelay time.Duration

	// FadeStart is the convergence progress at which unselected cards start fading.
	FadeStart float64
	// EdgeCorrection is added to the end position of slot 0 only.
	EdgeCorrection Vec

	// StackX, StackY is the stacked start point; StackStep separates slots in it.
	StackX, StackY float64
	StackStep      float64

	CardWidth  float64
	CardHeight float64

	// MinClearance is kept between the reading row and the top of the remaining fan.
	MinClearance float64
	// ReadingRowRatio is the fixed vertical position of the reading row as a
	// fraction of the viewport height. The row only moves up from it to keep
	// MinClearance.
	ReadingRowRatio float64
	// ReadingMargin is the least distance in px between the row and the
	// viewport top.
	ReadingMargin float64
	// MinRowScale is the smallest scale the row shrinks to on short viewports.
	MinRowScale float64
	// SlotSpacing is the center-to-center distance in a row of 3 or 5 cards.
	SlotSpacing float64
	// PairSpacing is the center-to-center distance of a pair.
	PairSpacing float64
	// SelectedScale is the final scale of cards in the reading row.
	SelectedScale float64

	// InteractiveProgress is the fan-in progress a slot needs before it reacts to input.
	InteractiveProgress float64

	// MaxSelected is the selection quota; one of 1, 2, 3 or 5.
	MaxSelected int
	// ReversibleFlip lets a revealed card be turned face down again.
	ReversibleFlip bool
}

// DefaultConfig returns the reference layout.
func DefaultConfig() Config {
	return Config{
		FanAngle:            70,
		FanRadius:           700,
		FanApexRatio:        0.55,
		PushDistance:        40,
		HoverRatio:          0.35,
		Stagger:             0.02,
		Speed:               0.03,
		OffsetSpeed:         0.15,
		ConvergeSpeed:       0.05,
		Settle:              1e-3,
		MountDelay:          300 * time.Millisecond,
		QuotaDelay:          300 * time.Millisecond,
		FadeStart:           0.7,
		StackX:              -150,
		StackY:              -120,
		StackStep:           0.5,
		CardWidth:           120,
		CardHeight:          200,
		MinClearance:        40,
		ReadingRowRatio:     0.35,
		ReadingMargin:       16,
		MinRowScale:         0.5,
		SlotSpacing:         160,
		PairSpacing:         220,
		SelectedScale:       1.15,
		InteractiveProgress: 0.8,
		MaxSelected:         2,
	}
}

// Normalize returns a copy with MaxSelected restricted to a supported quota
// and rates kept inside (0, 1].
func (c Config) Normalize() Config {
	c.MaxSelected = NormalizeMaxSelected(c.MaxSelected)
	c.Speed = clampRate(c.Speed, 0.03)
	c.OffsetSpeed = clampRate(c.OffsetSpeed, 0.15)
	c.ConvergeSpeed = clampRate(c.ConvergeSpeed, 0.05)
	if c.Settle <= 0 {
		c.Settle = 1e-3
	}
	if c.Stagger < 0 {
		c.Stagger = 0
	}
	if c.FadeStart < 0 || c.FadeStart >= 1 {
		c.FadeStart = 0.7
	}
	if c.SelectedScale <= 0 {
		c.SelectedScale = 1
	}
	if c.MinRowScale <= 0 || c.MinRowScale > c.SelectedScale {
		c.MinRowScale = math.Min(0.5, c.SelectedScale)
	}
	if c.ReadingMargin < 0 {
		c.ReadingMargin = 0
	}
	return c
}

// NormalizeMaxSelected maps any quota outside {1, 2, 3, 5} to 2.
func NormalizeMaxSelected(n int) int {
	switch n {
	case 1, 2, 3, 5:
		return n
	default:
		return 2
	}
}

func clampRate(v, fallback float64) float64 {
	if v <= 0 || v > 1 {
		return fallback
	}
	return v
}
