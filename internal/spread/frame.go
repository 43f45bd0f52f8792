package spread

import "math"

// CardFrame is what a host needs to draw one slot.
type CardFrame struct {
	Slot     int     `json:"slot"`
	CardID   string  `json:"card_id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Rotation float64 `json:"rotation"`
	Opacity  float64 `json:"opacity"`
	Scale    float64 `json:"scale"`
	// ScaleX squashes the card horizontally while it flips.
	ScaleX   float64 `json:"scale_x"`
	Z        int     `json:"z"`
	Progress float64 `json:"progress"`
	FaceUp   bool    `json:"face_up"`
	Selected bool    `json:"selected"`
	Hovered  bool    `json:"hovered"`
	Visible  bool    `json:"visible"`
}

// Frame is a snapshot of the whole spread.
type Frame struct {
	Phase     Phase       `json:"phase"`
	Width     float64     `json:"width"`
	Height    float64     `json:"height"`
	Progress  float64     `json:"progress"`
	Selection []int       `json:"selection"`
	Revealed  int         `json:"revealed"`
	Cards     []CardFrame `json:"cards"`
}

// Frame returns the poses computed by the last Step. Cards is empty until
// the engine has a deck and a usable viewport.
func (e *Engine) Frame() Frame {
	f := Frame{
		Phase:     e.phase,
		Width:     e.width,
		Height:    e.height,
		Progress:  e.sched.Global(),
		Selection: e.Selection(),
		Revealed:  e.revealed,
	}
	if !e.ready() || !e.mounted {
		return f
	}
	f.Cards = make([]CardFrame, len(e.slots))
	for i, s := range e.slots {
		f.Cards[i] = CardFrame{
			Slot:     i,
			CardID:   e.deck[i].ID,
			X:        s.pose.X,
			Y:        s.pose.Y,
			Rotation: s.pose.Rotation,
			Opacity:  s.opacity,
			Scale:    s.scale,
			ScaleX:   math.Abs(math.Cos(math.Pi * clamp01(s.flip))),
			Z:        s.z,
			Progress: s.p,
			FaceUp:   s.flip >= 0.5,
			Selected: e.isSelected(i),
			Hovered:  e.hovered == i,
			Visible:  s.opacity > 0,
		}
	}
	return f
}
