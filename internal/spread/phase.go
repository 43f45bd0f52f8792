package spread

// Phase is the stage of a spread session. Phases only move forward; Reset is
// the single way back to Spreading.
type Phase int

const (
	Spreading Phase = iota
	Selecting
	MovingToPosition
	FlipEnabled
)

func (p Phase) String() string {
	switch p {
	case Spreading:
		return "spreading"
	case Selecting:
		return "selecting"
	case MovingToPosition:
		return "moving-to-position"
	case FlipEnabled:
		return "flip-enabled"
	default:
		return "unknown"
	}
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// interactive reports whether hover and click are accepted.
func (p Phase) interactive() bool {
	return p == Spreading || p == Selecting
}
