package spread

import (
	"math"

	"github.com/tanema/gween/ease"
)

// Pose is a card's center position in px and its clockwise rotation in degrees.
type Pose struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Rotation float64 `json:"rotation"`
}

// EaseInOut is the quadratic ease-in-out curve: 2t² below one half,
// 1-(-2t+2)²/2 above.
func EaseInOut(t float64) float64 {
	t = clamp01(t)
	return float64(ease.InOutQuad(float32(t), 0, 1, 1))
}

// FanCenter returns the pivot of the fan for a viewport. The fan apex (the
// card at angle 0) sits at FanApexRatio of the height.
func FanCenter(cfg Config, width, height float64) Vec {
	return Vec{X: width / 2, Y: height*cfg.FanApexRatio + cfg.FanRadius}
}

// FanAngleAt returns the base angle in degrees of index within a fan of
// total cards, centered on 0. A single card sits at 0.
func FanAngleAt(fanAngle float64, index, total int) float64 {
	if total <= 1 {
		return 0
	}
	step := fanAngle / float64(total-1)
	return float64(index)*step - fanAngle/2
}

// StartPose is the stacked, edge-on pose a slot starts from.
func StartPose(cfg Config, index int) Pose {
	d := float64(index) * cfg.StackStep
	return Pose{X: cfg.StackX + d, Y: cfg.StackY + d, Rotation: 90}
}

// EndPose is the resting pose of a slot in the open fan.
func EndPose(cfg Config, center Vec, index, total int) Pose {
	angle := FanAngleAt(cfg.FanAngle, index, total)
	theta := degToRad(angle - 90)
	p := Pose{
		X:        center.X + cfg.FanRadius*math.Cos(theta),
		Y:        center.Y + cfg.FanRadius*math.Sin(theta),
		Rotation: angle,
	}
	if index == 0 && total > 1 {
		p.X += cfg.EdgeCorrection.X
		p.Y += cfg.EdgeCorrection.Y
	}
	return p
}

// PoseAt returns the pose of index at fan-in progress in [0, 1]. The path
// from StartPose to EndPose is interpolated in polar coordinates around
// center, so cards sweep along an arc rather than a chord.
func PoseAt(cfg Config, center Vec, index, total int, progress float64) Pose {
	return PolarLerp(center, StartPose(cfg, index), EndPose(cfg, center, index, total), EaseInOut(progress))
}

// PolarLerp interpolates angle and radius around center independently, and
// rotation linearly. The angle takes the shorter way round.
func PolarLerp(center Vec, from, to Pose, t float64) Pose {
	if t <= 0 {
		return from
	}
	if t >= 1 {
		return to
	}
	r0, a0 := toPolar(center, from.X, from.Y)
	r1, a1 := toPolar(center, to.X, to.Y)
	da := a1 - a0
	for da > math.Pi {
		da -= 2 * math.Pi
	}
	for da < -math.Pi {
		da += 2 * math.Pi
	}
	r := lerp(r0, r1, t)
	a := a0 + da*t
	return Pose{
		X:        center.X + r*math.Cos(a),
		Y:        center.Y + r*math.Sin(a),
		Rotation: lerp(from.Rotation, to.Rotation, t),
	}
}

// OffsetVector returns (-sin r, cos r) * scalar * push for a card rotated by
// rotation degrees. The vector points into the fan; Offset subtracts it so a
// pushed card slides out along its own axis.
func OffsetVector(rotation, scalar, push float64) Vec {
	rad := degToRad(rotation)
	k := scalar * push
	return Vec{X: -math.Sin(rad) * k, Y: math.Cos(rad) * k}
}

// Offset moves p out of the fan by scalar * push along its own axis.
func Offset(p Pose, scalar, push float64) Pose {
	v := OffsetVector(p.Rotation, scalar, push)
	p.X -= v.X
	p.Y -= v.Y
	return p
}

// Contains reports whether the point lies inside a card of the given size
// centered on p, rotated with it and scaled by scale.
func (p Pose) Contains(x, y, width, height, scale float64) bool {
	rad := degToRad(-p.Rotation)
	dx, dy := x-p.X, y-p.Y
	lx := dx*math.Cos(rad) - dy*math.Sin(rad)
	ly := dx*math.Sin(rad) + dy*math.Cos(rad)
	return math.Abs(lx) <= width*scale/2 && math.Abs(ly) <= height*scale/2
}

// TopEdge is the smallest y reached by a card of the given size at p.
func (p Pose) TopEdge(width, height float64) float64 {
	rad := degToRad(p.Rotation)
	half := math.Abs(math.Cos(rad))*height/2 + math.Abs(math.Sin(rad))*width/2
	return p.Y - half
}

func toPolar(center Vec, x, y float64) (r, angle float64) {
	dx, dy := x-center.X, y-center.Y
	return math.Hypot(dx, dy), math.Atan2(dy, dx)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func degToRad(d float64) float64 {
	return d * math.Pi / 180
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
