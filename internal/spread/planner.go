package spread

import "math"

// Destination is where a selected slot ends up in the reading row.
type Destination struct {
	Slot int `json:"slot"`
	Pos  Vec `json:"pos"`
}

// Plan is the frozen outcome of a full selection: one destination per
// selected slot, in selection order, and the pose every unselected slot
// converges to. Center is the fan center the plan was built around; a later
// resize does not move it.
type Plan struct {
	TargetY      float64       `json:"target_y"`
	Scale        float64       `json:"scale"`
	Center       Vec           `json:"center"`
	Destinations []Destination `json:"destinations"`
	// ConvergenceSlot is the topmost unselected slot, or -1 when none is left.
	ConvergenceSlot int  `json:"convergence_slot"`
	Convergence     Pose `json:"convergence"`

	from []Pose
}

// Destination returns the reading-row position of slot.
func (p *Plan) Destination(slot int) (Vec, bool) {
	for _, d := range p.Destinations {
		if d.Slot == slot {
			return d.Pos, true
		}
	}
	return Vec{}, false
}

// BuildPlan computes the plan from the poses every slot has right now.
// selection lists selected slots in the order they were picked.
func BuildPlan(cfg Config, center Vec, width, height float64, selection []int, poses []Pose) *Plan {
	selected := make([]bool, len(poses))
	for _, s := range selection {
		selected[s] = true
	}

	plan := &Plan{ConvergenceSlot: -1, Center: center, from: append([]Pose(nil), poses...)}
	var rest []Pose
	for i, p := range poses {
		if selected[i] {
			continue
		}
		if plan.ConvergenceSlot < 0 {
			plan.ConvergenceSlot = i
			plan.Convergence = p
		}
		rest = append(rest, p)
	}
	plan.TargetY, plan.Scale = ReadingRow(cfg, height, rest)

	xs := make([]float64, len(selection))
	for i, s := range selection {
		xs[i] = poses[s].X
	}
	rowCfg := cfg
	rowCfg.SelectedScale = plan.Scale
	targets := RowTargets(rowCfg, width, center.X, xs)
	plan.Destinations = make([]Destination, len(selection))
	for i, s := range selection {
		plan.Destinations[i] = Destination{Slot: s, Pos: Vec{X: targets[i], Y: plan.TargetY}}
	}
	return plan
}

// ReadingRow returns the vertical center and the scale of the reading row.
//
// The row sits at ReadingRowRatio of the height and moves up only as far as
// needed to stay MinClearance above the highest edge of the cards left in
// the fan. When that would push it past ReadingMargin from the top, the row
// is pinned at the margin and shrinks to fit the space left, down to
// MinRowScale. Below that the row may overlap the top of the fan.
func ReadingRow(cfg Config, height float64, rest []Pose) (y, scale float64) {
	scale = cfg.SelectedScale
	half := cfg.CardHeight * scale / 2
	y = math.Max(height*cfg.ReadingRowRatio, cfg.ReadingMargin+half)
	if len(rest) == 0 {
		return y, scale
	}

	top := math.Inf(1)
	for _, p := range rest {
		top = math.Min(top, p.TopEdge(cfg.CardWidth, cfg.CardHeight))
	}
	limit := top - cfg.MinClearance
	if y+half <= limit {
		return y, scale
	}
	if y = limit - half; y-half >= cfg.ReadingMargin {
		return y, scale
	}

	space := limit - cfg.ReadingMargin
	scale = math.Max(math.Min(space/cfg.CardHeight, cfg.SelectedScale), cfg.MinRowScale)
	return cfg.ReadingMargin + cfg.CardHeight*scale/2, scale
}

// RowTargets returns a destination x for each selected card, given their
// current x positions in selection order.
//
// One card goes to the horizontal center. A pair goes to two points
// symmetric around the fan center, paired with the cards so the summed
// horizontal travel is smallest. Larger selections fill an evenly spaced row
// left to right in selection order.
func RowTargets(cfg Config, width, fanCenterX float64, xs []float64) []float64 {
	switch k := len(xs); k {
	case 0:
		return nil
	case 1:
		return []float64{width / 2}
	case 2:
		left := fanCenterX - cfg.PairSpacing/2
		right := fanCenterX + cfg.PairSpacing/2
		straight := math.Abs(xs[0]-left) + math.Abs(xs[1]-right)
		crossed := math.Abs(xs[0]-right) + math.Abs(xs[1]-left)
		if crossed < straight {
			return []float64{right, left}
		}
		return []float64{left, right}
	default:
		spacing := cfg.SlotSpacing
		if avail := width - cfg.CardWidth*cfg.SelectedScale; spacing*float64(k-1) > avail {
			spacing = math.Max(avail/float64(k-1), 0)
		}
		out := make([]float64, k)
		mid := float64(k-1) / 2
		for i := range out {
			out[i] = width/2 + (float64(i)-mid)*spacing
		}
		return out
	}
}
