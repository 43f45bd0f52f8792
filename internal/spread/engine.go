package spread

import (
	"math"
	"sort"
	"time"

	"github.com/charmbracelet/harmonica"
)

// springFPS is the frame rate the hover and flip springs are tuned for.
const springFPS = 60

type slot struct {
	p float64

	offset       float64
	offsetTarget float64

	hover       float64
	hoverVel    float64
	hoverTarget float64

	flipped  bool
	revealed bool
	flip     float64
	flipVel  float64

	pose    Pose
	opacity float64
	scale   float64
	z       int
}

// Engine simulates one card spread: the fan-in, the selection, the move to
// the reading row and the flips. It is not safe for concurrent use; drive it
// from a single goroutine (see Loop).
type Engine struct {
	cfg Config
	obs Observer

	deck  []Card
	slots []slot

	phase     Phase
	selection []int
	plan      *Plan
	hovered   int
	revealed  int

	width, height float64
	center        Vec

	sched   *Scheduler
	timers  timerQueue
	now     time.Duration
	mounted bool

	selProgress  float64
	restProgress float64
	lastFan      float64

	hoverSpring harmonica.Spring
	flipSpring  harmonica.Spring

	closed bool
}

// New returns an engine with no deck and no viewport. obs may be nil.
func New(cfg Config, obs Observer) *Engine {
	cfg = cfg.Normalize()
	if obs == nil {
		obs = ObserverFuncs{}
	}
	return &Engine{
		cfg:         cfg,
		obs:         obs,
		hovered:     -1,
		lastFan:     -1,
		sched:       NewScheduler(cfg),
		hoverSpring: harmonica.NewSpring(harmonica.FPS(springFPS), 9.0, 1.0),
		flipSpring:  harmonica.NewSpring(harmonica.FPS(springFPS), 7.0, 1.0),
	}
}

// Config returns the normalized configuration in use.
func (e *Engine) Config() Config { return e.cfg }

// SetDeck assigns the deck and resets the session. Odd decks lose their
// middle card (see NormalizeDeck).
func (e *Engine) SetDeck(cards []Card) {
	if e.closed {
		return
	}
	e.deck = NormalizeDeck(cards, e.cfg.MaxSelected)
	e.Reset()
}

// Deck returns the cards in slot order.
func (e *Engine) Deck() []Card {
	return append([]Card(nil), e.deck...)
}

// Resize sets the viewport. A zero or invalid size suspends the simulation
// until a usable measurement arrives.
func (e *Engine) Resize(width, height float64) {
	if e.closed {
		return
	}
	if !(width > 0) || !(height > 0) || math.IsInf(width, 0) || math.IsInf(height, 0) {
		e.width, e.height = 0, 0
		return
	}
	e.width, e.height = width, height
	e.center = FanCenter(e.cfg, width, height)
}

// Reset clears the selection, the plan and every slot and restarts the fan
// from the stack. Pending delayed transitions are cancelled.
func (e *Engine) Reset() {
	if e.closed {
		return
	}
	e.timers.clear()
	e.sched.Reset()
	e.mounted = false
	e.slots = make([]slot, len(e.deck))
	e.selection = nil
	e.plan = nil
	e.hovered = -1
	e.revealed = 0
	e.selProgress, e.restProgress = 0, 0
	e.lastFan = -1
	if e.phase != Spreading {
		e.setPhase(Spreading)
	}
}

// Close stops the engine for good and drops pending callbacks. Every later
// call is a no-op.
func (e *Engine) Close() {
	e.timers.clear()
	e.closed = true
}

// Step advances the simulation by one frame that lasted dt. The simulated
// clock, and with it every delayed transition, stands still while there is
// no usable viewport.
func (e *Engine) Step(dt time.Duration) {
	if e.closed || !e.ready() {
		return
	}
	e.now += dt
	e.timers.fire(e.now)
	if !e.mounted {
		e.mounted = true
		e.timers.after(e.now, e.cfg.MountDelay, e.sched.Start)
	}

	switch e.phase {
	case Spreading, Selecting:
		e.stepFan()
	case MovingToPosition:
		e.selProgress = Approach(e.selProgress, 1, e.cfg.ConvergeSpeed, e.cfg.Settle)
		e.restProgress = Approach(e.restProgress, 1, e.cfg.ConvergeSpeed, e.cfg.Settle)
		e.applyPlan()
		if e.selProgress >= 1 && e.restProgress >= 1 {
			e.setPhase(FlipEnabled)
		}
	case FlipEnabled:
		e.applyPlan()
	}
	e.stepFlips()
}

func (e *Engine) stepFan() {
	if len(e.slots) == 1 {
		e.slots[0].p = 1
	}
	done := e.sched.Tick(e.slots)
	if g := e.sched.Global(); e.sched.Running() && g != e.lastFan {
		e.lastFan = g
		e.obs.FanProgress(g)
	}

	n := len(e.slots)
	for i := range e.slots {
		s := &e.slots[i]
		s.offset = Approach(s.offset, s.offsetTarget, e.cfg.OffsetSpeed, e.cfg.Settle)
		s.hover, s.hoverVel = e.hoverSpring.Update(s.hover, s.hoverVel, s.hoverTarget)
		if math.Abs(s.hover-s.hoverTarget) < e.cfg.Settle && math.Abs(s.hoverVel) < e.cfg.Settle {
			s.hover, s.hoverVel = s.hoverTarget, 0
		}
		push := clamp01(s.offset + math.Max(s.hover, 0)*e.cfg.HoverRatio)
		s.pose = Offset(PoseAt(e.cfg, e.center, i, n, s.p), push, e.cfg.PushDistance)
		s.opacity, s.scale = 1, 1
		s.z = n - i
	}

	if done && e.phase == Spreading {
		e.setPhase(Selecting)
	}
}

// applyPlan places every slot from the frozen plan and the two convergence
// progresses.
func (e *Engine) applyPlan() {
	ts := EaseInOut(e.selProgress)
	tr := EaseInOut(e.restProgress)
	fade := 1.0
	if e.restProgress > e.cfg.FadeStart {
		fade = clamp01(1 - (e.restProgress-e.cfg.FadeStart)/(1-e.cfg.FadeStart))
	}

	n := len(e.slots)
	for i := range e.slots {
		s := &e.slots[i]
		from := e.plan.from[i]
		if order := e.selectionOrder(i); order >= 0 {
			dest := e.plan.Destinations[order].Pos
			s.pose = Pose{
				X:        lerp(from.X, dest.X, ts),
				Y:        lerp(from.Y, dest.Y, ts),
				Rotation: lerp(from.Rotation, 0, ts),
			}
			s.scale = lerp(1, e.plan.Scale, ts)
			s.opacity = 1
			s.z = n + 1 + order
			continue
		}
		s.pose = PolarLerp(e.plan.Center, from, e.plan.Convergence, tr)
		s.scale = 1
		s.opacity = fade
		s.z = n - i
	}
}

func (e *Engine) stepFlips() {
	for i := range e.slots {
		s := &e.slots[i]
		target := 0.0
		if s.flipped {
			target = 1
		}
		if s.flip == target && s.flipVel == 0 {
			continue
		}
		s.flip, s.flipVel = e.flipSpring.Update(s.flip, s.flipVel, target)
		if math.Abs(s.flip-target) < e.cfg.Settle && math.Abs(s.flipVel) < e.cfg.Settle {
			s.flip, s.flipVel = target, 0
		}
	}
}

// Hover marks slot as hovered (on) or no longer hovered. Only one slot is
// hovered at a time. Hover is ignored outside the fan phases, on selected
// slots, on slots still flying in and once the selection is full.
func (e *Engine) Hover(slot int, on bool) {
	if e.closed || !e.validSlot(slot) {
		return
	}
	if !on {
		if e.hovered == slot {
			e.clearHover()
		}
		return
	}
	if !e.phase.interactive() || e.full() || e.isSelected(slot) || e.slots[slot].p < e.cfg.InteractiveProgress {
		return
	}
	e.clearHover()
	e.hovered = slot
	e.slots[slot].hoverTarget = 1
}

// Click selects slot. It reports whether the selection changed; clicks on
// selected slots, on a full selection or outside the fan phases do nothing.
// Filling the quota schedules the move to the reading row after QuotaDelay.
func (e *Engine) Click(slot int) bool {
	if e.closed || !e.validSlot(slot) || !e.phase.interactive() {
		return false
	}
	if e.full() || e.isSelected(slot) || e.slots[slot].p < e.cfg.InteractiveProgress {
		return false
	}

	e.selection = append(e.selection, slot)
	e.slots[slot].offsetTarget = 1
	if e.hovered == slot {
		e.clearHover()
	}
	e.obs.CardSelected(e.deck[slot].ID)

	if e.full() {
		e.clearHover()
		e.timers.after(e.now, e.cfg.QuotaDelay, e.converge)
	}
	return true
}

// converge freezes the plan from the current poses and starts the move.
func (e *Engine) converge() {
	if e.phase == Spreading {
		e.setPhase(Selecting)
	}
	poses := make([]Pose, len(e.slots))
	for i, s := range e.slots {
		poses[i] = s.pose
	}
	e.plan = BuildPlan(e.cfg, e.center, e.width, e.height, e.selection, poses)
	e.selProgress, e.restProgress = 0, 0
	e.setPhase(MovingToPosition)
}

// RequestFlip turns a selected card face up once the reading row is in
// place. The first reveal of each card is reported to the observer with its
// reveal order. With ReversibleFlip a revealed card can be turned back; it is
// not reported again.
func (e *Engine) RequestFlip(slot int) bool {
	if e.closed || e.phase != FlipEnabled || !e.isSelected(slot) {
		return false
	}
	s := &e.slots[slot]
	if s.flipped {
		if !e.cfg.ReversibleFlip {
			return false
		}
		s.flipped = false
		return true
	}
	s.flipped = true
	if !s.revealed {
		s.revealed = true
		order := e.revealed
		e.revealed++
		e.obs.CardRevealed(e.deck[slot].ID, order)
	}
	return true
}

// SlotAt returns the topmost visible slot under the point.
func (e *Engine) SlotAt(x, y float64) (int, bool) {
	if !e.ready() || !e.mounted {
		return -1, false
	}
	order := make([]int, 0, len(e.slots))
	for i, s := range e.slots {
		if s.opacity > 0 {
			order = append(order, i)
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		return e.slots[order[a]].z > e.slots[order[b]].z
	})
	for _, i := range order {
		s := e.slots[i]
		if s.pose.Contains(x, y, e.cfg.CardWidth, e.cfg.CardHeight, s.scale) {
			return i, true
		}
	}
	return -1, false
}

// Phase returns the current phase.
func (e *Engine) Phase() Phase { return e.phase }

// Selection returns the selected slots in selection order.
func (e *Engine) Selection() []int {
	return append([]int(nil), e.selection...)
}

// Plan returns the frozen plan once the selection is complete.
func (e *Engine) Plan() (Plan, bool) {
	if e.plan == nil {
		return Plan{}, false
	}
	p := *e.plan
	p.Destinations = append([]Destination(nil), e.plan.Destinations...)
	p.from = nil
	return p, true
}

// Hovered returns the hovered slot, or -1.
func (e *Engine) Hovered() int { return e.hovered }

// Revealed returns how many cards have been revealed since the last reset.
func (e *Engine) Revealed() int { return e.revealed }

// Quota returns how many cards make a full selection: MaxSelected, or the
// deck size when the deck is smaller.
func (e *Engine) Quota() int {
	if n := len(e.deck); n > 0 && n < e.cfg.MaxSelected {
		return n
	}
	return e.cfg.MaxSelected
}

// Pending returns the number of scheduled callbacks.
func (e *Engine) Pending() int { return e.timers.len() }

func (e *Engine) setPhase(p Phase) {
	e.phase = p
	e.obs.PhaseChanged(p)
}

func (e *Engine) ready() bool {
	return e.width > 0 && e.height > 0 && len(e.slots) > 0
}

func (e *Engine) validSlot(slot int) bool {
	return slot >= 0 && slot < len(e.slots)
}

func (e *Engine) full() bool {
	return len(e.selection) >= e.Quota()
}

func (e *Engine) isSelected(slot int) bool {
	return e.selectionOrder(slot) >= 0
}

func (e *Engine) selectionOrder(slot int) int {
	for i, s := range e.selection {
		if s == slot {
			return i
		}
	}
	return -1
}

func (e *Engine) clearHover() {
	if e.hovered >= 0 {
		e.slots[e.hovered].hoverTarget = 0
	}
	e.hovered = -1
}
