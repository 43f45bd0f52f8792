package spread

import "time"

// maxStaggerSpan bounds the delay of the last slot so every slot still gets
// part of the global range to move in.
const maxStaggerSpan = 0.5

// TargetProgress is the fan-in progress index should be heading for when the
// global clock reads global. Index i waits until global passes i*stagger and
// then catches up over the remaining range.
func TargetProgress(global float64, index int, stagger float64) float64 {
	delay := float64(index) * stagger
	if global <= delay {
		return 0
	}
	span := 1 - delay
	if span <= 0 {
		return 1
	}
	return clamp01((global - delay) / span)
}

// EffectiveStagger shrinks stagger for large decks so the last of n slots
// starts moving before the global clock reaches maxStaggerSpan.
func EffectiveStagger(stagger float64, n int) float64 {
	if n > 1 && stagger*float64(n-1) > maxStaggerSpan {
		return maxStaggerSpan / float64(n-1)
	}
	return stagger
}

// Approach moves cur toward target by rate of the remaining distance and
// snaps onto target once within settle.
func Approach(cur, target, rate, settle float64) float64 {
	next := cur + (target-cur)*rate
	if d := target - next; d < settle && d > -settle {
		return target
	}
	return next
}

// Scheduler owns the global fan-in clock and advances per-slot progress.
type Scheduler struct {
	global  float64
	running bool
	stagger float64
	speed   float64
	settle  float64
}

// NewScheduler returns a stopped scheduler using cfg's stagger and speed.
func NewScheduler(cfg Config) *Scheduler {
	return &Scheduler{stagger: cfg.Stagger, speed: cfg.Speed, settle: cfg.Settle}
}

// Start lets the global clock advance on subsequent ticks.
func (s *Scheduler) Start() { s.running = true }

// Running reports whether the global clock has been started.
func (s *Scheduler) Running() bool { return s.running }

// Global is the current global progress.
func (s *Scheduler) Global() float64 { return s.global }

// Reset stops the clock and rewinds it to zero.
func (s *Scheduler) Reset() {
	s.global = 0
	s.running = false
}

// Tick advances the global clock by one frame and then every slot toward its
// staggered target. Slot progress never decreases. It reports whether every
// slot has reached 1.
func (s *Scheduler) Tick(slots []slot) bool {
	if s.running {
		s.global = Approach(s.global, 1, s.speed, s.settle)
	}
	stagger := EffectiveStagger(s.stagger, len(slots))
	done := len(slots) > 0
	for i := range slots {
		target := TargetProgress(s.global, i, stagger)
		if next := Approach(slots[i].p, target, s.speed, s.settle); next > slots[i].p {
			slots[i].p = next
		}
		if slots[i].p < 1 {
			done = false
		}
	}
	return done
}

// timerQueue holds callbacks due at a point of the engine's simulated clock.
type timerQueue struct {
	pending []timer
}

type timer struct {
	at  time.Duration
	run func()
}

func (q *timerQueue) after(now, d time.Duration, fn func()) {
	q.pending = append(q.pending, timer{at: now + d, run: fn})
}

// fire runs every callback due at now, in scheduling order. Callbacks may
// schedule or cancel timers.
func (q *timerQueue) fire(now time.Duration) {
	for {
		idx := -1
		for i, t := range q.pending {
			if t.at <= now {
				idx = i
				break
			}
		}
		if idx < 0 {
			return
		}
		t := q.pending[idx]
		q.pending = append(q.pending[:idx], q.pending[idx+1:]...)
		t.run()
	}
}

func (q *timerQueue) clear() {
	q.pending = nil
}

func (q *timerQueue) len() int {
	return len(q.pending)
}
