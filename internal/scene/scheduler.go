// Package scene provides the runtime services the core consumes from the
// rendering/scene layer: time-boxed interpolations with completion callbacks,
// one-shot delayed callbacks, a camera fade gate, physics pause/collider
// bookkeeping, and tile-layer lifecycle. Everything runs cooperatively on the
// game loop; Update advances the shared clock.
package scene

import "time"

// Tween is one in-flight interpolation. Completion fires exactly once.
type Tween struct {
	duration  time.Duration
	elapsed   time.Duration
	onUpdate  func(progress float64)
	onDone    func()
	done      bool
	cancelled bool
}

// Cancel stops the tween without firing its completion callback.
func (t *Tween) Cancel() {
	t.cancelled = true
}

func (t *Tween) Done() bool { return t.done || t.cancelled }

// Timer is a pending one-shot callback.
type Timer struct {
	at        time.Duration
	fn        func()
	fired     bool
	cancelled bool
}

func (t *Timer) Cancel() {
	t.cancelled = true
}

// Scheduler owns the game clock and all pending tweens and timers. Single
// goroutine access only (game loop).
type Scheduler struct {
	now    time.Duration
	tweens []*Tween
	timers []*Timer
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		tweens: make([]*Tween, 0, 64),
		timers: make([]*Timer, 0, 32),
	}
}

// Now returns elapsed game time. Monotonic, advanced only by Update, which
// keeps cooldown math deterministic under test.
func (s *Scheduler) Now() time.Duration {
	return s.now
}

// Tween schedules an interpolation over d. onUpdate receives progress in
// [0,1]; onDone fires once after the final onUpdate(1). A non-positive
// duration completes on the next Update.
func (s *Scheduler) Tween(d time.Duration, onUpdate func(progress float64), onDone func()) *Tween {
	tw := &Tween{duration: d, onUpdate: onUpdate, onDone: onDone}
	s.tweens = append(s.tweens, tw)
	return tw
}

// After schedules fn once d has elapsed.
func (s *Scheduler) After(d time.Duration, fn func()) *Timer {
	tm := &Timer{at: s.now + d, fn: fn}
	s.timers = append(s.timers, tm)
	return tm
}

// Update advances the clock and fires due callbacks. Callbacks may schedule
// new tweens/timers; those start on the next Update.
func (s *Scheduler) Update(dt time.Duration) {
	s.now += dt

	pending := s.tweens
	s.tweens = make([]*Tween, 0, len(pending))
	for _, tw := range pending {
		if tw.cancelled {
			continue
		}
		tw.elapsed += dt
		progress := 1.0
		if tw.duration > 0 {
			progress = float64(tw.elapsed) / float64(tw.duration)
			if progress > 1 {
				progress = 1
			}
		}
		if tw.onUpdate != nil {
			tw.onUpdate(progress)
		}
		if progress >= 1 {
			tw.done = true
			if tw.onDone != nil {
				tw.onDone()
			}
			continue
		}
		s.tweens = append(s.tweens, tw)
	}

	due := s.timers
	s.timers = make([]*Timer, 0, len(due))
	for _, tm := range due {
		if tm.cancelled {
			continue
		}
		if s.now >= tm.at {
			tm.fired = true
			tm.fn()
			continue
		}
		s.timers = append(s.timers, tm)
	}
}
