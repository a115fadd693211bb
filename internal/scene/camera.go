package scene

import "time"

// Camera models the fade gate the map transition blocks on. Opacity runs
// 0 (clear) to 1 (fully faded).
type Camera struct {
	sched   *Scheduler
	Opacity float64
}

func NewCamera(sched *Scheduler) *Camera {
	return &Camera{sched: sched}
}

// FadeOut ramps opacity to 1 over d, then fires onDone.
func (c *Camera) FadeOut(d time.Duration, onDone func()) {
	start := c.Opacity
	c.sched.Tween(d, func(p float64) {
		c.Opacity = start + (1-start)*p
	}, onDone)
}

// FadeIn ramps opacity back to 0 over d, then fires onDone.
func (c *Camera) FadeIn(d time.Duration, onDone func()) {
	start := c.Opacity
	c.sched.Tween(d, func(p float64) {
		c.Opacity = start * (1 - p)
	}, onDone)
}
