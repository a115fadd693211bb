package system

import (
	"time"

	"github.com/embervale/client/internal/core/event"
	coresys "github.com/embervale/client/internal/core/system"
	"github.com/embervale/client/internal/scene"
	"github.com/embervale/client/internal/world"
)

// NotifySystem delivers last tick's outbound notifications to their UI
// subscribers. Phase 1 (PreUpdate), registered before the clock so listeners
// observe the world as of tick start.
type NotifySystem struct {
	bus *event.Bus
}

func NewNotifySystem(bus *event.Bus) *NotifySystem {
	return &NotifySystem{bus: bus}
}

func (s *NotifySystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (s *NotifySystem) Update(_ time.Duration) {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
}

// ClockSystem advances the scene scheduler: tweens, one-shot timers, fades.
// This is the only place game time moves. Phase 1 (PreUpdate), so move
// completions land before AI decisions in the same tick.
type ClockSystem struct {
	sched *scene.Scheduler
}

func NewClockSystem(sched *scene.Scheduler) *ClockSystem {
	return &ClockSystem{sched: sched}
}

func (s *ClockSystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (s *ClockSystem) Update(dt time.Duration) {
	s.sched.Update(dt)
}

// CleanupSystem flushes the deferred destroy queue at tick end.
type CleanupSystem struct {
	state *world.State
}

func NewCleanupSystem(state *world.State) *CleanupSystem {
	return &CleanupSystem{state: state}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	s.state.ECS.FlushDestroyQueue()
}
