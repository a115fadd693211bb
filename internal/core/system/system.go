package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: drain queued player intents
	PhasePreUpdate               // 1: deliver last tick's notifications
	PhaseUpdate                  // 2: AI decisions, tween advancement
	PhasePostUpdate              // 3: spawns, portal triggers
	PhaseCleanup                 // 4: destroy queued entities
)

// System is the interface every game system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
