package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/embervale/client/internal/config"
	"github.com/embervale/client/internal/core/ecs"
	"github.com/embervale/client/internal/grid"
	"github.com/embervale/client/internal/scene"
	"github.com/embervale/client/internal/world"
)

// Future is an explicit two-state (pending/resolved) completion handle for a
// tile move. Resolvable exactly once; callbacks added after resolution fire
// immediately.
type Future struct {
	resolved  bool
	callbacks []func()
}

func (f *Future) Resolved() bool { return f.resolved }

// OnResolve registers a continuation. Used by the AI for continuous pursuit
// without re-deciding from scratch.
func (f *Future) OnResolve(fn func()) {
	if f.resolved {
		fn()
		return
	}
	f.callbacks = append(f.callbacks, fn)
}

func (f *Future) resolve() {
	if f.resolved {
		return
	}
	f.resolved = true
	for _, fn := range f.callbacks {
		fn()
	}
	f.callbacks = nil
}

func resolvedFuture() *Future {
	return &Future{resolved: true}
}

// Executor animates an actor's world position from its current tile to an
// adjacent target tile over a time-boxed tween. At most one in-flight move
// per actor: a request while moving is a documented no-op that resolves
// immediately, never queued and never interrupting the current move.
type Executor struct {
	state *world.State
	grid  *grid.Service
	sched *scene.Scheduler
	cfg   config.MovementConfig
	log   *zap.Logger
}

func NewExecutor(state *world.State, g *grid.Service, sched *scene.Scheduler, cfg config.MovementConfig, log *zap.Logger) *Executor {
	return &Executor{state: state, grid: g, sched: sched, cfg: cfg, log: log}
}

// MoveToTile starts a move to the given tile. The returned future resolves
// when the interpolation finishes, or immediately for refused requests. The
// completion fires even if the actor is destroyed, dies, or the map changes
// mid-tween, without mutating the actor in any of those states.
func (e *Executor) MoveToTile(id ecs.EntityID, tx, ty int) *Future {
	ms, ok := e.state.Moves.Get(id)
	if !ok || !e.state.Alive(id) {
		return resolvedFuture()
	}
	if h, ok := e.state.Healths.Get(id); ok && !h.Alive() {
		return resolvedFuture() // the dead do not walk
	}
	if ms.Moving {
		return resolvedFuture()
	}
	tr, ok := e.state.Transforms.Get(id)
	if !ok {
		return resolvedFuture()
	}

	mapKey := e.state.CurrentMapKey
	fromTX, fromTY := e.grid.WorldToTileFallback(mapKey, tr.X, tr.Y)
	destX, destY := e.grid.TileToWorldFallback(mapKey, tx, ty)

	// A monster's position authoritatively owns its destination once the
	// tween starts: claim the new tile, release the old.
	if d, ok := e.state.Descriptors.Get(id); ok && d.Kind == world.KindMonster {
		e.state.Vacate(world.TileKey{X: fromTX, Y: fromTY}, id)
		e.state.Occupy(world.TileKey{X: tx, Y: ty}, id)
	}

	ms.Moving = true
	startX, startY := tr.X, tr.Y
	dur := e.duration(ms.Speed)
	fut := &Future{}

	// Mutation fence: once the map key swaps mid-transition or the actor
	// starts dying, the tween stops touching the actor. The rebuild and the
	// death sequence own position and facing from that point.
	canMutate := func() bool {
		if !e.state.Alive(id) || e.state.CurrentMapKey != mapKey {
			return false
		}
		if h, ok := e.state.Healths.Get(id); ok && !h.Alive() {
			return false
		}
		return true
	}

	e.sched.Tween(dur, func(p float64) {
		if !canMutate() {
			return
		}
		if t, ok := e.state.Transforms.Get(id); ok {
			t.X = startX + (destX-startX)*p
			t.Y = startY + (destY-startY)*p
		}
	}, func() {
		// Completion must fire regardless of actor state so the caller's
		// moveInProgress bookkeeping is released.
		if canMutate() {
			if m, ok := e.state.Moves.Get(id); ok {
				m.Moving = false
			}
			if t, ok := e.state.Transforms.Get(id); ok {
				t.X, t.Y = destX, destY
			}
			if f, ok := e.state.Facings.Get(id); ok {
				f.Dir = world.DirectionFromDelta(tx-fromTX, ty-fromTY)
			}
		}
		fut.resolve()
	})
	return fut
}

// duration scales the base tween length inversely with actor speed, floored
// to avoid zero-duration teleporting.
func (e *Executor) duration(speed float64) time.Duration {
	if speed <= 0 {
		speed = e.cfg.BaseSpeed
	}
	d := time.Duration(float64(e.cfg.BaseDuration) * (e.cfg.BaseSpeed / speed))
	if d < e.cfg.MinDuration {
		d = e.cfg.MinDuration
	}
	return d
}
