package system

import (
	"time"

	coresys "github.com/embervale/client/internal/core/system"
	"github.com/embervale/client/internal/grid"
	"github.com/embervale/client/internal/world"
)

// PlayerIntentSystem resolves queued directional input through the same
// movement/collision path monsters use. Only the latest intent per tick
// matters; stale directions are dropped. Phase 0 (Input).
type PlayerIntentSystem struct {
	state    *world.State
	grid     *grid.Service
	oracle   *Oracle
	executor *Executor
	coord    *Coordinator

	intent    world.Direction
	hasIntent bool
}

func NewPlayerIntentSystem(state *world.State, g *grid.Service, oracle *Oracle, executor *Executor, coord *Coordinator) *PlayerIntentSystem {
	return &PlayerIntentSystem{state: state, grid: g, oracle: oracle, executor: executor, coord: coord}
}

func (s *PlayerIntentSystem) Phase() coresys.Phase { return coresys.PhaseInput }

// EnqueueMove records a directional intent. Later calls within the same tick
// replace earlier ones.
func (s *PlayerIntentSystem) EnqueueMove(dir world.Direction) {
	s.intent = dir
	s.hasIntent = true
}

func (s *PlayerIntentSystem) Update(_ time.Duration) {
	if !s.hasIntent {
		return
	}
	dir := s.intent
	s.hasIntent = false

	if s.coord != nil && s.coord.Changing() {
		return
	}
	player := s.state.Player()
	if player.IsZero() || !s.state.Alive(player) {
		return
	}
	if h, ok := s.state.Healths.Get(player); ok && !h.Alive() {
		return
	}
	ms, ok := s.state.Moves.Get(player)
	if !ok || ms.Moving {
		return
	}
	tr, ok := s.state.Transforms.Get(player)
	if !ok {
		return
	}

	tx, ty := s.grid.WorldToTileFallback(s.state.CurrentMapKey, tr.X, tr.Y)
	dx, dy := dirDelta(dir)
	nx, ny := tx+dx, ty+dy
	if !s.oracle.CanOccupy(nx, ny) {
		// Blocked: still turn to face the attempted direction.
		if f, ok := s.state.Facings.Get(player); ok {
			f.Dir = dir
		}
		return
	}
	s.executor.MoveToTile(player, nx, ny)
}

func dirDelta(dir world.Direction) (int, int) {
	switch dir {
	case world.FaceUp:
		return 0, -1
	case world.FaceDown:
		return 0, 1
	case world.FaceLeft:
		return -1, 0
	default:
		return 1, 0
	}
}
