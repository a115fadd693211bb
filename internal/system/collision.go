package system

import (
	"github.com/embervale/client/internal/core/ecs"
	"github.com/embervale/client/internal/data"
	"github.com/embervale/client/internal/world"
)

// Oracle answers whether a tile on the active map can be occupied. It is
// read-only and fail-safe: any internal error (missing map, mid-transition)
// reads as "blocked" so movement silently refuses instead of producing an
// invalid position.
type Oracle struct {
	maps          *data.MapTable
	state         *world.State
	transitioning func() bool
}

func NewOracle(maps *data.MapTable, state *world.State, transitioning func() bool) *Oracle {
	if transitioning == nil {
		transitioning = func() bool { return false }
	}
	return &Oracle{maps: maps, state: state, transitioning: transitioning}
}

// CanOccupy reports whether the tile is free of static collision and live
// monster occupancy.
func (o *Oracle) CanOccupy(tx, ty int) bool {
	return o.CanOccupyFor(0, tx, ty)
}

// CanOccupyFor is CanOccupy with the mover's own occupancy claim excluded,
// so an actor never blocks itself.
func (o *Oracle) CanOccupyFor(mover ecs.EntityID, tx, ty int) bool {
	if o.maps == nil || o.state == nil || o.transitioning() {
		return false
	}
	entry := o.maps.Get(o.state.CurrentMapKey)
	if entry == nil {
		return false
	}
	if entry.Blocks(tx, ty) {
		return false
	}
	if occupant, ok := o.state.OccupantAt(world.TileKey{X: tx, Y: ty}); ok && occupant != mover {
		return false
	}
	return true
}
