package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embervale/client/internal/world"
)

func TestMoveInterpolatesToTileCenter(t *testing.T) {
	f := newFixture(t)
	p := f.addPlayer(5, 5)

	fut := f.executor.MoveToTile(p, 6, 5)
	require.False(t, fut.Resolved())

	ms, _ := f.state.Moves.Get(p)
	assert.True(t, ms.Moving)

	// Halfway through the tween the position is strictly between the centers.
	f.advance(f.cfg.Movement.BaseDuration / 2)
	tr, _ := f.state.Transforms.Get(p)
	fromX, _ := f.tileCenter(5, 5)
	destX, destY := f.tileCenter(6, 5)
	assert.Greater(t, tr.X, fromX)
	assert.Less(t, tr.X, destX)

	f.advance(f.cfg.Movement.BaseDuration / 2)
	assert.True(t, fut.Resolved())
	assert.False(t, ms.Moving)
	assert.Equal(t, destX, tr.X)
	assert.Equal(t, destY, tr.Y)

	face, _ := f.state.Facings.Get(p)
	assert.Equal(t, world.FaceRight, face.Dir)
}

func TestMoveWhileMovingIsNoOp(t *testing.T) {
	f := newFixture(t)
	p := f.addPlayer(5, 5)

	first := f.executor.MoveToTile(p, 6, 5)
	second := f.executor.MoveToTile(p, 5, 6)
	assert.True(t, second.Resolved(), "overlapping request resolves immediately")
	assert.False(t, first.Resolved())

	f.advance(f.cfg.Movement.BaseDuration)
	tr, _ := f.state.Transforms.Get(p)
	x, y := f.tileCenter(6, 5)
	assert.Equal(t, x, tr.X, "original destination wins")
	assert.Equal(t, y, tr.Y)
}

func TestMoveRefusedForDead(t *testing.T) {
	f := newFixture(t)
	p := f.addPlayer(5, 5)
	h, _ := f.state.Healths.Get(p)
	h.Dying = true

	fut := f.executor.MoveToTile(p, 6, 5)
	assert.True(t, fut.Resolved())
	ms, _ := f.state.Moves.Get(p)
	assert.False(t, ms.Moving)
}

func TestMonsterClaimsDestinationAtMoveStart(t *testing.T) {
	f := newFixture(t)
	m := f.addMonster(meleeRat(t), 3, 3)

	f.executor.MoveToTile(m, 4, 3)

	occ, ok := f.state.OccupantAt(world.TileKey{X: 4, Y: 3})
	require.True(t, ok, "destination claimed before the tween lands")
	assert.Equal(t, m, occ)
	_, stillThere := f.state.OccupantAt(world.TileKey{X: 3, Y: 3})
	assert.False(t, stillThere, "origin released at move start")
}

func TestMoveCompletionFiresAfterDestroy(t *testing.T) {
	f := newFixture(t)
	m := f.addMonster(meleeRat(t), 3, 3)

	fut := f.executor.MoveToTile(m, 4, 3)
	released := false
	fut.OnResolve(func() { released = true })

	f.state.ECS.DestroyNow(m)
	f.advance(f.cfg.Movement.BaseDuration)

	assert.True(t, fut.Resolved(), "bookkeeping still released")
	assert.True(t, released)
}

func TestMoveInFlightAcrossMapChangeKeepsArrival(t *testing.T) {
	f := newFixture(t)
	p := f.addPlayer(2, 2)

	fut := f.executor.MoveToTile(p, 3, 2)
	destX, destY := f.grid.TileToWorldFallback("cellar", 4, 4)
	f.coord.ChangeMap("cellar", destX, destY, "")

	// The move tween (400ms) outlives the fade (300ms); its completion must
	// not drag the player back to the old map's tile.
	f.advance(2*f.cfg.Transition.FadeDuration + 2*f.cfg.Game.TickRate)

	assert.True(t, fut.Resolved())
	tr, _ := f.state.Transforms.Get(p)
	assert.Equal(t, destX, tr.X)
	assert.Equal(t, destY, tr.Y)
	ms, _ := f.state.Moves.Get(p)
	assert.False(t, ms.Moving)
}

func TestDyingMonsterNotSnappedByMoveCompletion(t *testing.T) {
	f := newFixture(t)
	m := f.addMonster(meleeRat(t), 5, 5)

	fut := f.executor.MoveToTile(m, 6, 5)
	f.advance(f.cfg.Movement.BaseDuration / 2)
	f.resolver.Kill(m)

	tr, _ := f.state.Transforms.Get(m)
	frozenX, frozenY := tr.X, tr.Y
	face, _ := f.state.Facings.Get(m)
	frozenDir := face.Dir

	f.advance(f.cfg.Movement.BaseDuration / 2)
	assert.True(t, fut.Resolved())
	assert.Equal(t, frozenX, tr.X, "death visual owns the position")
	assert.Equal(t, frozenY, tr.Y)
	assert.Equal(t, frozenDir, face.Dir)
}

func TestDurationScalesWithSpeed(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, 400*time.Millisecond, f.executor.duration(1.0))
	assert.Equal(t, 200*time.Millisecond, f.executor.duration(2.0))
	assert.Equal(t, 800*time.Millisecond, f.executor.duration(0.5))
	assert.Equal(t, f.cfg.Movement.MinDuration, f.executor.duration(1000), "floored")
	assert.Equal(t, 400*time.Millisecond, f.executor.duration(0), "non-positive falls back to base")
}

func TestFutureResolvesOnce(t *testing.T) {
	fut := &Future{}
	calls := 0
	fut.OnResolve(func() { calls++ })
	fut.resolve()
	fut.resolve()
	assert.Equal(t, 1, calls)

	// Late registration fires immediately.
	fut.OnResolve(func() { calls++ })
	assert.Equal(t, 2, calls)
}
