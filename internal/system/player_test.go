package system

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embervale/client/internal/world"
)

func TestIntentMovesPlayer(t *testing.T) {
	f := newFixture(t)
	p := f.addPlayer(5, 5)
	intents := NewPlayerIntentSystem(f.state, f.grid, f.oracle, f.executor, f.coord)

	intents.EnqueueMove(world.FaceRight)
	intents.Update(tick)

	ms, _ := f.state.Moves.Get(p)
	assert.True(t, ms.Moving)

	f.advance(f.cfg.Movement.BaseDuration)
	tr, _ := f.state.Transforms.Get(p)
	x, y := f.tileCenter(6, 5)
	assert.Equal(t, x, tr.X)
	assert.Equal(t, y, tr.Y)

	// The tile the player stands on is never in the occupancy index.
	_, occupied := f.state.OccupantAt(world.TileKey{X: 6, Y: 5})
	assert.False(t, occupied)
}

func TestBlockedIntentOnlyTurns(t *testing.T) {
	f := newFixture(t)
	p := f.addPlayer(0, 5)
	intents := NewPlayerIntentSystem(f.state, f.grid, f.oracle, f.executor, f.coord)

	intents.EnqueueMove(world.FaceLeft) // off the grid
	intents.Update(tick)

	ms, _ := f.state.Moves.Get(p)
	assert.False(t, ms.Moving)
	face, _ := f.state.Facings.Get(p)
	assert.Equal(t, world.FaceLeft, face.Dir)
}

func TestLatestIntentWins(t *testing.T) {
	f := newFixture(t)
	p := f.addPlayer(5, 5)
	intents := NewPlayerIntentSystem(f.state, f.grid, f.oracle, f.executor, f.coord)

	intents.EnqueueMove(world.FaceRight)
	intents.EnqueueMove(world.FaceUp)
	intents.Update(tick)
	f.advance(f.cfg.Movement.BaseDuration)

	tr, _ := f.state.Transforms.Get(p)
	x, y := f.tileCenter(5, 4)
	assert.Equal(t, x, tr.X)
	assert.Equal(t, y, tr.Y)

	// Intent consumed: an empty tick does nothing.
	intents.Update(tick)
	ms, _ := f.state.Moves.Get(p)
	assert.False(t, ms.Moving)
}

func TestIntentIgnoredWhileMovingOrChanging(t *testing.T) {
	f := newFixture(t)
	p := f.addPlayer(5, 5)
	intents := NewPlayerIntentSystem(f.state, f.grid, f.oracle, f.executor, f.coord)

	require.False(t, f.executor.MoveToTile(p, 6, 5).Resolved())
	intents.EnqueueMove(world.FaceUp)
	intents.Update(tick)
	f.advance(f.cfg.Movement.BaseDuration)

	tr, _ := f.state.Transforms.Get(p)
	x, _ := f.tileCenter(6, 5)
	assert.Equal(t, x, tr.X, "in-flight move wins, intent dropped")

	f.coord.ChangeMap("cellar", 100, 100, "")
	intents.EnqueueMove(world.FaceUp)
	intents.Update(tick)
	ms, _ := f.state.Moves.Get(p)
	assert.False(t, ms.Moving, "no movement while the map changes")
}
