package system

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/embervale/client/internal/core/event"
	"github.com/embervale/client/internal/data"
	"github.com/embervale/client/internal/world"
)

func newSpawnFixture(t *testing.T) (*fixture, *SpawnSystem) {
	f := newFixture(t)
	monsters, err := data.NewMonsterTable(
		&data.MonsterInfo{ID: 1, Name: "rat", AttackTypeName: "melee", MaxHP: 30, Damage: 5},
	)
	require.NoError(t, err)
	s := NewSpawnSystem(f.state, f.grid, monsters, f.oracle, f.coord, f.sched, f.bus,
		f.cfg.AI, rand.New(rand.NewSource(1)), zap.NewNop())
	return f, s
}

func spawnEntry(spawns ...data.SpawnPoint) *data.MapEntry {
	e := arenaEntry()
	e.Info.Spawns = spawns
	return e
}

func TestRebuildPlacesGroupedSpawns(t *testing.T) {
	f, s := newSpawnFixture(t)

	var spawned []event.MonsterSpawned
	event.Subscribe(f.bus, func(ev event.MonsterSpawned) { spawned = append(spawned, ev) })

	s.Rebuild(spawnEntry(data.SpawnPoint{MonsterID: 1, X: 10, Y: 10, Count: 3}))

	assert.Len(t, f.state.Monsters, 3)
	f.pump()
	require.Len(t, spawned, 3)

	// Fan-out never stacks two monsters on one tile.
	seen := map[world.TileKey]bool{}
	for _, ev := range spawned {
		k := world.TileKey{X: ev.TileX, Y: ev.TileY}
		assert.False(t, seen[k], "tile %v reused", k)
		seen[k] = true
	}
}

func TestRebuildSkipsUnknownMonster(t *testing.T) {
	f, s := newSpawnFixture(t)
	s.Rebuild(spawnEntry(data.SpawnPoint{MonsterID: 99, X: 10, Y: 10, Count: 1}))
	assert.Empty(t, f.state.Monsters)
}

func TestKilledMonsterRespawnsAfterDelay(t *testing.T) {
	f, s := newSpawnFixture(t)
	f.addPlayer(2, 2)
	f.resolver.OnMonsterKilled = s.NotifyKilled

	s.Rebuild(spawnEntry(data.SpawnPoint{MonsterID: 1, X: 10, Y: 10, Count: 1, RespawnSec: 2}))
	require.Len(t, f.state.Monsters, 1)
	victim := f.state.MonsterIDs()[0]

	f.resolver.Kill(victim)
	assert.Empty(t, f.state.Monsters)

	// Not due yet.
	f.advance(time.Second)
	s.Update(tick)
	assert.Empty(t, f.state.Monsters)

	f.advance(time.Second)
	s.Update(tick)
	require.Len(t, f.state.Monsters, 1)
	_, occupied := f.state.OccupantAt(world.TileKey{X: 10, Y: 10})
	assert.True(t, occupied, "respawned at its spawn point")
}

func TestZeroRespawnMeansNever(t *testing.T) {
	f, s := newSpawnFixture(t)
	f.resolver.OnMonsterKilled = s.NotifyKilled

	s.Rebuild(spawnEntry(data.SpawnPoint{MonsterID: 1, X: 10, Y: 10, Count: 1}))
	victim := f.state.MonsterIDs()[0]
	f.resolver.Kill(victim)

	f.advance(time.Minute)
	s.Update(tick)
	assert.Empty(t, f.state.Monsters)
}

func TestRespawnRetriesBusyTile(t *testing.T) {
	f, s := newSpawnFixture(t)
	f.resolver.OnMonsterKilled = s.NotifyKilled

	s.Rebuild(spawnEntry(data.SpawnPoint{MonsterID: 1, X: 10, Y: 10, Count: 1, RespawnSec: 1}))
	victim := f.state.MonsterIDs()[0]
	f.resolver.Kill(victim)

	// Another monster squats on the spawn tile.
	squatter := f.addMonster(meleeRat(t), 10, 10)
	f.advance(time.Second + f.cfg.Game.TickRate)
	s.Update(tick)
	assert.Len(t, f.state.Monsters, 1, "spawn deferred while the tile is taken")

	f.state.RemoveMonster(squatter)
	f.advance(time.Second + f.cfg.Game.TickRate)
	s.Update(tick)
	assert.Len(t, f.state.Monsters, 1, "respawn landed after the retry delay")
	_, occupied := f.state.OccupantAt(world.TileKey{X: 10, Y: 10})
	assert.True(t, occupied)
}
