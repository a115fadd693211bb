package system

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/embervale/client/internal/data"
	"github.com/embervale/client/internal/world"
)

const tick = 50 * time.Millisecond

func TestMeleeChasesEngagedPlayer(t *testing.T) {
	f := newFixture(t)
	f.addPlayer(13, 10) // 96 world units away, inside the 160 aggro range
	m := f.addMonster(meleeRat(t), 10, 10)

	f.ai.Update(tick)

	b, _ := f.state.Behaviors.Get(m)
	assert.True(t, b.Engaged)
	ms, _ := f.state.Moves.Get(m)
	assert.True(t, ms.Moving)
	occ, ok := f.state.OccupantAt(world.TileKey{X: 11, Y: 10})
	require.True(t, ok, "steps on the dominant axis toward the player")
	assert.Equal(t, m, occ)
}

func TestMeleeHoldsAndAttacksAdjacent(t *testing.T) {
	f := newFixture(t)
	p := f.addPlayer(11, 10)
	m := f.addMonster(meleeRat(t), 10, 10)

	f.ai.Update(tick)

	ms, _ := f.state.Moves.Get(m)
	assert.False(t, ms.Moving, "within preferred distance, hold position")
	face, _ := f.state.Facings.Get(m)
	assert.Equal(t, world.FaceRight, face.Dir)

	h, _ := f.state.Healths.Get(p)
	assert.Equal(t, 95, h.HP, "melee attack landed")
}

func TestRangedRetreatsWhenTooClose(t *testing.T) {
	f := newFixture(t)
	p := f.addPlayer(8, 10) // 64 units, below preferred*retreat_band = 128
	m := f.addMonster(rangedArcher(t), 10, 10)

	f.ai.Update(tick)

	occ, ok := f.state.OccupantAt(world.TileKey{X: 11, Y: 10})
	require.True(t, ok, "steps directly away from the player")
	assert.Equal(t, m, occ)

	h, _ := f.state.Healths.Get(p)
	assert.Equal(t, 97, h.HP, "shoots while kiting")
}

func TestRangedHoldsInsideBand(t *testing.T) {
	f := newFixture(t)
	p := f.addPlayer(5, 10) // 160 units, within [128, 192]
	m := f.addMonster(rangedArcher(t), 10, 10)

	f.ai.Update(tick)

	ms, _ := f.state.Moves.Get(m)
	assert.False(t, ms.Moving)
	h, _ := f.state.Healths.Get(p)
	assert.Equal(t, 97, h.HP)
}

func TestRangedAdvancesWhenTooFar(t *testing.T) {
	f := newFixture(t)
	f.addPlayer(3, 10) // 224 units, above preferred*advance_band = 192
	m := f.addMonster(rangedArcher(t), 10, 10)

	f.ai.Update(tick)

	occ, ok := f.state.OccupantAt(world.TileKey{X: 9, Y: 10})
	require.True(t, ok)
	assert.Equal(t, m, occ)
}

func TestAggroLossIsTerminal(t *testing.T) {
	f := newFixture(t)
	f.addPlayer(21, 10) // 352 units, beyond the 320 lose range
	tmpl := monsterTemplate(t, data.MonsterInfo{
		ID:             4,
		Name:           "timid rat",
		AttackTypeName: "melee",
		MaxHP:          30,
		Damage:         5,
		Aggressive:     false,
		AggroRange:     160,
		LoseAggroRange: 320,
	})
	m := f.addMonster(tmpl, 10, 10)
	b, _ := f.state.Behaviors.Get(m)
	b.Provoked = true
	b.Engaged = true

	f.ai.Update(tick)
	assert.False(t, b.Engaged)
	assert.False(t, b.Provoked, "provocation does not survive aggro loss")
	ms, _ := f.state.Moves.Get(m)
	assert.False(t, ms.Moving)

	// Player returns adjacent; a non-aggressive monster stays passive until
	// provoked again.
	ptr, _ := f.state.Transforms.Get(f.state.Player())
	ptr.X, ptr.Y = f.tileCenter(11, 10)
	b.WanderCountdown = time.Hour // keep the wander loop quiet
	f.ai.Update(tick)
	assert.False(t, b.Engaged)
	ph, _ := f.state.Healths.Get(f.state.Player())
	assert.Equal(t, 100, ph.HP)
}

func TestProvocationEngagesBeyondAggroRange(t *testing.T) {
	f := newFixture(t)
	p := f.addPlayer(17, 10) // 224 units: outside aggro (160), inside lose (320)
	tmpl := monsterTemplate(t, data.MonsterInfo{
		ID:             5,
		Name:           "grumpy rat",
		AttackTypeName: "melee",
		MaxHP:          30,
		Damage:         5,
		Aggressive:     false,
		AggroRange:     160,
		LoseAggroRange: 320,
	})
	m := f.addMonster(tmpl, 10, 10)

	// Passive at this distance.
	b, _ := f.state.Behaviors.Get(m)
	b.WanderCountdown = time.Hour
	f.ai.Update(tick)
	assert.False(t, b.Engaged)

	// Taking a hit provokes unconditionally.
	f.state.Combats.Set(p, &world.CombatState{Damage: 1, Multiplier: 1, AttackRange: 1000, Cooldown: time.Second})
	require.True(t, f.resolver.AttemptAttack(p, m))
	assert.True(t, b.Provoked)

	f.ai.Update(tick)
	assert.True(t, b.Engaged)
	ms, _ := f.state.Moves.Get(m)
	assert.True(t, ms.Moving, "closes in on the attacker")
}

func TestMonsterWithMoveInFlightIsSkipped(t *testing.T) {
	f := newFixture(t)
	p := f.addPlayer(11, 10)
	m := f.addMonster(meleeRat(t), 10, 10)
	ms, _ := f.state.Moves.Get(m)
	ms.Moving = true

	f.ai.Update(tick)

	h, _ := f.state.Healths.Get(p)
	assert.Equal(t, 100, h.HP, "no decision while a move is in flight")
}

func TestWanderStepsOnlyOntoFreeTiles(t *testing.T) {
	// 3x3 pocket: every tile walled except the center.
	blocked := []bool{
		true, true, true,
		true, false, true,
		true, true, true,
	}
	pocket := data.NewMapEntry(data.MapInfo{Key: "pocket", TileSize: 32, Width: 3, Height: 3}, blocked)
	f := newFixture(t, pocket)

	m := f.addMonster(meleeRat(t), 1, 1)
	b, _ := f.state.Behaviors.Get(m)
	b.Aggressive = false
	b.WanderCountdown = 0

	aiCfg := f.cfg.AI
	aiCfg.FacingOnlyChance = 0 // force step attempts
	ai := NewAISystem(f.state, f.grid, f.oracle, f.executor, f.resolver, aiCfg,
		rand.New(rand.NewSource(2)), zap.NewNop(), f.coord.Changing)

	for i := 0; i < 20; i++ {
		b.WanderCountdown = 0
		ai.Update(tick)
		ms, _ := f.state.Moves.Get(m)
		assert.False(t, ms.Moving, "every neighbor is walled")
	}
}

func TestWanderStepsWhenOpen(t *testing.T) {
	f := newFixture(t)
	m := f.addMonster(meleeRat(t), 10, 10)
	b, _ := f.state.Behaviors.Get(m)
	b.Aggressive = false
	b.WanderCountdown = 0

	aiCfg := f.cfg.AI
	aiCfg.FacingOnlyChance = 0
	ai := NewAISystem(f.state, f.grid, f.oracle, f.executor, f.resolver, aiCfg,
		rand.New(rand.NewSource(3)), zap.NewNop(), f.coord.Changing)

	ai.Update(tick)
	ms, _ := f.state.Moves.Get(m)
	assert.True(t, ms.Moving)
	assert.Greater(t, b.WanderCountdown, time.Duration(0), "timer re-armed with jitter")
}
