package system

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/embervale/client/internal/config"
	"github.com/embervale/client/internal/core/ecs"
	"github.com/embervale/client/internal/core/event"
	"github.com/embervale/client/internal/data"
	"github.com/embervale/client/internal/grid"
	"github.com/embervale/client/internal/scene"
	"github.com/embervale/client/internal/scripting"
	"github.com/embervale/client/internal/world"
)

// fixture wires the full core the way main does, on in-memory map tables and
// a manually stepped clock.
type fixture struct {
	cfg      *config.Config
	state    *world.State
	maps     *data.MapTable
	grid     *grid.Service
	sched    *scene.Scheduler
	stage    *scene.Stage
	camera   *scene.Camera
	bus      *event.Bus
	coord    *Coordinator
	oracle   *Oracle
	executor *Executor
	resolver *Resolver
	ai       *AISystem
}

func arenaEntry() *data.MapEntry {
	return data.NewMapEntry(data.MapInfo{
		Key:            "arena",
		TileSize:       32,
		Width:          20,
		Height:         20,
		GroundLayer:    "ground",
		CollisionLayer: "walls",
		SpawnX:         2,
		SpawnY:         2,
	}, nil)
}

func cellarEntry() *data.MapEntry {
	return data.NewMapEntry(data.MapInfo{
		Key:            "cellar",
		TileSize:       32,
		Width:          10,
		Height:         10,
		GroundLayer:    "ground",
		CollisionLayer: "walls",
		SpawnX:         4,
		SpawnY:         4,
	}, nil)
}

func newFixture(t *testing.T, entries ...*data.MapEntry) *fixture {
	t.Helper()
	if len(entries) == 0 {
		entries = []*data.MapEntry{arenaEntry(), cellarEntry()}
	}

	cfg := config.Defaults()
	log := zap.NewNop()
	state := world.NewState()
	maps := data.NewMapTable(entries...)
	g := grid.NewService(maps)
	sched := scene.NewScheduler()
	stage := scene.NewStage()
	camera := scene.NewCamera(sched)
	bus := event.NewBus()
	lua := scripting.NewEmptyEngine(log)
	t.Cleanup(lua.Close)

	coord := NewCoordinator(state, maps, stage, camera, bus, cfg.Transition, log)
	oracle := NewOracle(maps, state, coord.Changing)
	executor := NewExecutor(state, g, sched, cfg.Movement, log)
	resolver := NewResolver(state, g, sched, bus, lua, cfg.Combat, log)
	ai := NewAISystem(state, g, oracle, executor, resolver, cfg.AI,
		rand.New(rand.NewSource(1)), log, coord.Changing)

	state.CurrentMapKey = entries[0].Info.Key

	return &fixture{
		cfg:      cfg,
		state:    state,
		maps:     maps,
		grid:     g,
		sched:    sched,
		stage:    stage,
		camera:   camera,
		bus:      bus,
		coord:    coord,
		oracle:   oracle,
		executor: executor,
		resolver: resolver,
		ai:       ai,
	}
}

// advance steps the game clock in fixed ticks, the way the real loop does, so
// tween and timer callbacks fire at tick boundaries.
func (f *fixture) advance(total time.Duration) {
	tick := f.cfg.Game.TickRate
	for elapsed := time.Duration(0); elapsed < total; elapsed += tick {
		f.sched.Update(tick)
	}
}

// pump performs one bus rotation: published events become visible to handlers.
func (f *fixture) pump() {
	f.bus.SwapBuffers()
	f.bus.DispatchAll()
}

func (f *fixture) tileCenter(tx, ty int) (float64, float64) {
	return f.grid.TileToWorldFallback(f.state.CurrentMapKey, tx, ty)
}

func (f *fixture) addPlayer(tx, ty int) ecs.EntityID {
	x, y := f.tileCenter(tx, ty)
	return f.state.CreatePlayer("hero", x, y, 100, 1.0)
}

func (f *fixture) addMonster(tmpl *data.MonsterInfo, tx, ty int) ecs.EntityID {
	x, y := f.tileCenter(tx, ty)
	return f.state.CreateMonster(tmpl, x, y, tx, ty)
}

// monsterTemplate runs info through the loader fill-ins so defaults match
// production templates.
func monsterTemplate(t *testing.T, info data.MonsterInfo) *data.MonsterInfo {
	t.Helper()
	tbl, err := data.NewMonsterTable(&info)
	require.NoError(t, err)
	return tbl.Get(info.ID)
}

func meleeRat(t *testing.T) *data.MonsterInfo {
	return monsterTemplate(t, data.MonsterInfo{
		ID:             1,
		Name:           "rat",
		AttackTypeName: "melee",
		MaxHP:          30,
		Damage:         5,
		Aggressive:     true,
		AggroRange:     160,
		LoseAggroRange: 320,
	})
}

func rangedArcher(t *testing.T) *data.MonsterInfo {
	return monsterTemplate(t, data.MonsterInfo{
		ID:             2,
		Name:           "archer",
		AttackTypeName: "ranged",
		MaxHP:          20,
		Damage:         3,
		Aggressive:     true,
		AggroRange:     200,
		LoseAggroRange: 400,
	})
}
