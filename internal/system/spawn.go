package system

import (
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/embervale/client/internal/config"
	"github.com/embervale/client/internal/core/ecs"
	"github.com/embervale/client/internal/core/event"
	coresys "github.com/embervale/client/internal/core/system"
	"github.com/embervale/client/internal/data"
	"github.com/embervale/client/internal/grid"
	"github.com/embervale/client/internal/scene"
	"github.com/embervale/client/internal/world"
)

// spawnOrigin remembers where a live monster came from so its spawn point can
// be re-armed when it dies.
type spawnOrigin struct {
	templateID int32
	tileX      int
	tileY      int
	respawn    time.Duration
}

type pendingRespawn struct {
	origin spawnOrigin
	at     time.Duration
}

// SpawnSystem populates each map from its authored spawn list on rebuild and
// re-spawns killed monsters after their configured delay while the map stays
// active. Phase 3 (PostUpdate).
type SpawnSystem struct {
	state    *world.State
	grid     *grid.Service
	monsters *data.MonsterTable
	oracle   *Oracle
	coord    *Coordinator
	sched    *scene.Scheduler
	bus      *event.Bus
	aiCfg    config.AIConfig
	rng      *rand.Rand
	log      *zap.Logger

	origins map[ecs.EntityID]spawnOrigin
	pending []pendingRespawn
}

func NewSpawnSystem(
	state *world.State,
	g *grid.Service,
	monsters *data.MonsterTable,
	oracle *Oracle,
	coord *Coordinator,
	sched *scene.Scheduler,
	bus *event.Bus,
	aiCfg config.AIConfig,
	rng *rand.Rand,
	log *zap.Logger,
) *SpawnSystem {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	s := &SpawnSystem{
		state:    state,
		grid:     g,
		monsters: monsters,
		oracle:   oracle,
		coord:    coord,
		sched:    sched,
		bus:      bus,
		aiCfg:    aiCfg,
		rng:      rng,
		log:      log,
		origins:  make(map[ecs.EntityID]spawnOrigin, 64),
	}
	coord.OnTeardown(s.teardown)
	coord.OnRebuild(s.Rebuild)
	return s
}

func (s *SpawnSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *SpawnSystem) teardown() {
	s.origins = make(map[ecs.EntityID]spawnOrigin, 64)
	s.pending = s.pending[:0]
}

// Rebuild places the destination map's spawn list. Grouped spawns fan out to
// neighboring free tiles so monsters never stack.
func (s *SpawnSystem) Rebuild(entry *data.MapEntry) {
	for _, sp := range entry.Info.Spawns {
		tmpl := s.monsters.Get(sp.MonsterID)
		if tmpl == nil {
			s.log.Warn("spawn references unknown monster, skipped",
				zap.String("map", entry.Info.Key),
				zap.Int32("monster", sp.MonsterID))
			continue
		}
		count := sp.Count
		if count <= 0 {
			count = 1
		}
		respawn := time.Duration(sp.RespawnSec) * time.Second
		placed := 0
		for _, tile := range fanOut(sp.X, sp.Y, count) {
			if placed >= count {
				break
			}
			if s.spawnAt(tmpl, tile.X, tile.Y, respawn) {
				placed++
			}
		}
	}
}

// fanOut yields the spawn tile plus a ring of neighbors, enough candidates
// to place count monsters.
func fanOut(x, y, count int) []world.TileKey {
	out := []world.TileKey{{X: x, Y: y}}
	for ring := 1; len(out) < count*3; ring++ {
		for d := -ring; d <= ring; d++ {
			out = append(out,
				world.TileKey{X: x + d, Y: y - ring},
				world.TileKey{X: x + d, Y: y + ring},
				world.TileKey{X: x - ring, Y: y + d},
				world.TileKey{X: x + ring, Y: y + d},
			)
		}
	}
	return out
}

func (s *SpawnSystem) spawnAt(tmpl *data.MonsterInfo, tx, ty int, respawn time.Duration) bool {
	if s.coord.Changing() {
		// Mid-rebuild the oracle reads everything as blocked; check static
		// collision and occupancy directly against the destination map.
		entry := s.grid.MapEntry(s.state.CurrentMapKey)
		if entry == nil || entry.Blocks(tx, ty) {
			return false
		}
		if _, taken := s.state.OccupantAt(world.TileKey{X: tx, Y: ty}); taken {
			return false
		}
	} else if !s.oracle.CanOccupy(tx, ty) {
		return false
	}
	x, y := s.grid.TileToWorldFallback(s.state.CurrentMapKey, tx, ty)
	id := s.state.CreateMonster(tmpl, x, y, tx, ty)
	if b, ok := s.state.Behaviors.Get(id); ok {
		world.RandomizeWanderCountdown(b, s.rng, s.aiCfg.WanderIntervalMin, s.aiCfg.WanderIntervalMax)
	}
	s.origins[id] = spawnOrigin{templateID: tmpl.ID, tileX: tx, tileY: ty, respawn: respawn}
	event.Publish(s.bus, event.MonsterSpawned{
		EntityID:   id,
		TemplateID: tmpl.ID,
		MapKey:     s.state.CurrentMapKey,
		TileX:      tx,
		TileY:      ty,
	})
	return true
}

// NotifyKilled is wired to the combat resolver's kill hook; it arms the
// respawn timer for the monster's spawn point.
func (s *SpawnSystem) NotifyKilled(id ecs.EntityID, _ int32) {
	origin, ok := s.origins[id]
	if !ok {
		return
	}
	delete(s.origins, id)
	if origin.respawn <= 0 {
		return
	}
	s.pending = append(s.pending, pendingRespawn{origin: origin, at: s.sched.Now() + origin.respawn})
}

func (s *SpawnSystem) Update(_ time.Duration) {
	if s.coord.Changing() || len(s.pending) == 0 {
		return
	}
	now := s.sched.Now()
	remaining := s.pending[:0]
	for _, pr := range s.pending {
		if now < pr.at {
			remaining = append(remaining, pr)
			continue
		}
		tmpl := s.monsters.Get(pr.origin.templateID)
		if tmpl == nil {
			continue
		}
		if !s.spawnAt(tmpl, pr.origin.tileX, pr.origin.tileY, pr.origin.respawn) {
			// Tile busy right now; retry shortly instead of dropping the spawn.
			pr.at = now + time.Second
			remaining = append(remaining, pr)
		}
	}
	s.pending = remaining
}
