package system

import (
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/embervale/client/internal/config"
	"github.com/embervale/client/internal/core/ecs"
	coresys "github.com/embervale/client/internal/core/system"
	"github.com/embervale/client/internal/data"
	"github.com/embervale/client/internal/grid"
	"github.com/embervale/client/internal/world"
)

// AISystem runs the per-monster decision loop: wandering when passive, aggro
// detection, attack-type-specific positioning (melee close-in, ranged/magic
// kiting), provocation override, and aggro loss on distance. Decisions are
// made only for monsters with no move in flight. Phase 2 (Update).
type AISystem struct {
	state         *world.State
	grid          *grid.Service
	oracle        *Oracle
	executor      *Executor
	combat        *Resolver
	cfg           config.AIConfig
	rng           *rand.Rand
	log           *zap.Logger
	transitioning func() bool
}

func NewAISystem(
	state *world.State,
	g *grid.Service,
	oracle *Oracle,
	executor *Executor,
	combat *Resolver,
	cfg config.AIConfig,
	rng *rand.Rand,
	log *zap.Logger,
	transitioning func() bool,
) *AISystem {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if transitioning == nil {
		transitioning = func() bool { return false }
	}
	return &AISystem{
		state:         state,
		grid:          g,
		oracle:        oracle,
		executor:      executor,
		combat:        combat,
		cfg:           cfg,
		rng:           rng,
		log:           log,
		transitioning: transitioning,
	}
}

func (s *AISystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *AISystem) Update(dt time.Duration) {
	if s.transitioning() {
		return
	}
	for _, id := range s.state.MonsterIDs() {
		s.tickMonster(id, dt)
	}
}

// tickMonster runs one decision tick. Every fallible lookup degrades to a
// skipped tick; a single monster's fault never halts the shared loop.
func (s *AISystem) tickMonster(id ecs.EntityID, dt time.Duration) {
	b, ok := s.state.Behaviors.Get(id)
	if !ok || !b.Enabled {
		return
	}
	if h, ok := s.state.Healths.Get(id); !ok || !h.Alive() {
		return
	}
	ms, ok := s.state.Moves.Get(id)
	if !ok || ms.Moving {
		return // one outstanding move at a time; decide again when it lands
	}
	tr, ok := s.state.Transforms.Get(id)
	if !ok {
		return
	}

	player, ptr := s.playerTarget()
	if ptr == nil {
		s.disengage(b)
		s.tickWander(id, b, tr, dt)
		return
	}

	dist := math.Hypot(ptr.X-tr.X, ptr.Y-tr.Y)

	// Engagement triggers: provocation always wins; innate aggression needs
	// proximity.
	if !b.Engaged && (b.Provoked || (b.Aggressive && dist <= b.AggroRange)) {
		b.Engaged = true
	}

	if !b.Engaged {
		s.tickWander(id, b, tr, dt)
		return
	}

	// Terminal transition out of combat: past this point the monster needs a
	// fresh proximity or provocation trigger to re-engage.
	if dist > b.LoseAggroRange {
		s.disengage(b)
		return
	}

	switch b.AttackType {
	case data.AttackMelee:
		if dist > b.PreferredDistance {
			s.stepToward(id, tr, ptr)
		} else {
			s.face(id, tr, ptr)
		}
	default: // ranged, magic: kite with a hysteresis band around preferred
		switch {
		case dist < b.PreferredDistance*s.cfg.RetreatBand:
			s.stepAway(id, tr, ptr)
		case dist > b.PreferredDistance*s.cfg.AdvanceBand:
			s.stepToward(id, tr, ptr)
		default:
			s.face(id, tr, ptr)
		}
	}

	if s.combat != nil {
		s.combat.AttemptAttack(id, player)
	}
}

func (s *AISystem) disengage(b *world.BehaviorState) {
	if b.Engaged || b.Provoked {
		b.Engaged = false
		b.Provoked = false
		b.WanderCountdown = 0 // re-arm with fresh jitter on the next idle tick
	}
}

func (s *AISystem) playerTarget() (ecs.EntityID, *world.Transform) {
	player := s.state.Player()
	if player.IsZero() || !s.state.Alive(player) {
		return 0, nil
	}
	if h, ok := s.state.Healths.Get(player); ok && !h.Alive() {
		return 0, nil
	}
	tr, ok := s.state.Transforms.Get(player)
	if !ok {
		return 0, nil
	}
	return player, tr
}

// ---------- Positioning ----------

// stepToward computes one tile step closing on the target, greedy on the
// axis with the larger delta. If the primary step is blocked it tries the
// other axis, then the four cardinals in randomized order, and finally just
// faces the target without moving.
func (s *AISystem) stepToward(id ecs.EntityID, tr, target *world.Transform) {
	s.stepAlong(id, tr, target.X-tr.X, target.Y-tr.Y, target)
}

// stepAway is the same pathing inverted: one tile step increasing distance.
func (s *AISystem) stepAway(id ecs.EntityID, tr, target *world.Transform) {
	s.stepAlong(id, tr, tr.X-target.X, tr.Y-target.Y, target)
}

func (s *AISystem) stepAlong(id ecs.EntityID, tr *world.Transform, dx, dy float64, target *world.Transform) {
	mapKey := s.state.CurrentMapKey
	tx, ty := s.grid.WorldToTileFallback(mapKey, tr.X, tr.Y)

	sx, sy := sign(dx), sign(dy)

	type step struct{ x, y int }
	candidates := make([]step, 0, 6)
	if math.Abs(dx) >= math.Abs(dy) {
		if sx != 0 {
			candidates = append(candidates, step{tx + sx, ty})
		}
		if sy != 0 {
			candidates = append(candidates, step{tx, ty + sy})
		}
	} else {
		if sy != 0 {
			candidates = append(candidates, step{tx, ty + sy})
		}
		if sx != 0 {
			candidates = append(candidates, step{tx + sx, ty})
		}
	}
	// Both preferred axes blocked: try all cardinals in randomized order.
	cardinals := []step{{tx + 1, ty}, {tx - 1, ty}, {tx, ty + 1}, {tx, ty - 1}}
	s.rng.Shuffle(len(cardinals), func(i, j int) {
		cardinals[i], cardinals[j] = cardinals[j], cardinals[i]
	})
	candidates = append(candidates, cardinals...)

	for _, c := range candidates {
		if c.x == tx && c.y == ty {
			continue
		}
		if !s.oracle.CanOccupyFor(id, c.x, c.y) {
			continue
		}
		s.executor.MoveToTile(id, c.x, c.y)
		return
	}
	// Nowhere to go: hold position facing the target.
	s.face(id, tr, target)
}

func (s *AISystem) face(id ecs.EntityID, tr, target *world.Transform) {
	f, ok := s.state.Facings.Get(id)
	if !ok {
		return
	}
	mapKey := s.state.CurrentMapKey
	tx, ty := s.grid.WorldToTileFallback(mapKey, tr.X, tr.Y)
	ox, oy := s.grid.WorldToTileFallback(mapKey, target.X, target.Y)
	if tx == ox && ty == oy {
		return
	}
	f.Dir = world.DirectionFromDelta(ox-tx, oy-ty)
}

// ---------- Wandering ----------

// tickWander runs the idle flavor loop: on a jittered timer, mostly just
// change facing, occasionally take one tile step, biased back toward the
// anchor once the monster has strayed past its wander range.
func (s *AISystem) tickWander(id ecs.EntityID, b *world.BehaviorState, tr *world.Transform, dt time.Duration) {
	b.WanderCountdown -= dt
	if b.WanderCountdown > 0 {
		return
	}
	world.RandomizeWanderCountdown(b, s.rng, s.cfg.WanderIntervalMin, s.cfg.WanderIntervalMax)

	if s.rng.Float64() < s.cfg.FacingOnlyChance {
		if f, ok := s.state.Facings.Get(id); ok {
			f.Dir = world.Direction(s.rng.Intn(4))
		}
		return
	}

	mapKey := s.state.CurrentMapKey
	tx, ty := s.grid.WorldToTileFallback(mapKey, tr.X, tr.Y)

	var dtx, dty int
	if math.Hypot(tr.X-b.AnchorX, tr.Y-b.AnchorY) > b.WanderRange {
		// Strayed too far: head back toward the anchor.
		ax, ay := s.grid.WorldToTileFallback(mapKey, b.AnchorX, b.AnchorY)
		ddx, ddy := ax-tx, ay-ty
		if abs(ddx) >= abs(ddy) {
			dtx = intSign(ddx)
		} else {
			dty = intSign(ddy)
		}
	} else {
		switch s.rng.Intn(4) {
		case 0:
			dtx = 1
		case 1:
			dtx = -1
		case 2:
			dty = 1
		default:
			dty = -1
		}
	}
	if dtx == 0 && dty == 0 {
		return
	}
	nx, ny := tx+dtx, ty+dty
	if !s.oracle.CanOccupyFor(id, nx, ny) {
		return // destination refused; skip this wander step
	}
	s.executor.MoveToTile(id, nx, ny)
}

// ---------- Helpers ----------

func sign(v float64) int {
	if v > 0 {
		return 1
	}
	if v < 0 {
		return -1
	}
	return 0
}

func intSign(v int) int {
	if v > 0 {
		return 1
	}
	if v < 0 {
		return -1
	}
	return 0
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
