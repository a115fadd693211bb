package world

import (
	"math/rand"
	"time"

	"github.com/embervale/client/internal/core/ecs"
	"github.com/embervale/client/internal/data"
)

// TileKey addresses one tile on the active map.
type TileKey struct {
	X int
	Y int
}

// State is the runtime world: the ECS container, every component store, the
// dynamic-entity containers, and the tile occupancy index for the active map.
// Accessed only from the game loop goroutine; no locks.
type State struct {
	ECS *ecs.World

	Transforms  *ecs.Store[Transform]
	Bodies      *ecs.Store[Body]
	Descriptors *ecs.Store[Descriptor]
	Healths     *ecs.Store[Health]
	Facings     *ecs.Store[Facing]
	Moves       *ecs.Store[MoveState]
	Behaviors   *ecs.Store[BehaviorState]
	Combats     *ecs.Store[CombatState]
	Stats       *ecs.Store[PlayerStats]

	// Dynamic-entity containers, fully cleared on every map change.
	Monsters map[ecs.EntityID]struct{}
	NPCs     map[ecs.EntityID]struct{}
	Chests   map[ecs.EntityID]struct{}
	Items    map[ecs.EntityID]struct{}

	// occupancy maps a tile to the monster that owns it. A moving monster
	// owns its destination from the moment the move starts.
	occupancy map[TileKey]ecs.EntityID

	rng *rand.Rand

	player        ecs.EntityID
	CurrentMapKey string
}

func NewState() *State {
	w := ecs.NewWorld()
	s := &State{
		ECS:         w,
		Transforms:  ecs.NewStore[Transform](),
		Bodies:      ecs.NewStore[Body](),
		Descriptors: ecs.NewStore[Descriptor](),
		Healths:     ecs.NewStore[Health](),
		Facings:     ecs.NewStore[Facing](),
		Moves:       ecs.NewStore[MoveState](),
		Behaviors:   ecs.NewStore[BehaviorState](),
		Combats:     ecs.NewStore[CombatState](),
		Stats:       ecs.NewStore[PlayerStats](),
		Monsters:    make(map[ecs.EntityID]struct{}, 64),
		NPCs:        make(map[ecs.EntityID]struct{}, 16),
		Chests:      make(map[ecs.EntityID]struct{}, 16),
		Items:       make(map[ecs.EntityID]struct{}, 32),
		occupancy:   make(map[TileKey]ecs.EntityID, 64),
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	reg := w.Registry()
	reg.Register(s.Transforms)
	reg.Register(s.Bodies)
	reg.Register(s.Descriptors)
	reg.Register(s.Healths)
	reg.Register(s.Facings)
	reg.Register(s.Moves)
	reg.Register(s.Behaviors)
	reg.Register(s.Combats)
	reg.Register(s.Stats)
	return s
}

func (s *State) Alive(id ecs.EntityID) bool {
	return s.ECS.Alive(id)
}

func (s *State) Player() ecs.EntityID { return s.player }

// CreatePlayer spawns the player actor. There is exactly one; the handle
// survives map transitions.
func (s *State) CreatePlayer(name string, x, y float64, maxHP int, speed float64) ecs.EntityID {
	id := s.ECS.CreateEntity()
	s.Transforms.Set(id, &Transform{X: x, Y: y})
	s.Bodies.Set(id, &Body{})
	s.Descriptors.Set(id, &Descriptor{Kind: KindPlayer, Name: name})
	s.Healths.Set(id, &Health{HP: maxHP, MaxHP: maxHP})
	s.Facings.Set(id, &Facing{Dir: FaceDown})
	s.Moves.Set(id, &MoveState{Speed: speed})
	s.Stats.Set(id, &PlayerStats{})
	s.player = id
	return id
}

// CreateMonster spawns one monster from a template at a world position and
// claims its tile in the occupancy index.
func (s *State) CreateMonster(tmpl *data.MonsterInfo, x, y float64, tx, ty int) ecs.EntityID {
	id := s.ECS.CreateEntity()
	s.Transforms.Set(id, &Transform{X: x, Y: y})
	s.Bodies.Set(id, &Body{})
	s.Descriptors.Set(id, &Descriptor{Kind: KindMonster, Name: tmpl.Name, TemplateID: tmpl.ID})
	s.Healths.Set(id, &Health{HP: tmpl.MaxHP, MaxHP: tmpl.MaxHP})
	s.Facings.Set(id, &Facing{Dir: FaceDown})
	s.Moves.Set(id, &MoveState{Speed: tmpl.Speed})
	b := &BehaviorState{
		Enabled:           true,
		Aggressive:        tmpl.Aggressive,
		AttackType:        tmpl.AttackType,
		PreferredDistance: tmpl.PreferredDistance,
		AggroRange:        tmpl.AggroRange,
		LoseAggroRange:    tmpl.LoseAggroRange,
		WanderRange:       tmpl.WanderRange,
		AnchorX:           x,
		AnchorY:           y,
	}
	// The first idle decision waits a full interval even for monsters created
	// outside the spawn path. Spawn-side code re-arms with configured jitter.
	RandomizeWanderCountdown(b, s.rng, wanderArmMin, wanderArmMax)
	s.Behaviors.Set(id, b)
	s.Combats.Set(id, &CombatState{
		Damage:      tmpl.Damage,
		Multiplier:  tmpl.Multiplier,
		Level:       tmpl.Level,
		AttackRange: tmpl.AttackRange,
		Cooldown:    tmpl.AttackCooldown(),
	})
	s.Monsters[id] = struct{}{}
	s.Occupy(TileKey{tx, ty}, id)
	return id
}

// CreateNPC spawns a non-combat actor.
func (s *State) CreateNPC(name string, x, y float64) ecs.EntityID {
	id := s.ECS.CreateEntity()
	s.Transforms.Set(id, &Transform{X: x, Y: y})
	s.Descriptors.Set(id, &Descriptor{Kind: KindNPC, Name: name})
	s.Facings.Set(id, &Facing{Dir: FaceDown})
	s.NPCs[id] = struct{}{}
	return id
}

// MonsterIDs returns a snapshot safe to iterate while monsters die.
func (s *State) MonsterIDs() []ecs.EntityID {
	out := make([]ecs.EntityID, 0, len(s.Monsters))
	for id := range s.Monsters {
		out = append(out, id)
	}
	return out
}

// OccupantAt returns the monster owning a tile, if any.
func (s *State) OccupantAt(k TileKey) (ecs.EntityID, bool) {
	id, ok := s.occupancy[k]
	return id, ok
}

// Occupy claims a tile for a monster.
func (s *State) Occupy(k TileKey, id ecs.EntityID) {
	s.occupancy[k] = id
}

// Vacate releases a tile only if the given monster still owns it.
func (s *State) Vacate(k TileKey, id ecs.EntityID) {
	if s.occupancy[k] == id {
		delete(s.occupancy, k)
	}
}

// ReleaseOccupancy drops every tile the monster owns. Used by the death
// sequence, which must unblock tiles synchronously at Dying start.
func (s *State) ReleaseOccupancy(id ecs.EntityID) {
	for k, owner := range s.occupancy {
		if owner == id {
			delete(s.occupancy, k)
		}
	}
}

// RemoveMonster takes a monster out of the active container and the
// occupancy index without destroying its entity. The dying visual keeps the
// components briefly; destruction follows via the destroy queue.
func (s *State) RemoveMonster(id ecs.EntityID) {
	delete(s.Monsters, id)
	s.ReleaseOccupancy(id)
}

// ClearMapEntities destroys every dynamic entity immediately. The player is
// not a container member and survives. Called only during map rebuild with
// physics paused.
func (s *State) ClearMapEntities() {
	for _, container := range []map[ecs.EntityID]struct{}{s.Monsters, s.NPCs, s.Chests, s.Items} {
		for id := range container {
			s.ECS.DestroyNow(id)
			delete(container, id)
		}
	}
	s.occupancy = make(map[TileKey]ecs.EntityID, 64)
}

// Baseline idle interval for monsters created without a configured spawn
// path.
const (
	wanderArmMin = 5 * time.Second
	wanderArmMax = 7 * time.Second
)

// RandomizeWanderCountdown arms a monster's idle timer with jitter.
func RandomizeWanderCountdown(b *BehaviorState, rng *rand.Rand, min, max time.Duration) {
	span := max - min
	if span <= 0 {
		b.WanderCountdown = min
		return
	}
	b.WanderCountdown = min + time.Duration(rng.Int63n(int64(span)))
}
