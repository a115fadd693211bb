package world

import (
	"time"

	"github.com/embervale/client/internal/data"
)

// ActorKind discriminates the dynamic-entity containers an actor belongs to.
type ActorKind int

const (
	KindPlayer ActorKind = iota
	KindMonster
	KindNPC
	KindChest
	KindItem
)

// Direction is a four-way facing.
type Direction int

const (
	FaceDown Direction = iota
	FaceUp
	FaceLeft
	FaceRight
)

// DirectionFromDelta derives facing from a net tile delta. The larger axis
// wins; ties go horizontal.
func DirectionFromDelta(dx, dy int) Direction {
	adx, ady := dx, dy
	if adx < 0 {
		adx = -adx
	}
	if ady < 0 {
		ady = -ady
	}
	if adx >= ady && dx != 0 {
		if dx > 0 {
			return FaceRight
		}
		return FaceLeft
	}
	if dy > 0 {
		return FaceDown
	}
	if dy < 0 {
		return FaceUp
	}
	return FaceDown
}

// Transform is an actor's continuous world position. The tile position is
// always computed from it via the grid service, never stored.
type Transform struct {
	X float64
	Y float64
}

// Body carries residual physics velocity; reset on map arrival.
type Body struct {
	VelX float64
	VelY float64
}

// Descriptor identifies what an entity is.
type Descriptor struct {
	Kind       ActorKind
	Name       string
	TemplateID int32
}

// Health tracks hit points and the death flags. A dead or dying actor never
// initiates movement or attacks.
type Health struct {
	HP    int
	MaxHP int
	Dead  bool
	Dying bool
}

func (h *Health) Alive() bool { return !h.Dead && !h.Dying }

// Facing is the actor's current view direction.
type Facing struct {
	Dir Direction
}

// MoveState gates tile movement: exactly one outstanding move per actor.
type MoveState struct {
	Moving bool
	Speed  float64
}

// BehaviorState is the per-monster AI state. Owned exclusively by one
// monster's behavior module.
type BehaviorState struct {
	Enabled    bool
	Aggressive bool // innate trait
	Provoked   bool // transient, set on taking damage, cleared on aggro loss
	Engaged    bool // in combat; cleared only by the aggro-loss transition
	AttackType data.AttackType

	PreferredDistance float64
	AggroRange        float64
	LoseAggroRange    float64
	WanderRange       float64

	// AnchorX/Y is the spawn position the wander radius is measured from.
	AnchorX float64
	AnchorY float64

	// WanderCountdown is the time until the next idle decision.
	WanderCountdown time.Duration
}

// CombatState gates attack execution.
type CombatState struct {
	Damage      int
	Multiplier  float64
	Level       int
	AttackRange float64
	Cooldown    time.Duration

	// LastAttackAt is game-clock time of the last successful attack.
	Attacked     bool
	LastAttackAt time.Duration
}

// CanAttackAt reports whether the cooldown has elapsed at game time now.
func (c *CombatState) CanAttackAt(now time.Duration) bool {
	return !c.Attacked || now-c.LastAttackAt >= c.Cooldown
}

// PlayerStats feeds the player damage-taken formula.
type PlayerStats struct {
	Armor          int
	SkillReduction int
}
