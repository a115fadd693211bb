package event

import "github.com/embervale/client/internal/core/ecs"

// Outbound notifications consumed by the UI layer. All fire-and-forget.

type MonsterSpawned struct {
	EntityID   ecs.EntityID
	TemplateID int32
	MapKey     string
	TileX      int
	TileY      int
}

type MonsterDied struct {
	EntityID ecs.EntityID
	MapKey   string
	X        float64
	Y        float64
}

type MonsterDamaged struct {
	EntityID ecs.EntityID
	Damage   int
	HP       int
	MaxHP    int
}

type PlayerDamaged struct {
	Damage  int
	HP      int
	MaxHP   int
	IsMagic bool
}

type MapChanged struct {
	MapKey string
}

type PortalUsed struct {
	SourceMap string
	TargetMap string
}

// AttackHit drives the melee impact visual.
type AttackHit struct {
	Attacker ecs.EntityID
	Target   ecs.EntityID
	Damage   int
}

// ProjectileFired drives the ranged/magic projectile visual.
type ProjectileFired struct {
	Attacker ecs.EntityID
	Target   ecs.EntityID
	Magic    bool
	FromX    float64
	FromY    float64
	ToX      float64
	ToY      float64
}

// MessageLevel selects the UI text channel.
type MessageLevel int

const (
	MessageInfo MessageLevel = iota
	MessageError
)

type UserMessage struct {
	Level MessageLevel
	Text  string
}
