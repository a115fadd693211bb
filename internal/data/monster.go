package data

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// AttackType selects a monster's positioning behavior: melee closes in,
// ranged and magic hold a preferred distance band.
type AttackType int

const (
	AttackMelee AttackType = iota
	AttackRanged
	AttackMagic
)

func (a AttackType) String() string {
	switch a {
	case AttackRanged:
		return "ranged"
	case AttackMagic:
		return "magic"
	default:
		return "melee"
	}
}

func ParseAttackType(s string) (AttackType, error) {
	switch s {
	case "melee", "":
		return AttackMelee, nil
	case "ranged":
		return AttackRanged, nil
	case "magic":
		return AttackMagic, nil
	}
	return AttackMelee, fmt.Errorf("unknown attack type %q", s)
}

// Attack-type defaults in world units. Centralized here so behavior modules
// never re-derive them.
const (
	meleePreferredDistance  = 32.0 // one tile
	rangedPreferredDistance = 160.0
	meleeAttackRange        = 40.0
	rangedAttackRange       = 384.0
)

// PreferredDistance returns the default hold distance for the attack type.
func (a AttackType) PreferredDistance() float64 {
	if a == AttackMelee {
		return meleePreferredDistance
	}
	return rangedPreferredDistance
}

// AttackRange returns the default maximum attack distance for the attack type.
func (a AttackType) AttackRange() float64 {
	if a == AttackMelee {
		return meleeAttackRange
	}
	return rangedAttackRange
}

// MonsterInfo is one monster template from monsters.yaml. Zero-valued
// distance fields are filled from the attack-type defaults at load.
type MonsterInfo struct {
	ID                int32   `yaml:"id"`
	Name              string  `yaml:"name"`
	AttackTypeName    string  `yaml:"attack_type"`
	Level             int     `yaml:"level"`
	MaxHP             int     `yaml:"max_hp"`
	Damage            int     `yaml:"damage"`
	Multiplier        float64 `yaml:"multiplier"`
	Speed             float64 `yaml:"speed"`
	Aggressive        bool    `yaml:"aggressive"`
	AggroRange        float64 `yaml:"aggro_range"`      // world units
	LoseAggroRange    float64 `yaml:"lose_aggro_range"` // world units
	WanderRange       float64 `yaml:"wander_range"`     // world units from anchor
	AttackCooldownMs  int     `yaml:"attack_cooldown_ms"`
	PreferredDistance float64 `yaml:"preferred_distance"`
	AttackRange       float64 `yaml:"attack_range"`

	AttackType AttackType `yaml:"-"`
}

// MonsterTable provides monster template lookups by ID.
type MonsterTable struct {
	monsters map[int32]*MonsterInfo
}

type monsterListFile struct {
	Monsters []MonsterInfo `yaml:"monsters"`
}

// LoadMonsterTable loads monsters.yaml. Templates with an unknown attack type
// fail the whole load: a silently-melee archer is worse than a boot error.
func LoadMonsterTable(path string) (*MonsterTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read monster list %s: %w", path, err)
	}
	var file monsterListFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse monster list: %w", err)
	}

	t := &MonsterTable{monsters: make(map[int32]*MonsterInfo, len(file.Monsters))}
	for i := range file.Monsters {
		m := &file.Monsters[i]
		if err := finishMonsterInfo(m); err != nil {
			return nil, fmt.Errorf("monster %d (%s): %w", m.ID, m.Name, err)
		}
		t.monsters[m.ID] = m
	}
	return t, nil
}

// NewMonsterTable builds a table from templates directly. Test seam.
func NewMonsterTable(monsters ...*MonsterInfo) (*MonsterTable, error) {
	t := &MonsterTable{monsters: make(map[int32]*MonsterInfo, len(monsters))}
	for _, m := range monsters {
		if err := finishMonsterInfo(m); err != nil {
			return nil, fmt.Errorf("monster %d (%s): %w", m.ID, m.Name, err)
		}
		t.monsters[m.ID] = m
	}
	return t, nil
}

func finishMonsterInfo(m *MonsterInfo) error {
	at, err := ParseAttackType(m.AttackTypeName)
	if err != nil {
		return err
	}
	m.AttackType = at
	if m.PreferredDistance <= 0 {
		m.PreferredDistance = at.PreferredDistance()
	}
	if m.AttackRange <= 0 {
		m.AttackRange = at.AttackRange()
	}
	if m.Speed <= 0 {
		m.Speed = 1.0
	}
	if m.Multiplier <= 0 {
		m.Multiplier = 1.0
	}
	if m.MaxHP <= 0 {
		m.MaxHP = 1
	}
	if m.AggroRange <= 0 {
		m.AggroRange = 160
	}
	if m.LoseAggroRange <= 0 {
		m.LoseAggroRange = 320
	}
	if m.WanderRange <= 0 {
		m.WanderRange = 96
	}
	if m.AttackCooldownMs <= 0 {
		m.AttackCooldownMs = 1500
	}
	return nil
}

// Get returns the template for an ID, or nil if unknown.
func (t *MonsterTable) Get(id int32) *MonsterInfo {
	return t.monsters[id]
}

func (t *MonsterTable) Count() int {
	return len(t.monsters)
}

// AttackCooldown returns the template cooldown as a duration.
func (m *MonsterInfo) AttackCooldown() time.Duration {
	return time.Duration(m.AttackCooldownMs) * time.Millisecond
}
