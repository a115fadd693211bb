package system

import (
	"math"

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

// Resolver executes cooldown-gated attacks: range check, damage via the Lua
// formula collaborator, health clamping, visual-effect notifications, and the
// death sequence. It renders nothing; the UI layer consumes the published
// notifications.
type Resolver struct {
	state *world.State
	grid  *grid.Service
	sched *scene.Scheduler
	bus   *event.Bus
	lua   *scripting.Engine
	cfg   config.CombatConfig
	log   *zap.Logger

	// OnMonsterKilled lets the spawn system schedule respawns. Optional.
	OnMonsterKilled func(id ecs.EntityID, templateID int32)
}

func NewResolver(
	state *world.State,
	g *grid.Service,
	sched *scene.Scheduler,
	bus *event.Bus,
	lua *scripting.Engine,
	cfg config.CombatConfig,
	log *zap.Logger,
) *Resolver {
	return &Resolver{state: state, grid: g, sched: sched, bus: bus, lua: lua, cfg: cfg, log: log}
}

// AttemptAttack executes one attack if the attacker is alive, the cooldown
// has elapsed, and the target is within attack range. Returns whether the
// attack fired.
func (r *Resolver) AttemptAttack(attacker, target ecs.EntityID) bool {
	if !r.state.Alive(attacker) || !r.state.Alive(target) {
		return false
	}
	ah, ok := r.state.Healths.Get(attacker)
	if !ok || !ah.Alive() {
		return false
	}
	th, ok := r.state.Healths.Get(target)
	if !ok || !th.Alive() {
		return false
	}
	cs, ok := r.state.Combats.Get(attacker)
	if !ok {
		return false
	}
	now := r.sched.Now()
	if !cs.CanAttackAt(now) {
		return false
	}
	atr, ok := r.state.Transforms.Get(attacker)
	if !ok {
		return false
	}
	ttr, ok := r.state.Transforms.Get(target)
	if !ok {
		return false
	}
	if math.Hypot(ttr.X-atr.X, ttr.Y-atr.Y) > cs.AttackRange {
		return false
	}

	cs.Attacked = true
	cs.LastAttackAt = now
	r.faceTarget(attacker, atr, ttr)

	damage := r.computeDamage(attacker, target, cs)
	r.applyDamage(target, th, damage)
	r.publishAttackVisual(attacker, target, damage, atr, ttr)

	if th.HP <= 0 {
		r.Kill(target)
	}
	return true
}

// computeDamage routes through the Lua formula collaborator: monster output
// first, then the player's mitigation when the player is the target.
func (r *Resolver) computeDamage(attacker, target ecs.EntityID, cs *world.CombatState) int {
	damage := r.lua.CalcMonsterDamage(scripting.MonsterDamageContext{
		BaseDamage:    cs.Damage,
		Multiplier:    cs.Multiplier,
		AttackerLevel: cs.Level,
	})
	if d, ok := r.state.Descriptors.Get(target); ok && d.Kind == world.KindPlayer {
		isMagic := false
		if b, ok := r.state.Behaviors.Get(attacker); ok {
			isMagic = b.AttackType == data.AttackMagic
		}
		stats := &world.PlayerStats{}
		if ps, ok := r.state.Stats.Get(target); ok {
			stats = ps
		}
		damage = r.lua.CalcPlayerDamageTaken(scripting.PlayerDamageContext{
			BaseDamage:     damage,
			Armor:          stats.Armor,
			SkillReduction: stats.SkillReduction,
			IsMagic:        isMagic,
		})
	}
	return damage
}

// applyDamage clamps health into [0, MaxHP] and publishes the damage
// notifications. Taking damage provokes a monster target unconditionally,
// even non-aggressive types.
func (r *Resolver) applyDamage(target ecs.EntityID, th *world.Health, damage int) {
	th.HP -= damage
	if th.HP < 0 {
		th.HP = 0
	}
	if th.HP > th.MaxHP {
		th.HP = th.MaxHP
	}

	d, _ := r.state.Descriptors.Get(target)
	switch {
	case d != nil && d.Kind == world.KindPlayer:
		event.Publish(r.bus, event.PlayerDamaged{Damage: damage, HP: th.HP, MaxHP: th.MaxHP})
	case d != nil && d.Kind == world.KindMonster:
		event.Publish(r.bus, event.MonsterDamaged{EntityID: target, Damage: damage, HP: th.HP, MaxHP: th.MaxHP})
		if b, ok := r.state.Behaviors.Get(target); ok {
			b.Provoked = true
			b.Engaged = true
		}
	}
}

func (r *Resolver) publishAttackVisual(attacker, target ecs.EntityID, damage int, atr, ttr *world.Transform) {
	at := data.AttackMelee
	if b, ok := r.state.Behaviors.Get(attacker); ok {
		at = b.AttackType
	}
	if at == data.AttackMelee {
		event.Publish(r.bus, event.AttackHit{Attacker: attacker, Target: target, Damage: damage})
		return
	}
	event.Publish(r.bus, event.ProjectileFired{
		Attacker: attacker,
		Target:   target,
		Magic:    at == data.AttackMagic,
		FromX:    atr.X,
		FromY:    atr.Y,
		ToX:      ttr.X,
		ToY:      ttr.Y,
	})
}

func (r *Resolver) faceTarget(attacker ecs.EntityID, atr, ttr *world.Transform) {
	f, ok := r.state.Facings.Get(attacker)
	if !ok {
		return
	}
	mapKey := r.state.CurrentMapKey
	tx, ty := r.grid.WorldToTileFallback(mapKey, atr.X, atr.Y)
	ox, oy := r.grid.WorldToTileFallback(mapKey, ttr.X, ttr.Y)
	if tx != ox || ty != oy {
		f.Dir = world.DirectionFromDelta(ox-tx, oy-ty)
	}
}

// Kill starts the death sequence exactly once: a second lethal hit on an
// already-dying target is a no-op. For monsters, AI, occupancy, and container
// membership are dropped synchronously at Dying start, before the visual
// lingers out, so nothing further references a dying monster.
func (r *Resolver) Kill(target ecs.EntityID) {
	h, ok := r.state.Healths.Get(target)
	if !ok || h.Dead || h.Dying {
		return
	}
	h.Dying = true
	h.HP = 0

	d, _ := r.state.Descriptors.Get(target)
	if d != nil && d.Kind == world.KindPlayer {
		// The player is never destroyed; death is a state the UI reacts to.
		h.Dead = true
		event.Publish(r.bus, event.UserMessage{Level: event.MessageInfo, Text: "You died."})
		return
	}

	if b, ok := r.state.Behaviors.Get(target); ok {
		b.Enabled = false
	}
	if ms, ok := r.state.Moves.Get(target); ok {
		ms.Moving = false
	}
	r.state.RemoveMonster(target)

	if tr, ok := r.state.Transforms.Get(target); ok {
		event.Publish(r.bus, event.MonsterDied{
			EntityID: target,
			MapKey:   r.state.CurrentMapKey,
			X:        tr.X,
			Y:        tr.Y,
		})
	}
	if r.OnMonsterKilled != nil && d != nil {
		r.OnMonsterKilled(target, d.TemplateID)
	}

	finish := func() {
		if !r.state.Alive(target) {
			return
		}
		if hh, ok := r.state.Healths.Get(target); ok {
			if hh.Dead {
				return // linger tween and safety timer both fired
			}
			hh.Dead = true
		}
		r.state.ECS.MarkForDestruction(target)
	}
	// Visual-only linger, then destroy. The safety timer guarantees
	// destruction even if the animation callback never fires.
	r.sched.Tween(r.cfg.DeathLinger, nil, finish)
	r.sched.After(r.cfg.DeathSafety, finish)
}
