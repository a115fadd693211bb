package system

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/embervale/client/internal/config"
	"github.com/embervale/client/internal/core/event"
	coresys "github.com/embervale/client/internal/core/system"
	"github.com/embervale/client/internal/data"
	"github.com/embervale/client/internal/grid"
	"github.com/embervale/client/internal/scene"
	"github.com/embervale/client/internal/world"
)

// portalTypes are the interact-layer object types that become triggers.
var portalTypes = map[string]bool{
	"portal":   true,
	"stair":    true,
	"teleport": true,
}

// Trigger is one live portal volume: a world-space center plus an immutable
// destination descriptor.
type Trigger struct {
	SourceMap string
	CenterX   float64
	CenterY   float64
	TargetMap string
	TargetX   int
	TargetY   int
	Direction string
	Message   string
}

// PortalSystem derives trigger volumes from the active map's interact layer
// and invokes the transition coordinator when the player's position passes a
// tight proximity test, deliberately smaller than one tile, so walking past
// a portal tile at an angle does not activate it. Phase 3 (PostUpdate).
type PortalSystem struct {
	state *world.State
	grid  *grid.Service
	coord *Coordinator
	sched *scene.Scheduler
	bus   *event.Bus
	cfg   config.PortalConfig
	log   *zap.Logger

	triggers      []Trigger
	cooldownUntil time.Duration
}

func NewPortalSystem(
	state *world.State,
	g *grid.Service,
	coord *Coordinator,
	sched *scene.Scheduler,
	bus *event.Bus,
	cfg config.PortalConfig,
	log *zap.Logger,
) *PortalSystem {
	p := &PortalSystem{
		state: state,
		grid:  g,
		coord: coord,
		sched: sched,
		bus:   bus,
		cfg:   cfg,
		log:   log,
	}
	coord.OnTeardown(p.teardown)
	coord.OnRebuild(p.Rebuild)
	coord.OnComplete(p.armCooldown)
	return p
}

func (p *PortalSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

// Rebuild derives triggers from a map's interact layer. Malformed descriptors
// are logged and skipped; a missing target tile falls back to the destination
// map's default spawn tile.
func (p *PortalSystem) Rebuild(entry *data.MapEntry) {
	p.triggers = p.triggers[:0]
	for _, obj := range entry.Info.InteractLayer {
		if !portalTypes[obj.Type] {
			continue
		}
		if obj.TargetMap == "" {
			p.log.Warn("portal descriptor missing target map, skipped",
				zap.String("map", entry.Info.Key),
				zap.Int("x", obj.X),
				zap.Int("y", obj.Y))
			continue
		}
		tx, ty, ok := p.resolveTargetTile(obj)
		if !ok {
			p.log.Warn("portal target unresolvable, skipped",
				zap.String("map", entry.Info.Key),
				zap.String("target", obj.TargetMap))
			continue
		}
		cx, cy := p.grid.TileToWorldFallback(entry.Info.Key, obj.X, obj.Y)
		p.triggers = append(p.triggers, Trigger{
			SourceMap: entry.Info.Key,
			CenterX:   cx,
			CenterY:   cy,
			TargetMap: obj.TargetMap,
			TargetX:   tx,
			TargetY:   ty,
			Direction: obj.Direction,
			Message:   obj.Message,
		})
	}
	p.log.Debug("portal triggers built",
		zap.String("map", entry.Info.Key),
		zap.Int("count", len(p.triggers)))
}

// resolveTargetTile applies the fallback heuristic: authored target tile if
// present, otherwise the destination map's default spawn tile.
func (p *PortalSystem) resolveTargetTile(obj data.InteractObject) (int, int, bool) {
	if obj.TargetX != nil && obj.TargetY != nil {
		return *obj.TargetX, *obj.TargetY, true
	}
	// Authoring omission: land the player on the destination's spawn tile.
	dest := p.destEntry(obj.TargetMap)
	if dest == nil {
		return 0, 0, false
	}
	return dest.Info.SpawnX, dest.Info.SpawnY, true
}

func (p *PortalSystem) destEntry(key string) *data.MapEntry {
	// The grid service owns the table reference; go through it to share the
	// same availability semantics.
	if p.grid == nil {
		return nil
	}
	return p.grid.MapEntry(key)
}

func (p *PortalSystem) teardown() {
	p.triggers = p.triggers[:0]
}

func (p *PortalSystem) armCooldown() {
	p.cooldownUntil = p.sched.Now() + p.cfg.Cooldown
}

// Triggers returns the live trigger set.
func (p *PortalSystem) Triggers() []Trigger { return p.triggers }

func (p *PortalSystem) Update(_ time.Duration) {
	if p.coord.Changing() || p.sched.Now() < p.cooldownUntil {
		return
	}
	player := p.state.Player()
	tr, ok := p.state.Transforms.Get(player)
	if !ok {
		return
	}
	if h, ok := p.state.Healths.Get(player); ok && !h.Alive() {
		return
	}
	for i := range p.triggers {
		t := &p.triggers[i]
		if math.Hypot(tr.X-t.CenterX, tr.Y-t.CenterY) > p.cfg.TriggerRadius {
			continue
		}
		destX, destY := p.grid.TileToWorldFallback(t.TargetMap, t.TargetX, t.TargetY)
		event.Publish(p.bus, event.PortalUsed{SourceMap: t.SourceMap, TargetMap: t.TargetMap})
		p.coord.ChangeMap(t.TargetMap, destX, destY, t.Message)
		return
	}
}
