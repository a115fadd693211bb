package system

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/embervale/client/internal/config"
	"github.com/embervale/client/internal/core/event"
	"github.com/embervale/client/internal/data"
	"github.com/embervale/client/internal/scene"
	"github.com/embervale/client/internal/world"
)

// TransitionPhase tracks where the coordinator is in a map change.
type TransitionPhase int

const (
	PhaseActive TransitionPhase = iota
	PhaseFadingOut
	PhaseRebuilding
	PhaseFadingIn
)

// Coordinator orchestrates map changes: fade out, synchronous teardown and
// rebuild of all per-map state, fade in, notify. Re-entrant calls while a
// change is in flight are silently ignored; concurrent transitions are not
// supported.
type Coordinator struct {
	state  *world.State
	maps   *data.MapTable
	stage  *scene.Stage
	camera *scene.Camera
	bus    *event.Bus
	cfg    config.TransitionConfig
	log    *zap.Logger

	phase    TransitionPhase
	changing bool

	// Per-map subsystems register against the rebuild lifecycle instead of
	// being referenced directly, which keeps portal/spawn wiring acyclic.
	teardownHooks []func()
	rebuildHooks  []func(entry *data.MapEntry)
	completeHooks []func()
}

func NewCoordinator(
	state *world.State,
	maps *data.MapTable,
	stage *scene.Stage,
	camera *scene.Camera,
	bus *event.Bus,
	cfg config.TransitionConfig,
	log *zap.Logger,
) *Coordinator {
	return &Coordinator{
		state:  state,
		maps:   maps,
		stage:  stage,
		camera: camera,
		bus:    bus,
		cfg:    cfg,
		log:    log,
		phase:  PhaseActive,
	}
}

// Changing reports the reentrancy guard. Movement, AI, and portal triggers
// treat a changing map as unavailable.
func (c *Coordinator) Changing() bool { return c.changing }

func (c *Coordinator) Phase() TransitionPhase { return c.phase }

// OnTeardown registers a hook run while the old map's state is destroyed.
func (c *Coordinator) OnTeardown(fn func()) {
	c.teardownHooks = append(c.teardownHooks, fn)
}

// OnRebuild registers a hook run after the destination map's layers and
// colliders exist; per-map subsystems reinitialize here.
func (c *Coordinator) OnRebuild(fn func(entry *data.MapEntry)) {
	c.rebuildHooks = append(c.rebuildHooks, fn)
}

// OnComplete registers a hook run when the fade-in finishes, just before the
// guard clears.
func (c *Coordinator) OnComplete(fn func()) {
	c.completeHooks = append(c.completeHooks, fn)
}

// ChangeMap runs the full transition to targetMap, placing the player at the
// given world coordinates. message, if non-empty, surfaces to the UI after
// the map-changed notification.
func (c *Coordinator) ChangeMap(targetMap string, destX, destY float64, message string) {
	if c.changing {
		c.log.Debug("map change ignored, transition in flight",
			zap.String("target", targetMap))
		return
	}
	// Unknown targets are rejected before anything is torn down; the world
	// stays fully consistent on the source map.
	if c.maps.Get(targetMap) == nil {
		c.log.Error("map change rejected, unknown target",
			zap.String("source", c.state.CurrentMapKey),
			zap.String("target", targetMap))
		event.Publish(c.bus, event.UserMessage{
			Level: event.MessageError,
			Text:  fmt.Sprintf("Failed to enter %s.", targetMap),
		})
		return
	}
	c.changing = true
	c.phase = PhaseFadingOut

	// New map key goes to shared state before anything else; subsystems that
	// consult it mid-transition already see the destination.
	sourceMap := c.state.CurrentMapKey
	c.state.CurrentMapKey = targetMap

	c.camera.FadeOut(c.cfg.FadeDuration, func() {
		c.phase = PhaseRebuilding
		if err := c.rebuildGuarded(targetMap, destX, destY); err != nil {
			// No rollback: the map stays in whatever partial state the
			// failure left. Surfacing the error and freeing the guard beats
			// wedging the transition system forever.
			c.log.Error("map rebuild failed",
				zap.String("source", sourceMap),
				zap.String("target", targetMap),
				zap.Error(err))
			event.Publish(c.bus, event.UserMessage{
				Level: event.MessageError,
				Text:  fmt.Sprintf("Failed to enter %s.", targetMap),
			})
			c.phase = PhaseActive
			c.changing = false
			return
		}
		c.phase = PhaseFadingIn
		c.camera.FadeIn(c.cfg.FadeDuration, func() {
			event.Publish(c.bus, event.MapChanged{MapKey: targetMap})
			if message != "" {
				event.Publish(c.bus, event.UserMessage{Level: event.MessageInfo, Text: message})
			}
			for _, fn := range c.completeHooks {
				fn()
			}
			c.phase = PhaseActive
			c.changing = false
		})
	})
}

// rebuildGuarded converts a panicking rebuild into an error so the guard is
// always released.
func (c *Coordinator) rebuildGuarded(targetMap string, destX, destY float64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("rebuild panicked: %v", r)
		}
	}()
	return c.rebuild(targetMap, destX, destY)
}

// rebuild is the synchronous teardown/reconstruction step. The world is
// never observable in a mixed state: physics pauses and all old colliders
// and entities are gone before any new layer exists.
func (c *Coordinator) rebuild(targetMap string, destX, destY float64) error {
	entry := c.maps.Get(targetMap)
	if entry == nil {
		// Validated at ChangeMap; reaching this means the table changed
		// underneath a transition in flight.
		return fmt.Errorf("unknown map %q", targetMap)
	}

	c.stage.PausePhysics()
	c.stage.DestroyColliders()
	c.stage.DestroyLayers()
	c.state.ClearMapEntities()
	for _, fn := range c.teardownHooks {
		fn()
	}

	c.stage.TilemapKey = targetMap
	if entry.Info.GroundLayer != "" {
		c.stage.CreateLayer(entry.Info.GroundLayer)
	}
	if entry.Info.CollisionLayer != "" {
		c.stage.CreateLayer(entry.Info.CollisionLayer)
	}
	if entry.Info.ChestLayer != "" {
		c.stage.CreateLayer(entry.Info.ChestLayer)
	}
	c.stage.CreateCollider("player/" + entry.Info.CollisionLayer)
	c.stage.CreateCollider("monsters/" + entry.Info.CollisionLayer)

	for _, fn := range c.rebuildHooks {
		fn(entry)
	}

	// Reposition the surviving player and kill residual velocity.
	player := c.state.Player()
	if tr, ok := c.state.Transforms.Get(player); ok {
		tr.X, tr.Y = destX, destY
	}
	if body, ok := c.state.Bodies.Get(player); ok {
		body.VelX, body.VelY = 0, 0
	}
	if ms, ok := c.state.Moves.Get(player); ok {
		ms.Moving = false
	}

	c.stage.ResumePhysics()
	return nil
}
