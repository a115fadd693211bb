package scene

// Layer is a handle to one tile-layer renderer instance.
type Layer struct {
	Name      string
	destroyed bool
}

func (l *Layer) Destroyed() bool { return l.destroyed }

// Collider is a handle to one physics collider pairing an actor container
// with a collision layer.
type Collider struct {
	Name      string
	destroyed bool
}

func (c *Collider) Destroyed() bool { return c.destroyed }

// Stage owns the per-map renderer and physics handles the transition
// coordinator tears down and rebuilds. It double-checks nothing from the old
// map survives: destroyed handles are dropped from the active sets.
type Stage struct {
	TilemapKey string
	layers     []*Layer
	colliders  []*Collider
	paused     bool
}

func NewStage() *Stage {
	return &Stage{}
}

// CreateLayer registers a tile-layer renderer for the current tilemap.
func (s *Stage) CreateLayer(name string) *Layer {
	l := &Layer{Name: name}
	s.layers = append(s.layers, l)
	return l
}

// CreateCollider registers a physics collider.
func (s *Stage) CreateCollider(name string) *Collider {
	c := &Collider{Name: name}
	s.colliders = append(s.colliders, c)
	return c
}

// Layers returns the live layer handles.
func (s *Stage) Layers() []*Layer { return s.layers }

// Colliders returns the live collider handles.
func (s *Stage) Colliders() []*Collider { return s.colliders }

// DestroyColliders invalidates and drops every collider handle.
func (s *Stage) DestroyColliders() {
	for _, c := range s.colliders {
		c.destroyed = true
	}
	s.colliders = s.colliders[:0]
}

// DestroyLayers invalidates and drops every layer handle and the tilemap.
func (s *Stage) DestroyLayers() {
	for _, l := range s.layers {
		l.destroyed = true
	}
	s.layers = s.layers[:0]
	s.TilemapKey = ""
}

// PausePhysics halts the simulation while the world is rebuilt.
func (s *Stage) PausePhysics()  { s.paused = true }
func (s *Stage) ResumePhysics() { s.paused = false }
func (s *Stage) PhysicsPaused() bool {
	return s.paused
}
