package ecs

// World owns the entity pool, the component registry, and a deferred destroy
// queue flushed at the cleanup phase of each tick. Map teardown bypasses the
// queue via DestroyNow because the rebuild that follows must observe empty
// containers within the same call.
type World struct {
	pool     *Pool
	registry *Registry
	queue    []EntityID
}

func NewWorld() *World {
	return &World{
		pool:     NewPool(),
		registry: NewRegistry(),
		queue:    make([]EntityID, 0, 64),
	}
}

func (w *World) Pool() *Pool         { return w.pool }
func (w *World) Registry() *Registry { return w.registry }

func (w *World) CreateEntity() EntityID {
	return w.pool.Create()
}

func (w *World) Alive(id EntityID) bool {
	return w.pool.Alive(id)
}

// MarkForDestruction queues an entity for end-of-tick cleanup. Used by the
// death sequence so a dying actor's components survive until its visual
// lingers out.
func (w *World) MarkForDestruction(id EntityID) {
	w.queue = append(w.queue, id)
}

// DestroyNow removes the entity and all its components immediately.
func (w *World) DestroyNow(id EntityID) {
	w.registry.RemoveAll(id)
	w.pool.Destroy(id)
}

// FlushDestroyQueue destroys all queued entities. Idempotent for entities
// already gone (stale generations are ignored by the pool).
func (w *World) FlushDestroyQueue() {
	for _, id := range w.queue {
		w.registry.RemoveAll(id)
		w.pool.Destroy(id)
	}
	w.queue = w.queue[:0]
}
