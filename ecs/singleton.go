package ecs

// Singleton provides access to a single component instance that lives on the
// component's own type entity. Use this for global game state, configuration,
// or other singleton data. Because the value sits on an ordinary entity it is
// visible to filters and snapshots like any other component.
type Singleton[T any] struct {
	world  *World
	entity Entity
}

// NewSingleton creates a new Singleton accessor for the given world, registering T
// if needed. If initializer is provided and the singleton doesn't exist yet,
// it will be created with the initializer value. Otherwise, a zero value is used.
// This guarantees the singleton exists after the call.
func NewSingleton[T any](w *World, initializer ...T) *Singleton[T] {
	e := Component[T](w)
	if !w.Has(e, e.Id()) {
		var value T
		if len(initializer) > 0 {
			value = initializer[0]
		}
		Set(w, e, value)
	}

	return &Singleton[T]{
		world:  w,
		entity: e,
	}
}

// Init initializes the Singleton with a world reference.
// This is called automatically by the Scheduler during system registration.
func (s *Singleton[T]) Init(w *World) {
	s.world = w
	s.entity = Component[T](w)
}

// Get returns a pointer to the singleton component.
// Returns nil if the singleton has not been set.
func (s *Singleton[T]) Get() *T {
	if s.world == nil {
		return nil
	}
	return Get[T](s.world, s.entity)
}

// Exists returns true if the singleton component has been set.
func (s *Singleton[T]) Exists() bool {
	return s.world != nil && s.world.Has(s.entity, s.entity.Id())
}
