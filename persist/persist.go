// Package persist snapshots the persistable part of an ecs.World to text and
// restores it, possibly into a different world instance.
//
// A component type opts in by carrying the Persist marker on its type entity.
// Data-bearing types additionally carry a Persister, synthesized once per Go
// type by Component or Enum, which converts values to and from JSON. The same
// Persister serves plain component slots and pair slots, because it always
// works on the id it is given.
//
// Extract walks every entity holding a marked element, directly or through
// either side of a pair, and produces a Snapshot. Restore rebuilds the entity
// graph from it, resolving type names against the target world.
package persist

import (
	"slices"

	"github.com/rotisserie/eris"

	"github.com/plus3/ooftn-persist/ecs"
)

// Persist marks a component type as eligible for snapshots.
type Persist struct{}

// Persister converts the values of one component type to and from text.
type Persister struct {
	// Serialize encodes the value stored at id on the entity. id is either
	// the type's own id or a pair whose data is of this type.
	Serialize func(w *ecs.World, e ecs.Entity, id ecs.Id) (string, error)
	// Decode parses text into a value of the bound type.
	Decode func(text string) (any, error)

	shape    string
	variants []string
}

// Variants returns the sorted variant names of an enum Persister, or nil for
// other types.
func (p Persister) Variants() []string {
	return slices.Clone(p.variants)
}

// Deserialize decodes text and stores the value at id on the entity.
func (p Persister) Deserialize(w *ecs.World, e ecs.Entity, id ecs.Id, text string) error {
	value, err := p.Decode(text)
	if err != nil {
		return err
	}
	w.SetUntyped(e, id, value)
	return nil
}

// Import registers the persistence types with the world and returns the
// Persist marker entity. It is safe to call repeatedly.
func Import(w *ecs.World) ecs.Entity {
	marker := ecs.Component[Persist](w)
	ecs.Component[Persister](w)
	return marker
}

// IsPersistable reports whether the entity carries the Persist marker.
func IsPersistable(w *ecs.World, e ecs.Entity) bool {
	marker, ok := ecs.ComponentOf[Persist](w)
	return ok && w.Has(e, marker.Id())
}

// PersisterOf returns the Persister attached to a type entity.
func PersisterOf(w *ecs.World, e ecs.Entity) (*Persister, bool) {
	if _, ok := ecs.ComponentOf[Persister](w); !ok {
		return nil, false
	}
	p := ecs.Get[Persister](w, e)
	return p, p != nil
}

func mustPersister(w *ecs.World, typeEntity ecs.Entity) (*Persister, error) {
	p, ok := PersisterOf(w, typeEntity)
	if !ok {
		return nil, eris.Wrapf(ErrMissingPersister, "type %q", w.Name(typeEntity))
	}
	return p, nil
}

// Module installs component registrations into a world.
type Module interface {
	Register(w *ecs.World) error
}

// ModuleFunc adapts a plain function to a Module.
type ModuleFunc func(w *ecs.World) error

func (f ModuleFunc) Register(w *ecs.World) error {
	return f(w)
}

// Factory builds a world that is ready to receive a snapshot.
type Factory func() (*ecs.World, error)

// NewWorld creates a world with the persistence types and the given modules
// registered.
func NewWorld(modules ...Module) (*ecs.World, error) {
	w := ecs.New()
	Import(w)
	for _, m := range modules {
		if err := m.Register(w); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// WorldFactory returns a Factory calling NewWorld with the modules.
func WorldFactory(modules ...Module) Factory {
	return func() (*ecs.World, error) {
		return NewWorld(modules...)
	}
}

// Reload parses a snapshot and restores it into a new world built by factory.
func Reload(factory Factory, data []byte, opts ...Option) (*ecs.World, error) {
	snapshot, err := Unmarshal(data)
	if err != nil {
		return nil, err
	}
	w, err := factory()
	if err != nil {
		return nil, eris.Wrap(err, "build world")
	}
	if err := Restore(w, snapshot, opts...); err != nil {
		return nil, err
	}
	return w, nil
}
