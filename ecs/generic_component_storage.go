package ecs

import (
	"fmt"
	"reflect"
)

// TypeInfo describes a component type registered with a World. Every
// component type is itself an entity, the TypeInfo is what makes that entity
// a type.
type TypeInfo struct {
	Name string
	Type reflect.Type
	Size uintptr

	newStorage func() iComponentStorage
}

// IsTag reports whether the type is zero-size and therefore presence-only.
func (t *TypeInfo) IsTag() bool {
	return t.Size == 0
}

// Component registers T with the world, named by its short Go type name, and
// returns its type entity. Registering an already known type returns the
// existing entity.
func Component[T any](w *World) Entity {
	return ComponentNamed[T](w, shortTypeName(reflect.TypeFor[T]()))
}

// ComponentNamed registers T under an explicit name.
func ComponentNamed[T any](w *World, name string) Entity {
	t := reflect.TypeFor[T]()
	if e, ok := w.types[t]; ok {
		return e
	}

	switch t.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Func, reflect.Interface:
		panic("components cannot be pointers, maps, channels, functions or interfaces: " + t.String())
	}

	if existing, ok := w.names[name]; ok {
		if info, isType := w.TypeInfo(existing); isType {
			panic(fmt.Sprintf("component name %q already used by %s", name, info.Type))
		}
		panic(fmt.Sprintf("component name %q already used by entity %d", name, existing))
	}

	e := w.NewEntity()
	w.SetName(e, name)
	w.types[t] = e
	w.typeInfo.Put(e, &TypeInfo{
		Name: name,
		Type: t,
		Size: t.Size(),
		newStorage: func() iComponentStorage {
			return &genericComponentStorage[T]{}
		},
	})
	return e
}

// ComponentOf returns the type entity of T if it has been registered.
func ComponentOf[T any](w *World) (Entity, bool) {
	e, ok := w.types[reflect.TypeFor[T]()]
	return e, ok
}

func shortTypeName(t reflect.Type) string {
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}

const (
	genericBlockSize = 64
)

// genericComponentStorage is a generic implementation of iComponentStorage.
// It stores components of a specific type `T` in blocks so that pointers
// handed out by Get stay valid while the column grows.
type genericComponentStorage[T any] struct {
	blocks []*[genericBlockSize]T
	filled []*[genericBlockSize]bool
}

// Put stores a component at the given row. The item may be a T or a *T.
func (cs *genericComponentStorage[T]) Put(index int, item any) bool {
	var concreteItem T
	if ptr, ok := item.(*T); ok {
		concreteItem = *ptr
	} else if val, ok := item.(T); ok {
		concreteItem = val
	} else {
		return false
	}

	blockIdx := index / genericBlockSize
	slotIdx := index % genericBlockSize

	for blockIdx >= len(cs.blocks) {
		cs.blocks = append(cs.blocks, new([genericBlockSize]T))
		cs.filled = append(cs.filled, new([genericBlockSize]bool))
	}

	cs.blocks[blockIdx][slotIdx] = concreteItem
	cs.filled[blockIdx][slotIdx] = true
	return true
}

// Get returns a pointer to the component at the given index.
func (cs *genericComponentStorage[T]) Get(index int) any {
	if !cs.Has(index) {
		return nil
	}
	return &cs.blocks[index/genericBlockSize][index%genericBlockSize]
}

// Delete marks a component slot as empty.
func (cs *genericComponentStorage[T]) Delete(index int) {
	if !cs.Has(index) {
		return
	}

	blockIdx := index / genericBlockSize
	slotIdx := index % genericBlockSize

	cs.filled[blockIdx][slotIdx] = false
	var zero T
	cs.blocks[blockIdx][slotIdx] = zero // Zero out the value
}

// Has checks if a component exists at the given index.
func (cs *genericComponentStorage[T]) Has(index int) bool {
	if index < 0 {
		return false
	}

	blockIdx := index / genericBlockSize
	slotIdx := index % genericBlockSize

	if blockIdx >= len(cs.blocks) {
		return false
	}

	return cs.filled[blockIdx][slotIdx]
}
