package ecs

import (
	"iter"
	"reflect"
	"unsafe"
)

// View represents a query for entities with a specific combination of components
// The type T should be a struct with embedded pointer fields for each component type
// Named fields can be marked as optional using the `ecs:"optional"` struct tag
type View[T any] struct {
	world       *World
	ids         []Id
	types       []reflect.Type
	optional    []bool
	fieldOffset []uintptr

	// Tag fields point at a shared zero value when present
	tagPtr []unsafe.Pointer
}

// NewView creates a new view for the given struct type
// Every field type must already be registered with the world
// Embedded fields are always required
// Named fields can be marked as optional using the `ecs:"optional"` struct tag
func NewView[T any](w *World) *View[T] {
	structType := reflect.TypeFor[T]()

	if structType.Kind() != reflect.Struct {
		panic("View type parameter must be a struct")
	}

	v := &View[T]{world: w}
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		fieldType := field.Type

		if fieldType.Kind() != reflect.Ptr {
			panic("View struct fields must be pointer types")
		}

		componentType := fieldType.Elem()
		e, ok := w.types[componentType]
		if !ok {
			panic("component type " + componentType.String() + " not registered")
		}

		// Parse struct tag to check if component is optional
		// Embedded fields (field.Anonymous) are always required
		isOptional := false
		if !field.Anonymous {
			tag := field.Tag.Get("ecs")
			if tag != "" {
				if tag == "optional" {
					isOptional = true
				} else {
					panic("invalid ecs tag value: \"" + tag + "\" (only \"optional\" is supported)")
				}
			}
		}

		var tagPtr unsafe.Pointer
		if componentType.Size() == 0 {
			tagPtr = reflect.New(componentType).UnsafePointer()
		}

		v.ids = append(v.ids, e.Id())
		v.types = append(v.types, componentType)
		v.optional = append(v.optional, isOptional)
		v.fieldOffset = append(v.fieldOffset, field.Offset)
		v.tagPtr = append(v.tagPtr, tagPtr)
	}

	return v
}

// Fill populates the provided struct pointer with component data for the given entity
// Returns false if the entity is missing any required components
// Optional components are set to nil if not present
func (v *View[T]) Fill(e Entity, ptr *T) bool {
	rec := v.world.record(e)
	if rec == nil {
		return false
	}
	return v.populateResult(unsafe.Pointer(ptr), rec.archetype, rec.row, v.buildStorageIndices(rec.archetype))
}

// Get returns a populated view struct for the given entity, or nil if the entity
// doesn't have all the required components
func (v *View[T]) Get(e Entity) *T {
	var result T
	if !v.Fill(e, &result) {
		return nil
	}
	return &result
}

// matchesArchetype checks if an archetype contains all the required component types for this view
// Optional components are not checked - they may or may not be present
func (v *View[T]) matchesArchetype(archetype *Archetype) bool {
	for i, id := range v.ids {
		if v.optional[i] {
			continue
		}
		if !archetype.HasId(id) {
			return false
		}
	}
	return true
}

func (v *View[T]) buildStorageIndices(archetype *Archetype) []int {
	storageIndices := make([]int, len(v.ids))
	for i, id := range v.ids {
		storageIndices[i] = archetype.index(id)
	}
	return storageIndices
}

func (v *View[T]) populateResult(resultPtr unsafe.Pointer, archetype *Archetype, row int, storageIndices []int) bool {
	for i, storageIdx := range storageIndices {
		fieldPtr := unsafe.Pointer(uintptr(resultPtr) + v.fieldOffset[i])

		if storageIdx == -1 {
			if v.optional[i] {
				*(*unsafe.Pointer)(fieldPtr) = nil
				continue
			}
			return false
		}

		column := archetype.columns[storageIdx]
		if column == nil {
			*(*unsafe.Pointer)(fieldPtr) = v.tagPtr[i]
			continue
		}

		component := column.Get(row)
		if component == nil {
			if v.optional[i] {
				*(*unsafe.Pointer)(fieldPtr) = nil
				continue
			}
			return false
		}

		componentPtr := (*iface)(unsafe.Pointer(&component)).data
		*(*unsafe.Pointer)(fieldPtr) = componentPtr
	}
	return true
}

// Iter returns an iterator over all entities that have all the required components for this view
// The iterator yields (Entity, T) pairs where T is the populated view struct
// Optional components are set to nil if not present
func (v *View[T]) Iter() iter.Seq2[Entity, T] {
	return func(yield func(Entity, T) bool) {
		for archetype := range v.world.Archetypes() {
			if !v.matchesArchetype(archetype) {
				continue
			}

			storageIndices := v.buildStorageIndices(archetype)

			var result T
			resultPtr := unsafe.Pointer(&result)

			for row, e := range archetype.Iter() {
				if !v.populateResult(resultPtr, archetype, row, storageIndices) {
					continue
				}

				if !yield(e, result) {
					return
				}
			}
		}
	}
}

// Values returns an iterator over just the view structs (without entity IDs)
// This is useful when you only care about the component data, not which entity it belongs to
func (v *View[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, value := range v.Iter() {
			if !yield(value) {
				return
			}
		}
	}
}

// Spawn creates a new entity with components extracted from the view struct
func (v *View[T]) Spawn(data T) Entity {
	structPtr := unsafe.Pointer(&data)

	e := v.world.NewEntity()
	for i, id := range v.ids {
		fieldPtr := unsafe.Pointer(uintptr(structPtr) + v.fieldOffset[i])
		componentPtr := *(*unsafe.Pointer)(fieldPtr)

		if componentPtr == nil {
			if !v.optional[i] {
				panic("required component is nil in View.Spawn")
			}
			continue
		}

		if v.types[i].Size() == 0 {
			v.world.Add(e, id)
			continue
		}
		v.world.SetUntyped(e, id, reflect.NewAt(v.types[i], componentPtr).Interface())
	}

	return e
}
