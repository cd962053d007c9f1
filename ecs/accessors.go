package ecs

import "fmt"

func mustComponent[T any](w *World) Entity {
	e, ok := ComponentOf[T](w)
	if !ok {
		var zero T
		panic(fmt.Sprintf("component type %T not registered", zero))
	}
	return e
}

// Set stores a component value on the entity.
func Set[T any](w *World, e Entity, value T) {
	w.SetUntyped(e, mustComponent[T](w).Id(), value)
}

// Get returns a pointer to the entity's component, or nil.
func Get[T any](w *World, e Entity) *T {
	ptr, _ := w.GetUntyped(e, mustComponent[T](w).Id()).(*T)
	return ptr
}

// Has checks if the entity carries T.
func Has[T any](w *World, e Entity) bool {
	return w.Has(e, mustComponent[T](w).Id())
}

// AddTag attaches the tag T to the entity.
func AddTag[T any](w *World, e Entity) {
	w.Add(e, mustComponent[T](w).Id())
}

// SetPair stores value for the pair (R, T), where R is a tag relation and the
// value belongs to the target type T.
func SetPair[R, T any](w *World, e Entity, value T) {
	w.SetUntyped(e, Pair(mustComponent[R](w), mustComponent[T](w)), value)
}

// GetPair returns the value stored for the pair (R, T).
func GetPair[R, T any](w *World, e Entity) *T {
	ptr, _ := w.GetUntyped(e, Pair(mustComponent[R](w), mustComponent[T](w))).(*T)
	return ptr
}

// SetFirst stores value for the pair (R, target), where the relation R
// carries the value.
func SetFirst[R any](w *World, e Entity, target Entity, value R) {
	w.SetUntyped(e, Pair(mustComponent[R](w), target), value)
}

// GetFirst returns the relation value stored for the pair (R, target).
func GetFirst[R any](w *World, e Entity, target Entity) *R {
	ptr, _ := w.GetUntyped(e, Pair(mustComponent[R](w), target)).(*R)
	return ptr
}

// AddFirst attaches the pair (R, target).
func AddFirst[R any](w *World, e Entity, target Entity) {
	w.Add(e, Pair(mustComponent[R](w), target))
}

// HasFirst checks if the entity carries the pair (R, target).
func HasFirst[R any](w *World, e Entity, target Entity) bool {
	return w.Has(e, Pair(mustComponent[R](w), target))
}

