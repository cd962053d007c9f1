package ecs

// iComponentStorage is an interface for a type-erased component column.
// Indices are archetype rows, assigned by the archetype.
type iComponentStorage interface {
	Put(index int, item any) bool
	Delete(index int)
	Get(index int) any
	Has(index int) bool
}
