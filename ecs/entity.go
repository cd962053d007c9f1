package ecs

import "fmt"

// Entity is a stable identifier for an object in a World. Ids stay valid for
// the lifetime of the entity, regardless of structural changes.
type Entity uint64

// Id identifies an element that can be attached to an entity: either a plain
// entity (usually a component type entity) or a pair of two entities.
type Id uint64

const (
	pairFlag Id = 1 << 63

	// MaxEntity is the largest entity id a World can hold. Pair ids embed two
	// entity ids, so each side is limited to 31 bits.
	MaxEntity Entity = 1<<31 - 1
)

// Pair builds the id of the relationship (first, second).
func Pair(first, second Entity) Id {
	if first > MaxEntity || second > MaxEntity {
		panic(fmt.Sprintf("pair (%d, %d) exceeds max entity id", first, second))
	}
	return pairFlag | Id(first)<<32 | Id(second)
}

// IsPair reports whether the id denotes a relationship pair.
func (id Id) IsPair() bool {
	return id&pairFlag != 0
}

// First returns the relation side of a pair.
func (id Id) First() Entity {
	return Entity((id &^ pairFlag) >> 32)
}

// Second returns the target side of a pair.
func (id Id) Second() Entity {
	return Entity(id & 0xFFFFFFFF)
}

// Entity returns the plain entity of a non-pair id.
func (id Id) Entity() Entity {
	return Entity(id)
}

func (id Id) String() string {
	if id.IsPair() {
		return fmt.Sprintf("(%d, %d)", id.First(), id.Second())
	}
	return fmt.Sprintf("%d", uint64(id))
}

// Id converts the entity to an element id.
func (e Entity) Id() Id {
	return Id(e)
}
