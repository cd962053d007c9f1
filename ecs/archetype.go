package ecs

import (
	"encoding/binary"
	"iter"
	"slices"

	"github.com/cespare/xxhash/v2"
)

// Archetype represents a unique combination of element ids. Plain component
// ids and data-carrying pairs own a column, tags and tag pairs only take part
// in the signature.
type Archetype struct {
	id       uint64
	ids      []Id
	columns  []iComponentStorage
	entities []Entity
	free     []int
	count    int
}

// newArchetype creates an archetype for the sorted ids, allocating a column
// for every id that stores data.
func newArchetype(id uint64, ids []Id, w *World) *Archetype {
	a := &Archetype{
		id:      id,
		ids:     ids,
		columns: make([]iComponentStorage, len(ids)),
	}

	for idx, elem := range ids {
		if info := w.DataType(elem); info != nil {
			a.columns[idx] = info.newStorage()
		}
	}

	return a
}

// hashIds hashes a sorted id list into an archetype key.
func hashIds(ids []Id) uint64 {
	buf := make([]byte, 8*len(ids))
	for i, id := range ids {
		binary.LittleEndian.PutUint64(buf[i*8:], uint64(id))
	}
	return xxhash.Sum64(buf)
}

// alloc reserves a row for the entity.
func (a *Archetype) alloc(e Entity) int {
	a.count++
	if len(a.free) > 0 {
		row := a.free[len(a.free)-1]
		a.free = a.free[:len(a.free)-1]
		a.entities[row] = e
		return row
	}
	a.entities = append(a.entities, e)
	return len(a.entities) - 1
}

// release frees a row and clears its column slots.
func (a *Archetype) release(row int) {
	for _, col := range a.columns {
		if col != nil {
			col.Delete(row)
		}
	}
	a.entities[row] = 0
	a.free = append(a.free, row)
	a.count--
}

// index returns the position of id in the archetype signature, or -1.
func (a *Archetype) index(id Id) int {
	idx, ok := slices.BinarySearch(a.ids, id)
	if !ok {
		return -1
	}
	return idx
}

// HasId checks if this archetype contains the given id.
func (a *Archetype) HasId(id Id) bool {
	return a.index(id) != -1
}

// ID returns the archetype's unique identifier
func (a *Archetype) ID() uint64 {
	return a.id
}

// Ids returns the sorted element ids of this archetype.
func (a *Archetype) Ids() []Id {
	return a.ids
}

// Len returns the number of entities stored in the archetype.
func (a *Archetype) Len() int {
	return a.count
}

// Iter returns an iterator over all entities in this archetype together
// with their row.
func (a *Archetype) Iter() iter.Seq2[int, Entity] {
	return func(yield func(int, Entity) bool) {
		for row, e := range a.entities {
			if e == 0 {
				continue
			}
			if !yield(row, e) {
				return
			}
		}
	}
}

// with returns the sorted signature extended by id.
func (a *Archetype) with(id Id) []Id {
	ids := make([]Id, 0, len(a.ids)+1)
	ids = append(ids, a.ids...)
	ids = append(ids, id)
	slices.Sort(ids)
	return ids
}

// without returns the sorted signature minus id.
func (a *Archetype) without(id Id) []Id {
	ids := make([]Id, 0, len(a.ids))
	for _, elem := range a.ids {
		if elem != id {
			ids = append(ids, elem)
		}
	}
	return ids
}
