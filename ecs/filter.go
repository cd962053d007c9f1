package ecs

import "iter"

// Match selects which part of an element must carry the filter's marker.
type Match uint8

const (
	// MatchSelf matches plain ids whose entity carries the marker.
	MatchSelf Match = 1 << iota
	// MatchFirst matches pairs whose relation carries the marker.
	MatchFirst
	// MatchSecond matches pairs whose target carries the marker.
	MatchSecond

	MatchAny = MatchSelf | MatchFirst | MatchSecond
)

// Filter finds entities holding an element that is marked, directly or
// through one side of a pair. The sides selected by Match are OR-combined.
// Matching archetypes are cached until the world changes structurally.
type Filter struct {
	world  *World
	marker Id
	match  Match

	cachedArchetypes []*Archetype
	cachedIds        [][]Id
	cachedAt         uint64
	cacheValid       bool
}

// NewFilter creates a filter over entities whose elements carry marker.
func NewFilter(w *World, marker Id, match Match) *Filter {
	return &Filter{
		world:  w,
		marker: marker,
		match:  match,
	}
}

// Matches reports whether a single element satisfies the filter.
func (f *Filter) Matches(id Id) bool {
	if !id.IsPair() {
		return f.match&MatchSelf != 0 && f.world.Has(id.Entity(), f.marker)
	}
	if f.match&MatchFirst != 0 && f.world.Has(id.First(), f.marker) {
		return true
	}
	return f.match&MatchSecond != 0 && f.world.Has(id.Second(), f.marker)
}

func (f *Filter) ensureArchetypeCache() {
	if f.cacheValid && f.cachedAt == f.world.changes {
		return
	}

	f.cachedArchetypes = f.cachedArchetypes[:0]
	f.cachedIds = f.cachedIds[:0]
	for a := range f.world.Archetypes() {
		var ids []Id
		for _, id := range a.ids {
			if f.Matches(id) {
				ids = append(ids, id)
			}
		}
		if len(ids) > 0 {
			f.cachedArchetypes = append(f.cachedArchetypes, a)
			f.cachedIds = append(f.cachedIds, ids)
		}
	}
	f.cachedAt = f.world.changes
	f.cacheValid = true
}

// Iter yields every (entity, element) match. An entity is yielded once per
// matching element, callers that want each entity once must deduplicate.
func (f *Filter) Iter() iter.Seq2[Entity, Id] {
	return func(yield func(Entity, Id) bool) {
		f.ensureArchetypeCache()
		archetypes, ids := f.cachedArchetypes, f.cachedIds
		for i, a := range archetypes {
			for _, e := range a.Iter() {
				for _, id := range ids[i] {
					if !yield(e, id) {
						return
					}
				}
			}
		}
	}
}
