package ecs

import (
	"fmt"
	"iter"
	"reflect"
	"slices"

	"github.com/kamstrup/intmap"
)

// entityRecord locates an entity inside its archetype.
type entityRecord struct {
	archetype *Archetype
	row       int
	name      string
}

// World is the main ECS container. Entities keep their id for their whole
// lifetime, component types are entities themselves, and relationships are
// stored as pair ids. A World is not safe for concurrent use.
type World struct {
	entities   *intmap.Map[Entity, *entityRecord]
	typeInfo   *intmap.Map[Entity, *TypeInfo]
	archetypes map[uint64]*Archetype
	root       *Archetype
	names      map[string]Entity
	types      map[reflect.Type]Entity
	nextId     Entity

	// changes counts structural changes, caches compare against it.
	changes uint64
}

// New creates an empty world.
func New() *World {
	w := &World{
		entities:   intmap.New[Entity, *entityRecord](256),
		typeInfo:   intmap.New[Entity, *TypeInfo](64),
		archetypes: make(map[uint64]*Archetype),
		names:      make(map[string]Entity),
		types:      make(map[reflect.Type]Entity),
		nextId:     1,
	}
	w.root = w.archetype(nil)
	return w
}

// archetype returns the archetype for a sorted signature, creating it if needed.
func (w *World) archetype(ids []Id) *Archetype {
	key := hashIds(ids)
	for {
		a, ok := w.archetypes[key]
		if !ok {
			a = newArchetype(key, ids, w)
			w.archetypes[key] = a
			w.changes++
			return a
		}
		if slices.Equal(a.ids, ids) {
			return a
		}
		key++
	}
}

// Archetypes returns an iterator over all archetypes of the world.
func (w *World) Archetypes() iter.Seq[*Archetype] {
	return func(yield func(*Archetype) bool) {
		for _, a := range w.archetypes {
			if !yield(a) {
				return
			}
		}
	}
}

// NewEntity allocates an entity with a fresh id.
func (w *World) NewEntity() Entity {
	for w.IsAlive(w.nextId) {
		w.nextId++
	}
	return w.MakeAlive(w.nextId)
}

// NewNamed returns the entity with the given name, creating it if needed.
func (w *World) NewNamed(name string) Entity {
	if e, ok := w.names[name]; ok {
		return e
	}
	e := w.NewEntity()
	w.SetName(e, name)
	return e
}

// MakeAlive makes the entity with exactly this id alive. Calling it for an
// entity that is already alive is a no-op.
func (w *World) MakeAlive(e Entity) Entity {
	if e == 0 || e > MaxEntity {
		panic(fmt.Sprintf("entity id %d out of range", e))
	}
	if w.IsAlive(e) {
		return e
	}
	w.entities.Put(e, &entityRecord{
		archetype: w.root,
		row:       w.root.alloc(e),
	})
	if e >= w.nextId {
		w.nextId = e + 1
	}
	w.changes++
	return e
}

// IsAlive reports whether the entity exists.
func (w *World) IsAlive(e Entity) bool {
	return w.entities.Has(e)
}

// Count returns the number of alive entities, component types included.
func (w *World) Count() int {
	return w.entities.Len()
}

// Delete removes the entity, its name and every pair on other entities that
// references it.
func (w *World) Delete(e Entity) {
	rec := w.record(e)
	if rec == nil {
		return
	}
	if w.typeInfo.Has(e) {
		panic(fmt.Sprintf("cannot delete component type %q", rec.name))
	}

	rec.archetype.release(rec.row)
	w.entities.Del(e)
	if rec.name != "" {
		delete(w.names, rec.name)
	}
	w.changes++

	w.removeReferences(e)
}

func (w *World) removeReferences(e Entity) {
	type strip struct {
		entity Entity
		id     Id
	}
	var strips []strip
	for _, a := range w.archetypes {
		if a.count == 0 {
			continue
		}
		for _, id := range a.ids {
			if id.Entity() == e || (id.IsPair() && (id.First() == e || id.Second() == e)) {
				for _, other := range a.Iter() {
					strips = append(strips, strip{other, id})
				}
			}
		}
	}
	for _, s := range strips {
		w.Remove(s.entity, s.id)
	}
}

func (w *World) record(e Entity) *entityRecord {
	rec, ok := w.entities.Get(e)
	if !ok {
		return nil
	}
	return rec
}

func (w *World) mustRecord(e Entity) *entityRecord {
	rec := w.record(e)
	if rec == nil {
		panic(fmt.Sprintf("entity %d is not alive", e))
	}
	return rec
}

// SetName assigns a unique name to the entity. An empty name clears it.
func (w *World) SetName(e Entity, name string) {
	rec := w.mustRecord(e)
	if rec.name == name {
		return
	}
	if name != "" {
		if other, ok := w.names[name]; ok {
			panic(fmt.Sprintf("name %q already used by entity %d", name, other))
		}
	}
	if rec.name != "" {
		if w.typeInfo.Has(e) {
			panic(fmt.Sprintf("cannot rename component type %q", rec.name))
		}
		delete(w.names, rec.name)
	}
	rec.name = name
	if name != "" {
		w.names[name] = e
	}
}

// Name returns the name of the entity, or "" when it is anonymous or dead.
func (w *World) Name(e Entity) string {
	rec := w.record(e)
	if rec == nil {
		return ""
	}
	return rec.name
}

// Lookup finds an entity by its exact name.
func (w *World) Lookup(name string) (Entity, bool) {
	e, ok := w.names[name]
	return e, ok
}

// TypeInfo returns the type description when e is a component type entity.
func (w *World) TypeInfo(e Entity) (*TypeInfo, bool) {
	return w.typeInfo.Get(e)
}

// DataType returns the type whose values are stored for id, or nil for tags.
// For pairs the relation's type wins when it carries data, otherwise the
// target's. A pair where both sides are data-bearing types is ambiguous and
// panics.
func (w *World) DataType(id Id) *TypeInfo {
	if !id.IsPair() {
		return w.dataTypeOf(id.Entity())
	}
	first := w.dataTypeOf(id.First())
	second := w.dataTypeOf(id.Second())
	if first != nil && second != nil {
		panic(fmt.Sprintf("ambiguous pair (%s, %s): both sides carry data", first.Name, second.Name))
	}
	if first != nil {
		return first
	}
	return second
}

func (w *World) dataTypeOf(e Entity) *TypeInfo {
	info, ok := w.typeInfo.Get(e)
	if !ok || info.IsTag() {
		return nil
	}
	return info
}

// Has checks if an entity carries the given id.
func (w *World) Has(e Entity, id Id) bool {
	rec := w.record(e)
	if rec == nil {
		return false
	}
	return rec.archetype.HasId(id)
}

// Each returns an iterator over every element attached to the entity, in
// ascending id order.
func (w *World) Each(e Entity) iter.Seq[Id] {
	rec := w.record(e)
	return func(yield func(Id) bool) {
		if rec == nil {
			return
		}
		for _, id := range rec.archetype.ids {
			if !yield(id) {
				return
			}
		}
	}
}

// Add attaches id to the entity. Data-bearing ids are initialized with the
// zero value of their type.
func (w *World) Add(e Entity, id Id) {
	rec := w.mustRecord(e)
	if rec.archetype.HasId(id) {
		return
	}
	w.checkAlive(id)

	var value any
	if info := w.DataType(id); info != nil {
		value = reflect.New(info.Type).Interface()
	}
	w.move(e, rec, rec.archetype.with(id), id, value)
}

// Remove detaches id from the entity.
func (w *World) Remove(e Entity, id Id) {
	rec := w.mustRecord(e)
	if !rec.archetype.HasId(id) {
		return
	}
	w.move(e, rec, rec.archetype.without(id), 0, nil)
}

// GetUntyped returns a pointer to the value stored for id on the entity, or
// nil when the entity does not carry id or id is a tag.
func (w *World) GetUntyped(e Entity, id Id) any {
	rec := w.record(e)
	if rec == nil {
		return nil
	}
	idx := rec.archetype.index(id)
	if idx == -1 || rec.archetype.columns[idx] == nil {
		return nil
	}
	return rec.archetype.columns[idx].Get(rec.row)
}

// SetUntyped stores value (a T or *T of the id's data type) for id on the
// entity, adding id first if needed.
func (w *World) SetUntyped(e Entity, id Id, value any) {
	rec := w.mustRecord(e)
	info := w.DataType(id)
	if info == nil {
		panic(fmt.Sprintf("id %s carries no data", id))
	}
	vt := reflect.TypeOf(value)
	if vt != info.Type && (vt == nil || vt.Kind() != reflect.Ptr || vt.Elem() != info.Type) {
		panic(fmt.Sprintf("cannot store %v as %s", vt, info.Name))
	}

	if idx := rec.archetype.index(id); idx != -1 {
		rec.archetype.columns[idx].Put(rec.row, value)
		return
	}
	w.checkAlive(id)
	w.move(e, rec, rec.archetype.with(id), id, value)
}

func (w *World) checkAlive(id Id) {
	if id.IsPair() {
		if !w.IsAlive(id.First()) || !w.IsAlive(id.Second()) {
			panic(fmt.Sprintf("pair %s references a dead entity", id))
		}
		return
	}
	if !w.IsAlive(id.Entity()) {
		panic(fmt.Sprintf("id %s is not alive", id))
	}
}

// move transfers the entity into the archetype for ids, copying the values it
// already has and storing value for the added id.
func (w *World) move(e Entity, rec *entityRecord, ids []Id, added Id, value any) {
	oldArchetype := rec.archetype
	newArchetype := w.archetype(ids)
	row := newArchetype.alloc(e)

	for idx, id := range newArchetype.ids {
		col := newArchetype.columns[idx]
		if col == nil {
			continue
		}
		if id == added {
			col.Put(row, value)
			continue
		}
		oldIdx := oldArchetype.index(id)
		col.Put(row, oldArchetype.columns[oldIdx].Get(rec.row))
	}

	oldArchetype.release(rec.row)
	rec.archetype = newArchetype
	rec.row = row
	w.changes++
}

// Spawn creates an entity holding the given component values, each stored
// under the type entity of its Go type.
func (w *World) Spawn(components ...any) Entity {
	e := w.NewEntity()
	for _, component := range components {
		w.SetComponent(e, component)
	}
	return e
}

// SetComponent stores a component value (T or *T) on the entity, keyed by
// its Go type. Zero-size values are added as tags.
func (w *World) SetComponent(e Entity, component any) {
	compType := reflect.TypeOf(component)
	if compType == nil {
		panic("cannot store a nil component")
	}
	if compType.Kind() == reflect.Ptr {
		compType = compType.Elem()
	}

	te, ok := w.types[compType]
	if !ok {
		panic("component type " + compType.String() + " not registered")
	}
	if compType.Size() == 0 {
		w.Add(e, te.Id())
		return
	}
	w.SetUntyped(e, te.Id(), component)
}
