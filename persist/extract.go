package persist

import (
	"slices"
	"time"

	"github.com/kamstrup/intmap"
	"github.com/rotisserie/eris"

	"github.com/plus3/ooftn-persist/ecs"
)

// Extract captures every entity holding a persistable element, directly or
// through either side of a pair. Records are ordered by entity id.
func Extract(w *ecs.World, opts ...Option) (Snapshot, error) {
	o := newOptions(opts)
	start := time.Now()

	marker, ok := ecs.ComponentOf[Persist](w)
	if !ok {
		o.logger.Info().Int("entities", 0).Msg("snapshot extracted")
		return Snapshot{}, nil
	}
	filter := ecs.NewFilter(w, marker.Id(), ecs.MatchAny)

	// An entity matches once per persistable element it holds.
	seen := intmap.NewSet[ecs.Entity](64)
	var entities []ecs.Entity
	for e := range filter.Iter() {
		if seen.Has(e) {
			continue
		}
		seen.Add(e)
		entities = append(entities, e)
	}
	slices.Sort(entities)

	ex := extractor{world: w, marker: marker.Id()}
	snapshot := make(Snapshot, 0, len(entities))
	for _, e := range entities {
		rec, err := ex.entity(e)
		if err != nil {
			return nil, err
		}
		o.logger.Debug().
			Uint64("entity", uint64(e)).
			Str("name", rec.Name).
			Int("components", len(rec.Components)).
			Int("pairs", len(rec.Pairs)).
			Int("tags", len(rec.Tags)).
			Msg("extracted entity")
		snapshot = append(snapshot, rec)
	}

	st := snapshot.Stats()
	o.logger.Info().
		Int("entities", st.Entities).
		Int("components", st.Components).
		Int("pairs", st.Pairs).
		Int("tags", st.Tags).
		Dur("duration", time.Since(start)).
		Msg("snapshot extracted")
	return snapshot, nil
}

type extractor struct {
	world  *ecs.World
	marker ecs.Id
}

func (x *extractor) persistable(e ecs.Entity) bool {
	return x.world.Has(e, x.marker)
}

// dataType returns the type entity info when e is a data-bearing type.
func (x *extractor) dataType(e ecs.Entity) (*ecs.TypeInfo, bool) {
	info, ok := x.world.TypeInfo(e)
	if !ok || info.IsTag() {
		return nil, false
	}
	return info, true
}

func (x *extractor) name(e ecs.Entity) (string, error) {
	name := x.world.Name(e)
	if name == "" {
		return "", eris.Wrapf(ErrAnonymousElement, "entity %d", e)
	}
	return name, nil
}

func (x *extractor) serialize(typeEntity, e ecs.Entity, id ecs.Id) (string, error) {
	p, err := mustPersister(x.world, typeEntity)
	if err != nil {
		return "", err
	}
	return p.Serialize(x.world, e, id)
}

func (x *extractor) entity(e ecs.Entity) (EntityRecord, error) {
	rec := EntityRecord{ID: e, Name: x.world.Name(e)}
	for id := range x.world.Each(e) {
		var err error
		if id.IsPair() {
			err = x.pair(&rec, e, id)
		} else {
			err = x.plain(&rec, e, id)
		}
		if err != nil {
			return EntityRecord{}, eris.Wrapf(err, "extract entity %d", e)
		}
	}
	return rec, nil
}

func (x *extractor) plain(rec *EntityRecord, e ecs.Entity, id ecs.Id) error {
	te := id.Entity()
	if !x.persistable(te) {
		return nil
	}
	name, err := x.name(te)
	if err != nil {
		return err
	}
	if _, ok := x.dataType(te); !ok {
		rec.Tags = append(rec.Tags, name)
		return nil
	}
	value, err := x.serialize(te, e, id)
	if err != nil {
		return err
	}
	rec.Components = append(rec.Components, ComponentRecord{Name: name, Value: value})
	return nil
}

func (x *extractor) pair(rec *EntityRecord, e ecs.Entity, id ecs.Id) error {
	relation, target := id.First(), id.Second()
	if !x.persistable(relation) && !x.persistable(target) {
		return nil
	}
	relName, err := x.name(relation)
	if err != nil {
		return err
	}

	if _, ok := x.dataType(relation); ok {
		if !x.persistable(relation) {
			return nil
		}
		value, err := x.serialize(relation, e, id)
		if err != nil {
			return err
		}
		rec.Pairs = append(rec.Pairs, PairRecord{
			Relation: relName,
			Target:   x.world.Name(target),
			Kind:     PairComponentEntity,
			Value:    value,
			Entity:   target,
		})
		return nil
	}

	if _, ok := x.dataType(target); ok {
		if !x.persistable(target) {
			return nil
		}
		value, err := x.serialize(target, e, id)
		if err != nil {
			return err
		}
		rec.Pairs = append(rec.Pairs, PairRecord{
			Relation: relName,
			Target:   x.world.Name(target),
			Kind:     PairTagComponent,
			Value:    value,
		})
		return nil
	}

	rec.Pairs = append(rec.Pairs, PairRecord{
		Relation: relName,
		Target:   x.world.Name(target),
		Kind:     PairEntity,
		Entity:   target,
	})
	return nil
}
