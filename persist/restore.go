package persist

import (
	"time"

	"github.com/rotisserie/eris"

	"github.com/plus3/ooftn-persist/ecs"
)

// Restore rebuilds the entities of a snapshot in w.
//
// Every name is resolved and every payload decoded before w is modified, so
// an unknown type or a malformed value leaves the world untouched. Entities
// are then matched by name first. Anonymous entities, and named ones the
// world does not know yet, reuse their recorded id unless that id is taken
// by a component type or by an entity with another name, in which case they
// get a fresh id and references to them follow.
func Restore(w *ecs.World, s Snapshot, opts ...Option) error {
	o := newOptions(opts)
	start := time.Now()

	if err := s.Validate(); err != nil {
		return err
	}
	Import(w)

	p := planner{world: w, records: make(map[string]ecs.Entity, len(s))}
	for _, rec := range s {
		if rec.Name != "" {
			p.records[rec.Name] = rec.ID
		}
	}
	plans := make([]entityPlan, 0, len(s))
	for i := range s {
		plan, err := p.entity(&s[i])
		if err != nil {
			return eris.Wrapf(err, "restore entity %d", s[i].ID)
		}
		plans = append(plans, plan)
	}

	r := newResolver(w)
	for _, plan := range plans {
		e := plan.apply(r)
		o.logger.Debug().
			Uint64("entity", uint64(plan.record.ID)).
			Uint64("restored", uint64(e)).
			Str("name", plan.record.Name).
			Msg("restored entity")
	}

	st := s.Stats()
	o.logger.Info().
		Int("entities", st.Entities).
		Int("components", st.Components).
		Int("pairs", st.Pairs).
		Int("tags", st.Tags).
		Int("remapped", r.remapped).
		Dur("duration", time.Since(start)).
		Msg("snapshot restored")
	return nil
}

// ref is an entity reference that is either already known in the world or
// points at a record of the snapshot being restored.
type ref struct {
	entity ecs.Entity
	id     ecs.Entity
	name   string
}

func (f ref) resolve(r *resolver) ecs.Entity {
	if f.entity != 0 {
		return f.entity
	}
	return r.resolve(f.id, f.name)
}

type valuePlan struct {
	id    ecs.Id
	value any
}

type pairPlan struct {
	kind     PairKind
	relation ref
	target   ref
	value    any
}

type entityPlan struct {
	record     *EntityRecord
	tags       []ref
	components []valuePlan
	pairs      []pairPlan
}

func (p entityPlan) apply(r *resolver) ecs.Entity {
	w := r.world
	e := r.resolve(p.record.ID, p.record.Name)
	for _, tag := range p.tags {
		w.Add(e, tag.resolve(r).Id())
	}
	for _, c := range p.components {
		w.SetUntyped(e, c.id, c.value)
	}
	for _, pair := range p.pairs {
		id := ecs.Pair(pair.relation.resolve(r), pair.target.resolve(r))
		if pair.value == nil {
			w.Add(e, id)
			continue
		}
		w.SetUntyped(e, id, pair.value)
	}
	return e
}

type planner struct {
	world *ecs.World
	// records maps the names of snapshot records to their recorded ids.
	records map[string]ecs.Entity
}

func (p *planner) dataType(e ecs.Entity) (*ecs.TypeInfo, bool) {
	info, ok := p.world.TypeInfo(e)
	if !ok || info.IsTag() {
		return nil, false
	}
	return info, true
}

// named resolves a name that must exist in the world or in the snapshot.
func (p *planner) named(name string) (ref, error) {
	if e, ok := p.world.Lookup(name); ok {
		return ref{entity: e}, nil
	}
	if id, ok := p.records[name]; ok {
		return ref{id: id, name: name}, nil
	}
	return ref{}, eris.Wrapf(ErrUnknownType, "%q", name)
}

// dataTypeNamed resolves a name that must be a data-bearing type with a
// Persister.
func (p *planner) dataTypeNamed(name string) (ecs.Entity, *Persister, error) {
	e, ok := p.world.Lookup(name)
	if !ok {
		return 0, nil, eris.Wrapf(ErrUnknownType, "%q", name)
	}
	if _, ok := p.dataType(e); !ok {
		return 0, nil, eris.Wrapf(ErrUnknownType, "%q is not a data type", name)
	}
	persister, err := mustPersister(p.world, e)
	if err != nil {
		return 0, nil, err
	}
	return e, persister, nil
}

// notData fails when a name that must not carry data resolves to a data type.
func (p *planner) notData(f ref, what string) error {
	if f.entity == 0 {
		return nil
	}
	if info, ok := p.dataType(f.entity); ok {
		return eris.Wrapf(ErrMalformedSnapshot, "%s %q is a data type", what, info.Name)
	}
	return nil
}

func (p *planner) entity(rec *EntityRecord) (entityPlan, error) {
	plan := entityPlan{record: rec}

	for _, tag := range rec.Tags {
		f, err := p.named(tag)
		if err != nil {
			return plan, err
		}
		if err := p.notData(f, "tag"); err != nil {
			return plan, err
		}
		plan.tags = append(plan.tags, f)
	}

	for _, c := range rec.Components {
		te, persister, err := p.dataTypeNamed(c.Name)
		if err != nil {
			return plan, err
		}
		value, err := persister.Decode(c.Value)
		if err != nil {
			return plan, err
		}
		plan.components = append(plan.components, valuePlan{id: te.Id(), value: value})
	}

	for i := range rec.Pairs {
		pair, err := p.pair(&rec.Pairs[i])
		if err != nil {
			return plan, eris.Wrapf(err, "pair %s", rec.Pairs[i].Relation)
		}
		plan.pairs = append(plan.pairs, pair)
	}
	return plan, nil
}

func (p *planner) target(pr *PairRecord) (ref, error) {
	target := ref{id: pr.Entity, name: pr.Target}
	if pr.Target == "" {
		return target, nil
	}
	if e, ok := p.world.Lookup(pr.Target); ok {
		target.entity = e
		if err := p.notData(target, "target"); err != nil {
			return ref{}, err
		}
	}
	return target, nil
}

func (p *planner) pair(pr *PairRecord) (pairPlan, error) {
	plan := pairPlan{kind: pr.Kind}
	switch pr.Kind {
	case PairEntity:
		relation, err := p.named(pr.Relation)
		if err != nil {
			return plan, err
		}
		if err := p.notData(relation, "relation"); err != nil {
			return plan, err
		}
		target, err := p.target(pr)
		if err != nil {
			return plan, err
		}
		plan.relation, plan.target = relation, target

	case PairTagComponent:
		relation, err := p.named(pr.Relation)
		if err != nil {
			return plan, err
		}
		if err := p.notData(relation, "relation"); err != nil {
			return plan, err
		}
		te, persister, err := p.dataTypeNamed(pr.Target)
		if err != nil {
			return plan, err
		}
		value, err := persister.Decode(pr.Value)
		if err != nil {
			return plan, err
		}
		plan.relation, plan.target, plan.value = relation, ref{entity: te}, value

	case PairComponentEntity:
		te, persister, err := p.dataTypeNamed(pr.Relation)
		if err != nil {
			return plan, err
		}
		target, err := p.target(pr)
		if err != nil {
			return plan, err
		}
		value, err := persister.Decode(pr.Value)
		if err != nil {
			return plan, err
		}
		plan.relation, plan.target, plan.value = ref{entity: te}, target, value

	default:
		return plan, eris.Wrapf(ErrMalformedSnapshot, "unknown kind %q", pr.Kind)
	}
	return plan, nil
}

// resolver maps snapshot ids to world entities for the duration of one pass.
type resolver struct {
	world    *ecs.World
	remap    map[ecs.Entity]ecs.Entity
	claimed  map[ecs.Entity]struct{}
	remapped int
}

func newResolver(w *ecs.World) *resolver {
	return &resolver{
		world:   w,
		remap:   make(map[ecs.Entity]ecs.Entity),
		claimed: make(map[ecs.Entity]struct{}),
	}
}

func (r *resolver) resolve(id ecs.Entity, name string) ecs.Entity {
	w := r.world
	if e, ok := r.remap[id]; ok {
		if name != "" && w.Name(e) == "" {
			if _, taken := w.Lookup(name); !taken {
				w.SetName(e, name)
			}
		}
		return e
	}

	var e ecs.Entity
	if name != "" {
		e, _ = w.Lookup(name)
	}
	if e == 0 {
		if r.free(id) {
			e = w.MakeAlive(id)
		} else {
			e = w.NewEntity()
		}
		if name != "" {
			w.SetName(e, name)
		}
	}
	if e != id {
		r.remapped++
	}
	r.remap[id] = e
	r.claimed[e] = struct{}{}
	return e
}

// free reports whether the recorded id can be reused for an entity the
// world does not know by name.
func (r *resolver) free(id ecs.Entity) bool {
	if _, ok := r.claimed[id]; ok {
		return false
	}
	if !r.world.IsAlive(id) {
		return true
	}
	if _, isType := r.world.TypeInfo(id); isType {
		return false
	}
	return r.world.Name(id) == ""
}
