package persist

import (
	"bytes"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"

	"github.com/plus3/ooftn-persist/ecs"
)

// PairKind discriminates the three shapes a persisted relationship can take.
type PairKind string

const (
	// PairEntity is a plain link with no payload. The target is recorded by
	// id and, when it has one, by name.
	PairEntity PairKind = "entity"
	// PairTagComponent stores a value of the target type. Target holds the
	// type name.
	PairTagComponent PairKind = "tag_component"
	// PairComponentEntity stores a value of the relation type and links to
	// a plain target entity.
	PairComponentEntity PairKind = "component_entity"
)

// ComponentRecord is a persisted component value. Value is the text produced
// by the type's Persister and is opaque to the snapshot format.
type ComponentRecord struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// PairRecord is a persisted relationship.
type PairRecord struct {
	Relation string     `json:"relation"`
	Target   string     `json:"target,omitempty"`
	Kind     PairKind   `json:"kind"`
	Value    string     `json:"value,omitempty"`
	Entity   ecs.Entity `json:"entity,omitempty"`
}

// EntityRecord is everything a snapshot knows about one entity.
type EntityRecord struct {
	ID         ecs.Entity        `json:"id"`
	Name       string            `json:"name,omitempty"`
	Components []ComponentRecord `json:"components,omitempty"`
	Pairs      []PairRecord      `json:"pairs,omitempty"`
	Tags       []string          `json:"tags,omitempty"`
}

// Snapshot is the ordered list of entity records extracted from a world.
type Snapshot []EntityRecord

// Marshal encodes the snapshot as JSON text.
func Marshal(s Snapshot) ([]byte, error) {
	if s == nil {
		s = Snapshot{}
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, eris.Wrap(err, "encode snapshot")
	}
	return data, nil
}

// Unmarshal parses and validates snapshot text. Unknown fields, unknown pair
// kinds and records missing required fields are rejected.
func Unmarshal(data []byte) (Snapshot, error) {
	var s Snapshot
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return nil, eris.Wrapf(ErrMalformedSnapshot, "parse: %v", err)
	}
	if dec.More() {
		return nil, eris.Wrap(ErrMalformedSnapshot, "trailing data after snapshot")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the structural rules of every record.
func (s Snapshot) Validate() error {
	seen := make(map[ecs.Entity]struct{}, len(s))
	names := make(map[string]ecs.Entity, len(s))
	for i := range s {
		rec := &s[i]
		if err := rec.validate(); err != nil {
			return eris.Wrapf(err, "record %d", i)
		}
		if _, dup := seen[rec.ID]; dup {
			return eris.Wrapf(ErrMalformedSnapshot, "record %d: duplicate id %d", i, rec.ID)
		}
		seen[rec.ID] = struct{}{}
		if rec.Name == "" {
			continue
		}
		if other, dup := names[rec.Name]; dup {
			return eris.Wrapf(ErrMalformedSnapshot, "record %d: name %q already used by id %d", i, rec.Name, other)
		}
		names[rec.Name] = rec.ID
	}
	return nil
}

func (r *EntityRecord) validate() error {
	if r.ID == 0 || r.ID > ecs.MaxEntity {
		return eris.Wrapf(ErrMalformedSnapshot, "id %d out of range", r.ID)
	}
	for _, c := range r.Components {
		if c.Name == "" || c.Value == "" {
			return eris.Wrapf(ErrMalformedSnapshot, "entity %d: component needs name and value", r.ID)
		}
	}
	for _, tag := range r.Tags {
		if tag == "" {
			return eris.Wrapf(ErrMalformedSnapshot, "entity %d: empty tag name", r.ID)
		}
	}
	for _, p := range r.Pairs {
		if err := p.validate(); err != nil {
			return eris.Wrapf(err, "entity %d", r.ID)
		}
	}
	return nil
}

func (p *PairRecord) validate() error {
	if p.Relation == "" {
		return eris.Wrap(ErrMalformedSnapshot, "pair without relation")
	}
	if p.Entity > ecs.MaxEntity {
		return eris.Wrapf(ErrMalformedSnapshot, "pair %s: target id %d out of range", p.Relation, p.Entity)
	}
	switch p.Kind {
	case PairEntity:
		if p.Entity == 0 || p.Value != "" {
			return eris.Wrapf(ErrMalformedSnapshot, "pair %s: entity link needs a target id and no value", p.Relation)
		}
	case PairTagComponent:
		if p.Target == "" || p.Value == "" || p.Entity != 0 {
			return eris.Wrapf(ErrMalformedSnapshot, "pair %s: tag_component needs a target type and a value", p.Relation)
		}
	case PairComponentEntity:
		if p.Entity == 0 || p.Value == "" {
			return eris.Wrapf(ErrMalformedSnapshot, "pair %s: component_entity needs a target id and a value", p.Relation)
		}
	default:
		return eris.Wrapf(ErrMalformedSnapshot, "pair %s: unknown kind %q", p.Relation, p.Kind)
	}
	return nil
}

// Stats counts the elements held by a snapshot.
type Stats struct {
	Entities   int
	Components int
	Pairs      int
	Tags       int
}

// Stats returns the element counts of the snapshot.
func (s Snapshot) Stats() Stats {
	st := Stats{Entities: len(s)}
	for _, rec := range s {
		st.Components += len(rec.Components)
		st.Pairs += len(rec.Pairs)
		st.Tags += len(rec.Tags)
	}
	return st
}

// Find returns the record with the given name.
func (s Snapshot) Find(name string) (*EntityRecord, bool) {
	for i := range s {
		if s[i].Name == name {
			return &s[i], true
		}
	}
	return nil, false
}
