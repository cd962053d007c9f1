package store

import (
	"bytes"
	"maps"
	"slices"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/invopop/jsonschema"
	"github.com/rotisserie/eris"
	"github.com/wI2L/jsondiff"

	"github.com/plus3/ooftn-persist/ecs"
	"github.com/plus3/ooftn-persist/persist"
)

// Envelope is a snapshot together with the metadata needed to decide whether
// it can be restored into a given world.
type Envelope struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	TakenAt time.Time `json:"takenAt"`
	// Schemas holds the JSON schema of every data type the snapshot
	// carries values of, keyed by type name.
	Schemas  map[string]json.RawMessage `json:"schemas"`
	Entities persist.Snapshot           `json:"entities"`
}

// NewEnvelope wraps a snapshot extracted from w.
func NewEnvelope(w *ecs.World, name string, s persist.Snapshot) (Envelope, error) {
	if err := ValidateName(name); err != nil {
		return Envelope{}, err
	}
	schemas := make(map[string]json.RawMessage)
	for _, typeName := range dataTypeNames(s) {
		schema, err := schemaOf(w, typeName)
		if err != nil {
			return Envelope{}, err
		}
		schemas[typeName] = schema
	}
	return Envelope{
		ID:       uuid.New(),
		Name:     name,
		TakenAt:  time.Now().UTC(),
		Schemas:  schemas,
		Entities: s,
	}, nil
}

// Validate compares the recorded schemas with the types registered in w. It
// only detects differences, it never migrates values.
func (e Envelope) Validate(w *ecs.World) error {
	for _, typeName := range slices.Sorted(maps.Keys(e.Schemas)) {
		current, err := schemaOf(w, typeName)
		if err != nil {
			return err
		}
		patch, err := jsondiff.CompareJSON(e.Schemas[typeName], current)
		if err != nil {
			return eris.Wrapf(err, "compare schema of %q", typeName)
		}
		if len(patch) != 0 {
			return eris.Wrapf(ErrSchemaMismatch, "type %q: %s", typeName, patch.String())
		}
	}
	return nil
}

// Restore validates the envelope against w and restores its entities.
func (e Envelope) Restore(w *ecs.World, opts ...persist.Option) error {
	if err := e.Validate(w); err != nil {
		return err
	}
	return persist.Restore(w, e.Entities, opts...)
}

func encodeEnvelope(e Envelope) ([]byte, error) {
	if e.Entities == nil {
		e.Entities = persist.Snapshot{}
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, eris.Wrap(err, "encode envelope")
	}
	return data, nil
}

func decodeEnvelope(data []byte) (Envelope, error) {
	var e Envelope
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&e); err != nil {
		return Envelope{}, eris.Wrapf(persist.ErrMalformedSnapshot, "envelope: %v", err)
	}
	if err := e.Entities.Validate(); err != nil {
		return Envelope{}, eris.Wrapf(err, "envelope %q", e.Name)
	}
	return e, nil
}

func schemaOf(w *ecs.World, typeName string) (json.RawMessage, error) {
	te, ok := w.Lookup(typeName)
	if !ok {
		return nil, eris.Wrapf(persist.ErrUnknownType, "%q", typeName)
	}
	info, ok := w.TypeInfo(te)
	if !ok {
		return nil, eris.Wrapf(persist.ErrUnknownType, "%q is not a type", typeName)
	}
	schema := jsonschema.ReflectFromType(info.Type)
	if p, ok := persist.PersisterOf(w, te); ok {
		if variants := p.Variants(); len(variants) > 0 {
			// Enums are stored by variant name.
			schema = &jsonschema.Schema{
				Version: jsonschema.Version,
				Title:   info.Name,
				Type:    "string",
				Enum:    make([]any, len(variants)),
			}
			for i, v := range variants {
				schema.Enum[i] = v
			}
		}
	}
	data, err := schema.MarshalJSON()
	if err != nil {
		return nil, eris.Wrapf(err, "schema of %q", typeName)
	}
	return data, nil
}

// dataTypeNames lists the types whose encoded values appear in the snapshot.
func dataTypeNames(s persist.Snapshot) []string {
	names := make(map[string]struct{})
	for _, rec := range s {
		for _, c := range rec.Components {
			names[c.Name] = struct{}{}
		}
		for _, p := range rec.Pairs {
			switch p.Kind {
			case persist.PairTagComponent:
				names[p.Target] = struct{}{}
			case persist.PairComponentEntity:
				names[p.Relation] = struct{}{}
			}
		}
	}
	return slices.Sorted(maps.Keys(names))
}
