package persist

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"

	"github.com/plus3/ooftn-persist/ecs"
)

// Tag marks the zero-size type T as persistable. Tags are captured by name
// only and need no Persister.
func Tag[T any](w *ecs.World) (ecs.Entity, error) {
	marker := Import(w)
	te := ecs.Component[T](w)
	info, _ := w.TypeInfo(te)
	if !info.IsTag() {
		return 0, eris.Wrapf(ErrNotTag, "type %q has size %d", info.Name, info.Size)
	}
	w.Add(te, marker.Id())
	return te, nil
}

// Component makes T persistable with a JSON Persister. Zero-size types are
// registered as tags.
func Component[T any](w *ecs.World) (ecs.Entity, error) {
	te := ecs.Component[T](w)
	if info, _ := w.TypeInfo(te); info.IsTag() {
		return Tag[T](w)
	}
	return te, install(w, te, jsonPersister[T]())
}

// Enumerable is satisfied by integer enums that can name their variants.
type Enumerable interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
	fmt.Stringer
}

// Enum makes the enum type T persistable. Values are encoded as the name of
// their variant, so reordering the constants does not break old snapshots.
func Enum[T Enumerable](w *ecs.World, variants ...T) (ecs.Entity, error) {
	if len(variants) == 0 {
		return 0, eris.Wrapf(ErrNoVariants, "enum %s", reflect.TypeFor[T]())
	}
	te := ecs.Component[T](w)
	return te, install(w, te, enumPersister(variants))
}

// MustTag is like Tag but panics on error.
func MustTag[T any](w *ecs.World) ecs.Entity {
	return must(Tag[T](w))
}

// MustComponent is like Component but panics on error.
func MustComponent[T any](w *ecs.World) ecs.Entity {
	return must(Component[T](w))
}

// MustEnum is like Enum but panics on error.
func MustEnum[T Enumerable](w *ecs.World, variants ...T) ecs.Entity {
	return must(Enum(w, variants...))
}

func must(e ecs.Entity, err error) ecs.Entity {
	if err != nil {
		panic(err)
	}
	return e
}

// install attaches the Persister and the marker to a type entity. Installing
// a Persister of the same shape twice keeps the first one. Enum shapes
// include their variant names.
func install(w *ecs.World, te ecs.Entity, p Persister) error {
	marker := Import(w)
	if existing, ok := PersisterOf(w, te); ok {
		if existing.shape != p.shape {
			return eris.Wrapf(ErrPersisterConflict, "type %q: %s, not %s", w.Name(te), existing.shape, p.shape)
		}
		w.Add(te, marker.Id())
		return nil
	}
	ecs.Set(w, te, p)
	w.Add(te, marker.Id())
	return nil
}

func jsonPersister[T any]() Persister {
	t := reflect.TypeFor[T]()
	return Persister{
		Serialize: func(w *ecs.World, e ecs.Entity, id ecs.Id) (string, error) {
			ptr, ok := w.GetUntyped(e, id).(*T)
			if !ok {
				return "", eris.Wrapf(ErrMissingValue, "entity %d, id %s, type %s", e, id, t)
			}
			data, err := json.Marshal(ptr)
			if err != nil {
				return "", eris.Wrapf(err, "encode %s", t)
			}
			return string(data), nil
		},
		Decode: func(text string) (any, error) {
			var value T
			dec := json.NewDecoder(strings.NewReader(text))
			dec.DisallowUnknownFields()
			if err := dec.Decode(&value); err != nil {
				return nil, eris.Wrapf(ErrMalformedSnapshot, "decode %s from %q: %v", t, text, err)
			}
			if dec.More() {
				return nil, eris.Wrapf(ErrMalformedSnapshot, "decode %s from %q: trailing data", t, text)
			}
			return value, nil
		},
		shape: "json " + t.String(),
	}
}

func enumPersister[T Enumerable](variants []T) Persister {
	t := reflect.TypeFor[T]()
	byName := make(map[string]T, len(variants))
	for _, v := range variants {
		byName[v.String()] = v
	}
	names := slices.Sorted(maps.Keys(byName))
	return Persister{
		Serialize: func(w *ecs.World, e ecs.Entity, id ecs.Id) (string, error) {
			ptr, ok := w.GetUntyped(e, id).(*T)
			if !ok {
				return "", eris.Wrapf(ErrMissingValue, "entity %d, id %s, type %s", e, id, t)
			}
			name := (*ptr).String()
			if _, known := byName[name]; !known {
				return "", eris.Errorf("encode %s: value %d is not a registered variant", t, *ptr)
			}
			data, err := json.Marshal(name)
			if err != nil {
				return "", eris.Wrapf(err, "encode %s", t)
			}
			return string(data), nil
		},
		Decode: func(text string) (any, error) {
			var name string
			if err := json.Unmarshal([]byte(text), &name); err != nil {
				return nil, eris.Wrapf(ErrMalformedSnapshot, "decode %s from %q: %v", t, text, err)
			}
			value, ok := byName[name]
			if !ok {
				return nil, eris.Wrapf(ErrMalformedSnapshot, "decode %s: unknown variant %q", t, name)
			}
			return value, nil
		},
		shape:    "enum " + t.String() + " [" + strings.Join(names, " ") + "]",
		variants: names,
	}
}
