// Package store keeps named world snapshots in a backend, wrapped in an
// Envelope that records the schema of every persisted type.
package store

import (
	"context"
	"regexp"

	"github.com/rotisserie/eris"

	"github.com/plus3/ooftn-persist/ecs"
	"github.com/plus3/ooftn-persist/persist"
)

var (
	ErrSnapshotNotFound = eris.New("snapshot not found")
	ErrSchemaMismatch   = eris.New("schema mismatch")
	ErrInvalidName      = eris.New("invalid snapshot name")
)

// Store saves and loads envelopes by name.
type Store interface {
	Save(ctx context.Context, env Envelope) error
	Load(ctx context.Context, name string) (Envelope, error)
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, name string) error
}

var validName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// ValidateName checks that a snapshot name is usable as a file name and as a
// redis key segment.
func ValidateName(name string) error {
	if len(name) > 128 || !validName.MatchString(name) {
		return eris.Wrapf(ErrInvalidName, "%q", name)
	}
	return nil
}

// SaveWorld extracts w and saves it under name.
func SaveWorld(ctx context.Context, s Store, w *ecs.World, name string, opts ...persist.Option) (Envelope, error) {
	snapshot, err := persist.Extract(w, opts...)
	if err != nil {
		return Envelope{}, err
	}
	env, err := NewEnvelope(w, name, snapshot)
	if err != nil {
		return Envelope{}, err
	}
	if err := s.Save(ctx, env); err != nil {
		return Envelope{}, err
	}
	return env, nil
}

// LoadWorld loads the named snapshot into a new world built by factory.
func LoadWorld(ctx context.Context, s Store, factory persist.Factory, name string, opts ...persist.Option) (*ecs.World, error) {
	env, err := s.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	w, err := factory()
	if err != nil {
		return nil, eris.Wrap(err, "build world")
	}
	if err := env.Restore(w, opts...); err != nil {
		return nil, err
	}
	return w, nil
}
