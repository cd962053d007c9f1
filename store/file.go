package store

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
)

const fileExt = ".json"

// FileStore keeps one JSON file per snapshot in a directory.
type FileStore struct {
	dir string
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "create snapshot dir %s", dir)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+fileExt)
}

// Save writes the envelope to a temporary file and renames it into place, so
// a crash never leaves a truncated save behind.
func (s *FileStore) Save(_ context.Context, env Envelope) error {
	if err := ValidateName(env.Name); err != nil {
		return err
	}
	data, err := encodeEnvelope(env)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, env.Name+".*.tmp")
	if err != nil {
		return eris.Wrap(err, "create temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return eris.Wrapf(err, "write %s", tmp.Name())
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrapf(err, "close %s", tmp.Name())
	}
	if err := os.Rename(tmp.Name(), s.path(env.Name)); err != nil {
		return eris.Wrapf(err, "save %q", env.Name)
	}
	return nil
}

func (s *FileStore) Load(_ context.Context, name string) (Envelope, error) {
	if err := ValidateName(name); err != nil {
		return Envelope{}, err
	}
	data, err := os.ReadFile(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return Envelope{}, eris.Wrapf(ErrSnapshotNotFound, "%q", name)
	}
	if err != nil {
		return Envelope{}, eris.Wrapf(err, "read %q", name)
	}
	return decodeEnvelope(data)
}

func (s *FileStore) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, eris.Wrapf(err, "list %s", s.dir)
	}
	var names []string
	for _, entry := range entries {
		name, ok := strings.CutSuffix(entry.Name(), fileExt)
		if entry.IsDir() || !ok || ValidateName(name) != nil {
			continue
		}
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

func (s *FileStore) Delete(_ context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	err := os.Remove(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return eris.Wrapf(ErrSnapshotNotFound, "%q", name)
	}
	return eris.Wrapf(err, "delete %q", name)
}
