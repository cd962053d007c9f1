package store_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/ooftn-persist/ecs"
	"github.com/plus3/ooftn-persist/persist"
	"github.com/plus3/ooftn-persist/store"
)

type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type Crew struct {
	Count int `json:"count"`
}

type Docked struct{}

var schema = persist.ModuleFunc(func(w *ecs.World) error {
	persist.MustComponent[Position](w)
	persist.MustComponent[Crew](w)
	persist.MustTag[Docked](w)
	return nil
})

func newWorld(t *testing.T) *ecs.World {
	t.Helper()
	w, err := persist.NewWorld(schema)
	require.NoError(t, err)
	ship := w.NewNamed("ship")
	ecs.Set(w, ship, Position{X: 1, Y: 2})
	ecs.AddTag[Docked](w, ship)
	station := w.NewNamed("station")
	ecs.SetFirst(w, ship, station, Crew{Count: 3})
	return w
}

func newRedisStore(t *testing.T) *store.RedisStore {
	s := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{
		Addr:     s.Addr(),
		Password: "", // no password set
		DB:       0,  // use default DB
	})
	return store.NewRedisStore(rdb, "test")
}

func backends(t *testing.T) map[string]store.Store {
	files, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	return map[string]store.Store{
		"file":  files,
		"redis": newRedisStore(t),
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			saved, err := store.SaveWorld(ctx, s, newWorld(t), "slot-1")
			require.NoError(t, err)

			loaded, err := s.Load(ctx, "slot-1")
			require.NoError(t, err)
			assert.Equal(t, saved.ID, loaded.ID)
			assert.Equal(t, saved.Name, loaded.Name)
			assert.True(t, saved.TakenAt.Equal(loaded.TakenAt))
			assert.Equal(t, saved.Entities, loaded.Entities)
			assert.Len(t, loaded.Schemas, 2)

			w, err := store.LoadWorld(ctx, s, persist.WorldFactory(schema), "slot-1")
			require.NoError(t, err)
			ship, ok := w.Lookup("ship")
			require.True(t, ok)
			station, ok := w.Lookup("station")
			require.True(t, ok)
			assert.Equal(t, &Position{X: 1, Y: 2}, ecs.Get[Position](w, ship))
			assert.True(t, ecs.Has[Docked](w, ship))
			assert.Equal(t, &Crew{Count: 3}, ecs.GetFirst[Crew](w, ship, station))
		})
	}
}

func TestStoreListAndDelete(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			w := newWorld(t)
			for _, slot := range []string{"b", "a", "c"} {
				_, err := store.SaveWorld(ctx, s, w, slot)
				require.NoError(t, err)
			}
			// Saving twice overwrites.
			_, err := store.SaveWorld(ctx, s, w, "a")
			require.NoError(t, err)

			names, err := s.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b", "c"}, names)

			require.NoError(t, s.Delete(ctx, "b"))
			names, err = s.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "c"}, names)

			assert.ErrorIs(t, s.Delete(ctx, "b"), store.ErrSnapshotNotFound)
			_, err = s.Load(ctx, "b")
			assert.ErrorIs(t, err, store.ErrSnapshotNotFound)
		})
	}
}

func TestStoreRejectsInvalidNames(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for _, bad := range []string{"", "../escape", "a/b", ".hidden", "with space"} {
				_, err := s.Load(ctx, bad)
				assert.ErrorIs(t, err, store.ErrInvalidName, bad)
				assert.ErrorIs(t, s.Save(ctx, store.Envelope{Name: bad}), store.ErrInvalidName, bad)
			}
		})
	}
}

func TestEnvelopeValidateDetectsSchemaChanges(t *testing.T) {
	w := newWorld(t)
	snapshot, err := persist.Extract(w)
	require.NoError(t, err)
	env, err := store.NewEnvelope(w, "slot", snapshot)
	require.NoError(t, err)
	assert.Contains(t, env.Schemas, "Position")
	assert.Contains(t, env.Schemas, "Crew")
	assert.NotContains(t, env.Schemas, "Docked")

	require.NoError(t, env.Validate(newWorld(t)))

	type PositionV2 struct {
		X int `json:"x"`
		Y int `json:"y"`
		Z int `json:"z"`
	}
	changed, err := persist.NewWorld(persist.ModuleFunc(func(w *ecs.World) error {
		ecs.ComponentNamed[PositionV2](w, "Position")
		persist.MustComponent[PositionV2](w)
		persist.MustComponent[Crew](w)
		persist.MustTag[Docked](w)
		return nil
	}))
	require.NoError(t, err)
	err = env.Validate(changed)
	require.ErrorIs(t, err, store.ErrSchemaMismatch)
	assert.ErrorIs(t, env.Restore(changed), store.ErrSchemaMismatch)

	_, found := changed.Lookup("ship")
	assert.False(t, found)
}

func TestEnvelopeValidateUnknownType(t *testing.T) {
	w := newWorld(t)
	snapshot, err := persist.Extract(w)
	require.NoError(t, err)
	env, err := store.NewEnvelope(w, "slot", snapshot)
	require.NoError(t, err)

	empty, err := persist.NewWorld()
	require.NoError(t, err)
	assert.ErrorIs(t, env.Validate(empty), persist.ErrUnknownType)
}

func TestRedisStoreIndexNameIsAValidSave(t *testing.T) {
	ctx := context.Background()
	s := newRedisStore(t)
	w := newWorld(t)

	for _, slot := range []string{"slot1", "saves"} {
		_, err := store.SaveWorld(ctx, s, w, slot)
		require.NoError(t, err)
	}

	names, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"saves", "slot1"}, names)

	loaded, err := s.Load(ctx, "saves")
	require.NoError(t, err)
	assert.Equal(t, "saves", loaded.Name)

	require.NoError(t, s.Delete(ctx, "saves"))
	names, err = s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"slot1"}, names)
}

type Rank int

const (
	Cadet Rank = iota
	Captain
	Admiral
)

func (r Rank) String() string {
	switch r {
	case Cadet:
		return "Cadet"
	case Captain:
		return "Captain"
	case Admiral:
		return "Admiral"
	}
	return "Rank(?)"
}

func TestEnvelopeDescribesEnumsByVariantName(t *testing.T) {
	ranks := func(variants ...Rank) persist.Factory {
		return persist.WorldFactory(persist.ModuleFunc(func(w *ecs.World) error {
			_, err := persist.Enum(w, variants...)
			return err
		}))
	}
	w, err := ranks(Cadet, Captain, Admiral)()
	require.NoError(t, err)
	ecs.Set(w, w.NewNamed("kirk"), Captain)

	snapshot, err := persist.Extract(w)
	require.NoError(t, err)
	env, err := store.NewEnvelope(w, "bridge", snapshot)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"title": "Rank",
		"type": "string",
		"enum": ["Admiral", "Cadet", "Captain"]
	}`, string(env.Schemas["Rank"]))
	require.NoError(t, env.Validate(w))

	fewer, err := ranks(Cadet, Captain)()
	require.NoError(t, err)
	assert.ErrorIs(t, env.Validate(fewer), store.ErrSchemaMismatch)
}
