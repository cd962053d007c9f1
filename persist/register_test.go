package persist_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/ooftn-persist/ecs"
	"github.com/plus3/ooftn-persist/persist"
)

func TestTagRequiresZeroSize(t *testing.T) {
	w := ecs.New()
	_, err := persist.Tag[Transparent](w)
	require.ErrorIs(t, err, persist.ErrNotTag)

	te, _ := ecs.ComponentOf[Transparent](w)
	assert.False(t, persist.IsPersistable(w, te))
}

func TestComponentRoutesZeroSizeToTag(t *testing.T) {
	w := ecs.New()
	te, err := persist.Component[SomeTag](w)
	require.NoError(t, err)

	assert.True(t, persist.IsPersistable(w, te))
	_, hasPersister := persist.PersisterOf(w, te)
	assert.False(t, hasPersister)
}

func TestRegistrationIsIdempotent(t *testing.T) {
	w := ecs.New()
	first, err := persist.Component[Transparent](w)
	require.NoError(t, err)
	second, err := persist.Component[Transparent](w)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	_, err = persist.Enum(w, Stone, Rock)
	require.NoError(t, err)
	_, err = persist.Enum(w, Rock, Stone)
	require.NoError(t, err)
}

func TestPersisterConflict(t *testing.T) {
	w := ecs.New()
	persist.MustComponent[Thing](w)

	_, err := persist.Enum(w, Stone, Rock, Boulder, Pebble)
	require.ErrorIs(t, err, persist.ErrPersisterConflict)
	assert.Panics(t, func() { persist.MustEnum(w, Stone) })
}

func TestEnumVariantsConflict(t *testing.T) {
	w := ecs.New()
	_, err := persist.Enum(w, Stone, Rock)
	require.NoError(t, err)

	_, err = persist.Enum(w, Stone, Rock, Boulder, Pebble)
	require.ErrorIs(t, err, persist.ErrPersisterConflict)

	// The first registration stays in place.
	te, _ := ecs.ComponentOf[Thing](w)
	p, ok := persist.PersisterOf(w, te)
	require.True(t, ok)
	_, err = p.Decode(`"Boulder"`)
	assert.ErrorIs(t, err, persist.ErrMalformedSnapshot)
}

func TestEnumNeedsVariants(t *testing.T) {
	_, err := persist.Enum[Thing](ecs.New())
	require.ErrorIs(t, err, persist.ErrNoVariants)
}

func TestPersisterServesPlainAndPairSlots(t *testing.T) {
	w := newTestWorld(t)
	te, _ := ecs.ComponentOf[Transparent](w)
	p, ok := persist.PersisterOf(w, te)
	require.True(t, ok)

	e := w.NewEntity()
	relation, _ := ecs.ComponentOf[SomeRel](w)
	pair := ecs.Pair(relation, te)

	require.NoError(t, p.Deserialize(w, e, te.Id(), `{"stuff":1}`))
	require.NoError(t, p.Deserialize(w, e, pair, `{"stuff":2}`))

	plain, err := p.Serialize(w, e, te.Id())
	require.NoError(t, err)
	assert.Equal(t, `{"stuff":1}`, plain)
	paired, err := p.Serialize(w, e, pair)
	require.NoError(t, err)
	assert.Equal(t, `{"stuff":2}`, paired)

	_, err = p.Serialize(w, w.NewEntity(), te.Id())
	assert.ErrorIs(t, err, persist.ErrMissingValue)
	assert.ErrorIs(t, p.Deserialize(w, e, te.Id(), `{"stuff":`), persist.ErrMalformedSnapshot)
	assert.Equal(t, 1, ecs.Get[Transparent](w, e).Stuff)
}

func TestAmbiguousPairIsRejected(t *testing.T) {
	w := newTestWorld(t)
	e := w.NewEntity()
	assert.Panics(t, func() {
		ecs.SetPair[Amount](w, e, Transparent{Stuff: 1})
	})
}

func TestAnonymousRelationFailsExtract(t *testing.T) {
	w := newTestWorld(t)
	likes := w.NewEntity()
	e := w.NewEntity()
	te, _ := ecs.ComponentOf[Transparent](w)
	w.SetUntyped(e, ecs.Pair(likes, te), Transparent{Stuff: 3})

	_, err := persist.Extract(w)
	require.ErrorIs(t, err, persist.ErrAnonymousElement)
}
