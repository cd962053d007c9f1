package persist_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/plus3/ooftn-persist/ecs"
	"github.com/plus3/ooftn-persist/persist"
)

type Opaque struct {
	Stuff int `json:"stuff"`
}

type Transparent struct {
	Stuff int `json:"stuff"`
}

type SomeTag struct{}

type SomeRel struct{}

type Unit struct {
	Name string `json:"name"`
}

type Health struct {
	Max     int `json:"max"`
	Current int `json:"current"`
}

type Amount struct {
	Amount int `json:"amount"`
}

type MessageLog struct {
	Lines []string `json:"lines"`
}

type Thing int

const (
	Stone Thing = iota
	Rock
	Boulder
	Pebble
)

func (t Thing) String() string {
	switch t {
	case Stone:
		return "Stone"
	case Rock:
		return "Rock"
	case Boulder:
		return "Boulder"
	case Pebble:
		return "Pebble"
	}
	return "Thing(?)"
}

var testModule = persist.ModuleFunc(func(w *ecs.World) error {
	ecs.Component[Opaque](w)
	persist.MustComponent[Transparent](w)
	persist.MustTag[SomeTag](w)
	persist.MustTag[SomeRel](w)
	persist.MustComponent[Health](w)
	persist.MustComponent[Unit](w)
	persist.MustComponent[Amount](w)
	persist.MustComponent[MessageLog](w)
	persist.MustEnum(w, Stone, Rock, Boulder, Pebble)
	return nil
})

func newTestWorld(t *testing.T) *ecs.World {
	t.Helper()
	w, err := persist.NewWorld(testModule)
	require.NoError(t, err)
	return w
}

// roundTrip extracts w, encodes and decodes the text, and restores it into a
// fresh test world.
func roundTrip(t *testing.T, w *ecs.World) (*ecs.World, []byte) {
	t.Helper()
	snapshot, err := persist.Extract(w)
	require.NoError(t, err)
	text, err := persist.Marshal(snapshot)
	require.NoError(t, err)

	restored, err := persist.Reload(persist.WorldFactory(testModule), text)
	require.NoError(t, err)
	return restored, text
}

func lookup(t *testing.T, w *ecs.World, name string) ecs.Entity {
	t.Helper()
	e, ok := w.Lookup(name)
	require.True(t, ok, "entity %q not found", name)
	return e
}

// pairTarget returns the target of the first pair on e with the given relation.
func pairTarget(t *testing.T, w *ecs.World, e ecs.Entity, relation ecs.Entity) ecs.Entity {
	t.Helper()
	for id := range w.Each(e) {
		if id.IsPair() && id.First() == relation {
			return id.Second()
		}
	}
	require.Failf(t, "pair not found", "entity %d has no pair with relation %d", e, relation)
	return 0
}
