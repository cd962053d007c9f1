package persist_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/ooftn-persist/persist"
)

func TestUnmarshal(t *testing.T) {
	data := []byte(`[{"id":42,"name":"thing",
		"components":[{"name":"Transparent","value":"{\"stuff\":42}"}],
		"pairs":[{"relation":"SomeRel","target":"Transparent","kind":"tag_component","value":"{\"stuff\":52}"},
		         {"relation":"SomeRel","target":"Bob","kind":"entity","entity":7}],
		"tags":["SomeTag"]}]`)

	s, err := persist.Unmarshal(data)
	require.NoError(t, err)
	require.Len(t, s, 1)
	assert.Equal(t, persist.Stats{Entities: 1, Components: 1, Pairs: 2, Tags: 1}, s.Stats())

	rec, ok := s.Find("thing")
	require.True(t, ok)
	assert.Equal(t, persist.PairEntity, rec.Pairs[1].Kind)

	out, err := persist.Marshal(s)
	require.NoError(t, err)
	again, err := persist.Unmarshal(out)
	require.NoError(t, err)
	assert.Equal(t, s, again)
}

func TestMarshalEmptySnapshot(t *testing.T) {
	out, err := persist.Marshal(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(out))
}

func TestUnmarshalRejectsMalformedSnapshots(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `[{"id":`},
		{"not a list", `{"id":1}`},
		{"trailing data", `[] []`},
		{"unknown field", `[{"id":1,"colour":"red"}]`},
		{"zero id", `[{"id":0}]`},
		{"id too large", `[{"id":4294967296}]`},
		{"duplicate id", `[{"id":1},{"id":1}]`},
		{"duplicate name", `[{"id":40,"name":"dup"},{"id":41,"name":"dup"}]`},
		{"component without value", `[{"id":1,"components":[{"name":"A"}]}]`},
		{"empty tag", `[{"id":1,"tags":[""]}]`},
		{"unknown pair kind", `[{"id":1,"pairs":[{"relation":"R","kind":"weird","entity":2}]}]`},
		{"pair without relation", `[{"id":1,"pairs":[{"kind":"entity","entity":2}]}]`},
		{"entity pair without target", `[{"id":1,"pairs":[{"relation":"R","kind":"entity"}]}]`},
		{"entity pair with value", `[{"id":1,"pairs":[{"relation":"R","kind":"entity","entity":2,"value":"1"}]}]`},
		{"tag_component without type", `[{"id":1,"pairs":[{"relation":"R","kind":"tag_component","value":"{}"}]}]`},
		{"component_entity without value", `[{"id":1,"pairs":[{"relation":"R","kind":"component_entity","entity":2}]}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := persist.Unmarshal([]byte(tt.data))
			require.ErrorIs(t, err, persist.ErrMalformedSnapshot)
		})
	}
}
