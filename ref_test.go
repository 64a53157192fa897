package smartflow

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeRef_JSON(t *testing.T) {
	cases := []struct {
		ref  NodeRef
		json string
	}{
		{Ref(7), `7`},
		{DefaultSource, `"default-source"`},
		{DefaultDestination, `"default-destination"`},
	}
	for _, tc := range cases {
		raw, err := json.Marshal(tc.ref)
		require.NoError(t, err)
		assert.JSONEq(t, tc.json, string(raw))

		var back NodeRef
		require.NoError(t, json.Unmarshal(raw, &back))
		assert.Equal(t, tc.ref, back)
	}
}

func TestNodeRef_LenientDecode(t *testing.T) {
	for _, in := range []string{`"elsewhere"`, `0`, `-3`, `2.5`, `null`, `{}`, `[1]`, `true`} {
		var r NodeRef
		require.NoError(t, json.Unmarshal([]byte(in), &r), in)
		assert.False(t, r.IsValid(), in)
	}
}

func TestRef(t *testing.T) {
	assert.False(t, Ref(0).IsValid())
	id, ok := Ref(4).NodeID()
	assert.True(t, ok)
	assert.Equal(t, NodeID(4), id)

	_, ok = DefaultSource.NodeID()
	assert.False(t, ok)
	assert.True(t, DefaultSource.IsDefaultSource())
	assert.True(t, DefaultDestination.IsDefaultDestination())
	assert.NotEqual(t, DefaultSource, DefaultDestination)
	assert.True(t, Ref(3).Equal(Ref(3)))
	assert.False(t, Ref(3).Equal(DefaultDestination))
}

func TestParseRef(t *testing.T) {
	for _, r := range []NodeRef{Ref(12), DefaultSource, DefaultDestination} {
		got, err := ParseRef(r.String())
		require.NoError(t, err)
		assert.Equal(t, r, got)
	}
	_, err := ParseRef("zero")
	assert.ErrorIs(t, err, ErrInvalidRef)
	_, err = ParseRef("0")
	assert.ErrorIs(t, err, ErrInvalidRef)
}
