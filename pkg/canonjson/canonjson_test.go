package canonjson

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMarshalIsDeterministic(t *testing.T) {
	type payload struct {
		B string         `json:"b"`
		A map[string]any `json:"a"`
	}
	p := payload{B: "x", A: map[string]any{"z": 1, "a": 2}}

	out1, err := Marshal(p)
	require.NoError(t, err)
	out2, err := Marshal(p)
	require.NoError(t, err)
	require.Equal(t, out1, out2)
	require.Contains(t, string(out1), `"a":{"a":2,"z":1}`)
}

func TestMarshalNoTrailingNewline(t *testing.T) {
	out, err := Marshal(map[string]int{"x": 1})
	require.NoError(t, err)
	require.NotEqual(t, byte('\n'), out[len(out)-1])
}
