package canonicaljson

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshal_SortsKeys(t *testing.T) {
	out, err := Marshal(map[string]any{"b": 1, "a": 2, "c": 3})
	require.NoError(t, err)
	assert.Equal(t, `{"a":2,"b":1,"c":3}`, string(out))
}

func TestMarshal_Deterministic(t *testing.T) {
	doc := map[string]any{
		"zebra":  []any{3, 1, 2},
		"apple":  map[string]any{"y": true, "x": nil},
		"number": 1.5,
	}

	first, err := Marshal(doc)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := Marshal(doc)
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
}

func TestMarshal_NoHTMLEscaping(t *testing.T) {
	out, err := Marshal(map[string]any{"html": "<a href=\"x\">&</a>"})
	require.NoError(t, err)
	assert.Equal(t, `{"html":"<a href=\"x\">&</a>"}`, string(out))
}

func TestMarshal_IntegralFloatsRenderAsIntegers(t *testing.T) {
	// json.Unmarshal yields float64 for every number; the encoder must
	// render 42.0 back as 42 so a decode/encode cycle is stable.
	out, err := Marshal(map[string]any{"n": 42.0, "f": 1.25})
	require.NoError(t, err)
	assert.Equal(t, `{"f":1.25,"n":42}`, string(out))
}

func TestMarshal_RejectsNaN(t *testing.T) {
	_, err := Marshal(map[string]any{"bad": math.NaN()})
	require.Error(t, err)
}

func TestMarshal_ArbitraryGoValue(t *testing.T) {
	type point struct {
		X int `json:"x"`
		Y int `json:"y"`
	}
	out, err := Marshal(map[string]any{"p": point{X: 1, Y: 2}})
	require.NoError(t, err)
	assert.Equal(t, `{"p":{"x":1,"y":2}}`, string(out))
}

func TestMarshalIndent_RoundTrip(t *testing.T) {
	doc := map[string]any{
		"name": "confstore",
		"window": map[string]any{
			"width":  1024.0,
			"height": 768.0,
		},
		"tags": []any{"a", "b"},
		"null": nil,
	}

	out, err := MarshalIndent(doc)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, doc, decoded)
}

func TestMarshalIndent_Golden(t *testing.T) {
	doc := map[string]any{
		"unicorn": "🦄",
		"nested": map[string]any{
			"dragon": "🐉",
			"count":  3,
			"empty":  map[string]any{},
		},
		"list":    []any{1, "two", nil, true},
		"enabled": false,
	}

	out, err := MarshalIndent(doc)
	require.NoError(t, err)

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "indent", out)
}
