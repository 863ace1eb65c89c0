package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializer_MarshalFieldEncodesDocuments(t *testing.T) {
	for name, ser := range map[string]Serializer{
		"json":  JSONSerializer(),
		"jsonc": JSONCSerializer(),
	} {
		t.Run(name, func(t *testing.T) {
			data, err := ser.Marshal(map[string]any{"foo": "bar"})
			require.NoError(t, err)
			assert.Equal(t, "{\n\t\"foo\": \"bar\"\n}\n", string(data))

			doc, err := ser.Unmarshal(data)
			require.NoError(t, err)
			assert.Equal(t, map[string]any{"foo": "bar"}, doc)
		})
	}
}

func TestJSONSerializer_TabIndentedOutput(t *testing.T) {
	s := openTemp(t, Options{})
	require.NoError(t, s.Set("foo", "bar"))

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, "{\n\t\"foo\": \"bar\"\n}\n", string(data))
}

func TestJSONSerializer_IntegersSurviveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	first := openTemp(t, Options{Dir: dir})
	require.NoError(t, first.Set("count", int64(42)))

	second := openTemp(t, Options{Dir: dir})
	// json.Number decoding keeps integers integral, so schema int
	// constraints hold across restarts.
	assert.Equal(t, int64(42), second.Get("count"))
}

func TestJSONCSerializer_ToleratesHandEdits(t *testing.T) {
	dir := t.TempDir()
	content := `{
	// hand-written comment
	"theme": "dark", /* block comment */
	"count": 3,
}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(content), 0o666))

	ser := JSONCSerializer()
	s := openTemp(t, Options{Dir: dir, Serializer: &ser})

	assert.Equal(t, "dark", s.Get("theme"))
	assert.Equal(t, int64(3), s.Get("count"))
}

func TestYAMLSerializer_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	ser := YAMLSerializer()

	first := openTemp(t, Options{Dir: dir, Name: "settings", Ext: ".yaml", Serializer: &ser})
	require.NoError(t, first.SetAll(map[string]any{
		"name":   "confstore",
		"count":  int64(3),
		"nested": map[string]any{"ratio": 1.5},
	}))

	data, err := os.ReadFile(first.Path())
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "name: confstore"))

	second := openTemp(t, Options{Dir: dir, Name: "settings", Ext: ".yaml", Serializer: &ser})
	assert.Equal(t, "confstore", second.Get("name"))
	assert.Equal(t, int64(3), second.Get("count"))
	assert.Equal(t, 1.5, second.Get("nested.ratio"))
}

func TestSerializer_EmptyFileYieldsError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(""), 0o666))

	_, err := Open(Options{Dir: dir})
	require.Error(t, err)
}
