package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const windowSchema = `
import "strings"

foo?: string & strings.MaxRunes(10)
window?: {
	width?:  int & >=100 & <=4096
	height?: int & >=100 & <=4096
}
label?: string | null
`

func TestCompile_Invalid(t *testing.T) {
	_, err := Compile(`foo: string &`)
	require.Error(t, err)
}

func TestValidate_Conforming(t *testing.T) {
	s := MustCompile(windowSchema)

	violations := s.Validate(map[string]any{
		"foo":    "short",
		"window": map[string]any{"width": 1024, "height": 768},
		"label":  nil,
	})

	assert.Empty(t, violations)
}

func TestValidate_EmptyDocument(t *testing.T) {
	s := MustCompile(windowSchema)
	assert.Empty(t, s.Validate(map[string]any{}))
}

func TestValidate_OpenStructAcceptsUnknownKeys(t *testing.T) {
	s := MustCompile(windowSchema)
	violations := s.Validate(map[string]any{
		"unrelated":    "value",
		"__internal__": map[string]any{"migrationVersion": 2},
	})
	assert.Empty(t, violations)
}

func TestValidate_StringTooLong(t *testing.T) {
	s := MustCompile(windowSchema)

	violations := s.Validate(map[string]any{"foo": "elevenchars"})

	require.NotEmpty(t, violations)
	assert.Equal(t, "foo", violations[0].Path)
}

func TestValidate_WrongType(t *testing.T) {
	s := MustCompile(windowSchema)

	violations := s.Validate(map[string]any{"foo": 42})

	require.NotEmpty(t, violations)
	assert.Equal(t, "foo", violations[0].Path)
}

func TestValidate_NumericBound(t *testing.T) {
	s := MustCompile(windowSchema)

	violations := s.Validate(map[string]any{
		"window": map[string]any{"width": 10},
	})

	require.NotEmpty(t, violations)
	assert.Equal(t, "window.width", violations[0].Path)
}

func TestValidate_ReportsAllViolations(t *testing.T) {
	s := MustCompile(windowSchema)

	violations := s.Validate(map[string]any{
		"foo":    "far too many characters here",
		"window": map[string]any{"width": 10, "height": 99999},
	})

	counts := make(map[string]int)
	for _, v := range violations {
		counts[v.Path]++
	}
	// Every failing path is reported, and reported once: field-level
	// revalidation must not duplicate what the parent already found.
	assert.Equal(t, 1, counts["foo"], "violations for foo in %v", violations)
	assert.Equal(t, 1, counts["window.width"], "violations for window.width in %v", violations)
	assert.Equal(t, 1, counts["window.height"], "violations for window.height in %v", violations)
}

func TestCheck_AggregatesMessage(t *testing.T) {
	s := MustCompile(windowSchema)

	err := s.Check(map[string]any{"foo": 42})
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Error(), "schema violation")
	assert.Contains(t, verr.Error(), "foo")

	assert.NoError(t, s.Check(map[string]any{"foo": "ok"}))
}

func TestCompile_ConfigDefinition(t *testing.T) {
	s := MustCompile(`#Config: {foo?: string, ...}`)

	assert.Empty(t, s.Validate(map[string]any{"foo": "x"}))
	assert.NotEmpty(t, s.Validate(map[string]any{"foo": 1}))
}
