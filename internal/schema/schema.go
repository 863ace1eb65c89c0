// Package schema validates configuration documents against a declarative
// CUE schema. The schema describes the document's allowed shape: field
// types, nested structs, numeric bounds, string length bounds, and
// nullability, all of which CUE expresses natively.
//
// A schema should be an open struct: the store writes engine bookkeeping
// under the reserved "__internal__" key, which a closed schema would
// reject.
package schema

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

// Schema is a compiled document validator.
type Schema struct {
	ctx *cue.Context
	val cue.Value
}

// Violation records a single failed constraint: the dot path of the
// offending field and the reason it was rejected.
type Violation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationError aggregates every violation found in one document.
// The document that produced it was not persisted.
type ValidationError struct {
	Violations []Violation
}

// Error lists every violated path with its reason.
func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return "schema violation"
	}
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		if v.Path == "" {
			parts[i] = v.Message
			continue
		}
		parts[i] = fmt.Sprintf("%s: %s", v.Path, v.Message)
	}
	return "schema violation: " + strings.Join(parts, "; ")
}

// Compile parses CUE source into a Schema. When the source defines
// #Config, that definition is the schema; otherwise the file's top-level
// struct is. Standard-library imports (e.g. "strings" for
// strings.MaxRunes) are available.
func Compile(source string) (*Schema, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(source)
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	if def := v.LookupPath(cue.ParsePath("#Config")); def.Exists() {
		v = def
	}
	return &Schema{ctx: ctx, val: v}, nil
}

// MustCompile is Compile for statically known schemas; it panics on error.
func MustCompile(source string) *Schema {
	s, err := Compile(source)
	if err != nil {
		panic(err)
	}
	return s
}

// Validate checks doc against the schema and returns every violation
// found. A nil or empty result means the document conforms. Validation
// does not fail fast: the unified value is validated field by field so
// all failing paths are reported together, whatever subset the root
// validation stops at.
func (s *Schema) Validate(doc map[string]any) []Violation {
	docVal := s.ctx.Encode(doc)
	if err := docVal.Err(); err != nil {
		return violationsFromCUE(err)
	}

	var violations []Violation
	seen := make(map[string]bool)
	collect := func(err error) {
		for _, v := range violationsFromCUE(err) {
			key := v.Path + "\x00" + v.Message
			if seen[key] {
				continue
			}
			seen[key] = true
			violations = append(violations, v)
		}
	}

	collectViolations(s.val.Unify(docVal), collect)
	return violations
}

// collectViolations validates v and recurses into its fields. Duplicate
// reports from a parent and its child for the same path are folded by
// the caller's collect function.
func collectViolations(v cue.Value, collect func(error)) {
	if err := v.Validate(cue.Concrete(false)); err != nil {
		collect(err)
	}
	iter, err := v.Fields()
	if err != nil {
		return
	}
	for iter.Next() {
		collectViolations(iter.Value(), collect)
	}
}

// Check is Validate returning an error: nil on conformance, a
// *ValidationError otherwise.
func (s *Schema) Check(doc map[string]any) error {
	if violations := s.Validate(doc); len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

// violationsFromCUE flattens a CUE error list into Violations, one per
// failing path.
func violationsFromCUE(err error) []Violation {
	errs := cueerrors.Errors(err)
	violations := make([]Violation, 0, len(errs))
	for _, e := range errs {
		format, args := e.Msg()
		violations = append(violations, Violation{
			Path:    strings.Join(e.Path(), "."),
			Message: fmt.Sprintf(format, args...),
		})
	}
	return violations
}
