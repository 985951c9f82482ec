package params

import (
	"fmt"
	"strings"
)

// Source records where a resolved value came from. Failure messages must
// tell callers whether to fix their call or their stored session defaults.
type Source int

const (
	SourceExplicit Source = iota
	SourceDefault
)

func (s Source) String() string {
	if s == SourceDefault {
		return "session default"
	}
	return "explicit argument"
}

// ShapeError reports a field whose value does not match the schema, or a
// field the schema does not permit. It is terminal: no rules are evaluated
// after a shape failure.
type ShapeError struct {
	Field string
	Want  Kind
	Got   string
}

func (e *ShapeError) Error() string {
	if e.Got == "" {
		return fmt.Sprintf("parameter %q is not permitted for this tool", e.Field)
	}
	return fmt.Sprintf("parameter %q must be a %s, got %s", e.Field, e.Want, e.Got)
}

// MissingFieldError reports an all-of or one-of rule that could not be
// satisfied from either explicit arguments or session defaults.
type MissingFieldError struct {
	Fields []string
	Rule   RuleKind
}

func (e *MissingFieldError) Error() string {
	if e.Rule == OneOf {
		return fmt.Sprintf("one of %s is required", strings.Join(e.Fields, ", "))
	}
	return fmt.Sprintf("required parameter(s) missing: %s", strings.Join(e.Fields, ", "))
}

// ConflictError reports two mutually exclusive fields that are both
// present. Sources names where each conflicting value came from so the
// caller knows whether to drop an argument or clear a session default.
type ConflictError struct {
	Fields  []string
	Sources map[string]Source
}

func (e *ConflictError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s (%s)", f, e.Sources[f]))
	}
	return fmt.Sprintf("conflicting parameters: %s are mutually exclusive", strings.Join(parts, " and "))
}
