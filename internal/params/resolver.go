package params

import "fmt"

// Resolved is a validated parameter set. All required rules held at
// resolution time and no exclusive pair is simultaneously present.
type Resolved struct {
	values  map[string]any
	sources map[string]Source
}

// Has reports whether the field resolved to a value from either source.
func (r *Resolved) Has(name string) bool {
	_, ok := r.values[name]
	return ok
}

// Source reports where a resolved field came from.
func (r *Resolved) Source(name string) (Source, bool) {
	s, ok := r.sources[name]
	return s, ok
}

// Values returns the resolved mapping.
func (r *Resolved) Values() map[string]any {
	return r.values
}

// GetString returns the field as a string, or fallback when absent.
func (r *Resolved) GetString(name, fallback string) string {
	if v, ok := r.values[name].(string); ok {
		return v
	}
	return fallback
}

// GetFloat returns the field as a number, or fallback when absent. Every
// shape checkShape admits as Number is convertible here.
func (r *Resolved) GetFloat(name string, fallback float64) float64 {
	switch v := r.values[name].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return fallback
}

// GetBool returns the field as a bool, or fallback when absent.
func (r *Resolved) GetBool(name string, fallback bool) bool {
	if v, ok := r.values[name].(bool); ok {
		return v
	}
	return fallback
}

// Resolve merges explicit arguments over session defaults, shape-checks the
// merged mapping against the schema, then evaluates the rule set in
// declared order, stopping at the first failure.
//
// Defaults are consulted only for fields the schema declares, so stored
// defaults for unrelated tools never leak into a resolution. Values that
// still need a cross-system lookup (a simulator name awaiting a UUID) are
// left as-is; that is the destination resolver's job.
func Resolve(schema Schema, args map[string]any, defaults map[string]any, rules RuleSet) (*Resolved, error) {
	merged := make(map[string]any, len(args))
	sources := make(map[string]Source, len(args))

	for name, v := range args {
		if _, ok := schema.field(name); !ok {
			return nil, &ShapeError{Field: name}
		}
		// An explicit "" is absent here too; it must not shadow a stored
		// default that would otherwise substitute.
		if s, isStr := v.(string); isStr && s == "" {
			continue
		}
		merged[name] = v
		sources[name] = SourceExplicit
	}
	for _, f := range schema.Fields {
		if _, ok := merged[f.Name]; ok {
			continue
		}
		if v, ok := defaults[f.Name]; ok {
			merged[f.Name] = v
			sources[f.Name] = SourceDefault
		}
	}

	for _, f := range schema.Fields {
		v, ok := merged[f.Name]
		if !ok {
			continue
		}
		if err := checkShape(f, v); err != nil {
			return nil, err
		}
	}

	for _, rule := range rules {
		if err := checkRule(rule, merged, sources); err != nil {
			return nil, err
		}
	}

	return &Resolved{values: merged, sources: sources}, nil
}

func checkShape(f Field, v any) error {
	switch f.Kind {
	case String:
		if _, ok := v.(string); !ok {
			return &ShapeError{Field: f.Name, Want: f.Kind, Got: typeName(v)}
		}
	case Number:
		switch v.(type) {
		case float64, int, int64:
		default:
			return &ShapeError{Field: f.Name, Want: f.Kind, Got: typeName(v)}
		}
	case Bool:
		if _, ok := v.(bool); !ok {
			return &ShapeError{Field: f.Name, Want: f.Kind, Got: typeName(v)}
		}
	}
	return nil
}

func checkRule(rule Rule, merged map[string]any, sources map[string]Source) error {
	switch rule.Kind {
	case AllOf:
		var missing []string
		for _, name := range rule.Fields {
			if !present(merged, name) {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			return &MissingFieldError{Fields: missing, Rule: AllOf}
		}
	case OneOf:
		for _, name := range rule.Fields {
			if present(merged, name) {
				return nil
			}
		}
		return &MissingFieldError{Fields: rule.Fields, Rule: OneOf}
	case Exclusive:
		var found []string
		for _, name := range rule.Fields {
			if present(merged, name) {
				found = append(found, name)
			}
		}
		if len(found) > 1 {
			srcs := make(map[string]Source, len(found))
			for _, name := range found {
				srcs[name] = sources[name]
			}
			return &ConflictError{Fields: found, Sources: srcs}
		}
	}
	return nil
}

// present treats an empty string the same as an absent field: MCP clients
// routinely send "" for parameters they did not fill in.
func present(merged map[string]any, name string) bool {
	v, ok := merged[name]
	if !ok {
		return false
	}
	if s, isStr := v.(string); isStr && s == "" {
		return false
	}
	return true
}

func typeName(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case float64, int, int64:
		return "number"
	case bool:
		return "boolean"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", v)
	}
}
