// Package params resolves tool arguments against session defaults and a
// per-tool declarative schema. Every tool declares its permitted fields and
// a rule set once; one resolver interprets all of them.
package params

// Kind is the expected shape of a field value.
type Kind int

const (
	String Kind = iota
	Number
	Bool
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Number:
		return "number"
	case Bool:
		return "boolean"
	default:
		return "unknown"
	}
}

// Field is one permitted parameter in a tool's schema.
type Field struct {
	Name string
	Kind Kind
}

// Schema is the set of permitted fields for one tool. Optionality is not
// expressed here; required and exclusive relationships live in the RuleSet.
type Schema struct {
	Fields []Field
}

func NewSchema(fields ...Field) Schema {
	return Schema{Fields: fields}
}

func (s Schema) field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// RuleKind distinguishes the three cross-field requirement rules.
type RuleKind int

const (
	// AllOf fails when any named field is absent.
	AllOf RuleKind = iota
	// OneOf fails when none of the named fields are present.
	OneOf
	// Exclusive fails when both named fields are present, regardless of
	// whether they arrived explicitly or via session defaults.
	Exclusive
)

// Rule is one cross-field requirement. Rules are evaluated in declared
// order and the first failure wins.
type Rule struct {
	Kind   RuleKind
	Fields []string
}

// RuleSet is the ordered rule list for one tool.
type RuleSet []Rule

func Require(fields ...string) Rule {
	return Rule{Kind: AllOf, Fields: fields}
}

func RequireOneOf(fields ...string) Rule {
	return Rule{Kind: OneOf, Fields: fields}
}

func MutuallyExclusive(a, b string) Rule {
	return Rule{Kind: Exclusive, Fields: []string{a, b}}
}
