package command

import (
	"sort"
	"strings"
)

// Domain names one of the command surfaces.
type Domain string

const (
	DomainDiagram  Domain = "diagram"
	DomainTable    Domain = "table"
	DomainChart    Domain = "chart"
	DomainDatabase Domain = "database"
)

// FieldKind is the declared JSON shape of an extension field.
type FieldKind string

const (
	KindString FieldKind = "string"
	// KindNumber accepts numbers, and strings that normalization coerces.
	KindNumber FieldKind = "number"
	KindObject FieldKind = "object"
	KindArray  FieldKind = "array"
	// KindMatrix is an array whose every element is itself an array.
	KindMatrix FieldKind = "2-D array"
	// KindCollection is either an object or an array.
	KindCollection FieldKind = "object or array"
)

// Rule is a cross-field check run after the generic validation steps.
type Rule func(obj Raw) error

// Step is a domain-specific normalization applied after target splitting and
// numeric coercion. Steps receive a private copy and may mutate it.
type Step func(action string, obj Raw) error

// Example pairs a request with the command the model should produce. Examples
// are rendered into the system prompt and double as validation fixtures.
type Example struct {
	Request string
	Command string
}

// ContextKey documents a key callers may pass in the domain context.
type ContextKey struct {
	Key         string
	Description string
}

// Schema is the declarative description of one domain: its closed action
// set, per-action requirements, property vocabulary, and extensions. Schemas
// are immutable after construction and safe for concurrent use.
type Schema struct {
	Domain            Domain
	Description       string
	Actions           []string
	Required          map[string][]string
	Fields            map[string]FieldKind
	Properties        []string
	NumericProperties []string
	// SplitTargets enables comma splitting of string targets.
	SplitTargets bool
	Rules        map[string]Rule
	Steps        []Step
	Promote      func(c *Command) (Payload, error)
	Guidance     []string
	Examples     map[string][]Example
	ContextKeys  []ContextKey

	actions    map[string]struct{}
	properties map[string]struct{}
	numeric    map[string]struct{}
}

func (s *Schema) init() *Schema {
	s.actions = toSet(s.Actions)
	s.properties = toSet(s.Properties)
	s.numeric = toSet(s.NumericProperties)
	return s
}

// HasAction reports whether action belongs to the closed enum.
func (s *Schema) HasAction(action string) bool {
	_, ok := s.actions[action]
	return ok
}

// IsNumericProperty reports whether values of property must be numbers.
func (s *Schema) IsNumericProperty(property string) bool {
	_, ok := s.numeric[property]
	return ok
}

// RequiredFields returns the required fields for action in check order.
func (s *Schema) RequiredFields(action string) []string {
	return append([]string(nil), s.Required[action]...)
}

var registry = map[Domain]*Schema{}

func register(s *Schema) *Schema {
	registry[s.Domain] = s.init()
	return s
}

// Lookup returns the schema for a domain name. Names are case-insensitive.
func Lookup(name string) (*Schema, bool) {
	s, ok := registry[Domain(strings.ToLower(strings.TrimSpace(name)))]
	return s, ok
}

// Schemas returns every registered schema ordered by domain name.
func Schemas() []*Schema {
	out := make([]*Schema, 0, len(registry))
	for _, s := range registry {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Domain < out[j].Domain })
	return out
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
