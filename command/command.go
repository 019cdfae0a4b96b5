package command

import (
	"encoding/json"
	"fmt"
)

// Target is the resolved addressing of a command. A single shorthand string
// (all, row-N, col-N) is kept verbatim in Shorthand; everything else lands in
// IDs. Expansion of shorthand belongs to the executor.
type Target struct {
	IDs       []string
	Shorthand string
	// List is true when the model supplied (or normalization produced) an
	// array rather than a single string.
	List bool
}

// IsZero reports whether no target was given.
func (t Target) IsZero() bool {
	return len(t.IDs) == 0 && t.Shorthand == ""
}

// Single returns the sole identifier when the target names exactly one thing.
func (t Target) Single() (string, bool) {
	if t.Shorthand != "" {
		return t.Shorthand, !t.List
	}
	if len(t.IDs) == 1 && !t.List {
		return t.IDs[0], true
	}
	return "", false
}

func targetFrom(value interface{}) Target {
	switch v := value.(type) {
	case string:
		if IsShorthand(v) {
			return Target{Shorthand: v}
		}
		return Target{IDs: []string{v}}
	case []interface{}:
		ids := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				ids = append(ids, s)
			}
		}
		return Target{IDs: ids, List: true}
	}
	return Target{}
}

// Command is a validated, normalized instruction for one domain. It is
// immutable: accessors hand out copies.
type Command struct {
	Domain   Domain
	Action   string
	Target   Target
	Property string
	Value    interface{}
	Payload  Payload

	fields Raw
}

// Fields returns a deep copy of the normalized command object.
func (c *Command) Fields() Raw {
	return c.fields.Clone()
}

// MarshalJSON emits the normalized command object.
func (c *Command) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}(c.fields))
}

func (c *Command) String() string {
	return fmt.Sprintf("%s/%s %s", c.Domain, c.Action, c.fields.String())
}

// Process runs raw model text through decode, validate, and normalize, and
// promotes the result to a typed Command.
func (s *Schema) Process(raw string) (*Command, error) {
	obj, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	return s.Check(obj)
}

// Check validates, normalizes, and promotes an already decoded object.
func (s *Schema) Check(obj Raw) (*Command, error) {
	if err := s.Validate(obj); err != nil {
		return nil, err
	}
	normalized, err := s.Normalize(obj)
	if err != nil {
		return nil, err
	}
	return s.build(normalized)
}

func (s *Schema) build(obj Raw) (*Command, error) {
	cmd := &Command{
		Domain: s.Domain,
		fields: obj,
	}
	cmd.Action, _ = obj["action"].(string)
	cmd.Property, _ = obj["property"].(string)
	cmd.Value = cloneValue(obj["value"])
	if target, ok := obj["target"]; ok {
		cmd.Target = targetFrom(target)
	}
	if s.Promote == nil {
		return cmd, nil
	}
	payload, err := s.Promote(cmd)
	if err != nil {
		return nil, err
	}
	cmd.Payload = payload
	return cmd, nil
}
