package command

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Shorthand target tokens. They address whole rows, columns, or the full
// grid and are expanded by the executor, never here.
const (
	ShorthandAll       = "all"
	ShorthandRowPrefix = "row-"
	ShorthandColPrefix = "col-"
)

// IsShorthand reports whether target starts with a reserved shorthand prefix
// or equals the all token. Such strings are kept atomic even when they
// contain commas.
func IsShorthand(target string) bool {
	return target == ShorthandAll ||
		strings.HasPrefix(target, ShorthandRowPrefix) ||
		strings.HasPrefix(target, ShorthandColPrefix)
}

// Normalize repairs a validated object and returns a new one: target strings
// are split, numeric values coerced, then the domain steps run. The input is
// left untouched. Normalizing a normalized object yields an equal object.
func (s *Schema) Normalize(obj Raw) (Raw, error) {
	out := obj.Clone()
	action, _ := out["action"].(string)

	if s.SplitTargets {
		if target, ok := out["target"].(string); ok {
			out["target"] = splitTarget(target)
		}
	}

	if prop, ok := out["property"].(string); ok && s.IsNumericProperty(prop) {
		if value, present := out["value"]; present && value != nil {
			n, err := coerceNumber(prop, value)
			if err != nil {
				return nil, err
			}
			out["value"] = n
		}
	}

	numericFields := make([]string, 0)
	for field, kind := range s.Fields {
		if kind == KindNumber {
			numericFields = append(numericFields, field)
		}
	}
	sort.Strings(numericFields)
	for _, field := range numericFields {
		value, ok := out[field]
		if !ok || value == nil {
			continue
		}
		n, err := coerceNumber(field, value)
		if err != nil {
			return nil, err
		}
		out[field] = n
	}

	for _, step := range s.Steps {
		if err := step(action, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// splitTarget returns target unchanged unless it is a comma-joined list of
// plain identifiers, which becomes an array of trimmed, non-empty strings. A
// string made only of commas stays as-is.
func splitTarget(target string) interface{} {
	if !strings.Contains(target, ",") || IsShorthand(target) {
		return target
	}
	parts := strings.Split(target, ",")
	out := make([]interface{}, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return target
	}
	return out
}

// coerceNumber converts value to a finite float64. Strings are parsed after
// trimming; anything else that is not already a number is rejected.
func coerceNumber(name string, value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, NewInvalidNumericValueError(name, value, nil)
		}
		return v, nil
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, NewInvalidNumericValueError(name, value, err)
		}
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, NewInvalidNumericValueError(name, value, nil)
		}
		return n, nil
	default:
		return 0, NewInvalidNumericValueError(name, value, nil)
	}
}
