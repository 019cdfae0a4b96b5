package command

import (
	"sort"
	"strings"
)

// Validate checks obj against the schema and returns the first violation.
// Rules run in a fixed order: action presence, action membership, required
// fields, target shape, declared field kinds and property vocabulary, then the
// action's cross-field rule.
func (s *Schema) Validate(obj Raw) error {
	rawAction, ok := obj["action"]
	if !ok || rawAction == nil {
		return NewMissingFieldError("action", "")
	}
	action, ok := rawAction.(string)
	if !ok || !s.HasAction(action) {
		return &InvalidActionError{Action: rawAction, Valid: append([]string(nil), s.Actions...)}
	}

	for _, field := range s.Required[action] {
		if isBlank(obj[field]) {
			return NewMissingFieldError(field, action)
		}
	}

	if target, ok := obj["target"]; ok && target != nil {
		if !isTargetShape(target) {
			return NewInvalidTypeError("target", "string or array of strings", target)
		}
	}

	if err := s.checkKinds(obj); err != nil {
		return err
	}

	if rule := s.Rules[action]; rule != nil {
		if err := rule(obj); err != nil {
			return err
		}
	}
	return nil
}

func (s *Schema) checkKinds(obj Raw) error {
	fields := make([]string, 0, len(s.Fields))
	for field := range s.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		value, ok := obj[field]
		if !ok || value == nil {
			continue
		}
		kind := s.Fields[field]
		if !matchesKind(kind, value) {
			return NewInvalidTypeError(field, string(kind), value)
		}
	}

	if len(s.properties) == 0 {
		return nil
	}
	prop, ok := obj["property"]
	if !ok || prop == nil {
		return nil
	}
	name, isString := prop.(string)
	if !isString {
		return NewInvalidTypeError("property", "string", prop)
	}
	if _, known := s.properties[name]; !known {
		return NewInvalidTypeError("property", "one of "+strings.Join(s.Properties, ", "), prop)
	}
	return nil
}

func matchesKind(kind FieldKind, value interface{}) bool {
	switch kind {
	case KindString:
		_, ok := value.(string)
		return ok
	case KindNumber:
		switch value.(type) {
		case float64, string:
			return true
		}
		return false
	case KindObject:
		_, ok := value.(map[string]interface{})
		return ok
	case KindArray:
		_, ok := value.([]interface{})
		return ok
	case KindMatrix:
		rows, ok := value.([]interface{})
		if !ok {
			return false
		}
		for _, row := range rows {
			if _, ok := row.([]interface{}); !ok {
				return false
			}
		}
		return true
	case KindCollection:
		switch value.(type) {
		case map[string]interface{}, []interface{}:
			return true
		}
		return false
	}
	return true
}

// isBlank treats absent, null, whitespace-only strings, and empty arrays as
// missing.
func isBlank(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []interface{}:
		return len(v) == 0
	}
	return false
}

func isTargetShape(value interface{}) bool {
	switch v := value.(type) {
	case string:
		return true
	case []interface{}:
		for _, item := range v {
			if _, ok := item.(string); !ok {
				return false
			}
		}
		return true
	}
	return false
}
