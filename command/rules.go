package command

import (
	"errors"
	"sort"
)

var offsetAxes = []string{"x", "y"}

// offsetRule accepts an absent value or an object carrying only x/y members.
func offsetRule(obj Raw) error {
	value, ok := obj["value"]
	if !ok || value == nil {
		return nil
	}
	offset, ok := value.(map[string]interface{})
	if !ok {
		return NewInvalidTypeError("value", "offset object with x/y", value)
	}
	for _, key := range sortedKeys(offset) {
		member := offset[key]
		if key != "x" && key != "y" {
			return NewInvalidTypeError("value."+key, "only x and y offsets", member)
		}
		if !matchesKind(KindNumber, member) {
			return NewInvalidTypeError("value."+key, "number", member)
		}
	}
	return nil
}

// offsetStep coerces offset members of move-style actions to numbers.
func offsetStep(action string, obj Raw) error {
	switch action {
	case ActionMove, ActionMoveChart, ActionMoveTable:
	default:
		return nil
	}
	offset, ok := obj["value"].(map[string]interface{})
	if !ok {
		return nil
	}
	for _, axis := range offsetAxes {
		member, present := offset[axis]
		if !present {
			continue
		}
		n, err := coerceNumber("value."+axis, member)
		if err != nil {
			return err
		}
		offset[axis] = n
	}
	return nil
}

var errNonPositiveScale = errors.New("scale factor must be positive")

// scaleStep turns the scale value into a positive number.
func scaleStep(action string, obj Raw) error {
	if action != ActionScale {
		return nil
	}
	value := obj["value"]
	n, err := coerceNumber("value", value)
	if err != nil {
		return err
	}
	if n <= 0 {
		return NewInvalidNumericValueError("value", value, errNonPositiveScale)
	}
	obj["value"] = n
	return nil
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
