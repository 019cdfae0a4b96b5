package command

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind is the machine-readable classification of a pipeline failure.
type ErrorKind string

const (
	KindDecode         ErrorKind = "decode_error"
	KindMissingField   ErrorKind = "missing_field"
	KindInvalidAction  ErrorKind = "invalid_action"
	KindInvalidType    ErrorKind = "invalid_type"
	KindInvalidNumeric ErrorKind = "invalid_numeric_value"
	// KindModel marks invoker failures. It sits outside the decode/validate/
	// normalize taxonomy because the core never produces it itself.
	KindModel ErrorKind = "model_error"
	// KindUnknown is returned by KindOf for errors the pipeline did not raise.
	KindUnknown ErrorKind = ""
)

// KindOf classifies err. Wrapped errors are unwrapped with errors.As.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}
	var k interface{ Kind() ErrorKind }
	if errors.As(err, &k) {
		return k.Kind()
	}
	return KindUnknown
}

// DecodeError reports model output that is not a single JSON object.
type DecodeError struct {
	Raw   string // offending text, as received
	Cause error
}

func (e *DecodeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("decode model output: %v", e.Cause)
	}
	return "decode model output: not a JSON object"
}

func (e *DecodeError) Unwrap() error   { return e.Cause }
func (e *DecodeError) Kind() ErrorKind { return KindDecode }

// MissingFieldError reports a required key that is absent for the action.
type MissingFieldError struct {
	Field  string
	Action string
}

func (e *MissingFieldError) Error() string {
	if e.Action != "" {
		return fmt.Sprintf("missing required field %q for action %q", e.Field, e.Action)
	}
	return fmt.Sprintf("missing required field %q", e.Field)
}

func (e *MissingFieldError) Kind() ErrorKind { return KindMissingField }

// InvalidActionError reports an action outside the domain's closed enum.
type InvalidActionError struct {
	Action interface{}
	Valid  []string
}

func (e *InvalidActionError) Error() string {
	return fmt.Sprintf("invalid action %v: expected one of %s", formatValue(e.Action), strings.Join(e.Valid, ", "))
}

func (e *InvalidActionError) Kind() ErrorKind { return KindInvalidAction }

// InvalidTypeError reports a field whose shape does not match the schema.
type InvalidTypeError struct {
	Field    string
	Expected string
	Got      interface{}
}

func (e *InvalidTypeError) Error() string {
	return fmt.Sprintf("invalid type for %q: expected %s, got %s", e.Field, e.Expected, describe(e.Got))
}

func (e *InvalidTypeError) Kind() ErrorKind { return KindInvalidType }

// InvalidNumericValueError reports a numeric property whose value could not be
// coerced to a finite number.
type InvalidNumericValueError struct {
	Property string
	Value    interface{}
	Cause    error
}

func (e *InvalidNumericValueError) Error() string {
	return fmt.Sprintf("invalid numeric value for %q: %s", e.Property, formatValue(e.Value))
}

func (e *InvalidNumericValueError) Unwrap() error   { return e.Cause }
func (e *InvalidNumericValueError) Kind() ErrorKind { return KindInvalidNumeric }

// NewMissingFieldError creates a MissingFieldError.
func NewMissingFieldError(field, action string) *MissingFieldError {
	return &MissingFieldError{Field: field, Action: action}
}

// NewInvalidTypeError creates an InvalidTypeError.
func NewInvalidTypeError(field, expected string, got interface{}) *InvalidTypeError {
	return &InvalidTypeError{Field: field, Expected: expected, Got: got}
}

// NewInvalidNumericValueError creates an InvalidNumericValueError.
func NewInvalidNumericValueError(property string, value interface{}, cause error) *InvalidNumericValueError {
	return &InvalidNumericValueError{Property: property, Value: value, Cause: cause}
}

// ModelError wraps an invoker failure.
type ModelError struct {
	Cause error
}

func (e *ModelError) Error() string   { return fmt.Sprintf("invoke model: %v", e.Cause) }
func (e *ModelError) Unwrap() error   { return e.Cause }
func (e *ModelError) Kind() ErrorKind { return KindModel }

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("%q", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func describe(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
