package command

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
)

// Raw is a decoded but unvalidated command object.
type Raw map[string]interface{}

// Decode parses model output as a single JSON object. Only surrounding
// whitespace is tolerated; prose, code fences, or trailing data fail with a
// DecodeError that carries the original text.
func Decode(raw string) (Raw, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, &DecodeError{Raw: raw, Cause: errors.New("empty model output")}
	}
	dec := json.NewDecoder(strings.NewReader(text))
	var value interface{}
	if err := dec.Decode(&value); err != nil {
		return nil, &DecodeError{Raw: raw, Cause: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &DecodeError{Raw: raw, Cause: errors.New("unexpected data after JSON object")}
	}
	obj, ok := value.(map[string]interface{})
	if !ok {
		return nil, &DecodeError{Raw: raw, Cause: errors.New("model output is " + describe(value) + ", want object")}
	}
	return Raw(obj), nil
}

// Clone returns a deep copy so normalization never aliases caller data.
func (r Raw) Clone() Raw {
	if r == nil {
		return nil
	}
	return Raw(cloneValue(map[string]interface{}(r)).(map[string]interface{}))
}

// String renders the object as compact JSON with sorted keys.
func (r Raw) String() string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(map[string]interface{}(r)); err != nil {
		return "{}"
	}
	return strings.TrimSpace(buf.String())
}

func cloneValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[k] = cloneValue(item)
		}
		return out
	case Raw:
		return cloneValue(map[string]interface{}(val))
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return append([]string(nil), val...)
	default:
		return val
	}
}
