package webstorage

import (
	"encoding/json"
	"fmt"

	"github.com/goccy/go-yaml"
)

// Codec converts between structured values and the text stored in a Backend.
//
// Implementations must round-trip maps, slices, strings, numbers, booleans
// and nil. Encode fails on values the format cannot represent, such as
// channels, functions or cyclic structures; those errors propagate from
// Storage.Set.
type Codec interface {
	Encode(value any) (string, error)
	Decode(text string) (any, error)
}

// JSONCodec is the default Codec. Values round-trip with standard JSON
// semantics: numbers decode as float64, objects as map[string]any.
type JSONCodec struct{}

// Encode marshals a value to a JSON string.
func (JSONCodec) Encode(value any) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("failed to marshal value: %w", err)
	}
	return string(data), nil
}

// Decode unmarshals a JSON string into a structured value.
func (JSONCodec) Decode(text string) (any, error) {
	var value any
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		return nil, fmt.Errorf("failed to unmarshal value: %w", err)
	}
	return value, nil
}

// YAMLCodec stores values as YAML documents instead of JSON, for backends
// whose entries are inspected or edited by hand. Mappings decode as
// map[string]any.
type YAMLCodec struct{}

// Encode marshals a value to a YAML document.
func (YAMLCodec) Encode(value any) (string, error) {
	data, err := yaml.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("failed to marshal value: %w", err)
	}
	return string(data), nil
}

// Decode unmarshals a YAML document into a structured value.
func (YAMLCodec) Decode(text string) (any, error) {
	var value any
	if err := yaml.Unmarshal([]byte(text), &value); err != nil {
		return nil, fmt.Errorf("failed to unmarshal value: %w", err)
	}
	return value, nil
}

// DecodeError reports stored text the configured Codec could not decode,
// typically written by another process or corrupted in place. It is never
// swallowed: Get and iteration surface it to the caller.
type DecodeError struct {
	Key string // physical key holding the bad text
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %q: %v", e.Key, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
