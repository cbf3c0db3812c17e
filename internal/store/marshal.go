package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/speak2fill/speak2fill/internal/form"
)

// marshalFields converts a field catalog to JSON TEXT for storage.
// HTML escaping is disabled so labels in non-Latin scripts round-trip
// byte-for-byte.
func marshalFields(fields []form.FormField) (string, error) {
	data, err := encodeJSON(fields)
	if err != nil {
		return "", fmt.Errorf("marshal fields: %w", err)
	}
	return data, nil
}

func unmarshalFields(data string) ([]form.FormField, error) {
	var fields []form.FormField
	if err := json.Unmarshal([]byte(data), &fields); err != nil {
		return nil, fmt.Errorf("unmarshal fields: %w", err)
	}
	return fields, nil
}

// marshalValues converts collected values to JSON TEXT for storage.
// Go's json.Marshal sorts map keys, so output is deterministic.
func marshalValues(values map[string]string) (string, error) {
	if values == nil {
		values = map[string]string{}
	}
	data, err := encodeJSON(values)
	if err != nil {
		return "", fmt.Errorf("marshal values: %w", err)
	}
	return data, nil
}

func unmarshalValues(data string) (map[string]string, error) {
	values := map[string]string{}
	if data == "" {
		return values, nil
	}
	if err := json.Unmarshal([]byte(data), &values); err != nil {
		return nil, fmt.Errorf("unmarshal values: %w", err)
	}
	return values, nil
}

// encodeJSON marshals without HTML escaping and without the trailing
// newline json.Encoder appends.
func encodeJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
