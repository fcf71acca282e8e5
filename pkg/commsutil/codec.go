package commsutil

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const codecLogPrefix = "commsutil:codec"

// EncodePayload serializes a value to JSON bytes.
func EncodePayload(v any) ([]byte, error) {
	return json.Marshal(v)
}

// DecodePayload deserializes JSON bytes into the given target.
func DecodePayload(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// DecodeObject decodes data that must hold a single JSON object.
func DecodeObject(data []byte) (map[string]any, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%s - expected a JSON object", codecLogPrefix)
	}
	var out map[string]any
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, fmt.Errorf("%s - invalid JSON object: %w", codecLogPrefix, err)
	}
	return out, nil
}
