package morgen

import (
	"encoding/json"
	"fmt"
)

// The Morgen API wraps payloads inconsistently: list responses may be a bare
// array, `{"data": {"<key>": [...]}}`, or `{"data": [...]}`; single-item
// responses may be `{"data": {"<key>": {...}}}`, `{"data": {...}}`, or the
// object itself. The decoders below try the known shapes in a fixed order and
// fall back to treating the remaining object as the resource, so every client
// method unwraps through one shared path.

// unwrapData peels the optional {"data": ...} envelope. Non-object input is
// returned unchanged.
func unwrapData(raw json.RawMessage) json.RawMessage {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return raw
	}
	if len(envelope.Data) == 0 {
		return raw
	}
	return envelope.Data
}

// extractList returns the raw items for a list response under key.
// Unknown shapes yield an empty list rather than an error.
func extractList(raw json.RawMessage, key string) []json.RawMessage {
	if len(raw) == 0 {
		return nil
	}

	var items []json.RawMessage
	if json.Unmarshal(raw, &items) == nil {
		return items
	}

	inner := unwrapData(raw)
	if json.Unmarshal(inner, &items) == nil {
		return items
	}

	var obj map[string]json.RawMessage
	if json.Unmarshal(inner, &obj) != nil {
		return nil
	}
	if keyed, ok := obj[key]; ok {
		if json.Unmarshal(keyed, &items) == nil {
			return items
		}
	}
	return nil
}

// extractSingle returns the raw object for a single-item response under key,
// or nil when the response carries no body (204).
func extractSingle(raw json.RawMessage, key string) json.RawMessage {
	if len(raw) == 0 {
		return nil
	}

	inner := unwrapData(raw)

	var obj map[string]json.RawMessage
	if json.Unmarshal(inner, &obj) != nil {
		return inner
	}
	if keyed, ok := obj[key]; ok {
		return keyed
	}
	return inner
}

type validater interface {
	validate() error
}

// decodeList unwraps a list response and validates each item into T.
func decodeList[T validater](raw json.RawMessage, key string) ([]T, error) {
	items := extractList(raw, key)
	out := make([]T, 0, len(items))
	for _, item := range items {
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", key, err)
		}
		if err := v.validate(); err != nil {
			return nil, fmt.Errorf("decode %s: %w", key, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// decodeSingle unwraps a single-item response into T. A nil/empty payload
// yields (nil, nil): some write endpoints legitimately return no body.
func decodeSingle[T validater](raw json.RawMessage, key string) (*T, error) {
	item := extractSingle(raw, key)
	if len(item) == 0 || string(item) == "null" {
		return nil, nil
	}
	var v T
	if err := json.Unmarshal(item, &v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	if err := v.validate(); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return &v, nil
}
