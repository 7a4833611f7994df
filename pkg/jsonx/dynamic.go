package jsonx

import "github.com/goccy/go-json"

// ToDynamicJSON round-trips val through JSON into a map[string]any.
// Vendor SDKs frequently want schemas and payloads as loose maps rather
// than typed structs; this keeps that conversion in one place.
func ToDynamicJSON(val any) (map[string]any, error) {
	b, err := json.Marshal(val)
	if err != nil {
		return nil, err
	}
	result := make(map[string]any)
	if err := json.Unmarshal(b, &result); err != nil {
		return nil, err
	}
	return result, nil
}
