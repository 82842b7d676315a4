package registry

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// Marshal encodes a record with sorted keys, so equal records encode to equal bytes.
func Marshal(rec Record) ([]byte, error) {
	return json.Marshal(rec)
}

// MarshalAll encodes a collection of records.
func MarshalAll(recs []Record) ([]byte, error) {
	if recs == nil {
		recs = []Record{}
	}
	return json.MarshalIndent(recs, "", "  ")
}

// Unmarshal decodes one record.
func Unmarshal(data []byte) (Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// UnmarshalAll decodes a collection of records.
func UnmarshalAll(data []byte) ([]Record, error) {
	var recs []Record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// As converts an exported value into T. Values already of type T pass through; anything else
// (generic maps and slices from JSON or YAML) is re-encoded into T.
func As[T any](raw any) (T, error) {
	if v, ok := raw.(T); ok {
		return v, nil
	}
	var out T
	data, err := json.Marshal(raw)
	if err != nil {
		return out, fmt.Errorf("%w: %T: %v", ErrDecode, raw, err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("%w: %T into %T: %v", ErrDecode, raw, out, err)
	}
	return out, nil
}

// AsRecord converts a nested exported entity into a Record.
func AsRecord(raw any) (Record, error) {
	switch v := raw.(type) {
	case Record:
		return v, nil
	case map[string]any:
		return Record(v), nil
	default:
		return As[Record](raw)
	}
}
