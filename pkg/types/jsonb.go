package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// marshalJSONB encodes v for a jsonb column.
func marshalJSONB(v any) (driver.Value, error) {
	buf, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(buf), nil
}

// scanJSONB decodes a jsonb column into dest. It reports false for NULL.
func scanJSONB(value any, dest any, label string) (bool, error) {
	if value == nil {
		return false, nil
	}

	var raw []byte
	switch v := value.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return false, fmt.Errorf("%s: unsupported scan type %T", label, value)
	}
	if len(raw) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("%s: %w", label, err)
	}
	return true, nil
}

// StringList is a jsonb array of strings (photo urls, service districts).
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return marshalJSONB([]string(l))
}

func (l *StringList) Scan(value any) error {
	var out []string
	ok, err := scanJSONB(value, &out, "string list")
	if err != nil {
		return err
	}
	if !ok {
		out = nil
	}
	*l = out
	return nil
}

// Metadata is a free-form jsonb object attached to notifications.
type Metadata map[string]any

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	return marshalJSONB(map[string]any(m))
}

func (m *Metadata) Scan(value any) error {
	out := map[string]any{}
	if _, err := scanJSONB(value, &out, "metadata"); err != nil {
		return err
	}
	*m = out
	return nil
}
