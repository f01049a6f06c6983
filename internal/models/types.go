package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Int64Set is a set of integer ids persisted as a JSON array column. It
// exists so the catalog's "dynamic" fields (available_slots) stay a typed,
// serializable value at the storage boundary instead of leaking a raw
// map/interface{} into solver code.
type Int64Set []int64

func (s Int64Set) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	return json.Marshal([]int64(s))
}

func (s *Int64Set) Scan(src interface{}) error {
	if src == nil {
		*s = nil
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		if str, ok := src.(string); ok {
			b = []byte(str)
		} else {
			return fmt.Errorf("unsupported Int64Set source type %T", src)
		}
	}
	var out []int64
	if len(b) == 0 {
		*s = nil
		return nil
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return fmt.Errorf("scan Int64Set: %w", err)
	}
	*s = out
	return nil
}

// Has reports whether id is a member of the set.
func (s Int64Set) Has(id int64) bool {
	for _, v := range s {
		if v == id {
			return true
		}
	}
	return false
}

// StringSet is a set of strings persisted as a JSON array column.
type StringSet []string

func (s StringSet) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	return json.Marshal([]string(s))
}

func (s *StringSet) Scan(src interface{}) error {
	if src == nil {
		*s = nil
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		if str, ok := src.(string); ok {
			b = []byte(str)
		} else {
			return fmt.Errorf("unsupported StringSet source type %T", src)
		}
	}
	var out []string
	if len(b) == 0 {
		*s = nil
		return nil
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return fmt.Errorf("scan StringSet: %w", err)
	}
	*s = out
	return nil
}
