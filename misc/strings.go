package misc

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Strings is a string slice persisted as a JSON TEXT column.
type Strings []string

func (s Strings) Value() (driver.Value, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *Strings) Scan(v interface{}) error {
	switch value := v.(type) {
	case string:
		return json.Unmarshal([]byte(value), s)
	case []byte:
		return json.Unmarshal(value, s)
	case nil:
		*s = nil
		return nil
	default:
		return fmt.Errorf("unsupported type %T for Strings", v)
	}
}

func (s Strings) Contains(want string) bool {
	for _, v := range s {
		if v == want {
			return true
		}
	}
	return false
}
