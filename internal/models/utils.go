package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// StringList is a list of strings stored as a JSON text column. Used for the
// structured error strings a reporting org attaches to a report.
type StringList []string

// Value implements the driver.Valuer interface for StringList
func (l StringList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return nil, nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for StringList
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for StringList", value)
	}
	if len(bytes) == 0 {
		*l = nil
		return nil
	}

	return json.Unmarshal(bytes, (*[]string)(l))
}

// Now returns the current UTC time truncated to microseconds, the precision
// every carried engine round-trips.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
