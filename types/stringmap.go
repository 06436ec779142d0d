package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// JSONStringSlice is a []string stored as a JSON column, implements
// driver.Valuer and sql.Scanner.
type JSONStringSlice []string

// Value return json value, implement driver.Valuer interface
func (s JSONStringSlice) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	ba, err := s.MarshalJSON()
	return string(ba), err
}

// Scan scan value into the slice, implements sql.Scanner interface
func (s *JSONStringSlice) Scan(val interface{}) error {
	var ba []byte
	switch v := val.(type) {
	case []byte:
		ba = v
	case string:
		ba = []byte(v)
	case nil:
		*s = nil
		return nil
	default:
		return errors.New(fmt.Sprint("failed to unmarshal JSON value:", val))
	}
	t := make([]string, 0)
	err := json.Unmarshal(ba, &t)
	*s = JSONStringSlice(t)
	return err
}

func (s JSONStringSlice) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(s))
}

func (s *JSONStringSlice) UnmarshalJSON(b []byte) error {
	t := make([]string, 0)
	err := json.Unmarshal(b, &t)
	*s = JSONStringSlice(t)
	return err
}

// GormDataType gorm common data type
func (JSONStringSlice) GormDataType() string {
	return "jsonstringslice"
}

// GormDBDataType gorm db data type
func (JSONStringSlice) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	switch db.Dialector.Name() {
	case "sqlite":
		return "JSON"
	case "mysql":
		return "JSON"
	case "postgres":
		return "JSONB"
	}
	return ""
}
