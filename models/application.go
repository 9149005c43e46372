package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringList is a list of strings persisted as a JSON array.
type StringList []string

// Scan implements sql.Scanner.
func (l *StringList) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("string list: unsupported column type %T", src)
	}
	if len(raw) == 0 {
		*l = StringList{}
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("string list: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	*l = out
	return nil
}

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Clone returns a copy that never aliases l and is never nil.
func (l StringList) Clone() []string {
	out := make([]string, len(l))
	copy(out, l)
	return out
}

// Application is a relying party. Key is globally unique, case-sensitive
// and at most 64 characters.
type Application struct {
	ID                 int64      `gorm:"column:id;primaryKey" json:"id"`
	Key                string     `gorm:"column:key;size:64;uniqueIndex" json:"key"`
	Name               string     `gorm:"column:name;size:255" json:"name"`
	Description        *string    `gorm:"column:description" json:"description,omitempty"`
	DefaultRoles       StringList `gorm:"column:default_roles" json:"defaultRoles"`
	DefaultPermissions StringList `gorm:"column:default_permissions" json:"defaultPermissions"`
}

func (Application) TableName() string { return "applications" }
