package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// EntityType tags what an assignment record grants.
type EntityType uint8

const (
	// EntityUnknown is what an unrecognised tag from storage decodes to.
	EntityUnknown EntityType = iota
	EntityRole
	EntityPermission
	EntityBranch
	EntityDepartment
	EntityDegree
)

// AssignableEmployee is the only assignable subject the gateway resolves.
const AssignableEmployee = "employee"

var entityTypeNames = map[EntityType]string{
	EntityRole:       "role",
	EntityPermission: "permission",
	EntityBranch:     "branch",
	EntityDepartment: "department",
	EntityDegree:     "degree",
}

func (t EntityType) String() string {
	if s, ok := entityTypeNames[t]; ok {
		return s
	}
	return "unknown"
}

// ParseEntityType converts the stored tag to an EntityType.
func ParseEntityType(s string) (EntityType, bool) {
	for t, name := range entityTypeNames {
		if name == s {
			return t, true
		}
	}
	return EntityUnknown, false
}

// Scan implements sql.Scanner. Unknown tags are kept as EntityUnknown so a
// single corrupt row does not fail the whole query.
func (t *EntityType) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*t, _ = ParseEntityType(v)
	case []byte:
		*t, _ = ParseEntityType(string(v))
	case nil:
		*t = EntityUnknown
	default:
		return fmt.Errorf("entity type: unsupported column type %T", src)
	}
	return nil
}

// Value implements driver.Valuer.
func (t EntityType) Value() (driver.Value, error) {
	if t == EntityUnknown {
		return nil, fmt.Errorf("entity type: refusing to store unknown type")
	}
	return t.String(), nil
}

func (t EntityType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *EntityType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, ok := ParseEntityType(s)
	if !ok {
		return fmt.Errorf("entity type: unknown %q", s)
	}
	*t = v
	return nil
}
