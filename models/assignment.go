package models

// AssignmentRecord is one flat grant: entity X is assigned to assignable Y,
// optionally nested under another record via ParentID.
type AssignmentRecord struct {
	ID             int64      `gorm:"column:id;primaryKey" json:"id"`
	EntityType     EntityType `gorm:"column:entity_type" json:"entityType"`
	EntityID       int64      `gorm:"column:entity_id" json:"entityId"`
	AssignableType string     `gorm:"column:assignable_type" json:"assignableType"`
	AssignableID   int64      `gorm:"column:assignable_id" json:"assignableId"`
	ParentID       *int64     `gorm:"column:parent_id" json:"parentId,omitempty"`
}

func (AssignmentRecord) TableName() string { return "assigning_roles" }

// AssignmentNode is a record placed in the per-employee forest. Details holds
// the referenced entity (*Branch, *Department, *Degree, *Role or *Permission)
// and stays nil when that entity no longer exists.
type AssignmentNode struct {
	ID         int64             `json:"id"`
	EntityType EntityType        `json:"entityType"`
	EntityID   int64             `json:"entityId"`
	ParentID   *int64            `json:"parentId"`
	Details    interface{}       `json:"details,omitempty"`
	Children   []*AssignmentNode `json:"children"`
}

// AssignmentTree is the forest of one employee's grants.
type AssignmentTree struct {
	EmployeeID *int64            `json:"employeeId"`
	Tree       []*AssignmentNode `json:"tree"`
}
