package models

// Role is a named bundle of permissions.
type Role struct {
	ID   int64  `gorm:"column:id;primaryKey" json:"id"`
	Name string `gorm:"column:name;uniqueIndex" json:"name"`
	All  bool   `gorm:"column:all" json:"all"`
}

func (Role) TableName() string { return "roles" }

// Permission is a fine-grained capability, identified by its unique name.
type Permission struct {
	ID          int64  `gorm:"column:id;primaryKey" json:"id"`
	Name        string `gorm:"column:name;uniqueIndex" json:"name"`
	DisplayName string `gorm:"column:display_name" json:"displayName"`
}

func (Permission) TableName() string { return "permissions" }

// PermissionRole links roles to permissions (many-to-many).
type PermissionRole struct {
	ID           int64 `gorm:"column:id;primaryKey"`
	PermissionID int64 `gorm:"column:permission_id;index"`
	RoleID       int64 `gorm:"column:role_id;index"`
}

func (PermissionRole) TableName() string { return "permission_role" }
