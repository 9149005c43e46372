package models

import (
	"strconv"
	"time"
)

// Branch is a school branch an employee can be assigned under.
type Branch struct {
	ID          int64      `gorm:"column:id;primaryKey" json:"id"`
	NameEn      string     `gorm:"column:name_en" json:"nameEn"`
	NameKh      string     `gorm:"column:name_kh" json:"nameKh"`
	NameFr      string     `gorm:"column:name_fr" json:"nameFr"`
	Description *string    `gorm:"column:description" json:"description,omitempty"`
	Code        string     `gorm:"column:code" json:"code"`
	CreatedAt   *time.Time `gorm:"column:created_at" json:"createdAt,omitempty"`
	UpdatedAt   *time.Time `gorm:"column:updated_at" json:"updatedAt,omitempty"`
}

func (Branch) TableName() string { return "branches" }

// Department belongs to a school and may nest under another department.
type Department struct {
	ID           int64      `gorm:"column:id;primaryKey" json:"id"`
	NameKh       *string    `gorm:"column:name_kh" json:"nameKh,omitempty"`
	NameEn       string     `gorm:"column:name_en" json:"nameEn"`
	NameFr       *string    `gorm:"column:name_fr" json:"nameFr,omitempty"`
	Code         *string    `gorm:"column:code" json:"code,omitempty"`
	Description  *string    `gorm:"column:description" json:"description,omitempty"`
	IsSpecialist bool       `gorm:"column:is_specialist" json:"isSpecialist"`
	IsVocational bool       `gorm:"column:is_vocational" json:"isVocational"`
	Active       bool       `gorm:"column:active" json:"active"`
	ParentID     *int64     `gorm:"column:parent_id" json:"parentId,omitempty"`
	SchoolID     int64      `gorm:"column:school_id" json:"schoolId"`
	Order        int        `gorm:"column:order" json:"order"`
	CreatedAt    *time.Time `gorm:"column:created_at" json:"createdAt,omitempty"`
	UpdatedAt    *time.Time `gorm:"column:updated_at" json:"updatedAt,omitempty"`
}

func (Department) TableName() string { return "departments" }

// Degree is an academic degree an employee teaches or holds in a department.
type Degree struct {
	ID          int64      `gorm:"column:id;primaryKey" json:"id"`
	NameKh      *string    `gorm:"column:name_kh" json:"nameKh,omitempty"`
	NameEn      string     `gorm:"column:name_en" json:"nameEn"`
	NameFr      *string    `gorm:"column:name_fr" json:"nameFr,omitempty"`
	Code        *string    `gorm:"column:code" json:"code,omitempty"`
	Description *string    `gorm:"column:description" json:"description,omitempty"`
	Active      bool       `gorm:"column:active" json:"active"`
	SchoolID    int64      `gorm:"column:school_id" json:"schoolId"`
	CreatedAt   *time.Time `gorm:"column:created_at" json:"createdAt,omitempty"`
	UpdatedAt   *time.Time `gorm:"column:updated_at" json:"updatedAt,omitempty"`
}

func (Degree) TableName() string { return "degrees" }

// Label picks the first non-empty name, falling back to the id.
func (d Degree) Label() string {
	if d.NameEn != "" {
		return d.NameEn
	}
	if d.NameKh != nil && *d.NameKh != "" {
		return *d.NameKh
	}
	if d.NameFr != nil && *d.NameFr != "" {
		return *d.NameFr
	}
	return strconv.FormatInt(d.ID, 10)
}
