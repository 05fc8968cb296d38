package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// TemplateItem is one checklist entry defined by a template
type TemplateItem struct {
	Position int    `json:"position"`
	Label    string `json:"label"`
}

// TemplateType groups checklist items under a named inspection type
// (e.g. Exterior, Engine) with media allowances
type TemplateType struct {
	TypeName       string         `json:"typeName"`
	ChecklistItems []TemplateItem `json:"checklistItems"`
	AllowVideo     bool           `json:"allowVideo"`
	MaxPhotos      int            `json:"maxPhotos"`
}

// TemplateTypeList is stored as a JSON column
type TemplateTypeList []TemplateType

// Scan implements sql.Scanner
func (l *TemplateTypeList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("failed to unmarshal template types value: %v", value)
	}
	return json.Unmarshal(data, l)
}

// Value implements driver.Valuer
func (l TemplateTypeList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

// ChecklistTemplate is an admin-authored definition of inspection
// types and their checklist items, versioned
type ChecklistTemplate struct {
	ID       uint             `gorm:"primaryKey" json:"id"`
	Name     string           `gorm:"not null" json:"name"`
	Version  int              `gorm:"default:1" json:"version"`
	IsActive bool             `gorm:"default:true" json:"isActive"`
	Types    TemplateTypeList `gorm:"type:jsonb" json:"types"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for ChecklistTemplate model
func (ChecklistTemplate) TableName() string {
	return "checklist_templates"
}
