package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// InspectionStatus is the lifecycle state of an inspection record
type InspectionStatus string

const (
	InspectionStatusDraft     InspectionStatus = "draft"
	InspectionStatusCompleted InspectionStatus = "completed"
	InspectionStatusSubmitted InspectionStatus = "submitted"
)

// IsValid returns true if the status is a recognized value
func (s InspectionStatus) IsValid() bool {
	switch s {
	case InspectionStatusDraft, InspectionStatusCompleted, InspectionStatusSubmitted:
		return true
	}
	return false
}

// IsFinal reports whether the record is immutable
func (s InspectionStatus) IsFinal() bool {
	return s == InspectionStatusCompleted || s == InspectionStatusSubmitted
}

// ChecklistItemResponse is an inspector's answer for one checklist item
type ChecklistItemResponse struct {
	Position int      `json:"position"`
	Label    string   `json:"label"`
	Status   string   `json:"status"`
	Rating   float64  `json:"rating"`
	Remarks  string   `json:"remarks,omitempty"`
	Photos   []string `json:"photos,omitempty"`
}

// InspectionType holds the filled-in checklist for one inspection type,
// with its derived average
type InspectionType struct {
	TypeName       string                  `json:"typeName"`
	Items          []ChecklistItemResponse `json:"checklistItems"`
	OverallRemarks string                  `json:"overallRemarks,omitempty"`
	OverallPhotos  []string                `json:"overallPhotos,omitempty"`
	Videos         []string                `json:"videos,omitempty"`
	AverageRating  float64                 `json:"averageRating"`
}

// InspectionTypeList is stored as a JSON column
type InspectionTypeList []InspectionType

// Scan implements sql.Scanner
func (l *InspectionTypeList) Scan(value interface{}) error {
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
		return fmt.Errorf("failed to unmarshal inspection types value: %v", value)
	}
	return json.Unmarshal(data, l)
}

// Value implements driver.Valuer
func (l InspectionTypeList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

// InspectionRecord is the filled-in checklist data produced by an
// inspector against a template, with derived ratings
type InspectionRecord struct {
	ID uint `gorm:"primaryKey" json:"id"`

	TemplateID  uint   `gorm:"not null;index" json:"templateId"`
	RequestID   *uint  `gorm:"index" json:"requestId,omitempty"`
	InspectorID string `gorm:"type:uuid;not null;index" json:"inspectorId"`

	VehicleInfo VehicleInfo `gorm:"embedded;embeddedPrefix:vehicle_" json:"vehicleInfo"`

	Types InspectionTypeList `gorm:"type:jsonb" json:"types"`

	// Derived, recomputed on every save. Never trusted from client input.
	OverallRating float64 `json:"overallRating"`

	Status      InspectionStatus `gorm:"type:varchar(20);default:'draft'" json:"status"`
	CompletedAt *time.Time       `json:"completedAt,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Inspector *User              `gorm:"foreignKey:InspectorID" json:"inspector,omitempty"`
	Template  *ChecklistTemplate `gorm:"foreignKey:TemplateID" json:"template,omitempty"`
}

// TableName specifies the table name for InspectionRecord model
func (InspectionRecord) TableName() string {
	return "inspection_records"
}
