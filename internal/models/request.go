package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RequestStatus is the lifecycle state of an inspection request
type RequestStatus string

const (
	RequestStatusPending    RequestStatus = "pending"
	RequestStatusAssigned   RequestStatus = "assigned"
	RequestStatusInProgress RequestStatus = "in_progress"
	RequestStatusCompleted  RequestStatus = "completed"
	RequestStatusCancelled  RequestStatus = "cancelled"
)

// String returns the string representation of the status
func (s RequestStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is a recognized value
func (s RequestStatus) IsValid() bool {
	switch s {
	case RequestStatusPending, RequestStatusAssigned, RequestStatusInProgress,
		RequestStatusCompleted, RequestStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed
func (s RequestStatus) IsTerminal() bool {
	return s == RequestStatusCompleted || s == RequestStatusCancelled
}

// CanTransitionTo checks if the request can move to the target status.
//
// Valid transitions:
// - pending -> assigned -> in_progress -> completed
// - pending/assigned -> in_progress (inspector may start before assignment is confirmed)
// - any non-terminal -> cancelled
func (s RequestStatus) CanTransitionTo(target RequestStatus) bool {
	if s.IsTerminal() {
		return false
	}

	switch target {
	case RequestStatusAssigned:
		return s == RequestStatusPending
	case RequestStatusInProgress:
		return s == RequestStatusPending || s == RequestStatusAssigned
	case RequestStatusCompleted:
		return s == RequestStatusAssigned || s == RequestStatusInProgress
	case RequestStatusCancelled:
		return true
	}

	return false
}

// VehicleInfo describes the vehicle under inspection
type VehicleInfo struct {
	Make         string `gorm:"not null" json:"make"`
	Model        string `gorm:"not null" json:"model"`
	Year         int    `gorm:"not null" json:"year"`
	VIN          string `json:"vin,omitempty"`
	LicensePlate string `json:"licensePlate,omitempty"`
	Mileage      int    `json:"mileage,omitempty"`
	Color        string `json:"color,omitempty"`
}

// InspectionRequest represents a customer-initiated inspection request
type InspectionRequest struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// Human-readable code, e.g. CAMRY_TOY_001. Immutable once assigned.
	RequestID string `gorm:"column:request_id;unique;not null" json:"requestId"`

	RequesterID string      `gorm:"type:uuid;not null;index" json:"requesterId"`
	VehicleInfo VehicleInfo `gorm:"embedded;embeddedPrefix:vehicle_" json:"vehicleInfo"`

	Status RequestStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`

	AssignedInspectorID *string `gorm:"type:uuid;index" json:"assignedInspectorId,omitempty"`

	RequestType string `gorm:"default:'inspection'" json:"requestType"`
	Notes       string `gorm:"type:text" json:"notes,omitempty"`

	// Opaque schedule/location details validated at the edge, never
	// inspected by the core
	Details datatypes.JSON `json:"details,omitempty"`

	AssignedAt          *time.Time `json:"assignedAt,omitempty"`
	AdminApprovedAt     *time.Time `json:"adminApprovedAt,omitempty"`
	InspectionStartTime *time.Time `json:"inspectionStartTime,omitempty"`
	InspectionEndTime   *time.Time `json:"inspectionEndTime,omitempty"`
	TimeTaken           *int64     `json:"timeTaken,omitempty"` // whole seconds
	CancelledAt         *time.Time `json:"cancelledAt,omitempty"`
	CancelledReason     string     `gorm:"type:varchar(500)" json:"cancelledReason,omitempty"`

	LinkedInspectionID *uint `gorm:"index" json:"linkedInspectionId,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Requester         *User `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	AssignedInspector *User `gorm:"foreignKey:AssignedInspectorID" json:"assignedInspector,omitempty"`
}

// TableName specifies the table name for InspectionRequest model
func (InspectionRequest) TableName() string {
	return "inspection_requests"
}

// Counter backs the atomic request-ID sequence
type Counter struct {
	Name  string `gorm:"primaryKey" json:"name"`
	Value int64  `gorm:"not null;default:0" json:"value"`
}

// TableName specifies the table name for Counter model
func (Counter) TableName() string {
	return "counters"
}
