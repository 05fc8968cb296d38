package models

import (
	"time"

	"gorm.io/gorm"
)

// User roles
const (
	RoleAdmin     = "admin"
	RoleInspector = "inspector"
	RoleUser      = "user"
)

// User account statuses
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
	UserStatusBlocked  = "blocked"
)

// User represents a user in the system
// Standardized: Go (PascalCase) -> DB (snake_case) -> JSON (camelCase)
type User struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	Username string `gorm:"unique;not null" json:"username"`
	Password string `gorm:"not null" json:"-"`
	Email    string `gorm:"unique;not null" json:"email"`
	Name     string `json:"name,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Role     string `gorm:"default:'user'" json:"role"`
	Status   string `gorm:"default:'active'" json:"status"`

	// Assigned marks an inspector as busy with an open request
	Assigned bool `gorm:"default:false" json:"assigned"`

	LastLogin *time.Time `json:"lastLogin,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}

// IsActiveInspector reports whether the user can take an assignment
func (u *User) IsActiveInspector() bool {
	return u.Role == RoleInspector && u.Status == UserStatusActive
}
