package models

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// UserRole is the marketplace role of a user account
type UserRole string

const (
	UserRoleAgent    UserRole = "AGENT"
	UserRolePromoter UserRole = "PROMOTER"
	UserRoleAdmin    UserRole = "ADMIN"
)

func (r UserRole) String() string {
	return string(r)
}

// Valid checks if the role is one of the known roles
func (r UserRole) Valid() bool {
	switch r {
	case UserRoleAgent, UserRolePromoter, UserRoleAdmin:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for UserRole
func (r *UserRole) Scan(value any) error {
	if value == nil {
		*r = ""
		return nil
	}
	switch v := value.(type) {
	case string:
		*r = UserRole(v)
	case []byte:
		*r = UserRole(string(v))
	default:
		return fmt.Errorf("cannot scan %T into UserRole", value)
	}
	return nil
}

// Value implements the driver.Valuer interface for UserRole
func (r UserRole) Value() (driver.Value, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid UserRole: %s", r)
	}
	return string(r), nil
}

// User is the slice of the platform's user account this service reads.
// Registration and approval are owned by the accounts service.
type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	FullName   string    `gorm:"size:255;not null;default:''" json:"full_name"`
	Role       UserRole  `gorm:"type:varchar(16);not null;index:idx_users_role" json:"role"`
	IsApproved bool      `gorm:"not null;default:false" json:"is_approved"`
	ReferrerID *uint     `gorm:"index:idx_users_referrer_id" json:"referrer_id,omitempty"`
	CreatedAt  time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt  time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (User) TableName() string { return "users" }

func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

// UserFilter provides filter fields for repository queries
type UserFilter struct {
	ID         *uint
	Role       *UserRole
	IsApproved *bool
	ReferrerID *uint
}
