package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/amirphl/Maskan/utils"
	"gorm.io/gorm"
)

// CommissionRole identifies why an earner is owed a commission
type CommissionRole string

const (
	CommissionRoleAgent     CommissionRole = "AGENT"
	CommissionRoleCompany   CommissionRole = "COMPANY"
	CommissionRolePromoter  CommissionRole = "PROMOTER"
	CommissionRoleRecruiter CommissionRole = "RECRUITER"
)

// Valid checks if the role is known
func (r CommissionRole) Valid() bool {
	switch r {
	case CommissionRoleAgent, CommissionRoleCompany, CommissionRolePromoter, CommissionRoleRecruiter:
		return true
	default:
		return false
	}
}

// ClientFacingCommissionRoles lists the roles whose rows may be tied back to an inquiry
var ClientFacingCommissionRoles = []CommissionRole{CommissionRoleAgent, CommissionRoleCompany}

// IsClientFacing reports whether earners of this role may see who the client is.
// Promoters and recruiters must never learn client identity.
func (r CommissionRole) IsClientFacing() bool {
	return r == CommissionRoleAgent || r == CommissionRoleCompany
}

// Scan implements the sql.Scanner interface for CommissionRole
func (r *CommissionRole) Scan(value any) error {
	if value == nil {
		*r = ""
		return nil
	}
	switch v := value.(type) {
	case string:
		*r = CommissionRole(v)
	case []byte:
		*r = CommissionRole(string(v))
	default:
		return fmt.Errorf("cannot scan %T into CommissionRole", value)
	}
	return nil
}

// Value implements the driver.Valuer interface for CommissionRole
func (r CommissionRole) Value() (driver.Value, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid CommissionRole: %s", r)
	}
	return string(r), nil
}

// CommissionStatus is the administrative payout state of a commission
type CommissionStatus string

const (
	CommissionStatusPending  CommissionStatus = "PENDING"
	CommissionStatusApproved CommissionStatus = "APPROVED"
	CommissionStatusPaid     CommissionStatus = "PAID"
)

// Valid checks if the status is known
func (s CommissionStatus) Valid() bool {
	switch s {
	case CommissionStatusPending, CommissionStatusApproved, CommissionStatusPaid:
		return true
	default:
		return false
	}
}

// Next returns the only status this one may advance to
func (s CommissionStatus) Next() (CommissionStatus, bool) {
	switch s {
	case CommissionStatusPending:
		return CommissionStatusApproved, true
	case CommissionStatusApproved:
		return CommissionStatusPaid, true
	default:
		return "", false
	}
}

// Commission is one earner's entitlement on one inquiry. Amount is frozen at creation.
type Commission struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	InquiryID uint             `gorm:"not null;index:idx_commissions_inquiry_role,priority:1" json:"inquiry_id"`
	ListingID uint             `gorm:"not null;index:idx_commissions_listing_id" json:"listing_id"`
	EarnerID  uint             `gorm:"not null;index:idx_commissions_earner_id" json:"earner_id"`
	Role      CommissionRole   `gorm:"type:varchar(16);not null;index:idx_commissions_inquiry_role,priority:2" json:"role"`
	Amount    int64            `gorm:"not null" json:"amount"`
	Status    CommissionStatus `gorm:"type:varchar(16);not null;default:'PENDING';index:idx_commissions_status" json:"status"`
	CreatedAt time.Time        `gorm:"not null;index:idx_commissions_created_at" json:"created_at"`
	UpdatedAt time.Time        `gorm:"not null" json:"updated_at"`
	PaidAt    *time.Time       `json:"paid_at,omitempty"`
}

func (Commission) TableName() string { return "commissions" }

// BeforeCreate defaults status and timestamps
func (c *Commission) BeforeCreate(tx *gorm.DB) error {
	if c.Status == "" {
		c.Status = CommissionStatusPending
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = utils.UTCNow()
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	return nil
}

// Advance moves the commission one step forward, stamping PaidAt on PAID
func (c *Commission) Advance(to CommissionStatus, at time.Time) bool {
	next, ok := c.Status.Next()
	if !ok || next != to {
		return false
	}
	c.Status = to
	c.UpdatedAt = at
	if to == CommissionStatusPaid {
		t := at
		c.PaidAt = &t
	}
	return true
}

// CommissionFilter provides filter fields for repository queries
type CommissionFilter struct {
	ID            *uint
	InquiryID     *uint
	ListingID     *uint
	EarnerID      *uint
	Role          *CommissionRole
	Roles         []CommissionRole
	Statuses      []CommissionStatus
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
