package models

import "time"

// ListingStatus is the publication state of a listing
type ListingStatus string

const (
	ListingStatusDraft    ListingStatus = "DRAFT"
	ListingStatusActive   ListingStatus = "ACTIVE"
	ListingStatusInactive ListingStatus = "INACTIVE"
	ListingStatusSold     ListingStatus = "SOLD"
	ListingStatusRented   ListingStatus = "RENTED"
)

// Listing is the read-only view of a marketplace listing.
// AgentID is the owning agent; CreatedByID is whoever created the record,
// which is usually the same agent but may be an admin acting for them.
type Listing struct {
	ID                    uint          `gorm:"primaryKey" json:"id"`
	ListingNumber         string        `gorm:"size:32;not null;uniqueIndex:uk_listings_listing_number" json:"listing_number"`
	Title                 string        `gorm:"size:255;not null" json:"title"`
	Price                 int64         `gorm:"not null" json:"price"`
	AgentCommissionPct    float64       `gorm:"type:decimal(5,2);not null;default:0" json:"agent_commission_pct"`
	CompanyCommissionPct  float64       `gorm:"type:decimal(5,2);not null;default:0" json:"company_commission_pct"`
	PromoterCommissionPct float64       `gorm:"type:decimal(5,2);not null;default:0" json:"promoter_commission_pct"`
	AgentID               uint          `gorm:"not null;index:idx_listings_agent_id" json:"agent_id"`
	CreatedByID           uint          `gorm:"not null;index:idx_listings_created_by_id" json:"created_by_id"`
	Status                ListingStatus `gorm:"type:varchar(16);not null;default:'DRAFT';index:idx_listings_status" json:"status"`
	CreatedAt             time.Time     `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt             time.Time     `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (Listing) TableName() string { return "listings" }

func (l *Listing) IsActive() bool {
	return l.Status == ListingStatusActive
}

// ListingFilter provides filter fields for repository queries
type ListingFilter struct {
	ID            *uint
	ListingNumber *string
	AgentID       *uint
	Status        *ListingStatus
}
