package models

import (
	"errors"
	"time"
)

// SharePlatform is the channel a tracking link is meant to be shared on
type SharePlatform string

const (
	SharePlatformWhatsApp  SharePlatform = "WHATSAPP"
	SharePlatformTelegram  SharePlatform = "TELEGRAM"
	SharePlatformInstagram SharePlatform = "INSTAGRAM"
	SharePlatformFacebook  SharePlatform = "FACEBOOK"
	SharePlatformX         SharePlatform = "X"
	SharePlatformEmail     SharePlatform = "EMAIL"
	SharePlatformSMS       SharePlatform = "SMS"
	SharePlatformWebsite   SharePlatform = "WEBSITE"
	SharePlatformOther     SharePlatform = "OTHER"
)

// Valid checks if the platform is known
func (p SharePlatform) Valid() bool {
	switch p {
	case SharePlatformWhatsApp, SharePlatformTelegram, SharePlatformInstagram,
		SharePlatformFacebook, SharePlatformX, SharePlatformEmail,
		SharePlatformSMS, SharePlatformWebsite, SharePlatformOther:
		return true
	default:
		return false
	}
}

var ErrPromoterAttributionMismatch = errors.New("promoter_id must be set if and only if the creator is a promoter")

// TrackingLink is a shareable, attributable URL for one listing.
// RefCode is immutable once issued. PromoterID is set iff CreatorRole is PROMOTER.
// TargetLocation and CustomTag are creator-side labels, never exposed to visitors.
type TrackingLink struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	RefCode        string        `gorm:"size:16;not null;uniqueIndex:uk_tracking_links_ref_code" json:"ref_code"`
	ListingID      uint          `gorm:"not null;index:idx_tracking_links_listing_id" json:"listing_id"`
	CreatorID      uint          `gorm:"not null;index:idx_tracking_links_creator_id" json:"creator_id"`
	CreatorRole    UserRole      `gorm:"type:varchar(16);not null" json:"creator_role"`
	PromoterID     *uint         `gorm:"index:idx_tracking_links_promoter_id" json:"promoter_id,omitempty"`
	Platform       SharePlatform `gorm:"type:varchar(16);not null" json:"platform"`
	TargetLocation *string       `gorm:"size:255" json:"target_location,omitempty"`
	CustomTag      *string       `gorm:"size:255" json:"custom_tag,omitempty"`
	ClickCount     int64         `gorm:"not null;default:0" json:"click_count"`
	InquiryCount   int64         `gorm:"not null;default:0" json:"inquiry_count"`
	CreatedAt      time.Time     `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_tracking_links_created_at" json:"created_at"`
}

func (TrackingLink) TableName() string { return "tracking_links" }

// NewTrackingLink builds a link for the given creator, deriving PromoterID from the role
func NewTrackingLink(refCode string, listingID, creatorID uint, role UserRole, platform SharePlatform, targetLocation, customTag *string) *TrackingLink {
	link := &TrackingLink{
		RefCode:        refCode,
		ListingID:      listingID,
		CreatorID:      creatorID,
		CreatorRole:    role,
		Platform:       platform,
		TargetLocation: targetLocation,
		CustomTag:      customTag,
	}
	if role == UserRolePromoter {
		id := creatorID
		link.PromoterID = &id
	}
	return link
}

// Validate checks the promoter attribution invariant
func (l *TrackingLink) Validate() error {
	isPromoter := l.CreatorRole == UserRolePromoter
	if isPromoter != (l.PromoterID != nil) {
		return ErrPromoterAttributionMismatch
	}
	return nil
}

// TrackingLinkFilter provides filter fields for repository queries
type TrackingLinkFilter struct {
	ID            *uint
	RefCode       *string
	ListingID     *uint
	CreatorID     *uint
	PromoterID    *uint
	Platform      *SharePlatform
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
