package models

import "time"

// ClickEvent records that a distinct visitor clicked a tracking link.
// VisitorHash is a time-bucketed digest; raw IP and user agent are never stored.
type ClickEvent struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	TrackingLinkID uint      `gorm:"not null;uniqueIndex:uk_click_events_link_visitor,priority:1" json:"tracking_link_id"`
	VisitorHash    string    `gorm:"size:64;not null;uniqueIndex:uk_click_events_link_visitor,priority:2" json:"visitor_hash"`
	CreatedAt      time.Time `gorm:"not null;index:idx_click_events_created_at" json:"created_at"`
}

func (ClickEvent) TableName() string { return "click_events" }

// ClickEventFilter provides filter fields for repository queries
type ClickEventFilter struct {
	TrackingLinkID *uint
	VisitorHash    *string
	CreatedAfter   *time.Time
	CreatedBefore  *time.Time
}
