package models

import "time"

// Notification types written by this service
const (
	NotificationTypeCommissionCreated = "COMMISSION_CREATED"
	NotificationTypeNewInquiry        = "NEW_INQUIRY"
)

// Notification is an in-app message queued for a user
type Notification struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	RecipientID uint      `gorm:"not null;index:idx_notifications_recipient_id" json:"recipient_id"`
	Type        string    `gorm:"size:64;not null" json:"type"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Message     string    `gorm:"type:text;not null" json:"message"`
	Link        *string   `gorm:"size:512" json:"link,omitempty"`
	IsRead      bool      `gorm:"not null;default:false" json:"is_read"`
	CreatedAt   time.Time `gorm:"not null;index:idx_notifications_created_at" json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }

// NotificationFilter provides filter fields for repository queries
type NotificationFilter struct {
	RecipientID *uint
	Type        *string
	IsRead      *bool
}
