// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/amirphl/Maskan/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// UserRepository defines operations for marketplace users
type UserRepository interface {
	Repository[models.User, models.UserFilter]
}

// ListingRepository defines operations for property listings
type ListingRepository interface {
	Repository[models.Listing, models.ListingFilter]
	ByListingNumber(ctx context.Context, listingNumber string) (*models.Listing, error)
}

// TrackingLinkRepository defines operations for tracking links
type TrackingLinkRepository interface {
	Repository[models.TrackingLink, models.TrackingLinkFilter]
	ByRefCode(ctx context.Context, refCode string) (*models.TrackingLink, error)
	IncrementClickCount(ctx context.Context, id uint) error
	IncrementInquiryCount(ctx context.Context, id uint) error
	Delete(ctx context.Context, id uint) error
}

// ClickEventRepository defines operations for deduplicated click events
type ClickEventRepository interface {
	Repository[models.ClickEvent, models.ClickEventFilter]
	// ExistsSince reports whether the visitor already has a click on the link at or after since
	ExistsSince(ctx context.Context, trackingLinkID uint, visitorHash string, since time.Time) (bool, error)
	// InsertIfAbsent inserts the event unless the (link, visitor) pair already exists.
	// It reports whether a row was written.
	InsertIfAbsent(ctx context.Context, event *models.ClickEvent) (bool, error)
	PruneBefore(ctx context.Context, before time.Time) (int64, error)
}

// InquiryRepository defines operations for inquiries
type InquiryRepository interface {
	Repository[models.Inquiry, models.InquiryFilter]
	// ByIDForUpdate loads the inquiry holding a row lock until the surrounding transaction ends
	ByIDForUpdate(ctx context.Context, id uint) (*models.Inquiry, error)
	UpdateStage(ctx context.Context, inquiry *models.Inquiry) error
}

// CommissionRepository defines operations for commissions
type CommissionRepository interface {
	Repository[models.Commission, models.CommissionFilter]
	DeleteByInquiry(ctx context.Context, inquiryID uint) (int64, error)
	UpdateStatus(ctx context.Context, commission *models.Commission) error
	SumAmount(ctx context.Context, filter models.CommissionFilter) (int64, error)
}

// SystemSettingRepository defines operations for admin-tunable settings
type SystemSettingRepository interface {
	Get(ctx context.Context, key string) (*models.SystemSetting, error)
	GetAll(ctx context.Context) ([]*models.SystemSetting, error)
	Set(ctx context.Context, key, value string) (*models.SystemSetting, error)
	SeedDefaults(ctx context.Context) error
}

// NotificationRepository defines operations for in-app notifications
type NotificationRepository interface {
	Repository[models.Notification, models.NotificationFilter]
}

// AuditLogRepository defines operations for audit logs
type AuditLogRepository interface {
	Repository[models.AuditLog, models.AuditLogFilter]
	ListByActor(ctx context.Context, actorID uint, limit, offset int) ([]*models.AuditLog, error)
	ListByEntity(ctx context.Context, entityType string, entityID uint, limit, offset int) ([]*models.AuditLog, error)
	ListFailedActions(ctx context.Context, limit, offset int) ([]*models.AuditLog, error)
}
