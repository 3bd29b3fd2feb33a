package repository

import (
	"context"

	"github.com/amirphl/Maskan/models"
	"gorm.io/gorm"
)

// NotificationRepositoryImpl implements NotificationRepository
type NotificationRepositoryImpl struct {
	*BaseRepository[models.Notification, models.NotificationFilter]
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &NotificationRepositoryImpl{BaseRepository: NewBaseRepository[models.Notification, models.NotificationFilter](db)}
}

func (r *NotificationRepositoryImpl) applyFilter(db *gorm.DB, f models.NotificationFilter) *gorm.DB {
	if f.RecipientID != nil {
		db = db.Where("recipient_id = ?", *f.RecipientID)
	}
	if f.Type != nil {
		db = db.Where("type = ?", *f.Type)
	}
	if f.IsRead != nil {
		db = db.Where("is_read = ?", *f.IsRead)
	}
	return db
}

func (r *NotificationRepositoryImpl) ByFilter(ctx context.Context, filter models.NotificationFilter, orderBy string, limit, offset int) ([]*models.Notification, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Notification{}), filter)
	if orderBy == "" {
		orderBy = "created_at DESC"
	}
	query = query.Order(orderBy)
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.Notification
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *NotificationRepositoryImpl) Count(ctx context.Context, filter models.NotificationFilter) (int64, error) {
	db := r.getDB(ctx)
	var count int64
	if err := r.applyFilter(db.Model(&models.Notification{}), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *NotificationRepositoryImpl) Exists(ctx context.Context, filter models.NotificationFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
