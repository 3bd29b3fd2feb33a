package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/amirphl/Maskan/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ClickEventRepositoryImpl implements ClickEventRepository
type ClickEventRepositoryImpl struct {
	*BaseRepository[models.ClickEvent, models.ClickEventFilter]
}

func NewClickEventRepository(db *gorm.DB) ClickEventRepository {
	return &ClickEventRepositoryImpl{BaseRepository: NewBaseRepository[models.ClickEvent, models.ClickEventFilter](db)}
}

func (r *ClickEventRepositoryImpl) ExistsSince(ctx context.Context, trackingLinkID uint, visitorHash string, since time.Time) (bool, error) {
	return r.Exists(ctx, models.ClickEventFilter{
		TrackingLinkID: &trackingLinkID,
		VisitorHash:    &visitorHash,
		CreatedAfter:   &since,
	})
}

// InsertIfAbsent relies on uk_click_events_link_visitor to settle races between concurrent clicks
func (r *ClickEventRepositoryImpl) InsertIfAbsent(ctx context.Context, event *models.ClickEvent) (bool, error) {
	db := r.getDB(ctx)
	res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(event)
	if res.Error != nil {
		return false, fmt.Errorf("failed to insert click event: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// PruneBefore removes click events older than before and returns how many were deleted
func (r *ClickEventRepositoryImpl) PruneBefore(ctx context.Context, before time.Time) (int64, error) {
	db := r.getDB(ctx)
	res := db.Where("created_at < ?", before).Delete(&models.ClickEvent{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to prune click events: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *ClickEventRepositoryImpl) applyFilter(db *gorm.DB, f models.ClickEventFilter) *gorm.DB {
	if f.TrackingLinkID != nil {
		db = db.Where("tracking_link_id = ?", *f.TrackingLinkID)
	}
	if f.VisitorHash != nil {
		db = db.Where("visitor_hash = ?", *f.VisitorHash)
	}
	if f.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		db = db.Where("created_at < ?", *f.CreatedBefore)
	}
	return db
}

func (r *ClickEventRepositoryImpl) ByFilter(ctx context.Context, filter models.ClickEventFilter, orderBy string, limit, offset int) ([]*models.ClickEvent, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.ClickEvent{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.ClickEvent
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ClickEventRepositoryImpl) Count(ctx context.Context, filter models.ClickEventFilter) (int64, error) {
	db := r.getDB(ctx)
	var count int64
	if err := r.applyFilter(db.Model(&models.ClickEvent{}), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ClickEventRepositoryImpl) Exists(ctx context.Context, filter models.ClickEventFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
