package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/Maskan/models"
	"gorm.io/gorm"
)

// TrackingLinkRepositoryImpl implements TrackingLinkRepository
type TrackingLinkRepositoryImpl struct {
	*BaseRepository[models.TrackingLink, models.TrackingLinkFilter]
}

func NewTrackingLinkRepository(db *gorm.DB) TrackingLinkRepository {
	return &TrackingLinkRepositoryImpl{BaseRepository: NewBaseRepository[models.TrackingLink, models.TrackingLinkFilter](db)}
}

func (r *TrackingLinkRepositoryImpl) ByRefCode(ctx context.Context, refCode string) (*models.TrackingLink, error) {
	rows, err := r.ByFilter(ctx, models.TrackingLinkFilter{RefCode: &refCode}, "id DESC", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// IncrementClickCount bumps the counter in SQL so concurrent clicks never lose updates
func (r *TrackingLinkRepositoryImpl) IncrementClickCount(ctx context.Context, id uint) error {
	return r.increment(ctx, id, "click_count")
}

func (r *TrackingLinkRepositoryImpl) IncrementInquiryCount(ctx context.Context, id uint) error {
	return r.increment(ctx, id, "inquiry_count")
}

func (r *TrackingLinkRepositoryImpl) increment(ctx context.Context, id uint, column string) error {
	db := r.getDB(ctx)
	res := db.Model(&models.TrackingLink{}).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + ?", 1))
	if res.Error != nil {
		return fmt.Errorf("failed to increment %s of tracking link %d: %w", column, id, res.Error)
	}
	return nil
}

func (r *TrackingLinkRepositoryImpl) Delete(ctx context.Context, id uint) error {
	db := r.getDB(ctx)
	if err := db.Delete(&models.TrackingLink{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete tracking link %d: %w", id, err)
	}
	return nil
}

func (r *TrackingLinkRepositoryImpl) applyFilter(db *gorm.DB, f models.TrackingLinkFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.RefCode != nil {
		db = db.Where("ref_code = ?", *f.RefCode)
	}
	if f.ListingID != nil {
		db = db.Where("listing_id = ?", *f.ListingID)
	}
	if f.CreatorID != nil {
		db = db.Where("creator_id = ?", *f.CreatorID)
	}
	if f.PromoterID != nil {
		db = db.Where("promoter_id = ?", *f.PromoterID)
	}
	if f.Platform != nil {
		db = db.Where("platform = ?", *f.Platform)
	}
	if f.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		db = db.Where("created_at < ?", *f.CreatedBefore)
	}
	return db
}

func (r *TrackingLinkRepositoryImpl) ByFilter(ctx context.Context, filter models.TrackingLinkFilter, orderBy string, limit, offset int) ([]*models.TrackingLink, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.TrackingLink{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.TrackingLink
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *TrackingLinkRepositoryImpl) Count(ctx context.Context, filter models.TrackingLinkFilter) (int64, error) {
	db := r.getDB(ctx)
	var count int64
	if err := r.applyFilter(db.Model(&models.TrackingLink{}), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *TrackingLinkRepositoryImpl) Exists(ctx context.Context, filter models.TrackingLinkFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
