package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/Maskan/models"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// CommissionRepositoryImpl implements CommissionRepository
type CommissionRepositoryImpl struct {
	*BaseRepository[models.Commission, models.CommissionFilter]
}

func NewCommissionRepository(db *gorm.DB) CommissionRepository {
	return &CommissionRepositoryImpl{BaseRepository: NewBaseRepository[models.Commission, models.CommissionFilter](db)}
}

// DeleteByInquiry hard-deletes every commission of an inquiry regardless of status
func (r *CommissionRepositoryImpl) DeleteByInquiry(ctx context.Context, inquiryID uint) (int64, error) {
	db := r.getDB(ctx)
	res := db.Where("inquiry_id = ?", inquiryID).Delete(&models.Commission{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete commissions of inquiry %d: %w", inquiryID, res.Error)
	}
	return res.RowsAffected, nil
}

func (r *CommissionRepositoryImpl) UpdateStatus(ctx context.Context, commission *models.Commission) error {
	db := r.getDB(ctx)
	err := db.Model(&models.Commission{}).
		Where("id = ?", commission.ID).
		Updates(map[string]any{
			"status":     commission.Status,
			"paid_at":    commission.PaidAt,
			"updated_at": commission.UpdatedAt,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update status of commission %d: %w", commission.ID, err)
	}
	return nil
}

// SumAmount totals the amount of every commission matching the filter
func (r *CommissionRepositoryImpl) SumAmount(ctx context.Context, filter models.CommissionFilter) (int64, error) {
	db := r.getDB(ctx)
	var total int64
	err := r.applyFilter(db.Model(&models.Commission{}), filter).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum commissions: %w", err)
	}
	return total, nil
}

func (r *CommissionRepositoryImpl) applyFilter(db *gorm.DB, f models.CommissionFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.InquiryID != nil {
		db = db.Where("inquiry_id = ?", *f.InquiryID)
	}
	if f.ListingID != nil {
		db = db.Where("listing_id = ?", *f.ListingID)
	}
	if f.EarnerID != nil {
		db = db.Where("earner_id = ?", *f.EarnerID)
	}
	if f.Role != nil {
		db = db.Where("role = ?", *f.Role)
	}
	if len(f.Roles) > 0 {
		roles := make([]string, 0, len(f.Roles))
		for _, r := range f.Roles {
			roles = append(roles, string(r))
		}
		db = db.Where("role = ANY(?)", pq.Array(roles))
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, 0, len(f.Statuses))
		for _, s := range f.Statuses {
			statuses = append(statuses, string(s))
		}
		db = db.Where("status = ANY(?)", pq.Array(statuses))
	}
	if f.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		db = db.Where("created_at < ?", *f.CreatedBefore)
	}
	return db
}

func (r *CommissionRepositoryImpl) ByFilter(ctx context.Context, filter models.CommissionFilter, orderBy string, limit, offset int) ([]*models.Commission, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Commission{}), filter)
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
	var rows []*models.Commission
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *CommissionRepositoryImpl) Count(ctx context.Context, filter models.CommissionFilter) (int64, error) {
	db := r.getDB(ctx)
	var count int64
	if err := r.applyFilter(db.Model(&models.Commission{}), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *CommissionRepositoryImpl) Exists(ctx context.Context, filter models.CommissionFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
