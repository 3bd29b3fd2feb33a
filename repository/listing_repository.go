package repository

import (
	"context"

	"github.com/amirphl/Maskan/models"
	"gorm.io/gorm"
)

// ListingRepositoryImpl implements ListingRepository
type ListingRepositoryImpl struct {
	*BaseRepository[models.Listing, models.ListingFilter]
}

func NewListingRepository(db *gorm.DB) ListingRepository {
	return &ListingRepositoryImpl{BaseRepository: NewBaseRepository[models.Listing, models.ListingFilter](db)}
}

func (r *ListingRepositoryImpl) ByListingNumber(ctx context.Context, listingNumber string) (*models.Listing, error) {
	rows, err := r.ByFilter(ctx, models.ListingFilter{ListingNumber: &listingNumber}, "id DESC", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *ListingRepositoryImpl) applyFilter(db *gorm.DB, f models.ListingFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.ListingNumber != nil {
		db = db.Where("listing_number = ?", *f.ListingNumber)
	}
	if f.AgentID != nil {
		db = db.Where("agent_id = ?", *f.AgentID)
	}
	if f.Status != nil {
		db = db.Where("status = ?", *f.Status)
	}
	return db
}

func (r *ListingRepositoryImpl) ByFilter(ctx context.Context, filter models.ListingFilter, orderBy string, limit, offset int) ([]*models.Listing, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Listing{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.Listing
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ListingRepositoryImpl) Count(ctx context.Context, filter models.ListingFilter) (int64, error) {
	db := r.getDB(ctx)
	var count int64
	if err := r.applyFilter(db.Model(&models.Listing{}), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ListingRepositoryImpl) Exists(ctx context.Context, filter models.ListingFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
