package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirphl/Maskan/models"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InquiryRepositoryImpl implements InquiryRepository
type InquiryRepositoryImpl struct {
	*BaseRepository[models.Inquiry, models.InquiryFilter]
}

func NewInquiryRepository(db *gorm.DB) InquiryRepository {
	return &InquiryRepositoryImpl{BaseRepository: NewBaseRepository[models.Inquiry, models.InquiryFilter](db)}
}

// ByIDForUpdate must be called with a transactional context, otherwise the lock is released immediately
func (r *InquiryRepositoryImpl) ByIDForUpdate(ctx context.Context, id uint) (*models.Inquiry, error) {
	db := r.getDB(ctx)
	var row models.Inquiry
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock inquiry %d: %w", id, err)
	}
	return &row, nil
}

// UpdateStage persists the stage, its history and the first-response latch
func (r *InquiryRepositoryImpl) UpdateStage(ctx context.Context, inquiry *models.Inquiry) error {
	db := r.getDB(ctx)
	err := db.Model(&models.Inquiry{}).
		Where("id = ?", inquiry.ID).
		Updates(map[string]any{
			"stage":             inquiry.Stage,
			"stage_history":     inquiry.StageHistory,
			"first_response_at": inquiry.FirstResponseAt,
			"updated_at":        inquiry.UpdatedAt,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update stage of inquiry %d: %w", inquiry.ID, err)
	}
	return nil
}

func (r *InquiryRepositoryImpl) applyFilter(db *gorm.DB, f models.InquiryFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.ListingID != nil {
		db = db.Where("listing_id = ?", *f.ListingID)
	}
	if f.AgentID != nil {
		db = db.Where("agent_id = ?", *f.AgentID)
	}
	if f.PromoterID != nil {
		db = db.Where("promoter_id = ?", *f.PromoterID)
	}
	if len(f.Stages) > 0 {
		stages := make([]string, 0, len(f.Stages))
		for _, s := range f.Stages {
			stages = append(stages, string(s))
		}
		db = db.Where("stage = ANY(?)", pq.Array(stages))
	}
	if f.NonTerminal != nil {
		terminalStages := make([]string, 0, 4)
		for _, s := range models.InquiryStages {
			if s.IsTerminal() {
				terminalStages = append(terminalStages, string(s))
			}
		}
		terminal := pq.Array(terminalStages)
		if *f.NonTerminal {
			db = db.Where("NOT (stage = ANY(?))", terminal)
		} else {
			db = db.Where("stage = ANY(?)", terminal)
		}
	}
	if f.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		db = db.Where("created_at < ?", *f.CreatedBefore)
	}
	return db
}

func (r *InquiryRepositoryImpl) ByFilter(ctx context.Context, filter models.InquiryFilter, orderBy string, limit, offset int) ([]*models.Inquiry, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Inquiry{}), filter)
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
	var rows []*models.Inquiry
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *InquiryRepositoryImpl) Count(ctx context.Context, filter models.InquiryFilter) (int64, error) {
	db := r.getDB(ctx)
	var count int64
	if err := r.applyFilter(db.Model(&models.Inquiry{}), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *InquiryRepositoryImpl) Exists(ctx context.Context, filter models.InquiryFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
