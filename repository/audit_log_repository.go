package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/Maskan/models"
	"gorm.io/gorm"
)

// AuditLogRepositoryImpl implements AuditLogRepository interface
type AuditLogRepositoryImpl struct {
	*BaseRepository[models.AuditLog, models.AuditLogFilter]
}

// NewAuditLogRepository creates a new audit log repository
func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &AuditLogRepositoryImpl{
		BaseRepository: NewBaseRepository[models.AuditLog, models.AuditLogFilter](db),
	}
}

func (r *AuditLogRepositoryImpl) applyFilter(query *gorm.DB, filter models.AuditLogFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.ActorID != nil {
		query = query.Where("actor_id = ?", *filter.ActorID)
	}
	if filter.Action != nil {
		query = query.Where("action = ?", *filter.Action)
	}
	if filter.EntityType != nil {
		query = query.Where("entity_type = ?", *filter.EntityType)
	}
	if filter.EntityID != nil {
		query = query.Where("entity_id = ?", *filter.EntityID)
	}
	if filter.Success != nil {
		query = query.Where("success = ?", *filter.Success)
	}
	if filter.RequestID != nil {
		query = query.Where("request_id = ?", *filter.RequestID)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}
	return query
}

// ByFilter retrieves audit logs based on filter criteria
func (r *AuditLogRepositoryImpl) ByFilter(ctx context.Context, filter models.AuditLogFilter, orderBy string, limit, offset int) ([]*models.AuditLog, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.AuditLog{}), filter)
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

	var logs []*models.AuditLog
	if err := query.Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return logs, nil
}

// Count returns the number of audit logs matching the filter
func (r *AuditLogRepositoryImpl) Count(ctx context.Context, filter models.AuditLogFilter) (int64, error) {
	db := r.getDB(ctx)
	var count int64
	if err := r.applyFilter(db.Model(&models.AuditLog{}), filter).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count audit logs: %w", err)
	}
	return count, nil
}

// Exists checks if any audit log matches the filter
func (r *AuditLogRepositoryImpl) Exists(ctx context.Context, filter models.AuditLogFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListByActor retrieves audit logs written on behalf of one user with pagination
func (r *AuditLogRepositoryImpl) ListByActor(ctx context.Context, actorID uint, limit, offset int) ([]*models.AuditLog, error) {
	return r.ByFilter(ctx, models.AuditLogFilter{ActorID: &actorID}, "created_at DESC", limit, offset)
}

// ListByEntity retrieves the audit trail of one entity with pagination
func (r *AuditLogRepositoryImpl) ListByEntity(ctx context.Context, entityType string, entityID uint, limit, offset int) ([]*models.AuditLog, error) {
	filter := models.AuditLogFilter{EntityType: &entityType, EntityID: &entityID}
	return r.ByFilter(ctx, filter, "created_at DESC", limit, offset)
}

// ListFailedActions retrieves all failed audit log entries with pagination
func (r *AuditLogRepositoryImpl) ListFailedActions(ctx context.Context, limit, offset int) ([]*models.AuditLog, error) {
	failed := false
	return r.ByFilter(ctx, models.AuditLogFilter{Success: &failed}, "created_at DESC", limit, offset)
}
