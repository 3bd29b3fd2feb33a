package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirphl/Maskan/models"
	"github.com/amirphl/Maskan/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SystemSettingRepositoryImpl implements SystemSettingRepository
type SystemSettingRepositoryImpl struct {
	*BaseRepository[models.SystemSetting, models.SystemSettingFilter]
}

// NewSystemSettingRepository creates a new system setting repository.
func NewSystemSettingRepository(db *gorm.DB) SystemSettingRepository {
	return &SystemSettingRepositoryImpl{
		BaseRepository: NewBaseRepository[models.SystemSetting, models.SystemSettingFilter](db),
	}
}

// Get returns the setting stored under key, or nil when it was never written
func (r *SystemSettingRepositoryImpl) Get(ctx context.Context, key string) (*models.SystemSetting, error) {
	db := r.getDB(ctx)
	var row models.SystemSetting
	if err := db.Where("key = ?", key).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return &row, nil
}

func (r *SystemSettingRepositoryImpl) GetAll(ctx context.Context) ([]*models.SystemSetting, error) {
	db := r.getDB(ctx)
	var rows []*models.SystemSetting
	if err := db.Order("key ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	return rows, nil
}

// Set upserts the value under key
func (r *SystemSettingRepositoryImpl) Set(ctx context.Context, key, value string) (*models.SystemSetting, error) {
	db := r.getDB(ctx)
	row := &models.SystemSetting{Key: key, Value: value, UpdatedAt: utils.UTCNow()}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to write setting %s: %w", key, err)
	}
	return row, nil
}

// SeedDefaults inserts every default that has no row yet, leaving existing values alone
func (r *SystemSettingRepositoryImpl) SeedDefaults(ctx context.Context) error {
	db := r.getDB(ctx)
	now := utils.UTCNow()
	rows := make([]*models.SystemSetting, 0, len(models.DefaultSettings))
	for k, v := range models.DefaultSettings {
		rows = append(rows, &models.SystemSetting{Key: k, Value: v, UpdatedAt: now})
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to seed default settings: %w", err)
	}
	return nil
}
