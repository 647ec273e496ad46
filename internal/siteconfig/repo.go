package siteconfig

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wisherr-app/wisherr-backend/pkg/db/models"
)

// Repository exposes persistence helpers for site configuration rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Get(ctx context.Context, key string) (*models.SiteConfig, error)
	List(ctx context.Context) ([]models.SiteConfig, error)
	Upsert(ctx context.Context, cfg *models.SiteConfig) error
	Delete(ctx context.Context, key string) (bool, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a site config repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Get(ctx context.Context, key string) (*models.SiteConfig, error) {
	var cfg models.SiteConfig
	if err := r.db.WithContext(ctx).Where("key = ?", key).First(&cfg).Error; err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *repositoryImpl) List(ctx context.Context) ([]models.SiteConfig, error) {
	var rows []models.SiteConfig
	if err := r.db.WithContext(ctx).Order("key ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repositoryImpl) Upsert(ctx context.Context, cfg *models.SiteConfig) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "value_type", "description", "updated_by", "updated_at"}),
		}).
		Create(cfg).Error
}

func (r *repositoryImpl) Delete(ctx context.Context, key string) (bool, error) {
	result := r.db.WithContext(ctx).Where("key = ?", key).Delete(&models.SiteConfig{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
