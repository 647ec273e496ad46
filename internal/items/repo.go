package items

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wisherr-app/wisherr-backend/pkg/db/models"
	"github.com/wisherr-app/wisherr-backend/pkg/enums"
)

// Repository exposes persistence helpers for wishlist items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, itemID uuid.UUID) (*models.Item, error)
	ListByWishlist(ctx context.Context, wishlistID uuid.UUID, status *enums.ItemStatus) ([]models.Item, error)
	Create(ctx context.Context, item *models.Item) error
	NextSortOrder(ctx context.Context, wishlistID uuid.UUID) (int, error)
	Update(ctx context.Context, itemID uuid.UUID, updates map[string]any) (bool, error)
	Delete(ctx context.Context, wishlistID, itemID uuid.UUID) (bool, error)
	Reserve(ctx context.Context, itemID uuid.UUID, reserverID *uuid.UUID, reserverName *string, now time.Time) (int64, error)
	Purchase(ctx context.Context, itemID uuid.UUID, reserverID *uuid.UUID, reserverName *string, now time.Time) (int64, error)
	Unreserve(ctx context.Context, itemID uuid.UUID, now time.Time) (int64, error)
	Reorder(ctx context.Context, wishlistID uuid.UUID, orderedIDs []uuid.UUID) error

	ListCategories(ctx context.Context, userID uuid.UUID) ([]models.ItemCategory, error)
	CreateCategory(ctx context.Context, category *models.ItemCategory) error
	UpdateCategory(ctx context.Context, userID, categoryID uuid.UUID, updates map[string]any) (bool, error)
	DeleteCategory(ctx context.Context, userID, categoryID uuid.UUID) (bool, error)
	ListPriorities(ctx context.Context) ([]models.ItemPriority, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an items repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) FindByID(ctx context.Context, itemID uuid.UUID) (*models.Item, error) {
	var item models.Item
	if err := r.db.WithContext(ctx).First(&item, "id = ?", itemID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repositoryImpl) ListByWishlist(ctx context.Context, wishlistID uuid.UUID, status *enums.ItemStatus) ([]models.Item, error) {
	query := r.db.WithContext(ctx).Where("wishlist_id = ?", wishlistID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var items []models.Item
	err := query.
		Order("CASE WHEN status = 'available' THEN 0 ELSE 1 END ASC").
		Order("sort_order ASC").
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repositoryImpl) Create(ctx context.Context, item *models.Item) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repositoryImpl) NextSortOrder(ctx context.Context, wishlistID uuid.UUID) (int, error) {
	var max *int
	err := r.db.WithContext(ctx).
		Model(&models.Item{}).
		Where("wishlist_id = ?", wishlistID).
		Select("MAX(sort_order)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return 0, nil
	}
	return *max + 1, nil
}

func (r *repositoryImpl) Update(ctx context.Context, itemID uuid.UUID, updates map[string]any) (bool, error) {
	if len(updates) == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.Item{}).Where("id = ?", itemID).Count(&count).Error; err != nil {
			return false, err
		}
		return count > 0, nil
	}
	result := r.db.WithContext(ctx).
		Model(&models.Item{}).
		Where("id = ?", itemID).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) Delete(ctx context.Context, wishlistID, itemID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND wishlist_id = ?", itemID, wishlistID).
		Delete(&models.Item{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Reserve performs the available → reserved transition as a single
// conditional update so concurrent reservers cannot both win.
func (r *repositoryImpl) Reserve(ctx context.Context, itemID uuid.UUID, reserverID *uuid.UUID, reserverName *string, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Item{}).
		Where("id = ? AND status = ?", itemID, enums.ItemStatusAvailable).
		Updates(map[string]any{
			"status":           enums.ItemStatusReserved,
			"reserved_by":      reserverID,
			"reserved_by_name": reserverName,
			"reserved_at":      now,
			"updated_at":       now,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repositoryImpl) Purchase(ctx context.Context, itemID uuid.UUID, reserverID *uuid.UUID, reserverName *string, now time.Time) (int64, error) {
	updates := map[string]any{
		"status":       enums.ItemStatusPurchased,
		"purchased_at": now,
		"updated_at":   now,
	}
	if reserverID != nil {
		updates["reserved_by"] = reserverID
	}
	if reserverName != nil {
		updates["reserved_by_name"] = reserverName
	}
	result := r.db.WithContext(ctx).
		Model(&models.Item{}).
		Where("id = ?", itemID).
		Updates(updates)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// Unreserve returns a reserved or purchased item to available and clears the
// reserver attribution.
func (r *repositoryImpl) Unreserve(ctx context.Context, itemID uuid.UUID, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Item{}).
		Where("id = ? AND status IN ?", itemID, []enums.ItemStatus{enums.ItemStatusReserved, enums.ItemStatusPurchased}).
		Updates(map[string]any{
			"status":           enums.ItemStatusAvailable,
			"reserved_by":      nil,
			"reserved_by_name": nil,
			"reserved_at":      nil,
			"purchased_at":     nil,
			"updated_at":       now,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repositoryImpl) Reorder(ctx context.Context, wishlistID uuid.UUID, orderedIDs []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for position, id := range orderedIDs {
			if err := tx.Model(&models.Item{}).
				Where("id = ? AND wishlist_id = ?", id, wishlistID).
				UpdateColumn("sort_order", position).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repositoryImpl) ListCategories(ctx context.Context, userID uuid.UUID) ([]models.ItemCategory, error) {
	var categories []models.ItemCategory
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("name ASC").
		Find(&categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *repositoryImpl) CreateCategory(ctx context.Context, category *models.ItemCategory) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *repositoryImpl) UpdateCategory(ctx context.Context, userID, categoryID uuid.UUID, updates map[string]any) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ItemCategory{}).
		Where("id = ? AND user_id = ?", categoryID, userID).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) DeleteCategory(ctx context.Context, userID, categoryID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", categoryID, userID).
		Delete(&models.ItemCategory{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) ListPriorities(ctx context.Context) ([]models.ItemPriority, error) {
	var priorities []models.ItemPriority
	if err := r.db.WithContext(ctx).Order("weight ASC").Find(&priorities).Error; err != nil {
		return nil, err
	}
	return priorities, nil
}
