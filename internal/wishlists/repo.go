package wishlists

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wisherr-app/wisherr-backend/pkg/db/models"
	"github.com/wisherr-app/wisherr-backend/pkg/enums"
)

// WishlistWithCount pairs a wishlist row with its item count.
type WishlistWithCount struct {
	models.Wishlist
	ItemCount int64 `gorm:"column:item_count"`
}

// Repository exposes persistence helpers for wishlists and collaborators.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, wishlist *models.Wishlist) error
	FindByID(ctx context.Context, wishlistID uuid.UUID) (*models.Wishlist, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, includeArchived bool) ([]WishlistWithCount, error)
	Update(ctx context.Context, wishlistID uuid.UUID, updates map[string]any) (bool, error)
	Delete(ctx context.Context, wishlistID uuid.UUID) (bool, error)
	CountItems(ctx context.Context, wishlistID uuid.UUID) (int64, error)

	ListCollaborators(ctx context.Context, wishlistID uuid.UUID) ([]models.WishlistCollaborator, error)
	UpsertCollaborator(ctx context.Context, collaborator *models.WishlistCollaborator) error
	UpdateCollaboratorRole(ctx context.Context, wishlistID, userID uuid.UUID, role enums.CollaboratorRole) (bool, error)
	RemoveCollaborator(ctx context.Context, wishlistID, userID uuid.UUID) (bool, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a wishlists repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, wishlist *models.Wishlist) error {
	return r.db.WithContext(ctx).Create(wishlist).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, wishlistID uuid.UUID) (*models.Wishlist, error) {
	var wishlist models.Wishlist
	if err := r.db.WithContext(ctx).First(&wishlist, "id = ?", wishlistID).Error; err != nil {
		return nil, err
	}
	return &wishlist, nil
}

func (r *repositoryImpl) ListByOwner(ctx context.Context, ownerID uuid.UUID, includeArchived bool) ([]WishlistWithCount, error) {
	query := r.db.WithContext(ctx).
		Table("wishlists w").
		Select("w.*, (SELECT COUNT(*) FROM items i WHERE i.wishlist_id = w.id) AS item_count").
		Where("w.owner_id = ?", ownerID)
	if !includeArchived {
		query = query.Where("NOT w.is_archived")
	}

	var rows []WishlistWithCount
	if err := query.Order("w.created_at DESC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repositoryImpl) Update(ctx context.Context, wishlistID uuid.UUID, updates map[string]any) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Wishlist{}).
		Where("id = ?", wishlistID).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Delete removes the wishlist and everything hanging off of it.
func (r *repositoryImpl) Delete(ctx context.Context, wishlistID uuid.UUID) (bool, error) {
	var deleted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("wishlist_id = ?", wishlistID).Delete(&models.Item{}).Error; err != nil {
			return err
		}
		if err := tx.Where("wishlist_id = ?", wishlistID).Delete(&models.WishlistCollaborator{}).Error; err != nil {
			return err
		}
		if err := tx.Where("wishlist_id = ?", wishlistID).Delete(&models.WishlistShare{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", wishlistID).Delete(&models.Wishlist{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

func (r *repositoryImpl) CountItems(ctx context.Context, wishlistID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Item{}).
		Where("wishlist_id = ?", wishlistID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repositoryImpl) ListCollaborators(ctx context.Context, wishlistID uuid.UUID) ([]models.WishlistCollaborator, error) {
	var collaborators []models.WishlistCollaborator
	err := r.db.WithContext(ctx).
		Where("wishlist_id = ?", wishlistID).
		Order("invited_at ASC").
		Find(&collaborators).Error
	if err != nil {
		return nil, err
	}
	return collaborators, nil
}

// UpsertCollaborator inserts the collaborator or refreshes the role when the
// pair already exists.
func (r *repositoryImpl) UpsertCollaborator(ctx context.Context, collaborator *models.WishlistCollaborator) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "wishlist_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"role"}),
		}).
		Create(collaborator).Error
}

func (r *repositoryImpl) UpdateCollaboratorRole(ctx context.Context, wishlistID, userID uuid.UUID, role enums.CollaboratorRole) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.WishlistCollaborator{}).
		Where("wishlist_id = ? AND user_id = ?", wishlistID, userID).
		UpdateColumn("role", role)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) RemoveCollaborator(ctx context.Context, wishlistID, userID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("wishlist_id = ? AND user_id = ?", wishlistID, userID).
		Delete(&models.WishlistCollaborator{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
