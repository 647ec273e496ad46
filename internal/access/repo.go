package access

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wisherr-app/wisherr-backend/pkg/db/models"
	"github.com/wisherr-app/wisherr-backend/pkg/enums"
)

// Repository exposes the lookups the resolver needs across wishlists, shares
// and group memberships.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindWishlist(ctx context.Context, wishlistID uuid.UUID) (*models.Wishlist, error)
	FindCollaborator(ctx context.Context, wishlistID, userID uuid.UUID) (*models.WishlistCollaborator, error)
	FindDirectShare(ctx context.Context, wishlistID, userID uuid.UUID, now time.Time) (*models.WishlistShare, error)
	FindGroupShare(ctx context.Context, wishlistID, userID uuid.UUID, now time.Time) (*models.WishlistShare, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an access repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) FindWishlist(ctx context.Context, wishlistID uuid.UUID) (*models.Wishlist, error) {
	var wishlist models.Wishlist
	if err := r.db.WithContext(ctx).First(&wishlist, "id = ?", wishlistID).Error; err != nil {
		return nil, err
	}
	return &wishlist, nil
}

func (r *repositoryImpl) FindCollaborator(ctx context.Context, wishlistID, userID uuid.UUID) (*models.WishlistCollaborator, error) {
	var collaborator models.WishlistCollaborator
	err := r.db.WithContext(ctx).
		Where("wishlist_id = ? AND user_id = ?", wishlistID, userID).
		First(&collaborator).Error
	if err != nil {
		return nil, err
	}
	return &collaborator, nil
}

func (r *repositoryImpl) FindDirectShare(ctx context.Context, wishlistID, userID uuid.UUID, now time.Time) (*models.WishlistShare, error) {
	var share models.WishlistShare
	err := r.db.WithContext(ctx).
		Where("wishlist_id = ? AND share_type = ? AND target_user_id = ? AND is_active", wishlistID, enums.ShareTypeInternal, userID).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Order("created_at DESC").
		First(&share).Error
	if err != nil {
		return nil, err
	}
	return &share, nil
}

func (r *repositoryImpl) FindGroupShare(ctx context.Context, wishlistID, userID uuid.UUID, now time.Time) (*models.WishlistShare, error) {
	var share models.WishlistShare
	err := r.db.WithContext(ctx).
		Table("wishlist_shares ws").
		Select("ws.*").
		Joins("JOIN group_members gm ON gm.group_id = ws.target_group_id").
		Where("ws.wishlist_id = ? AND ws.share_type = ? AND gm.user_id = ? AND ws.is_active", wishlistID, enums.ShareTypeInternal, userID).
		Where("ws.expires_at IS NULL OR ws.expires_at > ?", now).
		Order("ws.created_at DESC").
		First(&share).Error
	if err != nil {
		return nil, err
	}
	return &share, nil
}
