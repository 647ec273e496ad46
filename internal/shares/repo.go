package shares

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wisherr-app/wisherr-backend/pkg/db/models"
	"github.com/wisherr-app/wisherr-backend/pkg/enums"
)

// Repository exposes persistence helpers for wishlist shares.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, share *models.WishlistShare) error
	FindByID(ctx context.Context, shareID uuid.UUID) (*models.WishlistShare, error)
	FindByToken(ctx context.Context, token string) (*models.WishlistShare, error)
	FindDuplicateInternal(ctx context.Context, wishlistID uuid.UUID, targetUserID, targetGroupID *uuid.UUID) (*models.WishlistShare, error)
	FindActiveExternal(ctx context.Context, wishlistID uuid.UUID) (*models.WishlistShare, error)
	ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]models.WishlistShare, error)
	ListSharedWithUser(ctx context.Context, userID uuid.UUID, now time.Time) ([]models.WishlistShare, error)
	Update(ctx context.Context, shareID uuid.UUID, updates map[string]any) (bool, error)
	Delete(ctx context.Context, shareID uuid.UUID) (bool, error)

	FindWishlist(ctx context.Context, wishlistID uuid.UUID) (*models.Wishlist, error)
	GroupAccessible(ctx context.Context, groupID, userID uuid.UUID) (bool, error)
	GroupMemberIDs(ctx context.Context, groupID uuid.UUID) ([]uuid.UUID, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a shares repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, share *models.WishlistShare) error {
	return r.db.WithContext(ctx).Create(share).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, shareID uuid.UUID) (*models.WishlistShare, error) {
	var share models.WishlistShare
	if err := r.db.WithContext(ctx).First(&share, "id = ?", shareID).Error; err != nil {
		return nil, err
	}
	return &share, nil
}

func (r *repositoryImpl) FindByToken(ctx context.Context, token string) (*models.WishlistShare, error) {
	var share models.WishlistShare
	err := r.db.WithContext(ctx).
		Where("share_token = ? AND share_type = ?", token, enums.ShareTypeExternal).
		First(&share).Error
	if err != nil {
		return nil, err
	}
	return &share, nil
}

// FindDuplicateInternal looks for an active internal share on the wishlist
// with the same target user or group.
func (r *repositoryImpl) FindDuplicateInternal(ctx context.Context, wishlistID uuid.UUID, targetUserID, targetGroupID *uuid.UUID) (*models.WishlistShare, error) {
	query := r.db.WithContext(ctx).
		Where("wishlist_id = ? AND share_type = ? AND is_active", wishlistID, enums.ShareTypeInternal)
	switch {
	case targetUserID != nil:
		query = query.Where("target_user_id = ?", *targetUserID)
	case targetGroupID != nil:
		query = query.Where("target_group_id = ?", *targetGroupID)
	default:
		return nil, gorm.ErrRecordNotFound
	}

	var share models.WishlistShare
	if err := query.First(&share).Error; err != nil {
		return nil, err
	}
	return &share, nil
}

func (r *repositoryImpl) FindActiveExternal(ctx context.Context, wishlistID uuid.UUID) (*models.WishlistShare, error) {
	var share models.WishlistShare
	err := r.db.WithContext(ctx).
		Where("wishlist_id = ? AND share_type = ? AND is_active", wishlistID, enums.ShareTypeExternal).
		First(&share).Error
	if err != nil {
		return nil, err
	}
	return &share, nil
}

func (r *repositoryImpl) ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]models.WishlistShare, error) {
	var shares []models.WishlistShare
	err := r.db.WithContext(ctx).
		Where("created_by = ?", creatorID).
		Order("created_at DESC").
		Find(&shares).Error
	if err != nil {
		return nil, err
	}
	return shares, nil
}

// ListSharedWithUser returns every active, non-expired internal share that
// reaches the user directly or through one of their groups.
func (r *repositoryImpl) ListSharedWithUser(ctx context.Context, userID uuid.UUID, now time.Time) ([]models.WishlistShare, error) {
	var shares []models.WishlistShare
	err := r.db.WithContext(ctx).
		Table("wishlist_shares ws").
		Select("DISTINCT ws.*").
		Joins("LEFT JOIN group_members gm ON gm.group_id = ws.target_group_id").
		Where("ws.share_type = ? AND ws.is_active", enums.ShareTypeInternal).
		Where("ws.expires_at IS NULL OR ws.expires_at > ?", now).
		Where("ws.target_user_id = ? OR gm.user_id = ?", userID, userID).
		Order("ws.created_at DESC").
		Scan(&shares).Error
	if err != nil {
		return nil, err
	}
	return shares, nil
}

func (r *repositoryImpl) Update(ctx context.Context, shareID uuid.UUID, updates map[string]any) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.WishlistShare{}).
		Where("id = ?", shareID).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) Delete(ctx context.Context, shareID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("id = ?", shareID).
		Delete(&models.WishlistShare{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) FindWishlist(ctx context.Context, wishlistID uuid.UUID) (*models.Wishlist, error) {
	var wishlist models.Wishlist
	if err := r.db.WithContext(ctx).First(&wishlist, "id = ?", wishlistID).Error; err != nil {
		return nil, err
	}
	return &wishlist, nil
}

// GroupAccessible reports whether the user owns the group or belongs to it.
func (r *repositoryImpl) GroupAccessible(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	var group models.Group
	if err := r.db.WithContext(ctx).First(&group, "id = ?", groupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	if group.OwnerID == userID {
		return true, nil
	}

	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repositoryImpl) GroupMemberIDs(ctx context.Context, groupID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.GroupMember{}).
		Where("group_id = ?", groupID).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
