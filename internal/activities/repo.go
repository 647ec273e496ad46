package activities

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wisherr-app/wisherr-backend/pkg/db/models"
	"github.com/wisherr-app/wisherr-backend/pkg/enums"
	"github.com/wisherr-app/wisherr-backend/pkg/pagination"
)

// Repository exposes persistence helpers for the activity log.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, activity *models.Activity) error
	ListFeed(ctx context.Context, params listActivitiesParams) ([]models.Activity, *pagination.Cursor, error)
	ListForWishlist(ctx context.Context, wishlistID uuid.UUID, params listActivitiesParams) ([]models.Activity, *pagination.Cursor, error)
	UsernamesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
	WishlistTitlesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an activity repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listActivitiesParams struct {
	UserID     uuid.UUID
	Limit      int
	Cursor     *pagination.Cursor
	PublicOnly bool
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, activity *models.Activity) error {
	return r.db.WithContext(ctx).Create(activity).Error
}

// ListFeed returns the user's own entries plus entries scoped to wishlists the
// user owns, collaborates on, or can reach through an active, unexpired
// internal share. The share filter matches the access resolver, so losing
// wishlist access also drops its rows from the feed.
// The accessible-wishlist set is recomputed per request.
func (r *repositoryImpl) ListFeed(ctx context.Context, params listActivitiesParams) ([]models.Activity, *pagination.Cursor, error) {
	owned := r.db.Model(&models.Wishlist{}).Select("id").Where("owner_id = ?", params.UserID)
	collaborating := r.db.Model(&models.WishlistCollaborator{}).Select("wishlist_id").Where("user_id = ?", params.UserID)
	memberGroups := r.db.Model(&models.GroupMember{}).Select("group_id").Where("user_id = ?", params.UserID)
	shared := r.db.Model(&models.WishlistShare{}).Select("wishlist_id").
		Where("is_active AND share_type = ?", enums.ShareTypeInternal).
		Where("expires_at IS NULL OR expires_at > ?", time.Now().UTC()).
		Where("target_user_id = ? OR target_group_id IN (?)", params.UserID, memberGroups)

	query := r.db.WithContext(ctx).Model(&models.Activity{}).
		Where("user_id = ? OR wishlist_id IN (?) OR wishlist_id IN (?) OR wishlist_id IN (?)",
			params.UserID, owned, collaborating, shared)
	return r.page(ctx, query, params)
}

func (r *repositoryImpl) ListForWishlist(ctx context.Context, wishlistID uuid.UUID, params listActivitiesParams) ([]models.Activity, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).Model(&models.Activity{}).Where("wishlist_id = ?", wishlistID)
	if params.PublicOnly {
		query = query.Where("is_public")
	}
	return r.page(ctx, query, params)
}

// UsernamesByIDs resolves actor display names for feed entries in one query.
func (r *repositoryImpl) UsernamesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	result := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var rows []models.User
	if err := r.db.WithContext(ctx).
		Select("id", "username").
		Where("id IN ?", ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.ID] = row.Username
	}
	return result, nil
}

// WishlistTitlesByIDs resolves wishlist titles for feed entries in one query.
func (r *repositoryImpl) WishlistTitlesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	result := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var rows []models.Wishlist
	if err := r.db.WithContext(ctx).
		Select("id", "title").
		Where("id IN ?", ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.ID] = row.Title
	}
	return result, nil
}

func (r *repositoryImpl) page(ctx context.Context, query *gorm.DB, params listActivitiesParams) ([]models.Activity, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []models.Activity
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	if len(rows) > normalized {
		next := rows[normalized]
		rows = rows[:normalized]
		return rows, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return rows, nil, nil
}
