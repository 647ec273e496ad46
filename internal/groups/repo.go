package groups

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wisherr-app/wisherr-backend/pkg/db/models"
)

// GroupWithCount pairs a group row with its member count.
type GroupWithCount struct {
	models.Group
	MemberCount int64 `gorm:"column:member_count"`
}

// Repository exposes persistence helpers for groups and their members.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, group *models.Group, creator uuid.UUID) error
	FindByID(ctx context.Context, groupID uuid.UUID) (*models.Group, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]GroupWithCount, error)
	Update(ctx context.Context, groupID uuid.UUID, updates map[string]any) (bool, error)
	Delete(ctx context.Context, groupID uuid.UUID) (bool, error)

	ListMembers(ctx context.Context, groupID uuid.UUID) ([]models.GroupMember, error)
	IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error)
	AddMember(ctx context.Context, member *models.GroupMember) error
	RemoveMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error)
	MemberCount(ctx context.Context, groupID uuid.UUID) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a groups repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

// Create inserts the group and its creator membership in one transaction.
func (r *repositoryImpl) Create(ctx context.Context, group *models.Group, creator uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return err
		}
		member := models.GroupMember{GroupID: group.ID, UserID: creator}
		return tx.Create(&member).Error
	})
}

func (r *repositoryImpl) FindByID(ctx context.Context, groupID uuid.UUID) (*models.Group, error) {
	var group models.Group
	if err := r.db.WithContext(ctx).First(&group, "id = ?", groupID).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

// ListForUser returns every group the user owns or belongs to, with member
// counts, deduplicated.
func (r *repositoryImpl) ListForUser(ctx context.Context, userID uuid.UUID) ([]GroupWithCount, error) {
	var rows []GroupWithCount
	err := r.db.WithContext(ctx).
		Table("groups g").
		Select("DISTINCT g.*, (SELECT COUNT(*) FROM group_members m WHERE m.group_id = g.id) AS member_count").
		Joins("LEFT JOIN group_members gm ON gm.group_id = g.id").
		Where("g.owner_id = ? OR gm.user_id = ?", userID, userID).
		Order("g.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repositoryImpl) Update(ctx context.Context, groupID uuid.UUID, updates map[string]any) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Group{}).
		Where("id = ?", groupID).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Delete removes the group, its memberships, and any shares targeting it.
func (r *repositoryImpl) Delete(ctx context.Context, groupID uuid.UUID) (bool, error) {
	var deleted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ?", groupID).Delete(&models.GroupMember{}).Error; err != nil {
			return err
		}
		if err := tx.Where("target_group_id = ?", groupID).Delete(&models.WishlistShare{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", groupID).Delete(&models.Group{})
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

func (r *repositoryImpl) ListMembers(ctx context.Context, groupID uuid.UUID) ([]models.GroupMember, error) {
	var members []models.GroupMember
	err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("added_at ASC").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (r *repositoryImpl) IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
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

func (r *repositoryImpl) AddMember(ctx context.Context, member *models.GroupMember) error {
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *repositoryImpl) RemoveMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&models.GroupMember{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) MemberCount(ctx context.Context, groupID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.GroupMember{}).
		Where("group_id = ?", groupID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
