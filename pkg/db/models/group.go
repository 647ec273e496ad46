package models

import (
	"time"

	"github.com/google/uuid"
)

// Group is a user-owned circle that internal shares can target.
type Group struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Name        string    `gorm:"type:text;not null"`
	Description *string   `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// GroupMember links users into a group.
type GroupMember struct {
	ID      uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	GroupID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_group_member_group_user"`
	UserID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_group_member_group_user"`
	AddedAt time.Time `gorm:"column:added_at;autoCreateTime"`
}
