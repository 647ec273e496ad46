package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/wisherr-app/wisherr-backend/pkg/enums"
)

// Notification stores in-app notification payloads scoped to users.
type Notification struct {
	ID         uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     uuid.UUID              `gorm:"type:uuid;not null;index"`
	Type       enums.NotificationType `gorm:"type:text;not null"`
	Title      string                 `gorm:"type:text;not null"`
	Message    string                 `gorm:"type:text;not null"`
	Icon       string                 `gorm:"type:text;not null;default:'bell'"`
	Color      string                 `gorm:"type:text;not null;default:'#6366f1'"`
	Link       *string                `gorm:"type:text"`
	TargetType *string                `gorm:"column:target_type"`
	TargetID   *uuid.UUID             `gorm:"column:target_id;type:uuid"`
	ReadAt     *time.Time             `gorm:"type:timestamptz"`
	CreatedAt  time.Time              `gorm:"type:timestamptz;default:now()"`
}
