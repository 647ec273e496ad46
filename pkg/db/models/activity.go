package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/wisherr-app/wisherr-backend/pkg/db/types"
	"github.com/wisherr-app/wisherr-backend/pkg/enums"
)

// Activity is an append-only record of a mutating action.
type Activity struct {
	ID         uuid.UUID            `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     uuid.UUID            `gorm:"type:uuid;not null;index"`
	ActionType enums.ActivityAction `gorm:"column:action_type;type:text;not null"`
	TargetType string               `gorm:"column:target_type;type:text;not null"`
	TargetID   *uuid.UUID           `gorm:"column:target_id;type:uuid"`
	TargetName *string              `gorm:"column:target_name"`
	ExtraData  dbtypes.JSONMap      `gorm:"column:extra_data;type:jsonb"`
	WishlistID *uuid.UUID           `gorm:"column:wishlist_id;type:uuid;index"`
	IsPublic   bool                 `gorm:"column:is_public;not null;default:true"`
	CreatedAt  time.Time            `gorm:"column:created_at;autoCreateTime;index"`
}
