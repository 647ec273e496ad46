package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/wisherr-app/wisherr-backend/pkg/db/types"
	"github.com/wisherr-app/wisherr-backend/pkg/enums"
)

// Item is a single gift entry on a wishlist.
type Item struct {
	ID               uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	WishlistID       uuid.UUID        `gorm:"type:uuid;not null;index"`
	Name             string           `gorm:"type:text;not null"`
	URL              *string          `gorm:"column:url"`
	ImageURL         *string          `gorm:"column:image_url"`
	Description      *string          `gorm:"type:text"`
	Price            *float64         `gorm:"type:numeric"`
	CategoryID       *uuid.UUID       `gorm:"column:category_id;type:uuid"`
	PriorityID       *uuid.UUID       `gorm:"column:priority_id;type:uuid"`
	Status           enums.ItemStatus `gorm:"type:text;not null;default:'available';index"`
	CustomAttributes dbtypes.JSONMap  `gorm:"column:custom_attributes;type:jsonb"`
	SortOrder        int              `gorm:"column:sort_order;not null;default:0"`
	ReservedBy       *uuid.UUID       `gorm:"column:reserved_by;type:uuid"`
	ReservedByName   *string          `gorm:"column:reserved_by_name"`
	ReservedAt       *time.Time       `gorm:"column:reserved_at"`
	PurchasedAt      *time.Time       `gorm:"column:purchased_at"`
	CreatedAt        time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// ItemCategory is a per-user label for organizing items.
type ItemCategory struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"type:text;not null"`
	Icon      *string   `gorm:"type:text"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// ItemPriority is a global ranking label shared by all users.
type ItemPriority struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name   string    `gorm:"type:text;not null"`
	Weight int       `gorm:"not null;default:0"`
	Color  *string   `gorm:"type:text"`
}
