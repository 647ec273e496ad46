package items

import (
	"time"

	"github.com/google/uuid"

	"github.com/wisherr-app/wisherr-backend/pkg/db/models"
	"github.com/wisherr-app/wisherr-backend/pkg/enums"
)

// ItemDTO is the transport shape of a wishlist item.
type ItemDTO struct {
	ID               uuid.UUID        `json:"id"`
	WishlistID       uuid.UUID        `json:"wishlist_id"`
	Name             string           `json:"name"`
	URL              *string          `json:"url,omitempty"`
	ImageURL         *string          `json:"image_url,omitempty"`
	Description      *string          `json:"description,omitempty"`
	Price            *float64         `json:"price,omitempty"`
	CategoryID       *uuid.UUID       `json:"category_id,omitempty"`
	PriorityID       *uuid.UUID       `json:"priority_id,omitempty"`
	Status           enums.ItemStatus `json:"status"`
	CustomAttributes map[string]any   `json:"custom_attributes,omitempty"`
	SortOrder        int              `json:"sort_order"`
	ReservedBy       *uuid.UUID       `json:"reserved_by,omitempty"`
	ReservedByName   *string          `json:"reserved_by_name,omitempty"`
	ReservedAt       *time.Time       `json:"reserved_at,omitempty"`
	PurchasedAt      *time.Time       `json:"purchased_at,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// CreateItemDTO holds the fields accepted when adding an item.
type CreateItemDTO struct {
	Name             string
	URL              *string
	ImageURL         *string
	Description      *string
	Price            *float64
	CategoryID       *uuid.UUID
	PriorityID       *uuid.UUID
	CustomAttributes map[string]any
}

// UpdateItemDTO holds the optional fields accepted when editing an item.
type UpdateItemDTO struct {
	Name             *string
	URL              *string
	ImageURL         *string
	Description      *string
	Price            *float64
	CategoryID       *uuid.UUID
	PriorityID       *uuid.UUID
	CustomAttributes map[string]any
}

// CategoryDTO is the transport shape of a per-user item category.
type CategoryDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Icon      *string   `json:"icon,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// PriorityDTO is the transport shape of a global item priority.
type PriorityDTO struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Weight int       `json:"weight"`
	Color  *string   `json:"color,omitempty"`
}

func fromModel(item models.Item) ItemDTO {
	return ItemDTO{
		ID:               item.ID,
		WishlistID:       item.WishlistID,
		Name:             item.Name,
		URL:              item.URL,
		ImageURL:         item.ImageURL,
		Description:      item.Description,
		Price:            item.Price,
		CategoryID:       item.CategoryID,
		PriorityID:       item.PriorityID,
		Status:           item.Status,
		CustomAttributes: item.CustomAttributes,
		SortOrder:        item.SortOrder,
		ReservedBy:       item.ReservedBy,
		ReservedByName:   item.ReservedByName,
		ReservedAt:       item.ReservedAt,
		PurchasedAt:      item.PurchasedAt,
		CreatedAt:        item.CreatedAt,
		UpdatedAt:        item.UpdatedAt,
	}
}

// maskReservation hides who reserved an item. Purchased items are never
// masked.
func maskReservation(dto ItemDTO) ItemDTO {
	if dto.Status != enums.ItemStatusReserved {
		return dto
	}
	dto.Status = enums.ItemStatusAvailable
	dto.ReservedBy = nil
	dto.ReservedByName = nil
	dto.ReservedAt = nil
	return dto
}

func categoryFromModel(category models.ItemCategory) CategoryDTO {
	return CategoryDTO{
		ID:        category.ID,
		Name:      category.Name,
		Icon:      category.Icon,
		CreatedAt: category.CreatedAt,
	}
}

func priorityFromModel(priority models.ItemPriority) PriorityDTO {
	return PriorityDTO{
		ID:     priority.ID,
		Name:   priority.Name,
		Weight: priority.Weight,
		Color:  priority.Color,
	}
}
