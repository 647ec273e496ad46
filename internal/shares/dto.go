package shares

import (
	"time"

	"github.com/google/uuid"

	"github.com/wisherr-app/wisherr-backend/internal/items"
	"github.com/wisherr-app/wisherr-backend/pkg/db/models"
	"github.com/wisherr-app/wisherr-backend/pkg/enums"
)

// ShareDTO is the transport shape of a share row.
type ShareDTO struct {
	ID                  uuid.UUID             `json:"id"`
	WishlistID          uuid.UUID             `json:"wishlist_id"`
	ShareType           enums.ShareType       `json:"share_type"`
	TargetUserID        *uuid.UUID            `json:"target_user_id,omitempty"`
	TargetGroupID       *uuid.UUID            `json:"target_group_id,omitempty"`
	Permission          enums.SharePermission `json:"permission"`
	ShareToken          *string               `json:"share_token,omitempty"`
	HasPassword         bool                  `json:"has_password"`
	NotifyOnReservation bool                  `json:"notify_on_reservation"`
	CreatedBy           uuid.UUID             `json:"created_by"`
	ExpiresAt           *time.Time            `json:"expires_at,omitempty"`
	IsActive            bool                  `json:"is_active"`
	CreatedAt           time.Time             `json:"created_at"`
}

// CreateInternalShareDTO holds the fields accepted when sharing in-app.
type CreateInternalShareDTO struct {
	TargetUsername      *string
	TargetEmail         *string
	TargetGroupID       *uuid.UUID
	Permission          enums.SharePermission
	NotifyOnReservation bool
	ExpiresInDays       *int
}

// CreateExternalShareDTO holds the fields accepted when creating a link share.
type CreateExternalShareDTO struct {
	Password            string
	NotifyOnReservation bool
	ExpiresInDays       *int
}

// UpdateShareDTO holds the optional fields accepted when editing a share.
type UpdateShareDTO struct {
	Password            *string
	Permission          *enums.SharePermission
	IsActive            *bool
	NotifyOnReservation *bool
}

// ShareInfoDTO is the public preview returned for a share token before the
// password gate.
type ShareInfoDTO struct {
	Title            string     `json:"title"`
	Description      *string    `json:"description,omitempty"`
	Occasion         *string    `json:"occasion,omitempty"`
	OwnerName        string     `json:"owner_name"`
	EventDate        *time.Time `json:"event_date,omitempty"`
	RequiresPassword bool       `json:"requires_password"`
}

// ShareAccessDTO is the full wishlist view returned after password
// verification.
type ShareAccessDTO struct {
	WishlistID  uuid.UUID       `json:"wishlist_id"`
	Title       string          `json:"title"`
	Description *string         `json:"description,omitempty"`
	Occasion    *string         `json:"occasion,omitempty"`
	OwnerName   string          `json:"owner_name"`
	EventDate   *time.Time      `json:"event_date,omitempty"`
	Items       []items.ItemDTO `json:"items"`
}

func fromModel(share models.WishlistShare) ShareDTO {
	return ShareDTO{
		ID:                  share.ID,
		WishlistID:          share.WishlistID,
		ShareType:           share.ShareType,
		TargetUserID:        share.TargetUserID,
		TargetGroupID:       share.TargetGroupID,
		Permission:          share.Permission,
		ShareToken:          share.ShareToken,
		HasPassword:         share.SharePasswordHash != nil,
		NotifyOnReservation: share.NotifyOnReservation,
		CreatedBy:           share.CreatedBy,
		ExpiresAt:           share.ExpiresAt,
		IsActive:            share.IsActive,
		CreatedAt:           share.CreatedAt,
	}
}
