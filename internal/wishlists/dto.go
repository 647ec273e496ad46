package wishlists

import (
	"time"

	"github.com/google/uuid"

	"github.com/wisherr-app/wisherr-backend/internal/access"
	"github.com/wisherr-app/wisherr-backend/pkg/db/models"
	"github.com/wisherr-app/wisherr-backend/pkg/enums"
)

// WishlistDTO is the transport shape of a wishlist row.
type WishlistDTO struct {
	ID                       uuid.UUID  `json:"id"`
	OwnerID                  uuid.UUID  `json:"owner_id"`
	Title                    string     `json:"title"`
	Description              *string    `json:"description,omitempty"`
	ImageURL                 *string    `json:"image_url,omitempty"`
	IsPublic                 bool       `json:"is_public"`
	HasSharePassword         bool       `json:"has_share_password"`
	Occasion                 *string    `json:"occasion,omitempty"`
	EventDate                *time.Time `json:"event_date,omitempty"`
	IsArchived               bool       `json:"is_archived"`
	CoverColor               string     `json:"cover_color"`
	NotifyOwnerOnReservation bool       `json:"notify_owner_on_reservation"`
	ItemCount                int64      `json:"item_count"`
	CreatedAt                time.Time  `json:"created_at"`
	UpdatedAt                time.Time  `json:"updated_at"`
}

// WishlistDetailDTO adds the caller's resolved access to the wishlist shape.
type WishlistDetailDTO struct {
	WishlistDTO
	Role   enums.CollaboratorRole `json:"role"`
	Source access.Source          `json:"access_source"`
}

// CreateWishlistDTO holds the fields accepted when creating a wishlist.
type CreateWishlistDTO struct {
	Title       string
	Description *string
	ImageURL    *string
	Occasion    *string
	EventDate   *time.Time
	CoverColor  *string
	IsPublic    bool
}

// UpdateWishlistDTO holds the optional fields accepted when editing a
// wishlist's content.
type UpdateWishlistDTO struct {
	Title       *string
	Description *string
	ImageURL    *string
	Occasion    *string
	EventDate   *time.Time
	CoverColor  *string
	IsArchived  *bool
}

// UpdateSettingsDTO holds the owner-only settings toggles.
type UpdateSettingsDTO struct {
	NotifyOwnerOnReservation *bool
	IsPublic                 *bool
	SharePassword            *string
}

// CollaboratorDTO is one collaborator row with the resolved username.
type CollaboratorDTO struct {
	UserID     uuid.UUID              `json:"user_id"`
	Username   string                 `json:"username"`
	Role       enums.CollaboratorRole `json:"role"`
	InvitedAt  time.Time              `json:"invited_at"`
	AcceptedAt *time.Time             `json:"accepted_at,omitempty"`
}

func fromModel(wishlist models.Wishlist, itemCount int64) WishlistDTO {
	return WishlistDTO{
		ID:                       wishlist.ID,
		OwnerID:                  wishlist.OwnerID,
		Title:                    wishlist.Title,
		Description:              wishlist.Description,
		ImageURL:                 wishlist.ImageURL,
		IsPublic:                 wishlist.IsPublic,
		HasSharePassword:         wishlist.SharePasswordHash != nil,
		Occasion:                 wishlist.Occasion,
		EventDate:                wishlist.EventDate,
		IsArchived:               wishlist.IsArchived,
		CoverColor:               wishlist.CoverColor,
		NotifyOwnerOnReservation: wishlist.NotifyOwnerOnReservation,
		ItemCount:                itemCount,
		CreatedAt:                wishlist.CreatedAt,
		UpdatedAt:                wishlist.UpdatedAt,
	}
}
