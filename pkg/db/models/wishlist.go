package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/wisherr-app/wisherr-backend/pkg/enums"
)

// Wishlist is the top-level container items and shares hang off of.
type Wishlist struct {
	ID                       uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID                  uuid.UUID  `gorm:"type:uuid;not null;index"`
	Title                    string     `gorm:"type:text;not null"`
	Description              *string    `gorm:"type:text"`
	ImageURL                 *string    `gorm:"column:image_url"`
	IsPublic                 bool       `gorm:"column:is_public;not null;default:false"`
	SharePasswordHash        *string    `gorm:"column:share_password_hash"`
	Occasion                 *string    `gorm:"type:text"`
	EventDate                *time.Time `gorm:"column:event_date"`
	IsArchived               bool       `gorm:"column:is_archived;not null;default:false"`
	CoverColor               string     `gorm:"column:cover_color;not null;default:'#6366f1'"`
	NotifyOwnerOnReservation bool       `gorm:"column:notify_owner_on_reservation;not null;default:true"`
	CreatedAt                time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt                time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// WishlistCollaborator grants a user a role on someone else's wishlist.
type WishlistCollaborator struct {
	ID         uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	WishlistID uuid.UUID              `gorm:"type:uuid;not null;uniqueIndex:idx_collaborator_wishlist_user"`
	UserID     uuid.UUID              `gorm:"type:uuid;not null;uniqueIndex:idx_collaborator_wishlist_user"`
	Role       enums.CollaboratorRole `gorm:"type:text;not null;default:'viewer'"`
	InvitedAt  time.Time              `gorm:"column:invited_at;autoCreateTime"`
	AcceptedAt *time.Time             `gorm:"column:accepted_at"`
}

// WishlistShare records either an internal share (user or group target) or an
// external tokenized link.
type WishlistShare struct {
	ID                  uuid.UUID             `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	WishlistID          uuid.UUID             `gorm:"type:uuid;not null;index"`
	ShareType           enums.ShareType       `gorm:"column:share_type;type:text;not null"`
	TargetUserID        *uuid.UUID            `gorm:"column:target_user_id;type:uuid"`
	TargetGroupID       *uuid.UUID            `gorm:"column:target_group_id;type:uuid"`
	Permission          enums.SharePermission `gorm:"type:text;not null;default:'viewer'"`
	ShareToken          *string               `gorm:"column:share_token;uniqueIndex"`
	SharePasswordHash   *string               `gorm:"column:share_password_hash"`
	NotifyOnReservation bool                  `gorm:"column:notify_on_reservation;not null;default:false"`
	CreatedBy           uuid.UUID             `gorm:"column:created_by;type:uuid;not null"`
	ExpiresAt           *time.Time            `gorm:"column:expires_at"`
	IsActive            bool                  `gorm:"column:is_active;not null;default:true"`
	CreatedAt           time.Time             `gorm:"column:created_at;autoCreateTime"`
}

// Expired reports whether the share carries an expiry in the past.
func (s WishlistShare) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && s.ExpiresAt.Before(now)
}
