package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/wisherr-app/wisherr-backend/pkg/db/models"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID          uuid.UUID  `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	IsAdmin     bool       `json:"is_admin"`
	Locale      string     `json:"locale"`
	Theme       string     `json:"theme"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// PublicUserDTO is the shape exposed to other users in search results and
// collaborator listings.
type PublicUserDTO struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Username     string
	Email        string
	PasswordHash string
	IsAdmin      bool
	Locale       string
	Theme        string
}

// UpdateProfileDTO carries the optional profile fields a user can change.
type UpdateProfileDTO struct {
	Email  *string
	Locale *string
	Theme  *string
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		IsAdmin:     u.IsAdmin,
		Locale:      u.Locale,
		Theme:       u.Theme,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func PublicFromModel(u *models.User) *PublicUserDTO {
	if u == nil {
		return nil
	}
	return &PublicUserDTO{ID: u.ID, Username: u.Username}
}

func (c CreateUserDTO) ToModel() *models.User {
	locale := c.Locale
	if locale == "" {
		locale = "en"
	}
	theme := c.Theme
	if theme == "" {
		theme = "system"
	}

	return &models.User{
		Username:     c.Username,
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		IsAdmin:      c.IsAdmin,
		Locale:       locale,
		Theme:        theme,
	}
}
