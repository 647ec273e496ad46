package auth

import (
	"github.com/wisherr-app/wisherr-backend/internal/users"
)

// RegisterDTO holds the fields accepted when creating an account.
type RegisterDTO struct {
	Username string
	Email    string
	Password string
	Locale   string
	Theme    string
}

// LoginDTO carries the credential pair for local sign-in.
type LoginDTO struct {
	Username string
	Password string
}

// RefreshDTO carries the expired access token and the refresh token tied
// to its session.
type RefreshDTO struct {
	AccessToken  string
	RefreshToken string
}

// UpdateProfileDTO carries the optional profile fields. A password change
// requires the current password alongside the new one.
type UpdateProfileDTO struct {
	Email           *string
	Locale          *string
	Theme           *string
	CurrentPassword *string
	NewPassword     *string
}

// AuthResponse is the token pair plus the authenticated user.
type AuthResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	TokenType    string         `json:"token_type"`
	ExpiresIn    int            `json:"expires_in"`
	User         *users.UserDTO `json:"user"`
}
