package auth

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wisherr-app/wisherr-backend/internal/activities"
	"github.com/wisherr-app/wisherr-backend/internal/siteconfig"
	"github.com/wisherr-app/wisherr-backend/internal/users"
	pkgauth "github.com/wisherr-app/wisherr-backend/pkg/auth"
	"github.com/wisherr-app/wisherr-backend/pkg/auth/session"
	"github.com/wisherr-app/wisherr-backend/pkg/config"
	"github.com/wisherr-app/wisherr-backend/pkg/db"
	"github.com/wisherr-app/wisherr-backend/pkg/db/models"
	"github.com/wisherr-app/wisherr-backend/pkg/enums"
	pkgerrors "github.com/wisherr-app/wisherr-backend/pkg/errors"
	"github.com/wisherr-app/wisherr-backend/pkg/logger"
	"github.com/wisherr-app/wisherr-backend/pkg/security"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 30
	minPasswordLength = 8
)

// UserStore is the slice of the users repository the auth flows need.
type UserStore interface {
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, dto users.UpdateProfileDTO) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

// SessionManager abstracts the Redis-backed refresh session store.
type SessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

// Settings exposes the runtime flags auth consults.
type Settings interface {
	GetBool(ctx context.Context, key string, fallback bool) bool
}

// Service implements registration, login, and session lifecycle.
type Service interface {
	Register(ctx context.Context, dto RegisterDTO) (*AuthResponse, error)
	Login(ctx context.Context, dto LoginDTO) (*AuthResponse, error)
	Logout(ctx context.Context, accessID string) error
	Refresh(ctx context.Context, dto RefreshDTO) (*AuthResponse, error)
	Me(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, dto UpdateProfileDTO) (*users.UserDTO, error)
}

// ServiceParams wires auth dependencies.
type ServiceParams struct {
	Users      UserStore
	Sessions   SessionManager
	Settings   Settings
	Activities activities.Service
	Logger     *logger.Logger
	JWT        config.JWTConfig
	Password   config.PasswordConfig
}

type service struct {
	users      UserStore
	sessions   SessionManager
	settings   Settings
	activities activities.Service
	logg       *logger.Logger
	jwt        config.JWTConfig
	password   config.PasswordConfig

	now func() time.Time
}

// NewService validates dependencies and returns the auth service.
func NewService(params ServiceParams) (Service, error) {
	if params.Users == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "user store required")
	}
	if params.Sessions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "session manager required")
	}
	if params.Settings == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "site settings required")
	}
	if params.Activities == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "activities service required")
	}
	return &service{
		users:      params.Users,
		sessions:   params.Sessions,
		settings:   params.Settings,
		activities: params.Activities,
		logg:       params.Logger,
		jwt:        params.JWT,
		password:   params.Password,
		now:        time.Now,
	}, nil
}

func (s *service) Register(ctx context.Context, dto RegisterDTO) (*AuthResponse, error) {
	if err := s.requireLocalAuth(ctx); err != nil {
		return nil, err
	}
	if !s.settings.GetBool(ctx, siteconfig.KeyEnableRegistration, true) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "registration is disabled")
	}

	username := strings.TrimSpace(dto.Username)
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(dto.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a valid email address is required")
	}
	if err := validatePassword(dto.Password); err != nil {
		return nil, err
	}

	if _, err := s.users.FindByUsername(ctx, username); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "username is already taken")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check username")
	}
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email is already in use")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check email")
	}

	hash, err := security.HashPassword(dto.Password, s.password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user, err := s.users.Create(ctx, users.CreateUserDTO{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Locale:       dto.Locale,
		Theme:        dto.Theme,
	})
	if err != nil {
		// The pre-checks above race with concurrent registrations; the
		// unique indexes are the source of truth.
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "username or email is already taken")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}

	s.recordAuthActivity(ctx, user, enums.ActivityActionUserRegistered)

	return s.issueTokens(ctx, user)
}

func (s *service) Login(ctx context.Context, dto LoginDTO) (*AuthResponse, error) {
	if err := s.requireLocalAuth(ctx); err != nil {
		return nil, err
	}

	username := strings.TrimSpace(dto.Username)
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find user")
	}

	ok, err := security.VerifyPassword(dto.Password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		s.recordAuthActivity(ctx, user, enums.ActivityActionLoginFailed)
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID, s.now().UTC()); err != nil && s.logg != nil {
		s.logg.Error(ctx, "auth.update_last_login_failed", err)
	}
	s.recordAuthActivity(ctx, user, enums.ActivityActionUserLogin)

	return s.issueTokens(ctx, user)
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "access id required")
	}
	if err := s.sessions.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) Refresh(ctx context.Context, dto RefreshDTO) (*AuthResponse, error) {
	claims, err := pkgauth.ParseAccessTokenAllowExpired(s.jwt, dto.AccessToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
	}

	newAccessID, refreshToken, err := s.sessions.Rotate(ctx, claims.ID, dto.RefreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account is no longer active")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find user")
	}

	accessToken, err := s.mintAccessToken(user, newAccessID)
	if err != nil {
		return nil, err
	}
	return s.buildResponse(accessToken, refreshToken, user), nil
}

func (s *service) Me(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return users.FromModel(user), nil
}

func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, dto UpdateProfileDTO) (*users.UserDTO, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if dto.NewPassword != nil {
		if err := s.changePassword(ctx, user, dto); err != nil {
			return nil, err
		}
	}

	if dto.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*dto.Email))
		if email == "" || !strings.Contains(email, "@") {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "a valid email address is required")
		}
		if email != strings.ToLower(user.Email) {
			existing, err := s.users.FindByEmail(ctx, email)
			if err == nil && existing.ID != userID {
				return nil, pkgerrors.New(pkgerrors.CodeConflict, "email is already in use")
			}
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check email")
			}
		}
		dto.Email = &email
	}

	err = s.users.UpdateProfile(ctx, userID, users.UpdateProfileDTO{
		Email:  dto.Email,
		Locale: dto.Locale,
		Theme:  dto.Theme,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update profile")
	}

	updated, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return users.FromModel(updated), nil
}

func (s *service) changePassword(ctx context.Context, user *models.User, dto UpdateProfileDTO) error {
	if dto.CurrentPassword == nil || *dto.CurrentPassword == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "current password is required to set a new password")
	}
	ok, err := security.VerifyPassword(*dto.CurrentPassword, user.PasswordHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "current password is incorrect")
	}
	if err := validatePassword(*dto.NewPassword); err != nil {
		return err
	}
	hash, err := security.HashPassword(*dto.NewPassword, s.password)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update password")
	}
	return nil
}

func (s *service) requireLocalAuth(ctx context.Context) error {
	if !s.settings.GetBool(ctx, siteconfig.KeyEnableLocalAuth, true) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "local authentication is disabled")
	}
	return nil
}

func (s *service) loadUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find user")
	}
	return user, nil
}

func (s *service) issueTokens(ctx context.Context, user *models.User) (*AuthResponse, error) {
	accessID := session.NewAccessID()
	refreshToken, err := s.sessions.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create session")
	}
	accessToken, err := s.mintAccessToken(user, accessID)
	if err != nil {
		return nil, err
	}
	return s.buildResponse(accessToken, refreshToken, user), nil
}

func (s *service) mintAccessToken(user *models.User, accessID string) (string, error) {
	token, err := pkgauth.MintAccessToken(s.jwt, s.now(), pkgauth.AccessTokenPayload{
		UserID:   user.ID,
		Username: user.Username,
		IsAdmin:  user.IsAdmin,
		JTI:      accessID,
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	return token, nil
}

func (s *service) buildResponse(accessToken, refreshToken string, user *models.User) *AuthResponse {
	return &AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    s.jwt.ExpirationMinutes * 60,
		User:         users.FromModel(user),
	}
}

func (s *service) recordAuthActivity(ctx context.Context, user *models.User, action enums.ActivityAction) {
	id := user.ID
	name := user.Username
	s.activities.Record(ctx, activities.RecordParams{
		UserID:     user.ID,
		Action:     action,
		TargetType: "user",
		TargetID:   &id,
		TargetName: &name,
	})
}

func validateUsername(username string) error {
	if len(username) < minUsernameLength || len(username) > maxUsernameLength {
		return pkgerrors.New(pkgerrors.CodeValidation, "username must be between 3 and 30 characters")
	}
	for _, r := range username {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '-' && r != '.' {
			return pkgerrors.New(pkgerrors.CodeValidation, "username may only contain letters, digits, underscores, hyphens, and dots")
		}
	}
	return nil
}

func validatePassword(password string) error {
	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSpecial = true
		}
	}
	if len(password) < minPasswordLength || !hasUpper || !hasLower || !hasDigit || !hasSpecial {
		return pkgerrors.New(pkgerrors.CodeValidation,
			"password must be at least 8 characters and include upper and lower case letters, a digit, and a symbol")
	}
	return nil
}
