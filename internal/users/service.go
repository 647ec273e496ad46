package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wisherr-app/wisherr-backend/pkg/db/models"
	pkgerrors "github.com/wisherr-app/wisherr-backend/pkg/errors"
)

const (
	minSearchLength   = 2
	searchResultLimit = 20
	defaultAdminLimit = 50
	maxAdminPageLimit = 200
)

// Actor identifies the caller of a user-directory operation.
type Actor struct {
	UserID  uuid.UUID
	IsAdmin bool
}

// AdminUserList is one page of the admin user listing.
type AdminUserList struct {
	Items  []UserDTO `json:"items"`
	Total  int64     `json:"total"`
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
}

// Store is the repository surface the user service needs.
type Store interface {
	SearchByUsername(ctx context.Context, query string, excludeID uuid.UUID, limit int) ([]models.User, error)
	ListAll(ctx context.Context, limit, offset int) ([]models.User, int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error
}

// Service exposes user search and the admin user surface.
type Service interface {
	Search(ctx context.Context, actor Actor, query string) ([]PublicUserDTO, error)
	AdminList(ctx context.Context, actor Actor, limit, offset int) (*AdminUserList, error)
	AdminDelete(ctx context.Context, actor Actor, userID uuid.UUID) error
}

type service struct {
	store Store
	now   func() time.Time
}

// NewService wires the user service.
func NewService(store Store) (Service, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "user store required")
	}
	return &service{store: store, now: time.Now}, nil
}

func (s *service) Search(ctx context.Context, actor Actor, query string) ([]PublicUserDTO, error) {
	query = strings.TrimSpace(query)
	if len(query) < minSearchLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "search query must be at least 2 characters")
	}

	found, err := s.store.SearchByUsername(ctx, query, actor.UserID, searchResultLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search users")
	}

	results := make([]PublicUserDTO, 0, len(found))
	for i := range found {
		results = append(results, *PublicFromModel(&found[i]))
	}
	return results, nil
}

func (s *service) AdminList(ctx context.Context, actor Actor, limit, offset int) (*AdminUserList, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultAdminLimit
	}
	if limit > maxAdminPageLimit {
		limit = maxAdminPageLimit
	}
	if offset < 0 {
		offset = 0
	}

	found, total, err := s.store.ListAll(ctx, limit, offset)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}

	items := make([]UserDTO, 0, len(found))
	for i := range found {
		items = append(items, *FromModel(&found[i]))
	}
	return &AdminUserList{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}

func (s *service) AdminDelete(ctx context.Context, actor Actor, userID uuid.UUID) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if userID == actor.UserID {
		return pkgerrors.New(pkgerrors.CodeValidation, "admins cannot delete their own account")
	}

	if _, err := s.store.FindByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find user")
	}

	if err := s.store.SoftDelete(ctx, userID, s.now().UTC()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete user")
	}
	return nil
}

func requireAdmin(actor Actor) error {
	if !actor.IsAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "admin access required")
	}
	return nil
}
