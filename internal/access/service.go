package access

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wisherr-app/wisherr-backend/pkg/db/models"
	"github.com/wisherr-app/wisherr-backend/pkg/enums"
	pkgerrors "github.com/wisherr-app/wisherr-backend/pkg/errors"
)

// Source names the rule that granted access to a wishlist.
type Source string

const (
	SourceOwner        Source = "owner"
	SourceAdmin        Source = "admin"
	SourceCollaborator Source = "collaborator"
	SourceDirectShare  Source = "direct_share"
	SourceGroupShare   Source = "group_share"
	SourcePublic       Source = "public"
)

// Grant is the resolved access a user holds on a wishlist. The first matching
// rule wins; later rules are never consulted.
type Grant struct {
	Wishlist *models.Wishlist
	Role     enums.CollaboratorRole
	Source   Source
}

// CanEdit reports whether the grant allows content mutation.
func (g Grant) CanEdit() bool {
	return g.Role.CanEdit()
}

// IsOwner reports whether the grant came from ownership or admin override.
func (g Grant) IsOwner() bool {
	return g.Source == SourceOwner || g.Source == SourceAdmin
}

// Service resolves what a user may do with a wishlist.
type Service interface {
	Resolve(ctx context.Context, wishlistID, userID uuid.UUID, isAdmin bool) (Grant, error)
	RequireView(ctx context.Context, wishlistID, userID uuid.UUID, isAdmin bool) (Grant, error)
	RequireEdit(ctx context.Context, wishlistID, userID uuid.UUID, isAdmin bool) (Grant, error)
	RequireOwner(ctx context.Context, wishlistID, userID uuid.UUID, isAdmin bool) (Grant, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService wires the access resolver.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "access repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

// Resolve walks the grant rules in order: ownership and admin override first,
// then collaborator role, then a direct internal share, then a share targeting
// a group the user belongs to, and finally public visibility.
func (s *service) Resolve(ctx context.Context, wishlistID, userID uuid.UUID, isAdmin bool) (Grant, error) {
	if wishlistID == uuid.Nil {
		return Grant{}, pkgerrors.New(pkgerrors.CodeValidation, "wishlist id required")
	}

	wishlist, err := s.repo.FindWishlist(ctx, wishlistID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Grant{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "wishlist not found")
		}
		return Grant{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wishlist")
	}

	if userID != uuid.Nil && wishlist.OwnerID == userID {
		return Grant{Wishlist: wishlist, Role: enums.CollaboratorRoleOwner, Source: SourceOwner}, nil
	}
	if isAdmin {
		return Grant{Wishlist: wishlist, Role: enums.CollaboratorRoleOwner, Source: SourceAdmin}, nil
	}

	if userID != uuid.Nil {
		collaborator, err := s.repo.FindCollaborator(ctx, wishlistID, userID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return Grant{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load collaborator")
		}
		if collaborator != nil {
			return Grant{Wishlist: wishlist, Role: collaborator.Role, Source: SourceCollaborator}, nil
		}

		now := s.now().UTC()
		share, err := s.repo.FindDirectShare(ctx, wishlistID, userID, now)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return Grant{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load direct share")
		}
		if share != nil {
			return Grant{Wishlist: wishlist, Role: share.Permission.Role(), Source: SourceDirectShare}, nil
		}

		share, err = s.repo.FindGroupShare(ctx, wishlistID, userID, now)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return Grant{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load group share")
		}
		if share != nil {
			return Grant{Wishlist: wishlist, Role: share.Permission.Role(), Source: SourceGroupShare}, nil
		}
	}

	if wishlist.IsPublic {
		return Grant{Wishlist: wishlist, Role: enums.CollaboratorRoleViewer, Source: SourcePublic}, nil
	}

	return Grant{}, pkgerrors.New(pkgerrors.CodeForbidden, "no access to wishlist")
}

func (s *service) RequireView(ctx context.Context, wishlistID, userID uuid.UUID, isAdmin bool) (Grant, error) {
	return s.Resolve(ctx, wishlistID, userID, isAdmin)
}

func (s *service) RequireEdit(ctx context.Context, wishlistID, userID uuid.UUID, isAdmin bool) (Grant, error) {
	grant, err := s.Resolve(ctx, wishlistID, userID, isAdmin)
	if err != nil {
		return Grant{}, err
	}
	if !grant.CanEdit() {
		return Grant{}, pkgerrors.New(pkgerrors.CodeForbidden, "edit access required")
	}
	return grant, nil
}

func (s *service) RequireOwner(ctx context.Context, wishlistID, userID uuid.UUID, isAdmin bool) (Grant, error) {
	grant, err := s.Resolve(ctx, wishlistID, userID, isAdmin)
	if err != nil {
		return Grant{}, err
	}
	if !grant.IsOwner() {
		return Grant{}, pkgerrors.New(pkgerrors.CodeForbidden, "owner access required")
	}
	return grant, nil
}
