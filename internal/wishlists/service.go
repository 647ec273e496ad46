package wishlists

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wisherr-app/wisherr-backend/internal/access"
	"github.com/wisherr-app/wisherr-backend/internal/activities"
	"github.com/wisherr-app/wisherr-backend/internal/items"
	"github.com/wisherr-app/wisherr-backend/internal/notifications"
	"github.com/wisherr-app/wisherr-backend/pkg/config"
	"github.com/wisherr-app/wisherr-backend/pkg/db/models"
	"github.com/wisherr-app/wisherr-backend/pkg/enums"
	pkgerrors "github.com/wisherr-app/wisherr-backend/pkg/errors"
	"github.com/wisherr-app/wisherr-backend/pkg/security"
)

// UserDirectory resolves collaborator targets and display names.
type UserDirectory interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error)
}

// ServiceParams groups dependencies for the wishlists service.
type ServiceParams struct {
	Repo       Repository
	Access     access.Service
	Users      UserDirectory
	Fanout     notifications.Fanout
	Activities activities.Service
	Password   config.PasswordConfig
}

// Service manages wishlists, their settings, and collaborators.
type Service interface {
	List(ctx context.Context, userID uuid.UUID, includeArchived bool) ([]WishlistDTO, error)
	Get(ctx context.Context, principal items.Principal, wishlistID uuid.UUID) (*WishlistDetailDTO, error)
	Create(ctx context.Context, userID uuid.UUID, dto CreateWishlistDTO) (*WishlistDTO, error)
	Update(ctx context.Context, principal items.Principal, wishlistID uuid.UUID, dto UpdateWishlistDTO) (*WishlistDTO, error)
	Delete(ctx context.Context, principal items.Principal, wishlistID uuid.UUID) error
	TransferOwnership(ctx context.Context, principal items.Principal, wishlistID uuid.UUID, newOwnerUsername string) (*WishlistDTO, error)
	UpdateSettings(ctx context.Context, principal items.Principal, wishlistID uuid.UUID, dto UpdateSettingsDTO) (*WishlistDTO, error)

	ListCollaborators(ctx context.Context, principal items.Principal, wishlistID uuid.UUID) ([]CollaboratorDTO, error)
	AddCollaborator(ctx context.Context, principal items.Principal, wishlistID uuid.UUID, username string, role enums.CollaboratorRole) (*CollaboratorDTO, error)
	UpdateCollaboratorRole(ctx context.Context, principal items.Principal, wishlistID, userID uuid.UUID, role enums.CollaboratorRole) error
	RemoveCollaborator(ctx context.Context, principal items.Principal, wishlistID, userID uuid.UUID) error
}

type service struct {
	repo       Repository
	access     access.Service
	users      UserDirectory
	fanout     notifications.Fanout
	activities activities.Service
	passwords  config.PasswordConfig
	now        func() time.Time
}

// NewService wires the wishlists service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "wishlists repository required")
	}
	if params.Access == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "access resolver required")
	}
	if params.Users == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "user directory required")
	}
	if params.Fanout == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notification fanout required")
	}
	if params.Activities == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "activities service required")
	}
	return &service{
		repo:       params.Repo,
		access:     params.Access,
		users:      params.Users,
		fanout:     params.Fanout,
		activities: params.Activities,
		passwords:  params.Password,
		now:        time.Now,
	}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, includeArchived bool) ([]WishlistDTO, error) {
	rows, err := s.repo.ListByOwner(ctx, userID, includeArchived)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wishlists")
	}
	result := make([]WishlistDTO, 0, len(rows))
	for _, row := range rows {
		result = append(result, fromModel(row.Wishlist, row.ItemCount))
	}
	return result, nil
}

// Get returns the wishlist along with the caller's resolved role.
func (s *service) Get(ctx context.Context, principal items.Principal, wishlistID uuid.UUID) (*WishlistDetailDTO, error) {
	grant, err := s.access.RequireView(ctx, wishlistID, principal.UserID, principal.IsAdmin)
	if err != nil {
		return nil, err
	}

	count, err := s.repo.CountItems(ctx, wishlistID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count items")
	}

	return &WishlistDetailDTO{
		WishlistDTO: fromModel(*grant.Wishlist, count),
		Role:        grant.Role,
		Source:      grant.Source,
	}, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, dto CreateWishlistDTO) (*WishlistDTO, error) {
	title := strings.TrimSpace(dto.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wishlist title required")
	}

	wishlist := &models.Wishlist{
		OwnerID:                  userID,
		Title:                    title,
		Description:              dto.Description,
		ImageURL:                 dto.ImageURL,
		Occasion:                 dto.Occasion,
		EventDate:                dto.EventDate,
		IsPublic:                 dto.IsPublic,
		NotifyOwnerOnReservation: true,
	}
	if dto.CoverColor != nil && *dto.CoverColor != "" {
		wishlist.CoverColor = *dto.CoverColor
	}

	if err := s.repo.Create(ctx, wishlist); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create wishlist")
	}

	s.recordWishlistActivity(ctx, userID, enums.ActivityActionWishlistCreated, wishlist)

	result := fromModel(*wishlist, 0)
	return &result, nil
}

func (s *service) Update(ctx context.Context, principal items.Principal, wishlistID uuid.UUID, dto UpdateWishlistDTO) (*WishlistDTO, error) {
	if _, err := s.access.RequireEdit(ctx, wishlistID, principal.UserID, principal.IsAdmin); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if dto.Title != nil {
		title := strings.TrimSpace(*dto.Title)
		if title == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "wishlist title required")
		}
		updates["title"] = title
	}
	if dto.Description != nil {
		updates["description"] = dto.Description
	}
	if dto.ImageURL != nil {
		updates["image_url"] = dto.ImageURL
	}
	if dto.Occasion != nil {
		updates["occasion"] = dto.Occasion
	}
	if dto.EventDate != nil {
		updates["event_date"] = dto.EventDate
	}
	if dto.CoverColor != nil && *dto.CoverColor != "" {
		updates["cover_color"] = *dto.CoverColor
	}
	if dto.IsArchived != nil {
		updates["is_archived"] = *dto.IsArchived
	}

	return s.applyUpdates(ctx, principal, wishlistID, updates, enums.ActivityActionWishlistUpdated)
}

func (s *service) Delete(ctx context.Context, principal items.Principal, wishlistID uuid.UUID) error {
	grant, err := s.access.RequireOwner(ctx, wishlistID, principal.UserID, principal.IsAdmin)
	if err != nil {
		return err
	}

	found, err := s.repo.Delete(ctx, wishlistID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete wishlist")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "wishlist not found")
	}

	s.recordWishlistActivity(ctx, principal.UserID, enums.ActivityActionWishlistDeleted, grant.Wishlist)
	return nil
}

// TransferOwnership hands the wishlist to another user. The new owner's
// collaborator row, if any, is dropped since ownership supersedes it.
func (s *service) TransferOwnership(ctx context.Context, principal items.Principal, wishlistID uuid.UUID, newOwnerUsername string) (*WishlistDTO, error) {
	grant, err := s.access.RequireOwner(ctx, wishlistID, principal.UserID, principal.IsAdmin)
	if err != nil {
		return nil, err
	}

	target, err := s.users.FindByUsername(ctx, strings.TrimSpace(newOwnerUsername))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "target user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find target user")
	}
	if target.ID == grant.Wishlist.OwnerID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user already owns this wishlist")
	}

	found, err := s.repo.Update(ctx, wishlistID, map[string]any{
		"owner_id":   target.ID,
		"updated_at": s.now().UTC(),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "transfer wishlist")
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "wishlist not found")
	}
	if _, err := s.repo.RemoveCollaborator(ctx, wishlistID, target.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "drop collaborator row")
	}

	targetType := "wishlist"
	targetID := wishlistID
	s.fanout.NotifyUser(ctx, target.ID, notifications.EventParams{
		Type:       enums.NotificationTypeSystem,
		Title:      "Wishlist transferred to you",
		Message:    fmt.Sprintf("You are now the owner of %q", grant.Wishlist.Title),
		TargetType: &targetType,
		TargetID:   &targetID,
	})
	s.recordWishlistActivity(ctx, principal.UserID, enums.ActivityActionWishlistUpdated, grant.Wishlist)

	return s.reload(ctx, wishlistID)
}

// UpdateSettings applies the owner-only toggles: surprise mode, public
// visibility, and the wishlist share password.
func (s *service) UpdateSettings(ctx context.Context, principal items.Principal, wishlistID uuid.UUID, dto UpdateSettingsDTO) (*WishlistDTO, error) {
	if _, err := s.access.RequireOwner(ctx, wishlistID, principal.UserID, principal.IsAdmin); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if dto.NotifyOwnerOnReservation != nil {
		updates["notify_owner_on_reservation"] = *dto.NotifyOwnerOnReservation
	}
	if dto.IsPublic != nil {
		updates["is_public"] = *dto.IsPublic
	}
	if dto.SharePassword != nil {
		if *dto.SharePassword == "" {
			updates["share_password_hash"] = nil
		} else {
			hash, err := security.HashPassword(*dto.SharePassword, s.passwords)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash share password")
			}
			updates["share_password_hash"] = hash
		}
	}

	return s.applyUpdates(ctx, principal, wishlistID, updates, enums.ActivityActionWishlistUpdated)
}

func (s *service) ListCollaborators(ctx context.Context, principal items.Principal, wishlistID uuid.UUID) ([]CollaboratorDTO, error) {
	if _, err := s.access.RequireView(ctx, wishlistID, principal.UserID, principal.IsAdmin); err != nil {
		return nil, err
	}

	rows, err := s.repo.ListCollaborators(ctx, wishlistID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list collaborators")
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.UserID)
	}
	usersByID := map[uuid.UUID]models.User{}
	if resolved, err := s.users.FindByIDs(ctx, ids); err == nil {
		for _, user := range resolved {
			usersByID[user.ID] = user
		}
	}

	result := make([]CollaboratorDTO, 0, len(rows))
	for _, row := range rows {
		dto := CollaboratorDTO{
			UserID:     row.UserID,
			Role:       row.Role,
			InvitedAt:  row.InvitedAt,
			AcceptedAt: row.AcceptedAt,
		}
		if user, ok := usersByID[row.UserID]; ok {
			dto.Username = user.Username
		}
		result = append(result, dto)
	}
	return result, nil
}

// AddCollaborator invites a user by username. Owner-only; adding an existing
// collaborator refreshes their role.
func (s *service) AddCollaborator(ctx context.Context, principal items.Principal, wishlistID uuid.UUID, username string, role enums.CollaboratorRole) (*CollaboratorDTO, error) {
	grant, err := s.access.RequireOwner(ctx, wishlistID, principal.UserID, principal.IsAdmin)
	if err != nil {
		return nil, err
	}

	if role == "" {
		role = enums.CollaboratorRoleViewer
	}
	if !role.IsValid() || role == enums.CollaboratorRoleOwner {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "collaborator role must be viewer or editor")
	}

	target, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "target user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find target user")
	}
	if target.ID == grant.Wishlist.OwnerID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "the owner is not a collaborator")
	}

	collaborator := &models.WishlistCollaborator{
		WishlistID: wishlistID,
		UserID:     target.ID,
		Role:       role,
	}
	if err := s.repo.UpsertCollaborator(ctx, collaborator); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add collaborator")
	}

	targetType := "wishlist"
	targetID := wishlistID
	s.fanout.NotifyUser(ctx, target.ID, notifications.EventParams{
		Type:       enums.NotificationTypeCollaborator,
		Title:      "Added as a collaborator",
		Message:    fmt.Sprintf("You can now %s %q", roleVerb(role), grant.Wishlist.Title),
		TargetType: &targetType,
		TargetID:   &targetID,
	})

	return &CollaboratorDTO{
		UserID:    target.ID,
		Username:  target.Username,
		Role:      role,
		InvitedAt: collaborator.InvitedAt,
	}, nil
}

func (s *service) UpdateCollaboratorRole(ctx context.Context, principal items.Principal, wishlistID, userID uuid.UUID, role enums.CollaboratorRole) error {
	if _, err := s.access.RequireOwner(ctx, wishlistID, principal.UserID, principal.IsAdmin); err != nil {
		return err
	}
	if !role.IsValid() || role == enums.CollaboratorRoleOwner {
		return pkgerrors.New(pkgerrors.CodeValidation, "collaborator role must be viewer or editor")
	}

	found, err := s.repo.UpdateCollaboratorRole(ctx, wishlistID, userID, role)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update collaborator")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "collaborator not found")
	}
	return nil
}

// RemoveCollaborator drops a collaborator. The owner removes anyone; a
// collaborator may remove themselves.
func (s *service) RemoveCollaborator(ctx context.Context, principal items.Principal, wishlistID, userID uuid.UUID) error {
	grant, err := s.access.RequireView(ctx, wishlistID, principal.UserID, principal.IsAdmin)
	if err != nil {
		return err
	}
	if !grant.IsOwner() && userID != principal.UserID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the owner can remove other collaborators")
	}

	found, err := s.repo.RemoveCollaborator(ctx, wishlistID, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove collaborator")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "collaborator not found")
	}
	return nil
}

func (s *service) applyUpdates(ctx context.Context, principal items.Principal, wishlistID uuid.UUID, updates map[string]any, action enums.ActivityAction) (*WishlistDTO, error) {
	if len(updates) > 0 {
		updates["updated_at"] = s.now().UTC()
		found, err := s.repo.Update(ctx, wishlistID, updates)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update wishlist")
		}
		if !found {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "wishlist not found")
		}
	}

	wishlist, err := s.repo.FindByID(ctx, wishlistID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload wishlist")
	}
	count, err := s.repo.CountItems(ctx, wishlistID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count items")
	}
	if len(updates) > 0 {
		s.recordWishlistActivity(ctx, principal.UserID, action, wishlist)
	}
	result := fromModel(*wishlist, count)
	return &result, nil
}

func (s *service) reload(ctx context.Context, wishlistID uuid.UUID) (*WishlistDTO, error) {
	wishlist, err := s.repo.FindByID(ctx, wishlistID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload wishlist")
	}
	count, err := s.repo.CountItems(ctx, wishlistID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count items")
	}
	result := fromModel(*wishlist, count)
	return &result, nil
}

func (s *service) recordWishlistActivity(ctx context.Context, actor uuid.UUID, action enums.ActivityAction, wishlist *models.Wishlist) {
	if wishlist == nil {
		return
	}
	wishlistID := wishlist.ID
	title := wishlist.Title
	s.activities.Record(ctx, activities.RecordParams{
		UserID:     actor,
		Action:     action,
		TargetType: "wishlist",
		TargetID:   &wishlistID,
		TargetName: &title,
		WishlistID: &wishlistID,
		IsPublic:   wishlist.IsPublic,
	})
}

func roleVerb(role enums.CollaboratorRole) string {
	if role.CanEdit() {
		return "edit"
	}
	return "view"
}
