package shares

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wisherr-app/wisherr-backend/internal/activities"
	"github.com/wisherr-app/wisherr-backend/internal/items"
	"github.com/wisherr-app/wisherr-backend/internal/notifications"
	"github.com/wisherr-app/wisherr-backend/pkg/config"
	"github.com/wisherr-app/wisherr-backend/pkg/db/models"
	"github.com/wisherr-app/wisherr-backend/pkg/enums"
	pkgerrors "github.com/wisherr-app/wisherr-backend/pkg/errors"
	"github.com/wisherr-app/wisherr-backend/pkg/security"
)

// UserDirectory resolves share targets and owner display names.
type UserDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// ServiceParams groups dependencies for the shares service.
type ServiceParams struct {
	Repo       Repository
	Users      UserDirectory
	Items      items.Service
	Fanout     notifications.Fanout
	Activities activities.Service
	Shares     config.SharesConfig
	Password   config.PasswordConfig
}

// Service manages internal and external wishlist shares, including the
// unauthenticated token endpoints.
type Service interface {
	CreateInternal(ctx context.Context, principal items.Principal, wishlistID uuid.UUID, dto CreateInternalShareDTO) (*ShareDTO, error)
	CreateExternal(ctx context.Context, principal items.Principal, wishlistID uuid.UUID, dto CreateExternalShareDTO) (*ShareDTO, error)
	ListMine(ctx context.Context, userID uuid.UUID) ([]ShareDTO, error)
	ListSharedWithMe(ctx context.Context, userID uuid.UUID) ([]ShareDTO, error)
	Update(ctx context.Context, principal items.Principal, shareID uuid.UUID, dto UpdateShareDTO) (*ShareDTO, error)
	Delete(ctx context.Context, principal items.Principal, shareID uuid.UUID) error

	Info(ctx context.Context, token string) (*ShareInfoDTO, error)
	Access(ctx context.Context, token, password string) (*ShareAccessDTO, error)
	ReserveByToken(ctx context.Context, token, password string, itemID uuid.UUID, visitorName string) (*items.ItemDTO, error)
	PurchaseByToken(ctx context.Context, token, password string, itemID uuid.UUID, visitorName string) (*items.ItemDTO, error)
}

type service struct {
	repo       Repository
	users      UserDirectory
	items      items.Service
	fanout     notifications.Fanout
	activities activities.Service
	cfg        config.SharesConfig
	passwords  config.PasswordConfig
	now        func() time.Time
}

// NewService wires the shares service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "shares repository required")
	}
	if params.Users == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "user directory required")
	}
	if params.Items == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "items service required")
	}
	if params.Fanout == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notification fanout required")
	}
	if params.Activities == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "activities service required")
	}
	return &service{
		repo:       params.Repo,
		users:      params.Users,
		items:      params.Items,
		fanout:     params.Fanout,
		activities: params.Activities,
		cfg:        params.Shares,
		passwords:  params.Password,
		now:        time.Now,
	}, nil
}

// CreateInternal shares a wishlist with a user or a group the creator
// belongs to. Duplicate active shares for the same target are rejected.
func (s *service) CreateInternal(ctx context.Context, principal items.Principal, wishlistID uuid.UUID, dto CreateInternalShareDTO) (*ShareDTO, error) {
	wishlist, err := s.requireOwnedWishlist(ctx, principal, wishlistID)
	if err != nil {
		return nil, err
	}

	permission := dto.Permission
	if permission == "" {
		permission = enums.SharePermissionViewer
	}
	if !permission.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid share permission")
	}

	share := &models.WishlistShare{
		WishlistID:          wishlistID,
		ShareType:           enums.ShareTypeInternal,
		Permission:          permission,
		NotifyOnReservation: dto.NotifyOnReservation,
		CreatedBy:           principal.UserID,
		IsActive:            true,
		ExpiresAt:           expiryFromDays(dto.ExpiresInDays, s.now()),
	}

	var targetUser *models.User
	switch {
	case dto.TargetGroupID != nil:
		ok, err := s.repo.GroupAccessible(ctx, *dto.TargetGroupID, principal.UserID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check group")
		}
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "no access to group")
		}
		share.TargetGroupID = dto.TargetGroupID
	case dto.TargetUsername != nil || dto.TargetEmail != nil:
		targetUser, err = s.resolveTargetUser(ctx, dto.TargetUsername, dto.TargetEmail)
		if err != nil {
			return nil, err
		}
		if targetUser.ID == principal.UserID {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot share a wishlist with yourself")
		}
		id := targetUser.ID
		share.TargetUserID = &id
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "share target required")
	}

	existing, err := s.repo.FindDuplicateInternal(ctx, wishlistID, share.TargetUserID, share.TargetGroupID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check duplicate share")
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "wishlist already shared with this target")
	}

	if err := s.repo.Create(ctx, share); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create share")
	}

	s.notifyShareTargets(ctx, wishlist, share, principal.UserID)
	s.recordShareActivity(ctx, principal.UserID, enums.ActivityActionShareCreated, share, wishlist)

	result := fromModel(*share)
	return &result, nil
}

// CreateExternal creates a tokenized public link. The password is mandatory
// and at most one active external share may exist per wishlist.
func (s *service) CreateExternal(ctx context.Context, principal items.Principal, wishlistID uuid.UUID, dto CreateExternalShareDTO) (*ShareDTO, error) {
	wishlist, err := s.requireOwnedWishlist(ctx, principal, wishlistID)
	if err != nil {
		return nil, err
	}

	if len(dto.Password) < s.cfg.MinPasswordLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("share password must be at least %d characters", s.cfg.MinPasswordLength))
	}

	existing, err := s.repo.FindActiveExternal(ctx, wishlistID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check external share")
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "wishlist already has an active link share")
	}

	token, err := security.GenerateShareToken(s.cfg.TokenBytes)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate share token")
	}
	hash, err := security.HashPassword(dto.Password, s.passwords)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash share password")
	}

	share := &models.WishlistShare{
		WishlistID:          wishlistID,
		ShareType:           enums.ShareTypeExternal,
		Permission:          enums.SharePermissionViewer,
		ShareToken:          &token,
		SharePasswordHash:   &hash,
		NotifyOnReservation: dto.NotifyOnReservation,
		CreatedBy:           principal.UserID,
		IsActive:            true,
		ExpiresAt:           expiryFromDays(dto.ExpiresInDays, s.now()),
	}
	if err := s.repo.Create(ctx, share); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create share")
	}

	s.recordShareActivity(ctx, principal.UserID, enums.ActivityActionShareCreated, share, wishlist)

	result := fromModel(*share)
	return &result, nil
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID) ([]ShareDTO, error) {
	rows, err := s.repo.ListByCreator(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shares")
	}
	result := make([]ShareDTO, 0, len(rows))
	for _, row := range rows {
		result = append(result, fromModel(row))
	}
	return result, nil
}

// ListSharedWithMe returns the shares reaching the user, keeping only the
// newest share per wishlist when direct and group shares overlap.
func (s *service) ListSharedWithMe(ctx context.Context, userID uuid.UUID) ([]ShareDTO, error) {
	rows, err := s.repo.ListSharedWithUser(ctx, userID, s.now().UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shared wishlists")
	}

	seen := map[uuid.UUID]struct{}{}
	result := make([]ShareDTO, 0, len(rows))
	for _, row := range rows {
		if _, ok := seen[row.WishlistID]; ok {
			continue
		}
		seen[row.WishlistID] = struct{}{}
		result = append(result, fromModel(row))
	}
	return result, nil
}

func (s *service) Update(ctx context.Context, principal items.Principal, shareID uuid.UUID, dto UpdateShareDTO) (*ShareDTO, error) {
	share, err := s.requireOwnShare(ctx, principal, shareID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if dto.Password != nil {
		if share.ShareType != enums.ShareTypeExternal {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "password can only change on external shares")
		}
		if len(*dto.Password) < s.cfg.MinPasswordLength {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("share password must be at least %d characters", s.cfg.MinPasswordLength))
		}
		hash, err := security.HashPassword(*dto.Password, s.passwords)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash share password")
		}
		updates["share_password_hash"] = hash
	}
	if dto.Permission != nil {
		if share.ShareType != enums.ShareTypeInternal {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "permission can only change on internal shares")
		}
		if !dto.Permission.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid share permission")
		}
		updates["permission"] = *dto.Permission
	}
	if dto.IsActive != nil {
		updates["is_active"] = *dto.IsActive
	}
	if dto.NotifyOnReservation != nil {
		updates["notify_on_reservation"] = *dto.NotifyOnReservation
	}

	if len(updates) > 0 {
		found, err := s.repo.Update(ctx, shareID, updates)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update share")
		}
		if !found {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "share not found")
		}
	}

	updated, err := s.repo.FindByID(ctx, shareID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload share")
	}
	result := fromModel(*updated)
	return &result, nil
}

func (s *service) Delete(ctx context.Context, principal items.Principal, shareID uuid.UUID) error {
	share, err := s.requireOwnShare(ctx, principal, shareID)
	if err != nil {
		return err
	}

	found, err := s.repo.Delete(ctx, shareID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete share")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "share not found")
	}

	s.recordShareActivity(ctx, principal.UserID, enums.ActivityActionShareDeleted, share, nil)
	return nil
}

// Info returns the pre-password preview for a share token.
func (s *service) Info(ctx context.Context, token string) (*ShareInfoDTO, error) {
	share, wishlist, err := s.loadShareable(ctx, token)
	if err != nil {
		return nil, err
	}

	ownerName := ""
	if owner, err := s.users.FindByID(ctx, wishlist.OwnerID); err == nil {
		ownerName = owner.Username
	}

	return &ShareInfoDTO{
		Title:            wishlist.Title,
		Description:      wishlist.Description,
		Occasion:         wishlist.Occasion,
		OwnerName:        ownerName,
		EventDate:        wishlist.EventDate,
		RequiresPassword: share.SharePasswordHash != nil,
	}, nil
}

// Access verifies the share password and returns the wishlist with its
// items. External visitors always see true reservation state.
func (s *service) Access(ctx context.Context, token, password string) (*ShareAccessDTO, error) {
	share, wishlist, err := s.loadShareable(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := s.checkPassword(share, password); err != nil {
		return nil, err
	}

	listed, err := s.items.ListForVisitor(ctx, wishlist.ID)
	if err != nil {
		return nil, err
	}

	ownerName := ""
	if owner, err := s.users.FindByID(ctx, wishlist.OwnerID); err == nil {
		ownerName = owner.Username
	}

	return &ShareAccessDTO{
		WishlistID:  wishlist.ID,
		Title:       wishlist.Title,
		Description: wishlist.Description,
		Occasion:    wishlist.Occasion,
		OwnerName:   ownerName,
		EventDate:   wishlist.EventDate,
		Items:       listed,
	}, nil
}

func (s *service) ReserveByToken(ctx context.Context, token, password string, itemID uuid.UUID, visitorName string) (*items.ItemDTO, error) {
	share, wishlist, err := s.loadShareable(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := s.checkPassword(share, password); err != nil {
		return nil, err
	}

	item, err := s.items.ReserveAsVisitor(ctx, wishlist.ID, itemID, visitorName)
	if err != nil {
		return nil, err
	}

	if share.NotifyOnReservation {
		link := fmt.Sprintf("/wishlists/%s", wishlist.ID)
		targetType := "item"
		targetID := item.ID
		s.fanout.NotifyUser(ctx, wishlist.OwnerID, notifications.EventParams{
			Type:       enums.NotificationTypeItemReserved,
			Title:      "Item reserved",
			Message:    fmt.Sprintf("%s reserved %q on %q", strings.TrimSpace(visitorName), item.Name, wishlist.Title),
			Icon:       "gift",
			Link:       &link,
			TargetType: &targetType,
			TargetID:   &targetID,
		})
	}
	return item, nil
}

func (s *service) PurchaseByToken(ctx context.Context, token, password string, itemID uuid.UUID, visitorName string) (*items.ItemDTO, error) {
	share, wishlist, err := s.loadShareable(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := s.checkPassword(share, password); err != nil {
		return nil, err
	}

	item, err := s.items.PurchaseAsVisitor(ctx, wishlist.ID, itemID, visitorName)
	if err != nil {
		return nil, err
	}

	if share.NotifyOnReservation {
		targetType := "item"
		targetID := item.ID
		s.fanout.NotifyUser(ctx, wishlist.OwnerID, notifications.EventParams{
			Type:       enums.NotificationTypeItemPurchased,
			Title:      "Item purchased",
			Message:    fmt.Sprintf("%q was purchased on %q", item.Name, wishlist.Title),
			Icon:       "gift",
			TargetType: &targetType,
			TargetID:   &targetID,
		})
	}
	return item, nil
}

// loadShareable resolves a token to its share and wishlist. Unknown tokens
// are NotFound; inactive or expired shares are Forbidden.
func (s *service) loadShareable(ctx context.Context, token string) (*models.WishlistShare, *models.Wishlist, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "share token required")
	}

	share, err := s.repo.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "share not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load share")
	}
	if !share.IsActive {
		return nil, nil, pkgerrors.New(pkgerrors.CodeForbidden, "share link is disabled")
	}
	if share.Expired(s.now().UTC()) {
		return nil, nil, pkgerrors.New(pkgerrors.CodeForbidden, "share link has expired")
	}

	wishlist, err := s.repo.FindWishlist(ctx, share.WishlistID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "wishlist not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wishlist")
	}
	return share, wishlist, nil
}

func (s *service) checkPassword(share *models.WishlistShare, password string) error {
	if share.SharePasswordHash == nil {
		return nil
	}
	if password == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "share password required")
	}
	ok, err := security.VerifyPassword(password, *share.SharePasswordHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify share password")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid share password")
	}
	return nil
}

func (s *service) requireOwnedWishlist(ctx context.Context, principal items.Principal, wishlistID uuid.UUID) (*models.Wishlist, error) {
	wishlist, err := s.repo.FindWishlist(ctx, wishlistID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "wishlist not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wishlist")
	}
	if wishlist.OwnerID != principal.UserID && !principal.IsAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the owner can manage shares")
	}
	return wishlist, nil
}

func (s *service) requireOwnShare(ctx context.Context, principal items.Principal, shareID uuid.UUID) (*models.WishlistShare, error) {
	share, err := s.repo.FindByID(ctx, shareID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "share not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load share")
	}
	if share.CreatedBy != principal.UserID && !principal.IsAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the share creator can manage it")
	}
	return share, nil
}

func (s *service) resolveTargetUser(ctx context.Context, username, email *string) (*models.User, error) {
	var (
		user *models.User
		err  error
	)
	switch {
	case username != nil && strings.TrimSpace(*username) != "":
		user, err = s.users.FindByUsername(ctx, strings.TrimSpace(*username))
	case email != nil && strings.TrimSpace(*email) != "":
		user, err = s.users.FindByEmail(ctx, strings.TrimSpace(*email))
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "target username or email required")
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "target user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find target user")
	}
	return user, nil
}

// notifyShareTargets tells the target user, or every group member except the
// creator, that a wishlist was shared with them.
func (s *service) notifyShareTargets(ctx context.Context, wishlist *models.Wishlist, share *models.WishlistShare, creator uuid.UUID) {
	link := fmt.Sprintf("/shared/%s", wishlist.ID)
	targetType := "wishlist"
	targetID := wishlist.ID
	event := notifications.EventParams{
		Type:       enums.NotificationTypeShareReceived,
		Title:      "Wishlist shared with you",
		Message:    fmt.Sprintf("%q was shared with you", wishlist.Title),
		Icon:       "share",
		Link:       &link,
		TargetType: &targetType,
		TargetID:   &targetID,
	}

	switch {
	case share.TargetUserID != nil:
		s.fanout.NotifyUser(ctx, *share.TargetUserID, event)
	case share.TargetGroupID != nil:
		members, err := s.repo.GroupMemberIDs(ctx, *share.TargetGroupID)
		if err != nil {
			return
		}
		for _, member := range members {
			if member == creator {
				continue
			}
			s.fanout.NotifyUser(ctx, member, event)
		}
	}
}

func (s *service) recordShareActivity(ctx context.Context, actor uuid.UUID, action enums.ActivityAction, share *models.WishlistShare, wishlist *models.Wishlist) {
	shareID := share.ID
	wishlistID := share.WishlistID
	var name *string
	isPublic := false
	if wishlist != nil {
		title := wishlist.Title
		name = &title
		isPublic = wishlist.IsPublic
	}
	s.activities.Record(ctx, activities.RecordParams{
		UserID:     actor,
		Action:     action,
		TargetType: "share",
		TargetID:   &shareID,
		TargetName: name,
		WishlistID: &wishlistID,
		IsPublic:   isPublic,
	})
}

func expiryFromDays(days *int, now time.Time) *time.Time {
	if days == nil || *days <= 0 {
		return nil
	}
	expiry := now.UTC().AddDate(0, 0, *days)
	return &expiry
}
