package items

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
	"github.com/wisherr-app/wisherr-backend/internal/notifications"
	"github.com/wisherr-app/wisherr-backend/pkg/db/models"
	dbtypes "github.com/wisherr-app/wisherr-backend/pkg/db/types"
	"github.com/wisherr-app/wisherr-backend/pkg/enums"
	pkgerrors "github.com/wisherr-app/wisherr-backend/pkg/errors"
)

// Principal identifies the authenticated caller.
type Principal struct {
	UserID   uuid.UUID
	Username string
	IsAdmin  bool
}

// ServiceParams groups dependencies for the items service.
type ServiceParams struct {
	Repo       Repository
	Access     access.Service
	Fanout     notifications.Fanout
	Activities activities.Service
}

// Service exposes item CRUD and the reservation state machine.
type Service interface {
	List(ctx context.Context, principal Principal, wishlistID uuid.UUID, status *enums.ItemStatus) ([]ItemDTO, error)
	Get(ctx context.Context, principal Principal, itemID uuid.UUID) (*ItemDTO, error)
	Create(ctx context.Context, principal Principal, wishlistID uuid.UUID, dto CreateItemDTO) (*ItemDTO, error)
	Update(ctx context.Context, principal Principal, itemID uuid.UUID, dto UpdateItemDTO) (*ItemDTO, error)
	Delete(ctx context.Context, principal Principal, itemID uuid.UUID) error
	Reorder(ctx context.Context, principal Principal, wishlistID uuid.UUID, orderedIDs []uuid.UUID) error

	Reserve(ctx context.Context, principal Principal, itemID uuid.UUID) (*ItemDTO, error)
	Purchase(ctx context.Context, principal Principal, itemID uuid.UUID) (*ItemDTO, error)
	Unreserve(ctx context.Context, principal Principal, itemID uuid.UUID) (*ItemDTO, error)

	ListForVisitor(ctx context.Context, wishlistID uuid.UUID) ([]ItemDTO, error)
	ReserveAsVisitor(ctx context.Context, wishlistID, itemID uuid.UUID, visitorName string) (*ItemDTO, error)
	PurchaseAsVisitor(ctx context.Context, wishlistID, itemID uuid.UUID, visitorName string) (*ItemDTO, error)

	ListCategories(ctx context.Context, userID uuid.UUID) ([]CategoryDTO, error)
	CreateCategory(ctx context.Context, userID uuid.UUID, name string, icon *string) (*CategoryDTO, error)
	UpdateCategory(ctx context.Context, userID, categoryID uuid.UUID, name *string, icon *string) error
	DeleteCategory(ctx context.Context, userID, categoryID uuid.UUID) error
	ListPriorities(ctx context.Context) ([]PriorityDTO, error)
}

type service struct {
	repo       Repository
	access     access.Service
	fanout     notifications.Fanout
	activities activities.Service
	now        func() time.Time
}

// NewService builds the items service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "items repository required")
	}
	if params.Access == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "access resolver required")
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
		fanout:     params.Fanout,
		activities: params.Activities,
		now:        time.Now,
	}, nil
}

func (s *service) List(ctx context.Context, principal Principal, wishlistID uuid.UUID, status *enums.ItemStatus) ([]ItemDTO, error) {
	grant, err := s.access.RequireView(ctx, wishlistID, principal.UserID, principal.IsAdmin)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.ListByWishlist(ctx, wishlistID, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list items")
	}

	mask := s.shouldMaskForViewer(grant, principal.UserID)
	result := make([]ItemDTO, 0, len(rows))
	for _, row := range rows {
		dto := fromModel(row)
		if mask {
			dto = maskReservation(dto)
		}
		result = append(result, dto)
	}
	return result, nil
}

func (s *service) Get(ctx context.Context, principal Principal, itemID uuid.UUID) (*ItemDTO, error) {
	item, grant, err := s.loadItemWithView(ctx, principal, itemID)
	if err != nil {
		return nil, err
	}
	dto := fromModel(*item)
	if s.shouldMaskForViewer(grant, principal.UserID) {
		dto = maskReservation(dto)
	}
	return &dto, nil
}

func (s *service) Create(ctx context.Context, principal Principal, wishlistID uuid.UUID, dto CreateItemDTO) (*ItemDTO, error) {
	name := strings.TrimSpace(dto.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item name required")
	}

	grant, err := s.access.RequireEdit(ctx, wishlistID, principal.UserID, principal.IsAdmin)
	if err != nil {
		return nil, err
	}

	sortOrder, err := s.repo.NextSortOrder(ctx, wishlistID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "compute sort order")
	}

	item := &models.Item{
		WishlistID:  wishlistID,
		Name:        name,
		URL:         dto.URL,
		ImageURL:    dto.ImageURL,
		Description: dto.Description,
		Price:       dto.Price,
		CategoryID:  dto.CategoryID,
		PriorityID:  dto.PriorityID,
		Status:      enums.ItemStatusAvailable,
		SortOrder:   sortOrder,
	}
	if len(dto.CustomAttributes) > 0 {
		item.CustomAttributes = dbtypes.JSONMap(dto.CustomAttributes)
	}

	if err := s.repo.Create(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create item")
	}

	s.recordItemActivity(ctx, principal.UserID, enums.ActivityActionItemAdded, item, grant.Wishlist)

	result := fromModel(*item)
	return &result, nil
}

func (s *service) Update(ctx context.Context, principal Principal, itemID uuid.UUID, dto UpdateItemDTO) (*ItemDTO, error) {
	_, grant, err := s.loadItemWithEdit(ctx, principal, itemID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if dto.Name != nil {
		name := strings.TrimSpace(*dto.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item name required")
		}
		updates["name"] = name
	}
	if dto.URL != nil {
		updates["url"] = dto.URL
	}
	if dto.ImageURL != nil {
		updates["image_url"] = dto.ImageURL
	}
	if dto.Description != nil {
		updates["description"] = dto.Description
	}
	if dto.Price != nil {
		updates["price"] = dto.Price
	}
	if dto.CategoryID != nil {
		updates["category_id"] = dto.CategoryID
	}
	if dto.PriorityID != nil {
		updates["priority_id"] = dto.PriorityID
	}
	if dto.CustomAttributes != nil {
		updates["custom_attributes"] = dbtypes.JSONMap(dto.CustomAttributes)
	}

	if len(updates) > 0 {
		updates["updated_at"] = s.now().UTC()
		found, err := s.repo.Update(ctx, itemID, updates)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update item")
		}
		if !found {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
	}

	updated, err := s.repo.FindByID(ctx, itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload item")
	}

	s.recordItemActivity(ctx, principal.UserID, enums.ActivityActionItemUpdated, updated, grant.Wishlist)

	result := fromModel(*updated)
	return &result, nil
}

func (s *service) Delete(ctx context.Context, principal Principal, itemID uuid.UUID) error {
	item, grant, err := s.loadItemWithEdit(ctx, principal, itemID)
	if err != nil {
		return err
	}

	found, err := s.repo.Delete(ctx, item.WishlistID, itemID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete item")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	}

	s.recordItemActivity(ctx, principal.UserID, enums.ActivityActionItemDeleted, item, grant.Wishlist)
	return nil
}

func (s *service) Reorder(ctx context.Context, principal Principal, wishlistID uuid.UUID, orderedIDs []uuid.UUID) error {
	if len(orderedIDs) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "item order required")
	}
	if _, err := s.access.RequireEdit(ctx, wishlistID, principal.UserID, principal.IsAdmin); err != nil {
		return err
	}
	if err := s.repo.Reorder(ctx, wishlistID, orderedIDs); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reorder items")
	}
	return nil
}

// Reserve moves an available item to reserved on behalf of the caller. The
// transition is a single conditional update; losing a race surfaces as a
// state conflict rather than a double reservation.
func (s *service) Reserve(ctx context.Context, principal Principal, itemID uuid.UUID) (*ItemDTO, error) {
	_, grant, err := s.loadItemWithView(ctx, principal, itemID)
	if err != nil {
		return nil, err
	}

	reserverID := principal.UserID
	reserverName := principal.Username
	rows, err := s.repo.Reserve(ctx, itemID, &reserverID, &reserverName, s.now().UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve item")
	}
	if rows == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "item is no longer available")
	}

	updated, err := s.repo.FindByID(ctx, itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload item")
	}

	s.fanReservationEvent(ctx, grant.Wishlist, principal.UserID, updated, enums.NotificationTypeItemReserved,
		"Item reserved", fmt.Sprintf("%q was reserved on %q", updated.Name, grant.Wishlist.Title))
	s.recordItemActivity(ctx, principal.UserID, enums.ActivityActionItemReserved, updated, grant.Wishlist)

	result := fromModel(*updated)
	return &result, nil
}

// Purchase marks an item purchased. Reserving first is not required.
func (s *service) Purchase(ctx context.Context, principal Principal, itemID uuid.UUID) (*ItemDTO, error) {
	_, grant, err := s.loadItemWithView(ctx, principal, itemID)
	if err != nil {
		return nil, err
	}

	purchaserID := principal.UserID
	purchaserName := principal.Username
	rows, err := s.repo.Purchase(ctx, itemID, &purchaserID, &purchaserName, s.now().UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "purchase item")
	}
	if rows == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	}

	updated, err := s.repo.FindByID(ctx, itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload item")
	}

	s.fanReservationEvent(ctx, grant.Wishlist, principal.UserID, updated, enums.NotificationTypeItemPurchased,
		"Item purchased", fmt.Sprintf("%q was purchased on %q", updated.Name, grant.Wishlist.Title))
	s.recordItemActivity(ctx, principal.UserID, enums.ActivityActionItemPurchased, updated, grant.Wishlist)

	result := fromModel(*updated)
	return &result, nil
}

// Unreserve returns a reserved or purchased item to available. Requires edit
// permission on the wishlist.
func (s *service) Unreserve(ctx context.Context, principal Principal, itemID uuid.UUID) (*ItemDTO, error) {
	_, grant, err := s.loadItemWithEdit(ctx, principal, itemID)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.Unreserve(ctx, itemID, s.now().UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "unreserve item")
	}
	if rows == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "item is not reserved")
	}

	updated, err := s.repo.FindByID(ctx, itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload item")
	}

	s.recordItemActivity(ctx, principal.UserID, enums.ActivityActionItemUnreserved, updated, grant.Wishlist)

	result := fromModel(*updated)
	return &result, nil
}

// ListForVisitor lists a wishlist's items for an external-share visitor.
// The true reservation state is always returned; owner masking only applies
// to the owner's own view.
func (s *service) ListForVisitor(ctx context.Context, wishlistID uuid.UUID) ([]ItemDTO, error) {
	rows, err := s.repo.ListByWishlist(ctx, wishlistID, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list items")
	}
	result := make([]ItemDTO, 0, len(rows))
	for _, row := range rows {
		result = append(result, fromModel(row))
	}
	return result, nil
}

// ReserveAsVisitor reserves an item for an unauthenticated external-share
// visitor, attributing the reservation to the supplied name. Share lookup and
// password checks happen in the shares service before this is called.
func (s *service) ReserveAsVisitor(ctx context.Context, wishlistID, itemID uuid.UUID, visitorName string) (*ItemDTO, error) {
	visitorName = strings.TrimSpace(visitorName)
	if len(visitorName) < 2 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "visitor name must be at least 2 characters")
	}

	if err := s.ensureItemOnWishlist(ctx, wishlistID, itemID); err != nil {
		return nil, err
	}

	rows, err := s.repo.Reserve(ctx, itemID, nil, &visitorName, s.now().UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve item")
	}
	if rows == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "item is no longer available")
	}

	updated, err := s.repo.FindByID(ctx, itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload item")
	}
	result := fromModel(*updated)
	return &result, nil
}

// PurchaseAsVisitor marks an item purchased on behalf of an external visitor.
func (s *service) PurchaseAsVisitor(ctx context.Context, wishlistID, itemID uuid.UUID, visitorName string) (*ItemDTO, error) {
	visitorName = strings.TrimSpace(visitorName)
	if err := s.ensureItemOnWishlist(ctx, wishlistID, itemID); err != nil {
		return nil, err
	}

	var namePtr *string
	if visitorName != "" {
		namePtr = &visitorName
	}
	rows, err := s.repo.Purchase(ctx, itemID, nil, namePtr, s.now().UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "purchase item")
	}
	if rows == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	}

	updated, err := s.repo.FindByID(ctx, itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload item")
	}
	result := fromModel(*updated)
	return &result, nil
}

func (s *service) ListCategories(ctx context.Context, userID uuid.UUID) ([]CategoryDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	rows, err := s.repo.ListCategories(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	result := make([]CategoryDTO, 0, len(rows))
	for _, row := range rows {
		result = append(result, categoryFromModel(row))
	}
	return result, nil
}

func (s *service) CreateCategory(ctx context.Context, userID uuid.UUID, name string, icon *string) (*CategoryDTO, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name required")
	}
	category := &models.ItemCategory{UserID: userID, Name: name, Icon: icon}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create category")
	}
	result := categoryFromModel(*category)
	return &result, nil
}

func (s *service) UpdateCategory(ctx context.Context, userID, categoryID uuid.UUID, name *string, icon *string) error {
	updates := map[string]any{}
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "category name required")
		}
		updates["name"] = trimmed
	}
	if icon != nil {
		updates["icon"] = icon
	}
	if len(updates) == 0 {
		return nil
	}
	found, err := s.repo.UpdateCategory(ctx, userID, categoryID, updates)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update category")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	}
	return nil
}

func (s *service) DeleteCategory(ctx context.Context, userID, categoryID uuid.UUID) error {
	found, err := s.repo.DeleteCategory(ctx, userID, categoryID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete category")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	}
	return nil
}

func (s *service) ListPriorities(ctx context.Context) ([]PriorityDTO, error) {
	rows, err := s.repo.ListPriorities(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list priorities")
	}
	result := make([]PriorityDTO, 0, len(rows))
	for _, row := range rows {
		result = append(result, priorityFromModel(row))
	}
	return result, nil
}

func (s *service) loadItemWithView(ctx context.Context, principal Principal, itemID uuid.UUID) (*models.Item, access.Grant, error) {
	item, err := s.loadItem(ctx, itemID)
	if err != nil {
		return nil, access.Grant{}, err
	}
	grant, err := s.access.RequireView(ctx, item.WishlistID, principal.UserID, principal.IsAdmin)
	if err != nil {
		return nil, access.Grant{}, err
	}
	return item, grant, nil
}

func (s *service) loadItemWithEdit(ctx context.Context, principal Principal, itemID uuid.UUID) (*models.Item, access.Grant, error) {
	item, err := s.loadItem(ctx, itemID)
	if err != nil {
		return nil, access.Grant{}, err
	}
	grant, err := s.access.RequireEdit(ctx, item.WishlistID, principal.UserID, principal.IsAdmin)
	if err != nil {
		return nil, access.Grant{}, err
	}
	return item, grant, nil
}

func (s *service) loadItem(ctx context.Context, itemID uuid.UUID) (*models.Item, error) {
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}
	item, err := s.repo.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item")
	}
	return item, nil
}

func (s *service) ensureItemOnWishlist(ctx context.Context, wishlistID, itemID uuid.UUID) error {
	item, err := s.loadItem(ctx, itemID)
	if err != nil {
		return err
	}
	if item.WishlistID != wishlistID {
		return pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	}
	return nil
}

func (s *service) shouldMaskForViewer(grant access.Grant, userID uuid.UUID) bool {
	return grant.Wishlist != nil &&
		grant.Wishlist.OwnerID == userID &&
		!grant.Wishlist.NotifyOwnerOnReservation
}

func (s *service) fanReservationEvent(ctx context.Context, wishlist *models.Wishlist, actor uuid.UUID, item *models.Item, eventType enums.NotificationType, title, message string) {
	if wishlist == nil || item == nil {
		return
	}
	targetType := "item"
	targetID := item.ID
	link := fmt.Sprintf("/wishlists/%s", wishlist.ID)
	s.fanout.Fan(ctx, notifications.FanParams{
		Wishlist: wishlist,
		Actor:    actor,
		Event: notifications.EventParams{
			Type:       eventType,
			Title:      title,
			Message:    message,
			Icon:       "gift",
			Color:      "#10b981",
			Link:       &link,
			TargetType: &targetType,
			TargetID:   &targetID,
		},
	})
}

func (s *service) recordItemActivity(ctx context.Context, actor uuid.UUID, action enums.ActivityAction, item *models.Item, wishlist *models.Wishlist) {
	if item == nil {
		return
	}
	name := item.Name
	itemID := item.ID
	wishlistID := item.WishlistID
	isPublic := wishlist != nil && wishlist.IsPublic
	s.activities.Record(ctx, activities.RecordParams{
		UserID:     actor,
		Action:     action,
		TargetType: "item",
		TargetID:   &itemID,
		TargetName: &name,
		WishlistID: &wishlistID,
		IsPublic:   isPublic,
	})
}
