package activities

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/wisherr-app/wisherr-backend/pkg/db/models"
	dbtypes "github.com/wisherr-app/wisherr-backend/pkg/db/types"
	"github.com/wisherr-app/wisherr-backend/pkg/enums"
	pkgerrors "github.com/wisherr-app/wisherr-backend/pkg/errors"
	"github.com/wisherr-app/wisherr-backend/pkg/logger"
	"github.com/wisherr-app/wisherr-backend/pkg/pagination"
)

// Service records and lists activity entries.
type Service interface {
	Record(ctx context.Context, params RecordParams)
	Feed(ctx context.Context, params FeedParams) (*FeedResult, error)
	WishlistFeed(ctx context.Context, wishlistID uuid.UUID, publicOnly bool, params FeedParams) (*FeedResult, error)
}

// RecordParams describes an action to append to the log.
type RecordParams struct {
	UserID     uuid.UUID
	Action     enums.ActivityAction
	TargetType string
	TargetID   *uuid.UUID
	TargetName *string
	WishlistID *uuid.UUID
	IsPublic   bool
	ExtraData  map[string]any
}

// FeedParams configures pagination for a feed request.
type FeedParams struct {
	UserID uuid.UUID
	Limit  int
	Cursor string
}

// FeedResult wraps feed entries and the cursor for the next page.
type FeedResult struct {
	Items  []EntryDTO `json:"items"`
	Cursor string     `json:"cursor"`
}

// EntryDTO is the transport shape of an activity entry. Label, icon and
// color are derived from the action; username and wishlist title are
// resolved at read time so renamed entities stay current.
type EntryDTO struct {
	ID            uuid.UUID            `json:"id"`
	UserID        uuid.UUID            `json:"user_id"`
	Username      string               `json:"username,omitempty"`
	Action        enums.ActivityAction `json:"action"`
	Label         string               `json:"label"`
	Icon          string               `json:"icon"`
	Color         string               `json:"color"`
	TargetType    string               `json:"target_type"`
	TargetID      *uuid.UUID           `json:"target_id,omitempty"`
	TargetName    *string              `json:"target_name,omitempty"`
	WishlistID    *uuid.UUID           `json:"wishlist_id,omitempty"`
	WishlistTitle string               `json:"wishlist_title,omitempty"`
	ExtraData     map[string]any       `json:"extra_data,omitempty"`
	CreatedAt     string               `json:"created_at"`
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService wires activity dependencies.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "activities repository required")
	}
	return &service{repo: repo, logg: logg}, nil
}

// Record appends an entry. Failures are logged and swallowed so a missing
// audit row never fails the user-facing action.
func (s *service) Record(ctx context.Context, params RecordParams) {
	if params.UserID == uuid.Nil || params.Action == "" {
		return
	}
	activity := &models.Activity{
		UserID:     params.UserID,
		ActionType: params.Action,
		TargetType: params.TargetType,
		TargetID:   params.TargetID,
		TargetName: params.TargetName,
		WishlistID: params.WishlistID,
		IsPublic:   params.IsPublic,
	}
	if len(params.ExtraData) > 0 {
		activity.ExtraData = dbtypes.JSONMap(params.ExtraData)
	}
	if err := s.repo.Create(ctx, activity); err != nil && s.logg != nil {
		s.logg.Error(ctx, "activity.record_failed", err)
	}
}

func (s *service) Feed(ctx context.Context, params FeedParams) (*FeedResult, error) {
	if params.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	query, err := buildListParams(params)
	if err != nil {
		return nil, err
	}
	rows, next, err := s.repo.ListFeed(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list activities")
	}
	return s.buildFeedResult(ctx, rows, next)
}

func (s *service) WishlistFeed(ctx context.Context, wishlistID uuid.UUID, publicOnly bool, params FeedParams) (*FeedResult, error) {
	if wishlistID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wishlist id required")
	}
	query, err := buildListParams(params)
	if err != nil {
		return nil, err
	}
	query.PublicOnly = publicOnly
	rows, next, err := s.repo.ListForWishlist(ctx, wishlistID, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wishlist activities")
	}
	return s.buildFeedResult(ctx, rows, next)
}

func buildListParams(params FeedParams) (listActivitiesParams, error) {
	query := listActivitiesParams{
		UserID: params.UserID,
		Limit:  params.Limit,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return listActivitiesParams{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}
	return query, nil
}

func (s *service) buildFeedResult(ctx context.Context, rows []models.Activity, next *pagination.Cursor) (*FeedResult, error) {
	usernames, titles, err := s.resolveFeedNames(ctx, rows)
	if err != nil {
		return nil, err
	}

	items := make([]EntryDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, toEntryDTO(row, usernames, titles))
	}
	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &FeedResult{Items: items, Cursor: cursor}, nil
}

func (s *service) resolveFeedNames(ctx context.Context, rows []models.Activity) (map[uuid.UUID]string, map[uuid.UUID]string, error) {
	userSet := map[uuid.UUID]struct{}{}
	wishlistSet := map[uuid.UUID]struct{}{}
	for _, row := range rows {
		userSet[row.UserID] = struct{}{}
		if row.WishlistID != nil {
			wishlistSet[*row.WishlistID] = struct{}{}
		}
	}

	userIDs := make([]uuid.UUID, 0, len(userSet))
	for id := range userSet {
		userIDs = append(userIDs, id)
	}
	wishlistIDs := make([]uuid.UUID, 0, len(wishlistSet))
	for id := range wishlistSet {
		wishlistIDs = append(wishlistIDs, id)
	}

	usernames, err := s.repo.UsernamesByIDs(ctx, userIDs)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve usernames")
	}
	titles, err := s.repo.WishlistTitlesByIDs(ctx, wishlistIDs)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve wishlist titles")
	}
	return usernames, titles, nil
}

func toEntryDTO(activity models.Activity, usernames, titles map[uuid.UUID]string) EntryDTO {
	info := PresentationFor(activity.ActionType)
	entry := EntryDTO{
		ID:         activity.ID,
		UserID:     activity.UserID,
		Username:   usernames[activity.UserID],
		Action:     activity.ActionType,
		Label:      info.Label,
		Icon:       info.Icon,
		Color:      info.Color,
		TargetType: activity.TargetType,
		TargetID:   activity.TargetID,
		TargetName: activity.TargetName,
		WishlistID: activity.WishlistID,
		ExtraData:  activity.ExtraData,
		CreatedAt:  activity.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if activity.WishlistID != nil {
		entry.WishlistTitle = titles[*activity.WishlistID]
	}
	return entry
}

// Presentation is how a feed entry renders an action.
type Presentation struct {
	Label string
	Icon  string
	Color string
}

var actionPresentations = map[enums.ActivityAction]Presentation{
	enums.ActivityActionWishlistCreated: {"created a wishlist", "plus", "green"},
	enums.ActivityActionWishlistUpdated: {"updated a wishlist", "edit", "blue"},
	enums.ActivityActionWishlistDeleted: {"deleted a wishlist", "trash", "red"},
	enums.ActivityActionItemAdded:       {"added an item", "plus-circle", "green"},
	enums.ActivityActionItemUpdated:     {"updated an item", "edit-2", "blue"},
	enums.ActivityActionItemDeleted:     {"removed an item", "trash-2", "red"},
	enums.ActivityActionItemReserved:    {"reserved an item", "bookmark", "orange"},
	enums.ActivityActionItemPurchased:   {"marked an item purchased", "check-circle", "green"},
	enums.ActivityActionItemUnreserved:  {"released a reservation", "bookmark-x", "gray"},
	enums.ActivityActionShareCreated:    {"shared a wishlist", "share", "purple"},
	enums.ActivityActionShareDeleted:    {"removed a share", "share-2", "red"},
	enums.ActivityActionGroupCreated:    {"created a group", "users", "blue"},
	enums.ActivityActionGroupUpdated:    {"updated a group", "edit", "blue"},
	enums.ActivityActionGroupDeleted:    {"deleted a group", "user-minus", "red"},
	enums.ActivityActionMemberAdded:     {"added a group member", "user-plus", "green"},
	enums.ActivityActionMemberRemoved:   {"removed a group member", "user-x", "orange"},
	enums.ActivityActionUserLogin:       {"signed in", "log-in", "gray"},
	enums.ActivityActionLoginFailed:     {"failed to sign in", "alert-triangle", "red"},
	enums.ActivityActionUserRegistered:  {"registered", "user-check", "green"},
}

// PresentationFor returns the label, icon and color for an action. Unknown
// actions fall back to the raw action string with a neutral icon.
func PresentationFor(action enums.ActivityAction) Presentation {
	if info, ok := actionPresentations[action]; ok {
		return info
	}
	return Presentation{Label: string(action), Icon: "activity", Color: "gray"}
}

// Label returns a human-readable description for an action.
func Label(action enums.ActivityAction) string {
	return PresentationFor(action).Label
}
