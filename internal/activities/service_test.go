package activities

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wisherr-app/wisherr-backend/pkg/db/models"
	"github.com/wisherr-app/wisherr-backend/pkg/enums"
	pkgerrors "github.com/wisherr-app/wisherr-backend/pkg/errors"
	paginationpkg "github.com/wisherr-app/wisherr-backend/pkg/pagination"
)

type fakeRepository struct {
	createFn          func(ctx context.Context, activity *models.Activity) error
	listFeedFn        func(ctx context.Context, params listActivitiesParams) ([]models.Activity, *paginationpkg.Cursor, error)
	listForWishlistFn func(ctx context.Context, wishlistID uuid.UUID, params listActivitiesParams) ([]models.Activity, *paginationpkg.Cursor, error)
	usernamesFn       func(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
	wishlistTitlesFn  func(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository {
	return f
}

func (f *fakeRepository) Create(ctx context.Context, activity *models.Activity) error {
	if f.createFn != nil {
		return f.createFn(ctx, activity)
	}
	return nil
}

func (f *fakeRepository) ListFeed(ctx context.Context, params listActivitiesParams) ([]models.Activity, *paginationpkg.Cursor, error) {
	if f.listFeedFn != nil {
		return f.listFeedFn(ctx, params)
	}
	return nil, nil, nil
}

func (f *fakeRepository) ListForWishlist(ctx context.Context, wishlistID uuid.UUID, params listActivitiesParams) ([]models.Activity, *paginationpkg.Cursor, error) {
	if f.listForWishlistFn != nil {
		return f.listForWishlistFn(ctx, wishlistID, params)
	}
	return nil, nil, nil
}

func (f *fakeRepository) UsernamesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	if f.usernamesFn != nil {
		return f.usernamesFn(ctx, ids)
	}
	return map[uuid.UUID]string{}, nil
}

func (f *fakeRepository) WishlistTitlesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	if f.wishlistTitlesFn != nil {
		return f.wishlistTitlesFn(ctx, ids)
	}
	return map[uuid.UUID]string{}, nil
}

func newServiceWithRepo(repo Repository) Service {
	svc, _ := NewService(repo, nil)
	return svc
}

func TestRecord_PersistsEntry(t *testing.T) {
	var saved *models.Activity
	repo := &fakeRepository{
		createFn: func(ctx context.Context, activity *models.Activity) error {
			saved = activity
			return nil
		},
	}

	user := uuid.New()
	wishlist := uuid.New()
	name := "new bike"
	newServiceWithRepo(repo).Record(context.Background(), RecordParams{
		UserID:     user,
		Action:     enums.ActivityActionItemAdded,
		TargetType: "item",
		TargetName: &name,
		WishlistID: &wishlist,
		IsPublic:   true,
		ExtraData:  map[string]any{"price": 120.0},
	})

	if saved == nil {
		t.Fatal("expected activity persisted")
	}
	if saved.ActionType != enums.ActivityActionItemAdded {
		t.Fatalf("unexpected action %s", saved.ActionType)
	}
	if saved.ExtraData["price"] != 120.0 {
		t.Fatalf("unexpected extra data %v", saved.ExtraData)
	}
}

func TestRecord_SwallowsRepoError(t *testing.T) {
	repo := &fakeRepository{
		createFn: func(ctx context.Context, activity *models.Activity) error {
			return errors.New("db down")
		},
	}
	newServiceWithRepo(repo).Record(context.Background(), RecordParams{
		UserID: uuid.New(),
		Action: enums.ActivityActionUserLogin,
	})
}

func TestRecord_IgnoresEmptyActor(t *testing.T) {
	repo := &fakeRepository{
		createFn: func(ctx context.Context, activity *models.Activity) error {
			t.Fatal("should not persist without an actor")
			return nil
		},
	}
	newServiceWithRepo(repo).Record(context.Background(), RecordParams{Action: enums.ActivityActionUserLogin})
}

func TestFeed_ReturnsPresentedEntries(t *testing.T) {
	user := uuid.New()
	wishlist := uuid.New()
	first := models.Activity{
		ID:         uuid.New(),
		UserID:     user,
		ActionType: enums.ActivityActionItemReserved,
		TargetType: "item",
		WishlistID: &wishlist,
		CreatedAt:  time.Now().Add(-time.Minute),
	}
	second := models.Activity{ID: uuid.New(), UserID: user, CreatedAt: time.Now()}

	repo := &fakeRepository{
		listFeedFn: func(ctx context.Context, params listActivitiesParams) ([]models.Activity, *paginationpkg.Cursor, error) {
			if params.UserID != user {
				t.Fatalf("unexpected user %s", params.UserID)
			}
			return []models.Activity{first}, &paginationpkg.Cursor{CreatedAt: second.CreatedAt, ID: second.ID}, nil
		},
		usernamesFn: func(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
			if len(ids) != 1 || ids[0] != user {
				t.Fatalf("unexpected username lookup %v", ids)
			}
			return map[uuid.UUID]string{user: "alice"}, nil
		},
		wishlistTitlesFn: func(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
			if len(ids) != 1 || ids[0] != wishlist {
				t.Fatalf("unexpected wishlist lookup %v", ids)
			}
			return map[uuid.UUID]string{wishlist: "Birthday 2026"}, nil
		},
	}

	result, err := newServiceWithRepo(repo).Feed(context.Background(), FeedParams{UserID: user, Limit: 1})
	if err != nil {
		t.Fatalf("unexpected feed error: %v", err)
	}
	if len(result.Items) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(result.Items))
	}
	entry := result.Items[0]
	if entry.Label != "reserved an item" {
		t.Fatalf("unexpected label %q", entry.Label)
	}
	if entry.Icon != "bookmark" || entry.Color != "orange" {
		t.Fatalf("unexpected presentation icon=%q color=%q", entry.Icon, entry.Color)
	}
	if entry.Username != "alice" {
		t.Fatalf("unexpected username %q", entry.Username)
	}
	if entry.WishlistTitle != "Birthday 2026" {
		t.Fatalf("unexpected wishlist title %q", entry.WishlistTitle)
	}
	if result.Cursor == "" {
		t.Fatal("expected next cursor")
	}
}

func TestFeed_NameLookupFailure(t *testing.T) {
	user := uuid.New()
	repo := &fakeRepository{
		listFeedFn: func(ctx context.Context, params listActivitiesParams) ([]models.Activity, *paginationpkg.Cursor, error) {
			return []models.Activity{{ID: uuid.New(), UserID: user, CreatedAt: time.Now()}}, nil, nil
		},
		usernamesFn: func(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
			return nil, errors.New("db down")
		},
	}

	_, err := newServiceWithRepo(repo).Feed(context.Background(), FeedParams{UserID: user})
	if err == nil {
		t.Fatal("expected error when username lookup fails")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %s", pkgerrors.As(err).Code())
	}
}

func TestFeed_InvalidCursor(t *testing.T) {
	_, err := newServiceWithRepo(&fakeRepository{}).Feed(context.Background(), FeedParams{UserID: uuid.New(), Cursor: "bad"})
	if err == nil {
		t.Fatal("expected error for invalid cursor")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %s", pkgerrors.As(err).Code())
	}
}

func TestWishlistFeed_PublicOnlyFlag(t *testing.T) {
	wishlist := uuid.New()
	repo := &fakeRepository{
		listForWishlistFn: func(ctx context.Context, wishlistID uuid.UUID, params listActivitiesParams) ([]models.Activity, *paginationpkg.Cursor, error) {
			if wishlistID != wishlist {
				t.Fatalf("unexpected wishlist %s", wishlistID)
			}
			if !params.PublicOnly {
				t.Fatal("expected public-only filter")
			}
			return nil, nil, nil
		},
	}

	if _, err := newServiceWithRepo(repo).WishlistFeed(context.Background(), wishlist, true, FeedParams{UserID: uuid.New()}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPresentationFor_KnownActions(t *testing.T) {
	tests := []struct {
		action enums.ActivityAction
		want   Presentation
	}{
		{enums.ActivityActionWishlistCreated, Presentation{"created a wishlist", "plus", "green"}},
		{enums.ActivityActionItemPurchased, Presentation{"marked an item purchased", "check-circle", "green"}},
		{enums.ActivityActionItemUnreserved, Presentation{"released a reservation", "bookmark-x", "gray"}},
		{enums.ActivityActionShareCreated, Presentation{"shared a wishlist", "share", "purple"}},
		{enums.ActivityActionMemberRemoved, Presentation{"removed a group member", "user-x", "orange"}},
		{enums.ActivityActionLoginFailed, Presentation{"failed to sign in", "alert-triangle", "red"}},
	}
	for _, tt := range tests {
		if got := PresentationFor(tt.action); got != tt.want {
			t.Fatalf("%s: got %+v want %+v", tt.action, got, tt.want)
		}
	}
}

func TestPresentationFor_UnknownActionFallsBack(t *testing.T) {
	got := PresentationFor(enums.ActivityAction("custom_thing"))
	if got.Label != "custom_thing" || got.Icon != "activity" || got.Color != "gray" {
		t.Fatalf("unexpected fallback %+v", got)
	}
	if Label(enums.ActivityAction("custom_thing")) != "custom_thing" {
		t.Fatal("label should fall back to the raw action")
	}
}
