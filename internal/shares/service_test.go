package shares

import (
	"context"
	"testing"
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

type fakeRepository struct {
	createFn                func(ctx context.Context, share *models.WishlistShare) error
	findByIDFn              func(ctx context.Context, shareID uuid.UUID) (*models.WishlistShare, error)
	findByTokenFn           func(ctx context.Context, token string) (*models.WishlistShare, error)
	findDuplicateInternalFn func(ctx context.Context, wishlistID uuid.UUID, targetUserID, targetGroupID *uuid.UUID) (*models.WishlistShare, error)
	findActiveExternalFn    func(ctx context.Context, wishlistID uuid.UUID) (*models.WishlistShare, error)
	listByCreatorFn         func(ctx context.Context, creatorID uuid.UUID) ([]models.WishlistShare, error)
	listSharedWithUserFn    func(ctx context.Context, userID uuid.UUID, now time.Time) ([]models.WishlistShare, error)
	updateFn                func(ctx context.Context, shareID uuid.UUID, updates map[string]any) (bool, error)
	deleteFn                func(ctx context.Context, shareID uuid.UUID) (bool, error)
	findWishlistFn          func(ctx context.Context, wishlistID uuid.UUID) (*models.Wishlist, error)
	groupAccessibleFn       func(ctx context.Context, groupID, userID uuid.UUID) (bool, error)
	groupMemberIDsFn        func(ctx context.Context, groupID uuid.UUID) ([]uuid.UUID, error)
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, share *models.WishlistShare) error {
	if f.createFn != nil {
		return f.createFn(ctx, share)
	}
	share.ID = uuid.New()
	return nil
}

func (f *fakeRepository) FindByID(ctx context.Context, shareID uuid.UUID) (*models.WishlistShare, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, shareID)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) FindByToken(ctx context.Context, token string) (*models.WishlistShare, error) {
	if f.findByTokenFn != nil {
		return f.findByTokenFn(ctx, token)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) FindDuplicateInternal(ctx context.Context, wishlistID uuid.UUID, targetUserID, targetGroupID *uuid.UUID) (*models.WishlistShare, error) {
	if f.findDuplicateInternalFn != nil {
		return f.findDuplicateInternalFn(ctx, wishlistID, targetUserID, targetGroupID)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) FindActiveExternal(ctx context.Context, wishlistID uuid.UUID) (*models.WishlistShare, error) {
	if f.findActiveExternalFn != nil {
		return f.findActiveExternalFn(ctx, wishlistID)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]models.WishlistShare, error) {
	if f.listByCreatorFn != nil {
		return f.listByCreatorFn(ctx, creatorID)
	}
	return nil, nil
}

func (f *fakeRepository) ListSharedWithUser(ctx context.Context, userID uuid.UUID, now time.Time) ([]models.WishlistShare, error) {
	if f.listSharedWithUserFn != nil {
		return f.listSharedWithUserFn(ctx, userID, now)
	}
	return nil, nil
}

func (f *fakeRepository) Update(ctx context.Context, shareID uuid.UUID, updates map[string]any) (bool, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, shareID, updates)
	}
	return true, nil
}

func (f *fakeRepository) Delete(ctx context.Context, shareID uuid.UUID) (bool, error) {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, shareID)
	}
	return true, nil
}

func (f *fakeRepository) FindWishlist(ctx context.Context, wishlistID uuid.UUID) (*models.Wishlist, error) {
	if f.findWishlistFn != nil {
		return f.findWishlistFn(ctx, wishlistID)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) GroupAccessible(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	if f.groupAccessibleFn != nil {
		return f.groupAccessibleFn(ctx, groupID, userID)
	}
	return false, nil
}

func (f *fakeRepository) GroupMemberIDs(ctx context.Context, groupID uuid.UUID) ([]uuid.UUID, error) {
	if f.groupMemberIDsFn != nil {
		return f.groupMemberIDsFn(ctx, groupID)
	}
	return nil, nil
}

type fakeUserDirectory struct {
	byID       map[uuid.UUID]*models.User
	byUsername map[string]*models.User
	byEmail    map[string]*models.User
}

func (f *fakeUserDirectory) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if user, ok := f.byID[id]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserDirectory) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	if user, ok := f.byUsername[username]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserDirectory) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := f.byEmail[email]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeItems struct {
	items.Service
	listForVisitorFn    func(ctx context.Context, wishlistID uuid.UUID) ([]items.ItemDTO, error)
	reserveAsVisitorFn  func(ctx context.Context, wishlistID, itemID uuid.UUID, visitorName string) (*items.ItemDTO, error)
	purchaseAsVisitorFn func(ctx context.Context, wishlistID, itemID uuid.UUID, visitorName string) (*items.ItemDTO, error)
}

func (f *fakeItems) ListForVisitor(ctx context.Context, wishlistID uuid.UUID) ([]items.ItemDTO, error) {
	if f.listForVisitorFn != nil {
		return f.listForVisitorFn(ctx, wishlistID)
	}
	return nil, nil
}

func (f *fakeItems) ReserveAsVisitor(ctx context.Context, wishlistID, itemID uuid.UUID, visitorName string) (*items.ItemDTO, error) {
	if f.reserveAsVisitorFn != nil {
		return f.reserveAsVisitorFn(ctx, wishlistID, itemID, visitorName)
	}
	return &items.ItemDTO{ID: itemID, WishlistID: wishlistID, Status: enums.ItemStatusReserved}, nil
}

func (f *fakeItems) PurchaseAsVisitor(ctx context.Context, wishlistID, itemID uuid.UUID, visitorName string) (*items.ItemDTO, error) {
	if f.purchaseAsVisitorFn != nil {
		return f.purchaseAsVisitorFn(ctx, wishlistID, itemID, visitorName)
	}
	return &items.ItemDTO{ID: itemID, WishlistID: wishlistID, Status: enums.ItemStatusPurchased}, nil
}

type fakeFanout struct {
	notified []uuid.UUID
	events   []notifications.EventParams
}

func (f *fakeFanout) Recipients(ctx context.Context, wishlist *models.Wishlist, actor uuid.UUID) ([]uuid.UUID, error) {
	return nil, nil
}

func (f *fakeFanout) Fan(ctx context.Context, params notifications.FanParams) {}

func (f *fakeFanout) NotifyUser(ctx context.Context, userID uuid.UUID, params notifications.EventParams) {
	f.notified = append(f.notified, userID)
	f.events = append(f.events, params)
}

type fakeActivities struct {
	recorded []activities.RecordParams
}

func (f *fakeActivities) Record(ctx context.Context, params activities.RecordParams) {
	f.recorded = append(f.recorded, params)
}

func (f *fakeActivities) Feed(ctx context.Context, params activities.FeedParams) (*activities.FeedResult, error) {
	return &activities.FeedResult{}, nil
}

func (f *fakeActivities) WishlistFeed(ctx context.Context, wishlistID uuid.UUID, publicOnly bool, params activities.FeedParams) (*activities.FeedResult, error) {
	return &activities.FeedResult{}, nil
}

type shareFixture struct {
	svc    Service
	fanout *fakeFanout
	acts   *fakeActivities
}

func newFixture(t *testing.T, repo *fakeRepository, users *fakeUserDirectory, itemSvc items.Service) *shareFixture {
	t.Helper()
	if users == nil {
		users = &fakeUserDirectory{}
	}
	if itemSvc == nil {
		itemSvc = &fakeItems{}
	}
	fan := &fakeFanout{}
	acts := &fakeActivities{}
	svc, err := NewService(ServiceParams{
		Repo:       repo,
		Users:      users,
		Items:      itemSvc,
		Fanout:     fan,
		Activities: acts,
		Shares:     config.SharesConfig{TokenBytes: 32, MinPasswordLength: 4},
		Password:   config.PasswordConfig{},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &shareFixture{svc: svc, fanout: fan, acts: acts}
}

func ownedWishlist(owner uuid.UUID) *models.Wishlist {
	return &models.Wishlist{ID: uuid.New(), OwnerID: owner, Title: "Birthday"}
}

func wishlistRepo(wishlist *models.Wishlist) *fakeRepository {
	return &fakeRepository{
		findWishlistFn: func(ctx context.Context, wishlistID uuid.UUID) (*models.Wishlist, error) {
			if wishlistID == wishlist.ID {
				return wishlist, nil
			}
			return nil, gorm.ErrRecordNotFound
		},
	}
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

func TestCreateExternal_RejectsShortPassword(t *testing.T) {
	owner := uuid.New()
	wishlist := ownedWishlist(owner)
	fx := newFixture(t, wishlistRepo(wishlist), nil, nil)

	_, err := fx.svc.CreateExternal(context.Background(), items.Principal{UserID: owner}, wishlist.ID, CreateExternalShareDTO{Password: "abc"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation, got %s", pkgerrors.As(err).Code())
	}
}

func TestCreateExternal_SingleActiveLinkPerWishlist(t *testing.T) {
	owner := uuid.New()
	wishlist := ownedWishlist(owner)
	repo := wishlistRepo(wishlist)
	repo.findActiveExternalFn = func(ctx context.Context, wishlistID uuid.UUID) (*models.WishlistShare, error) {
		return &models.WishlistShare{ID: uuid.New(), WishlistID: wishlistID}, nil
	}
	fx := newFixture(t, repo, nil, nil)

	_, err := fx.svc.CreateExternal(context.Background(), items.Principal{UserID: owner}, wishlist.ID, CreateExternalShareDTO{Password: "secret"})
	if err == nil {
		t.Fatal("expected conflict")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %s", pkgerrors.As(err).Code())
	}
}

func TestCreateExternal_IssuesTokenAndHashesPassword(t *testing.T) {
	owner := uuid.New()
	wishlist := ownedWishlist(owner)
	repo := wishlistRepo(wishlist)

	var saved *models.WishlistShare
	repo.createFn = func(ctx context.Context, share *models.WishlistShare) error {
		share.ID = uuid.New()
		saved = share
		return nil
	}
	fx := newFixture(t, repo, nil, nil)

	result, err := fx.svc.CreateExternal(context.Background(), items.Principal{UserID: owner}, wishlist.ID, CreateExternalShareDTO{Password: "secret"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if saved.ShareToken == nil || *saved.ShareToken == "" {
		t.Fatal("expected a generated share token")
	}
	if saved.SharePasswordHash == nil || *saved.SharePasswordHash == "secret" {
		t.Fatal("password must be stored hashed")
	}
	if ok, _ := security.VerifyPassword("secret", *saved.SharePasswordHash); !ok {
		t.Fatal("stored hash must verify against the original password")
	}
	if saved.Permission != enums.SharePermissionViewer {
		t.Fatalf("external shares are always viewer, got %s", saved.Permission)
	}
	if !result.HasPassword {
		t.Fatal("expected has_password in response")
	}
}

func TestCreateInternal_NonOwnerForbidden(t *testing.T) {
	wishlist := ownedWishlist(uuid.New())
	fx := newFixture(t, wishlistRepo(wishlist), nil, nil)

	username := "friend"
	_, err := fx.svc.CreateInternal(context.Background(), items.Principal{UserID: uuid.New()}, wishlist.ID, CreateInternalShareDTO{TargetUsername: &username})
	if err == nil {
		t.Fatal("expected forbidden")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %s", pkgerrors.As(err).Code())
	}
}

func TestCreateInternal_DuplicateRejected(t *testing.T) {
	owner := uuid.New()
	wishlist := ownedWishlist(owner)
	target := &models.User{ID: uuid.New(), Username: "friend"}

	repo := wishlistRepo(wishlist)
	repo.findDuplicateInternalFn = func(ctx context.Context, wishlistID uuid.UUID, targetUserID, targetGroupID *uuid.UUID) (*models.WishlistShare, error) {
		return &models.WishlistShare{ID: uuid.New()}, nil
	}
	users := &fakeUserDirectory{byUsername: map[string]*models.User{"friend": target}}
	fx := newFixture(t, repo, users, nil)

	username := "friend"
	_, err := fx.svc.CreateInternal(context.Background(), items.Principal{UserID: owner}, wishlist.ID, CreateInternalShareDTO{TargetUsername: &username})
	if err == nil {
		t.Fatal("expected conflict")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %s", pkgerrors.As(err).Code())
	}
}

func TestCreateInternal_NotifiesTargetUser(t *testing.T) {
	owner := uuid.New()
	wishlist := ownedWishlist(owner)
	target := &models.User{ID: uuid.New(), Username: "friend"}

	users := &fakeUserDirectory{byUsername: map[string]*models.User{"friend": target}}
	fx := newFixture(t, wishlistRepo(wishlist), users, nil)

	username := "friend"
	result, err := fx.svc.CreateInternal(context.Background(), items.Principal{UserID: owner}, wishlist.ID, CreateInternalShareDTO{TargetUsername: &username})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TargetUserID == nil || *result.TargetUserID != target.ID {
		t.Fatal("expected share targeting the user")
	}
	if len(fx.fanout.notified) != 1 || fx.fanout.notified[0] != target.ID {
		t.Fatalf("expected target user notified, got %v", fx.fanout.notified)
	}
	if fx.fanout.events[0].Type != enums.NotificationTypeShareReceived {
		t.Fatalf("unexpected event type %s", fx.fanout.events[0].Type)
	}
	if len(fx.acts.recorded) != 1 || fx.acts.recorded[0].Action != enums.ActivityActionShareCreated {
		t.Fatal("expected share_created activity")
	}
}

func TestCreateInternal_GroupShareNotifiesMembersExceptCreator(t *testing.T) {
	owner := uuid.New()
	wishlist := ownedWishlist(owner)
	groupID := uuid.New()
	memberA := uuid.New()
	memberB := uuid.New()

	repo := wishlistRepo(wishlist)
	repo.groupAccessibleFn = func(ctx context.Context, gID, userID uuid.UUID) (bool, error) {
		return gID == groupID && userID == owner, nil
	}
	repo.groupMemberIDsFn = func(ctx context.Context, gID uuid.UUID) ([]uuid.UUID, error) {
		return []uuid.UUID{owner, memberA, memberB}, nil
	}
	fx := newFixture(t, repo, nil, nil)

	_, err := fx.svc.CreateInternal(context.Background(), items.Principal{UserID: owner}, wishlist.ID, CreateInternalShareDTO{TargetGroupID: &groupID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fx.fanout.notified) != 2 {
		t.Fatalf("expected 2 notified members, got %v", fx.fanout.notified)
	}
	for _, id := range fx.fanout.notified {
		if id == owner {
			t.Fatal("creator must not be notified")
		}
	}
}

func TestCreateInternal_SelfShareRejected(t *testing.T) {
	owner := uuid.New()
	wishlist := ownedWishlist(owner)
	users := &fakeUserDirectory{byUsername: map[string]*models.User{"me": {ID: owner, Username: "me"}}}
	fx := newFixture(t, wishlistRepo(wishlist), users, nil)

	username := "me"
	_, err := fx.svc.CreateInternal(context.Background(), items.Principal{UserID: owner}, wishlist.ID, CreateInternalShareDTO{TargetUsername: &username})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation, got %s", pkgerrors.As(err).Code())
	}
}

func TestListSharedWithMe_DeduplicatesPerWishlist(t *testing.T) {
	userID := uuid.New()
	wishlistID := uuid.New()
	otherWishlist := uuid.New()

	repo := &fakeRepository{
		listSharedWithUserFn: func(ctx context.Context, uID uuid.UUID, now time.Time) ([]models.WishlistShare, error) {
			return []models.WishlistShare{
				{ID: uuid.New(), WishlistID: wishlistID},
				{ID: uuid.New(), WishlistID: wishlistID},
				{ID: uuid.New(), WishlistID: otherWishlist},
			}, nil
		},
	}
	fx := newFixture(t, repo, nil, nil)

	result, err := fx.svc.ListSharedWithMe(context.Background(), userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("expected 2 deduplicated shares, got %d", len(result))
	}
}

func TestInfo_UnknownTokenNotFound(t *testing.T) {
	fx := newFixture(t, &fakeRepository{}, nil, nil)
	_, err := fx.svc.Info(context.Background(), "nope")
	if err == nil {
		t.Fatal("expected not found")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %s", pkgerrors.As(err).Code())
	}
}

func TestInfo_InactiveAndExpiredForbidden(t *testing.T) {
	wishlist := ownedWishlist(uuid.New())
	past := time.Now().Add(-time.Hour)

	cases := []struct {
		name  string
		share models.WishlistShare
	}{
		{"inactive", models.WishlistShare{WishlistID: wishlist.ID, IsActive: false}},
		{"expired", models.WishlistShare{WishlistID: wishlist.ID, IsActive: true, ExpiresAt: &past}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := wishlistRepo(wishlist)
			share := tc.share
			repo.findByTokenFn = func(ctx context.Context, token string) (*models.WishlistShare, error) {
				return &share, nil
			}
			fx := newFixture(t, repo, nil, nil)
			_, err := fx.svc.Info(context.Background(), "token")
			if err == nil {
				t.Fatal("expected forbidden")
			}
			if pkgerrors.As(err).Code() != pkgerrors.CodeForbidden {
				t.Fatalf("expected forbidden, got %s", pkgerrors.As(err).Code())
			}
		})
	}
}

func TestAccess_WrongPasswordUnauthorized(t *testing.T) {
	wishlist := ownedWishlist(uuid.New())
	hash := mustHash(t, "secret")
	repo := wishlistRepo(wishlist)
	repo.findByTokenFn = func(ctx context.Context, token string) (*models.WishlistShare, error) {
		return &models.WishlistShare{WishlistID: wishlist.ID, IsActive: true, SharePasswordHash: &hash}, nil
	}
	listCalled := false
	itemSvc := &fakeItems{
		listForVisitorFn: func(ctx context.Context, wishlistID uuid.UUID) ([]items.ItemDTO, error) {
			listCalled = true
			return nil, nil
		},
	}
	fx := newFixture(t, repo, nil, itemSvc)

	_, err := fx.svc.Access(context.Background(), "token", "wrong")
	if err == nil {
		t.Fatal("expected unauthorized")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %s", pkgerrors.As(err).Code())
	}
	if listCalled {
		t.Fatal("items must never leak before password verification")
	}
}

func TestAccess_ReturnsTrueReservationState(t *testing.T) {
	owner := uuid.New()
	wishlist := ownedWishlist(owner)
	wishlist.NotifyOwnerOnReservation = false
	hash := mustHash(t, "secret")

	repo := wishlistRepo(wishlist)
	repo.findByTokenFn = func(ctx context.Context, token string) (*models.WishlistShare, error) {
		return &models.WishlistShare{WishlistID: wishlist.ID, IsActive: true, SharePasswordHash: &hash}, nil
	}
	reserver := "cousin"
	itemSvc := &fakeItems{
		listForVisitorFn: func(ctx context.Context, wishlistID uuid.UUID) ([]items.ItemDTO, error) {
			return []items.ItemDTO{{ID: uuid.New(), Status: enums.ItemStatusReserved, ReservedByName: &reserver}}, nil
		},
	}
	users := &fakeUserDirectory{byID: map[uuid.UUID]*models.User{owner: {ID: owner, Username: "listowner"}}}
	fx := newFixture(t, repo, users, itemSvc)

	result, err := fx.svc.Access(context.Background(), "token", "secret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.OwnerName != "listowner" {
		t.Fatalf("expected owner name, got %q", result.OwnerName)
	}
	if result.Items[0].Status != enums.ItemStatusReserved {
		t.Fatal("external visitors see the true reservation state")
	}
}

func TestReserveByToken_NotifiesOwnerWhenFlagSet(t *testing.T) {
	owner := uuid.New()
	wishlist := ownedWishlist(owner)
	hash := mustHash(t, "secret")

	repo := wishlistRepo(wishlist)
	repo.findByTokenFn = func(ctx context.Context, token string) (*models.WishlistShare, error) {
		return &models.WishlistShare{WishlistID: wishlist.ID, IsActive: true, SharePasswordHash: &hash, NotifyOnReservation: true}, nil
	}
	fx := newFixture(t, repo, nil, nil)

	itemID := uuid.New()
	result, err := fx.svc.ReserveByToken(context.Background(), "token", "secret", itemID, "Grandma")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != enums.ItemStatusReserved {
		t.Fatalf("expected reserved, got %s", result.Status)
	}
	if len(fx.fanout.notified) != 1 || fx.fanout.notified[0] != owner {
		t.Fatalf("expected owner notified, got %v", fx.fanout.notified)
	}
}

func TestReserveByToken_NoOwnerNotificationWhenFlagOff(t *testing.T) {
	wishlist := ownedWishlist(uuid.New())
	hash := mustHash(t, "secret")

	repo := wishlistRepo(wishlist)
	repo.findByTokenFn = func(ctx context.Context, token string) (*models.WishlistShare, error) {
		return &models.WishlistShare{WishlistID: wishlist.ID, IsActive: true, SharePasswordHash: &hash, NotifyOnReservation: false}, nil
	}
	fx := newFixture(t, repo, nil, nil)

	if _, err := fx.svc.ReserveByToken(context.Background(), "token", "secret", uuid.New(), "Grandma"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fx.fanout.notified) != 0 {
		t.Fatalf("expected no notifications, got %v", fx.fanout.notified)
	}
}

func TestUpdate_PermissionOnlyForInternalShares(t *testing.T) {
	creator := uuid.New()
	share := &models.WishlistShare{ID: uuid.New(), ShareType: enums.ShareTypeExternal, CreatedBy: creator}
	repo := &fakeRepository{
		findByIDFn: func(ctx context.Context, shareID uuid.UUID) (*models.WishlistShare, error) {
			return share, nil
		},
	}
	fx := newFixture(t, repo, nil, nil)

	permission := enums.SharePermissionEditor
	_, err := fx.svc.Update(context.Background(), items.Principal{UserID: creator}, share.ID, UpdateShareDTO{Permission: &permission})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation, got %s", pkgerrors.As(err).Code())
	}
}

func TestUpdate_PasswordOnlyForExternalShares(t *testing.T) {
	creator := uuid.New()
	target := uuid.New()
	share := &models.WishlistShare{ID: uuid.New(), ShareType: enums.ShareTypeInternal, TargetUserID: &target, CreatedBy: creator}
	repo := &fakeRepository{
		findByIDFn: func(ctx context.Context, shareID uuid.UUID) (*models.WishlistShare, error) {
			return share, nil
		},
		updateFn: func(ctx context.Context, shareID uuid.UUID, updates map[string]any) (bool, error) {
			t.Fatalf("internal share must not be updated with %v", updates)
			return false, nil
		},
	}
	fx := newFixture(t, repo, nil, nil)

	password := "hunter2-hunter2"
	_, err := fx.svc.Update(context.Background(), items.Principal{UserID: creator}, share.ID, UpdateShareDTO{Password: &password})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation, got %s", pkgerrors.As(err).Code())
	}
}

func TestDelete_CreatorOnly(t *testing.T) {
	share := &models.WishlistShare{ID: uuid.New(), CreatedBy: uuid.New()}
	repo := &fakeRepository{
		findByIDFn: func(ctx context.Context, shareID uuid.UUID) (*models.WishlistShare, error) {
			return share, nil
		},
	}
	fx := newFixture(t, repo, nil, nil)

	err := fx.svc.Delete(context.Background(), items.Principal{UserID: uuid.New()}, share.ID)
	if err == nil {
		t.Fatal("expected forbidden")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %s", pkgerrors.As(err).Code())
	}
}
