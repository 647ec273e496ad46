package wishlists

import (
	"context"
	"testing"

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
)

type fakeRepository struct {
	createFn                 func(ctx context.Context, wishlist *models.Wishlist) error
	findByIDFn               func(ctx context.Context, wishlistID uuid.UUID) (*models.Wishlist, error)
	listByOwnerFn            func(ctx context.Context, ownerID uuid.UUID, includeArchived bool) ([]WishlistWithCount, error)
	updateFn                 func(ctx context.Context, wishlistID uuid.UUID, updates map[string]any) (bool, error)
	deleteFn                 func(ctx context.Context, wishlistID uuid.UUID) (bool, error)
	listCollaboratorsFn      func(ctx context.Context, wishlistID uuid.UUID) ([]models.WishlistCollaborator, error)
	upsertCollaboratorFn     func(ctx context.Context, collaborator *models.WishlistCollaborator) error
	updateCollaboratorRoleFn func(ctx context.Context, wishlistID, userID uuid.UUID, role enums.CollaboratorRole) (bool, error)
	removeCollaboratorFn     func(ctx context.Context, wishlistID, userID uuid.UUID) (bool, error)
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, wishlist *models.Wishlist) error {
	if f.createFn != nil {
		return f.createFn(ctx, wishlist)
	}
	wishlist.ID = uuid.New()
	return nil
}

func (f *fakeRepository) FindByID(ctx context.Context, wishlistID uuid.UUID) (*models.Wishlist, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, wishlistID)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, includeArchived bool) ([]WishlistWithCount, error) {
	if f.listByOwnerFn != nil {
		return f.listByOwnerFn(ctx, ownerID, includeArchived)
	}
	return nil, nil
}

func (f *fakeRepository) Update(ctx context.Context, wishlistID uuid.UUID, updates map[string]any) (bool, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, wishlistID, updates)
	}
	return true, nil
}

func (f *fakeRepository) Delete(ctx context.Context, wishlistID uuid.UUID) (bool, error) {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, wishlistID)
	}
	return true, nil
}

func (f *fakeRepository) CountItems(ctx context.Context, wishlistID uuid.UUID) (int64, error) {
	return 0, nil
}

func (f *fakeRepository) ListCollaborators(ctx context.Context, wishlistID uuid.UUID) ([]models.WishlistCollaborator, error) {
	if f.listCollaboratorsFn != nil {
		return f.listCollaboratorsFn(ctx, wishlistID)
	}
	return nil, nil
}

func (f *fakeRepository) UpsertCollaborator(ctx context.Context, collaborator *models.WishlistCollaborator) error {
	if f.upsertCollaboratorFn != nil {
		return f.upsertCollaboratorFn(ctx, collaborator)
	}
	return nil
}

func (f *fakeRepository) UpdateCollaboratorRole(ctx context.Context, wishlistID, userID uuid.UUID, role enums.CollaboratorRole) (bool, error) {
	if f.updateCollaboratorRoleFn != nil {
		return f.updateCollaboratorRoleFn(ctx, wishlistID, userID, role)
	}
	return true, nil
}

func (f *fakeRepository) RemoveCollaborator(ctx context.Context, wishlistID, userID uuid.UUID) (bool, error) {
	if f.removeCollaboratorFn != nil {
		return f.removeCollaboratorFn(ctx, wishlistID, userID)
	}
	return true, nil
}

type fakeAccess struct {
	grant access.Grant
	err   error
}

func (f *fakeAccess) Resolve(ctx context.Context, wishlistID, userID uuid.UUID, isAdmin bool) (access.Grant, error) {
	if f.err != nil {
		return access.Grant{}, f.err
	}
	return f.grant, nil
}

func (f *fakeAccess) RequireView(ctx context.Context, wishlistID, userID uuid.UUID, isAdmin bool) (access.Grant, error) {
	return f.Resolve(ctx, wishlistID, userID, isAdmin)
}

func (f *fakeAccess) RequireEdit(ctx context.Context, wishlistID, userID uuid.UUID, isAdmin bool) (access.Grant, error) {
	grant, err := f.Resolve(ctx, wishlistID, userID, isAdmin)
	if err != nil {
		return access.Grant{}, err
	}
	if !grant.CanEdit() {
		return access.Grant{}, pkgerrors.New(pkgerrors.CodeForbidden, "edit access required")
	}
	return grant, nil
}

func (f *fakeAccess) RequireOwner(ctx context.Context, wishlistID, userID uuid.UUID, isAdmin bool) (access.Grant, error) {
	grant, err := f.Resolve(ctx, wishlistID, userID, isAdmin)
	if err != nil {
		return access.Grant{}, err
	}
	if !grant.IsOwner() {
		return access.Grant{}, pkgerrors.New(pkgerrors.CodeForbidden, "owner access required")
	}
	return grant, nil
}

type fakeUserDirectory struct {
	byID       map[uuid.UUID]*models.User
	byUsername map[string]*models.User
}

func (f *fakeUserDirectory) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	if user, ok := f.byUsername[username]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserDirectory) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error) {
	var found []models.User
	for _, id := range ids {
		if user, ok := f.byID[id]; ok {
			found = append(found, *user)
		}
	}
	return found, nil
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

type wishlistFixture struct {
	svc    Service
	fanout *fakeFanout
	acts   *fakeActivities
}

func newFixture(t *testing.T, repo *fakeRepository, grant access.Grant, users *fakeUserDirectory) *wishlistFixture {
	t.Helper()
	if users == nil {
		users = &fakeUserDirectory{}
	}
	fan := &fakeFanout{}
	acts := &fakeActivities{}
	svc, err := NewService(ServiceParams{
		Repo:       repo,
		Access:     &fakeAccess{grant: grant},
		Users:      users,
		Fanout:     fan,
		Activities: acts,
		Password:   config.PasswordConfig{},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &wishlistFixture{svc: svc, fanout: fan, acts: acts}
}

func ownerGrant(wishlist *models.Wishlist) access.Grant {
	return access.Grant{Wishlist: wishlist, Role: enums.CollaboratorRoleOwner, Source: access.SourceOwner}
}

func viewerGrant(wishlist *models.Wishlist) access.Grant {
	return access.Grant{Wishlist: wishlist, Role: enums.CollaboratorRoleViewer, Source: access.SourceCollaborator}
}

func reloadRepo(wishlist *models.Wishlist) *fakeRepository {
	return &fakeRepository{
		findByIDFn: func(ctx context.Context, wishlistID uuid.UUID) (*models.Wishlist, error) {
			if wishlistID == wishlist.ID {
				return wishlist, nil
			}
			return nil, gorm.ErrRecordNotFound
		},
	}
}

func TestCreate_TrimsTitleAndRecordsActivity(t *testing.T) {
	owner := uuid.New()
	fx := newFixture(t, &fakeRepository{}, access.Grant{}, nil)

	result, err := fx.svc.Create(context.Background(), owner, CreateWishlistDTO{Title: "  Birthday  "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Title != "Birthday" {
		t.Fatalf("expected trimmed title, got %q", result.Title)
	}
	if !result.NotifyOwnerOnReservation {
		t.Fatal("new wishlists default to notifying the owner")
	}
	if len(fx.acts.recorded) != 1 || fx.acts.recorded[0].Action != enums.ActivityActionWishlistCreated {
		t.Fatal("expected wishlist_created activity")
	}
}

func TestCreate_RejectsEmptyTitle(t *testing.T) {
	fx := newFixture(t, &fakeRepository{}, access.Grant{}, nil)
	_, err := fx.svc.Create(context.Background(), uuid.New(), CreateWishlistDTO{Title: "  "})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation, got %s", pkgerrors.As(err).Code())
	}
}

func TestGet_ReturnsResolvedRole(t *testing.T) {
	wishlist := &models.Wishlist{ID: uuid.New(), OwnerID: uuid.New(), Title: "Birthday"}
	fx := newFixture(t, reloadRepo(wishlist), viewerGrant(wishlist), nil)

	result, err := fx.svc.Get(context.Background(), items.Principal{UserID: uuid.New()}, wishlist.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Role != enums.CollaboratorRoleViewer {
		t.Fatalf("expected viewer role, got %s", result.Role)
	}
	if result.Source != access.SourceCollaborator {
		t.Fatalf("expected collaborator source, got %s", result.Source)
	}
}

func TestUpdate_ViewerForbidden(t *testing.T) {
	wishlist := &models.Wishlist{ID: uuid.New(), OwnerID: uuid.New()}
	fx := newFixture(t, reloadRepo(wishlist), viewerGrant(wishlist), nil)

	title := "New"
	_, err := fx.svc.Update(context.Background(), items.Principal{UserID: uuid.New()}, wishlist.ID, UpdateWishlistDTO{Title: &title})
	if err == nil {
		t.Fatal("expected forbidden")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %s", pkgerrors.As(err).Code())
	}
}

func TestUpdateSettings_OwnerOnly(t *testing.T) {
	wishlist := &models.Wishlist{ID: uuid.New(), OwnerID: uuid.New()}
	grant := access.Grant{Wishlist: wishlist, Role: enums.CollaboratorRoleEditor, Source: access.SourceCollaborator}
	fx := newFixture(t, reloadRepo(wishlist), grant, nil)

	off := false
	_, err := fx.svc.UpdateSettings(context.Background(), items.Principal{UserID: uuid.New()}, wishlist.ID, UpdateSettingsDTO{NotifyOwnerOnReservation: &off})
	if err == nil {
		t.Fatal("expected forbidden: editors cannot change settings")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %s", pkgerrors.As(err).Code())
	}
}

func TestUpdateSettings_TogglesSurpriseMode(t *testing.T) {
	owner := uuid.New()
	wishlist := &models.Wishlist{ID: uuid.New(), OwnerID: owner, NotifyOwnerOnReservation: true}
	repo := reloadRepo(wishlist)
	var applied map[string]any
	repo.updateFn = func(ctx context.Context, wishlistID uuid.UUID, updates map[string]any) (bool, error) {
		applied = updates
		wishlist.NotifyOwnerOnReservation = false
		return true, nil
	}
	fx := newFixture(t, repo, ownerGrant(wishlist), nil)

	off := false
	result, err := fx.svc.UpdateSettings(context.Background(), items.Principal{UserID: owner}, wishlist.ID, UpdateSettingsDTO{NotifyOwnerOnReservation: &off})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if applied["notify_owner_on_reservation"] != false {
		t.Fatalf("expected surprise mode update, got %v", applied)
	}
	if result.NotifyOwnerOnReservation {
		t.Fatal("expected flag off in response")
	}
}

func TestTransferOwnership_NotifiesNewOwner(t *testing.T) {
	owner := uuid.New()
	target := &models.User{ID: uuid.New(), Username: "heir"}
	wishlist := &models.Wishlist{ID: uuid.New(), OwnerID: owner, Title: "Birthday"}

	repo := reloadRepo(wishlist)
	var applied map[string]any
	repo.updateFn = func(ctx context.Context, wishlistID uuid.UUID, updates map[string]any) (bool, error) {
		applied = updates
		return true, nil
	}
	users := &fakeUserDirectory{byUsername: map[string]*models.User{"heir": target}}
	fx := newFixture(t, repo, ownerGrant(wishlist), users)

	_, err := fx.svc.TransferOwnership(context.Background(), items.Principal{UserID: owner}, wishlist.ID, "heir")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if applied["owner_id"] != target.ID {
		t.Fatalf("expected ownership moved to target, got %v", applied)
	}
	if len(fx.fanout.notified) != 1 || fx.fanout.notified[0] != target.ID {
		t.Fatalf("expected new owner notified, got %v", fx.fanout.notified)
	}
}

func TestTransferOwnership_ToSelfRejected(t *testing.T) {
	owner := uuid.New()
	wishlist := &models.Wishlist{ID: uuid.New(), OwnerID: owner}
	users := &fakeUserDirectory{byUsername: map[string]*models.User{"me": {ID: owner, Username: "me"}}}
	fx := newFixture(t, reloadRepo(wishlist), ownerGrant(wishlist), users)

	_, err := fx.svc.TransferOwnership(context.Background(), items.Principal{UserID: owner}, wishlist.ID, "me")
	if err == nil {
		t.Fatal("expected validation error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation, got %s", pkgerrors.As(err).Code())
	}
}

func TestAddCollaborator_UpsertsAndNotifies(t *testing.T) {
	owner := uuid.New()
	target := &models.User{ID: uuid.New(), Username: "helper"}
	wishlist := &models.Wishlist{ID: uuid.New(), OwnerID: owner, Title: "Birthday"}

	repo := reloadRepo(wishlist)
	var saved *models.WishlistCollaborator
	repo.upsertCollaboratorFn = func(ctx context.Context, collaborator *models.WishlistCollaborator) error {
		saved = collaborator
		return nil
	}
	users := &fakeUserDirectory{byUsername: map[string]*models.User{"helper": target}}
	fx := newFixture(t, repo, ownerGrant(wishlist), users)

	result, err := fx.svc.AddCollaborator(context.Background(), items.Principal{UserID: owner}, wishlist.ID, "helper", enums.CollaboratorRoleEditor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if saved.UserID != target.ID || saved.Role != enums.CollaboratorRoleEditor {
		t.Fatalf("unexpected collaborator %+v", saved)
	}
	if result.Username != "helper" {
		t.Fatalf("expected resolved username, got %q", result.Username)
	}
	if len(fx.fanout.notified) != 1 || fx.fanout.events[0].Type != enums.NotificationTypeCollaborator {
		t.Fatal("expected collaborator notification")
	}
}

func TestAddCollaborator_OwnerRoleRejected(t *testing.T) {
	owner := uuid.New()
	wishlist := &models.Wishlist{ID: uuid.New(), OwnerID: owner}
	fx := newFixture(t, reloadRepo(wishlist), ownerGrant(wishlist), nil)

	_, err := fx.svc.AddCollaborator(context.Background(), items.Principal{UserID: owner}, wishlist.ID, "helper", enums.CollaboratorRoleOwner)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation, got %s", pkgerrors.As(err).Code())
	}
}

func TestRemoveCollaborator_SelfRemovalAllowed(t *testing.T) {
	wishlist := &models.Wishlist{ID: uuid.New(), OwnerID: uuid.New()}
	collaborator := uuid.New()
	fx := newFixture(t, reloadRepo(wishlist), viewerGrant(wishlist), nil)

	if err := fx.svc.RemoveCollaborator(context.Background(), items.Principal{UserID: collaborator}, wishlist.ID, collaborator); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRemoveCollaborator_NonOwnerCannotRemoveOthers(t *testing.T) {
	wishlist := &models.Wishlist{ID: uuid.New(), OwnerID: uuid.New()}
	fx := newFixture(t, reloadRepo(wishlist), viewerGrant(wishlist), nil)

	err := fx.svc.RemoveCollaborator(context.Background(), items.Principal{UserID: uuid.New()}, wishlist.ID, uuid.New())
	if err == nil {
		t.Fatal("expected forbidden")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %s", pkgerrors.As(err).Code())
	}
}

func TestListCollaborators_ResolvesUsernames(t *testing.T) {
	wishlist := &models.Wishlist{ID: uuid.New(), OwnerID: uuid.New()}
	helper := uuid.New()

	repo := reloadRepo(wishlist)
	repo.listCollaboratorsFn = func(ctx context.Context, wishlistID uuid.UUID) ([]models.WishlistCollaborator, error) {
		return []models.WishlistCollaborator{
			{WishlistID: wishlistID, UserID: helper, Role: enums.CollaboratorRoleEditor},
		}, nil
	}
	users := &fakeUserDirectory{byID: map[uuid.UUID]*models.User{helper: {ID: helper, Username: "helper"}}}
	fx := newFixture(t, repo, viewerGrant(wishlist), users)

	result, err := fx.svc.ListCollaborators(context.Background(), items.Principal{UserID: uuid.New()}, wishlist.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 1 || result[0].Username != "helper" || result[0].Role != enums.CollaboratorRoleEditor {
		t.Fatalf("unexpected collaborators %+v", result)
	}
}
