package groups

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wisherr-app/wisherr-backend/internal/activities"
	"github.com/wisherr-app/wisherr-backend/internal/notifications"
	"github.com/wisherr-app/wisherr-backend/pkg/db/models"
	"github.com/wisherr-app/wisherr-backend/pkg/enums"
	pkgerrors "github.com/wisherr-app/wisherr-backend/pkg/errors"
)

type fakeRepository struct {
	createFn       func(ctx context.Context, group *models.Group, creator uuid.UUID) error
	findByIDFn     func(ctx context.Context, groupID uuid.UUID) (*models.Group, error)
	listForUserFn  func(ctx context.Context, userID uuid.UUID) ([]GroupWithCount, error)
	updateFn       func(ctx context.Context, groupID uuid.UUID, updates map[string]any) (bool, error)
	deleteFn       func(ctx context.Context, groupID uuid.UUID) (bool, error)
	listMembersFn  func(ctx context.Context, groupID uuid.UUID) ([]models.GroupMember, error)
	isMemberFn     func(ctx context.Context, groupID, userID uuid.UUID) (bool, error)
	addMemberFn    func(ctx context.Context, member *models.GroupMember) error
	removeMemberFn func(ctx context.Context, groupID, userID uuid.UUID) (bool, error)
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, group *models.Group, creator uuid.UUID) error {
	if f.createFn != nil {
		return f.createFn(ctx, group, creator)
	}
	group.ID = uuid.New()
	return nil
}

func (f *fakeRepository) FindByID(ctx context.Context, groupID uuid.UUID) (*models.Group, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, groupID)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]GroupWithCount, error) {
	if f.listForUserFn != nil {
		return f.listForUserFn(ctx, userID)
	}
	return nil, nil
}

func (f *fakeRepository) Update(ctx context.Context, groupID uuid.UUID, updates map[string]any) (bool, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, groupID, updates)
	}
	return true, nil
}

func (f *fakeRepository) Delete(ctx context.Context, groupID uuid.UUID) (bool, error) {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, groupID)
	}
	return true, nil
}

func (f *fakeRepository) ListMembers(ctx context.Context, groupID uuid.UUID) ([]models.GroupMember, error) {
	if f.listMembersFn != nil {
		return f.listMembersFn(ctx, groupID)
	}
	return nil, nil
}

func (f *fakeRepository) IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	if f.isMemberFn != nil {
		return f.isMemberFn(ctx, groupID, userID)
	}
	return false, nil
}

func (f *fakeRepository) AddMember(ctx context.Context, member *models.GroupMember) error {
	if f.addMemberFn != nil {
		return f.addMemberFn(ctx, member)
	}
	return nil
}

func (f *fakeRepository) RemoveMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	if f.removeMemberFn != nil {
		return f.removeMemberFn(ctx, groupID, userID)
	}
	return true, nil
}

func (f *fakeRepository) MemberCount(ctx context.Context, groupID uuid.UUID) (int64, error) {
	return 0, nil
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

type groupFixture struct {
	svc    Service
	fanout *fakeFanout
	acts   *fakeActivities
}

func newFixture(t *testing.T, repo *fakeRepository, users *fakeUserDirectory) *groupFixture {
	t.Helper()
	if users == nil {
		users = &fakeUserDirectory{}
	}
	fan := &fakeFanout{}
	acts := &fakeActivities{}
	svc, err := NewService(ServiceParams{Repo: repo, Users: users, Fanout: fan, Activities: acts})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &groupFixture{svc: svc, fanout: fan, acts: acts}
}

func groupRepo(group *models.Group) *fakeRepository {
	return &fakeRepository{
		findByIDFn: func(ctx context.Context, groupID uuid.UUID) (*models.Group, error) {
			if groupID == group.ID {
				return group, nil
			}
			return nil, gorm.ErrRecordNotFound
		},
	}
}

func TestCreate_CreatorBecomesMember(t *testing.T) {
	creator := uuid.New()
	var memberAdded uuid.UUID
	repo := &fakeRepository{
		createFn: func(ctx context.Context, group *models.Group, c uuid.UUID) error {
			group.ID = uuid.New()
			memberAdded = c
			return nil
		},
	}
	fx := newFixture(t, repo, nil)

	result, err := fx.svc.Create(context.Background(), creator, CreateGroupDTO{Name: " Family "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if memberAdded != creator {
		t.Fatal("creator must be added as a member")
	}
	if result.Name != "Family" {
		t.Fatalf("expected trimmed name, got %q", result.Name)
	}
	if result.MemberCount != 1 {
		t.Fatalf("expected member count 1, got %d", result.MemberCount)
	}
	if len(fx.acts.recorded) != 1 || fx.acts.recorded[0].Action != enums.ActivityActionGroupCreated {
		t.Fatal("expected group_created activity")
	}
}

func TestGet_MemberOnly(t *testing.T) {
	group := &models.Group{ID: uuid.New(), OwnerID: uuid.New(), Name: "Family"}
	fx := newFixture(t, groupRepo(group), nil)

	_, err := fx.svc.Get(context.Background(), uuid.New(), group.ID)
	if err == nil {
		t.Fatal("expected forbidden")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %s", pkgerrors.As(err).Code())
	}
}

func TestGet_ResolvesMemberUsernames(t *testing.T) {
	owner := uuid.New()
	member := uuid.New()
	group := &models.Group{ID: uuid.New(), OwnerID: owner, Name: "Family"}

	repo := groupRepo(group)
	repo.listMembersFn = func(ctx context.Context, groupID uuid.UUID) ([]models.GroupMember, error) {
		return []models.GroupMember{
			{GroupID: groupID, UserID: owner},
			{GroupID: groupID, UserID: member},
		}, nil
	}
	users := &fakeUserDirectory{byID: map[uuid.UUID]*models.User{
		owner:  {ID: owner, Username: "mom"},
		member: {ID: member, Username: "kid"},
	}}
	fx := newFixture(t, repo, users)

	result, err := fx.svc.Get(context.Background(), owner, group.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(result.Members))
	}
	if !result.Members[0].IsOwner || result.Members[0].Username != "mom" {
		t.Fatalf("unexpected first member %+v", result.Members[0])
	}
	if result.MemberCount != 2 {
		t.Fatalf("expected member count 2, got %d", result.MemberCount)
	}
}

func TestAddMember_OwnerOnly(t *testing.T) {
	group := &models.Group{ID: uuid.New(), OwnerID: uuid.New(), Name: "Family"}
	fx := newFixture(t, groupRepo(group), nil)

	username := "friend"
	_, err := fx.svc.AddMember(context.Background(), uuid.New(), group.ID, AddMemberDTO{Username: &username})
	if err == nil {
		t.Fatal("expected forbidden")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %s", pkgerrors.As(err).Code())
	}
}

func TestAddMember_DuplicateRejected(t *testing.T) {
	owner := uuid.New()
	target := &models.User{ID: uuid.New(), Username: "friend"}
	group := &models.Group{ID: uuid.New(), OwnerID: owner, Name: "Family"}

	repo := groupRepo(group)
	repo.isMemberFn = func(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
		return true, nil
	}
	users := &fakeUserDirectory{byUsername: map[string]*models.User{"friend": target}}
	fx := newFixture(t, repo, users)

	username := "friend"
	_, err := fx.svc.AddMember(context.Background(), owner, group.ID, AddMemberDTO{Username: &username})
	if err == nil {
		t.Fatal("expected conflict")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %s", pkgerrors.As(err).Code())
	}
}

func TestAddMember_NotifiesTarget(t *testing.T) {
	owner := uuid.New()
	target := &models.User{ID: uuid.New(), Username: "friend"}
	group := &models.Group{ID: uuid.New(), OwnerID: owner, Name: "Family"}

	users := &fakeUserDirectory{byEmail: map[string]*models.User{"friend@example.com": target}}
	fx := newFixture(t, groupRepo(group), users)

	email := "friend@example.com"
	result, err := fx.svc.AddMember(context.Background(), owner, group.ID, AddMemberDTO{Email: &email})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.UserID != target.ID || result.Username != "friend" {
		t.Fatalf("unexpected member %+v", result)
	}
	if len(fx.fanout.notified) != 1 || fx.fanout.notified[0] != target.ID {
		t.Fatalf("expected target notified, got %v", fx.fanout.notified)
	}
	if fx.fanout.events[0].Type != enums.NotificationTypeGroupAdded {
		t.Fatalf("unexpected event type %s", fx.fanout.events[0].Type)
	}
}

func TestRemoveMember_MemberRemovesSelfWithoutNotification(t *testing.T) {
	owner := uuid.New()
	member := uuid.New()
	group := &models.Group{ID: uuid.New(), OwnerID: owner, Name: "Family"}
	fx := newFixture(t, groupRepo(group), nil)

	if err := fx.svc.RemoveMember(context.Background(), member, group.ID, member); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fx.fanout.notified) != 0 {
		t.Fatal("self-removal must not notify")
	}
}

func TestRemoveMember_OwnerRemovalNotifies(t *testing.T) {
	owner := uuid.New()
	member := uuid.New()
	group := &models.Group{ID: uuid.New(), OwnerID: owner, Name: "Family"}
	fx := newFixture(t, groupRepo(group), nil)

	if err := fx.svc.RemoveMember(context.Background(), owner, group.ID, member); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fx.fanout.notified) != 1 || fx.fanout.notified[0] != member {
		t.Fatalf("expected removed member notified, got %v", fx.fanout.notified)
	}
	if fx.fanout.events[0].Type != enums.NotificationTypeGroupRemoved {
		t.Fatalf("unexpected event type %s", fx.fanout.events[0].Type)
	}
}

func TestRemoveMember_MemberCannotRemoveOthers(t *testing.T) {
	group := &models.Group{ID: uuid.New(), OwnerID: uuid.New(), Name: "Family"}
	fx := newFixture(t, groupRepo(group), nil)

	err := fx.svc.RemoveMember(context.Background(), uuid.New(), group.ID, uuid.New())
	if err == nil {
		t.Fatal("expected forbidden")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %s", pkgerrors.As(err).Code())
	}
}

func TestRemoveMember_OwnerCannotLeave(t *testing.T) {
	owner := uuid.New()
	group := &models.Group{ID: uuid.New(), OwnerID: owner, Name: "Family"}
	fx := newFixture(t, groupRepo(group), nil)

	err := fx.svc.RemoveMember(context.Background(), owner, group.ID, owner)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation, got %s", pkgerrors.As(err).Code())
	}
}

func TestCheckUser_ReportsExistence(t *testing.T) {
	target := &models.User{ID: uuid.New(), Username: "friend"}
	users := &fakeUserDirectory{byUsername: map[string]*models.User{"friend": target}}
	fx := newFixture(t, &fakeRepository{}, users)

	result, err := fx.svc.CheckUser(context.Background(), "friend", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Exists || *result.UserID != target.ID {
		t.Fatalf("expected existing user, got %+v", result)
	}

	missing, err := fx.svc.CheckUser(context.Background(), "stranger", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if missing.Exists {
		t.Fatal("expected missing user")
	}
}
