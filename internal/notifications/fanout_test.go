package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/wisherr-app/wisherr-backend/pkg/db/models"
	"github.com/wisherr-app/wisherr-backend/pkg/enums"
)

type fakeRecipientSource struct {
	collaborators []uuid.UUID
	groupMembers  []uuid.UUID
	err           error
}

func (f *fakeRecipientSource) CollaboratorIDs(ctx context.Context, wishlistID uuid.UUID) ([]uuid.UUID, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.collaborators, nil
}

func (f *fakeRecipientSource) GroupMemberIDsViaShares(ctx context.Context, wishlistID uuid.UUID, now time.Time) ([]uuid.UUID, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.groupMembers, nil
}

func newFanoutWithDeps(repo Repository, source RecipientSource) Fanout {
	f, _ := NewFanout(repo, source, nil)
	return f
}

func TestRecipients_UnionMinusActorDeduped(t *testing.T) {
	owner := uuid.New()
	actor := uuid.New()
	shared := uuid.New()
	member := uuid.New()

	wishlist := &models.Wishlist{ID: uuid.New(), OwnerID: owner, NotifyOwnerOnReservation: true}
	source := &fakeRecipientSource{
		collaborators: []uuid.UUID{shared, actor},
		groupMembers:  []uuid.UUID{shared, member},
	}

	recipients, err := newFanoutWithDeps(&fakeRepository{}, source).Recipients(context.Background(), wishlist, actor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[uuid.UUID]bool{owner: true, shared: true, member: true}
	if len(recipients) != len(want) {
		t.Fatalf("expected %d recipients, got %d: %v", len(want), len(recipients), recipients)
	}
	for _, id := range recipients {
		if !want[id] {
			t.Fatalf("unexpected recipient %s", id)
		}
		if id == actor {
			t.Fatal("actor must never be a recipient")
		}
	}
}

func TestRecipients_OwnerExcludedWhenFlagOff(t *testing.T) {
	owner := uuid.New()
	wishlist := &models.Wishlist{ID: uuid.New(), OwnerID: owner, NotifyOwnerOnReservation: false}

	recipients, err := newFanoutWithDeps(&fakeRepository{}, &fakeRecipientSource{}).Recipients(context.Background(), wishlist, uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, id := range recipients {
		if id == owner {
			t.Fatal("owner must not be notified when the flag is off")
		}
	}
}

func TestRecipients_OwnerAsActorExcluded(t *testing.T) {
	owner := uuid.New()
	wishlist := &models.Wishlist{ID: uuid.New(), OwnerID: owner, NotifyOwnerOnReservation: true}

	recipients, err := newFanoutWithDeps(&fakeRepository{}, &fakeRecipientSource{}).Recipients(context.Background(), wishlist, owner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recipients) != 0 {
		t.Fatalf("expected no recipients, got %v", recipients)
	}
}

func TestFan_WritesOneRowPerRecipient(t *testing.T) {
	owner := uuid.New()
	collaborator := uuid.New()
	wishlist := &models.Wishlist{ID: uuid.New(), OwnerID: owner, NotifyOwnerOnReservation: true}

	var written []models.Notification
	repo := &fakeRepository{
		createManyFn: func(ctx context.Context, notifications []models.Notification) error {
			written = notifications
			return nil
		},
	}
	source := &fakeRecipientSource{collaborators: []uuid.UUID{collaborator}}

	newFanoutWithDeps(repo, source).Fan(context.Background(), FanParams{
		Wishlist: wishlist,
		Actor:    uuid.New(),
		Event: EventParams{
			Type:    enums.NotificationTypeItemReserved,
			Title:   "Item reserved",
			Message: "Someone reserved an item",
		},
	})

	if len(written) != 2 {
		t.Fatalf("expected 2 notification rows, got %d", len(written))
	}
	for _, row := range written {
		if row.Type != enums.NotificationTypeItemReserved {
			t.Fatalf("unexpected type %s", row.Type)
		}
		if row.Icon != "bell" || row.Color == "" {
			t.Fatalf("expected presentation defaults, got icon=%q color=%q", row.Icon, row.Color)
		}
	}
}

func TestFan_SwallowsWriteFailure(t *testing.T) {
	repo := &fakeRepository{
		createManyFn: func(ctx context.Context, notifications []models.Notification) error {
			return errors.New("db down")
		},
	}
	wishlist := &models.Wishlist{ID: uuid.New(), OwnerID: uuid.New(), NotifyOwnerOnReservation: true}
	newFanoutWithDeps(repo, &fakeRecipientSource{}).Fan(context.Background(), FanParams{
		Wishlist: wishlist,
		Actor:    uuid.New(),
		Event:    EventParams{Type: enums.NotificationTypeItemReserved},
	})
}

func TestNotifyUser_SingleRow(t *testing.T) {
	var saved *models.Notification
	repo := &fakeRepository{
		createFn: func(ctx context.Context, notification *models.Notification) error {
			saved = notification
			return nil
		},
	}
	target := uuid.New()

	newFanoutWithDeps(repo, &fakeRecipientSource{}).NotifyUser(context.Background(), target, EventParams{
		Type:  enums.NotificationTypeShareReceived,
		Title: "Wishlist shared with you",
	})

	if saved == nil || saved.UserID != target {
		t.Fatal("expected notification for target user")
	}
}
