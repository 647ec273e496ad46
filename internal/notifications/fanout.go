package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wisherr-app/wisherr-backend/pkg/db/models"
	"github.com/wisherr-app/wisherr-backend/pkg/enums"
	pkgerrors "github.com/wisherr-app/wisherr-backend/pkg/errors"
	"github.com/wisherr-app/wisherr-backend/pkg/logger"
)

// RecipientSource resolves the audiences a wishlist event fans out to.
type RecipientSource interface {
	CollaboratorIDs(ctx context.Context, wishlistID uuid.UUID) ([]uuid.UUID, error)
	GroupMemberIDsViaShares(ctx context.Context, wishlistID uuid.UUID, now time.Time) ([]uuid.UUID, error)
}

type recipientSourceImpl struct {
	db *gorm.DB
}

// NewRecipientSource returns a recipient source bound to the provided database.
func NewRecipientSource(db *gorm.DB) RecipientSource {
	return &recipientSourceImpl{db: db}
}

func (r *recipientSourceImpl) CollaboratorIDs(ctx context.Context, wishlistID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.WishlistCollaborator{}).
		Where("wishlist_id = ?", wishlistID).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *recipientSourceImpl) GroupMemberIDsViaShares(ctx context.Context, wishlistID uuid.UUID, now time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Table("group_members gm").
		Select("DISTINCT gm.user_id").
		Joins("JOIN wishlist_shares ws ON ws.target_group_id = gm.group_id").
		Where("ws.wishlist_id = ? AND ws.share_type = ? AND ws.is_active", wishlistID, enums.ShareTypeInternal).
		Where("ws.expires_at IS NULL OR ws.expires_at > ?", now).
		Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Fanout delivers one notification row per interested user for a wishlist
// event. Delivery is best-effort; failures are logged and never propagated.
type Fanout interface {
	Recipients(ctx context.Context, wishlist *models.Wishlist, actor uuid.UUID) ([]uuid.UUID, error)
	Fan(ctx context.Context, params FanParams)
	NotifyUser(ctx context.Context, userID uuid.UUID, params EventParams)
}

// EventParams describes the notification payload for one event.
type EventParams struct {
	Type       enums.NotificationType
	Title      string
	Message    string
	Icon       string
	Color      string
	Link       *string
	TargetType *string
	TargetID   *uuid.UUID
}

// FanParams pairs an event with the wishlist and acting user.
type FanParams struct {
	Wishlist *models.Wishlist
	Actor    uuid.UUID
	Event    EventParams
}

type fanout struct {
	repo   Repository
	source RecipientSource
	logg   *logger.Logger
	now    func() time.Time
}

// NewFanout wires the fan-out pipeline.
func NewFanout(repo Repository, source RecipientSource, logg *logger.Logger) (Fanout, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	if source == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "recipient source required")
	}
	return &fanout{repo: repo, source: source, logg: logg, now: time.Now}, nil
}

// Recipients returns the deduplicated audience for a wishlist event: the
// owner when notify_owner_on_reservation is set, every collaborator, and the
// members of groups holding an active internal share. The actor is always
// excluded.
func (f *fanout) Recipients(ctx context.Context, wishlist *models.Wishlist, actor uuid.UUID) ([]uuid.UUID, error) {
	if wishlist == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wishlist required")
	}

	seen := map[uuid.UUID]struct{}{}
	var recipients []uuid.UUID
	add := func(id uuid.UUID) {
		if id == uuid.Nil || id == actor {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		recipients = append(recipients, id)
	}

	if wishlist.NotifyOwnerOnReservation {
		add(wishlist.OwnerID)
	}

	collaborators, err := f.source.CollaboratorIDs(ctx, wishlist.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load collaborators")
	}
	for _, id := range collaborators {
		add(id)
	}

	members, err := f.source.GroupMemberIDsViaShares(ctx, wishlist.ID, f.now().UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load group members")
	}
	for _, id := range members {
		add(id)
	}

	return recipients, nil
}

func (f *fanout) Fan(ctx context.Context, params FanParams) {
	recipients, err := f.Recipients(ctx, params.Wishlist, params.Actor)
	if err != nil {
		if f.logg != nil {
			f.logg.Error(ctx, "notification.fanout_failed", err)
		}
		return
	}
	if len(recipients) == 0 {
		return
	}

	rows := make([]models.Notification, 0, len(recipients))
	for _, recipient := range recipients {
		rows = append(rows, buildNotification(recipient, params.Event))
	}
	if err := f.repo.CreateMany(ctx, rows); err != nil && f.logg != nil {
		f.logg.Error(ctx, "notification.fanout_write_failed", err)
	}
}

func (f *fanout) NotifyUser(ctx context.Context, userID uuid.UUID, params EventParams) {
	if userID == uuid.Nil {
		return
	}
	row := buildNotification(userID, params)
	if err := f.repo.Create(ctx, &row); err != nil && f.logg != nil {
		f.logg.Error(ctx, "notification.write_failed", err)
	}
}

func buildNotification(userID uuid.UUID, event EventParams) models.Notification {
	icon := event.Icon
	if icon == "" {
		icon = "bell"
	}
	color := event.Color
	if color == "" {
		color = "#6366f1"
	}
	return models.Notification{
		UserID:     userID,
		Type:       event.Type,
		Title:      event.Title,
		Message:    event.Message,
		Icon:       icon,
		Color:      color,
		Link:       event.Link,
		TargetType: event.TargetType,
		TargetID:   event.TargetID,
	}
}
