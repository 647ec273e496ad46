package groups

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wisherr-app/wisherr-backend/internal/activities"
	"github.com/wisherr-app/wisherr-backend/internal/notifications"
	"github.com/wisherr-app/wisherr-backend/pkg/db/models"
	"github.com/wisherr-app/wisherr-backend/pkg/enums"
	pkgerrors "github.com/wisherr-app/wisherr-backend/pkg/errors"
)

// UserDirectory resolves member targets and display names.
type UserDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error)
}

// GroupDTO is the transport shape of a group row.
type GroupDTO struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	MemberCount int64     `json:"member_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MemberDTO is one member row in a group detail view.
type MemberDTO struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	IsOwner  bool      `json:"is_owner"`
	AddedAt  time.Time `json:"added_at"`
}

// GroupDetailDTO is a group with its resolved member list.
type GroupDetailDTO struct {
	GroupDTO
	Members []MemberDTO `json:"members"`
}

// CreateGroupDTO holds the fields accepted when creating a group.
type CreateGroupDTO struct {
	Name        string
	Description *string
}

// UpdateGroupDTO holds the optional fields accepted when editing a group.
type UpdateGroupDTO struct {
	Name        *string
	Description *string
}

// AddMemberDTO identifies the user to add, by username or email.
type AddMemberDTO struct {
	Username *string
	Email    *string
}

// CheckUserResult reports whether a username/email resolves to an account.
type CheckUserResult struct {
	Exists   bool       `json:"exists"`
	UserID   *uuid.UUID `json:"user_id,omitempty"`
	Username *string    `json:"username,omitempty"`
}

// ServiceParams groups dependencies for the groups service.
type ServiceParams struct {
	Repo       Repository
	Users      UserDirectory
	Fanout     notifications.Fanout
	Activities activities.Service
}

// Service manages groups and their memberships.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]GroupDTO, error)
	Get(ctx context.Context, userID, groupID uuid.UUID) (*GroupDetailDTO, error)
	Create(ctx context.Context, userID uuid.UUID, dto CreateGroupDTO) (*GroupDTO, error)
	Update(ctx context.Context, userID, groupID uuid.UUID, dto UpdateGroupDTO) (*GroupDTO, error)
	Delete(ctx context.Context, userID, groupID uuid.UUID) error

	AddMember(ctx context.Context, userID, groupID uuid.UUID, dto AddMemberDTO) (*MemberDTO, error)
	RemoveMember(ctx context.Context, userID, groupID, memberID uuid.UUID) error
	CheckUser(ctx context.Context, username, email string) (*CheckUserResult, error)
}

type service struct {
	repo       Repository
	users      UserDirectory
	fanout     notifications.Fanout
	activities activities.Service
}

// NewService wires the groups service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "groups repository required")
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
		users:      params.Users,
		fanout:     params.Fanout,
		activities: params.Activities,
	}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]GroupDTO, error) {
	rows, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list groups")
	}
	result := make([]GroupDTO, 0, len(rows))
	for _, row := range rows {
		result = append(result, fromModel(row.Group, row.MemberCount))
	}
	return result, nil
}

// Get returns the group with its member list. Only the owner and members may
// see it.
func (s *service) Get(ctx context.Context, userID, groupID uuid.UUID) (*GroupDetailDTO, error) {
	group, err := s.loadGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	if group.OwnerID != userID {
		member, err := s.repo.IsMember(ctx, groupID, userID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check membership")
		}
		if !member {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "no access to group")
		}
	}

	members, err := s.repo.ListMembers(ctx, groupID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list members")
	}

	ids := make([]uuid.UUID, 0, len(members))
	for _, member := range members {
		ids = append(ids, member.UserID)
	}
	usersByID := map[uuid.UUID]models.User{}
	if resolved, err := s.users.FindByIDs(ctx, ids); err == nil {
		for _, user := range resolved {
			usersByID[user.ID] = user
		}
	}

	memberDTOs := make([]MemberDTO, 0, len(members))
	for _, member := range members {
		dto := MemberDTO{
			UserID:  member.UserID,
			IsOwner: member.UserID == group.OwnerID,
			AddedAt: member.AddedAt,
		}
		if user, ok := usersByID[member.UserID]; ok {
			dto.Username = user.Username
		}
		memberDTOs = append(memberDTOs, dto)
	}

	return &GroupDetailDTO{
		GroupDTO: fromModel(*group, int64(len(members))),
		Members:  memberDTOs,
	}, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, dto CreateGroupDTO) (*GroupDTO, error) {
	name := strings.TrimSpace(dto.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "group name required")
	}

	group := &models.Group{
		OwnerID:     userID,
		Name:        name,
		Description: dto.Description,
	}
	if err := s.repo.Create(ctx, group, userID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create group")
	}

	s.recordGroupActivity(ctx, userID, enums.ActivityActionGroupCreated, group)

	result := fromModel(*group, 1)
	return &result, nil
}

func (s *service) Update(ctx context.Context, userID, groupID uuid.UUID, dto UpdateGroupDTO) (*GroupDTO, error) {
	group, err := s.requireOwnedGroup(ctx, userID, groupID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if dto.Name != nil {
		name := strings.TrimSpace(*dto.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "group name required")
		}
		updates["name"] = name
	}
	if dto.Description != nil {
		updates["description"] = dto.Description
	}

	if len(updates) > 0 {
		found, err := s.repo.Update(ctx, groupID, updates)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update group")
		}
		if !found {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "group not found")
		}
	}

	updated, err := s.repo.FindByID(ctx, groupID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload group")
	}
	count, err := s.repo.MemberCount(ctx, groupID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count members")
	}

	s.recordGroupActivity(ctx, userID, enums.ActivityActionGroupUpdated, group)

	result := fromModel(*updated, count)
	return &result, nil
}

func (s *service) Delete(ctx context.Context, userID, groupID uuid.UUID) error {
	group, err := s.requireOwnedGroup(ctx, userID, groupID)
	if err != nil {
		return err
	}

	found, err := s.repo.Delete(ctx, groupID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete group")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "group not found")
	}

	s.recordGroupActivity(ctx, userID, enums.ActivityActionGroupDeleted, group)
	return nil
}

// AddMember adds a user to the group by username or email. Owner-only;
// duplicates are rejected and the new member is notified.
func (s *service) AddMember(ctx context.Context, userID, groupID uuid.UUID, dto AddMemberDTO) (*MemberDTO, error) {
	group, err := s.requireOwnedGroup(ctx, userID, groupID)
	if err != nil {
		return nil, err
	}

	target, err := s.resolveUser(ctx, dto.Username, dto.Email)
	if err != nil {
		return nil, err
	}

	already, err := s.repo.IsMember(ctx, groupID, target.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check membership")
	}
	if already {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "user is already a member")
	}

	member := &models.GroupMember{GroupID: groupID, UserID: target.ID}
	if err := s.repo.AddMember(ctx, member); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add member")
	}

	targetType := "group"
	targetID := groupID
	s.fanout.NotifyUser(ctx, target.ID, notifications.EventParams{
		Type:       enums.NotificationTypeGroupAdded,
		Title:      "Added to a group",
		Message:    fmt.Sprintf("You were added to %q", group.Name),
		Icon:       "users",
		TargetType: &targetType,
		TargetID:   &targetID,
	})
	s.recordMemberActivity(ctx, userID, enums.ActivityActionMemberAdded, group, target)

	return &MemberDTO{
		UserID:   target.ID,
		Username: target.Username,
		IsOwner:  target.ID == group.OwnerID,
		AddedAt:  member.AddedAt,
	}, nil
}

// RemoveMember removes a member. The owner may remove anyone; a member may
// only remove themselves. The removed user is notified unless they left on
// their own.
func (s *service) RemoveMember(ctx context.Context, userID, groupID, memberID uuid.UUID) error {
	group, err := s.loadGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if group.OwnerID != userID && memberID != userID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the owner can remove other members")
	}
	if memberID == group.OwnerID {
		return pkgerrors.New(pkgerrors.CodeValidation, "the owner cannot leave their own group")
	}

	found, err := s.repo.RemoveMember(ctx, groupID, memberID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove member")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "member not found")
	}

	if memberID != userID {
		targetType := "group"
		targetID := groupID
		s.fanout.NotifyUser(ctx, memberID, notifications.EventParams{
			Type:       enums.NotificationTypeGroupRemoved,
			Title:      "Removed from a group",
			Message:    fmt.Sprintf("You were removed from %q", group.Name),
			Icon:       "users",
			TargetType: &targetType,
			TargetID:   &targetID,
		})
	}
	s.recordMemberActivity(ctx, userID, enums.ActivityActionMemberRemoved, group, nil)
	return nil
}

// CheckUser reports whether an account exists for the given username or
// email, without requiring group access.
func (s *service) CheckUser(ctx context.Context, username, email string) (*CheckUserResult, error) {
	var namePtr, emailPtr *string
	if strings.TrimSpace(username) != "" {
		namePtr = &username
	}
	if strings.TrimSpace(email) != "" {
		emailPtr = &email
	}
	user, err := s.resolveUser(ctx, namePtr, emailPtr)
	if err != nil {
		if pkgerrors.As(err).Code() == pkgerrors.CodeNotFound {
			return &CheckUserResult{Exists: false}, nil
		}
		return nil, err
	}
	return &CheckUserResult{Exists: true, UserID: &user.ID, Username: &user.Username}, nil
}

func (s *service) loadGroup(ctx context.Context, groupID uuid.UUID) (*models.Group, error) {
	if groupID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "group id required")
	}
	group, err := s.repo.FindByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "group not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load group")
	}
	return group, nil
}

func (s *service) requireOwnedGroup(ctx context.Context, userID, groupID uuid.UUID) (*models.Group, error) {
	group, err := s.loadGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.OwnerID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the owner can manage the group")
	}
	return group, nil
}

func (s *service) resolveUser(ctx context.Context, username, email *string) (*models.User, error) {
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
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username or email required")
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find user")
	}
	return user, nil
}

func (s *service) recordGroupActivity(ctx context.Context, actor uuid.UUID, action enums.ActivityAction, group *models.Group) {
	groupID := group.ID
	name := group.Name
	s.activities.Record(ctx, activities.RecordParams{
		UserID:     actor,
		Action:     action,
		TargetType: "group",
		TargetID:   &groupID,
		TargetName: &name,
	})
}

func (s *service) recordMemberActivity(ctx context.Context, actor uuid.UUID, action enums.ActivityAction, group *models.Group, target *models.User) {
	groupID := group.ID
	var name *string
	if target != nil {
		username := target.Username
		name = &username
	}
	s.activities.Record(ctx, activities.RecordParams{
		UserID:     actor,
		Action:     action,
		TargetType: "group",
		TargetID:   &groupID,
		TargetName: name,
	})
}

func fromModel(group models.Group, memberCount int64) GroupDTO {
	return GroupDTO{
		ID:          group.ID,
		OwnerID:     group.OwnerID,
		Name:        group.Name,
		Description: group.Description,
		MemberCount: memberCount,
		CreatedAt:   group.CreatedAt,
		UpdatedAt:   group.UpdatedAt,
	}
}
