package groups

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/squadup/status-api/internal/models"
	"github.com/squadup/status-api/internal/security"
	"github.com/squadup/status-api/internal/store"

	log "github.com/sirupsen/logrus"
)

// ErrNotFound indicates the group id or name did not resolve.
var ErrNotFound = errors.New("groups: group not found")

// ErrInvalidJoinKey indicates the presented join key did not verify against
// the group's stored hash.
var ErrInvalidJoinKey = errors.New("groups: invalid join key")

// GroupMember is a member of a group together with the per-group data
// embedded in their user row.
type GroupMember struct {
	ID         string
	Username   string
	LastSeenAt time.Time
	Data       models.GroupData
}

// Service manages groups, join-key verification, and membership mutation.
type Service struct {
	groups store.GroupStore
	users  store.UserStore
}

// NewService constructs a group Service.
func NewService(groups store.GroupStore, users store.UserStore) *Service {
	return &Service{groups: groups, users: users}
}

// CreateGroup hashes the join key and persists a new group.
func (s *Service) CreateGroup(ctx context.Context, name, joinKey string) (*models.Group, error) {
	hash, errHash := security.HashSecret(joinKey)
	if errHash != nil {
		return nil, errHash
	}

	now := time.Now().UTC()
	group := models.Group{
		ID:          uuid.NewString(),
		Name:        name,
		JoinKeyHash: hash,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if errCreate := s.groups.Create(ctx, &group); errCreate != nil {
		return nil, errCreate
	}
	return &group, nil
}

// JoinGroup verifies the join key and adds a membership entry for the user.
// Re-joining a group the user already belongs to is a silent no-op; the
// existing entry and its status are left untouched.
func (s *Service) JoinGroup(ctx context.Context, groupID, joinKey, userID string) (*models.Group, error) {
	group, errFind := s.groups.FindByID(ctx, groupID)
	if errFind != nil {
		return nil, errFind
	}
	if group == nil {
		return nil, ErrNotFound
	}
	if !security.VerifySecret(joinKey, group.JoinKeyHash) {
		return nil, ErrInvalidJoinKey
	}

	entry := models.Membership{
		GroupID: group.ID,
		Data: models.GroupData{
			Status: &models.Status{
				State:     models.StateNotAvailable,
				GameIDs:   []string{},
				UpdatedAt: time.Now().UTC(),
			},
		},
	}
	if _, errAdd := s.users.AddMembership(ctx, userID, entry); errAdd != nil {
		return nil, errAdd
	}
	return group, nil
}

// RotateJoinKey recomputes and overwrites a group's join key hash.
func (s *Service) RotateJoinKey(ctx context.Context, groupID, newKey string) (*models.Group, error) {
	group, errFind := s.groups.FindByID(ctx, groupID)
	if errFind != nil {
		return nil, errFind
	}
	if group == nil {
		return nil, ErrNotFound
	}

	hash, errHash := security.HashSecret(newKey)
	if errHash != nil {
		return nil, errHash
	}
	matched, errUpdate := s.groups.UpdateJoinKeyHash(ctx, group.ID, hash)
	if errUpdate != nil {
		return nil, errUpdate
	}
	if !matched {
		return nil, ErrNotFound
	}
	group.JoinKeyHash = hash
	return group, nil
}

// EnsureDefaultGroupExists seeds the default group at startup. It looks up
// by name and creates only when absent; an existing group's key is never
// overwritten.
func (s *Service) EnsureDefaultGroupExists(ctx context.Context, name, joinKey string) (*models.Group, error) {
	existing, errFind := s.groups.FindByName(ctx, name)
	if errFind != nil {
		return nil, errFind
	}
	if existing != nil {
		log.Infof("default group already exists: %s (%s)", existing.Name, existing.ID)
		return existing, nil
	}

	created, errCreate := s.CreateGroup(ctx, name, joinKey)
	if errCreate != nil {
		return nil, errCreate
	}
	log.Infof("default group created: %s (%s)", created.Name, created.ID)
	return created, nil
}

// ListGroups returns all groups, optionally filtered by a name substring.
func (s *Service) ListGroups(ctx context.Context, nameFilter string) ([]models.Group, error) {
	return s.groups.List(ctx, nameFilter)
}

// UserGroups resolves the groups behind a user's membership entries.
func (s *Service) UserGroups(ctx context.Context, memberships []models.Membership) ([]models.Group, error) {
	ids := make([]string, 0, len(memberships))
	for _, m := range memberships {
		ids = append(ids, m.GroupID)
	}
	return s.groups.FindByIDs(ctx, ids)
}

// GroupMembers returns every member of a group with their per-group data.
func (s *Service) GroupMembers(ctx context.Context, groupID string) ([]GroupMember, error) {
	users, errFind := s.users.FindByGroupMembership(ctx, groupID)
	if errFind != nil {
		return nil, errFind
	}

	members := make([]GroupMember, 0, len(users))
	for i := range users {
		memberships, errDecode := models.DecodeMemberships(users[i].Groups)
		if errDecode != nil {
			return nil, errDecode
		}
		entry, ok := models.FindMembership(memberships, groupID)
		if !ok {
			continue
		}
		members = append(members, GroupMember{
			ID:         users[i].ID,
			Username:   users[i].Username,
			LastSeenAt: users[i].LastSeenAt,
			Data:       entry.Data,
		})
	}
	return members, nil
}
