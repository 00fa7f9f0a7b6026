package statuses

import (
	"context"
	"errors"
	"time"

	"github.com/squadup/status-api/internal/models"
	"github.com/squadup/status-api/internal/store"
)

// ErrNotMember indicates a status write for a group the user has not joined.
var ErrNotMember = errors.New("statuses: user is not a member of the group")

// GroupStatus couples a member with their published status for one group.
type GroupStatus struct {
	UserID   string
	Username string
	Status   models.Status
}

// Service reads and writes the per-group availability statuses embedded in
// user rows.
type Service struct {
	users store.UserStore
}

// NewService constructs a status Service.
func NewService(users store.UserStore) *Service {
	return &Service{users: users}
}

// GroupStatuses returns the statuses of all group members that have
// published one.
func (s *Service) GroupStatuses(ctx context.Context, groupID string) ([]GroupStatus, error) {
	users, errFind := s.users.FindByGroupMembership(ctx, groupID)
	if errFind != nil {
		return nil, errFind
	}

	statuses := make([]GroupStatus, 0, len(users))
	for i := range users {
		memberships, errDecode := models.DecodeMemberships(users[i].Groups)
		if errDecode != nil {
			return nil, errDecode
		}
		entry, ok := models.FindMembership(memberships, groupID)
		if !ok || entry.Data.Status == nil {
			continue
		}
		statuses = append(statuses, GroupStatus{
			UserID:   users[i].ID,
			Username: users[i].Username,
			Status:   *entry.Data.Status,
		})
	}
	return statuses, nil
}

// UpdateUserStatus overwrites the caller's status for a group. Exactly one
// status exists per (user, group) pair; no history is kept.
func (s *Service) UpdateUserStatus(ctx context.Context, userID, groupID, state string, gameIDs []string, message *string) (*models.Status, error) {
	if gameIDs == nil {
		gameIDs = []string{}
	}
	status := models.Status{
		State:     state,
		GameIDs:   gameIDs,
		Message:   message,
		UpdatedAt: time.Now().UTC(),
	}

	if errSet := s.users.SetStatus(ctx, userID, groupID, status); errSet != nil {
		if errors.Is(errSet, store.ErrMembershipNotFound) {
			return nil, ErrNotMember
		}
		return nil, errSet
	}
	return &status, nil
}
