package auth

import (
	"time"

	"github.com/squadup/status-api/internal/models"
)

// Identity is the resolved caller attached to authenticated requests.
type Identity struct {
	ID          string
	Username    string
	LastSeenAt  time.Time
	Memberships []models.Membership
}

// IsMemberOf reports whether the identity holds a membership for groupID.
func (id *Identity) IsMemberOf(groupID string) bool {
	if id == nil {
		return false
	}
	_, ok := models.FindMembership(id.Memberships, groupID)
	return ok
}

// identityFromUser builds an Identity from a user row.
func identityFromUser(user *models.User) (*Identity, error) {
	memberships, errDecode := models.DecodeMemberships(user.Groups)
	if errDecode != nil {
		return nil, errDecode
	}
	return &Identity{
		ID:          user.ID,
		Username:    user.Username,
		LastSeenAt:  user.LastSeenAt,
		Memberships: memberships,
	}, nil
}
