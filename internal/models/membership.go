package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Status states a member can publish for a group.
const (
	StateNotAvailable = "NOT_AVAILABLE"
	StateAvailable    = "AVAILABLE"
	StateReady        = "READY"
	StateDontWant     = "DONT_WANT"
)

// ValidState reports whether s is one of the four status states.
func ValidState(s string) bool {
	switch s {
	case StateNotAvailable, StateAvailable, StateReady, StateDontWant:
		return true
	}
	return false
}

// Status is the availability payload a member publishes for one group.
// Exactly one status exists per (user, group) pair; updates overwrite it.
type Status struct {
	State     string    `json:"state"`
	GameIDs   []string  `json:"gameIds"`
	Message   *string   `json:"message"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// GroupData wraps the per-group payload attached to a membership.
type GroupData struct {
	Status *Status `json:"status,omitempty"`
}

// Membership ties a user to a group together with the per-group data.
type Membership struct {
	GroupID string    `json:"groupId"`
	Data    GroupData `json:"data"`
}

// DecodeMemberships parses a user's Groups column. An empty or null column
// yields an empty slice.
func DecodeMemberships(raw datatypes.JSON) ([]Membership, error) {
	if len(raw) == 0 {
		return []Membership{}, nil
	}
	var list []Membership
	if errUnmarshal := json.Unmarshal(raw, &list); errUnmarshal != nil {
		return nil, errUnmarshal
	}
	if list == nil {
		list = []Membership{}
	}
	return list, nil
}

// EncodeMemberships serializes membership entries back into column form.
func EncodeMemberships(list []Membership) (datatypes.JSON, error) {
	if list == nil {
		list = []Membership{}
	}
	payload, errMarshal := json.Marshal(list)
	if errMarshal != nil {
		return nil, errMarshal
	}
	return datatypes.JSON(payload), nil
}

// FindMembership returns the entry for groupID and whether it exists.
func FindMembership(list []Membership, groupID string) (Membership, bool) {
	for _, m := range list {
		if m.GroupID == groupID {
			return m, true
		}
	}
	return Membership{}, false
}
