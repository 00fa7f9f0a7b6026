package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	dbutil "github.com/squadup/status-api/internal/db"
	"github.com/squadup/status-api/internal/models"
	"gorm.io/gorm"
)

// ErrMembershipNotFound reports a status write against a group the user is
// not a member of.
var ErrMembershipNotFound = errors.New("store: membership not found")

// UserStore is the user persistence interface the services consume.
type UserStore interface {
	FindByUsernameLower(ctx context.Context, usernameLower string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateFields(ctx context.Context, id string, fields map[string]any) (bool, error)
	AddMembership(ctx context.Context, userID string, entry models.Membership) (bool, error)
	SetStatus(ctx context.Context, userID, groupID string, status models.Status) error
	FindByGroupMembership(ctx context.Context, groupID string) ([]models.User, error)
}

// GormUserStore persists users through GORM.
type GormUserStore struct {
	db *gorm.DB
}

// NewGormUserStore constructs a GormUserStore.
func NewGormUserStore(db *gorm.DB) *GormUserStore {
	return &GormUserStore{db: db}
}

// FindByUsernameLower returns the user with the given case-folded username,
// or nil when absent.
func (s *GormUserStore) FindByUsernameLower(ctx context.Context, usernameLower string) (*models.User, error) {
	var user models.User
	errFind := s.db.WithContext(ctx).Where("username_lower = ?", usernameLower).First(&user).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("user store: find by username: %w", errFind)
	}
	return &user, nil
}

// FindByID returns the user with the given id, or nil when absent.
func (s *GormUserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	errFind := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("user store: find by id: %w", errFind)
	}
	return &user, nil
}

// Create inserts a new user row.
func (s *GormUserStore) Create(ctx context.Context, user *models.User) error {
	if errCreate := s.db.WithContext(ctx).Create(user).Error; errCreate != nil {
		return fmt.Errorf("user store: create: %w", errCreate)
	}
	return nil
}

// UpdateFields applies a partial update to a user row. It reports whether a
// row matched.
func (s *GormUserStore) UpdateFields(ctx context.Context, id string, fields map[string]any) (bool, error) {
	if len(fields) == 0 {
		return false, fmt.Errorf("user store: no fields to update")
	}
	fields["updated_at"] = time.Now().UTC()
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return false, fmt.Errorf("user store: update fields: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// AddMembership appends a membership entry unless one already exists for the
// entry's group. The append and the presence check run as a single guarded
// UPDATE, so concurrent duplicate joins cannot both append. It reports
// whether the entry was added.
func (s *GormUserStore) AddMembership(ctx context.Context, userID string, entry models.Membership) (bool, error) {
	object, errEncode := json.Marshal(entry)
	if errEncode != nil {
		return false, fmt.Errorf("user store: encode membership: %w", errEncode)
	}

	conn := s.db.WithContext(ctx)
	res := conn.Model(&models.User{}).
		Where("id = ?", userID).
		Where("NOT "+dbutil.MembershipContainsExpr(conn, "groups"), dbutil.MembershipContainsValue(conn, entry.GroupID)).
		Updates(map[string]any{
			"groups":     dbutil.MembershipAppendExpr(conn, "groups", object),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, fmt.Errorf("user store: add membership: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// SetStatus overwrites the status embedded in the user's membership entry
// for groupID and stamps last_seen_at. The read-modify-write runs inside a
// transaction on the single user row.
func (s *GormUserStore) SetStatus(ctx context.Context, userID, groupID string, status models.Status) error {
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if errFind := tx.Where("id = ?", userID).First(&user).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrMembershipNotFound
			}
			return errFind
		}

		memberships, errDecode := models.DecodeMemberships(user.Groups)
		if errDecode != nil {
			return fmt.Errorf("decode memberships: %w", errDecode)
		}

		updated := false
		for i := range memberships {
			if memberships[i].GroupID == groupID {
				memberships[i].Data.Status = &status
				updated = true
				break
			}
		}
		if !updated {
			return ErrMembershipNotFound
		}

		encoded, errEncode := models.EncodeMemberships(memberships)
		if errEncode != nil {
			return fmt.Errorf("encode memberships: %w", errEncode)
		}

		return tx.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]any{
			"groups":       encoded,
			"last_seen_at": status.UpdatedAt,
			"updated_at":   time.Now().UTC(),
		}).Error
	})
	if errTx != nil {
		if errors.Is(errTx, ErrMembershipNotFound) {
			return ErrMembershipNotFound
		}
		return fmt.Errorf("user store: set status: %w", errTx)
	}
	return nil
}

// FindByGroupMembership returns all users holding a membership entry for
// groupID.
func (s *GormUserStore) FindByGroupMembership(ctx context.Context, groupID string) ([]models.User, error) {
	conn := s.db.WithContext(ctx)
	var rows []models.User
	errFind := conn.
		Where(dbutil.MembershipContainsExpr(conn, "groups"), dbutil.MembershipContainsValue(conn, groupID)).
		Order("username_lower ASC").
		Find(&rows).Error
	if errFind != nil {
		return nil, fmt.Errorf("user store: find by membership: %w", errFind)
	}
	return rows, nil
}
