package statuses

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	dbutil "github.com/squadup/status-api/internal/db"
	"github.com/squadup/status-api/internal/models"
	"github.com/squadup/status-api/internal/store"
	"gorm.io/datatypes"
)

func newTestService(t *testing.T) (*Service, *store.GormUserStore) {
	t.Helper()
	conn, err := dbutil.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := dbutil.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	users := store.NewGormUserStore(conn)
	return NewService(users), users
}

func seedMember(t *testing.T, users *store.GormUserStore, username, groupID string) *models.User {
	t.Helper()
	now := time.Now().UTC()
	user := &models.User{
		ID:              username + "-id",
		Username:        username,
		UsernameLower:   username,
		PasswordHash:    "hash",
		TokenCiphertext: "ciphertext",
		Groups:          datatypes.JSON("[]"),
		LastSeenAt:      now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := users.Create(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if groupID != "" {
		if _, err := users.AddMembership(context.Background(), user.ID, models.Membership{GroupID: groupID}); err != nil {
			t.Fatalf("add membership: %v", err)
		}
	}
	return user
}

func TestUpdateUserStatus(t *testing.T) {
	s, users := newTestService(t)
	user := seedMember(t, users, "alice", "group-1")

	message := "after dinner"
	status, err := s.UpdateUserStatus(context.Background(), user.ID, "group-1", models.StateAvailable, []string{"game-a"}, &message)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if status.State != models.StateAvailable {
		t.Fatalf("expected %q, got %q", models.StateAvailable, status.State)
	}
	if status.UpdatedAt.IsZero() {
		t.Fatal("expected a stamped update time")
	}

	// Overwrite; exactly one status exists per membership.
	if _, err := s.UpdateUserStatus(context.Background(), user.ID, "group-1", models.StateDontWant, nil, nil); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	rows, err := s.GroupStatuses(context.Background(), "group-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 status, got %d", len(rows))
	}
	if rows[0].Status.State != models.StateDontWant {
		t.Fatalf("expected overwrite to %q, got %q", models.StateDontWant, rows[0].Status.State)
	}
	if rows[0].Status.GameIDs == nil || len(rows[0].Status.GameIDs) != 0 {
		t.Fatalf("expected empty game ids, got %+v", rows[0].Status.GameIDs)
	}
	if rows[0].Status.Message != nil {
		t.Fatalf("expected cleared message, got %v", rows[0].Status.Message)
	}
}

func TestUpdateUserStatus_NotMember(t *testing.T) {
	s, users := newTestService(t)
	user := seedMember(t, users, "alice", "")

	_, err := s.UpdateUserStatus(context.Background(), user.ID, "group-1", models.StateReady, nil, nil)
	if !errors.Is(err, ErrNotMember) {
		t.Fatalf("expected ErrNotMember, got %v", err)
	}
}

func TestGroupStatuses_SkipsMembersWithoutStatus(t *testing.T) {
	s, users := newTestService(t)
	alice := seedMember(t, users, "alice", "group-1")
	seedMember(t, users, "bob", "group-1")

	if _, err := s.UpdateUserStatus(context.Background(), alice.ID, "group-1", models.StateReady, []string{"game-a"}, nil); err != nil {
		t.Fatalf("update: %v", err)
	}

	rows, err := s.GroupStatuses(context.Background(), "group-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected only members with a published status, got %d", len(rows))
	}
	if rows[0].UserID != alice.ID {
		t.Fatalf("expected alice, got %s", rows[0].UserID)
	}
}
