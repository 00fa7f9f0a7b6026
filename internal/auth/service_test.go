package auth

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	dbutil "github.com/squadup/status-api/internal/db"
	"github.com/squadup/status-api/internal/security"
	"github.com/squadup/status-api/internal/store"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	conn, err := dbutil.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := dbutil.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	cipher, errCipher := security.NewTokenCipher(bytes.Repeat([]byte{0x42}, security.TokenKeySize))
	if errCipher != nil {
		t.Fatalf("cipher: %v", errCipher)
	}
	return NewService(store.NewGormUserStore(conn), cipher)
}

func TestSignup_IssuesPrefixedToken(t *testing.T) {
	s := newTestService(t)

	token, identity, err := s.Signup(context.Background(), "Alice", "hunter22")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if identity == nil || identity.Username != "Alice" {
		t.Fatalf("unexpected identity: %+v", identity)
	}
	if !strings.HasPrefix(token, "Alice:") {
		t.Fatalf("expected token prefixed with username, got %q", token)
	}
	if len(identity.Memberships) != 0 {
		t.Fatalf("expected no memberships on signup, got %d", len(identity.Memberships))
	}
}

func TestSignup_DuplicateUsernameCaseInsensitive(t *testing.T) {
	s := newTestService(t)

	if _, _, err := s.Signup(context.Background(), "Alice", "hunter22"); err != nil {
		t.Fatalf("signup: %v", err)
	}
	_, _, err := s.Signup(context.Background(), "ALICE", "other-pass")
	if !errors.Is(err, ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}
}

func TestLogin_ReturnsSameToken(t *testing.T) {
	s := newTestService(t)

	issued, _, err := s.Signup(context.Background(), "alice", "hunter22")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	token, identity, err := s.Login(context.Background(), "alice", "hunter22")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token != issued {
		t.Fatalf("expected login to hand back the signup token")
	}
	if identity == nil || identity.Username != "alice" {
		t.Fatalf("unexpected identity: %+v", identity)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	s := newTestService(t)

	if _, _, err := s.Signup(context.Background(), "alice", "hunter22"); err != nil {
		t.Fatalf("signup: %v", err)
	}

	if _, _, err := s.Login(context.Background(), "alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, _, err := s.Login(context.Background(), "nobody", "hunter22"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestLogout_RotatesToken(t *testing.T) {
	s := newTestService(t)

	issued, identity, err := s.Signup(context.Background(), "alice", "hunter22")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	if errLogout := s.Logout(context.Background(), identity.ID); errLogout != nil {
		t.Fatalf("logout: %v", errLogout)
	}

	// Old credential must no longer authenticate.
	resolved, err := s.TryAuthenticate(context.Background(), "alice", issued)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if resolved != nil {
		t.Fatal("expected old token to be invalid after logout")
	}

	// Logging in yields the rotated token, which authenticates.
	rotated, _, err := s.Login(context.Background(), "alice", "hunter22")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if rotated == issued {
		t.Fatal("expected logout to rotate the token")
	}
	resolved, err = s.TryAuthenticate(context.Background(), "alice", rotated)
	if err != nil {
		t.Fatalf("authenticate rotated: %v", err)
	}
	if resolved == nil {
		t.Fatal("expected rotated token to authenticate")
	}
}

func TestTryAuthenticate(t *testing.T) {
	s := newTestService(t)

	token, _, err := s.Signup(context.Background(), "Alice", "hunter22")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	identity, err := s.TryAuthenticate(context.Background(), "Alice", token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if identity == nil || identity.Username != "Alice" {
		t.Fatalf("expected identity for valid token, got %+v", identity)
	}

	// Username lookup is case-insensitive; the token itself is not.
	identity, err = s.TryAuthenticate(context.Background(), "ALICE", token)
	if err != nil {
		t.Fatalf("authenticate folded username: %v", err)
	}
	if identity == nil {
		t.Fatal("expected identity for case-folded username")
	}

	identity, err = s.TryAuthenticate(context.Background(), "Alice", "Alice:deadbeef")
	if err != nil {
		t.Fatalf("authenticate wrong token: %v", err)
	}
	if identity != nil {
		t.Fatal("expected nil identity for wrong token")
	}

	identity, err = s.TryAuthenticate(context.Background(), "nobody", token)
	if err != nil {
		t.Fatalf("authenticate unknown user: %v", err)
	}
	if identity != nil {
		t.Fatal("expected nil identity for unknown user")
	}
}
