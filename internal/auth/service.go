package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/squadup/status-api/internal/models"
	"github.com/squadup/status-api/internal/security"
	"github.com/squadup/status-api/internal/store"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrDuplicateUsername indicates the case-folded username is already taken.
var ErrDuplicateUsername = errors.New("auth: username already taken")

// ErrInvalidCredentials indicates an unknown username or a wrong password.
// The same error covers both so callers cannot tell which failed.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// dummyHash is compared against when the username is unknown, to keep login
// timing independent of user existence.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// Service orchestrates signup, login, logout, and bearer-token verification.
// Tokens are stored encrypted; the raw token is only ever returned to the
// credential holder.
type Service struct {
	users  store.UserStore
	cipher *security.TokenCipher
}

// NewService constructs an auth Service.
func NewService(users store.UserStore, cipher *security.TokenCipher) *Service {
	return &Service{users: users, cipher: cipher}
}

// Signup registers a new user and returns the public bearer token
// ("username:rawToken") alongside the created identity.
func (s *Service) Signup(ctx context.Context, username, password string) (string, *Identity, error) {
	usernameLower := strings.ToLower(username)

	existing, errFind := s.users.FindByUsernameLower(ctx, usernameLower)
	if errFind != nil {
		return "", nil, errFind
	}
	if existing != nil {
		return "", nil, ErrDuplicateUsername
	}

	passwordHash, errHash := security.HashSecret(password)
	if errHash != nil {
		return "", nil, errHash
	}

	token, errToken := s.issueToken(username)
	if errToken != nil {
		return "", nil, errToken
	}
	ciphertext, errEncrypt := s.cipher.Encrypt(token)
	if errEncrypt != nil {
		return "", nil, errEncrypt
	}

	now := time.Now().UTC()
	user := models.User{
		ID:              uuid.NewString(),
		Username:        username,
		UsernameLower:   usernameLower,
		PasswordHash:    passwordHash,
		TokenCiphertext: ciphertext,
		Groups:          datatypes.JSON("[]"),
		LastSeenAt:      now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if errCreate := s.users.Create(ctx, &user); errCreate != nil {
		if errors.Is(errCreate, gorm.ErrDuplicatedKey) {
			return "", nil, ErrDuplicateUsername
		}
		return "", nil, errCreate
	}

	identity, errIdentity := identityFromUser(&user)
	if errIdentity != nil {
		return "", nil, errIdentity
	}
	return token, identity, nil
}

// Login verifies the password and returns the existing bearer token. The
// token is not rotated, so repeated logins hand back the same credential.
func (s *Service) Login(ctx context.Context, username, password string) (string, *Identity, error) {
	user, errFind := s.users.FindByUsernameLower(ctx, strings.ToLower(username))
	if errFind != nil {
		return "", nil, errFind
	}
	if user == nil {
		// Burn a comparison anyway so timing does not reveal whether the
		// username exists.
		security.VerifySecret(password, dummyHash)
		return "", nil, ErrInvalidCredentials
	}
	if !security.VerifySecret(password, user.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}

	token, errDecrypt := s.cipher.Decrypt(user.TokenCiphertext)
	if errDecrypt != nil {
		return "", nil, fmt.Errorf("auth: recover stored token: %w", errDecrypt)
	}

	now := time.Now().UTC()
	if _, errTouch := s.users.UpdateFields(ctx, user.ID, map[string]any{"last_seen_at": now}); errTouch != nil {
		return "", nil, errTouch
	}
	user.LastSeenAt = now

	identity, errIdentity := identityFromUser(user)
	if errIdentity != nil {
		return "", nil, errIdentity
	}
	return token, identity, nil
}

// Logout rotates the user's stored token, invalidating the previously issued
// credential immediately.
func (s *Service) Logout(ctx context.Context, userID string) error {
	user, errFind := s.users.FindByID(ctx, userID)
	if errFind != nil {
		return errFind
	}
	if user == nil {
		return fmt.Errorf("auth: logout: user %s not found", userID)
	}

	token, errToken := s.issueToken(user.Username)
	if errToken != nil {
		return errToken
	}
	ciphertext, errEncrypt := s.cipher.Encrypt(token)
	if errEncrypt != nil {
		return errEncrypt
	}

	if _, errUpdate := s.users.UpdateFields(ctx, user.ID, map[string]any{"token_ciphertext": ciphertext}); errUpdate != nil {
		return errUpdate
	}
	return nil
}

// TryAuthenticate resolves a presented bearer credential to an identity. It
// returns (nil, nil) when the username is unknown, the stored ciphertext
// cannot be decrypted, or the decrypted token does not match; none of those
// cases is distinguishable to the caller.
func (s *Service) TryAuthenticate(ctx context.Context, username, presented string) (*Identity, error) {
	user, errFind := s.users.FindByUsernameLower(ctx, strings.ToLower(username))
	if errFind != nil {
		return nil, errFind
	}
	if user == nil {
		return nil, nil
	}

	stored, errDecrypt := s.cipher.Decrypt(user.TokenCiphertext)
	if errDecrypt != nil {
		return nil, nil
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) != 1 {
		return nil, nil
	}

	now := time.Now().UTC()
	if _, errTouch := s.users.UpdateFields(ctx, user.ID, map[string]any{"last_seen_at": now}); errTouch != nil {
		return nil, errTouch
	}
	user.LastSeenAt = now

	return identityFromUser(user)
}

// issueToken composes a fresh public bearer token for username. The username
// prefix lets verification look up the owner without a token index.
func (s *Service) issueToken(username string) (string, error) {
	raw, errGenerate := security.GenerateToken()
	if errGenerate != nil {
		return "", errGenerate
	}
	return username + ":" + raw, nil
}
