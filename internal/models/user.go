package models

import (
	"time"

	"gorm.io/datatypes"
)

// User represents an account stored in the database. Group membership and
// per-group status payloads live in the Groups JSON column; the user row is
// the single source of truth for both.
type User struct {
	ID string `gorm:"type:text;primaryKey"` // Opaque UUID, assigned at creation.

	Username      string `gorm:"type:text;not null"`             // Display name as entered at signup.
	UsernameLower string `gorm:"type:text;not null;uniqueIndex"` // Case-folded username, unique across all users.

	PasswordHash    string `gorm:"type:text;not null"` // bcrypt hash of the current password.
	TokenCiphertext string `gorm:"type:text;not null"` // Encrypted form of the single currently-valid bearer token.

	Groups datatypes.JSON `gorm:"not null;default:'[]'"` // Membership entries with embedded status data.

	LastSeenAt time.Time `gorm:"not null"` // Most recent successful authentication or status update.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
