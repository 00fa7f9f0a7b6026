package models

import "time"

// Group is a named namespace protected by a shared join key.
type Group struct {
	ID string `gorm:"type:text;primaryKey"` // Opaque UUID, assigned at creation.

	Name        string `gorm:"type:text;not null;index"` // Display name, 2-100 chars, not required unique.
	JoinKeyHash string `gorm:"type:text;not null"`       // bcrypt hash of the current join key.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
