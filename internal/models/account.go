// Package models defines the data structures that map to database tables
// and provides the core types used throughout the application.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Account represents a registered user who can upload images and
// maintain a profile with an optional avatar.
type Account struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never serialize the hash
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	AvatarKey    *string   `json:"-"` // Nullable object-storage key
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DisplayName returns "First Last (@username)" with missing name parts
// omitted. Used for page titles on account boards.
func (a *Account) DisplayName() string {
	parts := make([]string, 0, 3)
	if a.FirstName != "" {
		parts = append(parts, a.FirstName)
	}
	if a.LastName != "" {
		parts = append(parts, a.LastName)
	}
	parts = append(parts, "(@"+a.Username+")")
	return strings.Join(parts, " ")
}

// HasAvatar returns true if the account has an avatar file stored.
func (a *Account) HasAvatar() bool {
	return a.AvatarKey != nil && *a.AvatarKey != ""
}
