// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Image represents an uploaded picture. The file itself lives in object
// storage under FileKey; metadata is stored in PostgreSQL. A non-nil
// DeletedAt marks the record as soft-deleted: the row and the file are
// kept, but the image is excluded from every feed, navigation, and
// count query.
type Image struct {
	ID          int64      `json:"id"`
	FileKey     string     `json:"-"`
	ThumbKey    *string    `json:"-"`
	Description string     `json:"description"`
	CategoryID  uuid.UUID  `json:"category_id"`
	AccountID   uuid.UUID  `json:"account_id"`
	UploadedAt  time.Time  `json:"uploaded_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"-"`
}

// Active returns true if the image has not been soft-deleted.
func (i *Image) Active() bool {
	return i.DeletedAt == nil
}

// Title derives a short page title from the first words of the
// description. Returns "" for blank descriptions so callers can fall
// back to the uploader's display name.
func (i *Image) Title() string {
	words := strings.Fields(i.Description)
	if len(words) == 0 {
		return ""
	}
	if len(words) > 3 {
		return strings.Join(words[:3], " ") + "..."
	}
	return strings.Join(words, " ")
}

// OwnedBy reports whether the image belongs to the given account.
func (i *Image) OwnedBy(accountID uuid.UUID) bool {
	return i.AccountID == accountID
}
