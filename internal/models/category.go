// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Category groups images under a named, slugified heading. Categories
// are created by administrators; the slug is always derived from the
// name and kept in sync on rename.
type Category struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`

	// Virtual fields populated by store methods for the overview page.
	ImageCount  int    `json:"image_count,omitempty"`
	LatestImage *Image `json:"-"`
}
