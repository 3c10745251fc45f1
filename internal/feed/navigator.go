// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package feed

import (
	"imagehub/internal/models"
	"imagehub/internal/store"
)

// NavBatchSize caps the "more from this scope" strip on the image page.
const NavBatchSize = 10

// Navigator computes, for an anchor image within a scope, the batch of
// chronologically following images and the adjacent single images by
// identifier ordering.
type Navigator struct {
	images *store.ImageStore
}

// NewNavigator returns a Navigator over the given image store.
func NewNavigator(images *store.ImageStore) *Navigator {
	return &Navigator{images: images}
}

// After returns up to NavBatchSize active images uploaded after the
// anchor, oldest first. When the anchor is the most recent image in
// scope, it falls back to the newest images in scope excluding the
// anchor, newest first, so the strip is never empty as long as the
// scope holds at least two active images.
func (n *Navigator) After(sc Scope, anchor *models.Image) ([]models.Image, error) {
	f, ok := sc.Filter()
	if !ok {
		return nil, nil
	}

	batch, err := n.images.After(f, *anchor, NavBatchSize)
	if err != nil {
		return nil, err
	}
	if len(batch) > 0 {
		return batch, nil
	}

	return n.images.LatestExcept(f, anchor.ID, NavBatchSize)
}

// Adjacent returns the active images immediately before and after the
// anchor by identifier ordering within the scope. Either or both may be
// nil when the anchor is first or last; absence is a valid terminal
// state, not an error.
func (n *Navigator) Adjacent(sc Scope, anchor *models.Image) (prev, next *models.Image, err error) {
	f, ok := sc.Filter()
	if !ok {
		return nil, nil, nil
	}

	prev, err = n.images.PrevByID(f, anchor.ID)
	if err != nil {
		return nil, nil, err
	}
	next, err = n.images.NextByID(f, anchor.ID)
	if err != nil {
		return nil, nil, err
	}
	return prev, next, nil
}
