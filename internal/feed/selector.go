// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package feed

import (
	"imagehub/internal/models"
	"imagehub/internal/store"
)

const (
	// DefaultPageSize is the page size used when the client supplies none.
	DefaultPageSize = 25

	// MaxPageSize caps the client-adjustable page size.
	MaxPageSize = 100

	// SampleCount is the number of images a random board draw returns.
	SampleCount = 10
)

// Page is one slice of a recency feed plus the total count of active
// images matching the scope.
type Page struct {
	Count  int            `json:"count"`
	Images []models.Image `json:"results"`
}

// Selector produces bounded, ordered, or randomized subsets of active
// images for a scope.
type Selector struct {
	images *store.ImageStore
}

// NewSelector returns a Selector over the given image store.
func NewSelector(images *store.ImageStore) *Selector {
	return &Selector{images: images}
}

// ClampPage normalizes client pagination input: pages start at 1, size
// defaults to DefaultPageSize and is clamped to [1, MaxPageSize].
// Invalid values are corrected, never rejected.
func ClampPage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}

// Recent returns the requested page of active images in scope, newest
// first, along with the total active count. An unresolved scope yields
// an empty page.
func (s *Selector) Recent(sc Scope, page, size int) (*Page, error) {
	f, ok := sc.Filter()
	if !ok {
		return &Page{}, nil
	}

	page, size = ClampPage(page, size)

	count, err := s.images.CountActive(f)
	if err != nil {
		return nil, err
	}

	images, err := s.images.Recent(f, size, (page-1)*size)
	if err != nil {
		return nil, err
	}

	return &Page{Count: count, Images: images}, nil
}

// RandomSample returns up to count active images in scope, drawn without
// replacement and excluding any ID in exclude.
//
// The eligible pool size is computed once up front. When the pool does
// not exceed count, the exhaustive branch returns the whole pool, which
// is trivially duplicate-free. Only when the pool strictly exceeds count
// does the repeated-draw branch run, so it can always make progress and
// terminates by construction.
func (s *Selector) RandomSample(sc Scope, exclude []int64, count int) ([]models.Image, error) {
	f, ok := sc.Filter()
	if !ok {
		return nil, nil
	}
	if count <= 0 {
		count = SampleCount
	}

	pool, err := s.images.CountEligible(f, exclude)
	if err != nil {
		return nil, err
	}
	if pool == 0 {
		return nil, nil
	}

	// Exhaustive branch: the whole pool fits in the request.
	if pool <= count {
		return s.images.RandomDraw(f, exclude, pool)
	}

	// Repeated randomized draws, accumulating unique, non-excluded IDs
	// until count is reached. Already-accumulated IDs join the exclusion
	// set so a draw can never produce a duplicate.
	drawn := make([]int64, len(exclude), len(exclude)+count)
	copy(drawn, exclude)

	var result []models.Image
	for len(result) < count {
		batch, err := s.images.RandomDraw(f, drawn, count-len(result))
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			// Pool shrank under a concurrent delete; return what we have.
			break
		}
		for _, img := range batch {
			result = append(result, img)
			drawn = append(drawn, img.ID)
		}
	}
	return result, nil
}
