// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"imagehub/internal/models"
)

// ImageStore handles all image-related database operations.
//
// Every read method applies the active predicate (deleted_at IS NULL)
// through Filter.where; the only ways to see a soft-deleted row are
// FindAny and HardDelete, which exist for the privileged admin paths.
type ImageStore struct {
	db *sql.DB
}

// NewImageStore creates a new ImageStore with the given database connection.
func NewImageStore(db *sql.DB) *ImageStore {
	return &ImageStore{db: db}
}

// imageColumns lists the columns selected in image queries.
const imageColumns = `id, file_key, thumb_key, description, category_id, account_id,
	uploaded_at, updated_at, deleted_at`

// Filter bounds an image query to a category, an account, or neither
// (the global scope). The zero value matches all active images.
type Filter struct {
	CategoryID *uuid.UUID
	AccountID  *uuid.UUID
}

// ByCategory returns a Filter scoped to one category.
func ByCategory(id uuid.UUID) Filter { return Filter{CategoryID: &id} }

// ByAccount returns a Filter scoped to one account.
func ByAccount(id uuid.UUID) Filter { return Filter{AccountID: &id} }

// where renders the filter as a WHERE clause, always including the
// active predicate, and appends bind values to args.
func (f Filter) where(args *[]any) string {
	clause := `WHERE deleted_at IS NULL`
	if f.CategoryID != nil {
		*args = append(*args, *f.CategoryID)
		clause += fmt.Sprintf(" AND category_id = $%d", len(*args))
	}
	if f.AccountID != nil {
		*args = append(*args, *f.AccountID)
		clause += fmt.Sprintf(" AND account_id = $%d", len(*args))
	}
	return clause
}

// scanImage scans an image row from the result set.
func scanImage(scanner interface{ Scan(...any) error }) (*models.Image, error) {
	var img models.Image
	err := scanner.Scan(
		&img.ID, &img.FileKey, &img.ThumbKey, &img.Description,
		&img.CategoryID, &img.AccountID,
		&img.UploadedAt, &img.UpdatedAt, &img.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &img, nil
}

// collectImages drains a result set into a slice.
func collectImages(rows *sql.Rows) ([]models.Image, error) {
	defer rows.Close()

	var items []models.Image
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		items = append(items, *img)
	}
	return items, rows.Err()
}

// Create inserts a new image record and returns it with the generated ID
// and timestamps.
func (s *ImageStore) Create(img *models.Image) (*models.Image, error) {
	row := s.db.QueryRow(`
		INSERT INTO images (file_key, thumb_key, description, category_id, account_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+imageColumns,
		img.FileKey, img.ThumbKey, img.Description, img.CategoryID, img.AccountID,
	)
	created, err := scanImage(row)
	if err != nil {
		return nil, fmt.Errorf("create image: %w", err)
	}
	return created, nil
}

// FindActive retrieves an active image by ID. Soft-deleted images are
// treated as not found. Returns nil if not found.
func (s *ImageStore) FindActive(id int64) (*models.Image, error) {
	row := s.db.QueryRow(`
		SELECT `+imageColumns+` FROM images
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
	img, err := scanImage(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find active image: %w", err)
	}
	return img, nil
}

// FindAny retrieves an image by ID regardless of soft-delete state.
// This bypasses the active filter; it exists so soft-deleted records
// stay retrievable (and restorable) by privileged paths.
func (s *ImageStore) FindAny(id int64) (*models.Image, error) {
	row := s.db.QueryRow(`SELECT `+imageColumns+` FROM images WHERE id = $1`, id)
	img, err := scanImage(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find image: %w", err)
	}
	return img, nil
}

// Update modifies the category and description of an image and bumps
// updated_at. The file, owner, and upload timestamp are immutable.
func (s *ImageStore) Update(id int64, categoryID uuid.UUID, description string) (*models.Image, error) {
	row := s.db.QueryRow(`
		UPDATE images SET category_id = $1, description = $2, updated_at = NOW()
		WHERE id = $3 AND deleted_at IS NULL
		RETURNING `+imageColumns,
		categoryID, description, id,
	)
	img, err := scanImage(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update image: %w", err)
	}
	return img, nil
}

// SetThumb replaces an image's thumbnail key and returns the previous
// key so the caller can release the stored file. previous is nil when
// the image had no thumbnail; both returns are nil when the image does
// not exist or is soft-deleted.
func (s *ImageStore) SetThumb(id int64, key string) (previous *string, err error) {
	err = s.db.QueryRow(`
		UPDATE images i SET thumb_key = $1, updated_at = NOW()
		FROM (SELECT thumb_key AS old_key FROM images WHERE id = $2) prev
		WHERE i.id = $2 AND i.deleted_at IS NULL
		RETURNING prev.old_key
	`, key, id).Scan(&previous)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("set image thumbnail: %w", err)
	}
	return previous, nil
}

// SoftDelete marks an image as deleted by setting deleted_at to the
// current time. The record and the stored file are kept. Returns false
// if the image does not exist or is already soft-deleted.
func (s *ImageStore) SoftDelete(id int64) (bool, error) {
	res, err := s.db.Exec(`
		UPDATE images SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return false, fmt.Errorf("soft delete image: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("soft delete image: %w", err)
	}
	return n > 0, nil
}

// Restore clears the soft-delete timestamp, returning the image to every
// feed. Returns false if the image does not exist or is not deleted.
func (s *ImageStore) Restore(id int64) (bool, error) {
	res, err := s.db.Exec(`
		UPDATE images SET deleted_at = NULL, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NOT NULL
	`, id)
	if err != nil {
		return false, fmt.Errorf("restore image: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("restore image: %w", err)
	}
	return n > 0, nil
}

// HardDelete removes an image record and returns it so the caller can
// release the stored file. Works on active and soft-deleted rows alike.
// Returns nil if the image does not exist.
func (s *ImageStore) HardDelete(id int64) (*models.Image, error) {
	row := s.db.QueryRow(`DELETE FROM images WHERE id = $1 RETURNING `+imageColumns, id)
	img, err := scanImage(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("hard delete image: %w", err)
	}
	return img, nil
}

// CountActive returns the number of active images matching the filter.
func (s *ImageStore) CountActive(f Filter) (int, error) {
	var args []any
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM images `+f.where(&args), args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count images: %w", err)
	}
	return count, nil
}

// Recent returns active images ordered by upload time, newest first.
func (s *ImageStore) Recent(f Filter, limit, offset int) ([]models.Image, error) {
	var args []any
	where := f.where(&args)
	args = append(args, limit, offset)

	rows, err := s.db.Query(fmt.Sprintf(`
		SELECT `+imageColumns+` FROM images %s
		ORDER BY uploaded_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, fmt.Errorf("recent images: %w", err)
	}
	return collectImages(rows)
}

// CountEligible returns the number of active images matching the filter
// whose IDs are not in exclude. This is the eligible pool size the feed
// selector uses to bound its sampling loop.
func (s *ImageStore) CountEligible(f Filter, exclude []int64) (int, error) {
	var args []any
	where := f.where(&args)
	if len(exclude) > 0 {
		args = append(args, exclude)
		where += fmt.Sprintf(" AND NOT (id = ANY($%d))", len(args))
	}

	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM images `+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count eligible images: %w", err)
	}
	return count, nil
}

// RandomDraw returns up to limit active images matching the filter in
// random order, never returning an excluded ID.
func (s *ImageStore) RandomDraw(f Filter, exclude []int64, limit int) ([]models.Image, error) {
	var args []any
	where := f.where(&args)
	if len(exclude) > 0 {
		args = append(args, exclude)
		where += fmt.Sprintf(" AND NOT (id = ANY($%d))", len(args))
	}
	args = append(args, limit)

	rows, err := s.db.Query(fmt.Sprintf(`
		SELECT `+imageColumns+` FROM images %s
		ORDER BY random()
		LIMIT $%d
	`, where, len(args)), args...)
	if err != nil {
		return nil, fmt.Errorf("random images: %w", err)
	}
	return collectImages(rows)
}

// After returns active images uploaded strictly after the given time,
// oldest first, capped at limit.
func (s *ImageStore) After(f Filter, anchor models.Image, limit int) ([]models.Image, error) {
	var args []any
	where := f.where(&args)
	args = append(args, anchor.UploadedAt, limit)

	rows, err := s.db.Query(fmt.Sprintf(`
		SELECT `+imageColumns+` FROM images %s AND uploaded_at > $%d
		ORDER BY uploaded_at ASC
		LIMIT $%d
	`, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, fmt.Errorf("images after: %w", err)
	}
	return collectImages(rows)
}

// LatestExcept returns the newest active images in scope excluding one
// ID, newest first, capped at limit. Used as the navigator fallback when
// the anchor is already the most recent image in scope.
func (s *ImageStore) LatestExcept(f Filter, exceptID int64, limit int) ([]models.Image, error) {
	var args []any
	where := f.where(&args)
	args = append(args, exceptID, limit)

	rows, err := s.db.Query(fmt.Sprintf(`
		SELECT `+imageColumns+` FROM images %s AND id <> $%d
		ORDER BY uploaded_at DESC
		LIMIT $%d
	`, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, fmt.Errorf("latest images except: %w", err)
	}
	return collectImages(rows)
}

// PrevByID returns the active image in scope with the greatest ID
// strictly less than anchorID, or nil if the anchor is first.
func (s *ImageStore) PrevByID(f Filter, anchorID int64) (*models.Image, error) {
	var args []any
	where := f.where(&args)
	args = append(args, anchorID)

	row := s.db.QueryRow(fmt.Sprintf(`
		SELECT `+imageColumns+` FROM images %s AND id < $%d
		ORDER BY id DESC
		LIMIT 1
	`, where, len(args)), args...)
	img, err := scanImage(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("previous image: %w", err)
	}
	return img, nil
}

// NextByID returns the active image in scope with the smallest ID
// strictly greater than anchorID, or nil if the anchor is last.
func (s *ImageStore) NextByID(f Filter, anchorID int64) (*models.Image, error) {
	var args []any
	where := f.where(&args)
	args = append(args, anchorID)

	row := s.db.QueryRow(fmt.Sprintf(`
		SELECT `+imageColumns+` FROM images %s AND id > $%d
		ORDER BY id ASC
		LIMIT 1
	`, where, len(args)), args...)
	img, err := scanImage(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next image: %w", err)
	}
	return img, nil
}

// LatestInCategory returns the newest active image in a category, or nil
// if the category has no active images. Used by the categories overview.
func (s *ImageStore) LatestInCategory(categoryID uuid.UUID) (*models.Image, error) {
	row := s.db.QueryRow(`
		SELECT `+imageColumns+` FROM images
		WHERE deleted_at IS NULL AND category_id = $1
		ORDER BY uploaded_at DESC
		LIMIT 1
	`, categoryID)
	img, err := scanImage(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest in category: %w", err)
	}
	return img, nil
}

// FileKeysByAccount returns the file and thumbnail keys of every image
// owned by an account, including soft-deleted ones. Called before an
// account row is removed so the cascade does not orphan stored files.
func (s *ImageStore) FileKeysByAccount(accountID uuid.UUID) ([]string, error) {
	return s.fileKeys(`SELECT file_key, thumb_key FROM images WHERE account_id = $1`, accountID)
}

// FileKeysByCategory returns the file and thumbnail keys of every image
// in a category, including soft-deleted ones. Called before a category
// hard delete cascades to its images.
func (s *ImageStore) FileKeysByCategory(categoryID uuid.UUID) ([]string, error) {
	return s.fileKeys(`SELECT file_key, thumb_key FROM images WHERE category_id = $1`, categoryID)
}

func (s *ImageStore) fileKeys(query string, arg any) ([]string, error) {
	rows, err := s.db.Query(query, arg)
	if err != nil {
		return nil, fmt.Errorf("image file keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var fileKey string
		var thumbKey *string
		if err := rows.Scan(&fileKey, &thumbKey); err != nil {
			return nil, fmt.Errorf("scan file keys: %w", err)
		}
		keys = append(keys, fileKey)
		if thumbKey != nil && *thumbKey != "" {
			keys = append(keys, *thumbKey)
		}
	}
	return keys, rows.Err()
}
