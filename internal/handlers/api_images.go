// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"imagehub/internal/feed"
	"imagehub/internal/files"
	"imagehub/internal/imaging"
	"imagehub/internal/middleware"
	"imagehub/internal/models"
	"imagehub/internal/slug"
	"imagehub/internal/store"
	"imagehub/internal/token"
)

// API serves the JSON surface under /api/v1. Write endpoints require a
// bearer token; reads are public like the HTML site.
type API struct {
	selector   *feed.Selector
	navigator  *feed.Navigator
	images     *store.ImageStore
	categories *store.CategoryStore
	accounts   *store.AccountStore
	issuer     *token.Issuer
	fileMgr    *files.Manager
}

// NewAPI creates the API handler group.
func NewAPI(selector *feed.Selector, navigator *feed.Navigator, images *store.ImageStore,
	categories *store.CategoryStore, accounts *store.AccountStore, issuer *token.Issuer,
	fileMgr *files.Manager) *API {
	return &API{
		selector:   selector,
		navigator:  navigator,
		images:     images,
		categories: categories,
		accounts:   accounts,
		issuer:     issuer,
		fileMgr:    fileMgr,
	}
}

// apiImage is the JSON representation of an image. Storage keys stay
// internal; clients get resolved URLs plus the site page for the image.
type apiImage struct {
	models.Image
	FileURL  string `json:"file_url"`
	ThumbURL string `json:"thumb_url,omitempty"`
	OpenURL  string `json:"open_url"`
}

func (h *API) toAPIImage(img models.Image) apiImage {
	out := apiImage{
		Image:   img,
		FileURL: h.fileMgr.URL(img.FileKey),
		OpenURL: detailURL(feed.Global(), img.ID),
	}
	if img.ThumbKey != nil && *img.ThumbKey != "" {
		out.ThumbURL = h.fileMgr.URL(*img.ThumbKey)
	}
	return out
}

func (h *API) toAPIImages(images []models.Image) []apiImage {
	out := make([]apiImage, 0, len(images))
	for _, img := range images {
		out = append(out, h.toAPIImage(img))
	}
	return out
}

// scopeFromQuery builds the feed scope from the optional category and
// account query parameters. Each accepts a slug/username or a UUID.
// Unknown values yield ScopeNone, which the feed layer turns into empty
// results.
func (h *API) scopeFromQuery(r *http.Request) (feed.Scope, error) {
	none := feed.Scope{Kind: feed.ScopeNone}

	if ref := r.URL.Query().Get("category"); ref != "" {
		var category *models.Category
		var err error
		if id, perr := uuid.Parse(ref); perr == nil {
			category, err = h.categories.FindByID(id)
		} else {
			category, err = h.categories.FindBySlug(ref)
		}
		if err != nil {
			return none, err
		}
		if category == nil {
			return none, nil
		}
		return feed.CategoryScope(category), nil
	}

	if ref := r.URL.Query().Get("account"); ref != "" {
		var account *models.Account
		var err error
		if id, perr := uuid.Parse(ref); perr == nil {
			account, err = h.accounts.FindByID(id)
		} else {
			account, err = h.accounts.FindByUsername(ref)
		}
		if err != nil {
			return none, err
		}
		if account == nil {
			return none, nil
		}
		return feed.AccountScope(account), nil
	}

	return feed.Global(), nil
}

// ListImages handles GET /api/v1/images: a paginated newest-first feed
// with a total count envelope.
func (h *API) ListImages(w http.ResponseWriter, r *http.Request) {
	sc, err := h.scopeFromQuery(r)
	if err != nil {
		slog.Error("api scope resolve failed", "error", err)
		apiError(w, http.StatusInternalServerError, "internal error")
		return
	}

	pageNum, size := feed.ClampPage(queryInt(r, "p"), queryInt(r, "limit"))
	page, err := h.selector.Recent(sc, pageNum, size)
	if err != nil {
		slog.Error("api list failed", "error", err)
		apiError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":   page.Count,
		"results": h.toAPIImages(page.Images),
	})
}

// RandomImages handles GET /api/v1/images/random: a bounded random
// sample without duplicates. The exclude parameter takes a comma
// separated list of image ids to leave out of the draw.
func (h *API) RandomImages(w http.ResponseWriter, r *http.Request) {
	sc, err := h.scopeFromQuery(r)
	if err != nil {
		slog.Error("api scope resolve failed", "error", err)
		apiError(w, http.StatusInternalServerError, "internal error")
		return
	}

	var exclude []int64
	if raw := r.URL.Query().Get("exclude"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
			if err != nil {
				apiError(w, http.StatusBadRequest, "exclude must be a comma separated list of image ids")
				return
			}
			exclude = append(exclude, id)
		}
	}

	limit := queryInt(r, "limit")
	if limit <= 0 {
		limit = feed.DefaultPageSize
	}
	if limit > feed.MaxPageSize {
		limit = feed.MaxPageSize
	}

	images, err := h.selector.RandomSample(sc, exclude, limit)
	if err != nil {
		slog.Error("api random failed", "error", err)
		apiError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": h.toAPIImages(images)})
}

// AfterImages handles GET /api/v1/images/{id}/after: the images
// uploaded after the anchor, oldest first, bounded to the anchor's own
// category unless filter_by=account selects the uploader instead. When
// the anchor is the newest image in scope the navigator falls back to
// the newest other images in scope, so the batch is only empty when the
// anchor is alone there.
func (h *API) AfterImages(w http.ResponseWriter, r *http.Request) {
	img, ok := h.activeImage(w, r)
	if !ok {
		return
	}

	sc := feed.CategoryScope(&models.Category{ID: img.CategoryID})
	if r.URL.Query().Get("filter_by") == "account" {
		sc = feed.AccountScope(&models.Account{ID: img.AccountID})
	}

	batch, err := h.navigator.After(sc, img)
	if err != nil {
		slog.Error("api after batch failed", "error", err)
		apiError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": h.toAPIImages(batch)})
}

// GetImage handles GET /api/v1/images/{id}: one active image plus its
// neighbours in the global feed.
func (h *API) GetImage(w http.ResponseWriter, r *http.Request) {
	img, ok := h.activeImage(w, r)
	if !ok {
		return
	}

	prev, next, err := h.navigator.Adjacent(feed.Global(), img)
	if err != nil {
		slog.Error("api adjacent failed", "error", err)
		apiError(w, http.StatusInternalServerError, "internal error")
		return
	}

	body := map[string]any{"image": h.toAPIImage(*img)}
	if prev != nil {
		body["previous_id"] = prev.ID
	}
	if next != nil {
		body["next_id"] = next.ID
	}
	writeJSON(w, http.StatusOK, body)
}

// UploadImage handles POST /api/v1/images: a multipart upload with
// file, category, and description fields.
func (h *API) UploadImage(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.AccountIDFromCtx(r.Context())

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		apiError(w, http.StatusBadRequest, "upload too large or malformed")
		return
	}

	categoryID, err := uuid.Parse(r.FormValue("category"))
	if err != nil {
		apiError(w, http.StatusBadRequest, "category must be a category id")
		return
	}
	category, err := h.categories.FindByID(categoryID)
	if err != nil {
		slog.Error("api category lookup failed", "error", err)
		apiError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if category == nil {
		apiError(w, http.StatusBadRequest, "unknown category")
		return
	}

	description := strings.TrimSpace(r.FormValue("description"))
	if msg := validateDescription(description); msg != "" {
		apiError(w, http.StatusBadRequest, msg)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		apiError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil || len(data) > maxUploadBytes {
		apiError(w, http.StatusBadRequest, "file must be at most 10 MB")
		return
	}

	src, _, err := imaging.Decode(data)
	if err != nil {
		apiError(w, http.StatusBadRequest, "file is not a supported image")
		return
	}

	key, err := h.fileMgr.Store(r.Context(), files.ImagePrefix, header.Filename,
		header.Header.Get("Content-Type"), data)
	if err != nil {
		slog.Error("api upload failed", "error", err)
		apiError(w, http.StatusInternalServerError, "internal error")
		return
	}

	var thumbKey *string
	if thumb, err := imaging.Thumbnail(src); err == nil {
		if tk, err := h.fileMgr.Store(r.Context(), files.ImagePrefix, "thumb.jpg", "image/jpeg", thumb); err == nil {
			thumbKey = &tk
		}
	}

	created, err := h.images.Create(&models.Image{
		FileKey:     key,
		ThumbKey:    thumbKey,
		Description: description,
		CategoryID:  categoryID,
		AccountID:   accountID,
	})
	if err != nil {
		slog.Error("api image create failed", "error", err)
		h.fileMgr.Release(r.Context(), key)
		if thumbKey != nil {
			h.fileMgr.Release(r.Context(), *thumbKey)
		}
		apiError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, h.toAPIImage(*created))
}

// UpdateImage handles PATCH /api/v1/images/{id}: category and
// description changes by the owner. Absent fields keep their value.
func (h *API) UpdateImage(w http.ResponseWriter, r *http.Request) {
	img, ok := h.ownedAPIImage(w, r)
	if !ok {
		return
	}

	var body struct {
		CategoryID  *uuid.UUID `json:"category_id"`
		Description *string    `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		apiError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}

	categoryID := img.CategoryID
	if body.CategoryID != nil {
		category, err := h.categories.FindByID(*body.CategoryID)
		if err != nil {
			slog.Error("api category lookup failed", "error", err)
			apiError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if category == nil {
			apiError(w, http.StatusBadRequest, "unknown category")
			return
		}
		categoryID = *body.CategoryID
	}

	description := img.Description
	if body.Description != nil {
		description = strings.TrimSpace(*body.Description)
		if msg := validateDescription(description); msg != "" {
			apiError(w, http.StatusBadRequest, msg)
			return
		}
	}

	updated, err := h.images.Update(img.ID, categoryID, description)
	if err != nil {
		slog.Error("api image update failed", "error", err)
		apiError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if updated == nil {
		apiError(w, http.StatusNotFound, "image not found")
		return
	}

	writeJSON(w, http.StatusOK, h.toAPIImage(*updated))
}

// DeleteImage handles DELETE /api/v1/images/{id}: a soft delete by the
// owner. The record and the stored file are kept.
func (h *API) DeleteImage(w http.ResponseWriter, r *http.Request) {
	img, ok := h.ownedAPIImage(w, r)
	if !ok {
		return
	}

	if _, err := h.images.SoftDelete(img.ID); err != nil {
		slog.Error("api soft delete failed", "error", err)
		apiError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RegenerateThumbnail handles POST /api/v1/images/{id}/thumbnail:
// rebuilds the board thumbnail from the stored original. Upload-time
// thumbnailing is best-effort, so an image can end up without one; this
// lets the owner fill the gap. The old thumbnail, if any, is released
// after the swap.
func (h *API) RegenerateThumbnail(w http.ResponseWriter, r *http.Request) {
	img, ok := h.ownedAPIImage(w, r)
	if !ok {
		return
	}

	data, err := h.fileMgr.Fetch(r.Context(), img.FileKey)
	if err != nil {
		slog.Error("api original fetch failed", "key", img.FileKey, "error", err)
		apiError(w, http.StatusInternalServerError, "internal error")
		return
	}

	src, _, err := imaging.Decode(data)
	if err != nil {
		slog.Error("api stored image decode failed", "key", img.FileKey, "error", err)
		apiError(w, http.StatusInternalServerError, "internal error")
		return
	}

	thumb, err := imaging.Thumbnail(src)
	if err != nil {
		slog.Error("api thumbnail encode failed", "error", err)
		apiError(w, http.StatusInternalServerError, "internal error")
		return
	}

	key, err := h.fileMgr.Store(r.Context(), files.ImagePrefix, "thumb.jpg", "image/jpeg", thumb)
	if err != nil {
		slog.Error("api thumbnail store failed", "error", err)
		apiError(w, http.StatusInternalServerError, "internal error")
		return
	}

	previous, err := h.images.SetThumb(img.ID, key)
	if err != nil {
		slog.Error("api thumbnail swap failed", "error", err)
		h.fileMgr.Release(r.Context(), key)
		apiError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if previous != nil {
		h.fileMgr.Release(r.Context(), *previous)
	}

	img.ThumbKey = &key
	writeJSON(w, http.StatusOK, h.toAPIImage(*img))
}

// RestoreImage handles POST /api/v1/images/{id}/restore: undoes a soft
// delete by the owner, returning the image to every feed. Restoring an
// image that was never deleted is a conflict.
func (h *API) RestoreImage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		apiError(w, http.StatusNotFound, "image not found")
		return
	}

	img, err := h.images.FindAny(id)
	if err != nil {
		slog.Error("api image lookup failed", "error", err)
		apiError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if img == nil {
		apiError(w, http.StatusNotFound, "image not found")
		return
	}
	if !img.OwnedBy(middleware.AccountIDFromCtx(r.Context())) {
		apiError(w, http.StatusForbidden, "you do not own this image")
		return
	}

	restored, err := h.images.Restore(id)
	if err != nil {
		slog.Error("api image restore failed", "error", err)
		apiError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !restored {
		apiError(w, http.StatusConflict, "image is not deleted")
		return
	}

	img.DeletedAt = nil
	writeJSON(w, http.StatusOK, h.toAPIImage(*img))
}

// ListCategories handles GET /api/v1/categories.
func (h *API) ListCategories(w http.ResponseWriter, r *http.Request) {
	list, err := h.categories.List()
	if err != nil {
		slog.Error("api category list failed", "error", err)
		apiError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": list})
}

// CreateCategory handles POST /api/v1/categories. The slug is derived
// from the name; a name whose slug collides with an existing category
// is rejected.
func (h *API) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		apiError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}

	name := strings.TrimSpace(body.Name)
	if name == "" {
		apiError(w, http.StatusBadRequest, "name is required")
		return
	}

	existing, err := h.categories.FindBySlug(slug.Generate(name))
	if err != nil {
		slog.Error("api category slug check failed", "error", err)
		apiError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if existing != nil {
		apiError(w, http.StatusConflict, "a category with that name already exists")
		return
	}

	category, err := h.categories.Create(name)
	if err != nil {
		slog.Error("api category create failed", "error", err)
		apiError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, category)
}

// RenameCategory handles PATCH /api/v1/categories/{id}: changes the
// name and re-derives the slug. A name whose slug collides with a
// different existing category is rejected; renaming a category to a
// casing variant of itself is allowed.
func (h *API) RenameCategory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		apiError(w, http.StatusNotFound, "category not found")
		return
	}

	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		apiError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}

	name := strings.TrimSpace(body.Name)
	if name == "" {
		apiError(w, http.StatusBadRequest, "name is required")
		return
	}

	existing, err := h.categories.FindBySlug(slug.Generate(name))
	if err != nil {
		slog.Error("api category slug check failed", "error", err)
		apiError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if existing != nil && existing.ID != id {
		apiError(w, http.StatusConflict, "a category with that name already exists")
		return
	}

	category, err := h.categories.Rename(id, name)
	if err != nil {
		slog.Error("api category rename failed", "error", err)
		apiError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if category == nil {
		apiError(w, http.StatusNotFound, "category not found")
		return
	}

	writeJSON(w, http.StatusOK, category)
}

// DeleteCategory handles DELETE /api/v1/categories/{id}: removes the
// category and, through the database cascade, every image in it. Image
// file keys are collected first so the stored files are released too.
func (h *API) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		apiError(w, http.StatusNotFound, "category not found")
		return
	}

	category, err := h.categories.FindByID(id)
	if err != nil {
		slog.Error("api category lookup failed", "error", err)
		apiError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if category == nil {
		apiError(w, http.StatusNotFound, "category not found")
		return
	}

	keys, err := h.images.FileKeysByCategory(id)
	if err != nil {
		slog.Error("api category file key collection failed", "error", err)
		apiError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := h.categories.Delete(id); err != nil {
		slog.Error("api category delete failed", "error", err)
		apiError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.fileMgr.Release(r.Context(), keys...)
	w.WriteHeader(http.StatusNoContent)
}

// activeImage loads the active image addressed by the id path param,
// writing 404 itself when it returns ok == false.
func (h *API) activeImage(w http.ResponseWriter, r *http.Request) (*models.Image, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		apiError(w, http.StatusNotFound, "image not found")
		return nil, false
	}

	img, err := h.images.FindActive(id)
	if err != nil {
		slog.Error("api image lookup failed", "error", err)
		apiError(w, http.StatusInternalServerError, "internal error")
		return nil, false
	}
	if img == nil {
		apiError(w, http.StatusNotFound, "image not found")
		return nil, false
	}

	return img, true
}

// ownedAPIImage is activeImage plus an ownership check against the
// bearer token account.
func (h *API) ownedAPIImage(w http.ResponseWriter, r *http.Request) (*models.Image, bool) {
	img, ok := h.activeImage(w, r)
	if !ok {
		return nil, false
	}

	if !img.OwnedBy(middleware.AccountIDFromCtx(r.Context())) {
		apiError(w, http.StatusForbidden, "you do not own this image")
		return nil, false
	}

	return img, true
}
