// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
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
	"imagehub/internal/render"
	"imagehub/internal/store"
)

// Images groups the public board, image detail, and image management
// handlers.
type Images struct {
	renderer   *render.Renderer
	selector   *feed.Selector
	navigator  *feed.Navigator
	resolver   *feed.Resolver
	images     *store.ImageStore
	categories *store.CategoryStore
	accounts   *store.AccountStore
	fileMgr    *files.Manager
}

// NewImages creates a new Images handler group.
func NewImages(renderer *render.Renderer, selector *feed.Selector, navigator *feed.Navigator,
	resolver *feed.Resolver, images *store.ImageStore, categories *store.CategoryStore,
	accounts *store.AccountStore, fileMgr *files.Manager) *Images {
	return &Images{
		renderer:   renderer,
		selector:   selector,
		navigator:  navigator,
		resolver:   resolver,
		images:     images,
		categories: categories,
		accounts:   accounts,
		fileMgr:    fileMgr,
	}
}

// board renders a random sample board for a scope.
func (h *Images) board(w http.ResponseWriter, r *http.Request, sc feed.Scope, heading string) {
	images, err := h.selector.RandomSample(sc, nil, feed.SampleCount)
	if err != nil {
		slog.Error("board sample failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	refresh := scopePath(sc)
	if refresh == "" {
		refresh = "/"
	}

	section := "home"
	if sc.Kind != feed.ScopeGlobal {
		section = ""
	}

	h.renderer.Page(w, r, "board", &render.PageData{
		Title:   heading,
		Section: section,
		Data: map[string]any{
			"heading":    heading,
			"refreshURL": refresh,
			"images":     makeCards(h.fileMgr, sc, images),
		},
	})
}

// Home renders the global random board.
func (h *Images) Home(w http.ResponseWriter, r *http.Request) {
	h.board(w, r, feed.Global(), "A random look at ImageHub")
}

// ScopeBoard renders the random board for a category or account. The
// path segment is tried as a category slug first, then as a username.
func (h *Images) ScopeBoard(w http.ResponseWriter, r *http.Request) {
	sc, err := h.resolver.Resolve(chi.URLParam(r, "scope"))
	if err != nil {
		slog.Error("scope resolve failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if sc.Kind == feed.ScopeNone {
		http.NotFound(w, r)
		return
	}
	h.board(w, r, sc, scopeHeading(sc))
}

// webPageSize is the fixed page size of the HTML recents feed. The API
// lets clients pick their own within limits; the site does not.
const webPageSize = 10

// recents renders a paginated newest-first feed for a scope.
func (h *Images) recents(w http.ResponseWriter, r *http.Request, sc feed.Scope, heading string) {
	pageNum, size := feed.ClampPage(queryInt(r, "p"), webPageSize)

	page, err := h.selector.Recent(sc, pageNum, size)
	if err != nil {
		slog.Error("recents failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	data := map[string]any{
		"heading": heading,
		"count":   page.Count,
		"images":  makeCards(h.fileMgr, sc, page.Images),
		"page":    pageNum,
	}
	if pageNum > 1 {
		data["prevPage"] = pageNum - 1
	}
	if pageNum*size < page.Count {
		data["nextPage"] = pageNum + 1
	}

	section := "recents"
	if sc.Kind != feed.ScopeGlobal {
		section = ""
	}

	h.renderer.Page(w, r, "recents", &render.PageData{
		Title:   heading,
		Section: section,
		Data:    data,
	})
}

// Recents renders the global newest-first feed.
func (h *Images) Recents(w http.ResponseWriter, r *http.Request) {
	h.recents(w, r, feed.Global(), "Recent uploads")
}

// ScopeRecents renders the newest-first feed for a category or account.
func (h *Images) ScopeRecents(w http.ResponseWriter, r *http.Request) {
	sc, err := h.resolver.Resolve(chi.URLParam(r, "scope"))
	if err != nil {
		slog.Error("scope resolve failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if sc.Kind == feed.ScopeNone {
		http.NotFound(w, r)
		return
	}
	h.recents(w, r, sc, scopeHeading(sc))
}

// Categories renders the category overview with active counts and the
// newest image of each category as its tile.
func (h *Images) Categories(w http.ResponseWriter, r *http.Request) {
	list, err := h.categories.List()
	if err != nil {
		slog.Error("category list failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	type tile struct {
		Category models.Category
		ThumbURL string
	}
	tiles := make([]tile, 0, len(list))
	for _, c := range list {
		t := tile{Category: c}
		latest, err := h.images.LatestInCategory(c.ID)
		if err != nil {
			slog.Error("latest in category failed", "error", err)
		}
		if latest != nil {
			key := latest.FileKey
			if latest.ThumbKey != nil && *latest.ThumbKey != "" {
				key = *latest.ThumbKey
			}
			t.ThumbURL = h.fileMgr.URL(key)
		}
		tiles = append(tiles, t)
	}

	h.renderer.Page(w, r, "categories", &render.PageData{
		Title:   "Categories",
		Section: "categories",
		Data:    map[string]any{"categories": tiles},
	})
}

// UploadPage renders the upload form.
func (h *Images) UploadPage(w http.ResponseWriter, r *http.Request) {
	list, err := h.categories.List()
	if err != nil {
		slog.Error("category list failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.renderer.Page(w, r, "upload", &render.PageData{
		Title:   "Upload",
		Section: "upload",
		Data:    map[string]any{"categories": list, "selectedCategory": uuid.Nil},
	})
}

// UploadSubmit validates and stores a new image: original to object
// storage under a fresh key, thumbnail alongside it, then the record.
func (h *Images) UploadSubmit(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	fail := func(msg string, categoryID uuid.UUID, description string) {
		list, err := h.categories.List()
		if err != nil {
			slog.Error("category list failed", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		h.renderer.Page(w, r, "upload", &render.PageData{
			Title:   "Upload",
			Section: "upload",
			Data: map[string]any{
				"error": msg, "categories": list,
				"selectedCategory": categoryID, "description": description,
			},
		})
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		fail("The image must be at most 10 MB.", uuid.Nil, "")
		return
	}

	categoryID, err := uuid.Parse(r.FormValue("category"))
	if err != nil {
		fail("Choose a category.", uuid.Nil, r.FormValue("description"))
		return
	}
	description := strings.TrimSpace(r.FormValue("description"))
	if msg := validateDescription(description); msg != "" {
		fail(msg, categoryID, description)
		return
	}

	category, err := h.categories.FindByID(categoryID)
	if err != nil {
		slog.Error("category lookup failed", "error", err)
		fail("An unexpected error occurred.", categoryID, description)
		return
	}
	if category == nil {
		fail("Choose a category.", uuid.Nil, description)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		fail("Choose an image to upload.", categoryID, description)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil || len(data) > maxUploadBytes {
		fail("The image must be at most 10 MB.", categoryID, description)
		return
	}

	src, _, err := imaging.Decode(data)
	if err != nil {
		fail("That file is not a supported image.", categoryID, description)
		return
	}

	key, err := h.fileMgr.Store(r.Context(), files.ImagePrefix, header.Filename,
		header.Header.Get("Content-Type"), data)
	if err != nil {
		slog.Error("image upload failed", "error", err)
		fail("An unexpected error occurred.", categoryID, description)
		return
	}

	// Thumbnail failures are not fatal; the board falls back to the original.
	var thumbKey *string
	if thumb, err := imaging.Thumbnail(src); err == nil {
		tk, err := h.fileMgr.Store(r.Context(), files.ImagePrefix, "thumb.jpg", "image/jpeg", thumb)
		if err == nil {
			thumbKey = &tk
		} else {
			slog.Warn("thumbnail upload failed", "error", err)
		}
	} else {
		slog.Warn("thumbnail generation failed", "error", err)
	}

	created, err := h.images.Create(&models.Image{
		FileKey:     key,
		ThumbKey:    thumbKey,
		Description: description,
		CategoryID:  categoryID,
		AccountID:   sess.AccountID,
	})
	if err != nil {
		slog.Error("image create failed", "error", err)
		h.fileMgr.Release(r.Context(), key)
		if thumbKey != nil {
			h.fileMgr.Release(r.Context(), *thumbKey)
		}
		fail("An unexpected error occurred.", categoryID, description)
		return
	}

	http.Redirect(w, r, detailURL(feed.Global(), created.ID), http.StatusSeeOther)
}

// Detail renders the image page: the image itself, previous/next links
// within the scope, and a strip of images uploaded after it. Scoped
// paths show only images belonging to that category or account.
func (h *Images) Detail(w http.ResponseWriter, r *http.Request) {
	sc := feed.Global()
	if segment := chi.URLParam(r, "scope"); segment != "" {
		var err error
		sc, err = h.resolver.Resolve(segment)
		if err != nil {
			slog.Error("scope resolve failed", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if sc.Kind == feed.ScopeNone {
			http.NotFound(w, r)
			return
		}
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	img, err := h.images.FindActive(id)
	if err != nil {
		slog.Error("image lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if img == nil || !imageInScope(img, sc) {
		http.NotFound(w, r)
		return
	}

	category, err := h.categories.FindByID(img.CategoryID)
	if err != nil || category == nil {
		slog.Error("image category lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	owner, err := h.accounts.FindByID(img.AccountID)
	if err != nil || owner == nil {
		slog.Error("image owner lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	prev, next, err := h.navigator.Adjacent(sc, img)
	if err != nil {
		slog.Error("adjacent lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	strip, err := h.navigator.After(sc, img)
	if err != nil {
		slog.Error("strip lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	sess := middleware.SessionFromCtx(r.Context())

	data := map[string]any{
		"image":        img,
		"fileURL":      h.fileMgr.URL(img.FileKey),
		"category":     category,
		"owner":        owner,
		"strip":        makeCards(h.fileMgr, sc, strip),
		"stripHeading": "More from " + scopeHeading(sc),
		"isOwner":      sess != nil && img.OwnedBy(sess.AccountID),
	}
	if prev != nil {
		data["prevURL"] = detailURL(sc, prev.ID)
	}
	if next != nil {
		data["nextURL"] = detailURL(sc, next.ID)
	}

	h.renderer.Page(w, r, "image", &render.PageData{
		Title: img.Title(),
		Data:  data,
	})
}

// EditPage renders the edit form for an image the session owns.
func (h *Images) EditPage(w http.ResponseWriter, r *http.Request) {
	img, ok := h.ownedImage(w, r)
	if !ok {
		return
	}

	list, err := h.categories.List()
	if err != nil {
		slog.Error("category list failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	thumb := img.FileKey
	if img.ThumbKey != nil && *img.ThumbKey != "" {
		thumb = *img.ThumbKey
	}

	h.renderer.Page(w, r, "edit", &render.PageData{
		Title: "Edit image",
		Data: map[string]any{
			"image":      img,
			"thumbURL":   h.fileMgr.URL(thumb),
			"categories": list,
		},
	})
}

// EditSubmit updates the category and description of an owned image.
// The file itself is immutable; replacing it means a new upload.
func (h *Images) EditSubmit(w http.ResponseWriter, r *http.Request) {
	img, ok := h.ownedImage(w, r)
	if !ok {
		return
	}

	categoryID, err := uuid.Parse(r.FormValue("category"))
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	description := strings.TrimSpace(r.FormValue("description"))
	if msg := validateDescription(description); msg != "" {
		list, lerr := h.categories.List()
		if lerr != nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		h.renderer.Page(w, r, "edit", &render.PageData{
			Title: "Edit image",
			Data: map[string]any{
				"error": msg, "image": img, "categories": list,
				"thumbURL": h.fileMgr.URL(img.FileKey),
			},
		})
		return
	}

	category, err := h.categories.FindByID(categoryID)
	if err != nil {
		slog.Error("category lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if category == nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	if _, err := h.images.Update(img.ID, categoryID, description); err != nil {
		slog.Error("image update failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, detailURL(feed.Global(), img.ID), http.StatusSeeOther)
}

// DeleteSubmit soft-deletes an owned image. The record and the stored
// file are kept; the image just disappears from every feed.
func (h *Images) DeleteSubmit(w http.ResponseWriter, r *http.Request) {
	img, ok := h.ownedImage(w, r)
	if !ok {
		return
	}

	if _, err := h.images.SoftDelete(img.ID); err != nil {
		slog.Error("image soft delete failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	// Back to the uploader's own board.
	sess := middleware.SessionFromCtx(r.Context())
	http.Redirect(w, r, "/"+sess.Username, http.StatusSeeOther)
}

// ownedImage loads the image from the id path param and verifies the
// session owns it. Writes the error response itself when it returns
// ok == false.
func (h *Images) ownedImage(w http.ResponseWriter, r *http.Request) (*models.Image, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return nil, false
	}

	img, err := h.images.FindActive(id)
	if err != nil {
		slog.Error("image lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, false
	}
	if img == nil {
		http.NotFound(w, r)
		return nil, false
	}

	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil || !img.OwnedBy(sess.AccountID) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return nil, false
	}

	return img, true
}

// imageInScope reports whether an image belongs to the scope it was
// addressed under.
func imageInScope(img *models.Image, sc feed.Scope) bool {
	switch sc.Kind {
	case feed.ScopeCategory:
		return img.CategoryID == sc.Category.ID
	case feed.ScopeAccount:
		return img.AccountID == sc.Account.ID
	default:
		return true
	}
}

// scopeHeading names a scope for page headings.
func scopeHeading(sc feed.Scope) string {
	switch sc.Kind {
	case feed.ScopeCategory:
		return sc.Category.Name
	case feed.ScopeAccount:
		return "@" + sc.Account.Username
	default:
		return "ImageHub"
	}
}
