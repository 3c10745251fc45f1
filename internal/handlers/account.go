package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"strings"

	"imagehub/internal/files"
	"imagehub/internal/imaging"
	"imagehub/internal/middleware"
	"imagehub/internal/render"
	"imagehub/internal/session"
	"imagehub/internal/store"
)

// Account groups the settings handlers: profile, avatar, password, and
// account deletion.
type Account struct {
	renderer *render.Renderer
	sessions *session.Store
	accounts *store.AccountStore
	images   *store.ImageStore
	fileMgr  *files.Manager
}

// NewAccount creates a new Account handler group.
func NewAccount(renderer *render.Renderer, sessions *session.Store, accounts *store.AccountStore,
	images *store.ImageStore, fileMgr *files.Manager) *Account {
	return &Account{
		renderer: renderer,
		sessions: sessions,
		accounts: accounts,
		images:   images,
		fileMgr:  fileMgr,
	}
}

// settingsData assembles the settings page view model, with one error
// slot per form so a failed submit re-renders only its own section red.
func (h *Account) settingsData(w http.ResponseWriter, r *http.Request, extra map[string]any) (*render.PageData, bool) {
	sess := middleware.SessionFromCtx(r.Context())
	account, err := h.accounts.FindByID(sess.AccountID)
	if err != nil || account == nil {
		slog.Error("settings account lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, false
	}

	data := map[string]any{"account": account}
	if account.AvatarKey != nil {
		data["avatarURL"] = h.fileMgr.URL(*account.AvatarKey)
	}
	for k, v := range extra {
		data[k] = v
	}

	return &render.PageData{
		Title:   "Settings",
		Section: "settings",
		Data:    data,
	}, true
}

// SettingsPage renders the account settings page.
func (h *Account) SettingsPage(w http.ResponseWriter, r *http.Request) {
	data, ok := h.settingsData(w, r, nil)
	if !ok {
		return
	}
	h.renderer.Page(w, r, "settings", data)
}

// ProfileSubmit updates username, email, and name fields.
func (h *Account) ProfileSubmit(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	username := strings.TrimSpace(r.FormValue("username"))
	email := strings.TrimSpace(r.FormValue("email"))
	firstName := strings.TrimSpace(r.FormValue("first_name"))
	lastName := strings.TrimSpace(r.FormValue("last_name"))

	fail := func(msg string) {
		data, ok := h.settingsData(w, r, map[string]any{"profileError": msg})
		if ok {
			h.renderer.Page(w, r, "settings", data)
		}
	}

	if msg := validateUsername(username); msg != "" {
		fail(msg)
		return
	}
	if msg := validateEmail(email); msg != "" {
		fail(msg)
		return
	}

	taken, err := h.accounts.UsernameTaken(username, sess.AccountID)
	if err != nil {
		slog.Error("profile username check failed", "error", err)
		fail("An unexpected error occurred.")
		return
	}
	if taken {
		fail("That username is already taken.")
		return
	}
	taken, err = h.accounts.EmailTaken(email, sess.AccountID)
	if err != nil {
		slog.Error("profile email check failed", "error", err)
		fail("An unexpected error occurred.")
		return
	}
	if taken {
		fail("An account with that email already exists.")
		return
	}

	account, err := h.accounts.UpdateProfile(sess.AccountID, username, email, firstName, lastName)
	if err != nil || account == nil {
		slog.Error("profile update failed", "error", err)
		fail("An unexpected error occurred.")
		return
	}

	// Refresh the session so the header shows the new username.
	sess.Username = account.Username
	sess.Email = account.Email
	if err := h.sessions.Update(r.Context(), r, sess); err != nil {
		slog.Error("session refresh failed", "error", err)
	}

	http.Redirect(w, r, "/accounts/settings", http.StatusSeeOther)
}

// AvatarSubmit replaces or removes the account avatar. The new file is
// stored before the database swap; the previous file is released only
// after the new reference is durable.
func (h *Account) AvatarSubmit(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	fail := func(msg string) {
		data, ok := h.settingsData(w, r, map[string]any{"avatarError": msg})
		if ok {
			h.renderer.Page(w, r, "settings", data)
		}
	}

	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		fail("Avatar must be an image up to 2 MB.")
		return
	}

	// The remove checkbox wins over any uploaded file.
	if r.FormValue("remove") != "" {
		previous, err := h.accounts.SetAvatar(sess.AccountID, nil)
		if err != nil {
			slog.Error("avatar clear failed", "error", err)
			fail("An unexpected error occurred.")
			return
		}
		if previous != nil {
			h.fileMgr.Release(r.Context(), *previous)
		}
		http.Redirect(w, r, "/accounts/settings", http.StatusSeeOther)
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		fail("Choose an image to upload.")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxAvatarBytes+1))
	if err != nil || len(data) > maxAvatarBytes {
		fail("Avatar must be an image up to 2 MB.")
		return
	}
	if _, ok := imaging.Sniff(data); !ok {
		fail("That file is not a supported image.")
		return
	}

	key, err := h.fileMgr.Store(r.Context(), files.AvatarPrefix, header.Filename,
		header.Header.Get("Content-Type"), data)
	if err != nil {
		slog.Error("avatar upload failed", "error", err)
		fail("An unexpected error occurred.")
		return
	}

	previous, err := h.accounts.SetAvatar(sess.AccountID, &key)
	if err != nil {
		slog.Error("avatar swap failed", "error", err)
		// Orphan the freshly stored file rather than the account row.
		h.fileMgr.Release(r.Context(), key)
		fail("An unexpected error occurred.")
		return
	}
	if previous != nil {
		h.fileMgr.Release(r.Context(), *previous)
	}

	http.Redirect(w, r, "/accounts/settings", http.StatusSeeOther)
}

// PasswordSubmit changes the password after verifying the current one.
func (h *Account) PasswordSubmit(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	fail := func(msg string) {
		data, ok := h.settingsData(w, r, map[string]any{"passwordError": msg})
		if ok {
			h.renderer.Page(w, r, "settings", data)
		}
	}

	account, err := h.accounts.FindByID(sess.AccountID)
	if err != nil || account == nil {
		slog.Error("password account lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if !h.accounts.CheckPassword(account, r.FormValue("current_password")) {
		fail("Current password is incorrect.")
		return
	}
	if msg := validatePassword(r.FormValue("new_password"), r.FormValue("confirm_password")); msg != "" {
		fail(msg)
		return
	}

	if err := h.accounts.UpdatePassword(sess.AccountID, r.FormValue("new_password")); err != nil {
		slog.Error("password update failed", "error", err)
		fail("An unexpected error occurred.")
		return
	}

	http.Redirect(w, r, "/accounts/settings", http.StatusSeeOther)
}

// DeleteSubmit removes the account, its images, and every stored file.
// File keys are collected before the row delete because the database
// cascade would otherwise orphan the objects.
func (h *Account) DeleteSubmit(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	account, err := h.accounts.FindByID(sess.AccountID)
	if err != nil || account == nil {
		slog.Error("delete account lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	keys, err := h.images.FileKeysByAccount(sess.AccountID)
	if err != nil {
		slog.Error("delete file key collection failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if account.AvatarKey != nil {
		keys = append(keys, *account.AvatarKey)
	}

	if err := h.accounts.Delete(sess.AccountID); err != nil {
		slog.Error("account delete failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.fileMgr.Release(r.Context(), keys...)
	h.sessions.Destroy(r.Context(), w, r)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
