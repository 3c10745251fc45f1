// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"imagehub/internal/files"
	"imagehub/internal/imaging"
	"imagehub/internal/middleware"
	"imagehub/internal/models"
)

// apiAccount is the JSON representation of an account. The avatar key
// stays internal; clients get a resolved URL.
type apiAccount struct {
	models.Account
	AvatarURL string `json:"avatar_url,omitempty"`
}

func (h *API) toAPIAccount(a *models.Account) apiAccount {
	out := apiAccount{Account: *a}
	if a.HasAvatar() {
		out.AvatarURL = h.fileMgr.URL(*a.AvatarKey)
	}
	return out
}

// IssueToken handles POST /api/v1/auth/token: credentials in, a signed
// bearer token out. The login field accepts a username or an email.
func (h *API) IssueToken(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Login    string `json:"login"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		apiError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}

	account, err := h.accounts.FindByLogin(strings.TrimSpace(body.Login))
	if err != nil {
		slog.Error("api token lookup failed", "error", err)
		apiError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if account == nil || !h.accounts.CheckPassword(account, body.Password) {
		apiError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	tok, err := h.issuer.Issue(account.ID)
	if err != nil {
		slog.Error("api token issue failed", "error", err)
		apiError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": tok})
}

// Register handles POST /api/v1/accounts: account creation over JSON.
func (h *API) Register(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username  string `json:"username"`
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		apiError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}

	username := strings.TrimSpace(body.Username)
	email := strings.TrimSpace(body.Email)

	if msg := validateUsername(username); msg != "" {
		apiError(w, http.StatusBadRequest, msg)
		return
	}
	if msg := validateEmail(email); msg != "" {
		apiError(w, http.StatusBadRequest, msg)
		return
	}
	if msg := validatePassword(body.Password, body.Password); msg != "" {
		apiError(w, http.StatusBadRequest, msg)
		return
	}

	taken, err := h.accounts.UsernameTaken(username, uuid.Nil)
	if err != nil {
		slog.Error("api username check failed", "error", err)
		apiError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if taken {
		apiError(w, http.StatusConflict, "username already taken")
		return
	}
	taken, err = h.accounts.EmailTaken(email, uuid.Nil)
	if err != nil {
		slog.Error("api email check failed", "error", err)
		apiError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if taken {
		apiError(w, http.StatusConflict, "email already registered")
		return
	}

	account, err := h.accounts.Create(username, email, body.Password,
		strings.TrimSpace(body.FirstName), strings.TrimSpace(body.LastName))
	if err != nil {
		slog.Error("api account create failed", "error", err)
		apiError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, h.toAPIAccount(account))
}

// Me handles GET /api/v1/accounts/me.
func (h *API) Me(w http.ResponseWriter, r *http.Request) {
	account, ok := h.tokenAccount(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.toAPIAccount(account))
}

// UpdateMe handles PATCH /api/v1/accounts/me: profile field changes.
// Absent fields keep their value.
func (h *API) UpdateMe(w http.ResponseWriter, r *http.Request) {
	account, ok := h.tokenAccount(w, r)
	if !ok {
		return
	}

	var body struct {
		Username  *string `json:"username"`
		Email     *string `json:"email"`
		FirstName *string `json:"first_name"`
		LastName  *string `json:"last_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		apiError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}

	username := account.Username
	if body.Username != nil {
		username = strings.TrimSpace(*body.Username)
		if msg := validateUsername(username); msg != "" {
			apiError(w, http.StatusBadRequest, msg)
			return
		}
		taken, err := h.accounts.UsernameTaken(username, account.ID)
		if err != nil {
			slog.Error("api username check failed", "error", err)
			apiError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if taken {
			apiError(w, http.StatusConflict, "username already taken")
			return
		}
	}

	email := account.Email
	if body.Email != nil {
		email = strings.TrimSpace(*body.Email)
		if msg := validateEmail(email); msg != "" {
			apiError(w, http.StatusBadRequest, msg)
			return
		}
		taken, err := h.accounts.EmailTaken(email, account.ID)
		if err != nil {
			slog.Error("api email check failed", "error", err)
			apiError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if taken {
			apiError(w, http.StatusConflict, "email already registered")
			return
		}
	}

	firstName := account.FirstName
	if body.FirstName != nil {
		firstName = strings.TrimSpace(*body.FirstName)
	}
	lastName := account.LastName
	if body.LastName != nil {
		lastName = strings.TrimSpace(*body.LastName)
	}

	updated, err := h.accounts.UpdateProfile(account.ID, username, email, firstName, lastName)
	if err != nil || updated == nil {
		slog.Error("api profile update failed", "error", err)
		apiError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, h.toAPIAccount(updated))
}

// SetAvatar handles PUT /api/v1/accounts/me/avatar: a multipart upload
// replacing the avatar. The previous file is released after the swap.
func (h *API) SetAvatar(w http.ResponseWriter, r *http.Request) {
	account, ok := h.tokenAccount(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		apiError(w, http.StatusBadRequest, "avatar too large or malformed")
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		apiError(w, http.StatusBadRequest, "avatar is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxAvatarBytes+1))
	if err != nil || len(data) > maxAvatarBytes {
		apiError(w, http.StatusBadRequest, "avatar must be at most 2 MB")
		return
	}
	if _, ok := imaging.Sniff(data); !ok {
		apiError(w, http.StatusBadRequest, "avatar is not a supported image")
		return
	}

	key, err := h.fileMgr.Store(r.Context(), files.AvatarPrefix, header.Filename,
		header.Header.Get("Content-Type"), data)
	if err != nil {
		slog.Error("api avatar upload failed", "error", err)
		apiError(w, http.StatusInternalServerError, "internal error")
		return
	}

	previous, err := h.accounts.SetAvatar(account.ID, &key)
	if err != nil {
		slog.Error("api avatar swap failed", "error", err)
		h.fileMgr.Release(r.Context(), key)
		apiError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if previous != nil {
		h.fileMgr.Release(r.Context(), *previous)
	}

	updated, err := h.accounts.FindByID(account.ID)
	if err != nil || updated == nil {
		slog.Error("api account reload failed", "error", err)
		apiError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, h.toAPIAccount(updated))
}

// ClearAvatar handles DELETE /api/v1/accounts/me/avatar.
func (h *API) ClearAvatar(w http.ResponseWriter, r *http.Request) {
	account, ok := h.tokenAccount(w, r)
	if !ok {
		return
	}

	previous, err := h.accounts.SetAvatar(account.ID, nil)
	if err != nil {
		slog.Error("api avatar clear failed", "error", err)
		apiError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if previous != nil {
		h.fileMgr.Release(r.Context(), *previous)
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteMe handles DELETE /api/v1/accounts/me: removes the account,
// its images, and every stored file. File keys are collected before
// the row delete because the database cascade would otherwise orphan
// the objects.
func (h *API) DeleteMe(w http.ResponseWriter, r *http.Request) {
	account, ok := h.tokenAccount(w, r)
	if !ok {
		return
	}

	keys, err := h.images.FileKeysByAccount(account.ID)
	if err != nil {
		slog.Error("api delete file key collection failed", "error", err)
		apiError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if account.AvatarKey != nil {
		keys = append(keys, *account.AvatarKey)
	}

	if err := h.accounts.Delete(account.ID); err != nil {
		slog.Error("api account delete failed", "error", err)
		apiError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.fileMgr.Release(r.Context(), keys...)
	w.WriteHeader(http.StatusNoContent)
}

// tokenAccount loads the account behind the bearer token, writing the
// error response itself when it returns ok == false.
func (h *API) tokenAccount(w http.ResponseWriter, r *http.Request) (*models.Account, bool) {
	account, err := h.accounts.FindByID(middleware.AccountIDFromCtx(r.Context()))
	if err != nil {
		slog.Error("api account lookup failed", "error", err)
		apiError(w, http.StatusInternalServerError, "internal error")
		return nil, false
	}
	if account == nil {
		apiError(w, http.StatusUnauthorized, "authentication required")
		return nil, false
	}
	return account, true
}
