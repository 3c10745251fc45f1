// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// account_flow_test.go contains handler integration tests for the
// settings page: profile, avatar lifecycle, password change, and
// account deletion. Tests exercise real database and Valkey
// connections; they are skipped when those services are unavailable.
package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"imagehub/internal/files"
)

func TestProfileSubmit_UpdatesFields(t *testing.T) {
	env := newTestEnv(t)
	account := fixtureAccount(t, env, "profile_update_user")

	form := url.Values{
		"username":   {"profile_update_user"},
		"email":      {"renamed@handlers.test"},
		"first_name": {"Rena"},
		"last_name":  {"Med"},
	}
	req := postForm("/accounts/settings", form)
	req = req.WithContext(ctxWithSession(req.Context(), sessionFor(account)))
	rec := httptest.NewRecorder()

	env.AccountH.ProfileSubmit(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d, body: %s", rec.Code, http.StatusSeeOther, rec.Body.String())
	}

	updated, err := env.Accounts.FindByID(account.ID)
	if err != nil || updated == nil {
		t.Fatalf("reload account: %v", err)
	}
	if updated.Email != "renamed@handlers.test" || updated.FirstName != "Rena" {
		t.Errorf("profile not updated: %+v", updated)
	}
}

func TestProfileSubmit_TakenUsernameRejected(t *testing.T) {
	env := newTestEnv(t)
	account := fixtureAccount(t, env, "profile_taken_a")
	other := fixtureAccount(t, env, "profile_taken_b")

	form := url.Values{
		"username": {other.Username},
		"email":    {account.Email},
	}
	req := postForm("/accounts/settings", form)
	req = req.WithContext(ctxWithSession(req.Context(), sessionFor(account)))
	rec := httptest.NewRecorder()

	env.AccountH.ProfileSubmit(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "already taken") {
		t.Error("expected taken username error")
	}
}

func TestAvatarSubmit_UploadSwapRemove(t *testing.T) {
	env := newTestEnv(t)
	account := fixtureAccount(t, env, "avatar_flow_user")

	upload := func(name string) {
		t.Helper()
		body, contentType := multipartUpload(t, "avatar", name, pngBytes(t, 120, 120), nil)
		req := httptest.NewRequest(http.MethodPost, "/accounts/settings/avatar", body)
		req.Header.Set("Content-Type", contentType)
		req = req.WithContext(ctxWithSession(req.Context(), sessionFor(account)))
		rec := httptest.NewRecorder()
		env.AccountH.AvatarSubmit(rec, req)
		if rec.Code != http.StatusSeeOther {
			t.Fatalf("avatar upload status: got %d, body: %s", rec.Code, rec.Body.String())
		}
	}

	upload("first.png")
	afterFirst, _ := env.Accounts.FindByID(account.ID)
	if afterFirst == nil || !afterFirst.HasAvatar() {
		t.Fatal("avatar not set after first upload")
	}
	firstKey := *afterFirst.AvatarKey
	if !strings.HasPrefix(firstKey, files.AvatarPrefix) {
		t.Errorf("avatar key %q lacks prefix %q", firstKey, files.AvatarPrefix)
	}
	if !env.Objects.has(firstKey) {
		t.Fatal("first avatar file missing from storage")
	}

	// A second upload replaces the file and releases the first.
	upload("second.png")
	afterSecond, _ := env.Accounts.FindByID(account.ID)
	if afterSecond == nil || !afterSecond.HasAvatar() || *afterSecond.AvatarKey == firstKey {
		t.Fatal("avatar not swapped on second upload")
	}
	if env.Objects.has(firstKey) {
		t.Error("previous avatar file not released after swap")
	}
	secondKey := *afterSecond.AvatarKey

	// The remove checkbox clears the column and releases the file.
	body, contentType := multipartUpload(t, "", "", nil, map[string]string{"remove": "1"})
	req := httptest.NewRequest(http.MethodPost, "/accounts/settings/avatar", body)
	req.Header.Set("Content-Type", contentType)
	req = req.WithContext(ctxWithSession(req.Context(), sessionFor(account)))
	rec := httptest.NewRecorder()
	env.AccountH.AvatarSubmit(rec, req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("avatar remove status: got %d", rec.Code)
	}

	cleared, _ := env.Accounts.FindByID(account.ID)
	if cleared == nil || cleared.HasAvatar() {
		t.Error("avatar column not cleared")
	}
	if env.Objects.has(secondKey) {
		t.Error("removed avatar file not released")
	}
}

func TestPasswordSubmit_RequiresCurrentPassword(t *testing.T) {
	env := newTestEnv(t)
	account := fixtureAccount(t, env, "password_flow_user")

	form := url.Values{
		"current_password": {"wrong-password"},
		"new_password":     {"another-long-pass"},
		"confirm_password": {"another-long-pass"},
	}
	req := postForm("/accounts/settings/password", form)
	req = req.WithContext(ctxWithSession(req.Context(), sessionFor(account)))
	rec := httptest.NewRecorder()

	env.AccountH.PasswordSubmit(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "Current password is incorrect") {
		t.Error("expected wrong current password error")
	}

	form.Set("current_password", "handler-test-pass")
	req = postForm("/accounts/settings/password", form)
	req = req.WithContext(ctxWithSession(req.Context(), sessionFor(account)))
	rec = httptest.NewRecorder()

	env.AccountH.PasswordSubmit(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}

	updated, _ := env.Accounts.FindByID(account.ID)
	if updated == nil || !env.Accounts.CheckPassword(updated, "another-long-pass") {
		t.Error("new password does not verify")
	}
}

func TestDeleteSubmit_ReleasesEveryFile(t *testing.T) {
	env := newTestEnv(t)
	account := fixtureAccount(t, env, "account_delete_user")
	category := fixtureCategory(t, env, "Account Delete Cat")

	kept := fixtureImage(t, env, account, category, "kept image")
	removed := fixtureImage(t, env, account, category, "soft deleted image")
	if _, err := env.Images.SoftDelete(removed.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	// Give the account an avatar so that file is collected too.
	body, contentType := multipartUpload(t, "avatar", "me.png", pngBytes(t, 80, 80), nil)
	avReq := httptest.NewRequest(http.MethodPost, "/accounts/settings/avatar", body)
	avReq.Header.Set("Content-Type", contentType)
	avReq = avReq.WithContext(ctxWithSession(avReq.Context(), sessionFor(account)))
	env.AccountH.AvatarSubmit(httptest.NewRecorder(), avReq)

	withAvatar, _ := env.Accounts.FindByID(account.ID)
	if withAvatar == nil || !withAvatar.HasAvatar() {
		t.Fatal("avatar fixture not set")
	}
	avatarKey := *withAvatar.AvatarKey

	req := postForm("/accounts/delete", url.Values{})
	req = req.WithContext(ctxWithSession(req.Context(), sessionFor(account)))
	rec := httptest.NewRecorder()

	env.AccountH.DeleteSubmit(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}

	gone, err := env.Accounts.FindByID(account.ID)
	if err != nil {
		t.Fatalf("find account: %v", err)
	}
	if gone != nil {
		t.Error("account row still present")
	}

	// Both image files (active and soft-deleted) and the avatar are gone.
	for _, key := range []string{kept.FileKey, removed.FileKey, avatarKey} {
		if env.Objects.has(key) {
			t.Errorf("file %q not released on account delete", key)
		}
	}
}
