// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"imagehub/internal/session"
)

func TestRequireAuthRedirectsAnonymous(t *testing.T) {
	handler := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/upload", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusSeeOther {
		t.Errorf("status: got %d, want 303", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "/accounts/signin" {
		t.Errorf("redirect: got %q, want /accounts/signin", loc)
	}
}

func TestRequireAuthPassesAuthenticated(t *testing.T) {
	handler := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	sess := &session.Data{AccountID: uuid.New(), Username: "tester"}
	req := httptest.NewRequest(http.MethodGet, "/upload", nil)
	req = req.WithContext(context.WithValue(req.Context(), SessionKey, sess))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rr.Code)
	}
}

func TestSessionFromCtx(t *testing.T) {
	if got := SessionFromCtx(context.Background()); got != nil {
		t.Error("expected nil for empty context")
	}

	sess := &session.Data{Username: "ctxtester"}
	ctx := context.WithValue(context.Background(), SessionKey, sess)
	if got := SessionFromCtx(ctx); got == nil || got.Username != "ctxtester" {
		t.Errorf("session from ctx: got %+v", got)
	}
}
