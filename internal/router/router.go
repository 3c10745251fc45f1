// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up the HTTP routes and middleware chains for
// ImageHub: the HTML site, the JSON API, and static assets. Scope
// routes are registered last so fixed paths always win.
package router

import (
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"imagehub/internal/handlers"
	"imagehub/internal/middleware"
	"imagehub/internal/session"
	"imagehub/internal/token"
	"imagehub/web"
)

// New creates the configured Chi router with all middleware and route
// groups wired up.
func New(sessions *session.Store, issuer *token.Issuer, images *handlers.Images,
	auth *handlers.Auth, account *handlers.Account, api *handlers.API) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)

	// Health check: no session, no CSRF.
	r.Get("/health", healthHandler)

	// Static assets from the embedded filesystem.
	staticFS, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		panic(err)
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	// JSON API: bearer tokens instead of sessions, no CSRF cookie dance.
	authLimiter := middleware.NewRateLimiter(10, time.Minute)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.APIAuth(issuer))

		r.With(authLimiter.Middleware).Post("/auth/token", api.IssueToken)
		r.With(authLimiter.Middleware).Post("/accounts", api.Register)

		r.Get("/images", api.ListImages)
		r.Get("/images/random", api.RandomImages)
		r.Get("/images/{id}", api.GetImage)
		r.Get("/images/{id}/after", api.AfterImages)
		r.Get("/categories", api.ListCategories)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireToken)
			r.Post("/images", api.UploadImage)
			r.Patch("/images/{id}", api.UpdateImage)
			r.Delete("/images/{id}", api.DeleteImage)
			r.Post("/images/{id}/restore", api.RestoreImage)
			r.Post("/images/{id}/thumbnail", api.RegenerateThumbnail)
			r.Post("/categories", api.CreateCategory)
			r.Patch("/categories/{id}", api.RenameCategory)
			r.Delete("/categories/{id}", api.DeleteCategory)
			r.Get("/accounts/me", api.Me)
			r.Patch("/accounts/me", api.UpdateMe)
			r.Delete("/accounts/me", api.DeleteMe)
			r.Put("/accounts/me/avatar", api.SetAvatar)
			r.Delete("/accounts/me/avatar", api.ClearAvatar)
		})
	})

	// HTML site: cookie sessions plus CSRF on every form post.
	r.Group(func(r chi.Router) {
		r.Use(middleware.CSRF)
		r.Use(middleware.LoadSession(sessions))

		r.Get("/", images.Home)
		r.Get("/recents", images.Recents)
		r.Get("/categories", images.Categories)

		r.Route("/accounts", func(r chi.Router) {
			r.Get("/signup", auth.SignupPage)
			r.With(authLimiter.Middleware).Post("/signup", auth.SignupSubmit)
			r.Get("/signin", auth.SigninPage)
			r.With(authLimiter.Middleware).Post("/signin", auth.SigninSubmit)
			r.Post("/signout", auth.Signout)

			r.Get("/recover", auth.RecoverPage)
			r.With(authLimiter.Middleware).Post("/recover", auth.RecoverSubmit)
			r.Get("/reset/{token}", auth.ResetPage)
			r.Post("/reset/{token}", auth.ResetSubmit)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Get("/settings", account.SettingsPage)
				r.Post("/settings", account.ProfileSubmit)
				r.Post("/settings/avatar", account.AvatarSubmit)
				r.Post("/settings/password", account.PasswordSubmit)
				r.Post("/delete", account.DeleteSubmit)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get("/upload", images.UploadPage)
			r.Post("/upload", images.UploadSubmit)
			r.Get("/images/{id}/edit", images.EditPage)
			r.Post("/images/{id}/edit", images.EditSubmit)
			r.Post("/images/{id}/delete", images.DeleteSubmit)
		})

		r.Get("/image/{id}", images.Detail)

		// Scope routes last: a category slug or a username. Fixed paths
		// above always take precedence in the chi tree.
		r.Get("/{scope}", images.ScopeBoard)
		r.Get("/{scope}/recents", images.ScopeRecents)
		r.Get("/{scope}/image/{id}", images.Detail)
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
