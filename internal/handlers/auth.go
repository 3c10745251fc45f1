package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"imagehub/internal/mailer"
	"imagehub/internal/middleware"
	"imagehub/internal/recovery"
	"imagehub/internal/render"
	"imagehub/internal/session"
	"imagehub/internal/store"
)

// Auth groups registration, sign-in, and password recovery handlers.
type Auth struct {
	renderer *render.Renderer
	sessions *session.Store
	accounts *store.AccountStore
	tokens   *recovery.Store
	mail     mailer.Mailer
	baseURL  string
}

// NewAuth creates a new Auth handler group. baseURL is the externally
// visible origin used to build recovery links.
func NewAuth(renderer *render.Renderer, sessions *session.Store, accounts *store.AccountStore,
	tokens *recovery.Store, mail mailer.Mailer, baseURL string) *Auth {
	return &Auth{
		renderer: renderer,
		sessions: sessions,
		accounts: accounts,
		tokens:   tokens,
		mail:     mail,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// SignupPage renders the registration form.
func (a *Auth) SignupPage(w http.ResponseWriter, r *http.Request) {
	if middleware.SessionFromCtx(r.Context()) != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	a.renderer.Page(w, r, "signup", &render.PageData{
		Title: "Sign up",
		Data:  map[string]any{},
	})
}

// SignupSubmit processes the registration form, creates the account,
// and signs the new member in.
func (a *Auth) SignupSubmit(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.FormValue("username"))
	email := strings.TrimSpace(r.FormValue("email"))
	firstName := strings.TrimSpace(r.FormValue("first_name"))
	lastName := strings.TrimSpace(r.FormValue("last_name"))
	password := r.FormValue("password")
	confirm := r.FormValue("confirm_password")

	fail := func(msg string) {
		a.renderer.Page(w, r, "signup", &render.PageData{
			Title: "Sign up",
			Data: map[string]any{
				"error": msg, "username": username, "email": email,
				"firstName": firstName, "lastName": lastName,
			},
		})
	}

	if msg := validateUsername(username); msg != "" {
		fail(msg)
		return
	}
	if msg := validateEmail(email); msg != "" {
		fail(msg)
		return
	}
	if msg := validatePassword(password, confirm); msg != "" {
		fail(msg)
		return
	}

	taken, err := a.accounts.UsernameTaken(username, uuid.Nil)
	if err != nil {
		slog.Error("signup username check failed", "error", err)
		fail("An unexpected error occurred.")
		return
	}
	if taken {
		fail("That username is already taken.")
		return
	}
	taken, err = a.accounts.EmailTaken(email, uuid.Nil)
	if err != nil {
		slog.Error("signup email check failed", "error", err)
		fail("An unexpected error occurred.")
		return
	}
	if taken {
		fail("An account with that email already exists.")
		return
	}

	account, err := a.accounts.Create(username, email, password, firstName, lastName)
	if err != nil {
		slog.Error("signup create failed", "error", err)
		fail("An unexpected error occurred.")
		return
	}

	if _, err := a.sessions.Create(r.Context(), w, &session.Data{
		AccountID: account.ID,
		Username:  account.Username,
		Email:     account.Email,
	}); err != nil {
		slog.Error("session create failed", "error", err)
		http.Redirect(w, r, "/accounts/signin", http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// SigninPage renders the sign-in form.
func (a *Auth) SigninPage(w http.ResponseWriter, r *http.Request) {
	if middleware.SessionFromCtx(r.Context()) != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	a.renderer.Page(w, r, "signin", &render.PageData{
		Title: "Sign in",
		Data:  map[string]any{},
	})
}

// SigninSubmit processes the sign-in form. The login field accepts a
// username or an email address.
func (a *Auth) SigninSubmit(w http.ResponseWriter, r *http.Request) {
	login := strings.TrimSpace(r.FormValue("login"))
	password := r.FormValue("password")

	account, err := a.accounts.FindByLogin(login)
	if err != nil {
		slog.Error("signin lookup failed", "error", err)
		a.renderer.Page(w, r, "signin", &render.PageData{
			Title: "Sign in",
			Data:  map[string]any{"error": "An unexpected error occurred.", "login": login},
		})
		return
	}

	if account == nil || !a.accounts.CheckPassword(account, password) {
		a.renderer.Page(w, r, "signin", &render.PageData{
			Title: "Sign in",
			Data:  map[string]any{"error": "Invalid credentials.", "login": login},
		})
		return
	}

	if _, err := a.sessions.Create(r.Context(), w, &session.Data{
		AccountID: account.ID,
		Username:  account.Username,
		Email:     account.Email,
	}); err != nil {
		slog.Error("session create failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Signout destroys the session and redirects home.
func (a *Auth) Signout(w http.ResponseWriter, r *http.Request) {
	a.sessions.Destroy(r.Context(), w, r)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// RecoverPage renders the password recovery request form.
func (a *Auth) RecoverPage(w http.ResponseWriter, r *http.Request) {
	a.renderer.Page(w, r, "recover", &render.PageData{
		Title: "Recover password",
		Data:  map[string]any{},
	})
}

// RecoverSubmit issues a recovery token and mails the reset link. The
// response is identical whether or not the address matched an account,
// so the form cannot be used to probe for registered emails.
func (a *Auth) RecoverSubmit(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))

	account, err := a.accounts.FindByEmail(email)
	if err != nil {
		slog.Error("recover lookup failed", "error", err)
	}

	if account != nil {
		token, err := a.tokens.Issue(r.Context(), account.ID)
		if err != nil {
			slog.Error("recovery token issue failed", "error", err)
		} else {
			link := fmt.Sprintf("%s/accounts/reset/%s", a.baseURL, token)
			body := fmt.Sprintf(
				"Hi %s,\n\nSomeone requested a password reset for your ImageHub account.\n"+
					"Open the link below to choose a new password. The link expires in one hour.\n\n%s\n\n"+
					"If this wasn't you, you can ignore this email.\n",
				account.Username, link,
			)
			if err := a.mail.Send(r.Context(), account.Email, "Reset your ImageHub password", body); err != nil {
				slog.Error("recovery mail failed", "error", err)
			}
		}
	}

	a.renderer.Page(w, r, "recover", &render.PageData{
		Title: "Recover password",
		Data:  map[string]any{"sent": true},
	})
}

// ResetPage validates the token from the link and renders the new
// password form without consuming the token.
func (a *Auth) ResetPage(w http.ResponseWriter, r *http.Request) {
	tok := chi.URLParam(r, "token")

	accountID, err := a.tokens.Peek(r.Context(), tok)
	if err != nil {
		slog.Error("recovery peek failed", "error", err)
	}
	if accountID == uuid.Nil {
		a.renderer.Page(w, r, "reset", &render.PageData{
			Title: "Reset password",
			Data:  map[string]any{"invalid": true},
		})
		return
	}

	a.renderer.Page(w, r, "reset", &render.PageData{
		Title: "Reset password",
		Data:  map[string]any{"token": tok},
	})
}

// ResetSubmit consumes the token and sets the new password.
func (a *Auth) ResetSubmit(w http.ResponseWriter, r *http.Request) {
	tok := chi.URLParam(r, "token")
	password := r.FormValue("new_password")
	confirm := r.FormValue("confirm_password")

	if msg := validatePassword(password, confirm); msg != "" {
		a.renderer.Page(w, r, "reset", &render.PageData{
			Title: "Reset password",
			Data:  map[string]any{"token": tok, "error": msg},
		})
		return
	}

	accountID, err := a.tokens.Redeem(r.Context(), tok)
	if err != nil {
		slog.Error("recovery redeem failed", "error", err)
	}
	if accountID == uuid.Nil {
		a.renderer.Page(w, r, "reset", &render.PageData{
			Title: "Reset password",
			Data:  map[string]any{"invalid": true},
		})
		return
	}

	if err := a.accounts.UpdatePassword(accountID, password); err != nil {
		slog.Error("password reset failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/accounts/signin", http.StatusSeeOther)
}
