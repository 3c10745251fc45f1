package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"imagehub/internal/token"
)

const (
	// AccountIDKey is the context key the API account ID is stored under.
	AccountIDKey contextKey = "api_account_id"
)

// APIAuth validates a Bearer token from the Authorization header and
// stores the account ID in the request context. Requests without a
// valid token pass through unauthenticated; RequireToken enforces.
func APIAuth(issuer *token.Issuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if raw, ok := strings.CutPrefix(header, "Bearer "); ok {
				if id, err := issuer.Verify(strings.TrimSpace(raw)); err == nil {
					ctx := context.WithValue(r.Context(), AccountIDKey, id)
					r = r.WithContext(ctx)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireToken rejects API requests that did not present a valid token.
// Must be applied after APIAuth.
func RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if AccountIDFromCtx(r.Context()) == uuid.Nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"detail": "authentication required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AccountIDFromCtx extracts the authenticated API account ID from the
// request context. Returns uuid.Nil when the request is unauthenticated.
func AccountIDFromCtx(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(AccountIDKey).(uuid.UUID)
	return id
}
