// Package handlers wires HTTP requests to the feed, store, and file
// layers for both the HTML site and the JSON API.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"imagehub/internal/feed"
	"imagehub/internal/files"
	"imagehub/internal/models"
)

// card is the view model a board grid cell renders from.
type card struct {
	Image     models.Image
	ThumbURL  string
	DetailURL string
}

// scopePath returns the URL prefix for a scope: empty for the global
// scope, "/{slug}" for a category, "/{username}" for an account.
func scopePath(sc feed.Scope) string {
	switch sc.Kind {
	case feed.ScopeCategory:
		return "/" + sc.Category.Slug
	case feed.ScopeAccount:
		return "/" + sc.Account.Username
	default:
		return ""
	}
}

// detailURL builds the image page URL within a scope.
func detailURL(sc feed.Scope, id int64) string {
	return fmt.Sprintf("%s/image/%d", scopePath(sc), id)
}

// makeCards turns images into board cards, preferring the thumbnail key
// and falling back to the original file.
func makeCards(fm *files.Manager, sc feed.Scope, images []models.Image) []card {
	cards := make([]card, 0, len(images))
	for _, img := range images {
		thumb := img.FileKey
		if img.ThumbKey != nil && *img.ThumbKey != "" {
			thumb = *img.ThumbKey
		}
		cards = append(cards, card{
			Image:     img,
			ThumbURL:  fm.URL(thumb),
			DetailURL: detailURL(sc, img.ID),
		})
	}
	return cards
}

// queryInt parses an integer query parameter, returning 0 when absent
// or malformed. The feed layer clamps out-of-range values.
func queryInt(r *http.Request, name string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}
	return v
}

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// apiError writes the API error envelope: {"detail": "..."}.
func apiError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
