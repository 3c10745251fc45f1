package handlers

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Validation limits for account and image fields.
const (
	minUsernameLen    = 3
	maxUsernameLen    = 30
	minPasswordLen    = 8
	maxDescriptionLen = 2_000

	// maxUploadBytes caps image uploads at 10 MB.
	maxUploadBytes = 10 << 20

	// maxAvatarBytes caps avatar uploads at 2 MB.
	maxAvatarBytes = 2 << 20
)

// usernamePattern allows letters, digits, and underscores, with no
// leading or trailing underscore. Usernames share the URL path space
// with category slugs, so the character set stays conservative.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9](?:[a-zA-Z0-9_]*[a-zA-Z0-9])?$`)

// validateUsername checks a username and returns the first error found.
func validateUsername(username string) string {
	if username == "" {
		return "Username is required."
	}
	if utf8.RuneCountInString(username) < minUsernameLen {
		return "Username must be at least 3 characters."
	}
	if utf8.RuneCountInString(username) > maxUsernameLen {
		return "Username is too long (max 30 characters)."
	}
	if !usernamePattern.MatchString(username) {
		return "Username may only contain letters, digits, and underscores, and may not start or end with an underscore."
	}
	return ""
}

// validateEmail checks an email address and returns the first error found.
func validateEmail(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return "Email is required."
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "Enter a valid email address."
	}
	return ""
}

// validatePassword checks a new password and its confirmation.
func validatePassword(password, confirm string) string {
	if utf8.RuneCountInString(password) < minPasswordLen {
		return "Password must be at least 8 characters."
	}
	if password != confirm {
		return "Passwords do not match."
	}
	return ""
}

// validateDescription checks an image description.
func validateDescription(description string) string {
	if utf8.RuneCountInString(description) > maxDescriptionLen {
		return "Description is too long (max 2,000 characters)."
	}
	return ""
}
