package handlers

import (
	"strings"
	"testing"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"valid simple", "alice", false},
		{"valid with digits", "alice99", false},
		{"valid inner underscore", "street_photo", false},
		{"valid minimum length", "abc", false},
		{"empty", "", true},
		{"too short", "ab", true},
		{"too long", strings.Repeat("a", 31), true},
		{"leading underscore", "_alice", true},
		{"trailing underscore", "alice_", true},
		{"space", "al ice", true},
		{"hyphen", "al-ice", true},
		{"unicode", "алиса", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := validateUsername(tt.username)
			if (got != "") != tt.wantErr {
				t.Errorf("validateUsername(%q) = %q, wantErr %v", tt.username, got, tt.wantErr)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	if msg := validateEmail("someone@example.com"); msg != "" {
		t.Errorf("valid email rejected: %s", msg)
	}
	if msg := validateEmail(""); msg == "" {
		t.Error("empty email accepted")
	}
	if msg := validateEmail("not-an-address"); msg == "" {
		t.Error("malformed email accepted")
	}
}

func TestValidatePassword(t *testing.T) {
	if msg := validatePassword("longenough1", "longenough1"); msg != "" {
		t.Errorf("valid password rejected: %s", msg)
	}
	if msg := validatePassword("short", "short"); msg == "" {
		t.Error("short password accepted")
	}
	if msg := validatePassword("longenough1", "different1"); msg == "" {
		t.Error("mismatched confirmation accepted")
	}
}

func TestValidateDescription(t *testing.T) {
	if msg := validateDescription(strings.Repeat("x", maxDescriptionLen)); msg != "" {
		t.Errorf("at-limit description rejected: %s", msg)
	}
	if msg := validateDescription(strings.Repeat("x", maxDescriptionLen+1)); msg == "" {
		t.Error("over-limit description accepted")
	}
	if msg := validateDescription(""); msg != "" {
		t.Error("empty description must be allowed")
	}
}
