package handlers

import (
	"strings"
	"testing"
)

func TestValidateProvider(t *testing.T) {
	tests := []struct {
		name      string
		business  string
		phone     string
		email     string
		desc      string
		wantError bool
	}{
		{"valid", "Dave's Plumbing", "904-555-0100", "dave@example.com", "", false},
		{"missing name", "  ", "904-555-0100", "dave@example.com", "", true},
		{"missing phone", "Dave", "", "dave@example.com", "", true},
		{"missing email", "Dave", "904", "", "", true},
		{"invalid email", "Dave", "904", "not-an-email", "", true},
		{"display-name email", "Dave", "904", "Dave <dave@example.com>", "", true},
		{"name too long", strings.Repeat("a", 201), "904", "dave@example.com", "", true},
		{"phone too long", "Dave", strings.Repeat("9", 41), "dave@example.com", "", true},
		{"description too long", "Dave", "904", "dave@example.com", strings.Repeat("a", 5_001), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validateProvider(tt.business, tt.phone, tt.email, tt.desc)
			if tt.wantError && result == "" {
				t.Error("expected an error, got none")
			}
			if !tt.wantError && result != "" {
				t.Errorf("unexpected error: %s", result)
			}
		})
	}
}

func TestValidateProviderMissingFieldsMessage(t *testing.T) {
	got := validateProvider("", "", "", "")
	if got != "Business name, phone, and email are required" {
		t.Errorf("message = %q", got)
	}
}

func TestValidateCategory(t *testing.T) {
	if validateCategory("Plumbing", "") != "" {
		t.Error("valid category rejected")
	}
	if validateCategory(" ", "") == "" {
		t.Error("blank name accepted")
	}
	if validateCategory(strings.Repeat("x", 201), "") == "" {
		t.Error("long name accepted")
	}
	if validateCategory("Plumbing", strings.Repeat("x", 5_001)) == "" {
		t.Error("long description accepted")
	}
}

func TestValidateReview(t *testing.T) {
	tests := []struct {
		name      string
		title     string
		content   string
		wantError bool
	}{
		{"valid", "Great", "Fixed the leak fast.", false},
		{"no title allowed", "", "Fixed it.", false},
		{"empty content", "Great", "   ", true},
		{"title too long", strings.Repeat("a", 201), "ok", true},
		{"content too long", "", strings.Repeat("a", 5_001), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validateReview(tt.title, tt.content)
			if (result != "") != tt.wantError {
				t.Errorf("validateReview() = %q, wantError %v", result, tt.wantError)
			}
		})
	}
}

func TestValidateRegistration(t *testing.T) {
	tests := []struct {
		name      string
		email     string
		password  string
		userName  string
		wantError bool
	}{
		{"valid", "pat@example.com", "longenough", "Pat", false},
		{"bad email", "pat", "longenough", "Pat", true},
		{"short password", "pat@example.com", "short", "Pat", true},
		{"missing name", "pat@example.com", "longenough", " ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validateRegistration(tt.email, tt.password, tt.userName)
			if (result != "") != tt.wantError {
				t.Errorf("validateRegistration() = %q, wantError %v", result, tt.wantError)
			}
		})
	}
}
