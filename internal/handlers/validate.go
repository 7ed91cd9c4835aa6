package handlers

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

// Validation limits for provider, category and review fields.
const (
	maxNameLen        = 200
	maxDescriptionLen = 5_000
	maxPhoneLen       = 40
	maxTitleLen       = 200
	maxReviewLen      = 5_000
	maxReplyLen       = 2_000
	minPasswordLen    = 8
)

// validateProvider checks the required provider fields and returns the
// first error found.
func validateProvider(businessName, phone, email, description string) string {
	businessName = strings.TrimSpace(businessName)
	switch {
	case businessName == "" || strings.TrimSpace(phone) == "" || strings.TrimSpace(email) == "":
		return "Business name, phone, and email are required"
	case utf8.RuneCountInString(businessName) > maxNameLen:
		return "Business name is too long (max 200 characters)"
	case utf8.RuneCountInString(phone) > maxPhoneLen:
		return "Phone is too long (max 40 characters)"
	case !validEmail(email):
		return "Email address is invalid"
	case utf8.RuneCountInString(description) > maxDescriptionLen:
		return "Description is too long (max 5,000 characters)"
	}
	return ""
}

// validateCategory checks category form inputs.
func validateCategory(name, description string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Category name is required"
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return "Category name is too long (max 200 characters)"
	}
	if utf8.RuneCountInString(description) > maxDescriptionLen {
		return "Description is too long (max 5,000 characters)"
	}
	return ""
}

// validateReview checks review inputs. The rating range is enforced by
// the store.
func validateReview(title, content string) string {
	if strings.TrimSpace(content) == "" {
		return "Review content is required"
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return "Title is too long (max 200 characters)"
	}
	if utf8.RuneCountInString(content) > maxReviewLen {
		return "Review is too long (max 5,000 characters)"
	}
	return ""
}

// validateRegistration checks account sign-up inputs.
func validateRegistration(email, password, name string) string {
	if !validEmail(email) {
		return "A valid email address is required"
	}
	if utf8.RuneCountInString(password) < minPasswordLen {
		return "Password must be at least 8 characters"
	}
	if strings.TrimSpace(name) == "" {
		return "Name is required"
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return "Name is too long (max 200 characters)"
	}
	return ""
}

// validateOwnerPassword checks the optional password sent with a provider
// registration.
func validateOwnerPassword(password string) string {
	if password != "" && utf8.RuneCountInString(password) < minPasswordLen {
		return "Password must be at least 8 characters"
	}
	return ""
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	return err == nil && addr.Name == "" && strings.Contains(addr.Address, "@")
}
