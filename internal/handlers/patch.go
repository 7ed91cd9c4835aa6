package handlers

import (
	"bytes"
	"encoding/json"
	"strings"
	"unicode/utf8"

	"homepros/internal/apperr"
	"homepros/internal/store"
)

// fieldKind says how a JSON patch value is decoded.
type fieldKind int

const (
	fieldText         fieldKind = iota // non-empty string
	fieldOptionalText                  // string or null; "" stores NULL
	fieldBool
	fieldInt
	fieldOptionalInt
	fieldOptionalRating // number between 0 and 5 or null
)

// patchField maps one JSON key to a provider column.
type patchField struct {
	column string
	kind   fieldKind
	maxLen int
}

// ownerPatchFields are the content and contact fields a provider's owner
// may change.
var ownerPatchFields = map[string]patchField{
	"businessName": {"business_name", fieldText, maxNameLen},
	"description":  {"description", fieldText, maxDescriptionLen},
	"phone":        {"phone", fieldText, maxPhoneLen},
	"email":        {"email", fieldText, maxNameLen},
	"address":      {"address", fieldText, maxNameLen},
	"city":         {"city", fieldText, maxNameLen},
	"state":        {"state", fieldText, maxNameLen},
	"zip":          {"zip", fieldText, maxPhoneLen},
	"website":      {"website", fieldOptionalText, maxNameLen},
}

// adminPatchFields extends the owner fields with flags, ordering and the
// imported external rating.
var adminPatchFields = func() map[string]patchField {
	m := map[string]patchField{
		"isVerified":          {"is_verified", fieldBool, 0},
		"isPremium":           {"is_premium", fieldBool, 0},
		"isFeatured":          {"is_featured", fieldBool, 0},
		"isActive":            {"is_active", fieldBool, 0},
		"sortOrder":           {"sort_order", fieldInt, 0},
		"externalRating":      {"external_rating", fieldOptionalRating, 0},
		"externalRatingCount": {"external_rating_count", fieldOptionalInt, 0},
		"externalPlaceId":     {"external_place_id", fieldOptionalText, maxNameLen},
	}
	for k, v := range ownerPatchFields {
		m[k] = v
	}
	return m
}()

// optionalFields may be cleared to an empty string even though they are
// plain text columns.
var optionalFields = map[string]bool{
	"description": true,
	"address":     true,
	"city":        true,
	"state":       true,
	"zip":         true,
}

// buildPatch converts a decoded JSON object into a store.Patch. Keys not
// in allowed are ignored; allowed keys with the wrong type are rejected.
func buildPatch(raw map[string]json.RawMessage, allowed map[string]patchField) (store.Patch, error) {
	patch := store.Patch{}
	for key, msg := range raw {
		f, ok := allowed[key]
		if !ok {
			continue
		}
		isNull := bytes.Equal(bytes.TrimSpace(msg), []byte("null"))

		switch f.kind {
		case fieldText:
			var s string
			if err := json.Unmarshal(msg, &s); err != nil {
				return nil, apperr.Validation(key + " must be a string")
			}
			s = strings.TrimSpace(s)
			if s == "" && !optionalFields[key] {
				return nil, apperr.Validation(key + " cannot be empty")
			}
			if key == "email" && !validEmail(s) {
				return nil, apperr.Validation("email address is invalid")
			}
			if key == "email" {
				s = store.NormalizeEmail(s)
			}
			if utf8.RuneCountInString(s) > f.maxLen {
				return nil, apperr.Validation(key + " is too long")
			}
			patch[f.column] = s

		case fieldOptionalText:
			var s *string
			if err := json.Unmarshal(msg, &s); err != nil {
				return nil, apperr.Validation(key + " must be a string or null")
			}
			if s != nil {
				trimmed := strings.TrimSpace(*s)
				if utf8.RuneCountInString(trimmed) > f.maxLen {
					return nil, apperr.Validation(key + " is too long")
				}
				s = &trimmed
				if trimmed == "" {
					s = nil
				}
			}
			patch[f.column] = s

		case fieldBool:
			var b bool
			if isNull || json.Unmarshal(msg, &b) != nil {
				return nil, apperr.Validation(key + " must be true or false")
			}
			patch[f.column] = b

		case fieldInt:
			var n int
			if isNull || json.Unmarshal(msg, &n) != nil || n < 0 {
				return nil, apperr.Validation(key + " must be a non-negative integer")
			}
			patch[f.column] = n

		case fieldOptionalInt:
			var n *int
			if json.Unmarshal(msg, &n) != nil || (n != nil && *n < 0) {
				return nil, apperr.Validation(key + " must be a non-negative integer or null")
			}
			patch[f.column] = n

		case fieldOptionalRating:
			var x *float64
			if json.Unmarshal(msg, &x) != nil || (x != nil && (*x < 0 || *x > 5)) {
				return nil, apperr.Validation(key + " must be between 0 and 5 or null")
			}
			patch[f.column] = x
		}
	}
	return patch, nil
}
