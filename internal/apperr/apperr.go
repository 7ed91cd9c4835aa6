// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package apperr defines the error taxonomy shared by stores and handlers.
// Stores return *Error values (or wrap them); handlers translate the Kind
// into an HTTP status at the boundary.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for transport-level translation.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindRule // a domain rule rejected an otherwise well-formed request
)

// String returns the lowercase kind name, used in logs.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindRule:
		return "rule"
	default:
		return "internal"
	}
}

// HTTPStatus maps a Kind to its response status code.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation, KindRule:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified application error. Message is safe to show to
// clients; Err carries the underlying cause for logs and development output.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match a wrapped copy of a sentinel by kind and message,
// so With() results still compare equal to the sentinel they came from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

// With returns a copy of e that wraps cause.
func (e *Error) With(cause error) *Error {
	return &Error{Kind: e.Kind, Message: e.Message, Err: cause}
}

// New creates an error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Validation reports missing or malformed input.
func Validation(msg string) *Error { return New(KindValidation, msg) }

// NotFound reports a lookup miss for the named entity.
func NotFound(entity string) *Error { return New(KindNotFound, entity+" not found") }

// Conflict reports a uniqueness or state conflict.
func Conflict(msg string) *Error { return New(KindConflict, msg) }

// Rule reports a violated domain rule.
func Rule(msg string) *Error { return New(KindRule, msg) }

// Unauthorized reports a missing session.
func Unauthorized(msg string) *Error { return New(KindUnauthorized, msg) }

// Forbidden reports an authenticated caller acting outside their rights.
func Forbidden(msg string) *Error { return New(KindForbidden, msg) }

// Internal wraps an unexpected failure.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal error", Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the client-safe message for err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}

// Sentinels for domain rules. Compare with errors.Is.
var (
	ErrAlreadyFirst     = Rule("provider is already first")
	ErrAlreadyLast      = Rule("provider is already last")
	ErrAlreadyClaimed   = Conflict("provider is already claimed")
	ErrClaimMismatch    = Rule("claim token or email does not match this provider")
	ErrClaimExpired     = Rule("claim link has expired")
	ErrUserHasProvider  = Conflict("user already owns a provider")
	ErrReplyExists      = Conflict("review already has a reply")
	ErrReviewExists     = Conflict("you have already reviewed this provider")
	ErrCategoryInUse    = Conflict("category still has services or child categories")
	ErrSlugTaken        = Conflict("slug is already in use")
	ErrEmailTaken       = Conflict("email is already registered")
	ErrInvalidHierarchy = Validation("category parent must be exactly one level above")
	ErrStalePayment     = Conflict("payment status cannot change from its current state")
)
