// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindValidation, http.StatusBadRequest},
		{KindRule, http.StatusBadRequest},
		{KindUnauthorized, http.StatusUnauthorized},
		{KindForbidden, http.StatusForbidden},
		{KindNotFound, http.StatusNotFound},
		{KindConflict, http.StatusConflict},
		{KindInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			if got := tt.kind.HTTPStatus(); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSentinelsMatchThroughWrapping(t *testing.T) {
	err := fmt.Errorf("claim provider: %w", ErrAlreadyClaimed)
	if !errors.Is(err, ErrAlreadyClaimed) {
		t.Fatal("errors.Is should find the sentinel through fmt wrapping")
	}
	if KindOf(err) != KindConflict {
		t.Errorf("KindOf = %v, want conflict", KindOf(err))
	}

	withCause := ErrClaimMismatch.With(errors.New("email differs"))
	if !errors.Is(withCause, ErrClaimMismatch) {
		t.Error("With() copy should still match its sentinel")
	}
	if errors.Is(withCause, ErrClaimExpired) {
		t.Error("different sentinels must not match")
	}
}

func TestKindOfPlainError(t *testing.T) {
	err := errors.New("boom")
	if KindOf(err) != KindInternal {
		t.Errorf("KindOf(plain) = %v, want internal", KindOf(err))
	}
	if MessageOf(err) != "internal error" {
		t.Errorf("MessageOf(plain) = %q, want %q", MessageOf(err), "internal error")
	}
}

func TestErrorString(t *testing.T) {
	if got := NotFound("provider").Error(); got != "provider not found" {
		t.Errorf("Error() = %q", got)
	}
	wrapped := Internal(errors.New("connection reset"))
	if got := wrapped.Error(); got != "internal error: connection reset" {
		t.Errorf("Error() = %q", got)
	}
	if MessageOf(wrapped) != "internal error" {
		t.Errorf("MessageOf should hide the cause, got %q", MessageOf(wrapped))
	}
}
