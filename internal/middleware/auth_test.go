package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"homepros/internal/models"
	"homepros/internal/session"

	"github.com/google/uuid"
)

// newTestSession creates a session.Data value suitable for testing.
func newTestSession(role models.Role, twoFADone bool) *session.Data {
	return &session.Data{
		UserID:    uuid.New(),
		Email:     "test@homepros.local",
		Name:      "Test User",
		Role:      role,
		TwoFADone: twoFADone,
	}
}

// okHandler is a simple handler that records whether it was invoked.
func okHandler() (http.Handler, *bool) {
	var called bool
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})
	return h, &called
}

func TestSessionFromCtx(t *testing.T) {
	t.Run("returns session when present", func(t *testing.T) {
		sess := newTestSession(models.RoleAdmin, true)
		got := SessionFromCtx(WithSession(context.Background(), sess))
		if got == nil {
			t.Fatal("expected non-nil session, got nil")
		}
		if got.Email != sess.Email || got.Role != sess.Role || got.TwoFADone != sess.TwoFADone {
			t.Errorf("got %+v, want %+v", got, sess)
		}
	})

	t.Run("returns nil when not present", func(t *testing.T) {
		if got := SessionFromCtx(context.Background()); got != nil {
			t.Errorf("expected nil session, got %+v", got)
		}
	})

	t.Run("returns nil for wrong type in context", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), SessionKey, "not-a-session")
		if got := SessionFromCtx(ctx); got != nil {
			t.Errorf("expected nil for wrong type, got %+v", got)
		}
	})
}

func TestLoadSessionWithoutCookie(t *testing.T) {
	// Store.Get returns (nil, nil) before touching Valkey when there is
	// no cookie, so a store with a nil client is enough here.
	store := session.NewStore(nil, false)

	var sawSession bool
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawSession = SessionFromCtx(r.Context()) != nil
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/providers", nil)
	rr := httptest.NewRecorder()
	LoadSession(store)(inner).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rr.Code)
	}
	if sawSession {
		t.Error("anonymous request should not carry a session")
	}
}

func TestRequireAuth(t *testing.T) {
	t.Run("rejects anonymous request with JSON 401", func(t *testing.T) {
		inner, called := okHandler()
		req := httptest.NewRequest(http.MethodPost, "/providers/x/reviews", nil)
		rr := httptest.NewRecorder()
		RequireAuth(inner).ServeHTTP(rr, req)

		if *called {
			t.Error("next handler should not run")
		}
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status: got %d, want 401", rr.Code)
		}
		if !strings.Contains(rr.Body.String(), "Authentication required") {
			t.Errorf("body: got %q", rr.Body.String())
		}
	})

	t.Run("passes any signed-in role", func(t *testing.T) {
		for _, role := range []models.Role{models.RoleUser, models.RoleProvider, models.RoleAdmin} {
			inner, called := okHandler()
			req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
			req = req.WithContext(WithSession(req.Context(), newTestSession(role, false)))
			rr := httptest.NewRecorder()
			RequireAuth(inner).ServeHTTP(rr, req)

			if !*called || rr.Code != http.StatusOK {
				t.Errorf("role %s: called=%v status=%d", role, *called, rr.Code)
			}
		}
	})
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name    string
		sess    *session.Data
		allowed bool
	}{
		{"anonymous", nil, false},
		{"user", newTestSession(models.RoleUser, true), false},
		{"provider", newTestSession(models.RoleProvider, true), false},
		{"admin without 2fa", newTestSession(models.RoleAdmin, false), false},
		{"admin with 2fa", newTestSession(models.RoleAdmin, true), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inner, called := okHandler()
			req := httptest.NewRequest(http.MethodGet, "/admin/providers", nil)
			if tt.sess != nil {
				req = req.WithContext(WithSession(req.Context(), tt.sess))
			}
			rr := httptest.NewRecorder()
			RequireAdmin(inner).ServeHTTP(rr, req)

			if *called != tt.allowed {
				t.Errorf("next called = %v, want %v", *called, tt.allowed)
			}
			if tt.allowed {
				return
			}
			if rr.Code != http.StatusUnauthorized {
				t.Errorf("status: got %d, want 401", rr.Code)
			}
			if !strings.Contains(rr.Body.String(), "Admin access required") {
				t.Errorf("body: got %q", rr.Body.String())
			}
		})
	}
}
