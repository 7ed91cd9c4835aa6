package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"homepros/internal/models"
)

// testStore returns a store on Valkey DB 14, skipping when Valkey is not
// reachable. Session keys are removed afterwards.
func testStore(t *testing.T, secure bool) (*Store, *redis.Client) {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:     envOr("VALKEY_HOST", "localhost") + ":" + envOr("VALKEY_PORT", "6379"),
		Password: os.Getenv("VALKEY_PASSWORD"),
		DB:       14,
	})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping integration test: Valkey not reachable: %v", err)
	}
	t.Cleanup(func() {
		for _, pattern := range []string{keyPrefix + "*", userPrefix + "*"} {
			if keys, _ := client.Keys(ctx, pattern).Result(); len(keys) > 0 {
				client.Del(ctx, keys...)
			}
		}
		client.Close()
	})
	return NewStore(client, secure), client
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// newSession creates a session and returns a request carrying its cookie.
func newSession(t *testing.T, s *Store, data *Data) (*http.Request, *http.Cookie) {
	t.Helper()
	w := httptest.NewRecorder()
	if _, err := s.Create(context.Background(), w, data); err != nil {
		t.Fatalf("Create: %v", err)
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == CookieName {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.AddCookie(c)
			return req, c
		}
	}
	t.Fatal("session cookie not set")
	return nil, nil
}

func TestSessionCreateAndGet(t *testing.T) {
	s, _ := testStore(t, false)
	data := &Data{UserID: uuid.New(), Email: "owner@session.test", Name: "Owner", Role: models.RoleProvider}

	req, cookie := newSession(t, s, data)
	if !cookie.HttpOnly || cookie.Secure || cookie.SameSite != http.SameSiteLaxMode {
		t.Errorf("cookie flags: httpOnly=%v secure=%v sameSite=%v", cookie.HttpOnly, cookie.Secure, cookie.SameSite)
	}
	if cookie.MaxAge != int(DefaultTTL.Seconds()) {
		t.Errorf("MaxAge: got %d", cookie.MaxAge)
	}

	got, err := s.Get(context.Background(), req)
	if err != nil || got == nil {
		t.Fatalf("Get: %v, %v", got, err)
	}
	if got.UserID != data.UserID || got.Email != data.Email || got.Role != models.RoleProvider {
		t.Errorf("got %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt should be stamped")
	}
}

func TestSessionGetMissing(t *testing.T) {
	s, _ := testStore(t, false)

	tests := map[string]*http.Cookie{
		"no cookie":       nil,
		"empty cookie":    {Name: CookieName, Value: ""},
		"unknown session": {Name: CookieName, Value: "does-not-exist"},
	}
	for name, c := range tests {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if c != nil {
				req.AddCookie(c)
			}
			got, err := s.Get(context.Background(), req)
			if err != nil || got != nil {
				t.Errorf("got %v, %v; want nil, nil", got, err)
			}
		})
	}
}

func TestSessionGetExtendsLifetime(t *testing.T) {
	s, client := testStore(t, false)
	ctx := context.Background()
	req, cookie := newSession(t, s, &Data{UserID: uuid.New(), Role: models.RoleUser})

	client.Expire(ctx, sessionKey(cookie.Value), time.Minute)
	if _, err := s.Get(ctx, req); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ttl := client.TTL(ctx, sessionKey(cookie.Value)).Val(); ttl <= time.Hour {
		t.Errorf("TTL after read: got %v, want close to %v", ttl, DefaultTTL)
	}
}

func TestSessionUpdate(t *testing.T) {
	s, _ := testStore(t, false)
	ctx := context.Background()
	data := &Data{UserID: uuid.New(), Role: models.RoleAdmin}
	req, _ := newSession(t, s, data)

	data.TwoFADone = true
	if err := s.Update(ctx, req, data); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ := s.Get(ctx, req)
	if got == nil || !got.IsAdmin() {
		t.Errorf("session after update: %+v", got)
	}

	bare := httptest.NewRequest(http.MethodGet, "/", nil)
	if err := s.Update(ctx, bare, data); err != ErrNoSession {
		t.Errorf("Update without cookie: got %v, want ErrNoSession", err)
	}
}

func TestSessionDestroy(t *testing.T) {
	s, client := testStore(t, false)
	ctx := context.Background()
	data := &Data{UserID: uuid.New(), Role: models.RoleUser}
	req, cookie := newSession(t, s, data)

	w := httptest.NewRecorder()
	if err := s.Destroy(ctx, w, req); err != nil {
		t.Fatalf("Destroy: %v", err)
	}

	var expired bool
	for _, c := range w.Result().Cookies() {
		if c.Name == CookieName && c.MaxAge < 0 {
			expired = true
		}
	}
	if !expired {
		t.Error("cookie should be expired")
	}
	if got, _ := s.Get(ctx, req); got != nil {
		t.Error("session should be gone")
	}
	if client.SIsMember(ctx, userKey(data.UserID), cookie.Value).Val() {
		t.Error("session should be removed from the user index")
	}

	if err := s.Destroy(ctx, httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil)); err != nil {
		t.Errorf("Destroy without cookie: %v", err)
	}
}

func TestRevokeUser(t *testing.T) {
	s, _ := testStore(t, false)
	ctx := context.Background()
	user := uuid.New()
	other := uuid.New()

	laptop, _ := newSession(t, s, &Data{UserID: user, Role: models.RoleAdmin})
	phone, _ := newSession(t, s, &Data{UserID: user, Role: models.RoleAdmin})
	bystander, _ := newSession(t, s, &Data{UserID: other, Role: models.RoleUser})

	n, err := s.RevokeUser(ctx, user)
	if err != nil {
		t.Fatalf("RevokeUser: %v", err)
	}
	if n != 2 {
		t.Errorf("revoked: got %d, want 2", n)
	}
	for _, req := range []*http.Request{laptop, phone} {
		if got, _ := s.Get(ctx, req); got != nil {
			t.Error("revoked session still loads")
		}
	}
	if got, _ := s.Get(ctx, bystander); got == nil {
		t.Error("other users keep their sessions")
	}

	if n, err := s.RevokeUser(ctx, uuid.New()); err != nil || n != 0 {
		t.Errorf("RevokeUser without sessions: got %d, %v", n, err)
	}
}

func TestSessionSecureCookie(t *testing.T) {
	s, _ := testStore(t, true)
	_, cookie := newSession(t, s, &Data{UserID: uuid.New(), Role: models.RoleUser})
	if !cookie.Secure {
		t.Error("expected Secure cookie")
	}
}

func TestDataIsAdmin(t *testing.T) {
	tests := []struct {
		name string
		data Data
		want bool
	}{
		{"admin with 2fa", Data{Role: models.RoleAdmin, TwoFADone: true}, true},
		{"admin pending 2fa", Data{Role: models.RoleAdmin}, false},
		{"provider", Data{Role: models.RoleProvider, TwoFADone: true}, false},
		{"user", Data{Role: models.RoleUser}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.data.IsAdmin(); got != tt.want {
				t.Errorf("IsAdmin() = %v, want %v", got, tt.want)
			}
		})
	}
}
