// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler integration
// tests. Tests are skipped when PostgreSQL or Valkey are unavailable.
package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"homepros/internal/cache"
	"homepros/internal/database"
	"homepros/internal/middleware"
	"homepros/internal/models"
	"homepros/internal/payments"
	"homepros/internal/places"
	"homepros/internal/session"
	"homepros/internal/store"
)

const (
	testTxTimeout     = 5 * time.Second
	testWebhookSecret = "whsec_handler_test"
	testBaseURL       = "http://homepros.test"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test PostgreSQL and runs migrations.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "homepros")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "homepros")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testValkeyClient returns a Redis client for handler tests on DB 15.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		for _, pattern := range []string{"session:*", "session_user:*", "resp:*"} {
			keys, _ := client.Keys(ctx, pattern).Result()
			if len(keys) > 0 {
				client.Del(ctx, keys...)
			}
		}
		client.Close()
	})

	return client
}

// fakeCheckout records checkout requests instead of calling a processor.
type fakeCheckout struct {
	requests []payments.CheckoutRequest
	err      error
}

func (f *fakeCheckout) CreateSession(_ context.Context, cr payments.CheckoutRequest) (*payments.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.requests = append(f.requests, cr)
	id := "cs_test_" + uuid.NewString()[:8]
	return &payments.Session{ID: id, URL: "https://checkout.example.com/pay/" + id}, nil
}

// fakeSearcher returns canned places results.
type fakeSearcher struct {
	results []places.Place
	err     error
	query   string
}

func (f *fakeSearcher) Search(_ context.Context, query string) ([]places.Place, error) {
	f.query = query
	return f.results, f.err
}

// fakeImages stores uploads in memory.
type fakeImages struct {
	objects map[string][]byte
	deleted []string
}

func (f *fakeImages) Upload(_ context.Context, key, _ string, body io.Reader, _ int64) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.objects[key] = data
	return nil
}

func (f *fakeImages) Delete(_ context.Context, key string) error {
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeImages) FileURL(key string) string {
	return "https://cdn.homepros.test/" + key
}

// testEnv holds all dependencies for handler integration tests.
type testEnv struct {
	DB         *sql.DB
	Valkey     *redis.Client
	Sessions   *session.Store
	Users      *store.UserStore
	Providers  *store.ProviderStore
	Categories *store.CategoryStore
	Payments   *store.PaymentStore
	Cache      *cache.ResponseCache
	Checkout   *fakeCheckout
	Places     *fakeSearcher
	Images     *fakeImages
	Router     chi.Router

	emails      []string
	providerIDs []uuid.UUID
	categoryIDs []uuid.UUID
}

// newTestEnv creates a complete test environment with every handler group
// mounted on a router that mirrors the production route table.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testDB(t)
	vk := testValkeyClient(t)

	env := &testEnv{
		DB:         db,
		Valkey:     vk,
		Sessions:   session.NewStore(vk, false),
		Users:      store.NewUserStore(db),
		Providers:  store.NewProviderStore(db, testTxTimeout),
		Categories: store.NewCategoryStore(db, testTxTimeout),
		Payments:   store.NewPaymentStore(db, testTxTimeout),
		Cache:      cache.NewResponseCache(vk, time.Minute),
		Checkout:   &fakeCheckout{},
		Places:     &fakeSearcher{},
		Images:     &fakeImages{objects: map[string][]byte{}},
	}
	t.Cleanup(func() { env.cleanup() })

	auth := NewAuth(env.Sessions, env.Users, true)
	catalog := NewCatalog(env.Categories, env.Providers, env.Cache, true)
	claims := NewClaims(store.NewClaimStore(db, testTxTimeout), env.Providers, env.Users,
		env.Sessions, testBaseURL, 24*time.Hour, true)
	reviews := NewReviews(store.NewReviewStore(db, testTxTimeout), env.Users, true)
	adminProviders := NewAdminProviders(env.Providers, env.Images, true)
	adminCategories := NewAdminCategories(env.Categories, true)
	pay := NewPayments(env.Payments, env.Providers, env.Checkout, testWebhookSecret, testBaseURL, 4900, true)
	platform := NewPlatform(db, vk, store.NewStatsStore(db), store.NewNotificationStore(db), env.Places, true)

	r := chi.NewRouter()
	r.Use(middleware.LoadSession(env.Sessions))
	r.Use(middleware.InvalidateOnWrite(env.Cache))

	r.Get("/health", platform.Health)
	r.Get("/stats", platform.Stats)
	r.Post("/auth/register", auth.Register)
	r.Post("/auth/login", auth.Login)
	r.Post("/auth/logout", auth.Logout)
	r.Get("/categories", catalog.Categories)
	r.Get("/categories/{slug}", catalog.Category)
	r.Get("/providers", catalog.Providers)
	r.Post("/providers", catalog.Register)
	r.Get("/providers/{id}", catalog.Provider)
	r.Get("/providers/{id}/claim", claims.Check)
	r.Post("/payments/webhook", pay.Webhook)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/auth/me", auth.Me)
		r.Get("/auth/2fa/setup", auth.TwoFASetup)
		r.Post("/auth/2fa/verify", auth.TwoFAVerify)
		r.Patch("/providers/{id}", catalog.OwnerUpdate)
		r.Post("/providers/{id}/claim", claims.Claim)
		r.Post("/providers/{id}/reviews", reviews.Create)
		r.Post("/reviews/{id}/reply", reviews.Reply)
		r.Post("/payments/checkout", pay.Checkout)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireAdmin)
		r.Get("/providers", adminProviders.List)
		r.Post("/providers", adminProviders.Create)
		r.Patch("/providers/{id}", adminProviders.Update)
		r.Delete("/providers/{id}", adminProviders.Delete)
		r.Post("/providers/{id}/move-up", adminProviders.MoveUp)
		r.Post("/providers/{id}/move-down", adminProviders.MoveDown)
		r.Post("/providers/{id}/claim-link", claims.IssueLink)
		r.Post("/providers/{id}/images", adminProviders.UploadImage)
		r.Delete("/providers/{id}/images/{imageId}", adminProviders.DeleteImage)
		r.Get("/categories", adminCategories.List)
		r.Post("/categories", adminCategories.Create)
		r.Patch("/categories/{id}", adminCategories.Update)
		r.Delete("/categories/{id}", adminCategories.Delete)
		r.Get("/reviews", reviews.AdminList)
		r.Patch("/reviews/{id}/status", reviews.SetStatus)
		r.Delete("/reviews/{id}", reviews.Delete)
		r.Get("/notifications", platform.Notifications)
		r.Post("/notifications/{id}/read", platform.MarkNotificationRead)
		r.Get("/places", platform.SearchPlaces)
		r.Post("/users/{id}/reset-2fa", auth.ResetTwoFA)
	})

	env.Router = r
	return env
}

func (env *testEnv) cleanup() {
	for _, id := range env.providerIDs {
		for _, q := range []string{
			"DELETE FROM review_replies WHERE review_id IN (SELECT id FROM reviews WHERE provider_id = $1)",
			"DELETE FROM reviews WHERE provider_id = $1",
			"DELETE FROM services WHERE provider_id = $1",
			"DELETE FROM provider_images WHERE provider_id = $1",
			"DELETE FROM claim_invitations WHERE provider_id = $1",
			"DELETE FROM bookings WHERE provider_id = $1",
			"DELETE FROM notifications WHERE provider_id = $1",
			"DELETE FROM payments WHERE provider_id = $1",
			"DELETE FROM providers WHERE id = $1",
		} {
			env.DB.Exec(q, id)
		}
	}
	for i := len(env.categoryIDs) - 1; i >= 0; i-- {
		env.DB.Exec("DELETE FROM services WHERE category_id = $1", env.categoryIDs[i])
		env.DB.Exec("DELETE FROM categories WHERE id = $1", env.categoryIDs[i])
	}
	for _, email := range env.emails {
		env.DB.Exec("DELETE FROM notifications WHERE user_id IN (SELECT id FROM users WHERE email = $1)", email)
		env.DB.Exec("DELETE FROM payments WHERE user_id IN (SELECT id FROM users WHERE email = $1)", email)
		env.DB.Exec("DELETE FROM reviews WHERE user_id IN (SELECT id FROM users WHERE email = $1)", email)
		env.DB.Exec("DELETE FROM users WHERE email = $1", email)
	}
}

// uniq returns a short suffix that keeps fixture emails and names apart
// across runs.
func uniq() string {
	return uuid.NewString()[:8]
}

// trackEmail registers a user email for cleanup.
func (env *testEnv) trackEmail(email string) string {
	env.emails = append(env.emails, email)
	return email
}

// trackProvider registers a provider for cleanup.
func (env *testEnv) trackProvider(id uuid.UUID) {
	env.providerIDs = append(env.providerIDs, id)
}

// trackCategory registers a category for cleanup. Parents must be tracked
// before their children.
func (env *testEnv) trackCategory(id uuid.UUID) {
	env.categoryIDs = append(env.categoryIDs, id)
}

// createUser inserts a user with the given role.
func (env *testEnv) createUser(t *testing.T, role models.Role) *models.User {
	t.Helper()
	email := env.trackEmail("user-" + uniq() + "@handler-test.local")
	u, err := env.Users.Create(context.Background(), email, "password-"+uniq(), "Test User", role)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

// loginAs creates a session for user and returns its cookie. twoFADone
// marks the TOTP step as passed.
func (env *testEnv) loginAs(t *testing.T, user *models.User, twoFADone bool) *http.Cookie {
	t.Helper()
	w := httptest.NewRecorder()
	_, err := env.Sessions.Create(context.Background(), w, &session.Data{
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		TwoFADone: twoFADone,
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

// adminCookie returns a cookie for a fresh admin that passed 2FA.
func (env *testEnv) adminCookie(t *testing.T) *http.Cookie {
	t.Helper()
	return env.loginAs(t, env.createUser(t, models.RoleAdmin), true)
}

// createProvider inserts an unclaimed active provider.
func (env *testEnv) createProvider(t *testing.T, name string) *models.Provider {
	t.Helper()
	p, err := env.Providers.AdminCreate(context.Background(), store.NewProvider{
		BusinessName: name,
		Phone:        "904-555-0100",
		Email:        env.trackEmail("biz-" + uniq() + "@handler-test.local"),
		City:         "Jacksonville",
		State:        "FL",
		IsActive:     true,
	})
	if err != nil {
		t.Fatalf("create provider: %v", err)
	}
	env.trackProvider(p.ID)
	return p
}

// createCategory inserts an active primary category.
func (env *testEnv) createCategory(t *testing.T, name string) *models.Category {
	t.Helper()
	c, err := env.Categories.Create(context.Background(), &models.Category{
		Name:     name,
		Level:    models.LevelPrimary,
		IsActive: true,
	})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	env.trackCategory(c.ID)
	return c
}

// do sends a request through the router. body is JSON-encoded unless it
// is nil or already a []byte.
func (env *testEnv) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		if c != nil {
			req.AddCookie(c)
		}
	}

	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	return w
}

// decode unmarshals a JSON response body into a generic map.
func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

// expectStatus fails the test when the response code differs.
func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, want, w.Body.String())
	}
}

// sessionCookie extracts the session cookie set on a response.
func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	return nil
}

// bytesReader wraps a string body for raw requests.
func bytesReader(s string) io.Reader {
	return strings.NewReader(s)
}
