// store_test.go provides shared test database helpers for all store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"homepros/internal/database"
	"homepros/internal/models"
)

const testTxTimeout = 5 * time.Second

// testDSN returns the PostgreSQL connection string for testing.
// Uses environment variables with defaults matching docker-compose.yml.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "homepros")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "homepros")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped. A cleanup
// function is registered to close the connection when the test finishes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("pgx", testDSN())
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	// Downgrade goose global state.
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// uniq returns a short suffix that keeps fixture slugs and emails from
// colliding across runs and parallel packages.
func uniq() string {
	return uuid.NewString()[:8]
}

// cleanUsers removes test users by email. Call in t.Cleanup().
func cleanUsers(t *testing.T, db *sql.DB, emails ...string) {
	t.Helper()
	for _, email := range emails {
		db.Exec("DELETE FROM notifications WHERE user_id IN (SELECT id FROM users WHERE email = $1)", email)
		db.Exec("DELETE FROM payments WHERE user_id IN (SELECT id FROM users WHERE email = $1)", email)
		db.Exec("DELETE FROM users WHERE email = $1", email)
	}
}

// cleanProviders removes providers and everything hanging off them.
func cleanProviders(t *testing.T, db *sql.DB, ids ...uuid.UUID) {
	t.Helper()
	for _, id := range ids {
		for _, q := range []string{
			"DELETE FROM reviews WHERE provider_id = $1",
			"DELETE FROM services WHERE provider_id = $1",
			"DELETE FROM provider_images WHERE provider_id = $1",
			"DELETE FROM claim_invitations WHERE provider_id = $1",
			"DELETE FROM bookings WHERE provider_id = $1",
			"DELETE FROM notifications WHERE provider_id = $1",
			"DELETE FROM payments WHERE provider_id = $1",
			"DELETE FROM providers WHERE id = $1",
		} {
			db.Exec(q, id)
		}
	}
}

// cleanCategories removes categories by ID, children first.
func cleanCategories(t *testing.T, db *sql.DB, ids ...uuid.UUID) {
	t.Helper()
	for i := len(ids) - 1; i >= 0; i-- {
		db.Exec("DELETE FROM services WHERE category_id = $1", ids[i])
		db.Exec("DELETE FROM categories WHERE id = $1", ids[i])
	}
}

// mustUser creates a user and registers its cleanup.
func mustUser(t *testing.T, db *sql.DB, role models.Role) *models.User {
	t.Helper()
	email := "user-" + uniq() + "@store-test.local"
	u, err := NewUserStore(db).Create(context.Background(), email, "pass-"+uniq(), "Test User", role)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	t.Cleanup(func() { cleanUsers(t, db, email) })
	return u
}

// mustCategory creates a category and registers its cleanup.
func mustCategory(t *testing.T, db *sql.DB, name string, level models.CategoryLevel, parent *uuid.UUID) *models.Category {
	t.Helper()
	c, err := NewCategoryStore(db, testTxTimeout).Create(context.Background(), &models.Category{
		Name:     name,
		Slug:     "test-" + uniq(),
		Level:    level,
		ParentID: parent,
		IsActive: true,
	})
	if err != nil {
		t.Fatalf("create category %s: %v", name, err)
	}
	t.Cleanup(func() { cleanCategories(t, db, c.ID) })
	return c
}

// mustProvider creates an active, unclaimed provider and registers its cleanup.
func mustProvider(t *testing.T, db *sql.DB, name string, services ...uuid.UUID) *models.Provider {
	t.Helper()
	in := NewProvider{BusinessName: name, Phone: "904-555-0100", IsActive: true}
	for _, id := range services {
		in.Services = append(in.Services, ServiceInput{CategoryID: id})
	}
	p, err := NewProviderStore(db, testTxTimeout).AdminCreate(context.Background(), in)
	if err != nil {
		t.Fatalf("create provider %s: %v", name, err)
	}
	t.Cleanup(func() { cleanProviders(t, db, p.ID) })
	return p
}

func TestNewPage(t *testing.T) {
	tests := []struct {
		page, perPage         int
		wantPage, wantPerPage int
		wantOffset            int
	}{
		{0, 0, 1, DefaultPerPage, 0},
		{3, 10, 3, 10, 20},
		{-1, 500, 1, MaxPerPage, 0},
	}
	for _, tt := range tests {
		p := NewPage(tt.page, tt.perPage)
		if p.Page != tt.wantPage || p.PerPage != tt.wantPerPage || p.Offset() != tt.wantOffset {
			t.Errorf("NewPage(%d, %d) = %+v offset %d", tt.page, tt.perPage, p, p.Offset())
		}
	}

	if got := NewPage(1, 20).withTotal(41); got.TotalPages != 3 || got.Total != 41 {
		t.Errorf("withTotal(41) = %+v, want 3 pages", got)
	}
	if got := NewPage(1, 20).withTotal(0); got.TotalPages != 0 {
		t.Errorf("withTotal(0) pages = %d, want 0", got.TotalPages)
	}
}

func TestLikePattern(t *testing.T) {
	tests := map[string]string{
		"plumb":   "%plumb%",
		"100%":    `%100\%%`,
		"a_b":     `%a\_b%`,
		`back\sl`: `%back\\sl%`,
	}
	for in, want := range tests {
		if got := likePattern(in); got != want {
			t.Errorf("likePattern(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRandomToken(t *testing.T) {
	a, err := randomToken(32)
	if err != nil {
		t.Fatalf("randomToken: %v", err)
	}
	b, _ := randomToken(32)
	if len(a) != 64 {
		t.Errorf("token length = %d, want 64 hex chars", len(a))
	}
	if a == b {
		t.Error("two tokens should differ")
	}
}
