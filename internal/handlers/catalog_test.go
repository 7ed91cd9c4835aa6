// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"

	"homepros/internal/models"
)

func TestRegisterProviderAndFetchDetail(t *testing.T) {
	env := newTestEnv(t)
	cat := env.createCategory(t, "Gutters "+uniq())

	email := env.trackEmail("owner-" + uniq() + "@handler-test.local")
	w := env.do(t, "POST", "/providers", map[string]any{
		"businessName": "First Coast Gutters " + uniq(),
		"phone":        "904-555-0111",
		"email":        strings.ToUpper(email),
		"ownerName":    "Pat Rivera",
		"services": []map[string]string{
			{"categoryId": cat.ID.String(), "description": "Seamless gutters"},
			{"categoryId": cat.ID.String(), "description": "duplicate"},
		},
		"images": []map[string]string{{"url": "https://img.example.com/a.jpg"}},
	})
	expectStatus(t, w, http.StatusCreated)

	body := decode(t, w)
	if body["status"] != "success" {
		t.Errorf("status field = %v", body["status"])
	}
	created := body["provider"].(map[string]any)
	id := uuid.MustParse(created["id"].(string))
	env.trackProvider(id)
	slug := created["slug"].(string)

	// Detail by slug and by ID.
	for _, key := range []string{slug, id.String()} {
		w = env.do(t, "GET", "/providers/"+key, nil)
		expectStatus(t, w, http.StatusOK)
		p := decode(t, w)["provider"].(map[string]any)
		if p["city"] != "Jacksonville" || p["state"] != "FL" {
			t.Errorf("location defaults = %v, %v", p["city"], p["state"])
		}
		if p["email"] != email {
			t.Errorf("email should be lowercased, got %v", p["email"])
		}
		if p["ownerUserId"] == nil {
			t.Error("self-registered provider should have an owner")
		}
		if services := p["services"].([]any); len(services) != 1 {
			t.Errorf("duplicate services should collapse, got %d", len(services))
		}
		if p["image"] != "https://img.example.com/a.jpg" {
			t.Errorf("primary image = %v", p["image"])
		}
	}

	// The category listing includes it.
	w = env.do(t, "GET", "/providers?category="+cat.Slug, nil)
	expectStatus(t, w, http.StatusOK)
	if list := decode(t, w)["providers"].([]any); len(list) != 1 {
		t.Errorf("category filter returned %d providers, want 1", len(list))
	}

	// The same owner cannot register a second provider.
	w = env.do(t, "POST", "/providers", map[string]any{
		"businessName": "Second Business " + uniq(),
		"phone":        "904-555-0112",
		"email":        email,
	})
	expectStatus(t, w, http.StatusConflict)
}

func TestRegisterProviderValidation(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "POST", "/providers", map[string]any{"businessName": "No Contact"})
	expectStatus(t, w, http.StatusBadRequest)
	if got := decode(t, w)["error"]; got != "Business name, phone, and email are required" {
		t.Errorf("error = %v", got)
	}

	w = env.do(t, "POST", "/providers", nil)
	expectStatus(t, w, http.StatusBadRequest)
	if got := decode(t, w)["error"]; got != "request body is required" {
		t.Errorf("error = %v", got)
	}
}

func TestRegisteredOwnerCanSignIn(t *testing.T) {
	env := newTestEnv(t)
	email := env.trackEmail("owner-" + uniq() + "@handler-test.local")

	w := env.do(t, "POST", "/providers", map[string]any{
		"businessName": "Riverside Roofing " + uniq(),
		"phone":        "904-555-0113",
		"email":        email,
		"ownerName":    "Jo Alvarez",
		"password":     "short",
	})
	expectStatus(t, w, http.StatusBadRequest)

	w = env.do(t, "POST", "/providers", map[string]any{
		"businessName": "Riverside Roofing " + uniq(),
		"phone":        "904-555-0113",
		"email":        email,
		"ownerName":    "Jo Alvarez",
		"password":     "shingles-and-tar",
	})
	expectStatus(t, w, http.StatusCreated)
	id := decode(t, w)["provider"].(map[string]any)["id"].(string)
	env.trackProvider(uuid.MustParse(id))

	w = env.do(t, "POST", "/auth/login", map[string]any{"email": email, "password": "shingles-and-tar"})
	expectStatus(t, w, http.StatusOK)
	if role := decode(t, w)["user"].(map[string]any)["role"]; role != "PROVIDER" {
		t.Errorf("role = %v, want PROVIDER", role)
	}
	cookie := sessionCookie(w)
	if cookie == nil {
		t.Fatal("login should set a session cookie")
	}

	w = env.do(t, "PATCH", "/providers/"+id, map[string]any{"description": "Metal and shingle roofs"}, cookie)
	expectStatus(t, w, http.StatusOK)
	if got := decode(t, w)["provider"].(map[string]any)["description"]; got != "Metal and shingle roofs" {
		t.Errorf("description = %v", got)
	}
}

func TestProviderDetailHidesInactive(t *testing.T) {
	env := newTestEnv(t)
	p := env.createProvider(t, "Dormant Pools "+uniq())

	w := env.do(t, "PATCH", "/admin/providers/"+p.ID.String(), map[string]any{"isActive": false}, env.adminCookie(t))
	expectStatus(t, w, http.StatusOK)

	w = env.do(t, "GET", "/providers/"+p.Slug, nil)
	expectStatus(t, w, http.StatusNotFound)

	w = env.do(t, "GET", "/providers/"+p.Slug, nil, env.adminCookie(t))
	expectStatus(t, w, http.StatusOK)
}

func TestOwnerUpdate(t *testing.T) {
	env := newTestEnv(t)
	p := env.createProvider(t, "Owner Edit Co "+uniq())

	owner := env.createUser(t, models.RoleUser)
	_, err := env.DB.Exec("UPDATE providers SET owner_user_id = $1, claimed_at = now() WHERE id = $2", owner.ID, p.ID)
	if err != nil {
		t.Fatalf("assign owner: %v", err)
	}
	ownerCookie := env.loginAs(t, owner, false)

	w := env.do(t, "PATCH", "/providers/"+p.ID.String(), map[string]any{
		"description": "Family owned since 1987",
		"isVerified":  true,
		"isPremium":   true,
	}, ownerCookie)
	expectStatus(t, w, http.StatusOK)

	updated := decode(t, w)["provider"].(map[string]any)
	if updated["description"] != "Family owned since 1987" {
		t.Errorf("description = %v", updated["description"])
	}
	if updated["isVerified"] != false || updated["isPremium"] != false {
		t.Error("owners must not be able to set admin-only flags")
	}

	stranger := env.loginAs(t, env.createUser(t, models.RoleUser), false)
	w = env.do(t, "PATCH", "/providers/"+p.ID.String(), map[string]any{"description": "hijack"}, stranger)
	expectStatus(t, w, http.StatusForbidden)

	w = env.do(t, "PATCH", "/providers/"+p.ID.String(), map[string]any{"description": "anon"})
	expectStatus(t, w, http.StatusUnauthorized)
}

func TestCategoriesResponseCache(t *testing.T) {
	env := newTestEnv(t)
	env.Cache.InvalidateAll(context.Background())

	w := env.do(t, "GET", "/categories", nil)
	expectStatus(t, w, http.StatusOK)
	if got := w.Header().Get("X-Cache"); got != "MISS" {
		t.Errorf("first X-Cache = %q, want MISS", got)
	}

	w = env.do(t, "GET", "/categories", nil)
	expectStatus(t, w, http.StatusOK)
	if got := w.Header().Get("X-Cache"); got != "HIT" {
		t.Errorf("second X-Cache = %q, want HIT", got)
	}

	// Any successful write clears the cache.
	w = env.do(t, "POST", "/admin/categories", map[string]any{"name": "Pest Control " + uniq()}, env.adminCookie(t))
	expectStatus(t, w, http.StatusCreated)
	created := decode(t, w)["category"].(map[string]any)
	env.trackCategory(uuid.MustParse(created["id"].(string)))

	w = env.do(t, "GET", "/categories", nil)
	if got := w.Header().Get("X-Cache"); got != "MISS" {
		t.Errorf("X-Cache after write = %q, want MISS", got)
	}
	if !strings.Contains(w.Body.String(), created["slug"].(string)) {
		t.Error("fresh listing should contain the new category")
	}
}

func TestCategoryWithProviders(t *testing.T) {
	env := newTestEnv(t)
	cat := env.createCategory(t, "Fencing "+uniq())

	w := env.do(t, "GET", "/categories/"+cat.Slug+"?providers=true", nil)
	expectStatus(t, w, http.StatusOK)
	body := decode(t, w)
	if body["category"].(map[string]any)["slug"] != cat.Slug {
		t.Errorf("category = %v", body["category"])
	}
	if _, ok := body["providers"]; !ok {
		t.Error("providers should be included when requested")
	}

	w = env.do(t, "GET", "/categories/no-such-category-"+uniq(), nil)
	expectStatus(t, w, http.StatusNotFound)
}
