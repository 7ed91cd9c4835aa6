// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"homepros/internal/apperr"
	"homepros/internal/cache"
	"homepros/internal/middleware"
	"homepros/internal/models"
	"homepros/internal/store"
)

// maxProviderLimit caps the ?limit= of public provider listings.
const maxProviderLimit = 100

// Catalog serves the public category and provider listings.
type Catalog struct {
	responder
	categories *store.CategoryStore
	providers  *store.ProviderStore
	cache      *cache.ResponseCache // nil disables response caching
}

// NewCatalog creates the public catalog handler group.
func NewCatalog(categories *store.CategoryStore, providers *store.ProviderStore, rc *cache.ResponseCache, showDetails bool) *Catalog {
	return &Catalog{
		responder:  responder{showDetails: showDetails},
		categories: categories,
		providers:  providers,
		cache:      rc,
	}
}

// isAdmin reports whether the request carries a verified admin session.
func isAdmin(r *http.Request) bool {
	sess := middleware.SessionFromCtx(r.Context())
	return sess != nil && sess.IsAdmin()
}

// Categories handles GET /categories. Inactive categories are only
// included for admins asking for them.
func (c *Catalog) Categories(w http.ResponseWriter, r *http.Request) {
	includeInactive := isAdmin(r) && boolOr(queryBool(r, "includeInactive"), false)

	if !includeInactive && c.cache != nil {
		if body, ok := c.cache.Get(r.Context(), cache.CategoriesKey()); ok {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.Header().Set("X-Cache", "HIT")
			w.WriteHeader(http.StatusOK)
			w.Write(body)
			return
		}
	}

	tree, err := c.categories.Tree(r.Context(), includeInactive)
	if err != nil {
		c.fail(w, r, "fetch categories", err)
		return
	}

	env := envelope{"status": "success", "categories": tree}
	if includeInactive || c.cache == nil {
		writeJSON(w, http.StatusOK, env)
		return
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(env); err != nil {
		c.fail(w, r, "fetch categories", err)
		return
	}
	c.cache.Set(r.Context(), cache.CategoriesKey(), buf.Bytes())

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Cache", "MISS")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// Category handles GET /categories/{slug}. With ?providers=true the
// providers offering a service in the category (or its direct children)
// are included.
func (c *Catalog) Category(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	admin := isAdmin(r)

	cat, err := c.categories.FindBySlug(r.Context(), slug, admin)
	if err != nil {
		c.fail(w, r, "fetch category", err)
		return
	}
	if cat == nil {
		c.fail(w, r, "fetch category", apperr.NotFound("category"))
		return
	}

	env := envelope{"category": cat}
	if boolOr(queryBool(r, "providers"), false) {
		providers, err := c.providers.List(r.Context(), store.ProviderFilter{
			CategorySlug:    cat.Slug,
			IncludeInactive: false,
			Sort:            parseSort(r.URL.Query().Get("sort")),
		})
		if err != nil {
			c.fail(w, r, "fetch category providers", err)
			return
		}
		env["providers"] = providers
	}
	c.ok(w, http.StatusOK, env)
}

// Providers handles GET /providers?category=&verified=&featured=&sort=&limit=.
func (c *Catalog) Providers(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 0)
	if limit < 0 {
		limit = 0
	}
	if limit > maxProviderLimit {
		limit = maxProviderLimit
	}

	filter := store.ProviderFilter{
		CategorySlug:    strings.TrimSpace(r.URL.Query().Get("category")),
		Verified:        queryBool(r, "verified"),
		Featured:        queryBool(r, "featured"),
		IncludeInactive: isAdmin(r) && boolOr(queryBool(r, "includeInactive"), false),
		Sort:            parseSort(r.URL.Query().Get("sort")),
		Limit:           limit,
	}

	providers, err := c.providers.List(r.Context(), filter)
	if err != nil {
		c.fail(w, r, "fetch providers", err)
		return
	}
	c.ok(w, http.StatusOK, envelope{"providers": providers})
}

// Provider handles GET /providers/{id} and includes approved
// reviews with their replies.
func (c *Catalog) Provider(w http.ResponseWriter, r *http.Request) {
	p, err := c.providers.FindDetail(r.Context(), chi.URLParam(r, "id"), isAdmin(r))
	if err != nil {
		c.fail(w, r, "fetch provider", err)
		return
	}
	if p == nil {
		c.fail(w, r, "fetch provider", apperr.NotFound("provider"))
		return
	}
	c.ok(w, http.StatusOK, envelope{"provider": p})
}

// serviceBody is one entry of a provider create request's services.
type serviceBody struct {
	CategoryID  string `json:"categoryId"`
	Description string `json:"description"`
}

// imageBody is one entry of a provider create request's images.
type imageBody struct {
	URL  string `json:"url"`
	Type string `json:"type"`
}

// providerBody is the request body for creating a provider.
type providerBody struct {
	BusinessName string        `json:"businessName"`
	Phone        string        `json:"phone"`
	Email        string        `json:"email"`
	OwnerName    string        `json:"ownerName"`
	Password     string        `json:"password"`
	Description  string        `json:"description"`
	Address      string        `json:"address"`
	City         string        `json:"city"`
	State        string        `json:"state"`
	Zip          string        `json:"zip"`
	Website      *string       `json:"website"`
	IsActive     *bool         `json:"isActive"`
	Services     []serviceBody `json:"services"`
	Images       []imageBody   `json:"images"`
}

// toNewProvider validates b and converts it to store input.
func (b providerBody) toNewProvider() (store.NewProvider, error) {
	if msg := validateProvider(b.BusinessName, b.Phone, b.Email, b.Description); msg != "" {
		return store.NewProvider{}, apperr.Validation(msg)
	}

	in := store.NewProvider{
		BusinessName: b.BusinessName,
		Phone:        strings.TrimSpace(b.Phone),
		Email:        b.Email,
		OwnerName:    strings.TrimSpace(b.OwnerName),
		Description:  strings.TrimSpace(b.Description),
		Address:      strings.TrimSpace(b.Address),
		City:         strings.TrimSpace(b.City),
		State:        strings.TrimSpace(b.State),
		Zip:          strings.TrimSpace(b.Zip),
		Website:      b.Website,
		IsActive:     boolOr(b.IsActive, true),
	}
	if in.City == "" {
		in.City = "Jacksonville"
	}
	if in.State == "" {
		in.State = "FL"
	}

	seen := map[string]bool{}
	for _, s := range b.Services {
		id, err := parseUUID(s.CategoryID, "categoryId")
		if err != nil {
			return store.NewProvider{}, err
		}
		if seen[id.String()] {
			continue
		}
		seen[id.String()] = true
		in.Services = append(in.Services, store.ServiceInput{
			CategoryID:  id,
			Description: strings.TrimSpace(s.Description),
		})
	}

	for _, img := range b.Images {
		url := strings.TrimSpace(img.URL)
		if url == "" {
			return store.NewProvider{}, apperr.Validation("image url is required")
		}
		typ := models.ImageType(strings.ToUpper(strings.TrimSpace(img.Type)))
		if typ == "" {
			typ = models.ImageGallery
		}
		if !typ.Valid() {
			return store.NewProvider{}, apperr.Validation("image type must be PROFILE, GALLERY or COVER")
		}
		in.Images = append(in.Images, store.ImageInput{URL: url, Type: typ})
	}
	return in, nil
}

// Register handles POST /providers. The business email identifies the
// owning account, which is created with the optional password when it does
// not exist yet.
func (c *Catalog) Register(w http.ResponseWriter, r *http.Request) {
	var body providerBody
	if err := decodeJSON(r, &body); err != nil {
		c.fail(w, r, "create provider", err)
		return
	}
	in, err := body.toNewProvider()
	if err != nil {
		c.fail(w, r, "create provider", err)
		return
	}
	if msg := validateOwnerPassword(body.Password); msg != "" {
		c.fail(w, r, "create provider", apperr.Validation(msg))
		return
	}
	in.Password = body.Password

	p, err := c.providers.Register(r.Context(), in)
	if err != nil {
		c.fail(w, r, "create provider", err)
		return
	}

	slog.Info("provider registered", "provider_id", p.ID, "slug", p.Slug)
	c.ok(w, http.StatusCreated, envelope{"provider": envelope{
		"id":           p.ID,
		"businessName": p.BusinessName,
		"slug":         p.Slug,
	}})
}

// OwnerUpdate handles PATCH /providers/{id} for the provider's owner.
// Only content and contact fields are accepted; anything else is ignored.
func (c *Catalog) OwnerUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		c.fail(w, r, "update provider", err)
		return
	}
	sess := middleware.SessionFromCtx(r.Context())

	p, err := c.providers.FindByID(r.Context(), id)
	if err != nil {
		c.fail(w, r, "update provider", err)
		return
	}
	if p == nil {
		c.fail(w, r, "update provider", apperr.NotFound("provider"))
		return
	}
	if !sess.IsAdmin() && (p.OwnerUserID == nil || *p.OwnerUserID != sess.UserID) {
		c.fail(w, r, "update provider", apperr.Forbidden("only the provider owner can edit this listing"))
		return
	}

	var raw map[string]json.RawMessage
	if err := decodeJSON(r, &raw); err != nil {
		c.fail(w, r, "update provider", err)
		return
	}
	patch, err := buildPatch(raw, ownerPatchFields)
	if err != nil {
		c.fail(w, r, "update provider", err)
		return
	}

	updated, err := c.providers.Update(r.Context(), id, patch)
	if err != nil {
		c.fail(w, r, "update provider", err)
		return
	}
	c.ok(w, http.StatusOK, envelope{"provider": updated})
}

// parseSort maps the ?sort= parameter to a provider ordering.
func parseSort(s string) store.ProviderSort {
	switch store.ProviderSort(strings.ToLower(strings.TrimSpace(s))) {
	case store.SortRating:
		return store.SortRating
	case store.SortFeatured:
		return store.SortFeatured
	}
	return store.SortDefault
}

func boolOr(b *bool, fallback bool) bool {
	if b == nil {
		return fallback
	}
	return *b
}
