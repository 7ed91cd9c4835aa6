// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"homepros/internal/apperr"
	"homepros/internal/models"
	"homepros/internal/storage"
	"homepros/internal/store"
)

// maxUploadSize limits provider image uploads to 10 MB.
const maxUploadSize = 10 << 20

// ImageStorage stores provider image objects.
type ImageStorage interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	Delete(ctx context.Context, key string) error
	FileURL(key string) string
}

// AdminProviders groups the admin provider management handlers.
type AdminProviders struct {
	responder
	providers *store.ProviderStore
	storage   ImageStorage // nil when S3 is not configured
}

// NewAdminProviders creates the admin provider handler group.
func NewAdminProviders(providers *store.ProviderStore, images ImageStorage, showDetails bool) *AdminProviders {
	return &AdminProviders{
		responder: responder{showDetails: showDetails},
		providers: providers,
		storage:   images,
	}
}

// List handles GET /admin/providers?search=&page=&perPage=.
func (a *AdminProviders) List(w http.ResponseWriter, r *http.Request) {
	providers, page, err := a.providers.AdminList(r.Context(), store.AdminQuery{
		Search: strings.TrimSpace(r.URL.Query().Get("search")),
		Page:   store.NewPage(queryInt(r, "page", 1), queryInt(r, "perPage", store.DefaultPerPage)),
	})
	if err != nil {
		a.fail(w, r, "fetch providers", err)
		return
	}
	a.ok(w, http.StatusOK, envelope{"providers": providers, "pagination": page})
}

// Create handles POST /admin/providers. The provider starts unclaimed.
func (a *AdminProviders) Create(w http.ResponseWriter, r *http.Request) {
	var body providerBody
	if err := decodeJSON(r, &body); err != nil {
		a.fail(w, r, "create provider", err)
		return
	}
	in, err := body.toNewProvider()
	if err != nil {
		a.fail(w, r, "create provider", err)
		return
	}

	p, err := a.providers.AdminCreate(r.Context(), in)
	if err != nil {
		a.fail(w, r, "create provider", err)
		return
	}
	slog.Info("provider created by admin", "provider_id", p.ID, "slug", p.Slug)
	a.ok(w, http.StatusCreated, envelope{"provider": p})
}

// Update handles PATCH /admin/providers/{id}. Only allow-listed fields are
// applied; ownership and slug never change here.
func (a *AdminProviders) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		a.fail(w, r, "update provider", err)
		return
	}
	var raw map[string]json.RawMessage
	if err := decodeJSON(r, &raw); err != nil {
		a.fail(w, r, "update provider", err)
		return
	}
	patch, err := buildPatch(raw, adminPatchFields)
	if err != nil {
		a.fail(w, r, "update provider", err)
		return
	}

	p, err := a.providers.Update(r.Context(), id, patch)
	if err != nil {
		a.fail(w, r, "update provider", err)
		return
	}
	a.ok(w, http.StatusOK, envelope{"provider": p})
}

// Delete handles DELETE /admin/providers/{id}. Rows go in one transaction;
// stored image objects are removed afterwards.
func (a *AdminProviders) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		a.fail(w, r, "delete provider", err)
		return
	}

	keys, err := a.providers.Delete(r.Context(), id)
	if err != nil {
		a.fail(w, r, "delete provider", err)
		return
	}
	a.deleteObjects(r.Context(), keys)

	slog.Info("provider deleted", "provider_id", id, "images", len(keys))
	a.ok(w, http.StatusOK, envelope{"message": "Provider deleted"})
}

// MoveUp handles POST /admin/providers/{id}/move-up.
func (a *AdminProviders) MoveUp(w http.ResponseWriter, r *http.Request) {
	a.move(w, r, true)
}

// MoveDown handles POST /admin/providers/{id}/move-down.
func (a *AdminProviders) MoveDown(w http.ResponseWriter, r *http.Request) {
	a.move(w, r, false)
}

func (a *AdminProviders) move(w http.ResponseWriter, r *http.Request, up bool) {
	id, err := uuidParam(r, "id")
	if err != nil {
		a.fail(w, r, "reorder provider", err)
		return
	}
	if up {
		err = a.providers.MoveUp(r.Context(), id)
	} else {
		err = a.providers.MoveDown(r.Context(), id)
	}
	if err != nil {
		a.fail(w, r, "reorder provider", err)
		return
	}
	a.ok(w, http.StatusOK, envelope{"message": "Provider reordered"})
}

// UploadImage handles POST /admin/providers/{id}/images. A multipart
// "file" is uploaded to object storage; a plain "url" field records an
// externally hosted image instead.
func (a *AdminProviders) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		a.fail(w, r, "upload image", err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+1024)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		a.fail(w, r, "upload image", apperr.Validation("file too large or invalid form (max 10 MB)"))
		return
	}

	typ := models.ImageType(strings.ToUpper(strings.TrimSpace(r.FormValue("type"))))
	if typ == "" {
		typ = models.ImageGallery
	}
	if !typ.Valid() {
		a.fail(w, r, "upload image", apperr.Validation("image type must be PROFILE, GALLERY or COVER"))
		return
	}

	p, err := a.providers.FindByID(r.Context(), id)
	if err != nil {
		a.fail(w, r, "upload image", err)
		return
	}
	if p == nil {
		a.fail(w, r, "upload image", apperr.NotFound("provider"))
		return
	}

	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		url := strings.TrimSpace(r.FormValue("url"))
		if url == "" {
			a.fail(w, r, "upload image", apperr.Validation("a file or url is required"))
			return
		}
		img, err := a.providers.AddImage(r.Context(), id, store.ImageInput{URL: url, Type: typ})
		if err != nil {
			a.fail(w, r, "upload image", err)
			return
		}
		a.ok(w, http.StatusCreated, envelope{"image": img})
		return
	}
	if err != nil {
		a.fail(w, r, "upload image", apperr.Validation("invalid file upload"))
		return
	}
	defer file.Close()

	if a.storage == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "Image storage is not configured"})
		return
	}

	contentType := header.Header.Get("Content-Type")
	key, err := storage.ImageKey(id, contentType)
	if err != nil {
		a.fail(w, r, "upload image", apperr.Validation("only JPEG, PNG, WebP and GIF images are allowed"))
		return
	}

	if err := a.storage.Upload(r.Context(), key, contentType, file, header.Size); err != nil {
		a.fail(w, r, "upload image", err)
		return
	}

	img, err := a.providers.AddImage(r.Context(), id, store.ImageInput{
		URL:   a.storage.FileURL(key),
		Type:  typ,
		S3Key: &key,
	})
	if err != nil {
		a.deleteObjects(context.WithoutCancel(r.Context()), []string{key})
		a.fail(w, r, "upload image", err)
		return
	}

	slog.Info("provider image uploaded", "provider_id", id, "key", key, "size", header.Size)
	a.ok(w, http.StatusCreated, envelope{"image": img})
}

// DeleteImage handles DELETE /admin/providers/{id}/images/{imageId}.
func (a *AdminProviders) DeleteImage(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		a.fail(w, r, "delete image", err)
		return
	}
	imageID, err := uuidParam(r, "imageId")
	if err != nil {
		a.fail(w, r, "delete image", err)
		return
	}

	img, err := a.providers.DeleteImage(r.Context(), id, imageID)
	if err != nil {
		a.fail(w, r, "delete image", err)
		return
	}
	if img.S3Key != nil {
		a.deleteObjects(r.Context(), []string{*img.S3Key})
	}
	a.ok(w, http.StatusOK, envelope{"message": "Image deleted"})
}

// deleteObjects removes stored objects, logging failures. The database is
// the source of truth, so an orphaned object is not an error.
func (a *AdminProviders) deleteObjects(ctx context.Context, keys []string) {
	if a.storage == nil {
		return
	}
	for _, key := range keys {
		if err := a.storage.Delete(ctx, key); err != nil {
			slog.Warn("delete image object failed", "key", key, "error", err)
		}
	}
}
