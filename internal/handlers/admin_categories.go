// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"homepros/internal/apperr"
	"homepros/internal/models"
	"homepros/internal/slug"
	"homepros/internal/store"
)

// AdminCategories groups the admin category management handlers.
type AdminCategories struct {
	responder
	categories *store.CategoryStore
}

// NewAdminCategories creates the admin category handler group.
func NewAdminCategories(categories *store.CategoryStore, showDetails bool) *AdminCategories {
	return &AdminCategories{
		responder:  responder{showDetails: showDetails},
		categories: categories,
	}
}

// categoryBody is the request body for creating or updating a category.
// Pointer fields are optional on update.
type categoryBody struct {
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
	Icon        *string `json:"icon"`
	Level       *string `json:"level"`
	ParentID    *string `json:"parentId"`
	SortOrder   *int    `json:"sortOrder"`
	IsActive    *bool   `json:"isActive"`
}

// apply copies the provided fields onto c.
func (b categoryBody) apply(c *models.Category) error {
	if b.Name != nil {
		c.Name = strings.TrimSpace(*b.Name)
	}
	if b.Slug != nil {
		c.Slug = slug.Generate(*b.Slug)
		if c.Slug == "" {
			return apperr.Validation("slug must contain letters or digits")
		}
	}
	if b.Description != nil {
		c.Description = strings.TrimSpace(*b.Description)
	}
	if b.Icon != nil {
		c.Icon = strings.TrimSpace(*b.Icon)
	}
	if b.Level != nil {
		c.Level = models.CategoryLevel(strings.ToUpper(strings.TrimSpace(*b.Level)))
	}
	if b.ParentID != nil {
		if raw := strings.TrimSpace(*b.ParentID); raw == "" {
			c.ParentID = nil
		} else {
			id, err := uuid.Parse(raw)
			if err != nil {
				return apperr.Validation("invalid parentId")
			}
			c.ParentID = &id
		}
	}
	if b.SortOrder != nil {
		if *b.SortOrder < 0 {
			return apperr.Validation("sortOrder must be a non-negative integer")
		}
		c.SortOrder = *b.SortOrder
	}
	if b.IsActive != nil {
		c.IsActive = *b.IsActive
	}
	if msg := validateCategory(c.Name, c.Description); msg != "" {
		return apperr.Validation(msg)
	}
	return nil
}

// List handles GET /admin/categories. Inactive categories are included.
func (a *AdminCategories) List(w http.ResponseWriter, r *http.Request) {
	tree, err := a.categories.Tree(r.Context(), true)
	if err != nil {
		a.fail(w, r, "fetch categories", err)
		return
	}
	a.ok(w, http.StatusOK, envelope{"categories": tree})
}

// Create handles POST /admin/categories. The level defaults to PRIMARY
// for root categories and to one below the parent otherwise; the sort
// order defaults to the end of the sibling list.
func (a *AdminCategories) Create(w http.ResponseWriter, r *http.Request) {
	var body categoryBody
	if err := decodeJSON(r, &body); err != nil {
		a.fail(w, r, "create category", err)
		return
	}

	c := &models.Category{IsActive: true}
	if err := body.apply(c); err != nil {
		a.fail(w, r, "create category", err)
		return
	}

	if body.Level == nil {
		c.Level = models.LevelPrimary
		if c.ParentID != nil {
			parent, err := a.categories.FindByID(r.Context(), *c.ParentID)
			if err != nil {
				a.fail(w, r, "create category", err)
				return
			}
			if parent == nil {
				a.fail(w, r, "create category", apperr.NotFound("parent category"))
				return
			}
			c.Level = childLevelOf(parent.Level)
		}
	}
	if body.SortOrder == nil {
		next, err := a.categories.NextSortOrder(r.Context(), c.ParentID)
		if err != nil {
			a.fail(w, r, "create category", err)
			return
		}
		c.SortOrder = next
	}

	created, err := a.categories.Create(r.Context(), c)
	if err != nil {
		a.fail(w, r, "create category", err)
		return
	}
	a.ok(w, http.StatusCreated, envelope{"category": created})
}

// Update handles PATCH /admin/categories/{id}.
func (a *AdminCategories) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		a.fail(w, r, "update category", err)
		return
	}
	var body categoryBody
	if err := decodeJSON(r, &body); err != nil {
		a.fail(w, r, "update category", err)
		return
	}

	c, err := a.categories.FindByID(r.Context(), id)
	if err != nil {
		a.fail(w, r, "update category", err)
		return
	}
	if c == nil {
		a.fail(w, r, "update category", apperr.NotFound("category"))
		return
	}
	if err := body.apply(c); err != nil {
		a.fail(w, r, "update category", err)
		return
	}

	updated, err := a.categories.Update(r.Context(), c)
	if err != nil {
		a.fail(w, r, "update category", err)
		return
	}
	a.ok(w, http.StatusOK, envelope{"category": updated})
}

// Delete handles DELETE /admin/categories/{id}. Categories that still have
// services or children cannot be deleted.
func (a *AdminCategories) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		a.fail(w, r, "delete category", err)
		return
	}
	if err := a.categories.Delete(r.Context(), id); err != nil {
		a.fail(w, r, "delete category", err)
		return
	}
	a.ok(w, http.StatusOK, envelope{"message": "Category deleted"})
}

// childLevelOf returns the level one below l. TERTIARY has no child level,
// so the result fails validation in the store.
func childLevelOf(l models.CategoryLevel) models.CategoryLevel {
	switch l {
	case models.LevelPrimary:
		return models.LevelSecondary
	case models.LevelSecondary:
		return models.LevelTertiary
	}
	return models.CategoryLevel("")
}
