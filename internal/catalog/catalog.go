// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package catalog holds the derived-value rules of the directory: provider
// ratings, primary category and image selection, category tree shaping and
// sort-order neighbour lookup. Everything here is pure; stores feed it rows
// and handlers serialize the results.
package catalog

import (
	"math"
	"sort"

	"github.com/google/uuid"

	"homepros/internal/apperr"
	"homepros/internal/models"
)

// PlaceholderImage is returned when a provider has no images at all.
const PlaceholderImage = "/static/img/provider-placeholder.png"

// maxTreeDepth stops nesting below grandchildren (PRIMARY → SECONDARY → TERTIARY).
const maxTreeDepth = 2

// RoundRating rounds to one decimal place.
func RoundRating(avg float64) float64 {
	return math.Round(avg*10) / 10
}

// RatingFromTotals turns an approved-rating sum and count into the
// displayed average. No approved reviews yields 0.
func RatingFromTotals(sum int64, count int) float64 {
	if count == 0 {
		return 0
	}
	return RoundRating(float64(sum) / float64(count))
}

// AverageRating computes the displayed rating and review count from a
// provider's reviews. Only APPROVED reviews count.
func AverageRating(reviews []models.Review) (float64, int) {
	var sum int64
	var count int
	for _, r := range reviews {
		if !r.IsApproved() {
			continue
		}
		sum += int64(r.Rating)
		count++
	}
	return RatingFromTotals(sum, count), count
}

// PrimaryCategory picks the category a provider is listed under: among
// services whose category is PRIMARY, the one with the lowest service sort
// order, then category sort order, then category name. Returns nil when
// the provider has no PRIMARY-level service.
func PrimaryCategory(services []models.Service) *models.Category {
	var best *models.Service
	for i := range services {
		s := &services[i]
		if s.Category == nil || s.Category.Level != models.LevelPrimary {
			continue
		}
		if best == nil || serviceLess(s, best) {
			best = s
		}
	}
	if best == nil {
		return nil
	}
	c := *best.Category
	return &c
}

func serviceLess(a, b *models.Service) bool {
	if a.SortOrder != b.SortOrder {
		return a.SortOrder < b.SortOrder
	}
	if a.Category.SortOrder != b.Category.SortOrder {
		return a.Category.SortOrder < b.Category.SortOrder
	}
	return a.Category.Name < b.Category.Name
}

// PrimaryImage returns the first PROFILE image, else the first image of
// any type, else the placeholder. images must already be in display order.
func PrimaryImage(images []models.ProviderImage) string {
	for _, img := range images {
		if img.Type == models.ImageProfile {
			return img.URL
		}
	}
	if len(images) > 0 {
		return images[0].URL
	}
	return PlaceholderImage
}

// Annotate fills a provider's computed fields from its loaded services,
// images and reviews. Reviews are optional; when nil the stored aggregate
// fields are left as they are.
func Annotate(p *models.Provider) {
	p.PrimaryImage = PrimaryImage(p.Images)
	p.PrimaryCategory = PrimaryCategory(p.Services)
	if p.Reviews != nil {
		p.Rating, p.ReviewCount = AverageRating(p.Reviews)
	}
}

// SortCategories orders categories by level, then sort order, then name.
func SortCategories(cats []models.Category) {
	sort.SliceStable(cats, func(i, j int) bool {
		a, b := cats[i], cats[j]
		if a.Level.Rank() != b.Level.Rank() {
			return a.Level.Rank() < b.Level.Rank()
		}
		if a.SortOrder != b.SortOrder {
			return a.SortOrder < b.SortOrder
		}
		return a.Name < b.Name
	})
}

// BuildTree nests a flat category list: roots are categories without a
// parent, each carrying its children and grandchildren. Categories whose
// parent is missing from flat (for example an inactive parent that was
// filtered out) are not reachable and are dropped.
func BuildTree(flat []models.Category) []models.Category {
	sorted := make([]models.Category, len(flat))
	copy(sorted, flat)
	SortCategories(sorted)

	byParent := make(map[uuid.UUID][]models.Category)
	var roots []models.Category
	for _, c := range sorted {
		if c.ParentID == nil {
			roots = append(roots, c)
			continue
		}
		byParent[*c.ParentID] = append(byParent[*c.ParentID], c)
	}

	return attachChildren(roots, byParent, 0)
}

func attachChildren(nodes []models.Category, byParent map[uuid.UUID][]models.Category, depth int) []models.Category {
	if depth >= maxTreeDepth {
		return nodes
	}
	out := make([]models.Category, len(nodes))
	for i, n := range nodes {
		if kids := byParent[n.ID]; len(kids) > 0 {
			n.Children = attachChildren(kids, byParent, depth+1)
		}
		out[i] = n
	}
	return out
}

// SwapTarget finds the neighbour to swap sort orders with. ordered is the
// list of active provider IDs in display order. It returns the indexes of
// the moving provider and of its neighbour.
func SwapTarget(ordered []uuid.UUID, id uuid.UUID, up bool) (int, int, error) {
	idx := -1
	for i, v := range ordered {
		if v == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return 0, 0, apperr.NotFound("active provider")
	}
	if up {
		if idx == 0 {
			return 0, 0, apperr.ErrAlreadyFirst
		}
		return idx, idx - 1, nil
	}
	if idx == len(ordered)-1 {
		return 0, 0, apperr.ErrAlreadyLast
	}
	return idx, idx + 1, nil
}
