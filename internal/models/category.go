// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// CategoryLevel is the depth of a category in the service taxonomy.
type CategoryLevel string

const (
	LevelPrimary   CategoryLevel = "PRIMARY"
	LevelSecondary CategoryLevel = "SECONDARY"
	LevelTertiary  CategoryLevel = "TERTIARY"
)

// Rank returns 0 for PRIMARY, 1 for SECONDARY, 2 for TERTIARY and -1 for
// anything else.
func (l CategoryLevel) Rank() int {
	switch l {
	case LevelPrimary:
		return 0
	case LevelSecondary:
		return 1
	case LevelTertiary:
		return 2
	}
	return -1
}

// Valid reports whether l is one of the known levels.
func (l CategoryLevel) Valid() bool {
	return l.Rank() >= 0
}

// Category represents a hierarchical service type (Plumbing → Drain
// Cleaning → Sewer Camera Inspection).
type Category struct {
	ID          uuid.UUID     `json:"id"`
	Name        string        `json:"name"`
	Slug        string        `json:"slug"`
	Description string        `json:"description"`
	Icon        string        `json:"icon"`
	Level       CategoryLevel `json:"level"`
	ParentID    *uuid.UUID    `json:"parentId"`
	SortOrder   int           `json:"sortOrder"`
	IsActive    bool          `json:"isActive"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`

	// Virtual fields populated by store methods.
	Children      []Category `json:"children,omitempty"`
	ProviderCount int        `json:"providerCount"`
}

// ValidParent reports whether a category of the given level may hang under
// parent. A nil parent is only allowed for PRIMARY categories; otherwise
// the parent must sit exactly one level above.
func ValidParent(level CategoryLevel, parent *Category) bool {
	if !level.Valid() {
		return false
	}
	if parent == nil {
		return level == LevelPrimary
	}
	return parent.Level.Rank()+1 == level.Rank()
}
