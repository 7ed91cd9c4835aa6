// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"homepros/internal/apperr"
	"homepros/internal/catalog"
	"homepros/internal/database"
	"homepros/internal/models"
	"homepros/internal/slug"
)

// CategoryStore manages categories in the database.
type CategoryStore struct {
	db        *sql.DB
	txTimeout time.Duration
}

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(db *sql.DB, txTimeout time.Duration) *CategoryStore {
	return &CategoryStore{db: db, txTimeout: txTimeout}
}

const categoryColumns = `c.id, c.name, c.slug, c.description, c.icon, c.level, c.parent_id,
	c.sort_order, c.is_active, c.created_at, c.updated_at`

// categoryProviderCount counts distinct active providers with a service in
// the category or in any of its direct children.
const categoryProviderCount = `(
	SELECT COUNT(DISTINCT s.provider_id)
	FROM services s
	JOIN providers p ON p.id = s.provider_id AND p.is_active
	WHERE s.category_id = c.id
	   OR s.category_id IN (SELECT ch.id FROM categories ch WHERE ch.parent_id = c.id)
)`

const categoryOrder = `CASE c.level WHEN 'PRIMARY' THEN 0 WHEN 'SECONDARY' THEN 1 ELSE 2 END,
	c.sort_order, c.name`

// scanCategory scans a row into a Category struct. extra receives any
// trailing columns.
func scanCategory(row scanner, extra ...any) (*models.Category, error) {
	var c models.Category
	dest := []any{
		&c.ID, &c.Name, &c.Slug, &c.Description, &c.Icon, &c.Level, &c.ParentID,
		&c.SortOrder, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns categories ordered by level, sort order and name, each with
// its provider count. Inactive categories are skipped unless requested.
func (s *CategoryStore) List(ctx context.Context, includeInactive bool) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+categoryColumns+`, `+categoryProviderCount+`
		FROM categories c
		WHERE $1 OR c.is_active
		ORDER BY `+categoryOrder,
		includeInactive)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	items := []models.Category{}
	for rows.Next() {
		var count int
		c, err := scanCategory(rows, &count)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.ProviderCount = count
		items = append(items, *c)
	}
	return items, rows.Err()
}

// Tree returns the category hierarchy rooted at PRIMARY categories.
func (s *CategoryStore) Tree(ctx context.Context, includeInactive bool) ([]models.Category, error) {
	flat, err := s.List(ctx, includeInactive)
	if err != nil {
		return nil, err
	}
	tree := catalog.BuildTree(flat)
	if tree == nil {
		tree = []models.Category{}
	}
	return tree, nil
}

// FindBySlug retrieves a category with its provider count and direct
// children. Returns nil if not found.
func (s *CategoryStore) FindBySlug(ctx context.Context, slug string, includeInactive bool) (*models.Category, error) {
	var count int
	c, err := scanCategory(s.db.QueryRowContext(ctx, `
		SELECT `+categoryColumns+`, `+categoryProviderCount+`
		FROM categories c
		WHERE c.slug = $1 AND ($2::boolean OR c.is_active)
	`, slug, includeInactive), &count)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by slug: %w", err)
	}
	c.ProviderCount = count

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+categoryColumns+`, `+categoryProviderCount+`
		FROM categories c
		WHERE c.parent_id = $1 AND ($2::boolean OR c.is_active)
		ORDER BY `+categoryOrder,
		c.ID, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("list category children: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var n int
		child, err := scanCategory(rows, &n)
		if err != nil {
			return nil, fmt.Errorf("scan category child: %w", err)
		}
		child.ProviderCount = n
		c.Children = append(c.Children, *child)
	}
	return c, rows.Err()
}

// FindByID retrieves a category by ID. Returns nil if not found.
func (s *CategoryStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	return findCategory(ctx, s.db, id, false)
}

func findCategory(ctx context.Context, q queryer, id uuid.UUID, lock bool) (*models.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories c WHERE c.id = $1`
	if lock {
		query += ` FOR UPDATE`
	}
	c, err := scanCategory(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by id: %w", err)
	}
	return c, nil
}

// checkHierarchy verifies that c's parent, if any, is exactly one level
// above c.
func checkHierarchy(ctx context.Context, q queryer, c *models.Category) error {
	if !c.Level.Valid() {
		return apperr.Validation("level must be PRIMARY, SECONDARY or TERTIARY")
	}
	var parent *models.Category
	if c.ParentID != nil {
		if *c.ParentID == c.ID {
			return apperr.ErrInvalidHierarchy
		}
		p, err := findCategory(ctx, q, *c.ParentID, false)
		if err != nil {
			return err
		}
		if p == nil {
			return apperr.NotFound("parent category")
		}
		parent = p
	}
	if !models.ValidParent(c.Level, parent) {
		return apperr.ErrInvalidHierarchy
	}
	return nil
}

// Create inserts a new category and returns it. The slug is derived from
// the name when empty.
func (s *CategoryStore) Create(ctx context.Context, c *models.Category) (*models.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Slug == "" {
		c.Slug = slug.Generate(c.Name)
	}
	if c.Name == "" || c.Slug == "" {
		return nil, apperr.Validation("name is required")
	}

	var created *models.Category
	err := database.WithTx(ctx, s.db, s.txTimeout, func(tx *sql.Tx) error {
		if err := checkHierarchy(ctx, tx, c); err != nil {
			return err
		}
		row := tx.QueryRowContext(ctx, `
			INSERT INTO categories AS c (name, slug, description, icon, level, parent_id, sort_order, is_active)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING `+categoryColumns,
			c.Name, c.Slug, c.Description, c.Icon, c.Level, c.ParentID, c.SortOrder, c.IsActive,
		)
		var err error
		created, err = scanCategory(row)
		return mapErr("create category", err)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Update writes every editable field of c. Changing the level or parent
// must keep both c and its existing children valid.
func (s *CategoryStore) Update(ctx context.Context, c *models.Category) (*models.Category, error) {
	var updated *models.Category
	err := database.WithTx(ctx, s.db, s.txTimeout, func(tx *sql.Tx) error {
		current, err := findCategory(ctx, tx, c.ID, true)
		if err != nil {
			return err
		}
		if current == nil {
			return apperr.NotFound("category")
		}
		if err := checkHierarchy(ctx, tx, c); err != nil {
			return err
		}

		if c.Level != current.Level {
			var invalidChildren int
			err := tx.QueryRowContext(ctx, `
				SELECT COUNT(*) FROM categories WHERE parent_id = $1 AND level <> $2
			`, c.ID, childLevel(c.Level)).Scan(&invalidChildren)
			if err != nil {
				return fmt.Errorf("check category children: %w", err)
			}
			if invalidChildren > 0 {
				return apperr.ErrInvalidHierarchy
			}
		}

		row := tx.QueryRowContext(ctx, `
			UPDATE categories AS c SET
				name = $1, slug = $2, description = $3, icon = $4, level = $5,
				parent_id = $6, sort_order = $7, is_active = $8, updated_at = NOW()
			WHERE c.id = $9
			RETURNING `+categoryColumns,
			c.Name, c.Slug, c.Description, c.Icon, c.Level, c.ParentID, c.SortOrder, c.IsActive, c.ID,
		)
		updated, err = scanCategory(row)
		return mapErr("update category", err)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// childLevel returns the level a direct child of l must have. TERTIARY
// categories cannot have children, so any child is invalid.
func childLevel(l models.CategoryLevel) models.CategoryLevel {
	switch l {
	case models.LevelPrimary:
		return models.LevelSecondary
	case models.LevelSecondary:
		return models.LevelTertiary
	}
	return ""
}

// Delete removes a category. It is rejected while any service or child
// category still references it.
func (s *CategoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	return database.WithTx(ctx, s.db, s.txTimeout, func(tx *sql.Tx) error {
		c, err := findCategory(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if c == nil {
			return apperr.NotFound("category")
		}

		var inUse bool
		err = tx.QueryRowContext(ctx, `
			SELECT EXISTS (SELECT 1 FROM services WHERE category_id = $1)
			    OR EXISTS (SELECT 1 FROM categories WHERE parent_id = $1)
		`, id).Scan(&inUse)
		if err != nil {
			return fmt.Errorf("check category dependents: %w", err)
		}
		if inUse {
			return apperr.ErrCategoryInUse
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id); err != nil {
			return mapErr("delete category", err)
		}
		return nil
	})
}

// NextSortOrder returns the next sort_order value for a given parent.
func (s *CategoryStore) NextSortOrder(ctx context.Context, parentID *uuid.UUID) (int, error) {
	var maxOrder sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(sort_order) FROM categories WHERE parent_id IS NOT DISTINCT FROM $1
	`, parentID).Scan(&maxOrder)
	if err != nil {
		return 0, fmt.Errorf("next category sort order: %w", err)
	}
	if maxOrder.Valid {
		return int(maxOrder.Int64) + 1, nil
	}
	return 0, nil
}

// categoryScope returns the IDs of the category with slug and its direct
// children. Inactive categories are left out unless includeInactive is set.
// Returns nil if no matching category exists.
func categoryScope(ctx context.Context, q queryer, slug string, includeInactive bool) ([]string, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT c.id FROM categories c WHERE c.slug = $1 AND ($2::boolean OR c.is_active)
		UNION
		SELECT ch.id FROM categories ch JOIN categories c ON ch.parent_id = c.id
		WHERE c.slug = $1 AND ($2::boolean OR (c.is_active AND ch.is_active))
	`, slug, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("category scope: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan category scope: %w", err)
		}
		ids = append(ids, id.String())
	}
	return ids, rows.Err()
}
