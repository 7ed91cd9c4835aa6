// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store provides database access methods for all directory
// entities. Each store struct wraps a *sql.DB and exposes typed query
// methods. Lookups return (nil, nil) on a miss; mutations return
// apperr values so handlers can translate them at the boundary.
package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"homepros/internal/apperr"
)

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface{ Scan(...any) error }

// queryer is implemented by *sql.DB and *sql.Tx so helpers can run both
// inside and outside a transaction.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Postgres SQLSTATE codes translated by mapErr.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgLockNotAvailable    = "55P03"
	pgQueryCanceled       = "57014"
)

// constraintErrors maps unique constraint names to their domain sentinel.
var constraintErrors = map[string]*apperr.Error{
	"users_email_lower_idx":                apperr.ErrEmailTaken,
	"categories_slug_key":                  apperr.ErrSlugTaken,
	"providers_slug_key":                   apperr.ErrSlugTaken,
	"providers_owner_user_id_key":          apperr.ErrUserHasProvider,
	"reviews_provider_id_user_id_key":      apperr.ErrReviewExists,
	"review_replies_review_id_key":         apperr.ErrReplyExists,
	"services_provider_id_category_id_key": apperr.Conflict("provider already offers this category"),
}

// mapErr wraps a driver error with op, translating constraint and lock
// failures into classified application errors.
func mapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			if sentinel, ok := constraintErrors[pgErr.ConstraintName]; ok {
				return sentinel.With(err)
			}
			return apperr.Conflict("record already exists").With(err)
		case pgForeignKeyViolation:
			return apperr.Validation("referenced record does not exist").With(err)
		case pgCheckViolation:
			return apperr.Validation("value out of range").With(err)
		case pgLockNotAvailable, pgQueryCanceled:
			return apperr.Conflict("record is busy, try again").With(err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Pagination defaults for admin listings.
const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// Page describes one page of a paginated listing.
type Page struct {
	Page       int `json:"page"`
	PerPage    int `json:"perPage"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NewPage clamps page and perPage to sane values.
func NewPage(page, perPage int) Page {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return Page{Page: page, PerPage: perPage}
}

// Offset returns the SQL OFFSET for the page.
func (p Page) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// withTotal returns a copy of p with Total and TotalPages set.
func (p Page) withTotal(total int) Page {
	p.Total = total
	p.TotalPages = (total + p.PerPage - 1) / p.PerPage
	return p
}

// likePattern wraps a search term for ILIKE, escaping wildcards.
func likePattern(term string) string {
	out := make([]rune, 0, len(term)+2)
	out = append(out, '%')
	for _, r := range term {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(append(out, '%'))
}

// randomToken returns n random bytes, hex-encoded.
func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("random token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
