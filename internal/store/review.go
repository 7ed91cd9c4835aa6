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
	"homepros/internal/database"
	"homepros/internal/models"
)

// ReviewStore handles reviews, their moderation and replies.
type ReviewStore struct {
	db        *sql.DB
	txTimeout time.Duration
}

// NewReviewStore creates a new ReviewStore.
func NewReviewStore(db *sql.DB, txTimeout time.Duration) *ReviewStore {
	return &ReviewStore{db: db, txTimeout: txTimeout}
}

const reviewColumns = `rv.id, rv.provider_id, rv.user_id, rv.rating, rv.title, rv.content,
	rv.status, rv.created_at, rv.updated_at`

// reviewJoins adds the reviewer, provider and optional reply.
const reviewJoins = `
	JOIN users u ON u.id = rv.user_id
	JOIN providers p ON p.id = rv.provider_id
	LEFT JOIN review_replies rr ON rr.review_id = rv.id`

const reviewJoinedColumns = reviewColumns + `, u.name, u.email, p.business_name,
	rr.id, rr.user_id, rr.content, rr.created_at, rr.updated_at`

func scanReview(row scanner) (*models.Review, error) {
	var r models.Review
	err := row.Scan(
		&r.ID, &r.ProviderID, &r.UserID, &r.Rating, &r.Title, &r.Content,
		&r.Status, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func scanJoinedReview(row scanner) (*models.Review, error) {
	var r models.Review
	var replyID, replyUser *uuid.UUID
	var replyContent *string
	var replyCreated, replyUpdated *time.Time
	err := row.Scan(
		&r.ID, &r.ProviderID, &r.UserID, &r.Rating, &r.Title, &r.Content,
		&r.Status, &r.CreatedAt, &r.UpdatedAt,
		&r.ReviewerName, &r.ReviewerMail, &r.ProviderName,
		&replyID, &replyUser, &replyContent, &replyCreated, &replyUpdated,
	)
	if err != nil {
		return nil, err
	}
	if replyID != nil {
		r.Reply = &models.ReviewReply{
			ID:        *replyID,
			ReviewID:  r.ID,
			UserID:    *replyUser,
			Content:   *replyContent,
			CreatedAt: *replyCreated,
			UpdatedAt: *replyUpdated,
		}
	}
	return &r, nil
}

// approvedReviewsFor lists a provider's APPROVED reviews, newest first,
// with replies. Reviewer emails are not exposed on public reads.
func approvedReviewsFor(ctx context.Context, q queryer, providerID uuid.UUID) ([]models.Review, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+reviewJoinedColumns+`
		FROM reviews rv `+reviewJoins+`
		WHERE rv.provider_id = $1 AND rv.status = 'APPROVED'
		ORDER BY rv.created_at DESC
	`, providerID)
	if err != nil {
		return nil, fmt.Errorf("list approved reviews: %w", err)
	}
	defer rows.Close()

	reviews := []models.Review{}
	for rows.Next() {
		r, err := scanJoinedReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		r.ReviewerMail = ""
		reviews = append(reviews, *r)
	}
	return reviews, rows.Err()
}

// ListApproved returns the APPROVED reviews of a provider.
func (s *ReviewStore) ListApproved(ctx context.Context, providerID uuid.UUID) ([]models.Review, error) {
	return approvedReviewsFor(ctx, s.db, providerID)
}

// Create records a PENDING review. A user may review each provider once.
func (s *ReviewStore) Create(ctx context.Context, providerID, userID uuid.UUID, rating int, title, content string) (*models.Review, error) {
	if rating < models.MinRating || rating > models.MaxRating {
		return nil, apperr.Validation("rating must be between 1 and 5")
	}

	var active bool
	err := s.db.QueryRowContext(ctx, `SELECT is_active FROM providers WHERE id = $1`, providerID).Scan(&active)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !active) {
		return nil, apperr.NotFound("provider")
	}
	if err != nil {
		return nil, fmt.Errorf("check provider: %w", err)
	}

	r, err := scanReview(s.db.QueryRowContext(ctx, `
		INSERT INTO reviews AS rv (provider_id, user_id, rating, title, content, status)
		VALUES ($1, $2, $3, $4, $5, 'PENDING')
		RETURNING `+reviewColumns,
		providerID, userID, rating, strings.TrimSpace(title), strings.TrimSpace(content),
	))
	if err != nil {
		return nil, mapErr("create review", err)
	}
	return r, nil
}

// FindByID retrieves a review with reviewer, provider name and reply.
// Returns nil if not found.
func (s *ReviewStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	r, err := scanJoinedReview(s.db.QueryRowContext(ctx, `
		SELECT `+reviewJoinedColumns+`
		FROM reviews rv `+reviewJoins+`
		WHERE rv.id = $1
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find review: %w", err)
	}
	return r, nil
}

// ReviewQuery filters the moderation listing.
type ReviewQuery struct {
	Status *models.ReviewStatus
	Search string // matches title, content, provider name, reviewer name or email
	Page   Page
}

// AdminList returns one page of reviews, newest first, with the total
// count of matching reviews.
func (s *ReviewStore) AdminList(ctx context.Context, q ReviewQuery) ([]models.Review, Page, error) {
	page := q.Page
	if page.PerPage == 0 {
		page = NewPage(1, DefaultPerPage)
	}

	var where []string
	var args []any
	if q.Status != nil {
		args = append(args, *q.Status)
		where = append(where, fmt.Sprintf("rv.status = $%d", len(args)))
	}
	if term := strings.TrimSpace(q.Search); term != "" {
		args = append(args, likePattern(term))
		n := len(args)
		where = append(where, fmt.Sprintf(
			"(rv.title ILIKE $%[1]d OR rv.content ILIKE $%[1]d OR p.business_name ILIKE $%[1]d OR u.name ILIKE $%[1]d OR u.email ILIKE $%[1]d)", n))
	}
	cond := "TRUE"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM reviews rv `+reviewJoins+` WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, page, fmt.Errorf("count reviews: %w", err)
	}

	n := len(args)
	args = append(args, page.PerPage, page.Offset())
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT `+reviewJoinedColumns+`
		FROM reviews rv `+reviewJoins+`
		WHERE %s
		ORDER BY rv.created_at DESC, rv.id
		LIMIT $%d OFFSET $%d
	`, cond, n+1, n+2), args...)
	if err != nil {
		return nil, page, fmt.Errorf("admin list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []models.Review{}
	for rows.Next() {
		r, err := scanJoinedReview(rows)
		if err != nil {
			return nil, page, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, page, fmt.Errorf("admin list reviews: %w", err)
	}
	return reviews, page.withTotal(total), nil
}

// SetStatus moves a review to status. Any status may follow any other.
func (s *ReviewStore) SetStatus(ctx context.Context, id uuid.UUID, status models.ReviewStatus) (*models.Review, error) {
	r, err := scanReview(s.db.QueryRowContext(ctx, `
		UPDATE reviews AS rv SET status = $1, updated_at = NOW()
		WHERE rv.id = $2
		RETURNING `+reviewColumns, status, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("review")
	}
	if err != nil {
		return nil, mapErr("set review status", err)
	}
	return r, nil
}

// Delete removes a review; its reply goes with it.
func (s *ReviewStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("review")
	}
	return nil
}

// Reply records the single reply to a review. Only the owner of the
// reviewed provider, or an admin, may reply.
func (s *ReviewStore) Reply(ctx context.Context, reviewID uuid.UUID, actor *models.User, content string) (*models.ReviewReply, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.Validation("content is required")
	}

	var reply models.ReviewReply
	err := database.WithTx(ctx, s.db, s.txTimeout, func(tx *sql.Tx) error {
		var owner *uuid.UUID
		var hasReply bool
		err := tx.QueryRowContext(ctx, `
			SELECT p.owner_user_id, EXISTS (SELECT 1 FROM review_replies WHERE review_id = rv.id)
			FROM reviews rv JOIN providers p ON p.id = rv.provider_id
			WHERE rv.id = $1
			FOR UPDATE OF rv
		`, reviewID).Scan(&owner, &hasReply)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("review")
		}
		if err != nil {
			return mapErr("lock review", err)
		}
		if !actor.IsAdmin() && (owner == nil || *owner != actor.ID) {
			return apperr.Forbidden("only the provider owner can reply to this review")
		}
		if hasReply {
			return apperr.ErrReplyExists
		}

		err = tx.QueryRowContext(ctx, `
			INSERT INTO review_replies (review_id, user_id, content)
			VALUES ($1, $2, $3)
			RETURNING id, review_id, user_id, content, created_at, updated_at
		`, reviewID, actor.ID, content).Scan(
			&reply.ID, &reply.ReviewID, &reply.UserID, &reply.Content, &reply.CreatedAt, &reply.UpdatedAt,
		)
		return mapErr("insert reply", err)
	})
	if err != nil {
		return nil, err
	}
	return &reply, nil
}
