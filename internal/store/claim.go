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

// claimTokenBytes is the entropy of a claim token before hex encoding.
const claimTokenBytes = 32

// ClaimStore issues claim invitations and assigns provider ownership.
type ClaimStore struct {
	db        *sql.DB
	txTimeout time.Duration
	now       func() time.Time
}

// NewClaimStore creates a new ClaimStore.
func NewClaimStore(db *sql.DB, txTimeout time.Duration) *ClaimStore {
	return &ClaimStore{db: db, txTimeout: txTimeout, now: time.Now}
}

const invitationColumns = `id, provider_id, email, token, expires_at, created_by, used_at, created_at`

func scanInvitation(row scanner) (*models.ClaimInvitation, error) {
	var inv models.ClaimInvitation
	err := row.Scan(
		&inv.ID, &inv.ProviderID, &inv.Email, &inv.Token,
		&inv.ExpiresAt, &inv.CreatedBy, &inv.UsedAt, &inv.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// IssueInvitation stores a random single-use claim token for email,
// valid for ttl. It fails with Conflict if the provider is already claimed.
func (s *ClaimStore) IssueInvitation(ctx context.Context, providerID uuid.UUID, email string, createdBy uuid.UUID, ttl time.Duration) (*models.ClaimInvitation, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, apperr.Validation("email is required")
	}

	var owner *uuid.UUID
	err := s.db.QueryRowContext(ctx,
		`SELECT owner_user_id FROM providers WHERE id = $1`, providerID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("provider")
	}
	if err != nil {
		return nil, fmt.Errorf("check provider owner: %w", err)
	}
	if owner != nil {
		return nil, apperr.ErrAlreadyClaimed
	}

	token, err := randomToken(claimTokenBytes)
	if err != nil {
		return nil, err
	}

	inv, err := scanInvitation(s.db.QueryRowContext(ctx, `
		INSERT INTO claim_invitations (provider_id, email, token, expires_at, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+invitationColumns,
		providerID, email, token, s.now().Add(ttl), createdBy,
	))
	if err != nil {
		return nil, mapErr("create claim invitation", err)
	}
	return inv, nil
}

// FindInvitation retrieves an invitation by token. Returns nil if not found.
func (s *ClaimStore) FindInvitation(ctx context.Context, token string) (*models.ClaimInvitation, error) {
	return findInvitation(ctx, s.db, token, false)
}

func findInvitation(ctx context.Context, q queryer, token string, lock bool) (*models.ClaimInvitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM claim_invitations WHERE token = $1`
	if lock {
		query += ` FOR UPDATE`
	}
	inv, err := scanInvitation(q.QueryRowContext(ctx, query, token))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find claim invitation: %w", err)
	}
	return inv, nil
}

// CheckInvitation reports whether token is currently usable for
// providerID. It returns nil when usable, otherwise the claim error a
// Claim with that token would fail with.
func (s *ClaimStore) CheckInvitation(ctx context.Context, providerID uuid.UUID, token string) error {
	inv, err := s.FindInvitation(ctx, token)
	if err != nil {
		return err
	}
	return s.invitationError(inv, providerID)
}

func (s *ClaimStore) invitationError(inv *models.ClaimInvitation, providerID uuid.UUID) error {
	if inv == nil || inv.ProviderID != providerID || inv.UsedAt != nil {
		return apperr.ErrClaimMismatch
	}
	if inv.Expired(s.now()) {
		return apperr.ErrClaimExpired
	}
	return nil
}

// ClaimRequest identifies who claims which provider and how.
type ClaimRequest struct {
	ProviderID uuid.UUID
	UserID     uuid.UUID
	Token      string // optional; without it the user's email must match the provider's
}

// Claim assigns an unclaimed provider to the user, promotes the user to
// PROVIDER and notifies admins, all in one transaction. A claimed provider
// always fails with ErrAlreadyClaimed, whatever the token or email.
func (s *ClaimStore) Claim(ctx context.Context, req ClaimRequest) (*models.Provider, error) {
	var claimed *models.Provider
	err := database.WithTx(ctx, s.db, s.txTimeout, func(tx *sql.Tx) error {
		p, err := scanProvider(tx.QueryRowContext(ctx,
			`SELECT `+providerColumns+` FROM providers p WHERE p.id = $1 FOR UPDATE`, req.ProviderID))
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("provider")
		}
		if err != nil {
			return mapErr("lock provider", err)
		}
		if p.IsClaimed() {
			return apperr.ErrAlreadyClaimed
		}

		user, err := scanUser(tx.QueryRowContext(ctx,
			`SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, req.UserID))
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.Unauthorized("user not found")
		}
		if err != nil {
			return mapErr("lock user", err)
		}

		var inv *models.ClaimInvitation
		if req.Token != "" {
			inv, err = findInvitation(ctx, tx, req.Token, true)
			if err != nil {
				return err
			}
			if err := s.invitationError(inv, p.ID); err != nil {
				return err
			}
			if !strings.EqualFold(inv.Email, user.Email) {
				return apperr.ErrClaimMismatch
			}
		} else if p.Email == "" || !strings.EqualFold(strings.TrimSpace(p.Email), user.Email) {
			return apperr.ErrClaimMismatch
		}

		var owns bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM providers WHERE owner_user_id = $1)`, user.ID,
		).Scan(&owns); err != nil {
			return fmt.Errorf("check existing provider: %w", err)
		}
		if owns {
			return apperr.ErrUserHasProvider
		}

		claimed, err = scanProvider(tx.QueryRowContext(ctx, `
			UPDATE providers AS p SET owner_user_id = $1, claimed_at = NOW(), updated_at = NOW()
			WHERE p.id = $2
			RETURNING `+providerColumns, user.ID, p.ID))
		if err != nil {
			return mapErr("assign provider owner", err)
		}

		if inv != nil {
			if _, err := tx.ExecContext(ctx,
				`UPDATE claim_invitations SET used_at = NOW() WHERE id = $1`, inv.ID); err != nil {
				return fmt.Errorf("mark invitation used: %w", err)
			}
		}

		if err := promoteUser(ctx, tx, user); err != nil {
			return err
		}

		return insertNotification(ctx, tx, models.Notification{
			Type:       models.NotifyProviderClaimed,
			Title:      "Provider claimed",
			Message:    fmt.Sprintf("%s was claimed by %s", p.BusinessName, user.Email),
			ProviderID: &p.ID,
			UserID:     &user.ID,
		})
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}
