// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"homepros/internal/apperr"
	"homepros/internal/database"
	"homepros/internal/models"
)

// PaymentStore records checkout payments and applies their effects.
type PaymentStore struct {
	db        *sql.DB
	txTimeout time.Duration
}

// NewPaymentStore creates a new PaymentStore.
func NewPaymentStore(db *sql.DB, txTimeout time.Duration) *PaymentStore {
	return &PaymentStore{db: db, txTimeout: txTimeout}
}

const paymentColumns = `id, provider_id, user_id, plan, amount_cents, currency, status,
	external_id, checkout_url, created_at, updated_at`

func scanPayment(row scanner) (*models.Payment, error) {
	var p models.Payment
	err := row.Scan(
		&p.ID, &p.ProviderID, &p.UserID, &p.Plan, &p.AmountCents, &p.Currency, &p.Status,
		&p.ExternalID, &p.CheckoutURL, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a PENDING payment.
func (s *PaymentStore) Create(ctx context.Context, p *models.Payment) (*models.Payment, error) {
	created, err := scanPayment(s.db.QueryRowContext(ctx, `
		INSERT INTO payments (provider_id, user_id, plan, amount_cents, currency, status)
		VALUES ($1, $2, $3, $4, $5, 'PENDING')
		RETURNING `+paymentColumns,
		p.ProviderID, p.UserID, p.Plan, p.AmountCents, p.Currency,
	))
	if err != nil {
		return nil, mapErr("create payment", err)
	}
	return created, nil
}

// AttachCheckout records the collaborator's session id and redirect URL.
func (s *PaymentStore) AttachCheckout(ctx context.Context, id uuid.UUID, externalID, checkoutURL string) (*models.Payment, error) {
	p, err := scanPayment(s.db.QueryRowContext(ctx, `
		UPDATE payments SET external_id = $1, checkout_url = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING `+paymentColumns, externalID, checkoutURL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("payment")
	}
	if err != nil {
		return nil, mapErr("attach checkout", err)
	}
	return p, nil
}

// MarkFailed sets a payment FAILED, used when the checkout session could
// not be created.
func (s *PaymentStore) MarkFailed(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE payments SET status = 'FAILED', updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark payment failed: %w", err)
	}
	return nil
}

// FindByExternalID retrieves a payment by collaborator id. Returns nil if
// not found.
func (s *PaymentStore) FindByExternalID(ctx context.Context, externalID string) (*models.Payment, error) {
	p, err := scanPayment(s.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE external_id = $1`, externalID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find payment: %w", err)
	}
	return p, nil
}

// paymentTransitions lists the status changes a webhook may apply.
var paymentTransitions = map[models.PaymentStatus][]models.PaymentStatus{
	models.PaymentPending:   {models.PaymentCompleted, models.PaymentFailed},
	models.PaymentCompleted: {models.PaymentRefunded},
}

func canTransition(from, to models.PaymentStatus) bool {
	for _, s := range paymentTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// UpdateStatus sets the status of the payment with externalID. Repeating
// the current status is a no-op; any change outside PENDING->COMPLETED,
// PENDING->FAILED and COMPLETED->REFUNDED returns apperr.ErrStalePayment
// with the payment left as is. Completing a premium payment flags the
// provider premium and notifies admins; refunding it clears the flag unless
// another completed premium payment remains.
func (s *PaymentStore) UpdateStatus(ctx context.Context, externalID string, status models.PaymentStatus) (*models.Payment, error) {
	var updated *models.Payment
	err := database.WithTx(ctx, s.db, s.txTimeout, func(tx *sql.Tx) error {
		current, err := scanPayment(tx.QueryRowContext(ctx,
			`SELECT `+paymentColumns+` FROM payments WHERE external_id = $1 FOR UPDATE`, externalID))
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("payment")
		}
		if err != nil {
			return mapErr("lock payment", err)
		}
		if current.Status == status {
			updated = current
			return nil
		}
		if !canTransition(current.Status, status) {
			updated = current
			return apperr.ErrStalePayment
		}

		updated, err = scanPayment(tx.QueryRowContext(ctx, `
			UPDATE payments SET status = $1, updated_at = NOW()
			WHERE id = $2
			RETURNING `+paymentColumns, status, current.ID))
		if err != nil {
			return mapErr("update payment status", err)
		}
		if updated.ProviderID == nil {
			return nil
		}

		switch status {
		case models.PaymentRefunded:
			if updated.Plan != models.PlanPremium {
				return nil
			}
			if _, err := tx.ExecContext(ctx, `
				UPDATE providers SET is_premium = FALSE, updated_at = NOW()
				WHERE id = $1 AND NOT EXISTS (
					SELECT 1 FROM payments
					WHERE provider_id = $1 AND plan = $2 AND status = 'COMPLETED'
				)`, *updated.ProviderID, models.PlanPremium); err != nil {
				return fmt.Errorf("clear provider premium: %w", err)
			}
			return nil
		case models.PaymentCompleted:
			if updated.Plan == models.PlanPremium {
				if _, err := tx.ExecContext(ctx,
					`UPDATE providers SET is_premium = TRUE, updated_at = NOW() WHERE id = $1`,
					*updated.ProviderID); err != nil {
					return fmt.Errorf("flag provider premium: %w", err)
				}
			}
			return insertNotification(ctx, tx, models.Notification{
				Type:       models.NotifyPaymentReceived,
				Title:      "Payment received",
				Message:    fmt.Sprintf("%s payment of %d %s", updated.Plan, updated.AmountCents, updated.Currency),
				ProviderID: updated.ProviderID,
				UserID:     &updated.UserID,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
