// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"homepros/internal/apperr"
	"homepros/internal/middleware"
	"homepros/internal/models"
	"homepros/internal/payments"
	"homepros/internal/store"
)

// maxWebhookBytes caps webhook bodies.
const maxWebhookBytes = 64 << 10

// Payments opens premium checkouts and applies webhook outcomes.
type Payments struct {
	responder
	payments      *store.PaymentStore
	providers     *store.ProviderStore
	checkout      payments.Checkout
	webhookSecret string
	baseURL       string
	priceCents    int64
	now           func() time.Time
}

// NewPayments creates the payment handler group.
func NewPayments(paymentStore *store.PaymentStore, providers *store.ProviderStore, checkout payments.Checkout,
	webhookSecret, baseURL string, priceCents int64, showDetails bool) *Payments {
	return &Payments{
		responder:     responder{showDetails: showDetails},
		payments:      paymentStore,
		providers:     providers,
		checkout:      checkout,
		webhookSecret: webhookSecret,
		baseURL:       strings.TrimRight(baseURL, "/"),
		priceCents:    priceCents,
		now:           time.Now,
	}
}

type checkoutBody struct {
	ProviderID string `json:"providerId"`
}

// Checkout handles POST /payments/checkout. The provider's owner gets a
// hosted checkout URL for the premium upgrade.
func (h *Payments) Checkout(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	var body checkoutBody
	if err := decodeJSON(r, &body); err != nil {
		h.fail(w, r, "start checkout", err)
		return
	}
	providerID, err := parseUUID(body.ProviderID, "providerId")
	if err != nil {
		h.fail(w, r, "start checkout", err)
		return
	}

	p, err := h.providers.FindByID(r.Context(), providerID)
	if err != nil {
		h.fail(w, r, "start checkout", err)
		return
	}
	if p == nil {
		h.fail(w, r, "start checkout", apperr.NotFound("provider"))
		return
	}
	if p.OwnerUserID == nil || *p.OwnerUserID != sess.UserID {
		h.fail(w, r, "start checkout", apperr.Forbidden("only the provider owner can upgrade this listing"))
		return
	}
	if p.IsPremium {
		h.fail(w, r, "start checkout", apperr.Conflict("provider is already premium"))
		return
	}

	payment, err := h.payments.Create(r.Context(), &models.Payment{
		ProviderID:  &p.ID,
		UserID:      sess.UserID,
		Plan:        models.PlanPremium,
		AmountCents: h.priceCents,
		Currency:    "USD",
	})
	if err != nil {
		h.fail(w, r, "start checkout", err)
		return
	}

	session, err := h.checkout.CreateSession(r.Context(), payments.CheckoutRequest{
		Items: []payments.LineItem{{
			Name:        "Premium listing: " + p.BusinessName,
			AmountCents: h.priceCents,
			Currency:    "USD",
			Quantity:    1,
		}},
		CustomerEmail:     sess.Email,
		ClientReferenceID: payment.ID.String(),
		SuccessURL:        fmt.Sprintf("%s/providers/%s?checkout=success", h.baseURL, p.Slug),
		CancelURL:         fmt.Sprintf("%s/providers/%s?checkout=cancelled", h.baseURL, p.Slug),
	})
	if err != nil {
		if mErr := h.payments.MarkFailed(context.WithoutCancel(r.Context()), payment.ID); mErr != nil {
			slog.Error("mark payment failed", "error", mErr, "payment_id", payment.ID)
		}
		if errors.Is(err, payments.ErrNotConfigured) {
			writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "Payments are not configured"})
			return
		}
		h.fail(w, r, "start checkout", err)
		return
	}

	payment, err = h.payments.AttachCheckout(r.Context(), payment.ID, session.ID, session.URL)
	if err != nil {
		h.fail(w, r, "start checkout", err)
		return
	}

	slog.Info("checkout started", "payment_id", payment.ID, "provider_id", p.ID)
	h.ok(w, http.StatusCreated, envelope{"payment": payment, "checkoutUrl": session.URL})
}

// Webhook handles POST /payments/webhook. The signature is verified before
// anything in the body is trusted.
func (h *Payments) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		h.fail(w, r, "process webhook", apperr.Validation("unreadable body"))
		return
	}

	sig := r.Header.Get(payments.SignatureHeader)
	if err := payments.VerifySignature(payload, sig, h.webhookSecret, payments.DefaultTolerance, h.now()); err != nil {
		if errors.Is(err, payments.ErrNotConfigured) {
			writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "Payments are not configured"})
			return
		}
		slog.Warn("webhook signature rejected", "error", err, "remote", r.RemoteAddr)
		h.fail(w, r, "process webhook", apperr.Validation("invalid signature"))
		return
	}

	event, err := payments.ParseEvent(payload)
	if err != nil {
		h.fail(w, r, "process webhook", apperr.Validation("invalid event").With(err))
		return
	}

	status, ok := event.Status()
	if !ok || event.SessionID == "" {
		h.ok(w, http.StatusOK, envelope{"received": true, "ignored": true})
		return
	}

	payment, err := h.payments.UpdateStatus(r.Context(), event.SessionID, status)
	if errors.Is(err, apperr.ErrStalePayment) {
		slog.Info("payment status change ignored", "session_id", event.SessionID, "status", status, "event", event.Type)
		h.ok(w, http.StatusOK, envelope{"received": true, "ignored": true})
		return
	}
	if err != nil {
		h.fail(w, r, "process webhook", err)
		return
	}

	slog.Info("payment status updated", "payment_id", payment.ID, "status", payment.Status, "event", event.Type)
	h.ok(w, http.StatusOK, envelope{"received": true})
}
