// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package payments talks to the hosted-checkout collaborator: it opens
// checkout sessions for premium upgrades and authenticates the webhook
// calls that report their outcome.
package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"homepros/internal/models"
)

// ErrNotConfigured is returned when no secret key was provided.
var ErrNotConfigured = errors.New("payments are not configured")

// LineItem is one product in a checkout.
type LineItem struct {
	Name        string
	AmountCents int64
	Currency    string
	Quantity    int
}

// CheckoutRequest describes the session to open.
type CheckoutRequest struct {
	Items             []LineItem
	CustomerEmail     string
	ClientReferenceID string // our payment id, echoed back in the webhook
	SuccessURL        string
	CancelURL         string
}

// Session is an opened hosted checkout.
type Session struct {
	ID  string
	URL string
}

// Checkout is the behaviour handlers depend on.
type Checkout interface {
	CreateSession(ctx context.Context, req CheckoutRequest) (*Session, error)
}

// Client calls a Stripe-compatible checkout API.
type Client struct {
	secretKey string
	baseURL   string
	client    *http.Client
}

// NewClient creates a checkout client. An empty baseURL selects the public API.
func NewClient(secretKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = "https://api.stripe.com/v1"
	}
	return &Client{
		secretKey: secretKey,
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

// CreateSession opens a hosted checkout session for the given line items.
func (c *Client) CreateSession(ctx context.Context, cr CheckoutRequest) (*Session, error) {
	if c.secretKey == "" {
		return nil, ErrNotConfigured
	}
	if len(cr.Items) == 0 {
		return nil, fmt.Errorf("checkout: at least one line item is required")
	}

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", cr.SuccessURL)
	form.Set("cancel_url", cr.CancelURL)
	form.Set("client_reference_id", cr.ClientReferenceID)
	if cr.CustomerEmail != "" {
		form.Set("customer_email", cr.CustomerEmail)
	}
	for i, item := range cr.Items {
		prefix := fmt.Sprintf("line_items[%d]", i)
		qty := item.Quantity
		if qty == 0 {
			qty = 1
		}
		form.Set(prefix+"[quantity]", strconv.Itoa(qty))
		form.Set(prefix+"[price_data][currency]", strings.ToLower(item.Currency))
		form.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(item.AmountCents, 10))
		form.Set(prefix+"[price_data][product_data][name]", item.Name)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("checkout request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("checkout http: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("checkout read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("checkout API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("checkout unmarshal: %w", err)
	}
	if result.ID == "" || result.URL == "" {
		return nil, fmt.Errorf("checkout: response missing session id or url")
	}

	return &Session{ID: result.ID, URL: result.URL}, nil
}

// Event is a decoded webhook call.
type Event struct {
	Type      string
	SessionID string
}

// Status maps the event to a payment status. ok is false for event types
// that do not change a payment.
func (e Event) Status() (models.PaymentStatus, bool) {
	switch e.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
		return models.PaymentCompleted, true
	case "checkout.session.expired", "checkout.session.async_payment_failed":
		return models.PaymentFailed, true
	case "charge.refunded":
		return models.PaymentRefunded, true
	default:
		return "", false
	}
}

// ParseEvent decodes a webhook body. Signature checks happen first in
// VerifySignature.
func ParseEvent(payload []byte) (Event, error) {
	var raw struct {
		Type string `json:"type"`
		Data struct {
			Object struct {
				ID             string `json:"id"`
				CheckoutSessID string `json:"checkout_session"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return Event{}, fmt.Errorf("webhook unmarshal: %w", err)
	}
	if raw.Type == "" {
		return Event{}, fmt.Errorf("webhook: missing event type")
	}

	id := raw.Data.Object.ID
	if raw.Data.Object.CheckoutSessID != "" {
		id = raw.Data.Object.CheckoutSessID
	}
	return Event{Type: raw.Type, SessionID: id}, nil
}
