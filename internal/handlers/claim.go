// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"homepros/internal/apperr"
	"homepros/internal/middleware"
	"homepros/internal/session"
	"homepros/internal/store"
)

// Claims implements the claim-a-business workflow.
type Claims struct {
	responder
	claims    *store.ClaimStore
	providers *store.ProviderStore
	users     *store.UserStore
	sessions  *session.Store
	baseURL   string
	tokenTTL  time.Duration
}

// NewClaims creates the claim handler group. baseURL prefixes the claim
// links handed to admins.
func NewClaims(claims *store.ClaimStore, providers *store.ProviderStore, users *store.UserStore,
	sessions *session.Store, baseURL string, tokenTTL time.Duration, showDetails bool) *Claims {
	return &Claims{
		responder: responder{showDetails: showDetails},
		claims:    claims,
		providers: providers,
		users:     users,
		sessions:  sessions,
		baseURL:   strings.TrimRight(baseURL, "/"),
		tokenTTL:  tokenTTL,
	}
}

// Check handles GET /providers/{id}/claim?token=. It reports whether
// the provider can be claimed and, when a token is given, whether the
// token is valid for it.
func (c *Claims) Check(w http.ResponseWriter, r *http.Request) {
	p, err := c.providers.FindDetail(r.Context(), chi.URLParam(r, "id"), true)
	if err != nil {
		c.fail(w, r, "check claim", err)
		return
	}
	if p == nil {
		c.fail(w, r, "check claim", apperr.NotFound("provider"))
		return
	}
	if p.IsClaimed() {
		c.fail(w, r, "check claim", apperr.ErrAlreadyClaimed)
		return
	}

	method := "email"
	if token := strings.TrimSpace(r.URL.Query().Get("token")); token != "" {
		if err := c.claims.CheckInvitation(r.Context(), p.ID, token); err != nil {
			c.fail(w, r, "check claim", err)
			return
		}
		method = "token"
	}

	c.ok(w, http.StatusOK, envelope{
		"provider": envelope{
			"id":           p.ID,
			"businessName": p.BusinessName,
			"slug":         p.Slug,
			"image":        p.PrimaryImage,
		},
		"claimable": true,
		"method":    method,
	})
}

type claimBody struct {
	UserID     string `json:"userId"`
	ClaimToken string `json:"claimToken"`
}

// Claim handles POST /providers/{id}/claim. The signed-in user claims the
// provider with a claim token or by matching the provider's email.
func (c *Claims) Claim(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		c.fail(w, r, "claim provider", err)
		return
	}
	sess := middleware.SessionFromCtx(r.Context())

	var body claimBody
	if err := decodeJSON(r, &body); err != nil {
		c.fail(w, r, "claim provider", err)
		return
	}
	if body.UserID != "" {
		uid, err := parseUUID(body.UserID, "userId")
		if err != nil {
			c.fail(w, r, "claim provider", err)
			return
		}
		if uid != sess.UserID {
			c.fail(w, r, "claim provider", apperr.Forbidden("you can only claim a provider for your own account"))
			return
		}
	}

	p, err := c.claims.Claim(r.Context(), store.ClaimRequest{
		ProviderID: id,
		UserID:     sess.UserID,
		Token:      strings.TrimSpace(body.ClaimToken),
	})
	if err != nil {
		c.fail(w, r, "claim provider", err)
		return
	}

	// The stored role changed inside the claim transaction; mirror it in
	// the session so provider-only routes work without signing in again.
	if user, err := c.users.FindByID(r.Context(), sess.UserID); err == nil && user != nil {
		sess.Role = user.Role
		if err := c.sessions.Update(r.Context(), r, sess); err != nil {
			slog.Warn("session role refresh failed", "error", err, "user_id", sess.UserID)
		}
	}

	slog.Info("provider claimed", "provider_id", p.ID, "user_id", sess.UserID)
	c.ok(w, http.StatusOK, envelope{"provider": p})
}

type claimLinkBody struct {
	Email string `json:"email"`
}

// IssueLink handles POST /admin/providers/{id}/claim-link. It stores a
// single-use token for email and returns the link to send.
func (c *Claims) IssueLink(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		c.fail(w, r, "create claim link", err)
		return
	}
	sess := middleware.SessionFromCtx(r.Context())

	var body claimLinkBody
	if err := decodeJSON(r, &body); err != nil {
		c.fail(w, r, "create claim link", err)
		return
	}
	if !validEmail(body.Email) {
		c.fail(w, r, "create claim link", apperr.Validation("a valid email address is required"))
		return
	}

	inv, err := c.claims.IssueInvitation(r.Context(), id, body.Email, sess.UserID, c.tokenTTL)
	if err != nil {
		c.fail(w, r, "create claim link", err)
		return
	}

	link := fmt.Sprintf("%s/providers/%s/claim?token=%s", c.baseURL, id, url.QueryEscape(inv.Token))
	slog.Info("claim link issued", "provider_id", id, "expires_at", inv.ExpiresAt)
	c.ok(w, http.StatusCreated, envelope{
		"token":     inv.Token,
		"url":       link,
		"email":     inv.Email,
		"expiresAt": inv.ExpiresAt,
	})
}
