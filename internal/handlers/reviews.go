// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"homepros/internal/apperr"
	"homepros/internal/middleware"
	"homepros/internal/models"
	"homepros/internal/store"
)

// Reviews handles review submission, owner replies and moderation.
type Reviews struct {
	responder
	reviews *store.ReviewStore
	users   *store.UserStore
}

// NewReviews creates the review handler group.
func NewReviews(reviews *store.ReviewStore, users *store.UserStore, showDetails bool) *Reviews {
	return &Reviews{
		responder: responder{showDetails: showDetails},
		reviews:   reviews,
		users:     users,
	}
}

type reviewBody struct {
	Rating  int    `json:"rating"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Create handles POST /providers/{id}/reviews. New reviews start PENDING
// and do not count toward the rating until approved.
func (h *Reviews) Create(w http.ResponseWriter, r *http.Request) {
	providerID, err := uuidParam(r, "id")
	if err != nil {
		h.fail(w, r, "create review", err)
		return
	}
	sess := middleware.SessionFromCtx(r.Context())

	var body reviewBody
	if err := decodeJSON(r, &body); err != nil {
		h.fail(w, r, "create review", err)
		return
	}
	if msg := validateReview(body.Title, body.Content); msg != "" {
		h.fail(w, r, "create review", apperr.Validation(msg))
		return
	}

	review, err := h.reviews.Create(r.Context(), providerID, sess.UserID, body.Rating,
		strings.TrimSpace(body.Title), strings.TrimSpace(body.Content))
	if err != nil {
		h.fail(w, r, "create review", err)
		return
	}
	h.ok(w, http.StatusCreated, envelope{"review": review})
}

type replyBody struct {
	Content string `json:"content"`
}

// Reply handles POST /reviews/{id}/reply by the provider's owner.
func (h *Reviews) Reply(w http.ResponseWriter, r *http.Request) {
	reviewID, err := uuidParam(r, "id")
	if err != nil {
		h.fail(w, r, "reply to review", err)
		return
	}
	sess := middleware.SessionFromCtx(r.Context())

	var body replyBody
	if err := decodeJSON(r, &body); err != nil {
		h.fail(w, r, "reply to review", err)
		return
	}
	if utf8.RuneCountInString(body.Content) > maxReplyLen {
		h.fail(w, r, "reply to review", apperr.Validation("Reply is too long (max 2,000 characters)"))
		return
	}

	user, err := h.users.FindByID(r.Context(), sess.UserID)
	if err != nil {
		h.fail(w, r, "reply to review", err)
		return
	}
	if user == nil {
		h.fail(w, r, "reply to review", apperr.Unauthorized("Authentication required"))
		return
	}
	// Admin replies need the second factor, like every other admin action.
	if user.IsAdmin() && !sess.TwoFADone {
		user.Role = models.RoleUser
	}

	reply, err := h.reviews.Reply(r.Context(), reviewID, user, body.Content)
	if err != nil {
		h.fail(w, r, "reply to review", err)
		return
	}
	h.ok(w, http.StatusCreated, envelope{"reply": reply})
}

// AdminList handles GET /admin/reviews?status=&search=&page=&perPage=.
func (h *Reviews) AdminList(w http.ResponseWriter, r *http.Request) {
	q := store.ReviewQuery{
		Search: strings.TrimSpace(r.URL.Query().Get("search")),
		Page:   store.NewPage(queryInt(r, "page", 1), queryInt(r, "perPage", store.DefaultPerPage)),
	}
	if raw := r.URL.Query().Get("status"); raw != "" && !strings.EqualFold(raw, "all") {
		status, ok := models.ParseReviewStatus(raw)
		if !ok {
			h.fail(w, r, "fetch reviews", apperr.Validation("status must be PENDING, APPROVED or REJECTED"))
			return
		}
		q.Status = &status
	}

	reviews, page, err := h.reviews.AdminList(r.Context(), q)
	if err != nil {
		h.fail(w, r, "fetch reviews", err)
		return
	}
	h.ok(w, http.StatusOK, envelope{"reviews": reviews, "pagination": page})
}

type statusBody struct {
	Status string `json:"status"`
}

// SetStatus handles PATCH /admin/reviews/{id}/status. Any status may move
// to any other.
func (h *Reviews) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		h.fail(w, r, "update review", err)
		return
	}
	var body statusBody
	if err := decodeJSON(r, &body); err != nil {
		h.fail(w, r, "update review", err)
		return
	}
	status, ok := models.ParseReviewStatus(body.Status)
	if !ok {
		h.fail(w, r, "update review", apperr.Validation("status must be PENDING, APPROVED or REJECTED"))
		return
	}

	review, err := h.reviews.SetStatus(r.Context(), id, status)
	if err != nil {
		h.fail(w, r, "update review", err)
		return
	}
	h.ok(w, http.StatusOK, envelope{"review": review})
}

// Delete handles DELETE /admin/reviews/{id}. The reply goes with it.
func (h *Reviews) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		h.fail(w, r, "delete review", err)
		return
	}
	if err := h.reviews.Delete(r.Context(), id); err != nil {
		h.fail(w, r, "delete review", err)
		return
	}
	h.ok(w, http.StatusOK, envelope{"message": "Review deleted"})
}
