// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ReviewStatus is the moderation state of a review.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "PENDING"
	ReviewApproved ReviewStatus = "APPROVED"
	ReviewRejected ReviewStatus = "REJECTED"
)

// ParseReviewStatus accepts any casing of the three moderation states.
func ParseReviewStatus(s string) (ReviewStatus, bool) {
	switch st := ReviewStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case ReviewPending, ReviewApproved, ReviewRejected:
		return st, true
	}
	return "", false
}

const (
	MinRating = 1
	MaxRating = 5
)

// Review is a rating plus free text left by a user about a provider.
type Review struct {
	ID         uuid.UUID    `json:"id"`
	ProviderID uuid.UUID    `json:"providerId"`
	UserID     uuid.UUID    `json:"userId"`
	Rating     int          `json:"rating"`
	Title      string       `json:"title"`
	Content    string       `json:"content"`
	Status     ReviewStatus `json:"status"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`

	// Populated by joins.
	Reply        *ReviewReply `json:"reply,omitempty"`
	ReviewerName string       `json:"reviewerName,omitempty"`
	ReviewerMail string       `json:"reviewerEmail,omitempty"`
	ProviderName string       `json:"providerName,omitempty"`
}

// IsApproved reports whether the review counts toward ratings.
func (r *Review) IsApproved() bool {
	return r.Status == ReviewApproved
}

// ReviewReply is the provider's single public response to a review.
type ReviewReply struct {
	ID        uuid.UUID `json:"id"`
	ReviewID  uuid.UUID `json:"reviewId"`
	UserID    uuid.UUID `json:"userId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
