// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"homepros/internal/catalog"
)

// Stats are the site-wide counters shown on the home page.
type Stats struct {
	ActiveProviders   int     `json:"activeProviders"`
	ApprovedReviews   int     `json:"approvedReviews"`
	AverageRating     float64 `json:"averageRating"`
	CompletedBookings int     `json:"completedBookings"`
	Categories        int     `json:"categories"`
}

// StatsStore computes platform statistics.
type StatsStore struct {
	db *sql.DB
}

// NewStatsStore creates a new StatsStore.
func NewStatsStore(db *sql.DB) *StatsStore {
	return &StatsStore{db: db}
}

// Get computes every counter fresh in one round trip.
func (s *StatsStore) Get(ctx context.Context) (*Stats, error) {
	var st Stats
	var ratingSum int64
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM providers WHERE is_active),
			(SELECT COUNT(*) FROM reviews WHERE status = 'APPROVED'),
			(SELECT COALESCE(SUM(rating), 0) FROM reviews WHERE status = 'APPROVED'),
			(SELECT COUNT(*) FROM bookings WHERE status = 'COMPLETED'),
			(SELECT COUNT(*) FROM categories WHERE is_active)
	`).Scan(&st.ActiveProviders, &st.ApprovedReviews, &ratingSum, &st.CompletedBookings, &st.Categories)
	if err != nil {
		return nil, fmt.Errorf("platform stats: %w", err)
	}
	st.AverageRating = catalog.RatingFromTotals(ratingSum, st.ApprovedReviews)
	return &st, nil
}
