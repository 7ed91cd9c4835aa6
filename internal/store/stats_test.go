// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"testing"

	"homepros/internal/models"
)

func TestStatsCountsApprovedAndCompletedOnly(t *testing.T) {
	db := testDB(t)
	s := NewStatsStore(db)
	reviews := NewReviewStore(db, testTxTimeout)
	ctx := context.Background()

	before, err := s.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	p := mustProvider(t, db, "Counted")
	u := mustUser(t, db, models.RoleUser)
	other := mustUser(t, db, models.RoleUser)

	approved, _ := reviews.Create(ctx, p.ID, u.ID, 5, "", "great")
	reviews.SetStatus(ctx, approved.ID, models.ReviewApproved)
	reviews.Create(ctx, p.ID, other.ID, 1, "", "pending")

	db.Exec(`INSERT INTO bookings (provider_id, user_id, status) VALUES ($1, $2, 'COMPLETED')`, p.ID, u.ID)
	db.Exec(`INSERT INTO bookings (provider_id, user_id, status) VALUES ($1, $2, 'CANCELLED')`, p.ID, u.ID)

	after, err := s.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if after.ActiveProviders != before.ActiveProviders+1 {
		t.Errorf("active providers %d -> %d", before.ActiveProviders, after.ActiveProviders)
	}
	if after.ApprovedReviews != before.ApprovedReviews+1 {
		t.Errorf("approved reviews %d -> %d, pending must not count", before.ApprovedReviews, after.ApprovedReviews)
	}
	if after.CompletedBookings != before.CompletedBookings+1 {
		t.Errorf("completed bookings %d -> %d", before.CompletedBookings, after.CompletedBookings)
	}
	if after.AverageRating < 1 || after.AverageRating > 5 {
		t.Errorf("average rating %v out of range", after.AverageRating)
	}
}

func TestNotificationStore(t *testing.T) {
	db := testDB(t)
	s := NewNotificationStore(db)
	ctx := context.Background()

	// Creating a provider records a notification.
	p := mustProvider(t, db, "Notified")

	list, err := s.List(ctx, true, 100)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var found *models.Notification
	for i := range list {
		if list[i].ProviderID != nil && *list[i].ProviderID == p.ID {
			found = &list[i]
		}
	}
	if found == nil {
		t.Fatal("expected an unread notification for the new provider")
	}

	if err := s.MarkRead(ctx, found.ID); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	list, _ = s.List(ctx, true, 100)
	for _, n := range list {
		if n.ID == found.ID {
			t.Error("read notification still listed as unread")
		}
	}
}
