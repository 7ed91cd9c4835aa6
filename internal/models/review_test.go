// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestParseReviewStatus(t *testing.T) {
	tests := []struct {
		in     string
		want   ReviewStatus
		wantOK bool
	}{
		{"PENDING", ReviewPending, true},
		{"approved", ReviewApproved, true},
		{" Rejected ", ReviewRejected, true},
		{"DELETED", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseReviewStatus(tt.in)
		assert.Equal(t, tt.wantOK, ok, "ParseReviewStatus(%q) ok", tt.in)
		assert.Equal(t, tt.want, got, "ParseReviewStatus(%q)", tt.in)
	}
}

func TestClaimInvitationUsable(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	providerID := uuid.New()
	used := now.Add(-time.Hour)

	inv := ClaimInvitation{ProviderID: providerID, ExpiresAt: now.Add(time.Hour)}
	assert.True(t, inv.Usable(providerID, now))
	assert.False(t, inv.Usable(uuid.New(), now), "other provider")

	expired := inv
	expired.ExpiresAt = now
	assert.True(t, expired.Expired(now), "expiry instant is already expired")
	assert.False(t, expired.Usable(providerID, now))

	spent := inv
	spent.UsedAt = &used
	assert.False(t, spent.Usable(providerID, now), "used invitations cannot be reused")
}

func TestImageTypeValid(t *testing.T) {
	assert.True(t, ImageProfile.Valid())
	assert.True(t, ImageGallery.Valid())
	assert.True(t, ImageCover.Valid())
	assert.False(t, ImageType("profile").Valid())
}
