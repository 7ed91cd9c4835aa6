// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// ClaimInvitation grants one email address the right to claim one provider
// until it expires or is used.
type ClaimInvitation struct {
	ID         uuid.UUID  `json:"id"`
	ProviderID uuid.UUID  `json:"providerId"`
	Email      string     `json:"email"`
	Token      string     `json:"-"`
	ExpiresAt  time.Time  `json:"expiresAt"`
	CreatedBy  uuid.UUID  `json:"createdBy"`
	UsedAt     *time.Time `json:"usedAt"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// Expired reports whether the invitation is past its expiry at now.
func (c *ClaimInvitation) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// Usable reports whether the invitation can still claim providerID at now.
func (c *ClaimInvitation) Usable(providerID uuid.UUID, now time.Time) bool {
	return c.UsedAt == nil && c.ProviderID == providerID && !c.Expired(now)
}
