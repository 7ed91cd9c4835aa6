// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification kinds.
const (
	NotifyProviderClaimed = "PROVIDER_CLAIMED"
	NotifyProviderCreated = "PROVIDER_CREATED"
	NotifyPaymentReceived = "PAYMENT_RECEIVED"
)

// Notification is a message for the admin inbox.
type Notification struct {
	ID         uuid.UUID  `json:"id"`
	Type       string     `json:"type"`
	Title      string     `json:"title"`
	Message    string     `json:"message"`
	ProviderID *uuid.UUID `json:"providerId"`
	UserID     *uuid.UUID `json:"userId"`
	IsRead     bool       `json:"isRead"`
	CreatedAt  time.Time  `json:"createdAt"`
}
