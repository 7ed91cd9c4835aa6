// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus tracks a checkout through the payment collaborator.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
	PaymentRefunded  PaymentStatus = "REFUNDED"
)

// PlanPremium is the only product sold today: a premium listing upgrade.
const PlanPremium = "PREMIUM"

// Payment records one hosted-checkout attempt.
type Payment struct {
	ID          uuid.UUID     `json:"id"`
	ProviderID  *uuid.UUID    `json:"providerId"`
	UserID      uuid.UUID     `json:"userId"`
	Plan        string        `json:"plan"`
	AmountCents int64         `json:"amountCents"`
	Currency    string        `json:"currency"`
	Status      PaymentStatus `json:"status"`
	ExternalID  *string       `json:"externalId"`
	CheckoutURL *string       `json:"checkoutUrl"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}
