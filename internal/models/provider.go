// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Provider represents a business listing.
type Provider struct {
	ID           uuid.UUID  `json:"id"`
	BusinessName string     `json:"businessName"`
	Slug         string     `json:"slug"`
	Description  string     `json:"description"`
	Phone        string     `json:"phone"`
	Email        string     `json:"email"`
	Address      string     `json:"address"`
	City         string     `json:"city"`
	State        string     `json:"state"`
	Zip          string     `json:"zip"`
	Website      *string    `json:"website"`
	OwnerUserID  *uuid.UUID `json:"ownerUserId"`
	ClaimedAt    *time.Time `json:"claimedAt"`
	IsVerified   bool       `json:"isVerified"`
	IsPremium    bool       `json:"isPremium"`
	IsFeatured   bool       `json:"isFeatured"`
	IsActive     bool       `json:"isActive"`
	SortOrder    int        `json:"sortOrder"`

	// Ratings imported from the places-search collaborator.
	ExternalRating      *float64 `json:"externalRating"`
	ExternalRatingCount *int     `json:"externalRatingCount"`
	ExternalPlaceID     *string  `json:"externalPlaceId"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Virtual fields computed on read.
	Rating          float64         `json:"rating"`
	ReviewCount     int             `json:"reviewCount"`
	PrimaryImage    string          `json:"image"`
	PrimaryCategory *Category       `json:"primaryCategory,omitempty"`
	Services        []Service       `json:"services,omitempty"`
	Images          []ProviderImage `json:"images,omitempty"`
	Reviews         []Review        `json:"reviews,omitempty"`
}

// IsClaimed reports whether a user owns this listing.
func (p *Provider) IsClaimed() bool {
	return p.OwnerUserID != nil
}

// Service links a provider to a category it works in.
type Service struct {
	ID          uuid.UUID `json:"id"`
	ProviderID  uuid.UUID `json:"providerId"`
	CategoryID  uuid.UUID `json:"categoryId"`
	Description string    `json:"description"`
	SortOrder   int       `json:"sortOrder"`
	CreatedAt   time.Time `json:"createdAt"`

	// Populated by joins.
	Category *Category `json:"category,omitempty"`
}

// ImageType distinguishes the profile picture from gallery shots.
type ImageType string

const (
	ImageProfile ImageType = "PROFILE"
	ImageGallery ImageType = "GALLERY"
	ImageCover   ImageType = "COVER"
)

// Valid reports whether t is a known image type.
func (t ImageType) Valid() bool {
	switch t {
	case ImageProfile, ImageGallery, ImageCover:
		return true
	}
	return false
}

// ProviderImage is a picture attached to a provider listing.
type ProviderImage struct {
	ID         uuid.UUID `json:"id"`
	ProviderID uuid.UUID `json:"providerId"`
	URL        string    `json:"url"`
	Type       ImageType `json:"type"`
	S3Key      *string   `json:"-"`
	SortOrder  int       `json:"sortOrder"`
	CreatedAt  time.Time `json:"createdAt"`
}
