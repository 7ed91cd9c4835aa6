// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package places queries the external places-search service so admins can
// look up a business's address, public rating and photos before entering it.
package places

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrNotConfigured is returned when no API key was provided.
var ErrNotConfigured = errors.New("places search is not configured")

// fieldMask limits the response to the fields the admin form uses.
const fieldMask = "places.id,places.displayName,places.formattedAddress,places.rating,places.userRatingCount,places.photos"

// Place is one search hit.
type Place struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Address     string   `json:"address"`
	Rating      *float64 `json:"rating"`
	RatingCount int      `json:"ratingCount"`
	Photos      []string `json:"photos"`
}

// Searcher is the behaviour handlers depend on.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Place, error)
}

// Client calls the Places API (New) text search endpoint.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewClient creates a places client. An empty baseURL selects the public API.
func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = "https://places.googleapis.com/v1"
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Search runs a free-text query, e.g. "Dave's Plumbing Jacksonville".
func (c *Client) Search(ctx context.Context, query string) ([]Place, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	payload, err := json.Marshal(searchRequest{TextQuery: query})
	if err != nil {
		return nil, fmt.Errorf("places marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/places:searchText", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("places request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", fieldMask)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("places http: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("places read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("places API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var result searchResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("places unmarshal: %w", err)
	}

	out := make([]Place, 0, len(result.Places))
	for _, p := range result.Places {
		place := Place{
			ID:          p.ID,
			Name:        p.DisplayName.Text,
			Address:     p.FormattedAddress,
			Rating:      p.Rating,
			RatingCount: p.UserRatingCount,
			Photos:      make([]string, 0, len(p.Photos)),
		}
		for _, ph := range p.Photos {
			place.Photos = append(place.Photos, ph.Name)
		}
		out = append(out, place)
	}
	return out, nil
}

// --- Places API types ---

type searchRequest struct {
	TextQuery string `json:"textQuery"`
}

type searchResponse struct {
	Places []apiPlace `json:"places"`
}

type apiPlace struct {
	ID               string   `json:"id"`
	DisplayName      apiText  `json:"displayName"`
	FormattedAddress string   `json:"formattedAddress"`
	Rating           *float64 `json:"rating"`
	UserRatingCount  int      `json:"userRatingCount"`
	Photos           []struct {
		Name string `json:"name"`
	} `json:"photos"`
}

type apiText struct {
	Text string `json:"text"`
}
