// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"homepros/internal/apperr"
	"homepros/internal/places"
	"homepros/internal/store"
)

// Platform serves statistics, admin notifications, places lookups and the
// health check.
type Platform struct {
	responder
	db            *sql.DB
	valkey        *redis.Client
	stats         *store.StatsStore
	notifications *store.NotificationStore
	places        places.Searcher
}

// NewPlatform creates the platform handler group.
func NewPlatform(db *sql.DB, valkey *redis.Client, stats *store.StatsStore,
	notifications *store.NotificationStore, searcher places.Searcher, showDetails bool) *Platform {
	return &Platform{
		responder:     responder{showDetails: showDetails},
		db:            db,
		valkey:        valkey,
		stats:         stats,
		notifications: notifications,
		places:        searcher,
	}
}

// metric is one labeled figure of the statistics panel.
type metric struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// Stats handles GET /stats. Figures are computed fresh on every request.
func (p *Platform) Stats(w http.ResponseWriter, r *http.Request) {
	s, err := p.stats.Get(r.Context())
	if err != nil {
		p.fail(w, r, "fetch statistics", err)
		return
	}

	rating := "No reviews yet"
	if s.ApprovedReviews > 0 {
		rating = fmt.Sprintf("%.1f", s.AverageRating)
	}
	p.ok(w, http.StatusOK, envelope{
		"stats": s,
		"metrics": []metric{
			{"activeProviders", "Local Pros", fmt.Sprintf("%d", s.ActiveProviders)},
			{"approvedReviews", "Verified Reviews", fmt.Sprintf("%d", s.ApprovedReviews)},
			{"averageRating", "Average Rating", rating},
			{"completedBookings", "Jobs Completed", fmt.Sprintf("%d", s.CompletedBookings)},
		},
	})
}

// Notifications handles GET /admin/notifications?unread=&limit=.
func (p *Platform) Notifications(w http.ResponseWriter, r *http.Request) {
	items, err := p.notifications.List(r.Context(), boolOr(queryBool(r, "unread"), false), queryInt(r, "limit", 0))
	if err != nil {
		p.fail(w, r, "fetch notifications", err)
		return
	}
	unread, err := p.notifications.UnreadCount(r.Context())
	if err != nil {
		p.fail(w, r, "fetch notifications", err)
		return
	}
	p.ok(w, http.StatusOK, envelope{"notifications": items, "unreadCount": unread})
}

// MarkNotificationRead handles POST /admin/notifications/{id}/read.
func (p *Platform) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		p.fail(w, r, "update notification", err)
		return
	}
	if err := p.notifications.MarkRead(r.Context(), id); err != nil {
		p.fail(w, r, "update notification", err)
		return
	}
	p.ok(w, http.StatusOK, nil)
}

// SearchPlaces handles GET /admin/places?query=.
func (p *Platform) SearchPlaces(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		p.fail(w, r, "search places", apperr.Validation("query is required"))
		return
	}

	results, err := p.places.Search(r.Context(), query)
	if errors.Is(err, places.ErrNotConfigured) {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "Places search is not configured"})
		return
	}
	if err != nil {
		p.fail(w, r, "search places", err)
		return
	}
	p.ok(w, http.StatusOK, envelope{"places": results})
}

// Health handles GET /health. PostgreSQL and Valkey are pinged in
// parallel.
func (p *Platform) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	var dbErr, valkeyErr error
	var g errgroup.Group
	g.Go(func() error {
		dbErr = p.db.PingContext(ctx)
		return nil
	})
	if p.valkey != nil {
		g.Go(func() error {
			valkeyErr = p.valkey.Ping(ctx).Err()
			return nil
		})
	}
	g.Wait()

	checks := map[string]string{"database": "ok", "valkey": "ok"}
	if dbErr != nil {
		checks["database"] = "unreachable"
		slog.Warn("health check failed", "component", "database", "error", dbErr)
	}
	if valkeyErr != nil {
		checks["valkey"] = "unreachable"
		slog.Warn("health check failed", "component", "valkey", "error", valkeyErr)
	}

	if dbErr != nil || valkeyErr != nil {
		writeJSON(w, http.StatusServiceUnavailable, envelope{"status": "unhealthy", "checks": checks})
		return
	}
	writeJSON(w, http.StatusOK, envelope{"status": "ok", "checks": checks})
}
