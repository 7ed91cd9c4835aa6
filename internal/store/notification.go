// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"homepros/internal/apperr"
	"homepros/internal/models"
)

// NotificationStore reads and acknowledges admin notifications.
type NotificationStore struct {
	db *sql.DB
}

// NewNotificationStore creates a new NotificationStore.
func NewNotificationStore(db *sql.DB) *NotificationStore {
	return &NotificationStore{db: db}
}

const notificationColumns = `id, type, title, message, provider_id, user_id, is_read, created_at`

func insertNotification(ctx context.Context, q queryer, n models.Notification) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO notifications (type, title, message, provider_id, user_id)
		VALUES ($1, $2, $3, $4, $5)
	`, n.Type, n.Title, n.Message, n.ProviderID, n.UserID)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// List returns the newest notifications, optionally only unread ones.
func (s *NotificationStore) List(ctx context.Context, unreadOnly bool, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > MaxPerPage {
		limit = DefaultPerPage
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE NOT $1 OR NOT is_read
		ORDER BY created_at DESC
		LIMIT $2
	`, unreadOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	items := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(
			&n.ID, &n.Type, &n.Title, &n.Message, &n.ProviderID, &n.UserID, &n.IsRead, &n.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		items = append(items, n)
	}
	return items, rows.Err()
}

// UnreadCount returns the number of unread notifications.
func (s *NotificationStore) UnreadCount(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE NOT is_read`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return n, nil
}

// MarkRead flags a notification as read.
func (s *NotificationStore) MarkRead(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("notification")
	}
	return nil
}
