// SkillSwap - Booking and Listing Marketplace API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillswap

package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tomtom215/skillswap/internal/models"
)

func scanNotification(row rowScanner) (*models.Notification, error) {
	n := &models.Notification{}
	var payload sql.NullString
	if err := row.Scan(&n.ID, &n.UserID, &n.Type, &payload, &n.IsRead, &n.CreatedAt); err != nil {
		return nil, err
	}
	n.Payload = payload.String
	return n, nil
}

// CreateNotification inserts n and fills in id and created time.
func (db *DB) CreateNotification(ctx context.Context, n *models.Notification) error {
	n.CreatedAt = db.now()
	err := db.conn.QueryRowContext(ctx, `
		INSERT INTO notifications (user_id, type, payload, is_read, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`,
		n.UserID, n.Type, nullString(n.Payload), n.IsRead, n.CreatedAt).Scan(&n.ID)
	if err != nil {
		return fmt.Errorf("insert notification: %w", translateError(err))
	}
	return nil
}

// GetNotification returns one notification.
func (db *DB) GetNotification(ctx context.Context, id int64) (*models.Notification, error) {
	n, err := scanNotification(db.conn.QueryRowContext(ctx,
		`SELECT id, user_id, type, payload, is_read, created_at FROM notifications WHERE id = ?`, id))
	if err != nil {
		return nil, translateError(err)
	}
	return n, nil
}

// ListNotifications returns userID's notifications, newest first.
func (db *DB) ListNotifications(ctx context.Context, userID int64) ([]*models.Notification, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, user_id, type, payload, is_read, created_at
		FROM notifications WHERE user_id = ? ORDER BY id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer closeWithLog(rows, "notification rows")

	out := make([]*models.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkNotificationRead sets is_read and returns the updated row.
func (db *DB) MarkNotificationRead(ctx context.Context, id int64) (*models.Notification, error) {
	if err := db.execOne(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return db.GetNotification(ctx, id)
}
