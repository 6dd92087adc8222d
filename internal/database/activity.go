// SkillSwap - Booking and Listing Marketplace API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillswap

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/tomtom215/skillswap/internal/models"
)

// SearchResultLimit caps SearchListings.
const SearchResultLimit = 50

// likeEscaper escapes LIKE wildcards so user input matches literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SearchListings returns live listings whose title, description, city or
// country contains query, case-insensitively, newest first.
func (db *DB) SearchListings(ctx context.Context, query string) ([]*models.Listing, error) {
	pattern := "%" + likeEscaper.Replace(query) + "%"
	return db.queryListings(ctx, listingSelect+`
		WHERE l.deleted_at IS NULL AND (
			l.title ILIKE ? ESCAPE '\' OR
			l.description ILIKE ? ESCAPE '\' OR
			l.city ILIKE ? ESCAPE '\' OR
			l.country ILIKE ? ESCAPE '\'
		)
		ORDER BY l.created_at DESC, l.id DESC
		LIMIT `+fmt.Sprint(SearchResultLimit),
		pattern, pattern, pattern, pattern)
}

// CreateSearchLog records a search.
func (db *DB) CreateSearchLog(ctx context.Context, s *models.SearchLog) error {
	s.CreatedAt = db.now()
	err := db.conn.QueryRowContext(ctx,
		`INSERT INTO search_logs (user_id, query, created_at) VALUES (?, ?, ?) RETURNING id`,
		s.UserID, s.Query, s.CreatedAt).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("insert search log: %w", translateError(err))
	}
	return nil
}

// ListSearchLogs returns userID's most recent searches.
func (db *DB) ListSearchLogs(ctx context.Context, userID int64, limit int) ([]*models.SearchLog, error) {
	if limit <= 0 {
		limit = SearchResultLimit
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, user_id, query, created_at FROM search_logs
		WHERE user_id = ? ORDER BY id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list search logs: %w", err)
	}
	defer closeWithLog(rows, "search log rows")

	out := make([]*models.SearchLog, 0)
	for rows.Next() {
		s := &models.SearchLog{}
		if err := rows.Scan(&s.ID, &s.UserID, &s.Query, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan search log: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanSessionAudit(row rowScanner) (*models.SessionAudit, error) {
	a := &models.SessionAudit{}
	var logout sql.NullTime
	if err := row.Scan(&a.ID, &a.UserID, &a.Role, &a.LoginTime, &logout); err != nil {
		return nil, err
	}
	a.LogoutTime = nullTimePtr(logout)
	return a, nil
}

// CreateSessionAudit records a login.
func (db *DB) CreateSessionAudit(ctx context.Context, a *models.SessionAudit) error {
	if a.LoginTime.IsZero() {
		a.LoginTime = db.now()
	}
	err := db.conn.QueryRowContext(ctx,
		`INSERT INTO session_audits (user_id, role, login_time) VALUES (?, ?, ?) RETURNING id`,
		a.UserID, a.Role, a.LoginTime).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("insert session audit: %w", translateError(err))
	}
	return nil
}

// GetSessionAudit returns one audit row.
func (db *DB) GetSessionAudit(ctx context.Context, id int64) (*models.SessionAudit, error) {
	a, err := scanSessionAudit(db.conn.QueryRowContext(ctx,
		`SELECT id, user_id, role, login_time, logout_time FROM session_audits WHERE id = ?`, id))
	if err != nil {
		return nil, translateError(err)
	}
	return a, nil
}

// CloseSessionAudit stamps logout_time and returns the updated row.
func (db *DB) CloseSessionAudit(ctx context.Context, id int64) (*models.SessionAudit, error) {
	if err := db.execOne(ctx, `UPDATE session_audits SET logout_time = ? WHERE id = ?`, db.now(), id); err != nil {
		return nil, err
	}
	return db.GetSessionAudit(ctx, id)
}
