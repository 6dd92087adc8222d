// SkillSwap - Booking and Listing Marketplace API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillswap

/*
database_schema.go - Database Schema Management

Tables:
  - users: accounts, bcrypt hash, password reset token (email and username UNIQUE)
  - categories: listing categories (slug UNIQUE, hard delete)
  - listings: skill offers with canonical availability JSON
  - bookings: requests for a listing slot; slot_key UNIQUE while live
  - favorites: (user_id, listing_id) primary key
  - notifications: per-user messages
  - search_logs: searches made by signed-in users
  - session_audits: login/logout history

Ids come from sequences. Referential integrity is enforced in the service
layer: DuckDB rewrites updates on rows referenced by a FOREIGN KEY as
delete+insert, which rejects ordinary soft-delete updates.

Timestamps are stored as TIMESTAMP in UTC and always supplied by the caller,
so no ICU extension is needed.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext bounds schema operations.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range tableCreationQueries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}

var tableCreationQueries = []string{
	`CREATE SEQUENCE IF NOT EXISTS seq_users START 1`,
	`CREATE SEQUENCE IF NOT EXISTS seq_categories START 1`,
	`CREATE SEQUENCE IF NOT EXISTS seq_listings START 1`,
	`CREATE SEQUENCE IF NOT EXISTS seq_bookings START 1`,
	`CREATE SEQUENCE IF NOT EXISTS seq_notifications START 1`,
	`CREATE SEQUENCE IF NOT EXISTS seq_search_logs START 1`,
	`CREATE SEQUENCE IF NOT EXISTS seq_session_audits START 1`,

	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT PRIMARY KEY DEFAULT nextval('seq_users'),
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'user',
		password_reset_token TEXT,
		password_reset_expires_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		deleted_at TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS categories (
		id BIGINT PRIMARY KEY DEFAULT nextval('seq_categories'),
		name TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE
	)`,

	`CREATE TABLE IF NOT EXISTS listings (
		id BIGINT PRIMARY KEY DEFAULT nextval('seq_listings'),
		owner_id BIGINT NOT NULL,
		category_id BIGINT NOT NULL,
		type TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT,
		availability TEXT,
		image_url TEXT,
		country TEXT,
		city TEXT,
		address TEXT NOT NULL,
		latitude DOUBLE,
		longitude DOUBLE,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		deleted_at TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS bookings (
		id BIGINT PRIMARY KEY DEFAULT nextval('seq_bookings'),
		listing_id BIGINT NOT NULL,
		user_id BIGINT NOT NULL,
		owner_id BIGINT NOT NULL,
		date TIMESTAMP NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		message TEXT,
		slot_key TEXT UNIQUE,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		deleted_at TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS favorites (
		user_id BIGINT NOT NULL,
		listing_id BIGINT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		PRIMARY KEY (user_id, listing_id)
	)`,

	`CREATE TABLE IF NOT EXISTS notifications (
		id BIGINT PRIMARY KEY DEFAULT nextval('seq_notifications'),
		user_id BIGINT NOT NULL,
		type TEXT NOT NULL,
		payload TEXT,
		is_read BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS search_logs (
		id BIGINT PRIMARY KEY DEFAULT nextval('seq_search_logs'),
		user_id BIGINT NOT NULL,
		query TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS session_audits (
		id BIGINT PRIMARY KEY DEFAULT nextval('seq_session_audits'),
		user_id BIGINT NOT NULL,
		role TEXT NOT NULL,
		login_time TIMESTAMP NOT NULL,
		logout_time TIMESTAMP
	)`,
}

func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range indexQueries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute index query: %s: %w", query, err)
		}
	}
	return nil
}

var indexQueries = []string{
	`CREATE INDEX IF NOT EXISTS idx_listings_owner ON listings(owner_id)`,
	`CREATE INDEX IF NOT EXISTS idx_listings_created ON listings(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_user ON bookings(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_owner ON bookings(owner_id)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_listing_date ON bookings(listing_id, date)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_search_logs_user ON search_logs(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_session_audits_user ON session_audits(user_id)`,
}
