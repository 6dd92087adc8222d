// SkillSwap - Booking and Listing Marketplace API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillswap

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/skillswap/internal/models"
)

const userColumns = `id, username, email, password_hash, role, password_reset_token,
	password_reset_expires_at, created_at, updated_at, deleted_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	var token sql.NullString
	var expires, deleted sql.NullTime
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &token,
		&expires, &u.CreatedAt, &u.UpdatedAt, &deleted); err != nil {
		return nil, err
	}
	if token.Valid {
		u.PasswordResetToken = &token.String
	}
	u.PasswordResetExpires = nullTimePtr(expires)
	u.DeletedAt = nullTimePtr(deleted)
	return u, nil
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

// CreateUser inserts u and fills in its id and timestamps. A taken email or
// username returns ErrUniqueViolation.
func (db *DB) CreateUser(ctx context.Context, u *models.User) error {
	now := db.now()
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	err := db.conn.QueryRowContext(ctx, `
		INSERT INTO users (username, email, password_hash, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`,
		u.Username, u.Email, u.PasswordHash, u.Role, now, now).Scan(&u.ID)
	if err != nil {
		return fmt.Errorf("insert user: %w", translateError(err))
	}
	u.CreatedAt, u.UpdatedAt = now, now
	return nil
}

// GetUserByID returns the user including soft-deleted accounts.
func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		return nil, translateError(err)
	}
	return u, nil
}

// GetUserByEmail returns the user including soft-deleted accounts, since
// email uniqueness spans them.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if err != nil {
		return nil, translateError(err)
	}
	return u, nil
}

// GetUserByUsername returns the user including soft-deleted accounts.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username))
	if err != nil {
		return nil, translateError(err)
	}
	return u, nil
}

// GetUserByResetToken returns the live user holding token if it has not expired at now.
func (db *DB) GetUserByResetToken(ctx context.Context, token string, now time.Time) (*models.User, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users
		WHERE password_reset_token = ? AND password_reset_expires_at > ? AND deleted_at IS NULL`,
		token, now.UTC()))
	if err != nil {
		return nil, translateError(err)
	}
	return u, nil
}

// SetPasswordResetToken stores a reset token and its expiry.
func (db *DB) SetPasswordResetToken(ctx context.Context, id int64, token string, expires time.Time) error {
	return db.execOne(ctx, `
		UPDATE users SET password_reset_token = ?, password_reset_expires_at = ?, updated_at = ?
		WHERE id = ?`, token, expires.UTC(), db.now(), id)
}

// UpdatePassword replaces the hash and clears any reset token.
func (db *DB) UpdatePassword(ctx context.Context, id int64, hash string) error {
	return db.execOne(ctx, `
		UPDATE users SET password_hash = ?, password_reset_token = NULL,
			password_reset_expires_at = NULL, updated_at = ?
		WHERE id = ?`, hash, db.now(), id)
}

// SetUserRole changes a user's role.
func (db *DB) SetUserRole(ctx context.Context, id int64, role string) (*models.User, error) {
	if err := db.execOne(ctx, `UPDATE users SET role = ?, updated_at = ? WHERE id = ?`, role, db.now(), id); err != nil {
		return nil, err
	}
	return db.GetUserByID(ctx, id)
}

// SoftDeleteUser marks a live user deleted. It reports false when the user
// was missing or already deleted.
func (db *DB) SoftDeleteUser(ctx context.Context, id int64) (bool, error) {
	now := db.now()
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`, now, now, id)
	if err != nil {
		return false, fmt.Errorf("soft delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// execOne runs an UPDATE that must touch exactly one row.
func (db *DB) execOne(ctx context.Context, query string, args ...any) error {
	res, err := db.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return translateError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
