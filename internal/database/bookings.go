// SkillSwap - Booking and Listing Marketplace API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillswap

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/skillswap/internal/models"
)

const bookingColumns = `id, listing_id, user_id, owner_id, date, status, message, created_at, updated_at, deleted_at`

func scanBooking(row rowScanner) (*models.Booking, error) {
	b := &models.Booking{}
	var message sql.NullString
	var deleted sql.NullTime
	if err := row.Scan(&b.ID, &b.ListingID, &b.UserID, &b.OwnerID, &b.Date, &b.Status,
		&message, &b.CreatedAt, &b.UpdatedAt, &deleted); err != nil {
		return nil, err
	}
	b.Date = b.Date.UTC()
	b.Message = message.String
	b.DeletedAt = nullTimePtr(deleted)
	return b, nil
}

// BookingFilter selects bookings for ListBookings. A zero ParticipantID
// returns every live booking.
type BookingFilter struct {
	// ParticipantID matches bookings where the user is requester or owner.
	ParticipantID int64
}

// CreateBooking inserts b and sets its slot key. A live booking already
// holding the same (listing, date) returns ErrUniqueViolation.
func (db *DB) CreateBooking(ctx context.Context, b *models.Booking) error {
	now := db.now()
	b.Date = b.Date.UTC().Truncate(time.Millisecond)
	err := db.conn.QueryRowContext(ctx, `
		INSERT INTO bookings (listing_id, user_id, owner_id, date, status, message, slot_key, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		b.ListingID, b.UserID, b.OwnerID, b.Date, b.Status, nullString(b.Message),
		models.SlotKey(b.ListingID, b.Date), now, now,
	).Scan(&b.ID)
	if err != nil {
		return fmt.Errorf("insert booking: %w", translateError(err))
	}
	b.CreatedAt, b.UpdatedAt = now, now
	return nil
}

// GetBooking returns a live booking.
func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	b, err := scanBooking(db.conn.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ? AND deleted_at IS NULL`, id))
	if err != nil {
		return nil, translateError(err)
	}
	return b, nil
}

// LiveBookingExists reports whether a live booking other than excludeID holds
// (listingID, date). Pass excludeID 0 to consider every booking.
func (db *DB) LiveBookingExists(ctx context.Context, listingID int64, date time.Time, excludeID int64) (bool, error) {
	var id int64
	err := db.conn.QueryRowContext(ctx, `
		SELECT id FROM bookings
		WHERE slot_key = ? AND deleted_at IS NULL AND id <> ?
		LIMIT 1`, models.SlotKey(listingID, date), excludeID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check booking slot: %w", err)
	}
	return true, nil
}

// UpdateBooking writes listing, owner, date and status back and refreshes
// the slot key. Moving onto a taken slot returns ErrUniqueViolation.
func (db *DB) UpdateBooking(ctx context.Context, b *models.Booking) error {
	now := db.now()
	b.Date = b.Date.UTC().Truncate(time.Millisecond)

	current, err := db.GetBooking(ctx, b.ID)
	if err != nil {
		return err
	}

	sets := []string{"status = ?", "updated_at = ?"}
	args := []any{b.Status, now}
	// Only touch the indexed columns when the slot actually moves.
	if current.ListingID != b.ListingID || !current.Date.Equal(b.Date) || current.OwnerID != b.OwnerID {
		sets = append(sets, "listing_id = ?", "owner_id = ?", "date = ?", "slot_key = ?")
		args = append(args, b.ListingID, b.OwnerID, b.Date, models.SlotKey(b.ListingID, b.Date))
	}
	args = append(args, b.ID)

	query := `UPDATE bookings SET ` + strings.Join(sets, ", ") + ` WHERE id = ? AND deleted_at IS NULL`
	if err := db.execOne(ctx, query, args...); err != nil {
		return fmt.Errorf("update booking: %w", err)
	}
	b.UpdatedAt = now
	return nil
}

// SoftDeleteBooking marks a live booking deleted and frees its slot. It
// reports false when the booking was missing or already deleted.
func (db *DB) SoftDeleteBooking(ctx context.Context, id int64) (bool, error) {
	now := db.now()
	res, err := db.conn.ExecContext(ctx,
		`UPDATE bookings SET deleted_at = ?, updated_at = ?, slot_key = NULL WHERE id = ? AND deleted_at IS NULL`,
		now, now, id)
	if err != nil {
		return false, fmt.Errorf("soft delete booking: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListBookings returns live bookings, newest id first.
func (db *DB) ListBookings(ctx context.Context, f BookingFilter) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE deleted_at IS NULL`
	var args []any
	if f.ParticipantID > 0 {
		query += ` AND (user_id = ? OR owner_id = ?)`
		args = append(args, f.ParticipantID, f.ParticipantID)
	}
	query += ` ORDER BY id DESC`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer closeWithLog(rows, "booking rows")

	out := make([]*models.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
