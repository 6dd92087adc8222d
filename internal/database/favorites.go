// SkillSwap - Booking and Listing Marketplace API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillswap

package database

import (
	"context"
	"fmt"

	"github.com/tomtom215/skillswap/internal/models"
)

// AddFavorite records that userID saved listingID. Adding twice keeps the
// original row.
func (db *DB) AddFavorite(ctx context.Context, userID, listingID int64) (*models.Favorite, error) {
	if _, err := db.conn.ExecContext(ctx, `
		INSERT INTO favorites (user_id, listing_id, created_at) VALUES (?, ?, ?)
		ON CONFLICT DO NOTHING`, userID, listingID, db.now()); err != nil {
		return nil, fmt.Errorf("insert favorite: %w", translateError(err))
	}

	f := &models.Favorite{}
	err := db.conn.QueryRowContext(ctx,
		`SELECT user_id, listing_id, created_at FROM favorites WHERE user_id = ? AND listing_id = ?`,
		userID, listingID).Scan(&f.UserID, &f.ListingID, &f.CreatedAt)
	if err != nil {
		return nil, translateError(err)
	}
	return f, nil
}

// RemoveFavorite deletes the favorite if present.
func (db *DB) RemoveFavorite(ctx context.Context, userID, listingID int64) error {
	if _, err := db.conn.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = ? AND listing_id = ?`, userID, listingID); err != nil {
		return fmt.Errorf("delete favorite: %w", err)
	}
	return nil
}

// ListFavorites returns userID's favorites on live listings, newest first,
// each with its listing.
func (db *DB) ListFavorites(ctx context.Context, userID int64) ([]*models.Favorite, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT listing_id, created_at FROM favorites WHERE user_id = ? ORDER BY created_at DESC, listing_id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}

	var favs []*models.Favorite
	for rows.Next() {
		f := &models.Favorite{UserID: userID}
		if err := rows.Scan(&f.ListingID, &f.CreatedAt); err != nil {
			closeQuietly(rows)
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		favs = append(favs, f)
	}
	if err := rows.Err(); err != nil {
		closeQuietly(rows)
		return nil, err
	}
	closeWithLog(rows, "favorite rows")

	out := make([]*models.Favorite, 0, len(favs))
	for _, f := range favs {
		l, err := db.GetListing(ctx, f.ListingID)
		if err != nil {
			continue // listing deleted since it was saved
		}
		f.Listing = l
		out = append(out, f)
	}
	return out, nil
}
