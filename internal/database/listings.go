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

// listingSelect joins owner, category and favorite count. Callers append
// WHERE / ORDER BY clauses referring to l.*.
const listingSelect = `
	SELECT l.id, l.owner_id, l.category_id, l.type, l.title, l.description,
		l.availability, l.image_url, l.country, l.city, l.address,
		l.latitude, l.longitude, l.created_at, l.updated_at, l.deleted_at,
		u.username, c.name, c.slug,
		(SELECT COUNT(*) FROM favorites f WHERE f.listing_id = l.id) AS favorite_count
	FROM listings l
	LEFT JOIN users u ON u.id = l.owner_id
	LEFT JOIN categories c ON c.id = l.category_id`

func scanListing(row rowScanner) (*models.Listing, error) {
	l := &models.Listing{}
	var description, availability, imageURL, country, city sql.NullString
	var lat, lng sql.NullFloat64
	var deleted sql.NullTime
	var ownerName, catName, catSlug sql.NullString

	if err := row.Scan(&l.ID, &l.OwnerID, &l.CategoryID, &l.Type, &l.Title, &description,
		&availability, &imageURL, &country, &city, &l.Address,
		&lat, &lng, &l.CreatedAt, &l.UpdatedAt, &deleted,
		&ownerName, &catName, &catSlug, &l.FavoriteCount); err != nil {
		return nil, err
	}

	l.Description = description.String
	// Rows written before normalization may still hold unparsable entries.
	l.Availability = models.ReadAvailability(availability.String)
	l.ImageURL = imageURL.String
	l.Country = country.String
	l.City = city.String
	if lat.Valid {
		l.Latitude = &lat.Float64
	}
	if lng.Valid {
		l.Longitude = &lng.Float64
	}
	l.DeletedAt = nullTimePtr(deleted)
	if ownerName.Valid {
		l.Owner = &models.PublicUser{ID: l.OwnerID, Username: ownerName.String}
	}
	if catName.Valid {
		l.Category = &models.Category{ID: l.CategoryID, Name: catName.String, Slug: catSlug.String}
	}
	return l, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

// CreateListing inserts l with its availability in canonical form.
func (db *DB) CreateListing(ctx context.Context, l *models.Listing) error {
	now := db.now()
	err := db.conn.QueryRowContext(ctx, `
		INSERT INTO listings (owner_id, category_id, type, title, description, availability,
			image_url, country, city, address, latitude, longitude, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		l.OwnerID, l.CategoryID, l.Type, l.Title, nullString(l.Description),
		nullString(l.Availability.Encode()), nullString(l.ImageURL), nullString(l.Country),
		nullString(l.City), l.Address, nullFloat(l.Latitude), nullFloat(l.Longitude), now, now,
	).Scan(&l.ID)
	if err != nil {
		return fmt.Errorf("insert listing: %w", translateError(err))
	}
	l.CreatedAt, l.UpdatedAt = now, now
	return nil
}

// GetListing returns a live listing with owner, category and favorite count.
func (db *DB) GetListing(ctx context.Context, id int64) (*models.Listing, error) {
	l, err := scanListing(db.conn.QueryRowContext(ctx, listingSelect+` WHERE l.id = ? AND l.deleted_at IS NULL`, id))
	if err != nil {
		return nil, translateError(err)
	}
	return l, nil
}

// ListListings returns live listings, newest id first.
func (db *DB) ListListings(ctx context.Context) ([]*models.Listing, error) {
	return db.queryListings(ctx, listingSelect+` WHERE l.deleted_at IS NULL ORDER BY l.id DESC`)
}

// ListListingsWithLocation returns live listings that have coordinates. The
// map generator reads them.
func (db *DB) ListListingsWithLocation(ctx context.Context) ([]*models.Listing, error) {
	return db.queryListings(ctx, listingSelect+`
		WHERE l.deleted_at IS NULL AND l.latitude IS NOT NULL AND l.longitude IS NOT NULL
		ORDER BY l.id`)
}

func (db *DB) queryListings(ctx context.Context, query string, args ...any) ([]*models.Listing, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query listings: %w", err)
	}
	defer closeWithLog(rows, "listing rows")

	out := make([]*models.Listing, 0)
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// SoftDeleteListing marks a live listing deleted. It reports false when the
// listing was missing or already deleted.
func (db *DB) SoftDeleteListing(ctx context.Context, id int64) (bool, error) {
	now := db.now()
	res, err := db.conn.ExecContext(ctx,
		`UPDATE listings SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`, now, now, id)
	if err != nil {
		return false, fmt.Errorf("soft delete listing: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
