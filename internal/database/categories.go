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

// ListCategories returns all categories ordered by name.
func (db *DB) ListCategories(ctx context.Context) ([]*models.Category, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id, name, slug FROM categories ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer closeWithLog(rows, "category rows")

	out := make([]*models.Category, 0)
	for rows.Next() {
		c := &models.Category{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetCategory returns one category.
func (db *DB) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	c := &models.Category{}
	err := db.conn.QueryRowContext(ctx, `SELECT id, name, slug FROM categories WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Slug)
	if err != nil {
		return nil, translateError(err)
	}
	return c, nil
}

// CreateCategory inserts c. A duplicate slug returns ErrUniqueViolation.
func (db *DB) CreateCategory(ctx context.Context, c *models.Category) error {
	err := db.conn.QueryRowContext(ctx,
		`INSERT INTO categories (name, slug) VALUES (?, ?) RETURNING id`, c.Name, c.Slug).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("insert category: %w", translateError(err))
	}
	return nil
}

// UpdateCategory overwrites name and slug.
func (db *DB) UpdateCategory(ctx context.Context, c *models.Category) error {
	if err := db.execOne(ctx, `UPDATE categories SET name = ?, slug = ? WHERE id = ?`, c.Name, c.Slug, c.ID); err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

// DeleteCategory removes the row. It reports false when nothing was deleted.
func (db *DB) DeleteCategory(ctx context.Context, id int64) (bool, error) {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete category: %w", translateError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
