// SkillSwap - Booking and Listing Marketplace API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillswap

package models

import (
	"strings"
	"time"
)

// Listing is an offer or request for a skill.
type Listing struct {
	ID           int64        `json:"id"`
	OwnerID      int64        `json:"ownerId"`
	CategoryID   int64        `json:"categoryId"`
	Type         string       `json:"type"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Availability Availability `json:"availability"`
	ImageURL     string       `json:"imageUrl"`
	Country      string       `json:"country"`
	City         string       `json:"city"`
	Address      string       `json:"address"`
	Latitude     *float64     `json:"latitude,omitempty"`
	Longitude    *float64     `json:"longitude,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
	DeletedAt    *time.Time   `json:"deletedAt,omitempty"`

	// Populated by list and get queries.
	Owner         *PublicUser `json:"owner,omitempty"`
	Category      *Category   `json:"category,omitempty"`
	FavoriteCount int64       `json:"favoriteCount"`
}

// IsDeleted reports whether the listing has been soft-deleted.
func (l *Listing) IsDeleted() bool { return l.DeletedAt != nil }

// Category groups listings. Categories are deleted physically.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Normalize trims the name and lower-cases the slug.
func (c *Category) Normalize() {
	c.Name = strings.TrimSpace(c.Name)
	c.Slug = strings.ToLower(strings.TrimSpace(c.Slug))
}

// Favorite marks a listing as saved by a user.
type Favorite struct {
	UserID    int64     `json:"userId"`
	ListingID int64     `json:"listingId"`
	CreatedAt time.Time `json:"createdAt"`

	Listing *Listing `json:"listing,omitempty"`
}
