// SkillSwap - Booking and Listing Marketplace API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillswap

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tomtom215/skillswap/internal/booking"
	"github.com/tomtom215/skillswap/internal/database"
	"github.com/tomtom215/skillswap/internal/logging"
	"github.com/tomtom215/skillswap/internal/models"
)

// ListListings handles GET /listings.
func (h *Handler) ListListings(w http.ResponseWriter, r *http.Request) {
	listings, err := h.db.ListListings(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if listings == nil {
		listings = []*models.Listing{}
	}
	respondJSON(w, http.StatusOK, listings)
}

// GetListing handles GET /listings/{id}.
func (h *Handler) GetListing(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	listing, err := h.db.GetListing(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		writeServiceError(w, r, models.NewNotFoundError("listing"))
		return
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, listing)
}

// CreateListing handles POST /listings. The caller becomes the owner.
func (h *Handler) CreateListing(w http.ResponseWriter, r *http.Request) {
	subject, ok := requireSubject(w, r)
	if !ok {
		return
	}
	var req CreateListingRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	if _, err := h.db.GetCategory(r.Context(), req.CategoryID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			writeServiceError(w, r, models.NewValidationError("categoryId does not reference a category"))
			return
		}
		writeServiceError(w, r, err)
		return
	}

	listing := &models.Listing{
		OwnerID:      subject.UserID,
		CategoryID:   req.CategoryID,
		Type:         strings.TrimSpace(req.Type),
		Title:        strings.TrimSpace(req.Title),
		Description:  strings.TrimSpace(req.Description),
		Availability: req.Availability,
		ImageURL:     strings.TrimSpace(req.ImageURL),
		Country:      strings.TrimSpace(req.Country),
		City:         strings.TrimSpace(req.City),
		Address:      strings.TrimSpace(req.Address),
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
	}
	if err := h.db.CreateListing(r.Context(), listing); err != nil {
		writeServiceError(w, r, fmt.Errorf("create listing: %w", err))
		return
	}

	created, err := h.db.GetListing(r.Context(), listing.ID)
	if err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Int64("listing_id", listing.ID).Msg("Failed to reload created listing")
		created = listing
	}
	logging.Ctx(r.Context()).Info().Int64("listing_id", listing.ID).Int64("owner_id", subject.UserID).Msg("Listing created")
	respondJSON(w, http.StatusCreated, created)
}

// DeleteListing handles DELETE /listings/{id}. Deleting a missing or
// already deleted listing succeeds.
func (h *Handler) DeleteListing(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	deleted, err := h.db.SoftDeleteListing(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if deleted {
		logging.Ctx(r.Context()).Info().Int64("listing_id", id).Msg("Listing deleted")
	}
	respondNoContent(w)
}

// CreateListingBooking handles POST /listings/{id}/bookings.
func (h *Handler) CreateListingBooking(w http.ResponseWriter, r *http.Request) {
	subject, ok := requireSubject(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var req ListingBookingRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	b, err := h.bookings.Create(r.Context(), subject, booking.CreateInput{
		ListingID:   id,
		ScheduledAt: req.ScheduledAt,
		Message:     req.Message,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, b)
}

// FavoriteListing handles POST /listings/{id}/favorite.
func (h *Handler) FavoriteListing(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.addFavorite(w, r, id)
}

// UnfavoriteListing handles DELETE /listings/{id}/favorite.
func (h *Handler) UnfavoriteListing(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.removeFavorite(w, r, id)
}
