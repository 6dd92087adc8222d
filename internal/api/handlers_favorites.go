// SkillSwap - Booking and Listing Marketplace API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillswap

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/skillswap/internal/database"
	"github.com/tomtom215/skillswap/internal/models"
)

// ListFavorites handles GET /favorites.
func (h *Handler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	subject, ok := requireSubject(w, r)
	if !ok {
		return
	}
	favorites, err := h.db.ListFavorites(r.Context(), subject.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if favorites == nil {
		favorites = []*models.Favorite{}
	}
	respondJSON(w, http.StatusOK, favorites)
}

// AddFavorite handles POST /favorites.
func (h *Handler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	var req FavoriteRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	h.addFavorite(w, r, req.ListingID)
}

// RemoveFavorite handles DELETE /favorites/{listingId}.
func (h *Handler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "listingId")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.removeFavorite(w, r, id)
}

// addFavorite upserts the caller's favorite on a live listing.
func (h *Handler) addFavorite(w http.ResponseWriter, r *http.Request, listingID int64) {
	subject, ok := requireSubject(w, r)
	if !ok {
		return
	}
	if _, err := h.db.GetListing(r.Context(), listingID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			err = models.NewNotFoundError("listing")
		}
		writeServiceError(w, r, err)
		return
	}

	fav, err := h.db.AddFavorite(r.Context(), subject.UserID, listingID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, fav)
}

// removeFavorite deletes the caller's favorite. Missing favorites succeed.
func (h *Handler) removeFavorite(w http.ResponseWriter, r *http.Request, listingID int64) {
	subject, ok := requireSubject(w, r)
	if !ok {
		return
	}
	if err := h.db.RemoveFavorite(r.Context(), subject.UserID, listingID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondOK(w)
}
