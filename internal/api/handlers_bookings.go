// SkillSwap - Booking and Listing Marketplace API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillswap

package api

import (
	"net/http"

	"github.com/tomtom215/skillswap/internal/booking"
	"github.com/tomtom215/skillswap/internal/models"
)

// ListBookings handles GET /bookings. Admins see every booking, optionally
// narrowed with ?userId=; other callers see their own.
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	subject, ok := requireSubject(w, r)
	if !ok {
		return
	}
	filterUserID, err := queryID(r, "userId")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	bookings, err := h.bookings.List(r.Context(), subject, filterUserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if bookings == nil {
		bookings = []*models.Booking{}
	}
	respondJSON(w, http.StatusOK, bookings)
}

// GetBooking handles GET /bookings/{id}.
func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	subject, ok := requireSubject(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	b, err := h.bookings.Get(r.Context(), subject, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, b)
}

// CreateBooking handles POST /bookings.
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	subject, ok := requireSubject(w, r)
	if !ok {
		return
	}
	var req CreateBookingRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	b, err := h.bookings.Create(r.Context(), subject, booking.CreateInput{
		ListingID:   req.ListingID,
		ScheduledAt: req.ScheduledAt,
		Message:     req.Message,
		Status:      req.Status,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, b)
}

// UpdateBooking handles PATCH /bookings/{id}.
func (h *Handler) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	subject, ok := requireSubject(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var in booking.PatchInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	b, err := h.bookings.Update(r.Context(), subject, id, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, b)
}

// DeleteBooking handles DELETE /bookings/{id}.
func (h *Handler) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	subject, ok := requireSubject(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := h.bookings.Delete(r.Context(), subject, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondNoContent(w)
}
