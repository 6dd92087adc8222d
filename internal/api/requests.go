// SkillSwap - Booking and Listing Marketplace API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillswap

package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/skillswap/internal/models"
	"github.com/tomtom215/skillswap/internal/validation"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// errBodyTooLarge marks a body over maxBodyBytes.
var errBodyTooLarge = errors.New("request body too large")

// decodeJSON reads the body into dst. An empty body leaves dst untouched so
// the validator reports the missing fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		if isBodyTooLarge(err) {
			return errBodyTooLarge
		}
		return fmt.Errorf("read body: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		// Field types with their own UnmarshalJSON report precise messages.
		var fieldErr *models.Error
		if errors.As(err, &fieldErr) && fieldErr.Kind == models.KindValidation {
			return fieldErr
		}
		return models.NewValidationError("invalid JSON body")
	}
	return nil
}

// decodeAndValidate decodes the body and runs struct validation.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := decodeJSON(w, r, dst); err != nil {
		return err
	}
	return validation.Validate(dst)
}

// writeDecodeError responds to a decodeAndValidate failure.
func writeDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, errBodyTooLarge) {
		respondError(w, r, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, err.Error())
		return
	}
	writeServiceError(w, r, err)
}

// pathID parses the named URL parameter as a positive id.
func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, models.NewValidationError("%s must be a positive integer", name)
	}
	return id, nil
}

// queryID parses an optional positive id query parameter. Absent yields 0.
func queryID(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, models.NewValidationError("%s must be a positive integer", name)
	}
	return id, nil
}

// queryBool reports whether the query parameter is set to a truthy value.
func queryBool(r *http.Request, name string) bool {
	switch strings.ToLower(r.URL.Query().Get(name)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// CreateListingRequest is the body of POST /listings.
type CreateListingRequest struct {
	CategoryID   int64               `json:"categoryId" validate:"required,gt=0"`
	Type         string              `json:"type" validate:"required,notblank,max=50"`
	Title        string              `json:"title" validate:"required,notblank,max=200"`
	Description  string              `json:"description" validate:"max=5000"`
	Availability models.Availability `json:"availability"`
	ImageURL     string              `json:"imageUrl" validate:"max=1000"`
	Country      string              `json:"country" validate:"max=100"`
	City         string              `json:"city" validate:"max=100"`
	Address      string              `json:"address" validate:"required,notblank,max=300"`
	Latitude     *float64            `json:"latitude" validate:"omitempty,latitude"`
	Longitude    *float64            `json:"longitude" validate:"omitempty,longitude"`
}

// ListingBookingRequest is the body of POST /listings/{id}/bookings.
type ListingBookingRequest struct {
	ScheduledAt string `json:"scheduledAt" validate:"required,instant"`
	Message     string `json:"message" validate:"max=2000"`
}

// CreateBookingRequest is the body of POST /bookings.
type CreateBookingRequest struct {
	ListingID   int64  `json:"listingId" validate:"required,gt=0"`
	ScheduledAt string `json:"scheduledAt" validate:"required,instant"`
	Message     string `json:"message" validate:"max=2000"`
	Status      string `json:"status"`
}

// FavoriteRequest is the body of POST /favorites.
type FavoriteRequest struct {
	ListingID int64 `json:"listingId" validate:"required,gt=0"`
}

// CategoryRequest is the body of POST /categories.
type CategoryRequest struct {
	Name string `json:"name" validate:"required,notblank,max=100"`
	Slug string `json:"slug" validate:"required,notblank,max=100"`
}

// CategoryPatchRequest is the body of PATCH /categories/{id}.
type CategoryPatchRequest struct {
	Name *string `json:"name" validate:"omitempty,notblank,max=100"`
	Slug *string `json:"slug" validate:"omitempty,notblank,max=100"`
}

// NotificationRequest is the body of POST /notifications. The target is
// named by userId or username. Payload may be a string or any JSON value.
type NotificationRequest struct {
	UserID   int64           `json:"userId" validate:"omitempty,gt=0"`
	Username string          `json:"username" validate:"max=50"`
	Type     string          `json:"type" validate:"required,notblank,max=50"`
	Payload  json.RawMessage `json:"payload"`
}

// payloadString returns the stored form of the payload: a JSON string is
// unwrapped, anything else is kept as raw JSON.
func (n *NotificationRequest) payloadString() string {
	raw := strings.TrimSpace(string(n.Payload))
	if raw == "" || raw == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(n.Payload, &s); err == nil {
		return s
	}
	return raw
}

// RoleRequest is the body of PATCH /users/{id}/role.
type RoleRequest struct {
	Role string `json:"role" validate:"required,role"`
}

// SearchLogRequest is the body of POST /search-logs.
type SearchLogRequest struct {
	Query string `json:"query" validate:"required,notblank,max=500"`
}

// ForgotPasswordRequest is the body of POST /auth/forgot-password.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,max=254"`
}
