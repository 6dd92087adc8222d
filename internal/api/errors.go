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

	"github.com/tomtom215/skillswap/internal/database"
	"github.com/tomtom215/skillswap/internal/logging"
	"github.com/tomtom215/skillswap/internal/models"
)

// errorStatus maps err onto an HTTP status and error code. Store sentinels
// that escaped a service untranslated are mapped too.
func errorStatus(err error) (int, string) {
	switch models.KindOf(err) {
	case models.KindValidation:
		return http.StatusBadRequest, ErrCodeValidationFailed
	case models.KindAuth:
		return http.StatusUnauthorized, ErrCodeUnauthorized
	case models.KindForbidden:
		return http.StatusForbidden, ErrCodeForbidden
	case models.KindNotFound:
		return http.StatusNotFound, ErrCodeNotFound
	case models.KindConflict:
		return http.StatusConflict, ErrCodeConflict
	case models.KindSlotUnavailable:
		return http.StatusConflict, ErrCodeSlotUnavailable
	}

	switch {
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound, ErrCodeNotFound
	case errors.Is(err, database.ErrUniqueViolation):
		return http.StatusConflict, ErrCodeConflict
	}
	return http.StatusInternalServerError, ErrCodeInternalError
}

// errorMessage returns the client-visible text for err.
func errorMessage(err error, status int) string {
	if models.KindOf(err) != models.KindInternal {
		return models.PublicMessage(err)
	}
	switch status {
	case http.StatusNotFound:
		return "not found"
	case http.StatusConflict:
		return "already exists"
	}
	return "internal server error"
}

// writeServiceError is the single place where service errors become HTTP
// responses. Server errors are logged with the cause; client errors only at
// debug level.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)
	if status >= http.StatusInternalServerError {
		logging.Ctx(r.Context()).Error().
			Err(err).
			Str("method", r.Method).
			Str("path", sanitizeLogValue(r.URL.Path)).
			Msg("Request failed")
	} else {
		logging.Ctx(r.Context()).Debug().
			Err(err).
			Int("status", status).
			Str("path", sanitizeLogValue(r.URL.Path)).
			Msg("Request rejected")
	}
	respondError(w, r, status, code, errorMessage(err, status))
}

// sanitizeLogValue escapes control characters so request data cannot forge
// log lines.
func sanitizeLogValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&b, "\\x%02x", r)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
