// SkillSwap - Booking and Listing Marketplace API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillswap

package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/tomtom215/skillswap/internal/models"
)

// Search handles GET /search?query=. Authenticated searches are logged.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	result, err := h.search.Search(r.Context(), GetHandlerContext(r).Subject, r.URL.Query().Get("query"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if result.Results == nil {
		result.Results = []*models.Listing{}
	}
	respondJSON(w, http.StatusOK, result)
}

// ListSearchLogs handles GET /search-logs?limit=. It returns the caller's own
// recent searches.
func (h *Handler) ListSearchLogs(w http.ResponseWriter, r *http.Request) {
	subject, ok := requireSubject(w, r)
	if !ok {
		return
	}
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeServiceError(w, r, models.NewValidationError("limit must be a positive integer"))
			return
		}
		limit = n
	}
	logs, err := h.search.History(r.Context(), subject, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, logs)
}

// CreateSearchLog handles POST /search-logs.
func (h *Handler) CreateSearchLog(w http.ResponseWriter, r *http.Request) {
	subject, ok := requireSubject(w, r)
	if !ok {
		return
	}
	var req SearchLogRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	entry, err := h.search.Log(r.Context(), subject, req.Query)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, entry)
}
