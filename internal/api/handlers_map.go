// SkillSwap - Booking and Listing Marketplace API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillswap

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/skillswap/internal/mapgen"
)

// Map handles GET /map[?regenerate=1]. It serves the generated listings map,
// building it first when missing or stale. Only admins may force a rebuild.
func (h *Handler) Map(w http.ResponseWriter, r *http.Request) {
	if h.mapGen == nil {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "map not available")
		return
	}
	force := queryBool(r, "regenerate")
	isAdmin := h.can(r, "map", "regenerate")

	path, err := h.mapGen.Ensure(r.Context(), isAdmin, force)
	if errors.Is(err, mapgen.ErrGenerationFailed) {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "map generation failed")
		return
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFile(w, r, path)
}
