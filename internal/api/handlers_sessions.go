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

// CreateSessionAudit handles POST /sessions: it records a login event for
// the caller.
func (h *Handler) CreateSessionAudit(w http.ResponseWriter, r *http.Request) {
	subject, ok := requireSubject(w, r)
	if !ok {
		return
	}
	a := &models.SessionAudit{UserID: subject.UserID, Role: subject.Role}
	if err := h.db.CreateSessionAudit(r.Context(), a); err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, a)
}

// CloseSessionAudit handles PATCH /sessions/{id}/logout.
func (h *Handler) CloseSessionAudit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	a, err := h.db.GetSessionAudit(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		writeServiceError(w, r, models.NewNotFoundError("session"))
		return
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if !GetHandlerContext(r).IsSelfOrAdmin(a.UserID) {
		writeServiceError(w, r, models.NewForbiddenError("not your session"))
		return
	}

	a, err = h.db.CloseSessionAudit(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, a)
}
