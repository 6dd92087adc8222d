// SkillSwap - Booking and Listing Marketplace API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillswap

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/skillswap/internal/auth"
	"github.com/tomtom215/skillswap/internal/database"
	"github.com/tomtom215/skillswap/internal/logging"
	"github.com/tomtom215/skillswap/internal/models"
)

// GetUser handles GET /users/{id}. Only the user and admins may read it;
// the access check runs before the lookup so ids cannot be probed.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if !GetHandlerContext(r).IsSelfOrAdmin(id) {
		writeServiceError(w, r, models.NewForbiddenError("forbidden"))
		return
	}

	u, err := h.db.GetUserByID(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) || (err == nil && u.IsDeleted()) {
		writeServiceError(w, r, models.NewNotFoundError("user"))
		return
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, u)
}

// DeleteUser handles DELETE /users/{id}. The account is soft-deleted and
// all of its sessions end; a self-delete also clears the caller's cookie.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	hc := GetHandlerContext(r)
	if !hc.IsSelfOrAdmin(id) {
		writeServiceError(w, r, models.NewForbiddenError("forbidden"))
		return
	}

	deleted, err := h.db.SoftDeleteUser(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if n, err := h.sessions.DestroyUserSessions(r.Context(), id); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Int64("user_id", id).Msg("Failed to end sessions of deleted user")
	} else if n > 0 {
		logging.Ctx(r.Context()).Debug().Int64("user_id", id).Int("sessions", n).Msg("Ended sessions of deleted user")
	}
	if hc.UserID() == id {
		h.sessions.ClearSessionCookie(w)
	}
	if deleted {
		logging.Ctx(r.Context()).Info().Int64("user_id", id).Int64("by", hc.UserID()).Msg("User deleted")
	}
	respondNoContent(w)
}

// CreateAdmin handles POST /users/admin.
func (h *Handler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	var in auth.RegisterInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	u, err := h.auth.CreateAdmin(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, u)
}

// UpdateUserRole handles PATCH /users/{id}/role. The target's sessions end
// so the new role applies from the next login.
func (h *Handler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var req RoleRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	u, err := h.db.SetUserRole(r.Context(), id, req.Role)
	if errors.Is(err, database.ErrNotFound) {
		writeServiceError(w, r, models.NewNotFoundError("user"))
		return
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if _, err := h.sessions.DestroyUserSessions(r.Context(), id); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Int64("user_id", id).Msg("Failed to end sessions after role change")
	}
	logging.Ctx(r.Context()).Info().Int64("user_id", id).Str("role", u.Role).Msg("User role changed")
	respondJSON(w, http.StatusOK, u)
}
