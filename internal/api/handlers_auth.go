// SkillSwap - Booking and Listing Marketplace API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillswap

package api

import (
	"fmt"
	"net/http"

	"github.com/tomtom215/skillswap/internal/auth"
	"github.com/tomtom215/skillswap/internal/logging"
	"github.com/tomtom215/skillswap/internal/models"
)

// Register handles POST /auth/register. The new account is logged in.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in auth.RegisterInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	result, err := h.auth.Register(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if !h.startSession(w, r, result) {
		return
	}
	respondJSON(w, http.StatusCreated, result.User)
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in auth.LoginInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	result, err := h.auth.Login(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if !h.startSession(w, r, result) {
		return
	}
	respondJSON(w, http.StatusOK, result.User)
}

// startSession stores a session for result and sets the cookie. It writes
// the error response itself and reports whether the caller may continue.
func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, result *auth.LoginResult) bool {
	if _, err := h.sessions.CreateSession(r.Context(), w, r, result.Subject()); err != nil {
		writeServiceError(w, r, fmt.Errorf("create session: %w", err))
		return false
	}
	return true
}

// Logout handles POST /auth/logout. It succeeds without a session too.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	subject := GetHandlerContext(r).Subject
	h.auth.Logout(r.Context(), subject)

	sessionID := ""
	if subject != nil {
		sessionID = subject.SessionID
	}
	if err := h.sessions.DestroySession(r.Context(), w, sessionID); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Failed to delete session on logout")
	}
	respondOK(w)
}

// Me handles GET /auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.auth.Me(r.Context(), GetHandlerContext(r).Subject)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, u)
}

// ForgotPassword handles POST /auth/forgot-password. The response does not
// reveal whether the address has an account.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	if err := h.auth.ForgotPassword(r.Context(), req.Email); err != nil {
		if models.IsKind(err, models.KindValidation) {
			writeServiceError(w, r, err)
			return
		}
		logging.Ctx(r.Context()).Error().Err(err).Msg("Forgot password failed")
	}
	respondOK(w)
}

// ResetPassword handles POST /auth/reset-password.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var in auth.ResetPasswordInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	if err := h.auth.ResetPassword(r.Context(), in); err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondOK(w)
}

// ChangePassword handles POST /auth/change-password.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	subject, ok := requireSubject(w, r)
	if !ok {
		return
	}
	var in auth.ChangePasswordInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	if err := h.auth.ChangePassword(r.Context(), subject.UserID, in); err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondOK(w)
}
