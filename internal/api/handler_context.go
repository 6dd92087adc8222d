// SkillSwap - Booking and Listing Marketplace API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillswap

package api

import (
	"net/http"

	"github.com/tomtom215/skillswap/internal/auth"
	"github.com/tomtom215/skillswap/internal/logging"
)

// HandlerContext is the per-request state handlers need: the caller, if any,
// and the request ID used in error envelopes.
type HandlerContext struct {
	Subject   *auth.AuthSubject
	RequestID string
}

// GetHandlerContext extracts the handler context from r. Subject is nil for
// anonymous requests.
func GetHandlerContext(r *http.Request) HandlerContext {
	return HandlerContext{
		Subject:   auth.GetAuthSubject(r.Context()),
		RequestID: logging.RequestIDFromContext(r.Context()),
	}
}

// IsAuthenticated reports whether the request carries a live session.
func (hc HandlerContext) IsAuthenticated() bool {
	return hc.Subject != nil
}

// IsAdmin reports whether the caller holds the admin role.
func (hc HandlerContext) IsAdmin() bool {
	return hc.Subject != nil && hc.Subject.IsAdmin()
}

// UserID returns the caller's id or 0.
func (hc HandlerContext) UserID() int64 {
	if hc.Subject == nil {
		return 0
	}
	return hc.Subject.UserID
}

// IsSelfOrAdmin reports whether the caller is userID or an admin.
func (hc HandlerContext) IsSelfOrAdmin(userID int64) bool {
	return hc.IsAdmin() || (hc.Subject != nil && hc.Subject.UserID == userID)
}

// requireSubject returns the caller or writes 401. Routes behind RequireAuth
// never hit the error branch.
func requireSubject(w http.ResponseWriter, r *http.Request) (*auth.AuthSubject, bool) {
	hc := GetHandlerContext(r)
	if hc.Subject == nil {
		respondError(w, r, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return nil, false
	}
	return hc.Subject, true
}
