// SkillSwap - Booking and Listing Marketplace API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillswap

package authz

import (
	"net/http"

	"github.com/tomtom215/skillswap/internal/auth"
	"github.com/tomtom215/skillswap/internal/logging"
	"github.com/tomtom215/skillswap/internal/metrics"
)

// Middleware guards routes with the enforcer.
type Middleware struct {
	enforcer *Enforcer
}

// NewMiddleware creates a new authorization middleware.
func NewMiddleware(enforcer *Enforcer) *Middleware {
	return &Middleware{enforcer: enforcer}
}

// Enforcer returns the underlying enforcer for in-handler checks.
func (m *Middleware) Enforcer() *Enforcer {
	return m.enforcer
}

// Authorize only lets the request through when the caller's role may perform
// action on object. It expects the session middleware to have run; callers
// without a subject get 401, denied callers 403.
func (m *Middleware) Authorize(object, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := auth.GetAuthSubject(r.Context())
			if subject == nil {
				auth.WriteAuthError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
				return
			}

			allowed, err := m.enforcer.Enforce(subject.Role, object, action)
			if err != nil {
				logging.Ctx(r.Context()).Error().Err(err).Msg("Authorization error")
				auth.WriteAuthError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
				return
			}
			if !allowed {
				metrics.AuthzDecisions.WithLabelValues(object, action, "deny").Inc()
				logging.Ctx(r.Context()).Debug().
					Int64("user_id", subject.UserID).
					Str("role", subject.Role).
					Str("object", object).
					Str("action", action).
					Msg("Authorization denied")
				auth.WriteAuthError(w, r, http.StatusForbidden, "FORBIDDEN", "forbidden")
				return
			}

			metrics.AuthzDecisions.WithLabelValues(object, action, "allow").Inc()
			next.ServeHTTP(w, r)
		})
	}
}

// Can reports whether subject may perform action on object. A nil subject is
// always denied.
func (m *Middleware) Can(subject *auth.AuthSubject, object, action string) bool {
	if subject == nil {
		return false
	}
	return m.enforcer.Allowed(subject.Role, object, action)
}
