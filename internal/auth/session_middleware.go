// SkillSwap - Booking and Listing Marketplace API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillswap

package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/skillswap/internal/config"
	"github.com/tomtom215/skillswap/internal/logging"
	"github.com/tomtom215/skillswap/internal/metrics"
)

// SessionMiddlewareConfig holds configuration for the session middleware.
type SessionMiddlewareConfig struct {
	// CookieName is the name of the session cookie.
	CookieName string

	// SessionTTL is the session lifetime.
	SessionTTL time.Duration

	// SlidingSession extends the expiry on every authenticated request.
	SlidingSession bool

	CookiePath     string
	CookieSecure   bool
	CookieHTTPOnly bool
	CookieSameSite http.SameSite
}

// DefaultSessionMiddlewareConfig returns an 8 hour, HttpOnly, SameSite=Lax
// cookie named skillswap_session.
func DefaultSessionMiddlewareConfig() *SessionMiddlewareConfig {
	return &SessionMiddlewareConfig{
		CookieName:     "skillswap_session",
		SessionTTL:     8 * time.Hour,
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSameSite: http.SameSiteLaxMode,
	}
}

// SessionMiddlewareConfigFrom derives the cookie settings from cfg. Cookies
// are Secure only in production.
func SessionMiddlewareConfigFrom(cfg *config.Config) *SessionMiddlewareConfig {
	c := DefaultSessionMiddlewareConfig()
	if cfg.Security.SessionCookieName != "" {
		c.CookieName = cfg.Security.SessionCookieName
	}
	if cfg.Security.SessionTTL > 0 {
		c.SessionTTL = cfg.Security.SessionTTL
	}
	c.CookieSecure = cfg.IsProduction()
	return c
}

// SessionMiddleware resolves session cookies into request subjects.
type SessionMiddleware struct {
	store  SessionStore
	config *SessionMiddlewareConfig
}

// NewSessionMiddleware creates a new session middleware.
func NewSessionMiddleware(store SessionStore, cfg *SessionMiddlewareConfig) *SessionMiddleware {
	if cfg == nil {
		cfg = DefaultSessionMiddlewareConfig()
	}
	return &SessionMiddleware{store: store, config: cfg}
}

// Store returns the backing session store.
func (m *SessionMiddleware) Store() SessionStore {
	return m.store
}

// Authenticate puts the session's subject into the request context when the
// cookie names a live session. Requests without one pass through unchanged.
func (m *SessionMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetAuthSubject(r.Context()) != nil {
			next.ServeHTTP(w, r)
			return
		}

		sessionID := m.extractSessionID(r)
		if sessionID == "" {
			next.ServeHTTP(w, r)
			return
		}

		session, err := m.store.Get(r.Context(), sessionID)
		if err != nil {
			if !errors.Is(err, ErrSessionNotFound) && !errors.Is(err, ErrSessionExpired) {
				logging.Ctx(r.Context()).Error().Err(err).Msg("Session lookup error")
			}
			next.ServeHTTP(w, r)
			return
		}

		if m.config.SlidingSession {
			if err := m.store.Touch(r.Context(), sessionID, time.Now().Add(m.config.SessionTTL)); err != nil {
				logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to touch session")
			}
		}

		ctx := WithAuthSubject(r.Context(), session.ToAuthSubject())
		ctx = logging.ContextWithUserID(ctx, session.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth rejects requests without a live session with 401.
func (m *SessionMiddleware) RequireAuth(next http.Handler) http.Handler {
	return m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetAuthSubject(r.Context()) == nil {
			WriteAuthError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// RequireRole rejects unauthenticated requests with 401 and callers without
// role with 403.
func (m *SessionMiddleware) RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := GetAuthSubject(r.Context())
			if subject == nil {
				WriteAuthError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
				return
			}
			if !subject.HasRole(role) {
				WriteAuthError(w, r, http.StatusForbidden, "FORBIDDEN", "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

// WriteAuthError writes the API error envelope. It lives here so guard
// middleware does not depend on the api package.
func WriteAuthError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := map[string]string{
		"error":      message,
		"code":       code,
		"request_id": logging.RequestIDFromContext(r.Context()),
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to encode auth error")
	}
}

func (m *SessionMiddleware) extractSessionID(r *http.Request) string {
	cookie, err := r.Cookie(m.config.CookieName)
	if err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return ""
}

// SetSessionCookie sets the session cookie on the response.
func (m *SessionMiddleware) SetSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.config.CookieName,
		Value:    sessionID,
		Path:     m.config.CookiePath,
		MaxAge:   int(m.config.SessionTTL.Seconds()),
		Secure:   m.config.CookieSecure,
		HttpOnly: m.config.CookieHTTPOnly,
		SameSite: m.config.CookieSameSite,
	})
}

// ClearSessionCookie expires the session cookie.
func (m *SessionMiddleware) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.config.CookieName,
		Value:    "",
		Path:     m.config.CookiePath,
		MaxAge:   -1,
		Secure:   m.config.CookieSecure,
		HttpOnly: m.config.CookieHTTPOnly,
		SameSite: m.config.CookieSameSite,
	})
}

// CreateSession stores a fresh session for subject and sets the cookie. Any
// session the request already carried is deleted first so a login never
// reuses a pre-authentication id.
func (m *SessionMiddleware) CreateSession(ctx context.Context, w http.ResponseWriter, r *http.Request, subject *AuthSubject) (*Session, error) {
	if oldID := m.extractSessionID(r); oldID != "" {
		if err := m.store.Delete(ctx, oldID); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Failed to delete previous session")
		}
	}

	session, err := NewSession(subject, m.config.SessionTTL)
	if err != nil {
		return nil, err
	}
	if err := m.store.Create(ctx, session); err != nil {
		return nil, err
	}
	metrics.SessionsCreated.Inc()

	m.SetSessionCookie(w, session.ID)
	return session, nil
}

// DestroySession deletes the session and clears the cookie.
func (m *SessionMiddleware) DestroySession(ctx context.Context, w http.ResponseWriter, sessionID string) error {
	m.ClearSessionCookie(w)
	if sessionID == "" {
		return nil
	}
	return m.store.Delete(ctx, sessionID)
}

// DestroyUserSessions deletes every session of userID.
func (m *SessionMiddleware) DestroyUserSessions(ctx context.Context, userID int64) (int, error) {
	return m.store.DeleteByUserID(ctx, userID)
}
