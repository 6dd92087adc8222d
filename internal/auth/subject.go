// SkillSwap - Booking and Listing Marketplace API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillswap

package auth

import (
	"context"

	"github.com/tomtom215/skillswap/internal/models"
)

type contextKey string

// AuthSubjectContextKey holds the *AuthSubject of an authenticated request.
const AuthSubjectContextKey contextKey = "auth_subject"

// AuthSubject is the authenticated caller of a request.
type AuthSubject struct {
	UserID   int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`

	// SessionID is the opaque id of the session that authenticated the request.
	SessionID string `json:"-"`

	// AuditID is the session_audits row opened at login, 0 if none.
	AuditID int64 `json:"-"`
}

// SubjectFromUser builds the subject for a freshly authenticated user.
func SubjectFromUser(u *models.User, auditID int64) *AuthSubject {
	return &AuthSubject{
		UserID:   u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
		AuditID:  auditID,
	}
}

// HasRole reports whether the subject holds role.
func (s *AuthSubject) HasRole(role string) bool {
	return s != nil && role != "" && s.Role == role
}

// IsAdmin reports whether the subject is an administrator.
func (s *AuthSubject) IsAdmin() bool {
	return s.HasRole(models.RoleAdmin)
}

// WithAuthSubject returns ctx carrying subject.
func WithAuthSubject(ctx context.Context, subject *AuthSubject) context.Context {
	return context.WithValue(ctx, AuthSubjectContextKey, subject)
}

// GetAuthSubject returns the subject stored in ctx, or nil.
func GetAuthSubject(ctx context.Context) *AuthSubject {
	if ctx == nil {
		return nil
	}
	subject, _ := ctx.Value(AuthSubjectContextKey).(*AuthSubject)
	return subject
}
