// SkillSwap - Booking and Listing Marketplace API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillswap

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tomtom215/skillswap/internal/database"
	"github.com/tomtom215/skillswap/internal/logging"
	"github.com/tomtom215/skillswap/internal/metrics"
	"github.com/tomtom215/skillswap/internal/models"
	"github.com/tomtom215/skillswap/internal/validation"
)

// ResetTokenTTL is how long a password reset token stays valid.
const ResetTokenTTL = time.Hour

// Auth error messages shown to clients.
const (
	msgInvalidCredentials = "invalid credentials"
	msgDeactivated        = "account is deactivated"
	msgInvalidToken       = "invalid or expired token"
	msgInvalidCurrent     = "invalid current password"
	msgNotLoggedIn        = "not logged in"
	msgEmailTaken         = "email already registered"
	msgUsernameTaken      = "username already taken"
)

// UserStore is the persistence the account service needs.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByResetToken(ctx context.Context, token string, now time.Time) (*models.User, error)
	SetPasswordResetToken(ctx context.Context, id int64, token string, expires time.Time) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
	CreateSessionAudit(ctx context.Context, a *models.SessionAudit) error
	CloseSessionAudit(ctx context.Context, id int64) (*models.SessionAudit, error)
}

// ServiceConfig tunes the account service.
type ServiceConfig struct {
	// ResetBaseURL is the front-end page that accepts ?token=.
	ResetBaseURL string

	// Development logs reset links when mail delivery fails.
	Development bool
}

// Service implements registration, login and password management.
type Service struct {
	store  UserStore
	mailer Mailer
	cfg    ServiceConfig
	now    func() time.Time
}

// NewService creates the account service.
func NewService(store UserStore, mailer Mailer, cfg ServiceConfig) *Service {
	if mailer == nil {
		mailer = LogMailer{}
	}
	return &Service{
		store:  store,
		mailer: mailer,
		cfg:    cfg,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// RegisterInput is the body of POST /auth/register.
type RegisterInput struct {
	Username string `json:"username" validate:"required,notblank,max=50"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=72"`
}

// LoginInput is the body of POST /auth/login.
type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ResetPasswordInput is the body of POST /auth/reset-password.
type ResetPasswordInput struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,max=72"`
}

// ChangePasswordInput is the body of POST /auth/change-password.
type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,max=72"`
}

// LoginResult is a successfully authenticated user plus the audit row opened
// for the new session.
type LoginResult struct {
	User    *models.User
	AuditID int64
}

// Subject returns the session subject for the result.
func (r *LoginResult) Subject() *AuthSubject {
	return SubjectFromUser(r.User, r.AuditID)
}

// Register creates a user account with role user and opens an audit row for
// the session the caller is about to establish.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*LoginResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := validation.Validate(&in); err != nil {
		metrics.RecordAuthAttempt("register", "invalid")
		return nil, err
	}

	u, err := s.createUser(ctx, in, models.RoleUser)
	if err != nil {
		metrics.RecordAuthAttempt("register", resultLabel(err))
		return nil, err
	}

	metrics.RecordAuthAttempt("register", "ok")
	logging.Ctx(ctx).Info().Int64("user_id", u.ID).Msg("User registered")
	return &LoginResult{User: u, AuditID: s.openAudit(ctx, u)}, nil
}

// CreateAdmin creates an account with role admin.
func (s *Service) CreateAdmin(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := validation.Validate(&in); err != nil {
		return nil, err
	}
	u, err := s.createUser(ctx, in, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	logging.Ctx(ctx).Info().Int64("user_id", u.ID).Msg("Admin account created")
	return u, nil
}

func (s *Service) createUser(ctx context.Context, in RegisterInput, role string) (*models.User, error) {
	// Email uniqueness spans soft-deleted accounts.
	if _, err := s.store.GetUserByEmail(ctx, in.Email); err == nil {
		return nil, models.NewConflictError(msgEmailTaken, nil)
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if _, err := s.store.GetUserByUsername(ctx, in.Username); err == nil {
		return nil, models.NewConflictError(msgUsernameTaken, nil)
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("lookup username: %w", err)
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &models.User{Username: in.Username, Email: in.Email, PasswordHash: hash, Role: role}
	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, database.ErrUniqueViolation) {
			return nil, models.NewConflictError(msgEmailTaken, err)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// Login verifies credentials. Unknown email and wrong password give the same
// error; a deactivated account gets its own message.
func (s *Service) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := validation.Validate(&in); err != nil {
		metrics.RecordAuthAttempt("login", "invalid")
		return nil, err
	}

	u, err := s.store.GetUserByEmail(ctx, in.Email)
	if errors.Is(err, database.ErrNotFound) {
		metrics.RecordAuthAttempt("login", "invalid_credentials")
		return nil, models.NewAuthError(msgInvalidCredentials)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if u.IsDeleted() {
		metrics.RecordAuthAttempt("login", "deactivated")
		return nil, models.NewAuthError(msgDeactivated)
	}
	if !CheckPassword(u.PasswordHash, in.Password) {
		metrics.RecordAuthAttempt("login", "invalid_credentials")
		return nil, models.NewAuthError(msgInvalidCredentials)
	}

	metrics.RecordAuthAttempt("login", "ok")
	logging.Ctx(ctx).Info().Int64("user_id", u.ID).Msg("User logged in")
	return &LoginResult{User: u, AuditID: s.openAudit(ctx, u)}, nil
}

// openAudit records the login and returns the audit id, 0 on failure.
func (s *Service) openAudit(ctx context.Context, u *models.User) int64 {
	a := &models.SessionAudit{UserID: u.ID, Role: u.Role, LoginTime: s.now()}
	if err := s.store.CreateSessionAudit(ctx, a); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Int64("user_id", u.ID).Msg("Failed to record session audit")
		return 0
	}
	return a.ID
}

// Logout closes the session's audit row. It never fails: the session itself
// is destroyed by the caller regardless.
func (s *Service) Logout(ctx context.Context, subject *AuthSubject) {
	metrics.RecordAuthAttempt("logout", "ok")
	if subject == nil || subject.AuditID == 0 {
		return
	}
	if _, err := s.store.CloseSessionAudit(ctx, subject.AuditID); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Int64("audit_id", subject.AuditID).Msg("Failed to close session audit")
	}
}

// Me returns the current account of subject.
func (s *Service) Me(ctx context.Context, subject *AuthSubject) (*models.User, error) {
	if subject == nil {
		return nil, models.NewAuthError(msgNotLoggedIn)
	}
	u, err := s.store.GetUserByID(ctx, subject.UserID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, models.NewAuthError(msgNotLoggedIn)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if u.IsDeleted() {
		return nil, models.NewAuthError(msgDeactivated)
	}
	return u, nil
}

// ForgotPassword issues a reset token for a live account and mails it. The
// result is the same whether or not the email is registered; only a missing
// email in the request is an error.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return models.NewValidationError("email is required")
	}

	u, err := s.store.GetUserByEmail(ctx, email)
	if err != nil || u.IsDeleted() {
		if err != nil && !errors.Is(err, database.ErrNotFound) {
			logging.Ctx(ctx).Error().Err(err).Msg("Forgot password lookup failed")
		}
		metrics.RecordAuthAttempt("forgot", "ignored")
		return nil
	}

	token, err := generateResetToken()
	if err != nil {
		return err
	}
	if err := s.store.SetPasswordResetToken(ctx, u.ID, token, s.now().Add(ResetTokenTTL)); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	resetURL := s.resetURL(token)
	if err := s.mailer.SendPasswordReset(ctx, u.Email, resetURL); err != nil {
		ev := logging.Ctx(ctx).Error().Err(err).Int64("user_id", u.ID)
		ev.Msg("Failed to send password reset mail")
		if s.cfg.Development {
			logging.Ctx(ctx).Debug().Str("email", u.Email).Str("token", token).Msg("Password reset token")
		}
	}
	metrics.RecordAuthAttempt("forgot", "ok")
	return nil
}

func (s *Service) resetURL(token string) string {
	base := s.cfg.ResetBaseURL
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "token=" + url.QueryEscape(token)
}

// ResetPassword consumes a reset token. Tokens are single use: a successful
// reset clears them.
func (s *Service) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	if err := validation.Validate(&in); err != nil {
		return err
	}

	u, err := s.store.GetUserByResetToken(ctx, in.Token, s.now())
	if errors.Is(err, database.ErrNotFound) {
		metrics.RecordAuthAttempt("reset", "invalid_token")
		return models.NewAuthError(msgInvalidToken)
	}
	if err != nil {
		return fmt.Errorf("lookup reset token: %w", err)
	}

	hash, err := HashPassword(in.NewPassword)
	if err != nil {
		return err
	}
	if err := s.store.UpdatePassword(ctx, u.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	metrics.RecordAuthAttempt("reset", "ok")
	logging.Ctx(ctx).Info().Int64("user_id", u.ID).Msg("Password reset")
	return nil
}

// ChangePassword replaces userID's password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, userID int64, in ChangePasswordInput) error {
	if err := validation.Validate(&in); err != nil {
		return err
	}

	u, err := s.store.GetUserByID(ctx, userID)
	if errors.Is(err, database.ErrNotFound) || (err == nil && u.IsDeleted()) {
		return models.NewNotFoundError("user")
	}
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	if !CheckPassword(u.PasswordHash, in.CurrentPassword) {
		metrics.RecordAuthAttempt("change", "invalid_credentials")
		return models.NewAuthError(msgInvalidCurrent)
	}

	hash, err := HashPassword(in.NewPassword)
	if err != nil {
		return err
	}
	if err := s.store.UpdatePassword(ctx, u.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	metrics.RecordAuthAttempt("change", "ok")
	return nil
}

// BootstrapAdmin creates the configured admin account if no account uses
// email yet. It reports whether an account was created.
func (s *Service) BootstrapAdmin(ctx context.Context, username, email, password string) (bool, error) {
	if email == "" || password == "" {
		return false, nil
	}
	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return false, nil
	} else if !errors.Is(err, database.ErrNotFound) {
		return false, fmt.Errorf("lookup admin: %w", err)
	}
	if username == "" {
		username = "admin"
	}
	if _, err := s.CreateAdmin(ctx, RegisterInput{Username: username, Email: email, Password: password}); err != nil {
		return false, err
	}
	logging.Info().Str("email", email).Msg("Bootstrap admin account created")
	return true, nil
}

func resultLabel(err error) string {
	switch models.KindOf(err) {
	case models.KindConflict:
		return "conflict"
	case models.KindValidation:
		return "invalid"
	default:
		return "error"
	}
}
