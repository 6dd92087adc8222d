// SkillSwap - Booking and Listing Marketplace API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillswap

package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/skillswap/internal/database"
	"github.com/tomtom215/skillswap/internal/models"
)

// fakeUserStore is an in-memory UserStore.
type fakeUserStore struct {
	mu     sync.Mutex
	users  map[int64]*models.User
	audits map[int64]*models.SessionAudit
	nextID int64
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[int64]*models.User{}, audits: map[int64]*models.SessionAudit{}}
}

func (f *fakeUserStore) CreateUser(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return database.ErrUniqueViolation
		}
	}
	f.nextID++
	u.ID = f.nextID
	stored := *u
	f.users[u.ID] = &stored
	return nil
}

func (f *fakeUserStore) find(match func(*models.User) bool) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if match(u) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, database.ErrNotFound
}

func (f *fakeUserStore) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.ID == id })
}

func (f *fakeUserStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.Email == email })
}

func (f *fakeUserStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.Username == username })
}

func (f *fakeUserStore) GetUserByResetToken(_ context.Context, token string, now time.Time) (*models.User, error) {
	return f.find(func(u *models.User) bool {
		return u.PasswordResetToken != nil && *u.PasswordResetToken == token &&
			u.PasswordResetExpires != nil && u.PasswordResetExpires.After(now) && !u.IsDeleted()
	})
}

func (f *fakeUserStore) SetPasswordResetToken(_ context.Context, id int64, token string, expires time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return database.ErrNotFound
	}
	u.PasswordResetToken = &token
	u.PasswordResetExpires = &expires
	return nil
}

func (f *fakeUserStore) UpdatePassword(_ context.Context, id int64, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return database.ErrNotFound
	}
	u.PasswordHash = hash
	u.PasswordResetToken = nil
	u.PasswordResetExpires = nil
	return nil
}

func (f *fakeUserStore) CreateSessionAudit(_ context.Context, a *models.SessionAudit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a.ID = int64(len(f.audits) + 1)
	stored := *a
	f.audits[a.ID] = &stored
	return nil
}

func (f *fakeUserStore) CloseSessionAudit(_ context.Context, id int64) (*models.SessionAudit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.audits[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	now := time.Now()
	a.LogoutTime = &now
	copied := *a
	return &copied, nil
}

func (f *fakeUserStore) deactivate(id int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	f.users[id].DeletedAt = &now
}

func (f *fakeUserStore) resetToken(id int64) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t := f.users[id].PasswordResetToken; t != nil {
		return *t
	}
	return ""
}

type fakeMailer struct {
	mu   sync.Mutex
	urls []string
	err  error
}

func (m *fakeMailer) SendPasswordReset(_ context.Context, _, resetURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.urls = append(m.urls, resetURL)
	return m.err
}

func newTestService(t *testing.T) (*Service, *fakeUserStore, *fakeMailer) {
	t.Helper()
	store := newFakeUserStore()
	mailer := &fakeMailer{}
	svc := NewService(store, mailer, ServiceConfig{ResetBaseURL: "https://app.example.com/reset"})
	return svc, store, mailer
}

func register(t *testing.T, svc *Service, username, email, password string) *models.User {
	t.Helper()
	res, err := svc.Register(context.Background(), RegisterInput{Username: username, Email: email, Password: password})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return res.User
}

func TestService_Register(t *testing.T) {
	t.Parallel()
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterInput{Username: " alice ", Email: "alice@example.com", Password: "pw123456"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if res.User.Role != models.RoleUser || res.User.Username != "alice" {
		t.Errorf("user = %+v", res.User)
	}
	if res.AuditID == 0 || len(store.audits) != 1 {
		t.Errorf("AuditID = %d, audits = %d", res.AuditID, len(store.audits))
	}
	if !CheckPassword(res.User.PasswordHash, "pw123456") {
		t.Error("stored hash does not match password")
	}

	tests := []struct {
		name string
		in   RegisterInput
		kind models.ErrorKind
	}{
		{"duplicate email", RegisterInput{Username: "alice2", Email: "alice@example.com", Password: "pw"}, models.KindConflict},
		{"duplicate username", RegisterInput{Username: "alice", Email: "other@example.com", Password: "pw"}, models.KindConflict},
		{"missing password", RegisterInput{Username: "bob", Email: "bob@example.com"}, models.KindValidation},
		{"bad email", RegisterInput{Username: "bob", Email: "bob", Password: "pw"}, models.KindValidation},
		{"blank username", RegisterInput{Username: "   ", Email: "bob@example.com", Password: "pw"}, models.KindValidation},
		{"password too long", RegisterInput{Username: "bob", Email: "bob@example.com", Password: strings.Repeat("p", 73)}, models.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.in)
			if got := models.KindOf(err); got != tt.kind {
				t.Errorf("Register() error = %v (kind %v), want kind %v", err, got, tt.kind)
			}
		})
	}
}

func TestService_RegisterDeletedEmailStaysTaken(t *testing.T) {
	t.Parallel()
	svc, store, _ := newTestService(t)
	u := register(t, svc, "carol", "carol@example.com", "pw")
	store.deactivate(u.ID)

	_, err := svc.Register(context.Background(), RegisterInput{Username: "carol2", Email: "carol@example.com", Password: "pw"})
	if !models.IsKind(err, models.KindConflict) {
		t.Errorf("error = %v, want conflict", err)
	}
}

func TestService_Login(t *testing.T) {
	t.Parallel()
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	register(t, svc, "alice", "alice@example.com", "right")
	gone := register(t, svc, "dave", "dave@example.com", "right")
	store.deactivate(gone.ID)

	res, err := svc.Login(ctx, LoginInput{Email: "alice@example.com", Password: "right"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if res.Subject().Username != "alice" || res.Subject().AuditID == 0 {
		t.Errorf("subject = %+v", res.Subject())
	}

	tests := []struct {
		name    string
		in      LoginInput
		kind    models.ErrorKind
		message string
	}{
		{"wrong password", LoginInput{Email: "alice@example.com", Password: "wrong"}, models.KindAuth, "invalid credentials"},
		{"unknown email", LoginInput{Email: "nobody@example.com", Password: "right"}, models.KindAuth, "invalid credentials"},
		{"deactivated", LoginInput{Email: "dave@example.com", Password: "right"}, models.KindAuth, "account is deactivated"},
		{"missing fields", LoginInput{}, models.KindValidation, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(ctx, tt.in)
			if models.KindOf(err) != tt.kind {
				t.Fatalf("Login() error = %v, want kind %v", err, tt.kind)
			}
			if tt.message != "" && models.PublicMessage(err) != tt.message {
				t.Errorf("message = %q, want %q", models.PublicMessage(err), tt.message)
			}
		})
	}
}

func TestService_LogoutClosesAudit(t *testing.T) {
	t.Parallel()
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	register(t, svc, "alice", "alice@example.com", "pw")

	res, err := svc.Login(ctx, LoginInput{Email: "alice@example.com", Password: "pw"})
	if err != nil {
		t.Fatal(err)
	}
	svc.Logout(ctx, res.Subject())
	if store.audits[res.AuditID].LogoutTime == nil {
		t.Error("logout time not recorded")
	}

	// Unknown audit rows and anonymous callers are fine.
	svc.Logout(ctx, &AuthSubject{UserID: 1, AuditID: 999})
	svc.Logout(ctx, nil)
}

func TestService_Me(t *testing.T) {
	t.Parallel()
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	u := register(t, svc, "alice", "alice@example.com", "pw")

	got, err := svc.Me(ctx, &AuthSubject{UserID: u.ID})
	if err != nil || got.ID != u.ID {
		t.Fatalf("Me() = %v, %v", got, err)
	}
	if _, err := svc.Me(ctx, nil); !models.IsKind(err, models.KindAuth) {
		t.Errorf("Me(nil) error = %v", err)
	}
	store.deactivate(u.ID)
	if _, err := svc.Me(ctx, &AuthSubject{UserID: u.ID}); !models.IsKind(err, models.KindAuth) {
		t.Errorf("Me(deactivated) error = %v", err)
	}
}

func TestService_PasswordResetFlow(t *testing.T) {
	t.Parallel()
	svc, store, mailer := newTestService(t)
	ctx := context.Background()
	u := register(t, svc, "alice", "alice@example.com", "old-pw")

	if err := svc.ForgotPassword(ctx, "alice@example.com"); err != nil {
		t.Fatalf("ForgotPassword() error = %v", err)
	}
	token := store.resetToken(u.ID)
	if len(token) != 64 {
		t.Fatalf("token = %q", token)
	}
	if len(mailer.urls) != 1 || mailer.urls[0] != "https://app.example.com/reset?token="+token {
		t.Errorf("mailed urls = %v", mailer.urls)
	}

	if err := svc.ResetPassword(ctx, ResetPasswordInput{Token: token, NewPassword: "new-pw"}); err != nil {
		t.Fatalf("ResetPassword() error = %v", err)
	}
	if _, err := svc.Login(ctx, LoginInput{Email: "alice@example.com", Password: "new-pw"}); err != nil {
		t.Errorf("Login() with new password error = %v", err)
	}

	// Single use.
	err := svc.ResetPassword(ctx, ResetPasswordInput{Token: token, NewPassword: "again"})
	if !models.IsKind(err, models.KindAuth) || models.PublicMessage(err) != "invalid or expired token" {
		t.Errorf("reused token error = %v", err)
	}
}

func TestService_ResetTokenExpires(t *testing.T) {
	t.Parallel()
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	u := register(t, svc, "alice", "alice@example.com", "pw")

	issued := time.Now().UTC()
	svc.now = func() time.Time { return issued }
	if err := svc.ForgotPassword(ctx, "alice@example.com"); err != nil {
		t.Fatal(err)
	}
	token := store.resetToken(u.ID)

	svc.now = func() time.Time { return issued.Add(ResetTokenTTL + time.Second) }
	err := svc.ResetPassword(ctx, ResetPasswordInput{Token: token, NewPassword: "new"})
	if !models.IsKind(err, models.KindAuth) {
		t.Errorf("expired token error = %v", err)
	}
}

func TestService_ForgotPasswordIsEnumerationSafe(t *testing.T) {
	t.Parallel()
	svc, store, mailer := newTestService(t)
	ctx := context.Background()
	gone := register(t, svc, "dave", "dave@example.com", "pw")
	store.deactivate(gone.ID)

	for _, email := range []string{"nobody@example.com", "dave@example.com"} {
		if err := svc.ForgotPassword(ctx, email); err != nil {
			t.Errorf("ForgotPassword(%q) error = %v", email, err)
		}
	}
	if len(mailer.urls) != 0 {
		t.Errorf("mails sent for unknown or deactivated accounts: %v", mailer.urls)
	}
	if err := svc.ForgotPassword(ctx, "  "); !models.IsKind(err, models.KindValidation) {
		t.Errorf("blank email error = %v", err)
	}

	mailer.err = errors.New("relay down")
	register(t, svc, "erin", "erin@example.com", "pw")
	if err := svc.ForgotPassword(ctx, "erin@example.com"); err != nil {
		t.Errorf("mail failure surfaced: %v", err)
	}
}

func TestService_ChangePassword(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	u := register(t, svc, "alice", "alice@example.com", "current")

	err := svc.ChangePassword(ctx, u.ID, ChangePasswordInput{CurrentPassword: "wrong", NewPassword: "next"})
	if !models.IsKind(err, models.KindAuth) || models.PublicMessage(err) != "invalid current password" {
		t.Errorf("wrong current password error = %v", err)
	}
	if err := svc.ChangePassword(ctx, u.ID, ChangePasswordInput{CurrentPassword: "current"}); !models.IsKind(err, models.KindValidation) {
		t.Errorf("missing new password error = %v", err)
	}
	if err := svc.ChangePassword(ctx, u.ID, ChangePasswordInput{CurrentPassword: "current", NewPassword: "next"}); err != nil {
		t.Fatalf("ChangePassword() error = %v", err)
	}
	if _, err := svc.Login(ctx, LoginInput{Email: "alice@example.com", Password: "next"}); err != nil {
		t.Errorf("Login() after change error = %v", err)
	}
}

func TestService_BootstrapAdmin(t *testing.T) {
	t.Parallel()
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.BootstrapAdmin(ctx, "", "root@example.com", "pw")
	if err != nil || !created {
		t.Fatalf("BootstrapAdmin() = %v, %v", created, err)
	}
	u, _ := store.GetUserByEmail(ctx, "root@example.com")
	if u.Role != models.RoleAdmin || u.Username != "admin" {
		t.Errorf("admin = %+v", u)
	}

	created, err = svc.BootstrapAdmin(ctx, "", "root@example.com", "pw")
	if err != nil || created {
		t.Errorf("second BootstrapAdmin() = %v, %v", created, err)
	}
	if created, _ := svc.BootstrapAdmin(ctx, "", "", ""); created {
		t.Error("BootstrapAdmin() without config created an account")
	}
}
