// SkillSwap - Booking and Listing Marketplace API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillswap

package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/skillswap/internal/auth"
	"github.com/tomtom215/skillswap/internal/authz"
	"github.com/tomtom215/skillswap/internal/booking"
	"github.com/tomtom215/skillswap/internal/config"
	"github.com/tomtom215/skillswap/internal/database"
	"github.com/tomtom215/skillswap/internal/logging"
	"github.com/tomtom215/skillswap/internal/mapgen"
	"github.com/tomtom215/skillswap/internal/models"
	"github.com/tomtom215/skillswap/internal/search"
	"github.com/tomtom215/skillswap/internal/upload"
	"github.com/tomtom215/skillswap/internal/websocket"
)

const (
	testPassword  = "correct-horse-1"
	adminEmail    = "admin@example.com"
	adminPassword = "admin-password-1"
)

// DuckDB instances are memory hungry; bound how many tests hold one.
var testDBSemaphore = make(chan struct{}, 2)

func init() {
	logging.Init(logging.Config{Level: "error", Output: io.Discard})
}

// captureMailer records reset links instead of sending them.
type captureMailer struct {
	mu   sync.Mutex
	urls []string
}

func (m *captureMailer) SendPasswordReset(_ context.Context, _, resetURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.urls = append(m.urls, resetURL)
	return nil
}

func (m *captureMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.urls)
}

func (m *captureMailer) lastToken(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.urls) == 0 {
		t.Fatal("no reset mail sent")
	}
	u, err := url.Parse(m.urls[len(m.urls)-1])
	if err != nil {
		t.Fatalf("parse reset url: %v", err)
	}
	return u.Query().Get("token")
}

// fakeMapRunner writes a small HTML file where the script would.
type fakeMapRunner struct {
	calls atomic.Int32
}

func (f *fakeMapRunner) Run(_ context.Context, _ string, args ...string) ([]byte, error) {
	f.calls.Add(1)
	for i := 0; i < len(args)-1; i++ {
		if args[i] == "--output" {
			return nil, os.WriteFile(args[i+1], []byte("<html>map</html>"), 0o600)
		}
	}
	return nil, nil
}

type testEnv struct {
	t         *testing.T
	server    *httptest.Server
	db        *database.DB
	mailer    *captureMailer
	mapRunner *fakeMapRunner
}

type envOption func(cfg *config.Config)

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() { <-testDBSemaphore })

	db, err := database.New(&config.DatabaseConfig{Path: ":memory:", MaxMemory: "1GB"})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	dir := t.TempDir()
	cfg := &config.Config{
		Server: config.ServerConfig{Environment: "development"},
		Security: config.SecurityConfig{
			SessionTTL:        time.Hour,
			RateLimitDisabled: true,
		},
		Upload: config.UploadConfig{Dir: filepath.Join(dir, "uploads")},
		Map: config.MapConfig{
			ScriptPath: "generate_map.py",
			OutputPath: filepath.Join(dir, "map", "map.html"),
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	mailer := &captureMailer{}
	authService := auth.NewService(db, mailer, auth.ServiceConfig{ResetBaseURL: "http://app.test/reset"})
	if _, err := authService.BootstrapAdmin(context.Background(), "admin", adminEmail, adminPassword); err != nil {
		t.Fatalf("bootstrap admin: %v", err)
	}

	enforcer, err := authz.NewEnforcer(authz.DefaultEnforcerConfig())
	if err != nil {
		t.Fatalf("enforcer: %v", err)
	}
	t.Cleanup(enforcer.Close)
	authzMiddleware := authz.NewMiddleware(enforcer)

	sessions := auth.NewSessionMiddleware(auth.NewMemorySessionStore(), auth.SessionMiddlewareConfigFrom(cfg))
	hub := websocket.NewHub()

	uploads, err := upload.NewStore(&cfg.Upload)
	if err != nil {
		t.Fatalf("upload store: %v", err)
	}
	runner := &fakeMapRunner{}

	handler := NewHandler(HandlerDeps{
		DB:       db,
		Config:   cfg,
		Auth:     authService,
		Sessions: sessions,
		Authz:    authzMiddleware,
		Bookings: booking.NewService(db, hub),
		Search:   search.NewService(db),
		Hub:      hub,
		Uploads:  uploads,
		Map:      mapgen.New(&cfg.Map, db, runner),
	})
	router := NewRouter(handler, sessions, authzMiddleware, cfg)

	server := httptest.NewServer(router.SetupChi())
	t.Cleanup(server.Close)

	return &testEnv{t: t, server: server, db: db, mailer: mailer, mapRunner: runner}
}

// client is a cookie-holding API caller.
type client struct {
	env  *testEnv
	http *http.Client
}

func (e *testEnv) anonymous() *client {
	jar, err := cookiejar.New(nil)
	if err != nil {
		e.t.Fatalf("cookie jar: %v", err)
	}
	return &client{env: e, http: &http.Client{Jar: jar}}
}

// register creates a user named username and returns its logged-in client.
func (e *testEnv) register(username string) (*client, *models.User) {
	e.t.Helper()
	c := e.anonymous()
	status, body := c.do(http.MethodPost, "/auth/register", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": testPassword,
	})
	if status != http.StatusCreated {
		e.t.Fatalf("register %s: status %d body %s", username, status, body)
	}
	return c, decode[models.User](e.t, body)
}

// admin returns a client logged in as the bootstrap admin.
func (e *testEnv) admin() *client {
	e.t.Helper()
	c := e.anonymous()
	status, body := c.do(http.MethodPost, "/auth/login", map[string]string{
		"email":    adminEmail,
		"password": adminPassword,
	})
	if status != http.StatusOK {
		e.t.Fatalf("admin login: status %d body %s", status, body)
	}
	return c
}

// category inserts a category fixture.
func (e *testEnv) category(slug string) *models.Category {
	e.t.Helper()
	c := &models.Category{Name: slug, Slug: slug}
	if err := e.db.CreateCategory(context.Background(), c); err != nil {
		e.t.Fatalf("create category: %v", err)
	}
	return c
}

// listing creates a listing through the API as c.
func (c *client) listing(categoryID int64, title string, availability ...string) *models.Listing {
	c.env.t.Helper()
	if availability == nil {
		availability = []string{}
	}
	status, body := c.do(http.MethodPost, "/listings", map[string]any{
		"categoryId":   categoryID,
		"type":         "offer",
		"title":        title,
		"address":      "1 Main St",
		"city":         "Berlin",
		"availability": availability,
	})
	if status != http.StatusCreated {
		c.env.t.Fatalf("create listing: status %d body %s", status, body)
	}
	return decode[models.Listing](c.env.t, body)
}

// do sends body as JSON and returns the status and response body.
func (c *client) do(method, path string, body any) (int, []byte) {
	c.env.t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			c.env.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, c.env.server.URL+path, reader)
	if err != nil {
		c.env.t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req)
}

func (c *client) send(req *http.Request) (int, []byte) {
	c.env.t.Helper()
	resp, err := c.http.Do(req)
	if err != nil {
		c.env.t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.env.t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, data
}

func decode[T any](t *testing.T, data []byte) *T {
	t.Helper()
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("decode %T from %s: %v", v, data, err)
	}
	return &v
}

// expectError asserts an error envelope with status and code.
func expectError(t *testing.T, status int, body []byte, wantStatus int, wantCode string) *ErrorResponse {
	t.Helper()
	if status != wantStatus {
		t.Fatalf("status = %d, want %d (body %s)", status, wantStatus, body)
	}
	resp := decode[ErrorResponse](t, body)
	if resp.Code != wantCode {
		t.Fatalf("code = %q, want %q (body %s)", resp.Code, wantCode, body)
	}
	return resp
}
