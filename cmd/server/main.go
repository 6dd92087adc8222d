// SkillSwap - Booking and Listing Marketplace API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillswap

package main

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/tomtom215/skillswap/internal/api"
	"github.com/tomtom215/skillswap/internal/auth"
	"github.com/tomtom215/skillswap/internal/authz"
	"github.com/tomtom215/skillswap/internal/booking"
	"github.com/tomtom215/skillswap/internal/config"
	"github.com/tomtom215/skillswap/internal/database"
	"github.com/tomtom215/skillswap/internal/logging"
	"github.com/tomtom215/skillswap/internal/mapgen"
	"github.com/tomtom215/skillswap/internal/metrics"
	"github.com/tomtom215/skillswap/internal/search"
	"github.com/tomtom215/skillswap/internal/supervisor"
	"github.com/tomtom215/skillswap/internal/supervisor/services"
	"github.com/tomtom215/skillswap/internal/upload"
	ws "github.com/tomtom215/skillswap/internal/websocket"
)

const sessionCleanupInterval = 5 * time.Minute

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Config not loaded yet, so the default logger reports this.
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("db_path", cfg.Database.Path).
		Str("session_store", cfg.Security.SessionStore).
		Str("version", version).
		Msg("Starting SkillSwap")
	metrics.SetAppInfo(version)

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	sessionStore, sessionCloser, err := auth.NewSessionStore(&cfg.Security, &cfg.Redis)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize session store")
	}
	defer closeQuietly("session store", sessionCloser)
	warnAboutConfig(cfg)

	authService := auth.NewService(db, auth.NewMailer(&cfg.SMTP), auth.ServiceConfig{
		ResetBaseURL: cfg.SMTP.ResetBaseURL,
		Development:  !cfg.IsProduction(),
	})
	bootstrapAdmin(authService, cfg)

	enforcer, err := authz.NewEnforcer(&authz.EnforcerConfig{
		PolicyPath:     cfg.Security.CasbinPolicyPath,
		ReloadInterval: policyReloadInterval(cfg),
		CacheTTL:       authz.DefaultEnforcerConfig().CacheTTL,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize authorization enforcer")
	}
	defer enforcer.Close()
	authzMiddleware := authz.NewMiddleware(enforcer)

	uploads, err := upload.NewStore(&cfg.Upload)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize upload store")
	}

	hub := ws.NewHub()
	sessions := auth.NewSessionMiddleware(sessionStore, auth.SessionMiddlewareConfigFrom(cfg))

	handler := api.NewHandler(api.HandlerDeps{
		DB:       db,
		Config:   cfg,
		Auth:     authService,
		Sessions: sessions,
		Authz:    authzMiddleware,
		Bookings: booking.NewService(db, hub),
		Search:   search.NewService(db),
		Hub:      hub,
		Uploads:  uploads,
		Map:      mapgen.New(&cfg.Map, db, mapgen.ExecRunner{}),
	})
	router := api.NewRouter(handler, sessions, authzMiddleware, cfg)

	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}
	tree.AddMaintenanceService(services.NewSessionCleanupService(sessionStore, sessionCleanupInterval))
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	errCh := tree.ServeBackground(ctx)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("SkillSwap stopped")
}

func bootstrapAdmin(svc *auth.Service, cfg *config.Config) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	created, err := svc.BootstrapAdmin(ctx, cfg.Security.AdminUsername, cfg.Security.AdminEmail, cfg.Security.AdminPassword)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to bootstrap admin account")
	}
	if created {
		logging.Info().Str("email", cfg.Security.AdminEmail).Msg("Bootstrap admin account created")
	}
}

// policyReloadInterval only reloads when a policy file is configured.
func policyReloadInterval(cfg *config.Config) time.Duration {
	if cfg.Security.CasbinPolicyPath == "" {
		return 0
	}
	return time.Minute
}

func warnAboutConfig(cfg *config.Config) {
	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}
	if cfg.Security.SessionStore == string(auth.SessionStoreMemory) && cfg.IsProduction() {
		logging.Warn().Msg("In-memory session store in production: sessions are lost on restart. Consider SESSION_STORE=badger or redis")
	}
	if cfg.SMTP.Host == "" {
		logging.Info().Msg("SMTP not configured; password reset links are logged instead of mailed")
	}
}

func closeQuietly(name string, c io.Closer) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		logging.Error().Err(err).Str("component", name).Msg("Error during close")
	}
}
