// SkillSwap - Booking and Listing Marketplace API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillswap

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/skillswap/internal/auth"
	"github.com/tomtom215/skillswap/internal/authz"
	"github.com/tomtom215/skillswap/internal/config"
	"github.com/tomtom215/skillswap/internal/middleware"
	"github.com/tomtom215/skillswap/internal/upload"
)

// Router wires handlers and middleware into a Chi router.
type Router struct {
	handler       *Handler
	sessions      *auth.SessionMiddleware
	authz         *authz.Middleware
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router. cfg supplies CORS origins and rate limits.
func NewRouter(handler *Handler, sessions *auth.SessionMiddleware, authzMiddleware *authz.Middleware, cfg *config.Config) *Router {
	mwConfig := DefaultChiMiddlewareConfig()
	if cfg != nil {
		mwConfig = ChiMiddlewareConfigFrom(cfg)
	}
	return &Router{
		handler:       handler,
		sessions:      sessions,
		authz:         authzMiddleware,
		chiMiddleware: NewChiMiddleware(mwConfig),
	}
}

// chiMiddleware adapts http.HandlerFunc middleware to Chi's func(http.Handler) http.Handler.
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()
	h := router.handler
	allow := router.authz.Authorize

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // CORS must be global to handle OPTIONS preflight
	r.Use(middleware.SlowRequests(middleware.DefaultSlowThreshold))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, http.StatusNotFound, ErrCodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "method not allowed")
	})

	// ========================
	// Health and Metrics
	// ========================
	r.Route("/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(chiMiddleware(middleware.SecurityHeaders))
		r.Use(chiMiddleware(middleware.NoStore))
		r.Get("/live", h.Live)
		r.Get("/ready", h.Ready)
	})
	r.With(router.chiMiddleware.RateLimitHealth()).Handle("/metrics", promhttp.Handler())

	// ========================
	// Authentication
	// ========================
	r.Route("/auth", func(r chi.Router) {
		r.Use(chiMiddleware(middleware.SecurityHeaders))
		r.Use(chiMiddleware(middleware.NoStore))
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(router.sessions.Authenticate)

		// Credential endpoints are limited per IP against brute force.
		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimitAuth())
			r.With(router.chiMiddleware.RateLimitLogin()).Post("/login", h.Login)
			r.Post("/register", h.Register)
			r.Post("/forgot-password", h.ForgotPassword)
			r.Post("/reset-password", h.ResetPassword)
			r.With(router.sessions.RequireAuth).Post("/change-password", h.ChangePassword)
		})

		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimit())
			r.Post("/logout", h.Logout)
			r.With(router.sessions.RequireAuth).Get("/me", h.Me)
		})
	})

	// ========================
	// Notification push
	// ========================
	// Kept out of the compressed group so the upgrade sees the raw writer.
	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(router.sessions.RequireAuth)
		r.With(allow("notifications", "read")).Get("/notifications/ws", h.NotificationsWebSocket)
	})

	// ========================
	// Core API
	// ========================
	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(chiMiddleware(middleware.SecurityHeaders))
		r.Use(chiMiddleware(middleware.NoStore))
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(chimiddleware.Compress(5, "application/json"))
		r.Use(router.sessions.Authenticate)

		// Public reads
		r.Get("/listings", h.ListListings)
		r.Get("/listings/{id}", h.GetListing)
		r.Get("/categories", h.ListCategories)
		r.Get("/search", h.Search)

		r.Group(func(r chi.Router) {
			r.Use(router.sessions.RequireAuth)

			// Listings
			r.With(allow("listings", "create")).Post("/listings", h.CreateListing)
			r.With(allow("listings", "delete")).Delete("/listings/{id}", h.DeleteListing)
			r.With(allow("bookings", "create")).Post("/listings/{id}/bookings", h.CreateListingBooking)
			r.With(allow("favorites", "write")).Post("/listings/{id}/favorite", h.FavoriteListing)
			r.With(allow("favorites", "write")).Delete("/listings/{id}/favorite", h.UnfavoriteListing)

			// Bookings; ownership is checked by the booking service.
			r.Get("/bookings", h.ListBookings)
			r.With(allow("bookings", "create")).Post("/bookings", h.CreateBooking)
			r.Get("/bookings/{id}", h.GetBooking)
			r.Patch("/bookings/{id}", h.UpdateBooking)
			r.Delete("/bookings/{id}", h.DeleteBooking)

			// Favorites
			r.With(allow("favorites", "read")).Get("/favorites", h.ListFavorites)
			r.With(allow("favorites", "write")).Post("/favorites", h.AddFavorite)
			r.With(allow("favorites", "write")).Delete("/favorites/{listingId}", h.RemoveFavorite)

			// Categories (admin)
			r.With(allow("categories", "create")).Post("/categories", h.CreateCategory)
			r.With(allow("categories", "update")).Patch("/categories/{id}", h.UpdateCategory)
			r.With(allow("categories", "delete")).Delete("/categories/{id}", h.DeleteCategory)

			// Notifications
			r.With(allow("notifications", "read")).Get("/notifications", h.ListNotifications)
			r.With(allow("notifications", "read")).Patch("/notifications/{id}/read", h.MarkNotificationRead)
			r.With(allow("notifications", "create")).Post("/notifications", h.CreateNotification)

			// Users; self-or-admin checks happen in the handlers.
			r.With(allow("users", "create")).Post("/users/admin", h.CreateAdmin)
			r.With(allow("users", "update")).Patch("/users/{id}/role", h.UpdateUserRole)
			r.Get("/users/{id}", h.GetUser)
			r.Delete("/users/{id}", h.DeleteUser)

			// Session audit
			r.With(allow("sessions", "create")).Post("/sessions", h.CreateSessionAudit)
			r.Patch("/sessions/{id}/logout", h.CloseSessionAudit)

			// Search logs
			r.With(allow("search_logs", "create")).Post("/search-logs", h.CreateSearchLog)
			r.With(allow("search_logs", "read")).Get("/search-logs", h.ListSearchLogs)
		})
	})

	// ========================
	// Files and map
	// ========================
	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitUpload())
		r.Use(chiMiddleware(middleware.SecurityHeaders))
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(router.sessions.Authenticate)

		r.With(router.sessions.RequireAuth, allow("upload", "create")).Post("/upload", h.UploadFile)
		r.Get("/map", h.Map)
	})
	if h.uploads != nil {
		r.With(chiMiddleware(middleware.SecurityHeaders)).Handle(upload.URLPrefix+"*", h.UploadsFileServer())
	}

	return r
}
