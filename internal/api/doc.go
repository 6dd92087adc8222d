// SkillSwap - Booking and Listing Marketplace API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillswap

/*
Package api provides the HTTP REST API layer for SkillSwap.

It wires the chi router, decodes and validates requests, calls the domain
services and maps their errors onto HTTP status codes.

Key Components:

  - Router: chi route tree and middleware stack (chi_router.go)
  - ChiMiddleware: CORS and per-group rate limits (chi_middleware.go)
  - Handler: request handlers, split per resource (handlers_*.go)
  - Response helpers: JSON bodies and the error envelope (response.go)
  - Error mapping: domain error kind to status and code (errors.go)

API Categories:

 1. Auth (/auth): register, login, logout, me, password reset and change
 2. Catalog (/listings, /categories, /favorites): listing CRUD, favorites
 3. Bookings (/bookings, /listings/{id}/bookings): create, patch, delete
 4. Activity (/notifications, /search, /search-logs, /sessions)
 5. Accounts (/users): profile, deactivation, admin management
 6. Files (/upload, /uploads/*, /map)
 7. Operations (/health/live, /health/ready, /metrics)

Success responses carry the resource itself. Errors always use

	{"error": "booking already exists for this listing and date", "code": "CONFLICT", "request_id": "..."}

Status mapping (see writeServiceError):

	ValidationError      400 VALIDATION_FAILED
	AuthError            401 UNAUTHORIZED
	ForbiddenError       403 FORBIDDEN
	NotFoundError        404 NOT_FOUND
	ConflictError        409 CONFLICT
	SlotUnavailableError 409 SLOT_UNAVAILABLE
	anything else        500 INTERNAL_ERROR

Authentication is an opaque session cookie resolved by auth.SessionMiddleware.
Role checks for admin-only routes go through the Casbin middleware in
internal/authz; ownership checks (booking participants, own notifications)
live in the services and handlers.

Usage Example:

	handler := api.NewHandler(api.HandlerDeps{DB: db, Config: cfg, Auth: authSvc, ...})
	router := api.NewRouter(handler, sessions, authzMiddleware, cfg)
	srv := &http.Server{Addr: addr, Handler: router.SetupChi()}
*/
package api
