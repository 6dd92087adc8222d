// SkillSwap - Booking and Listing Marketplace API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillswap

/*
Package middleware provides infrastructure HTTP middleware.

Key Components:

  - RequestID: X-Request-ID propagation into the request and logging context
  - PrometheusMetrics: request count, latency and in-flight gauge per route pattern
  - SecurityHeaders / NoStore: response hardening for API routes
  - SlowRequests: warning log for requests above a latency threshold

RequestID, PrometheusMetrics, SecurityHeaders and NoStore use the
http.HandlerFunc middleware shape; the api package adapts them to chi with
its chiMiddleware helper:

	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chiMiddleware(middleware.PrometheusMetrics))

Authentication and authorization middleware live in internal/auth and
internal/authz.
*/
package middleware
