// SkillSwap - Booking and Listing Marketplace API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillswap

/*
Package metrics defines the Prometheus collectors exported at /metrics.

# Overview

  - HTTP request latency, throughput and rate-limit rejections
  - Auth outcomes (register, login, password reset)
  - Booking lifecycle events and notification delivery
  - Search volume
  - Session store size and cleanup
  - Circuit breaker state around the SMTP relay
  - Websocket connections
  - Map generation runs and upload sizes

All collectors register with the default registry through promauto, so
importing the package is enough to expose them.

# Example

	metrics.RecordBookingEvent("create", "ok")
	metrics.RecordAuthAttempt("login", "invalid_credentials")
*/
package metrics
