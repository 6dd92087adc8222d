// SkillSwap - Booking and Listing Marketplace API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillswap

package middleware

import (
	"net/http"
	"time"

	"github.com/tomtom215/skillswap/internal/logging"
)

// DefaultSlowThreshold is the latency above which SlowRequests logs.
const DefaultSlowThreshold = time.Second

// SlowRequests logs a warning for requests slower than threshold. Map
// generation is expected to be slow and is still logged; the warning is
// how operators notice a stuck generator script.
func SlowRequests(threshold time.Duration) func(http.Handler) http.Handler {
	if threshold <= 0 {
		threshold = DefaultSlowThreshold
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapper := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapper, r)

			if d := time.Since(start); d > threshold {
				logging.Ctx(r.Context()).Warn().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", wrapper.statusCode).
					Dur("duration", d).
					Dur("threshold", threshold).
					Msg("Slow request detected")
			}
		})
	}
}
