// SkillSwap - Booking and Listing Marketplace API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillswap

package services

import (
	"context"
	"time"

	"github.com/tomtom215/skillswap/internal/logging"
	"github.com/tomtom215/skillswap/internal/metrics"
)

// ExpiringStore is satisfied by every auth.SessionStore.
type ExpiringStore interface {
	CleanupExpired(ctx context.Context) (int, error)
}

// SessionCleanupService purges expired sessions on a fixed interval.
//
// A failed sweep is logged and retried on the next tick; it never returns an
// error to the supervisor, since a transient store error should not trigger
// restart backoff.
type SessionCleanupService struct {
	store    ExpiringStore
	interval time.Duration
	name     string
}

// NewSessionCleanupService wraps store. A non-positive interval means 5m.
func NewSessionCleanupService(store ExpiringStore, interval time.Duration) *SessionCleanupService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &SessionCleanupService{
		store:    store,
		interval: interval,
		name:     "session-cleanup",
	}
}

// Serve implements suture.Service.
func (s *SessionCleanupService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *SessionCleanupService) sweep(ctx context.Context) {
	removed, err := s.store.CleanupExpired(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logging.Warn().Err(err).Msg("Session cleanup failed")
		}
		return
	}
	if removed > 0 {
		metrics.SessionsExpiredRemoved.Add(float64(removed))
		logging.Debug().Int("removed", removed).Msg("Expired sessions removed")
	}
}

func (s *SessionCleanupService) String() string {
	return s.name
}
