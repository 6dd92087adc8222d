// SkillSwap - Booking and Listing Marketplace API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillswap

// Package search implements listing search and search logging.
package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/tomtom215/skillswap/internal/auth"
	"github.com/tomtom215/skillswap/internal/logging"
	"github.com/tomtom215/skillswap/internal/metrics"
	"github.com/tomtom215/skillswap/internal/models"
)

// MaxQueryLength caps the accepted query text.
const MaxQueryLength = 200

// Store is the persistence search needs.
type Store interface {
	SearchListings(ctx context.Context, query string) ([]*models.Listing, error)
	CreateSearchLog(ctx context.Context, s *models.SearchLog) error
	ListSearchLogs(ctx context.Context, userID int64, limit int) ([]*models.SearchLog, error)
}

// DefaultHistoryLimit is how many past searches History returns by default.
const DefaultHistoryLimit = 20

// Service runs searches.
type Service struct {
	store Store
}

// NewService creates a search service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Result is the response of GET /search.
type Result struct {
	Results []*models.Listing `json:"results"`
	Query   string            `json:"query"`
}

func cleanQuery(query string) (string, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return "", models.NewValidationError("query is required")
	}
	if len(q) > MaxQueryLength {
		return "", models.NewValidationError("query must be at most %d characters", MaxQueryLength)
	}
	return q, nil
}

// Search matches query case-insensitively against title, description, city
// and country of live listings, newest first, at most 50 rows. Searches by a
// logged-in subject are logged; a failed log write does not fail the search.
func (s *Service) Search(ctx context.Context, subject *auth.AuthSubject, query string) (*Result, error) {
	q, err := cleanQuery(query)
	if err != nil {
		return nil, err
	}

	listings, err := s.store.SearchListings(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search listings: %w", err)
	}
	metrics.RecordSearch(len(listings))

	if subject != nil {
		if _, err := s.Log(ctx, subject, q); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Int64("user_id", subject.UserID).Msg("Failed to record search log")
		}
	}
	return &Result{Results: listings, Query: query}, nil
}

// Log records query for subject.
func (s *Service) Log(ctx context.Context, subject *auth.AuthSubject, query string) (*models.SearchLog, error) {
	if subject == nil {
		return nil, models.NewAuthError("authentication required")
	}
	q, err := cleanQuery(query)
	if err != nil {
		return nil, err
	}
	entry := &models.SearchLog{UserID: subject.UserID, Query: q}
	if err := s.store.CreateSearchLog(ctx, entry); err != nil {
		return nil, fmt.Errorf("create search log: %w", err)
	}
	return entry, nil
}

// History returns subject's most recent searches, newest first. A limit
// outside 1..50 falls back to DefaultHistoryLimit.
func (s *Service) History(ctx context.Context, subject *auth.AuthSubject, limit int) ([]*models.SearchLog, error) {
	if subject == nil {
		return nil, models.NewAuthError("authentication required")
	}
	if limit <= 0 || limit > 50 {
		limit = DefaultHistoryLimit
	}
	logs, err := s.store.ListSearchLogs(ctx, subject.UserID, limit)
	if err != nil {
		return nil, fmt.Errorf("list search logs: %w", err)
	}
	return logs, nil
}
