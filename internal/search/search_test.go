// SkillSwap - Booking and Listing Marketplace API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillswap

package search

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tomtom215/skillswap/internal/auth"
	"github.com/tomtom215/skillswap/internal/models"
)

type fakeStore struct {
	queries []string
	logs    []*models.SearchLog
	logErr  error
}

func (f *fakeStore) SearchListings(_ context.Context, query string) ([]*models.Listing, error) {
	f.queries = append(f.queries, query)
	return []*models.Listing{{ID: 1, Title: "Guitar lessons"}}, nil
}

func (f *fakeStore) CreateSearchLog(_ context.Context, s *models.SearchLog) error {
	if f.logErr != nil {
		return f.logErr
	}
	s.ID = int64(len(f.logs) + 1)
	f.logs = append(f.logs, s)
	return nil
}

func (f *fakeStore) ListSearchLogs(_ context.Context, userID int64, limit int) ([]*models.SearchLog, error) {
	out := make([]*models.SearchLog, 0)
	for i := len(f.logs) - 1; i >= 0 && len(out) < limit; i-- {
		if f.logs[i].UserID == userID {
			out = append(out, f.logs[i])
		}
	}
	return out, nil
}

func TestSearch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		query   string
		subject *auth.AuthSubject
		wantErr bool
		wantLog bool
	}{
		{"anonymous", "guitar", nil, false, false},
		{"logged in", "  guitar ", &auth.AuthSubject{UserID: 4}, false, true},
		{"empty", "", nil, true, false},
		{"whitespace", "   ", &auth.AuthSubject{UserID: 4}, true, false},
		{"too long", strings.Repeat("a", MaxQueryLength+1), nil, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store := &fakeStore{}
			res, err := NewService(store).Search(context.Background(), tt.subject, tt.query)
			if tt.wantErr {
				if !models.IsKind(err, models.KindValidation) {
					t.Errorf("Search() error = %v, want validation", err)
				}
				if len(store.queries) != 0 {
					t.Error("store queried for an invalid query")
				}
				return
			}
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if len(res.Results) != 1 || res.Query != tt.query {
				t.Errorf("result = %+v", res)
			}
			if store.queries[0] != "guitar" {
				t.Errorf("store query = %q, want trimmed", store.queries[0])
			}
			if got := len(store.logs) == 1; got != tt.wantLog {
				t.Errorf("logged = %v, want %v", got, tt.wantLog)
			}
		})
	}
}

func TestSearch_LogFailureIgnored(t *testing.T) {
	t.Parallel()
	store := &fakeStore{logErr: errors.New("db locked")}
	if _, err := NewService(store).Search(context.Background(), &auth.AuthSubject{UserID: 1}, "x"); err != nil {
		t.Errorf("Search() error = %v", err)
	}
}

func TestLog(t *testing.T) {
	t.Parallel()
	store := &fakeStore{}
	svc := NewService(store)
	ctx := context.Background()

	entry, err := svc.Log(ctx, &auth.AuthSubject{UserID: 7}, "piano")
	if err != nil {
		t.Fatal(err)
	}
	if entry.UserID != 7 || entry.Query != "piano" || entry.ID == 0 {
		t.Errorf("entry = %+v", entry)
	}
	if _, err := svc.Log(ctx, nil, "piano"); !models.IsKind(err, models.KindAuth) {
		t.Errorf("Log(nil) error = %v", err)
	}
	if _, err := svc.Log(ctx, &auth.AuthSubject{UserID: 7}, ""); !models.IsKind(err, models.KindValidation) {
		t.Errorf("Log(empty) error = %v", err)
	}
}

func TestHistory(t *testing.T) {
	t.Parallel()
	store := &fakeStore{}
	svc := NewService(store)
	ctx := context.Background()
	me, other := &auth.AuthSubject{UserID: 7}, &auth.AuthSubject{UserID: 8}

	for i := 0; i < DefaultHistoryLimit+5; i++ {
		if _, err := svc.Log(ctx, me, "q"); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := svc.Log(ctx, other, "theirs"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"default", 0, DefaultHistoryLimit},
		{"explicit", 3, 3},
		{"over cap", 500, DefaultHistoryLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs, err := svc.History(ctx, me, tt.limit)
			if err != nil {
				t.Fatal(err)
			}
			if len(logs) != tt.want {
				t.Fatalf("len = %d, want %d", len(logs), tt.want)
			}
			for _, l := range logs {
				if l.UserID != me.UserID {
					t.Errorf("foreign log %+v", l)
				}
			}
			if logs[0].ID < logs[len(logs)-1].ID {
				t.Error("history should be newest first")
			}
		})
	}

	if _, err := svc.History(ctx, nil, 0); !models.IsKind(err, models.KindAuth) {
		t.Errorf("History(nil) error = %v", err)
	}
}
