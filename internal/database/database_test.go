// SkillSwap - Booking and Listing Marketplace API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillswap

package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/skillswap/internal/config"
	"github.com/tomtom215/skillswap/internal/models"
)

// testDBSemaphore serializes DuckDB usage across tests. Concurrent CGO calls
// from many parallel tests can hang under CI pressure.
var testDBSemaphore = make(chan struct{}, 1)

var testDBMutex sync.Mutex

// setupTestDB opens a fresh in-memory database. The semaphore is held until
// the test completes.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() {
		<-testDBSemaphore
	})

	cfg := &config.DatabaseConfig{
		Path:      ":memory:",
		MaxMemory: "1GB",
	}

	type result struct {
		db  *DB
		err error
	}
	resultCh := make(chan result, 1)
	go func() {
		testDBMutex.Lock()
		db, err := New(cfg)
		testDBMutex.Unlock()
		resultCh <- result{db: db, err: err}
	}()

	select {
	case res := <-resultCh:
		if res.err != nil {
			t.Fatalf("Failed to create test database: %v", res.err)
		}
		t.Cleanup(func() {
			if err := res.db.Close(); err != nil {
				t.Errorf("Close: %v", err)
			}
		})
		return res.db
	case <-time.After(120 * time.Second):
		t.Fatalf("Timeout: database creation took longer than 120s")
		return nil
	}
}

// steppingClock returns a now func that advances one second per call.
func steppingClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	cur := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		cur = cur.Add(time.Second)
		return cur
	}
}

func createTestUser(t *testing.T, db *DB, name string) *models.User {
	t.Helper()
	u := &models.User{Username: name, Email: name + "@example.com", PasswordHash: "hash"}
	if err := db.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser(%s): %v", name, err)
	}
	return u
}

func createTestCategory(t *testing.T, db *DB) *models.Category {
	t.Helper()
	c := &models.Category{Name: "Music", Slug: "music"}
	if err := db.CreateCategory(context.Background(), c); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	return c
}

func createTestListing(t *testing.T, db *DB, ownerID, categoryID int64, title string) *models.Listing {
	t.Helper()
	l := &models.Listing{
		OwnerID:    ownerID,
		CategoryID: categoryID,
		Type:       "offer",
		Title:      title,
		Address:    "1 Main St",
	}
	if err := db.CreateListing(context.Background(), l); err != nil {
		t.Fatalf("CreateListing: %v", err)
	}
	return l
}

func TestNewMemoryDatabase(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if err := db.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	v, err := db.CurrentSchemaVersion(ctx)
	if err != nil {
		t.Fatalf("CurrentSchemaVersion: %v", err)
	}
	if want := len(migrations()); v != want {
		t.Errorf("schema version = %d, want %d", v, want)
	}
}

func TestUsers(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	if alice.ID == 0 || alice.Role != models.RoleUser {
		t.Fatalf("unexpected user after create: %+v", alice)
	}

	dup := &models.User{Username: "alice2", Email: "alice@example.com", PasswordHash: "x"}
	if err := db.CreateUser(ctx, dup); !errors.Is(err, ErrUniqueViolation) {
		t.Errorf("duplicate email error = %v, want ErrUniqueViolation", err)
	}

	got, err := db.GetUserByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if got.ID != alice.ID {
		t.Errorf("GetUserByEmail id = %d, want %d", got.ID, alice.ID)
	}

	if _, err := db.GetUserByID(ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing user error = %v, want ErrNotFound", err)
	}

	promoted, err := db.SetUserRole(ctx, alice.ID, models.RoleAdmin)
	if err != nil {
		t.Fatalf("SetUserRole: %v", err)
	}
	if !promoted.IsAdmin() {
		t.Errorf("role = %q, want admin", promoted.Role)
	}

	deleted, err := db.SoftDeleteUser(ctx, alice.ID)
	if err != nil || !deleted {
		t.Fatalf("SoftDeleteUser = %v, %v", deleted, err)
	}
	again, err := db.SoftDeleteUser(ctx, alice.ID)
	if err != nil || again {
		t.Errorf("second SoftDeleteUser = %v, %v; want false, nil", again, err)
	}

	// Soft-deleted accounts are still found by email.
	got, err = db.GetUserByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail after delete: %v", err)
	}
	if !got.IsDeleted() {
		t.Error("expected DeletedAt to be set")
	}
}

func TestPasswordResetToken(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db, "bob")

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := db.SetPasswordResetToken(ctx, u.ID, "tok", now.Add(time.Hour)); err != nil {
		t.Fatalf("SetPasswordResetToken: %v", err)
	}

	got, err := db.GetUserByResetToken(ctx, "tok", now)
	if err != nil {
		t.Fatalf("GetUserByResetToken: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("token owner = %d, want %d", got.ID, u.ID)
	}

	if _, err := db.GetUserByResetToken(ctx, "tok", now.Add(2*time.Hour)); !errors.Is(err, ErrNotFound) {
		t.Errorf("expired token error = %v, want ErrNotFound", err)
	}

	if err := db.UpdatePassword(ctx, u.ID, "newhash"); err != nil {
		t.Fatalf("UpdatePassword: %v", err)
	}
	if _, err := db.GetUserByResetToken(ctx, "tok", now); !errors.Is(err, ErrNotFound) {
		t.Errorf("token reuse error = %v, want ErrNotFound", err)
	}
	got, err = db.GetUserByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if got.PasswordHash != "newhash" || got.PasswordResetToken != nil || got.PasswordResetExpires != nil {
		t.Errorf("reset fields not cleared: %+v", got)
	}
}

func TestCategories(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	c := createTestCategory(t, db)
	if err := db.CreateCategory(ctx, &models.Category{Name: "Other", Slug: "music"}); !errors.Is(err, ErrUniqueViolation) {
		t.Errorf("duplicate slug error = %v, want ErrUniqueViolation", err)
	}

	c.Name = "Music & Audio"
	if err := db.UpdateCategory(ctx, c); err != nil {
		t.Fatalf("UpdateCategory: %v", err)
	}
	got, err := db.GetCategory(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetCategory: %v", err)
	}
	if got.Name != "Music & Audio" {
		t.Errorf("Name = %q", got.Name)
	}

	ok, err := db.DeleteCategory(ctx, c.ID)
	if err != nil || !ok {
		t.Fatalf("DeleteCategory = %v, %v", ok, err)
	}
	list, err := db.ListCategories(ctx)
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("categories after delete = %d, want 0", len(list))
	}
}

func TestListings(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "owner")
	cat := createTestCategory(t, db)

	slot := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	lat, lng := 52.52, 13.40
	availability, err := models.ParseAvailability(`["2026-05-01T11:00:00Z","2026-05-01T10:00:00Z","2026-05-01T10:00:00Z"]`)
	if err != nil {
		t.Fatalf("ParseAvailability: %v", err)
	}
	l := &models.Listing{
		OwnerID:      owner.ID,
		CategoryID:   cat.ID,
		Type:         "offer",
		Title:        "Guitar lessons",
		Address:      "Main St",
		Availability: availability,
		Latitude:     &lat,
		Longitude:    &lng,
	}
	if err := db.CreateListing(ctx, l); err != nil {
		t.Fatalf("CreateListing: %v", err)
	}
	createTestListing(t, db, owner.ID, cat.ID, "No location")

	got, err := db.GetListing(ctx, l.ID)
	if err != nil {
		t.Fatalf("GetListing: %v", err)
	}
	if len(got.Availability) != 2 || !got.Availability[0].Equal(slot) {
		t.Errorf("availability = %v, want two sorted slots", got.Availability.Strings())
	}
	if got.Owner == nil || got.Owner.Username != "owner" {
		t.Errorf("owner = %+v", got.Owner)
	}
	if got.Category == nil || got.Category.Slug != "music" {
		t.Errorf("category = %+v", got.Category)
	}

	located, err := db.ListListingsWithLocation(ctx)
	if err != nil {
		t.Fatalf("ListListingsWithLocation: %v", err)
	}
	if len(located) != 1 || located[0].ID != l.ID {
		t.Errorf("located listings = %d, want only %d", len(located), l.ID)
	}

	if ok, err := db.SoftDeleteListing(ctx, l.ID); err != nil || !ok {
		t.Fatalf("SoftDeleteListing = %v, %v", ok, err)
	}
	if ok, err := db.SoftDeleteListing(ctx, l.ID); err != nil || ok {
		t.Errorf("second SoftDeleteListing = %v, %v", ok, err)
	}
	if _, err := db.GetListing(ctx, l.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted listing error = %v, want ErrNotFound", err)
	}

	all, err := db.ListListings(ctx)
	if err != nil {
		t.Fatalf("ListListings: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("live listings = %d, want 1", len(all))
	}
}

func TestListingLegacyAvailability(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "owner")
	cat := createTestCategory(t, db)
	slot := time.Date(2031, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		raw       string
		wantSlots int
		wantOpen  bool
	}{
		{"unparsable only", `["next monday at noon"]`, 0, false},
		{"mixed", "someday,2031-01-01T00:00:00Z", 1, false},
		{"unset", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := createTestListing(t, db, owner.ID, cat.ID, tt.name)
			if _, err := db.conn.ExecContext(ctx,
				`UPDATE listings SET availability = ? WHERE id = ?`, nullString(tt.raw), l.ID); err != nil {
				t.Fatalf("write raw availability: %v", err)
			}
			got, err := db.GetListing(ctx, l.ID)
			if err != nil {
				t.Fatalf("GetListing: %v", err)
			}
			if len(got.Availability) != tt.wantSlots {
				t.Errorf("slots = %v, want %d", got.Availability.Strings(), tt.wantSlots)
			}
			if open := got.Availability.Contains(slot.Add(time.Hour)); open != tt.wantOpen {
				t.Errorf("accepts unlisted instant = %v, want %v", open, tt.wantOpen)
			}
		})
	}
}

func TestBookingSlotUniqueness(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "owner")
	requester := createTestUser(t, db, "requester")
	cat := createTestCategory(t, db)
	l := createTestListing(t, db, owner.ID, cat.ID, "Pottery")

	date := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	first := &models.Booking{ListingID: l.ID, UserID: requester.ID, OwnerID: owner.ID, Date: date, Status: models.BookingPending}
	if err := db.CreateBooking(ctx, first); err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	exists, err := db.LiveBookingExists(ctx, l.ID, date, 0)
	if err != nil || !exists {
		t.Fatalf("LiveBookingExists = %v, %v; want true", exists, err)
	}
	exists, err = db.LiveBookingExists(ctx, l.ID, date, first.ID)
	if err != nil || exists {
		t.Errorf("LiveBookingExists excluding self = %v, %v; want false", exists, err)
	}

	second := &models.Booking{ListingID: l.ID, UserID: owner.ID, OwnerID: owner.ID, Date: date, Status: models.BookingPending}
	if err := db.CreateBooking(ctx, second); !errors.Is(err, ErrUniqueViolation) {
		t.Fatalf("duplicate slot error = %v, want ErrUniqueViolation", err)
	}

	// Soft delete frees the slot.
	if ok, err := db.SoftDeleteBooking(ctx, first.ID); err != nil || !ok {
		t.Fatalf("SoftDeleteBooking = %v, %v", ok, err)
	}
	if ok, err := db.SoftDeleteBooking(ctx, first.ID); err != nil || ok {
		t.Errorf("second SoftDeleteBooking = %v, %v", ok, err)
	}
	if err := db.CreateBooking(ctx, second); err != nil {
		t.Fatalf("CreateBooking after soft delete: %v", err)
	}
	if _, err := db.GetBooking(ctx, first.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted booking error = %v, want ErrNotFound", err)
	}
}

func TestUpdateBooking(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "owner")
	requester := createTestUser(t, db, "requester")
	cat := createTestCategory(t, db)
	l := createTestListing(t, db, owner.ID, cat.ID, "Yoga")

	d1 := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	d2 := d1.Add(24 * time.Hour)

	a := &models.Booking{ListingID: l.ID, UserID: requester.ID, OwnerID: owner.ID, Date: d1, Status: models.BookingPending}
	b := &models.Booking{ListingID: l.ID, UserID: requester.ID, OwnerID: owner.ID, Date: d2, Status: models.BookingPending}
	for _, bk := range []*models.Booking{a, b} {
		if err := db.CreateBooking(ctx, bk); err != nil {
			t.Fatalf("CreateBooking: %v", err)
		}
	}

	a.Status = models.BookingAccepted
	if err := db.UpdateBooking(ctx, a); err != nil {
		t.Fatalf("UpdateBooking status: %v", err)
	}
	got, err := db.GetBooking(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetBooking: %v", err)
	}
	if got.Status != models.BookingAccepted || !got.Date.Equal(d1) || got.ListingID != l.ID {
		t.Errorf("after status patch: %+v", got)
	}

	a.Date = d2
	if err := db.UpdateBooking(ctx, a); !errors.Is(err, ErrUniqueViolation) {
		t.Errorf("move onto taken slot error = %v, want ErrUniqueViolation", err)
	}

	a.Date = d2.Add(time.Hour)
	if err := db.UpdateBooking(ctx, a); err != nil {
		t.Fatalf("move to free slot: %v", err)
	}
	if exists, _ := db.LiveBookingExists(ctx, l.ID, d1, 0); exists {
		t.Error("old slot still held after move")
	}
}

func TestListBookings(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "owner")
	r1 := createTestUser(t, db, "r1")
	r2 := createTestUser(t, db, "r2")
	cat := createTestCategory(t, db)
	l := createTestListing(t, db, owner.ID, cat.ID, "Chess")

	base := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	for i, uid := range []int64{r1.ID, r2.ID, r1.ID} {
		bk := &models.Booking{ListingID: l.ID, UserID: uid, OwnerID: owner.ID, Date: base.Add(time.Duration(i) * time.Hour), Status: models.BookingPending}
		if err := db.CreateBooking(ctx, bk); err != nil {
			t.Fatalf("CreateBooking: %v", err)
		}
	}

	tests := []struct {
		name   string
		filter BookingFilter
		want   int
	}{
		{"all", BookingFilter{}, 3},
		{"owner sees all", BookingFilter{ParticipantID: owner.ID}, 3},
		{"requester r1", BookingFilter{ParticipantID: r1.ID}, 2},
		{"requester r2", BookingFilter{ParticipantID: r2.ID}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.ListBookings(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListBookings: %v", err)
			}
			if len(got) != tt.want {
				t.Fatalf("len = %d, want %d", len(got), tt.want)
			}
			for i := 1; i < len(got); i++ {
				if got[i-1].ID < got[i].ID {
					t.Errorf("not ordered by id desc: %d before %d", got[i-1].ID, got[i].ID)
				}
			}
		})
	}
}

func TestFavorites(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db, "fan")
	cat := createTestCategory(t, db)
	l := createTestListing(t, db, u.ID, cat.ID, "Baking")

	first, err := db.AddFavorite(ctx, u.ID, l.ID)
	if err != nil {
		t.Fatalf("AddFavorite: %v", err)
	}
	second, err := db.AddFavorite(ctx, u.ID, l.ID)
	if err != nil {
		t.Fatalf("second AddFavorite: %v", err)
	}
	if !first.CreatedAt.Equal(second.CreatedAt) {
		t.Error("upsert replaced the original favorite")
	}

	got, err := db.GetListing(ctx, l.ID)
	if err != nil {
		t.Fatalf("GetListing: %v", err)
	}
	if got.FavoriteCount != 1 {
		t.Errorf("FavoriteCount = %d, want 1", got.FavoriteCount)
	}

	favs, err := db.ListFavorites(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListFavorites: %v", err)
	}
	if len(favs) != 1 || favs[0].Listing == nil || favs[0].Listing.Title != "Baking" {
		t.Errorf("favorites = %+v", favs)
	}

	for i := 0; i < 2; i++ {
		if err := db.RemoveFavorite(ctx, u.ID, l.ID); err != nil {
			t.Fatalf("RemoveFavorite #%d: %v", i, err)
		}
	}
	favs, err = db.ListFavorites(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListFavorites: %v", err)
	}
	if len(favs) != 0 {
		t.Errorf("favorites after remove = %d", len(favs))
	}
}

func TestNotifications(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db, "reader")

	for i := 0; i < 3; i++ {
		n := &models.Notification{UserID: u.ID, Type: models.NotificationBookingStatus, Payload: fmt.Sprintf(`{"n":%d}`, i)}
		if err := db.CreateNotification(ctx, n); err != nil {
			t.Fatalf("CreateNotification: %v", err)
		}
	}

	list, err := db.ListNotifications(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	if len(list) != 3 || list[0].Payload != `{"n":2}` {
		t.Fatalf("notifications not newest first: %+v", list)
	}

	read, err := db.MarkNotificationRead(ctx, list[0].ID)
	if err != nil {
		t.Fatalf("MarkNotificationRead: %v", err)
	}
	if !read.IsRead {
		t.Error("IsRead = false after mark")
	}
	if _, err := db.MarkNotificationRead(ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing notification error = %v, want ErrNotFound", err)
	}
}

func TestSearchListings(t *testing.T) {
	db := setupTestDB(t)
	db.now = steppingClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()
	u := createTestUser(t, db, "seller")
	cat := createTestCategory(t, db)

	old := createTestListing(t, db, u.ID, cat.ID, "Beginner GUITAR")
	newer := createTestListing(t, db, u.ID, cat.ID, "Advanced guitar")
	createTestListing(t, db, u.ID, cat.ID, "Piano")
	literal := createTestListing(t, db, u.ID, cat.ID, "100% effort")

	results, err := db.SearchListings(ctx, "Guitar")
	if err != nil {
		t.Fatalf("SearchListings: %v", err)
	}
	if len(results) != 2 || results[0].ID != newer.ID || results[1].ID != old.ID {
		t.Errorf("guitar results = %v, want [%d %d]", listingIDs(results), newer.ID, old.ID)
	}

	results, err = db.SearchListings(ctx, "%")
	if err != nil {
		t.Fatalf("SearchListings(%%): %v", err)
	}
	if len(results) != 1 || results[0].ID != literal.ID {
		t.Errorf("wildcard not matched literally: %v", listingIDs(results))
	}

	if _, err := db.SoftDeleteListing(ctx, newer.ID); err != nil {
		t.Fatalf("SoftDeleteListing: %v", err)
	}
	results, err = db.SearchListings(ctx, "guitar")
	if err != nil {
		t.Fatalf("SearchListings: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("deleted listing returned by search: %v", listingIDs(results))
	}
}

func TestSearchListingsLimit(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db, "bulk")
	cat := createTestCategory(t, db)

	for i := 0; i < SearchResultLimit+5; i++ {
		createTestListing(t, db, u.ID, cat.ID, fmt.Sprintf("Lesson %d", i))
	}
	results, err := db.SearchListings(ctx, "lesson")
	if err != nil {
		t.Fatalf("SearchListings: %v", err)
	}
	if len(results) != SearchResultLimit {
		t.Errorf("results = %d, want %d", len(results), SearchResultLimit)
	}
}

func TestSearchLogsAndSessionAudits(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db, "audited")

	if err := db.CreateSearchLog(ctx, &models.SearchLog{UserID: u.ID, Query: "yoga"}); err != nil {
		t.Fatalf("CreateSearchLog: %v", err)
	}
	logs, err := db.ListSearchLogs(ctx, u.ID, 10)
	if err != nil {
		t.Fatalf("ListSearchLogs: %v", err)
	}
	if len(logs) != 1 || logs[0].Query != "yoga" {
		t.Errorf("search logs = %+v", logs)
	}

	a := &models.SessionAudit{UserID: u.ID, Role: u.Role}
	if err := db.CreateSessionAudit(ctx, a); err != nil {
		t.Fatalf("CreateSessionAudit: %v", err)
	}
	closed, err := db.CloseSessionAudit(ctx, a.ID)
	if err != nil {
		t.Fatalf("CloseSessionAudit: %v", err)
	}
	if closed.LogoutTime == nil {
		t.Error("LogoutTime not set")
	}
}

func listingIDs(ls []*models.Listing) []int64 {
	ids := make([]int64, len(ls))
	for i, l := range ls {
		ids[i] = l.ID
	}
	return ids
}
