// SkillSwap - Booking and Listing Marketplace API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillswap

package api

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/skillswap/internal/models"
)

const (
	slotA = "2030-05-01T10:00:00.000Z"
	slotB = "2030-05-02T10:00:00.000Z"
)

func TestBookingScenario(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	cat := env.category("music")
	owner, _ := env.register("owner")
	requester, requesterUser := env.register("requester")
	other, _ := env.register("other")
	admin := env.admin()

	listing := owner.listing(cat.ID, "Guitar lessons", slotB, slotA)
	if got := listing.Availability.Strings(); len(got) != 2 || got[0] != slotA {
		t.Fatalf("availability = %v, want sorted canonical slots", got)
	}

	path := fmt.Sprintf("/listings/%d/bookings", listing.ID)
	status, body := requester.do(http.MethodPost, path, map[string]string{"scheduledAt": slotA, "message": "hi"})
	if status != http.StatusCreated {
		t.Fatalf("create booking: status %d body %s", status, body)
	}
	b := decode[models.Booking](t, body)
	if b.Status != models.BookingPending || b.OwnerID != listing.OwnerID || b.UserID != requesterUser.ID {
		t.Fatalf("booking = %+v", b)
	}

	// Same slot again is a conflict, even for another user.
	status, body = other.do(http.MethodPost, path, map[string]string{"scheduledAt": "2030-05-01T12:00:00+02:00"})
	resp := expectError(t, status, body, http.StatusConflict, ErrCodeConflict)
	if resp.Error != "booking already exists for this listing and date" {
		t.Errorf("conflict message = %q", resp.Error)
	}

	// An instant outside the availability list.
	status, body = other.do(http.MethodPost, path, map[string]string{"scheduledAt": "2030-05-03T10:00:00Z"})
	expectError(t, status, body, http.StatusConflict, ErrCodeSlotUnavailable)

	// Strangers may not patch.
	bookingPath := fmt.Sprintf("/bookings/%d", b.ID)
	status, body = other.do(http.MethodPatch, bookingPath, map[string]string{"status": "canceled"})
	expectError(t, status, body, http.StatusForbidden, ErrCodeForbidden)
	status, body = other.do(http.MethodPatch, bookingPath, map[string]string{"date": "not a date"})
	expectError(t, status, body, http.StatusForbidden, ErrCodeForbidden)
	status, body = other.do(http.MethodGet, bookingPath, nil)
	expectError(t, status, body, http.StatusForbidden, ErrCodeForbidden)

	status, body = admin.do(http.MethodPatch, bookingPath, map[string]string{"status": "accepted"})
	if status != http.StatusOK {
		t.Fatalf("admin patch: status %d body %s", status, body)
	}
	patched := decode[models.Booking](t, body)
	if patched.Status != models.BookingAccepted || !patched.Date.Equal(b.Date) || patched.ListingID != b.ListingID {
		t.Fatalf("patched = %+v, want only status changed", patched)
	}

	status, body = requester.do(http.MethodGet, "/notifications", nil)
	if status != http.StatusOK {
		t.Fatalf("notifications: status %d", status)
	}
	var notes []models.Notification
	if err := json.Unmarshal(body, &notes); err != nil {
		t.Fatal(err)
	}
	if len(notes) != 1 || notes[0].Type != "booking_status" {
		t.Fatalf("notifications = %+v", notes)
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(notes[0].Payload), &payload); err != nil || payload["status"] != "accepted" {
		t.Errorf("payload = %s", notes[0].Payload)
	}

	status, body = requester.do(http.MethodPatch, bookingPath, map[string]string{"status": "bogus"})
	expectError(t, status, body, http.StatusBadRequest, ErrCodeValidationFailed)

	// Delete is limited to the parties and idempotent.
	status, body = other.do(http.MethodDelete, bookingPath, nil)
	expectError(t, status, body, http.StatusForbidden, ErrCodeForbidden)
	for i := 0; i < 2; i++ {
		status, body = requester.do(http.MethodDelete, bookingPath, nil)
		if status != http.StatusNoContent {
			t.Fatalf("delete %d: status %d body %s", i+1, status, body)
		}
	}
	status, body = owner.do(http.MethodGet, bookingPath, nil)
	expectError(t, status, body, http.StatusNotFound, ErrCodeNotFound)

	// The deleted booking frees its slot.
	status, body = other.do(http.MethodPost, "/bookings", map[string]any{"listingId": listing.ID, "scheduledAt": slotA})
	if status != http.StatusCreated {
		t.Fatalf("rebook freed slot: status %d body %s", status, body)
	}
}

func TestListBookings(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	cat := env.category("art")
	owner, ownerUser := env.register("painter")
	alice, _ := env.register("alice")
	bob, bobUser := env.register("bob")
	admin := env.admin()

	listing := owner.listing(cat.ID, "Painting")
	for i, c := range []*client{alice, bob} {
		at := time.Date(2031, 1, 1+i, 9, 0, 0, 0, time.UTC).Format(time.RFC3339)
		status, body := c.do(http.MethodPost, "/bookings", map[string]any{"listingId": listing.ID, "scheduledAt": at})
		if status != http.StatusCreated {
			t.Fatalf("create: status %d body %s", status, body)
		}
	}

	count := func(c *client, path string) int {
		t.Helper()
		status, body := c.do(http.MethodGet, path, nil)
		if status != http.StatusOK {
			t.Fatalf("GET %s: status %d body %s", path, status, body)
		}
		var list []models.Booking
		if err := json.Unmarshal(body, &list); err != nil {
			t.Fatal(err)
		}
		for i := 1; i < len(list); i++ {
			if list[i-1].ID < list[i].ID {
				t.Errorf("GET %s not ordered by id descending", path)
			}
		}
		return len(list)
	}

	tests := []struct {
		name   string
		client *client
		path   string
		want   int
	}{
		{"requester sees own", alice, "/bookings", 1},
		{"owner sees received", owner, "/bookings", 2},
		{"admin sees all", admin, "/bookings", 2},
		{"admin filters by requester", admin, fmt.Sprintf("/bookings?userId=%d", bobUser.ID), 1},
		{"admin filters by owner", admin, fmt.Sprintf("/bookings?userId=%d", ownerUser.ID), 2},
		{"filter ignored for users", alice, fmt.Sprintf("/bookings?userId=%d", bobUser.ID), 1},
	}
	for _, tt := range tests {
		if got := count(tt.client, tt.path); got != tt.want {
			t.Errorf("%s: got %d bookings, want %d", tt.name, got, tt.want)
		}
	}

	status, body := env.anonymous().do(http.MethodGet, "/bookings", nil)
	expectError(t, status, body, http.StatusUnauthorized, ErrCodeUnauthorized)
}

func TestCreateBookingValidation(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	c, _ := env.register("val")

	tests := []struct {
		name       string
		body       map[string]any
		wantStatus int
		wantCode   string
	}{
		{"missing listing", map[string]any{"scheduledAt": slotA}, http.StatusBadRequest, ErrCodeValidationFailed},
		{"negative listing", map[string]any{"listingId": -1, "scheduledAt": slotA}, http.StatusBadRequest, ErrCodeValidationFailed},
		{"bad instant", map[string]any{"listingId": 1, "scheduledAt": "tomorrow"}, http.StatusBadRequest, ErrCodeValidationFailed},
		{"unknown listing", map[string]any{"listingId": 999, "scheduledAt": slotA}, http.StatusNotFound, ErrCodeNotFound},
	}
	for _, tt := range tests {
		status, body := c.do(http.MethodPost, "/bookings", tt.body)
		if status != tt.wantStatus {
			t.Errorf("%s: status = %d, want %d (body %s)", tt.name, status, tt.wantStatus, body)
			continue
		}
		if resp := decode[ErrorResponse](t, body); resp.Code != tt.wantCode {
			t.Errorf("%s: code = %q, want %q", tt.name, resp.Code, tt.wantCode)
		}
	}
}
