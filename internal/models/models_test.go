// SkillSwap - Booking and Listing Marketplace API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillswap

package models

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestParseAvailability(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"empty", "", "", false},
		{"whitespace", "   ", "", false},
		{"empty array", "[]", "", false},
		{
			"json array unsorted with duplicate",
			`["2025-06-02T10:00:00Z","2025-06-01T09:30:00.000Z","2025-06-02T12:00:00+02:00"]`,
			`["2025-06-01T09:30:00.000Z","2025-06-02T10:00:00.000Z"]`, false,
		},
		{
			"comma separated with trailing comma",
			"2025-06-01T09:30:00Z, 2025-06-01T08:00:00Z,",
			`["2025-06-01T08:00:00.000Z","2025-06-01T09:30:00.000Z"]`, false,
		},
		{"one garbage entry", "tomorrow,2025-06-01T08:00:00Z", "", true},
		{"all garbage", `["next monday at noon"]`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			a, err := ParseAvailability(tt.in)
			if tt.wantErr {
				if !IsKind(err, KindValidation) {
					t.Fatalf("ParseAvailability(%q) error = %v, want validation", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAvailability(%q): %v", tt.in, err)
			}
			got := a.Encode()
			if got != tt.want {
				t.Fatalf("ParseAvailability(%q).Encode() = %q, want %q", tt.in, got, tt.want)
			}
			again, err := ParseAvailability(got)
			if err != nil || again.Encode() != got {
				t.Errorf("not idempotent: %q -> %q (%v)", got, again.Encode(), err)
			}
		})
	}
}

func TestReadAvailability(t *testing.T) {
	t.Parallel()

	slot := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	other := slot.Add(24 * time.Hour)

	tests := []struct {
		name      string
		raw       string
		wantSlot  bool
		wantOther bool
	}{
		{"unset accepts anything", "", true, true},
		{"garbage dropped", "tomorrow,2025-06-01T08:00:00Z", true, false},
		{"nothing usable accepts nothing", "soon, later", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			a := ReadAvailability(tt.raw)
			if got := a.Contains(slot); got != tt.wantSlot {
				t.Errorf("Contains(slot) = %v, want %v", got, tt.wantSlot)
			}
			if got := a.Contains(other); got != tt.wantOther {
				t.Errorf("Contains(other) = %v, want %v", got, tt.wantOther)
			}
		})
	}
}

func TestAvailabilityContains(t *testing.T) {
	t.Parallel()

	a, err := ParseAvailability(`["2025-06-01T09:30:00Z","2025-06-01T11:00:00Z"]`)
	if err != nil {
		t.Fatal(err)
	}
	slot := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

	if !a.Contains(slot) {
		t.Error("exact slot should match")
	}
	if !a.Contains(slot.In(time.FixedZone("CEST", 2*3600))) {
		t.Error("same instant in another zone should match")
	}
	if a.Contains(slot.Add(time.Millisecond)) {
		t.Error("instant 1ms off should not match")
	}
	if !Availability(nil).Contains(slot) {
		t.Error("empty availability accepts any instant")
	}
}

func TestAvailabilityJSON(t *testing.T) {
	t.Parallel()

	var fromArray, fromString Availability
	if err := json.Unmarshal([]byte(`["2025-06-01T11:00:00Z","2025-06-01T09:30:00Z"]`), &fromArray); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(`"2025-06-01T09:30:00Z,2025-06-01T11:00:00Z"`), &fromString); err != nil {
		t.Fatal(err)
	}
	if fromArray.Encode() != fromString.Encode() {
		t.Errorf("array %q and string %q forms differ", fromArray.Encode(), fromString.Encode())
	}

	out, err := json.Marshal(fromArray)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `["2025-06-01T09:30:00.000Z","2025-06-01T11:00:00.000Z"]` {
		t.Errorf("MarshalJSON = %s", out)
	}

	for _, in := range []string{`{"a":1}`, `["next monday at noon"]`, `"2025-06-01T09:30:00Z,soon"`} {
		var bad Availability
		if err := json.Unmarshal([]byte(in), &bad); !IsKind(err, KindValidation) {
			t.Errorf("Unmarshal(%s) error = %v, want validation", in, err)
		}
	}
}

func TestParseInstant(t *testing.T) {
	t.Parallel()

	want := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	for _, in := range []string{"2025-06-01T09:30:00Z", "2025-06-01T11:30:00+02:00", "2025-06-01T09:30:00.000Z", "2025-06-01T09:30"} {
		got, err := ParseInstant(in)
		if err != nil {
			t.Errorf("ParseInstant(%q): %v", in, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("ParseInstant(%q) = %v, want %v", in, got, want)
		}
	}
	for _, in := range []string{"", "next tuesday"} {
		if _, err := ParseInstant(in); !IsKind(err, KindValidation) {
			t.Errorf("ParseInstant(%q) error = %v, want validation", in, err)
		}
	}
}

func TestErrorKinds(t *testing.T) {
	t.Parallel()

	cause := errors.New("constraint")
	wrapped := fmt.Errorf("insert booking: %w", NewConflictError("booking already exists for this listing and date", cause))

	if KindOf(wrapped) != KindConflict {
		t.Errorf("KindOf = %v, want conflict", KindOf(wrapped))
	}
	if !errors.Is(wrapped, cause) {
		t.Error("cause should be reachable through Unwrap")
	}
	if PublicMessage(wrapped) != "booking already exists for this listing and date" {
		t.Errorf("PublicMessage = %q", PublicMessage(wrapped))
	}
	if PublicMessage(errors.New("db exploded")) != "internal server error" {
		t.Error("unclassified errors must not leak")
	}
	if KindOf(nil) != KindInternal || IsKind(nil, KindInternal) {
		t.Error("nil error handling")
	}
	if !strings.Contains(NewNotFoundError("listing").Error(), "listing not found") {
		t.Error("not found message")
	}
	if NewSlotUnavailableError().Kind != KindSlotUnavailable {
		t.Error("slot unavailable kind")
	}
}

func TestBookingAccess(t *testing.T) {
	t.Parallel()

	b := &Booking{UserID: 1, OwnerID: 2}
	cases := []struct {
		user  int64
		admin bool
		want  bool
	}{
		{1, false, true},
		{2, false, true},
		{3, false, false},
		{3, true, true},
	}
	for _, c := range cases {
		if got := b.CanAccess(c.user, c.admin); got != c.want {
			t.Errorf("CanAccess(%d, %v) = %v, want %v", c.user, c.admin, got, c.want)
		}
	}
}

func TestSlotKey(t *testing.T) {
	t.Parallel()

	d := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	if got := SlotKey(7, d); got != fmt.Sprintf("7:%d", d.UnixMilli()) {
		t.Errorf("SlotKey = %q", got)
	}
	if SlotKey(7, d) != SlotKey(7, d.In(time.FixedZone("X", 3600))) {
		t.Error("slot key must not depend on zone")
	}
}

func TestUserJSONHidesSecrets(t *testing.T) {
	t.Parallel()

	token := "abc"
	u := User{ID: 1, Username: "ann", Email: "ann@example.com", Role: RoleUser, PasswordHash: "$2a$10$x", PasswordResetToken: &token}
	out, err := json.Marshal(u)
	if err != nil {
		t.Fatal(err)
	}
	s := string(out)
	if strings.Contains(s, "$2a$10$x") || strings.Contains(s, "abc") {
		t.Errorf("secrets serialized: %s", s)
	}
}

func TestCategoryNormalize(t *testing.T) {
	t.Parallel()

	c := &Category{Name: "  Music Lessons ", Slug: "  Music-LESSONS "}
	c.Normalize()
	if c.Name != "Music Lessons" {
		t.Errorf("Name = %q", c.Name)
	}
	if c.Slug != "music-lessons" {
		t.Errorf("Slug = %q", c.Slug)
	}
}
