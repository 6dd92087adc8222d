// SkillSwap - Booking and Listing Marketplace API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillswap

package models

import (
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// SlotLayout is the canonical encoding of one availability slot:
// RFC 3339, UTC, millisecond precision.
const SlotLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatSlot renders t in the canonical slot encoding.
func FormatSlot(t time.Time) string {
	return t.UTC().Truncate(time.Millisecond).Format(SlotLayout)
}

// ParseInstant parses a client-supplied instant. RFC 3339 (with or without
// fractional seconds) is preferred; a bare date or a date-time without zone
// is read as UTC.
func ParseInstant(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, NewValidationError("date is required")
	}
	layouts := []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Truncate(time.Millisecond), nil
		}
	}
	return time.Time{}, NewValidationError("invalid date %q", s)
}

// Availability is a listing's canonical set of bookable instants, sorted
// ascending with no duplicates. A nil set accepts any instant; a non-nil
// empty set accepts none.
type Availability []time.Time

// ParseAvailability reads a client-supplied encoding: a JSON array of instant
// strings, or a comma-separated list. Blank entries are skipped. Any other
// entry that does not parse is a validation error. A list with no entries
// yields nil.
func ParseAvailability(raw string) (Availability, error) {
	var invalid string
	a := parseAvailability(raw, func(entry string) {
		if invalid == "" {
			invalid = entry
		}
	})
	if invalid != "" {
		return nil, NewValidationError("availability entry %q is not a valid instant", invalid)
	}
	return a, nil
}

// ReadAvailability reads a stored encoding. Rows written before
// normalization may hold entries that do not parse; those are dropped, and a
// non-empty encoding with no usable entry matches nothing rather than
// everything.
func ReadAvailability(raw string) Availability {
	skipped := false
	a := parseAvailability(raw, func(string) { skipped = true })
	if a == nil && skipped {
		return Availability{}
	}
	return a
}

func parseAvailability(raw string, onInvalid func(entry string)) Availability {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var entries []string
	if strings.HasPrefix(raw, "[") {
		if err := json.Unmarshal([]byte(raw), &entries); err != nil {
			entries = nil
		}
	}
	if entries == nil {
		entries = strings.Split(raw, ",")
	}

	seen := make(map[int64]struct{}, len(entries))
	var out Availability
	for _, e := range entries {
		e = strings.Trim(strings.TrimSpace(e), `"[]`)
		if e == "" {
			continue
		}
		t, err := ParseInstant(e)
		if err != nil {
			onInvalid(e)
			continue
		}
		ms := t.UnixMilli()
		if _, dup := seen[ms]; dup {
			continue
		}
		seen[ms] = struct{}{}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// AvailabilityFromSlots normalizes a list of client-supplied slot strings.
func AvailabilityFromSlots(slots []string) (Availability, error) {
	if len(slots) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(slots)
	if err != nil {
		return nil, NewValidationError("availability must be an array of instants")
	}
	return ParseAvailability(string(b))
}

// Contains reports whether t matches a slot to the millisecond. A nil
// availability contains every instant.
func (a Availability) Contains(t time.Time) bool {
	if a == nil {
		return true
	}
	ms := t.UnixMilli()
	i := sort.Search(len(a), func(i int) bool { return a[i].UnixMilli() >= ms })
	return i < len(a) && a[i].UnixMilli() == ms
}

// Strings returns the canonical slot strings.
func (a Availability) Strings() []string {
	out := make([]string, len(a))
	for i, t := range a {
		out[i] = FormatSlot(t)
	}
	return out
}

// Encode returns the canonical stored form, a JSON array of slot strings.
// The empty set encodes as "".
func (a Availability) Encode() string {
	if len(a) == 0 {
		return ""
	}
	b, err := json.Marshal(a.Strings())
	if err != nil {
		return ""
	}
	return string(b)
}

// MarshalJSON renders the slots as an array of canonical strings.
func (a Availability) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Strings())
}

// UnmarshalJSON accepts either a JSON array of instants or a single
// comma-separated string.
func (a *Availability) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := ParseAvailability(s)
		if err != nil {
			return err
		}
		*a = parsed
		return nil
	}
	var slots []string
	if err := json.Unmarshal(data, &slots); err != nil {
		return NewValidationError("availability must be an array of instants or a comma-separated string")
	}
	parsed, err := AvailabilityFromSlots(slots)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
