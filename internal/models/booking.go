// SkillSwap - Booking and Listing Marketplace API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillswap

package models

import (
	"strconv"
	"time"
)

// Booking statuses.
const (
	BookingPending  = "pending"
	BookingAccepted = "accepted"
	BookingRejected = "rejected"
	BookingCanceled = "canceled"
)

// BookingStatuses is the allowed status set. Any status may follow any other.
var BookingStatuses = []string{BookingPending, BookingAccepted, BookingRejected, BookingCanceled}

// IsValidBookingStatus reports whether s is an allowed booking status.
func IsValidBookingStatus(s string) bool {
	for _, v := range BookingStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Booking is a request by UserID for a slot on ListingID. OwnerID is copied
// from the listing when the booking is created or moved to another listing.
type Booking struct {
	ID        int64      `json:"id"`
	ListingID int64      `json:"listingId"`
	UserID    int64      `json:"userId"`
	OwnerID   int64      `json:"ownerId"`
	Date      time.Time  `json:"date"`
	Status    string     `json:"status"`
	Message   string     `json:"message,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

// IsDeleted reports whether the booking has been soft-deleted.
func (b *Booking) IsDeleted() bool { return b.DeletedAt != nil }

// CanAccess reports whether userID may read or modify the booking.
func (b *Booking) CanAccess(userID int64, isAdmin bool) bool {
	return isAdmin || b.UserID == userID || b.OwnerID == userID
}

// SlotKey identifies a live (listing, instant) pair. The bookings table keeps
// it UNIQUE so two live bookings can never share a slot.
func SlotKey(listingID int64, date time.Time) string {
	return strconv.FormatInt(listingID, 10) + ":" + strconv.FormatInt(date.UnixMilli(), 10)
}
