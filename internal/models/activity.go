// SkillSwap - Booking and Listing Marketplace API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillswap

package models

import "time"

// NotificationBookingStatus is sent to a requester when a booking status changes.
const NotificationBookingStatus = "booking_status"

// Notification is a message for one user. Payload is an opaque JSON document.
type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Type      string    `json:"type"`
	Payload   string    `json:"payload"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

// SearchLog records one search performed by an authenticated user.
type SearchLog struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Query     string    `json:"query"`
	CreatedAt time.Time `json:"createdAt"`
}

// SessionAudit records a login and, once known, the matching logout.
type SessionAudit struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"userId"`
	Role       string     `json:"role"`
	LoginTime  time.Time  `json:"loginTime"`
	LogoutTime *time.Time `json:"logoutTime,omitempty"`
}
