// SkillSwap - Booking and Listing Marketplace API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillswap

/*
Package models defines the SkillSwap entities, the availability encoding and
the domain error taxonomy shared by the database, service and API layers.

JSON tags use camelCase so the HTTP surface matches what the front end reads
(listingId, ownerId, scheduledAt, ...).
*/
package models

import "time"

// Role constants. These match the subjects in internal/authz/policy.csv.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// ValidRoles lists every assignable role.
var ValidRoles = []string{RoleUser, RoleAdmin}

// IsValidRole reports whether role can be assigned to a user.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

// User is an account. PasswordHash and the reset token fields never leave
// the server: their json tags are "-".
type User struct {
	ID                   int64      `json:"id"`
	Username             string     `json:"username"`
	Email                string     `json:"email"`
	Role                 string     `json:"role"`
	PasswordHash         string     `json:"-"`
	PasswordResetToken   *string    `json:"-"`
	PasswordResetExpires *time.Time `json:"-"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
	DeletedAt            *time.Time `json:"deletedAt,omitempty"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// IsDeleted reports whether the account has been soft-deleted.
func (u *User) IsDeleted() bool { return u.DeletedAt != nil }

// PublicUser is the subset of a user embedded in other resources.
type PublicUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}
