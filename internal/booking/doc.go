// SkillSwap - Booking and Listing Marketplace API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillswap

/*
Package booking implements the booking rules of the marketplace.

A booking reserves one instant (a slot) of a listing. Creating one checks,
in order:

  - the listing exists and is live
  - the instant is in the listing's availability, when it has any
  - no other live booking holds the same (listing, instant)

The last rule is enforced by the database: every live booking carries a
unique slot key "<listingId>:<epochMillis>", cleared on soft delete. The
service pre-checks the key for a readable error and translates a constraint
violation from a concurrent insert into the same ConflictError.

Patching, deleting and reading a booking is allowed for its requester, the
listing owner recorded at creation, and admins. Status is a flat set
(pending, accepted, rejected, canceled) with no ordering between values. A
status change notifies the requester on a best-effort basis: the
notification row is written and pushed to the requester's live websocket
connections, and failures are only logged.
*/
package booking
