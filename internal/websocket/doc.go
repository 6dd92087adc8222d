// SkillSwap - Booking and Listing Marketplace API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillswap

/*
Package websocket pushes new notifications to logged-in users.

A browser opens GET /notifications/ws with its session cookie. The Hub keeps
the connections grouped by user id; Publish routes a notification to every
open connection of its recipient. The hub runs as a supervised service and
closes all connections when its context ends.

Frames are JSON:

	{"type": "notification", "data": {"id": 3, "userId": 1, "type": "booking_status", ...}}

Clients may send {"type": "ping"} and receive {"type": "pong"}. Delivery is
best effort: the notification row is the source of truth and GET
/notifications lists everything a disconnected client missed.
*/
package websocket
