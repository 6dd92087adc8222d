// SkillSwap - Booking and Listing Marketplace API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillswap

/*
Package services adapts SkillSwap components to suture.Service.

  - HTTPServerService: ListenAndServe plus graceful Shutdown on cancel
  - WebSocketHubService: the notification hub's RunWithContext loop
  - SessionCleanupService: periodic CleanupExpired on the session store

Each wrapper depends only on a small interface so tests can drive it with
fakes and the package does not import the components it supervises.
*/
package services
