// SkillSwap - Booking and Listing Marketplace API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillswap

/*
Package supervisor runs SkillSwap's long-lived services under a suture v4
supervision tree.

# Layout

	RootSupervisor ("skillswap")
	├── MaintenanceSupervisor ("maintenance-layer")
	│   └── SessionCleanupService
	├── MessagingSupervisor ("messaging-layer")
	│   └── WebSocketHubService
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Each layer counts failures independently, so a hub that keeps crashing backs
off without restarting the HTTP server.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddMaintenanceService(services.NewSessionCleanupService(store, 5*time.Minute))
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	errCh := tree.ServeBackground(ctx)

# Failure Handling

Suture keeps a decaying failure counter per supervisor. Once it passes
FailureThreshold, restarts wait FailureBackoff. A service returning nil is
not restarted; returning an error is treated as a crash.

DuckDB is not supervised. It is an embedded library owned by the database
package and closed by main after the tree stops.

# Shutdown

Canceling the context passed to Serve stops every layer. Services that miss
ShutdownTimeout appear in UnstoppedServiceReport.
*/
package supervisor
