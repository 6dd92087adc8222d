// SkillSwap - Booking and Listing Marketplace API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillswap

/*
Package main is the entry point for the SkillSwap API server.

SkillSwap is a marketplace where users list skills or services with
availability windows, and other users book those slots. The server exposes a
JSON REST API with cookie sessions, role-based authorization, realtime
notifications over websockets, file uploads and a generated listings map.

# Startup

 1. Configuration: koanf v2 (defaults, config.yaml, environment)
 2. Logging: zerolog, JSON or console
 3. Database: DuckDB, schema migrated on open
 4. Session store: memory, BadgerDB or Redis
 5. Accounts: password reset mailer and bootstrap admin
 6. Authorization: Casbin RBAC policy
 7. Upload store and map generator
 8. Supervisor tree: session cleanup, notification hub, HTTP server

# Configuration

	PORT=3000                          # HTTP port
	ENVIRONMENT=production             # enables Secure cookies
	DUCKDB_PATH=data/skillswap.duckdb
	SESSION_STORE=badger               # memory, badger or redis
	SESSION_STORE_PATH=data/sessions
	REDIS_ADDR=127.0.0.1:6379          # when SESSION_STORE=redis
	ADMIN_EMAIL=admin@example.com      # bootstrap admin, created once
	ADMIN_PASSWORD=<password>
	CLIENT_ORIGIN=https://app.example.com
	SMTP_HOST=smtp.example.com         # unset logs reset links instead
	FRONTEND_BASE_URL=https://app.example.com/reset-password
	LOG_LEVEL=info

# Signal Handling

SIGINT and SIGTERM cancel the supervisor tree. The HTTP server drains for up
to 10s, the hub closes client connections, and the session store and database
are closed after the tree stops.
*/
package main
