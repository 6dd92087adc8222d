// SkillSwap - Booking and Listing Marketplace API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillswap

/*
Package auth implements the session guard and the account service.

Sessions are opaque: the cookie carries a random 32-byte hex id and all state
lives server side in a SessionStore. Three stores are available:

  - memory: process-local map, the default
  - badger: persistent on local disk, survives restarts
  - redis: shared by several API instances

SessionMiddleware resolves the cookie into an *AuthSubject stored in the
request context. Handlers read it with GetAuthSubject; nothing about the
caller is kept in package state.

Service covers registration, login, logout, password reset and password
change. Passwords are hashed with bcrypt at cost 10. Reset tokens are 32
random bytes, hex encoded, valid for one hour and usable once; delivery goes
through a Mailer, which is either an SMTP relay behind a circuit breaker or a
log-only fallback when no relay is configured.

Usage:

	store, closer, err := auth.NewSessionStore(&cfg.Security, &cfg.Redis)
	sessions := auth.NewSessionMiddleware(store, auth.SessionMiddlewareConfigFrom(cfg))
	svc := auth.NewService(db, auth.NewMailer(&cfg.SMTP), auth.ServiceConfig{ResetBaseURL: cfg.SMTP.ResetBaseURL})

	r.Use(sessions.Authenticate)
	r.With(sessions.RequireAuth).Get("/auth/me", h.Me)
*/
package auth
