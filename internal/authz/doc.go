// SkillSwap - Booking and Listing Marketplace API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillswap

// Package authz enforces role permissions with Casbin.
//
// Subjects are account roles (user, admin), objects are resource names and
// actions are verbs:
//
//	p, admin, categories, *
//	p, admin, map, regenerate
//	g, admin, user
//
// The admin role inherits every user grant. The model and the default policy
// are embedded; security.casbin_policy_path swaps in a policy file, which is
// re-read every ReloadInterval.
//
// Ownership rules (a booking's requester or listing owner, a notification's
// recipient) depend on row data and live in the services, not here.
//
// Usage:
//
//	enforcer, err := authz.NewEnforcer(&authz.EnforcerConfig{PolicyPath: cfg.Security.CasbinPolicyPath})
//	guard := authz.NewMiddleware(enforcer)
//	r.With(sessions.RequireAuth, guard.Authorize("categories", "create")).Post("/categories", h.CreateCategory)
package authz
