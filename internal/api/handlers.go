// SkillSwap - Booking and Listing Marketplace API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillswap

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/skillswap/internal/auth"
	"github.com/tomtom215/skillswap/internal/authz"
	"github.com/tomtom215/skillswap/internal/booking"
	"github.com/tomtom215/skillswap/internal/config"
	"github.com/tomtom215/skillswap/internal/database"
	"github.com/tomtom215/skillswap/internal/mapgen"
	"github.com/tomtom215/skillswap/internal/models"
	"github.com/tomtom215/skillswap/internal/search"
	"github.com/tomtom215/skillswap/internal/upload"
	"github.com/tomtom215/skillswap/internal/websocket"
)

// HandlerDeps collects the collaborators of Handler.
type HandlerDeps struct {
	DB       *database.DB
	Config   *config.Config
	Auth     *auth.Service
	Sessions *auth.SessionMiddleware
	Authz    *authz.Middleware
	Bookings *booking.Service
	Search   *search.Service
	Hub      *websocket.Hub
	Uploads  *upload.Store
	Map      *mapgen.Generator
}

// Handler serves the HTTP API.
type Handler struct {
	db        *database.DB
	config    *config.Config
	auth      *auth.Service
	sessions  *auth.SessionMiddleware
	authz     *authz.Middleware
	bookings  *booking.Service
	search    *search.Service
	hub       *websocket.Hub
	wsHandler *websocket.Handler
	uploads   *upload.Store
	mapGen    *mapgen.Generator
	startTime time.Time
}

// NewHandler creates the API handler.
func NewHandler(deps HandlerDeps) *Handler {
	h := &Handler{
		db:        deps.DB,
		config:    deps.Config,
		auth:      deps.Auth,
		sessions:  deps.Sessions,
		authz:     deps.Authz,
		bookings:  deps.Bookings,
		search:    deps.Search,
		hub:       deps.Hub,
		uploads:   deps.Uploads,
		mapGen:    deps.Map,
		startTime: time.Now(),
	}
	if deps.Hub != nil {
		var origins []string
		if deps.Config != nil {
			origins = deps.Config.Security.CORSOrigins
		}
		h.wsHandler = websocket.NewHandler(deps.Hub, origins)
	}
	return h
}

// publish pushes a stored notification to the recipient's live sockets.
func (h *Handler) publish(n *models.Notification) {
	if h.hub != nil {
		h.hub.Publish(n.UserID, n)
	}
}

// can reports whether the caller's role may act on object.
func (h *Handler) can(r *http.Request, object, action string) bool {
	return h.authz.Can(GetHandlerContext(r).Subject, object, action)
}
