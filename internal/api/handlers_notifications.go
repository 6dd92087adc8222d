// SkillSwap - Booking and Listing Marketplace API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillswap

package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/tomtom215/skillswap/internal/database"
	"github.com/tomtom215/skillswap/internal/metrics"
	"github.com/tomtom215/skillswap/internal/models"
)

// ListNotifications handles GET /notifications. Callers only see their own.
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	subject, ok := requireSubject(w, r)
	if !ok {
		return
	}
	notifications, err := h.db.ListNotifications(r.Context(), subject.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if notifications == nil {
		notifications = []*models.Notification{}
	}
	respondJSON(w, http.StatusOK, notifications)
}

// MarkNotificationRead handles PATCH /notifications/{id}/read.
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	n, err := h.db.GetNotification(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		writeServiceError(w, r, models.NewNotFoundError("notification"))
		return
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if !GetHandlerContext(r).IsSelfOrAdmin(n.UserID) {
		writeServiceError(w, r, models.NewForbiddenError("not your notification"))
		return
	}

	n, err = h.db.MarkNotificationRead(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, n)
}

// CreateNotification handles POST /notifications. The recipient is named by
// userId or username; live websocket connections receive it at once.
func (h *Handler) CreateNotification(w http.ResponseWriter, r *http.Request) {
	var req NotificationRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	target, err := h.resolveRecipient(r.Context(), req.UserID, strings.TrimSpace(req.Username))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	n := &models.Notification{
		UserID:  target.ID,
		Type:    strings.TrimSpace(req.Type),
		Payload: req.payloadString(),
	}
	err = h.db.CreateNotification(r.Context(), n)
	metrics.RecordNotification(n.Type, err)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.publish(n)
	respondJSON(w, http.StatusCreated, n)
}

// resolveRecipient finds the live user named by id or, failing that, by
// username.
func (h *Handler) resolveRecipient(ctx context.Context, userID int64, username string) (*models.User, error) {
	var (
		u   *models.User
		err error
	)
	switch {
	case userID > 0:
		u, err = h.db.GetUserByID(ctx, userID)
	case username != "":
		u, err = h.db.GetUserByUsername(ctx, username)
	default:
		return nil, models.NewValidationError("userId or username is required")
	}
	if errors.Is(err, database.ErrNotFound) || (err == nil && u.IsDeleted()) {
		return nil, models.NewNotFoundError("user")
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// NotificationsWebSocket handles GET /notifications/ws.
func (h *Handler) NotificationsWebSocket(w http.ResponseWriter, r *http.Request) {
	if h.wsHandler == nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeNotReady, "notification push unavailable")
		return
	}
	if _, ok := requireSubject(w, r); !ok {
		return
	}
	h.wsHandler.ServeHTTP(w, r)
}
