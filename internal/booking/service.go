// SkillSwap - Booking and Listing Marketplace API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillswap

package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/skillswap/internal/auth"
	"github.com/tomtom215/skillswap/internal/database"
	"github.com/tomtom215/skillswap/internal/logging"
	"github.com/tomtom215/skillswap/internal/metrics"
	"github.com/tomtom215/skillswap/internal/models"
)

const msgSlotTaken = "booking already exists for this listing and date"

// Store is the persistence the booking service needs.
type Store interface {
	GetListing(ctx context.Context, id int64) (*models.Listing, error)
	CreateBooking(ctx context.Context, b *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	LiveBookingExists(ctx context.Context, listingID int64, date time.Time, excludeID int64) (bool, error)
	UpdateBooking(ctx context.Context, b *models.Booking) error
	SoftDeleteBooking(ctx context.Context, id int64) (bool, error)
	ListBookings(ctx context.Context, f database.BookingFilter) ([]*models.Booking, error)
	CreateNotification(ctx context.Context, n *models.Notification) error
}

// Notifier pushes a stored notification to its recipient's live connections.
type Notifier interface {
	Publish(userID int64, n *models.Notification)
}

// Service implements booking create, patch, delete, list and get.
type Service struct {
	store    Store
	notifier Notifier
}

// NewService creates the booking service. notifier may be nil.
func NewService(store Store, notifier Notifier) *Service {
	return &Service{store: store, notifier: notifier}
}

// CreateInput is a booking request. ListingID and ScheduledAt are required.
type CreateInput struct {
	ListingID   int64
	ScheduledAt string
	Message     string
	// Status is honoured when it is a known status and ignored otherwise.
	Status string
}

// PatchInput carries the optional fields of a booking patch. Nil means
// unchanged.
type PatchInput struct {
	Date      *string `json:"date"`
	Status    *string `json:"status"`
	ListingID *int64  `json:"listingId"`
}

// StatusPayload is the payload of a booking_status notification.
type StatusPayload struct {
	BookingID int64  `json:"bookingId"`
	ListingID int64  `json:"listingId"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}

// Create books in.ScheduledAt on listing in.ListingID for subject.
func (s *Service) Create(ctx context.Context, subject *auth.AuthSubject, in CreateInput) (*models.Booking, error) {
	b, err := s.create(ctx, subject, in)
	metrics.RecordBookingEvent("create", resultLabel(err))
	return b, err
}

func (s *Service) create(ctx context.Context, subject *auth.AuthSubject, in CreateInput) (*models.Booking, error) {
	if subject == nil {
		return nil, models.NewAuthError("authentication required")
	}
	if in.ListingID <= 0 {
		return nil, models.NewValidationError("listingId must be a positive integer")
	}
	date, err := models.ParseInstant(in.ScheduledAt)
	if err != nil {
		return nil, err
	}

	listing, err := s.store.GetListing(ctx, in.ListingID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, models.NewNotFoundError("listing")
	}
	if err != nil {
		return nil, fmt.Errorf("get listing: %w", err)
	}

	if !listing.Availability.Contains(date) {
		return nil, models.NewSlotUnavailableError()
	}

	if err := s.checkSlotFree(ctx, in.ListingID, date, 0); err != nil {
		return nil, err
	}

	status := models.BookingPending
	if models.IsValidBookingStatus(in.Status) {
		status = in.Status
	}

	b := &models.Booking{
		ListingID: in.ListingID,
		UserID:    subject.UserID,
		OwnerID:   listing.OwnerID,
		Date:      date,
		Status:    status,
		Message:   strings.TrimSpace(in.Message),
	}
	if err := s.store.CreateBooking(ctx, b); err != nil {
		if errors.Is(err, database.ErrUniqueViolation) {
			return nil, models.NewConflictError(msgSlotTaken, err)
		}
		return nil, fmt.Errorf("create booking: %w", err)
	}

	logging.Ctx(ctx).Info().
		Int64("booking_id", b.ID).
		Int64("listing_id", b.ListingID).
		Str("date", models.FormatSlot(b.Date)).
		Msg("Booking created")
	return b, nil
}

// checkSlotFree fails with a ConflictError when another live booking holds
// (listingID, date).
func (s *Service) checkSlotFree(ctx context.Context, listingID int64, date time.Time, excludeID int64) error {
	taken, err := s.store.LiveBookingExists(ctx, listingID, date, excludeID)
	if err != nil {
		return fmt.Errorf("check slot: %w", err)
	}
	if taken {
		return models.NewConflictError(msgSlotTaken, nil)
	}
	return nil
}

// load returns booking id if subject may act on it.
func (s *Service) load(ctx context.Context, subject *auth.AuthSubject, id int64) (*models.Booking, error) {
	if subject == nil {
		return nil, models.NewAuthError("authentication required")
	}
	b, err := s.store.GetBooking(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, models.NewNotFoundError("booking")
	}
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if !b.CanAccess(subject.UserID, subject.IsAdmin()) {
		return nil, models.NewForbiddenError("")
	}
	return b, nil
}

// Get returns booking id to its requester, its owner or an admin.
func (s *Service) Get(ctx context.Context, subject *auth.AuthSubject, id int64) (*models.Booking, error) {
	return s.load(ctx, subject, id)
}

// Update applies a patch. Only the supplied fields change.
func (s *Service) Update(ctx context.Context, subject *auth.AuthSubject, id int64, in PatchInput) (*models.Booking, error) {
	b, err := s.update(ctx, subject, id, in)
	metrics.RecordBookingEvent("update", resultLabel(err))
	return b, err
}

func (s *Service) update(ctx context.Context, subject *auth.AuthSubject, id int64, in PatchInput) (*models.Booking, error) {
	// Authorization precedes input validation.
	current, err := s.load(ctx, subject, id)
	if err != nil {
		return nil, err
	}

	var newDate *time.Time
	if in.Date != nil {
		d, err := models.ParseInstant(*in.Date)
		if err != nil {
			return nil, err
		}
		newDate = &d
	}
	if in.ListingID != nil && *in.ListingID <= 0 {
		return nil, models.NewValidationError("listingId must be a positive integer")
	}
	if in.Status != nil && !models.IsValidBookingStatus(*in.Status) {
		return nil, models.NewValidationError("status must be one of: %s", strings.Join(models.BookingStatuses, ", "))
	}

	next := *current
	if in.ListingID != nil && *in.ListingID != current.ListingID {
		listing, err := s.store.GetListing(ctx, *in.ListingID)
		if errors.Is(err, database.ErrNotFound) {
			return nil, models.NewNotFoundError("listing")
		}
		if err != nil {
			return nil, fmt.Errorf("get listing: %w", err)
		}
		next.ListingID = listing.ID
		next.OwnerID = listing.OwnerID
	}
	if newDate != nil {
		next.Date = *newDate
	}
	if in.ListingID != nil || in.Date != nil {
		if err := s.checkSlotFree(ctx, next.ListingID, next.Date, current.ID); err != nil {
			return nil, err
		}
	}
	if in.Status != nil {
		next.Status = *in.Status
	}

	if err := s.store.UpdateBooking(ctx, &next); err != nil {
		switch {
		case errors.Is(err, database.ErrUniqueViolation):
			return nil, models.NewConflictError(msgSlotTaken, err)
		case errors.Is(err, database.ErrNotFound):
			return nil, models.NewNotFoundError("booking")
		}
		return nil, fmt.Errorf("update booking: %w", err)
	}

	if next.Status != current.Status {
		s.notifyStatusChange(ctx, &next)
	}
	return &next, nil
}

// notifyStatusChange tells the requester about the new status. Errors are
// logged and dropped.
func (s *Service) notifyStatusChange(ctx context.Context, b *models.Booking) {
	payload, err := json.Marshal(StatusPayload{
		BookingID: b.ID,
		ListingID: b.ListingID,
		Status:    b.Status,
		Message:   "Your booking is now " + b.Status,
	})
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Int64("booking_id", b.ID).Msg("Failed to encode booking notification")
		metrics.RecordNotification(models.NotificationBookingStatus, err)
		return
	}

	n := &models.Notification{
		UserID:  b.UserID,
		Type:    models.NotificationBookingStatus,
		Payload: string(payload),
	}
	err = s.store.CreateNotification(ctx, n)
	metrics.RecordNotification(n.Type, err)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Int64("booking_id", b.ID).Msg("Failed to create booking notification")
		return
	}
	if s.notifier != nil {
		s.notifier.Publish(n.UserID, n)
	}
}

// Delete soft-deletes booking id. Missing and already deleted bookings are
// a success.
func (s *Service) Delete(ctx context.Context, subject *auth.AuthSubject, id int64) error {
	err := s.delete(ctx, subject, id)
	metrics.RecordBookingEvent("delete", resultLabel(err))
	return err
}

func (s *Service) delete(ctx context.Context, subject *auth.AuthSubject, id int64) error {
	_, err := s.load(ctx, subject, id)
	if models.IsKind(err, models.KindNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if _, err := s.store.SoftDeleteBooking(ctx, id); err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	logging.Ctx(ctx).Info().Int64("booking_id", id).Msg("Booking deleted")
	return nil
}

// List returns the live bookings subject may see. Admins see every booking,
// or those of filterUserID when it is positive; everyone else sees the
// bookings they requested or own.
func (s *Service) List(ctx context.Context, subject *auth.AuthSubject, filterUserID int64) ([]*models.Booking, error) {
	if subject == nil {
		return nil, models.NewAuthError("authentication required")
	}
	f := database.BookingFilter{ParticipantID: subject.UserID}
	if subject.IsAdmin() {
		f.ParticipantID = filterUserID
	}
	bookings, err := s.store.ListBookings(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return bookings, nil
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	switch models.KindOf(err) {
	case models.KindConflict:
		return "conflict"
	case models.KindSlotUnavailable:
		return "slot_unavailable"
	case models.KindForbidden:
		return "forbidden"
	case models.KindNotFound:
		return "not_found"
	case models.KindValidation, models.KindAuth:
		return "invalid"
	default:
		return "error"
	}
}
