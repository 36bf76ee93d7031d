package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/metrics"
	"shareit/internal/models"
	"shareit/internal/validation"

	"github.com/rs/zerolog"
)

// BookingService orchestrates the booking lifecycle: creation, approval,
// retrieval and filtered listing, with all temporal and ownership rules.
type BookingService struct {
	bookings   domain.BookingStore
	users      domain.UserDirectory
	items      domain.ItemDirectory
	eventBus   domain.EventPublisher
	syncWorker domain.SyncWorker
	logger     *zerolog.Logger
}

func NewBookingService(bookings domain.BookingStore, users domain.UserDirectory, items domain.ItemDirectory,
	eventBus domain.EventPublisher, syncWorker domain.SyncWorker, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		bookings:   bookings,
		users:      users,
		items:      items,
		eventBus:   eventBus,
		syncWorker: syncWorker,
		logger:     logger,
	}
}

// Create persists a new WAITING booking for the requester. Self-booking is
// rejected as not-found rather than with a distinct code, so item ownership
// is not leaked to other users.
func (s *BookingService) Create(ctx context.Context, userID int64, booking *models.Booking) (*models.Booking, error) {
	if err := validation.PositiveID("userId", userID); err != nil {
		return nil, err
	}

	if _, err := s.users.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	item, err := s.items.GetItem(ctx, booking.ItemID)
	if err != nil {
		return nil, err
	}

	if !item.Available {
		return nil, fmt.Errorf("item %d is unavailable: %w", item.ID, database.ErrNotAvailable)
	}
	if item.OwnerID == userID {
		return nil, fmt.Errorf("booking own item is forbidden: %w", database.ErrNotFound)
	}
	if booking.Start.After(booking.End) {
		return nil, &validation.IncorrectParameterError{Param: "start"}
	}
	if booking.Start.Equal(booking.End) {
		return nil, &validation.IncorrectParameterError{Param: "end"}
	}

	booking.BookerID = userID
	booking.Status = models.StatusWaiting

	if err := s.bookings.CreateBooking(ctx, booking); err != nil {
		return nil, err
	}

	created, err := s.bookings.GetBooking(ctx, booking.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("booking_id", created.ID).Int64("item_id", item.ID).
		Int64("booker_id", userID).Msg("booking created")
	metrics.IncBookingCreated()

	s.publishEvent(events.EventBookingCreated, created, item.OwnerID)
	s.enqueueUpsert(ctx, created)

	return created, nil
}

// Approve is the only mutation path for booking status and is one-shot:
// a booking that is already APPROVED cannot be approved or rejected again.
func (s *BookingService) Approve(ctx context.Context, userID, bookingID int64, approve bool) (*models.Booking, error) {
	if err := validation.PositiveID("userId", userID); err != nil {
		return nil, err
	}
	if err := validation.PositiveID("bookingId", bookingID); err != nil {
		return nil, err
	}

	booking, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.checkUserExists(ctx, userID); err != nil {
		return nil, err
	}

	if booking.Status == models.StatusApproved {
		return nil, &validation.IncorrectParameterError{Param: strconv.FormatBool(approve)}
	}
	if booking.Item.OwnerID != userID {
		return nil, fmt.Errorf("booking %d for user %d: %w", bookingID, userID, database.ErrNotFound)
	}

	status := models.StatusRejected
	eventType := events.EventBookingRejected
	if approve {
		status = models.StatusApproved
		eventType = events.EventBookingApproved
	}

	if err := s.bookings.UpdateBookingStatus(ctx, bookingID, status); err != nil {
		return nil, err
	}

	updated, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("booking_id", bookingID).Str("status", status).
		Int64("owner_id", userID).Msg("booking resolved")
	metrics.IncBookingStatus(status)

	s.publishEvent(eventType, updated, userID)
	s.enqueueStatusUpdate(ctx, bookingID, status)

	return updated, nil
}

// Get returns the booking to its booker or the booked item's owner; everyone
// else gets not-found.
func (s *BookingService) Get(ctx context.Context, userID, bookingID int64) (*models.Booking, error) {
	if err := validation.PositiveID("userId", userID); err != nil {
		return nil, err
	}
	if err := validation.PositiveID("bookingId", bookingID); err != nil {
		return nil, err
	}

	booking, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.checkUserExists(ctx, userID); err != nil {
		return nil, err
	}

	if booking.Item.OwnerID != userID && booking.BookerID != userID {
		return nil, fmt.Errorf("booking %d for user %d: %w", bookingID, userID, database.ErrNotFound)
	}
	return booking, nil
}

// ListByBooker returns the user's own bookings filtered by state, ordered by
// start descending.
func (s *BookingService) ListByBooker(ctx context.Context, userID int64, state string, from, size int) ([]*models.Booking, error) {
	if err := validation.PositiveID("userId", userID); err != nil {
		return nil, err
	}
	if err := validation.Pagination(from, size); err != nil {
		return nil, err
	}
	if err := s.checkUserExists(ctx, userID); err != nil {
		return nil, err
	}

	filter, err := models.ParseBookingState(state)
	if err != nil {
		return nil, err
	}

	limit, offset := size, validation.PageOffset(from, size)
	now := time.Now()

	var bookings []*models.Booking
	switch filter {
	case models.StateAll:
		bookings, err = s.bookings.BookingsByBooker(ctx, userID, limit, offset)
	case models.StateCurrent:
		bookings, err = s.bookings.BookingsByBookerCurrent(ctx, userID, now, limit, offset)
	case models.StatePast:
		bookings, err = s.bookings.BookingsByBookerPast(ctx, userID, now, limit, offset)
	case models.StateFuture:
		bookings, err = s.bookings.BookingsByBookerFuture(ctx, userID, now, limit, offset)
	case models.StateWaiting:
		bookings, err = s.bookings.BookingsByBookerStatus(ctx, userID, models.StatusWaiting, limit, offset)
	case models.StateRejected:
		bookings, err = s.bookings.BookingsByBookerStatus(ctx, userID, models.StatusRejected, limit, offset)
	default:
		return nil, &models.UnsupportedStateError{State: state}
	}
	if err != nil {
		return nil, err
	}

	s.logger.Debug().Int64("booker_id", userID).Str("state", state).
		Int("count", len(bookings)).Msg("bookings listed by booker")
	return bookings, nil
}

// ListByOwner returns bookings of the user's items filtered by state. An
// owner with no items on record cannot list anything and gets not-available.
func (s *BookingService) ListByOwner(ctx context.Context, userID int64, state string, from, size int) ([]*models.Booking, error) {
	if err := validation.PositiveID("userId", userID); err != nil {
		return nil, err
	}
	if err := validation.Pagination(from, size); err != nil {
		return nil, err
	}
	if err := s.checkUserExists(ctx, userID); err != nil {
		return nil, err
	}

	first, err := s.items.FirstItemByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	if first == nil {
		return nil, fmt.Errorf("user %d has no items: %w", userID, database.ErrNotAvailable)
	}

	filter, err := models.ParseBookingState(state)
	if err != nil {
		return nil, err
	}

	limit, offset := size, validation.PageOffset(from, size)
	now := time.Now()

	var bookings []*models.Booking
	switch filter {
	case models.StateAll:
		bookings, err = s.bookings.BookingsByOwner(ctx, userID, limit, offset)
	case models.StateCurrent:
		bookings, err = s.bookings.BookingsByOwnerCurrent(ctx, userID, now, limit, offset)
	case models.StatePast:
		bookings, err = s.bookings.BookingsByOwnerPast(ctx, userID, now, limit, offset)
	case models.StateFuture:
		bookings, err = s.bookings.BookingsByOwnerFuture(ctx, userID, now, limit, offset)
	case models.StateWaiting:
		bookings, err = s.bookings.BookingsByOwnerStatus(ctx, userID, models.StatusWaiting, limit, offset)
	case models.StateRejected:
		bookings, err = s.bookings.BookingsByOwnerStatus(ctx, userID, models.StatusRejected, limit, offset)
	default:
		return nil, &models.UnsupportedStateError{State: state}
	}
	if err != nil {
		return nil, err
	}

	s.logger.Debug().Int64("owner_id", userID).Str("state", state).
		Int("count", len(bookings)).Msg("bookings listed by owner")
	return bookings, nil
}

func (s *BookingService) checkUserExists(ctx context.Context, userID int64) error {
	exists, err := s.users.UserExists(ctx, userID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("user %d: %w", userID, database.ErrNotFound)
	}
	return nil
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking, ownerID int64) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID: booking.ID,
		ItemID:    booking.ItemID,
		BookerID:  booking.BookerID,
		OwnerID:   ownerID,
		Status:    booking.Status,
		Start:     booking.Start,
		End:       booking.End,
	}
	if booking.Item != nil {
		payload.ItemName = booking.Item.Name
	}
	if booking.Booker != nil {
		payload.BookerName = booking.Booker.Name
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).
			Int64("booking_id", booking.ID).Msg("publish event error")
	}
}

func (s *BookingService) enqueueUpsert(ctx context.Context, booking *models.Booking) {
	if s.syncWorker == nil {
		return
	}
	if err := s.syncWorker.EnqueueBookingUpsert(ctx, booking); err != nil {
		s.logger.Error().Err(err).Int64("booking_id", booking.ID).Msg("enqueue sync error")
	}
}

func (s *BookingService) enqueueStatusUpdate(ctx context.Context, bookingID int64, status string) {
	if s.syncWorker == nil {
		return
	}
	if err := s.syncWorker.EnqueueStatusUpdate(ctx, bookingID, status); err != nil {
		s.logger.Error().Err(err).Int64("booking_id", bookingID).Msg("enqueue sync error")
	}
}
