package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stayhub/internal/config"
	"stayhub/internal/database"
	"stayhub/internal/domain"
	"stayhub/internal/events"
	"stayhub/internal/metrics"
	"stayhub/internal/models"
	"stayhub/internal/stay"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type ReservationService struct {
	repo          domain.Repository
	availability  *AvailabilityService
	notifications *NotificationService
	eventBus      domain.EventPublisher
	syncWorker    domain.SyncWorker
	cfg           config.BookingConfig
	logger        *zerolog.Logger
}

func NewReservationService(
	repo domain.Repository,
	availability *AvailabilityService,
	notifications *NotificationService,
	eventBus domain.EventPublisher,
	syncWorker domain.SyncWorker,
	cfg config.BookingConfig,
	logger *zerolog.Logger,
) *ReservationService {
	if cfg.MaxStayNights <= 0 {
		cfg.MaxStayNights = models.DefaultMaxStayNights
	}
	if cfg.MaxAdvanceDays <= 0 {
		cfg.MaxAdvanceDays = models.DefaultMaxAdvanceDays
	}
	return &ReservationService{
		repo:          repo,
		availability:  availability,
		notifications: notifications,
		eventBus:      eventBus,
		syncWorker:    syncWorker,
		cfg:           cfg,
		logger:        logger,
	}
}

// ValidateStay rejects malformed or out-of-window stay requests before any
// storage access.
func (s *ReservationService) ValidateStay(checkIn, checkOut time.Time, rooms int64) error {
	if rooms < 1 {
		return ErrInvalidRooms
	}

	nights, err := stay.NightCount(checkIn, checkOut)
	if err != nil {
		return err
	}
	if nights > s.cfg.MaxStayNights {
		return ErrStayTooLong
	}

	today := stay.Normalize(time.Now())
	if stay.Normalize(checkIn).Before(today) {
		return ErrPastDate
	}
	if stay.Normalize(checkIn).After(today.AddDate(0, 0, s.cfg.MaxAdvanceDays)) {
		return ErrDateTooFar
	}
	return nil
}

// Reserve books rooms of a room type for [checkIn, checkOut). It checks
// availability first (so an unavailable range creates no state at all), then
// creates the order shell and the PENDING reservation; reservation insert and
// per-night capacity consumption share one storage transaction, so a failure
// of either leaves nothing behind.
func (s *ReservationService) Reserve(ctx context.Context, userID, roomTypeID int64, checkIn, checkOut time.Time, rooms int64) (*models.Reservation, error) {
	if err := s.ValidateStay(checkIn, checkOut, rooms); err != nil {
		return nil, err
	}

	roomType, err := s.repo.GetRoomType(ctx, roomTypeID)
	if err != nil {
		return nil, err
	}

	result, err := s.availability.Check(ctx, roomTypeID, checkIn, checkOut, rooms)
	if err != nil {
		return nil, err
	}
	if !result.Available {
		metrics.IncReservation("rejected")
		return nil, &database.UnavailableError{RoomTypeID: roomTypeID, Dates: result.UnavailableDates}
	}

	nights, _ := stay.NightCount(checkIn, checkOut)
	booking := &models.Booking{
		Reference:  uuid.NewString(),
		UserID:     userID,
		TotalPrice: roomType.PricePerNight * float64(nights) * float64(rooms),
	}
	if err := s.repo.CreateBooking(ctx, booking); err != nil {
		return nil, err
	}

	res := &models.Reservation{
		BookingID:   booking.ID,
		RoomTypeID:  roomTypeID,
		CheckIn:     checkIn,
		CheckOut:    checkOut,
		RoomsBooked: rooms,
	}
	if err := s.repo.CreateReservationWithLock(ctx, res); err != nil {
		// The order shell has no items; drop it rather than leaving an
		// orphan behind.
		if delErr := s.repo.DeleteBooking(ctx, booking.ID); delErr != nil {
			s.logger.Error().Err(delErr).Int64("booking_id", booking.ID).Msg("failed to delete empty booking after reserve failure")
		}
		var unavailable *database.UnavailableError
		if errors.As(err, &unavailable) {
			metrics.IncReservation("rejected")
		}
		return nil, err
	}

	s.availability.InvalidateRoomType(ctx, roomTypeID)
	s.publishEvent(events.EventReservationCreated, res, "guest", userID)
	s.enqueueSync(ctx)
	metrics.IncReservation("created")

	s.logger.Info().
		Int64("reservation_id", res.ID).
		Int64("booking_id", booking.ID).
		Int64("room_type_id", roomTypeID).
		Int64("rooms", rooms).
		Msg("reservation created")
	return res, nil
}

func (s *ReservationService) ListUserBookings(ctx context.Context, userID int64) ([]*models.Booking, error) {
	return s.repo.GetUserBookings(ctx, userID)
}

// GetBookingDetail returns the booking with its reservations and flight legs.
// Only the booking owner may read it.
func (s *ReservationService) GetBookingDetail(ctx context.Context, callerID, bookingID int64) (*models.Booking, []*models.Reservation, []*models.FlightSegment, error) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, nil, nil, err
	}
	if booking.UserID != callerID {
		return nil, nil, nil, ErrNotAllowed
	}
	reservations, err := s.repo.GetBookingReservations(ctx, bookingID)
	if err != nil {
		return nil, nil, nil, err
	}
	flights, err := s.repo.GetBookingFlights(ctx, bookingID)
	if err != nil {
		return nil, nil, nil, err
	}
	return booking, reservations, flights, nil
}

// AddFlight attaches an external flight leg to the caller's booking.
func (s *ReservationService) AddFlight(ctx context.Context, callerID int64, seg *models.FlightSegment) error {
	booking, err := s.repo.GetBooking(ctx, seg.BookingID)
	if err != nil {
		return err
	}
	if booking.UserID != callerID {
		return ErrNotAllowed
	}
	if booking.Status != models.StatusPending {
		return ErrBookingNotOpen
	}
	return s.repo.AddFlightSegment(ctx, seg)
}

// ConfirmBooking settles checkout. Payment is an external boolean signal:
// success flips the booking and its items to CONFIRMED, failure cancels the
// whole booking and releases the provisionally consumed capacity.
func (s *ReservationService) ConfirmBooking(ctx context.Context, callerID, bookingID int64, paymentOK bool) error {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking.UserID != callerID {
		return ErrNotAllowed
	}
	if booking.Status != models.StatusPending {
		return ErrBookingNotOpen
	}

	if !paymentOK {
		return s.CancelBooking(ctx, callerID, bookingID, ScopeAll)
	}

	if err := s.repo.ConfirmBookingReservations(ctx, bookingID); err != nil {
		return err
	}
	if err := s.repo.ConfirmBookingFlights(ctx, bookingID); err != nil {
		return err
	}
	if err := s.repo.UpdateBookingStatus(ctx, bookingID, models.StatusConfirmed); err != nil {
		return err
	}

	s.publishEvent(events.EventBookingConfirmed, &models.Reservation{BookingID: bookingID}, "guest", callerID)
	s.enqueueSync(ctx)
	metrics.IncReservation("confirmed")
	return nil
}

// CancelReservation cancels a single reservation and releases its capacity
// over the reservation's stored stay range. Allowed for the booking owner and
// for the owner of the hotel the room type belongs to.
func (s *ReservationService) CancelReservation(ctx context.Context, callerID, reservationID int64) error {
	res, err := s.repo.GetReservation(ctx, reservationID)
	if err != nil {
		return err
	}
	booking, err := s.repo.GetBooking(ctx, res.BookingID)
	if err != nil {
		return err
	}

	byOwner := booking.UserID == callerID
	if !byOwner {
		hotelOwner, err := s.repo.GetHotelOwnerByRoomType(ctx, res.RoomTypeID)
		if err != nil {
			return err
		}
		if hotelOwner != callerID {
			return ErrNotAllowed
		}
	}

	if err := s.cancelOne(ctx, res); err != nil {
		return err
	}

	s.closeBookingIfDone(ctx, booking.ID)
	s.notifyCancellation(ctx, booking.UserID, byOwner, 1, 0)
	s.enqueueSync(ctx)
	return nil
}

// CancelBooking cancels a booking's items according to scope. Hotel owners
// may cancel only reservations of hotels they own, even when the booking
// bundles several hotels; the booking itself transitions to CANCELLED only
// when every constituent item ends up cancelled. A release failure on one
// reservation never aborts its siblings.
func (s *ReservationService) CancelBooking(ctx context.Context, callerID, bookingID int64, scope CancelScope) error {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	reservations, err := s.repo.GetBookingReservations(ctx, bookingID)
	if err != nil {
		return err
	}

	byOwner := booking.UserID == callerID
	targets := reservations
	if !byOwner {
		// Hotel-initiated cancellation: restrict to the caller's hotels.
		if scope != ScopeHotelItems {
			return ErrNotAllowed
		}
		targets = targets[:0:0]
		for _, res := range reservations {
			hotelOwner, err := s.repo.GetHotelOwnerByRoomType(ctx, res.RoomTypeID)
			if err != nil {
				return err
			}
			if hotelOwner == callerID {
				targets = append(targets, res)
			}
		}
		if len(targets) == 0 {
			return ErrNotAllowed
		}
	}

	var cancelled, failed []int64
	var lastErr error
	cancelledCount := 0

	if scope == ScopeAll || scope == ScopeHotelItems {
		for _, res := range targets {
			if res.Status == models.StatusCancelled {
				continue
			}
			if err := s.cancelOne(ctx, res); err != nil {
				s.logger.Error().Err(err).Int64("reservation_id", res.ID).Msg("failed to cancel reservation")
				failed = append(failed, res.ID)
				lastErr = err
				continue
			}
			cancelled = append(cancelled, res.ID)
			cancelledCount++
		}
	}

	flightsCancelled := int64(0)
	if scope == ScopeAll || scope == ScopeFlightItems {
		flightsCancelled, err = s.repo.CancelBookingFlights(ctx, bookingID)
		if err != nil {
			lastErr = err
		}
	}

	if cancelledCount == 0 && flightsCancelled == 0 && len(failed) == 0 {
		return ErrNothingToCancel
	}

	if scope == ScopeAll && byOwner && len(failed) == 0 {
		if err := s.repo.UpdateBookingStatus(ctx, bookingID, models.StatusCancelled); err != nil {
			s.logger.Error().Err(err).Int64("booking_id", bookingID).Msg("failed to mark booking cancelled")
		}
	} else {
		s.closeBookingIfDone(ctx, bookingID)
	}

	s.notifyCancellation(ctx, booking.UserID, byOwner, cancelledCount, flightsCancelled)
	s.enqueueSync(ctx)

	if len(failed) > 0 {
		return &PartialCancelError{BookingID: bookingID, Cancelled: cancelled, Failed: failed, LastErr: lastErr}
	}
	return nil
}

// cancelOne flips one reservation to CANCELLED and releases its nights. The
// status flip is guarded, so a double cancel never releases twice; the release
// uses the stored check-in/check-out, never recomputed values.
func (s *ReservationService) cancelOne(ctx context.Context, res *models.Reservation) error {
	if err := s.repo.CancelReservation(ctx, res.ID); err != nil {
		return err
	}

	err := s.repo.AdjustAvailability(ctx, res.RoomTypeID, res.CheckIn, res.CheckOut, res.RoomsBooked)
	s.availability.InvalidateRoomType(ctx, res.RoomTypeID)
	if err != nil {
		return fmt.Errorf("reservation %d cancelled but release incomplete: %w", res.ID, err)
	}

	s.publishEvent(events.EventReservationCancelled, res, "", 0)
	metrics.IncReservation("cancelled")
	return nil
}

// closeBookingIfDone flips the booking to CANCELLED once every item is.
func (s *ReservationService) closeBookingIfDone(ctx context.Context, bookingID int64) {
	reservations, err := s.repo.GetBookingReservations(ctx, bookingID)
	if err != nil {
		s.logger.Error().Err(err).Int64("booking_id", bookingID).Msg("failed to reload reservations")
		return
	}
	flights, err := s.repo.GetBookingFlights(ctx, bookingID)
	if err != nil {
		s.logger.Error().Err(err).Int64("booking_id", bookingID).Msg("failed to reload flights")
		return
	}

	for _, res := range reservations {
		if res.Status != models.StatusCancelled {
			return
		}
	}
	for _, f := range flights {
		if f.Status != models.StatusCancelled {
			return
		}
	}

	if err := s.repo.UpdateBookingStatus(ctx, bookingID, models.StatusCancelled); err != nil {
		s.logger.Error().Err(err).Int64("booking_id", bookingID).Msg("failed to mark booking cancelled")
	}
}

func (s *ReservationService) notifyCancellation(ctx context.Context, userID int64, byOwner bool, reservations int, flights int64) {
	if s.notifications == nil {
		return
	}

	who := "the hotel"
	if byOwner {
		who = "you"
	}
	message := fmt.Sprintf("Cancelled by %s: %d room reservation(s), %d flight(s).", who, reservations, flights)
	s.notifications.Send(ctx, userID, message)
}

func (s *ReservationService) publishEvent(eventType string, res *models.Reservation, changedBy string, changedByID int64) {
	if s.eventBus == nil {
		return
	}

	payload := events.ReservationEventPayload{
		ReservationID: res.ID,
		BookingID:     res.BookingID,
		RoomTypeID:    res.RoomTypeID,
		CheckIn:       res.CheckIn,
		CheckOut:      res.CheckOut,
		RoomsBooked:   res.RoomsBooked,
		Status:        res.Status,
		ChangedBy:     changedBy,
		ChangedByID:   changedByID,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("reservation_id", res.ID).Msg("publish event error")
	}
}

func (s *ReservationService) enqueueSync(ctx context.Context) {
	if s.syncWorker == nil {
		return
	}
	if err := s.syncWorker.EnqueueOccupancySync(ctx); err != nil {
		s.logger.Error().Err(err).Msg("occupancy sync enqueue error")
	}
}
