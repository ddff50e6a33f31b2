package domain

import (
	"context"
	"time"

	"stayhub/internal/models"
)

// Repository is the persistence port consumed by the service layer.
type Repository interface {
	GetRoomType(ctx context.Context, id int64) (*models.RoomType, error)
	GetRoomTypes(ctx context.Context) ([]*models.RoomType, error)
	CreateRoomType(ctx context.Context, rt *models.RoomType) error
	DeleteRoomType(ctx context.Context, id int64) error
	SetRoomTypeCapacity(ctx context.Context, roomTypeID, newTotal int64, horizonDays int) error
	GetHotel(ctx context.Context, id int64) (*models.Hotel, error)
	GetHotelOwnerByRoomType(ctx context.Context, roomTypeID int64) (int64, error)

	GetAvailability(ctx context.Context, roomTypeID int64, date time.Time) (*models.AvailabilityRecord, error)
	GetAvailabilityRange(ctx context.Context, roomTypeID int64, from, to time.Time) (map[string]*models.AvailabilityRecord, error)
	UpsertAvailability(ctx context.Context, roomTypeID int64, date time.Time, availableRooms int64) error
	AdjustAvailability(ctx context.Context, roomTypeID int64, checkIn, checkOut time.Time, delta int64) error
	GetConfirmedRoomUsage(ctx context.Context, roomTypeID int64, from, to time.Time) (map[string]int64, error)

	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	UpdateBookingStatus(ctx context.Context, id int64, status string) error
	DeleteBooking(ctx context.Context, id int64) error
	GetUserBookings(ctx context.Context, userID int64) ([]*models.Booking, error)
	AddFlightSegment(ctx context.Context, seg *models.FlightSegment) error
	GetBookingFlights(ctx context.Context, bookingID int64) ([]*models.FlightSegment, error)
	CancelBookingFlights(ctx context.Context, bookingID int64) (int64, error)
	ConfirmBookingFlights(ctx context.Context, bookingID int64) error

	CreateReservationWithLock(ctx context.Context, res *models.Reservation) error
	GetReservation(ctx context.Context, id int64) (*models.Reservation, error)
	GetBookingReservations(ctx context.Context, bookingID int64) ([]*models.Reservation, error)
	CancelReservation(ctx context.Context, id int64) error
	ConfirmBookingReservations(ctx context.Context, bookingID int64) error

	GetUser(ctx context.Context, id int64) (*models.User, error)
	CreateNotification(ctx context.Context, n *models.Notification) error
	GetUserNotifications(ctx context.Context, userID int64) ([]*models.Notification, error)
	MarkNotificationRead(ctx context.Context, id, userID int64) error
}

// AvailabilityCache is the read cache for gap-filled availability ranges.
// Entries are keyed by a per-room-type version; bumping the version on every
// mutation makes stale entries unreachable without explicit invalidation.
type AvailabilityCache interface {
	GetVersion(ctx context.Context, roomTypeID int64) (int64, error)
	BumpVersion(ctx context.Context, roomTypeID int64) error
	GetRange(ctx context.Context, roomTypeID, version int64, from, to time.Time) ([]models.DayAvailability, error)
	SetRange(ctx context.Context, roomTypeID, version int64, from, to time.Time, days []models.DayAvailability) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// Notifier pushes a short message to a user over an out-of-band channel.
// Delivery is best effort; failures are logged, never propagated.
type Notifier interface {
	Notify(ctx context.Context, user *models.User, message string)
}

// SyncWorker queues background exports of the occupancy schedule.
type SyncWorker interface {
	EnqueueOccupancySync(ctx context.Context) error
}
