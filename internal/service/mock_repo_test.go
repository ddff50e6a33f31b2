package service

import (
	"context"
	"time"

	"stayhub/internal/models"

	"github.com/stretchr/testify/mock"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) GetRoomType(ctx context.Context, id int64) (*models.RoomType, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RoomType), args.Error(1)
}
func (m *mockRepo) GetRoomTypes(ctx context.Context) ([]*models.RoomType, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RoomType), args.Error(1)
}
func (m *mockRepo) CreateRoomType(ctx context.Context, rt *models.RoomType) error {
	return m.Called(ctx, rt).Error(0)
}
func (m *mockRepo) DeleteRoomType(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockRepo) SetRoomTypeCapacity(ctx context.Context, roomTypeID, newTotal int64, horizonDays int) error {
	return m.Called(ctx, roomTypeID, newTotal, horizonDays).Error(0)
}
func (m *mockRepo) GetHotel(ctx context.Context, id int64) (*models.Hotel, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Hotel), args.Error(1)
}
func (m *mockRepo) GetHotelOwnerByRoomType(ctx context.Context, roomTypeID int64) (int64, error) {
	args := m.Called(ctx, roomTypeID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRepo) GetAvailability(ctx context.Context, roomTypeID int64, date time.Time) (*models.AvailabilityRecord, error) {
	args := m.Called(ctx, roomTypeID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AvailabilityRecord), args.Error(1)
}
func (m *mockRepo) GetAvailabilityRange(ctx context.Context, roomTypeID int64, from, to time.Time) (map[string]*models.AvailabilityRecord, error) {
	args := m.Called(ctx, roomTypeID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]*models.AvailabilityRecord), args.Error(1)
}
func (m *mockRepo) UpsertAvailability(ctx context.Context, roomTypeID int64, date time.Time, availableRooms int64) error {
	return m.Called(ctx, roomTypeID, date, availableRooms).Error(0)
}
func (m *mockRepo) AdjustAvailability(ctx context.Context, roomTypeID int64, checkIn, checkOut time.Time, delta int64) error {
	return m.Called(ctx, roomTypeID, checkIn, checkOut, delta).Error(0)
}
func (m *mockRepo) GetConfirmedRoomUsage(ctx context.Context, roomTypeID int64, from, to time.Time) (map[string]int64, error) {
	args := m.Called(ctx, roomTypeID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int64), args.Error(1)
}

func (m *mockRepo) CreateBooking(ctx context.Context, booking *models.Booking) error {
	return m.Called(ctx, booking).Error(0)
}
func (m *mockRepo) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}
func (m *mockRepo) UpdateBookingStatus(ctx context.Context, id int64, status string) error {
	return m.Called(ctx, id, status).Error(0)
}
func (m *mockRepo) DeleteBooking(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockRepo) GetUserBookings(ctx context.Context, userID int64) ([]*models.Booking, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepo) AddFlightSegment(ctx context.Context, seg *models.FlightSegment) error {
	return m.Called(ctx, seg).Error(0)
}
func (m *mockRepo) GetBookingFlights(ctx context.Context, bookingID int64) ([]*models.FlightSegment, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.FlightSegment), args.Error(1)
}
func (m *mockRepo) CancelBookingFlights(ctx context.Context, bookingID int64) (int64, error) {
	args := m.Called(ctx, bookingID)
	return args.Get(0).(int64), args.Error(1)
}
func (m *mockRepo) ConfirmBookingFlights(ctx context.Context, bookingID int64) error {
	return m.Called(ctx, bookingID).Error(0)
}

func (m *mockRepo) CreateReservationWithLock(ctx context.Context, res *models.Reservation) error {
	return m.Called(ctx, res).Error(0)
}
func (m *mockRepo) GetReservation(ctx context.Context, id int64) (*models.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}
func (m *mockRepo) GetBookingReservations(ctx context.Context, bookingID int64) ([]*models.Reservation, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Reservation), args.Error(1)
}
func (m *mockRepo) CancelReservation(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockRepo) ConfirmBookingReservations(ctx context.Context, bookingID int64) error {
	return m.Called(ctx, bookingID).Error(0)
}

func (m *mockRepo) GetUser(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *mockRepo) CreateNotification(ctx context.Context, n *models.Notification) error {
	return m.Called(ctx, n).Error(0)
}
func (m *mockRepo) GetUserNotifications(ctx context.Context, userID int64) ([]*models.Notification, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Notification), args.Error(1)
}
func (m *mockRepo) MarkNotificationRead(ctx context.Context, id, userID int64) error {
	return m.Called(ctx, id, userID).Error(0)
}
