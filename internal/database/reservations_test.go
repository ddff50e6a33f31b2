package database

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"stayhub/internal/models"
	"stayhub/internal/stay"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.Nop()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// seedRoomType creates an owner, a hotel and a room type with the given
// capacity and returns the room type.
func seedRoomType(t *testing.T, db *DB, totalRooms int64) *models.RoomType {
	t.Helper()
	ctx := context.Background()

	owner := &models.User{Name: "Owner", Email: "owner@example.com", Role: models.RoleHotelOwner}
	require.NoError(t, db.CreateUser(ctx, owner))

	hotel := &models.Hotel{OwnerUserID: owner.ID, Name: "Test Hotel", City: "Kazan"}
	require.NoError(t, db.CreateHotel(ctx, hotel))

	rt := &models.RoomType{HotelID: hotel.ID, Name: "Standard", PricePerNight: 100, TotalRooms: totalRooms}
	require.NoError(t, db.CreateRoomType(ctx, rt))
	return rt
}

func seedBooking(t *testing.T, db *DB, userID int64) *models.Booking {
	t.Helper()
	booking := &models.Booking{Reference: "ref-" + t.Name(), UserID: userID, TotalPrice: 300}
	require.NoError(t, db.CreateBooking(context.Background(), booking))
	return booking
}

func stayDates(daysAhead, nights int) (time.Time, time.Time) {
	in := stay.Normalize(time.Now()).AddDate(0, 0, daysAhead)
	return in, in.AddDate(0, 0, nights)
}

func TestCreateReservationWithLock_ConsumesEveryNight(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	rt := seedRoomType(t, db, 10)
	booking := seedBooking(t, db, 1)

	checkIn, checkOut := stayDates(5, 3)
	res := &models.Reservation{BookingID: booking.ID, RoomTypeID: rt.ID, CheckIn: checkIn, CheckOut: checkOut, RoomsBooked: 2}
	require.NoError(t, db.CreateReservationWithLock(ctx, res))
	assert.NotZero(t, res.ID)
	assert.Equal(t, models.StatusPending, res.Status)

	// Every night of [checkIn, checkOut) is decremented, checkout night is not.
	for d := checkIn; d.Before(checkOut); d = d.AddDate(0, 0, 1) {
		rec, err := db.GetAvailability(ctx, rt.ID, d)
		require.NoError(t, err)
		assert.Equal(t, int64(8), rec.AvailableRooms, d.Format("2006-01-02"))
	}
	_, err := db.GetAvailability(ctx, rt.ID, checkOut)
	assert.ErrorIs(t, err, ErrNotFound, "checkout night must stay untouched")
}

func TestCreateReservationWithLock_UnavailableRollsBack(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	rt := seedRoomType(t, db, 3)
	booking := seedBooking(t, db, 1)

	// Make the middle night scarce.
	checkIn, checkOut := stayDates(5, 3)
	middle := checkIn.AddDate(0, 0, 1)
	require.NoError(t, db.UpsertAvailability(ctx, rt.ID, middle, 1))

	res := &models.Reservation{BookingID: booking.ID, RoomTypeID: rt.ID, CheckIn: checkIn, CheckOut: checkOut, RoomsBooked: 2}
	err := db.CreateReservationWithLock(ctx, res)

	var unavailable *UnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, rt.ID, unavailable.RoomTypeID)
	require.Len(t, unavailable.Dates, 1)
	assert.Equal(t, middle.Format("2006-01-02"), unavailable.Dates[0].Format("2006-01-02"))

	// Rollback: the first night must not have been consumed.
	_, err = db.GetAvailability(ctx, rt.ID, checkIn)
	assert.ErrorIs(t, err, ErrNotFound)

	// And no reservation row exists.
	reservations, err := db.GetBookingReservations(ctx, booking.ID)
	require.NoError(t, err)
	assert.Empty(t, reservations)
}

func TestCreateReservationWithLock_UnknownRoomType(t *testing.T) {
	db := setupTestDB(t)
	booking := seedBooking(t, db, 1)

	checkIn, checkOut := stayDates(5, 2)
	res := &models.Reservation{BookingID: booking.ID, RoomTypeID: 999, CheckIn: checkIn, CheckOut: checkOut, RoomsBooked: 1}
	err := db.CreateReservationWithLock(context.Background(), res)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCancelReservation_Terminal(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	rt := seedRoomType(t, db, 5)
	booking := seedBooking(t, db, 1)

	checkIn, checkOut := stayDates(3, 2)
	res := &models.Reservation{BookingID: booking.ID, RoomTypeID: rt.ID, CheckIn: checkIn, CheckOut: checkOut, RoomsBooked: 1}
	require.NoError(t, db.CreateReservationWithLock(ctx, res))

	require.NoError(t, db.CancelReservation(ctx, res.ID))

	got, err := db.GetReservation(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, got.Status)

	// Second cancel affects zero rows.
	err = db.CancelReservation(ctx, res.ID)
	assert.ErrorIs(t, err, ErrAlreadyCancelled)

	// Unknown id reports not found, not already-cancelled.
	err = db.CancelReservation(ctx, 12345)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConfirmBookingReservations(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	rt := seedRoomType(t, db, 5)
	booking := seedBooking(t, db, 1)

	checkIn, checkOut := stayDates(3, 2)
	res := &models.Reservation{BookingID: booking.ID, RoomTypeID: rt.ID, CheckIn: checkIn, CheckOut: checkOut, RoomsBooked: 1}
	require.NoError(t, db.CreateReservationWithLock(ctx, res))

	require.NoError(t, db.ConfirmBookingReservations(ctx, booking.ID))

	got, err := db.GetReservation(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, got.Status)
}

func TestGetConfirmedRoomUsage(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	rt := seedRoomType(t, db, 10)

	bookingA := seedBooking(t, db, 1)
	checkInA, checkOutA := stayDates(2, 3)
	resA := &models.Reservation{BookingID: bookingA.ID, RoomTypeID: rt.ID, CheckIn: checkInA, CheckOut: checkOutA, RoomsBooked: 2}
	require.NoError(t, db.CreateReservationWithLock(ctx, resA))
	require.NoError(t, db.ConfirmBookingReservations(ctx, bookingA.ID))

	// Overlapping pending reservation must not count.
	bookingB := &models.Booking{Reference: "ref-pending", UserID: 2}
	require.NoError(t, db.CreateBooking(ctx, bookingB))
	resB := &models.Reservation{BookingID: bookingB.ID, RoomTypeID: rt.ID, CheckIn: checkInA, CheckOut: checkOutA, RoomsBooked: 3}
	require.NoError(t, db.CreateReservationWithLock(ctx, resB))

	from := stay.Normalize(time.Now())
	usage, err := db.GetConfirmedRoomUsage(ctx, rt.ID, from, from.AddDate(0, 0, 30))
	require.NoError(t, err)

	assert.Len(t, usage, 3)
	for d := checkInA; d.Before(checkOutA); d = d.AddDate(0, 0, 1) {
		assert.Equal(t, int64(2), usage[d.Format("2006-01-02")])
	}
}

func TestConcurrentReservations_LastRoom(t *testing.T) {
	logger := zerolog.New(zerolog.NewConsoleWriter())
	db, err := NewDB(filepath.Join(t.TempDir(), "concurrency.db"), &logger)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	rt := seedRoomType(t, db, 1)
	booking := seedBooking(t, db, 1)

	checkIn, checkOut := stayDates(1, 2)

	const numGoroutines = 10
	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	results := make(chan error, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			res := &models.Reservation{
				BookingID:   booking.ID,
				RoomTypeID:  rt.ID,
				CheckIn:     checkIn,
				CheckOut:    checkOut,
				RoomsBooked: 1,
			}
			results <- db.CreateReservationWithLock(ctx, res)
		}()
	}

	wg.Wait()
	close(results)

	successCount := 0
	failCount := 0
	sawUnavailable := false
	for err := range results {
		if err == nil {
			successCount++
			continue
		}
		failCount++
		var unavailable *UnavailableError
		if errors.As(err, &unavailable) {
			sawUnavailable = true
		}
	}

	// Exactly one goroutine wins the last room, the rest fail without ever
	// driving the count negative.
	assert.Equal(t, 1, successCount)
	assert.Equal(t, numGoroutines-1, failCount)
	assert.True(t, sawUnavailable)

	rec, err := db.GetAvailability(ctx, rt.ID, checkIn)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rec.AvailableRooms)
}
