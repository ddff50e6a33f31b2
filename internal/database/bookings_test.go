package database

import (
	"context"
	"testing"
	"time"

	"stayhub/internal/models"
	"stayhub/internal/stay"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingLifecycle(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	booking := &models.Booking{Reference: "ref-lifecycle", UserID: 7, TotalPrice: 900}
	require.NoError(t, db.CreateBooking(ctx, booking))
	assert.Equal(t, models.StatusPending, booking.Status)

	got, err := db.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, "ref-lifecycle", got.Reference)
	assert.Equal(t, 900.0, got.TotalPrice)

	require.NoError(t, db.UpdateBookingStatus(ctx, booking.ID, models.StatusConfirmed))
	got, err = db.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, got.Status)

	assert.ErrorIs(t, db.UpdateBookingStatus(ctx, 404, models.StatusCancelled), ErrNotFound)

	bookings, err := db.GetUserBookings(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, bookings, 1)
}

func TestDeleteBooking_RemovesShell(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	booking := &models.Booking{Reference: "ref-shell", UserID: 1}
	require.NoError(t, db.CreateBooking(ctx, booking))
	require.NoError(t, db.DeleteBooking(ctx, booking.ID))

	_, err := db.GetBooking(ctx, booking.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFlightSegments(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	booking := &models.Booking{Reference: "ref-flights", UserID: 1}
	require.NoError(t, db.CreateBooking(ctx, booking))

	depart := stay.Normalize(time.Now()).AddDate(0, 0, 14)
	seg := &models.FlightSegment{BookingID: booking.ID, FlightNumber: "SU 1404", DepartDate: depart, Price: 120}
	require.NoError(t, db.AddFlightSegment(ctx, seg))
	assert.Equal(t, models.StatusPending, seg.Status)

	flights, err := db.GetBookingFlights(ctx, booking.ID)
	require.NoError(t, err)
	require.Len(t, flights, 1)
	assert.Equal(t, depart, flights[0].DepartDate)

	affected, err := db.CancelBookingFlights(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	// Cancelled legs are not cancellable again.
	affected, err = db.CancelBookingFlights(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)
}

func TestConfirmBookingFlights(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	booking := &models.Booking{Reference: "ref-confirm-flights", UserID: 1}
	require.NoError(t, db.CreateBooking(ctx, booking))

	seg := &models.FlightSegment{BookingID: booking.ID, FlightNumber: "S7 77", DepartDate: time.Now().AddDate(0, 0, 5)}
	require.NoError(t, db.AddFlightSegment(ctx, seg))

	require.NoError(t, db.ConfirmBookingFlights(ctx, booking.ID))
	flights, err := db.GetBookingFlights(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, flights[0].Status)
}

func TestNotifications(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	n := &models.Notification{UserID: 3, Message: "Cancelled by the hotel: 1 room reservation(s), 0 flight(s)."}
	require.NoError(t, db.CreateNotification(ctx, n))
	assert.NotZero(t, n.ID)

	list, err := db.GetUserNotifications(ctx, 3)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.False(t, list[0].IsRead)

	// Someone else's user id must not flip the flag.
	assert.ErrorIs(t, db.MarkNotificationRead(ctx, n.ID, 99), ErrNotFound)

	require.NoError(t, db.MarkNotificationRead(ctx, n.ID, 3))
	list, err = db.GetUserNotifications(ctx, 3)
	require.NoError(t, err)
	assert.True(t, list[0].IsRead)
}

func TestSyncQueue(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	task := &models.SyncTask{TaskType: models.SyncTaskOccupancy, Status: models.SyncStatusPending}
	require.NoError(t, db.CreateSyncTask(ctx, task))

	tasks, err := db.GetPendingSyncTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, models.SyncTaskOccupancy, tasks[0].TaskType)

	// Retry in the future is not picked up.
	next := time.Now().Add(time.Hour)
	require.NoError(t, db.UpdateSyncTaskStatus(ctx, task.ID, models.SyncStatusRetry, "quota", &next))
	tasks, err = db.GetPendingSyncTasks(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, tasks)

	require.NoError(t, db.UpdateSyncTaskStatus(ctx, task.ID, models.SyncStatusCompleted, "", nil))
	tasks, err = db.GetPendingSyncTasks(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}
