package service

import (
	"context"
	"testing"
	"time"

	"stayhub/internal/models"
	"stayhub/internal/repository"
	"stayhub/internal/stay"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testStay(nights int) (time.Time, time.Time) {
	in := stay.Normalize(time.Now()).AddDate(0, 0, 7)
	return in, in.AddDate(0, 0, nights)
}

func recordFor(roomTypeID int64, date time.Time, available int64) *models.AvailabilityRecord {
	return &models.AvailabilityRecord{RoomTypeID: roomTypeID, Date: date, AvailableRooms: available}
}

func TestAvailabilityCheck_MissingRecordsCountAsFullCapacity(t *testing.T) {
	repo := new(mockRepo)
	logger := zerolog.Nop()
	svc := NewAvailabilityService(repo, nil, &logger)

	checkIn, checkOut := testStay(3)
	rt := &models.RoomType{ID: 1, TotalRooms: 10}

	// Only the middle night has an explicit record.
	middle := checkIn.AddDate(0, 0, 1)
	records := map[string]*models.AvailabilityRecord{
		middle.Format("2006-01-02"): recordFor(1, middle, 5),
	}

	repo.On("GetRoomType", mock.Anything, int64(1)).Return(rt, nil)
	repo.On("GetAvailabilityRange", mock.Anything, int64(1), mock.Anything, mock.Anything).Return(records, nil)

	result, err := svc.Check(context.Background(), 1, checkIn, checkOut, 4)
	require.NoError(t, err)
	assert.True(t, result.Available)
	assert.Empty(t, result.UnavailableDates)
}

func TestAvailabilityCheck_ReportsExactFailingNights(t *testing.T) {
	repo := new(mockRepo)
	logger := zerolog.Nop()
	svc := NewAvailabilityService(repo, nil, &logger)

	checkIn, checkOut := testStay(3)
	rt := &models.RoomType{ID: 1, TotalRooms: 10}
	middle := checkIn.AddDate(0, 0, 1)
	records := map[string]*models.AvailabilityRecord{
		middle.Format("2006-01-02"): recordFor(1, middle, 2),
	}

	repo.On("GetRoomType", mock.Anything, int64(1)).Return(rt, nil)
	repo.On("GetAvailabilityRange", mock.Anything, int64(1), mock.Anything, mock.Anything).Return(records, nil)

	result, err := svc.Check(context.Background(), 1, checkIn, checkOut, 4)
	require.NoError(t, err)
	assert.False(t, result.Available)
	require.Len(t, result.UnavailableDates, 1)
	assert.Equal(t, middle, result.UnavailableDates[0])
}

func TestAvailabilityCheck_Validation(t *testing.T) {
	repo := new(mockRepo)
	logger := zerolog.Nop()
	svc := NewAvailabilityService(repo, nil, &logger)

	checkIn, checkOut := testStay(2)

	_, err := svc.Check(context.Background(), 1, checkIn, checkOut, 0)
	assert.ErrorIs(t, err, ErrInvalidRooms)

	_, err = svc.Check(context.Background(), 1, checkOut, checkIn, 1)
	assert.ErrorIs(t, err, stay.ErrInvalidRange)

	repo.AssertNotCalled(t, "GetAvailabilityRange")
}

func TestAvailabilityGetRange_GapFilled(t *testing.T) {
	repo := new(mockRepo)
	logger := zerolog.Nop()
	svc := NewAvailabilityService(repo, nil, &logger)

	from, to := testStay(3)
	rt := &models.RoomType{ID: 2, TotalRooms: 8}
	records := map[string]*models.AvailabilityRecord{
		from.Format("2006-01-02"): recordFor(2, from, 3),
	}

	repo.On("GetRoomType", mock.Anything, int64(2)).Return(rt, nil)
	repo.On("GetAvailabilityRange", mock.Anything, int64(2), mock.Anything, mock.Anything).Return(records, nil)

	days, err := svc.GetRange(context.Background(), 2, from, to)
	require.NoError(t, err)
	require.Len(t, days, 3)

	assert.Equal(t, int64(3), days[0].AvailableRooms)
	assert.Equal(t, int64(8), days[1].AvailableRooms)
	assert.Equal(t, int64(8), days[2].AvailableRooms)
	for i, day := range days {
		assert.Equal(t, from.AddDate(0, 0, i), day.Date)
		assert.Equal(t, int64(8), day.TotalRooms)
	}
}

func TestAvailabilityGetRange_CachedUntilInvalidated(t *testing.T) {
	repo := new(mockRepo)
	logger := zerolog.Nop()
	cache := repository.NewMemoryAvailabilityCache(time.Minute)
	svc := NewAvailabilityService(repo, cache, &logger)

	from, to := testStay(2)
	rt := &models.RoomType{ID: 3, TotalRooms: 6}

	repo.On("GetRoomType", mock.Anything, int64(3)).Return(rt, nil)
	repo.On("GetAvailabilityRange", mock.Anything, int64(3), mock.Anything, mock.Anything).
		Return(map[string]*models.AvailabilityRecord{}, nil)

	ctx := context.Background()
	_, err := svc.GetRange(ctx, 3, from, to)
	require.NoError(t, err)
	_, err = svc.GetRange(ctx, 3, from, to)
	require.NoError(t, err)

	// Second call was served from the cache.
	repo.AssertNumberOfCalls(t, "GetAvailabilityRange", 1)

	// Bumping the version makes the cached entry unreachable.
	svc.InvalidateRoomType(ctx, 3)
	_, err = svc.GetRange(ctx, 3, from, to)
	require.NoError(t, err)
	repo.AssertNumberOfCalls(t, "GetAvailabilityRange", 2)
}
