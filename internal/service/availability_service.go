package service

import (
	"context"
	"errors"
	"time"

	"stayhub/internal/domain"
	"stayhub/internal/metrics"
	"stayhub/internal/models"
	"stayhub/internal/repository"
	"stayhub/internal/stay"

	"github.com/rs/zerolog"
)

type AvailabilityService struct {
	repo   domain.Repository
	cache  domain.AvailabilityCache
	logger *zerolog.Logger
}

func NewAvailabilityService(repo domain.Repository, cache domain.AvailabilityCache, logger *zerolog.Logger) *AvailabilityService {
	return &AvailabilityService{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

// Check determines whether every night of [checkIn, checkOut) can take
// roomsRequested rooms. Nights with no explicit record count as fully
// available at the room type's total capacity. Read-only.
func (s *AvailabilityService) Check(ctx context.Context, roomTypeID int64, checkIn, checkOut time.Time, roomsRequested int64) (*models.AvailabilityResult, error) {
	if roomsRequested < 1 {
		return nil, ErrInvalidRooms
	}

	nights, err := stay.Nights(checkIn, checkOut)
	if err != nil {
		return nil, err
	}

	roomType, err := s.repo.GetRoomType(ctx, roomTypeID)
	if err != nil {
		return nil, err
	}

	records, err := s.repo.GetAvailabilityRange(ctx, roomTypeID, nights[0], checkOut)
	if err != nil {
		return nil, err
	}

	var unavailable []time.Time
	for _, night := range nights {
		effective := roomType.TotalRooms
		if rec, ok := records[night.Format("2006-01-02")]; ok {
			effective = rec.AvailableRooms
		}
		if effective < roomsRequested {
			unavailable = append(unavailable, night)
		}
	}

	result := &models.AvailabilityResult{
		Available:        len(unavailable) == 0,
		UnavailableDates: unavailable,
	}
	if result.Available {
		metrics.IncAvailabilityCheck("available")
	} else {
		metrics.IncAvailabilityCheck("unavailable")
	}
	return result, nil
}

// GetRange returns one gap-filled entry per night of [from, to): explicit
// records where they exist, the room type's total capacity everywhere else.
// Callers never see missing dates. Results are served through the versioned
// cache when one is configured.
func (s *AvailabilityService) GetRange(ctx context.Context, roomTypeID int64, from, to time.Time) ([]models.DayAvailability, error) {
	nights, err := stay.Nights(from, to)
	if err != nil {
		return nil, err
	}

	roomType, err := s.repo.GetRoomType(ctx, roomTypeID)
	if err != nil {
		return nil, err
	}

	var version int64
	if s.cache != nil {
		version, err = s.cache.GetVersion(ctx, roomTypeID)
		if err != nil {
			s.logger.Warn().Err(err).Int64("room_type_id", roomTypeID).Msg("availability cache version lookup failed")
			version = -1
		}
		if version >= 0 {
			days, err := s.cache.GetRange(ctx, roomTypeID, version, nights[0], stay.Normalize(to))
			if err == nil {
				return days, nil
			}
			if !errors.Is(err, repository.ErrCacheMiss) {
				s.logger.Warn().Err(err).Int64("room_type_id", roomTypeID).Msg("availability cache read failed")
			}
		}
	}

	records, err := s.repo.GetAvailabilityRange(ctx, roomTypeID, nights[0], to)
	if err != nil {
		return nil, err
	}

	days := make([]models.DayAvailability, 0, len(nights))
	for _, night := range nights {
		available := roomType.TotalRooms
		if rec, ok := records[night.Format("2006-01-02")]; ok {
			available = rec.AvailableRooms
		}
		days = append(days, models.DayAvailability{
			Date:           night,
			AvailableRooms: available,
			TotalRooms:     roomType.TotalRooms,
		})
	}

	if s.cache != nil && version >= 0 {
		if err := s.cache.SetRange(ctx, roomTypeID, version, nights[0], stay.Normalize(to), days); err != nil {
			s.logger.Warn().Err(err).Int64("room_type_id", roomTypeID).Msg("availability cache write failed")
		}
	}
	return days, nil
}

// InvalidateRoomType makes all cached ranges of a room type unreachable.
// Called after every availability mutation; best effort.
func (s *AvailabilityService) InvalidateRoomType(ctx context.Context, roomTypeID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.BumpVersion(ctx, roomTypeID); err != nil {
		s.logger.Warn().Err(err).Int64("room_type_id", roomTypeID).Msg("availability cache invalidation failed")
	}
}
