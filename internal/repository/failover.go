package repository

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"stayhub/internal/domain"
	"stayhub/internal/models"

	"github.com/rs/zerolog"
)

// FailoverAvailabilityCache prefers the primary (Redis) cache and falls back
// to the in-memory one when the primary starts failing, retrying the primary
// after a cool-off.
type FailoverAvailabilityCache struct {
	primary   domain.AvailabilityCache
	fallback  domain.AvailabilityCache
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
}

func NewFailoverAvailabilityCache(primary, fallback domain.AvailabilityCache, logger *zerolog.Logger) *FailoverAvailabilityCache {
	return &FailoverAvailabilityCache{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverAvailabilityCache) GetVersion(ctx context.Context, roomTypeID int64) (int64, error) {
	if r.primaryUsable() {
		version, err := r.primary.GetVersion(ctx, roomTypeID)
		if err == nil {
			return version, nil
		}
		r.markDown(err)
	}
	return r.fallback.GetVersion(ctx, roomTypeID)
}

func (r *FailoverAvailabilityCache) BumpVersion(ctx context.Context, roomTypeID int64) error {
	if r.primaryUsable() {
		err := r.primary.BumpVersion(ctx, roomTypeID)
		if err == nil {
			return nil
		}
		r.markDown(err)
	}
	return r.fallback.BumpVersion(ctx, roomTypeID)
}

func (r *FailoverAvailabilityCache) GetRange(ctx context.Context, roomTypeID, version int64, from, to time.Time) ([]models.DayAvailability, error) {
	if r.primaryUsable() {
		days, err := r.primary.GetRange(ctx, roomTypeID, version, from, to)
		if err == nil || errors.Is(err, ErrCacheMiss) {
			return days, err
		}
		r.markDown(err)
	}
	return r.fallback.GetRange(ctx, roomTypeID, version, from, to)
}

func (r *FailoverAvailabilityCache) SetRange(ctx context.Context, roomTypeID, version int64, from, to time.Time, days []models.DayAvailability) error {
	if r.primaryUsable() {
		err := r.primary.SetRange(ctx, roomTypeID, version, from, to, days)
		if err == nil {
			return nil
		}
		r.markDown(err)
	}
	return r.fallback.SetRange(ctx, roomTypeID, version, from, to, days)
}

func (r *FailoverAvailabilityCache) primaryUsable() bool {
	if !r.isDown.Load() {
		return true
	}
	// Try to recover after 1 minute
	if time.Since(time.Unix(r.lastCheck.Load(), 0)) > time.Minute {
		r.isDown.Store(false)
		return true
	}
	return false
}

func (r *FailoverAvailabilityCache) markDown(err error) {
	if r.logger != nil {
		r.logger.Error().Err(err).Msg("Primary availability cache failed, falling back to memory")
	}
	r.isDown.Store(true)
	r.lastCheck.Store(time.Now().Unix())
}
