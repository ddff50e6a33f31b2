package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"stayhub/internal/models"
)

type MemoryAvailabilityCache struct {
	versions sync.Map // map[int64]int64
	ranges   sync.Map // map[string]memoryRangeEntry
	ttl      time.Duration
}

type memoryRangeEntry struct {
	days      []models.DayAvailability
	expiresAt time.Time
}

func NewMemoryAvailabilityCache(ttl time.Duration) *MemoryAvailabilityCache {
	return &MemoryAvailabilityCache{ttl: ttl}
}

func (r *MemoryAvailabilityCache) GetVersion(ctx context.Context, roomTypeID int64) (int64, error) {
	val, ok := r.versions.Load(roomTypeID)
	if !ok {
		return 0, nil
	}
	return val.(int64), nil
}

func (r *MemoryAvailabilityCache) BumpVersion(ctx context.Context, roomTypeID int64) error {
	for {
		val, _ := r.versions.LoadOrStore(roomTypeID, int64(0))
		current := val.(int64)
		if r.versions.CompareAndSwap(roomTypeID, current, current+1) {
			return nil
		}
	}
}

func (r *MemoryAvailabilityCache) GetRange(ctx context.Context, roomTypeID, version int64, from, to time.Time) ([]models.DayAvailability, error) {
	val, ok := r.ranges.Load(rangeKey(roomTypeID, version, from, to))
	if !ok {
		return nil, ErrCacheMiss
	}

	entry := val.(memoryRangeEntry)
	if time.Now().After(entry.expiresAt) {
		r.ranges.Delete(rangeKey(roomTypeID, version, from, to))
		return nil, ErrCacheMiss
	}
	return entry.days, nil
}

func (r *MemoryAvailabilityCache) SetRange(ctx context.Context, roomTypeID, version int64, from, to time.Time, days []models.DayAvailability) error {
	if r.ttl <= 0 {
		return fmt.Errorf("memory cache ttl must be positive")
	}
	r.ranges.Store(rangeKey(roomTypeID, version, from, to), memoryRangeEntry{
		days:      days,
		expiresAt: time.Now().Add(r.ttl),
	})
	return nil
}
