package database

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrAlreadyCancelled = errors.New("reservation is already cancelled")
	ErrRoomTypeInUse    = errors.New("room type has confirmed reservations")
)

// UnavailableError reports the exact nights that cannot take the requested
// room count. Callers surface the dates verbatim so a UI can highlight them.
type UnavailableError struct {
	RoomTypeID int64
	Dates      []time.Time
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("room type %d unavailable on %s", e.RoomTypeID, formatDates(e.Dates))
}

// CapacityConflictError rejects a capacity reduction that would break existing
// confirmed reservations. MaxRoomsNeeded is the minimum viable capacity.
type CapacityConflictError struct {
	RoomTypeID     int64
	Requested      int64
	MaxRoomsNeeded int64
}

func (e *CapacityConflictError) Error() string {
	return fmt.Sprintf("cannot set capacity of room type %d to %d: confirmed reservations need %d rooms",
		e.RoomTypeID, e.Requested, e.MaxRoomsNeeded)
}

// PartialReleaseError means a multi-night availability adjustment applied some
// nights and failed others. Both sets are reported for retry or manual
// reconciliation.
type PartialReleaseError struct {
	RoomTypeID int64
	Applied    []time.Time
	Failed     []time.Time
	LastErr    error
}

func (e *PartialReleaseError) Error() string {
	return fmt.Sprintf("availability adjustment for room type %d failed on %s (applied %s): %v",
		e.RoomTypeID, formatDates(e.Failed), formatDates(e.Applied), e.LastErr)
}

func (e *PartialReleaseError) Unwrap() error { return e.LastErr }

func formatDates(dates []time.Time) string {
	if len(dates) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(dates))
	for _, d := range dates {
		parts = append(parts, d.Format(dateLayout))
	}
	return strings.Join(parts, ",")
}
