// Package stay holds the canonical date-range arithmetic for hotel stays.
// Every caller (check, reserve, release, rebuild) must use the same half-open
// expansion [checkIn, checkOut) so that reserve and release always touch the
// same set of nights.
package stay

import (
	"errors"
	"time"
)

var ErrInvalidRange = errors.New("check-out must be after check-in")

// Normalize strips the time-of-day component, leaving midnight UTC.
func Normalize(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Nights expands a stay into the ordered nights the guest occupies a room:
// [checkIn, checkIn+1, ..., checkOut-1]. The check-out date itself is excluded,
// the guest departs that morning.
func Nights(checkIn, checkOut time.Time) ([]time.Time, error) {
	in := Normalize(checkIn)
	out := Normalize(checkOut)
	if !out.After(in) {
		return nil, ErrInvalidRange
	}

	nights := make([]time.Time, 0, out.Sub(in)/(24*time.Hour))
	for d := in; d.Before(out); d = d.AddDate(0, 0, 1) {
		nights = append(nights, d)
	}
	return nights, nil
}

// NightCount returns the stay length in nights without allocating the slice.
func NightCount(checkIn, checkOut time.Time) (int, error) {
	in := Normalize(checkIn)
	out := Normalize(checkOut)
	if !out.After(in) {
		return 0, ErrInvalidRange
	}
	return int(out.Sub(in) / (24 * time.Hour)), nil
}
