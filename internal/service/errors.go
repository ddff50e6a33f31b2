package service

import (
	"errors"
	"fmt"
)

var (
	ErrNotAllowed      = errors.New("caller is not allowed to perform this operation")
	ErrInvalidRooms    = errors.New("rooms requested must be >= 1")
	ErrPastDate        = errors.New("check-in date is in the past")
	ErrDateTooFar      = errors.New("check-in date is too far in the future")
	ErrStayTooLong     = errors.New("stay exceeds the maximum allowed nights")
	ErrBookingNotOpen  = errors.New("booking is not in pending status")
	ErrNothingToCancel = errors.New("no items match the cancellation scope")
)

// CancelScope selects which booking items a cancellation applies to. Explicit
// variants keep the authorization and status-transition logic exhaustive.
type CancelScope string

const (
	ScopeAll         CancelScope = "all"
	ScopeHotelItems  CancelScope = "hotel"
	ScopeFlightItems CancelScope = "flight"
)

func ParseCancelScope(raw string) (CancelScope, error) {
	switch CancelScope(raw) {
	case ScopeAll, "":
		return ScopeAll, nil
	case ScopeHotelItems:
		return ScopeHotelItems, nil
	case ScopeFlightItems:
		return ScopeFlightItems, nil
	default:
		return "", fmt.Errorf("unknown cancellation scope %q", raw)
	}
}

// PartialCancelError reports a multi-reservation cancellation where some
// items were cancelled and others failed. Siblings are never aborted because
// of one failure; the caller gets the full picture for a retry.
type PartialCancelError struct {
	BookingID int64
	Cancelled []int64
	Failed    []int64
	LastErr   error
}

func (e *PartialCancelError) Error() string {
	return fmt.Sprintf("booking %d: cancelled reservations %v, failed %v: %v",
		e.BookingID, e.Cancelled, e.Failed, e.LastErr)
}

func (e *PartialCancelError) Unwrap() error { return e.LastErr }
