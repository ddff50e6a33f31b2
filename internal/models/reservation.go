package models

import "time"

// Reservation is one guest's hold on rooms of a room type for a contiguous
// range of nights [CheckIn, CheckOut).
type Reservation struct {
	ID          int64     `json:"id"`
	BookingID   int64     `json:"booking_id"`
	RoomTypeID  int64     `json:"room_type_id"`
	CheckIn     time.Time `json:"check_in"`
	CheckOut    time.Time `json:"check_out"`
	RoomsBooked int64     `json:"rooms_booked"`
	Status      string    `json:"status"` // pending, confirmed, cancelled
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Nights returns the stay length in nights.
func (r *Reservation) Nights() int {
	return int(r.CheckOut.Sub(r.CheckIn).Hours() / 24)
}
