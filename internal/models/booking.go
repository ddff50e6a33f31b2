package models

import "time"

// Booking is the order-level aggregate grouping hotel reservations and flight
// legs. It is the unit of checkout and of top-level cancellation.
type Booking struct {
	ID         int64     `json:"id"`
	Reference  string    `json:"reference"`
	UserID     int64     `json:"user_id"`
	Status     string    `json:"status"` // pending, confirmed, cancelled
	TotalPrice float64   `json:"total_price"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// FlightSegment is an opaque external flight leg attached to a booking. The
// flight inventory itself lives outside this system; only the status is owned
// here so scoped cancellation can flip it.
type FlightSegment struct {
	ID           int64     `json:"id"`
	BookingID    int64     `json:"booking_id"`
	FlightNumber string    `json:"flight_number"`
	DepartDate   time.Time `json:"depart_date"`
	Price        float64   `json:"price"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}
