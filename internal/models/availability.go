package models

import "time"

// AvailabilityRecord is the number of rooms of a room type still bookable on
// one calendar night. A missing record means full capacity; rows are created
// lazily on first write.
type AvailabilityRecord struct {
	RoomTypeID     int64     `json:"room_type_id"`
	Date           time.Time `json:"date"`
	AvailableRooms int64     `json:"available_rooms"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// DayAvailability is one gap-filled entry of an availability range response.
type DayAvailability struct {
	Date           time.Time `json:"date"`
	AvailableRooms int64     `json:"available_rooms"`
	TotalRooms     int64     `json:"total_rooms"`
}

// AvailabilityResult is the outcome of a range check. UnavailableDates lists
// the exact nights that cannot take the requested count.
type AvailabilityResult struct {
	Available        bool        `json:"available"`
	UnavailableDates []time.Time `json:"unavailable_dates,omitempty"`
}
