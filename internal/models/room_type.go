package models

import "time"

// RoomType is a category of room within a hotel. TotalRooms is the capacity
// ceiling for any single night.
type RoomType struct {
	ID            int64     `yaml:"id" json:"id"`
	HotelID       int64     `yaml:"hotel_id" json:"hotel_id"`
	Name          string    `yaml:"name" json:"name"`
	PricePerNight float64   `yaml:"price_per_night" json:"price_per_night"`
	TotalRooms    int64     `yaml:"total_rooms" json:"total_rooms"`
	CreatedAt     time.Time `yaml:"created_at" json:"created_at"`
	UpdatedAt     time.Time `yaml:"updated_at" json:"updated_at"`
}
