package service

import (
	"context"
	"fmt"
	"time"

	"stayhub/internal/domain"
	"stayhub/internal/models"
	"stayhub/internal/stay"

	"github.com/rs/zerolog"
)

// OccupancyRow is one (room type, night) cell of the occupancy report.
type OccupancyRow struct {
	Date           time.Time `json:"date"`
	HotelName      string    `json:"hotel_name"`
	RoomTypeID     int64     `json:"room_type_id"`
	RoomTypeName   string    `json:"room_type_name"`
	TotalRooms     int64     `json:"total_rooms"`
	AvailableRooms int64     `json:"available_rooms"`
	OccupiedRooms  int64     `json:"occupied_rooms"`
}

type OccupancyReport struct {
	From        time.Time      `json:"from"`
	To          time.Time      `json:"to"`
	GeneratedAt time.Time      `json:"generated_at"`
	Rows        []OccupancyRow `json:"rows"`
}

// ReportService builds the occupancy schedule consumed by the HTTP report
// endpoint, the Excel export and the Sheets sync worker.
type ReportService struct {
	repo         domain.Repository
	availability *AvailabilityService
	windowDays   int
	logger       *zerolog.Logger
}

func NewReportService(repo domain.Repository, availability *AvailabilityService, windowDays int, logger *zerolog.Logger) *ReportService {
	if windowDays <= 0 {
		windowDays = models.DefaultOccupancyReportDays
	}
	return &ReportService{
		repo:         repo,
		availability: availability,
		windowDays:   windowDays,
		logger:       logger,
	}
}

// BuildOccupancy assembles the gap-filled occupancy of every room type over
// [today, today+windowDays).
func (s *ReportService) BuildOccupancy(ctx context.Context) (*OccupancyReport, error) {
	from := stay.Normalize(time.Now())
	to := from.AddDate(0, 0, s.windowDays)

	roomTypes, err := s.repo.GetRoomTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list room types: %w", err)
	}

	report := &OccupancyReport{
		From:        from,
		To:          to,
		GeneratedAt: time.Now(),
	}

	hotelNames := make(map[int64]string)
	for _, rt := range roomTypes {
		hotelName, ok := hotelNames[rt.HotelID]
		if !ok {
			hotel, err := s.repo.GetHotel(ctx, rt.HotelID)
			if err != nil {
				return nil, fmt.Errorf("failed to load hotel %d: %w", rt.HotelID, err)
			}
			hotelName = hotel.Name
			hotelNames[rt.HotelID] = hotelName
		}

		days, err := s.availability.GetRange(ctx, rt.ID, from, to)
		if err != nil {
			return nil, fmt.Errorf("failed to load availability for room type %d: %w", rt.ID, err)
		}

		for _, day := range days {
			report.Rows = append(report.Rows, OccupancyRow{
				Date:           day.Date,
				HotelName:      hotelName,
				RoomTypeID:     rt.ID,
				RoomTypeName:   rt.Name,
				TotalRooms:     day.TotalRooms,
				AvailableRooms: day.AvailableRooms,
				OccupiedRooms:  day.TotalRooms - day.AvailableRooms,
			})
		}
	}

	return report, nil
}
