package service

import (
	"context"

	"stayhub/internal/domain"
	"stayhub/internal/events"
	"stayhub/internal/metrics"
	"stayhub/internal/models"

	"github.com/rs/zerolog"
)

// RoomTypeService owns the room-type catalogue and its capacity lifecycle.
type RoomTypeService struct {
	repo         domain.Repository
	availability *AvailabilityService
	eventBus     domain.EventPublisher
	horizonDays  int
	logger       *zerolog.Logger
}

func NewRoomTypeService(repo domain.Repository, availability *AvailabilityService, eventBus domain.EventPublisher, horizonDays int, logger *zerolog.Logger) *RoomTypeService {
	if horizonDays <= 0 {
		horizonDays = models.CapacityHorizonDays
	}
	return &RoomTypeService{
		repo:         repo,
		availability: availability,
		eventBus:     eventBus,
		horizonDays:  horizonDays,
		logger:       logger,
	}
}

func (s *RoomTypeService) Create(ctx context.Context, callerID int64, rt *models.RoomType) error {
	hotel, err := s.repo.GetHotel(ctx, rt.HotelID)
	if err != nil {
		return err
	}
	if hotel.OwnerUserID != callerID {
		return ErrNotAllowed
	}
	return s.repo.CreateRoomType(ctx, rt)
}

func (s *RoomTypeService) Get(ctx context.Context, id int64) (*models.RoomType, error) {
	return s.repo.GetRoomType(ctx, id)
}

func (s *RoomTypeService) List(ctx context.Context) ([]*models.RoomType, error) {
	return s.repo.GetRoomTypes(ctx)
}

func (s *RoomTypeService) Delete(ctx context.Context, callerID, id int64) error {
	if err := s.authorize(ctx, callerID, id); err != nil {
		return err
	}
	if err := s.repo.DeleteRoomType(ctx, id); err != nil {
		return err
	}
	s.availability.InvalidateRoomType(ctx, id)
	return nil
}

// SetCapacity changes a room type's total capacity and recalculates the
// availability schedule over the configured horizon from confirmed usage.
// A decrease below what confirmed reservations already need on some night is
// rejected before anything is written.
func (s *RoomTypeService) SetCapacity(ctx context.Context, callerID, roomTypeID, newTotal int64) error {
	if newTotal < 0 {
		return ErrInvalidRooms
	}
	if err := s.authorize(ctx, callerID, roomTypeID); err != nil {
		return err
	}

	if err := s.repo.SetRoomTypeCapacity(ctx, roomTypeID, newTotal, s.horizonDays); err != nil {
		return err
	}

	s.availability.InvalidateRoomType(ctx, roomTypeID)
	metrics.IncCapacityRebuild()

	if s.eventBus != nil {
		payload := events.CapacityEventPayload{RoomTypeID: roomTypeID, TotalRooms: newTotal}
		if err := s.eventBus.PublishJSON(events.EventCapacityChanged, payload); err != nil {
			s.logger.Error().Err(err).Int64("room_type_id", roomTypeID).Msg("publish event error")
		}
	}

	s.logger.Info().
		Int64("room_type_id", roomTypeID).
		Int64("total_rooms", newTotal).
		Int("horizon_days", s.horizonDays).
		Msg("room type capacity changed")
	return nil
}

func (s *RoomTypeService) authorize(ctx context.Context, callerID, roomTypeID int64) error {
	ownerID, err := s.repo.GetHotelOwnerByRoomType(ctx, roomTypeID)
	if err != nil {
		return err
	}
	if ownerID != callerID {
		return ErrNotAllowed
	}
	return nil
}
