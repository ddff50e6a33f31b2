package service

import (
	"context"

	"stayhub/internal/domain"
	"stayhub/internal/models"

	"github.com/rs/zerolog"
)

// NotificationService persists user notifications and mirrors them to the
// push channel when one is configured. Both halves are best effort: booking
// flows never fail because a notification could not be written or delivered.
type NotificationService struct {
	repo     domain.Repository
	notifier domain.Notifier
	logger   *zerolog.Logger
}

func NewNotificationService(repo domain.Repository, notifier domain.Notifier, logger *zerolog.Logger) *NotificationService {
	return &NotificationService{
		repo:     repo,
		notifier: notifier,
		logger:   logger,
	}
}

func (s *NotificationService) Send(ctx context.Context, userID int64, message string) {
	n := &models.Notification{
		UserID:  userID,
		Message: message,
	}
	if err := s.repo.CreateNotification(ctx, n); err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to store notification")
	}

	if s.notifier == nil {
		return
	}
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to load user for push notification")
		return
	}
	s.notifier.Notify(ctx, user, message)
}

func (s *NotificationService) List(ctx context.Context, userID int64) ([]*models.Notification, error) {
	return s.repo.GetUserNotifications(ctx, userID)
}

func (s *NotificationService) MarkRead(ctx context.Context, id, userID int64) error {
	return s.repo.MarkNotificationRead(ctx, id, userID)
}
