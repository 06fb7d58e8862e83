package service

import (
	"context"

	"github.com/docflow/docflow-backend/internal/docflow/domain"
	"github.com/docflow/docflow-backend/internal/docflow/events"
	"github.com/docflow/docflow-backend/internal/docflow/repository"
	"github.com/docflow/docflow-backend/pkg/logger"
)

// NotificationService handles the workflow inbox. The workflow services write
// their notifications inside their own transactions; this service covers
// standalone notifications and the read side.
type NotificationService struct {
	notificationRepo *repository.NotificationRepository
	publisher        *events.DocflowEventPublisher
	logger           *logger.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(
	notificationRepo *repository.NotificationRepository,
	publisher *events.DocflowEventPublisher,
	log *logger.Logger,
) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		publisher:        publisher,
		logger:           log,
	}
}

// Notify creates a notification and publishes the matching event
func (s *NotificationService) Notify(ctx context.Context, n *domain.Notification) error {
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		return err
	}

	s.publisher.PublishNotificationCreated(ctx, n)

	s.logger.Info().
		Str("notification_id", n.ID).
		Str("user_id", n.UserID).
		Str("kind", string(n.Kind)).
		Msg("notification created")

	return nil
}

// ListForUser lists a user's notifications, newest first
func (s *NotificationService) ListForUser(ctx context.Context, userID string, limit int) ([]*domain.Notification, error) {
	return s.notificationRepo.ListForUser(ctx, userID, limit)
}

// UnreadCount counts a user's unread notifications
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return s.notificationRepo.UnreadCount(ctx, userID)
}

// MarkRead marks one of the caller's notifications read
func (s *NotificationService) MarkRead(ctx context.Context, id string) error {
	act, err := requireActor(ctx)
	if err != nil {
		return err
	}
	return s.notificationRepo.MarkRead(ctx, id, act.ID)
}

// MarkAllRead marks all of the caller's notifications read
func (s *NotificationService) MarkAllRead(ctx context.Context) error {
	act, err := requireActor(ctx)
	if err != nil {
		return err
	}
	return s.notificationRepo.MarkAllRead(ctx, act.ID)
}
