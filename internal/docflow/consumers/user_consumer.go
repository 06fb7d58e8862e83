package consumers

import (
	"context"

	"github.com/docflow/docflow-backend/internal/docflow/repository"
	"github.com/docflow/docflow-backend/pkg/actor"
	"github.com/docflow/docflow-backend/pkg/logger"
	"github.com/docflow/docflow-backend/pkg/messaging"
)

// UserEventConsumer keeps the local user directory cache in sync with the
// identity service.
type UserEventConsumer struct {
	consumer      *messaging.Consumer
	userCacheRepo *repository.UserCacheRepository
	logger        *logger.Logger
}

// NewUserEventConsumer creates a new user event consumer
func NewUserEventConsumer(
	rmq *messaging.RabbitMQ,
	userCacheRepo *repository.UserCacheRepository,
	log *logger.Logger,
) (*UserEventConsumer, error) {
	consumer, err := messaging.NewConsumer(rmq, "docflow-server.user-events", log)
	if err != nil {
		return nil, err
	}

	if err := consumer.Subscribe(messaging.ExchangeUserEvents, "user.#"); err != nil {
		return nil, err
	}

	c := &UserEventConsumer{
		consumer:      consumer,
		userCacheRepo: userCacheRepo,
		logger:        log,
	}

	consumer.RegisterHandler(messaging.EventUserCreated, c.handleUserCreated)
	consumer.RegisterHandler(messaging.EventUserUpdated, c.handleUserUpdated)
	consumer.RegisterHandler(messaging.EventUserDeleted, c.handleUserDeleted)
	consumer.RegisterHandler(messaging.EventUserRoleChanged, c.handleUserRoleChanged)

	return c, nil
}

// Start starts consuming messages
func (c *UserEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Start(ctx)
}

func (c *UserEventConsumer) handleUserCreated(ctx context.Context, event *messaging.Event) error {
	var data messaging.UserCreatedEvent
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}

	c.logger.Info().
		Str("user_id", data.UserID).
		Str("name", data.FullName()).
		Msg("received user created event")

	return c.userCacheRepo.Set(ctx, &actor.UserCache{
		UserID:     data.UserID,
		FirstName:  data.FirstName,
		LastName:   data.LastName,
		Email:      data.Email,
		RoleName:   data.RoleName,
		Department: data.Department,
		IsActive:   true,
	})
}

func (c *UserEventConsumer) handleUserUpdated(ctx context.Context, event *messaging.Event) error {
	var data messaging.UserUpdatedEvent
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}

	c.logger.Info().
		Str("user_id", data.UserID).
		Msg("received user updated event")

	// Unknown users are ignored; the cache is filled by created events.
	if _, err := c.userCacheRepo.Get(ctx, data.UserID); err != nil {
		return nil
	}

	return c.userCacheRepo.UpdateFields(ctx, data.UserID, data.Fields)
}

func (c *UserEventConsumer) handleUserDeleted(ctx context.Context, event *messaging.Event) error {
	var data messaging.UserDeletedEvent
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}

	c.logger.Info().
		Str("user_id", data.UserID).
		Msg("received user deleted event")

	// Deactivate instead of delete so past decisions keep their attribution.
	return c.userCacheRepo.Deactivate(ctx, data.UserID)
}

func (c *UserEventConsumer) handleUserRoleChanged(ctx context.Context, event *messaging.Event) error {
	var data messaging.UserRoleChangedEvent
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}

	c.logger.Info().
		Str("user_id", data.UserID).
		Str("old_role", data.OldRoleName).
		Str("new_role", data.NewRoleName).
		Msg("received user role changed event")

	return c.userCacheRepo.UpdateFields(ctx, data.UserID, map[string]any{
		"role_name": data.NewRoleName,
	})
}
