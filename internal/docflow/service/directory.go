package service

import (
	"context"

	"github.com/docflow/docflow-backend/internal/docflow/repository"
	"github.com/docflow/docflow-backend/pkg/actor"
	"github.com/docflow/docflow-backend/pkg/errors"
)

// Directory resolves users against the local cache synced from identity
// events. It is the only place the workflow looks users up.
type Directory struct {
	userRepo *repository.UserCacheRepository
}

// NewDirectory creates a new user directory
func NewDirectory(userRepo *repository.UserCacheRepository) *Directory {
	return &Directory{userRepo: userRepo}
}

// GetUser gets a cached user by ID
func (d *Directory) GetUser(ctx context.Context, userID string) (*actor.UserCache, error) {
	return d.userRepo.Get(ctx, userID)
}

// GetActiveUser gets a cached user and fails if they are deactivated
func (d *Directory) GetActiveUser(ctx context.Context, userID string) (*actor.UserCache, error) {
	user, err := d.userRepo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, errors.BadRequest("user is deactivated")
	}
	return user, nil
}

// IsInRole reports whether the user holds the given role
func (d *Directory) IsInRole(ctx context.Context, userID, roleName string) (bool, error) {
	user, err := d.userRepo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return user.IsActive && user.RoleName == roleName, nil
}

// UsersInRole lists active users holding the given role
func (d *Directory) UsersInRole(ctx context.Context, roleName string) ([]*actor.UserCache, error) {
	return d.userRepo.ListByRole(ctx, roleName)
}

// UserName returns a display name for the user, falling back to the ID when
// the cache has no entry yet.
func (d *Directory) UserName(ctx context.Context, userID string) string {
	user, err := d.userRepo.Get(ctx, userID)
	if err != nil {
		return userID
	}
	return user.FullName()
}
