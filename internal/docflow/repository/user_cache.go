package repository

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/docflow/docflow-backend/pkg/actor"
	"github.com/docflow/docflow-backend/pkg/database"
	"github.com/docflow/docflow-backend/pkg/errors"
)

// UserCacheRepository holds the local read-only copy of identity-service
// users, kept in sync by the user event consumer.
type UserCacheRepository struct {
	db *database.DB
}

// NewUserCacheRepository creates a new user cache repository
func NewUserCacheRepository(db *database.DB) *UserCacheRepository {
	return &UserCacheRepository{db: db}
}

// Set creates or updates a cached user
func (r *UserCacheRepository) Set(ctx context.Context, user *actor.UserCache) error {
	query := `
		INSERT INTO user_cache (user_id, first_name, last_name, email, role_name, department, is_active, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (user_id)
		DO UPDATE SET
			first_name = $2, last_name = $3, email = $4, role_name = $5,
			department = $6, is_active = $7, updated_at = NOW()
	`
	_, err := r.db.ExecContext(ctx, query,
		user.UserID, user.FirstName, user.LastName, user.Email,
		user.RoleName, user.Department, user.IsActive,
	)
	return err
}

// Get gets a cached user by ID
func (r *UserCacheRepository) Get(ctx context.Context, userID string) (*actor.UserCache, error) {
	var user actor.UserCache
	query := `
		SELECT user_id, first_name, last_name, email, role_name, department, is_active
		FROM user_cache
		WHERE user_id = $1
	`
	err := r.db.GetContext(ctx, &user, query, userID)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("user")
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListByRole lists active cached users with the given role
func (r *UserCacheRepository) ListByRole(ctx context.Context, roleName string) ([]*actor.UserCache, error) {
	var users []*actor.UserCache
	query := `
		SELECT user_id, first_name, last_name, email, role_name, department, is_active
		FROM user_cache
		WHERE role_name = $1 AND is_active = true
		ORDER BY last_name, first_name
	`
	if err := r.db.SelectContext(ctx, &users, query, roleName); err != nil {
		return nil, err
	}
	return users, nil
}

// ListByDepartment lists active cached users in the given department
func (r *UserCacheRepository) ListByDepartment(ctx context.Context, department string) ([]*actor.UserCache, error) {
	var users []*actor.UserCache
	query := `
		SELECT user_id, first_name, last_name, email, role_name, department, is_active
		FROM user_cache
		WHERE department = $1 AND is_active = true
		ORDER BY last_name, first_name
	`
	if err := r.db.SelectContext(ctx, &users, query, department); err != nil {
		return nil, err
	}
	return users, nil
}

// Deactivate marks a cached user inactive when the identity service deletes them
func (r *UserCacheRepository) Deactivate(ctx context.Context, userID string) error {
	query := `UPDATE user_cache SET is_active = false, updated_at = NOW() WHERE user_id = $1`
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}

// UpdateFields applies a partial update from a user.updated event
func (r *UserCacheRepository) UpdateFields(ctx context.Context, userID string, fields map[string]any) error {
	allowed := map[string]string{
		"first_name": "first_name",
		"last_name":  "last_name",
		"email":      "email",
		"role_name":  "role_name",
		"department": "department",
	}

	set := ""
	args := []interface{}{userID}
	argNum := 2
	for key, value := range fields {
		col, ok := allowed[key]
		if !ok {
			continue
		}
		if set != "" {
			set += ", "
		}
		set += col + " = $" + strconv.Itoa(argNum)
		args = append(args, value)
		argNum++
	}
	if set == "" {
		return nil
	}

	query := "UPDATE user_cache SET " + set + ", updated_at = NOW() WHERE user_id = $1"
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}
