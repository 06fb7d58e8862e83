package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/docflow/docflow-backend/internal/docflow/domain"
)

func TestDelegationType_PermitsDecisions(t *testing.T) {
	tests := []struct {
		delegationType domain.DelegationType
		want           bool
	}{
		{domain.DelegationTypeFull, true},
		{domain.DelegationTypeApprovalOnly, true},
		{domain.DelegationTypeDepartmentSpecific, true},
		{domain.DelegationTypeViewOnly, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.delegationType), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.delegationType.PermitsDecisions())
		})
	}
}

func TestUserDelegation_IsCurrentlyActive(t *testing.T) {
	now := time.Now()

	t.Run("inside the window", func(t *testing.T) {
		d := &domain.UserDelegation{
			IsActive:  true,
			StartDate: now.Add(-time.Hour),
			EndDate:   now.Add(time.Hour),
		}
		assert.True(t, d.IsCurrentlyActive(now))
	})

	t.Run("window boundaries are inclusive", func(t *testing.T) {
		d := &domain.UserDelegation{
			IsActive:  true,
			StartDate: now,
			EndDate:   now,
		}
		assert.True(t, d.IsCurrentlyActive(now))
	})

	t.Run("before the window", func(t *testing.T) {
		d := &domain.UserDelegation{
			IsActive:  true,
			StartDate: now.Add(time.Hour),
			EndDate:   now.Add(2 * time.Hour),
		}
		assert.False(t, d.IsCurrentlyActive(now))
	})

	t.Run("after the window", func(t *testing.T) {
		d := &domain.UserDelegation{
			IsActive:  true,
			StartDate: now.Add(-2 * time.Hour),
			EndDate:   now.Add(-time.Hour),
		}
		assert.False(t, d.IsCurrentlyActive(now))
	})

	t.Run("revoked delegation is inactive inside the window", func(t *testing.T) {
		d := &domain.UserDelegation{
			IsActive:  false,
			StartDate: now.Add(-time.Hour),
			EndDate:   now.Add(time.Hour),
		}
		assert.False(t, d.IsCurrentlyActive(now))
	})
}
