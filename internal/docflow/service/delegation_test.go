package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docflow/docflow-backend/internal/docflow/domain"
	"github.com/docflow/docflow-backend/pkg/errors"
	"github.com/docflow/docflow-backend/pkg/messaging"
	"github.com/docflow/docflow-backend/pkg/testutil"
)

func TestDelegationCreate_Validation(t *testing.T) {
	e := newEnv(t)

	delegator := e.seedUser(t)
	deputy := e.seedUser(t)
	inactive := e.seedUser(t, testutil.Inactive())

	now := time.Now()

	t.Run("cannot delegate to yourself", func(t *testing.T) {
		err := e.Delegations.Create(testutil.ActorContext(delegator), &domain.UserDelegation{
			ToUserID:       delegator.UserID,
			DelegationType: domain.DelegationTypeFull,
			StartDate:      now,
			EndDate:        now.Add(24 * time.Hour),
		})
		assert.True(t, errors.Is(err, errors.ErrBadRequest))
	})

	t.Run("end date must follow start date", func(t *testing.T) {
		err := e.Delegations.Create(testutil.ActorContext(delegator), &domain.UserDelegation{
			ToUserID:       deputy.UserID,
			DelegationType: domain.DelegationTypeFull,
			StartDate:      now.Add(24 * time.Hour),
			EndDate:        now,
		})
		assert.True(t, errors.Is(err, errors.ErrBadRequest))
	})

	t.Run("cannot delegate to a deactivated user", func(t *testing.T) {
		err := e.Delegations.Create(testutil.ActorContext(delegator), &domain.UserDelegation{
			ToUserID:       inactive.UserID,
			DelegationType: domain.DelegationTypeFull,
			StartDate:      now,
			EndDate:        now.Add(24 * time.Hour),
		})
		assert.True(t, errors.Is(err, errors.ErrBadRequest))
	})

	t.Run("a valid delegation is created for the acting user", func(t *testing.T) {
		d := &domain.UserDelegation{
			ToUserID:       deputy.UserID,
			DelegationType: domain.DelegationTypeApprovalOnly,
			StartDate:      now,
			EndDate:        now.Add(24 * time.Hour),
		}
		require.NoError(t, e.Delegations.Create(testutil.ActorContext(delegator), d))
		assert.Equal(t, delegator.UserID, d.FromUserID)
		assert.True(t, d.IsActive)

		e.Published.AssertEventPublished(t, messaging.EventDelegationCreated)
	})
}

func TestDelegationRevoke_DelegatorOnly(t *testing.T) {
	e := newEnv(t)

	delegator := e.seedUser(t)
	deputy := e.seedUser(t)
	admin := e.seedUser(t, testutil.WithRole("administrator"))

	d := suite.Fixtures.Delegation(delegator.UserID, deputy.UserID)
	require.NoError(t, e.DelegationRepo.Create(context.Background(), d))

	t.Run("the deputy cannot revoke", func(t *testing.T) {
		err := e.Delegations.Revoke(testutil.ActorContext(deputy), d.ID)
		assert.True(t, errors.Is(err, errors.ErrForbidden))
	})

	t.Run("an administrator can revoke", func(t *testing.T) {
		require.NoError(t, e.Delegations.Revoke(testutil.ActorContext(admin), d.ID))

		revoked, err := e.Delegations.GetByID(context.Background(), d.ID)
		require.NoError(t, err)
		assert.False(t, revoked.IsActive)
		require.NotNil(t, revoked.RevokedBy)
		assert.Equal(t, admin.UserID, *revoked.RevokedBy)
	})
}

func TestAuthorizeDecision(t *testing.T) {
	e := newEnv(t)

	approver := e.seedUser(t, testutil.WithDepartment("finance"))
	deputy := e.seedUser(t, testutil.WithDepartment("finance"))
	outsider := e.seedUser(t, testutil.WithDepartment("sales"))

	now := time.Now()
	ctx := context.Background()

	t.Run("acting for yourself needs no delegation", func(t *testing.T) {
		ok, via, err := e.Delegations.AuthorizeDecision(ctx, approver.UserID, approver.UserID, now)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Nil(t, via)
	})

	t.Run("view-only delegations never authorize decisions", func(t *testing.T) {
		viewOnly := suite.Fixtures.Delegation(approver.UserID, outsider.UserID,
			testutil.WithDelegationType(domain.DelegationTypeViewOnly))
		require.NoError(t, e.DelegationRepo.Create(ctx, viewOnly))

		ok, _, err := e.Delegations.AuthorizeDecision(ctx, outsider.UserID, approver.UserID, now)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("department-specific requires a shared department", func(t *testing.T) {
		crossDept := suite.Fixtures.Delegation(approver.UserID, outsider.UserID,
			testutil.WithDelegationType(domain.DelegationTypeDepartmentSpecific))
		require.NoError(t, e.DelegationRepo.Create(ctx, crossDept))

		ok, _, err := e.Delegations.AuthorizeDecision(ctx, outsider.UserID, approver.UserID, now)
		require.NoError(t, err)
		assert.False(t, ok)

		sameDept := suite.Fixtures.Delegation(approver.UserID, deputy.UserID,
			testutil.WithDelegationType(domain.DelegationTypeDepartmentSpecific))
		require.NoError(t, e.DelegationRepo.Create(ctx, sameDept))

		ok, via, err := e.Delegations.AuthorizeDecision(ctx, deputy.UserID, approver.UserID, now)
		require.NoError(t, err)
		assert.True(t, ok)
		require.NotNil(t, via)
		assert.Equal(t, sameDept.ID, via.ID)
	})

	t.Run("the newest overlapping delegation wins attribution", func(t *testing.T) {
		older := suite.Fixtures.Delegation(outsider.UserID, deputy.UserID)
		require.NoError(t, e.DelegationRepo.Create(ctx, older))
		newer := suite.Fixtures.Delegation(outsider.UserID, deputy.UserID,
			testutil.WithDelegationType(domain.DelegationTypeApprovalOnly))
		require.NoError(t, e.DelegationRepo.Create(ctx, newer))

		ok, via, err := e.Delegations.AuthorizeDecision(ctx, deputy.UserID, outsider.UserID, now)
		require.NoError(t, err)
		assert.True(t, ok)
		require.NotNil(t, via)
		assert.Equal(t, newer.ID, via.ID)
	})
}
