package service

import (
	"context"
	"time"

	"github.com/docflow/docflow-backend/internal/docflow/domain"
	"github.com/docflow/docflow-backend/internal/docflow/events"
	"github.com/docflow/docflow-backend/internal/docflow/repository"
	"github.com/docflow/docflow-backend/pkg/errors"
	"github.com/docflow/docflow-backend/pkg/logger"
)

// DelegationService manages standing delegations and resolves whether a user
// may act on another user's behalf.
type DelegationService struct {
	delegationRepo *repository.DelegationRepository
	directory      *Directory
	publisher      *events.DocflowEventPublisher
	logger         *logger.Logger
}

// NewDelegationService creates a new delegation service
func NewDelegationService(
	delegationRepo *repository.DelegationRepository,
	directory *Directory,
	publisher *events.DocflowEventPublisher,
	log *logger.Logger,
) *DelegationService {
	return &DelegationService{
		delegationRepo: delegationRepo,
		directory:      directory,
		publisher:      publisher,
		logger:         log,
	}
}

// Create creates a delegation from the acting user to another user
func (s *DelegationService) Create(ctx context.Context, d *domain.UserDelegation) error {
	act, err := requireActor(ctx)
	if err != nil {
		return err
	}
	d.FromUserID = act.ID

	if d.ToUserID == d.FromUserID {
		return errors.BadRequest("cannot delegate to yourself")
	}
	if !d.EndDate.After(d.StartDate) {
		return errors.BadRequest("delegation end date must be after start date")
	}
	if d.EndDate.Before(time.Now()) {
		return errors.BadRequest("delegation end date is in the past")
	}
	if _, err := s.directory.GetActiveUser(ctx, d.ToUserID); err != nil {
		return err
	}

	if err := s.delegationRepo.Create(ctx, d); err != nil {
		return err
	}

	s.publisher.PublishDelegationCreated(ctx, d)

	s.logger.Info().
		Str("delegation_id", d.ID).
		Str("from_user_id", d.FromUserID).
		Str("to_user_id", d.ToUserID).
		Str("type", string(d.DelegationType)).
		Msg("delegation created")

	return nil
}

// GetByID gets a delegation by ID
func (s *DelegationService) GetByID(ctx context.Context, id string) (*domain.UserDelegation, error) {
	return s.delegationRepo.GetByID(ctx, id)
}

// ListForUser lists delegations where the user is delegator or delegate
func (s *DelegationService) ListForUser(ctx context.Context, userID string) ([]*domain.UserDelegation, error) {
	return s.delegationRepo.ListForUser(ctx, userID)
}

// Revoke deactivates a delegation. Only the delegator or an administrator
// may revoke.
func (s *DelegationService) Revoke(ctx context.Context, id string) error {
	act, err := requireActor(ctx)
	if err != nil {
		return err
	}

	d, err := s.delegationRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if d.FromUserID != act.ID && act.RoleName != "administrator" {
		return errors.Forbidden("only the delegator can revoke a delegation")
	}

	if err := s.delegationRepo.Revoke(ctx, id, act.ID); err != nil {
		return err
	}

	s.publisher.PublishDelegationRevoked(ctx, id, act.ID)

	s.logger.Info().
		Str("delegation_id", id).
		Str("revoked_by", act.ID).
		Msg("delegation revoked")

	return nil
}

// ResolveActingAuthority returns the delegations in force right now that let
// actingUserID make approval decisions for nominalApproverID, most recently
// created first. Department-specific delegations only count when delegate and
// delegator share a department.
func (s *DelegationService) ResolveActingAuthority(ctx context.Context, actingUserID, nominalApproverID string, now time.Time) ([]*domain.UserDelegation, error) {
	active, err := s.delegationRepo.ListActiveFromUser(ctx, nominalApproverID, now)
	if err != nil {
		return nil, err
	}

	var matched []*domain.UserDelegation
	for _, d := range active {
		if d.ToUserID != actingUserID || !d.DelegationType.PermitsDecisions() {
			continue
		}
		if d.DelegationType == domain.DelegationTypeDepartmentSpecific {
			shared, err := s.shareDepartment(ctx, d.FromUserID, d.ToUserID)
			if err != nil {
				return nil, err
			}
			if !shared {
				continue
			}
		}
		matched = append(matched, d)
	}
	return matched, nil
}

// AuthorizeDecision reports whether actingUserID may decide on behalf of
// nominalApproverID. Any active compatible delegation authorizes; the newest
// one is returned for attribution.
func (s *DelegationService) AuthorizeDecision(ctx context.Context, actingUserID, nominalApproverID string, now time.Time) (bool, *domain.UserDelegation, error) {
	if actingUserID == nominalApproverID {
		return true, nil, nil
	}

	matched, err := s.ResolveActingAuthority(ctx, actingUserID, nominalApproverID, now)
	if err != nil {
		return false, nil, err
	}
	if len(matched) == 0 {
		return false, nil, nil
	}
	return true, matched[0], nil
}

// AuthorizeViewing reports whether actingUserID may view on behalf of
// nominalUserID via any active delegation.
func (s *DelegationService) AuthorizeViewing(ctx context.Context, actingUserID, nominalUserID string, now time.Time) (bool, error) {
	if actingUserID == nominalUserID {
		return true, nil
	}

	active, err := s.delegationRepo.ListActiveFromUser(ctx, nominalUserID, now)
	if err != nil {
		return false, err
	}
	for _, d := range active {
		if d.ToUserID == actingUserID && d.DelegationType.PermitsViewing() {
			return true, nil
		}
	}
	return false, nil
}

func (s *DelegationService) shareDepartment(ctx context.Context, userA, userB string) (bool, error) {
	a, err := s.directory.GetUser(ctx, userA)
	if err != nil {
		return false, err
	}
	b, err := s.directory.GetUser(ctx, userB)
	if err != nil {
		return false, err
	}
	return a.Department != "" && a.Department == b.Department, nil
}
