package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/docflow/docflow-backend/internal/docflow/domain"
	"github.com/docflow/docflow-backend/internal/docflow/events"
	"github.com/docflow/docflow-backend/internal/docflow/repository"
	"github.com/docflow/docflow-backend/pkg/actor"
	"github.com/docflow/docflow-backend/pkg/database"
	"github.com/docflow/docflow-backend/pkg/errors"
	"github.com/docflow/docflow-backend/pkg/logger"
)

// ApprovalService is the workflow engine. Submit and Decide each run as one
// transaction with the document row locked, so concurrent calls against the
// same document serialize.
type ApprovalService struct {
	db               *database.DB
	documentRepo     *repository.DocumentRepository
	approvalRepo     *repository.ApprovalRepository
	accessRepo       *repository.AccessRepository
	notificationRepo *repository.NotificationRepository
	auditRepo        *repository.AuditRepository
	delegations      *DelegationService
	directory        *Directory
	publisher        *events.DocflowEventPublisher
	logger           *logger.Logger
}

// NewApprovalService creates a new approval service
func NewApprovalService(
	db *database.DB,
	documentRepo *repository.DocumentRepository,
	approvalRepo *repository.ApprovalRepository,
	accessRepo *repository.AccessRepository,
	notificationRepo *repository.NotificationRepository,
	auditRepo *repository.AuditRepository,
	delegations *DelegationService,
	directory *Directory,
	publisher *events.DocflowEventPublisher,
	log *logger.Logger,
) *ApprovalService {
	return &ApprovalService{
		db:               db,
		documentRepo:     documentRepo,
		approvalRepo:     approvalRepo,
		accessRepo:       accessRepo,
		notificationRepo: notificationRepo,
		auditRepo:        auditRepo,
		delegations:      delegations,
		directory:        directory,
		publisher:        publisher,
		logger:           log,
	}
}

// SubmitInput carries a submission round
type SubmitInput struct {
	DocumentID string
	Approvers  []domain.ApproverSpec
	Comment    *string
	DueDate    *time.Time
}

// Submit starts a new approval round: cancels any leftover requests from
// prior rounds, creates one request per approver, moves the document to
// Pending and notifies every approver. All-or-nothing.
func (s *ApprovalService) Submit(ctx context.Context, input SubmitInput) ([]*domain.ApprovalRequest, error) {
	act, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	if len(input.Approvers) == 0 {
		return nil, errors.BadRequest("at least one approver is required")
	}

	for _, spec := range input.Approvers {
		user, err := s.directory.GetActiveUser(ctx, spec.UserID)
		if err != nil {
			return nil, errors.BadRequest(fmt.Sprintf("approver %s is not available", spec.UserID))
		}
		if user.RoleName != string(spec.ApproverType) && spec.ApproverType != domain.ApproverTypeDeputy {
			return nil, errors.BadRequest(
				fmt.Sprintf("approver %s does not hold the %s role", spec.UserID, spec.ApproverType))
		}
	}

	var requests []*domain.ApprovalRequest
	var approverIDs []string
	err = s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		docRepo := s.documentRepo.WithTx(tx)
		reqRepo := s.approvalRepo.WithTx(tx)

		doc, err := docRepo.GetByIDForUpdate(ctx, input.DocumentID)
		if err != nil {
			return err
		}
		if doc.AuthorID != act.ID {
			return errors.Forbidden("only the author can submit a document for approval")
		}
		if !doc.CanBeSubmitted() {
			return errors.Conflict("document cannot be submitted in its current status")
		}

		blocked, err := s.accessRepo.WithTx(tx).HasActiveBlock(ctx, doc.ID, approvalGatingBlocks)
		if err != nil {
			return err
		}
		if blocked {
			return errors.Blocked("document is blocked and cannot be submitted")
		}

		if _, err := reqRepo.CancelActive(ctx, doc.ID); err != nil {
			return err
		}

		round, err := reqRepo.NextRound(ctx, doc.ID)
		if err != nil {
			return err
		}

		requests = nil
		approverIDs = nil
		for i, spec := range input.Approvers {
			req := &domain.ApprovalRequest{
				DocumentID:    doc.ID,
				ApproverID:    spec.UserID,
				RequesterID:   act.ID,
				Status:        domain.RequestStatusPending,
				ApproverType:  spec.ApproverType,
				Round:         round,
				ApprovalOrder: i + 1,
				IsRequired:    spec.IsRequired,
				CanBlock:      spec.CanBlock,
				DueDate:       input.DueDate,
			}
			if err := reqRepo.Create(ctx, req); err != nil {
				return database.MapPQError(err)
			}
			requests = append(requests, req)
			approverIDs = append(approverIDs, spec.UserID)
		}

		if err := docRepo.UpdateStatus(ctx, doc.ID,
			[]domain.DocumentStatus{domain.DocumentStatusDraft, domain.DocumentStatusRejected, domain.DocumentStatusRevision},
			domain.DocumentStatusPending); err != nil {
			return err
		}

		notifRepo := s.notificationRepo.WithTx(tx)
		for _, req := range requests {
			n := notification(req.ApproverID, domain.NotificationApprovalRequest,
				"Approval requested",
				fmt.Sprintf("%s requested your approval of %s (%s)", act.FullName(), doc.Title, doc.RegistrationNumber),
				&doc.ID)
			if err := notifRepo.Create(ctx, n); err != nil {
				return err
			}
		}

		entry := auditEntry(act, domain.AuditSubmit,
			fmt.Sprintf("submitted document %s for approval to %d approver(s)", doc.RegistrationNumber, len(requests)), &doc.ID)
		return s.auditRepo.WithTx(tx).Create(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.publisher.PublishApprovalSubmitted(ctx, input.DocumentID, act.ID, approverIDs)

	s.logger.Info().
		Str("document_id", input.DocumentID).
		Str("requester_id", act.ID).
		Int("approvers", len(requests)).
		Msg("document submitted for approval")

	return requests, nil
}

// DecideInput carries one approval decision
type DecideInput struct {
	Decision         domain.Decision
	Comment          *string
	SuggestedChanges *string
	DelegateToID     *string
	BlockReason      *string
}

// Decide applies one decision to an approval request. The whole effect is a
// single transaction; the second of two racing decisions gets a Conflict.
func (s *ApprovalService) Decide(ctx context.Context, requestID string, input DecideInput) (*domain.ApprovalRequest, error) {
	act, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}

	switch input.Decision {
	case domain.DecisionApprove, domain.DecisionReject, domain.DecisionRequestRevision,
		domain.DecisionDelegate, domain.DecisionSendToLegalReview, domain.DecisionBlock:
	default:
		return nil, errors.BadRequest(fmt.Sprintf("unknown decision %q", input.Decision))
	}
	if input.Decision == domain.DecisionReject && (input.Comment == nil || *input.Comment == "") {
		return nil, errors.Validation(map[string]string{"comment": "rejection requires a non-empty reason"})
	}
	if input.Decision == domain.DecisionDelegate && (input.DelegateToID == nil || *input.DelegateToID == "") {
		return nil, errors.Validation(map[string]string{"delegate_to_id": "delegation requires a delegate"})
	}
	if input.Decision == domain.DecisionBlock && (input.BlockReason == nil || *input.BlockReason == "") {
		return nil, errors.Validation(map[string]string{"block_reason": "blocking requires a reason"})
	}

	var completed bool
	var finalStatus domain.DocumentStatus
	var decided *domain.ApprovalRequest
	var doc *domain.Document

	err = s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		docRepo := s.documentRepo.WithTx(tx)
		reqRepo := s.approvalRepo.WithTx(tx)

		req, err := reqRepo.GetByID(ctx, requestID)
		if err != nil {
			return err
		}
		doc, err = docRepo.GetByIDForUpdate(ctx, req.DocumentID)
		if err != nil {
			return err
		}
		if !req.IsActionable() {
			return errors.Conflict("approval request has already been processed")
		}

		if err := s.authorizeDecider(ctx, act.ID, req); err != nil {
			return err
		}

		// Approve, reject and delegate consult the block ledger; placing a
		// block or escalating is allowed while one is active.
		switch input.Decision {
		case domain.DecisionApprove, domain.DecisionReject, domain.DecisionDelegate:
			blocked, err := s.accessRepo.WithTx(tx).HasActiveBlock(ctx, doc.ID, approvalGatingBlocks)
			if err != nil {
				return err
			}
			if blocked {
				return errors.Blocked("document is blocked for approval decisions")
			}
		}

		completed = false
		switch input.Decision {
		case domain.DecisionApprove:
			completed, err = s.applyApprove(ctx, tx, act, req, doc, input)
		case domain.DecisionReject:
			err = s.applyReject(ctx, tx, act, req, doc, input)
		case domain.DecisionRequestRevision:
			err = s.applyRevision(ctx, tx, act, req, doc, input)
		case domain.DecisionDelegate:
			err = s.applyDelegate(ctx, tx, act, req, doc, input)
		case domain.DecisionSendToLegalReview:
			err = s.applyLegalReview(ctx, tx, act, req, doc, input)
		case domain.DecisionBlock:
			err = s.applyBlock(ctx, tx, act, req, doc, input)
		}
		if err != nil {
			return err
		}

		decided, err = reqRepo.GetByID(ctx, requestID)
		if err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	switch input.Decision {
	case domain.DecisionDelegate:
		reason := ""
		if input.Comment != nil {
			reason = *input.Comment
		}
		s.publisher.PublishApprovalDelegated(ctx, decided, act.ID, *input.DelegateToID, reason)
	default:
		s.publisher.PublishApprovalDecision(ctx, decided, input.Decision, act.ID)
	}
	if completed {
		finalStatus = domain.DocumentStatusApproved
		s.publisher.PublishApprovalCompleted(ctx, doc.ID, finalStatus)
	}

	s.logger.Info().
		Str("request_id", requestID).
		Str("document_id", decided.DocumentID).
		Str("decision", string(input.Decision)).
		Str("acting_user_id", act.ID).
		Bool("round_completed", completed).
		Msg("approval decision applied")

	return decided, nil
}

// authorizeDecider checks the acting user is the nominal approver, the
// recorded delegate, or holds a standing decision delegation.
func (s *ApprovalService) authorizeDecider(ctx context.Context, actingUserID string, req *domain.ApprovalRequest) error {
	if actingUserID == req.ApproverID {
		return nil
	}
	if req.Status == domain.RequestStatusDelegated && req.DelegatedToID != nil && *req.DelegatedToID == actingUserID {
		return nil
	}

	ok, _, err := s.delegations.AuthorizeDecision(ctx, actingUserID, req.ApproverID, time.Now())
	if err != nil {
		return err
	}
	if !ok {
		return errors.Forbidden("not authorized to decide on this approval request")
	}
	return nil
}

func (s *ApprovalService) applyApprove(ctx context.Context, tx *sqlx.Tx, act *actor.Actor, req *domain.ApprovalRequest, doc *domain.Document, input DecideInput) (bool, error) {
	reqRepo := s.approvalRepo.WithTx(tx)

	if err := reqRepo.ApplyDecision(ctx, req.ID, domain.RequestStatusApproved, input.Comment, nil); err != nil {
		return false, err
	}

	// AND-join: the round completes when every required non-cancelled
	// request is approved. Optional approvers never gate completion.
	reqs, err := reqRepo.ListActiveByDocument(ctx, doc.ID)
	if err != nil {
		return false, err
	}
	completed := true
	for _, r := range reqs {
		if r.IsRequired && r.Status != domain.RequestStatusApproved {
			completed = false
			break
		}
	}

	if completed {
		if err := s.documentRepo.WithTx(tx).UpdateStatus(ctx, doc.ID,
			[]domain.DocumentStatus{domain.DocumentStatusPending, domain.DocumentStatusLegalReview},
			domain.DocumentStatusApproved); err != nil {
			return false, err
		}
		n := notification(doc.AuthorID, domain.NotificationDocumentApproved,
			"Document approved",
			fmt.Sprintf("%s (%s) has been approved", doc.Title, doc.RegistrationNumber),
			&doc.ID)
		if err := s.notificationRepo.WithTx(tx).Create(ctx, n); err != nil {
			return false, err
		}
	}

	entry := auditEntry(act, domain.AuditApprove,
		fmt.Sprintf("approved document %s", doc.RegistrationNumber), &doc.ID)
	if err := s.auditRepo.WithTx(tx).Create(ctx, entry); err != nil {
		return false, err
	}
	return completed, nil
}

func (s *ApprovalService) applyReject(ctx context.Context, tx *sqlx.Tx, act *actor.Actor, req *domain.ApprovalRequest, doc *domain.Document, input DecideInput) error {
	if err := s.approvalRepo.WithTx(tx).ApplyDecision(ctx, req.ID, domain.RequestStatusRejected, input.Comment, nil); err != nil {
		return err
	}

	// Short-circuit: one reject ends the round. Remaining Pending requests
	// stay Pending until a resubmission cancels them.
	if err := s.documentRepo.WithTx(tx).UpdateStatus(ctx, doc.ID,
		[]domain.DocumentStatus{domain.DocumentStatusPending, domain.DocumentStatusLegalReview},
		domain.DocumentStatusRejected); err != nil {
		return err
	}

	n := notification(doc.AuthorID, domain.NotificationDocumentRejected,
		"Document rejected",
		fmt.Sprintf("%s (%s) was rejected: %s", doc.Title, doc.RegistrationNumber, *input.Comment),
		&doc.ID)
	if err := s.notificationRepo.WithTx(tx).Create(ctx, n); err != nil {
		return err
	}

	entry := auditEntry(act, domain.AuditReject,
		fmt.Sprintf("rejected document %s: %s", doc.RegistrationNumber, *input.Comment), &doc.ID)
	return s.auditRepo.WithTx(tx).Create(ctx, entry)
}

func (s *ApprovalService) applyRevision(ctx context.Context, tx *sqlx.Tx, act *actor.Actor, req *domain.ApprovalRequest, doc *domain.Document, input DecideInput) error {
	reqRepo := s.approvalRepo.WithTx(tx)

	if err := reqRepo.ApplyDecision(ctx, req.ID, domain.RequestStatusRevision, input.Comment, input.SuggestedChanges); err != nil {
		return err
	}
	if _, err := reqRepo.CancelActive(ctx, doc.ID); err != nil {
		return err
	}

	if err := s.documentRepo.WithTx(tx).UpdateStatus(ctx, doc.ID,
		[]domain.DocumentStatus{domain.DocumentStatusPending, domain.DocumentStatusLegalReview},
		domain.DocumentStatusRevision); err != nil {
		return err
	}

	message := fmt.Sprintf("Revision of %s (%s) was requested", doc.Title, doc.RegistrationNumber)
	if input.SuggestedChanges != nil && *input.SuggestedChanges != "" {
		message += ": " + *input.SuggestedChanges
	}
	n := notification(doc.AuthorID, domain.NotificationRevisionRequested,
		"Revision requested", message, &doc.ID)
	if err := s.notificationRepo.WithTx(tx).Create(ctx, n); err != nil {
		return err
	}

	entry := auditEntry(act, domain.AuditRevision,
		fmt.Sprintf("requested revision of document %s", doc.RegistrationNumber), &doc.ID)
	return s.auditRepo.WithTx(tx).Create(ctx, entry)
}

func (s *ApprovalService) applyDelegate(ctx context.Context, tx *sqlx.Tx, act *actor.Actor, req *domain.ApprovalRequest, doc *domain.Document, input DecideInput) error {
	delegateID := *input.DelegateToID
	if delegateID == req.ApproverID || delegateID == act.ID {
		return errors.BadRequest("cannot delegate an approval request to yourself")
	}
	if _, err := s.directory.GetActiveUser(ctx, delegateID); err != nil {
		return err
	}

	if err := s.approvalRepo.WithTx(tx).Delegate(ctx, req.ID, delegateID, input.Comment); err != nil {
		return err
	}

	n := notification(delegateID, domain.NotificationDelegation,
		"Approval delegated to you",
		fmt.Sprintf("%s delegated the approval of %s (%s) to you", act.FullName(), doc.Title, doc.RegistrationNumber),
		&doc.ID)
	if err := s.notificationRepo.WithTx(tx).Create(ctx, n); err != nil {
		return err
	}

	entry := auditEntry(act, domain.AuditDelegate,
		fmt.Sprintf("delegated approval of document %s", doc.RegistrationNumber), &doc.ID)
	return s.auditRepo.WithTx(tx).Create(ctx, entry)
}

func (s *ApprovalService) applyLegalReview(ctx context.Context, tx *sqlx.Tx, act *actor.Actor, req *domain.ApprovalRequest, doc *domain.Document, input DecideInput) error {
	if err := s.approvalRepo.WithTx(tx).ApplyDecision(ctx, req.ID, domain.RequestStatusLegalReview, input.Comment, nil); err != nil {
		return err
	}

	if err := s.documentRepo.WithTx(tx).UpdateStatus(ctx, doc.ID,
		[]domain.DocumentStatus{domain.DocumentStatusPending},
		domain.DocumentStatusLegalReview); err != nil {
		return err
	}

	reason := "sent to legal review"
	if input.Comment != nil && *input.Comment != "" {
		reason = *input.Comment
	}
	block := &domain.DocumentBlock{
		DocumentID: doc.ID,
		BlockType:  domain.BlockTypeLegalReview,
		Reason:     reason,
		BlockedBy:  act.ID,
	}
	if err := s.accessRepo.WithTx(tx).CreateBlock(ctx, block); err != nil {
		return err
	}

	reviewers, err := s.directory.UsersInRole(ctx, "legal_department")
	if err != nil {
		return err
	}
	notifRepo := s.notificationRepo.WithTx(tx)
	for _, reviewer := range reviewers {
		n := notification(reviewer.UserID, domain.NotificationSystem,
			"Legal review requested",
			fmt.Sprintf("%s (%s) requires legal review", doc.Title, doc.RegistrationNumber),
			&doc.ID)
		if err := notifRepo.Create(ctx, n); err != nil {
			return err
		}
	}

	entry := auditEntry(act, domain.AuditLegalReview,
		fmt.Sprintf("sent document %s to legal review", doc.RegistrationNumber), &doc.ID)
	return s.auditRepo.WithTx(tx).Create(ctx, entry)
}

func (s *ApprovalService) applyBlock(ctx context.Context, tx *sqlx.Tx, act *actor.Actor, req *domain.ApprovalRequest, doc *domain.Document, input DecideInput) error {
	if !req.CanBlock {
		return errors.Forbidden("this approver is not allowed to block the document")
	}

	block := &domain.DocumentBlock{
		DocumentID: doc.ID,
		BlockType:  domain.BlockTypeApproval,
		Reason:     *input.BlockReason,
		BlockedBy:  act.ID,
	}
	if err := s.accessRepo.WithTx(tx).CreateBlock(ctx, block); err != nil {
		return err
	}

	// The document status is untouched; blocked is an overlay cleared by an
	// explicit unblock. The request parks in under_review meanwhile.
	if err := s.approvalRepo.WithTx(tx).MarkUnderReview(ctx, req.ID); err != nil {
		return err
	}

	n := notification(doc.AuthorID, domain.NotificationDocumentBlocked,
		"Document blocked",
		fmt.Sprintf("%s (%s) was blocked: %s", doc.Title, doc.RegistrationNumber, *input.BlockReason),
		&doc.ID)
	if err := s.notificationRepo.WithTx(tx).Create(ctx, n); err != nil {
		return err
	}

	entry := auditEntry(act, domain.AuditBlock,
		fmt.Sprintf("blocked document %s: %s", doc.RegistrationNumber, *input.BlockReason), &doc.ID)
	return s.auditRepo.WithTx(tx).Create(ctx, entry)
}

// GetRequest gets an approval request by ID
func (s *ApprovalService) GetRequest(ctx context.Context, id string) (*domain.ApprovalRequest, error) {
	return s.approvalRepo.GetByID(ctx, id)
}

// ListByDocument lists the current round's requests for a document
func (s *ApprovalService) ListByDocument(ctx context.Context, documentID string) ([]*domain.ApprovalRequest, error) {
	return s.approvalRepo.ListActiveByDocument(ctx, documentID)
}

// PendingForCaller lists the caller's actionable approval requests, including
// requests delegated to them.
func (s *ApprovalService) PendingForCaller(ctx context.Context) ([]*domain.ApprovalRequest, error) {
	act, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	return s.approvalRepo.ListPendingForApprover(ctx, act.ID)
}

// ApprovalSummary summarizes the caller's approval workload
type ApprovalSummary struct {
	Pending int64 `json:"pending"`
	Overdue int64 `json:"overdue"`
}

// SummaryForCaller returns pending and overdue counts for the caller
func (s *ApprovalService) SummaryForCaller(ctx context.Context) (*ApprovalSummary, error) {
	act, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}

	pending, err := s.approvalRepo.CountPendingForApprover(ctx, act.ID)
	if err != nil {
		return nil, err
	}
	overdue, err := s.approvalRepo.CountOverdueForApprover(ctx, act.ID, time.Now())
	if err != nil {
		return nil, err
	}
	return &ApprovalSummary{Pending: pending, Overdue: overdue}, nil
}
