package service

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/docflow/docflow-backend/internal/docflow/domain"
	"github.com/docflow/docflow-backend/internal/docflow/events"
	"github.com/docflow/docflow-backend/internal/docflow/repository"
	"github.com/docflow/docflow-backend/pkg/database"
	"github.com/docflow/docflow-backend/pkg/errors"
	"github.com/docflow/docflow-backend/pkg/logger"
)

// AccessService manages the access grant ledger and document blocks
type AccessService struct {
	db               *database.DB
	documentRepo     *repository.DocumentRepository
	accessRepo       *repository.AccessRepository
	notificationRepo *repository.NotificationRepository
	auditRepo        *repository.AuditRepository
	directory        *Directory
	publisher        *events.DocflowEventPublisher
	logger           *logger.Logger
}

// NewAccessService creates a new access service
func NewAccessService(
	db *database.DB,
	documentRepo *repository.DocumentRepository,
	accessRepo *repository.AccessRepository,
	notificationRepo *repository.NotificationRepository,
	auditRepo *repository.AuditRepository,
	directory *Directory,
	publisher *events.DocflowEventPublisher,
	log *logger.Logger,
) *AccessService {
	return &AccessService{
		db:               db,
		documentRepo:     documentRepo,
		accessRepo:       accessRepo,
		notificationRepo: notificationRepo,
		auditRepo:        auditRepo,
		directory:        directory,
		publisher:        publisher,
		logger:           log,
	}
}

// Grant grants (or refreshes) a user's access to a document. Author,
// document owner or administrator only.
func (s *AccessService) Grant(ctx context.Context, a *domain.DocumentAccess) error {
	act, err := requireActor(ctx)
	if err != nil {
		return err
	}

	doc, err := s.documentRepo.GetByID(ctx, a.DocumentID)
	if err != nil {
		return err
	}
	if !s.canManage(act.ID, act.RoleName, doc) {
		return errors.Forbidden("not allowed to manage access to this document")
	}
	if a.UserID == doc.AuthorID {
		return errors.BadRequest("the author already has full access")
	}
	if _, err := s.directory.GetActiveUser(ctx, a.UserID); err != nil {
		return err
	}
	a.GrantedBy = act.ID

	err = s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if err := s.accessRepo.WithTx(tx).Grant(ctx, a); err != nil {
			return database.MapPQError(err)
		}

		n := notification(a.UserID, domain.NotificationSystem,
			"Document access granted",
			fmt.Sprintf("You were granted %s access to %s (%s)", a.AccessLevel, doc.Title, doc.RegistrationNumber),
			&doc.ID)
		if err := s.notificationRepo.WithTx(tx).Create(ctx, n); err != nil {
			return err
		}

		entry := auditEntry(act, domain.AuditAccessGrant,
			fmt.Sprintf("granted %s access to document %s", a.AccessLevel, doc.RegistrationNumber), &doc.ID)
		return s.auditRepo.WithTx(tx).Create(ctx, entry)
	})
	if err != nil {
		return err
	}

	s.publisher.PublishAccessGranted(ctx, a)

	s.logger.Info().
		Str("document_id", a.DocumentID).
		Str("user_id", a.UserID).
		Str("access_level", string(a.AccessLevel)).
		Str("granted_by", act.ID).
		Msg("document access granted")

	return nil
}

// Revoke revokes a user's access grant on a document
func (s *AccessService) Revoke(ctx context.Context, documentID, userID string) error {
	act, err := requireActor(ctx)
	if err != nil {
		return err
	}

	doc, err := s.documentRepo.GetByID(ctx, documentID)
	if err != nil {
		return err
	}
	if !s.canManage(act.ID, act.RoleName, doc) {
		return errors.Forbidden("not allowed to manage access to this document")
	}

	grant, err := s.accessRepo.GetActiveGrant(ctx, documentID, userID)
	if err != nil {
		return err
	}
	if grant == nil {
		return errors.NotFound("access grant")
	}

	err = s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if err := s.accessRepo.WithTx(tx).Revoke(ctx, grant.ID); err != nil {
			return err
		}

		entry := auditEntry(act, domain.AuditAccessRevoke,
			fmt.Sprintf("revoked access to document %s", doc.RegistrationNumber), &doc.ID)
		return s.auditRepo.WithTx(tx).Create(ctx, entry)
	})
	if err != nil {
		return err
	}

	s.publisher.PublishAccessRevoked(ctx, grant, act.ID)

	s.logger.Info().
		Str("document_id", documentID).
		Str("user_id", userID).
		Str("revoked_by", act.ID).
		Msg("document access revoked")

	return nil
}

// ListForDocument lists all grants on a document
func (s *AccessService) ListForDocument(ctx context.Context, documentID string) ([]*domain.DocumentAccess, error) {
	return s.accessRepo.ListForDocument(ctx, documentID)
}

// ListForUser lists all grants held by a user
func (s *AccessService) ListForUser(ctx context.Context, userID string) ([]*domain.DocumentAccess, error) {
	return s.accessRepo.ListForUser(ctx, userID)
}

// Block places a hold on a document. The document status is untouched;
// blocked is an overlay the workflow consults.
func (s *AccessService) Block(ctx context.Context, b *domain.DocumentBlock) error {
	act, err := requireActor(ctx)
	if err != nil {
		return err
	}
	if b.Reason == "" {
		return errors.Validation(map[string]string{"reason": "blocking requires a reason"})
	}

	doc, err := s.documentRepo.GetByID(ctx, b.DocumentID)
	if err != nil {
		return err
	}
	if !s.canManage(act.ID, act.RoleName, doc) {
		return errors.Forbidden("no permission to block this document")
	}
	b.BlockedBy = act.ID

	err = s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if err := s.accessRepo.WithTx(tx).CreateBlock(ctx, b); err != nil {
			return database.MapPQError(err)
		}

		n := notification(doc.AuthorID, domain.NotificationDocumentBlocked,
			"Document blocked",
			fmt.Sprintf("%s (%s) was blocked: %s", doc.Title, doc.RegistrationNumber, b.Reason),
			&doc.ID)
		if err := s.notificationRepo.WithTx(tx).Create(ctx, n); err != nil {
			return err
		}

		entry := auditEntry(act, domain.AuditBlock,
			fmt.Sprintf("blocked document %s (%s): %s", doc.RegistrationNumber, b.BlockType, b.Reason), &doc.ID)
		return s.auditRepo.WithTx(tx).Create(ctx, entry)
	})
	if err != nil {
		return err
	}

	s.publisher.PublishBlockApplied(ctx, b)

	s.logger.Info().
		Str("document_id", b.DocumentID).
		Str("block_type", string(b.BlockType)).
		Str("blocked_by", act.ID).
		Msg("document blocked")

	return nil
}

// Unblock lifts a hold. Blocks never expire on their own; approval request
// state is untouched and the caller decides whether to resubmit.
func (s *AccessService) Unblock(ctx context.Context, blockID string, comment *string) error {
	act, err := requireActor(ctx)
	if err != nil {
		return err
	}

	block, err := s.accessRepo.GetBlockByID(ctx, blockID)
	if err != nil {
		return err
	}
	if block.BlockedBy != act.ID && act.RoleName != "administrator" {
		return errors.Forbidden("only the blocker or an administrator can lift a block")
	}

	doc, err := s.documentRepo.GetByID(ctx, block.DocumentID)
	if err != nil {
		return err
	}

	err = s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if err := s.accessRepo.WithTx(tx).Unblock(ctx, blockID, act.ID, comment); err != nil {
			return err
		}

		entry := auditEntry(act, domain.AuditUnblock,
			fmt.Sprintf("unblocked document %s", doc.RegistrationNumber), &doc.ID)
		return s.auditRepo.WithTx(tx).Create(ctx, entry)
	})
	if err != nil {
		return err
	}

	s.publisher.PublishBlockLifted(ctx, block, act.ID)

	s.logger.Info().
		Str("document_id", block.DocumentID).
		Str("block_id", blockID).
		Str("lifted_by", act.ID).
		Msg("document block lifted")

	return nil
}

// IsBlocked reports whether any active block exists on the document
func (s *AccessService) IsBlocked(ctx context.Context, documentID string) (bool, error) {
	blocks, err := s.accessRepo.ActiveBlocks(ctx, documentID)
	if err != nil {
		return false, err
	}
	return len(blocks) > 0, nil
}

// ActiveBlocks lists the active holds on a document
func (s *AccessService) ActiveBlocks(ctx context.Context, documentID string) ([]*domain.DocumentBlock, error) {
	return s.accessRepo.ActiveBlocks(ctx, documentID)
}

func (s *AccessService) canManage(userID, roleName string, doc *domain.Document) bool {
	if doc.AuthorID == userID {
		return true
	}
	if doc.OwnerID != nil && *doc.OwnerID == userID {
		return true
	}
	return roleName == "administrator"
}
