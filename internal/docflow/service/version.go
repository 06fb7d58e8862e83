package service

import (
	"context"
	"fmt"
	"io"

	"github.com/jmoiron/sqlx"

	"github.com/docflow/docflow-backend/internal/docflow/domain"
	"github.com/docflow/docflow-backend/internal/docflow/events"
	"github.com/docflow/docflow-backend/internal/docflow/repository"
	"github.com/docflow/docflow-backend/pkg/database"
	"github.com/docflow/docflow-backend/pkg/errors"
	"github.com/docflow/docflow-backend/pkg/filestore"
	"github.com/docflow/docflow-backend/pkg/logger"
)

// VersionService handles document version history
type VersionService struct {
	db           *database.DB
	documentRepo *repository.DocumentRepository
	versionRepo  *repository.VersionRepository
	accessRepo   *repository.AccessRepository
	auditRepo    *repository.AuditRepository
	documents    *DocumentService
	store        *filestore.Store
	publisher    *events.DocflowEventPublisher
	logger       *logger.Logger
}

// NewVersionService creates a new version service
func NewVersionService(
	db *database.DB,
	documentRepo *repository.DocumentRepository,
	versionRepo *repository.VersionRepository,
	accessRepo *repository.AccessRepository,
	auditRepo *repository.AuditRepository,
	documents *DocumentService,
	store *filestore.Store,
	publisher *events.DocflowEventPublisher,
	log *logger.Logger,
) *VersionService {
	return &VersionService{
		db:           db,
		documentRepo: documentRepo,
		versionRepo:  versionRepo,
		accessRepo:   accessRepo,
		auditRepo:    auditRepo,
		documents:    documents,
		store:        store,
		publisher:    publisher,
		logger:       log,
	}
}

// UploadVersionInput carries the content for a new document version
type UploadVersionInput struct {
	DocumentID        string
	Content           *string
	FileDigest        *string
	FileName          *string
	FileSize          *int64
	ChangeDescription *string
}

// Upload creates the next version of a draft document. Author-only.
func (s *VersionService) Upload(ctx context.Context, input UploadVersionInput) (*domain.DocumentVersion, error) {
	act, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}

	var version *domain.DocumentVersion
	err = s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		docRepo := s.documentRepo.WithTx(tx)
		verRepo := s.versionRepo.WithTx(tx)

		doc, err := docRepo.GetByIDForUpdate(ctx, input.DocumentID)
		if err != nil {
			return err
		}
		if doc.AuthorID != act.ID {
			return errors.Forbidden("only the author can upload a new version")
		}
		if !doc.IsEditable() {
			return errors.Conflict("only draft documents accept new versions")
		}

		blocked, err := s.accessRepo.WithTx(tx).HasActiveBlock(ctx, doc.ID, editGatingBlocks)
		if err != nil {
			return err
		}
		if blocked {
			return errors.Blocked("document is blocked for editing")
		}

		newNumber, err := docRepo.IncrementVersion(ctx, doc.ID)
		if err != nil {
			return err
		}
		if err := verRepo.ClearCurrent(ctx, doc.ID); err != nil {
			return err
		}

		version = &domain.DocumentVersion{
			DocumentID:        doc.ID,
			VersionNumber:     newNumber,
			Content:           input.Content,
			FileDigest:        input.FileDigest,
			FileName:          input.FileName,
			FileSize:          input.FileSize,
			ChangeDescription: input.ChangeDescription,
			IsCurrent:         true,
			CreatedBy:         act.ID,
		}
		if err := verRepo.Create(ctx, version); err != nil {
			return err
		}

		entry := auditEntry(act, domain.AuditDocumentEdit,
			fmt.Sprintf("uploaded version %d of document %s", newNumber, doc.RegistrationNumber), &doc.ID)
		return s.auditRepo.WithTx(tx).Create(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.publisher.PublishVersionCreated(ctx, version)

	s.logger.Info().
		Str("document_id", version.DocumentID).
		Int("version_number", version.VersionNumber).
		Str("user_id", act.ID).
		Msg("document version uploaded")

	return version, nil
}

// ListByDocument lists a document's versions, newest first
func (s *VersionService) ListByDocument(ctx context.Context, documentID string) ([]*domain.DocumentVersion, error) {
	if _, err := s.documents.Get(ctx, documentID); err != nil {
		return nil, err
	}
	return s.versionRepo.ListByDocument(ctx, documentID)
}

// GetCurrent gets the current version of a document
func (s *VersionService) GetCurrent(ctx context.Context, documentID string) (*domain.DocumentVersion, error) {
	if _, err := s.documents.Get(ctx, documentID); err != nil {
		return nil, err
	}
	return s.versionRepo.GetCurrent(ctx, documentID)
}

// Restore copies an old version's content into a new version. Author-only,
// allowed while the document is Draft, Rejected or Revision. The restored
// version is never reactivated in place; history stays append-only.
func (s *VersionService) Restore(ctx context.Context, versionID string) (*domain.DocumentVersion, error) {
	act, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}

	var restored *domain.DocumentVersion
	var sourceID string
	err = s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		docRepo := s.documentRepo.WithTx(tx)
		verRepo := s.versionRepo.WithTx(tx)

		source, err := verRepo.GetByID(ctx, versionID)
		if err != nil {
			return err
		}
		sourceID = source.ID

		doc, err := docRepo.GetByIDForUpdate(ctx, source.DocumentID)
		if err != nil {
			return err
		}
		if doc.AuthorID != act.ID {
			return errors.Forbidden("only the author can restore a version")
		}
		if !doc.CanBeSubmitted() {
			return errors.Conflict("document is not in a status that allows restoring versions")
		}

		newNumber, err := docRepo.IncrementVersion(ctx, doc.ID)
		if err != nil {
			return err
		}
		if err := verRepo.ClearCurrent(ctx, doc.ID); err != nil {
			return err
		}

		description := fmt.Sprintf("restored from version %d", source.VersionNumber)
		restored = &domain.DocumentVersion{
			DocumentID:        doc.ID,
			VersionNumber:     newNumber,
			Content:           source.Content,
			FileDigest:        source.FileDigest,
			FileName:          source.FileName,
			FileSize:          source.FileSize,
			ChangeDescription: &description,
			IsCurrent:         true,
			CreatedBy:         act.ID,
		}
		if err := verRepo.Create(ctx, restored); err != nil {
			return err
		}

		entry := auditEntry(act, domain.AuditVersionRestore,
			fmt.Sprintf("restored version %d of document %s as version %d",
				source.VersionNumber, doc.RegistrationNumber, newNumber), &doc.ID)
		return s.auditRepo.WithTx(tx).Create(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.publisher.PublishVersionRestored(ctx, restored, sourceID, act.ID)

	s.logger.Info().
		Str("document_id", restored.DocumentID).
		Str("restored_from", sourceID).
		Int("version_number", restored.VersionNumber).
		Msg("document version restored")

	return restored, nil
}

// Download returns the version metadata and a reader over its file content.
// Grantees need a can_download grant; authors and approvers always may.
func (s *VersionService) Download(ctx context.Context, versionID string) (*domain.DocumentVersion, io.ReadCloser, error) {
	act, err := requireActor(ctx)
	if err != nil {
		return nil, nil, err
	}

	version, err := s.versionRepo.GetByID(ctx, versionID)
	if err != nil {
		return nil, nil, err
	}
	doc, err := s.documentRepo.GetByID(ctx, version.DocumentID)
	if err != nil {
		return nil, nil, err
	}

	allowed, err := s.documents.CanDownload(ctx, doc, act.ID)
	if err != nil {
		return nil, nil, err
	}
	if !allowed && act.RoleName != "administrator" {
		return nil, nil, errors.Forbidden("no download access to this document")
	}
	if version.FileDigest == nil {
		return nil, nil, errors.NotFound("file content")
	}

	content, err := s.store.Open(*version.FileDigest)
	if err != nil {
		return nil, nil, err
	}

	entry := auditEntry(act, domain.AuditVersionDownload,
		fmt.Sprintf("downloaded version %d of document %s", version.VersionNumber, doc.RegistrationNumber), &doc.ID)
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		s.logger.Error().Err(err).Str("document_id", doc.ID).Msg("failed to write download audit entry")
	}

	return version, content, nil
}
