package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/docflow/docflow-backend/internal/docflow/domain"
	"github.com/docflow/docflow-backend/internal/docflow/events"
	"github.com/docflow/docflow-backend/internal/docflow/repository"
	"github.com/docflow/docflow-backend/pkg/database"
	"github.com/docflow/docflow-backend/pkg/errors"
	"github.com/docflow/docflow-backend/pkg/logger"
)

// DocumentService handles document lifecycle and visibility
type DocumentService struct {
	db           *database.DB
	documentRepo *repository.DocumentRepository
	versionRepo  *repository.VersionRepository
	approvalRepo *repository.ApprovalRepository
	accessRepo   *repository.AccessRepository
	auditRepo    *repository.AuditRepository
	delegations  *DelegationService
	publisher    *events.DocflowEventPublisher
	logger       *logger.Logger
}

// NewDocumentService creates a new document service
func NewDocumentService(
	db *database.DB,
	documentRepo *repository.DocumentRepository,
	versionRepo *repository.VersionRepository,
	approvalRepo *repository.ApprovalRepository,
	accessRepo *repository.AccessRepository,
	auditRepo *repository.AuditRepository,
	delegations *DelegationService,
	publisher *events.DocflowEventPublisher,
	log *logger.Logger,
) *DocumentService {
	return &DocumentService{
		db:           db,
		documentRepo: documentRepo,
		versionRepo:  versionRepo,
		approvalRepo: approvalRepo,
		accessRepo:   accessRepo,
		auditRepo:    auditRepo,
		delegations:  delegations,
		publisher:    publisher,
		logger:       log,
	}
}

// CreateDocumentInput carries the fields for document creation. File content
// is saved to the file store by the handler; only the digest travels here.
type CreateDocumentInput struct {
	Title               string
	Description         *string
	DocumentType        string
	Confidentiality     domain.ConfidentialityLevel
	RequiresLegalReview bool
	Content             *string
	FileDigest          *string
	FileName            *string
	FileSize            *int64
}

// Create creates a document in Draft with its first version and a generated
// registration number.
func (s *DocumentService) Create(ctx context.Context, input CreateDocumentInput) (*domain.Document, error) {
	act, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}

	if input.Confidentiality == "" {
		input.Confidentiality = domain.ConfidentialityInternal
	}

	doc := &domain.Document{
		Title:               input.Title,
		Description:         input.Description,
		DocumentType:        input.DocumentType,
		Status:              domain.DocumentStatusDraft,
		Confidentiality:     input.Confidentiality,
		RequiresLegalReview: input.RequiresLegalReview,
		CurrentVersion:      1,
		AuthorID:            act.ID,
	}

	err = s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		docRepo := s.documentRepo.WithTx(tx)

		year := time.Now().UTC().Year()
		count, err := docRepo.CountCreatedInYear(ctx, year)
		if err != nil {
			return err
		}
		doc.RegistrationNumber = fmt.Sprintf("DOC-%d-%05d", year, count+1)

		if err := docRepo.Create(ctx, doc); err != nil {
			return database.MapPQError(err)
		}

		version := &domain.DocumentVersion{
			DocumentID:    doc.ID,
			VersionNumber: 1,
			Content:       input.Content,
			FileDigest:    input.FileDigest,
			FileName:      input.FileName,
			FileSize:      input.FileSize,
			IsCurrent:     true,
			CreatedBy:     act.ID,
		}
		if err := s.versionRepo.WithTx(tx).Create(ctx, version); err != nil {
			return err
		}

		entry := auditEntry(act, domain.AuditDocumentCreate,
			fmt.Sprintf("created document %s (%s)", doc.RegistrationNumber, doc.Title), &doc.ID)
		return s.auditRepo.WithTx(tx).Create(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.publisher.PublishDocumentCreated(ctx, doc)

	s.logger.Info().
		Str("document_id", doc.ID).
		Str("registration_number", doc.RegistrationNumber).
		Str("author_id", act.ID).
		Msg("document created")

	return doc, nil
}

// Get gets a document the caller is allowed to see
func (s *DocumentService) Get(ctx context.Context, id string) (*domain.Document, error) {
	act, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}

	doc, err := s.documentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	allowed, err := s.CanAccess(ctx, doc, act.ID)
	if err != nil {
		return nil, err
	}
	if !allowed && act.RoleName != "administrator" {
		return nil, errors.Forbidden("no access to this document")
	}
	return doc, nil
}

// List lists documents visible to the caller. Administrators see everything.
func (s *DocumentService) List(ctx context.Context, filter domain.DocumentFilter) ([]*domain.Document, int64, error) {
	act, err := requireActor(ctx)
	if err != nil {
		return nil, 0, err
	}

	visibleTo := act.ID
	if act.RoleName == "administrator" {
		visibleTo = ""
	}
	return s.documentRepo.List(ctx, filter, visibleTo)
}

// UpdateDocumentInput carries the mutable metadata of a document
type UpdateDocumentInput struct {
	ID                  string
	Title               string
	Description         *string
	DocumentType        string
	Confidentiality     domain.ConfidentialityLevel
	RequiresLegalReview bool
	OwnerID             *string
}

// Update updates a document's metadata. Author-only, Draft-only.
func (s *DocumentService) Update(ctx context.Context, input UpdateDocumentInput) (*domain.Document, error) {
	act, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}

	var doc *domain.Document
	err = s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		docRepo := s.documentRepo.WithTx(tx)

		doc, err = docRepo.GetByIDForUpdate(ctx, input.ID)
		if err != nil {
			return err
		}
		if doc.AuthorID != act.ID {
			return errors.Forbidden("only the author can edit a document")
		}
		if !doc.IsEditable() {
			return errors.Conflict("only draft documents can be edited")
		}

		blocked, err := s.accessRepo.WithTx(tx).HasActiveBlock(ctx, doc.ID, editGatingBlocks)
		if err != nil {
			return err
		}
		if blocked {
			return errors.Blocked("document is blocked for editing")
		}

		oldTitle := doc.Title
		doc.Title = input.Title
		doc.Description = input.Description
		doc.DocumentType = input.DocumentType
		if input.Confidentiality != "" {
			doc.Confidentiality = input.Confidentiality
		}
		doc.RequiresLegalReview = input.RequiresLegalReview
		doc.OwnerID = input.OwnerID

		if err := docRepo.UpdateMeta(ctx, doc); err != nil {
			return err
		}

		entry := auditEntry(act, domain.AuditDocumentEdit,
			fmt.Sprintf("edited document %s", doc.RegistrationNumber), &doc.ID)
		entry.OldValues = jsonValues(map[string]any{"title": oldTitle})
		entry.NewValues = jsonValues(map[string]any{"title": doc.Title})
		return s.auditRepo.WithTx(tx).Create(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.publisher.PublishDocumentUpdated(ctx, doc.ID, act.ID, map[string]any{"title": doc.Title})

	s.logger.Info().
		Str("document_id", doc.ID).
		Str("user_id", act.ID).
		Msg("document updated")

	return doc, nil
}

// Delete hard-deletes a draft document. Author-only; anything past Draft is
// append-only and can only be archived.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	act, err := requireActor(ctx)
	if err != nil {
		return err
	}

	doc, err := s.documentRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if doc.AuthorID != act.ID {
		return errors.Forbidden("only the author can delete a document")
	}

	err = s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if err := s.documentRepo.WithTx(tx).Delete(ctx, id); err != nil {
			return err
		}

		// The document row is gone, so the entry keeps the reference in
		// entity_id instead of the nullable document FK.
		entry := auditEntry(act, domain.AuditDocumentDelete,
			fmt.Sprintf("deleted draft document %s (%s)", doc.RegistrationNumber, doc.Title), nil)
		entityName := "document"
		entry.EntityName = &entityName
		entry.EntityID = &doc.ID
		return s.auditRepo.WithTx(tx).Create(ctx, entry)
	})
	if err != nil {
		return err
	}

	s.publisher.PublishDocumentDeleted(ctx, id, act.ID)

	s.logger.Info().
		Str("document_id", id).
		Str("user_id", act.ID).
		Msg("document deleted")

	return nil
}

// Archive moves an approved document to Archived. Author or administrator.
func (s *DocumentService) Archive(ctx context.Context, id string) error {
	act, err := requireActor(ctx)
	if err != nil {
		return err
	}

	doc, err := s.documentRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if doc.AuthorID != act.ID && act.RoleName != "administrator" {
		return errors.Forbidden("not allowed to archive this document")
	}

	err = s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if err := s.documentRepo.WithTx(tx).UpdateStatus(ctx, id,
			[]domain.DocumentStatus{domain.DocumentStatusApproved}, domain.DocumentStatusArchived); err != nil {
			return err
		}

		entry := auditEntry(act, domain.AuditDocumentArchive,
			fmt.Sprintf("archived document %s", doc.RegistrationNumber), &doc.ID)
		return s.auditRepo.WithTx(tx).Create(ctx, entry)
	})
	if err != nil {
		return err
	}

	s.publisher.PublishDocumentArchived(ctx, id, act.ID)

	s.logger.Info().
		Str("document_id", id).
		Str("user_id", act.ID).
		Msg("document archived")

	return nil
}

// Statistics returns document counts by state, optionally scoped to an author
func (s *DocumentService) Statistics(ctx context.Context, authorID string) (*domain.DocumentStatistics, error) {
	return s.documentRepo.Statistics(ctx, authorID)
}

// CanAccess reports whether the user may view the document: authorship, an
// approval request on it, an active access grant, or a viewing delegation
// from the author.
func (s *DocumentService) CanAccess(ctx context.Context, doc *domain.Document, userID string) (bool, error) {
	if doc.AuthorID == userID {
		return true, nil
	}
	if doc.OwnerID != nil && *doc.OwnerID == userID {
		return true, nil
	}

	reqs, err := s.approvalRepo.ListActiveByDocument(ctx, doc.ID)
	if err != nil {
		return false, err
	}
	for _, r := range reqs {
		if r.ApproverID == userID || (r.DelegatedToID != nil && *r.DelegatedToID == userID) {
			return true, nil
		}
	}

	grant, err := s.accessRepo.GetActiveGrant(ctx, doc.ID, userID)
	if err != nil {
		return false, err
	}
	if grant != nil {
		return true, nil
	}

	return s.delegations.AuthorizeViewing(ctx, userID, doc.AuthorID, time.Now())
}

// CanDownload reports whether the user may download file content. Authors and
// approvers always can; grantees need the can_download flag.
func (s *DocumentService) CanDownload(ctx context.Context, doc *domain.Document, userID string) (bool, error) {
	if doc.AuthorID == userID {
		return true, nil
	}
	if doc.OwnerID != nil && *doc.OwnerID == userID {
		return true, nil
	}

	reqs, err := s.approvalRepo.ListActiveByDocument(ctx, doc.ID)
	if err != nil {
		return false, err
	}
	for _, r := range reqs {
		if r.ApproverID == userID || (r.DelegatedToID != nil && *r.DelegatedToID == userID) {
			return true, nil
		}
	}

	grant, err := s.accessRepo.GetActiveGrant(ctx, doc.ID, userID)
	if err != nil {
		return false, err
	}
	return grant != nil && grant.CanDownload, nil
}

// CanComment reports whether the user may comment on the document
func (s *DocumentService) CanComment(ctx context.Context, doc *domain.Document, userID string) (bool, error) {
	if doc.AuthorID == userID {
		return true, nil
	}
	if doc.OwnerID != nil && *doc.OwnerID == userID {
		return true, nil
	}

	reqs, err := s.approvalRepo.ListActiveByDocument(ctx, doc.ID)
	if err != nil {
		return false, err
	}
	for _, r := range reqs {
		if r.ApproverID == userID || (r.DelegatedToID != nil && *r.DelegatedToID == userID) {
			return true, nil
		}
	}

	grant, err := s.accessRepo.GetActiveGrant(ctx, doc.ID, userID)
	if err != nil {
		return false, err
	}
	return grant != nil && grant.AccessLevel.PermitsComments(), nil
}

func jsonValues(values map[string]any) *string {
	b, err := json.Marshal(values)
	if err != nil {
		return nil
	}
	s := string(b)
	return &s
}
