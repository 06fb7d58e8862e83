package service

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/docflow/docflow-backend/internal/docflow/domain"
	"github.com/docflow/docflow-backend/internal/docflow/repository"
	"github.com/docflow/docflow-backend/pkg/database"
	"github.com/docflow/docflow-backend/pkg/errors"
	"github.com/docflow/docflow-backend/pkg/logger"
)

// CommentService handles threaded document comments
type CommentService struct {
	db               *database.DB
	commentRepo      *repository.CommentRepository
	notificationRepo *repository.NotificationRepository
	auditRepo        *repository.AuditRepository
	documents        *DocumentService
	logger           *logger.Logger
}

// NewCommentService creates a new comment service
func NewCommentService(
	db *database.DB,
	commentRepo *repository.CommentRepository,
	notificationRepo *repository.NotificationRepository,
	auditRepo *repository.AuditRepository,
	documents *DocumentService,
	log *logger.Logger,
) *CommentService {
	return &CommentService{
		db:               db,
		commentRepo:      commentRepo,
		notificationRepo: notificationRepo,
		auditRepo:        auditRepo,
		documents:        documents,
		logger:           log,
	}
}

// Create adds a comment to a document. Commenting requires authorship, an
// approver relation, or a grant that permits comments.
func (s *CommentService) Create(ctx context.Context, c *domain.Comment) error {
	act, err := requireActor(ctx)
	if err != nil {
		return err
	}
	c.AuthorID = act.ID

	doc, err := s.documents.documentRepo.GetByID(ctx, c.DocumentID)
	if err != nil {
		return err
	}
	allowed, err := s.documents.CanComment(ctx, doc, act.ID)
	if err != nil {
		return err
	}
	if !allowed && act.RoleName != "administrator" {
		return errors.Forbidden("no comment access to this document")
	}

	if c.ParentID != nil {
		parent, err := s.commentRepo.GetByID(ctx, *c.ParentID)
		if err != nil {
			return err
		}
		if parent.DocumentID != c.DocumentID {
			return errors.BadRequest("parent comment belongs to another document")
		}
	}

	err = s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if err := s.commentRepo.WithTx(tx).Create(ctx, c); err != nil {
			return err
		}

		if doc.AuthorID != act.ID {
			n := notification(doc.AuthorID, domain.NotificationComment,
				"New comment",
				fmt.Sprintf("%s commented on %s (%s)", act.FullName(), doc.Title, doc.RegistrationNumber),
				&doc.ID)
			if err := s.notificationRepo.WithTx(tx).Create(ctx, n); err != nil {
				return err
			}
		}

		entry := auditEntry(act, domain.AuditCommentAdd,
			fmt.Sprintf("commented on document %s", doc.RegistrationNumber), &doc.ID)
		return s.auditRepo.WithTx(tx).Create(ctx, entry)
	})
	if err != nil {
		return err
	}

	s.logger.Info().
		Str("comment_id", c.ID).
		Str("document_id", c.DocumentID).
		Str("author_id", act.ID).
		Msg("comment created")

	return nil
}

// ListByDocument lists a document's comments, oldest first
func (s *CommentService) ListByDocument(ctx context.Context, documentID string) ([]*domain.Comment, error) {
	if _, err := s.documents.Get(ctx, documentID); err != nil {
		return nil, err
	}
	return s.commentRepo.ListByDocument(ctx, documentID)
}

// Update edits one of the caller's comments
func (s *CommentService) Update(ctx context.Context, id, content string) error {
	act, err := requireActor(ctx)
	if err != nil {
		return err
	}

	c, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	err = s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if err := s.commentRepo.WithTx(tx).Update(ctx, id, act.ID, content); err != nil {
			return err
		}

		entry := auditEntry(act, domain.AuditCommentEdit, "edited a comment", &c.DocumentID)
		return s.auditRepo.WithTx(tx).Create(ctx, entry)
	})
	if err != nil {
		return err
	}

	s.logger.Info().
		Str("comment_id", id).
		Str("author_id", act.ID).
		Msg("comment updated")

	return nil
}

// Delete soft-deletes one of the caller's comments
func (s *CommentService) Delete(ctx context.Context, id string) error {
	act, err := requireActor(ctx)
	if err != nil {
		return err
	}

	c, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	err = s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if err := s.commentRepo.WithTx(tx).SoftDelete(ctx, id, act.ID); err != nil {
			return err
		}

		entry := auditEntry(act, domain.AuditCommentDelete, "deleted a comment", &c.DocumentID)
		return s.auditRepo.WithTx(tx).Create(ctx, entry)
	})
	if err != nil {
		return err
	}

	s.logger.Info().
		Str("comment_id", id).
		Str("author_id", act.ID).
		Msg("comment deleted")

	return nil
}
