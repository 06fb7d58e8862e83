package service

import (
	"context"

	"github.com/docflow/docflow-backend/internal/docflow/domain"
	"github.com/docflow/docflow-backend/internal/docflow/repository"
	"github.com/docflow/docflow-backend/pkg/logger"
)

// AuditService exposes the read side of the audit trail. Writing happens
// inside the workflow transactions, not here.
type AuditService struct {
	auditRepo *repository.AuditRepository
	logger    *logger.Logger
}

// NewAuditService creates a new audit service
func NewAuditService(auditRepo *repository.AuditRepository, log *logger.Logger) *AuditService {
	return &AuditService{
		auditRepo: auditRepo,
		logger:    log,
	}
}

// List lists audit entries with filters, newest first
func (s *AuditService) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, int64, error) {
	return s.auditRepo.List(ctx, filter)
}

// CountForDocument counts audit entries referencing a document
func (s *AuditService) CountForDocument(ctx context.Context, documentID string) (int64, error) {
	return s.auditRepo.CountForDocument(ctx, documentID)
}
