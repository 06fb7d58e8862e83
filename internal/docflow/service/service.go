package service

import (
	"context"

	"github.com/docflow/docflow-backend/internal/docflow/domain"
	"github.com/docflow/docflow-backend/pkg/actor"
	"github.com/docflow/docflow-backend/pkg/errors"
)

// Block types that gate the approval path and the edit path respectively.
var (
	approvalGatingBlocks = []domain.BlockType{
		domain.BlockTypeApproval,
		domain.BlockTypeFull,
		domain.BlockTypeLegalReview,
		domain.BlockTypeComplianceReview,
	}
	editGatingBlocks = []domain.BlockType{
		domain.BlockTypeEdit,
		domain.BlockTypeFull,
	}
)

// requireActor returns the acting user from the context or an auth error
func requireActor(ctx context.Context) (*actor.Actor, error) {
	act := actor.FromContext(ctx)
	if act == nil {
		return nil, errors.Unauthorized("authentication required")
	}
	return act, nil
}

// auditEntry builds an audit log entry attributed to the acting user
func auditEntry(act *actor.Actor, action, description string, documentID *string) *domain.AuditLog {
	userID := act.ID
	return &domain.AuditLog{
		UserID:      &userID,
		UserName:    act.FullName(),
		Action:      action,
		Description: description,
		DocumentID:  documentID,
	}
}

// notification builds a workflow inbox entry
func notification(userID string, kind domain.NotificationKind, title, message string, documentID *string) *domain.Notification {
	return &domain.Notification{
		UserID:     userID,
		Kind:       kind,
		Title:      title,
		Message:    message,
		DocumentID: documentID,
	}
}
