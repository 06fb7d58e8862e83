package events

import (
	"context"

	"github.com/docflow/docflow-backend/internal/docflow/domain"
	"github.com/docflow/docflow-backend/pkg/logger"
	"github.com/docflow/docflow-backend/pkg/messaging"
)

// Publisher is the transport events are emitted through.
// *messaging.Publisher implements it against RabbitMQ.
type Publisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// DocflowEventPublisher publishes document workflow events
type DocflowEventPublisher struct {
	publisher Publisher
	logger    *logger.Logger
}

// NewDocflowEventPublisher creates a new docflow event publisher
func NewDocflowEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*DocflowEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeDocflowEvents, "docflow-server", log)
	if err != nil {
		return nil, err
	}

	return &DocflowEventPublisher{
		publisher: publisher,
		logger:    log,
	}, nil
}

// NewDocflowEventPublisherWith wraps an existing transport
func NewDocflowEventPublisherWith(pub Publisher, log *logger.Logger) *DocflowEventPublisher {
	return &DocflowEventPublisher{
		publisher: pub,
		logger:    log,
	}
}

// PublishDocumentCreated publishes a document created event
func (p *DocflowEventPublisher) PublishDocumentCreated(ctx context.Context, doc *domain.Document) {
	data := messaging.DocumentCreatedEvent{
		DocumentID:         doc.ID,
		RegistrationNumber: doc.RegistrationNumber,
		Title:              doc.Title,
		DocumentType:       doc.DocumentType,
		AuthorID:           doc.AuthorID,
	}

	if err := p.publisher.Publish(ctx, messaging.EventDocumentCreated, data); err != nil {
		p.logger.Error().Err(err).Str("document_id", doc.ID).Msg("failed to publish document created event")
	}
}

// PublishDocumentUpdated publishes a document updated event
func (p *DocflowEventPublisher) PublishDocumentUpdated(ctx context.Context, documentID, updatedBy string, fields map[string]any) {
	data := messaging.DocumentUpdatedEvent{
		DocumentID: documentID,
		Fields:     fields,
		UpdatedBy:  updatedBy,
	}

	if err := p.publisher.Publish(ctx, messaging.EventDocumentUpdated, data); err != nil {
		p.logger.Error().Err(err).Str("document_id", documentID).Msg("failed to publish document updated event")
	}
}

// PublishDocumentDeleted publishes a document deleted event
func (p *DocflowEventPublisher) PublishDocumentDeleted(ctx context.Context, documentID, deletedBy string) {
	data := messaging.DocumentDeletedEvent{
		DocumentID: documentID,
		DeletedBy:  deletedBy,
	}

	if err := p.publisher.Publish(ctx, messaging.EventDocumentDeleted, data); err != nil {
		p.logger.Error().Err(err).Str("document_id", documentID).Msg("failed to publish document deleted event")
	}
}

// PublishDocumentArchived publishes a document archived event
func (p *DocflowEventPublisher) PublishDocumentArchived(ctx context.Context, documentID, archivedBy string) {
	data := messaging.DocumentArchivedEvent{
		DocumentID: documentID,
		ArchivedBy: archivedBy,
	}

	if err := p.publisher.Publish(ctx, messaging.EventDocumentArchived, data); err != nil {
		p.logger.Error().Err(err).Str("document_id", documentID).Msg("failed to publish document archived event")
	}
}

// PublishVersionCreated publishes a version created event
func (p *DocflowEventPublisher) PublishVersionCreated(ctx context.Context, v *domain.DocumentVersion) {
	data := messaging.VersionCreatedEvent{
		VersionID:     v.ID,
		DocumentID:    v.DocumentID,
		VersionNumber: v.VersionNumber,
		CreatedBy:     v.CreatedBy,
	}

	if err := p.publisher.Publish(ctx, messaging.EventVersionCreated, data); err != nil {
		p.logger.Error().Err(err).Str("document_id", v.DocumentID).Msg("failed to publish version created event")
	}
}

// PublishVersionRestored publishes a version restored event
func (p *DocflowEventPublisher) PublishVersionRestored(ctx context.Context, v *domain.DocumentVersion, restoredFromID, restoredBy string) {
	data := messaging.VersionRestoredEvent{
		VersionID:      v.ID,
		DocumentID:     v.DocumentID,
		RestoredFromID: restoredFromID,
		VersionNumber:  v.VersionNumber,
		RestoredBy:     restoredBy,
	}

	if err := p.publisher.Publish(ctx, messaging.EventVersionRestored, data); err != nil {
		p.logger.Error().Err(err).Str("document_id", v.DocumentID).Msg("failed to publish version restored event")
	}
}

// PublishApprovalSubmitted publishes an approval submitted event
func (p *DocflowEventPublisher) PublishApprovalSubmitted(ctx context.Context, documentID, submittedBy string, approverIDs []string) {
	data := messaging.ApprovalSubmittedEvent{
		DocumentID:  documentID,
		SubmittedBy: submittedBy,
		ApproverIDs: approverIDs,
	}

	if err := p.publisher.Publish(ctx, messaging.EventApprovalSubmitted, data); err != nil {
		p.logger.Error().Err(err).Str("document_id", documentID).Msg("failed to publish approval submitted event")
	}
}

// PublishApprovalDecision publishes the event matching an approval decision
func (p *DocflowEventPublisher) PublishApprovalDecision(ctx context.Context, req *domain.ApprovalRequest, decision domain.Decision, actedBy string) {
	eventType := ""
	switch decision {
	case domain.DecisionApprove:
		eventType = messaging.EventApprovalApproved
	case domain.DecisionReject:
		eventType = messaging.EventApprovalRejected
	case domain.DecisionRequestRevision:
		eventType = messaging.EventApprovalRevision
	case domain.DecisionSendToLegalReview, domain.DecisionBlock:
		eventType = messaging.EventApprovalEscalated
	default:
		return
	}

	comment := ""
	if req.Comment != nil {
		comment = *req.Comment
	}
	data := messaging.ApprovalDecisionEvent{
		RequestID:  req.ID,
		DocumentID: req.DocumentID,
		ApproverID: actedBy,
		Decision:   string(decision),
		Comment:    comment,
	}

	if err := p.publisher.Publish(ctx, eventType, data); err != nil {
		p.logger.Error().Err(err).Str("request_id", req.ID).Msg("failed to publish approval decision event")
	}
}

// PublishApprovalDelegated publishes an approval delegated event
func (p *DocflowEventPublisher) PublishApprovalDelegated(ctx context.Context, req *domain.ApprovalRequest, delegatorID, delegateID, reason string) {
	data := messaging.ApprovalDelegatedEvent{
		RequestID:   req.ID,
		DocumentID:  req.DocumentID,
		DelegatorID: delegatorID,
		DelegateID:  delegateID,
		Reason:      reason,
	}

	if err := p.publisher.Publish(ctx, messaging.EventApprovalDelegated, data); err != nil {
		p.logger.Error().Err(err).Str("request_id", req.ID).Msg("failed to publish approval delegated event")
	}
}

// PublishApprovalCompleted publishes an approval completed event
func (p *DocflowEventPublisher) PublishApprovalCompleted(ctx context.Context, documentID string, finalStatus domain.DocumentStatus) {
	data := messaging.ApprovalCompletedEvent{
		DocumentID:  documentID,
		FinalStatus: string(finalStatus),
	}

	if err := p.publisher.Publish(ctx, messaging.EventApprovalCompleted, data); err != nil {
		p.logger.Error().Err(err).Str("document_id", documentID).Msg("failed to publish approval completed event")
	}
}

// PublishDelegationCreated publishes a delegation created event
func (p *DocflowEventPublisher) PublishDelegationCreated(ctx context.Context, d *domain.UserDelegation) {
	data := messaging.DelegationCreatedEvent{
		DelegationID:   d.ID,
		DelegatorID:    d.FromUserID,
		DelegateID:     d.ToUserID,
		DelegationType: string(d.DelegationType),
		StartDate:      d.StartDate,
		EndDate:        d.EndDate,
	}

	if err := p.publisher.Publish(ctx, messaging.EventDelegationCreated, data); err != nil {
		p.logger.Error().Err(err).Str("delegation_id", d.ID).Msg("failed to publish delegation created event")
	}
}

// PublishDelegationRevoked publishes a delegation revoked event
func (p *DocflowEventPublisher) PublishDelegationRevoked(ctx context.Context, delegationID, revokedBy string) {
	data := messaging.DelegationRevokedEvent{
		DelegationID: delegationID,
		RevokedBy:    revokedBy,
	}

	if err := p.publisher.Publish(ctx, messaging.EventDelegationRevoked, data); err != nil {
		p.logger.Error().Err(err).Str("delegation_id", delegationID).Msg("failed to publish delegation revoked event")
	}
}

// PublishAccessGranted publishes an access granted event
func (p *DocflowEventPublisher) PublishAccessGranted(ctx context.Context, a *domain.DocumentAccess) {
	data := messaging.AccessGrantedEvent{
		AccessID:    a.ID,
		DocumentID:  a.DocumentID,
		UserID:      a.UserID,
		AccessLevel: string(a.AccessLevel),
		GrantedBy:   a.GrantedBy,
	}

	if err := p.publisher.Publish(ctx, messaging.EventAccessGranted, data); err != nil {
		p.logger.Error().Err(err).Str("document_id", a.DocumentID).Msg("failed to publish access granted event")
	}
}

// PublishAccessRevoked publishes an access revoked event
func (p *DocflowEventPublisher) PublishAccessRevoked(ctx context.Context, a *domain.DocumentAccess, revokedBy string) {
	data := messaging.AccessRevokedEvent{
		AccessID:   a.ID,
		DocumentID: a.DocumentID,
		UserID:     a.UserID,
		RevokedBy:  revokedBy,
	}

	if err := p.publisher.Publish(ctx, messaging.EventAccessRevoked, data); err != nil {
		p.logger.Error().Err(err).Str("document_id", a.DocumentID).Msg("failed to publish access revoked event")
	}
}

// PublishBlockApplied publishes a block applied event
func (p *DocflowEventPublisher) PublishBlockApplied(ctx context.Context, b *domain.DocumentBlock) {
	data := messaging.BlockAppliedEvent{
		BlockID:    b.ID,
		DocumentID: b.DocumentID,
		BlockType:  string(b.BlockType),
		Reason:     b.Reason,
		BlockedBy:  b.BlockedBy,
	}

	if err := p.publisher.Publish(ctx, messaging.EventBlockApplied, data); err != nil {
		p.logger.Error().Err(err).Str("document_id", b.DocumentID).Msg("failed to publish block applied event")
	}
}

// PublishBlockLifted publishes a block lifted event
func (p *DocflowEventPublisher) PublishBlockLifted(ctx context.Context, b *domain.DocumentBlock, liftedBy string) {
	data := messaging.BlockLiftedEvent{
		BlockID:    b.ID,
		DocumentID: b.DocumentID,
		LiftedBy:   liftedBy,
	}

	if err := p.publisher.Publish(ctx, messaging.EventBlockLifted, data); err != nil {
		p.logger.Error().Err(err).Str("document_id", b.DocumentID).Msg("failed to publish block lifted event")
	}
}

// PublishNotificationCreated publishes a notification created event
func (p *DocflowEventPublisher) PublishNotificationCreated(ctx context.Context, n *domain.Notification) {
	documentID := ""
	if n.DocumentID != nil {
		documentID = *n.DocumentID
	}
	data := messaging.NotificationCreatedEvent{
		NotificationID: n.ID,
		UserID:         n.UserID,
		Kind:           string(n.Kind),
		Title:          n.Title,
		DocumentID:     documentID,
	}

	if err := p.publisher.Publish(ctx, messaging.EventNotificationCreated, data); err != nil {
		p.logger.Error().Err(err).Str("notification_id", n.ID).Msg("failed to publish notification created event")
	}
}
