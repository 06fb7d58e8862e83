package messaging

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types
const (
	// User events (consumed from the identity service)
	EventUserCreated     = "user.created"
	EventUserUpdated     = "user.updated"
	EventUserDeleted     = "user.deleted"
	EventUserRoleChanged = "user.role.changed"

	// Document events
	EventDocumentCreated  = "document.created"
	EventDocumentUpdated  = "document.updated"
	EventDocumentDeleted  = "document.deleted"
	EventDocumentArchived = "document.archived"

	// Version events
	EventVersionCreated  = "document.version.created"
	EventVersionRestored = "document.version.restored"

	// Approval events
	EventApprovalSubmitted = "approval.submitted"
	EventApprovalApproved  = "approval.approved"
	EventApprovalRejected  = "approval.rejected"
	EventApprovalRevision  = "approval.revision_requested"
	EventApprovalDelegated = "approval.delegated"
	EventApprovalEscalated = "approval.escalated"
	EventApprovalCompleted = "approval.completed"

	// Delegation events
	EventDelegationCreated = "delegation.created"
	EventDelegationRevoked = "delegation.revoked"

	// Access events
	EventAccessGranted = "access.granted"
	EventAccessRevoked = "access.revoked"
	EventBlockApplied  = "access.block.applied"
	EventBlockLifted   = "access.block.lifted"

	// Notification events
	EventNotificationCreated = "notification.created"

	// Audit events
	EventAuditLogCreated = "audit.log.created"
)

// Exchange names
const (
	ExchangeUserEvents    = "user.events"
	ExchangeDocflowEvents = "docflow.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            GenerateEventID(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// User Events (consumed)

// UserCreatedEvent is published by the identity service when a user is created
type UserCreatedEvent struct {
	UserID     string `json:"user_id"`
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	RoleName   string `json:"role_name"`
	Department string `json:"department"`
}

// FullName returns the user's full name
func (e *UserCreatedEvent) FullName() string {
	return e.FirstName + " " + e.LastName
}

// UserUpdatedEvent is published by the identity service when a user is updated
type UserUpdatedEvent struct {
	UserID string         `json:"user_id"`
	Fields map[string]any `json:"fields"` // Changed fields
}

// UserDeletedEvent is published by the identity service when a user is deleted
type UserDeletedEvent struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// UserRoleChangedEvent is published when a user's role changes
type UserRoleChangedEvent struct {
	UserID      string `json:"user_id"`
	OldRoleName string `json:"old_role_name"`
	NewRoleName string `json:"new_role_name"`
}

// Document Events

// DocumentCreatedEvent is published when a document is created
type DocumentCreatedEvent struct {
	DocumentID         string `json:"document_id"`
	RegistrationNumber string `json:"registration_number"`
	Title              string `json:"title"`
	DocumentType       string `json:"document_type"`
	AuthorID           string `json:"author_id"`
}

// DocumentUpdatedEvent is published when a document's metadata changes
type DocumentUpdatedEvent struct {
	DocumentID string         `json:"document_id"`
	Fields     map[string]any `json:"fields"`
	UpdatedBy  string         `json:"updated_by"`
}

// DocumentDeletedEvent is published when a draft document is deleted
type DocumentDeletedEvent struct {
	DocumentID string `json:"document_id"`
	DeletedBy  string `json:"deleted_by"`
}

// DocumentArchivedEvent is published when a document is archived
type DocumentArchivedEvent struct {
	DocumentID string `json:"document_id"`
	ArchivedBy string `json:"archived_by"`
}

// Version Events

// VersionCreatedEvent is published when a new document version is uploaded
type VersionCreatedEvent struct {
	VersionID     string `json:"version_id"`
	DocumentID    string `json:"document_id"`
	VersionNumber int    `json:"version_number"`
	CreatedBy     string `json:"created_by"`
}

// VersionRestoredEvent is published when an old version is restored as a new one
type VersionRestoredEvent struct {
	VersionID      string `json:"version_id"`
	DocumentID     string `json:"document_id"`
	RestoredFromID string `json:"restored_from_id"`
	VersionNumber  int    `json:"version_number"`
	RestoredBy     string `json:"restored_by"`
}

// Approval Events

// ApprovalSubmittedEvent is published when a document is submitted for approval
type ApprovalSubmittedEvent struct {
	DocumentID  string   `json:"document_id"`
	SubmittedBy string   `json:"submitted_by"`
	ApproverIDs []string `json:"approver_ids"`
}

// ApprovalDecisionEvent is published for approve/reject/revision decisions
type ApprovalDecisionEvent struct {
	RequestID  string `json:"request_id"`
	DocumentID string `json:"document_id"`
	ApproverID string `json:"approver_id"`
	Decision   string `json:"decision"`
	Comment    string `json:"comment,omitempty"`
}

// ApprovalDelegatedEvent is published when an approval request is delegated
type ApprovalDelegatedEvent struct {
	RequestID   string `json:"request_id"`
	DocumentID  string `json:"document_id"`
	DelegatorID string `json:"delegator_id"`
	DelegateID  string `json:"delegate_id"`
	Reason      string `json:"reason,omitempty"`
}

// ApprovalCompletedEvent is published when a document's approval round completes
type ApprovalCompletedEvent struct {
	DocumentID  string `json:"document_id"`
	FinalStatus string `json:"final_status"`
}

// Delegation Events

// DelegationCreatedEvent is published when a standing delegation is created
type DelegationCreatedEvent struct {
	DelegationID   string    `json:"delegation_id"`
	DelegatorID    string    `json:"delegator_id"`
	DelegateID     string    `json:"delegate_id"`
	DelegationType string    `json:"delegation_type"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
}

// DelegationRevokedEvent is published when a standing delegation is revoked
type DelegationRevokedEvent struct {
	DelegationID string `json:"delegation_id"`
	RevokedBy    string `json:"revoked_by"`
}

// Access Events

// AccessGrantedEvent is published when document access is granted
type AccessGrantedEvent struct {
	AccessID    string `json:"access_id"`
	DocumentID  string `json:"document_id"`
	UserID      string `json:"user_id"`
	AccessLevel string `json:"access_level"`
	GrantedBy   string `json:"granted_by"`
}

// AccessRevokedEvent is published when document access is revoked
type AccessRevokedEvent struct {
	AccessID   string `json:"access_id"`
	DocumentID string `json:"document_id"`
	UserID     string `json:"user_id"`
	RevokedBy  string `json:"revoked_by"`
}

// BlockAppliedEvent is published when a hold is placed on a document
type BlockAppliedEvent struct {
	BlockID    string `json:"block_id"`
	DocumentID string `json:"document_id"`
	BlockType  string `json:"block_type"`
	Reason     string `json:"reason"`
	BlockedBy  string `json:"blocked_by"`
}

// BlockLiftedEvent is published when a hold is removed from a document
type BlockLiftedEvent struct {
	BlockID    string `json:"block_id"`
	DocumentID string `json:"document_id"`
	LiftedBy   string `json:"lifted_by"`
}

// Notification Events

// NotificationCreatedEvent is published when a notification is created
type NotificationCreatedEvent struct {
	NotificationID string `json:"notification_id"`
	UserID         string `json:"user_id"`
	Kind           string `json:"kind"`
	Title          string `json:"title"`
	DocumentID     string `json:"document_id,omitempty"`
}

// Audit Events

// AuditLogCreatedEvent is published when an audit log entry is created
type AuditLogCreatedEvent struct {
	LogID      string         `json:"log_id"`
	UserID     string         `json:"user_id"`
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	ResourceID string         `json:"resource_id"`
	Changes    map[string]any `json:"changes,omitempty"`
	IPAddress  string         `json:"ip_address,omitempty"`
}

// GenerateEventID generates a unique event ID
func GenerateEventID() string {
	return fmt.Sprintf("%d-%d", time.Now().UnixNano(), time.Now().Nanosecond()%10000)
}
