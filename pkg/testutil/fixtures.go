package testutil

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/docflow/docflow-backend/internal/docflow/domain"
	"github.com/docflow/docflow-backend/pkg/actor"
)

// FixtureFactory creates test fixtures with sensible defaults
type FixtureFactory struct {
	sequence int
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{sequence: 0}
}

// nextSeq returns the next sequence number for unique values
func (f *FixtureFactory) nextSeq() int {
	f.sequence++
	return f.sequence
}

// User creates a cached user with defaults
func (f *FixtureFactory) User(opts ...func(*actor.UserCache)) *actor.UserCache {
	seq := f.nextSeq()

	user := &actor.UserCache{
		UserID:    uuid.New().String(),
		FirstName: fmt.Sprintf("Test%d", seq),
		LastName:  "User",
		Email:     fmt.Sprintf("user%d@docflow.test", seq),
		RoleName:  "employee",
		IsActive:  true,
	}

	for _, opt := range opts {
		opt(user)
	}

	return user
}

// WithRole sets the cached user's role
func WithRole(role string) func(*actor.UserCache) {
	return func(u *actor.UserCache) {
		u.RoleName = role
	}
}

// WithDepartment sets the cached user's department
func WithDepartment(department string) func(*actor.UserCache) {
	return func(u *actor.UserCache) {
		u.Department = department
	}
}

// WithName sets the cached user's first and last name
func WithName(first, last string) func(*actor.UserCache) {
	return func(u *actor.UserCache) {
		u.FirstName = first
		u.LastName = last
	}
}

// Inactive marks the cached user as deactivated
func Inactive() func(*actor.UserCache) {
	return func(u *actor.UserCache) {
		u.IsActive = false
	}
}

// Document creates a draft document with defaults
func (f *FixtureFactory) Document(authorID string, opts ...func(*domain.Document)) *domain.Document {
	seq := f.nextSeq()

	doc := &domain.Document{
		ID:                 uuid.New().String(),
		RegistrationNumber: fmt.Sprintf("DOC-%d-%05d", time.Now().Year(), seq),
		Title:              fmt.Sprintf("Test Document %d", seq),
		DocumentType:       "policy",
		Status:             domain.DocumentStatusDraft,
		Confidentiality:    domain.ConfidentialityInternal,
		CurrentVersion:     1,
		AuthorID:           authorID,
	}

	for _, opt := range opts {
		opt(doc)
	}

	return doc
}

// WithDocumentStatus sets the document status
func WithDocumentStatus(status domain.DocumentStatus) func(*domain.Document) {
	return func(d *domain.Document) {
		d.Status = status
	}
}

// WithDocumentType sets the document type
func WithDocumentType(docType string) func(*domain.Document) {
	return func(d *domain.Document) {
		d.DocumentType = docType
	}
}

// WithConfidentiality sets the document confidentiality level
func WithConfidentiality(level domain.ConfidentialityLevel) func(*domain.Document) {
	return func(d *domain.Document) {
		d.Confidentiality = level
	}
}

// Version creates a version snapshot for a document
func (f *FixtureFactory) Version(documentID, createdBy string, number int, opts ...func(*domain.DocumentVersion)) *domain.DocumentVersion {
	content := fmt.Sprintf("version %d content", number)

	v := &domain.DocumentVersion{
		ID:            uuid.New().String(),
		DocumentID:    documentID,
		VersionNumber: number,
		Content:       &content,
		IsCurrent:     true,
		CreatedBy:     createdBy,
	}

	for _, opt := range opts {
		opt(v)
	}

	return v
}

// ApprovalRequest creates a pending approval request
func (f *FixtureFactory) ApprovalRequest(documentID, approverID, requesterID string, opts ...func(*domain.ApprovalRequest)) *domain.ApprovalRequest {
	req := &domain.ApprovalRequest{
		ID:            uuid.New().String(),
		DocumentID:    documentID,
		ApproverID:    approverID,
		RequesterID:   requesterID,
		Status:        domain.RequestStatusPending,
		ApproverType:  domain.ApproverTypeManager,
		ApprovalOrder: 1,
		IsRequired:    true,
	}

	for _, opt := range opts {
		opt(req)
	}

	return req
}

// WithRequestStatus sets the approval request status
func WithRequestStatus(status domain.RequestStatus) func(*domain.ApprovalRequest) {
	return func(r *domain.ApprovalRequest) {
		r.Status = status
	}
}

// Optional marks the approval request as non-required
func Optional() func(*domain.ApprovalRequest) {
	return func(r *domain.ApprovalRequest) {
		r.IsRequired = false
	}
}

// CanBlock grants the approver blocking authority
func CanBlock() func(*domain.ApprovalRequest) {
	return func(r *domain.ApprovalRequest) {
		r.CanBlock = true
	}
}

// WithDueDate sets the approval request due date
func WithDueDate(due time.Time) func(*domain.ApprovalRequest) {
	return func(r *domain.ApprovalRequest) {
		r.DueDate = &due
	}
}

// Delegation creates an active delegation covering the next week
func (f *FixtureFactory) Delegation(fromUserID, toUserID string, opts ...func(*domain.UserDelegation)) *domain.UserDelegation {
	now := time.Now()

	d := &domain.UserDelegation{
		ID:             uuid.New().String(),
		FromUserID:     fromUserID,
		ToUserID:       toUserID,
		DelegationType: domain.DelegationTypeFull,
		StartDate:      now.Add(-time.Hour),
		EndDate:        now.Add(7 * 24 * time.Hour),
		IsActive:       true,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// WithDelegationType sets the delegation type
func WithDelegationType(t domain.DelegationType) func(*domain.UserDelegation) {
	return func(d *domain.UserDelegation) {
		d.DelegationType = t
	}
}

// WithWindow sets the delegation validity window
func WithWindow(start, end time.Time) func(*domain.UserDelegation) {
	return func(d *domain.UserDelegation) {
		d.StartDate = start
		d.EndDate = end
	}
}

// AccessGrant creates an active view grant
func (f *FixtureFactory) AccessGrant(documentID, userID, grantedBy string, opts ...func(*domain.DocumentAccess)) *domain.DocumentAccess {
	a := &domain.DocumentAccess{
		ID:          uuid.New().String(),
		DocumentID:  documentID,
		UserID:      userID,
		AccessLevel: domain.AccessLevelView,
		GrantedBy:   grantedBy,
		IsActive:    true,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// WithAccessLevel sets the grant's access level
func WithAccessLevel(level domain.AccessLevel) func(*domain.DocumentAccess) {
	return func(a *domain.DocumentAccess) {
		a.AccessLevel = level
	}
}

// Downloadable allows the grantee to download file content
func Downloadable() func(*domain.DocumentAccess) {
	return func(a *domain.DocumentAccess) {
		a.CanDownload = true
	}
}

// Block creates an active document block
func (f *FixtureFactory) Block(documentID, blockedBy string, blockType domain.BlockType) *domain.DocumentBlock {
	return &domain.DocumentBlock{
		ID:         uuid.New().String(),
		DocumentID: documentID,
		BlockType:  blockType,
		Reason:     "test block",
		BlockedBy:  blockedBy,
		IsActive:   true,
	}
}
