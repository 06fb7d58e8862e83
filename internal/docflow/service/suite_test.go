package service_test

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/docflow/docflow-backend/internal/docflow/domain"
	"github.com/docflow/docflow-backend/internal/docflow/events"
	"github.com/docflow/docflow-backend/internal/docflow/repository"
	"github.com/docflow/docflow-backend/internal/docflow/service"
	"github.com/docflow/docflow-backend/pkg/actor"
	"github.com/docflow/docflow-backend/pkg/filestore"
	"github.com/docflow/docflow-backend/pkg/testutil"
)

var suite *testutil.IntegrationSuite

func TestMain(m *testing.M) {
	ctx := context.Background()

	var err error
	suite, err = testutil.NewIntegrationSuite(ctx)
	if err != nil {
		log.Fatalf("failed to start integration suite: %v", err)
	}

	code := m.Run()
	testutil.TerminateContainer(ctx)
	os.Exit(code)
}

// env wires the full service stack against the suite database with a mock
// event transport, the way main wires it against RabbitMQ.
type env struct {
	Users         *repository.UserCacheRepository
	Docs          *repository.DocumentRepository
	Requests      *repository.ApprovalRepository
	Notifications *repository.NotificationRepository
	DelegationRepo *repository.DelegationRepository
	Audits        *repository.AuditRepository

	Documents   *service.DocumentService
	Versions    *service.VersionService
	Approvals   *service.ApprovalService
	Access      *service.AccessService
	Delegations *service.DelegationService
	Comments    *service.CommentService
	Inbox       *service.NotificationService

	Published *testutil.MockPublisher
}

func newEnv(t *testing.T) *env {
	t.Helper()
	suite.Reset(t)

	db := suite.DB
	logg := suite.Logger
	published := testutil.NewMockPublisher()
	pub := events.NewDocflowEventPublisherWith(published, logg)

	userRepo := repository.NewUserCacheRepository(db)
	docRepo := repository.NewDocumentRepository(db)
	verRepo := repository.NewVersionRepository(db)
	apprRepo := repository.NewApprovalRepository(db)
	accessRepo := repository.NewAccessRepository(db)
	notifRepo := repository.NewNotificationRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	delRepo := repository.NewDelegationRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	store, err := filestore.New(t.TempDir(), 10<<20)
	require.NoError(t, err)

	directory := service.NewDirectory(userRepo)
	delegations := service.NewDelegationService(delRepo, directory, pub, logg)
	documents := service.NewDocumentService(db, docRepo, verRepo, apprRepo, accessRepo, auditRepo, delegations, pub, logg)
	versions := service.NewVersionService(db, docRepo, verRepo, accessRepo, auditRepo, documents, store, pub, logg)
	approvals := service.NewApprovalService(db, docRepo, apprRepo, accessRepo, notifRepo, auditRepo, delegations, directory, pub, logg)
	access := service.NewAccessService(db, docRepo, accessRepo, notifRepo, auditRepo, directory, pub, logg)
	comments := service.NewCommentService(db, commentRepo, notifRepo, auditRepo, documents, logg)
	inbox := service.NewNotificationService(notifRepo, pub, logg)

	return &env{
		Users:          userRepo,
		Docs:           docRepo,
		Requests:       apprRepo,
		Notifications:  notifRepo,
		DelegationRepo: delRepo,
		Audits:         auditRepo,
		Documents:      documents,
		Versions:       versions,
		Approvals:      approvals,
		Access:         access,
		Delegations:    delegations,
		Comments:       comments,
		Inbox:          inbox,
		Published:      published,
	}
}

func (e *env) seedUser(t *testing.T, opts ...func(*actor.UserCache)) *actor.UserCache {
	t.Helper()
	user := suite.Fixtures.User(opts...)
	require.NoError(t, e.Users.Set(context.Background(), user))
	return user
}

func (e *env) createDraft(t *testing.T, author *actor.UserCache) *domain.Document {
	t.Helper()
	doc, err := e.Documents.Create(testutil.ActorContext(author), service.CreateDocumentInput{
		Title:        "Expense policy",
		DocumentType: "policy",
		Content:      testutil.PtrString("first draft"),
	})
	require.NoError(t, err)
	return doc
}

func (e *env) submit(t *testing.T, author *actor.UserCache, documentID string, specs ...domain.ApproverSpec) []*domain.ApprovalRequest {
	t.Helper()
	reqs, err := e.Approvals.Submit(testutil.ActorContext(author), service.SubmitInput{
		DocumentID: documentID,
		Approvers:  specs,
	})
	require.NoError(t, err)
	return reqs
}

func (e *env) documentStatus(t *testing.T, id string) domain.DocumentStatus {
	t.Helper()
	doc, err := e.Docs.GetByID(context.Background(), id)
	require.NoError(t, err)
	return doc.Status
}

func (e *env) requestStatus(t *testing.T, id string) domain.RequestStatus {
	t.Helper()
	req, err := e.Requests.GetByID(context.Background(), id)
	require.NoError(t, err)
	return req.Status
}

func managerSpec(userID string) domain.ApproverSpec {
	return domain.ApproverSpec{
		UserID:       userID,
		ApproverType: domain.ApproverTypeManager,
		IsRequired:   true,
	}
}
