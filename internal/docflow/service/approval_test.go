package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docflow/docflow-backend/internal/docflow/domain"
	"github.com/docflow/docflow-backend/internal/docflow/service"
	"github.com/docflow/docflow-backend/pkg/errors"
	"github.com/docflow/docflow-backend/pkg/messaging"
	"github.com/docflow/docflow-backend/pkg/testutil"
)

func TestSubmit_StartsApprovalRound(t *testing.T) {
	e := newEnv(t)

	author := e.seedUser(t)
	approverA := e.seedUser(t, testutil.WithRole("manager"))
	approverB := e.seedUser(t, testutil.WithRole("manager"))

	doc := e.createDraft(t, author)
	assert.Equal(t, fmt.Sprintf("DOC-%d-00001", time.Now().UTC().Year()), doc.RegistrationNumber)
	assert.Equal(t, domain.DocumentStatusDraft, doc.Status)
	assert.Equal(t, 1, doc.CurrentVersion)

	reqs := e.submit(t, author, doc.ID, managerSpec(approverA.UserID), managerSpec(approverB.UserID))

	require.Len(t, reqs, 2)
	assert.Equal(t, domain.RequestStatusPending, reqs[0].Status)
	assert.Equal(t, 1, reqs[0].ApprovalOrder)
	assert.Equal(t, 2, reqs[1].ApprovalOrder)
	assert.Equal(t, domain.DocumentStatusPending, e.documentStatus(t, doc.ID))

	for _, approver := range []string{approverA.UserID, approverB.UserID} {
		inbox, err := e.Notifications.ListForUser(context.Background(), approver, 10)
		require.NoError(t, err)
		require.Len(t, inbox, 1)
		assert.Equal(t, domain.NotificationApprovalRequest, inbox[0].Kind)
	}

	e.Published.AssertEventPublished(t, messaging.EventApprovalSubmitted)
}

func TestSubmit_Validation(t *testing.T) {
	e := newEnv(t)

	author := e.seedUser(t)
	approver := e.seedUser(t, testutil.WithRole("manager"))
	employee := e.seedUser(t)
	stranger := e.seedUser(t)

	doc := e.createDraft(t, author)

	t.Run("requires at least one approver", func(t *testing.T) {
		_, err := e.Approvals.Submit(testutil.ActorContext(author), service.SubmitInput{DocumentID: doc.ID})
		assert.True(t, errors.Is(err, errors.ErrBadRequest))
	})

	t.Run("approver must hold the named role", func(t *testing.T) {
		_, err := e.Approvals.Submit(testutil.ActorContext(author), service.SubmitInput{
			DocumentID: doc.ID,
			Approvers:  []domain.ApproverSpec{managerSpec(employee.UserID)},
		})
		assert.True(t, errors.Is(err, errors.ErrBadRequest))
	})

	t.Run("only the author can submit", func(t *testing.T) {
		_, err := e.Approvals.Submit(testutil.ActorContext(stranger), service.SubmitInput{
			DocumentID: doc.ID,
			Approvers:  []domain.ApproverSpec{managerSpec(approver.UserID)},
		})
		assert.True(t, errors.Is(err, errors.ErrForbidden))
	})

	t.Run("approved documents cannot be resubmitted", func(t *testing.T) {
		reqs := e.submit(t, author, doc.ID, managerSpec(approver.UserID))
		_, err := e.Approvals.Decide(testutil.ActorContext(approver), reqs[0].ID,
			service.DecideInput{Decision: domain.DecisionApprove})
		require.NoError(t, err)

		_, err = e.Approvals.Submit(testutil.ActorContext(author), service.SubmitInput{
			DocumentID: doc.ID,
			Approvers:  []domain.ApproverSpec{managerSpec(approver.UserID)},
		})
		assert.True(t, errors.Is(err, errors.ErrConflict))
	})
}

func TestDecide_ApproveCompletesWhenAllRequiredApprove(t *testing.T) {
	e := newEnv(t)

	author := e.seedUser(t)
	approverA := e.seedUser(t, testutil.WithRole("manager"))
	approverB := e.seedUser(t, testutil.WithRole("manager"))

	doc := e.createDraft(t, author)
	reqs := e.submit(t, author, doc.ID, managerSpec(approverA.UserID), managerSpec(approverB.UserID))

	decided, err := e.Approvals.Decide(testutil.ActorContext(approverA), reqs[0].ID,
		service.DecideInput{Decision: domain.DecisionApprove})
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusApproved, decided.Status)
	assert.NotNil(t, decided.ProcessedAt)

	// One of two required approvals is not enough.
	assert.Equal(t, domain.DocumentStatusPending, e.documentStatus(t, doc.ID))

	_, err = e.Approvals.Decide(testutil.ActorContext(approverB), reqs[1].ID,
		service.DecideInput{Decision: domain.DecisionApprove})
	require.NoError(t, err)

	assert.Equal(t, domain.DocumentStatusApproved, e.documentStatus(t, doc.ID))

	inbox, err := e.Notifications.ListForUser(context.Background(), author.UserID, 10)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, domain.NotificationDocumentApproved, inbox[0].Kind)

	e.Published.AssertEventPublished(t, messaging.EventApprovalCompleted)
}

func TestDecide_OptionalApproverDoesNotGateCompletion(t *testing.T) {
	e := newEnv(t)

	author := e.seedUser(t)
	required := e.seedUser(t, testutil.WithRole("manager"))
	optional := e.seedUser(t, testutil.WithRole("manager"))

	doc := e.createDraft(t, author)
	optSpec := managerSpec(optional.UserID)
	optSpec.IsRequired = false
	reqs := e.submit(t, author, doc.ID, managerSpec(required.UserID), optSpec)

	_, err := e.Approvals.Decide(testutil.ActorContext(required), reqs[0].ID,
		service.DecideInput{Decision: domain.DecisionApprove})
	require.NoError(t, err)

	assert.Equal(t, domain.DocumentStatusApproved, e.documentStatus(t, doc.ID))
	assert.Equal(t, domain.RequestStatusPending, e.requestStatus(t, reqs[1].ID))
}

func TestDecide_RejectShortCircuitsTheRound(t *testing.T) {
	e := newEnv(t)

	author := e.seedUser(t)
	approverA := e.seedUser(t, testutil.WithRole("manager"))
	approverB := e.seedUser(t, testutil.WithRole("manager"))

	doc := e.createDraft(t, author)
	reqs := e.submit(t, author, doc.ID, managerSpec(approverA.UserID), managerSpec(approverB.UserID))

	_, err := e.Approvals.Decide(testutil.ActorContext(approverA), reqs[0].ID, service.DecideInput{
		Decision: domain.DecisionReject,
		Comment:  testutil.PtrString("budget figures are wrong"),
	})
	require.NoError(t, err)

	assert.Equal(t, domain.DocumentStatusRejected, e.documentStatus(t, doc.ID))
	// The sibling request is left untouched until a resubmission cancels it.
	assert.Equal(t, domain.RequestStatusPending, e.requestStatus(t, reqs[1].ID))

	inbox, err := e.Notifications.ListForUser(context.Background(), author.UserID, 10)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, domain.NotificationDocumentRejected, inbox[0].Kind)

	// Resubmitting starts a fresh round and cancels the leftover request.
	fresh := e.submit(t, author, doc.ID, managerSpec(approverA.UserID))
	require.Len(t, fresh, 1)
	assert.Equal(t, domain.RequestStatusCancelled, e.requestStatus(t, reqs[1].ID))
	assert.Equal(t, domain.DocumentStatusPending, e.documentStatus(t, doc.ID))

	// The rejected request from round one is terminal and must not gate the
	// fresh round's completion.
	_, err = e.Approvals.Decide(testutil.ActorContext(approverA), fresh[0].ID,
		service.DecideInput{Decision: domain.DecisionApprove})
	require.NoError(t, err)

	assert.Equal(t, domain.DocumentStatusApproved, e.documentStatus(t, doc.ID))
	assert.Equal(t, domain.RequestStatusRejected, e.requestStatus(t, reqs[0].ID))
}

func TestDecide_RejectRequiresAReason(t *testing.T) {
	e := newEnv(t)

	author := e.seedUser(t)
	approver := e.seedUser(t, testutil.WithRole("manager"))

	doc := e.createDraft(t, author)
	reqs := e.submit(t, author, doc.ID, managerSpec(approver.UserID))

	_, err := e.Approvals.Decide(testutil.ActorContext(approver), reqs[0].ID,
		service.DecideInput{Decision: domain.DecisionReject})
	assert.True(t, errors.Is(err, errors.ErrValidation))

	assert.Equal(t, domain.DocumentStatusPending, e.documentStatus(t, doc.ID))
}

func TestDecide_SecondDecisionOnSameRequestConflicts(t *testing.T) {
	e := newEnv(t)

	author := e.seedUser(t)
	approver := e.seedUser(t, testutil.WithRole("manager"))

	doc := e.createDraft(t, author)
	reqs := e.submit(t, author, doc.ID, managerSpec(approver.UserID))

	_, err := e.Approvals.Decide(testutil.ActorContext(approver), reqs[0].ID,
		service.DecideInput{Decision: domain.DecisionApprove})
	require.NoError(t, err)

	before, err := e.Audits.CountForDocument(context.Background(), doc.ID)
	require.NoError(t, err)

	_, err = e.Approvals.Decide(testutil.ActorContext(approver), reqs[0].ID,
		service.DecideInput{Decision: domain.DecisionApprove})
	assert.True(t, errors.Is(err, errors.ErrConflict))

	// The refused decision leaves no trace in the audit trail.
	after, err := e.Audits.CountForDocument(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestDecide_RevisionCancelsRoundAndReopensDocument(t *testing.T) {
	e := newEnv(t)

	author := e.seedUser(t)
	approverA := e.seedUser(t, testutil.WithRole("manager"))
	approverB := e.seedUser(t, testutil.WithRole("manager"))

	doc := e.createDraft(t, author)
	reqs := e.submit(t, author, doc.ID, managerSpec(approverA.UserID), managerSpec(approverB.UserID))

	_, err := e.Approvals.Decide(testutil.ActorContext(approverA), reqs[0].ID, service.DecideInput{
		Decision:         domain.DecisionRequestRevision,
		SuggestedChanges: testutil.PtrString("shorten section 2"),
	})
	require.NoError(t, err)

	assert.Equal(t, domain.DocumentStatusRevision, e.documentStatus(t, doc.ID))
	// Revision cancels the whole round, unlike reject.
	assert.Equal(t, domain.RequestStatusCancelled, e.requestStatus(t, reqs[1].ID))

	inbox, err := e.Notifications.ListForUser(context.Background(), author.UserID, 10)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, domain.NotificationRevisionRequested, inbox[0].Kind)

	// After the rework is resubmitted, the revision-status request from the
	// old round must not gate completion either.
	fresh := e.submit(t, author, doc.ID, managerSpec(approverB.UserID))
	_, err = e.Approvals.Decide(testutil.ActorContext(approverB), fresh[0].ID,
		service.DecideInput{Decision: domain.DecisionApprove})
	require.NoError(t, err)
	assert.Equal(t, domain.DocumentStatusApproved, e.documentStatus(t, doc.ID))
}

func TestDecide_DelegateHandsTheSameRequestOver(t *testing.T) {
	e := newEnv(t)

	author := e.seedUser(t)
	approver := e.seedUser(t, testutil.WithRole("manager"))
	colleague := e.seedUser(t, testutil.WithRole("manager"))

	doc := e.createDraft(t, author)
	reqs := e.submit(t, author, doc.ID, managerSpec(approver.UserID))

	t.Run("cannot delegate to yourself", func(t *testing.T) {
		_, err := e.Approvals.Decide(testutil.ActorContext(approver), reqs[0].ID, service.DecideInput{
			Decision:     domain.DecisionDelegate,
			DelegateToID: &approver.UserID,
		})
		assert.True(t, errors.Is(err, errors.ErrBadRequest))
	})

	decided, err := e.Approvals.Decide(testutil.ActorContext(approver), reqs[0].ID, service.DecideInput{
		Decision:     domain.DecisionDelegate,
		DelegateToID: &colleague.UserID,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.RequestStatusDelegated, decided.Status)
	require.NotNil(t, decided.DelegatedToID)
	assert.Equal(t, colleague.UserID, *decided.DelegatedToID)
	// Same request row, no child request spawned.
	active, err := e.Requests.ListActiveByDocument(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	inbox, err := e.Notifications.ListForUser(context.Background(), colleague.UserID, 10)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, domain.NotificationDelegation, inbox[0].Kind)

	// The delegate decides on the original request and completes the round.
	_, err = e.Approvals.Decide(testutil.ActorContext(colleague), reqs[0].ID,
		service.DecideInput{Decision: domain.DecisionApprove})
	require.NoError(t, err)
	assert.Equal(t, domain.DocumentStatusApproved, e.documentStatus(t, doc.ID))
}

func TestDecide_StandingDelegationAuthorizesTheDeputy(t *testing.T) {
	e := newEnv(t)

	author := e.seedUser(t)
	approver := e.seedUser(t, testutil.WithRole("manager"))
	deputy := e.seedUser(t)
	outsider := e.seedUser(t)

	doc := e.createDraft(t, author)
	reqs := e.submit(t, author, doc.ID, managerSpec(approver.UserID))

	t.Run("no delegation means no authority", func(t *testing.T) {
		_, err := e.Approvals.Decide(testutil.ActorContext(outsider), reqs[0].ID,
			service.DecideInput{Decision: domain.DecisionApprove})
		assert.True(t, errors.Is(err, errors.ErrForbidden))
	})

	t.Run("an expired delegation does not authorize", func(t *testing.T) {
		expired := suite.Fixtures.Delegation(approver.UserID, deputy.UserID,
			testutil.WithWindow(time.Now().Add(-48*time.Hour), time.Now().Add(-24*time.Hour)))
		require.NoError(t, e.DelegationRepo.Create(context.Background(), expired))

		_, err := e.Approvals.Decide(testutil.ActorContext(deputy), reqs[0].ID,
			service.DecideInput{Decision: domain.DecisionApprove})
		assert.True(t, errors.Is(err, errors.ErrForbidden))
	})

	t.Run("an active delegation authorizes decisions", func(t *testing.T) {
		active := suite.Fixtures.Delegation(approver.UserID, deputy.UserID)
		require.NoError(t, e.DelegationRepo.Create(context.Background(), active))

		_, err := e.Approvals.Decide(testutil.ActorContext(deputy), reqs[0].ID,
			service.DecideInput{Decision: domain.DecisionApprove})
		require.NoError(t, err)
		assert.Equal(t, domain.DocumentStatusApproved, e.documentStatus(t, doc.ID))
	})
}

func TestDecide_BlockParksTheRequestAndGatesTheRound(t *testing.T) {
	e := newEnv(t)

	author := e.seedUser(t)
	blocker := e.seedUser(t, testutil.WithRole("manager"))
	approver := e.seedUser(t, testutil.WithRole("manager"))

	doc := e.createDraft(t, author)
	blockerSpec := managerSpec(blocker.UserID)
	blockerSpec.CanBlock = true
	reqs := e.submit(t, author, doc.ID, blockerSpec, managerSpec(approver.UserID))

	t.Run("blocking requires the can_block grant", func(t *testing.T) {
		_, err := e.Approvals.Decide(testutil.ActorContext(approver), reqs[1].ID, service.DecideInput{
			Decision:    domain.DecisionBlock,
			BlockReason: testutil.PtrString("numbers need a second look"),
		})
		assert.True(t, errors.Is(err, errors.ErrForbidden))
	})

	decided, err := e.Approvals.Decide(testutil.ActorContext(blocker), reqs[0].ID, service.DecideInput{
		Decision:    domain.DecisionBlock,
		BlockReason: testutil.PtrString("numbers need a second look"),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusUnderReview, decided.Status)
	// Blocking is an overlay: the document status itself is untouched.
	assert.Equal(t, domain.DocumentStatusPending, e.documentStatus(t, doc.ID))

	blocks, err := e.Access.ActiveBlocks(context.Background(), doc.ID)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, domain.BlockTypeApproval, blocks[0].BlockType)

	// Every approval decision is refused while the hold is active.
	_, err = e.Approvals.Decide(testutil.ActorContext(approver), reqs[1].ID,
		service.DecideInput{Decision: domain.DecisionApprove})
	assert.True(t, errors.Is(err, errors.ErrBlocked))

	// The blocker lifts the hold; the round proceeds.
	require.NoError(t, e.Access.Unblock(testutil.ActorContext(blocker), blocks[0].ID, nil))

	_, err = e.Approvals.Decide(testutil.ActorContext(approver), reqs[1].ID,
		service.DecideInput{Decision: domain.DecisionApprove})
	require.NoError(t, err)
	assert.Equal(t, domain.DocumentStatusPending, e.documentStatus(t, doc.ID))

	// The parked request is decidable again and completes the round.
	_, err = e.Approvals.Decide(testutil.ActorContext(blocker), reqs[0].ID,
		service.DecideInput{Decision: domain.DecisionApprove})
	require.NoError(t, err)
	assert.Equal(t, domain.DocumentStatusApproved, e.documentStatus(t, doc.ID))
}

func TestDecide_LegalReviewEscalation(t *testing.T) {
	e := newEnv(t)

	author := e.seedUser(t)
	escalator := e.seedUser(t, testutil.WithRole("manager"))
	approver := e.seedUser(t, testutil.WithRole("manager"))
	lawyer := e.seedUser(t, testutil.WithRole("legal_department"))

	doc := e.createDraft(t, author)
	reqs := e.submit(t, author, doc.ID, managerSpec(escalator.UserID), managerSpec(approver.UserID))

	decided, err := e.Approvals.Decide(testutil.ActorContext(escalator), reqs[0].ID, service.DecideInput{
		Decision: domain.DecisionSendToLegalReview,
		Comment:  testutil.PtrString("liability clause needs counsel"),
	})
	require.NoError(t, err)

	assert.Equal(t, domain.RequestStatusLegalReview, decided.Status)
	assert.Equal(t, domain.DocumentStatusLegalReview, e.documentStatus(t, doc.ID))

	blocks, err := e.Access.ActiveBlocks(context.Background(), doc.ID)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, domain.BlockTypeLegalReview, blocks[0].BlockType)

	inbox, err := e.Notifications.ListForUser(context.Background(), lawyer.UserID, 10)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Contains(t, inbox[0].Title, "Legal review")

	// The hold gates the other approver too.
	_, err = e.Approvals.Decide(testutil.ActorContext(approver), reqs[1].ID,
		service.DecideInput{Decision: domain.DecisionApprove})
	assert.True(t, errors.Is(err, errors.ErrBlocked))

	// Counsel clears the document; the escalating approver lifts the hold.
	require.NoError(t, e.Access.Unblock(testutil.ActorContext(escalator), blocks[0].ID,
		testutil.PtrString("cleared by legal")))

	_, err = e.Approvals.Decide(testutil.ActorContext(approver), reqs[1].ID,
		service.DecideInput{Decision: domain.DecisionApprove})
	require.NoError(t, err)
	assert.Equal(t, domain.DocumentStatusLegalReview, e.documentStatus(t, doc.ID))

	_, err = e.Approvals.Decide(testutil.ActorContext(escalator), reqs[0].ID,
		service.DecideInput{Decision: domain.DecisionApprove})
	require.NoError(t, err)
	assert.Equal(t, domain.DocumentStatusApproved, e.documentStatus(t, doc.ID))
}

func TestPendingForCaller_IncludesDelegatedRequests(t *testing.T) {
	e := newEnv(t)

	author := e.seedUser(t)
	approver := e.seedUser(t, testutil.WithRole("manager"))
	colleague := e.seedUser(t, testutil.WithRole("manager"))

	doc := e.createDraft(t, author)
	reqs := e.submit(t, author, doc.ID, managerSpec(approver.UserID))

	pending, err := e.Approvals.PendingForCaller(testutil.ActorContext(approver))
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	_, err = e.Approvals.Decide(testutil.ActorContext(approver), reqs[0].ID, service.DecideInput{
		Decision:     domain.DecisionDelegate,
		DelegateToID: &colleague.UserID,
	})
	require.NoError(t, err)

	pending, err = e.Approvals.PendingForCaller(testutil.ActorContext(approver))
	require.NoError(t, err)
	assert.Empty(t, pending)

	pending, err = e.Approvals.PendingForCaller(testutil.ActorContext(colleague))
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}
