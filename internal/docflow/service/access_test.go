package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docflow/docflow-backend/internal/docflow/domain"
	"github.com/docflow/docflow-backend/internal/docflow/service"
	"github.com/docflow/docflow-backend/pkg/errors"
	"github.com/docflow/docflow-backend/pkg/messaging"
	"github.com/docflow/docflow-backend/pkg/testutil"
)

func TestAccessGrant_ControlsVisibility(t *testing.T) {
	e := newEnv(t)

	author := e.seedUser(t)
	grantee := e.seedUser(t)
	doc := e.createDraft(t, author)

	t.Run("without a grant the document is invisible", func(t *testing.T) {
		_, err := e.Documents.Get(testutil.ActorContext(grantee), doc.ID)
		assert.True(t, errors.Is(err, errors.ErrForbidden))
	})

	grant := &domain.DocumentAccess{
		DocumentID:  doc.ID,
		UserID:      grantee.UserID,
		AccessLevel: domain.AccessLevelView,
	}
	require.NoError(t, e.Access.Grant(testutil.ActorContext(author), grant))

	seen, err := e.Documents.Get(testutil.ActorContext(grantee), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, seen.ID)

	inbox, err := e.Notifications.ListForUser(context.Background(), grantee.UserID, 10)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Contains(t, inbox[0].Title, "access granted")

	e.Published.AssertEventPublished(t, messaging.EventAccessGranted)

	t.Run("revoking closes the door again", func(t *testing.T) {
		require.NoError(t, e.Access.Revoke(testutil.ActorContext(author), doc.ID, grantee.UserID))

		_, err := e.Documents.Get(testutil.ActorContext(grantee), doc.ID)
		assert.True(t, errors.Is(err, errors.ErrForbidden))
	})
}

func TestAccessGrant_Authorization(t *testing.T) {
	e := newEnv(t)

	author := e.seedUser(t)
	grantee := e.seedUser(t)
	stranger := e.seedUser(t)
	admin := e.seedUser(t, testutil.WithRole("administrator"))
	doc := e.createDraft(t, author)

	t.Run("a stranger cannot grant access", func(t *testing.T) {
		err := e.Access.Grant(testutil.ActorContext(stranger), &domain.DocumentAccess{
			DocumentID:  doc.ID,
			UserID:      grantee.UserID,
			AccessLevel: domain.AccessLevelView,
		})
		assert.True(t, errors.Is(err, errors.ErrForbidden))
	})

	t.Run("the author already has full access", func(t *testing.T) {
		err := e.Access.Grant(testutil.ActorContext(author), &domain.DocumentAccess{
			DocumentID:  doc.ID,
			UserID:      author.UserID,
			AccessLevel: domain.AccessLevelView,
		})
		assert.True(t, errors.Is(err, errors.ErrBadRequest))
	})

	t.Run("administrators may grant on any document", func(t *testing.T) {
		err := e.Access.Grant(testutil.ActorContext(admin), &domain.DocumentAccess{
			DocumentID:  doc.ID,
			UserID:      grantee.UserID,
			AccessLevel: domain.AccessLevelViewAndComment,
		})
		assert.NoError(t, err)
	})
}

func TestApprovers_SeeTheDocumentTheyReview(t *testing.T) {
	e := newEnv(t)

	author := e.seedUser(t)
	approver := e.seedUser(t, testutil.WithRole("manager"))
	doc := e.createDraft(t, author)

	_, err := e.Documents.Get(testutil.ActorContext(approver), doc.ID)
	assert.True(t, errors.Is(err, errors.ErrForbidden))

	e.submit(t, author, doc.ID, managerSpec(approver.UserID))

	seen, err := e.Documents.Get(testutil.ActorContext(approver), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, seen.ID)
}

func TestBlock_GatesEditingButNotViewing(t *testing.T) {
	e := newEnv(t)

	author := e.seedUser(t)
	stranger := e.seedUser(t)
	admin := e.seedUser(t, testutil.WithRole("administrator"))
	doc := e.createDraft(t, author)

	t.Run("blocking takes the same authority as granting", func(t *testing.T) {
		err := e.Access.Block(testutil.ActorContext(stranger), &domain.DocumentBlock{
			DocumentID: doc.ID,
			BlockType:  domain.BlockTypeEdit,
			Reason:     "drive-by hold",
		})
		assert.True(t, errors.Is(err, errors.ErrForbidden))
	})

	block := &domain.DocumentBlock{
		DocumentID: doc.ID,
		BlockType:  domain.BlockTypeEdit,
		Reason:     "content dispute",
	}
	require.NoError(t, e.Access.Block(testutil.ActorContext(admin), block))

	e.Published.AssertEventPublished(t, messaging.EventBlockApplied)

	// Edits are refused while the hold is active.
	_, err := e.Versions.Upload(testutil.ActorContext(author), service.UploadVersionInput{
		DocumentID: doc.ID,
		Content:    testutil.PtrString("disputed edit"),
	})
	assert.True(t, errors.Is(err, errors.ErrBlocked))

	// Viewing is unaffected.
	_, err = e.Documents.Get(testutil.ActorContext(author), doc.ID)
	assert.NoError(t, err)

	blocked, err := e.Access.IsBlocked(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.True(t, blocked)

	require.NoError(t, e.Access.Unblock(testutil.ActorContext(admin), block.ID, nil))

	_, err = e.Versions.Upload(testutil.ActorContext(author), service.UploadVersionInput{
		DocumentID: doc.ID,
		Content:    testutil.PtrString("allowed again"),
	})
	assert.NoError(t, err)
}
