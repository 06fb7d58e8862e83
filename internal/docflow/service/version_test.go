package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docflow/docflow-backend/internal/docflow/domain"
	"github.com/docflow/docflow-backend/internal/docflow/service"
	"github.com/docflow/docflow-backend/pkg/errors"
	"github.com/docflow/docflow-backend/pkg/testutil"
)

func TestVersionUpload_AppendsToHistory(t *testing.T) {
	e := newEnv(t)

	author := e.seedUser(t)
	stranger := e.seedUser(t)
	doc := e.createDraft(t, author)

	t.Run("only the author can upload", func(t *testing.T) {
		_, err := e.Versions.Upload(testutil.ActorContext(stranger), service.UploadVersionInput{
			DocumentID: doc.ID,
			Content:    testutil.PtrString("edited by someone else"),
		})
		assert.True(t, errors.Is(err, errors.ErrForbidden))
	})

	v2, err := e.Versions.Upload(testutil.ActorContext(author), service.UploadVersionInput{
		DocumentID:        doc.ID,
		Content:           testutil.PtrString("second draft"),
		ChangeDescription: testutil.PtrString("reworked intro"),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, v2.VersionNumber)
	assert.True(t, v2.IsCurrent)

	history, err := e.Versions.ListByDocument(testutil.ActorContext(author), doc.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)

	current, err := e.Versions.GetCurrent(testutil.ActorContext(author), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, v2.ID, current.ID)
}

func TestVersionUpload_DraftOnly(t *testing.T) {
	e := newEnv(t)

	author := e.seedUser(t)
	approver := e.seedUser(t, testutil.WithRole("manager"))
	doc := e.createDraft(t, author)
	e.submit(t, author, doc.ID, managerSpec(approver.UserID))

	_, err := e.Versions.Upload(testutil.ActorContext(author), service.UploadVersionInput{
		DocumentID: doc.ID,
		Content:    testutil.PtrString("late edit"),
	})
	assert.True(t, errors.Is(err, errors.ErrConflict))
}

func TestVersionRestore_CopiesContentForward(t *testing.T) {
	e := newEnv(t)

	author := e.seedUser(t)
	doc := e.createDraft(t, author)

	first, err := e.Versions.GetCurrent(testutil.ActorContext(author), doc.ID)
	require.NoError(t, err)

	_, err = e.Versions.Upload(testutil.ActorContext(author), service.UploadVersionInput{
		DocumentID: doc.ID,
		Content:    testutil.PtrString("second draft"),
	})
	require.NoError(t, err)

	restored, err := e.Versions.Restore(testutil.ActorContext(author), first.ID)
	require.NoError(t, err)

	// History is append-only: the old version is copied into a new one, never
	// reactivated in place.
	assert.Equal(t, 3, restored.VersionNumber)
	require.NotNil(t, restored.Content)
	assert.Equal(t, "first draft", *restored.Content)
	require.NotNil(t, restored.ChangeDescription)
	assert.Equal(t, "restored from version 1", *restored.ChangeDescription)

	history, err := e.Versions.ListByDocument(testutil.ActorContext(author), doc.ID)
	require.NoError(t, err)
	assert.Len(t, history, 3)

	current, err := e.Versions.GetCurrent(testutil.ActorContext(author), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, restored.ID, current.ID)

	freshDoc, err := e.Docs.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, freshDoc.CurrentVersion)
}

func TestVersionRestore_BlockedWhilePendingApproval(t *testing.T) {
	e := newEnv(t)

	author := e.seedUser(t)
	approver := e.seedUser(t, testutil.WithRole("manager"))
	doc := e.createDraft(t, author)

	first, err := e.Versions.GetCurrent(testutil.ActorContext(author), doc.ID)
	require.NoError(t, err)

	e.submit(t, author, doc.ID, managerSpec(approver.UserID))

	_, err = e.Versions.Restore(testutil.ActorContext(author), first.ID)
	assert.True(t, errors.Is(err, errors.ErrConflict))
	assert.Equal(t, domain.DocumentStatusPending, e.documentStatus(t, doc.ID))
}
