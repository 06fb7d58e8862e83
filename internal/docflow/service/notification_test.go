package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docflow/docflow-backend/internal/docflow/domain"
	"github.com/docflow/docflow-backend/pkg/errors"
	"github.com/docflow/docflow-backend/pkg/testutil"
)

func TestNotifications_ReadSide(t *testing.T) {
	e := newEnv(t)

	author := e.seedUser(t)
	first := e.seedUser(t, testutil.WithRole("manager"))
	second := e.seedUser(t, testutil.WithRole("manager"))

	doc := e.createDraft(t, author)
	e.submit(t, author, doc.ID, managerSpec(first.UserID), managerSpec(second.UserID))

	ctx := context.Background()

	count, err := e.Inbox.UnreadCount(ctx, first.UserID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	inbox, err := e.Inbox.ListForUser(ctx, first.UserID, 10)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, domain.NotificationApprovalRequest, inbox[0].Kind)
	assert.False(t, inbox[0].IsRead)

	t.Run("marking read is scoped to the recipient", func(t *testing.T) {
		err := e.Inbox.MarkRead(testutil.ActorContext(second), inbox[0].ID)
		assert.True(t, errors.Is(err, errors.ErrNotFound))

		require.NoError(t, e.Inbox.MarkRead(testutil.ActorContext(first), inbox[0].ID))

		count, err := e.Inbox.UnreadCount(ctx, first.UserID)
		require.NoError(t, err)
		assert.EqualValues(t, 0, count)

		after, err := e.Inbox.ListForUser(ctx, first.UserID, 10)
		require.NoError(t, err)
		require.Len(t, after, 1)
		assert.True(t, after[0].IsRead)
		assert.NotNil(t, after[0].ReadAt)
	})

	t.Run("marking read twice reports not found", func(t *testing.T) {
		err := e.Inbox.MarkRead(testutil.ActorContext(first), inbox[0].ID)
		assert.True(t, errors.Is(err, errors.ErrNotFound))
	})

	t.Run("mark all read clears the counter", func(t *testing.T) {
		count, err := e.Inbox.UnreadCount(ctx, second.UserID)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)

		require.NoError(t, e.Inbox.MarkAllRead(testutil.ActorContext(second)))

		count, err = e.Inbox.UnreadCount(ctx, second.UserID)
		require.NoError(t, err)
		assert.EqualValues(t, 0, count)
	})
}
