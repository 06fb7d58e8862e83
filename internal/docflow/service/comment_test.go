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

func TestCommentCreate_AccessRules(t *testing.T) {
	e := newEnv(t)

	author := e.seedUser(t)
	viewer := e.seedUser(t)
	commenter := e.seedUser(t)
	doc := e.createDraft(t, author)

	require.NoError(t, e.Access.Grant(testutil.ActorContext(author), &domain.DocumentAccess{
		DocumentID:  doc.ID,
		UserID:      viewer.UserID,
		AccessLevel: domain.AccessLevelView,
	}))
	require.NoError(t, e.Access.Grant(testutil.ActorContext(author), &domain.DocumentAccess{
		DocumentID:  doc.ID,
		UserID:      commenter.UserID,
		AccessLevel: domain.AccessLevelViewAndComment,
	}))

	t.Run("a view-only grant cannot comment", func(t *testing.T) {
		err := e.Comments.Create(testutil.ActorContext(viewer), &domain.Comment{
			DocumentID: doc.ID,
			Content:    "drive-by remark",
		})
		assert.True(t, errors.Is(err, errors.ErrForbidden))
	})

	t.Run("a comment grant notifies the author", func(t *testing.T) {
		c := &domain.Comment{
			DocumentID: doc.ID,
			Content:    "section 2 needs numbers",
		}
		require.NoError(t, e.Comments.Create(testutil.ActorContext(commenter), c))
		assert.Equal(t, commenter.UserID, c.AuthorID)

		inbox, err := e.Notifications.ListForUser(context.Background(), author.UserID, 10)
		require.NoError(t, err)
		require.Len(t, inbox, 1)
		assert.Equal(t, domain.NotificationComment, inbox[0].Kind)
	})

	t.Run("the author commenting does not notify themselves", func(t *testing.T) {
		require.NoError(t, e.Comments.Create(testutil.ActorContext(author), &domain.Comment{
			DocumentID: doc.ID,
			Content:    "will add numbers",
		}))

		inbox, err := e.Notifications.ListForUser(context.Background(), author.UserID, 10)
		require.NoError(t, err)
		assert.Len(t, inbox, 1)
	})
}

func TestCommentCreate_ReplyStaysOnTheSameDocument(t *testing.T) {
	e := newEnv(t)

	author := e.seedUser(t)
	doc := e.createDraft(t, author)
	other := e.createDraft(t, author)

	root := &domain.Comment{DocumentID: doc.ID, Content: "first"}
	require.NoError(t, e.Comments.Create(testutil.ActorContext(author), root))

	err := e.Comments.Create(testutil.ActorContext(author), &domain.Comment{
		DocumentID: other.ID,
		ParentID:   &root.ID,
		Content:    "reply in the wrong place",
	})
	assert.True(t, errors.Is(err, errors.ErrBadRequest))

	reply := &domain.Comment{DocumentID: doc.ID, ParentID: &root.ID, Content: "reply"}
	require.NoError(t, e.Comments.Create(testutil.ActorContext(author), reply))

	thread, err := e.Comments.ListByDocument(testutil.ActorContext(author), doc.ID)
	require.NoError(t, err)
	require.Len(t, thread, 2)
}

func TestCommentEditAndDelete_AuthorScoped(t *testing.T) {
	e := newEnv(t)

	author := e.seedUser(t)
	admin := e.seedUser(t, testutil.WithRole("administrator"))
	doc := e.createDraft(t, author)

	c := &domain.Comment{DocumentID: doc.ID, Content: "draft wording"}
	require.NoError(t, e.Comments.Create(testutil.ActorContext(author), c))

	t.Run("only the comment author can edit", func(t *testing.T) {
		err := e.Comments.Update(testutil.ActorContext(admin), c.ID, "rewritten")
		assert.True(t, errors.Is(err, errors.ErrNotFound))

		require.NoError(t, e.Comments.Update(testutil.ActorContext(author), c.ID, "final wording"))
	})

	t.Run("deleting hides the comment", func(t *testing.T) {
		require.NoError(t, e.Comments.Delete(testutil.ActorContext(author), c.ID))

		err := e.Comments.Delete(testutil.ActorContext(author), c.ID)
		assert.True(t, errors.Is(err, errors.ErrNotFound))
	})
}
