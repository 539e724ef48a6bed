package services

import (
	"context"
	"testing"

	"github.com/monocle-dev/taskboard/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComments(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	alice := e.user(t, "Alice")
	bob := e.user(t, "Bob")
	eve := e.user(t, "Eve")

	task, err := e.tasks.Create(ctx, alice.ID, CreateTaskInput{Title: "Ship", AssigneeID: &bob.ID})
	require.NoError(t, err)

	_, err = e.comments.Add(ctx, bob.ID, task.ID, "   ")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = e.comments.Add(ctx, eve.ID, task.ID, "hi")
	assert.ErrorIs(t, err, ErrForbidden)

	first, err := e.comments.Add(ctx, bob.ID, task.ID, " started ")
	require.NoError(t, err)
	assert.Equal(t, "started", first.Text)
	assert.Equal(t, "Bob", first.AuthorName)

	_, err = e.comments.Add(ctx, alice.ID, task.ID, "thanks")
	require.NoError(t, err)

	list, err := e.comments.List(ctx, alice.ID, task.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "started", list[0].Text)
	assert.Equal(t, "Alice", list[1].AuthorName)

	aliceNotes := e.notificationsFor(t, alice.ID)
	require.Len(t, aliceNotes, 1)
	assert.Equal(t, types.NotificationNewComment, aliceNotes[0].Type)
	assert.Equal(t, `Bob commented on task "Ship"`, aliceNotes[0].Message)

	assert.ErrorIs(t, e.comments.Delete(ctx, alice.ID, task.ID, first.ID), ErrForbidden)
	require.NoError(t, e.comments.Delete(ctx, bob.ID, task.ID, first.ID))
	assert.ErrorIs(t, e.comments.Delete(ctx, bob.ID, task.ID, first.ID), ErrNotFound)

	list, err = e.comments.List(ctx, bob.ID, task.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
