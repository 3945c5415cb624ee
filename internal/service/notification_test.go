package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mqcontract "onboarding/contracts/mq"
	"onboarding/internal/model"
)

func TestNotificationReadFlow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, todo := assignOne(t, f, TaskInput{Title: "a"})
	_, err := f.todos.SendReminder(ctx, todo.ID)
	require.NoError(t, err)
	_, err = f.todos.SendReminder(ctx, todo.ID)
	require.NoError(t, err)

	unread, err := f.notifications.CountUnread(ctx, f.hire.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, unread)

	list, err := f.notifications.List(ctx, f.hire.ID, true)
	require.NoError(t, err)
	require.Len(t, list, 2)

	// someone else's notification looks missing
	require.ErrorIs(t, f.notifications.MarkAsRead(ctx, f.hr.ID, list[0].ID), ErrNotFound)
	require.NoError(t, f.notifications.MarkAsRead(ctx, f.hire.ID, list[0].ID))

	n, err := f.notifications.MarkAllAsRead(ctx, f.hire.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNotifierEnqueuesEvent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, todo := assignOne(t, f, TaskInput{Title: "a"})
	_, err := f.todos.SendReminder(ctx, todo.ID)
	require.NoError(t, err)

	var created []string
	for _, e := range f.store.OutboxEvents() {
		if e.RoutingKey == mqcontract.RoutingNotificationCreated {
			created = append(created, string(e.Payload))
		}
	}
	// ONBOARDING_STARTED plus the reminder
	require.Len(t, created, 2)
	assert.Contains(t, created[1], string(model.NotificationReminder))
}
