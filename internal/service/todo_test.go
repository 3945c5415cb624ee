package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mqcontract "onboarding/contracts/mq"
	"onboarding/internal/model"
)

func assignOne(t *testing.T, f *fixture, in TaskInput) (*model.Template, model.Todo) {
	t.Helper()
	tmpl := f.template(t)
	f.addTask(t, tmpl.ID, in)
	res, err := f.templates.AssignToHire(context.Background(), tmpl.ID, f.hire.ID)
	require.NoError(t, err)
	require.Len(t, res.Todos, 1)
	return tmpl, res.Todos[0]
}

func TestCompleteTwiceHasOneEffect(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tmpl := f.template(t)
	f.addTask(t, tmpl.ID, TaskInput{Title: "NDA", Type: model.TaskDocument, RequiresSignature: true})
	f.addTask(t, tmpl.ID, TaskInput{Title: "Laptop"})
	res, err := f.templates.AssignToHire(ctx, tmpl.ID, f.hire.ID)
	require.NoError(t, err)
	nda := res.Todos[0]

	first, err := f.todos.Complete(ctx, nda.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TodoCompleted, first.Status)
	require.NotNil(t, first.CompletedAt)
	assert.Equal(t, testNow, *first.CompletedAt)

	f.now = testNow.Add(time.Hour)
	second, err := f.todos.Complete(ctx, nda.ID)
	require.NoError(t, err)
	assert.Equal(t, *first.CompletedAt, *second.CompletedAt)

	signed := f.notificationsOf(t, f.hr.ID, model.NotificationDocumentSigned)
	require.Len(t, signed, 1)
	assert.Equal(t, "Document for task 'NDA' has been signed and requires your review", signed[0].Message)
	require.NotNil(t, signed[0].RelatedTaskID)
	assert.Equal(t, nda.TaskID, *signed[0].RelatedTaskID)

	p, err := f.progress.Get(ctx, f.hire.ID, tmpl.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, p.CompletedTasks)
	assert.Equal(t, 50.0, p.CompletionPercentage)

	var completedEvents int
	for _, e := range f.store.OutboxEvents() {
		if e.RoutingKey == mqcontract.RoutingTodoCompleted {
			completedEvents++
		}
	}
	assert.Equal(t, 1, completedEvents)
}

func TestCompleteWithoutSignatureSendsNothingByDefault(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tmpl := f.template(t, "a", "b")
	res, err := f.templates.AssignToHire(ctx, tmpl.ID, f.hire.ID)
	require.NoError(t, err)

	_, err = f.todos.Complete(ctx, res.Todos[0].ID)
	require.NoError(t, err)

	assert.Empty(t, f.notificationsOf(t, f.hr.ID, model.NotificationDocumentSigned))
	assert.Empty(t, f.notificationsOf(t, f.hr.ID, model.NotificationTaskCompleted))
	assert.Empty(t, f.notificationsOf(t, f.hr.ID, model.NotificationOnboardingCompleted))
}

func TestOnboardingCompletedWhenEverythingDone(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tmpl := f.template(t, "a", "b", "c")
	res, err := f.templates.AssignToHire(ctx, tmpl.ID, f.hire.ID)
	require.NoError(t, err)

	for i, todo := range res.Todos {
		_, err := f.todos.Complete(ctx, todo.ID)
		require.NoError(t, err)
		done := f.notificationsOf(t, f.hr.ID, model.NotificationOnboardingCompleted)
		if i < len(res.Todos)-1 {
			assert.Empty(t, done)
		} else {
			require.Len(t, done, 1)
			assert.Equal(t, "Onboarding has been completed by Ada Lovelace", done[0].Message)
		}
	}

	overall, err := f.progress.OverallCompletion(ctx, f.hire.ID)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, overall, 1e-9)
}

func TestTaskCompletedBroadcastScopes(t *testing.T) {
	cases := []struct {
		scope    BroadcastScope
		otherHRs int
	}{
		{BroadcastAll, 1},
		{BroadcastCompany, 0},
		{BroadcastDepartment, 0},
	}
	for _, tc := range cases {
		t.Run(string(tc.scope), func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t, withBroadcast(tc.scope))
			_, todo := assignOne(t, f, TaskInput{Title: "Laptop"})

			_, err := f.todos.Complete(ctx, todo.ID)
			require.NoError(t, err)

			mine := f.notificationsOf(t, f.hr.ID, model.NotificationTaskCompleted)
			require.Len(t, mine, 1)
			assert.Equal(t, "Task 'Laptop' has been completed by Ada Lovelace", mine[0].Message)
			assert.Len(t, f.notificationsOf(t, f.otherHR.ID, model.NotificationTaskCompleted), tc.otherHRs)
		})
	}
}

func TestCompleteManySkipsFailures(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tmpl := f.template(t, "a", "b")
	res, err := f.templates.AssignToHire(ctx, tmpl.ID, f.hire.ID)
	require.NoError(t, err)

	done, err := f.todos.CompleteMany(ctx, []int{res.Todos[0].ID, 9999, res.Todos[1].ID})
	require.NoError(t, err)
	assert.Len(t, done, 2)

	p, err := f.progress.Get(ctx, f.hire.ID, tmpl.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, p.CompletionPercentage)
}

func TestSendReminder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, todo := assignOne(t, f, TaskInput{Title: "Benefits"})

	f.now = testNow.Add(48 * time.Hour)
	got, err := f.todos.SendReminder(ctx, todo.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TodoPending, got.Status)
	require.NotNil(t, got.ReminderSentAt)
	assert.Equal(t, f.now, *got.ReminderSentAt)

	reminders := f.notificationsOf(t, f.hire.ID, model.NotificationReminder)
	require.Len(t, reminders, 1)
	assert.Equal(t, "Reminder: Task 'Benefits' is due soon. Please complete it.", reminders[0].Message)
}

func TestRequestSignature(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tmpl := f.template(t)
	f.addTask(t, tmpl.ID, TaskInput{Title: "Contract", Type: model.TaskDocument, RequiresSignature: true})
	f.addTask(t, tmpl.ID, TaskInput{Title: "Intro"})
	res, err := f.templates.AssignToHire(ctx, tmpl.ID, f.hire.ID)
	require.NoError(t, err)

	_, err = f.todos.RequestSignature(ctx, res.Todos[0].ID)
	require.NoError(t, err)
	_, err = f.todos.RequestSignature(ctx, res.Todos[1].ID)
	require.ErrorIs(t, err, ErrValidation)

	reqs := f.notificationsOf(t, f.hire.ID, model.NotificationSignatureRequest)
	require.Len(t, reqs, 1)
	assert.Equal(t, "Please review and sign the document for task 'Contract'", reqs[0].Message)
	assert.Equal(t, testNow.Add(signatureDueWindow), res.Todos[0].DueDate)
}

func TestDirectStatusWritesHaveNoSideEffects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, todo := assignOne(t, f, TaskInput{Title: "a"})

	got, err := f.todos.MarkInProgress(ctx, todo.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TodoInProgress, got.Status)
	got, err = f.todos.MarkOverdue(ctx, todo.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TodoOverdue, got.Status)

	assert.Empty(t, f.notificationsOf(t, f.hire.ID, model.NotificationOverdueTask))
	_, err = f.todos.MarkOverdue(ctx, 31337)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCompletedTodoIsTerminal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tmpl := f.template(t)
	f.addTask(t, tmpl.ID, TaskInput{Title: "NDA", Type: model.TaskDocument, RequiresSignature: true})
	f.addTask(t, tmpl.ID, TaskInput{Title: "Laptop"})
	res, err := f.templates.AssignToHire(ctx, tmpl.ID, f.hire.ID)
	require.NoError(t, err)
	nda := res.Todos[0]

	first, err := f.todos.Complete(ctx, nda.ID)
	require.NoError(t, err)

	_, err = f.todos.MarkInProgress(ctx, nda.ID)
	require.ErrorIs(t, err, ErrConflict)
	_, err = f.todos.MarkOverdue(ctx, nda.ID)
	require.ErrorIs(t, err, ErrConflict)

	stored, err := f.todos.Get(ctx, nda.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TodoCompleted, stored.Status)

	f.now = testNow.Add(48 * time.Hour)
	again, err := f.todos.Complete(ctx, nda.ID)
	require.NoError(t, err)
	require.NotNil(t, again.CompletedAt)
	assert.Equal(t, *first.CompletedAt, *again.CompletedAt)
	assert.Len(t, f.notificationsOf(t, f.hr.ID, model.NotificationDocumentSigned), 1)

	before, err := f.progress.Get(ctx, f.hire.ID, tmpl.ID)
	require.NoError(t, err)
	after, err := f.progress.Recalculate(ctx, f.hire.ID, tmpl.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, after.CompletedTasks)
	assert.Equal(t, before.CompletedTasks, after.CompletedTasks)
	assert.Equal(t, before.CompletionPercentage, after.CompletionPercentage)
}

func TestFindAndEscalateOverdue(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	due := testNow.Add(24 * time.Hour)
	_, todo := assignOne(t, f, TaskInput{Title: "Security training", DueDate: &due})

	overdue, err := f.todos.FindOverdue(ctx)
	require.NoError(t, err)
	assert.Empty(t, overdue)

	f.now = due.Add(time.Minute)
	overdue, err = f.todos.FindOverdue(ctx)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, todo.ID, overdue[0].ID)

	got, escalated, err := f.todos.EscalateOverdue(ctx, todo.ID)
	require.NoError(t, err)
	assert.True(t, escalated)
	assert.Equal(t, model.TodoOverdue, got.Status)

	_, escalated, err = f.todos.EscalateOverdue(ctx, todo.ID)
	require.NoError(t, err)
	assert.False(t, escalated)

	notes := f.notificationsOf(t, f.hire.ID, model.NotificationOverdueTask)
	require.Len(t, notes, 1)
	assert.Equal(t, "Task 'Security training' is overdue. Please complete it as soon as possible.", notes[0].Message)

	overdue, err = f.todos.FindOverdue(ctx)
	require.NoError(t, err)
	assert.Empty(t, overdue)
}

func TestEscalateCompletedTodoIsNoop(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, todo := assignOne(t, f, TaskInput{Title: "a"})
	_, err := f.todos.Complete(ctx, todo.ID)
	require.NoError(t, err)

	got, escalated, err := f.todos.EscalateOverdue(ctx, todo.ID)
	require.NoError(t, err)
	assert.False(t, escalated)
	assert.Equal(t, model.TodoCompleted, got.Status)
}

func TestCreateTodosFromTemplateAndPercentage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tmpl := f.template(t, "a", "b", "c", "d")

	todos, err := f.todos.CreateTodosFromTemplate(ctx, tmpl.ID, f.hire.ID)
	require.NoError(t, err)
	require.Len(t, todos, 4)

	_, err = f.todos.CreateTodosFromTemplate(ctx, tmpl.ID, f.hire.ID)
	require.ErrorIs(t, err, ErrConflict)

	// completion initializes the missing progress row
	_, err = f.todos.Complete(ctx, todos[0].ID)
	require.NoError(t, err)
	pct, err := f.todos.ProgressPercentage(ctx, f.hire.ID)
	require.NoError(t, err)
	assert.Equal(t, 25.0, pct)

	p, err := f.progress.Get(ctx, f.hire.ID, tmpl.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, p.TotalTasks)
	assert.Equal(t, 25.0, p.CompletionPercentage)

	pending, err := f.todos.ListByHireAndStatus(ctx, f.hire.ID, model.TodoPending)
	require.NoError(t, err)
	assert.Len(t, pending, 3)
	byHR, err := f.todos.ListByHR(ctx, f.hr.ID)
	require.NoError(t, err)
	assert.Len(t, byHR, 4)
}
