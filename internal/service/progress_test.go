package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onboarding/internal/model"
)

func TestWeightedCompletion(t *testing.T) {
	assert.Zero(t, WeightedCompletion(nil))
	assert.Zero(t, WeightedCompletion([]model.Progress{{TotalTasks: 0}}))

	rows := []model.Progress{
		{TotalTasks: 4, CompletedTasks: 2, CompletionPercentage: 50},
		{TotalTasks: 2, CompletedTasks: 2, CompletionPercentage: 100},
	}
	assert.InDelta(t, 66.67, WeightedCompletion(rows), 0.01)
}

func TestFilterAtRisk(t *testing.T) {
	now := testNow
	rows := []model.Progress{
		{ID: 1, CompletionPercentage: 30, CreatedAt: now.Add(-10 * 24 * time.Hour)},
		{ID: 2, CompletionPercentage: 80, CreatedAt: now.Add(-10 * 24 * time.Hour)},
		{ID: 3, CompletionPercentage: 20, CreatedAt: now.Add(-3 * 24 * time.Hour)},
	}
	risky := FilterAtRisk(rows, now)
	require.Len(t, risky, 1)
	assert.Equal(t, 1, risky[0].ID)
}

func TestRecalculateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tmpl := f.template(t, "a", "b", "c")
	res, err := f.templates.AssignToHire(ctx, tmpl.ID, f.hire.ID)
	require.NoError(t, err)
	_, err = f.todos.Complete(ctx, res.Todos[0].ID)
	require.NoError(t, err)

	first, err := f.progress.Recalculate(ctx, f.hire.ID, tmpl.ID)
	require.NoError(t, err)
	f.now = testNow.Add(time.Minute)
	second, err := f.progress.Recalculate(ctx, f.hire.ID, tmpl.ID)
	require.NoError(t, err)

	assert.Equal(t, first.TotalTasks, second.TotalTasks)
	assert.Equal(t, first.CompletedTasks, second.CompletedTasks)
	assert.Equal(t, first.CompletionPercentage, second.CompletionPercentage)
	assert.InDelta(t, 100.0/3, second.CompletionPercentage, 1e-9)
	assert.Equal(t, f.now, second.LastUpdated)

	byTodo, err := f.progress.OnTodoCompleted(ctx, res.Todos[0].ID)
	require.NoError(t, err)
	assert.Equal(t, second.CompletedTasks, byTodo.CompletedTasks)
}

func TestOverallCompletionAcrossTemplates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	overall, err := f.progress.OverallCompletion(ctx, f.hire.ID)
	require.NoError(t, err)
	assert.Zero(t, overall)

	big := f.template(t, "a", "b", "c", "d")
	small := f.template(t, "x", "y")
	bigRes, err := f.templates.AssignToHire(ctx, big.ID, f.hire.ID)
	require.NoError(t, err)
	smallRes, err := f.templates.AssignToHire(ctx, small.ID, f.hire.ID)
	require.NoError(t, err)

	_, err = f.todos.CompleteMany(ctx, []int{bigRes.Todos[0].ID, bigRes.Todos[1].ID, smallRes.Todos[0].ID, smallRes.Todos[1].ID})
	require.NoError(t, err)

	overall, err = f.progress.OverallCompletion(ctx, f.hire.ID)
	require.NoError(t, err)
	assert.InDelta(t, 66.67, overall, 0.01)
	assert.Empty(t, f.notificationsOf(t, f.hr.ID, model.NotificationOnboardingCompleted))
}

func TestHRAggregates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	second := &model.Hire{
		Identity:       model.Identity{ID: uuid.New(), Email: "second@a.example", FirstName: "Grace", LastName: "Hopper"},
		RegisteredByHR: f.hr.ID,
	}
	f.store.AddUser(second)

	avg, err := f.progress.AverageCompletionForHR(ctx, f.hr.ID)
	require.NoError(t, err)
	assert.Zero(t, avg)

	tmpl := f.template(t, "a", "b")
	first, err := f.templates.AssignToHire(ctx, tmpl.ID, f.hire.ID)
	require.NoError(t, err)
	_, err = f.templates.AssignToHire(ctx, tmpl.ID, second.ID)
	require.NoError(t, err)
	_, err = f.todos.CompleteMany(ctx, []int{first.Todos[0].ID, first.Todos[1].ID})
	require.NoError(t, err)

	avg, err = f.progress.AverageCompletionForHR(ctx, f.hr.ID)
	require.NoError(t, err)
	assert.Equal(t, 50.0, avg)

	done, err := f.progress.CountCompletedForHR(ctx, f.hr.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, done)

	risky, err := f.progress.AtRisk(ctx, f.hr.ID)
	require.NoError(t, err)
	assert.Empty(t, risky)

	f.now = testNow.Add(10 * 24 * time.Hour)
	risky, err = f.progress.AtRisk(ctx, f.hr.ID)
	require.NoError(t, err)
	require.Len(t, risky, 1)
	assert.Equal(t, second.ID, risky[0].HireID)

	other, err := f.progress.ListByHR(ctx, f.otherHR.ID)
	require.NoError(t, err)
	assert.Empty(t, other)
}
