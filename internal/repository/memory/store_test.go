package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onboarding/internal/model"
	"onboarding/internal/store"
)

var fixedNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func seeded(t *testing.T) (*Store, *model.Template) {
	t.Helper()
	s := New().WithClock(func() time.Time { return fixedNow })
	tmpl := &model.Template{Title: "Engineering", Status: model.TemplatePending, CreatedByHR: uuid.New()}
	require.NoError(t, s.Templates().Insert(context.Background(), tmpl))
	return s, tmpl
}

func TestInTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s, tmpl := seeded(t)
	boom := errors.New("boom")

	err := s.InTx(ctx, func(tx store.Store) error {
		require.NoError(t, tx.Tasks().Insert(ctx, &model.Task{TemplateID: tmpl.ID, Title: "a", OrderIndex: 1}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	tasks, err := s.Tasks().ListByTemplate(ctx, tmpl.ID)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestInTxChecksDeferredOrderConstraintAtCommit(t *testing.T) {
	ctx := context.Background()
	s, tmpl := seeded(t)
	a := &model.Task{TemplateID: tmpl.ID, Title: "a", OrderIndex: 1}
	b := &model.Task{TemplateID: tmpl.ID, Title: "b", OrderIndex: 2}
	require.NoError(t, s.Tasks().Insert(ctx, a))
	require.NoError(t, s.Tasks().Insert(ctx, b))

	// transient duplicate inside the transaction is fine
	err := s.InTx(ctx, func(tx store.Store) error {
		require.NoError(t, tx.Tasks().SetOrderIndex(ctx, a.ID, 2))
		return tx.Tasks().SetOrderIndex(ctx, b.ID, 1)
	})
	require.NoError(t, err)

	err = s.InTx(ctx, func(tx store.Store) error {
		return tx.Tasks().SetOrderIndex(ctx, a.ID, 1)
	})
	require.ErrorIs(t, err, store.ErrDuplicate)

	got, err := s.Tasks().Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.OrderIndex)
}

func TestTodoInsertBatchIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s, tmpl := seeded(t)
	task := &model.Task{TemplateID: tmpl.ID, Title: "a", OrderIndex: 1}
	require.NoError(t, s.Tasks().Insert(ctx, task))
	hire := uuid.New()

	err := s.Todos().InsertBatch(ctx, []*model.Todo{
		{HireID: hire, TaskID: task.ID, TemplateID: tmpl.ID, Status: model.TodoPending},
		{HireID: hire, TaskID: task.ID, TemplateID: tmpl.ID, Status: model.TodoPending},
	})
	require.ErrorIs(t, err, store.ErrDuplicate)

	total, _, err := s.Todos().CountByHire(ctx, hire)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestProgressInsertRejectsDuplicatePair(t *testing.T) {
	ctx := context.Background()
	s, tmpl := seeded(t)
	hire := uuid.New()

	p := &model.Progress{HireID: hire, TemplateID: tmpl.ID, TotalTasks: 3}
	require.NoError(t, s.Progress().Insert(ctx, p))
	assert.Equal(t, fixedNow, p.CreatedAt)

	err := s.Progress().Insert(ctx, &model.Progress{HireID: hire, TemplateID: tmpl.ID})
	require.ErrorIs(t, err, store.ErrDuplicate)
}

func TestUserLookupsRespectVariant(t *testing.T) {
	ctx := context.Background()
	s := New()
	hrID, hireID := uuid.New(), uuid.New()
	s.AddUser(&model.HrUser{Identity: model.Identity{ID: hrID, Email: "hr@example.com"}})
	s.AddUser(&model.Hire{Identity: model.Identity{ID: hireID, Email: "new@example.com"}, RegisteredByHR: hrID})

	_, err := s.Users().GetHire(ctx, hrID)
	require.ErrorIs(t, err, store.ErrNotFound)

	hire, err := s.Users().GetHire(ctx, hireID)
	require.NoError(t, err)
	assert.Equal(t, hrID, hire.RegisteredByHR)

	hrs, err := s.Users().ListHrUsers(ctx)
	require.NoError(t, err)
	require.Len(t, hrs, 1)
	assert.Equal(t, hrID, hrs[0].ID)
}

func TestNotificationsReadFlag(t *testing.T) {
	ctx := context.Background()
	s := New()
	user := uuid.New()
	for range 3 {
		require.NoError(t, s.Notifications().Insert(ctx, &model.Notification{UserID: user, Type: model.NotificationGeneral}))
	}

	all, err := s.Notifications().ListByUser(ctx, user, false)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.NoError(t, s.Notifications().MarkAsRead(ctx, all[0].ID))

	unread, err := s.Notifications().CountUnread(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 2, unread)

	n, err := s.Notifications().MarkAllAsRead(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSeedFileApply(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	content := `departments:
  - id: 10
    company_id: 1
    name: Engineering
hr_users:
  - id: 6f1c2a0e-7d1b-4a8e-9c11-2a1d3b4c5d6e
    email: hr@example.com
    first_name: Hanna
    company_id: 1
    department_id: 10
hires:
  - id: 0b7e6c1a-3f2d-4e5a-8b9c-1d2e3f4a5b6c
    email: ada@example.com
    first_name: Ada
    registered_by_hr: 6f1c2a0e-7d1b-4a8e-9c11-2a1d3b4c5d6e
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	seed, err := LoadSeedFile(path)
	require.NoError(t, err)
	s := New()
	require.NoError(t, seed.Apply(s))

	ctx := context.Background()
	hire, err := s.Users().GetHire(ctx, uuid.MustParse("0b7e6c1a-3f2d-4e5a-8b9c-1d2e3f4a5b6c"))
	require.NoError(t, err)
	assert.Equal(t, uuid.MustParse("6f1c2a0e-7d1b-4a8e-9c11-2a1d3b4c5d6e"), hire.RegisteredByHR)

	hr, err := s.Users().GetHrUser(ctx, hire.RegisteredByHR)
	require.NoError(t, err)
	require.NotNil(t, hr.DepartmentID)
	assert.Equal(t, 10, *hr.DepartmentID)

	dept, err := s.Users().GetDepartment(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, dept.CompanyID)
}
