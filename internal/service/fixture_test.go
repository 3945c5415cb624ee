package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"onboarding/internal/model"
	"onboarding/internal/repository/memory"
)

var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type fixture struct {
	store         *memory.Store
	now           time.Time
	hr            *model.HrUser
	otherHR       *model.HrUser
	hire          *model.Hire
	tasks         *TaskService
	templates     *TemplateService
	todos         *TodoService
	progress      *ProgressService
	notifications *NotificationService
}

type fixtureOption func(*TodoServiceDeps)

func withBroadcast(scope BroadcastScope) fixtureOption {
	return func(d *TodoServiceDeps) { d.Broadcast = BroadcastPolicy{Enabled: true, Scope: scope} }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	f := &fixture{now: testNow}
	clock := Clock(func() time.Time { return f.now })
	f.store = memory.New().WithClock(clock)
	log := zaptest.NewLogger(t)

	companyA, companyB := 1, 2
	deptA := 10
	f.store.AddDepartment(model.Department{ID: deptA, CompanyID: companyA, Name: "Engineering"})
	f.hr = &model.HrUser{
		Identity:     model.Identity{ID: uuid.New(), Email: "hr@a.example", FirstName: "Hanna", LastName: "Reyes", CompanyID: &companyA},
		DepartmentID: &deptA,
	}
	f.otherHR = &model.HrUser{
		Identity: model.Identity{ID: uuid.New(), Email: "hr@b.example", FirstName: "Omar", LastName: "Berg", CompanyID: &companyB},
	}
	f.hire = &model.Hire{
		Identity:       model.Identity{ID: uuid.New(), Email: "new@a.example", FirstName: "Ada", LastName: "Lovelace", CompanyID: &companyA},
		RegisteredByHR: f.hr.ID,
		DepartmentID:   &deptA,
	}
	f.store.AddUser(f.hr)
	f.store.AddUser(f.otherHR)
	f.store.AddUser(f.hire)

	notifier := NewStoreNotifier(log)
	materializer := NewMaterializer(clock, log)
	f.progress = NewProgressService(f.store, clock, log)
	f.tasks = NewTaskService(f.store, log)
	f.templates = NewTemplateService(TemplateServiceDeps{
		Store:        f.store,
		Materializer: materializer,
		Progress:     f.progress,
		Notifier:     notifier,
		Logger:       log,
	})
	deps := TodoServiceDeps{
		Store:        f.store,
		Progress:     f.progress,
		Materializer: materializer,
		Notifier:     notifier,
		Clock:        clock,
		Logger:       log,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	f.todos = NewTodoService(deps)
	f.notifications = NewNotificationService(f.store, log)
	return f
}

func (f *fixture) template(t *testing.T, taskTitles ...string) *model.Template {
	t.Helper()
	ctx := context.Background()
	tmpl, err := f.templates.CreateTemplate(ctx, TemplateInput{Title: "Onboarding", HRID: f.hr.ID})
	require.NoError(t, err)
	for _, title := range taskTitles {
		_, err := f.tasks.AddTask(ctx, tmpl.ID, TaskInput{Title: title, Type: model.TaskResource})
		require.NoError(t, err)
	}
	return tmpl
}

func (f *fixture) addTask(t *testing.T, templateID int, in TaskInput) *model.Task {
	t.Helper()
	if in.Type == "" {
		in.Type = model.TaskResource
	}
	task, err := f.tasks.AddTask(context.Background(), templateID, in)
	require.NoError(t, err)
	return task
}

func (f *fixture) orderOf(t *testing.T, templateID int) map[string]int {
	t.Helper()
	tasks, err := f.tasks.ListTasks(context.Background(), templateID)
	require.NoError(t, err)
	out := make(map[string]int, len(tasks))
	for _, task := range tasks {
		out[task.Title] = task.OrderIndex
	}
	return out
}

func (f *fixture) notificationsOf(t *testing.T, userID uuid.UUID, typ model.NotificationType) []model.Notification {
	t.Helper()
	all, err := f.notifications.List(context.Background(), userID, false)
	require.NoError(t, err)
	var out []model.Notification
	for _, n := range all {
		if n.Type == typ {
			out = append(out, n)
		}
	}
	return out
}
