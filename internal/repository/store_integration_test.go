//go:build integration

package repository_test

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"onboarding/internal/model"
	"onboarding/internal/repository"
	"onboarding/internal/service"
	"onboarding/internal/store"
)

// 需要真实 PostgreSQL：
//   ONBOARDING_TEST_DATABASE_URL=postgres://u:p@localhost:5432/onboarding_test?sslmode=disable \
//   go test -tags integration ./internal/repository/...

type pgEnv struct {
	pool      *pgxpool.Pool
	store     *repository.Store
	tasks     *service.TaskService
	templates *service.TemplateService
	todos     *service.TodoService
	progress  *service.ProgressService
	hr        uuid.UUID
	hire      uuid.UUID
}

func newPgEnv(t *testing.T) *pgEnv {
	t.Helper()
	dsn := os.Getenv("ONBOARDING_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("ONBOARDING_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	migrateURL := "pgx5://" + strings.TrimPrefix(strings.TrimPrefix(dsn, "postgres://"), "postgresql://")
	require.NoError(t, repository.NewMigrator(migrateURL).Up())

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `TRUNCATE outbox_events, notifications, progress, todos, tasks,
        template_departments, templates, users, departments, companies RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	env := &pgEnv{pool: pool, hr: uuid.New(), hire: uuid.New()}
	_, err = pool.Exec(ctx, `INSERT INTO users (id, email, role) VALUES ($1, 'hr@it.example', 'HR')`, env.hr)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `INSERT INTO users (id, email, role, registered_by_hr) VALUES ($1, 'new@it.example', 'NEW_HIRE', $2)`,
		env.hire, env.hr)
	require.NoError(t, err)

	log := zaptest.NewLogger(t)
	env.store = repository.NewStore(pool, log)
	notifier := service.NewStoreNotifier(log)
	materializer := service.NewMaterializer(nil, log)
	env.progress = service.NewProgressService(env.store, nil, log)
	env.tasks = service.NewTaskService(env.store, log)
	env.templates = service.NewTemplateService(service.TemplateServiceDeps{
		Store:        env.store,
		Materializer: materializer,
		Progress:     env.progress,
		Notifier:     notifier,
		Logger:       log,
	})
	env.todos = service.NewTodoService(service.TodoServiceDeps{
		Store:        env.store,
		Progress:     env.progress,
		Materializer: materializer,
		Notifier:     notifier,
		Logger:       log,
	})
	return env
}

func (e *pgEnv) template(t *testing.T, titles ...string) *model.Template {
	t.Helper()
	ctx := context.Background()
	tmpl, err := e.templates.CreateTemplate(ctx, service.TemplateInput{Title: "Onboarding", HRID: e.hr})
	require.NoError(t, err)
	for _, title := range titles {
		_, err := e.tasks.AddTask(ctx, tmpl.ID, service.TaskInput{Title: title, Type: model.TaskResource})
		require.NoError(t, err)
	}
	return tmpl
}

func (e *pgEnv) order(t *testing.T, templateID int) ([]string, []int) {
	t.Helper()
	tasks, err := e.tasks.ListTasks(context.Background(), templateID)
	require.NoError(t, err)
	titles := make([]string, 0, len(tasks))
	indexes := make([]int, 0, len(tasks))
	for _, task := range tasks {
		titles = append(titles, task.Title)
		indexes = append(indexes, task.OrderIndex)
	}
	return titles, indexes
}

func TestPostgresOrderingThroughDeferredConstraint(t *testing.T) {
	ctx := context.Background()
	e := newPgEnv(t)
	tmpl := e.template(t, "a", "b", "c", "d")
	tasks, err := e.tasks.ListTasks(ctx, tmpl.ID)
	require.NoError(t, err)

	require.NoError(t, e.tasks.DeleteTask(ctx, tasks[1].ID))
	titles, indexes := e.order(t, tmpl.ID)
	assert.Equal(t, []string{"a", "c", "d"}, titles)
	assert.Equal(t, []int{1, 2, 3}, indexes)

	_, err = e.tasks.MoveTaskUp(ctx, tasks[3].ID)
	require.NoError(t, err)
	titles, indexes = e.order(t, tmpl.ID)
	assert.Equal(t, []string{"a", "d", "c"}, titles)
	assert.Equal(t, []int{1, 2, 3}, indexes)

	_, err = e.tasks.ReorderTasks(ctx, tmpl.ID, []int{tasks[2].ID, tasks[0].ID, tasks[3].ID})
	require.NoError(t, err)
	titles, indexes = e.order(t, tmpl.ID)
	assert.Equal(t, []string{"c", "a", "d"}, titles)
	assert.Equal(t, []int{1, 2, 3}, indexes)
}

func TestPostgresTodoBatchIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	e := newPgEnv(t)
	tmpl := e.template(t, "a")
	tasks, err := e.tasks.ListTasks(ctx, tmpl.ID)
	require.NoError(t, err)

	due := time.Now().Add(24 * time.Hour)
	err = e.store.InTx(ctx, func(tx store.Store) error {
		return tx.Todos().InsertBatch(ctx, []*model.Todo{
			{HireID: e.hire, TaskID: tasks[0].ID, TemplateID: tmpl.ID, Status: model.TodoPending, DueDate: due},
			{HireID: e.hire, TaskID: 999999, TemplateID: tmpl.ID, Status: model.TodoPending, DueDate: due},
		})
	})
	require.Error(t, err)

	total, _, err := e.store.Todos().CountByHireAndTemplate(ctx, e.hire, tmpl.ID)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestPostgresZeroTaskAssignmentLeavesNoRows(t *testing.T) {
	ctx := context.Background()
	e := newPgEnv(t)
	tmpl := e.template(t)

	_, err := e.templates.AssignToHire(ctx, tmpl.ID, e.hire)
	require.ErrorIs(t, err, service.ErrPrecondition)

	_, err = e.progress.Get(ctx, e.hire, tmpl.ID)
	require.ErrorIs(t, err, service.ErrNotFound)
	got, err := e.templates.GetTemplate(ctx, tmpl.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TemplatePending, got.Status)
}

func TestPostgresConcurrentCompletionsSerializeOnProgressRow(t *testing.T) {
	ctx := context.Background()
	e := newPgEnv(t)
	tmpl := e.template(t, "a", "b", "c", "d")
	res, err := e.templates.AssignToHire(ctx, tmpl.ID, e.hire)
	require.NoError(t, err)
	require.Len(t, res.Todos, 4)

	var wg sync.WaitGroup
	errs := make(chan error, len(res.Todos))
	for _, todo := range res.Todos {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			_, err := e.todos.Complete(ctx, id)
			errs <- err
		}(todo.ID)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	p, err := e.progress.Get(ctx, e.hire, tmpl.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, p.TotalTasks)
	assert.Equal(t, 4, p.CompletedTasks)
	assert.Equal(t, 100.0, p.CompletionPercentage)
}
