package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"onboarding/internal/model"
	"onboarding/internal/store"
	"onboarding/pkg/logger"
	"onboarding/pkg/metrics"
)

const (
	signatureDueWindow = 7 * 24 * time.Hour
	defaultDueWindow   = 14 * 24 * time.Hour
)

// Materializer turns a template's tasks into per-hire todos.
type Materializer struct {
	clock  Clock
	logger *zap.Logger
}

func NewMaterializer(clock Clock, logger *zap.Logger) *Materializer {
	return &Materializer{clock: clock, logger: logger}
}

// CreateTodosFromTemplate inserts one PENDING todo per task, in task order,
// as a single batch inside st's transaction.
func (m *Materializer) CreateTodosFromTemplate(ctx context.Context, st store.Store, tmpl *model.Template, hire *model.Hire) ([]model.Todo, error) {
	log := logger.WithTrace(ctx, m.logger).With(
		zap.Int("template_id", tmpl.ID),
		zap.String("hire_id", hire.ID.String()),
	)

	tasks, err := st.Tasks().ListByTemplate(ctx, tmpl.ID)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	now := m.clock.now()
	batch := make([]*model.Todo, 0, len(tasks))
	for _, task := range tasks {
		batch = append(batch, &model.Todo{
			HireID:     hire.ID,
			TaskID:     task.ID,
			TemplateID: tmpl.ID,
			Status:     model.TodoPending,
			DueDate:    DueDate(task, now),
		})
	}
	if len(batch) == 0 {
		return []model.Todo{}, nil
	}

	if err := st.Todos().InsertBatch(ctx, batch); err != nil {
		log.Error("failed to materialize todos", zap.Int("count", len(batch)), zap.Error(err))
		return nil, mapStoreErr(err)
	}

	todos := make([]model.Todo, len(batch))
	for i, t := range batch {
		todos[i] = *t
	}
	metrics.AddTodosMaterialized(len(todos))
	log.Info("todos materialized", zap.Int("count", len(todos)))
	return todos, nil
}

// DueDate picks the task's event date, then its due date, then a default
// window that is shorter for tasks needing a signature.
func DueDate(task model.Task, now time.Time) time.Time {
	switch {
	case task.EventDate != nil:
		return *task.EventDate
	case task.DueDate != nil:
		return *task.DueDate
	case task.RequiresSignature:
		return now.Add(signatureDueWindow)
	default:
		return now.Add(defaultDueWindow)
	}
}
