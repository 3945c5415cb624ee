package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"onboarding/internal/model"
)

type TodoRepository struct {
	db     querier
	logger *zap.Logger
}

const todoColumns = `id, hire_id, task_id, template_id, status, due_date, completed_at,
               reminder_sent_at, created_at, updated_at`

// InsertBatch queues every insert in one pgx.Batch; the first failure aborts the rest.
func (r *TodoRepository) InsertBatch(ctx context.Context, todos []*model.Todo) error {
	if len(todos) == 0 {
		return nil
	}
	r.logger.Debug("Inserting todo batch", zap.Int("count", len(todos)))

	query := `
        INSERT INTO todos (hire_id, task_id, template_id, status, due_date)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at, updated_at
    `
	batch := &pgx.Batch{}
	for _, t := range todos {
		batch.Queue(query, t.HireID, t.TaskID, t.TemplateID, t.Status, t.DueDate)
	}

	results := r.db.SendBatch(ctx, batch)
	for _, t := range todos {
		if err := results.QueryRow().Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			_ = results.Close()
			r.logger.Error("Failed to insert todo",
				zap.String("hire_id", t.HireID.String()),
				zap.Int("task_id", t.TaskID),
				zap.Error(err),
			)
			return mapErr(err, "insert todo batch")
		}
	}
	if err := results.Close(); err != nil {
		return mapErr(err, "insert todo batch")
	}

	r.logger.Info("Todo batch inserted", zap.Int("count", len(todos)))
	return nil
}

func (r *TodoRepository) Get(ctx context.Context, id int) (*model.Todo, error) {
	t, err := scanTodo(r.db.QueryRow(ctx, `SELECT `+todoColumns+` FROM todos WHERE id = $1`, id))
	if err != nil {
		return nil, mapErr(err, "get todo")
	}
	return t, nil
}

func (r *TodoRepository) GetForUpdate(ctx context.Context, id int) (*model.Todo, error) {
	t, err := scanTodo(r.db.QueryRow(ctx, `SELECT `+todoColumns+` FROM todos WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, mapErr(err, "lock todo")
	}
	return t, nil
}

func (r *TodoRepository) Update(ctx context.Context, t *model.Todo) error {
	query := `
        UPDATE todos
        SET status = $2, completed_at = $3, reminder_sent_at = $4, updated_at = NOW()
        WHERE id = $1
        RETURNING updated_at
    `
	err := r.db.QueryRow(ctx, query, t.ID, t.Status, t.CompletedAt, t.ReminderSentAt).Scan(&t.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to update todo", zap.Int("todo_id", t.ID), zap.Error(err))
		return mapErr(err, "update todo")
	}
	return nil
}

func (r *TodoRepository) CountByHireAndTemplate(ctx context.Context, hireID uuid.UUID, templateID int) (int, int, error) {
	query := `
        SELECT COUNT(*), COUNT(*) FILTER (WHERE status = 'COMPLETED')
        FROM todos
        WHERE hire_id = $1 AND template_id = $2
    `
	var total, completed int
	if err := r.db.QueryRow(ctx, query, hireID, templateID).Scan(&total, &completed); err != nil {
		return 0, 0, mapErr(err, "count todos")
	}
	return total, completed, nil
}

func (r *TodoRepository) CountByHire(ctx context.Context, hireID uuid.UUID) (int, int, error) {
	query := `
        SELECT COUNT(*), COUNT(*) FILTER (WHERE status = 'COMPLETED')
        FROM todos
        WHERE hire_id = $1
    `
	var total, completed int
	if err := r.db.QueryRow(ctx, query, hireID).Scan(&total, &completed); err != nil {
		return 0, 0, mapErr(err, "count todos")
	}
	return total, completed, nil
}

func (r *TodoRepository) CountByTemplate(ctx context.Context, templateID int) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM todos WHERE template_id = $1`, templateID).Scan(&n); err != nil {
		return 0, mapErr(err, "count todos")
	}
	return n, nil
}

func (r *TodoRepository) ListByHire(ctx context.Context, hireID uuid.UUID) ([]model.Todo, error) {
	return r.list(ctx, `SELECT `+todoColumns+` FROM todos WHERE hire_id = $1 ORDER BY due_date ASC, id ASC`, hireID)
}

func (r *TodoRepository) ListByHireAndStatus(ctx context.Context, hireID uuid.UUID, status model.TodoStatus) ([]model.Todo, error) {
	return r.list(ctx, `SELECT `+todoColumns+`
        FROM todos WHERE hire_id = $1 AND status = $2
        ORDER BY due_date ASC, id ASC`, hireID, status)
}

func (r *TodoRepository) ListByTemplate(ctx context.Context, templateID int) ([]model.Todo, error) {
	return r.list(ctx, `SELECT `+todoColumns+` FROM todos WHERE template_id = $1 ORDER BY id ASC`, templateID)
}

func (r *TodoRepository) ListByHR(ctx context.Context, hrID uuid.UUID) ([]model.Todo, error) {
	return r.list(ctx, `SELECT t.id, t.hire_id, t.task_id, t.template_id, t.status, t.due_date, t.completed_at,
               t.reminder_sent_at, t.created_at, t.updated_at
        FROM todos t
        JOIN users u ON u.id = t.hire_id
        WHERE u.registered_by_hr = $1
        ORDER BY t.due_date ASC, t.id ASC`, hrID)
}

func (r *TodoRepository) ListByStatus(ctx context.Context, status model.TodoStatus) ([]model.Todo, error) {
	return r.list(ctx, `SELECT `+todoColumns+` FROM todos WHERE status = $1 ORDER BY due_date ASC, id ASC`, status)
}

func (r *TodoRepository) ListOverdue(ctx context.Context, now time.Time) ([]model.Todo, error) {
	return r.list(ctx, `SELECT `+todoColumns+`
        FROM todos
        WHERE status = 'PENDING' AND due_date < $1
        ORDER BY due_date ASC, id ASC`, now)
}

func (r *TodoRepository) list(ctx context.Context, query string, args ...any) ([]model.Todo, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query todos", zap.Error(err))
		return nil, mapErr(err, "list todos")
	}
	defer rows.Close()

	todos := []model.Todo{}
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			r.logger.Error("Failed to scan todo row", zap.Error(err))
			return nil, mapErr(err, "scan todo")
		}
		todos = append(todos, *t)
	}
	return todos, rows.Err()
}

func scanTodo(row pgx.Row) (*model.Todo, error) {
	var t model.Todo
	err := row.Scan(
		&t.ID,
		&t.HireID,
		&t.TaskID,
		&t.TemplateID,
		&t.Status,
		&t.DueDate,
		&t.CompletedAt,
		&t.ReminderSentAt,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
