package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"onboarding/internal/model"
)

type TaskRepository struct {
	db     querier
	logger *zap.Logger
}

const taskColumns = `id, template_id, title, description, type, requires_signature, resource_url,
               event_date, due_date, COALESCE(priority, ''), estimated_hours, order_index, created_at`

func (r *TaskRepository) Insert(ctx context.Context, t *model.Task) error {
	r.logger.Debug("Inserting task",
		zap.Int("template_id", t.TemplateID),
		zap.String("title", t.Title),
		zap.Int("order_index", t.OrderIndex),
	)
	query := `
        INSERT INTO tasks (template_id, title, description, type, requires_signature, resource_url,
                           event_date, due_date, priority, estimated_hours, order_index)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), $10, $11)
        RETURNING id, created_at
    `
	err := r.db.QueryRow(ctx, query,
		t.TemplateID,
		t.Title,
		t.Description,
		t.Type,
		t.RequiresSignature,
		t.ResourceURL,
		t.EventDate,
		t.DueDate,
		string(t.Priority),
		t.EstimatedHours,
		t.OrderIndex,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to insert task", zap.Int("template_id", t.TemplateID), zap.Error(err))
		return mapErr(err, "insert task")
	}
	r.logger.Info("Task inserted successfully",
		zap.Int("task_id", t.ID),
		zap.Int("template_id", t.TemplateID),
	)
	return nil
}

func (r *TaskRepository) Update(ctx context.Context, t *model.Task) error {
	query := `
        UPDATE tasks
        SET title = $2, description = $3, type = $4, requires_signature = $5, resource_url = $6,
            event_date = $7, due_date = $8, priority = NULLIF($9, ''), estimated_hours = $10
        WHERE id = $1
    `
	tag, err := r.db.Exec(ctx, query,
		t.ID,
		t.Title,
		t.Description,
		t.Type,
		t.RequiresSignature,
		t.ResourceURL,
		t.EventDate,
		t.DueDate,
		string(t.Priority),
		t.EstimatedHours,
	)
	if err != nil {
		r.logger.Error("Failed to update task", zap.Int("task_id", t.ID), zap.Error(err))
		return mapErr(err, "update task")
	}
	if tag.RowsAffected() == 0 {
		return mapErr(pgx.ErrNoRows, "update task")
	}
	return nil
}

func (r *TaskRepository) SetOrderIndex(ctx context.Context, taskID, orderIndex int) error {
	tag, err := r.db.Exec(ctx, `UPDATE tasks SET order_index = $2 WHERE id = $1`, taskID, orderIndex)
	if err != nil {
		r.logger.Error("Failed to set task order", zap.Int("task_id", taskID), zap.Error(err))
		return mapErr(err, "set task order")
	}
	if tag.RowsAffected() == 0 {
		return mapErr(pgx.ErrNoRows, "set task order")
	}
	return nil
}

func (r *TaskRepository) Get(ctx context.Context, id int) (*model.Task, error) {
	t, err := scanTask(r.db.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	if err != nil {
		return nil, mapErr(err, "get task")
	}
	return t, nil
}

func (r *TaskRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete task", zap.Int("task_id", id), zap.Error(err))
		return mapErr(err, "delete task")
	}
	if tag.RowsAffected() == 0 {
		return mapErr(pgx.ErrNoRows, "delete task")
	}
	return nil
}

func (r *TaskRepository) ListByTemplate(ctx context.Context, templateID int) ([]model.Task, error) {
	query := `SELECT ` + taskColumns + `
        FROM tasks
        WHERE template_id = $1
        ORDER BY order_index ASC
    `
	rows, err := r.db.Query(ctx, query, templateID)
	if err != nil {
		r.logger.Error("Failed to query tasks", zap.Int("template_id", templateID), zap.Error(err))
		return nil, mapErr(err, "list tasks")
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			r.logger.Error("Failed to scan task row", zap.Error(err))
			return nil, mapErr(err, "scan task")
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (r *TaskRepository) MaxOrderIndex(ctx context.Context, templateID int) (int, error) {
	var max int
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(MAX(order_index), 0) FROM tasks WHERE template_id = $1`, templateID,
	).Scan(&max)
	if err != nil {
		return 0, mapErr(err, "max task order")
	}
	return max, nil
}

func (r *TaskRepository) CountByTemplate(ctx context.Context, templateID int) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM tasks WHERE template_id = $1`, templateID).Scan(&n); err != nil {
		return 0, mapErr(err, "count tasks")
	}
	return n, nil
}

func (r *TaskRepository) CompactAfter(ctx context.Context, templateID, orderIndex int) error {
	query := `
        UPDATE tasks
        SET order_index = order_index - 1
        WHERE template_id = $1 AND order_index > $2
    `
	tag, err := r.db.Exec(ctx, query, templateID, orderIndex)
	if err != nil {
		r.logger.Error("Failed to compact task order",
			zap.Int("template_id", templateID),
			zap.Int("after", orderIndex),
			zap.Error(err),
		)
		return mapErr(err, "compact task order")
	}
	r.logger.Debug("Task order compacted",
		zap.Int("template_id", templateID),
		zap.Int64("tasks_shifted", tag.RowsAffected()),
	)
	return nil
}

func scanTask(row pgx.Row) (*model.Task, error) {
	var t model.Task
	var priority string
	err := row.Scan(
		&t.ID,
		&t.TemplateID,
		&t.Title,
		&t.Description,
		&t.Type,
		&t.RequiresSignature,
		&t.ResourceURL,
		&t.EventDate,
		&t.DueDate,
		&priority,
		&t.EstimatedHours,
		&t.OrderIndex,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Priority = model.TaskPriority(priority)
	return &t, nil
}
