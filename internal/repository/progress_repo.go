package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"onboarding/internal/model"
)

type ProgressRepository struct {
	db     querier
	logger *zap.Logger
}

const progressColumns = `p.id, p.hire_id, p.template_id, p.total_tasks, p.completed_tasks,
               p.completion_percentage, p.last_updated, p.created_at`

func (r *ProgressRepository) Insert(ctx context.Context, p *model.Progress) error {
	r.logger.Debug("Inserting progress",
		zap.String("hire_id", p.HireID.String()),
		zap.Int("template_id", p.TemplateID),
		zap.Int("total_tasks", p.TotalTasks),
	)
	query := `
        INSERT INTO progress (hire_id, template_id, total_tasks, completed_tasks, completion_percentage, last_updated)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at
    `
	err := r.db.QueryRow(ctx, query,
		p.HireID,
		p.TemplateID,
		p.TotalTasks,
		p.CompletedTasks,
		p.CompletionPercentage,
		p.LastUpdated,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to insert progress", zap.Error(err))
		return mapErr(err, "insert progress")
	}
	return nil
}

func (r *ProgressRepository) Get(ctx context.Context, hireID uuid.UUID, templateID int) (*model.Progress, error) {
	p, err := scanProgress(r.db.QueryRow(ctx,
		`SELECT `+progressColumns+` FROM progress p WHERE p.hire_id = $1 AND p.template_id = $2`,
		hireID, templateID))
	if err != nil {
		return nil, mapErr(err, "get progress")
	}
	return p, nil
}

func (r *ProgressRepository) GetForUpdate(ctx context.Context, hireID uuid.UUID, templateID int) (*model.Progress, error) {
	p, err := scanProgress(r.db.QueryRow(ctx,
		`SELECT `+progressColumns+` FROM progress p WHERE p.hire_id = $1 AND p.template_id = $2 FOR UPDATE`,
		hireID, templateID))
	if err != nil {
		return nil, mapErr(err, "lock progress")
	}
	return p, nil
}

func (r *ProgressRepository) Update(ctx context.Context, p *model.Progress) error {
	query := `
        UPDATE progress
        SET total_tasks = $2, completed_tasks = $3, completion_percentage = $4, last_updated = $5
        WHERE id = $1
    `
	tag, err := r.db.Exec(ctx, query, p.ID, p.TotalTasks, p.CompletedTasks, p.CompletionPercentage, p.LastUpdated)
	if err != nil {
		r.logger.Error("Failed to update progress", zap.Int("progress_id", p.ID), zap.Error(err))
		return mapErr(err, "update progress")
	}
	if tag.RowsAffected() == 0 {
		return mapErr(pgx.ErrNoRows, "update progress")
	}
	return nil
}

func (r *ProgressRepository) List(ctx context.Context) ([]model.Progress, error) {
	return r.list(ctx, `SELECT `+progressColumns+` FROM progress p ORDER BY p.id`)
}

func (r *ProgressRepository) ListByHire(ctx context.Context, hireID uuid.UUID) ([]model.Progress, error) {
	return r.list(ctx, `SELECT `+progressColumns+` FROM progress p WHERE p.hire_id = $1 ORDER BY p.id`, hireID)
}

func (r *ProgressRepository) ListByHR(ctx context.Context, hrID uuid.UUID) ([]model.Progress, error) {
	return r.list(ctx, `SELECT `+progressColumns+`
        FROM progress p
        JOIN users u ON u.id = p.hire_id
        WHERE u.registered_by_hr = $1
        ORDER BY p.id`, hrID)
}

func (r *ProgressRepository) ListByCompany(ctx context.Context, companyID int) ([]model.Progress, error) {
	return r.list(ctx, `SELECT `+progressColumns+`
        FROM progress p
        JOIN users u ON u.id = p.hire_id
        WHERE u.company_id = $1
        ORDER BY p.id`, companyID)
}

func (r *ProgressRepository) ListByDepartment(ctx context.Context, departmentID int) ([]model.Progress, error) {
	return r.list(ctx, `SELECT `+progressColumns+`
        FROM progress p
        JOIN users u ON u.id = p.hire_id
        WHERE u.department_id = $1
        ORDER BY p.id`, departmentID)
}

func (r *ProgressRepository) list(ctx context.Context, query string, args ...any) ([]model.Progress, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query progress", zap.Error(err))
		return nil, mapErr(err, "list progress")
	}
	defer rows.Close()

	out := []model.Progress{}
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			r.logger.Error("Failed to scan progress row", zap.Error(err))
			return nil, mapErr(err, "scan progress")
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func scanProgress(row pgx.Row) (*model.Progress, error) {
	var p model.Progress
	err := row.Scan(
		&p.ID,
		&p.HireID,
		&p.TemplateID,
		&p.TotalTasks,
		&p.CompletedTasks,
		&p.CompletionPercentage,
		&p.LastUpdated,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
