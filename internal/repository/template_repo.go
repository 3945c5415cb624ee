package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"onboarding/internal/model"
)

type TemplateRepository struct {
	db     querier
	logger *zap.Logger
}

const templateSelect = `
        SELECT t.id, t.title, t.description, t.status, t.created_by_hr,
               COALESCE(ARRAY(SELECT td.department_id FROM template_departments td
                              WHERE td.template_id = t.id ORDER BY td.department_id), '{}'),
               t.created_at, t.updated_at
        FROM templates t
    `

func (r *TemplateRepository) Insert(ctx context.Context, t *model.Template) error {
	r.logger.Debug("Inserting template",
		zap.String("title", t.Title),
		zap.String("created_by_hr", t.CreatedByHR.String()),
	)
	query := `
        INSERT INTO templates (title, description, status, created_by_hr)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at
    `
	err := r.db.QueryRow(ctx, query, t.Title, t.Description, t.Status, t.CreatedByHR).
		Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to insert template", zap.Error(err))
		return mapErr(err, "insert template")
	}
	r.logger.Info("Template inserted successfully", zap.Int("template_id", t.ID))
	return nil
}

func (r *TemplateRepository) Update(ctx context.Context, t *model.Template) error {
	query := `
        UPDATE templates
        SET title = $2, description = $3, status = $4, updated_at = NOW()
        WHERE id = $1
        RETURNING updated_at
    `
	err := r.db.QueryRow(ctx, query, t.ID, t.Title, t.Description, t.Status).Scan(&t.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to update template", zap.Int("template_id", t.ID), zap.Error(err))
		return mapErr(err, "update template")
	}
	return nil
}

func (r *TemplateRepository) Get(ctx context.Context, id int) (*model.Template, error) {
	t, err := scanTemplate(r.db.QueryRow(ctx, templateSelect+` WHERE t.id = $1`, id))
	if err != nil {
		return nil, mapErr(err, "get template")
	}
	return t, nil
}

func (r *TemplateRepository) GetForUpdate(ctx context.Context, id int) (*model.Template, error) {
	t, err := scanTemplate(r.db.QueryRow(ctx, templateSelect+` WHERE t.id = $1 FOR UPDATE OF t`, id))
	if err != nil {
		return nil, mapErr(err, "lock template")
	}
	return t, nil
}

func (r *TemplateRepository) Delete(ctx context.Context, id int) error {
	r.logger.Debug("Deleting template", zap.Int("template_id", id))
	tag, err := r.db.Exec(ctx, `DELETE FROM templates WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete template", zap.Int("template_id", id), zap.Error(err))
		return mapErr(err, "delete template")
	}
	if tag.RowsAffected() == 0 {
		return mapErr(pgx.ErrNoRows, "delete template")
	}
	r.logger.Info("Template deleted", zap.Int("template_id", id))
	return nil
}

func (r *TemplateRepository) List(ctx context.Context) ([]model.Template, error) {
	return r.list(ctx, templateSelect+` ORDER BY t.created_at DESC, t.id DESC`)
}

func (r *TemplateRepository) ListByHR(ctx context.Context, hrID uuid.UUID) ([]model.Template, error) {
	return r.list(ctx, templateSelect+` WHERE t.created_by_hr = $1 ORDER BY t.created_at DESC, t.id DESC`, hrID)
}

func (r *TemplateRepository) ListByDepartment(ctx context.Context, departmentID int) ([]model.Template, error) {
	return r.list(ctx, templateSelect+`
        WHERE EXISTS (SELECT 1 FROM template_departments td
                      WHERE td.template_id = t.id AND td.department_id = $1)
        ORDER BY t.created_at DESC, t.id DESC`, departmentID)
}

func (r *TemplateRepository) ListByCompany(ctx context.Context, companyID int) ([]model.Template, error) {
	return r.list(ctx, templateSelect+`
        JOIN users u ON u.id = t.created_by_hr
        WHERE u.company_id = $1
        ORDER BY t.created_at DESC, t.id DESC`, companyID)
}

func (r *TemplateRepository) SetDepartments(ctx context.Context, templateID int, departmentIDs []int) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM template_departments WHERE template_id = $1`, templateID); err != nil {
		return mapErr(err, "clear template departments")
	}
	if len(departmentIDs) == 0 {
		return nil
	}
	query := `
        INSERT INTO template_departments (template_id, department_id)
        SELECT $1, unnest($2::int[])
        ON CONFLICT DO NOTHING
    `
	if _, err := r.db.Exec(ctx, query, templateID, departmentIDs); err != nil {
		r.logger.Error("Failed to set template departments", zap.Int("template_id", templateID), zap.Error(err))
		return mapErr(err, "set template departments")
	}
	return nil
}

func (r *TemplateRepository) list(ctx context.Context, query string, args ...any) ([]model.Template, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query templates", zap.Error(err))
		return nil, mapErr(err, "list templates")
	}
	defer rows.Close()

	templates := []model.Template{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			r.logger.Error("Failed to scan template row", zap.Error(err))
			return nil, mapErr(err, "scan template")
		}
		templates = append(templates, *t)
	}
	return templates, rows.Err()
}

func scanTemplate(row pgx.Row) (*model.Template, error) {
	var t model.Template
	err := row.Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&t.Status,
		&t.CreatedByHR,
		&t.DepartmentIDs,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
