package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"onboarding/internal/model"
	"onboarding/internal/store"
)

// UserRepository reads users owned by the account service.
type UserRepository struct {
	db     querier
	logger *zap.Logger
}

const userColumns = `id, email, first_name, last_name, role, company_id, department_id,
               position, title, registered_by_hr`

func (r *UserRepository) GetUser(ctx context.Context, id uuid.UUID) (model.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, mapErr(err, "get user")
	}
	return u, nil
}

func (r *UserRepository) GetHire(ctx context.Context, id uuid.UUID) (*model.Hire, error) {
	u, err := r.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	hire, ok := u.(*model.Hire)
	if !ok {
		return nil, fmt.Errorf("user %s is not a hire: %w", id, store.ErrNotFound)
	}
	return hire, nil
}

func (r *UserRepository) GetHrUser(ctx context.Context, id uuid.UUID) (*model.HrUser, error) {
	u, err := r.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	hr, ok := u.(*model.HrUser)
	if !ok {
		return nil, fmt.Errorf("user %s is not an HR user: %w", id, store.ErrNotFound)
	}
	return hr, nil
}

func (r *UserRepository) ListHrUsers(ctx context.Context) ([]model.HrUser, error) {
	return r.listHR(ctx, `SELECT `+userColumns+` FROM users WHERE role = 'HR' ORDER BY email`)
}

func (r *UserRepository) ListHrUsersByCompany(ctx context.Context, companyID int) ([]model.HrUser, error) {
	return r.listHR(ctx, `SELECT `+userColumns+` FROM users WHERE role = 'HR' AND company_id = $1 ORDER BY email`, companyID)
}

func (r *UserRepository) ListHrUsersByDepartment(ctx context.Context, departmentID int) ([]model.HrUser, error) {
	return r.listHR(ctx, `SELECT `+userColumns+` FROM users WHERE role = 'HR' AND department_id = $1 ORDER BY email`, departmentID)
}

func (r *UserRepository) GetDepartment(ctx context.Context, id int) (*model.Department, error) {
	var d model.Department
	err := r.db.QueryRow(ctx, `SELECT id, company_id, name FROM departments WHERE id = $1`, id).
		Scan(&d.ID, &d.CompanyID, &d.Name)
	if err != nil {
		return nil, mapErr(err, "get department")
	}
	return &d, nil
}

func (r *UserRepository) listHR(ctx context.Context, query string, args ...any) ([]model.HrUser, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query HR users", zap.Error(err))
		return nil, mapErr(err, "list hr users")
	}
	defer rows.Close()

	users := []model.HrUser{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, mapErr(err, "scan user")
		}
		if hr, ok := u.(*model.HrUser); ok {
			users = append(users, *hr)
		}
	}
	return users, rows.Err()
}

func scanUser(row pgx.Row) (model.User, error) {
	var (
		id             model.Identity
		role           string
		departmentID   *int
		position       string
		title          string
		registeredByHR uuid.NullUUID
	)
	err := row.Scan(
		&id.ID,
		&id.Email,
		&id.FirstName,
		&id.LastName,
		&role,
		&id.CompanyID,
		&departmentID,
		&position,
		&title,
		&registeredByHR,
	)
	if err != nil {
		return nil, err
	}

	switch model.Role(role) {
	case model.RoleHR:
		return &model.HrUser{Identity: id, Position: position, DepartmentID: departmentID}, nil
	case model.RoleNewHire:
		return &model.Hire{
			Identity:       id,
			Title:          title,
			RegisteredByHR: registeredByHR.UUID,
			DepartmentID:   departmentID,
		}, nil
	default:
		return nil, fmt.Errorf("unknown user role %q", role)
	}
}
