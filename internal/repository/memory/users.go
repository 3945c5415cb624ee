package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"onboarding/internal/model"
	"onboarding/internal/store"
)

type userRepo struct{ s *Store }

func (r *userRepo) GetUser(_ context.Context, id uuid.UUID) (model.User, error) {
	var out model.User
	err := r.s.view(func(d *data) error {
		u, ok := d.users[id]
		if !ok {
			return notFound("user", id)
		}
		out = cloneUser(u)
		return nil
	})
	return out, err
}

func (r *userRepo) GetHire(ctx context.Context, id uuid.UUID) (*model.Hire, error) {
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

func (r *userRepo) GetHrUser(ctx context.Context, id uuid.UUID) (*model.HrUser, error) {
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

func (r *userRepo) ListHrUsers(_ context.Context) ([]model.HrUser, error) {
	return r.listHR(func(*model.HrUser) bool { return true })
}

func (r *userRepo) ListHrUsersByCompany(_ context.Context, companyID int) ([]model.HrUser, error) {
	return r.listHR(func(u *model.HrUser) bool { return u.CompanyID != nil && *u.CompanyID == companyID })
}

func (r *userRepo) ListHrUsersByDepartment(_ context.Context, departmentID int) ([]model.HrUser, error) {
	return r.listHR(func(u *model.HrUser) bool { return u.DepartmentID != nil && *u.DepartmentID == departmentID })
}

func (r *userRepo) GetDepartment(_ context.Context, id int) (*model.Department, error) {
	var out *model.Department
	err := r.s.view(func(d *data) error {
		dep, ok := d.departments[id]
		if !ok {
			return notFound("department", id)
		}
		out = &dep
		return nil
	})
	return out, err
}

func (r *userRepo) listHR(keep func(*model.HrUser) bool) ([]model.HrUser, error) {
	out := []model.HrUser{}
	err := r.s.view(func(d *data) error {
		for _, u := range d.users {
			if hr, ok := u.(*model.HrUser); ok && keep(hr) {
				out = append(out, *hr)
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b model.HrUser) int { return strings.Compare(a.Email, b.Email) })
	return out, err
}
