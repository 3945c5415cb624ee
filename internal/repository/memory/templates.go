package memory

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"onboarding/internal/model"
)

type templateRepo struct{ s *Store }

func (r *templateRepo) Insert(_ context.Context, t *model.Template) error {
	return r.s.view(func(d *data) error {
		t.ID = d.nextID()
		t.CreatedAt = r.s.now()
		t.UpdatedAt = t.CreatedAt
		c := *t
		c.DepartmentIDs = nil
		d.templates[t.ID] = c
		t.DepartmentIDs = nil
		return nil
	})
}

func (r *templateRepo) Update(_ context.Context, t *model.Template) error {
	return r.s.view(func(d *data) error {
		cur, ok := d.templates[t.ID]
		if !ok {
			return notFound("template", t.ID)
		}
		cur.Title = t.Title
		cur.Description = t.Description
		cur.Status = t.Status
		cur.UpdatedAt = r.s.now()
		d.templates[t.ID] = cur
		t.UpdatedAt = cur.UpdatedAt
		return nil
	})
}

func (r *templateRepo) Get(_ context.Context, id int) (*model.Template, error) {
	var out *model.Template
	err := r.s.view(func(d *data) error {
		t, ok := d.templates[id]
		if !ok {
			return notFound("template", id)
		}
		t.DepartmentIDs = slices.Clone(t.DepartmentIDs)
		out = &t
		return nil
	})
	return out, err
}

func (r *templateRepo) GetForUpdate(ctx context.Context, id int) (*model.Template, error) {
	return r.Get(ctx, id)
}

func (r *templateRepo) Delete(_ context.Context, id int) error {
	return r.s.view(func(d *data) error {
		if _, ok := d.templates[id]; !ok {
			return notFound("template", id)
		}
		for _, todo := range d.todos {
			if todo.TemplateID == id {
				return fmt.Errorf("template %d still referenced by todo %d", id, todo.ID)
			}
		}
		delete(d.templates, id)
		for tid, task := range d.tasks {
			if task.TemplateID == id {
				delete(d.tasks, tid)
			}
		}
		return nil
	})
}

func (r *templateRepo) List(_ context.Context) ([]model.Template, error) {
	return r.filter(func(*data, model.Template) bool { return true })
}

func (r *templateRepo) ListByHR(_ context.Context, hrID uuid.UUID) ([]model.Template, error) {
	return r.filter(func(_ *data, t model.Template) bool { return t.CreatedByHR == hrID })
}

func (r *templateRepo) ListByDepartment(_ context.Context, departmentID int) ([]model.Template, error) {
	return r.filter(func(_ *data, t model.Template) bool { return slices.Contains(t.DepartmentIDs, departmentID) })
}

func (r *templateRepo) ListByCompany(_ context.Context, companyID int) ([]model.Template, error) {
	return r.filter(func(d *data, t model.Template) bool {
		u, ok := d.users[t.CreatedByHR]
		if !ok {
			return false
		}
		hr, ok := u.(*model.HrUser)
		return ok && hr.CompanyID != nil && *hr.CompanyID == companyID
	})
}

func (r *templateRepo) SetDepartments(_ context.Context, templateID int, departmentIDs []int) error {
	return r.s.view(func(d *data) error {
		t, ok := d.templates[templateID]
		if !ok {
			return notFound("template", templateID)
		}
		ids := slices.Clone(departmentIDs)
		slices.Sort(ids)
		t.DepartmentIDs = slices.Compact(ids)
		d.templates[templateID] = t
		return nil
	})
}

// filter returns matches newest first, mirroring the SQL ordering.
func (r *templateRepo) filter(keep func(*data, model.Template) bool) ([]model.Template, error) {
	out := []model.Template{}
	err := r.s.view(func(d *data) error {
		for _, t := range d.templates {
			if keep(d, t) {
				t.DepartmentIDs = slices.Clone(t.DepartmentIDs)
				out = append(out, t)
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b model.Template) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return b.ID - a.ID
	})
	return out, err
}
