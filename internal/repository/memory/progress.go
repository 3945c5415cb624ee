package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"onboarding/internal/model"
	"onboarding/internal/store"
)

type progressRepo struct{ s *Store }

func (r *progressRepo) Insert(_ context.Context, p *model.Progress) error {
	return r.s.view(func(d *data) error {
		for _, existing := range d.progress {
			if existing.HireID == p.HireID && existing.TemplateID == p.TemplateID {
				return fmt.Errorf("progress for hire %s template %d: %w", p.HireID, p.TemplateID, store.ErrDuplicate)
			}
		}
		p.ID = d.nextID()
		if p.CreatedAt.IsZero() {
			p.CreatedAt = r.s.now()
		}
		if p.LastUpdated.IsZero() {
			p.LastUpdated = p.CreatedAt
		}
		d.progress[p.ID] = *p
		return nil
	})
}

func (r *progressRepo) Get(_ context.Context, hireID uuid.UUID, templateID int) (*model.Progress, error) {
	var out *model.Progress
	err := r.s.view(func(d *data) error {
		for _, p := range d.progress {
			if p.HireID == hireID && p.TemplateID == templateID {
				out = &p
				return nil
			}
		}
		return notFound("progress", fmt.Sprintf("%s/%d", hireID, templateID))
	})
	return out, err
}

func (r *progressRepo) GetForUpdate(ctx context.Context, hireID uuid.UUID, templateID int) (*model.Progress, error) {
	return r.Get(ctx, hireID, templateID)
}

func (r *progressRepo) Update(_ context.Context, p *model.Progress) error {
	return r.s.view(func(d *data) error {
		cur, ok := d.progress[p.ID]
		if !ok {
			return notFound("progress", p.ID)
		}
		cur.TotalTasks = p.TotalTasks
		cur.CompletedTasks = p.CompletedTasks
		cur.CompletionPercentage = p.CompletionPercentage
		cur.LastUpdated = p.LastUpdated
		d.progress[p.ID] = cur
		return nil
	})
}

func (r *progressRepo) List(_ context.Context) ([]model.Progress, error) {
	return r.filter(func(*data, model.Progress) bool { return true })
}

func (r *progressRepo) ListByHire(_ context.Context, hireID uuid.UUID) ([]model.Progress, error) {
	return r.filter(func(_ *data, p model.Progress) bool { return p.HireID == hireID })
}

func (r *progressRepo) ListByHR(_ context.Context, hrID uuid.UUID) ([]model.Progress, error) {
	return r.filter(func(d *data, p model.Progress) bool { return registeredBy(d, p.HireID, hrID) })
}

func (r *progressRepo) ListByCompany(_ context.Context, companyID int) ([]model.Progress, error) {
	return r.filter(func(d *data, p model.Progress) bool {
		hire, ok := d.users[p.HireID].(*model.Hire)
		return ok && hire.CompanyID != nil && *hire.CompanyID == companyID
	})
}

func (r *progressRepo) ListByDepartment(_ context.Context, departmentID int) ([]model.Progress, error) {
	return r.filter(func(d *data, p model.Progress) bool {
		hire, ok := d.users[p.HireID].(*model.Hire)
		return ok && hire.DepartmentID != nil && *hire.DepartmentID == departmentID
	})
}

func (r *progressRepo) filter(keep func(*data, model.Progress) bool) ([]model.Progress, error) {
	out := []model.Progress{}
	err := r.s.view(func(d *data) error {
		for _, p := range d.progress {
			if keep(d, p) {
				out = append(out, p)
			}
		}
		return nil
	})
	sortByID(out, func(p model.Progress) int { return p.ID })
	return out, err
}
