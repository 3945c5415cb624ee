package memory

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"onboarding/internal/model"
	"onboarding/internal/store"
)

type todoRepo struct{ s *Store }

func (r *todoRepo) InsertBatch(_ context.Context, todos []*model.Todo) error {
	return r.s.view(func(d *data) error {
		// validate first so a failing row leaves nothing behind
		seen := map[[2]any]bool{}
		for _, t := range todos {
			if _, ok := d.tasks[t.TaskID]; !ok {
				return notFound("task", t.TaskID)
			}
			key := [2]any{t.HireID, t.TaskID}
			if seen[key] {
				return fmt.Errorf("todo for hire %s task %d: %w", t.HireID, t.TaskID, store.ErrDuplicate)
			}
			seen[key] = true
			for _, existing := range d.todos {
				if existing.HireID == t.HireID && existing.TaskID == t.TaskID {
					return fmt.Errorf("todo for hire %s task %d: %w", t.HireID, t.TaskID, store.ErrDuplicate)
				}
			}
		}
		now := r.s.now()
		for _, t := range todos {
			t.ID = d.nextID()
			t.CreatedAt = now
			t.UpdatedAt = now
			d.todos[t.ID] = *t
		}
		return nil
	})
}

func (r *todoRepo) Get(_ context.Context, id int) (*model.Todo, error) {
	var out *model.Todo
	err := r.s.view(func(d *data) error {
		t, ok := d.todos[id]
		if !ok {
			return notFound("todo", id)
		}
		out = &t
		return nil
	})
	return out, err
}

func (r *todoRepo) GetForUpdate(ctx context.Context, id int) (*model.Todo, error) {
	return r.Get(ctx, id)
}

func (r *todoRepo) Update(_ context.Context, t *model.Todo) error {
	return r.s.view(func(d *data) error {
		cur, ok := d.todos[t.ID]
		if !ok {
			return notFound("todo", t.ID)
		}
		cur.Status = t.Status
		cur.CompletedAt = t.CompletedAt
		cur.ReminderSentAt = t.ReminderSentAt
		cur.UpdatedAt = r.s.now()
		d.todos[t.ID] = cur
		t.UpdatedAt = cur.UpdatedAt
		return nil
	})
}

func (r *todoRepo) CountByHireAndTemplate(_ context.Context, hireID uuid.UUID, templateID int) (int, int, error) {
	return r.count(func(t model.Todo) bool { return t.HireID == hireID && t.TemplateID == templateID })
}

func (r *todoRepo) CountByHire(_ context.Context, hireID uuid.UUID) (int, int, error) {
	return r.count(func(t model.Todo) bool { return t.HireID == hireID })
}

func (r *todoRepo) CountByTemplate(_ context.Context, templateID int) (int, error) {
	total, _, err := r.count(func(t model.Todo) bool { return t.TemplateID == templateID })
	return total, err
}

func (r *todoRepo) ListByHire(_ context.Context, hireID uuid.UUID) ([]model.Todo, error) {
	return r.filter(func(_ *data, t model.Todo) bool { return t.HireID == hireID })
}

func (r *todoRepo) ListByHireAndStatus(_ context.Context, hireID uuid.UUID, status model.TodoStatus) ([]model.Todo, error) {
	return r.filter(func(_ *data, t model.Todo) bool { return t.HireID == hireID && t.Status == status })
}

func (r *todoRepo) ListByTemplate(_ context.Context, templateID int) ([]model.Todo, error) {
	return r.filter(func(_ *data, t model.Todo) bool { return t.TemplateID == templateID })
}

func (r *todoRepo) ListByHR(_ context.Context, hrID uuid.UUID) ([]model.Todo, error) {
	return r.filter(func(d *data, t model.Todo) bool { return registeredBy(d, t.HireID, hrID) })
}

func (r *todoRepo) ListByStatus(_ context.Context, status model.TodoStatus) ([]model.Todo, error) {
	return r.filter(func(_ *data, t model.Todo) bool { return t.Status == status })
}

func (r *todoRepo) ListOverdue(_ context.Context, now time.Time) ([]model.Todo, error) {
	return r.filter(func(_ *data, t model.Todo) bool {
		return t.Status == model.TodoPending && t.DueDate.Before(now)
	})
}

func (r *todoRepo) count(keep func(model.Todo) bool) (total, completed int, err error) {
	err = r.s.view(func(d *data) error {
		for _, t := range d.todos {
			if !keep(t) {
				continue
			}
			total++
			if t.Status == model.TodoCompleted {
				completed++
			}
		}
		return nil
	})
	return total, completed, err
}

// filter returns matches ordered by due date, then id.
func (r *todoRepo) filter(keep func(*data, model.Todo) bool) ([]model.Todo, error) {
	out := []model.Todo{}
	err := r.s.view(func(d *data) error {
		for _, t := range d.todos {
			if keep(d, t) {
				out = append(out, t)
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b model.Todo) int {
		if c := a.DueDate.Compare(b.DueDate); c != 0 {
			return c
		}
		return a.ID - b.ID
	})
	return out, err
}

func registeredBy(d *data, hireID, hrID uuid.UUID) bool {
	u, ok := d.users[hireID]
	if !ok {
		return false
	}
	hire, ok := u.(*model.Hire)
	return ok && hire.RegisteredByHR == hrID
}
