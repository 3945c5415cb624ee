package memory

import (
	"context"
	"fmt"
	"slices"

	"onboarding/internal/model"
)

type taskRepo struct{ s *Store }

func (r *taskRepo) Insert(_ context.Context, t *model.Task) error {
	return r.s.view(func(d *data) error {
		if _, ok := d.templates[t.TemplateID]; !ok {
			return notFound("template", t.TemplateID)
		}
		t.ID = d.nextID()
		t.CreatedAt = r.s.now()
		d.tasks[t.ID] = *t
		return nil
	})
}

func (r *taskRepo) Update(_ context.Context, t *model.Task) error {
	return r.s.view(func(d *data) error {
		cur, ok := d.tasks[t.ID]
		if !ok {
			return notFound("task", t.ID)
		}
		order := cur.OrderIndex
		cur = *t
		cur.OrderIndex = order
		cur.TemplateID = d.tasks[t.ID].TemplateID
		cur.CreatedAt = d.tasks[t.ID].CreatedAt
		d.tasks[t.ID] = cur
		return nil
	})
}

func (r *taskRepo) SetOrderIndex(_ context.Context, taskID, orderIndex int) error {
	return r.s.view(func(d *data) error {
		t, ok := d.tasks[taskID]
		if !ok {
			return notFound("task", taskID)
		}
		t.OrderIndex = orderIndex
		d.tasks[taskID] = t
		return nil
	})
}

func (r *taskRepo) Get(_ context.Context, id int) (*model.Task, error) {
	var out *model.Task
	err := r.s.view(func(d *data) error {
		t, ok := d.tasks[id]
		if !ok {
			return notFound("task", id)
		}
		out = &t
		return nil
	})
	return out, err
}

func (r *taskRepo) Delete(_ context.Context, id int) error {
	return r.s.view(func(d *data) error {
		if _, ok := d.tasks[id]; !ok {
			return notFound("task", id)
		}
		for _, todo := range d.todos {
			if todo.TaskID == id {
				return fmt.Errorf("task %d still referenced by todo %d", id, todo.ID)
			}
		}
		delete(d.tasks, id)
		return nil
	})
}

func (r *taskRepo) ListByTemplate(_ context.Context, templateID int) ([]model.Task, error) {
	out := []model.Task{}
	err := r.s.view(func(d *data) error {
		for _, t := range d.tasks {
			if t.TemplateID == templateID {
				out = append(out, t)
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b model.Task) int {
		if a.OrderIndex != b.OrderIndex {
			return a.OrderIndex - b.OrderIndex
		}
		return a.ID - b.ID
	})
	return out, err
}

func (r *taskRepo) MaxOrderIndex(ctx context.Context, templateID int) (int, error) {
	tasks, err := r.ListByTemplate(ctx, templateID)
	if err != nil || len(tasks) == 0 {
		return 0, err
	}
	return tasks[len(tasks)-1].OrderIndex, nil
}

func (r *taskRepo) CountByTemplate(ctx context.Context, templateID int) (int, error) {
	tasks, err := r.ListByTemplate(ctx, templateID)
	return len(tasks), err
}

func (r *taskRepo) CompactAfter(_ context.Context, templateID, orderIndex int) error {
	return r.s.view(func(d *data) error {
		for id, t := range d.tasks {
			if t.TemplateID == templateID && t.OrderIndex > orderIndex {
				t.OrderIndex--
				d.tasks[id] = t
			}
		}
		return nil
	})
}
