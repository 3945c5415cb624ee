package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"onboarding/internal/model"
	"onboarding/internal/store"
	"onboarding/pkg/logger"
	"onboarding/pkg/otel"
)

type TaskInput struct {
	Title             string             `json:"title"`
	Description       string             `json:"description"`
	Type              model.TaskType     `json:"type"`
	RequiresSignature bool               `json:"requires_signature"`
	ResourceURL       *string            `json:"resource_url,omitempty"`
	EventDate         *time.Time         `json:"event_date,omitempty"`
	DueDate           *time.Time         `json:"due_date,omitempty"`
	Priority          model.TaskPriority `json:"priority,omitempty"`
	EstimatedHours    *float64           `json:"estimated_hours,omitempty"`
}

func (in TaskInput) validate() (TaskInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return in, validationf("task title is required")
	}
	typ, err := model.ParseTaskType(string(in.Type))
	if err != nil {
		return in, validationf("%v", err)
	}
	in.Type = typ
	prio, err := model.ParseTaskPriority(string(in.Priority))
	if err != nil {
		return in, validationf("%v", err)
	}
	in.Priority = prio
	if in.EstimatedHours != nil && *in.EstimatedHours < 0 {
		return in, validationf("estimated hours must not be negative")
	}
	return in, nil
}

func (in TaskInput) apply(t *model.Task) {
	t.Title = in.Title
	t.Description = in.Description
	t.Type = in.Type
	t.RequiresSignature = in.RequiresSignature
	t.ResourceURL = in.ResourceURL
	t.EventDate = in.EventDate
	t.DueDate = in.DueDate
	t.Priority = in.Priority
	t.EstimatedHours = in.EstimatedHours
}

// TaskService keeps each template's order indices a dense 1..N sequence.
// Every mutation locks the template row for the length of its transaction.
type TaskService struct {
	st     store.Store
	logger *zap.Logger
}

func NewTaskService(st store.Store, logger *zap.Logger) *TaskService {
	return &TaskService{st: st, logger: logger}
}

// AddTask appends a task at the end of the template.
func (s *TaskService) AddTask(ctx context.Context, templateID int, in TaskInput) (*model.Task, error) {
	ctx, span := otel.StartSpan(ctx, "TaskService.AddTask")
	defer span.End()
	log := logger.WithTrace(ctx, s.logger).With(zap.Int("template_id", templateID))

	in, err := in.validate()
	if err != nil {
		log.Warn("AddTask: invalid input", zap.Error(err))
		return nil, err
	}

	task := &model.Task{TemplateID: templateID}
	in.apply(task)
	err = s.st.InTx(ctx, func(tx store.Store) error {
		if _, err := tx.Templates().GetForUpdate(ctx, templateID); err != nil {
			return mapStoreErr(err)
		}
		maxIndex, err := tx.Tasks().MaxOrderIndex(ctx, templateID)
		if err != nil {
			return err
		}
		task.OrderIndex = maxIndex + 1
		return mapStoreErr(tx.Tasks().Insert(ctx, task))
	})
	otel.RecordError(span, err)
	if err != nil {
		logFailure(log, "AddTask: failed", err)
		return nil, err
	}

	log.Info("task added", zap.Int("task_id", task.ID), zap.Int("order_index", task.OrderIndex))
	return task, nil
}

// UpdateTask rewrites the descriptive fields; the order index is kept.
func (s *TaskService) UpdateTask(ctx context.Context, taskID int, in TaskInput) (*model.Task, error) {
	ctx, span := otel.StartSpan(ctx, "TaskService.UpdateTask")
	defer span.End()
	log := logger.WithTrace(ctx, s.logger).With(zap.Int("task_id", taskID))

	in, err := in.validate()
	if err != nil {
		log.Warn("UpdateTask: invalid input", zap.Error(err))
		return nil, err
	}

	var task *model.Task
	err = s.st.InTx(ctx, func(tx store.Store) error {
		t, err := lockTaskTemplate(ctx, tx, taskID)
		if err != nil {
			return err
		}
		in.apply(t)
		if err := tx.Tasks().Update(ctx, t); err != nil {
			return mapStoreErr(err)
		}
		task = t
		return nil
	})
	otel.RecordError(span, err)
	if err != nil {
		logFailure(log, "UpdateTask: failed", err)
		return nil, err
	}

	log.Info("task updated")
	return task, nil
}

// DeleteTask removes the task and closes the gap it leaves in the order.
func (s *TaskService) DeleteTask(ctx context.Context, taskID int) error {
	ctx, span := otel.StartSpan(ctx, "TaskService.DeleteTask")
	defer span.End()
	log := logger.WithTrace(ctx, s.logger).With(zap.Int("task_id", taskID))

	err := s.st.InTx(ctx, func(tx store.Store) error {
		task, err := lockTaskTemplate(ctx, tx, taskID)
		if err != nil {
			return err
		}
		todos, err := tx.Todos().ListByTemplate(ctx, task.TemplateID)
		if err != nil {
			return err
		}
		for _, todo := range todos {
			if todo.TaskID == taskID {
				return fmt.Errorf("%w: task %d has todos assigned", ErrConflict, taskID)
			}
		}
		if err := tx.Tasks().Delete(ctx, taskID); err != nil {
			return mapStoreErr(err)
		}
		return tx.Tasks().CompactAfter(ctx, task.TemplateID, task.OrderIndex)
	})
	otel.RecordError(span, err)
	if err != nil {
		logFailure(log, "DeleteTask: failed", err)
		return err
	}

	log.Info("task deleted")
	return nil
}

// ReorderTasks assigns order index i+1 to taskIDs[i]. taskIDs must name every
// task of the template exactly once.
func (s *TaskService) ReorderTasks(ctx context.Context, templateID int, taskIDs []int) ([]model.Task, error) {
	ctx, span := otel.StartSpan(ctx, "TaskService.ReorderTasks")
	defer span.End()
	log := logger.WithTrace(ctx, s.logger).With(zap.Int("template_id", templateID))

	var ordered []model.Task
	err := s.st.InTx(ctx, func(tx store.Store) error {
		if _, err := tx.Templates().GetForUpdate(ctx, templateID); err != nil {
			return mapStoreErr(err)
		}
		tasks, err := tx.Tasks().ListByTemplate(ctx, templateID)
		if err != nil {
			return err
		}
		if len(taskIDs) != len(tasks) {
			return validationf("task count mismatch: template has %d tasks, got %d", len(tasks), len(taskIDs))
		}

		current := make(map[int]int, len(tasks))
		for _, t := range tasks {
			current[t.ID] = t.OrderIndex
		}
		seen := make(map[int]bool, len(taskIDs))
		for _, id := range taskIDs {
			if seen[id] {
				return validationf("task %d listed more than once", id)
			}
			seen[id] = true
			if _, ok := current[id]; ok {
				continue
			}
			other, err := tx.Tasks().Get(ctx, id)
			if err != nil {
				return mapStoreErr(err)
			}
			return validationf("task %d belongs to template %d", id, other.TemplateID)
		}

		for i, id := range taskIDs {
			if current[id] == i+1 {
				continue
			}
			if err := tx.Tasks().SetOrderIndex(ctx, id, i+1); err != nil {
				return mapStoreErr(err)
			}
		}
		ordered, err = tx.Tasks().ListByTemplate(ctx, templateID)
		return err
	})
	otel.RecordError(span, err)
	if err != nil {
		logFailure(log, "ReorderTasks: failed", err)
		return nil, err
	}

	log.Info("tasks reordered", zap.Int("count", len(ordered)))
	return ordered, nil
}

func (s *TaskService) MoveTaskUp(ctx context.Context, taskID int) (*model.Task, error) {
	return s.move(ctx, taskID, -1)
}

func (s *TaskService) MoveTaskDown(ctx context.Context, taskID int) (*model.Task, error) {
	return s.move(ctx, taskID, 1)
}

// move swaps the task with the sibling at index+delta; at a boundary it is a no-op.
func (s *TaskService) move(ctx context.Context, taskID, delta int) (*model.Task, error) {
	ctx, span := otel.StartSpan(ctx, "TaskService.MoveTask")
	defer span.End()
	log := logger.WithTrace(ctx, s.logger).With(zap.Int("task_id", taskID), zap.Int("delta", delta))

	var task *model.Task
	err := s.st.InTx(ctx, func(tx store.Store) error {
		t, err := lockTaskTemplate(ctx, tx, taskID)
		if err != nil {
			return err
		}
		task = t
		target := t.OrderIndex + delta
		if target < 1 {
			return nil
		}
		siblings, err := tx.Tasks().ListByTemplate(ctx, t.TemplateID)
		if err != nil {
			return err
		}
		for _, sib := range siblings {
			if sib.OrderIndex != target {
				continue
			}
			if err := tx.Tasks().SetOrderIndex(ctx, sib.ID, t.OrderIndex); err != nil {
				return mapStoreErr(err)
			}
			if err := tx.Tasks().SetOrderIndex(ctx, t.ID, target); err != nil {
				return mapStoreErr(err)
			}
			task.OrderIndex = target
			return nil
		}
		return nil
	})
	otel.RecordError(span, err)
	if err != nil {
		logFailure(log, "MoveTask: failed", err)
		return nil, err
	}

	log.Info("task moved", zap.Int("order_index", task.OrderIndex))
	return task, nil
}

func (s *TaskService) GetTask(ctx context.Context, taskID int) (*model.Task, error) {
	t, err := s.st.Tasks().Get(ctx, taskID)
	return t, mapStoreErr(err)
}

// ListTasks returns the template's tasks ordered by index.
func (s *TaskService) ListTasks(ctx context.Context, templateID int) ([]model.Task, error) {
	if _, err := s.st.Templates().Get(ctx, templateID); err != nil {
		return nil, mapStoreErr(err)
	}
	return s.st.Tasks().ListByTemplate(ctx, templateID)
}

func (s *TaskService) CountTasks(ctx context.Context, templateID int) (int, error) {
	return s.st.Tasks().CountByTemplate(ctx, templateID)
}

// NextOrderIndex is the index AddTask would assign.
func (s *TaskService) NextOrderIndex(ctx context.Context, templateID int) (int, error) {
	maxIndex, err := s.st.Tasks().MaxOrderIndex(ctx, templateID)
	if err != nil {
		return 0, err
	}
	return maxIndex + 1, nil
}

// lockTaskTemplate locks the owning template and returns the task as seen
// under that lock.
func lockTaskTemplate(ctx context.Context, tx store.Store, taskID int) (*model.Task, error) {
	t, err := tx.Tasks().Get(ctx, taskID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if _, err := tx.Templates().GetForUpdate(ctx, t.TemplateID); err != nil {
		return nil, mapStoreErr(err)
	}
	t, err = tx.Tasks().Get(ctx, taskID)
	return t, mapStoreErr(err)
}
