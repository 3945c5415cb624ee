package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	mqcontract "onboarding/contracts/mq"
	"onboarding/internal/model"
	"onboarding/internal/store"
	"onboarding/pkg/logger"
	"onboarding/pkg/metrics"
	"onboarding/pkg/otel"
	"onboarding/pkg/trace"
)

type BroadcastScope string

const (
	BroadcastAll        BroadcastScope = "all"
	BroadcastCompany    BroadcastScope = "company"
	BroadcastDepartment BroadcastScope = "department"
)

func ParseBroadcastScope(s string) (BroadcastScope, error) {
	switch sc := BroadcastScope(strings.ToLower(strings.TrimSpace(s))); sc {
	case BroadcastAll, BroadcastCompany, BroadcastDepartment:
		return sc, nil
	case "":
		return BroadcastAll, nil
	default:
		return "", fmt.Errorf("unknown broadcast scope %q", s)
	}
}

// BroadcastPolicy controls the TASK_COMPLETED notification to HR users.
type BroadcastPolicy struct {
	Enabled bool
	Scope   BroadcastScope
}

type TodoServiceDeps struct {
	Store        store.Store
	Progress     *ProgressService
	Materializer *Materializer
	Notifier     Notifier
	Broadcast    BroadcastPolicy
	Clock        Clock
	Logger       *zap.Logger
}

// TodoService drives the todo state machine and fires the notification
// rules tied to its transitions.
type TodoService struct {
	st           store.Store
	progress     *ProgressService
	materializer *Materializer
	rules        Rules
	notifier     Notifier
	broadcast    BroadcastPolicy
	clock        Clock
	logger       *zap.Logger
}

func NewTodoService(d TodoServiceDeps) *TodoService {
	return &TodoService{
		st:           d.Store,
		progress:     d.Progress,
		materializer: d.Materializer,
		notifier:     d.Notifier,
		broadcast:    d.Broadcast,
		clock:        d.Clock,
		logger:       d.Logger,
	}
}

// Complete marks the todo COMPLETED. Completing an already completed todo
// returns it unchanged and fires nothing.
func (s *TodoService) Complete(ctx context.Context, todoID int) (*model.Todo, error) {
	ctx, span := otel.StartSpan(ctx, "TodoService.Complete")
	defer span.End()
	log := logger.WithTrace(ctx, s.logger).With(zap.Int("todo_id", todoID))
	log.Debug("completing todo")

	var (
		todo    *model.Todo
		already bool
	)
	err := s.st.InTx(ctx, func(tx store.Store) error {
		t, err := tx.Todos().GetForUpdate(ctx, todoID)
		if err != nil {
			return mapStoreErr(err)
		}
		todo = t
		if t.Status == model.TodoCompleted {
			already = true
			return nil
		}

		t.Status = model.TodoCompleted
		if t.CompletedAt == nil {
			now := s.clock.now()
			t.CompletedAt = &now
		}
		if err := tx.Todos().Update(ctx, t); err != nil {
			return mapStoreErr(err)
		}
		if _, err := s.progress.recalculate(ctx, tx, t.HireID, t.TemplateID); err != nil {
			return err
		}
		return s.afterCompletion(ctx, tx, t)
	})
	otel.RecordError(span, err)
	if err != nil {
		logFailure(log, "Complete: failed", err)
		return nil, err
	}

	if already {
		log.Warn("todo already completed, skipping")
		return todo, nil
	}
	metrics.IncrementTodoTransition(string(model.TodoCompleted))
	log.Info("todo completed", zap.String("hire_id", todo.HireID.String()))
	return todo, nil
}

// afterCompletion fires the rules for a first completion and records the
// todo.completed event.
func (s *TodoService) afterCompletion(ctx context.Context, tx store.Store, t *model.Todo) error {
	task, err := tx.Tasks().Get(ctx, t.TaskID)
	if err != nil {
		return mapStoreErr(err)
	}
	hire, err := tx.Users().GetHire(ctx, t.HireID)
	if err != nil {
		return mapStoreErr(err)
	}

	events := []Event{{Kind: EventTodoCompleted, Hire: hire, Task: task}}
	if s.broadcast.Enabled {
		audience, err := s.audience(ctx, tx, hire)
		if err != nil {
			return err
		}
		events = append(events, Event{Kind: EventTaskCompleted, Hire: hire, Task: task, Audience: audience})
	}
	overall, err := s.progress.overallIn(ctx, tx, hire.ID)
	if err != nil {
		return err
	}
	if overall >= 100-completeEpsilon {
		events = append(events, Event{Kind: EventOnboardingCompleted, Hire: hire})
	}
	for _, e := range events {
		if err := notifyAll(ctx, tx, s.notifier, s.rules.Plan(e)); err != nil {
			return err
		}
	}

	return appendEvent(ctx, tx, "todo", t.ID, mqcontract.RoutingTodoCompleted, mqcontract.TodoCompletedPayload{
		TodoID:      t.ID,
		HireID:      t.HireID,
		TemplateID:  t.TemplateID,
		CompletedAt: *t.CompletedAt,
		TraceID:     trace.FromContext(ctx),
	})
}

// audience resolves the HR users that receive the TASK_COMPLETED broadcast.
func (s *TodoService) audience(ctx context.Context, st store.Store, hire *model.Hire) ([]model.HrUser, error) {
	switch s.broadcast.Scope {
	case BroadcastCompany:
		if hire.CompanyID == nil {
			return nil, nil
		}
		return st.Users().ListHrUsersByCompany(ctx, *hire.CompanyID)
	case BroadcastDepartment:
		if hire.DepartmentID == nil {
			return nil, nil
		}
		return st.Users().ListHrUsersByDepartment(ctx, *hire.DepartmentID)
	default:
		return st.Users().ListHrUsers(ctx)
	}
}

// CompleteMany completes each todo in its own transaction. Failures are
// logged and skipped.
func (s *TodoService) CompleteMany(ctx context.Context, todoIDs []int) ([]model.Todo, error) {
	log := logger.WithTrace(ctx, s.logger)
	out := make([]model.Todo, 0, len(todoIDs))
	for _, id := range todoIDs {
		todo, err := s.Complete(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			log.Warn("CompleteMany: skipping todo", zap.Int("todo_id", id), zap.Error(err))
			continue
		}
		out = append(out, *todo)
	}
	log.Info("CompleteMany finished", zap.Int("requested", len(todoIDs)), zap.Int("completed", len(out)))
	return out, nil
}

// SendReminder stamps reminderSentAt and notifies the hire. Status is unchanged.
func (s *TodoService) SendReminder(ctx context.Context, todoID int) (*model.Todo, error) {
	return s.notifyHire(ctx, "SendReminder", todoID, EventReminderRequested, func(t *model.Todo, task *model.Task) error {
		now := s.clock.now()
		t.ReminderSentAt = &now
		return nil
	})
}

// RequestSignature asks the hire to sign the task's document.
func (s *TodoService) RequestSignature(ctx context.Context, todoID int) (*model.Todo, error) {
	return s.notifyHire(ctx, "RequestSignature", todoID, EventSignatureRequested, func(_ *model.Todo, task *model.Task) error {
		if !task.RequiresSignature {
			return validationf("task %d does not require a signature", task.ID)
		}
		return nil
	})
}

// notifyHire loads the todo with its task and hire, lets mutate adjust the
// todo, persists it and fires kind.
func (s *TodoService) notifyHire(ctx context.Context, op string, todoID int, kind EventKind, mutate func(*model.Todo, *model.Task) error) (*model.Todo, error) {
	ctx, span := otel.StartSpan(ctx, "TodoService."+op)
	defer span.End()
	log := logger.WithTrace(ctx, s.logger).With(zap.Int("todo_id", todoID))

	var todo *model.Todo
	err := s.st.InTx(ctx, func(tx store.Store) error {
		t, err := tx.Todos().GetForUpdate(ctx, todoID)
		if err != nil {
			return mapStoreErr(err)
		}
		task, err := tx.Tasks().Get(ctx, t.TaskID)
		if err != nil {
			return mapStoreErr(err)
		}
		hire, err := tx.Users().GetHire(ctx, t.HireID)
		if err != nil {
			return mapStoreErr(err)
		}
		if err := mutate(t, task); err != nil {
			return err
		}
		if err := tx.Todos().Update(ctx, t); err != nil {
			return mapStoreErr(err)
		}
		todo = t
		return notifyAll(ctx, tx, s.notifier, s.rules.Plan(Event{Kind: kind, Hire: hire, Task: task}))
	})
	otel.RecordError(span, err)
	if err != nil {
		logFailure(log, op+": failed", err)
		return nil, err
	}

	log.Info(op + ": notified hire")
	return todo, nil
}

func (s *TodoService) MarkInProgress(ctx context.Context, todoID int) (*model.Todo, error) {
	return s.setStatus(ctx, todoID, model.TodoInProgress)
}

func (s *TodoService) MarkOverdue(ctx context.Context, todoID int) (*model.Todo, error) {
	return s.setStatus(ctx, todoID, model.TodoOverdue)
}

// setStatus is a plain status write without notifications. COMPLETED is
// terminal and cannot be left.
func (s *TodoService) setStatus(ctx context.Context, todoID int, status model.TodoStatus) (*model.Todo, error) {
	log := logger.WithTrace(ctx, s.logger).With(zap.Int("todo_id", todoID), zap.String("status", string(status)))

	var todo *model.Todo
	err := s.st.InTx(ctx, func(tx store.Store) error {
		t, err := tx.Todos().GetForUpdate(ctx, todoID)
		if err != nil {
			return mapStoreErr(err)
		}
		if t.Status == model.TodoCompleted {
			return fmt.Errorf("%w: todo %d is already completed", ErrConflict, todoID)
		}
		t.Status = status
		todo = t
		return mapStoreErr(tx.Todos().Update(ctx, t))
	})
	if err != nil {
		logFailure(log, "setStatus: failed", err)
		return nil, err
	}

	metrics.IncrementTodoTransition(string(status))
	log.Info("todo status updated")
	return todo, nil
}

// FindOverdue returns PENDING todos whose due date has passed.
func (s *TodoService) FindOverdue(ctx context.Context) ([]model.Todo, error) {
	return s.st.Todos().ListOverdue(ctx, s.clock.now())
}

// EscalateOverdue marks a still-open todo OVERDUE and notifies the hire.
// It reports false when the todo was already closed or overdue.
func (s *TodoService) EscalateOverdue(ctx context.Context, todoID int) (*model.Todo, bool, error) {
	ctx, span := otel.StartSpan(ctx, "TodoService.EscalateOverdue")
	defer span.End()
	log := logger.WithTrace(ctx, s.logger).With(zap.Int("todo_id", todoID))

	var (
		todo      *model.Todo
		escalated bool
	)
	err := s.st.InTx(ctx, func(tx store.Store) error {
		t, err := tx.Todos().GetForUpdate(ctx, todoID)
		if err != nil {
			return mapStoreErr(err)
		}
		todo = t
		if !t.Open() {
			return nil
		}
		task, err := tx.Tasks().Get(ctx, t.TaskID)
		if err != nil {
			return mapStoreErr(err)
		}
		hire, err := tx.Users().GetHire(ctx, t.HireID)
		if err != nil {
			return mapStoreErr(err)
		}
		t.Status = model.TodoOverdue
		if err := tx.Todos().Update(ctx, t); err != nil {
			return mapStoreErr(err)
		}
		escalated = true
		return notifyAll(ctx, tx, s.notifier, s.rules.Plan(Event{Kind: EventTaskOverdue, Hire: hire, Task: task}))
	})
	otel.RecordError(span, err)
	if err != nil {
		logFailure(log, "EscalateOverdue: failed", err)
		return nil, false, err
	}

	if !escalated {
		log.Debug("todo not open, nothing to escalate", zap.String("status", string(todo.Status)))
		return todo, false, nil
	}
	metrics.IncrementTodoTransition(string(model.TodoOverdue))
	log.Info("todo escalated to overdue")
	return todo, true, nil
}

// CreateTodosFromTemplate materializes todos without touching progress or
// template status.
func (s *TodoService) CreateTodosFromTemplate(ctx context.Context, templateID int, hireID uuid.UUID) ([]model.Todo, error) {
	log := logger.WithTrace(ctx, s.logger).With(zap.Int("template_id", templateID), zap.String("hire_id", hireID.String()))

	var todos []model.Todo
	err := s.st.InTx(ctx, func(tx store.Store) error {
		tmpl, err := tx.Templates().GetForUpdate(ctx, templateID)
		if err != nil {
			return mapStoreErr(err)
		}
		hire, err := tx.Users().GetHire(ctx, hireID)
		if err != nil {
			return mapStoreErr(err)
		}
		todos, err = s.materializer.CreateTodosFromTemplate(ctx, tx, tmpl, hire)
		return err
	})
	if err != nil {
		logFailure(log, "CreateTodosFromTemplate: failed", err)
		return nil, err
	}
	return todos, nil
}

// ProgressPercentage is completed/total over every todo of the hire.
func (s *TodoService) ProgressPercentage(ctx context.Context, hireID uuid.UUID) (float64, error) {
	total, completed, err := s.st.Todos().CountByHire(ctx, hireID)
	if err != nil {
		return 0, err
	}
	return model.Percentage(completed, total), nil
}

func (s *TodoService) Get(ctx context.Context, todoID int) (*model.Todo, error) {
	t, err := s.st.Todos().Get(ctx, todoID)
	return t, mapStoreErr(err)
}

func (s *TodoService) ListByHire(ctx context.Context, hireID uuid.UUID) ([]model.Todo, error) {
	return s.st.Todos().ListByHire(ctx, hireID)
}

func (s *TodoService) ListByHireAndStatus(ctx context.Context, hireID uuid.UUID, status model.TodoStatus) ([]model.Todo, error) {
	return s.st.Todos().ListByHireAndStatus(ctx, hireID, status)
}

func (s *TodoService) ListByHR(ctx context.Context, hrID uuid.UUID) ([]model.Todo, error) {
	return s.st.Todos().ListByHR(ctx, hrID)
}

func (s *TodoService) ListByTemplate(ctx context.Context, templateID int) ([]model.Todo, error) {
	return s.st.Todos().ListByTemplate(ctx, templateID)
}

func (s *TodoService) ListByStatus(ctx context.Context, status model.TodoStatus) ([]model.Todo, error) {
	return s.st.Todos().ListByStatus(ctx, status)
}
