package service

import (
	"context"
	"fmt"
	"slices"
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

// TemplateInput carries create and update fields. On update a nil
// DepartmentIDs leaves the associations alone and an empty one clears them;
// an empty Status keeps the current status.
type TemplateInput struct {
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	HRID          uuid.UUID `json:"hr_id"`
	DepartmentIDs []int     `json:"department_ids"`
	Status        string    `json:"status,omitempty"`
}

// Assignment is the outcome of AssignToHire. Assigned is false when the hire
// already had todos for the template.
type Assignment struct {
	TemplateID int             `json:"template_id"`
	HireID     uuid.UUID       `json:"hire_id"`
	Assigned   bool            `json:"assigned"`
	Todos      []model.Todo    `json:"todos"`
	Progress   *model.Progress `json:"progress,omitempty"`
}

type TemplateServiceDeps struct {
	Store        store.Store
	Materializer *Materializer
	Progress     *ProgressService
	Notifier     Notifier
	Logger       *zap.Logger
}

type TemplateService struct {
	st           store.Store
	materializer *Materializer
	progress     *ProgressService
	rules        Rules
	notifier     Notifier
	logger       *zap.Logger
}

func NewTemplateService(d TemplateServiceDeps) *TemplateService {
	return &TemplateService{
		st:           d.Store,
		materializer: d.Materializer,
		progress:     d.Progress,
		notifier:     d.Notifier,
		logger:       d.Logger,
	}
}

func (s *TemplateService) CreateTemplate(ctx context.Context, in TemplateInput) (*model.Template, error) {
	ctx, span := otel.StartSpan(ctx, "TemplateService.CreateTemplate")
	defer span.End()
	log := logger.WithTrace(ctx, s.logger).With(zap.String("hr_id", in.HRID.String()))

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, validationf("template title is required")
	}
	if in.HRID == uuid.Nil {
		return nil, validationf("HR user id is required")
	}

	tmpl := &model.Template{
		Title:       title,
		Description: in.Description,
		Status:      model.TemplatePending,
		CreatedByHR: in.HRID,
	}
	err := s.st.InTx(ctx, func(tx store.Store) error {
		if _, err := tx.Users().GetHrUser(ctx, in.HRID); err != nil {
			return mapStoreErr(err)
		}
		if err := checkDepartments(ctx, tx, in.DepartmentIDs); err != nil {
			return err
		}
		if err := tx.Templates().Insert(ctx, tmpl); err != nil {
			return mapStoreErr(err)
		}
		if len(in.DepartmentIDs) == 0 {
			return nil
		}
		if err := tx.Templates().SetDepartments(ctx, tmpl.ID, in.DepartmentIDs); err != nil {
			return mapStoreErr(err)
		}
		tmpl.DepartmentIDs = normalizeIDs(in.DepartmentIDs)
		return nil
	})
	otel.RecordError(span, err)
	if err != nil {
		logFailure(log, "CreateTemplate: failed", err)
		return nil, err
	}

	log.Info("template created", zap.Int("template_id", tmpl.ID))
	return tmpl, nil
}

func (s *TemplateService) UpdateTemplate(ctx context.Context, templateID int, in TemplateInput) (*model.Template, error) {
	ctx, span := otel.StartSpan(ctx, "TemplateService.UpdateTemplate")
	defer span.End()
	log := logger.WithTrace(ctx, s.logger).With(zap.Int("template_id", templateID))

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, validationf("template title is required")
	}
	var status model.TemplateStatus
	if in.Status != "" {
		st, err := model.ParseTemplateStatus(in.Status)
		if err != nil {
			return nil, validationf("%v", err)
		}
		status = st
	}

	var tmpl *model.Template
	err := s.st.InTx(ctx, func(tx store.Store) error {
		t, err := tx.Templates().GetForUpdate(ctx, templateID)
		if err != nil {
			return mapStoreErr(err)
		}
		t.Title = title
		t.Description = in.Description
		if status != "" {
			if !t.Status.CanMoveTo(status) {
				return fmt.Errorf("%w: template %d cannot move from %s to %s", ErrConflict, templateID, t.Status, status)
			}
			t.Status = status
		}
		if err := tx.Templates().Update(ctx, t); err != nil {
			return mapStoreErr(err)
		}
		if in.DepartmentIDs != nil {
			if err := checkDepartments(ctx, tx, in.DepartmentIDs); err != nil {
				return err
			}
			if err := tx.Templates().SetDepartments(ctx, templateID, in.DepartmentIDs); err != nil {
				return mapStoreErr(err)
			}
			t.DepartmentIDs = normalizeIDs(in.DepartmentIDs)
		}
		tmpl = t
		return nil
	})
	otel.RecordError(span, err)
	if err != nil {
		logFailure(log, "UpdateTemplate: failed", err)
		return nil, err
	}

	log.Info("template updated", zap.String("status", string(tmpl.Status)))
	return tmpl, nil
}

// DeleteTemplate removes the template and its tasks. Templates with todos
// cannot be deleted.
func (s *TemplateService) DeleteTemplate(ctx context.Context, templateID int) error {
	ctx, span := otel.StartSpan(ctx, "TemplateService.DeleteTemplate")
	defer span.End()
	log := logger.WithTrace(ctx, s.logger).With(zap.Int("template_id", templateID))

	err := s.st.InTx(ctx, func(tx store.Store) error {
		if _, err := tx.Templates().GetForUpdate(ctx, templateID); err != nil {
			return mapStoreErr(err)
		}
		n, err := tx.Todos().CountByTemplate(ctx, templateID)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: template %d is referenced by %d todos", ErrConflict, templateID, n)
		}
		return mapStoreErr(tx.Templates().Delete(ctx, templateID))
	})
	otel.RecordError(span, err)
	if err != nil {
		logFailure(log, "DeleteTemplate: failed", err)
		return err
	}

	log.Info("template deleted")
	return nil
}

// AssignToHire materializes the template's todos for the hire, initializes
// progress and moves a PENDING template to IN_PROGRESS, all in one
// transaction. A repeated assignment is a logged no-op.
func (s *TemplateService) AssignToHire(ctx context.Context, templateID int, hireID uuid.UUID) (*Assignment, error) {
	ctx, span := otel.StartSpan(ctx, "TemplateService.AssignToHire")
	defer span.End()
	log := logger.WithTrace(ctx, s.logger).With(zap.Int("template_id", templateID), zap.String("hire_id", hireID.String()))
	log.Debug("assigning template")

	result := &Assignment{TemplateID: templateID, HireID: hireID, Todos: []model.Todo{}}
	err := s.st.InTx(ctx, func(tx store.Store) error {
		tmpl, err := tx.Templates().GetForUpdate(ctx, templateID)
		if err != nil {
			return mapStoreErr(err)
		}
		hire, err := tx.Users().GetHire(ctx, hireID)
		if err != nil {
			return mapStoreErr(err)
		}

		existing, _, err := tx.Todos().CountByHireAndTemplate(ctx, hireID, templateID)
		if err != nil {
			return err
		}
		if existing > 0 {
			return nil
		}
		taskCount, err := tx.Tasks().CountByTemplate(ctx, templateID)
		if err != nil {
			return err
		}
		if taskCount == 0 {
			return fmt.Errorf("%w: template %d has no tasks", ErrPrecondition, templateID)
		}
		hireTodos, _, err := tx.Todos().CountByHire(ctx, hireID)
		if err != nil {
			return err
		}

		todos, err := s.materializer.CreateTodosFromTemplate(ctx, tx, tmpl, hire)
		if err != nil {
			return err
		}
		progress, err := s.progress.Initialize(ctx, tx, hireID, templateID)
		if err != nil {
			return err
		}
		if tmpl.Status == model.TemplatePending {
			tmpl.Status = model.TemplateInProgress
			if err := tx.Templates().Update(ctx, tmpl); err != nil {
				return mapStoreErr(err)
			}
		}
		if hireTodos == 0 {
			intents := s.rules.Plan(Event{Kind: EventOnboardingStarted, Hire: hire})
			if err := notifyAll(ctx, tx, s.notifier, intents); err != nil {
				return err
			}
		}
		if err := appendEvent(ctx, tx, "template", templateID, mqcontract.RoutingOnboardingAssigned, mqcontract.OnboardingAssignedPayload{
			TemplateID: templateID,
			HireID:     hireID,
			TodoCount:  len(todos),
			TraceID:    trace.FromContext(ctx),
		}); err != nil {
			return err
		}

		result.Assigned = true
		result.Todos = todos
		result.Progress = progress
		return nil
	})
	otel.RecordError(span, err)
	switch {
	case err != nil:
		if IsClientError(err) {
			metrics.IncrementAssignment("rejected")
		} else {
			metrics.IncrementAssignment("failed")
		}
		logFailure(log, "AssignToHire: failed", err)
		return nil, err
	case !result.Assigned:
		metrics.IncrementAssignment("duplicate")
		log.Warn("template already assigned to hire, skipping")
		return result, nil
	}

	metrics.IncrementAssignment("assigned")
	log.Info("template assigned", zap.Int("todo_count", len(result.Todos)))
	return result, nil
}

func (s *TemplateService) GetTemplate(ctx context.Context, templateID int) (*model.Template, error) {
	t, err := s.st.Templates().Get(ctx, templateID)
	return t, mapStoreErr(err)
}

func (s *TemplateService) ListTemplates(ctx context.Context) ([]model.Template, error) {
	return s.st.Templates().List(ctx)
}

func (s *TemplateService) ListByHR(ctx context.Context, hrID uuid.UUID) ([]model.Template, error) {
	return s.st.Templates().ListByHR(ctx, hrID)
}

func (s *TemplateService) ListByDepartment(ctx context.Context, departmentID int) ([]model.Template, error) {
	return s.st.Templates().ListByDepartment(ctx, departmentID)
}

func (s *TemplateService) ListByCompany(ctx context.Context, companyID int) ([]model.Template, error) {
	return s.st.Templates().ListByCompany(ctx, companyID)
}

func checkDepartments(ctx context.Context, st store.Store, ids []int) error {
	for _, id := range ids {
		if _, err := st.Users().GetDepartment(ctx, id); err != nil {
			return mapStoreErr(err)
		}
	}
	return nil
}

func normalizeIDs(ids []int) []int {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}
