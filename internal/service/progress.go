package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"onboarding/internal/model"
	"onboarding/internal/store"
	"onboarding/pkg/logger"
	"onboarding/pkg/metrics"
	"onboarding/pkg/otel"
)

// At-risk policy: below AtRiskThreshold percent and older than AtRiskAfter.
const (
	AtRiskThreshold = 50.0
	AtRiskAfter     = 7 * 24 * time.Hour
)

// completeEpsilon absorbs float error when comparing weighted averages to 100.
const completeEpsilon = 1e-9

// ProgressService maintains the per-(hire, template) completion aggregate.
// Rows are derived from todos and can always be recomputed.
type ProgressService struct {
	st     store.Store
	clock  Clock
	logger *zap.Logger
}

func NewProgressService(st store.Store, clock Clock, logger *zap.Logger) *ProgressService {
	return &ProgressService{st: st, clock: clock, logger: logger}
}

// Initialize creates the row for (hire, template) unless it exists. st is the
// caller's transaction.
func (s *ProgressService) Initialize(ctx context.Context, st store.Store, hireID uuid.UUID, templateID int) (*model.Progress, error) {
	log := logger.WithTrace(ctx, s.logger).With(zap.String("hire_id", hireID.String()), zap.Int("template_id", templateID))

	existing, err := st.Progress().Get(ctx, hireID, templateID)
	if err == nil {
		log.Debug("progress already initialized")
		return existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	total, err := st.Tasks().CountByTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	now := s.clock.now()
	p := &model.Progress{
		HireID:      hireID,
		TemplateID:  templateID,
		LastUpdated: now,
		CreatedAt:   now,
	}
	p.SetCounts(total, 0)
	if err := st.Progress().Insert(ctx, p); err != nil {
		log.Error("failed to initialize progress", zap.Error(err))
		return nil, mapStoreErr(err)
	}

	log.Info("progress initialized", zap.Int("total_tasks", total))
	return p, nil
}

// Recalculate recounts the hire's todos for the template under a row lock.
func (s *ProgressService) Recalculate(ctx context.Context, hireID uuid.UUID, templateID int) (*model.Progress, error) {
	ctx, span := otel.StartSpan(ctx, "ProgressService.Recalculate")
	defer span.End()

	var p *model.Progress
	err := s.st.InTx(ctx, func(tx store.Store) error {
		var err error
		p, err = s.recalculate(ctx, tx, hireID, templateID)
		return err
	})
	otel.RecordError(span, err)
	if err != nil {
		logFailure(logger.WithTrace(ctx, s.logger), "Recalculate: failed", err,
			zap.String("hire_id", hireID.String()), zap.Int("template_id", templateID))
		return nil, err
	}
	return p, nil
}

// OnTodoCompleted recalculates the row the todo belongs to.
func (s *ProgressService) OnTodoCompleted(ctx context.Context, todoID int) (*model.Progress, error) {
	var p *model.Progress
	err := s.st.InTx(ctx, func(tx store.Store) error {
		todo, err := tx.Todos().Get(ctx, todoID)
		if err != nil {
			return mapStoreErr(err)
		}
		p, err = s.recalculate(ctx, tx, todo.HireID, todo.TemplateID)
		return err
	})
	return p, err
}

// recalculate creates the row first when todos were materialized without one.
func (s *ProgressService) recalculate(ctx context.Context, st store.Store, hireID uuid.UUID, templateID int) (*model.Progress, error) {
	start := time.Now()
	log := logger.WithTrace(ctx, s.logger).With(zap.String("hire_id", hireID.String()), zap.Int("template_id", templateID))

	p, err := st.Progress().GetForUpdate(ctx, hireID, templateID)
	if errors.Is(err, store.ErrNotFound) {
		if _, err = s.Initialize(ctx, st, hireID, templateID); err != nil {
			return nil, err
		}
		p, err = st.Progress().GetForUpdate(ctx, hireID, templateID)
	}
	if err != nil {
		return nil, mapStoreErr(err)
	}

	total, completed, err := st.Todos().CountByHireAndTemplate(ctx, hireID, templateID)
	if err != nil {
		return nil, err
	}
	p.SetCounts(total, completed)
	p.LastUpdated = s.clock.now()
	if err := st.Progress().Update(ctx, p); err != nil {
		return nil, mapStoreErr(err)
	}

	metrics.ObserveProgressRecalc(time.Since(start))
	log.Debug("progress recalculated",
		zap.Int("total", total),
		zap.Int("completed", completed),
		zap.Float64("percentage", p.CompletionPercentage),
	)
	return p, nil
}

// OverallCompletion is the task-weighted mean over all of the hire's templates.
func (s *ProgressService) OverallCompletion(ctx context.Context, hireID uuid.UUID) (float64, error) {
	rows, err := s.st.Progress().ListByHire(ctx, hireID)
	if err != nil {
		return 0, err
	}
	return WeightedCompletion(rows), nil
}

func (s *ProgressService) overallIn(ctx context.Context, st store.Store, hireID uuid.UUID) (float64, error) {
	rows, err := st.Progress().ListByHire(ctx, hireID)
	if err != nil {
		return 0, err
	}
	return WeightedCompletion(rows), nil
}

// WeightedCompletion returns Σ(pct×total)/Σ(total), or 0 when Σ(total) is 0.
func WeightedCompletion(rows []model.Progress) float64 {
	var weighted float64
	var total int
	for _, p := range rows {
		weighted += p.CompletionPercentage * float64(p.TotalTasks)
		total += p.TotalTasks
	}
	if total == 0 {
		return 0
	}
	return weighted / float64(total)
}

// AverageCompletionForHR is the plain mean percentage over the HR's hires.
func (s *ProgressService) AverageCompletionForHR(ctx context.Context, hrID uuid.UUID) (float64, error) {
	rows, err := s.st.Progress().ListByHR(ctx, hrID)
	if err != nil || len(rows) == 0 {
		return 0, err
	}
	var sum float64
	for _, p := range rows {
		sum += p.CompletionPercentage
	}
	return sum / float64(len(rows)), nil
}

// AtRisk returns the HR's rows that are behind and no longer new.
func (s *ProgressService) AtRisk(ctx context.Context, hrID uuid.UUID) ([]model.Progress, error) {
	rows, err := s.st.Progress().ListByHR(ctx, hrID)
	if err != nil {
		return nil, err
	}
	return FilterAtRisk(rows, s.clock.now()), nil
}

func FilterAtRisk(rows []model.Progress, now time.Time) []model.Progress {
	cutoff := now.Add(-AtRiskAfter)
	out := []model.Progress{}
	for _, p := range rows {
		if p.CompletionPercentage < AtRiskThreshold && p.CreatedAt.Before(cutoff) {
			out = append(out, p)
		}
	}
	return out
}

// CountCompletedForHR counts the HR's rows at 100%.
func (s *ProgressService) CountCompletedForHR(ctx context.Context, hrID uuid.UUID) (int, error) {
	rows, err := s.st.Progress().ListByHR(ctx, hrID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, p := range rows {
		if p.CompletionPercentage >= 100-completeEpsilon {
			n++
		}
	}
	return n, nil
}

func (s *ProgressService) Get(ctx context.Context, hireID uuid.UUID, templateID int) (*model.Progress, error) {
	p, err := s.st.Progress().Get(ctx, hireID, templateID)
	return p, mapStoreErr(err)
}

func (s *ProgressService) ListByHire(ctx context.Context, hireID uuid.UUID) ([]model.Progress, error) {
	return s.st.Progress().ListByHire(ctx, hireID)
}

func (s *ProgressService) ListByHR(ctx context.Context, hrID uuid.UUID) ([]model.Progress, error) {
	return s.st.Progress().ListByHR(ctx, hrID)
}

func (s *ProgressService) ListByCompany(ctx context.Context, companyID int) ([]model.Progress, error) {
	return s.st.Progress().ListByCompany(ctx, companyID)
}

func (s *ProgressService) ListByDepartment(ctx context.Context, departmentID int) ([]model.Progress, error) {
	return s.st.Progress().ListByDepartment(ctx, departmentID)
}
