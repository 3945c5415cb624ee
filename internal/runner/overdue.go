package runner

import (
	"context"
	"time"

	"go.uber.org/zap"

	mqcontracts "onboarding/contracts/mq"
	"onboarding/internal/model"
	"onboarding/pkg/logger"
	"onboarding/pkg/trace"
)

// OverdueFinder lists open todos whose due date has passed.
type OverdueFinder interface {
	FindOverdue(ctx context.Context) ([]model.Todo, error)
}

// Escalator marks a todo overdue in-process when no broker is configured.
type Escalator interface {
	EscalateOverdue(ctx context.Context, todoID int) (*model.Todo, bool, error)
}

type Publisher interface {
	PublishWithContext(ctx context.Context, routingKey string, payload any) error
}

// OverdueScanner 定期扫描逾期 todo：有 MQ 时发布 todo.overdue，否则直接升级
type OverdueScanner struct {
	finder    OverdueFinder
	publisher Publisher
	escalator Escalator
	interval  time.Duration
	logger    *zap.Logger
}

func NewOverdueScanner(finder OverdueFinder, logger *zap.Logger) *OverdueScanner {
	return &OverdueScanner{
		finder:   finder,
		interval: time.Minute,
		logger:   logger,
	}
}

// WithPublisher 通过 MQ 异步升级
func (s *OverdueScanner) WithPublisher(p Publisher) *OverdueScanner {
	s.publisher = p
	return s
}

// WithEscalator 在没有 MQ 时同步升级
func (s *OverdueScanner) WithEscalator(e Escalator) *OverdueScanner {
	s.escalator = e
	return s
}

func (s *OverdueScanner) WithInterval(interval time.Duration) *OverdueScanner {
	if interval > 0 {
		s.interval = interval
	}
	return s
}

// Start runs a scan immediately and then on every tick until ctx is done.
func (s *OverdueScanner) Start(ctx context.Context) {
	s.logger.Info("Starting overdue scanner",
		zap.Duration("interval", s.interval),
		zap.Bool("publish", s.publisher != nil),
	)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Overdue scanner stopped")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *OverdueScanner) runOnce(ctx context.Context) {
	if _, err := s.Scan(ctx); err != nil {
		s.logger.Error("Overdue scan failed", zap.Error(err))
	}
}

// Scan handles one batch of overdue todos and returns how many were
// published or escalated.
func (s *OverdueScanner) Scan(ctx context.Context) (int, error) {
	ctx = trace.WithContext(ctx, trace.GenerateTraceID())
	log := logger.WithTrace(ctx, s.logger)

	todos, err := s.finder.FindOverdue(ctx)
	if err != nil {
		return 0, err
	}
	if len(todos) == 0 {
		log.Debug("No overdue todos found")
		return 0, nil
	}

	handled := 0
	for _, todo := range todos {
		if ctx.Err() != nil {
			return handled, ctx.Err()
		}
		if s.handle(ctx, log, todo) {
			handled++
		}
	}

	log.Info("Overdue scan completed",
		zap.Int("overdue_count", len(todos)),
		zap.Int("handled", handled),
	)
	return handled, nil
}

func (s *OverdueScanner) handle(ctx context.Context, log *zap.Logger, todo model.Todo) bool {
	log = log.With(zap.Int("todo_id", todo.ID))
	switch {
	case s.publisher != nil:
		payload := mqcontracts.TodoOverduePayload{
			TodoID:  todo.ID,
			HireID:  todo.HireID,
			DueDate: todo.DueDate,
			TraceID: trace.FromContext(ctx),
		}
		if err := s.publisher.PublishWithContext(ctx, mqcontracts.RoutingTodoOverdue, payload); err != nil {
			log.Error("Failed to publish todo.overdue event", zap.Error(err))
			return false
		}
		log.Debug("Published todo.overdue event")
		return true
	case s.escalator != nil:
		_, escalated, err := s.escalator.EscalateOverdue(ctx, todo.ID)
		if err != nil {
			log.Error("Failed to escalate overdue todo", zap.Error(err))
			return false
		}
		return escalated
	default:
		log.Warn("Overdue scanner has neither publisher nor escalator")
		return false
	}
}
