package mqhandler

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"go.uber.org/zap"

	mqcontracts "onboarding/contracts/mq"
	"onboarding/internal/model"
	"onboarding/internal/service"
	"onboarding/pkg/logger"
	"onboarding/pkg/mq"
	"onboarding/pkg/util"
)

const handlerTodoOverdue = "todo_overdue"

// Escalator 把仍未完成的 todo 标记为 OVERDUE 并通知新员工
type Escalator interface {
	EscalateOverdue(ctx context.Context, todoID int) (*model.Todo, bool, error)
}

type TodoOverdueHandler struct {
	todos        Escalator
	deduper      *util.Deduper
	retryCounter *util.RetryCounter
	maxRetries   int64
	logger       *zap.Logger
}

// NewTodoOverdueHandler creates the todo.overdue consumer; deduper and
// retryCounter may be nil when Redis is not configured.
func NewTodoOverdueHandler(
	todos Escalator,
	deduper *util.Deduper,
	retryCounter *util.RetryCounter,
	maxRetries int,
	logger *zap.Logger,
) *TodoOverdueHandler {
	return &TodoOverdueHandler{
		todos:        todos,
		deduper:      deduper,
		retryCounter: retryCounter,
		maxRetries:   int64(maxRetries),
		logger:       logger,
	}
}

func (h *TodoOverdueHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	var p mqcontracts.TodoOverduePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Failed to unmarshal TodoOverduePayload", zap.Error(err))
		return mq.Permanent(err)
	}
	log := logger.WithTrace(ctx, h.logger).With(zap.Int("todo_id", p.TodoID))
	log.Info("Handling todo.overdue event", zap.Time("due_date", p.DueDate))

	// 同一个 todo 只升级一次
	key := strconv.Itoa(p.TodoID)
	if !h.deduper.AcquireOnce(ctx, handlerTodoOverdue, key) {
		return nil
	}

	retryKey := util.FormatRetryKey(handlerTodoOverdue, p.TodoID)
	retryCount, _ := h.retryCounter.IncrementAndGet(ctx, retryKey)

	_, escalated, err := h.todos.EscalateOverdue(ctx, p.TodoID)
	if err != nil {
		return h.handleError(ctx, log, err, key, retryKey, retryCount)
	}

	_ = h.retryCounter.Reset(ctx, retryKey)
	if !escalated {
		log.Debug("Todo no longer open, skip")
		return nil
	}
	log.Info("Todo escalated to overdue")
	return nil
}

func (h *TodoOverdueHandler) handleError(ctx context.Context, log *zap.Logger, err error, key, retryKey string, retryCount int64) error {
	// todo 已被删除：ack 即可
	if errors.Is(err, service.ErrNotFound) {
		log.Warn("Todo not found, dropping event", zap.Error(err))
		_ = h.retryCounter.Reset(ctx, retryKey)
		return nil
	}

	isRetryable, errType := util.IsRetryableError(err)
	log.Warn("Escalation failed",
		zap.String("error_type", errType),
		zap.Bool("retryable", isRetryable),
		zap.Int64("retry", retryCount),
		zap.Error(err),
	)

	// 释放去重锁，重新投递或 DLQ 重放时才能再次处理
	h.deduper.Release(ctx, handlerTodoOverdue, key)
	if !util.ShouldRetry(retryCount, h.maxRetries, isRetryable) {
		_ = h.retryCounter.Reset(ctx, retryKey)
		return mq.Permanent(err)
	}
	return err
}
