package mqhandler

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	mqcontracts "onboarding/contracts/mq"
	"onboarding/internal/model"
	"onboarding/internal/service"
	"onboarding/pkg/mq"
)

type fakeEscalator struct {
	calls []int
	err   error
	open  bool
}

func (f *fakeEscalator) EscalateOverdue(_ context.Context, todoID int) (*model.Todo, bool, error) {
	f.calls = append(f.calls, todoID)
	if f.err != nil {
		return nil, false, f.err
	}
	return &model.Todo{ID: todoID, Status: model.TodoOverdue}, f.open, nil
}

func payload(t *testing.T, todoID int) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(mqcontracts.TodoOverduePayload{TodoID: todoID, DueDate: time.Now()})
	require.NoError(t, err)
	return raw
}

func TestTodoOverdueHandlerEscalates(t *testing.T) {
	esc := &fakeEscalator{open: true}
	h := NewTodoOverdueHandler(esc, nil, nil, 3, zaptest.NewLogger(t))

	require.NoError(t, h.Handle(context.Background(), payload(t, 7)))
	assert.Equal(t, []int{7}, esc.calls)
}

func TestTodoOverdueHandlerRejectsMalformedPayload(t *testing.T) {
	esc := &fakeEscalator{}
	h := NewTodoOverdueHandler(esc, nil, nil, 3, zaptest.NewLogger(t))

	err := h.Handle(context.Background(), json.RawMessage(`{"todo_id":`))
	require.Error(t, err)
	assert.True(t, mq.IsPermanent(err))
	assert.Empty(t, esc.calls)
}

func TestTodoOverdueHandlerDropsMissingTodo(t *testing.T) {
	esc := &fakeEscalator{err: fmt.Errorf("%w: todo 9", service.ErrNotFound)}
	h := NewTodoOverdueHandler(esc, nil, nil, 3, zaptest.NewLogger(t))

	assert.NoError(t, h.Handle(context.Background(), payload(t, 9)))
}

func TestTodoOverdueHandlerRetriesTransientErrors(t *testing.T) {
	esc := &fakeEscalator{err: context.DeadlineExceeded}
	h := NewTodoOverdueHandler(esc, nil, nil, 3, zaptest.NewLogger(t))

	err := h.Handle(context.Background(), payload(t, 3))
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, mq.IsPermanent(err))
}

func TestTodoOverdueHandlerDeadLettersUnknownErrors(t *testing.T) {
	esc := &fakeEscalator{err: fmt.Errorf("boom")}
	h := NewTodoOverdueHandler(esc, nil, nil, 3, zaptest.NewLogger(t))

	err := h.Handle(context.Background(), payload(t, 3))
	require.Error(t, err)
	assert.True(t, mq.IsPermanent(err))
}
