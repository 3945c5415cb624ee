package runner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	mqcontracts "onboarding/contracts/mq"
	"onboarding/internal/model"
)

type fakeFinder struct {
	todos []model.Todo
	err   error
}

func (f *fakeFinder) FindOverdue(context.Context) ([]model.Todo, error) {
	return f.todos, f.err
}

type fakePublisher struct {
	mu       sync.Mutex
	keys     []string
	payloads []mqcontracts.TodoOverduePayload
	failID   int
}

func (p *fakePublisher) PublishWithContext(_ context.Context, key string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	pl := payload.(mqcontracts.TodoOverduePayload)
	if pl.TodoID == p.failID {
		return errors.New("broker down")
	}
	p.keys = append(p.keys, key)
	p.payloads = append(p.payloads, pl)
	return nil
}

type fakeEscalator struct{ escalated []int }

func (e *fakeEscalator) EscalateOverdue(_ context.Context, id int) (*model.Todo, bool, error) {
	e.escalated = append(e.escalated, id)
	return &model.Todo{ID: id, Status: model.TodoOverdue}, id != 2, nil
}

func overdueTodos(ids ...int) []model.Todo {
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	out := make([]model.Todo, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.Todo{ID: id, HireID: uuid.New(), Status: model.TodoPending, DueDate: due})
	}
	return out
}

func TestScanPublishesOverdueEvents(t *testing.T) {
	pub := &fakePublisher{failID: 2}
	s := NewOverdueScanner(&fakeFinder{todos: overdueTodos(1, 2, 3)}, zaptest.NewLogger(t)).WithPublisher(pub)

	n, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{mqcontracts.RoutingTodoOverdue, mqcontracts.RoutingTodoOverdue}, pub.keys)
	require.Len(t, pub.payloads, 2)
	assert.Equal(t, 1, pub.payloads[0].TodoID)
	assert.NotEmpty(t, pub.payloads[0].TraceID)
}

func TestScanEscalatesInlineWithoutBroker(t *testing.T) {
	esc := &fakeEscalator{}
	s := NewOverdueScanner(&fakeFinder{todos: overdueTodos(1, 2)}, zaptest.NewLogger(t)).WithEscalator(esc)

	n, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []int{1, 2}, esc.escalated)
}

func TestScanReportsFinderError(t *testing.T) {
	s := NewOverdueScanner(&fakeFinder{err: errors.New("db down")}, zaptest.NewLogger(t))
	_, err := s.Scan(context.Background())
	require.Error(t, err)
}

func TestStartStopsOnCancel(t *testing.T) {
	pub := &fakePublisher{}
	s := NewOverdueScanner(&fakeFinder{todos: overdueTodos(5)}, zaptest.NewLogger(t)).
		WithPublisher(pub).
		WithInterval(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		pub.mu.Lock()
		defer pub.mu.Unlock()
		return len(pub.keys) == 1
	}, time.Second, 10*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scanner did not stop")
	}
}
