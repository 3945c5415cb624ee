// Package service implements the onboarding workflow: task ordering,
// template assignment, the todo state machine, progress aggregation and the
// notification rules fired by todo transitions.
package service

import (
	"context"
	"time"

	"onboarding/internal/store"
	"onboarding/pkg/outbox"
)

// Clock returns the current time; tests pass a fixed one.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

// appendEvent 在当前事务中写入 outbox 事件
func appendEvent(ctx context.Context, st store.Store, aggregateType string, aggregateID int, routingKey string, payload any) error {
	id := int64(aggregateID)
	event, err := outbox.NewEvent(aggregateType, &id, routingKey, payload)
	if err != nil {
		return err
	}
	return st.Outbox().Append(ctx, event)
}
