package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	mqcontract "onboarding/contracts/mq"
	"onboarding/internal/model"
	"onboarding/internal/store"
	"onboarding/pkg/logger"
	"onboarding/pkg/metrics"
	"onboarding/pkg/outbox"
	"onboarding/pkg/trace"
)

// Notifier is the only place notifications are created. st is the store of
// the caller's transaction.
type Notifier interface {
	Notify(ctx context.Context, st store.Store, intent Intent) (*model.Notification, error)
}

// StoreNotifier persists the notification and enqueues notification.created
// in the same transaction.
type StoreNotifier struct {
	logger *zap.Logger
}

func NewStoreNotifier(logger *zap.Logger) *StoreNotifier {
	return &StoreNotifier{logger: logger}
}

func (n *StoreNotifier) Notify(ctx context.Context, st store.Store, intent Intent) (*model.Notification, error) {
	log := logger.WithTrace(ctx, n.logger)

	notification := &model.Notification{
		UserID:        intent.UserID,
		Message:       intent.Message,
		RelatedTaskID: intent.RelatedTaskID,
		Type:          intent.Type,
	}
	if err := st.Notifications().Insert(ctx, notification); err != nil {
		log.Error("failed to insert notification",
			zap.String("user_id", intent.UserID.String()),
			zap.String("type", string(intent.Type)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("insert notification: %w", err)
	}

	id := int64(notification.ID)
	event, err := outbox.NewEvent("notification", &id, mqcontract.RoutingNotificationCreated, mqcontract.NotificationCreatedPayload{
		NotificationID: notification.ID,
		UserID:         notification.UserID,
		TaskID:         notification.RelatedTaskID,
		Type:           string(notification.Type),
		Message:        notification.Message,
		CreatedAt:      notification.CreatedAt,
		TraceID:        trace.FromContext(ctx),
	})
	if err != nil {
		return nil, err
	}
	if err := st.Outbox().Append(ctx, event); err != nil {
		return nil, fmt.Errorf("append notification.created: %w", err)
	}

	metrics.IncrementNotificationCreated(string(notification.Type))
	log.Info("notification created",
		zap.Int("notification_id", notification.ID),
		zap.String("user_id", notification.UserID.String()),
		zap.String("type", string(notification.Type)),
	)
	return notification, nil
}

func notifyAll(ctx context.Context, st store.Store, n Notifier, intents []Intent) error {
	for _, intent := range intents {
		if _, err := n.Notify(ctx, st, intent); err != nil {
			return err
		}
	}
	return nil
}
