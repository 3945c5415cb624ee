package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"onboarding/internal/model"
	"onboarding/internal/store"
	"onboarding/pkg/logger"
)

// NotificationService is the read side of notifications plus the read flag.
type NotificationService struct {
	st     store.Store
	logger *zap.Logger
}

func NewNotificationService(st store.Store, logger *zap.Logger) *NotificationService {
	return &NotificationService{st: st, logger: logger}
}

func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]model.Notification, error) {
	return s.st.Notifications().ListByUser(ctx, userID, unreadOnly)
}

func (s *NotificationService) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.st.Notifications().CountUnread(ctx, userID)
}

// MarkAsRead only touches notifications owned by userID; others look missing.
func (s *NotificationService) MarkAsRead(ctx context.Context, userID uuid.UUID, notificationID int) error {
	log := logger.WithTrace(ctx, s.logger).With(zap.Int("notification_id", notificationID))

	n, err := s.st.Notifications().Get(ctx, notificationID)
	if err != nil {
		return mapStoreErr(err)
	}
	if n.UserID != userID {
		log.Warn("MarkAsRead: notification belongs to another user")
		return fmt.Errorf("%w: notification %d", ErrNotFound, notificationID)
	}
	if n.IsRead {
		return nil
	}
	if err := s.st.Notifications().MarkAsRead(ctx, notificationID); err != nil {
		return mapStoreErr(err)
	}
	log.Debug("notification marked as read")
	return nil
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int, error) {
	n, err := s.st.Notifications().MarkAllAsRead(ctx, userID)
	if err != nil {
		return 0, err
	}
	logger.WithTrace(ctx, s.logger).Info("marked notifications as read",
		zap.String("user_id", userID.String()),
		zap.Int("count", n),
	)
	return n, nil
}
