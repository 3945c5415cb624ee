package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"onboarding/internal/model"
)

type NotificationRepository struct {
	db     querier
	logger *zap.Logger
}

const notificationColumns = `id, user_id, message, is_read, related_task_id, type, created_at`

func (r *NotificationRepository) Insert(ctx context.Context, n *model.Notification) error {
	r.logger.Debug("Inserting notification",
		zap.String("user_id", n.UserID.String()),
		zap.String("type", string(n.Type)),
	)
	query := `
        INSERT INTO notifications (user_id, message, is_read, related_task_id, type)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at
    `
	err := r.db.QueryRow(ctx, query, n.UserID, n.Message, n.IsRead, n.RelatedTaskID, n.Type).
		Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to insert notification",
			zap.String("user_id", n.UserID.String()),
			zap.Error(err),
		)
		return mapErr(err, "insert notification")
	}
	r.logger.Info("Notification inserted successfully",
		zap.Int("notification_id", n.ID),
		zap.String("type", string(n.Type)),
	)
	return nil
}

func (r *NotificationRepository) Get(ctx context.Context, id int) (*model.Notification, error) {
	n, err := scanNotification(r.db.QueryRow(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id))
	if err != nil {
		return nil, mapErr(err, "get notification")
	}
	return n, nil
}

func (r *NotificationRepository) ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]model.Notification, error) {
	query := `SELECT ` + notificationColumns + `
        FROM notifications
        WHERE user_id = $1 AND ($2 = FALSE OR is_read = FALSE)
        ORDER BY created_at DESC, id DESC
    `
	rows, err := r.db.Query(ctx, query, userID, unreadOnly)
	if err != nil {
		r.logger.Error("Failed to query notifications", zap.Error(err))
		return nil, mapErr(err, "list notifications")
	}
	defer rows.Close()

	out := []model.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, mapErr(err, "scan notification")
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

func (r *NotificationRepository) MarkAsRead(ctx context.Context, id int) error {
	tag, err := r.db.Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1`, id)
	if err != nil {
		return mapErr(err, "mark notification read")
	}
	if tag.RowsAffected() == 0 {
		return mapErr(pgx.ErrNoRows, "mark notification read")
	}
	return nil
}

func (r *NotificationRepository) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int, error) {
	tag, err := r.db.Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`, userID)
	if err != nil {
		return 0, mapErr(err, "mark notifications read")
	}
	return int(tag.RowsAffected()), nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE`, userID).Scan(&n)
	if err != nil {
		return 0, mapErr(err, "count unread notifications")
	}
	return n, nil
}

func scanNotification(row pgx.Row) (*model.Notification, error) {
	var n model.Notification
	err := row.Scan(&n.ID, &n.UserID, &n.Message, &n.IsRead, &n.RelatedTaskID, &n.Type, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
