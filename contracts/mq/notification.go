package mq

import (
	"time"

	"github.com/google/uuid"
)

// NotificationCreatedPayload 站内通知已创建
type NotificationCreatedPayload struct {
	NotificationID int       `json:"notification_id"`
	UserID         uuid.UUID `json:"user_id"`
	TaskID         *int      `json:"task_id,omitempty"`
	Type           string    `json:"type"`
	Message        string    `json:"message"`
	CreatedAt      time.Time `json:"created_at"`
	TraceID        string    `json:"trace_id,omitempty"`
}
