package model

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationTaskCompleted       NotificationType = "TASK_COMPLETED"
	NotificationDocumentSigned      NotificationType = "DOCUMENT_SIGNED"
	NotificationSignatureRequest    NotificationType = "SIGNATURE_REQUEST"
	NotificationReminder            NotificationType = "REMINDER"
	NotificationOverdueTask         NotificationType = "OVERDUE_TASK"
	NotificationOnboardingStarted   NotificationType = "ONBOARDING_STARTED"
	NotificationOnboardingCompleted NotificationType = "ONBOARDING_COMPLETED"
	NotificationGeneral             NotificationType = "GENERAL"
)

type Notification struct {
	ID            int              `json:"id"`
	UserID        uuid.UUID        `json:"user_id"`
	Message       string           `json:"message"`
	IsRead        bool             `json:"is_read"`
	RelatedTaskID *int             `json:"related_task_id,omitempty"`
	Type          NotificationType `json:"type"`
	CreatedAt     time.Time        `json:"created_at"`
}
