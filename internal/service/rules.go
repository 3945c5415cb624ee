package service

import (
	"fmt"

	"github.com/google/uuid"

	"onboarding/internal/model"
)

type EventKind string

const (
	// EventTodoCompleted is the first completion of a todo.
	EventTodoCompleted EventKind = "todo_completed"
	// EventTaskCompleted is the optional HR broadcast for any completion.
	EventTaskCompleted       EventKind = "task_completed"
	EventReminderRequested   EventKind = "reminder_requested"
	EventSignatureRequested  EventKind = "signature_requested"
	EventTaskOverdue         EventKind = "task_overdue"
	EventOnboardingStarted   EventKind = "onboarding_started"
	EventOnboardingCompleted EventKind = "onboarding_completed"
)

// Event is a state change that may produce notifications.
// Audience is only read for EventTaskCompleted.
type Event struct {
	Kind     EventKind
	Hire     *model.Hire
	Task     *model.Task
	Audience []model.HrUser
}

// Intent is a notification to be created.
type Intent struct {
	UserID        uuid.UUID
	Type          model.NotificationType
	Message       string
	RelatedTaskID *int
}

// Rules maps events to notification intents. It has no side effects.
type Rules struct{}

func (Rules) Plan(e Event) []Intent {
	if e.Hire == nil {
		return nil
	}
	hire := e.Hire

	switch e.Kind {
	case EventTodoCompleted:
		if e.Task == nil || !e.Task.RequiresSignature || hire.RegisteredByHR == uuid.Nil {
			return nil
		}
		return []Intent{{
			UserID:        hire.RegisteredByHR,
			Type:          model.NotificationDocumentSigned,
			Message:       fmt.Sprintf("Document for task '%s' has been signed and requires your review", e.Task.Title),
			RelatedTaskID: taskRef(e.Task),
		}}

	case EventTaskCompleted:
		if e.Task == nil {
			return nil
		}
		msg := fmt.Sprintf("Task '%s' has been completed by %s %s", e.Task.Title, hire.FirstName, hire.LastName)
		intents := make([]Intent, 0, len(e.Audience))
		for _, hr := range e.Audience {
			intents = append(intents, Intent{
				UserID:        hr.ID,
				Type:          model.NotificationTaskCompleted,
				Message:       msg,
				RelatedTaskID: taskRef(e.Task),
			})
		}
		return intents

	case EventReminderRequested:
		return hireIntent(e, model.NotificationReminder, "Reminder: Task '%s' is due soon. Please complete it.")

	case EventSignatureRequested:
		return hireIntent(e, model.NotificationSignatureRequest, "Please review and sign the document for task '%s'")

	case EventTaskOverdue:
		return hireIntent(e, model.NotificationOverdueTask, "Task '%s' is overdue. Please complete it as soon as possible.")

	case EventOnboardingStarted:
		return hrIntent(hire, model.NotificationOnboardingStarted, "Onboarding has started for %s %s")

	case EventOnboardingCompleted:
		return hrIntent(hire, model.NotificationOnboardingCompleted, "Onboarding has been completed by %s %s")
	}
	return nil
}

func hireIntent(e Event, typ model.NotificationType, format string) []Intent {
	if e.Task == nil {
		return nil
	}
	return []Intent{{
		UserID:        e.Hire.ID,
		Type:          typ,
		Message:       fmt.Sprintf(format, e.Task.Title),
		RelatedTaskID: taskRef(e.Task),
	}}
}

func hrIntent(hire *model.Hire, typ model.NotificationType, format string) []Intent {
	if hire.RegisteredByHR == uuid.Nil {
		return nil
	}
	return []Intent{{
		UserID:  hire.RegisteredByHR,
		Type:    typ,
		Message: fmt.Sprintf(format, hire.FirstName, hire.LastName),
	}}
}

func taskRef(t *model.Task) *int {
	id := t.ID
	return &id
}
