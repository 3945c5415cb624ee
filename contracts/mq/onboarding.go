package mq

import "github.com/google/uuid"

// Routing keys on the onboarding.events exchange.
const (
	RoutingTodoOverdue         = "todo.overdue"
	RoutingTodoCompleted       = "todo.completed"
	RoutingNotificationCreated = "notification.created"
	RoutingOnboardingAssigned  = "onboarding.assigned"
)

// OnboardingAssignedPayload 模板成功分配给新员工
type OnboardingAssignedPayload struct {
	TemplateID int       `json:"template_id"`
	HireID     uuid.UUID `json:"hire_id"`
	TodoCount  int       `json:"todo_count"`
	TraceID    string    `json:"trace_id,omitempty"`
}
