package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type TodoStatus string

const (
	TodoPending    TodoStatus = "PENDING"
	TodoInProgress TodoStatus = "IN_PROGRESS"
	TodoCompleted  TodoStatus = "COMPLETED"
	TodoOverdue    TodoStatus = "OVERDUE"
)

func ParseTodoStatus(s string) (TodoStatus, error) {
	switch st := TodoStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case TodoPending, TodoInProgress, TodoCompleted, TodoOverdue:
		return st, nil
	default:
		return "", fmt.Errorf("unknown todo status %q", s)
	}
}

// Todo is a per-hire instance of a task. At most one exists per (hire, task).
type Todo struct {
	ID             int        `json:"id"`
	HireID         uuid.UUID  `json:"hire_id"`
	TaskID         int        `json:"task_id"`
	TemplateID     int        `json:"template_id"`
	Status         TodoStatus `json:"status"`
	DueDate        time.Time  `json:"due_date"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	ReminderSentAt *time.Time `json:"reminder_sent_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Open reports whether the todo can still become overdue.
func (t *Todo) Open() bool {
	return t.Status == TodoPending || t.Status == TodoInProgress
}
