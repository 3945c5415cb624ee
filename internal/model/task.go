package model

import (
	"fmt"
	"strings"
	"time"
)

type TaskType string

const (
	TaskEvent    TaskType = "EVENT"
	TaskDocument TaskType = "DOCUMENT"
	TaskResource TaskType = "RESOURCE"
)

func ParseTaskType(s string) (TaskType, error) {
	switch t := TaskType(strings.ToUpper(strings.TrimSpace(s))); t {
	case TaskEvent, TaskDocument, TaskResource:
		return t, nil
	default:
		return "", fmt.Errorf("unknown task type %q", s)
	}
}

type TaskPriority string

const (
	PriorityLow      TaskPriority = "LOW"
	PriorityMedium   TaskPriority = "MEDIUM"
	PriorityHigh     TaskPriority = "HIGH"
	PriorityCritical TaskPriority = "CRITICAL"
)

// ParseTaskPriority returns "" for an empty input; priority is optional.
func ParseTaskPriority(s string) (TaskPriority, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	switch p := TaskPriority(strings.ToUpper(strings.TrimSpace(s))); p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return p, nil
	default:
		return "", fmt.Errorf("unknown task priority %q", s)
	}
}

// Task is one step of a template. OrderIndex is 1-based and dense within the template.
type Task struct {
	ID                int          `json:"id"`
	TemplateID        int          `json:"template_id"`
	Title             string       `json:"title"`
	Description       string       `json:"description"`
	Type              TaskType     `json:"type"`
	RequiresSignature bool         `json:"requires_signature"`
	ResourceURL       *string      `json:"resource_url,omitempty"`
	EventDate         *time.Time   `json:"event_date,omitempty"`
	DueDate           *time.Time   `json:"due_date,omitempty"`
	Priority          TaskPriority `json:"priority,omitempty"`
	EstimatedHours    *float64     `json:"estimated_hours,omitempty"`
	OrderIndex        int          `json:"order_index"`
	CreatedAt         time.Time    `json:"created_at"`
}
