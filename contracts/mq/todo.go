package mq

import (
	"time"

	"github.com/google/uuid"
)

// TodoOverduePayload 由 runner 扫描到的逾期 todo
type TodoOverduePayload struct {
	TodoID  int       `json:"todo_id"`
	HireID  uuid.UUID `json:"hire_id"`
	DueDate time.Time `json:"due_date"`
	TraceID string    `json:"trace_id,omitempty"`
}

// TodoCompletedPayload todo 首次完成
type TodoCompletedPayload struct {
	TodoID      int       `json:"todo_id"`
	HireID      uuid.UUID `json:"hire_id"`
	TemplateID  int       `json:"template_id"`
	CompletedAt time.Time `json:"completed_at"`
	TraceID     string    `json:"trace_id,omitempty"`
}
