package model

import (
	"time"

	"github.com/google/uuid"
)

// Progress is the completion aggregate of one (hire, template) pair.
// It is derived from todos and can always be recomputed.
type Progress struct {
	ID                   int       `json:"id"`
	HireID               uuid.UUID `json:"hire_id"`
	TemplateID           int       `json:"template_id"`
	TotalTasks           int       `json:"total_tasks"`
	CompletedTasks       int       `json:"completed_tasks"`
	CompletionPercentage float64   `json:"completion_percentage"`
	LastUpdated          time.Time `json:"last_updated"`
	CreatedAt            time.Time `json:"created_at"`
}

// SetCounts updates both counters and the percentage derived from them.
func (p *Progress) SetCounts(total, completed int) {
	p.TotalTasks = total
	p.CompletedTasks = completed
	p.CompletionPercentage = Percentage(completed, total)
}

// Percentage returns completed/total*100, or 0 when total is 0.
func Percentage(completed, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(completed) / float64(total) * 100
}
