package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type TemplateStatus string

const (
	TemplatePending    TemplateStatus = "PENDING"
	TemplateInProgress TemplateStatus = "IN_PROGRESS"
	TemplateCompleted  TemplateStatus = "COMPLETED"
	TemplateArchived   TemplateStatus = "ARCHIVED"
)

// ParseTemplateStatus accepts any casing of a known status.
func ParseTemplateStatus(s string) (TemplateStatus, error) {
	switch st := TemplateStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case TemplatePending, TemplateInProgress, TemplateCompleted, TemplateArchived:
		return st, nil
	default:
		return "", fmt.Errorf("unknown template status %q", s)
	}
}

var templateStatusRank = map[TemplateStatus]int{
	TemplatePending:    0,
	TemplateInProgress: 1,
	TemplateCompleted:  2,
	TemplateArchived:   3,
}

// CanMoveTo reports whether the lifecycle allows s -> next. Status only moves
// forward; staying put is allowed.
func (s TemplateStatus) CanMoveTo(next TemplateStatus) bool {
	from, ok := templateStatusRank[s]
	if !ok {
		return false
	}
	to, ok := templateStatusRank[next]
	return ok && to >= from
}

// Template is an HR-owned ordered catalog of onboarding tasks.
type Template struct {
	ID            int            `json:"id"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Status        TemplateStatus `json:"status"`
	CreatedByHR   uuid.UUID      `json:"created_by_hr"`
	DepartmentIDs []int          `json:"department_ids"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

type Department struct {
	ID        int    `json:"id"`
	CompanyID int    `json:"company_id"`
	Name      string `json:"name"`
}
