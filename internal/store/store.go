// Package store declares the record-store ports used by the onboarding services.
// internal/repository implements them on PostgreSQL; internal/repository/memory
// implements them in process for tests and local runs.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"onboarding/internal/model"
	"onboarding/pkg/outbox"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// Store groups the repositories. Repositories obtained from the Store passed to
// InTx's callback share that transaction; calling InTx on it runs fn inline.
type Store interface {
	Templates() TemplateRepository
	Tasks() TaskRepository
	Todos() TodoRepository
	Progress() ProgressRepository
	Users() UserRepository
	Notifications() NotificationRepository
	Outbox() OutboxWriter

	InTx(ctx context.Context, fn func(tx Store) error) error
}

type TemplateRepository interface {
	Insert(ctx context.Context, t *model.Template) error
	Update(ctx context.Context, t *model.Template) error
	Get(ctx context.Context, id int) (*model.Template, error)
	// GetForUpdate locks the template row until the transaction ends.
	GetForUpdate(ctx context.Context, id int) (*model.Template, error)
	Delete(ctx context.Context, id int) error
	List(ctx context.Context) ([]model.Template, error)
	ListByHR(ctx context.Context, hrID uuid.UUID) ([]model.Template, error)
	ListByDepartment(ctx context.Context, departmentID int) ([]model.Template, error)
	ListByCompany(ctx context.Context, companyID int) ([]model.Template, error)
	SetDepartments(ctx context.Context, templateID int, departmentIDs []int) error
}

type TaskRepository interface {
	Insert(ctx context.Context, t *model.Task) error
	// Update writes descriptive fields; order_index is left untouched.
	Update(ctx context.Context, t *model.Task) error
	SetOrderIndex(ctx context.Context, taskID, orderIndex int) error
	Get(ctx context.Context, id int) (*model.Task, error)
	Delete(ctx context.Context, id int) error
	// ListByTemplate returns tasks ordered by order_index ascending.
	ListByTemplate(ctx context.Context, templateID int) ([]model.Task, error)
	MaxOrderIndex(ctx context.Context, templateID int) (int, error)
	CountByTemplate(ctx context.Context, templateID int) (int, error)
	// CompactAfter decrements every order_index greater than orderIndex.
	CompactAfter(ctx context.Context, templateID, orderIndex int) error
}

type TodoRepository interface {
	// InsertBatch inserts all todos or none.
	InsertBatch(ctx context.Context, todos []*model.Todo) error
	Get(ctx context.Context, id int) (*model.Todo, error)
	GetForUpdate(ctx context.Context, id int) (*model.Todo, error)
	Update(ctx context.Context, t *model.Todo) error
	CountByHireAndTemplate(ctx context.Context, hireID uuid.UUID, templateID int) (total, completed int, err error)
	CountByHire(ctx context.Context, hireID uuid.UUID) (total, completed int, err error)
	CountByTemplate(ctx context.Context, templateID int) (int, error)
	ListByHire(ctx context.Context, hireID uuid.UUID) ([]model.Todo, error)
	ListByHireAndStatus(ctx context.Context, hireID uuid.UUID, status model.TodoStatus) ([]model.Todo, error)
	ListByTemplate(ctx context.Context, templateID int) ([]model.Todo, error)
	// ListByHR returns todos of hires registered by hrID.
	ListByHR(ctx context.Context, hrID uuid.UUID) ([]model.Todo, error)
	ListByStatus(ctx context.Context, status model.TodoStatus) ([]model.Todo, error)
	// ListOverdue returns PENDING todos due strictly before now.
	ListOverdue(ctx context.Context, now time.Time) ([]model.Todo, error)
}

type ProgressRepository interface {
	// Insert returns ErrDuplicate when the (hire, template) row exists.
	Insert(ctx context.Context, p *model.Progress) error
	Get(ctx context.Context, hireID uuid.UUID, templateID int) (*model.Progress, error)
	GetForUpdate(ctx context.Context, hireID uuid.UUID, templateID int) (*model.Progress, error)
	Update(ctx context.Context, p *model.Progress) error
	List(ctx context.Context) ([]model.Progress, error)
	ListByHire(ctx context.Context, hireID uuid.UUID) ([]model.Progress, error)
	// ListByHR returns rows of hires registered by hrID.
	ListByHR(ctx context.Context, hrID uuid.UUID) ([]model.Progress, error)
	ListByCompany(ctx context.Context, companyID int) ([]model.Progress, error)
	ListByDepartment(ctx context.Context, departmentID int) ([]model.Progress, error)
}

// UserRepository is read-only; user management lives elsewhere.
type UserRepository interface {
	GetUser(ctx context.Context, id uuid.UUID) (model.User, error)
	// GetHire returns ErrNotFound when id is missing or not a hire.
	GetHire(ctx context.Context, id uuid.UUID) (*model.Hire, error)
	// GetHrUser returns ErrNotFound when id is missing or not an HR user.
	GetHrUser(ctx context.Context, id uuid.UUID) (*model.HrUser, error)
	ListHrUsers(ctx context.Context) ([]model.HrUser, error)
	ListHrUsersByCompany(ctx context.Context, companyID int) ([]model.HrUser, error)
	ListHrUsersByDepartment(ctx context.Context, departmentID int) ([]model.HrUser, error)
	GetDepartment(ctx context.Context, id int) (*model.Department, error)
}

type NotificationRepository interface {
	Insert(ctx context.Context, n *model.Notification) error
	Get(ctx context.Context, id int) (*model.Notification, error)
	ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]model.Notification, error)
	MarkAsRead(ctx context.Context, id int) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
}

// OutboxWriter appends events that are published after the transaction commits.
type OutboxWriter interface {
	Append(ctx context.Context, event *outbox.Event) error
}
