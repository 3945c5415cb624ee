// Package memory is an in-process store.Store used by tests and the
// "memory" store driver. Transactions copy the dataset and swap it in on
// commit, and hold the store mutex for their whole duration, which stands in
// for row locks.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"onboarding/internal/model"
	"onboarding/internal/store"
	"onboarding/pkg/outbox"
)

type root struct {
	mu   sync.Mutex
	data *data
	now  func() time.Time
}

// Store implements store.Store. The zero value is not usable; call New.
type Store struct {
	root *root
	tx   *data
}

func New() *Store {
	return &Store{root: &root{data: newData(), now: time.Now}}
}

// WithClock sets the clock used for generated timestamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.root.now = now
	return s
}

// AddUser seeds a user; users are read-only through the store ports.
func (s *Store) AddUser(u model.User) {
	s.root.mu.Lock()
	defer s.root.mu.Unlock()
	s.root.data.users[u.UserID()] = cloneUser(u)
}

// AddDepartment seeds a department.
func (s *Store) AddDepartment(d model.Department) {
	s.root.mu.Lock()
	defer s.root.mu.Unlock()
	s.root.data.departments[d.ID] = d
}

// OutboxEvents returns a copy of every appended outbox event.
func (s *Store) OutboxEvents() []outbox.Event {
	s.root.mu.Lock()
	defer s.root.mu.Unlock()
	return slices.Clone(s.root.data.outbox)
}

func (s *Store) Templates() store.TemplateRepository         { return &templateRepo{s} }
func (s *Store) Tasks() store.TaskRepository                 { return &taskRepo{s} }
func (s *Store) Todos() store.TodoRepository                 { return &todoRepo{s} }
func (s *Store) Progress() store.ProgressRepository          { return &progressRepo{s} }
func (s *Store) Users() store.UserRepository                 { return &userRepo{s} }
func (s *Store) Notifications() store.NotificationRepository { return &notificationRepo{s} }
func (s *Store) Outbox() store.OutboxWriter                  { return &outboxWriter{s} }

// InTx runs fn against a private copy of the data and commits it when fn
// returns nil and the deferred constraints hold.
func (s *Store) InTx(ctx context.Context, fn func(tx store.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}
	s.root.mu.Lock()
	defer s.root.mu.Unlock()

	work := s.root.data.clone()
	if err := fn(&Store{root: s.root, tx: work}); err != nil {
		return err
	}
	if err := work.checkDeferred(); err != nil {
		return err
	}
	s.root.data = work
	return ctx.Err()
}

// view runs fn with the active dataset, locking when outside a transaction.
func (s *Store) view(fn func(d *data) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}
	s.root.mu.Lock()
	defer s.root.mu.Unlock()
	return fn(s.root.data)
}

func (s *Store) now() time.Time { return s.root.now() }

type data struct {
	seq           int
	templates     map[int]model.Template
	tasks         map[int]model.Task
	todos         map[int]model.Todo
	progress      map[int]model.Progress
	notifications map[int]model.Notification
	users         map[uuid.UUID]model.User
	departments   map[int]model.Department
	outbox        []outbox.Event
}

func newData() *data {
	return &data{
		templates:     map[int]model.Template{},
		tasks:         map[int]model.Task{},
		todos:         map[int]model.Todo{},
		progress:      map[int]model.Progress{},
		notifications: map[int]model.Notification{},
		users:         map[uuid.UUID]model.User{},
		departments:   map[int]model.Department{},
	}
}

func (d *data) nextID() int {
	d.seq++
	return d.seq
}

func (d *data) clone() *data {
	c := &data{
		seq:           d.seq,
		templates:     make(map[int]model.Template, len(d.templates)),
		tasks:         make(map[int]model.Task, len(d.tasks)),
		todos:         make(map[int]model.Todo, len(d.todos)),
		progress:      make(map[int]model.Progress, len(d.progress)),
		notifications: make(map[int]model.Notification, len(d.notifications)),
		users:         make(map[uuid.UUID]model.User, len(d.users)),
		departments:   make(map[int]model.Department, len(d.departments)),
		outbox:        slices.Clone(d.outbox),
	}
	for k, v := range d.templates {
		v.DepartmentIDs = slices.Clone(v.DepartmentIDs)
		c.templates[k] = v
	}
	for k, v := range d.tasks {
		c.tasks[k] = v
	}
	for k, v := range d.todos {
		c.todos[k] = v
	}
	for k, v := range d.progress {
		c.progress[k] = v
	}
	for k, v := range d.notifications {
		c.notifications[k] = v
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.departments {
		c.departments[k] = v
	}
	return c
}

// checkDeferred enforces the deferred unique (template_id, order_index) constraint.
func (d *data) checkDeferred() error {
	seen := map[[2]int]int{}
	for _, t := range d.tasks {
		key := [2]int{t.TemplateID, t.OrderIndex}
		if other, ok := seen[key]; ok {
			return fmt.Errorf("tasks %d and %d share order index %d: %w", other, t.ID, t.OrderIndex, store.ErrDuplicate)
		}
		seen[key] = t.ID
	}
	return nil
}

func cloneUser(u model.User) model.User {
	switch v := u.(type) {
	case *model.Hire:
		c := *v
		return &c
	case *model.HrUser:
		c := *v
		return &c
	default:
		return u
	}
}

func notFound(what string, id any) error {
	return fmt.Errorf("%s %v: %w", what, id, store.ErrNotFound)
}

func sortByID[T any](items []T, id func(T) int) {
	slices.SortFunc(items, func(a, b T) int { return id(a) - id(b) })
}

type outboxWriter struct{ s *Store }

func (w *outboxWriter) Append(_ context.Context, e *outbox.Event) error {
	return w.s.view(func(d *data) error {
		e.ID = int64(d.nextID())
		e.CreatedAt = w.s.now()
		e.UpdatedAt = e.CreatedAt
		if e.Status == "" {
			e.Status = outbox.StatusPending
		}
		d.outbox = append(d.outbox, *e)
		return nil
	})
}
