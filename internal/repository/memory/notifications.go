package memory

import (
	"context"
	"slices"

	"github.com/google/uuid"

	"onboarding/internal/model"
)

type notificationRepo struct{ s *Store }

func (r *notificationRepo) Insert(_ context.Context, n *model.Notification) error {
	return r.s.view(func(d *data) error {
		n.ID = d.nextID()
		n.CreatedAt = r.s.now()
		d.notifications[n.ID] = *n
		return nil
	})
}

func (r *notificationRepo) Get(_ context.Context, id int) (*model.Notification, error) {
	var out *model.Notification
	err := r.s.view(func(d *data) error {
		n, ok := d.notifications[id]
		if !ok {
			return notFound("notification", id)
		}
		out = &n
		return nil
	})
	return out, err
}

func (r *notificationRepo) ListByUser(_ context.Context, userID uuid.UUID, unreadOnly bool) ([]model.Notification, error) {
	out := []model.Notification{}
	err := r.s.view(func(d *data) error {
		for _, n := range d.notifications {
			if n.UserID == userID && (!unreadOnly || !n.IsRead) {
				out = append(out, n)
			}
		}
		return nil
	})
	// newest first
	slices.SortFunc(out, func(a, b model.Notification) int { return b.ID - a.ID })
	return out, err
}

func (r *notificationRepo) MarkAsRead(_ context.Context, id int) error {
	return r.s.view(func(d *data) error {
		n, ok := d.notifications[id]
		if !ok {
			return notFound("notification", id)
		}
		n.IsRead = true
		d.notifications[id] = n
		return nil
	})
}

func (r *notificationRepo) MarkAllAsRead(_ context.Context, userID uuid.UUID) (int, error) {
	updated := 0
	err := r.s.view(func(d *data) error {
		for id, n := range d.notifications {
			if n.UserID == userID && !n.IsRead {
				n.IsRead = true
				d.notifications[id] = n
				updated++
			}
		}
		return nil
	})
	return updated, err
}

func (r *notificationRepo) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	unread, err := r.ListByUser(ctx, userID, true)
	return len(unread), err
}
