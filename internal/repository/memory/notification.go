package memory

import (
	"context"
	"sync"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

// NotificationRepository keeps in-app notifications in memory.
type NotificationRepository struct {
	mu    sync.Mutex
	items []domain.Notification
}

// NewNotificationRepository creates an empty notification inbox.
func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{}
}

func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *n
	stored.Data = make(map[string]string, len(n.Data))
	for k, v := range n.Data {
		stored.Data[k] = v
	}
	r.items = append(r.items, stored)
	return nil
}

func (r *NotificationRepository) ListByRecipient(ctx context.Context, uid string, limit int) ([]*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*domain.Notification
	for i := len(r.items) - 1; i >= 0; i-- {
		if r.items[i].RecipientUID != uid {
			continue
		}
		n := r.items[i]
		out = append(out, &n)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

var _ repository.NotificationRepository = (*NotificationRepository)(nil)
