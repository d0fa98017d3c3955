package notify

import (
	"context"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

// Inbox persists notifications so clients can list them later.
type Inbox struct {
	repo repository.NotificationRepository
}

// NewInbox creates a new Inbox.
func NewInbox(repo repository.NotificationRepository) *Inbox {
	return &Inbox{repo: repo}
}

// Notify implements service.Notifier.
func (i *Inbox) Notify(ctx context.Context, n *domain.Notification) error {
	return i.repo.Create(ctx, n)
}

// List returns the newest notifications for uid.
func (i *Inbox) List(ctx context.Context, uid string, limit int) ([]*domain.Notification, error) {
	return i.repo.ListByRecipient(ctx, uid, limit)
}
