package repository

import (
	"context"

	"ridehail/internal/domain"
)

// NotificationRepository stores in-app notifications. It is written outside
// the ride transactions.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListByRecipient(ctx context.Context, uid string, limit int) ([]*domain.Notification, error)
}
