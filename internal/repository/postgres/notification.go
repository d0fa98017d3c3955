package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

// NotificationRepository is a PostgreSQL implementation of repository.NotificationRepository.
type NotificationRepository struct {
	q Querier
}

// NewNotificationRepository creates a new PostgreSQL notification repository.
func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{q: db}
}

// Create stores an in-app notification.
func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	data, err := json.Marshal(n.Data)
	if err != nil {
		return fmt.Errorf("failed to encode notification data: %w", err)
	}

	query := `
		INSERT INTO notifications (id, recipient_uid, type, title, body, data, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = r.q.ExecContext(ctx, query, n.ID, n.RecipientUID, n.Type, n.Title, n.Body, data, n.IsRead, n.CreatedAt)
	return mapWriteError(err)
}

// ListByRecipient returns a user's most recent notifications.
func (r *NotificationRepository) ListByRecipient(ctx context.Context, uid string, limit int) ([]*domain.Notification, error) {
	query := `
		SELECT id, recipient_uid, type, title, body, data, is_read, created_at
		FROM notifications WHERE recipient_uid = $1
		ORDER BY created_at DESC LIMIT $2
	`

	rows, err := r.q.QueryContext(ctx, query, uid, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Notification
	for rows.Next() {
		var n domain.Notification
		var data []byte
		if err := rows.Scan(&n.ID, &n.RecipientUID, &n.Type, &n.Title, &n.Body, &data, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &n.Data); err != nil {
				return nil, fmt.Errorf("failed to decode notification data: %w", err)
			}
		}
		out = append(out, &n)
	}

	return out, rows.Err()
}

var _ repository.NotificationRepository = (*NotificationRepository)(nil)
