package domain

import "time"

// NotificationType tags a notification for client-side routing.
type NotificationType string

const (
	NotificationRideStatus  NotificationType = "ride_status"
	NotificationRideRequest NotificationType = "ride_request"
	NotificationWalletTopUp NotificationType = "wallet_topup"
)

// Notification is a request to inform one user; delivery is not guaranteed.
type Notification struct {
	ID           string
	RecipientUID string
	Type         NotificationType
	Title        string
	Body         string
	Data         map[string]string
	IsRead       bool
	CreatedAt    time.Time
}
