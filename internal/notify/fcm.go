package notify

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/messaging"

	"ridehail/internal/domain"
)

// TokenSource resolves the device push token registered for a user.
type TokenSource interface {
	PushToken(ctx context.Context, uid string) (string, error)
}

// MessageSender is the subset of *messaging.Client used for delivery.
type MessageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// PushSender delivers notifications through Firebase Cloud Messaging. Users
// without a registered token are skipped.
type PushSender struct {
	client MessageSender
	tokens TokenSource
}

// NewPushSender creates a new PushSender.
func NewPushSender(client MessageSender, tokens TokenSource) *PushSender {
	return &PushSender{client: client, tokens: tokens}
}

// Notify implements service.Notifier.
func (s *PushSender) Notify(ctx context.Context, n *domain.Notification) error {
	token, err := s.tokens.PushToken(ctx, n.RecipientUID)
	if err != nil {
		return fmt.Errorf("failed to resolve push token: %w", err)
	}
	if token == "" {
		return nil
	}

	if _, err := s.client.Send(ctx, pushMessage(token, n)); err != nil {
		return fmt.Errorf("failed to send push: %w", err)
	}
	return nil
}

func pushMessage(token string, n *domain.Notification) *messaging.Message {
	data := make(map[string]string, len(n.Data)+2)
	for k, v := range n.Data {
		data[k] = v
	}
	data["type"] = string(n.Type)
	data["notificationId"] = n.ID

	return &messaging.Message{
		Token: token,
		Data:  data,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Body,
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound: "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority": "10",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Alert: &messaging.ApsAlert{
						Title: n.Title,
						Body:  n.Body,
					},
					Sound: "default",
				},
			},
		},
	}
}
