package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"ridehail/internal/domain"
)

// Notifier delivers a notification to one user. Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, n *domain.Notification) error
}

// NotificationService builds user-facing notifications and hands them to a
// Notifier. It is only called after the triggering transaction committed.
type NotificationService struct {
	notifier Notifier
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(notifier Notifier) *NotificationService {
	return &NotificationService{notifier: notifier}
}

// rideStatusMessages holds the rider-facing copy per request status.
var rideStatusMessages = map[string]struct{ title, body string }{
	string(domain.RequestStatusIncoming):  {"Driver accepted ✅", "Your driver accepted your request and is coming to pick you up."},
	string(domain.RideStatusOngoing):      {"Trip started 🚗", "You have been picked up. Have a safe trip!"},
	string(domain.RequestStatusCompleted): {"Trip completed ✅", "Your trip is completed. Thanks for riding!"},
	string(domain.RequestStatusCancelled): {"Ride canceled ❌", "Your ride was canceled."},
}

// statusChange describes a committed status transition seen by the rider.
type statusChange struct {
	RiderID         string
	RequestID       string
	ActiveRideID    string
	MatchedDriverID string
	From            string
	To              string
	Reason          string
}

// NotifyStatusChange tells the rider that their request or ride moved.
func (s *NotificationService) NotifyStatusChange(ctx context.Context, c statusChange) {
	msg, ok := rideStatusMessages[c.To]
	if !ok || c.RiderID == "" {
		return
	}

	body := msg.body
	if c.To == string(domain.RequestStatusCancelled) && c.Reason != "" {
		body += "\nReason: " + c.Reason
	}

	s.send(ctx, &domain.Notification{
		RecipientUID: c.RiderID,
		Type:         domain.NotificationRideStatus,
		Title:        msg.title,
		Body:         body,
		Data: map[string]string{
			"requestId":       c.RequestID,
			"activeRideId":    c.ActiveRideID,
			"matchedDriverId": c.MatchedDriverID,
			"fromStatus":      c.From,
			"toStatus":        c.To,
		},
	})
}

// NotifyRideRequested tells a nearby driver about a new request.
func (s *NotificationService) NotifyRideRequested(ctx context.Context, req *domain.RideRequest, driver domain.DriverPresence) {
	body := fmt.Sprintf("New ride request %.1f km away.", driver.DistanceKm)
	if req.PickupAddress != "" {
		body = fmt.Sprintf("New ride request %.1f km away. Pickup: %s", driver.DistanceKm, req.PickupAddress)
	}

	s.send(ctx, &domain.Notification{
		RecipientUID: driver.DriverID,
		Type:         domain.NotificationRideRequest,
		Title:        "New ride request 📍",
		Body:         body,
		Data: map[string]string{
			"requestId":          req.ID,
			"pickupAddress":      req.PickupAddress,
			"destinationAddress": req.DestinationAddress,
			"distanceKm":         strconv.FormatFloat(driver.DistanceKm, 'f', 2, 64),
		},
	})
}

// NotifyTopUp tells the user their wallet was credited.
func (s *NotificationService) NotifyTopUp(ctx context.Context, uid string, entry *domain.WalletLedgerEntry, currency string) {
	s.send(ctx, &domain.Notification{
		RecipientUID: uid,
		Type:         domain.NotificationWalletTopUp,
		Title:        "Wallet topped up 💰",
		Body:         fmt.Sprintf("%s has been added to your wallet.", formatAmount(entry.AmountCents, currency)),
		Data: map[string]string{
			"paymentIntentId": entry.Ref.PaymentIntentID,
			"amountCents":     strconv.FormatInt(entry.AmountCents, 10),
			"balanceCents":    strconv.FormatInt(entry.BalanceAfterCents, 10),
		},
	})
}

// send delivers a notification. Failures are logged and never returned.
func (s *NotificationService) send(ctx context.Context, n *domain.Notification) {
	if s == nil || s.notifier == nil {
		return
	}

	n.ID = uuid.New().String()
	n.CreatedAt = time.Now().UTC()

	if err := s.notifier.Notify(ctx, n); err != nil {
		slog.WarnContext(ctx, "notification delivery failed",
			"action", "notify",
			"type", n.Type,
			"uid", n.RecipientUID,
			"error", err,
		)
	}
}

func formatAmount(cents int64, currency string) string {
	return fmt.Sprintf("%s %d.%02d", strings.ToUpper(currency), cents/100, cents%100)
}
