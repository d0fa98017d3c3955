package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ridehail/internal/domain"
	"ridehail/internal/geo"
)

const (
	defaultFanOutLimit = 20
	defaultDedupeTTL   = 10 * time.Minute
)

// PresenceFeed reads driver presence. It is maintained by the driver apps;
// this service never writes to it.
type PresenceFeed interface {
	// NearbyAvailableDrivers returns online, available drivers within
	// radiusKm of center, nearest first.
	NearbyAvailableDrivers(ctx context.Context, center geo.Point, radiusKm float64, limit int) ([]domain.DriverPresence, error)
}

// DedupeStore remembers keys for a limited time.
type DedupeStore interface {
	// FirstSeen records key and reports whether it was new.
	FirstSeen(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// ProximityNotifier tells nearby drivers about new requests.
type ProximityNotifier struct {
	feed          PresenceFeed
	dedupe        DedupeStore
	notifications *NotificationService
	limit         int
	dedupeTTL     time.Duration
}

// NewProximityNotifier creates a new ProximityNotifier. dedupe may be nil.
func NewProximityNotifier(feed PresenceFeed, dedupe DedupeStore, notifications *NotificationService, limit int) *ProximityNotifier {
	if limit <= 0 {
		limit = defaultFanOutLimit
	}
	return &ProximityNotifier{
		feed:          feed,
		dedupe:        dedupe,
		notifications: notifications,
		limit:         limit,
		dedupeTTL:     defaultDedupeTTL,
	}
}

// FanOut notifies drivers near the request's pickup and returns how many were
// notified. Errors are logged and never returned.
func (p *ProximityNotifier) FanOut(ctx context.Context, req *domain.RideRequest) int {
	drivers, err := p.feed.NearbyAvailableDrivers(ctx, req.Pickup, req.RadiusKm(), p.limit)
	if err != nil {
		slog.WarnContext(ctx, "presence lookup failed", "action", "fan_out", "request_id", req.ID, "error", err)
		return 0
	}

	notified := 0
	for _, d := range drivers {
		if notified >= p.limit {
			break
		}
		if d.DriverID == req.RiderID || !d.IsOnline || !d.IsAvailable || d.DistanceKm > req.RadiusKm() {
			continue
		}

		if p.dedupe != nil {
			first, err := p.dedupe.FirstSeen(ctx, fmt.Sprintf("notify:request:%s:%s", req.ID, d.DriverID), p.dedupeTTL)
			if err != nil {
				slog.WarnContext(ctx, "notification dedupe failed", "request_id", req.ID, "uid", d.DriverID, "error", err)
			} else if !first {
				continue
			}
		}

		p.notifications.NotifyRideRequested(ctx, req, d)
		notified++
	}

	slog.InfoContext(ctx, "drivers notified", "action", "fan_out", "request_id", req.ID, "count", notified)
	return notified
}
