package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"ridehail/internal/domain"
)

// RideCacheTTL bounds how stale a snapshot can be if an invalidation is lost.
const RideCacheTTL = 10 * time.Second

const rideCachePrefix = "cache:ride:"

// CacheStore handles ride snapshot caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// CachedRide represents a cached ride entity.
type CachedRide struct {
	ID              string    `json:"id"`
	RequestID       string    `json:"request_id"`
	DriverID        string    `json:"driver_id"`
	RiderID         string    `json:"rider_id"`
	Status          string    `json:"status"`
	PaymentStatus   string    `json:"payment_status"`
	HoldAmountCents int64     `json:"hold_amount_cents"`
	FinalFareCents  int64     `json:"final_fare_cents"`
	DistanceKm      float64   `json:"distance_km"`
	CancelledBy     string    `json:"cancelled_by,omitempty"`
	CancelReason    string    `json:"cancel_reason,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	CompletedAt     time.Time `json:"completed_at,omitzero"`
	CancelledAt     time.Time `json:"cancelled_at,omitzero"`
}

func newCachedRide(r *domain.Ride) *CachedRide {
	return &CachedRide{
		ID:              r.ID,
		RequestID:       r.RequestID,
		DriverID:        r.DriverID,
		RiderID:         r.RiderID,
		Status:          string(r.Status),
		PaymentStatus:   string(r.PaymentStatus),
		HoldAmountCents: r.HoldAmountCents,
		FinalFareCents:  r.FinalFareCents,
		DistanceKm:      r.DistanceKm,
		CancelledBy:     string(r.CancelledBy),
		CancelReason:    r.CancelReason,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
		CompletedAt:     r.CompletedAt,
		CancelledAt:     r.CancelledAt,
	}
}

func (c *CachedRide) toDomain() *domain.Ride {
	return &domain.Ride{
		ID:              c.ID,
		RequestID:       c.RequestID,
		DriverID:        c.DriverID,
		RiderID:         c.RiderID,
		Status:          domain.RideStatus(c.Status),
		PaymentStatus:   domain.PaymentStatus(c.PaymentStatus),
		HoldAmountCents: c.HoldAmountCents,
		FinalFareCents:  c.FinalFareCents,
		DistanceKm:      c.DistanceKm,
		CancelledBy:     domain.Party(c.CancelledBy),
		CancelReason:    c.CancelReason,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
		CompletedAt:     c.CompletedAt,
		CancelledAt:     c.CancelledAt,
	}
}

// GetRide retrieves a ride from cache. Returns nil on a miss.
func (s *CacheStore) GetRide(ctx context.Context, rideID string) (*domain.Ride, error) {
	data, err := s.client.Get(ctx, rideCachePrefix+rideID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var ride CachedRide
	if err := json.Unmarshal(data, &ride); err != nil {
		return nil, err
	}
	return ride.toDomain(), nil
}

// SetRide stores a ride in cache.
func (s *CacheStore) SetRide(ctx context.Context, ride *domain.Ride) error {
	data, err := json.Marshal(newCachedRide(ride))
	if err != nil {
		return err
	}
	return s.client.Set(ctx, rideCachePrefix+ride.ID, data, RideCacheTTL).Err()
}

// InvalidateRide removes a ride from cache.
func (s *CacheStore) InvalidateRide(ctx context.Context, rideID string) error {
	return s.client.Del(ctx, rideCachePrefix+rideID).Err()
}
