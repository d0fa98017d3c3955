package tests

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"ridehail/internal/domain"
	"ridehail/internal/geo"
	"ridehail/internal/service"
)

// ──────────────────────────────────────────────
// MOCK PAYMENT GATEWAY
// ──────────────────────────────────────────────

// MockPaymentGateway is an in-memory service.PaymentGateway.
type MockPaymentGateway struct {
	mu      sync.RWMutex
	intents map[string]*domain.PaymentIntent
	seq     int

	// Counters for verification
	CreateCallCount   int32
	RetrieveCallCount int32

	// Error injection
	CreateError   error
	RetrieveError error
}

// NewMockPaymentGateway creates a new mock payment gateway.
func NewMockPaymentGateway() *MockPaymentGateway {
	return &MockPaymentGateway{
		intents: make(map[string]*domain.PaymentIntent),
	}
}

// AddIntent stores an intent as if the gateway had created it.
func (m *MockPaymentGateway) AddIntent(intent *domain.PaymentIntent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.intents[intent.ID] = intent
}

// SetStatus changes an intent's status, e.g. after the client paid.
func (m *MockPaymentGateway) SetStatus(id, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if intent, ok := m.intents[id]; ok {
		intent.Status = status
	}
}

func (m *MockPaymentGateway) CreateIntent(ctx context.Context, amountCents int64, currency string, metadata domain.IntentMetadata) (*domain.PaymentIntent, error) {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return nil, m.CreateError
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	id := fmt.Sprintf("pi_%d", m.seq)
	intent := &domain.PaymentIntent{
		ID:                 id,
		AmountCents:        amountCents,
		Currency:           currency,
		Status:             "requires_payment_method",
		ClientSecret:       id + "_secret",
		Metadata:           metadata,
		PaymentMethodTypes: []string{"card"},
	}
	m.intents[id] = intent

	copy := *intent
	return &copy, nil
}

func (m *MockPaymentGateway) RetrieveIntent(ctx context.Context, intentID string) (*domain.PaymentIntent, error) {
	atomic.AddInt32(&m.RetrieveCallCount, 1)
	if m.RetrieveError != nil {
		return nil, m.RetrieveError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	intent, ok := m.intents[intentID]
	if !ok {
		return nil, service.ErrPaymentIntentNotFound
	}
	copy := *intent
	return &copy, nil
}

// ──────────────────────────────────────────────
// MOCK NOTIFIER
// ──────────────────────────────────────────────

// MockNotifier records every notification it is asked to deliver.
type MockNotifier struct {
	mu            sync.Mutex
	notifications []domain.Notification

	// Error injection
	NotifyError error
}

// NewMockNotifier creates a new mock notifier.
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) Notify(ctx context.Context, n *domain.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications = append(m.notifications, *n)
	return m.NotifyError
}

// Sent returns the notifications delivered to uid.
func (m *MockNotifier) Sent(uid string) []domain.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Notification
	for _, n := range m.notifications {
		if n.RecipientUID == uid {
			out = append(out, n)
		}
	}
	return out
}

// CountByType returns how many notifications of type t were sent.
func (m *MockNotifier) CountByType(t domain.NotificationType) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, n := range m.notifications {
		if n.Type == t {
			count++
		}
	}
	return count
}

// ──────────────────────────────────────────────
// MOCK PRESENCE FEED
// ──────────────────────────────────────────────

// MockPresenceFeed is an in-memory service.PresenceFeed.
type MockPresenceFeed struct {
	mu      sync.RWMutex
	drivers map[string]domain.DriverPresence

	// Error injection
	NearbyError error
}

// NewMockPresenceFeed creates a new mock presence feed.
func NewMockPresenceFeed() *MockPresenceFeed {
	return &MockPresenceFeed{
		drivers: make(map[string]domain.DriverPresence),
	}
}

// SetDriver publishes a driver's presence.
func (m *MockPresenceFeed) SetDriver(p domain.DriverPresence) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[p.DriverID] = p
}

func (m *MockPresenceFeed) NearbyAvailableDrivers(ctx context.Context, center geo.Point, radiusKm float64, limit int) ([]domain.DriverPresence, error) {
	if m.NearbyError != nil {
		return nil, m.NearbyError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.DriverPresence
	for _, d := range m.drivers {
		d.DistanceKm = geo.HaversineKm(center, d.Location)
		if d.DistanceKm <= radiusKm && d.IsOnline && d.IsAvailable {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ──────────────────────────────────────────────
// MOCK DEDUPE STORE
// ──────────────────────────────────────────────

// MockDedupeStore is an in-memory service.DedupeStore that ignores TTLs.
type MockDedupeStore struct {
	mu   sync.Mutex
	seen map[string]bool
}

// NewMockDedupeStore creates a new mock dedupe store.
func NewMockDedupeStore() *MockDedupeStore {
	return &MockDedupeStore{seen: make(map[string]bool)}
}

func (m *MockDedupeStore) FirstSeen(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen[key] {
		return false, nil
	}
	m.seen[key] = true
	return true, nil
}

// ──────────────────────────────────────────────
// MOCK RIDE CACHE
// ──────────────────────────────────────────────

// MockRideCache is an in-memory service.RideCache.
type MockRideCache struct {
	mu    sync.Mutex
	rides map[string]domain.Ride

	// Counters for verification
	HitCount        int32
	SetCount        int32
	InvalidateCount int32
}

// NewMockRideCache creates a new mock ride cache.
func NewMockRideCache() *MockRideCache {
	return &MockRideCache{rides: make(map[string]domain.Ride)}
}

func (m *MockRideCache) GetRide(ctx context.Context, id string) (*domain.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[id]
	if !ok {
		return nil, nil
	}
	atomic.AddInt32(&m.HitCount, 1)
	return &ride, nil
}

func (m *MockRideCache) SetRide(ctx context.Context, ride *domain.Ride) error {
	atomic.AddInt32(&m.SetCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides[ride.ID] = *ride
	return nil
}

func (m *MockRideCache) InvalidateRide(ctx context.Context, id string) error {
	atomic.AddInt32(&m.InvalidateCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rides, id)
	return nil
}

var (
	_ service.PaymentGateway = (*MockPaymentGateway)(nil)
	_ service.Notifier       = (*MockNotifier)(nil)
	_ service.PresenceFeed   = (*MockPresenceFeed)(nil)
	_ service.DedupeStore    = (*MockDedupeStore)(nil)
	_ service.RideCache      = (*MockRideCache)(nil)
)
