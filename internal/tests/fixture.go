package tests

import (
	"context"
	"testing"
	"time"

	"ridehail/internal/domain"
	"ridehail/internal/geo"
	"ridehail/internal/pricing"
	"ridehail/internal/repository"
	"ridehail/internal/repository/memory"
	"ridehail/internal/service"
)

// Pickup and destination about 1 km apart, which prices at the 500-cent minimum.
var (
	klSentral = geo.Point{Lat: 3.1340, Lng: 101.6860}
	nearby    = geo.Point{Lat: 3.1430, Lng: 101.6860}
)

const shortRideFare = 500

// fixture wires every service against one in-memory store.
type fixture struct {
	store     *memory.Store
	notifier  *MockNotifier
	gateway   *MockPaymentGateway
	presence  *MockPresenceFeed
	dedupe    *MockDedupeStore
	cache     *MockRideCache
	matching  *service.MatchingService
	lifecycle *service.LifecycleService
	rides     *service.RideService
	requests  *service.RequestService
	wallets   *service.WalletService
	topups    *service.TopUpService
	proximity *service.ProximityNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store: memory.NewStore(repository.RetryPolicy{
			MaxAttempts: 20,
			BaseDelay:   100 * time.Microsecond,
			MaxDelay:    2 * time.Millisecond,
		}),
		notifier: NewMockNotifier(),
		gateway:  NewMockPaymentGateway(),
		presence: NewMockPresenceFeed(),
		dedupe:   NewMockDedupeStore(),
		cache:    NewMockRideCache(),
	}

	notifications := service.NewNotificationService(f.notifier)
	f.proximity = service.NewProximityNotifier(f.presence, f.dedupe, notifications, 0)
	f.matching = service.NewMatchingService(f.store, pricing.NewDefaultCalculator(), notifications)
	f.lifecycle = service.NewLifecycleService(f.store, notifications, f.cache)
	f.rides = service.NewRideService(f.store, f.cache)
	f.requests = service.NewRequestService(f.store, f.proximity)
	f.wallets = service.NewWalletService(f.store)
	f.topups = service.NewTopUpService(f.store, f.gateway, notifications, service.TopUpConfig{})
	return f
}

// seedWallet opens a wallet with a starting balance.
func (f *fixture) seedWallet(t *testing.T, uid string, balance int64) {
	t.Helper()
	err := f.store.RunInTx(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		return tx.Wallets().Create(ctx, &domain.WalletAccount{UID: uid, BalanceCents: balance})
	})
	if err != nil {
		t.Fatalf("seed wallet %s: %v", uid, err)
	}
}

// seedRequest creates a waiting request for riderID.
func (f *fixture) seedRequest(t *testing.T, riderID string) *domain.RideRequest {
	t.Helper()
	req, err := f.requests.Create(context.Background(), riderID, service.CreateRequestInput{
		Pickup:        klSentral,
		Destination:   nearby,
		PickupAddress: "KL Sentral",
	})
	if err != nil {
		t.Fatalf("seed request: %v", err)
	}
	return req
}

// claimed seeds a rider with balance, a request and a claim by driverID.
func (f *fixture) claimed(t *testing.T, riderID, driverID string, balance int64) *service.ClaimResult {
	t.Helper()
	f.seedWallet(t, riderID, balance)
	req := f.seedRequest(t, riderID)
	result, err := f.matching.Claim(context.Background(), req.ID, driverID)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	return result
}

func (f *fixture) balance(t *testing.T, uid string) int64 {
	t.Helper()
	account, err := f.wallets.Balance(context.Background(), uid)
	if err != nil {
		t.Fatalf("balance %s: %v", uid, err)
	}
	return account.BalanceCents
}

func (f *fixture) request(t *testing.T, id string) *domain.RideRequest {
	t.Helper()
	var req *domain.RideRequest
	err := f.store.View(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		var err error
		req, err = tx.Requests().GetByID(ctx, id)
		return err
	})
	if err != nil {
		t.Fatalf("load request %s: %v", id, err)
	}
	return req
}

func (f *fixture) ride(t *testing.T, id string) *domain.Ride {
	t.Helper()
	var ride *domain.Ride
	err := f.store.View(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		var err error
		ride, err = tx.Rides().GetByID(ctx, id)
		return err
	})
	if err != nil {
		t.Fatalf("load ride %s: %v", id, err)
	}
	return ride
}

func (f *fixture) rideEntries(t *testing.T, rideID string) []*domain.WalletLedgerEntry {
	t.Helper()
	var entries []*domain.WalletLedgerEntry
	err := f.store.View(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		var err error
		entries, err = tx.Ledger().ListByRide(ctx, rideID)
		return err
	})
	if err != nil {
		t.Fatalf("load ledger for ride %s: %v", rideID, err)
	}
	return entries
}

func (f *fixture) history(t *testing.T, uid string) []*domain.WalletLedgerEntry {
	t.Helper()
	entries, err := f.wallets.History(context.Background(), uid, 0)
	if err != nil {
		t.Fatalf("history %s: %v", uid, err)
	}
	return entries
}

func countType(entries []*domain.WalletLedgerEntry, typ domain.LedgerEntryType) int {
	n := 0
	for _, e := range entries {
		if e.Type == typ {
			n++
		}
	}
	return n
}
