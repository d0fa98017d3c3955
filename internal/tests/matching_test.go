package tests

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"ridehail/internal/domain"
	"ridehail/internal/pricing"
	"ridehail/internal/service"
)

// ──────────────────────────────────────────────
// 1. CLAIM HAPPY PATH
// ──────────────────────────────────────────────

func TestClaim_HoldsFareAndMatchesRequest(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedWallet(t, "rider-1", 1000)
	req := f.seedRequest(t, "rider-1")

	result, err := f.matching.Claim(context.Background(), req.ID, "driver-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.HoldAmountCents != shortRideFare {
		t.Errorf("expected hold %d, got %d", shortRideFare, result.HoldAmountCents)
	}
	if got := f.balance(t, "rider-1"); got != 500 {
		t.Errorf("expected rider balance 500, got %d", got)
	}

	entries := f.rideEntries(t, result.RideID)
	if len(entries) != 1 || entries[0].Type != domain.LedgerEntryRideHold || entries[0].AmountCents != -500 {
		t.Fatalf("expected one ride_hold of -500, got %+v", entries)
	}
	if entries[0].BalanceAfterCents != 500 {
		t.Errorf("expected balance after 500, got %d", entries[0].BalanceAfterCents)
	}

	stored := f.request(t, req.ID)
	if stored.Status != domain.RequestStatusIncoming {
		t.Errorf("expected request incoming, got %s", stored.Status)
	}
	if stored.MatchedDriverID != "driver-1" || stored.ActiveRideID != result.RideID {
		t.Errorf("expected request matched to driver-1/%s, got %s/%s", result.RideID, stored.MatchedDriverID, stored.ActiveRideID)
	}

	ride := f.ride(t, result.RideID)
	if ride.PaymentStatus != domain.PaymentStatusHeld || ride.Status != domain.RideStatusIncoming {
		t.Errorf("expected incoming/held ride, got %s/%s", ride.Status, ride.PaymentStatus)
	}
	if ride.RiderID != "rider-1" || ride.DriverID != "driver-1" {
		t.Errorf("unexpected ride parties %s/%s", ride.RiderID, ride.DriverID)
	}

	sent := f.notifier.Sent("rider-1")
	if len(sent) != 1 || sent[0].Title != "Driver accepted ✅" {
		t.Fatalf("expected driver accepted notification, got %+v", sent)
	}
	if sent[0].Data["toStatus"] != "incoming" || sent[0].Data["activeRideId"] != result.RideID {
		t.Errorf("unexpected notification data %+v", sent[0].Data)
	}
}

// ──────────────────────────────────────────────
// 2. CLAIM PRECONDITIONS
// ──────────────────────────────────────────────

func TestClaim_InsufficientFunds_NoWrites(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedWallet(t, "rider-1", 400)
	req := f.seedRequest(t, "rider-1")

	_, err := f.matching.Claim(context.Background(), req.ID, "driver-1")
	if !errors.Is(err, service.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if service.KindOf(err) != service.KindFailedPrecondition {
		t.Errorf("expected failed_precondition, got %s", service.KindOf(err))
	}

	if got := f.balance(t, "rider-1"); got != 400 {
		t.Errorf("expected balance unchanged at 400, got %d", got)
	}
	if entries := f.history(t, "rider-1"); len(entries) != 0 {
		t.Errorf("expected no ledger entries, got %d", len(entries))
	}

	stored := f.request(t, req.ID)
	if stored.Status != domain.RequestStatusWaiting || stored.IsMatched() {
		t.Errorf("expected request still waiting and unmatched, got %s", stored.Status)
	}

	rides, err := f.rides.List(context.Background(), "driver-1", 10)
	if err != nil {
		t.Fatalf("list rides: %v", err)
	}
	if len(rides) != 0 {
		t.Errorf("expected no rides, got %d", len(rides))
	}
}

func TestClaim_NonPositiveFare_NoWrites(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedWallet(t, "rider-1", 1000)
	req := f.seedRequest(t, "rider-1")

	// A zero-value calculator prices every trip at zero.
	matching := service.NewMatchingService(f.store, &pricing.Calculator{}, service.NewNotificationService(f.notifier))
	_, err := matching.Claim(context.Background(), req.ID, "driver-1")
	if !errors.Is(err, service.ErrInvalidFare) {
		t.Fatalf("expected ErrInvalidFare, got %v", err)
	}
	if service.KindOf(err) != service.KindFailedPrecondition {
		t.Errorf("expected failed_precondition, got %s", service.KindOf(err))
	}

	if got := f.balance(t, "rider-1"); got != 1000 {
		t.Errorf("expected balance unchanged at 1000, got %d", got)
	}
	if entries := f.history(t, "rider-1"); len(entries) != 0 {
		t.Errorf("expected no ledger entries, got %d", len(entries))
	}
	if stored := f.request(t, req.ID); stored.IsMatched() {
		t.Errorf("expected request unmatched, got driver %s", stored.MatchedDriverID)
	}
	if sent := f.notifier.Sent("rider-1"); len(sent) != 0 {
		t.Errorf("expected no notifications, got %d", len(sent))
	}
}

func TestClaim_Rejections(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		setup   func(t *testing.T, f *fixture) (requestID, driverID string)
		wantErr error
	}{
		{
			name: "no caller",
			setup: func(t *testing.T, f *fixture) (string, string) {
				return "req-1", ""
			},
			wantErr: service.ErrUnauthenticated,
		},
		{
			name: "empty request id",
			setup: func(t *testing.T, f *fixture) (string, string) {
				return "", "driver-1"
			},
			wantErr: service.ErrInvalidRequestID,
		},
		{
			name: "unknown request",
			setup: func(t *testing.T, f *fixture) (string, string) {
				return "missing", "driver-1"
			},
			wantErr: service.ErrRequestNotFound,
		},
		{
			name: "own request",
			setup: func(t *testing.T, f *fixture) (string, string) {
				f.seedWallet(t, "rider-1", 1000)
				return f.seedRequest(t, "rider-1").ID, "rider-1"
			},
			wantErr: service.ErrOwnRequest,
		},
		{
			name: "rider without wallet",
			setup: func(t *testing.T, f *fixture) (string, string) {
				return f.seedRequest(t, "rider-1").ID, "driver-1"
			},
			wantErr: service.ErrWalletNotFound,
		},
		{
			name: "already claimed",
			setup: func(t *testing.T, f *fixture) (string, string) {
				result := f.claimed(t, "rider-1", "driver-1", 1000)
				return result.RequestID, "driver-2"
			},
			wantErr: service.ErrRequestNotWaiting,
		},
		{
			name: "driver busy",
			setup: func(t *testing.T, f *fixture) (string, string) {
				f.claimed(t, "rider-1", "driver-1", 1000)
				f.seedWallet(t, "rider-2", 1000)
				return f.seedRequest(t, "rider-2").ID, "driver-1"
			},
			wantErr: service.ErrDriverHasActiveRide,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			requestID, driverID := tc.setup(t, f)

			_, err := f.matching.Claim(context.Background(), requestID, driverID)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestClaim_DriverFreeAgainAfterCompletion(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	first := f.claimed(t, "rider-1", "driver-1", 1000)
	if _, err := f.lifecycle.Complete(context.Background(), first.RideID, "driver-1"); err != nil {
		t.Fatalf("complete: %v", err)
	}

	f.seedWallet(t, "rider-2", 1000)
	req := f.seedRequest(t, "rider-2")
	if _, err := f.matching.Claim(context.Background(), req.ID, "driver-1"); err != nil {
		t.Fatalf("expected driver to claim again, got %v", err)
	}
}

// ──────────────────────────────────────────────
// 3. CLAIM RACES
// ──────────────────────────────────────────────

func TestClaim_ConcurrentDrivers_ExactlyOneWins(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedWallet(t, "rider-1", 1000)
	req := f.seedRequest(t, "rider-1")

	const drivers = 10
	var wg sync.WaitGroup
	var successes atomic.Int32
	var winner atomic.Value
	errs := make(chan error, drivers)

	for i := 0; i < drivers; i++ {
		wg.Add(1)
		go func(driverID string) {
			defer wg.Done()
			_, err := f.matching.Claim(context.Background(), req.ID, driverID)
			if err != nil {
				errs <- err
				return
			}
			successes.Add(1)
			winner.Store(driverID)
		}(fmt.Sprintf("driver-%d", i))
	}
	wg.Wait()
	close(errs)

	if successes.Load() != 1 {
		t.Fatalf("expected exactly 1 successful claim, got %d", successes.Load())
	}
	for err := range errs {
		if service.KindOf(err) != service.KindFailedPrecondition {
			t.Errorf("expected failed_precondition for losers, got %v", err)
		}
	}

	stored := f.request(t, req.ID)
	if stored.MatchedDriverID != winner.Load().(string) {
		t.Errorf("expected request matched to %v, got %s", winner.Load(), stored.MatchedDriverID)
	}
	if got := f.balance(t, "rider-1"); got != 500 {
		t.Errorf("expected a single hold, balance %d", got)
	}
	if n := countType(f.history(t, "rider-1"), domain.LedgerEntryRideHold); n != 1 {
		t.Errorf("expected 1 ride_hold entry, got %d", n)
	}
}

func TestClaim_SameDriverTwoRequests_OneActiveRide(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedWallet(t, "rider-1", 1000)
	f.seedWallet(t, "rider-2", 1000)
	reqs := []string{f.seedRequest(t, "rider-1").ID, f.seedRequest(t, "rider-2").ID}

	var wg sync.WaitGroup
	var successes atomic.Int32
	var busy atomic.Int32
	for _, id := range reqs {
		wg.Add(1)
		go func(requestID string) {
			defer wg.Done()
			_, err := f.matching.Claim(context.Background(), requestID, "driver-1")
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, service.ErrDriverHasActiveRide):
				busy.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(id)
	}
	wg.Wait()

	if successes.Load() != 1 || busy.Load() != 1 {
		t.Fatalf("expected 1 success and 1 busy, got %d/%d", successes.Load(), busy.Load())
	}
	if total := f.balance(t, "rider-1") + f.balance(t, "rider-2"); total != 1500 {
		t.Errorf("expected exactly one hold across riders, total balance %d", total)
	}
}
