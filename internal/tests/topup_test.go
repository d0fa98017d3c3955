package tests

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"ridehail/internal/domain"
	"ridehail/internal/service"
)

// succeededIntent registers a paid top-up intent for uid.
func succeededIntent(f *fixture, id, uid string, amount int64) {
	f.gateway.AddIntent(&domain.PaymentIntent{
		ID:                 id,
		AmountCents:        amount,
		Currency:           "myr",
		Status:             domain.PaymentIntentStatusSucceeded,
		Metadata:           domain.IntentMetadata{UID: uid, Purpose: domain.TopUpPurpose},
		PaymentMethodTypes: []string{"card", "fpx"},
	})
}

// ──────────────────────────────────────────────
// 1. INTENT CREATION
// ──────────────────────────────────────────────

func TestCreateIntent_TagsMetadata(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	intent, err := f.topups.CreateIntent(context.Background(), "user-1", 2500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if intent.ClientSecret == "" || intent.ID == "" {
		t.Errorf("expected client secret and id, got %+v", intent)
	}
	if intent.Currency != service.DefaultCurrency {
		t.Errorf("expected currency %s, got %s", service.DefaultCurrency, intent.Currency)
	}
	if intent.Metadata.UID != "user-1" || intent.Metadata.Purpose != domain.TopUpPurpose {
		t.Errorf("unexpected metadata %+v", intent.Metadata)
	}
}

func TestCreateIntent_Rejections(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		caller  string
		amount  int64
		wantErr error
	}{
		{name: "no caller", caller: "", amount: 5000, wantErr: service.ErrUnauthenticated},
		{name: "below minimum", caller: "user-1", amount: 1999, wantErr: service.ErrAmountBelowMinimum},
		{name: "zero", caller: "user-1", amount: 0, wantErr: service.ErrAmountBelowMinimum},
		{name: "negative", caller: "user-1", amount: -2000, wantErr: service.ErrAmountBelowMinimum},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.topups.CreateIntent(context.Background(), tc.caller, tc.amount)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			if f.gateway.CreateCallCount != 0 {
				t.Errorf("expected gateway not to be called, got %d calls", f.gateway.CreateCallCount)
			}
		})
	}
}

func TestCreateIntent_GatewayFailureIsTransient(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.gateway.CreateError = errors.New("connection refused")

	_, err := f.topups.CreateIntent(context.Background(), "user-1", 5000)
	if !errors.Is(err, service.ErrGatewayUnavailable) {
		t.Fatalf("expected ErrGatewayUnavailable, got %v", err)
	}
	if service.KindOf(err) != service.KindAborted {
		t.Errorf("expected aborted, got %s", service.KindOf(err))
	}
}

// ──────────────────────────────────────────────
// 2. CONFIRMATION
// ──────────────────────────────────────────────

func TestConfirm_CreditsExactlyOnce(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedWallet(t, "user-1", 100)
	succeededIntent(f, "pi_1", "user-1", 2500)
	ctx := context.Background()

	first, err := f.topups.Confirm(ctx, "user-1", "pi_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !first.Credited || first.BalanceCents != 2600 {
		t.Errorf("expected credit to 2600, got %+v", first)
	}

	second, err := f.topups.Confirm(ctx, "user-1", "pi_1")
	if err != nil {
		t.Fatalf("second confirm: %v", err)
	}
	if second.Credited {
		t.Error("expected second confirmation not to credit")
	}
	if second.AmountCents != 2500 || second.BalanceCents != 2600 {
		t.Errorf("expected replay of 2500 with balance 2600, got %+v", second)
	}

	if got := f.balance(t, "user-1"); got != 2600 {
		t.Errorf("expected balance 2600, got %d", got)
	}

	entries := f.history(t, "user-1")
	if len(entries) != 1 || entries[0].Type != domain.LedgerEntryTopUp {
		t.Fatalf("expected one topup entry, got %+v", entries)
	}
	ref := entries[0].Ref
	if ref.PaymentIntentID != "pi_1" || strings.Join(ref.PaymentMethods, ",") != "card,fpx" {
		t.Errorf("unexpected reference %+v", ref)
	}
	if entries[0].Status != domain.LedgerEntryStatusSuccess {
		t.Errorf("expected success status, got %s", entries[0].Status)
	}

	if n := f.notifier.CountByType(domain.NotificationWalletTopUp); n != 1 {
		t.Errorf("expected one top-up notification, got %d", n)
	}
}

func TestConfirm_ReplayReportsCurrentBalance(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedWallet(t, "user-1", 0)
	succeededIntent(f, "pi_1", "user-1", 2500)
	ctx := context.Background()

	if _, err := f.topups.Confirm(ctx, "user-1", "pi_1"); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	// Spend part of the credit on a ride hold.
	req := f.seedRequest(t, "user-1")
	if _, err := f.matching.Claim(ctx, req.ID, "driver-1"); err != nil {
		t.Fatalf("claim: %v", err)
	}

	replay, err := f.topups.Confirm(ctx, "user-1", "pi_1")
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if replay.Credited {
		t.Error("expected replay not to credit")
	}
	if want := int64(2500 - shortRideFare); replay.BalanceCents != want {
		t.Errorf("expected current balance %d, got %d", want, replay.BalanceCents)
	}
	if replay.AmountCents != 2500 {
		t.Errorf("expected amount 2500, got %d", replay.AmountCents)
	}
}

func TestConfirm_ConcurrentConfirmations_CreditOnce(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedWallet(t, "user-1", 0)
	succeededIntent(f, "pi_1", "user-1", 3000)

	const callers = 10
	var wg sync.WaitGroup
	var credited atomic.Int32
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := f.topups.Confirm(context.Background(), "user-1", "pi_1")
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if result.Credited {
				credited.Add(1)
			}
		}()
	}
	wg.Wait()

	if credited.Load() != 1 {
		t.Fatalf("expected exactly one credit, got %d", credited.Load())
	}
	if got := f.balance(t, "user-1"); got != 3000 {
		t.Errorf("expected balance 3000, got %d", got)
	}
}

func TestConfirm_Rejections(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		caller   string
		intentID string
		intent   *domain.PaymentIntent
		wantErr  error
	}{
		{
			name:     "no caller",
			caller:   "",
			intentID: "pi_1",
			wantErr:  service.ErrUnauthenticated,
		},
		{
			name:     "no intent id",
			caller:   "user-1",
			intentID: "",
			wantErr:  service.ErrInvalidPaymentIntentID,
		},
		{
			name:     "unknown intent",
			caller:   "user-1",
			intentID: "pi_missing",
			wantErr:  service.ErrPaymentIntentNotFound,
		},
		{
			name:     "someone else's intent",
			caller:   "user-1",
			intentID: "pi_1",
			intent: &domain.PaymentIntent{
				ID: "pi_1", AmountCents: 2000, Status: domain.PaymentIntentStatusSucceeded,
				Metadata: domain.IntentMetadata{UID: "user-2", Purpose: domain.TopUpPurpose},
			},
			wantErr: service.ErrNotYourPayment,
		},
		{
			name:     "different purpose",
			caller:   "user-1",
			intentID: "pi_1",
			intent: &domain.PaymentIntent{
				ID: "pi_1", AmountCents: 2000, Status: domain.PaymentIntentStatusSucceeded,
				Metadata: domain.IntentMetadata{UID: "user-1", Purpose: "subscription"},
			},
			wantErr: service.ErrNotYourPayment,
		},
		{
			name:     "not yet paid",
			caller:   "user-1",
			intentID: "pi_1",
			intent: &domain.PaymentIntent{
				ID: "pi_1", AmountCents: 2000, Status: "processing",
				Metadata: domain.IntentMetadata{UID: "user-1", Purpose: domain.TopUpPurpose},
			},
			wantErr: service.ErrPaymentNotCompleted,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.seedWallet(t, "user-1", 0)
			if tc.intent != nil {
				f.gateway.AddIntent(tc.intent)
			}

			_, err := f.topups.Confirm(context.Background(), tc.caller, tc.intentID)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			if got := f.balance(t, "user-1"); got != 0 {
				t.Errorf("expected no credit, balance %d", got)
			}
		})
	}
}

func TestConfirm_NotCompletedReportsStatus(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedWallet(t, "user-1", 0)
	intent, err := f.topups.CreateIntent(context.Background(), "user-1", 2000)
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}

	_, err = f.topups.Confirm(context.Background(), "user-1", intent.ID)
	if err == nil || err.Error() != "payment not completed: requires_payment_method" {
		t.Fatalf("unexpected error %v", err)
	}

	f.gateway.SetStatus(intent.ID, domain.PaymentIntentStatusSucceeded)
	result, err := f.topups.Confirm(context.Background(), "user-1", intent.ID)
	if err != nil || !result.Credited {
		t.Fatalf("expected credit after payment, got %+v / %v", result, err)
	}
}

func TestConfirm_WalletMissing(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	succeededIntent(f, "pi_1", "user-1", 2000)

	_, err := f.topups.Confirm(context.Background(), "user-1", "pi_1")
	if !errors.Is(err, service.ErrWalletNotFound) {
		t.Fatalf("expected ErrWalletNotFound, got %v", err)
	}
}

func TestConfirm_GatewayFailureIsTransient(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.gateway.RetrieveError = errors.New("timeout")

	_, err := f.topups.Confirm(context.Background(), "user-1", "pi_1")
	if service.KindOf(err) != service.KindAborted {
		t.Fatalf("expected aborted, got %v", err)
	}
}

// ──────────────────────────────────────────────
// 3. WALLET ACCOUNTS
// ──────────────────────────────────────────────

func TestWalletOpen_IsIdempotentAndStoresToken(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	account, created, err := f.wallets.Open(ctx, "user-1", "")
	if err != nil || !created || account.BalanceCents != 0 {
		t.Fatalf("expected new empty wallet, got %+v created=%v err=%v", account, created, err)
	}

	account, created, err = f.wallets.Open(ctx, "user-1", "device-token")
	if err != nil || created {
		t.Fatalf("expected existing wallet, got created=%v err=%v", created, err)
	}
	if account.PushToken != "device-token" {
		t.Errorf("expected push token stored, got %q", account.PushToken)
	}

	token, err := f.wallets.PushToken(ctx, "user-1")
	if err != nil || token != "device-token" {
		t.Errorf("expected device-token, got %q / %v", token, err)
	}
	if token, _ := f.wallets.PushToken(ctx, "nobody"); token != "" {
		t.Errorf("expected empty token for unknown user, got %q", token)
	}
}
