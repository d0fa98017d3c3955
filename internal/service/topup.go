package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

const (
	// DefaultMinTopUpCents is the smallest top-up accepted at intent creation.
	DefaultMinTopUpCents = 2000

	// DefaultCurrency is the wallet currency.
	DefaultCurrency = "myr"
)

// PaymentGateway is the external payment provider. Implementations return
// ErrPaymentIntentNotFound for unknown intents.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, amountCents int64, currency string, metadata domain.IntentMetadata) (*domain.PaymentIntent, error)
	RetrieveIntent(ctx context.Context, intentID string) (*domain.PaymentIntent, error)
}

// TopUpConfig holds the wallet top-up limits.
type TopUpConfig struct {
	MinAmountCents int64
	Currency       string
}

// TopUpService credits wallets from confirmed gateway payments.
type TopUpService struct {
	store         repository.Store
	gateway       PaymentGateway
	notifications *NotificationService
	cfg           TopUpConfig
}

// NewTopUpService creates a new TopUpService.
func NewTopUpService(store repository.Store, gateway PaymentGateway, notifications *NotificationService, cfg TopUpConfig) *TopUpService {
	if cfg.MinAmountCents <= 0 {
		cfg.MinAmountCents = DefaultMinTopUpCents
	}
	if cfg.Currency == "" {
		cfg.Currency = DefaultCurrency
	}
	return &TopUpService{
		store:         store,
		gateway:       gateway,
		notifications: notifications,
		cfg:           cfg,
	}
}

// CreateIntent opens a gateway payment intent for a wallet top-up.
func (s *TopUpService) CreateIntent(ctx context.Context, callerID string, amountCents int64) (*domain.PaymentIntent, error) {
	if callerID == "" {
		return nil, ErrUnauthenticated
	}
	if amountCents < s.cfg.MinAmountCents {
		return nil, fmt.Errorf("%w: minimum is %d cents", ErrAmountBelowMinimum, s.cfg.MinAmountCents)
	}

	intent, err := s.gateway.CreateIntent(ctx, amountCents, s.cfg.Currency, domain.IntentMetadata{
		UID:     callerID,
		Purpose: domain.TopUpPurpose,
	})
	if err != nil {
		slog.ErrorContext(ctx, "create payment intent failed", "action", "create_intent", "uid", callerID, "error", err)
		return nil, ErrGatewayUnavailable
	}

	slog.InfoContext(ctx, "payment intent created", "action", "create_intent", "uid", callerID, "payment_intent_id", intent.ID)
	return intent, nil
}

// ConfirmResult reports whether a confirmation moved money.
type ConfirmResult struct {
	Credited     bool
	AmountCents  int64
	BalanceCents int64
}

// errAlreadyCredited aborts a top-up transaction whose intent was credited
// concurrently.
var errAlreadyCredited = errors.New("payment intent already credited")

// Confirm credits the caller's wallet with a succeeded intent exactly once.
// Later confirmations of the same intent return Credited == false.
func (s *TopUpService) Confirm(ctx context.Context, callerID, intentID string) (*ConfirmResult, error) {
	if callerID == "" {
		return nil, ErrUnauthenticated
	}
	if intentID == "" {
		return nil, ErrInvalidPaymentIntentID
	}

	// The gateway is read before any transaction begins.
	intent, err := s.gateway.RetrieveIntent(ctx, intentID)
	if err != nil {
		if errors.Is(err, ErrPaymentIntentNotFound) {
			return nil, ErrPaymentIntentNotFound
		}
		slog.ErrorContext(ctx, "retrieve payment intent failed", "action", "confirm_topup", "payment_intent_id", intentID, "error", err)
		return nil, ErrGatewayUnavailable
	}

	if intent.Metadata.UID != callerID || intent.Metadata.Purpose != domain.TopUpPurpose {
		return nil, ErrNotYourPayment
	}
	if !intent.Succeeded() {
		return nil, fmt.Errorf("%w: %s", ErrPaymentNotCompleted, intent.Status)
	}
	if intent.AmountCents <= 0 {
		return nil, ErrInvalidAmount
	}

	replay, err := s.alreadyCredited(ctx, callerID, intentID)
	if err != nil {
		return nil, err
	}
	if replay != nil {
		return replay, nil
	}

	var entry *domain.WalletLedgerEntry
	err = s.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		dup, err := tx.Ledger().FindTopUp(ctx, callerID, intentID)
		if err != nil {
			return err
		}
		if dup != nil {
			return errAlreadyCredited
		}

		entry, err = postEntry(ctx, tx, posting{
			UID:    callerID,
			Type:   domain.LedgerEntryTopUp,
			Amount: intent.AmountCents,
			Ref: domain.LedgerReference{
				PaymentIntentID: intent.ID,
				PaymentMethods:  intent.PaymentMethodTypes,
			},
		}, time.Now().UTC())
		if errors.Is(err, repository.ErrDuplicate) {
			return errAlreadyCredited
		}
		return err
	})
	if err != nil {
		if errors.Is(err, errAlreadyCredited) {
			replay, err := s.alreadyCredited(ctx, callerID, intentID)
			if err != nil {
				return nil, err
			}
			if replay != nil {
				return replay, nil
			}
			return &ConfirmResult{Credited: false, AmountCents: intent.AmountCents}, nil
		}
		return nil, err
	}

	slog.InfoContext(ctx, "wallet topped up",
		"action", "confirm_topup",
		"uid", callerID,
		"payment_intent_id", intentID,
		"amount_cents", entry.AmountCents,
	)
	s.notifications.NotifyTopUp(ctx, callerID, entry, intent.Currency)

	return &ConfirmResult{
		Credited:     true,
		AmountCents:  entry.AmountCents,
		BalanceCents: entry.BalanceAfterCents,
	}, nil
}

// alreadyCredited returns the replay result for an intent that has been
// credited, with the wallet's current balance, or nil if it has not.
func (s *TopUpService) alreadyCredited(ctx context.Context, uid, intentID string) (*ConfirmResult, error) {
	var result *ConfirmResult
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		entry, err := tx.Ledger().FindTopUp(ctx, uid, intentID)
		if err != nil || entry == nil {
			return err
		}
		account, err := tx.Wallets().GetByUID(ctx, uid)
		if err != nil {
			return err
		}
		result = &ConfirmResult{
			Credited:     false,
			AmountCents:  entry.AmountCents,
			BalanceCents: account.BalanceCents,
		}
		return nil
	})
	return result, err
}
