package repository

import (
	"context"
	"time"

	"ridehail/internal/domain"
)

// WalletRepository defines the persistence operations for wallet accounts.
// Balances must only be changed together with a ledger append.
type WalletRepository interface {
	// Create opens a wallet account. Returns ErrDuplicate if it exists.
	Create(ctx context.Context, account *domain.WalletAccount) error

	// GetByUID retrieves a wallet account.
	GetByUID(ctx context.Context, uid string) (*domain.WalletAccount, error)

	// UpdateBalance stores a new materialized balance.
	UpdateBalance(ctx context.Context, uid string, balanceCents int64, at time.Time) error

	// SetPushToken records the device token used for push notifications.
	SetPushToken(ctx context.Context, uid, token string, at time.Time) error
}

// LedgerRepository defines the persistence operations for ledger entries.
type LedgerRepository interface {
	// Append writes an immutable ledger entry. Returns ErrDuplicate when the
	// entry's correlation key was already used.
	Append(ctx context.Context, entry *domain.WalletLedgerEntry) error

	// FindTopUp returns the top-up entry referencing the payment intent.
	// Returns nil if the intent was never credited.
	FindTopUp(ctx context.Context, uid, paymentIntentID string) (*domain.WalletLedgerEntry, error)

	// ListByUID returns the user's most recent entries, newest first.
	ListByUID(ctx context.Context, uid string, limit int) ([]*domain.WalletLedgerEntry, error)

	// ListByRide returns every entry referencing the ride, oldest first.
	ListByRide(ctx context.Context, rideID string) ([]*domain.WalletLedgerEntry, error)
}
