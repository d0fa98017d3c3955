package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// posting describes one balance change.
type posting struct {
	UID    string
	Type   domain.LedgerEntryType
	Amount int64
	Ref    domain.LedgerReference
}

// postEntry applies p to the account's balance and appends the matching
// ledger entry. The balance is read in tx; callers never pass one in.
func postEntry(ctx context.Context, tx repository.Tx, p posting, now time.Time) (*domain.WalletLedgerEntry, error) {
	account, err := tx.Wallets().GetByUID(ctx, p.UID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}

	if p.Amount > 0 && account.BalanceCents > math.MaxInt64-p.Amount {
		return nil, ErrInvalidAmount
	}
	balance := account.BalanceCents + p.Amount
	if balance < 0 {
		return nil, ErrInsufficientFunds
	}

	if err := tx.Wallets().UpdateBalance(ctx, p.UID, balance, now); err != nil {
		return nil, fmt.Errorf("update balance: %w", err)
	}

	entry := &domain.WalletLedgerEntry{
		ID:                uuid.New().String(),
		UID:               p.UID,
		Type:              p.Type,
		AmountCents:       p.Amount,
		BalanceAfterCents: balance,
		Status:            domain.LedgerEntryStatusSuccess,
		Ref:               p.Ref,
		CreatedAt:         now,
	}
	if err := tx.Ledger().Append(ctx, entry); err != nil {
		return nil, err
	}

	return entry, nil
}

// openAccount returns the uid's wallet, creating an empty one if missing.
func openAccount(ctx context.Context, tx repository.Tx, uid string, now time.Time) (*domain.WalletAccount, bool, error) {
	account, err := tx.Wallets().GetByUID(ctx, uid)
	if err == nil {
		return account, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, err
	}

	account = &domain.WalletAccount{
		UID:       uid,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.Wallets().Create(ctx, account); err != nil {
		return nil, false, err
	}
	return account, true, nil
}

// WalletService exposes wallet accounts and their ledger history.
type WalletService struct {
	store repository.Store
}

// NewWalletService creates a new WalletService.
func NewWalletService(store repository.Store) *WalletService {
	return &WalletService{store: store}
}

// Open creates the caller's wallet if it does not exist and records the
// push token when one is given. It is safe to call repeatedly.
func (s *WalletService) Open(ctx context.Context, uid, pushToken string) (*domain.WalletAccount, bool, error) {
	if uid == "" {
		return nil, false, ErrUnauthenticated
	}

	var account *domain.WalletAccount
	var created bool
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		now := time.Now().UTC()

		var err error
		account, created, err = openAccount(ctx, tx, uid, now)
		if err != nil {
			return err
		}

		if pushToken != "" && pushToken != account.PushToken {
			if err := tx.Wallets().SetPushToken(ctx, uid, pushToken, now); err != nil {
				return err
			}
			account.PushToken = pushToken
			account.UpdatedAt = now
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	return account, created, nil
}

// Balance returns the caller's wallet account.
func (s *WalletService) Balance(ctx context.Context, uid string) (*domain.WalletAccount, error) {
	if uid == "" {
		return nil, ErrUnauthenticated
	}

	var account *domain.WalletAccount
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		account, err = tx.Wallets().GetByUID(ctx, uid)
		return err
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}

	return account, nil
}

// History returns the caller's most recent ledger entries, newest first.
func (s *WalletService) History(ctx context.Context, uid string, limit int) ([]*domain.WalletLedgerEntry, error) {
	if uid == "" {
		return nil, ErrUnauthenticated
	}
	limit = clampLimit(limit)

	var entries []*domain.WalletLedgerEntry
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		entries, err = tx.Ledger().ListByUID(ctx, uid, limit)
		return err
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// PushToken returns the device token registered for uid, or "" if none.
func (s *WalletService) PushToken(ctx context.Context, uid string) (string, error) {
	account, err := s.Balance(ctx, uid)
	if err != nil {
		if errors.Is(err, ErrWalletNotFound) {
			return "", nil
		}
		return "", err
	}
	return account.PushToken, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		return maxHistoryLimit
	}
	return limit
}
