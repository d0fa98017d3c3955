package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

// WalletRepository is a PostgreSQL implementation of repository.WalletRepository.
type WalletRepository struct {
	q Querier
}

// NewWalletRepositoryWithTx creates a wallet repository using a transaction.
func NewWalletRepositoryWithTx(tx *sql.Tx) *WalletRepository {
	return &WalletRepository{q: tx}
}

// Create opens a wallet account.
func (r *WalletRepository) Create(ctx context.Context, account *domain.WalletAccount) error {
	query := `
		INSERT INTO wallet_accounts (uid, balance_cents, push_token, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.q.ExecContext(ctx, query,
		account.UID,
		account.BalanceCents,
		nullString(account.PushToken),
		account.CreatedAt,
		account.UpdatedAt,
	)
	return mapWriteError(err)
}

// GetByUID retrieves a wallet account.
func (r *WalletRepository) GetByUID(ctx context.Context, uid string) (*domain.WalletAccount, error) {
	query := `SELECT uid, balance_cents, push_token, created_at, updated_at FROM wallet_accounts WHERE uid = $1`

	var account domain.WalletAccount
	var pushToken sql.NullString
	err := r.q.QueryRowContext(ctx, query, uid).Scan(
		&account.UID,
		&account.BalanceCents,
		&pushToken,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	account.PushToken = pushToken.String

	return &account, nil
}

// UpdateBalance stores a new materialized balance.
func (r *WalletRepository) UpdateBalance(ctx context.Context, uid string, balanceCents int64, at time.Time) error {
	query := `UPDATE wallet_accounts SET balance_cents = $2, updated_at = $3 WHERE uid = $1`

	result, err := r.q.ExecContext(ctx, query, uid, balanceCents, at)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// SetPushToken records the device token used for push notifications.
func (r *WalletRepository) SetPushToken(ctx context.Context, uid, token string, at time.Time) error {
	query := `UPDATE wallet_accounts SET push_token = $2, updated_at = $3 WHERE uid = $1`

	result, err := r.q.ExecContext(ctx, query, uid, nullString(token), at)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return repository.ErrNotFound
	}

	return nil
}

var _ repository.WalletRepository = (*WalletRepository)(nil)
