package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

// LedgerRepository is a PostgreSQL implementation of repository.LedgerRepository.
// The full reference is stored as JSONB; ride_id and payment_intent_id are
// copied into columns so the unique indexes can enforce exactly-once entries.
type LedgerRepository struct {
	q Querier
}

// NewLedgerRepositoryWithTx creates a ledger repository using a transaction.
func NewLedgerRepositoryWithTx(tx *sql.Tx) *LedgerRepository {
	return &LedgerRepository{q: tx}
}

const ledgerColumns = `id, uid, type, amount_cents, balance_after_cents, status, ref, created_at`

// Append writes an immutable ledger entry.
func (r *LedgerRepository) Append(ctx context.Context, entry *domain.WalletLedgerEntry) error {
	ref, err := json.Marshal(entry.Ref)
	if err != nil {
		return fmt.Errorf("failed to encode ledger reference: %w", err)
	}

	query := `
		INSERT INTO wallet_ledger (id, uid, type, amount_cents, balance_after_cents, status, ref, ride_id, payment_intent_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = r.q.ExecContext(ctx, query,
		entry.ID,
		entry.UID,
		entry.Type,
		entry.AmountCents,
		entry.BalanceAfterCents,
		entry.Status,
		ref,
		nullString(entry.Ref.RideID),
		nullString(entry.Ref.PaymentIntentID),
		entry.CreatedAt,
	)
	return mapWriteError(err)
}

// FindTopUp returns the top-up entry referencing the payment intent.
// Returns nil if the intent was never credited.
func (r *LedgerRepository) FindTopUp(ctx context.Context, uid, paymentIntentID string) (*domain.WalletLedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + `
		FROM wallet_ledger WHERE uid = $1 AND type = $2 AND payment_intent_id = $3 LIMIT 1`

	entry, err := scanLedgerEntry(r.q.QueryRowContext(ctx, query, uid, domain.LedgerEntryTopUp, paymentIntentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return entry, nil
}

// ListByUID returns the user's most recent entries, newest first.
func (r *LedgerRepository) ListByUID(ctx context.Context, uid string, limit int) ([]*domain.WalletLedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + `
		FROM wallet_ledger WHERE uid = $1 ORDER BY created_at DESC, id DESC LIMIT $2`
	return r.list(ctx, query, uid, limit)
}

// ListByRide returns every entry referencing the ride, oldest first.
func (r *LedgerRepository) ListByRide(ctx context.Context, rideID string) ([]*domain.WalletLedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + `
		FROM wallet_ledger WHERE ride_id = $1 ORDER BY created_at, id`
	return r.list(ctx, query, rideID)
}

func (r *LedgerRepository) list(ctx context.Context, query string, args ...any) ([]*domain.WalletLedgerEntry, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.WalletLedgerEntry
	for rows.Next() {
		entry, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func scanLedgerEntry(row rowScanner) (*domain.WalletLedgerEntry, error) {
	var entry domain.WalletLedgerEntry
	var ref []byte

	err := row.Scan(
		&entry.ID,
		&entry.UID,
		&entry.Type,
		&entry.AmountCents,
		&entry.BalanceAfterCents,
		&entry.Status,
		&ref,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(ref) > 0 {
		if err := json.Unmarshal(ref, &entry.Ref); err != nil {
			return nil, fmt.Errorf("failed to decode ledger reference: %w", err)
		}
	}

	return &entry, nil
}

var _ repository.LedgerRepository = (*LedgerRepository)(nil)
