package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/newrelic/go-agent/v3/newrelic"

	"ridehail/internal/repository"
)

// Store is a PostgreSQL implementation of repository.Store. Transactions run
// at SERIALIZABLE isolation and are replayed when Postgres reports a
// serialization failure.
type Store struct {
	db     *sql.DB
	policy repository.RetryPolicy
}

// NewStore creates a new PostgreSQL store.
func NewStore(db *sql.DB, policy repository.RetryPolicy) *Store {
	if policy.MaxAttempts <= 0 {
		policy = repository.DefaultRetryPolicy
	}
	return &Store{db: db, policy: policy}
}

// RunInTx runs fn in a serializable transaction.
func (s *Store) RunInTx(ctx context.Context, fn repository.TxFunc) error {
	return repository.Retry(ctx, s.policy, func(ctx context.Context) error {
		return s.attempt(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable}, "transaction", fn)
	})
}

// View runs fn in a read-only snapshot transaction.
func (s *Store) View(ctx context.Context, fn repository.TxFunc) error {
	return s.attempt(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}, "view", fn)
}

func (s *Store) attempt(ctx context.Context, opts *sql.TxOptions, op string, fn repository.TxFunc) (err error) {
	if txn := newrelic.FromContext(ctx); txn != nil {
		segment := newrelic.DatastoreSegment{
			StartTime:  txn.StartSegmentNow(),
			Product:    newrelic.DatastorePostgres,
			Operation:  op,
			Collection: "wallet",
		}
		defer segment.End()
	}

	tx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return classify(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(ctx, &txRepos{tx: tx}); err != nil {
		return classify(err)
	}

	if err = tx.Commit(); err != nil {
		return classify(fmt.Errorf("failed to commit transaction: %w", err))
	}
	return nil
}

// txRepos hands out repositories bound to one transaction.
type txRepos struct {
	tx *sql.Tx
}

func (t *txRepos) Requests() repository.RequestRepository {
	return NewRequestRepositoryWithTx(t.tx)
}

func (t *txRepos) Rides() repository.RideRepository {
	return NewRideRepositoryWithTx(t.tx)
}

func (t *txRepos) Wallets() repository.WalletRepository {
	return NewWalletRepositoryWithTx(t.tx)
}

func (t *txRepos) Ledger() repository.LedgerRepository {
	return NewLedgerRepositoryWithTx(t.tx)
}

var (
	_ repository.Store = (*Store)(nil)
	_ repository.Tx    = (*txRepos)(nil)
)
