package repository

import "context"

// TxFunc is the body of a transaction. It must not call external services and
// may be executed more than once.
type TxFunc func(ctx context.Context, tx Tx) error

// Store runs units of work against the transactional document store.
type Store interface {
	// RunInTx runs fn in a serializable transaction, retrying the whole body
	// when the commit loses a conflict.
	RunInTx(ctx context.Context, fn TxFunc) error

	// View runs fn against a read-only snapshot. It is never retried.
	View(ctx context.Context, fn TxFunc) error
}

// Tx exposes transaction-scoped repositories.
type Tx interface {
	Requests() RequestRepository
	Rides() RideRepository
	Wallets() WalletRepository
	Ledger() LedgerRepository
}
