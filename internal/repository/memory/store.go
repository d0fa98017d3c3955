// Package memory provides an in-process implementation of repository.Store
// with optimistic concurrency control. Every transaction records the version
// of each document and collection it read; commit fails with
// repository.ErrConflict if any of them moved in the meantime.
package memory

import (
	"context"
	"fmt"
	"sync"

	"ridehail/internal/repository"
)

type collection string

const (
	requestsCollection collection = "ride_requests"
	ridesCollection    collection = "rides"
	walletsCollection  collection = "wallet_accounts"
	ledgerCollection   collection = "wallet_ledger"
)

type docKey struct {
	c  collection
	id string
}

type record struct {
	version uint64
	value   any
}

// Store is an in-memory repository.Store.
type Store struct {
	mu          sync.Mutex
	docs        map[docKey]record
	collections map[collection]uint64
	policy      repository.RetryPolicy
}

// NewStore creates an empty in-memory store.
func NewStore(policy repository.RetryPolicy) *Store {
	if policy.MaxAttempts <= 0 {
		policy = repository.DefaultRetryPolicy
	}
	return &Store{
		docs:        make(map[docKey]record),
		collections: make(map[collection]uint64),
		policy:      policy,
	}
}

// RunInTx runs fn optimistically and replays it when the commit conflicts.
// A body that fails after reading stale data is replayed as well, so business
// errors always reflect a consistent view.
func (s *Store) RunInTx(ctx context.Context, fn repository.TxFunc) error {
	return repository.Retry(ctx, s.policy, func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		t := s.begin()
		if err := fn(ctx, t); err != nil {
			if !s.validate(t) {
				return fmt.Errorf("%w: stale read", repository.ErrConflict)
			}
			return err
		}
		return s.commit(t)
	})
}

// View runs fn without committing its writes.
func (s *Store) View(ctx context.Context, fn repository.TxFunc) error {
	return fn(ctx, s.begin())
}

func (s *Store) begin() *tx {
	return &tx{
		s:      s,
		reads:  make(map[docKey]record),
		scans:  make(map[collection]uint64),
		writes: make(map[docKey]any),
	}
}

func (s *Store) validate(t *tx) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validateLocked(t)
}

func (s *Store) validateLocked(t *tx) bool {
	for k, seen := range t.reads {
		if s.docs[k].version != seen.version {
			return false
		}
	}
	for c, seen := range t.scans {
		if s.collections[c] != seen {
			return false
		}
	}
	return true
}

func (s *Store) commit(t *tx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.validateLocked(t) {
		return fmt.Errorf("%w: concurrent write", repository.ErrConflict)
	}

	for k, v := range t.writes {
		current := s.docs[k]
		s.docs[k] = record{version: current.version + 1, value: v}
		s.collections[k.c]++
	}
	return nil
}

// tx buffers writes and tracks the versions it observed.
type tx struct {
	s      *Store
	reads  map[docKey]record
	scans  map[collection]uint64
	writes map[docKey]any
}

// get returns the document under k. Reads are repeatable within the tx.
func (t *tx) get(k docKey) (any, bool) {
	if v, ok := t.writes[k]; ok {
		return v, true
	}
	if rec, ok := t.reads[k]; ok {
		return rec.value, rec.value != nil
	}

	t.s.mu.Lock()
	rec := t.s.docs[k]
	t.s.mu.Unlock()

	t.reads[k] = rec
	return rec.value, rec.value != nil
}

// scan returns every document of c, with the tx's own writes applied.
func (t *tx) scan(c collection) []any {
	t.s.mu.Lock()
	if _, ok := t.scans[c]; !ok {
		t.scans[c] = t.s.collections[c]
	}
	merged := make(map[string]any)
	for k, rec := range t.s.docs {
		if k.c == c {
			merged[k.id] = rec.value
		}
	}
	t.s.mu.Unlock()

	for k, v := range t.writes {
		if k.c == c {
			merged[k.id] = v
		}
	}

	out := make([]any, 0, len(merged))
	for _, v := range merged {
		out = append(out, v)
	}
	return out
}

func (t *tx) put(k docKey, v any) {
	t.writes[k] = v
}

func (t *tx) Requests() repository.RequestRepository {
	return &requestRepository{t: t}
}

func (t *tx) Rides() repository.RideRepository {
	return &rideRepository{t: t}
}

func (t *tx) Wallets() repository.WalletRepository {
	return &walletRepository{t: t}
}

func (t *tx) Ledger() repository.LedgerRepository {
	return &ledgerRepository{t: t}
}

var (
	_ repository.Store = (*Store)(nil)
	_ repository.Tx    = (*tx)(nil)
)
