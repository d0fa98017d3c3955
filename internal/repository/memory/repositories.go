package memory

import (
	"context"
	"slices"
	"sort"
	"time"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

type requestRepository struct {
	t *tx
}

func (r *requestRepository) Create(ctx context.Context, req *domain.RideRequest) error {
	k := docKey{requestsCollection, req.ID}
	if _, ok := r.t.get(k); ok {
		return repository.ErrDuplicate
	}
	r.t.put(k, *req)
	return nil
}

func (r *requestRepository) GetByID(ctx context.Context, id string) (*domain.RideRequest, error) {
	v, ok := r.t.get(docKey{requestsCollection, id})
	if !ok {
		return nil, repository.ErrNotFound
	}
	req := v.(domain.RideRequest)
	return &req, nil
}

func (r *requestRepository) Update(ctx context.Context, req *domain.RideRequest) error {
	k := docKey{requestsCollection, req.ID}
	if _, ok := r.t.get(k); !ok {
		return repository.ErrNotFound
	}
	r.t.put(k, *req)
	return nil
}

type rideRepository struct {
	t *tx
}

func (r *rideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	k := docKey{ridesCollection, ride.ID}
	if _, ok := r.t.get(k); ok {
		return repository.ErrDuplicate
	}
	if !ride.Status.IsTerminal() {
		active, err := r.GetActiveByDriverID(ctx, ride.DriverID)
		if err != nil {
			return err
		}
		if active != nil {
			return repository.ErrDuplicate
		}
	}
	r.t.put(k, *ride)
	return nil
}

func (r *rideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	v, ok := r.t.get(docKey{ridesCollection, id})
	if !ok {
		return nil, repository.ErrNotFound
	}
	ride := v.(domain.Ride)
	return &ride, nil
}

func (r *rideRepository) Update(ctx context.Context, ride *domain.Ride) error {
	k := docKey{ridesCollection, ride.ID}
	if _, ok := r.t.get(k); !ok {
		return repository.ErrNotFound
	}
	r.t.put(k, *ride)
	return nil
}

func (r *rideRepository) GetActiveByDriverID(ctx context.Context, driverID string) (*domain.Ride, error) {
	for _, v := range r.t.scan(ridesCollection) {
		ride := v.(domain.Ride)
		if ride.DriverID == driverID && !ride.Status.IsTerminal() {
			return &ride, nil
		}
	}
	return nil, nil
}

func (r *rideRepository) ListByParticipant(ctx context.Context, uid string, limit int) ([]*domain.Ride, error) {
	var rides []*domain.Ride
	for _, v := range r.t.scan(ridesCollection) {
		ride := v.(domain.Ride)
		if ride.DriverID == uid || ride.RiderID == uid {
			rides = append(rides, &ride)
		}
	}

	sort.Slice(rides, func(i, j int) bool {
		if rides[i].CreatedAt.Equal(rides[j].CreatedAt) {
			return rides[i].ID > rides[j].ID
		}
		return rides[i].CreatedAt.After(rides[j].CreatedAt)
	})
	if limit > 0 && len(rides) > limit {
		rides = rides[:limit]
	}
	return rides, nil
}

type walletRepository struct {
	t *tx
}

func (r *walletRepository) Create(ctx context.Context, account *domain.WalletAccount) error {
	k := docKey{walletsCollection, account.UID}
	if _, ok := r.t.get(k); ok {
		return repository.ErrDuplicate
	}
	r.t.put(k, *account)
	return nil
}

func (r *walletRepository) GetByUID(ctx context.Context, uid string) (*domain.WalletAccount, error) {
	v, ok := r.t.get(docKey{walletsCollection, uid})
	if !ok {
		return nil, repository.ErrNotFound
	}
	account := v.(domain.WalletAccount)
	return &account, nil
}

func (r *walletRepository) UpdateBalance(ctx context.Context, uid string, balanceCents int64, at time.Time) error {
	k := docKey{walletsCollection, uid}
	v, ok := r.t.get(k)
	if !ok {
		return repository.ErrNotFound
	}
	account := v.(domain.WalletAccount)
	account.BalanceCents = balanceCents
	account.UpdatedAt = at
	r.t.put(k, account)
	return nil
}

func (r *walletRepository) SetPushToken(ctx context.Context, uid, token string, at time.Time) error {
	k := docKey{walletsCollection, uid}
	v, ok := r.t.get(k)
	if !ok {
		return repository.ErrNotFound
	}
	account := v.(domain.WalletAccount)
	account.PushToken = token
	account.UpdatedAt = at
	r.t.put(k, account)
	return nil
}

type ledgerRepository struct {
	t *tx
}

func (r *ledgerRepository) Append(ctx context.Context, entry *domain.WalletLedgerEntry) error {
	k := docKey{ledgerCollection, entry.ID}
	if _, ok := r.t.get(k); ok {
		return repository.ErrDuplicate
	}

	// Same uniqueness rules as the Postgres indexes on wallet_ledger.
	for _, v := range r.t.scan(ledgerCollection) {
		existing := v.(domain.WalletLedgerEntry)
		if entry.Ref.RideID != "" && existing.UID == entry.UID &&
			existing.Type == entry.Type && existing.Ref.RideID == entry.Ref.RideID {
			return repository.ErrDuplicate
		}
		if entry.Type == domain.LedgerEntryTopUp && existing.Type == domain.LedgerEntryTopUp &&
			entry.Ref.PaymentIntentID != "" && existing.Ref.PaymentIntentID == entry.Ref.PaymentIntentID {
			return repository.ErrDuplicate
		}
	}

	stored := *entry
	stored.Ref.PaymentMethods = slices.Clone(entry.Ref.PaymentMethods)
	r.t.put(k, stored)
	return nil
}

func (r *ledgerRepository) FindTopUp(ctx context.Context, uid, paymentIntentID string) (*domain.WalletLedgerEntry, error) {
	entries := r.filter(func(e *domain.WalletLedgerEntry) bool {
		return e.UID == uid && e.Type == domain.LedgerEntryTopUp && e.Ref.PaymentIntentID == paymentIntentID
	})
	if len(entries) == 0 {
		return nil, nil
	}
	return entries[0], nil
}

func (r *ledgerRepository) ListByUID(ctx context.Context, uid string, limit int) ([]*domain.WalletLedgerEntry, error) {
	entries := r.filter(func(e *domain.WalletLedgerEntry) bool { return e.UID == uid })
	slices.Reverse(entries)
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (r *ledgerRepository) ListByRide(ctx context.Context, rideID string) ([]*domain.WalletLedgerEntry, error) {
	return r.filter(func(e *domain.WalletLedgerEntry) bool { return e.Ref.RideID == rideID }), nil
}

// filter returns matching entries, oldest first.
func (r *ledgerRepository) filter(match func(e *domain.WalletLedgerEntry) bool) []*domain.WalletLedgerEntry {
	var entries []*domain.WalletLedgerEntry
	for _, v := range r.t.scan(ledgerCollection) {
		entry := v.(domain.WalletLedgerEntry)
		entry.Ref.PaymentMethods = slices.Clone(entry.Ref.PaymentMethods)
		if match(&entry) {
			entries = append(entries, &entry)
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].ID < entries[j].ID
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
	return entries
}
