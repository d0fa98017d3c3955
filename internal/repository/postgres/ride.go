package postgres

import (
	"context"
	"database/sql"
	"errors"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

// RideRepository is a PostgreSQL implementation of repository.RideRepository.
type RideRepository struct {
	q Querier
}

// NewRideRepositoryWithTx creates a ride repository using a transaction.
func NewRideRepositoryWithTx(tx *sql.Tx) *RideRepository {
	return &RideRepository{q: tx}
}

const rideColumns = `id, request_id, driver_id, rider_id, status, payment_status, hold_amount_cents,
	final_fare_cents, distance_km, cancelled_by, cancel_reason, created_at, updated_at,
	completed_at, cancelled_at`

// activeRideFilter matches the partial unique index on rides(driver_id).
const activeRideFilter = `status NOT IN ('completed', 'cancelled')`

// Create persists a new ride. The partial unique index on driver_id rejects a
// second active ride for the same driver with repository.ErrDuplicate.
func (r *RideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	query := `INSERT INTO rides (` + rideColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := r.q.ExecContext(ctx, query,
		ride.ID,
		ride.RequestID,
		ride.DriverID,
		ride.RiderID,
		ride.Status,
		ride.PaymentStatus,
		ride.HoldAmountCents,
		ride.FinalFareCents,
		ride.DistanceKm,
		nullString(string(ride.CancelledBy)),
		nullString(ride.CancelReason),
		ride.CreatedAt,
		ride.UpdatedAt,
		nullTime(ride.CompletedAt),
		nullTime(ride.CancelledAt),
	)
	return mapWriteError(err)
}

// GetByID retrieves a ride by ID.
func (r *RideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1`

	ride, err := scanRide(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return ride, nil
}

// Update overwrites the mutable fields of a ride.
func (r *RideRepository) Update(ctx context.Context, ride *domain.Ride) error {
	query := `
		UPDATE rides
		SET status = $2, payment_status = $3, final_fare_cents = $4, distance_km = $5,
			cancelled_by = $6, cancel_reason = $7, updated_at = $8, completed_at = $9, cancelled_at = $10
		WHERE id = $1
	`

	result, err := r.q.ExecContext(ctx, query,
		ride.ID,
		ride.Status,
		ride.PaymentStatus,
		ride.FinalFareCents,
		ride.DistanceKm,
		nullString(string(ride.CancelledBy)),
		nullString(ride.CancelReason),
		ride.UpdatedAt,
		nullTime(ride.CompletedAt),
		nullTime(ride.CancelledAt),
	)
	if err != nil {
		return mapWriteError(err)
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

// GetActiveByDriverID retrieves the driver's non-terminal ride.
// Returns nil if the driver has none.
func (r *RideRepository) GetActiveByDriverID(ctx context.Context, driverID string) (*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE driver_id = $1 AND ` + activeRideFilter + ` LIMIT 1`

	ride, err := scanRide(r.q.QueryRowContext(ctx, query, driverID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return ride, nil
}

// ListByParticipant returns the most recent rides where uid is driver or rider.
func (r *RideRepository) ListByParticipant(ctx context.Context, uid string, limit int) ([]*domain.Ride, error) {
	query := `SELECT ` + rideColumns + `
		FROM rides WHERE driver_id = $1 OR rider_id = $1
		ORDER BY created_at DESC LIMIT $2`

	rows, err := r.q.QueryContext(ctx, query, uid, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rides []*domain.Ride
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		rides = append(rides, ride)
	}

	return rides, rows.Err()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRide(row rowScanner) (*domain.Ride, error) {
	var ride domain.Ride
	var cancelledBy, cancelReason sql.NullString
	var completedAt, cancelledAt sql.NullTime

	err := row.Scan(
		&ride.ID,
		&ride.RequestID,
		&ride.DriverID,
		&ride.RiderID,
		&ride.Status,
		&ride.PaymentStatus,
		&ride.HoldAmountCents,
		&ride.FinalFareCents,
		&ride.DistanceKm,
		&cancelledBy,
		&cancelReason,
		&ride.CreatedAt,
		&ride.UpdatedAt,
		&completedAt,
		&cancelledAt,
	)
	if err != nil {
		return nil, err
	}

	ride.CancelledBy = domain.Party(cancelledBy.String)
	ride.CancelReason = cancelReason.String
	ride.CompletedAt = timeOrZero(completedAt)
	ride.CancelledAt = timeOrZero(cancelledAt)

	return &ride, nil
}

var _ repository.RideRepository = (*RideRepository)(nil)
