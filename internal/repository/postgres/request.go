package postgres

import (
	"context"
	"database/sql"
	"errors"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

// RequestRepository is a PostgreSQL implementation of repository.RequestRepository.
type RequestRepository struct {
	q Querier
}

// NewRequestRepositoryWithTx creates a ride request repository using a transaction.
func NewRequestRepositoryWithTx(tx *sql.Tx) *RequestRepository {
	return &RequestRepository{q: tx}
}

const requestColumns = `id, rider_id, status, pickup_lat, pickup_lng, destination_lat, destination_lng,
	pickup_address, destination_address, search_radius_km, matched_driver_id, active_ride_id,
	cancel_reason, created_at, updated_at`

// Create persists a new ride request.
func (r *RequestRepository) Create(ctx context.Context, req *domain.RideRequest) error {
	query := `INSERT INTO ride_requests (` + requestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := r.q.ExecContext(ctx, query,
		req.ID,
		req.RiderID,
		req.Status,
		req.Pickup.Lat,
		req.Pickup.Lng,
		req.Destination.Lat,
		req.Destination.Lng,
		nullString(req.PickupAddress),
		nullString(req.DestinationAddress),
		req.SearchRadiusKm,
		nullString(req.MatchedDriverID),
		nullString(req.ActiveRideID),
		nullString(req.CancelReason),
		req.CreatedAt,
		req.UpdatedAt,
	)
	return mapWriteError(err)
}

// GetByID retrieves a ride request by ID.
func (r *RequestRepository) GetByID(ctx context.Context, id string) (*domain.RideRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM ride_requests WHERE id = $1`

	var req domain.RideRequest
	var pickupAddress, destinationAddress, matchedDriverID, activeRideID, cancelReason sql.NullString

	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&req.ID,
		&req.RiderID,
		&req.Status,
		&req.Pickup.Lat,
		&req.Pickup.Lng,
		&req.Destination.Lat,
		&req.Destination.Lng,
		&pickupAddress,
		&destinationAddress,
		&req.SearchRadiusKm,
		&matchedDriverID,
		&activeRideID,
		&cancelReason,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	req.PickupAddress = pickupAddress.String
	req.DestinationAddress = destinationAddress.String
	req.MatchedDriverID = matchedDriverID.String
	req.ActiveRideID = activeRideID.String
	req.CancelReason = cancelReason.String

	return &req, nil
}

// Update overwrites the mutable fields of a ride request.
func (r *RequestRepository) Update(ctx context.Context, req *domain.RideRequest) error {
	query := `
		UPDATE ride_requests
		SET status = $2, matched_driver_id = $3, active_ride_id = $4, cancel_reason = $5, updated_at = $6
		WHERE id = $1
	`

	result, err := r.q.ExecContext(ctx, query,
		req.ID,
		req.Status,
		nullString(req.MatchedDriverID),
		nullString(req.ActiveRideID),
		nullString(req.CancelReason),
		req.UpdatedAt,
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

var _ repository.RequestRepository = (*RequestRepository)(nil)
