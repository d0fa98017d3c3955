package repository

import (
	"context"

	"ridehail/internal/domain"
)

// RideRepository defines the persistence operations for rides.
type RideRepository interface {
	// Create persists a new ride.
	Create(ctx context.Context, ride *domain.Ride) error

	// GetByID retrieves a ride by ID.
	GetByID(ctx context.Context, id string) (*domain.Ride, error)

	// Update overwrites an existing ride.
	Update(ctx context.Context, ride *domain.Ride) error

	// GetActiveByDriverID retrieves the driver's non-terminal ride.
	// Returns nil if the driver has none.
	GetActiveByDriverID(ctx context.Context, driverID string) (*domain.Ride, error)

	// ListByParticipant returns the most recent rides where uid is driver or rider.
	ListByParticipant(ctx context.Context, uid string, limit int) ([]*domain.Ride, error)
}
