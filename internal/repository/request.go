package repository

import (
	"context"

	"ridehail/internal/domain"
)

// RequestRepository defines the persistence operations for ride requests.
type RequestRepository interface {
	// Create persists a new ride request.
	Create(ctx context.Context, req *domain.RideRequest) error

	// GetByID retrieves a ride request by ID.
	GetByID(ctx context.Context, id string) (*domain.RideRequest, error)

	// Update overwrites an existing ride request.
	Update(ctx context.Context, req *domain.RideRequest) error
}
