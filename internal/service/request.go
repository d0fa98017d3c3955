package service

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"ridehail/internal/domain"
	"ridehail/internal/geo"
	"ridehail/internal/repository"
)

const maxSearchRadiusKm = 50.0

// RequestService accepts new ride requests from riders.
type RequestService struct {
	store     repository.Store
	proximity *ProximityNotifier
}

// NewRequestService creates a new RequestService. proximity may be nil.
func NewRequestService(store repository.Store, proximity *ProximityNotifier) *RequestService {
	return &RequestService{store: store, proximity: proximity}
}

// CreateRequestInput contains the parameters for creating a ride request.
type CreateRequestInput struct {
	Pickup             geo.Point
	Destination        geo.Point
	PickupAddress      string
	DestinationAddress string
	SearchRadiusKm     float64 // Optional: 0 uses the default
}

// Create stores a waiting request and notifies nearby drivers.
func (s *RequestService) Create(ctx context.Context, riderID string, in CreateRequestInput) (*domain.RideRequest, error) {
	if riderID == "" {
		return nil, ErrUnauthenticated
	}
	if !in.Pickup.Valid() {
		return nil, ErrInvalidPickupLocation
	}
	if !in.Destination.Valid() {
		return nil, ErrInvalidDestinationLocation
	}

	radius := in.SearchRadiusKm
	if math.IsNaN(radius) || radius < 0 || radius > maxSearchRadiusKm {
		return nil, ErrInvalidSearchRadius
	}
	if radius == 0 {
		radius = domain.DefaultSearchRadiusKm
	}

	now := time.Now().UTC()
	req := &domain.RideRequest{
		ID:                 uuid.New().String(),
		RiderID:            riderID,
		Status:             domain.RequestStatusWaiting,
		Pickup:             in.Pickup,
		Destination:        in.Destination,
		PickupAddress:      strings.TrimSpace(in.PickupAddress),
		DestinationAddress: strings.TrimSpace(in.DestinationAddress),
		SearchRadiusKm:     radius,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	err := s.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return tx.Requests().Create(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "request created", "action", "create_request", "request_id", req.ID, "uid", riderID)

	if s.proximity != nil {
		s.proximity.FanOut(ctx, req)
	}
	return req, nil
}

// Get returns a request. Its rider and matched driver may always read it;
// other users only while it is still waiting for a driver.
func (s *RequestService) Get(ctx context.Context, requestID, callerID string) (*domain.RideRequest, error) {
	if callerID == "" {
		return nil, ErrUnauthenticated
	}
	if requestID == "" {
		return nil, ErrInvalidRequestID
	}

	var req *domain.RideRequest
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		req, err = tx.Requests().GetByID(ctx, requestID)
		return err
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}

	if callerID == req.RiderID || callerID == req.MatchedDriverID {
		return req, nil
	}
	if req.Status != domain.RequestStatusWaiting {
		return nil, ErrNotRequestRider
	}
	return req, nil
}
