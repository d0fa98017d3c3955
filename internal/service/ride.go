package service

import (
	"context"
	"errors"
	"log/slog"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

// RideCache keeps read-through snapshots of rides. Implementations must
// return nil, nil on a miss. Only terminal rides are stored, so a snapshot
// can never be older than the row it copies.
type RideCache interface {
	GetRide(ctx context.Context, id string) (*domain.Ride, error)
	SetRide(ctx context.Context, ride *domain.Ride) error
	InvalidateRide(ctx context.Context, id string) error
}

// RideService answers read queries about rides.
type RideService struct {
	store repository.Store
	cache RideCache
}

// NewRideService creates a new RideService. cache may be nil.
func NewRideService(store repository.Store, cache RideCache) *RideService {
	return &RideService{store: store, cache: cache}
}

// Get returns a ride visible to the caller, who must be its driver or rider.
func (s *RideService) Get(ctx context.Context, rideID, callerID string) (*domain.Ride, error) {
	if callerID == "" {
		return nil, ErrUnauthenticated
	}
	if rideID == "" {
		return nil, ErrInvalidRideID
	}

	ride := s.cached(ctx, rideID)
	if ride == nil {
		err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
			var err error
			ride, err = tx.Rides().GetByID(ctx, rideID)
			return err
		})
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrRideNotFound
			}
			return nil, err
		}
		s.remember(ctx, ride)
	}

	if _, ok := ride.PartyOf(callerID); !ok {
		return nil, ErrNotRideParty
	}
	return ride, nil
}

// List returns the caller's most recent rides as driver or rider.
func (s *RideService) List(ctx context.Context, callerID string, limit int) ([]*domain.Ride, error) {
	if callerID == "" {
		return nil, ErrUnauthenticated
	}
	limit = clampLimit(limit)

	var rides []*domain.Ride
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		rides, err = tx.Rides().ListByParticipant(ctx, callerID, limit)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rides, nil
}

func (s *RideService) cached(ctx context.Context, rideID string) *domain.Ride {
	if s.cache == nil {
		return nil
	}
	ride, err := s.cache.GetRide(ctx, rideID)
	if err != nil {
		slog.WarnContext(ctx, "ride cache read failed", "ride_id", rideID, "error", err)
		return nil
	}
	return ride
}

func (s *RideService) remember(ctx context.Context, ride *domain.Ride) {
	// A live ride may be invalidated between our read and this write.
	if s.cache == nil || !ride.Status.IsTerminal() {
		return
	}
	if err := s.cache.SetRide(ctx, ride); err != nil {
		slog.WarnContext(ctx, "ride cache write failed", "ride_id", ride.ID, "error", err)
	}
}
