package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"ridehail/internal/domain"
	"ridehail/internal/geo"
	"ridehail/internal/pricing"
	"ridehail/internal/repository"
)

// MatchingService converts waiting requests into rides. The store transaction
// is the only thing preventing double claims; no lock is taken.
type MatchingService struct {
	store         repository.Store
	fares         *pricing.Calculator
	notifications *NotificationService
}

// NewMatchingService creates a new MatchingService.
func NewMatchingService(store repository.Store, fares *pricing.Calculator, notifications *NotificationService) *MatchingService {
	return &MatchingService{
		store:         store,
		fares:         fares,
		notifications: notifications,
	}
}

// ClaimResult contains the result of a successful claim.
type ClaimResult struct {
	RideID          string
	RequestID       string
	HoldAmountCents int64
	DistanceKm      float64
}

// Claim assigns the waiting request to driverID, creates the ride and holds
// the fare against the rider's wallet, all in one transaction.
func (s *MatchingService) Claim(ctx context.Context, requestID, driverID string) (*ClaimResult, error) {
	if driverID == "" {
		return nil, ErrUnauthenticated
	}
	if requestID == "" {
		return nil, ErrInvalidRequestID
	}

	var result *ClaimResult
	var claimed *domain.RideRequest

	err := s.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		active, err := tx.Rides().GetActiveByDriverID(ctx, driverID)
		if err != nil {
			return err
		}
		if active != nil {
			return ErrDriverHasActiveRide
		}

		req, err := tx.Requests().GetByID(ctx, requestID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrRequestNotFound
			}
			return err
		}
		if req.Status != domain.RequestStatusWaiting {
			return ErrRequestNotWaiting
		}
		if req.IsMatched() {
			return ErrRequestAlreadyMatched
		}
		if req.RiderID == driverID {
			return ErrOwnRequest
		}
		if !req.Pickup.Valid() || !req.Destination.Valid() {
			return ErrRequestInvalidCoordinates
		}

		distance := geo.HaversineKm(req.Pickup, req.Destination)
		hold := s.fares.Fare(distance)
		if hold <= 0 {
			return ErrInvalidFare
		}
		now := time.Now().UTC()

		ride := &domain.Ride{
			ID:              uuid.New().String(),
			RequestID:       req.ID,
			DriverID:        driverID,
			RiderID:         req.RiderID,
			Status:          domain.RideStatusIncoming,
			PaymentStatus:   domain.PaymentStatusHeld,
			HoldAmountCents: hold,
			DistanceKm:      distance,
			CreatedAt:       now,
			UpdatedAt:       now,
		}

		// The debit reads the rider's balance in this transaction and fails
		// before anything else is written if it cannot cover the hold.
		_, err = postEntry(ctx, tx, posting{
			UID:    req.RiderID,
			Type:   domain.LedgerEntryRideHold,
			Amount: -hold,
			Ref:    rideReference(ride),
		}, now)
		if err != nil {
			return err
		}

		if err := tx.Rides().Create(ctx, ride); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrDriverHasActiveRide
			}
			return err
		}

		req.Status = domain.RequestStatusIncoming
		req.MatchedDriverID = driverID
		req.ActiveRideID = ride.ID
		req.UpdatedAt = now
		if err := tx.Requests().Update(ctx, req); err != nil {
			return err
		}

		result = &ClaimResult{
			RideID:          ride.ID,
			RequestID:       req.ID,
			HoldAmountCents: hold,
			DistanceKm:      distance,
		}
		claimed = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "request claimed",
		"action", "claim",
		"request_id", result.RequestID,
		"ride_id", result.RideID,
		"uid", driverID,
		"hold_cents", result.HoldAmountCents,
	)

	s.notifications.NotifyStatusChange(ctx, statusChange{
		RiderID:         claimed.RiderID,
		RequestID:       claimed.ID,
		ActiveRideID:    claimed.ActiveRideID,
		MatchedDriverID: claimed.MatchedDriverID,
		From:            string(domain.RequestStatusWaiting),
		To:              string(domain.RequestStatusIncoming),
	})

	return result, nil
}
