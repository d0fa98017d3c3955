package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

// LifecycleService drives rides through their state machine and settles the
// escrow on terminal transitions.
type LifecycleService struct {
	store         repository.Store
	notifications *NotificationService
	cache         RideCache
}

// NewLifecycleService creates a new LifecycleService. cache may be nil.
func NewLifecycleService(store repository.Store, notifications *NotificationService, cache RideCache) *LifecycleService {
	return &LifecycleService{
		store:         store,
		notifications: notifications,
		cache:         cache,
	}
}

// RideTransition is the result of a ride state change.
type RideTransition struct {
	Ride    *domain.Ride
	Outcome Outcome
	From    domain.RideStatus
}

// RequestTransition is the result of a request state change.
type RequestTransition struct {
	Request *domain.RideRequest
	Outcome Outcome
}

// Advance moves the ride one step along the happy path. Only the driver may
// report progress; repeating the current status is a no-op.
func (s *LifecycleService) Advance(ctx context.Context, rideID, callerID string, to domain.RideStatus) (*RideTransition, error) {
	if callerID == "" {
		return nil, ErrUnauthenticated
	}
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	if !to.IsProgressStatus() {
		return nil, ErrInvalidRideStatus
	}

	var result *RideTransition
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		ride, err := s.loadRide(ctx, tx, rideID)
		if err != nil {
			return err
		}
		if ride.DriverID != callerID {
			return ErrNotRideDriver
		}

		from := ride.Status
		if from == to {
			result = &RideTransition{Ride: ride, Outcome: AlreadyApplied, From: from}
			return nil
		}
		if err := terminalError(from); err != nil {
			return err
		}
		if next, ok := from.Next(); !ok || next != to {
			return ErrInvalidTransition
		}

		ride.Status = to
		ride.UpdatedAt = time.Now().UTC()
		if err := tx.Rides().Update(ctx, ride); err != nil {
			return err
		}

		result = &RideTransition{Ride: ride, Outcome: Applied, From: from}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Outcome == Applied {
		s.afterRideChange(ctx, "advance", result, "")
	}
	return result, nil
}

// Cancel cancels the ride on behalf of the named party and refunds the hold.
// Cancelling a cancelled ride is a no-op; cancelling a completed ride fails.
func (s *LifecycleService) Cancel(ctx context.Context, rideID, callerID string, by domain.Party, reason string) (*RideTransition, error) {
	if callerID == "" {
		return nil, ErrUnauthenticated
	}
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	if !by.Valid() {
		return nil, ErrInvalidParty
	}

	var result *RideTransition
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		ride, err := s.loadRide(ctx, tx, rideID)
		if err != nil {
			return err
		}
		if party, ok := ride.PartyOf(callerID); !ok || party != by {
			return ErrNotRideParty
		}

		from := ride.Status
		switch from {
		case domain.RideStatusCompleted:
			return ErrRideCompleted
		case domain.RideStatusCancelled:
			result = &RideTransition{Ride: ride, Outcome: AlreadyApplied, From: from}
			return nil
		}

		now := time.Now().UTC()
		if _, err := refundHold(ctx, tx, ride, now); err != nil {
			return err
		}

		ride.Status = domain.RideStatusCancelled
		ride.CancelledBy = by
		ride.CancelReason = reason
		ride.CancelledAt = now
		ride.UpdatedAt = now
		if err := tx.Rides().Update(ctx, ride); err != nil {
			return err
		}

		if err := closeRequest(ctx, tx, ride.RequestID, domain.RequestStatusCancelled, reason, now); err != nil {
			return err
		}

		result = &RideTransition{Ride: ride, Outcome: Applied, From: from}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Outcome == Applied {
		s.afterRideChange(ctx, "cancel", result, reason)
	}
	return result, nil
}

// Complete finishes the ride and pays the hold to the driver. Completing a
// completed ride is a no-op; completing a cancelled ride fails.
func (s *LifecycleService) Complete(ctx context.Context, rideID, callerID string) (*RideTransition, error) {
	if callerID == "" {
		return nil, ErrUnauthenticated
	}
	if rideID == "" {
		return nil, ErrInvalidRideID
	}

	var result *RideTransition
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		ride, err := s.loadRide(ctx, tx, rideID)
		if err != nil {
			return err
		}
		if ride.DriverID != callerID {
			return ErrNotRideDriver
		}

		from := ride.Status
		switch from {
		case domain.RideStatusCancelled:
			return ErrRideCancelled
		case domain.RideStatusCompleted:
			result = &RideTransition{Ride: ride, Outcome: AlreadyApplied, From: from}
			return nil
		}
		if ride.HoldAmountCents <= 0 {
			return ErrNoHeldAmount
		}

		now := time.Now().UTC()
		if _, err := releaseHold(ctx, tx, ride, now); err != nil {
			return err
		}

		ride.Status = domain.RideStatusCompleted
		ride.FinalFareCents = ride.HoldAmountCents
		ride.CompletedAt = now
		ride.UpdatedAt = now
		if err := tx.Rides().Update(ctx, ride); err != nil {
			return err
		}

		if err := closeRequest(ctx, tx, ride.RequestID, domain.RequestStatusCompleted, "", now); err != nil {
			return err
		}

		result = &RideTransition{Ride: ride, Outcome: Applied, From: from}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Outcome == Applied {
		s.afterRideChange(ctx, "complete", result, "")
	}
	return result, nil
}

// CancelRequest withdraws a request that no driver has claimed yet.
func (s *LifecycleService) CancelRequest(ctx context.Context, requestID, callerID, reason string) (*RequestTransition, error) {
	if callerID == "" {
		return nil, ErrUnauthenticated
	}
	if requestID == "" {
		return nil, ErrInvalidRequestID
	}

	var result *RequestTransition
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		req, err := tx.Requests().GetByID(ctx, requestID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrRequestNotFound
			}
			return err
		}
		if req.RiderID != callerID {
			return ErrNotRequestRider
		}

		switch {
		case req.Status == domain.RequestStatusCancelled:
			result = &RequestTransition{Request: req, Outcome: AlreadyApplied}
			return nil
		case req.Status == domain.RequestStatusIncoming:
			return ErrRequestHasRide
		case req.Status != domain.RequestStatusWaiting:
			return ErrRequestNotWaiting
		}

		req.Status = domain.RequestStatusCancelled
		req.CancelReason = reason
		req.UpdatedAt = time.Now().UTC()
		if err := tx.Requests().Update(ctx, req); err != nil {
			return err
		}

		result = &RequestTransition{Request: req, Outcome: Applied}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Outcome == Applied {
		slog.InfoContext(ctx, "request cancelled", "action", "cancel_request", "request_id", requestID, "uid", callerID)
		s.notifications.NotifyStatusChange(ctx, statusChange{
			RiderID:   result.Request.RiderID,
			RequestID: result.Request.ID,
			From:      string(domain.RequestStatusWaiting),
			To:        string(domain.RequestStatusCancelled),
			Reason:    reason,
		})
	}
	return result, nil
}

func (s *LifecycleService) loadRide(ctx context.Context, tx repository.Tx, rideID string) (*domain.Ride, error) {
	ride, err := tx.Rides().GetByID(ctx, rideID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRideNotFound
		}
		return nil, err
	}
	return ride, nil
}

// afterRideChange runs the post-commit side effects of an applied transition.
func (s *LifecycleService) afterRideChange(ctx context.Context, action string, t *RideTransition, reason string) {
	ride := t.Ride

	slog.InfoContext(ctx, "ride transitioned",
		"action", action,
		"ride_id", ride.ID,
		"request_id", ride.RequestID,
		"from", t.From,
		"to", ride.Status,
		"payment_status", ride.PaymentStatus,
	)

	if s.cache != nil {
		if err := s.cache.InvalidateRide(ctx, ride.ID); err != nil {
			slog.WarnContext(ctx, "ride cache invalidation failed", "ride_id", ride.ID, "error", err)
		}
	}

	s.notifications.NotifyStatusChange(ctx, statusChange{
		RiderID:         ride.RiderID,
		RequestID:       ride.RequestID,
		ActiveRideID:    ride.ID,
		MatchedDriverID: ride.DriverID,
		From:            string(t.From),
		To:              string(ride.Status),
		Reason:          reason,
	})
}

// closeRequest moves the originating request to a terminal status if it
// still exists and has not reached one.
func closeRequest(ctx context.Context, tx repository.Tx, requestID string, to domain.RequestStatus, reason string, now time.Time) error {
	if requestID == "" {
		return nil
	}

	req, err := tx.Requests().GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}
	if !req.Status.CanTransition(to) {
		return nil
	}

	req.Status = to
	if to == domain.RequestStatusCancelled {
		req.CancelReason = reason
	}
	req.UpdatedAt = now
	return tx.Requests().Update(ctx, req)
}

func terminalError(status domain.RideStatus) error {
	switch status {
	case domain.RideStatusCompleted:
		return ErrRideCompleted
	case domain.RideStatusCancelled:
		return ErrRideCancelled
	}
	return nil
}
