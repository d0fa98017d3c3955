package service

import (
	"context"
	"errors"

	"ridehail/internal/repository"
)

// Kind is the stable error category reported to callers.
type Kind string

const (
	KindUnauthenticated    Kind = "unauthenticated"
	KindPermissionDenied   Kind = "permission_denied"
	KindNotFound           Kind = "not_found"
	KindInvalidArgument    Kind = "invalid_argument"
	KindFailedPrecondition Kind = "failed_precondition"
	KindAborted            Kind = "aborted"
	KindInternal           Kind = "internal"
)

// Error is a categorized service error. Its message is safe to show to callers.
type Error struct {
	Kind   Kind
	Reason string
}

func (e *Error) Error() string {
	return e.Reason
}

func newError(kind Kind, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

var (
	// ErrUnauthenticated is returned when an operation has no caller identity.
	ErrUnauthenticated = newError(KindUnauthenticated, "authentication required")

	// ErrInvalidRequestID is returned when request ID is empty.
	ErrInvalidRequestID = newError(KindInvalidArgument, "invalid request id")

	// ErrInvalidRideID is returned when ride ID is empty.
	ErrInvalidRideID = newError(KindInvalidArgument, "invalid ride id")

	// ErrInvalidPaymentIntentID is returned when the payment intent ID is empty.
	ErrInvalidPaymentIntentID = newError(KindInvalidArgument, "paymentIntentId required")

	// ErrInvalidAmount is returned when an amount is not a positive number of cents.
	ErrInvalidAmount = newError(KindInvalidArgument, "invalid amount")

	// ErrAmountBelowMinimum is returned when a top-up is smaller than allowed.
	ErrAmountBelowMinimum = newError(KindInvalidArgument, "amount below minimum top-up")

	// ErrInvalidPickupLocation is returned when pickup coordinates are invalid.
	ErrInvalidPickupLocation = newError(KindInvalidArgument, "invalid pickup location")

	// ErrInvalidDestinationLocation is returned when destination coordinates are invalid.
	ErrInvalidDestinationLocation = newError(KindInvalidArgument, "invalid destination location")

	// ErrInvalidSearchRadius is returned when the search radius is out of range.
	ErrInvalidSearchRadius = newError(KindInvalidArgument, "invalid search radius")

	// ErrInvalidParty is returned when a cancel names neither driver nor rider.
	ErrInvalidParty = newError(KindInvalidArgument, "by must be driver or rider")

	// ErrInvalidRideStatus is returned when a status update names a non-progress status.
	ErrInvalidRideStatus = newError(KindInvalidArgument, "invalid ride status")

	// ErrRequestNotFound is returned when a ride request does not exist.
	ErrRequestNotFound = newError(KindNotFound, "request not found")

	// ErrRideNotFound is returned when a ride does not exist.
	ErrRideNotFound = newError(KindNotFound, "ride not found")

	// ErrWalletNotFound is returned when a user has no wallet account.
	ErrWalletNotFound = newError(KindNotFound, "user not found")

	// ErrPaymentIntentNotFound is returned when the gateway does not know the intent.
	ErrPaymentIntentNotFound = newError(KindNotFound, "payment intent not found")

	// ErrNotRideParty is returned when the caller is not the named party of the ride.
	ErrNotRideParty = newError(KindPermissionDenied, "not a party to this ride")

	// ErrNotRideDriver is returned when a driver-only operation is called by someone else.
	ErrNotRideDriver = newError(KindPermissionDenied, "only the ride's driver may do this")

	// ErrNotRequestRider is returned when a rider-only operation is called by someone else.
	ErrNotRequestRider = newError(KindPermissionDenied, "not your request")

	// ErrNotYourPayment is returned when an intent belongs to another user or purpose.
	ErrNotYourPayment = newError(KindPermissionDenied, "not your payment")

	// ErrRequestNotWaiting is returned when claiming a request that left the waiting state.
	ErrRequestNotWaiting = newError(KindFailedPrecondition, "request is no longer waiting")

	// ErrRequestAlreadyMatched is returned when a request already has a driver.
	ErrRequestAlreadyMatched = newError(KindFailedPrecondition, "request already matched")

	// ErrRequestHasRide is returned when cancelling a matched request directly.
	ErrRequestHasRide = newError(KindFailedPrecondition, "request already matched; cancel the ride instead")

	// ErrOwnRequest is returned when a driver tries to claim their own request.
	ErrOwnRequest = newError(KindFailedPrecondition, "cannot claim your own request")

	// ErrRequestInvalidCoordinates is returned when a stored request has unusable coordinates.
	ErrRequestInvalidCoordinates = newError(KindFailedPrecondition, "request has invalid pickup or destination")

	// ErrDriverHasActiveRide is returned when the driver already has a non-terminal ride.
	ErrDriverHasActiveRide = newError(KindFailedPrecondition, "driver already has an active ride")

	// ErrInsufficientFunds is returned when a balance cannot cover a debit.
	ErrInsufficientFunds = newError(KindFailedPrecondition, "insufficient funds")

	// ErrRideCompleted is returned when a completed ride is asked to change.
	ErrRideCompleted = newError(KindFailedPrecondition, "ride already completed")

	// ErrRideCancelled is returned when a cancelled ride is asked to change.
	ErrRideCancelled = newError(KindFailedPrecondition, "ride already cancelled")

	// ErrNoHeldAmount is returned when completing a ride that holds no funds.
	ErrNoHeldAmount = newError(KindFailedPrecondition, "ride has no held amount")

	// ErrInvalidFare is returned when the computed fare is not a positive hold.
	ErrInvalidFare = newError(KindFailedPrecondition, "fare must be positive")

	// ErrInvalidTransition is returned when a status update skips or rewinds a step.
	ErrInvalidTransition = newError(KindFailedPrecondition, "invalid ride status transition")

	// ErrPaymentNotCompleted is returned when an intent has not succeeded yet.
	ErrPaymentNotCompleted = newError(KindFailedPrecondition, "payment not completed")

	// ErrGatewayUnavailable is returned when the payment gateway call fails.
	ErrGatewayUnavailable = newError(KindAborted, "payment gateway unavailable")
)

// KindOf returns the category of err. Store conflicts that exhausted their
// retries are reported as aborted; anything unrecognised is internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	switch {
	case errors.Is(err, repository.ErrTxAborted),
		errors.Is(err, repository.ErrConflict),
		errors.Is(err, context.DeadlineExceeded):
		return KindAborted
	case errors.Is(err, repository.ErrNotFound):
		return KindNotFound
	}
	return KindInternal
}
