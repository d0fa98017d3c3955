package service

import (
	"context"
	"time"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

// Outcome reports whether a guarded transition changed anything.
type Outcome int

const (
	// Applied means the transition ran and its effects were written.
	Applied Outcome = iota + 1

	// AlreadyApplied means the target state was already reached; nothing was written.
	AlreadyApplied
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case AlreadyApplied:
		return "already_applied"
	}
	return "unknown"
}

// refundHold returns the ride's held funds to the rider. It must run in the
// same transaction that persists the ride, which is the compare-and-swap on
// PaymentStatus.
func refundHold(ctx context.Context, tx repository.Tx, ride *domain.Ride, now time.Time) (Outcome, error) {
	if ride.PaymentStatus != domain.PaymentStatusHeld {
		return AlreadyApplied, nil
	}

	if ride.HoldAmountCents > 0 {
		_, err := postEntry(ctx, tx, posting{
			UID:    ride.RiderID,
			Type:   domain.LedgerEntryRideRefund,
			Amount: ride.HoldAmountCents,
			Ref:    rideReference(ride),
		}, now)
		if err != nil {
			return 0, err
		}
	}

	ride.PaymentStatus = domain.PaymentStatusRefunded
	return Applied, nil
}

// releaseHold pays the ride's held funds out to the driver, opening the
// driver's wallet if needed.
func releaseHold(ctx context.Context, tx repository.Tx, ride *domain.Ride, now time.Time) (Outcome, error) {
	if ride.PaymentStatus != domain.PaymentStatusHeld {
		return AlreadyApplied, nil
	}

	if _, _, err := openAccount(ctx, tx, ride.DriverID, now); err != nil {
		return 0, err
	}

	_, err := postEntry(ctx, tx, posting{
		UID:    ride.DriverID,
		Type:   domain.LedgerEntryRideEarning,
		Amount: ride.HoldAmountCents,
		Ref:    rideReference(ride),
	}, now)
	if err != nil {
		return 0, err
	}

	ride.PaymentStatus = domain.PaymentStatusPaid
	return Applied, nil
}

func rideReference(ride *domain.Ride) domain.LedgerReference {
	return domain.LedgerReference{
		RideID:    ride.ID,
		RequestID: ride.RequestID,
		DriverID:  ride.DriverID,
	}
}
