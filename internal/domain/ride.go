package domain

import "time"

// RideStatus represents the lifecycle state of a ride.
type RideStatus string

const (
	RideStatusIncoming           RideStatus = "incoming"
	RideStatusArrivedPickup      RideStatus = "arrived_pickup"
	RideStatusOngoing            RideStatus = "ongoing"
	RideStatusArrivedDestination RideStatus = "arrived_destination"
	RideStatusCompleted          RideStatus = "completed"
	RideStatusCancelled          RideStatus = "cancelled"
)

// ActiveRideStatuses are the non-terminal ride states. A driver may hold at
// most one ride in any of them.
var ActiveRideStatuses = []RideStatus{
	RideStatusIncoming,
	RideStatusArrivedPickup,
	RideStatusOngoing,
	RideStatusArrivedDestination,
}

// rideProgression is the linear happy path; completed is reached only via Complete.
var rideProgression = map[RideStatus]RideStatus{
	RideStatusIncoming:      RideStatusArrivedPickup,
	RideStatusArrivedPickup: RideStatusOngoing,
	RideStatusOngoing:       RideStatusArrivedDestination,
}

// Next returns the following progress state, if any.
func (s RideStatus) Next() (RideStatus, bool) {
	next, ok := rideProgression[s]
	return next, ok
}

// IsTerminal reports whether no further transitions are accepted.
func (s RideStatus) IsTerminal() bool {
	return s == RideStatusCompleted || s == RideStatusCancelled
}

// IsProgressStatus reports whether s can be reported through a status update.
func (s RideStatus) IsProgressStatus() bool {
	switch s {
	case RideStatusArrivedPickup, RideStatusOngoing, RideStatusArrivedDestination:
		return true
	}
	return false
}

// PaymentStatus represents the escrow state of a ride's held funds.
type PaymentStatus string

const (
	PaymentStatusHeld     PaymentStatus = "held"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Party identifies which side of a ride performed an action.
type Party string

const (
	PartyDriver Party = "driver"
	PartyRider  Party = "rider"
)

// Valid reports whether p is a known party.
func (p Party) Valid() bool {
	return p == PartyDriver || p == PartyRider
}

// Ride is a matched request moving through the ride state machine.
type Ride struct {
	ID              string
	RequestID       string
	DriverID        string
	RiderID         string
	Status          RideStatus
	PaymentStatus   PaymentStatus
	HoldAmountCents int64 // fixed at creation
	FinalFareCents  int64
	DistanceKm      float64
	CancelledBy     Party
	CancelReason    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	CompletedAt     time.Time
	CancelledAt     time.Time
}

// PartyOf returns the role uid plays in the ride.
func (r *Ride) PartyOf(uid string) (Party, bool) {
	switch uid {
	case "":
		return "", false
	case r.DriverID:
		return PartyDriver, true
	case r.RiderID:
		return PartyRider, true
	}
	return "", false
}
