package domain

import (
	"time"

	"ridehail/internal/geo"
)

// RequestStatus represents the current status of a ride request.
type RequestStatus string

const (
	RequestStatusWaiting   RequestStatus = "waiting"
	RequestStatusIncoming  RequestStatus = "incoming"
	RequestStatusCompleted RequestStatus = "completed"
	RequestStatusCancelled RequestStatus = "cancelled"
)

// DefaultSearchRadiusKm applies when a request carries no search radius.
const DefaultSearchRadiusKm = 5.0

var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestStatusWaiting:  {RequestStatusIncoming, RequestStatusCancelled},
	RequestStatusIncoming: {RequestStatusCompleted, RequestStatusCancelled},
}

// CanTransition reports whether a request may move from s to next.
func (s RequestStatus) CanTransition(next RequestStatus) bool {
	for _, allowed := range requestTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are accepted.
func (s RequestStatus) IsTerminal() bool {
	return s == RequestStatusCompleted || s == RequestStatusCancelled
}

// RideRequest is a rider's request waiting to be claimed by a driver.
type RideRequest struct {
	ID                 string
	RiderID            string
	Status             RequestStatus
	Pickup             geo.Point
	Destination        geo.Point
	PickupAddress      string
	DestinationAddress string
	SearchRadiusKm     float64
	MatchedDriverID    string // set once, together with ActiveRideID
	ActiveRideID       string
	CancelReason       string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// RadiusKm returns the search radius, falling back to DefaultSearchRadiusKm.
func (r *RideRequest) RadiusKm() float64 {
	if r.SearchRadiusKm <= 0 {
		return DefaultSearchRadiusKm
	}
	return r.SearchRadiusKm
}

// IsMatched reports whether a driver has already claimed the request.
func (r *RideRequest) IsMatched() bool {
	return r.MatchedDriverID != "" || r.ActiveRideID != ""
}
