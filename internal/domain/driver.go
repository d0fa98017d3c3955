package domain

import "ridehail/internal/geo"

// DriverPresence is a driver's entry in the externally published presence feed.
type DriverPresence struct {
	DriverID    string
	IsOnline    bool
	IsAvailable bool
	Location    geo.Point
	DistanceKm  float64
}
