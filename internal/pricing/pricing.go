// Package pricing computes server-side ride fares in minor currency units.
package pricing

import (
	"errors"
	"math"
)

// Rates holds the fare parameters, all in cents except RatePerKm (cents per km).
type Rates struct {
	BaseFare  int64
	RatePerKm int64
	MinFare   int64
	MaxFare   int64
}

// DefaultRates are used when no fare configuration is supplied.
var DefaultRates = Rates{
	BaseFare:  300,
	RatePerKm: 150,
	MinFare:   500,
	MaxFare:   20000,
}

// Calculator maps a straight-line distance to a bounded fare.
type Calculator struct {
	rates Rates
}

// ErrInvalidRates is returned for negative rates or a non-positive minimum fare.
var ErrInvalidRates = errors.New("pricing: rates must be non-negative with a positive minimum fare")

// Validate reports whether every fare the rates can produce is positive.
func (r Rates) Validate() error {
	if r.BaseFare < 0 || r.RatePerKm < 0 || r.MinFare <= 0 || r.MaxFare < 0 {
		return ErrInvalidRates
	}
	return nil
}

// NewCalculator creates a Calculator. A MaxFare below MinFare is raised to MinFare.
func NewCalculator(rates Rates) (*Calculator, error) {
	if err := rates.Validate(); err != nil {
		return nil, err
	}
	if rates.MaxFare < rates.MinFare {
		rates.MaxFare = rates.MinFare
	}
	return &Calculator{rates: rates}, nil
}

// NewDefaultCalculator creates a Calculator with DefaultRates.
func NewDefaultCalculator() *Calculator {
	return &Calculator{rates: DefaultRates}
}

// Rates returns the rates the calculator was built with.
func (c *Calculator) Rates() Rates {
	return c.rates
}

// Fare returns clamp(round(base + rate*km), min, max) in cents.
// Negative or NaN distances are priced as zero distance.
func (c *Calculator) Fare(distanceKm float64) int64 {
	if math.IsNaN(distanceKm) || distanceKm < 0 {
		distanceKm = 0
	}
	raw := float64(c.rates.BaseFare) + float64(c.rates.RatePerKm)*distanceKm
	if math.IsInf(raw, 1) || raw > float64(c.rates.MaxFare) {
		return c.rates.MaxFare
	}
	fare := int64(math.Round(raw))
	if fare < c.rates.MinFare {
		return c.rates.MinFare
	}
	if fare > c.rates.MaxFare {
		return c.rates.MaxFare
	}
	return fare
}
