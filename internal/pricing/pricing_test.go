package pricing

import (
	"errors"
	"math"
	"testing"
)

func mustCalculator(t *testing.T, rates Rates) *Calculator {
	t.Helper()
	c, err := NewCalculator(rates)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return c
}

func TestFare_ShortTripUsesMinimum(t *testing.T) {
	c := NewDefaultCalculator()
	// 300 + 150*0.5 = 375, below the 500 minimum.
	if got := c.Fare(0.5); got != 500 {
		t.Fatalf("expected 500, got %d", got)
	}
}

func TestFare_LinearBetweenBounds(t *testing.T) {
	c := NewDefaultCalculator()
	// 300 + 150*10 = 1800
	if got := c.Fare(10); got != 1800 {
		t.Fatalf("expected 1800, got %d", got)
	}
}

func TestFare_RoundsToNearestCent(t *testing.T) {
	c := mustCalculator(t, Rates{BaseFare: 0, RatePerKm: 100, MinFare: 1, MaxFare: 100000})
	if got := c.Fare(1.234); got != 123 {
		t.Fatalf("expected 123, got %d", got)
	}
	if got := c.Fare(1.236); got != 124 {
		t.Fatalf("expected 124, got %d", got)
	}
}

func TestFare_CappedAtMaximum(t *testing.T) {
	c := NewDefaultCalculator()
	if got := c.Fare(10000); got != DefaultRates.MaxFare {
		t.Fatalf("expected %d, got %d", DefaultRates.MaxFare, got)
	}
	if got := c.Fare(math.Inf(1)); got != DefaultRates.MaxFare {
		t.Fatalf("expected %d for +Inf, got %d", DefaultRates.MaxFare, got)
	}
}

func TestFare_InvalidDistanceTreatedAsZero(t *testing.T) {
	c := NewDefaultCalculator()
	if got := c.Fare(-3); got != 500 {
		t.Fatalf("expected 500, got %d", got)
	}
	if got := c.Fare(math.NaN()); got != 500 {
		t.Fatalf("expected 500, got %d", got)
	}
}

func TestFare_Deterministic(t *testing.T) {
	c := NewDefaultCalculator()
	first := c.Fare(7.31)
	for i := 0; i < 100; i++ {
		if got := c.Fare(7.31); got != first {
			t.Fatalf("fare changed between calls: %d != %d", got, first)
		}
	}
}

func TestNewCalculator_MaxBelowMinIsRaised(t *testing.T) {
	c := mustCalculator(t, Rates{BaseFare: 100, RatePerKm: 100, MinFare: 800, MaxFare: 200})
	if got := c.Fare(50); got != 800 {
		t.Fatalf("expected 800, got %d", got)
	}
}

func TestNewCalculator_RejectsRatesThatYieldNonPositiveFares(t *testing.T) {
	testCases := []struct {
		name  string
		rates Rates
	}{
		{name: "all negative", rates: Rates{BaseFare: -300, RatePerKm: 150, MinFare: -300, MaxFare: -300}},
		{name: "negative base", rates: Rates{BaseFare: -1, RatePerKm: 150, MinFare: 500, MaxFare: 20000}},
		{name: "negative rate", rates: Rates{BaseFare: 300, RatePerKm: -150, MinFare: 500, MaxFare: 20000}},
		{name: "zero minimum", rates: Rates{BaseFare: 300, RatePerKm: 150, MinFare: 0, MaxFare: 20000}},
		{name: "negative maximum", rates: Rates{BaseFare: 300, RatePerKm: 150, MinFare: 500, MaxFare: -1}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := NewCalculator(tc.rates)
			if !errors.Is(err, ErrInvalidRates) {
				t.Fatalf("expected ErrInvalidRates, got %v", err)
			}
			if c != nil {
				t.Error("expected no calculator")
			}
		})
	}

	c := mustCalculator(t, DefaultRates)
	if got := c.Fare(0); got <= 0 {
		t.Errorf("expected positive fare, got %d", got)
	}
}
