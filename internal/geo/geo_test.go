package geo

import (
	"math"
	"testing"
)

func TestHaversineKm_SamePointIsZero(t *testing.T) {
	p := Point{Lat: 3.139, Lng: 101.6869}
	if d := HaversineKm(p, p); d != 0 {
		t.Fatalf("expected 0, got %f", d)
	}
}

func TestHaversineKm_KnownDistance(t *testing.T) {
	// Kuala Lumpur city centre to KLIA is roughly 45 km in a straight line.
	klcc := Point{Lat: 3.1579, Lng: 101.7116}
	klia := Point{Lat: 2.7456, Lng: 101.7072}

	d := HaversineKm(klcc, klia)
	if d < 44 || d > 47 {
		t.Fatalf("expected ~45.8 km, got %f", d)
	}
}

func TestHaversineKm_Symmetric(t *testing.T) {
	a := Point{Lat: 25.033, Lng: 121.565}
	b := Point{Lat: 25.0478, Lng: 121.5318}
	if math.Abs(HaversineKm(a, b)-HaversineKm(b, a)) > 1e-12 {
		t.Fatal("distance should be symmetric")
	}
}

func TestPoint_Valid(t *testing.T) {
	cases := []struct {
		name string
		p    Point
		want bool
	}{
		{"origin", Point{}, true},
		{"max", Point{Lat: 90, Lng: 180}, true},
		{"lat out of range", Point{Lat: 90.1, Lng: 0}, false},
		{"lng out of range", Point{Lat: 0, Lng: -180.5}, false},
		{"nan", Point{Lat: math.NaN(), Lng: 0}, false},
	}
	for _, tc := range cases {
		if got := tc.p.Valid(); got != tc.want {
			t.Errorf("%s: Valid() = %v, want %v", tc.name, got, tc.want)
		}
	}
}
