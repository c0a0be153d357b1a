package model

import (
	"testing"
	"time"
)

func TestDistanceTo(t *testing.T) {
	tests := []struct {
		name string
		a, b StarSystem
		want float64
	}{
		{
			name: "same system",
			a:    StarSystem{X: 5, Y: 5, Z: 5},
			b:    StarSystem{X: 5, Y: 5, Z: 5},
			want: 0,
		},
		{
			name: "axis aligned",
			a:    StarSystem{X: 0, Y: 0, Z: 0},
			b:    StarSystem{X: 10, Y: 0, Z: 0},
			want: 10,
		},
		{
			name: "pythagorean",
			a:    StarSystem{X: 0, Y: 0, Z: 0},
			b:    StarSystem{X: 3, Y: 4, Z: 12},
			want: 13,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.DistanceTo(&tt.b); got != tt.want {
				t.Errorf("DistanceTo() = %v, want %v", got, tt.want)
			}
			// Distance is symmetric
			if got := tt.b.DistanceTo(&tt.a); got != tt.want {
				t.Errorf("DistanceTo() reversed = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestListingAge(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	l := &Listing{CollectedAt: now.Add(-3 * time.Hour).Unix()}

	if got := l.Age(now); got != 3*time.Hour {
		t.Errorf("Age() = %v, want %v", got, 3*time.Hour)
	}
	if got := l.CollectedTime(); !got.Equal(now.Add(-3 * time.Hour)) {
		t.Errorf("CollectedTime() = %v, want %v", got, now.Add(-3*time.Hour))
	}
}

func TestJumpDistance(t *testing.T) {
	from := &StarSystem{X: 0, Y: 0, Z: 0}
	to := &StarSystem{X: 0, Y: 0, Z: 25}

	leg := RouteLeg{
		Buy:  &Listing{System: from},
		Sell: &Listing{System: to},
	}
	if got := leg.JumpDistance(); got != 25 {
		t.Errorf("JumpDistance() = %v, want %v", got, 25.0)
	}
}

func TestTripTotalProfit(t *testing.T) {
	trip := Trip{Legs: []RouteLeg{
		{Profit: 100},
		{Profit: 250},
		{Profit: 75},
	}}
	if got := trip.TotalProfit(); got != 425 {
		t.Errorf("TotalProfit() = %v, want %v", got, 425.0)
	}

	var empty Trip
	if got := empty.TotalProfit(); got != 0 {
		t.Errorf("TotalProfit() of empty trip = %v, want 0", got)
	}
}
