package core

import (
	"math"
	"testing"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestElapsedMonths(t *testing.T) {
	if got := ElapsedMonths(t0, t0.AddDate(0, 0, 30)); !approx(got, 1) {
		t.Fatalf("30 days should be one month, got %v", got)
	}
	if got := ElapsedMonths(t0, t0.AddDate(0, 0, 45)); !approx(got, 1.5) {
		t.Fatalf("45 days should be 1.5 months, got %v", got)
	}
	if got := ElapsedMonths(t0, t0.AddDate(0, 0, -5)); got != 0 {
		t.Fatalf("clock skew should floor at 0, got %v", got)
	}
}

func TestAccruedInterest(t *testing.T) {
	if got := AccruedInterest(nil, t0); got != 0 {
		t.Fatalf("no deposits should earn nothing, got %v", got)
	}

	// $100 at t0 and $50 at t0+1 month, observed 60 days after t0.
	p := profileWith(t, map[int]int64{0: 10000, 1: 5000})
	now := t0.AddDate(0, 0, 60)
	second := p.Deposits[1].Timestamp
	want := 100*MonthlyRate*2 + 50*MonthlyRate*ElapsedMonths(second, now)
	if got := AccruedInterest(p.Deposits, now); !approx(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestAccruedInterestNeverNegative(t *testing.T) {
	p := profileWith(t, map[int]int64{0: 10000, 5: 2500})
	if got := AccruedInterest(p.Deposits, t0.AddDate(-1, 0, 0)); got != 0 {
		t.Fatalf("interest before deposits should be 0, got %v", got)
	}
}
