package core

import (
	"sort"
	"time"
)

const (
	ScenarioWithdrawNow    = "Withdraw Now"
	ScenarioWaitToEligible = "Wait Until Eligible"
)

type (
	// Simulation is the projected outcome of withdrawing after Months months.
	Simulation struct {
		Months       int
		Deposited    float64
		Interest     float64
		Penalty      float64
		InterestKept float64
		Total        float64
		IsEarly      bool
	}

	// Scenario is one named withdrawal strategy.
	Scenario struct {
		Name           string
		Months         int
		ProjectedTotal float64
		AvailableAt    time.Time
	}
)

// ByTimestamp returns the deposits ordered by creation time, oldest first.
// Equal timestamps fall back to slot order so the result never depends on map iteration.
func ByTimestamp(deposits map[int]Deposit) []Deposit {
	out := make([]Deposit, 0, len(deposits))
	for _, d := range deposits {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].MonthSlot < out[j].MonthSlot
	})
	return out
}

// Simulate projects withdrawing after months months using the first months deposits by date.
//
// Each considered deposit earns amount × monthly rate × (months − position), so
// earlier deposits accrue more. This horizon-based figure is intentionally distinct
// from AccruedInterest, which uses real elapsed time. Withdrawing before month 12
// costs 10% of principal and forfeits all interest.
func Simulate(deposits map[int]Deposit, months int) Simulation {
	if months < 0 {
		months = 0
	}
	if months > VaultMonths {
		months = VaultMonths
	}

	ordered := ByTimestamp(deposits)
	if len(ordered) > months {
		ordered = ordered[:months]
	}

	sim := Simulation{Months: months, IsEarly: months < VaultMonths}
	for i, d := range ordered {
		amount := d.Amount.Dollars()
		sim.Deposited += amount
		sim.Interest += amount * MonthlyRate * float64(months-i)
	}

	if sim.IsEarly {
		sim.Penalty = sim.Deposited * EarlyWithdrawalPenalty
	} else {
		sim.InterestKept = sim.Interest
	}
	sim.Total = sim.Deposited + sim.InterestKept - sim.Penalty
	return sim
}

// AverageDeposit is the historical mean deposit, treating an empty ledger as one month.
func AverageDeposit(p VaultProfile) float64 {
	n := p.FilledSlots()
	if n < 1 {
		n = 1
	}
	return p.TotalDeposited.Dollars() / float64(n)
}

// CompareStrategies lists the withdrawal options open to the profile at now.
//
// "Withdraw Now" applies the simulation rules to the filled months. While the
// vault is incomplete, "Wait Until Eligible" extrapolates the remaining months at
// the historical average deposit and keeps the full-term interest.
func CompareStrategies(p VaultProfile, now time.Time) []Scenario {
	filled := p.FilledSlots()
	current := Simulate(p.Deposits, filled)

	scenarios := []Scenario{{
		Name:           ScenarioWithdrawNow,
		Months:         filled,
		ProjectedTotal: current.Total,
		AvailableAt:    now,
	}}

	if filled < VaultMonths {
		remaining := VaultMonths - filled
		eligible := Simulate(p.Deposits, VaultMonths)
		projected := current.Deposited + AverageDeposit(p)*float64(remaining)
		scenarios = append(scenarios, Scenario{
			Name:           ScenarioWaitToEligible,
			Months:         VaultMonths,
			ProjectedTotal: projected + eligible.Interest,
			AvailableAt:    EligibleAt(p, now),
		})
	}
	return scenarios
}

// EligibleAt is when the 12-month term ends: start date plus 12 months, or now plus 12
// months for a vault that has not started yet.
func EligibleAt(p VaultProfile, now time.Time) time.Time {
	start := now
	if p.StartDate != nil {
		start = *p.StartDate
	}
	return start.AddDate(0, VaultMonths, 0)
}
