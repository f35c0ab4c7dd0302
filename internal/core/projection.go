package core

import "time"

// Growth is the straight-line projection of the vault to the end of its term.
type Growth struct {
	ProjectedTotal    float64
	ProjectedInterest float64
}

// Snapshot gathers every derived value a dashboard needs at one instant.
type Snapshot struct {
	StartDate       *time.Time
	TotalDeposited  Money
	AccruedInterest float64
	CreditImpact    int
	CompletionRate  float64
	Streak          int
	MonthsCompleted int
	MonthsRemaining int
	Eligible        bool
	CurrentSlot     int
	LastDeposit     *Deposit
	Growth          Growth
	Board           []MonthCard
	Strategies      []Scenario
}

// ProjectedGrowth extends the ledger over the remaining months at the average deposit.
// Each future month m (0-based) adds avg × rate × (remaining − m) on top of the
// interest accrued so far.
func ProjectedGrowth(p VaultProfile, now time.Time) Growth {
	remaining := VaultMonths - p.FilledSlots()
	if remaining < 0 {
		remaining = 0
	}
	avg := AverageDeposit(p)

	interest := AccruedInterest(p.Deposits, now)
	for m := 0; m < remaining; m++ {
		interest += avg * MonthlyRate * float64(remaining-m)
	}
	return Growth{
		ProjectedTotal:    p.TotalDeposited.Dollars() + avg*float64(remaining),
		ProjectedInterest: interest,
	}
}

// LastDeposit returns the most recently recorded deposit, or nil for an empty ledger.
func LastDeposit(deposits map[int]Deposit) *Deposit {
	ordered := ByTimestamp(deposits)
	if len(ordered) == 0 {
		return nil
	}
	last := ordered[len(ordered)-1]
	return &last
}

// Snap computes the full dashboard snapshot without mutating the profile.
func Snap(p VaultProfile, now time.Time) Snapshot {
	completed := p.FilledSlots()
	remaining := VaultMonths - completed
	if remaining < 0 {
		remaining = 0
	}
	return Snapshot{
		StartDate:       p.StartDate,
		TotalDeposited:  p.TotalDeposited,
		AccruedInterest: AccruedInterest(p.Deposits, now),
		CreditImpact:    CreditImpact(p.Deposits),
		CompletionRate:  CompletionRate(p.Deposits),
		Streak:          ConsistencyStreak(p.Deposits),
		MonthsCompleted: completed,
		MonthsRemaining: remaining,
		Eligible:        remaining == 0,
		CurrentSlot:     CurrentSlot(p, now),
		LastDeposit:     LastDeposit(p.Deposits),
		Growth:          ProjectedGrowth(p, now),
		Board:           Board(p, now),
		Strategies:      CompareStrategies(p, now),
	}
}
