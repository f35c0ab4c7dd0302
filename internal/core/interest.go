package core

import "time"

const dayDuration = 24 * time.Hour

// ElapsedMonths converts the time since from into months using 30-day months.
// It never goes negative, even when now precedes from.
func ElapsedMonths(from, now time.Time) float64 {
	days := float64(now.Sub(from)) / float64(dayDuration)
	if days <= 0 {
		return 0
	}
	return days / 30
}

// AccruedInterest is the simple, non-compounding interest earned so far by every deposit.
func AccruedInterest(deposits map[int]Deposit, now time.Time) float64 {
	var total float64
	for _, d := range deposits {
		total += d.Amount.Dollars() * MonthlyRate * ElapsedMonths(d.Timestamp, now)
	}
	return total
}
