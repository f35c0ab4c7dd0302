package core

import "sort"

const (
	creditPointsPerMonth   = 8
	consistencyBonus       = 10
	consistencyBonusMonths = 3
	maxCreditImpact        = 100
)

// CreditImpact scores the perceived credit-building benefit of the deposits, 0 to 100.
func CreditImpact(deposits map[int]Deposit) int {
	months := len(deposits)
	score := months * creditPointsPerMonth
	if months >= consistencyBonusMonths {
		score += consistencyBonus
	}
	if score > maxCreditImpact {
		return maxCreditImpact
	}
	return score
}

// CompletionRate is the percentage of the 12 month-slots that hold a deposit.
func CompletionRate(deposits map[int]Deposit) float64 {
	return float64(len(deposits)) / VaultMonths * 100
}

// ConsistencyStreak returns the longest run of consecutive filled month-slots.
func ConsistencyStreak(deposits map[int]Deposit) int {
	slots := make([]int, 0, len(deposits))
	for slot := range deposits {
		slots = append(slots, slot)
	}
	sort.Ints(slots)

	best, run := 0, 0
	for i, slot := range slots {
		if i == 0 || slot == slots[i-1]+1 {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
	}
	return best
}
