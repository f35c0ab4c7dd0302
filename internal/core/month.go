package core

import "time"

// ResolveCurrentSlot maps now onto a 0-11 month-slot relative to the profile's start date.
//
// The first call on a fresh profile anchors the start date to now and returns 0;
// the caller is responsible for persisting that change. Later calls count whole
// calendar months (year-month difference, ignoring the day of month) and clamp
// the result to [0, 11].
func ResolveCurrentSlot(p *VaultProfile, now time.Time) int {
	if p.StartDate == nil {
		start := now
		p.StartDate = &start
		return 0
	}
	return SlotBetween(*p.StartDate, now)
}

// SlotBetween is the clamped calendar-month difference between start and now.
func SlotBetween(start, now time.Time) int {
	diff := MonthsBetween(start, now)
	if diff < 0 {
		return 0
	}
	if diff > LastSlot {
		return LastSlot
	}
	return diff
}

// MonthsBetween returns the unclamped year-month difference between two instants,
// both taken in start's location.
func MonthsBetween(start, now time.Time) int {
	now = now.In(start.Location())
	return (now.Year()-start.Year())*12 + int(now.Month()) - int(start.Month())
}

// SlotMonth returns the calendar month a slot corresponds to, counted from start.
func SlotMonth(start time.Time, slot int) time.Month {
	m := (int(start.Month()) - 1 + slot) % 12
	return time.Month(m + 1)
}
