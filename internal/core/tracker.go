package core

import "time"

// CardStatus is the state of one month-slot on the tracker board.
type CardStatus string

const (
	StatusPaid    CardStatus = "paid"
	StatusMissed  CardStatus = "missed"
	StatusCurrent CardStatus = "current"
	StatusPending CardStatus = "pending"
)

// MonthCard describes one of the 12 slots of the vault.
type MonthCard struct {
	Slot        int
	Month       time.Month
	Status      CardStatus
	Amount      Money
	Depositable bool
}

// CurrentSlot is the read-only counterpart of ResolveCurrentSlot: a profile without
// a start date is reported at slot 0 and left as is.
func CurrentSlot(p VaultProfile, now time.Time) int {
	if p.StartDate == nil {
		return 0
	}
	return SlotBetween(*p.StartDate, now)
}

// Board lays out the 12 month cards. Month names count from the start date, or
// from now when the vault has not started.
func Board(p VaultProfile, now time.Time) []MonthCard {
	start := now
	if p.StartDate != nil {
		start = *p.StartDate
	}
	current := CurrentSlot(p, now)

	cards := make([]MonthCard, VaultMonths)
	for slot := range cards {
		card := MonthCard{
			Slot:   slot,
			Month:  SlotMonth(start, slot),
			Status: StatusPending,
		}
		d, paid := p.Deposits[slot]
		switch {
		case paid:
			card.Status = StatusPaid
			card.Amount = d.Amount
		case slot < current:
			card.Status = StatusMissed
		case slot == current:
			card.Status = StatusCurrent
			card.Depositable = true
		}
		cards[slot] = card
	}
	return cards
}
