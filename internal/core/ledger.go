package core

import "time"

// RecordDeposit validates amount and files it under the current month-slot.
//
// Validation runs before anything is written to the ledger, so a failed call
// leaves the deposits and the total untouched. Resolving the slot may anchor the
// start date of a fresh profile; that is the only side effect of a rejected
// SlotAlreadyFilled call and never happens for rejected amounts.
func RecordDeposit(p *VaultProfile, amount Money, now time.Time) (Deposit, error) {
	if err := amount.ValidateDeposit(); err != nil {
		return Deposit{}, err
	}

	slot := ResolveCurrentSlot(p, now)
	if p.HasDeposit(slot) {
		return Deposit{}, ErrSlotAlreadyFilled
	}

	d := Deposit{
		Amount:    amount,
		Timestamp: now,
		MonthSlot: slot,
	}
	if p.Deposits == nil {
		p.Deposits = make(map[int]Deposit, VaultMonths)
	}
	p.Deposits[slot] = d
	p.TotalDeposited = sumDeposits(p.Deposits)
	return d, nil
}
