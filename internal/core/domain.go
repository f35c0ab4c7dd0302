package core

import (
	"errors"
	"time"
)

const (
	// VaultMonths is the length of the savings commitment in month-slots.
	VaultMonths = 12
	// LastSlot is the highest month-slot index a deposit can be filed under.
	LastSlot = VaultMonths - 1

	MinDepositCents int64 = 2500
	MaxDepositCents int64 = 100000

	// AnnualRate is the fixed nominal yearly interest rate of the vault.
	AnnualRate  = 0.045
	MonthlyRate = AnnualRate / 12

	// EarlyWithdrawalPenalty is the share of principal lost when withdrawing before month 12.
	EarlyWithdrawalPenalty = 0.10
)

type (
	// Deposit is one monthly contribution. It is never mutated once recorded.
	Deposit struct {
		Amount    Money
		Timestamp time.Time
		MonthSlot int
	}

	// VaultProfile is the root aggregate owned by one user.
	VaultProfile struct {
		StartDate      *time.Time
		TotalDeposited Money
		Deposits       map[int]Deposit
	}

	// Clock abstracts wall-clock time so every time-dependent computation is testable.
	Clock interface {
		Now() time.Time
	}

	SystemClock struct{}

	// FixedClock always reports the same instant.
	FixedClock struct {
		T time.Time
	}
)

var (
	ErrBelowMinimum      = errors.New("deposit below minimum")
	ErrAboveMaximum      = errors.New("deposit above maximum")
	ErrSlotAlreadyFilled = errors.New("month slot already filled")
	ErrPersistence       = errors.New("persistence failure")
	ErrInvalidSlot       = errors.New("invalid month slot")
)

func (SystemClock) Now() time.Time { return time.Now() }

func (c FixedClock) Now() time.Time { return c.T }

// NewProfile returns the empty default profile: no deposits, no start date.
func NewProfile() VaultProfile {
	return VaultProfile{Deposits: make(map[int]Deposit)}
}

// FilledSlots returns the number of month-slots holding a deposit.
func (p VaultProfile) FilledSlots() int {
	return len(p.Deposits)
}

// HasDeposit reports whether slot already holds a deposit.
func (p VaultProfile) HasDeposit(slot int) bool {
	_, ok := p.Deposits[slot]
	return ok
}

// Clone returns a deep copy so callers can mutate it without touching the original.
func (p VaultProfile) Clone() VaultProfile {
	out := VaultProfile{
		TotalDeposited: p.TotalDeposited,
		Deposits:       make(map[int]Deposit, len(p.Deposits)),
	}
	if p.StartDate != nil {
		sd := *p.StartDate
		out.StartDate = &sd
	}
	for slot, d := range p.Deposits {
		out.Deposits[slot] = d
	}
	return out
}

// DepositList returns the deposits ordered by month-slot.
func (p VaultProfile) DepositList() []Deposit {
	out := make([]Deposit, 0, len(p.Deposits))
	for slot := 0; slot < VaultMonths; slot++ {
		if d, ok := p.Deposits[slot]; ok {
			out = append(out, d)
		}
	}
	return out
}

// sumDeposits derives the total from the ledger itself.
func sumDeposits(deposits map[int]Deposit) Money {
	var total int64
	for _, d := range deposits {
		total += d.Amount.Cents
	}
	return Money{Cents: total}
}

// Validate checks the structural invariants of a profile, typically after decoding it.
func (p VaultProfile) Validate() error {
	if len(p.Deposits) > VaultMonths {
		return errors.New("profile holds more than 12 deposits")
	}
	for slot, d := range p.Deposits {
		if slot < 0 || slot > LastSlot {
			return ErrInvalidSlot
		}
		if d.MonthSlot != slot {
			return errors.New("deposit month slot does not match its key")
		}
		if err := d.Amount.Validate(); err != nil {
			return err
		}
		if d.Timestamp.IsZero() {
			return errors.New("deposit timestamp cannot be zero")
		}
	}
	if len(p.Deposits) > 0 && p.StartDate == nil {
		return errors.New("profile with deposits must have a start date")
	}
	if p.TotalDeposited != sumDeposits(p.Deposits) {
		return errors.New("total deposited does not match deposits")
	}
	return nil
}
