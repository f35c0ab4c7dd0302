package core

import (
	"testing"
	"time"
)

var t0 = time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

func profileWith(t *testing.T, slots map[int]int64) VaultProfile {
	t.Helper()
	p := NewProfile()
	start := t0
	p.StartDate = &start
	for slot, cents := range slots {
		p.Deposits[slot] = Deposit{
			Amount:    Money{Cents: cents},
			Timestamp: t0.AddDate(0, slot, 0),
			MonthSlot: slot,
		}
	}
	p.TotalDeposited = sumDeposits(p.Deposits)
	return p
}

func TestNewProfileIsEmpty(t *testing.T) {
	p := NewProfile()
	if p.StartDate != nil || p.FilledSlots() != 0 || p.TotalDeposited.Cents != 0 {
		t.Fatalf("expected empty default profile, got %+v", p)
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("empty profile should validate: %v", err)
	}
}

func TestCloneIsDeep(t *testing.T) {
	p := profileWith(t, map[int]int64{0: 5000})
	c := p.Clone()
	c.Deposits[1] = Deposit{Amount: Money{Cents: 2500}, Timestamp: t0, MonthSlot: 1}
	*c.StartDate = t0.AddDate(1, 0, 0)

	if p.FilledSlots() != 1 {
		t.Fatalf("clone mutation leaked into deposits: %d", p.FilledSlots())
	}
	if !p.StartDate.Equal(t0) {
		t.Fatalf("clone mutation leaked into start date: %v", p.StartDate)
	}
}

func TestDepositListOrderedBySlot(t *testing.T) {
	p := profileWith(t, map[int]int64{4: 2500, 0: 3000, 2: 4000})
	list := p.DepositList()
	want := []int{0, 2, 4}
	if len(list) != len(want) {
		t.Fatalf("expected %d deposits, got %d", len(want), len(list))
	}
	for i, d := range list {
		if d.MonthSlot != want[i] {
			t.Fatalf("position %d: expected slot %d, got %d", i, want[i], d.MonthSlot)
		}
	}
}

func TestProfileValidate(t *testing.T) {
	good := profileWith(t, map[int]int64{0: 2500, 1: 100000})
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	drift := good.Clone()
	drift.TotalDeposited = Money{Cents: 1}

	mismatch := good.Clone()
	d := mismatch.Deposits[1]
	d.MonthSlot = 3
	mismatch.Deposits[1] = d

	outOfRange := good.Clone()
	outOfRange.Deposits[12] = Deposit{Amount: Money{Cents: 2500}, Timestamp: t0, MonthSlot: 12}
	outOfRange.TotalDeposited = sumDeposits(outOfRange.Deposits)

	noStart := good.Clone()
	noStart.StartDate = nil

	bads := []VaultProfile{drift, mismatch, outOfRange, noStart}
	for i, p := range bads {
		if err := p.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestFixedClock(t *testing.T) {
	var c Clock = FixedClock{T: t0}
	if !c.Now().Equal(t0) {
		t.Fatalf("fixed clock drifted: %v", c.Now())
	}
}
