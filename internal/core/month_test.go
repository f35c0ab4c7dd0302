package core

import (
	"testing"
	"time"
)

func TestResolveCurrentSlotAnchorsStartDate(t *testing.T) {
	p := NewProfile()
	if slot := ResolveCurrentSlot(&p, t0); slot != 0 {
		t.Fatalf("expected slot 0 on first access, got %d", slot)
	}
	if p.StartDate == nil || !p.StartDate.Equal(t0) {
		t.Fatalf("expected start date %v, got %v", t0, p.StartDate)
	}

	// A second access never moves the anchor.
	later := t0.AddDate(0, 2, 0)
	if slot := ResolveCurrentSlot(&p, later); slot != 2 {
		t.Fatalf("expected slot 2, got %d", slot)
	}
	if !p.StartDate.Equal(t0) {
		t.Fatalf("start date moved to %v", p.StartDate)
	}
}

func TestSlotBetween(t *testing.T) {
	jan15 := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	jan31 := time.Date(2024, 1, 31, 23, 0, 0, 0, time.UTC)

	cases := []struct {
		name  string
		start time.Time
		now   time.Time
		want  int
	}{
		{"same instant", jan15, jan15, 0},
		{"later same month", jan15, jan15.AddDate(0, 0, 16), 0},
		{"next calendar month regardless of day", jan31, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), 1},
		{"across a year", jan15, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), 11},
		{"clamped at 11", jan15, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), 11},
		{"clock skew clamps to 0", jan15, jan15.AddDate(0, -3, 0), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SlotBetween(tc.start, tc.now); got != tc.want {
				t.Errorf("SlotBetween(%v, %v) = %d, want %d", tc.start, tc.now, got, tc.want)
			}
		})
	}
}

func TestResolveCurrentSlotMonotonic(t *testing.T) {
	start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	p := NewProfile()
	p.StartDate = &start

	prev := 0
	for day := 0; day <= 900; day += 3 {
		slot := ResolveCurrentSlot(&p, start.AddDate(0, 0, day))
		if slot < prev {
			t.Fatalf("slot went backwards at day %d: %d < %d", day, slot, prev)
		}
		if slot < 0 || slot > LastSlot {
			t.Fatalf("slot %d out of range at day %d", slot, day)
		}
		prev = slot
	}
	if prev != LastSlot {
		t.Fatalf("expected to end clamped at %d, got %d", LastSlot, prev)
	}
}

func TestSlotMonth(t *testing.T) {
	nov := time.Date(2024, 11, 3, 0, 0, 0, 0, time.UTC)
	cases := map[int]time.Month{0: time.November, 1: time.December, 2: time.January, 11: time.October}
	for slot, want := range cases {
		if got := SlotMonth(nov, slot); got != want {
			t.Errorf("slot %d: expected %v, got %v", slot, want, got)
		}
	}
}
