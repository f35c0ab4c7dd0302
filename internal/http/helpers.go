package http

import (
	"fmt"
	"strconv"
	"strings"

	"vaultscore/internal/core"
)

// formatDollars formats cents with two decimals (e.g., "$1234.50").
func formatDollars(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}

// formatWholeDollars rounds a dollar figure to whole dollars (e.g., "$1235").
func formatWholeDollars(d float64) string {
	return fmt.Sprintf("$%.0f", d)
}

// formatDollarFloat formats a projected dollar figure with cents.
func formatDollarFloat(d float64) string {
	return fmt.Sprintf("$%.2f", d)
}

// formatPlainAmount renders an amount the way a user typed it: no trailing
// zeros ("100", "37.5").
func formatPlainAmount(m core.Money) string {
	return strconv.FormatFloat(m.Dollars(), 'f', -1, 64)
}

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// statusLabel is the card caption shown for a tracker status.
func statusLabel(s core.CardStatus) string {
	switch s {
	case core.StatusPaid:
		return "Paid"
	case core.StatusMissed:
		return "Missed"
	case core.StatusCurrent:
		return "Current"
	default:
		return "Pending"
	}
}

// monthsLabel renders the time left until the vault is eligible.
func monthsLabel(remaining int) string {
	if remaining <= 0 {
		return "Eligible!"
	}
	return strconv.Itoa(remaining) + " months"
}

// formatPercent renders a completion rate without decimals ("42%").
func formatPercent(f float64) string {
	return strconv.FormatFloat(f, 'f', 0, 64) + "%"
}
