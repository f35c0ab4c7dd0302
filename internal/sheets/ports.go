package sheets

import (
	"context"

	"vaultscore/internal/core"
)

// Ports for outbound adapters.
type (
	// DepositWriter mirrors a recorded deposit as one spreadsheet row.
	DepositWriter interface {
		AppendDeposit(ctx context.Context, profileID string, d core.Deposit) (rowRef string, err error)
	}
)

// Header is the column layout of the mirror sheet.
var Header = []any{"Date", "Vault Month", "Calendar Month", "Amount", "Profile"}

// Row renders a deposit in Header order. Amounts are plain dollars so the sheet
// can sum them; the vault month is 1-based as shown in the tracker.
func Row(profileID string, d core.Deposit) []any {
	return []any{
		d.Timestamp.Format("2006-01-02"),
		d.MonthSlot + 1,
		d.Timestamp.Month().String(),
		d.Amount.Dollars(),
		profileID,
	}
}
