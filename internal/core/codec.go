package core

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// The stored blob keeps the shape used by the browser version of the tracker:
// dollar amounts, RFC 3339 dates and month-slots as string keys.
type (
	depositJSON struct {
		Amount float64   `json:"amount"`
		Date   time.Time `json:"date"`
		Month  int       `json:"month"`
	}

	profileJSON struct {
		TotalDeposited float64                `json:"totalDeposited"`
		Deposits       map[string]depositJSON `json:"deposits"`
		StartDate      *time.Time             `json:"startDate"`
	}
)

// MarshalJSON implements json.Marshaler.
func (p VaultProfile) MarshalJSON() ([]byte, error) {
	out := profileJSON{
		TotalDeposited: p.TotalDeposited.Dollars(),
		Deposits:       make(map[string]depositJSON, len(p.Deposits)),
		StartDate:      p.StartDate,
	}
	for slot, d := range p.Deposits {
		out.Deposits[strconv.Itoa(slot)] = depositJSON{
			Amount: d.Amount.Dollars(),
			Date:   d.Timestamp,
			Month:  d.MonthSlot,
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler. The total is rebuilt from the
// deposits rather than trusted from the blob.
func (p *VaultProfile) UnmarshalJSON(data []byte) error {
	var in profileJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	decoded := NewProfile()
	decoded.StartDate = in.StartDate
	for key, d := range in.Deposits {
		slot, err := strconv.Atoi(key)
		if err != nil {
			return fmt.Errorf("deposit key %q: %w", key, ErrInvalidSlot)
		}
		amount, err := DepositFromDollars(d.Amount)
		if err != nil {
			return fmt.Errorf("deposit %d amount: %w", slot, err)
		}
		decoded.Deposits[slot] = Deposit{
			Amount:    amount,
			Timestamp: d.Date,
			MonthSlot: d.Month,
		}
	}
	decoded.TotalDeposited = sumDeposits(decoded.Deposits)

	if err := decoded.Validate(); err != nil {
		return fmt.Errorf("decoded profile: %w", err)
	}
	*p = decoded
	return nil
}
