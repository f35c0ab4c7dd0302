// Package memory keeps mirrored deposit rows in process memory. The worker uses
// it when no spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"vaultscore/internal/core"
	"vaultscore/internal/sheets"
)

var _ sheets.DepositWriter = (*Store)(nil)

type Store struct {
	mu   sync.Mutex
	rows [][]any
}

func New() *Store {
	return &Store{}
}

// AppendDeposit stores the row and returns a synthetic row reference.
func (s *Store) AppendDeposit(_ context.Context, profileID string, d core.Deposit) (string, error) {
	if err := d.Amount.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, sheets.Row(profileID, d))
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of every row appended so far.
func (s *Store) Rows() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]any, len(s.rows))
	copy(out, s.rows)
	return out
}
