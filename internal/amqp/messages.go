package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"vaultscore/internal/core"
)

// RoutingKeyDepositRecorded is the message type header for deposit events.
const RoutingKeyDepositRecorded = "deposit.recorded"

// DepositRecordedMessage announces a deposit that has been committed to storage.
// It carries the whole deposit so consumers never read the profile store.
type DepositRecordedMessage struct {
	EventID     string    `json:"event_id"`
	ProfileID   string    `json:"profile_id"`
	MonthSlot   int       `json:"month_slot"`
	AmountCents int64     `json:"amount_cents"`
	TotalCents  int64     `json:"total_cents"`
	DepositedAt time.Time `json:"deposited_at"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewDepositRecordedMessage creates a message with a fresh event ID
func NewDepositRecordedMessage(profileID string, d core.Deposit, total core.Money) *DepositRecordedMessage {
	return &DepositRecordedMessage{
		EventID:     uuid.NewString(),
		ProfileID:   profileID,
		MonthSlot:   d.MonthSlot,
		AmountCents: d.Amount.Cents,
		TotalCents:  total.Cents,
		DepositedAt: d.Timestamp,
		Timestamp:   time.Now(),
	}
}

// Deposit rebuilds the core deposit carried by the message
func (m *DepositRecordedMessage) Deposit() core.Deposit {
	return core.Deposit{
		Amount:    core.Money{Cents: m.AmountCents},
		Timestamp: m.DepositedAt,
		MonthSlot: m.MonthSlot,
	}
}

// Validate rejects messages no consumer could act on
func (m *DepositRecordedMessage) Validate() error {
	if m.EventID == "" {
		return errors.New("missing event id")
	}
	if m.ProfileID == "" {
		return errors.New("missing profile id")
	}
	if m.MonthSlot < 0 || m.MonthSlot > core.LastSlot {
		return fmt.Errorf("month slot %d: %w", m.MonthSlot, core.ErrInvalidSlot)
	}
	if m.AmountCents <= 0 {
		return fmt.Errorf("amount %d: %w", m.AmountCents, core.ErrInvalidAmount)
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *DepositRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// DepositRecordedMessageFromJSON decodes and validates a message
func DepositRecordedMessageFromJSON(data []byte) (*DepositRecordedMessage, error) {
	var msg DepositRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
