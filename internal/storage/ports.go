// Package storage persists vault profiles. Every backend behaves as a key-value
// store holding one profile per ID; a profile that was never saved loads as the
// empty default.
package storage

import (
	"context"
	"errors"
	"time"

	"vaultscore/internal/core"
)

// ErrInvalidProfileID is returned for IDs a backend cannot use as a key.
var ErrInvalidProfileID = errors.New("invalid profile id")

// ProfileStore loads and saves whole profiles.
type ProfileStore interface {
	Load(ctx context.Context, profileID string) (core.VaultProfile, error)
	Save(ctx context.Context, profileID string, profile core.VaultProfile) error
}

// Pinger is implemented by stores that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PendingDeposit is a recorded deposit that has not been mirrored yet.
type PendingDeposit struct {
	ProfileID string
	Deposit   core.Deposit
}

// MirrorQueue tracks which deposits have been copied to the external mirror.
type MirrorQueue interface {
	PendingMirror(ctx context.Context, limit int) ([]PendingDeposit, error)
	MarkMirrored(ctx context.Context, profileID string, slot int, at time.Time) error
	IsMirrored(ctx context.Context, profileID string, slot int) (bool, error)
}
