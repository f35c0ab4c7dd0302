package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"vaultscore/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository stores profiles in two tables: one row per profile for the
// start date and one row per deposit. Deposits are only ever inserted.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping implements Pinger
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Load implements ProfileStore
func (r *SQLiteRepository) Load(ctx context.Context, profileID string) (core.VaultProfile, error) {
	if err := checkProfileID(profileID); err != nil {
		return core.VaultProfile{}, err
	}

	profile := core.NewProfile()

	var startDate sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT start_date FROM vault_profiles WHERE profile_id = ?`, profileID).Scan(&startDate)
	if errors.Is(err, sql.ErrNoRows) {
		return profile, nil
	}
	if err != nil {
		return core.VaultProfile{}, fmt.Errorf("get profile %s: %w", profileID, err)
	}
	if startDate.Valid {
		start, err := parseTime(startDate.String)
		if err != nil {
			return core.VaultProfile{}, fmt.Errorf("parse start date: %w", err)
		}
		profile.StartDate = &start
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT month_slot, amount_cents, created_at FROM deposits WHERE profile_id = ? ORDER BY month_slot`, profileID)
	if err != nil {
		return core.VaultProfile{}, fmt.Errorf("list deposits: %w", err)
	}
	defer rows.Close()

	var total int64
	for rows.Next() {
		var (
			slot      int
			cents     int64
			createdAt string
		)
		if err := rows.Scan(&slot, &cents, &createdAt); err != nil {
			return core.VaultProfile{}, fmt.Errorf("scan deposit: %w", err)
		}
		ts, err := parseTime(createdAt)
		if err != nil {
			return core.VaultProfile{}, fmt.Errorf("parse deposit time: %w", err)
		}
		profile.Deposits[slot] = core.Deposit{
			Amount:    core.Money{Cents: cents},
			Timestamp: ts,
			MonthSlot: slot,
		}
		total += cents
	}
	if err := rows.Err(); err != nil {
		return core.VaultProfile{}, fmt.Errorf("iterate deposits: %w", err)
	}
	profile.TotalDeposited = core.Money{Cents: total}

	if err := profile.Validate(); err != nil {
		return core.VaultProfile{}, fmt.Errorf("stored profile %s: %w", profileID, err)
	}
	return profile, nil
}

// Save implements ProfileStore. Deposits already stored are left untouched, so
// re-saving a profile never rewrites ledger history.
func (r *SQLiteRepository) Save(ctx context.Context, profileID string, profile core.VaultProfile) error {
	if err := checkProfileID(profileID); err != nil {
		return err
	}
	if err := profile.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid profile: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var startDate sql.NullString
	if profile.StartDate != nil {
		startDate = sql.NullString{String: formatTime(*profile.StartDate), Valid: true}
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO vault_profiles (profile_id, start_date, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (profile_id) DO UPDATE SET start_date = excluded.start_date, updated_at = excluded.updated_at`,
		profileID, startDate, formatTime(time.Now().UTC())); err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}

	inserted := 0
	for _, d := range profile.DepositList() {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO deposits (profile_id, month_slot, amount_cents, created_at) VALUES (?, ?, ?, ?)
			ON CONFLICT (profile_id, month_slot) DO NOTHING`,
			profileID, d.MonthSlot, d.Amount.Cents, formatTime(d.Timestamp.UTC()))
		if err != nil {
			return fmt.Errorf("insert deposit for slot %d: %w", d.MonthSlot, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	if inserted > 0 {
		slog.DebugContext(ctx, "Profile saved to SQLite",
			"profile_id", profileID,
			"new_deposits", inserted,
			"total_cents", profile.TotalDeposited.Cents)
	}
	return nil
}

// PendingMirror implements MirrorQueue, oldest deposits first.
func (r *SQLiteRepository) PendingMirror(ctx context.Context, limit int) ([]PendingDeposit, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT profile_id, month_slot, amount_cents, created_at FROM deposits
		WHERE mirrored_at IS NULL
		ORDER BY created_at, month_slot
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending mirror deposits: %w", err)
	}
	defer rows.Close()

	var pending []PendingDeposit
	for rows.Next() {
		var (
			p         PendingDeposit
			createdAt string
			cents     int64
		)
		if err := rows.Scan(&p.ProfileID, &p.Deposit.MonthSlot, &cents, &createdAt); err != nil {
			return nil, fmt.Errorf("scan pending deposit: %w", err)
		}
		ts, err := parseTime(createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse deposit time: %w", err)
		}
		p.Deposit.Amount = core.Money{Cents: cents}
		p.Deposit.Timestamp = ts
		pending = append(pending, p)
	}
	return pending, rows.Err()
}

// MarkMirrored implements MirrorQueue
func (r *SQLiteRepository) MarkMirrored(ctx context.Context, profileID string, slot int, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE deposits SET mirrored_at = ? WHERE profile_id = ? AND month_slot = ?`,
		formatTime(at.UTC()), profileID, slot)
	if err != nil {
		return fmt.Errorf("mark deposit mirrored: %w", err)
	}
	slog.DebugContext(ctx, "Deposit marked as mirrored", "profile_id", profileID, "month_slot", slot)
	return nil
}

// IsMirrored reports whether the deposit in slot has already been mirrored.
// A deposit the ledger does not know about is reported as not mirrored.
func (r *SQLiteRepository) IsMirrored(ctx context.Context, profileID string, slot int) (bool, error) {
	var mirrored sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT mirrored_at FROM deposits WHERE profile_id = ? AND month_slot = ?`,
		profileID, slot).Scan(&mirrored)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check deposit mirrored: %w", err)
	}
	return mirrored.Valid, nil
}

func checkProfileID(profileID string) error {
	if strings.TrimSpace(profileID) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidProfileID)
	}
	return nil
}

// timeLayout is fixed width so stored timestamps in the same zone sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}
