package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"vaultscore/internal/core"
	"vaultscore/internal/log"
	"vaultscore/internal/sheets"
	"vaultscore/internal/storage"
)

// MirrorProcessorConfig holds configuration for the mirror processor
type MirrorProcessorConfig struct {
	// PollInterval is how often to look for unmirrored deposits (default: 1m)
	PollInterval time.Duration

	// BatchSize is the max number of deposits mirrored per poll cycle (default: 12)
	BatchSize int
}

// DefaultMirrorProcessorConfig returns sensible defaults
func DefaultMirrorProcessorConfig() MirrorProcessorConfig {
	return MirrorProcessorConfig{
		PollInterval: time.Minute,
		BatchSize:    core.VaultMonths,
	}
}

// MirrorProcessor copies committed deposits to the spreadsheet mirror. Deposits
// arrive either as events or from the periodic scan of the ledger; both paths
// go through Mirror, which appends each deposit at most once.
type MirrorProcessor struct {
	queue  storage.MirrorQueue
	writer sheets.DepositWriter
	config MirrorProcessorConfig
	clock  core.Clock
	logger *log.Logger

	mirrorMu sync.Mutex

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewMirrorProcessor creates a new mirror processor
func NewMirrorProcessor(queue storage.MirrorQueue, writer sheets.DepositWriter, config MirrorProcessorConfig, logger *log.Logger) *MirrorProcessor {
	def := DefaultMirrorProcessorConfig()
	if config.PollInterval <= 0 {
		config.PollInterval = def.PollInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = def.BatchSize
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &MirrorProcessor{
		queue:  queue,
		writer: writer,
		config: config,
		clock:  core.SystemClock{},
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// Start begins the polling loop. Returns an error if already running.
func (p *MirrorProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("mirror processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	p.logger.InfoContext(ctx, "Mirror processor started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize)
	return nil
}

// Stop signals the loop and waits for the batch in flight to finish.
func (p *MirrorProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		p.logger.InfoContext(ctx, "Mirror processor stopped gracefully")
	case <-ctx.Done():
		p.logger.WarnContext(ctx, "Mirror processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
	return nil
}

// IsRunning returns whether the processor is currently running
func (p *MirrorProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *MirrorProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	// Catch up immediately on startup
	p.processBatch(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.processBatch(ctx)
		}
	}
}

func (p *MirrorProcessor) processBatch(ctx context.Context) {
	if _, err := p.ProcessPending(ctx); err != nil {
		p.logger.ErrorContext(ctx, "Failed to process pending deposits", log.FieldError, err)
	}
}

// ProcessPending mirrors up to one batch of deposits the ledger still lists as
// pending and returns how many were appended. A failing deposit is logged and
// left pending for the next cycle.
func (p *MirrorProcessor) ProcessPending(ctx context.Context) (int, error) {
	pending, err := p.queue.PendingMirror(ctx, p.config.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("list pending deposits: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	p.logger.DebugContext(ctx, "Processing pending deposits", "count", len(pending))

	appended := 0
	for _, item := range pending {
		if err := ctx.Err(); err != nil {
			return appended, err
		}
		ok, err := p.Mirror(ctx, item.ProfileID, item.Deposit)
		if err != nil {
			p.logger.WarnContext(ctx, "Mirroring deposit failed",
				log.NewFields().
					WithDeposit(item.ProfileID, item.Deposit.MonthSlot, item.Deposit.Amount.Cents).
					WithError(err).ToSlice()...)
			continue
		}
		if ok {
			appended++
		}
	}
	return appended, nil
}

// Mirror appends d to the spreadsheet unless the ledger says it is already
// there. It reports whether a row was written.
func (p *MirrorProcessor) Mirror(ctx context.Context, profileID string, d core.Deposit) (bool, error) {
	p.mirrorMu.Lock()
	defer p.mirrorMu.Unlock()

	done, err := p.queue.IsMirrored(ctx, profileID, d.MonthSlot)
	if err != nil {
		return false, fmt.Errorf("check mirror state: %w", err)
	}
	if done {
		p.logger.DebugContext(ctx, "Deposit already mirrored",
			log.FieldProfileID, profileID,
			log.FieldMonthSlot, d.MonthSlot)
		return false, nil
	}

	ref, err := p.writer.AppendDeposit(ctx, profileID, d)
	if err != nil {
		return false, fmt.Errorf("append to sheets: %w", err)
	}

	if err := p.queue.MarkMirrored(ctx, profileID, d.MonthSlot, p.clock.Now()); err != nil {
		// The row exists; the next scan would append it again.
		p.logger.ErrorContext(ctx, "Failed to mark deposit as mirrored",
			log.FieldProfileID, profileID,
			log.FieldMonthSlot, d.MonthSlot,
			log.FieldError, err)
	}

	p.logger.InfoContext(ctx, "Mirrored deposit",
		log.FieldProfileID, profileID,
		log.FieldMonthSlot, d.MonthSlot,
		log.FieldAmountCents, d.Amount.Cents,
		log.FieldSheetsRef, ref)
	return true, nil
}
