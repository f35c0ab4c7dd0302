// Package worker runs the background side of the vault: it copies recorded
// deposits to the spreadsheet mirror as events arrive and catches up on any
// deposit whose event was lost.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"vaultscore/internal/amqp"
	"vaultscore/internal/log"
	"vaultscore/internal/services"
)

// Consumer delivers deposit events until ctx is cancelled.
type Consumer interface {
	ConsumeDepositRecorded(ctx context.Context, handler func(context.Context, *amqp.DepositRecordedMessage) error) error
}

// MirrorWorker ties the event stream and the periodic catch-up to one
// MirrorProcessor.
type MirrorWorker struct {
	processor   *services.MirrorProcessor
	consumer    Consumer
	logger      *log.Logger
	stopTimeout time.Duration
}

// NewMirrorWorker creates a worker. consumer may be nil, in which case only the
// periodic catch-up runs.
func NewMirrorWorker(processor *services.MirrorProcessor, consumer Consumer, logger *log.Logger) *MirrorWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &MirrorWorker{
		processor:   processor,
		consumer:    consumer,
		logger:      logger.WithComponent(log.ComponentWorker),
		stopTimeout: 10 * time.Second,
	}
}

// HandleDepositRecorded mirrors the deposit carried by one event.
func (w *MirrorWorker) HandleDepositRecorded(ctx context.Context, msg *amqp.DepositRecordedMessage) error {
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("invalid deposit event: %w", err)
	}

	w.logger.InfoContext(ctx, "Processing deposit event",
		log.FieldEventID, msg.EventID,
		log.FieldProfileID, msg.ProfileID,
		log.FieldMonthSlot, msg.MonthSlot)

	if _, err := w.processor.Mirror(ctx, msg.ProfileID, msg.Deposit()); err != nil {
		return fmt.Errorf("mirror deposit: %w", err)
	}
	return nil
}

// StartupCheck mirrors whatever the ledger still lists as pending before any
// event is consumed.
func (w *MirrorWorker) StartupCheck(ctx context.Context) error {
	n, err := w.processor.ProcessPending(ctx)
	if err != nil {
		return fmt.Errorf("startup mirror check: %w", err)
	}
	if n == 0 {
		w.logger.InfoContext(ctx, "No pending deposits found on startup")
		return nil
	}
	w.logger.InfoContext(ctx, "Startup mirror check completed", "mirrored", n)
	return nil
}

// Run consumes events and polls for pending deposits until ctx is cancelled.
// A consumer failure stops the whole worker.
func (w *MirrorWorker) Run(ctx context.Context) error {
	if err := w.StartupCheck(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Startup mirror check failed", log.FieldError, err)
	}

	g, gctx := errgroup.WithContext(ctx)

	if err := w.processor.Start(gctx); err != nil {
		return err
	}
	g.Go(func() error {
		<-gctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), w.stopTimeout)
		defer cancel()
		return w.processor.Stop(stopCtx)
	})

	if w.consumer != nil {
		g.Go(func() error {
			err := w.consumer.ConsumeDepositRecorded(gctx, w.HandleDepositRecorded)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		w.logger.InfoContext(ctx, "No event consumer configured, relying on periodic catch-up")
	}

	err := g.Wait()
	w.logger.InfoContext(ctx, "Mirror worker stopped")
	return err
}
