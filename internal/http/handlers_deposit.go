package http

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"vaultscore/internal/core"
	"vaultscore/internal/log"
)

// Notification texts shown by the page.
const (
	msgBelowMinimum = "Minimum deposit is $25"
	msgAboveMaximum = "Maximum deposit is $1000"
	msgAlreadyPaid  = "You have already made a deposit this month"
	msgSaveFailed   = "Could not save your deposit, please try again"
	msgRateLimited  = "Too many requests, please wait a minute"
)

// handleCreateDeposit records a deposit for the current month-slot.
func (s *Server) handleCreateDeposit(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(w, r); resp != nil {
		resp.Write(w)
		return
	}

	amount, err := ParseDepositAmount(r.Form)
	if err != nil {
		log.FromContext(r.Context()).InfoContext(r.Context(), "Deposit amount rejected",
			log.FieldError, err,
			log.FieldOperation, log.OpParse)
		s.depositError(r, core.Money{}, err).Write(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	d, profile, err := s.vault.RecordDeposit(ctx, s.profileID, amount)
	if err != nil {
		s.depositError(r, amount, err).Write(w)
		return
	}

	atomic.AddInt64(&s.appMetrics.deposits, 1)

	msg := "Successfully deposited $" + formatPlainAmount(d.Amount) + "!"
	NewHTMXResponse().
		TriggerDepositCreated(d.MonthSlot, profile.TotalDeposited.Cents).
		TriggerSuccessNotification(msg).
		BodyHTML(`<div class="success">` + msg + `</div>`).
		Write(w)
}

// depositError maps a RecordDeposit failure to its response.
func (s *Server) depositError(r *http.Request, amount core.Money, err error) *HTMXResponseBuilder {
	ctx := r.Context()
	switch {
	case errors.Is(err, core.ErrBelowMinimum), errors.Is(err, core.ErrInvalidAmount):
		atomic.AddInt64(&s.appMetrics.rejected, 1)
		return UnprocessableEntityError(msgBelowMinimum).TriggerErrorNotification(msgBelowMinimum)

	case errors.Is(err, core.ErrAboveMaximum):
		atomic.AddInt64(&s.appMetrics.rejected, 1)
		return UnprocessableEntityError(msgAboveMaximum).TriggerErrorNotification(msgAboveMaximum)

	case errors.Is(err, core.ErrSlotAlreadyFilled):
		atomic.AddInt64(&s.appMetrics.conflicts, 1)
		log.FromContext(ctx).InfoContext(ctx, "Deposit for filled month refused",
			log.FieldProfileID, s.profileID,
			log.FieldAmountCents, amount.Cents)
		return ConflictError(msgAlreadyPaid).TriggerWarningNotification(msgAlreadyPaid)

	default:
		atomic.AddInt64(&s.appMetrics.failures, 1)
		s.events.LogError(ctx, "Failed to record deposit", err, log.ComponentHTTP, log.OpCreate,
			log.NewFields().WithProfileID(s.profileID))
		return InternalServerError(msgSaveFailed).TriggerErrorNotification(msgSaveFailed)
	}
}

// handleRateLimited answers a POST over the per-IP limit.
func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, msgRateLimited).
		TriggerErrorNotification(msgRateLimited).
		Write(w)
}
