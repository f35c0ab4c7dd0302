// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data.

package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"vaultscore/internal/core"
)

// maxFormBytes bounds the size of a deposit form body.
const maxFormBytes = 4 << 10

// ParseDepositAmount reads the "amount" field as a dollar amount and checks it
// against the deposit bounds. Too-large input, including whole parts that
// overflow, is ErrAboveMaximum. Anything else that is not a positive decimal
// is reported as below the minimum, the same as an amount that is too small.
func ParseDepositAmount(form url.Values) (core.Money, error) {
	raw := sanitizeInput(form.Get("amount"))
	m, err := core.ParseDepositAmount(raw)
	switch {
	case err == nil:
		return m, nil
	case errors.Is(err, core.ErrAboveMaximum):
		return core.Money{}, fmt.Errorf("amount %q: %w", raw, core.ErrAboveMaximum)
	default:
		return core.Money{}, fmt.Errorf("amount %q: %w", raw, core.ErrBelowMinimum)
	}
}

// ParseMonthsParam reads the simulator horizon from the query. Missing or
// malformed values fall back to def; others are clamped to 0..12.
func ParseMonthsParam(query url.Values, def int) int {
	v := strings.TrimSpace(query.Get("months"))
	if v == "" {
		return def
	}
	m, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	if m < 0 {
		return 0
	}
	if m > core.VaultMonths {
		return core.VaultMonths
	}
	return m
}

// ParseFormOrFail parses a size-limited request form and returns an error
// response on failure. Returns nil on success.
func ParseFormOrFail(w http.ResponseWriter, r *http.Request) *HTMXResponseBuilder {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return BadRequestError("Invalid request format").
			TriggerErrorNotification("Invalid request format")
	}
	return nil
}
