package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"vaultscore/internal/core"
)

func TestParseDepositAmount(t *testing.T) {
	tests := []struct {
		name      string
		amount    string
		wantCents int64
		wantErr   error
	}{
		{name: "whole dollars", amount: "100", wantCents: 10000},
		{name: "with cents", amount: "37.50", wantCents: 3750},
		{name: "dollar sign", amount: "$25", wantCents: 2500},
		{name: "surrounding space", amount: "  50 ", wantCents: 5000},
		{name: "maximum", amount: "1000", wantCents: 100000},
		{name: "empty", amount: "", wantErr: core.ErrBelowMinimum},
		{name: "not a number", amount: "abc", wantErr: core.ErrBelowMinimum},
		{name: "negative", amount: "-10", wantErr: core.ErrBelowMinimum},
		{name: "zero", amount: "0", wantErr: core.ErrBelowMinimum},
		{name: "below minimum", amount: "24.99", wantErr: core.ErrBelowMinimum},
		{name: "third decimal does not round up to minimum", amount: "24.995", wantErr: core.ErrBelowMinimum},
		{name: "sub-cent above maximum", amount: "1000.004", wantErr: core.ErrAboveMaximum},
		{name: "grouped thousands", amount: "1,000.50", wantErr: core.ErrAboveMaximum},
		{name: "overflowing whole part", amount: "99999999999999999999", wantErr: core.ErrAboveMaximum},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := url.Values{"amount": {tt.amount}}
			got, err := ParseDepositAmount(form)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Cents != tt.wantCents {
				t.Errorf("cents = %d, want %d", got.Cents, tt.wantCents)
			}
		})
	}
}

func TestParseMonthsParam(t *testing.T) {
	tests := []struct {
		name  string
		query string
		def   int
		want  int
	}{
		{name: "missing uses default", query: "", def: 4, want: 4},
		{name: "explicit", query: "months=6", def: 4, want: 6},
		{name: "zero", query: "months=0", def: 4, want: 0},
		{name: "clamped high", query: "months=40", def: 4, want: 12},
		{name: "clamped low", query: "months=-3", def: 4, want: 0},
		{name: "garbage uses default", query: "months=six", def: 2, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatalf("parse query: %v", err)
			}
			if got := ParseMonthsParam(q, tt.def); got != tt.want {
				t.Errorf("ParseMonthsParam(%q) = %d, want %d", tt.query, got, tt.want)
			}
		})
	}
}

func TestParseFormOrFail(t *testing.T) {
	// Valid form request
	body := "amount=50"
	req := httptest.NewRequest(http.MethodPost, "/deposits", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	result := ParseFormOrFail(httptest.NewRecorder(), req)
	if result != nil {
		t.Error("Expected nil for valid form, got error response")
	}

	// Verify form was parsed
	if req.Form.Get("amount") != "50" {
		t.Error("Form was not parsed correctly")
	}
}

func TestParseFormOrFail_TooLarge(t *testing.T) {
	body := "amount=" + strings.Repeat("9", maxFormBytes*2)
	req := httptest.NewRequest(http.MethodPost, "/deposits", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	result := ParseFormOrFail(httptest.NewRecorder(), req)
	if result == nil {
		t.Fatal("Expected error response for oversized body")
	}

	w := httptest.NewRecorder()
	result.Write(w)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusBadRequest)
	}
}
