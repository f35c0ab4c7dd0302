package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"vaultscore/internal/core"
	"vaultscore/internal/services"
	"vaultscore/internal/storage/memory"
)

func TestCreateDepositValidationAndSuccess(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name        string
		amount      string
		wantStatus  int
		wantMessage string
		wantType    string
	}{
		{"not a number", "abc", http.StatusUnprocessableEntity, "Minimum deposit is $25", "error"},
		{"empty", "", http.StatusUnprocessableEntity, "Minimum deposit is $25", "error"},
		{"below minimum", "24.99", http.StatusUnprocessableEntity, "Minimum deposit is $25", "error"},
		{"above maximum", "1000.01", http.StatusUnprocessableEntity, "Maximum deposit is $1000", "error"},
		{"third decimal rounds toward minimum", "24.995", http.StatusUnprocessableEntity, "Minimum deposit is $25", "error"},
		{"many decimals below minimum", "24.9999", http.StatusUnprocessableEntity, "Minimum deposit is $25", "error"},
		{"sub-cent above maximum", "1000.004", http.StatusUnprocessableEntity, "Maximum deposit is $1000", "error"},
		{"grouped thousands above maximum", "1,000.50", http.StatusUnprocessableEntity, "Maximum deposit is $1000", "error"},
		{"overflowing amount", "99999999999999999999", http.StatusUnprocessableEntity, "Maximum deposit is $1000", "error"},
		{"success", "37.5", http.StatusOK, "Successfully deposited $37.5!", "success"},
		{"second deposit same month", "100", http.StatusConflict, "You have already made a deposit this month", "warning"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := postDeposit(t, srv, tt.amount)
			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rr.Code, tt.wantStatus, rr.Body.String())
			}
			trigger := rr.Header().Get("HX-Trigger")
			if !strings.Contains(trigger, tt.wantMessage) {
				t.Errorf("HX-Trigger missing %q: %s", tt.wantMessage, trigger)
			}
			if !strings.Contains(trigger, `"type":"`+tt.wantType+`"`) {
				t.Errorf("HX-Trigger missing type %q: %s", tt.wantType, trigger)
			}
		})
	}
}

func TestCreateDepositTriggersRefresh(t *testing.T) {
	srv := newTestServer(t)

	rr := postDeposit(t, srv, "100")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var triggers map[string]map[string]any
	if err := json.Unmarshal([]byte(rr.Header().Get("HX-Trigger")), &triggers); err != nil {
		t.Fatalf("decode HX-Trigger: %v", err)
	}
	created, ok := triggers[EventDepositCreated]
	if !ok {
		t.Fatalf("missing %s trigger", EventDepositCreated)
	}
	if created["slot"] != float64(0) || created["total_cents"] != float64(10000) {
		t.Errorf("deposit:created = %v", created)
	}
	if !strings.Contains(rr.Body.String(), `class="success"`) {
		t.Errorf("body = %s", rr.Body.String())
	}
}

func TestCreateDepositPersistenceFailure(t *testing.T) {
	vault := services.NewVaultService(&brokenStore{Store: memory.NewStore()})
	srv := NewServer(":0", vault, testProfile)
	defer srv.Shutdown(context.Background())

	rr := postDeposit(t, srv, "100")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
	if !strings.Contains(rr.Header().Get("HX-Trigger"), `"type":"error"`) {
		t.Errorf("HX-Trigger = %s", rr.Header().Get("HX-Trigger"))
	}

	// Nothing was committed.
	body := get(t, srv, "/ui/dashboard").Body.String()
	if !strings.Contains(body, "0/12 months") {
		t.Errorf("dashboard after failed save:\n%s", body)
	}
}

func TestDashboardPartial(t *testing.T) {
	srv := newTestServer(t)

	body := get(t, srv, "/ui/dashboard").Body.String()
	for _, want := range []string{"$0", "12 months", "+0", "0/12 months"} {
		if !strings.Contains(body, want) {
			t.Errorf("empty dashboard missing %q", want)
		}
	}

	postDeposit(t, srv, "100")

	body = get(t, srv, "/ui/dashboard").Body.String()
	for _, want := range []string{
		`id="totalDeposited">$100<`,
		`id="interestEarned">$0.00<`,
		`id="timeRemaining">11 months<`,
		`id="creditImpact">+8<`,
		`id="progressText">1/12 months<`,
		"+$100 this month",
		`id="projectedTotal">$1200<`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("dashboard missing %q:\n%s", want, body)
		}
	}
}

func TestTrackerPartial(t *testing.T) {
	srv := newTestServer(t)
	postDeposit(t, srv, "50")

	body := get(t, srv, "/ui/tracker").Body.String()
	if n := strings.Count(body, `class="month-card `); n != 12 {
		t.Fatalf("got %d month cards, want 12", n)
	}
	for _, want := range []string{
		`<div class="month-title">February</div>`,
		`<div class="month-title">January</div>`,
		"<span>Paid</span>",
		"<span>Pending</span>",
		"$50.00",
		"8%",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("tracker missing %q", want)
		}
	}
	if strings.Contains(body, "<span>Missed</span>") {
		t.Error("no month should be missed yet")
	}
}

func TestTrackerAnchorsStartDate(t *testing.T) {
	store := memory.NewStore()
	opened := NewServer(":0", services.NewVaultService(store, services.WithClock(core.FixedClock{T: testNow})), testProfile)
	defer opened.Shutdown(context.Background())

	if rr := get(t, opened, "/ui/tracker"); rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	p, err := store.Load(context.Background(), testProfile)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.StartDate == nil || !p.StartDate.Equal(testNow) {
		t.Fatalf("start date = %v, want %v", p.StartDate, testNow)
	}

	// The first deposit comes a month after the vault was opened.
	later := NewServer(":0", services.NewVaultService(store, services.WithClock(core.FixedClock{T: testNow.AddDate(0, 1, 0)})), testProfile)
	defer later.Shutdown(context.Background())

	rr := postDeposit(t, later, "50")
	var triggers map[string]map[string]any
	if err := json.Unmarshal([]byte(rr.Header().Get("HX-Trigger")), &triggers); err != nil {
		t.Fatalf("decode HX-Trigger: %v", err)
	}
	if slot := triggers[EventDepositCreated]["slot"]; slot != float64(1) {
		t.Fatalf("deposit slot = %v, want 1", slot)
	}

	body := get(t, later, "/ui/tracker").Body.String()
	if strings.Count(body, "<span>Missed</span>") != 1 {
		t.Errorf("expected February to be missed:\n%s", body)
	}
}

func TestTrackerRendersWhenAnchorCannotBeSaved(t *testing.T) {
	vault := services.NewVaultService(&brokenStore{Store: memory.NewStore()}, services.WithClock(core.FixedClock{T: testNow}))
	srv := NewServer(":0", vault, testProfile)
	defer srv.Shutdown(context.Background())

	rr := get(t, srv, "/ui/tracker")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if n := strings.Count(rr.Body.String(), `class="month-card `); n != 12 {
		t.Errorf("got %d month cards, want 12", n)
	}
}

func TestSimulatorPartial(t *testing.T) {
	srv := newTestServer(t)
	postDeposit(t, srv, "100")

	// Default horizon is the number of filled months.
	body := get(t, srv, "/ui/simulator").Body.String()
	for _, want := range []string{
		`id="monthsValue">1<`,
		`id="simDeposited">$100<`,
		`id="simPenalty">-$10<`,
		`id="simTotal">$90.00<`,
		"Early withdrawal - penalty applies",
		"Withdraw Now",
		"Wait Until Eligible",
		"Feb 14, 2026",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("simulator missing %q:\n%s", want, body)
		}
	}

	body = get(t, srv, "/ui/simulator?months=12").Body.String()
	if !strings.Contains(body, "Eligible for full withdrawal with interest!") {
		t.Errorf("12-month simulation not eligible:\n%s", body)
	}
	if strings.Contains(body, `id="penaltyRow"`) {
		t.Error("penalty row shown for eligible withdrawal")
	}
}

func TestVaultJSON(t *testing.T) {
	srv := newTestServer(t)
	postDeposit(t, srv, "100")

	rr := get(t, srv, "/api/vault")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var got struct {
		Profile struct {
			TotalDeposited float64 `json:"totalDeposited"`
			Deposits       map[string]struct {
				Amount float64 `json:"amount"`
				Month  int     `json:"month"`
			} `json:"deposits"`
			StartDate *string `json:"startDate"`
		} `json:"profile"`
		Derived struct {
			CreditImpact    int     `json:"creditImpact"`
			CompletionRate  float64 `json:"completionRate"`
			MonthsCompleted int     `json:"monthsCompleted"`
			MonthsRemaining int     `json:"monthsRemaining"`
			Eligible        bool    `json:"eligible"`
			Strategies      []struct {
				Name string `json:"name"`
			} `json:"strategies"`
		} `json:"derived"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if got.Profile.TotalDeposited != 100 {
		t.Errorf("totalDeposited = %v", got.Profile.TotalDeposited)
	}
	if d, ok := got.Profile.Deposits["0"]; !ok || d.Amount != 100 || d.Month != 0 {
		t.Errorf("deposits = %+v", got.Profile.Deposits)
	}
	if got.Profile.StartDate == nil {
		t.Error("startDate not set after first deposit")
	}
	if got.Derived.CreditImpact != 8 || got.Derived.MonthsCompleted != 1 || got.Derived.MonthsRemaining != 11 {
		t.Errorf("derived = %+v", got.Derived)
	}
	if got.Derived.Eligible {
		t.Error("one deposit must not be eligible")
	}
	if len(got.Derived.Strategies) != 2 {
		t.Errorf("strategies = %+v", got.Derived.Strategies)
	}
}

func TestVaultJSONLoadFailure(t *testing.T) {
	vault := services.NewVaultService(&brokenStore{Store: memory.NewStore(), failLoad: true})
	srv := NewServer(":0", vault, testProfile)
	defer srv.Shutdown(context.Background())

	if rr := get(t, srv, "/api/vault"); rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
	if rr := get(t, srv, "/ui/tracker"); rr.Code != http.StatusInternalServerError {
		t.Fatalf("tracker status = %d, want 500", rr.Code)
	}
}
