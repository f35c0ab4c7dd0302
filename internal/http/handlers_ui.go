package http

import (
	"net/http"
	"strconv"

	"vaultscore/internal/core"
	"vaultscore/internal/log"
)

type (
	dashboardView struct {
		TotalDeposited    string
		InterestEarned    string
		TimeRemaining     string
		Eligible          bool
		CreditImpact      string
		Progress          string
		ProgressPercent   string
		LastDeposit       string
		ProjectedTotal    string
		ProjectedInterest string
		CanDeposit        bool
	}

	cardView struct {
		Month     string
		Status    string
		Label     string
		Amount    string
		Clickable bool
	}

	trackerView struct {
		Cards          []cardView
		CompletionRate string
		Streak         int
	}

	strategyView struct {
		Name        string
		Months      int
		Total       string
		AvailableAt string
	}

	simulatorView struct {
		Months     int
		Max        int
		Deposited  string
		Interest   string
		Penalty    string
		Total      string
		IsEarly    bool
		Status     string
		Strategies []strategyView
	}
)

const (
	statusEarly    = "Early withdrawal - penalty applies"
	statusEligible = "✓ Eligible for full withdrawal with interest!"
)

func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) (core.Snapshot, bool) {
	snap, err := s.vault.Snapshot(r.Context(), s.profileID)
	if err != nil {
		s.events.LogError(r.Context(), "Failed to load snapshot", err, log.ComponentHTTP, log.OpRead,
			log.NewFields().WithProfileID(s.profileID))
		ErrorResponse(http.StatusInternalServerError, "Could not load your vault").Write(w)
		return core.Snapshot{}, false
	}
	return snap, true
}

// handleDashboard renders the stat cards partial.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	s.render(w, r, "dashboard.html", newDashboardView(snap))
}

func newDashboardView(snap core.Snapshot) dashboardView {
	v := dashboardView{
		TotalDeposited:    formatWholeDollars(snap.TotalDeposited.Dollars()),
		InterestEarned:    formatDollarFloat(snap.AccruedInterest),
		TimeRemaining:     monthsLabel(snap.MonthsRemaining),
		Eligible:          snap.Eligible,
		CreditImpact:      "+" + strconv.Itoa(snap.CreditImpact),
		Progress:          strconv.Itoa(snap.MonthsCompleted) + "/12 months",
		ProgressPercent:   formatPercent(float64(snap.MonthsCompleted) / core.VaultMonths * 100),
		ProjectedTotal:    formatWholeDollars(snap.Growth.ProjectedTotal),
		ProjectedInterest: formatDollarFloat(snap.Growth.ProjectedInterest),
	}
	if snap.LastDeposit != nil {
		v.LastDeposit = "+$" + formatPlainAmount(snap.LastDeposit.Amount) + " this month"
	}
	for _, c := range snap.Board {
		if c.Depositable {
			v.CanDeposit = true
		}
	}
	return v
}

// handleTracker renders the 12 month cards. Opening the tracker resolves the
// current month, which anchors the start date of a new vault.
func (s *Server) handleTracker(w http.ResponseWriter, r *http.Request) {
	if _, err := s.vault.ResolveCurrentSlot(r.Context(), s.profileID); err != nil {
		// The cards can still be drawn from the unanchored profile.
		log.FromContext(r.Context()).WarnContext(r.Context(), "Failed to resolve current month",
			log.FieldError, err,
			log.FieldProfileID, s.profileID)
	}
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	s.render(w, r, "tracker.html", newTrackerView(snap))
}

func newTrackerView(snap core.Snapshot) trackerView {
	v := trackerView{
		Cards:          make([]cardView, 0, len(snap.Board)),
		CompletionRate: formatPercent(snap.CompletionRate),
		Streak:         snap.Streak,
	}
	for _, c := range snap.Board {
		v.Cards = append(v.Cards, cardView{
			Month:     c.Month.String(),
			Status:    string(c.Status),
			Label:     statusLabel(c.Status),
			Amount:    formatDollars(c.Amount.Cents),
			Clickable: c.Depositable,
		})
	}
	return v
}

// handleSimulator renders the withdrawal breakdown for ?months=N. Without a
// value the simulator starts at the number of filled months.
func (s *Server) handleSimulator(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	months := ParseMonthsParam(r.URL.Query(), snap.MonthsCompleted)

	sim, err := s.vault.Simulate(r.Context(), s.profileID, months)
	if err != nil {
		s.events.LogError(r.Context(), "Failed to simulate withdrawal", err, log.ComponentHTTP, log.OpRead,
			log.NewFields().WithProfileID(s.profileID))
		ErrorResponse(http.StatusInternalServerError, "Could not load your vault").Write(w)
		return
	}
	s.render(w, r, "simulator.html", newSimulatorView(sim, snap.Strategies))
}

func newSimulatorView(sim core.Simulation, strategies []core.Scenario) simulatorView {
	v := simulatorView{
		Months:    sim.Months,
		Max:       core.VaultMonths,
		Deposited: formatWholeDollars(sim.Deposited),
		Interest:  formatDollarFloat(sim.Interest),
		Penalty:   "-" + formatWholeDollars(sim.Penalty),
		Total:     formatDollarFloat(sim.Total),
		IsEarly:   sim.IsEarly,
		Status:    statusEligible,
	}
	if sim.IsEarly {
		v.Status = statusEarly
	}
	for _, sc := range strategies {
		v.Strategies = append(v.Strategies, strategyView{
			Name:        sc.Name,
			Months:      sc.Months,
			Total:       formatDollarFloat(sc.ProjectedTotal),
			AvailableAt: sc.AvailableAt.Format("Jan 2, 2006"),
		})
	}
	return v
}
