package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"vaultscore/internal/core"
	"vaultscore/internal/log"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.started).String(),
	}
	writeJSON(w, http.StatusOK, health)
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	// Check templates
	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if err := s.vault.Ready(ctx); err != nil {
		checks["store"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}

	checks["rate_limiter"] = map[string]any{
		"active_clients": s.limiter.ActiveClients(),
		"status":         "ok",
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	securityMetrics := s.detector.GetMetrics()
	rateLimitMetrics := s.limiter.GetMetrics()
	traceMetrics := s.tracer.GetMetrics()

	deposits := atomic.LoadInt64(&s.appMetrics.deposits)
	rejected := atomic.LoadInt64(&s.appMetrics.rejected)
	conflicts := atomic.LoadInt64(&s.appMetrics.conflicts)
	failures := atomic.LoadInt64(&s.appMetrics.failures)
	uptime := time.Since(s.appMetrics.started)

	w.WriteHeader(http.StatusOK)

	// Write metrics in Prometheus-like format
	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", traceMetrics.TotalRequests)

	fmt.Fprintf(w, "# HELP http_response_time_avg_microseconds Average response time\n")
	fmt.Fprintf(w, "# TYPE http_response_time_avg_microseconds gauge\n")
	fmt.Fprintf(w, "http_response_time_avg_microseconds %d\n\n", traceMetrics.AverageResponseTime)

	fmt.Fprintf(w, "# HELP deposits_total Deposit attempts by outcome\n")
	fmt.Fprintf(w, "# TYPE deposits_total counter\n")
	fmt.Fprintf(w, "deposits_total{outcome=\"recorded\"} %d\n", deposits)
	fmt.Fprintf(w, "deposits_total{outcome=\"rejected\"} %d\n", rejected)
	fmt.Fprintf(w, "deposits_total{outcome=\"conflict\"} %d\n", conflicts)
	fmt.Fprintf(w, "deposits_total{outcome=\"failed\"} %d\n\n", failures)

	fmt.Fprintf(w, "# HELP rate_limit_hits_total Total rate limit hits\n")
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "rate_limit_hits_total %d\n\n", rateLimitMetrics.TotalHits)

	fmt.Fprintf(w, "# HELP active_rate_limit_clients Currently tracked rate limit clients\n")
	fmt.Fprintf(w, "# TYPE active_rate_limit_clients gauge\n")
	fmt.Fprintf(w, "active_rate_limit_clients %d\n\n", rateLimitMetrics.ClientCount)

	fmt.Fprintf(w, "# HELP suspicious_requests_total Total suspicious requests detected\n")
	fmt.Fprintf(w, "# TYPE suspicious_requests_total counter\n")
	fmt.Fprintf(w, "suspicious_requests_total %d\n\n", securityMetrics.SuspiciousRequests)

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n", uptime.Seconds())
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		log.FromContext(r.Context()).WithComponent(log.ComponentTemplate).ErrorContext(r.Context(), "Templates not loaded",
			log.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	data := struct {
		MinDeposit int64
		MaxDeposit int64
	}{
		MinDeposit: core.MinDepositCents / 100,
		MaxDeposit: core.MaxDepositCents / 100,
	}
	s.render(w, r, "index.html", data)
}

// vaultResponse is the /api/vault payload: the stored profile plus every
// derived figure at the time of the request.
type vaultResponse struct {
	Profile core.VaultProfile `json:"profile"`
	Derived derivedJSON       `json:"derived"`
	AsOf    time.Time         `json:"asOf"`
}

type derivedJSON struct {
	AccruedInterest   float64        `json:"accruedInterest"`
	CreditImpact      int            `json:"creditImpact"`
	CompletionRate    float64        `json:"completionRate"`
	Streak            int            `json:"consistencyStreak"`
	MonthsCompleted   int            `json:"monthsCompleted"`
	MonthsRemaining   int            `json:"monthsRemaining"`
	Eligible          bool           `json:"eligible"`
	CurrentSlot       int            `json:"currentSlot"`
	ProjectedTotal    float64        `json:"projectedTotal"`
	ProjectedInterest float64        `json:"projectedInterest"`
	Strategies        []strategyJSON `json:"strategies"`
}

type strategyJSON struct {
	Name           string    `json:"name"`
	Months         int       `json:"months"`
	ProjectedTotal float64   `json:"projectedTotal"`
	AvailableAt    time.Time `json:"availableAt"`
}

// handleVault returns the JSON snapshot of the profile.
func (s *Server) handleVault(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	profile, err := s.vault.Profile(ctx, s.profileID)
	if err != nil {
		s.events.LogError(ctx, "Failed to load profile", err, log.ComponentHTTP, log.OpRead,
			log.NewFields().WithProfileID(s.profileID))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load vault"})
		return
	}

	now := s.now()
	snap := core.Snap(profile, now)
	derived := derivedJSON{
		AccruedInterest:   snap.AccruedInterest,
		CreditImpact:      snap.CreditImpact,
		CompletionRate:    snap.CompletionRate,
		Streak:            snap.Streak,
		MonthsCompleted:   snap.MonthsCompleted,
		MonthsRemaining:   snap.MonthsRemaining,
		Eligible:          snap.Eligible,
		CurrentSlot:       snap.CurrentSlot,
		ProjectedTotal:    snap.Growth.ProjectedTotal,
		ProjectedInterest: snap.Growth.ProjectedInterest,
	}
	for _, sc := range snap.Strategies {
		derived.Strategies = append(derived.Strategies, strategyJSON{
			Name:           sc.Name,
			Months:         sc.Months,
			ProjectedTotal: sc.ProjectedTotal,
			AvailableAt:    sc.AvailableAt,
		})
	}

	writeJSON(w, http.StatusOK, vaultResponse{Profile: profile, Derived: derived, AsOf: now})
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			log.FieldError, err,
			"template", name,
			log.FieldOperation, log.OpRender)
		http.Error(w, "render failed", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
