package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"vaultscore/internal/log"
	"vaultscore/internal/middleware/ratelimit"
	"vaultscore/internal/middleware/security"
	"vaultscore/internal/middleware/trace"
	"vaultscore/internal/services"
	appweb "vaultscore/web"
)

// Server serves the vault UI and its JSON snapshot for one profile.
type Server struct {
	http.Server

	vault     *services.VaultService
	profileID string
	templates *template.Template

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	headers  *security.HeadersMiddleware

	logger     *log.Logger
	events     *log.StructuredLogger
	appMetrics *appMetrics

	shutdownOnce sync.Once
}

// appMetrics counts deposit outcomes for /metrics.
type appMetrics struct {
	deposits  int64
	rejected  int64
	conflicts int64
	failures  int64
	started   time.Time
}

type serverOptions struct {
	logger      *log.Logger
	templatesFS fs.FS
	staticFS    fs.FS
	rateLimit   ratelimit.Config
}

// ServerOption configures NewServer.
type ServerOption func(*serverOptions)

// WithLogger sets the server logger.
func WithLogger(l *log.Logger) ServerOption {
	return func(o *serverOptions) { o.logger = l }
}

// WithTemplates replaces the embedded templates. fsys must hold templates/*.html.
func WithTemplates(fsys fs.FS) ServerOption {
	return func(o *serverOptions) { o.templatesFS = fsys }
}

// WithRateLimit overrides the POST rate limit.
func WithRateLimit(cfg ratelimit.Config) ServerOption {
	return func(o *serverOptions) { o.rateLimit = cfg }
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, vault *services.VaultService, profileID string, opts ...ServerOption) *Server {
	o := serverOptions{
		templatesFS: appweb.TemplatesFS,
		staticFS:    appweb.StaticFS,
		rateLimit:   ratelimit.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.Discard()
	}

	logger := o.logger.WithComponent(log.ComponentHTTP)
	s := &Server{
		vault:      vault,
		profileID:  profileID,
		limiter:    ratelimit.NewLimiter(o.rateLimit),
		detector:   security.NewDetector(o.logger),
		headers:    security.NewHeadersMiddleware(security.DefaultHeadersConfig()),
		logger:     logger,
		events:     log.NewStructuredLogger(logger),
		appMetrics: &appMetrics{started: time.Now()},
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP, o.logger)

	// Parse embedded templates at startup.
	t, err := template.ParseFS(o.templatesFS, "templates/*.html")
	if err != nil {
		logger.WithComponent(log.ComponentTemplate).Warn("Failed parsing templates", log.FieldError, err)
	} else {
		s.templates = t
	}

	mux := http.NewServeMux()

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(o.staticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	limitDeposits := s.limiter.Middleware(s.detector.ExtractClientIP, s.handleRateLimited, http.MethodPost)

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.Handle("POST /deposits", limitDeposits(http.HandlerFunc(s.handleCreateDeposit)))

	// UI partials
	mux.HandleFunc("GET /ui/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /ui/tracker", s.handleTracker)
	mux.HandleFunc("GET /ui/simulator", s.handleSimulator)

	mux.HandleFunc("GET /api/vault", s.handleVault)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.detector.Middleware(s.tracer.Middleware(s.headers.Middleware(mux))),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown stops background goroutines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		s.logger.Info("Shutting down HTTP server", log.FieldOperation, log.OpShutdown)
		s.limiter.Stop()
	})
	return s.Server.Shutdown(ctx)
}

// now is the instant every rendered figure is computed against.
func (s *Server) now() time.Time {
	return s.vault.Clock().Now()
}
