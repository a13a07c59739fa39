package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/repo-auditor/repo-auditor/internal/auditor"
	"github.com/repo-auditor/repo-auditor/internal/config"
	"github.com/repo-auditor/repo-auditor/internal/logging"
	"github.com/repo-auditor/repo-auditor/internal/observability"
	auditrpc "github.com/repo-auditor/repo-auditor/internal/rpc/audit"
	toolrpc "github.com/repo-auditor/repo-auditor/internal/rpc/tools"
	"github.com/repo-auditor/repo-auditor/internal/tools"
	"github.com/repo-auditor/repo-auditor/internal/version"
)

// AuditRunPath serves NDJSON audit streams.
const AuditRunPath = "/audit/run"

// Server hosts health, metrics, tool schema and audit run endpoints.
type Server struct {
	cfg     *config.Config
	logger  *zap.Logger
	runner  auditrpc.Runner
	metrics *observability.Metrics
	tools   *tools.Registry
}

// NewServer constructs a daemon instance.
func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	logger = logging.OrNop(logger)
	metrics := observability.NewMetrics()

	a, err := auditor.New(cfg, logger, metrics)
	if err != nil {
		return nil, err
	}
	runner := &auditrpc.AgentRunner{Agent: a.Agent, Logger: logger.Named("runner")}

	return &Server{cfg: cfg, logger: logger, runner: runner, metrics: metrics, tools: a.Tools}, nil
}

// Handler builds the HTTP routing tree. Connect transport wraps it in h2c.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/metrics", s.metricsHandler)
	mux.Handle("/tools/schemas", toolrpc.SchemaHandler{Registry: s.tools})
	mux.Handle(AuditRunPath, auditrpc.NewHandler(s.runner, s.metrics))

	if s.transport() == "ndjson" {
		return mux
	}
	path, handler := auditrpc.NewConnectHandler(s.runner, s.metrics)
	mux.Handle(path, handler)
	return h2c.NewHandler(mux, &http2.Server{})
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Server.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve runs the server on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting repo-auditor daemon",
			zap.String("addr", ln.Addr().String()),
			zap.String("transport", s.transport()),
			zap.String("version", version.Version))
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down repo-auditor daemon")
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func (s *Server) transport() string {
	t := strings.ToLower(strings.TrimSpace(s.cfg.Server.Transport))
	if t == "" {
		return "connect"
	}
	return t
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = fmt.Fprintf(w, `{"status":"ok","version":%q}`, version.Version)
}

func (s *Server) metricsHandler(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.Server.MetricsEnabled {
		http.NotFound(w, r)
		return
	}

	promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}).ServeHTTP(w, r)
}
