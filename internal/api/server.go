package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/nerrad567/gray-logic-zwave/internal/audit"
	"github.com/nerrad567/gray-logic-zwave/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-zwave/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-zwave/internal/mode"
	"github.com/nerrad567/gray-logic-zwave/internal/node"
	"github.com/nerrad567/gray-logic-zwave/internal/telemetry"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// NodeSource is the part of node.Registry the API reads.
type NodeSource interface {
	HomeID() uint32
	All() []node.NodeInfo
	Get(nodeID uint8) (node.NodeInfo, bool)
	CountAlive() int
	CountDead() int
}

// SnapshotSource lists persisted node snapshots.
type SnapshotSource interface {
	List(ctx context.Context) ([]telemetry.Snapshot, error)
	Get(ctx context.Context, homeID uint32, nodeID uint8) (telemetry.Snapshot, error)
}

// ModeSource reports the active operating mode.
type ModeSource interface {
	Current() mode.Mode
}

// HealthChecker is implemented by every component the health endpoint probes.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// DBStatser exposes connection pool statistics.
type DBStatser interface {
	Stats() sql.DBStats
}

// Deps holds the dependencies required by the API server.
// Only Logger and Registry are mandatory; endpoints whose source is nil
// answer 503.
type Deps struct {
	Config    config.APIConfig
	Logger    *logging.Logger
	Registry  NodeSource
	Modes     ModeSource
	Audit     audit.Repository
	Snapshots SnapshotSource
	Metrics   http.Handler
	DB        DBStatser
	Checks    map[string]HealthChecker
	Version   string
	StartedAt time.Time
}

// Server is the HTTP status server.
type Server struct {
	cfg       config.APIConfig
	logger    *logging.Logger
	registry  NodeSource
	modes     ModeSource
	auditRepo audit.Repository
	snapshots SnapshotSource
	metrics   http.Handler
	db        DBStatser
	checks    map[string]HealthChecker
	version   string
	startTime time.Time
	server    *http.Server
	listener  net.Listener
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (config, logger, registry)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("node registry is required")
	}
	if deps.StartedAt.IsZero() {
		deps.StartedAt = time.Now()
	}

	return &Server{
		cfg:       deps.Config,
		logger:    deps.Logger,
		registry:  deps.Registry,
		modes:     deps.Modes,
		auditRepo: deps.Audit,
		snapshots: deps.Snapshots,
		metrics:   deps.Metrics,
		db:        deps.DB,
		checks:    deps.Checks,
		version:   deps.Version,
		startTime: deps.StartedAt,
	}, nil
}

// Start binds the listener and serves in a background goroutine.
// Bind errors are returned synchronously.
//
// Parameters:
//   - ctx: Context for cancellation (not used for listener lifetime)
//
// Returns:
//   - error: If the server fails to start (port in use, etc.)
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprint(s.cfg.Port))
	ln, err := (&net.ListenConfig{}).Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	s.listener = ln

	s.server = &http.Server{
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	s.logger.Info("API server starting", "address", ln.Addr().String())
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
