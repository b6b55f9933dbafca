package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-zwave/internal/command"
	"github.com/nerrad567/gray-logic-zwave/internal/process"
)

// Defaults applied by New for zero Config fields.
const (
	DefaultAddress      = ":5000"
	DefaultBufferSize   = 1024
	DefaultReadTimeout  = 5 * time.Second
	DefaultWriteTimeout = 5 * time.Second
)

// acceptBackoff is the pause after a transient accept error.
const acceptBackoff = 100 * time.Millisecond

// Dispatcher executes one raw request. command.Dispatcher satisfies it.
type Dispatcher interface {
	Dispatch(ctx context.Context, raw string) command.Result
}

// Controller is the part of zwave.Manager the teardown needs.
type Controller interface {
	RemoveWatcher() error
	Destroy() error
}

// Registry is cleared during teardown. node.Registry satisfies it.
type Registry interface {
	Clear()
}

// Queue is the reactor's notification queue, closed during teardown.
type Queue interface {
	Close()
}

// ScriptRunner runs the host script for a stop action. process.Runner
// satisfies it.
type ScriptRunner interface {
	Run(ctx context.Context, action string) (*process.Result, error)
}

// Logger defines the logging interface used by the Server.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Config configures the socket server.
type Config struct {
	Address      string
	BufferSize   int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Deps are the collaborators the server drives. Dispatcher is required; the
// rest are optional and skipped during teardown when nil.
type Deps struct {
	Dispatcher Dispatcher
	Controller Controller
	Registry   Registry
	Queue      Queue
	Runner     ScriptRunner
}

// Server is the sequential command socket.
type Server struct {
	cfg  Config
	deps Deps

	mu       sync.Mutex
	listener net.Listener

	teardownOnce sync.Once
	logger       Logger
}

// New creates a Server. Call Listen, then Serve.
func New(cfg Config, deps Deps) *Server {
	if cfg.Address == "" {
		cfg.Address = DefaultAddress
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultBufferSize
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	return &Server{cfg: cfg, deps: deps, logger: noopLogger{}}
}

// SetLogger sets the logger for the server.
func (s *Server) SetLogger(logger Logger) {
	s.logger = logger
}

// Listen binds the configured address.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return ErrAlreadyListening
	}

	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return fmt.Errorf("listen tcp %s: %w", s.cfg.Address, err)
	}
	s.listener = ln
	s.logger.Info("command socket listening", "address", ln.Addr().String())
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve accepts and answers connections one at a time until a command asks
// to stop or ctx is cancelled, then tears down. It returns the stop action
// that ended the loop (StopNone on cancellation) and the script error, if any.
func (s *Server) Serve(ctx context.Context) (command.Stop, error) {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln == nil {
		return command.StopNone, ErrNotListening
	}

	// Unblock Accept on cancellation.
	stopAfter := context.AfterFunc(ctx, func() {
		ln.Close() //nolint:errcheck // closing to unblock Accept
	})
	defer stopAfter()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.logger.Info("command socket stopping", "reason", "context cancelled")
				s.teardown(ctx, command.StopNone) //nolint:errcheck // no script runs without a stop action
				return command.StopNone, nil
			}
			s.logger.Warn("accept failed", "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(acceptBackoff):
			}
			continue
		}

		res, ok := s.handle(ctx, conn)
		if ok && res.Stop != command.StopNone {
			s.logger.Info("stop requested", "command", res.Command, "action", res.Stop.String())
			return res.Stop, s.teardown(ctx, res.Stop)
		}
	}
}

// handle serves a single connection: one bounded read, one response.
func (s *Server) handle(ctx context.Context, conn net.Conn) (command.Result, bool) {
	defer conn.Close() //nolint:errcheck // connection is single-use

	remote := conn.RemoteAddr().String()
	if err := conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout)); err != nil {
		s.logger.Debug("setting read deadline", "remote", remote, "error", err)
	}

	buf := make([]byte, s.cfg.BufferSize)
	n, err := conn.Read(buf)
	if n == 0 {
		if err != nil {
			s.logger.Warn("reading request failed", "remote", remote, "error", err)
		}
		return command.Result{}, false
	}

	res := s.deps.Dispatcher.Dispatch(ctx, string(buf[:n]))

	if err := conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
		s.logger.Debug("setting write deadline", "remote", remote, "error", err)
	}
	out := make([]byte, 0, len(res.Response)+1)
	out = append(out, res.Response...)
	out = append(out, '\n')
	if _, err := conn.Write(out); err != nil {
		s.logger.Warn("writing response failed", "remote", remote, "command", res.Command, "error", err)
	}

	s.logger.Debug("request served", "remote", remote, "command", res.Command, "status", res.Status())
	return res, true
}

// teardown runs the ordered shutdown once. Step failures are logged and do
// not prevent later steps; only the script error is returned.
func (s *Server) teardown(ctx context.Context, stop command.Stop) error {
	var scriptErr error
	s.teardownOnce.Do(func() {
		if c := s.deps.Controller; c != nil {
			if err := c.RemoveWatcher(); err != nil {
				s.logger.Warn("removing watcher failed", "error", err)
			}
			if err := c.Destroy(); err != nil {
				s.logger.Warn("destroying controller failed", "error", err)
			}
		}
		// The queue goes first so no pending notification can repopulate
		// the registry after it is cleared.
		if s.deps.Queue != nil {
			s.deps.Queue.Close()
		}
		if s.deps.Registry != nil {
			s.deps.Registry.Clear()
		}

		s.mu.Lock()
		if s.listener != nil {
			if err := s.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
				s.logger.Warn("closing listener failed", "error", err)
			}
		}
		s.mu.Unlock()

		if stop == command.StopNone || s.deps.Runner == nil {
			return
		}
		// Detached: the script may itself trigger the signal that cancels ctx.
		res, err := s.deps.Runner.Run(context.WithoutCancel(ctx), stop.String())
		if errors.Is(err, process.ErrNoScript) {
			s.logger.Info("no script configured for stop action", "action", stop.String())
			return
		}
		if err != nil {
			scriptErr = fmt.Errorf("running %s script: %w", stop, err)
			return
		}
		s.logger.Info("stop script completed", "action", stop.String(), "exit_code", res.ExitCode)
	})
	return scriptErr
}
