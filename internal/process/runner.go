package process

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// Stop actions a Runner knows about.
const (
	ActionReinstall = "reinstall"
	ActionReboot    = "reboot"
	ActionShutdown  = "shutdown"
)

// outputBufferSize bounds the retained output tail.
const outputBufferSize = 4096

// Config holds configuration for a Runner.
type Config struct {
	// Scripts maps an action to the executable run for it.
	// An empty path disables the action.
	Scripts map[string]string

	// Env are additional environment variables (key=value format).
	// If nil, inherits from parent process.
	Env []string

	// WorkDir is the working directory for scripts.
	// If empty, inherits from parent process.
	WorkDir string

	// Timeout bounds one script run.
	Timeout time.Duration

	// GracefulTimeout is how long to wait after SIGTERM before SIGKILL.
	GracefulTimeout time.Duration
}

// Logger defines the logging interface for the runner.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Result describes one finished script run.
type Result struct {
	Action   string        `json:"action"`
	Script   string        `json:"script"`
	PID      int           `json:"pid,omitempty"`
	ExitCode int           `json:"exit_code"`
	Duration time.Duration `json:"duration"`
	Output   string        `json:"output,omitempty"`
}

// Runner executes stop-action scripts.
type Runner struct {
	config Config
	logger Logger
}

// NewRunner creates a Runner, applying defaults for zero durations.
func NewRunner(cfg Config) *Runner {
	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Minute
	}
	if cfg.GracefulTimeout == 0 {
		cfg.GracefulTimeout = 10 * time.Second
	}
	if cfg.Scripts == nil {
		cfg.Scripts = map[string]string{}
	}
	return &Runner{config: cfg, logger: noopLogger{}}
}

// SetLogger sets the logger for the runner.
func (r *Runner) SetLogger(logger Logger) {
	r.logger = logger
}

// Script returns the executable configured for action.
func (r *Runner) Script(action string) (string, error) {
	switch action {
	case ActionReinstall, ActionReboot, ActionShutdown:
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	path := r.config.Scripts[action]
	if path == "" {
		return "", fmt.Errorf("%w for %s", ErrNoScript, action)
	}
	return path, nil
}

// Run executes the script for action and waits for it to exit.
//
// A non-zero exit is returned as an *exec.ExitError alongside a populated
// Result. When the timeout expires the whole process group receives SIGTERM,
// then SIGKILL after GracefulTimeout, and ErrTimeout is returned.
func (r *Runner) Run(ctx context.Context, action string) (*Result, error) {
	script, err := r.Script(action)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, script) //nolint:gosec // script paths come from validated configuration

	// Own process group so the timeout reaches grandchildren too
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return signalGroup(cmd, syscall.SIGTERM)
	}
	cmd.WaitDelay = r.config.GracefulTimeout

	if r.config.Env != nil {
		cmd.Env = append(os.Environ(), r.config.Env...)
	}
	if r.config.WorkDir != "" {
		cmd.Dir = r.config.WorkDir
	}

	// Capture stdout/stderr for logging
	tail := &tailBuffer{limit: outputBufferSize}
	cmd.Stdout = &streamLogger{runner: r, action: action, stream: "stdout", tail: tail}
	cmd.Stderr = &streamLogger{runner: r, action: action, stream: "stderr", tail: tail}

	r.logger.Info("running stop script", "action", action, "script", script)

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s script: %w", action, err)
	}

	waitErr := cmd.Wait()
	res := &Result{
		Action:   action,
		Script:   script,
		PID:      cmd.Process.Pid,
		ExitCode: cmd.ProcessState.ExitCode(),
		Duration: time.Since(start),
		Output:   tail.String(),
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		// Stragglers that ignored SIGTERM
		if err := signalGroup(cmd, syscall.SIGKILL); err != nil {
			r.logger.Debug("killing process group", "action", action, "error", err)
		}
		r.logger.Error("stop script timed out", "action", action, "timeout", r.config.Timeout)
		return res, fmt.Errorf("%w after %s", ErrTimeout, r.config.Timeout)
	}
	if waitErr != nil {
		r.logger.Warn("stop script failed", "action", action, "exit_code", res.ExitCode, "error", waitErr)
		return res, fmt.Errorf("%s script: %w", action, waitErr)
	}

	r.logger.Info("stop script finished", "action", action, "duration", res.Duration)
	return res, nil
}

// streamLogger logs each chunk a script writes and keeps the most recent
// output in tail.
type streamLogger struct {
	runner *Runner
	action string
	stream string
	tail   *tailBuffer
}

func (w *streamLogger) Write(p []byte) (int, error) {
	w.tail.Write(p) //nolint:errcheck // tailBuffer never fails
	w.runner.logger.Debug("script output",
		"action", w.action,
		"stream", w.stream,
		"output", string(p),
	)
	return len(p), nil
}

// signalGroup signals the process group created via Setpgid.
func signalGroup(cmd *exec.Cmd, sig syscall.Signal) error {
	if cmd.Process == nil {
		return nil
	}
	err := syscall.Kill(-cmd.Process.Pid, sig)
	if errors.Is(err, syscall.ESRCH) {
		return os.ErrProcessDone
	}
	return err
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	data  []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data = append(t.data, p...)
	if over := len(t.data) - t.limit; over > 0 {
		t.data = t.data[over:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.data)
}
