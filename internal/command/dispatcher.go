package command

import (
	"context"
	"strings"
	"time"

	"github.com/nerrad567/gray-logic-zwave/internal/audit"
	"github.com/nerrad567/gray-logic-zwave/internal/mode"
	"github.com/nerrad567/gray-logic-zwave/internal/node"
	"github.com/nerrad567/gray-logic-zwave/internal/zwave"
)

// Stop tells the socket server whether a command ends the process.
type Stop int

// Stop actions.
const (
	StopNone Stop = iota
	StopReinstall
	StopReboot
	StopShutdown
)

var stopNames = [...]string{"none", "reinstall", "reboot", "shutdown"}

// String returns the lower-case action name.
func (s Stop) String() string {
	if int(s) < len(stopNames) {
		return stopNames[s]
	}
	return "unknown"
}

// Result is the outcome of one dispatched request.
type Result struct {
	Command  string
	Args     []string
	Body     *Body
	Response []byte
	Stop     Stop
}

// Status returns the result's status code.
func (r Result) Status() int {
	return r.Body.Status()
}

// Journal records dispatched commands. audit.Journal satisfies it.
type Journal interface {
	Record(e audit.Entry)
	SetLevel(level mode.Level)
}

// IntervalSetter receives the poll interval of a newly selected mode.
// liveness.Monitor satisfies it.
type IntervalSetter interface {
	SetInterval(d time.Duration)
}

// ModeListener is told about every mode accepted by setMode.
type ModeListener interface {
	ModeChanged(m mode.Mode)
}

// ModeListenerFunc adapts a function to ModeListener.
type ModeListenerFunc func(m mode.Mode)

// ModeChanged calls f(m).
func (f ModeListenerFunc) ModeChanged(m mode.Mode) { f(m) }

// Observer is told about every dispatched command.
type Observer interface {
	CommandDispatched(name string, status int)
}

// Logger defines the logging interface used by the Dispatcher.
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

// Config holds the Dispatcher's collaborators. Registry, Manager and Modes
// are required.
type Config struct {
	Registry *node.Registry
	Manager  zwave.Manager
	Modes    *mode.Store

	// Journal records every command. Optional.
	Journal Journal

	// Monitor receives poll interval changes from setMode. Optional.
	Monitor IntervalSetter

	// Publisher is used by broadcast. Optional.
	Publisher node.StatusPublisher

	// Observer counts dispatched commands. Optional.
	Observer Observer

	// ModeListeners run after a successful setMode, in order.
	ModeListeners []ModeListener

	// StartedAt is the process start used for upTime. Defaults to now.
	StartedAt time.Time

	// Now defaults to time.Now.
	Now func() time.Time
}

// Dispatcher validates and executes socket commands.
type Dispatcher struct {
	registry  *node.Registry
	manager   zwave.Manager
	modes     *mode.Store
	journal   Journal
	monitor   IntervalSetter
	publisher node.StatusPublisher
	observer  Observer
	listeners []ModeListener
	startedAt time.Time
	now       func() time.Time

	handlers map[string]handler
	logger   Logger
}

// handler executes one command whose name has already been resolved.
type handler func(ctx context.Context, args []string) (*Body, Stop)

// New creates a Dispatcher.
func New(cfg Config) *Dispatcher {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.StartedAt.IsZero() {
		cfg.StartedAt = cfg.Now()
	}

	d := &Dispatcher{
		registry:  cfg.Registry,
		manager:   cfg.Manager,
		modes:     cfg.Modes,
		journal:   cfg.Journal,
		monitor:   cfg.Monitor,
		publisher: cfg.Publisher,
		observer:  cfg.Observer,
		listeners: cfg.ModeListeners,
		startedAt: cfg.StartedAt,
		now:       cfg.Now,
		logger:    noopLogger{},
	}
	d.handlers = map[string]handler{
		"setValue":  d.setValue,
		"getValue":  d.getValue,
		"refresh":   d.refresh,
		"include":   d.include,
		"exclude":   d.exclude,
		"getNode":   d.getNode,
		"neighbors": d.neighbors,
		"reset":     d.reset,
		"heal":      d.heal,
		"isFailed":  d.isFailed,
		"ping":      d.ping,
		"broadcast": d.broadcast,
		"setMode":   d.setMode,
		"help":      d.help,
		"reboot":    d.reboot,
		"shutdown":  d.shutdown,
	}
	return d
}

// SetLogger sets the logger for the dispatcher.
func (d *Dispatcher) SetLogger(logger Logger) {
	d.logger = logger
}

// ParseRequest splits a raw request into the command name and its
// arguments. Whitespace around tokens is trimmed and empty tokens dropped.
func ParseRequest(raw string) (name string, args []string) {
	for _, tok := range strings.Split(raw, ",") {
		tok = strings.Trim(tok, " \t\r\n\x00")
		if tok == "" {
			continue
		}
		if name == "" {
			name = tok
			continue
		}
		args = append(args, tok)
	}
	return name, args
}

// Dispatch parses and executes one raw request, journals it and returns the
// encoded response. It never returns an error: every failure is expressed
// as a response status.
func (d *Dispatcher) Dispatch(ctx context.Context, raw string) Result {
	name, args := ParseRequest(raw)

	var body *Body
	stop := StopNone
	if h, ok := d.handlers[name]; ok {
		body, stop = d.run(ctx, name, h, args)
	} else {
		body = NewBody(MessageCommandNotFound)
	}

	current := d.modes.Current()
	upTime := d.now().Sub(d.startedAt).Milliseconds()

	resp, err := Encode(name, args, body, upTime, current.Name, current.Log.String())
	if err != nil {
		d.logger.Error("encoding response failed", "command", name, "error", err)
		body = NewBody(MessageManagerError)
		resp, _ = Encode(name, args, body, upTime, current.Name, current.Log.String()) //nolint:errcheck // empty body always encodes
	}

	d.logger.Debug("command dispatched", "command", name, "args", args, "status", body.Status(), "message", string(body.Message))
	if d.journal != nil {
		d.journal.Record(audit.Entry{
			Status:  body.Status(),
			Message: string(body.Message),
			Command: name,
			Args:    args,
			Mode:    current.Name,
		})
	}
	if d.observer != nil {
		d.observer.CommandDispatched(name, body.Status())
	}

	return Result{Command: name, Args: args, Body: body, Response: resp, Stop: stop}
}

// run executes a handler, converting a panic into a manager error response.
func (d *Dispatcher) run(ctx context.Context, name string, h handler, args []string) (body *Body, stop Stop) {
	defer func() {
		if rec := recover(); rec != nil {
			d.logger.Error("command handler panicked", "command", name, "panic", rec)
			body, stop = NewBody(MessageManagerError), StopNone
		}
	}()
	return h(ctx, args)
}
