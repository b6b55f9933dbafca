package telemetry

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/nerrad567/gray-logic-zwave/internal/mode"
	"github.com/nerrad567/gray-logic-zwave/internal/node"
)

const (
	// DefaultQueueSize bounds the recorder's backlog.
	DefaultQueueSize = 256

	// DefaultDrainTimeout bounds delivery of the backlog after Run's
	// context is cancelled.
	DefaultDrainTimeout = 5 * time.Second
)

// NodeSink receives node status changes.
type NodeSink interface {
	NodeStatus(ctx context.Context, n node.NodeInfo) error
	NodeRemoved(ctx context.Context, homeID uint32, nodeID uint8) error
}

// LivenessSink receives the totals of each liveness sweep.
type LivenessSink interface {
	Liveness(ctx context.Context, alive, dead int) error
}

// ModeSink receives operating mode changes.
type ModeSink interface {
	ModeChanged(ctx context.Context, m mode.Mode) error
}

// Logger defines the logging interface used by the Recorder.
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

// Config lists the sinks a Recorder feeds. Every slice is optional.
type Config struct {
	Nodes        []NodeSink
	Liveness     []LivenessSink
	Modes        []ModeSink
	QueueSize    int
	DrainTimeout time.Duration
}

type eventKind int

const (
	eventNodeStatus eventKind = iota
	eventNodeRemoved
	eventLiveness
	eventMode
)

type event struct {
	kind   eventKind
	node   node.NodeInfo
	homeID uint32
	nodeID uint8
	alive  int
	dead   int
	mode   mode.Mode
}

// Recorder decouples the registry, the liveness monitor and the command
// dispatcher from slow outputs. Producers enqueue without blocking; Run
// delivers events to the sinks in order on a single goroutine. When the
// queue is full the event is dropped and counted.
//
// Recorder satisfies node.StatusPublisher, liveness.CountSink and
// command.ModeListener.
type Recorder struct {
	cfg     Config
	events  chan event
	dropped atomic.Uint64
	logger  Logger
}

// NewRecorder creates a Recorder. Call Run to start delivery.
func NewRecorder(cfg Config) *Recorder {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = DefaultDrainTimeout
	}
	return &Recorder{
		cfg:    cfg,
		events: make(chan event, cfg.QueueSize),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the recorder.
func (r *Recorder) SetLogger(logger Logger) {
	r.logger = logger
}

// Dropped returns how many events were discarded on a full queue.
func (r *Recorder) Dropped() uint64 {
	return r.dropped.Load()
}

// Pending returns the number of queued events.
func (r *Recorder) Pending() int {
	return len(r.events)
}

func (r *Recorder) enqueue(e event) {
	select {
	case r.events <- e:
	default:
		r.dropped.Add(1)
		r.logger.Warn("dropping telemetry event", "error", ErrQueueFull, "kind", int(e.kind))
	}
}

// PublishNodeStatus queues a node status change.
func (r *Recorder) PublishNodeStatus(n node.NodeInfo) {
	r.enqueue(event{kind: eventNodeStatus, node: n.DeepCopy()})
}

// PublishNodeRemoved queues a node removal.
func (r *Recorder) PublishNodeRemoved(homeID uint32, nodeID uint8) {
	r.enqueue(event{kind: eventNodeRemoved, homeID: homeID, nodeID: nodeID})
}

// RecordLiveness queues the totals of a liveness sweep.
func (r *Recorder) RecordLiveness(_ context.Context, alive, dead int) {
	r.enqueue(event{kind: eventLiveness, alive: alive, dead: dead})
}

// ModeChanged queues an operating mode change.
func (r *Recorder) ModeChanged(m mode.Mode) {
	r.enqueue(event{kind: eventMode, mode: m})
}

// Run delivers events until ctx is cancelled. Events still queued at that
// point are delivered before Run returns, within Config.DrainTimeout; sinks
// see the drain context expire and whatever is left is discarded.
func (r *Recorder) Run(ctx context.Context) error {
	for {
		select {
		case e := <-r.events:
			r.deliver(ctx, e)
		case <-ctx.Done():
			drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.cfg.DrainTimeout)
			r.drain(drainCtx)
			cancel()
			return nil
		}
	}
}

func (r *Recorder) drain(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			if n := len(r.events); n > 0 {
				r.logger.Warn("telemetry drain timed out", "discarded", n)
			}
			return
		}
		select {
		case e := <-r.events:
			r.deliver(ctx, e)
		default:
			return
		}
	}
}

func (r *Recorder) deliver(ctx context.Context, e event) {
	switch e.kind {
	case eventNodeStatus:
		for _, s := range r.cfg.Nodes {
			r.check(s.NodeStatus(ctx, e.node), "node status", "node", e.node.NodeID)
		}
	case eventNodeRemoved:
		for _, s := range r.cfg.Nodes {
			r.check(s.NodeRemoved(ctx, e.homeID, e.nodeID), "node removed", "node", e.nodeID)
		}
	case eventLiveness:
		for _, s := range r.cfg.Liveness {
			r.check(s.Liveness(ctx, e.alive, e.dead), "liveness")
		}
	case eventMode:
		for _, s := range r.cfg.Modes {
			r.check(s.ModeChanged(ctx, e.mode), "mode", "mode", e.mode.Name)
		}
	}
}

func (r *Recorder) check(err error, what string, args ...any) {
	if err == nil {
		return
	}
	r.logger.Warn("telemetry sink failed", append([]any{"event", what, "error", err}, args...)...)
}
