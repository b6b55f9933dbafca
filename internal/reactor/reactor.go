package reactor

import (
	"context"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-zwave/internal/node"
	"github.com/nerrad567/gray-logic-zwave/internal/zwave"
)

// Logger defines the logging interface used by the Reactor.
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

// NodeLog appends event lines to per-node log files. node.LogStore satisfies it.
type NodeLog interface {
	Append(nodeID uint8, eventType, commandClass string, index uint8, label string) error
}

// Observer is told about every notification the reactor processes.
type Observer interface {
	NotificationProcessed(t zwave.NotificationType)
}

// Options configures optional collaborators of a Reactor.
type Options struct {
	// Logs receives one line per node event. Optional.
	Logs NodeLog

	// Publisher receives node additions, removals and liveness flips. Optional.
	Publisher node.StatusPublisher

	// Observer counts processed notifications. Optional.
	Observer Observer

	// ResyncNeighborsOnChange requests a neighbor update from the controller
	// whenever a node reports a changed or refreshed value.
	ResyncNeighborsOnChange bool

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// item is one queued unit of work. A non-nil done marks a flush barrier.
type item struct {
	n    zwave.Notification
	done chan struct{}
}

// Reactor applies controller notifications to the Registry.
//
// Handle is registered as the controller's watcher. It only enqueues; a single
// worker started by Run applies events one at a time in arrival order. A
// notification delivered while the worker is itself inside a controller call
// is queued behind the current event instead of being applied recursively.
type Reactor struct {
	registry *node.Registry
	manager  zwave.Manager
	opts     Options
	logger   Logger

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []item
	closed bool
	busy   bool // worker is applying a notification
}

// New creates a Reactor. Call Run to start processing.
func New(registry *node.Registry, manager zwave.Manager, opts Options) *Reactor {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	r := &Reactor{
		registry: registry,
		manager:  manager,
		opts:     opts,
		logger:   noopLogger{},
	}
	r.cond = sync.NewCond(&r.mu)
	return r
}

// SetLogger sets the logger for the reactor.
func (r *Reactor) SetLogger(logger Logger) {
	r.logger = logger
}

// Handle queues a notification. It never blocks on processing and is safe to
// call from any goroutine, including from inside a controller call made by
// the reactor itself. Notifications arriving after Close are dropped.
func (r *Reactor) Handle(n zwave.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.queue = append(r.queue, item{n: n})
	r.cond.Signal()
}

// Run processes queued notifications until ctx is cancelled or Close is called.
func (r *Reactor) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		r.mu.Lock()
		r.cond.Broadcast()
		r.mu.Unlock()
	})
	defer stop()

	for {
		it, ok := r.next(ctx)
		if !ok {
			return nil
		}

		if it.done != nil {
			r.settle(it)
			continue
		}
		r.process(it.n)
		r.idle()
	}
}

func (r *Reactor) idle() {
	r.mu.Lock()
	r.busy = false
	r.cond.Broadcast()
	r.mu.Unlock()
}

// next blocks until an item is available. It returns false when the reactor
// is closed or ctx is done.
func (r *Reactor) next(ctx context.Context) (item, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for len(r.queue) == 0 && !r.closed && ctx.Err() == nil {
		r.cond.Wait()
	}
	if r.closed || ctx.Err() != nil {
		if dropped := len(r.queue); dropped > 0 {
			r.logger.Debug("reactor stopping with queued notifications", "dropped", dropped)
		}
		return item{}, false
	}

	it := r.queue[0]
	r.queue[0] = item{}
	r.queue = r.queue[1:]
	r.busy = it.done == nil
	return it, true
}

// settle releases a flush barrier once nothing is queued behind it, otherwise
// it moves the barrier to the back of the queue.
func (r *Reactor) settle(it item) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.queue) == 0 {
		close(it.done)
		return
	}
	r.queue = append(r.queue, it)
}

// Flush blocks until every notification queued so far, and every notification
// those caused, has been processed. Run must be active.
func (r *Reactor) Flush(ctx context.Context) error {
	done := make(chan struct{})

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	r.queue = append(r.queue, item{done: done})
	r.cond.Signal()
	r.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending returns the number of queued items.
func (r *Reactor) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}

// Close stops the worker and drops anything still queued. It returns once
// the notification being applied, if any, has finished, so nothing touches
// the Registry afterwards. Safe to call twice; must not be called from the
// worker itself.
func (r *Reactor) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.queue = nil
	r.cond.Broadcast()
	for r.busy {
		r.cond.Wait()
	}
}

// process applies one notification. It never panics outward.
func (r *Reactor) process(n zwave.Notification) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("notification handler panicked", "type", n.Type.String(), "node_id", n.NodeID, "panic", rec)
		}
	}()

	if !n.Type.Known() {
		r.logger.Warn("unrecognised notification", "code", uint8(n.Type), "node_id", n.NodeID)
		return
	}

	r.logger.Debug("notification", "type", n.Type.String(), "home_id", n.HomeID, "node_id", n.NodeID)
	r.apply(n)

	if n.Type.LivenessQualifying() {
		r.refreshLiveness(n.NodeID)
	}
	if n.Type.CarriesNode() && n.Type != zwave.NotificationNodeRemoved {
		r.appendLog(n)
	}
	if r.opts.Observer != nil {
		r.opts.Observer.NotificationProcessed(n.Type)
	}
}
