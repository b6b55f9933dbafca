package liveness

import (
	"context"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-zwave/internal/node"
	"github.com/nerrad567/gray-logic-zwave/internal/zwave"
)

// NightlyResetHour is the local hour at which a node's last sync forces it
// dead regardless of its wake-up interval. Kept for compatibility with the
// controller's nightly maintenance window.
const NightlyResetHour = 0

// DefaultInterval is used when no poll interval is configured.
const DefaultInterval = 60 * time.Second

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// ValueReader reads integer values from the controller.
// zwave.Manager satisfies it.
type ValueReader interface {
	GetValueAsInt(v zwave.ValueID) (int32, error)
}

// CountSink receives the alive/dead totals after every pass.
type CountSink interface {
	RecordLiveness(ctx context.Context, alive, dead int)
}

// Logger defines the logging interface used by the Monitor.
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

// Config holds the Monitor's collaborators.
type Config struct {
	// Interval between passes. Default: DefaultInterval.
	Interval time.Duration

	// Clock defaults to the system clock.
	Clock Clock

	// Publisher is told about every node whose dead flag flips. Optional.
	Publisher node.StatusPublisher

	// Sink receives totals after each pass. Optional.
	Sink CountSink
}

// Monitor periodically reclassifies battery nodes as dead or alive from
// their wake-up interval.
type Monitor struct {
	registry *node.Registry
	values   ValueReader
	clock    Clock
	pub      node.StatusPublisher
	sink     CountSink

	mu       sync.Mutex
	interval time.Duration
	reset    chan struct{}

	logger Logger
}

// New creates a Monitor.
//
// Parameters:
//   - registry: the node registry to classify
//   - values: reads each node's wake-up interval
//   - cfg: interval, clock and optional outputs
//
// Returns:
//   - *Monitor: ready to Run
func New(registry *node.Registry, values ValueReader, cfg Config) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = systemClock{}
	}
	return &Monitor{
		registry: registry,
		values:   values,
		clock:    cfg.Clock,
		pub:      cfg.Publisher,
		sink:     cfg.Sink,
		interval: cfg.Interval,
		reset:    make(chan struct{}, 1),
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the monitor.
func (m *Monitor) SetLogger(logger Logger) {
	m.logger = logger
}

// Interval returns the current poll interval.
func (m *Monitor) Interval() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.interval
}

// SetInterval changes the poll interval. A running loop picks it up
// immediately. Non-positive values are ignored.
func (m *Monitor) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	m.mu.Lock()
	changed := m.interval != d
	m.interval = d
	m.mu.Unlock()

	if !changed {
		return
	}
	select {
	case m.reset <- struct{}{}:
	default:
	}
}

// Run checks the registry every interval until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-m.reset:
			ticker.Reset(m.Interval())
			m.logger.Info("liveness interval changed", "interval", m.Interval().String())
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}

// Check runs one classification pass and returns the number of nodes whose
// dead flag changed.
//
// Wake-up intervals are read from the controller before the registry lock is
// taken. A node is dead when more than its interval has elapsed since its
// last sync, or when that sync happened during NightlyResetHour. Nodes
// without a readable, positive wake-up interval are left untouched.
func (m *Monitor) Check(ctx context.Context) int {
	intervals := m.wakeUpIntervals()
	now := m.clock.Now()

	changed := m.registry.Classify(func(n node.NodeInfo) (bool, bool) {
		interval, ok := intervals[n.NodeID]
		if !ok {
			return false, false
		}
		return IsDead(now, n.LastSync, interval), true
	})

	for _, id := range changed {
		info, ok := m.registry.Get(id)
		if !ok {
			continue
		}
		m.logger.Info("node liveness changed", "node_id", id, "dead", info.IsDead)
		if m.pub != nil {
			m.pub.PublishNodeStatus(info)
		}
	}

	if m.sink != nil {
		m.sink.RecordLiveness(ctx, m.registry.CountAlive(), m.registry.CountDead())
	}
	return len(changed)
}

// IsDead applies the wake-up heuristic to one node.
func IsDead(now, lastSync time.Time, wakeUp time.Duration) bool {
	if now.Sub(lastSync) > wakeUp {
		return true
	}
	return lastSync.Local().Hour() == NightlyResetHour
}

func (m *Monitor) wakeUpIntervals() map[uint8]time.Duration {
	intervals := make(map[uint8]time.Duration)
	for _, n := range m.registry.All() {
		if n.IsController() {
			continue
		}
		v, ok := n.WakeUpValue()
		if !ok {
			continue
		}
		seconds, err := m.values.GetValueAsInt(v)
		if err != nil {
			m.logger.Debug("wake-up interval unavailable", "node_id", n.NodeID, "error", err)
			continue
		}
		if seconds <= 0 {
			continue
		}
		intervals[n.NodeID] = time.Duration(seconds) * time.Second
	}
	return intervals
}
