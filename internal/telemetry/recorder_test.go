package telemetry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-zwave/internal/mode"
	"github.com/nerrad567/gray-logic-zwave/internal/node"
)

// recordingSink implements every sink interface and logs each call.
type recordingSink struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (s *recordingSink) add(call string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
	return s.err
}

func (s *recordingSink) list() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *recordingSink) NodeStatus(_ context.Context, n node.NodeInfo) error {
	return s.add(fmt.Sprintf("status %d dead=%v", n.NodeID, n.IsDead))
}

func (s *recordingSink) NodeRemoved(_ context.Context, _ uint32, nodeID uint8) error {
	return s.add(fmt.Sprintf("removed %d", nodeID))
}

func (s *recordingSink) Liveness(_ context.Context, alive, dead int) error {
	return s.add(fmt.Sprintf("liveness %d/%d", alive, dead))
}

func (s *recordingSink) ModeChanged(_ context.Context, m mode.Mode) error {
	return s.add("mode " + m.Name)
}

type countingLogger struct {
	mu    sync.Mutex
	warns int
}

func (l *countingLogger) Debug(string, ...any) {}
func (l *countingLogger) Info(string, ...any)  {}
func (l *countingLogger) Error(string, ...any) {}

func (l *countingLogger) Warn(string, ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns++
}

func runRecorder(t *testing.T, r *Recorder) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = r.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return cancel
}

func waitCalls(t *testing.T, s *recordingSink, n int) []string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if calls := s.list(); len(calls) >= n {
			return calls
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("sink saw %v, want %d calls", s.list(), n)
	return nil
}

func TestRecorder_DeliversInOrder(t *testing.T) {
	a, b := &recordingSink{}, &recordingSink{}
	r := NewRecorder(Config{
		Nodes:    []NodeSink{a, b},
		Liveness: []LivenessSink{a},
		Modes:    []ModeSink{a},
	})
	runRecorder(t, r)

	n := node.NewNodeInfo(1, 5)
	r.PublishNodeStatus(n)
	r.RecordLiveness(context.Background(), 2, 1)
	r.ModeChanged(mode.Mode{Name: "debug"})
	r.PublishNodeRemoved(1, 5)

	want := []string{"status 5 dead=true", "liveness 2/1", "mode debug", "removed 5"}
	got := waitCalls(t, a, len(want))
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, got[i], want[i])
		}
	}
	if got := waitCalls(t, b, 2); got[0] != "status 5 dead=true" || got[1] != "removed 5" {
		t.Errorf("node-only sink saw %v", got)
	}
}

func TestRecorder_CopiesNode(t *testing.T) {
	s := &recordingSink{}
	r := NewRecorder(Config{Nodes: []NodeSink{s}})

	n := node.NewNodeInfo(1, 3)
	r.PublishNodeStatus(n)
	n.IsDead = false

	runRecorder(t, r)
	if got := waitCalls(t, s, 1); got[0] != "status 3 dead=true" {
		t.Errorf("sink saw %v, want the state at enqueue time", got)
	}
}

func TestRecorder_DropsWhenFull(t *testing.T) {
	logger := &countingLogger{}
	r := NewRecorder(Config{QueueSize: 2})
	r.SetLogger(logger)

	for i := 0; i < 5; i++ {
		r.PublishNodeRemoved(1, uint8(i))
	}

	if r.Pending() != 2 {
		t.Errorf("Pending() = %d, want 2", r.Pending())
	}
	if r.Dropped() != 3 {
		t.Errorf("Dropped() = %d, want 3", r.Dropped())
	}
	if logger.warns != 3 {
		t.Errorf("warnings = %d, want 3", logger.warns)
	}
}

func TestRecorder_SinkErrorsAreLogged(t *testing.T) {
	logger := &countingLogger{}
	failing := &recordingSink{err: errors.New("broker down")}
	healthy := &recordingSink{}
	r := NewRecorder(Config{Liveness: []LivenessSink{failing, healthy}})
	r.SetLogger(logger)
	runRecorder(t, r)

	r.RecordLiveness(context.Background(), 1, 0)
	waitCalls(t, healthy, 1)

	logger.mu.Lock()
	defer logger.mu.Unlock()
	if logger.warns != 1 {
		t.Errorf("warnings = %d, want 1", logger.warns)
	}
}

func TestRecorder_DrainsOnCancel(t *testing.T) {
	s := &recordingSink{}
	r := NewRecorder(Config{Nodes: []NodeSink{s}})
	for i := 1; i <= 3; i++ {
		r.PublishNodeRemoved(1, uint8(i))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := r.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := s.list(); len(got) != 3 {
		t.Errorf("delivered %v, want 3 events", got)
	}
}

// stuckSink blocks every call until ctx is done.
type stuckSink struct {
	calls atomic.Int32
}

func (s *stuckSink) NodeStatus(ctx context.Context, _ node.NodeInfo) error {
	s.calls.Add(1)
	<-ctx.Done()
	return ctx.Err()
}

func (s *stuckSink) NodeRemoved(ctx context.Context, _ uint32, _ uint8) error {
	s.calls.Add(1)
	<-ctx.Done()
	return ctx.Err()
}

func TestRecorder_DrainIsBounded(t *testing.T) {
	s := &stuckSink{}
	r := NewRecorder(Config{Nodes: []NodeSink{s}, DrainTimeout: 20 * time.Millisecond})
	for i := 1; i <= 3; i++ {
		r.PublishNodeRemoved(1, uint8(i))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after the drain timeout")
	}
	if s.calls.Load() == 0 {
		t.Error("sink was never called")
	}
}
