package liveness

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-zwave/internal/node"
	"github.com/nerrad567/gray-logic-zwave/internal/zwave"
	"github.com/nerrad567/gray-logic-zwave/internal/zwave/sim"
)

const testHomeID uint32 = 0xBEEF0001

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

type recordingSink struct {
	mu          sync.Mutex
	alive, dead int
	calls       int
}

func (s *recordingSink) RecordLiveness(_ context.Context, alive, dead int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alive, s.dead = alive, dead
	s.calls++
}

type recordingPublisher struct {
	mu       sync.Mutex
	statuses []node.NodeInfo
}

func (p *recordingPublisher) PublishNodeStatus(n node.NodeInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.statuses = append(p.statuses, n)
}

func (p *recordingPublisher) PublishNodeRemoved(uint32, uint8) {}

// addBatteryNode registers a node with a wake-up interval of seconds and a
// last sync at lastSync.
func addBatteryNode(t *testing.T, ctrl *sim.Controller, reg *node.Registry, id uint8, seconds string, lastSync time.Time) {
	t.Helper()
	v := zwave.MakeValueID(testHomeID, id, zwave.CommandClassWakeUp, 1, zwave.WakeUpIntervalIndex, zwave.ValueTypeInt, zwave.GenreSystem)
	ctrl.AddSimValueWithID(v, "Wake-up Interval", seconds)

	reg.Upsert(node.NewNodeInfo(testHomeID, id))
	reg.AddValue(id, v)
	if !lastSync.IsZero() {
		reg.MarkAlive(id, lastSync)
	}
}

func TestIsDead(t *testing.T) {
	t0 := time.Date(2026, 6, 1, 12, 0, 0, 0, time.Local)
	const w = 3600 * time.Second

	tests := []struct {
		name     string
		now      time.Time
		lastSync time.Time
		want     bool
	}{
		{"within interval", t0.Add(w - time.Second), t0, false},
		{"exactly at interval", t0.Add(w), t0, false},
		{"past interval", t0.Add(w + time.Second), t0, true},
		{"never synced", t0, time.Time{}, true},
		{"synced during nightly hour", time.Date(2026, 6, 1, 0, 10, 0, 0, time.Local), time.Date(2026, 6, 1, 0, 5, 0, 0, time.Local), true},
		{"synced just after nightly hour", time.Date(2026, 6, 1, 1, 10, 0, 0, time.Local), time.Date(2026, 6, 1, 1, 0, 0, 0, time.Local), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDead(tt.now, tt.lastSync, w); got != tt.want {
				t.Errorf("IsDead() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMonitor_CheckFollowsWakeUpInterval(t *testing.T) {
	t0 := time.Date(2026, 6, 1, 12, 0, 0, 0, time.Local)
	clock := &fakeClock{now: t0}
	ctrl := sim.New(testHomeID)
	reg := node.NewRegistry(nil)
	pub := &recordingPublisher{}
	sink := &recordingSink{}

	addBatteryNode(t, ctrl, reg, 5, "300", t0)
	m := New(reg, ctrl, Config{Clock: clock, Publisher: pub, Sink: sink})

	clock.Set(t0.Add(299 * time.Second))
	if flips := m.Check(context.Background()); flips != 0 {
		t.Errorf("Check() flips = %d before interval elapsed, want 0", flips)
	}
	if n, _ := reg.Get(5); n.IsDead {
		t.Fatal("node 5 dead before its wake-up interval elapsed")
	}

	clock.Set(t0.Add(301 * time.Second))
	if flips := m.Check(context.Background()); flips != 1 {
		t.Errorf("Check() flips = %d after interval elapsed, want 1", flips)
	}
	if n, _ := reg.Get(5); !n.IsDead {
		t.Error("node 5 alive after its wake-up interval elapsed")
	}

	if len(pub.statuses) != 1 || pub.statuses[0].NodeID != 5 || !pub.statuses[0].IsDead {
		t.Errorf("published statuses = %+v, want one dead status for node 5", pub.statuses)
	}
	if sink.calls != 2 || sink.alive != 0 || sink.dead != 1 {
		t.Errorf("sink = %+v, want 2 calls ending alive=0 dead=1", sink)
	}
}

func TestMonitor_RevivesWhenSyncIsRecent(t *testing.T) {
	t0 := time.Date(2026, 6, 1, 12, 0, 0, 0, time.Local)
	clock := &fakeClock{now: t0.Add(10 * time.Second)}
	ctrl := sim.New(testHomeID)
	reg := node.NewRegistry(nil)

	addBatteryNode(t, ctrl, reg, 5, "300", t0)
	reg.Classify(func(n node.NodeInfo) (bool, bool) { return true, n.NodeID == 5 })

	m := New(reg, ctrl, Config{Clock: clock})
	m.Check(context.Background())

	if n, _ := reg.Get(5); n.IsDead {
		t.Error("node 5 still dead with a recent sync")
	}
}

func TestMonitor_SkipsNodesWithoutInterval(t *testing.T) {
	t0 := time.Date(2026, 6, 1, 12, 0, 0, 0, time.Local)
	clock := &fakeClock{now: t0.Add(24 * time.Hour)}
	ctrl := sim.New(testHomeID)
	reg := node.NewRegistry(nil)

	// mains-powered node with no wake-up value
	reg.Upsert(node.NewNodeInfo(testHomeID, 6))
	reg.MarkAlive(6, t0)

	// wake-up value the controller cannot read
	addBatteryNode(t, ctrl, reg, 7, "not-a-number", t0)

	// zero interval
	addBatteryNode(t, ctrl, reg, 8, "0", t0)

	// controller itself
	reg.Upsert(node.NewNodeInfo(testHomeID, zwave.ControllerNodeID))

	m := New(reg, ctrl, Config{Clock: clock})
	if flips := m.Check(context.Background()); flips != 0 {
		t.Errorf("Check() flips = %d, want 0", flips)
	}
	for _, id := range []uint8{6, 7, 8} {
		if n, _ := reg.Get(id); n.IsDead {
			t.Errorf("node %d marked dead, want untouched", id)
		}
	}
}

func TestMonitor_ControllerUnavailable(t *testing.T) {
	t0 := time.Date(2026, 6, 1, 12, 0, 0, 0, time.Local)
	clock := &fakeClock{now: t0.Add(time.Hour)}
	ctrl := sim.New(testHomeID)
	reg := node.NewRegistry(nil)
	addBatteryNode(t, ctrl, reg, 5, "60", t0)
	ctrl.SetUnavailable(true)

	m := New(reg, ctrl, Config{Clock: clock})
	m.Check(context.Background())

	if n, _ := reg.Get(5); n.IsDead {
		t.Error("node 5 marked dead while its interval was unreadable")
	}
}

func TestMonitor_SetInterval(t *testing.T) {
	m := New(node.NewRegistry(nil), sim.New(testHomeID), Config{})
	if got := m.Interval(); got != DefaultInterval {
		t.Errorf("Interval() = %v, want %v", got, DefaultInterval)
	}

	m.SetInterval(5 * time.Second)
	if got := m.Interval(); got != 5*time.Second {
		t.Errorf("Interval() = %v, want 5s", got)
	}
	m.SetInterval(0)
	if got := m.Interval(); got != 5*time.Second {
		t.Errorf("Interval() = %v after SetInterval(0), want unchanged", got)
	}
}

func TestMonitor_RunTicks(t *testing.T) {
	sink := &recordingSink{}
	m := New(node.NewRegistry(nil), sim.New(testHomeID), Config{Interval: time.Hour, Sink: sink})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	m.SetInterval(10 * time.Millisecond)

	deadline := time.Now().Add(2 * time.Second)
	for {
		sink.mu.Lock()
		calls := sink.calls
		sink.mu.Unlock()
		if calls > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("Run() did not tick after SetInterval")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() error = %v", err)
	}
}
