package telemetry

import (
	"context"
	"time"

	"github.com/nerrad567/gray-logic-zwave/internal/node"
)

// PointWriter is the part of influxdb.Client the time-series sink uses.
type PointWriter interface {
	WriteNodeState(homeID uint32, nodeID uint8, nodeType string, dead bool, lastSync time.Time)
	RecordLiveness(ctx context.Context, alive, dead int)
	WriteCommand(command string, status int)
}

// InfluxSink records node reachability, sweep totals and commands as
// points. It is a NodeSink, a LivenessSink and a command.Observer.
type InfluxSink struct {
	w PointWriter
}

// NewInfluxSink wraps w.
func NewInfluxSink(w PointWriter) *InfluxSink {
	return &InfluxSink{w: w}
}

// NodeStatus writes one zwave_node point.
func (s *InfluxSink) NodeStatus(_ context.Context, n node.NodeInfo) error {
	s.w.WriteNodeState(n.HomeID, n.NodeID, n.Type, n.IsDead, n.LastSync)
	return nil
}

// NodeRemoved is a no-op; history stays in the bucket.
func (s *InfluxSink) NodeRemoved(context.Context, uint32, uint8) error {
	return nil
}

// Liveness writes one zwave_liveness point.
func (s *InfluxSink) Liveness(ctx context.Context, alive, dead int) error {
	s.w.RecordLiveness(ctx, alive, dead)
	return nil
}

// CommandDispatched writes one zwave_command point.
func (s *InfluxSink) CommandDispatched(name string, status int) {
	s.w.WriteCommand(name, status)
}
