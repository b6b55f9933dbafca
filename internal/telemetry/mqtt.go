package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-zwave/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-zwave/internal/mode"
	"github.com/nerrad567/gray-logic-zwave/internal/node"
)

// Publisher is the part of mqtt.Client the MQTT sink uses.
type Publisher interface {
	PublishJSON(topic string, v any, retained bool) error
	PublishRetained(topic string, payload []byte) error
}

// NodeStatus is the retained payload on the per-node topic.
type NodeStatus struct {
	HomeID   string `json:"homeId"`
	NodeID   uint8  `json:"nodeId"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	IsDead   bool   `json:"isDead"`
	LastSync string `json:"lastSync,omitempty"`
	Values   int    `json:"values"`
}

// LivenessTotals is the retained payload on the liveness topic.
type LivenessTotals struct {
	Alive     int    `json:"alive"`
	Dead      int    `json:"dead"`
	Total     int    `json:"total"`
	Timestamp string `json:"timestamp"`
}

// ModeStatus is the retained payload on the mode topic.
type ModeStatus struct {
	Mode         string `json:"mode"`
	Log          string `json:"log"`
	PollInterval int    `json:"pollInterval"`
}

// MQTTSink publishes node status, liveness totals and mode changes as
// retained messages.
type MQTTSink struct {
	pub    Publisher
	topics mqtt.Topics
	now    func() time.Time
}

// NewMQTTSink creates a sink publishing under topics.
func NewMQTTSink(pub Publisher, topics mqtt.Topics) *MQTTSink {
	return &MQTTSink{pub: pub, topics: topics, now: time.Now}
}

// NewNodeStatus converts a registry record to its published form.
func NewNodeStatus(n node.NodeInfo) NodeStatus {
	s := NodeStatus{
		HomeID: fmt.Sprintf("0x%08x", n.HomeID),
		NodeID: n.NodeID,
		Name:   n.Name,
		Type:   n.Type,
		IsDead: n.IsDead,
		Values: len(n.Values),
	}
	if !n.LastSync.IsZero() {
		s.LastSync = n.LastSync.UTC().Format(time.RFC3339)
	}
	return s
}

// NodeStatus publishes n on its node topic.
func (s *MQTTSink) NodeStatus(_ context.Context, n node.NodeInfo) error {
	return s.pub.PublishJSON(s.topics.NodeState(n.NodeID), NewNodeStatus(n), true)
}

// NodeRemoved clears the retained message of a removed node.
func (s *MQTTSink) NodeRemoved(_ context.Context, _ uint32, nodeID uint8) error {
	return s.pub.PublishRetained(s.topics.NodeState(nodeID), nil)
}

// Liveness publishes the totals of a sweep.
func (s *MQTTSink) Liveness(_ context.Context, alive, dead int) error {
	return s.pub.PublishJSON(s.topics.Liveness(), LivenessTotals{
		Alive:     alive,
		Dead:      dead,
		Total:     alive + dead,
		Timestamp: s.now().UTC().Format(time.RFC3339),
	}, true)
}

// ModeChanged publishes the new mode.
func (s *MQTTSink) ModeChanged(_ context.Context, m mode.Mode) error {
	return s.pub.PublishJSON(s.topics.Mode(), ModeStatus{
		Mode:         m.Name,
		Log:          m.Log.String(),
		PollInterval: m.PollInterval,
	}, true)
}
