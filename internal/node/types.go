package node

import (
	"time"

	"github.com/nerrad567/gray-logic-zwave/internal/zwave"
)

// NodeInfo is the registry's record of one physical device.
type NodeInfo struct {
	// Identity
	HomeID uint32 `json:"homeId"`
	NodeID uint8  `json:"nodeId"`

	// Description, refreshed from the controller
	Name string `json:"name"`
	Type string `json:"type"`

	// Values in the order they were announced. No two entries share an ID.
	Values []zwave.ValueID `json:"values"`

	// Liveness
	LastSync time.Time `json:"lastSync"`
	IsDead   bool      `json:"isDead"`

	// Neighbors is only populated for non-controller nodes.
	Neighbors zwave.NeighborBitmap `json:"-"`
}

// NewNodeInfo returns a node record in its initial state: no values and dead
// until the first liveness-qualifying event.
func NewNodeInfo(homeID uint32, nodeID uint8) NodeInfo {
	return NodeInfo{
		HomeID: homeID,
		NodeID: nodeID,
		IsDead: true,
	}
}

// DeepCopy returns an independent copy of the node.
// The Values slice is cloned so callers cannot mutate registry state.
func (n *NodeInfo) DeepCopy() NodeInfo {
	cpy := *n
	if n.Values != nil {
		cpy.Values = make([]zwave.ValueID, len(n.Values))
		copy(cpy.Values, n.Values)
	}
	return cpy
}

// IsController reports whether the node is the primary controller.
func (n *NodeInfo) IsController() bool {
	return n.NodeID == zwave.ControllerNodeID
}

// WakeUpValue returns the node's wake-up interval value, if it exposes one.
func (n *NodeInfo) WakeUpValue() (zwave.ValueID, bool) {
	for _, v := range n.Values {
		if v.IsWakeUpInterval() {
			return v, true
		}
	}
	return zwave.ValueID{}, false
}

func (n *NodeInfo) hasValue(id uint64) bool {
	for _, v := range n.Values {
		if v.ID == id {
			return true
		}
	}
	return false
}

// StatusPublisher receives node status changes for external consumers.
// Implementations must not block and must not call back into the Registry
// while holding their own locks.
type StatusPublisher interface {
	PublishNodeStatus(n NodeInfo)
	PublishNodeRemoved(homeID uint32, nodeID uint8)
}
