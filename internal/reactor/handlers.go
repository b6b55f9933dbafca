package reactor

import (
	"github.com/nerrad567/gray-logic-zwave/internal/node"
	"github.com/nerrad567/gray-logic-zwave/internal/zwave"
)

// apply performs the registry mutation for one notification type.
func (r *Reactor) apply(n zwave.Notification) {
	switch n.Type {
	case zwave.NotificationValueAdded:
		r.registry.AddValue(n.NodeID, n.ValueID)
		r.refreshDescription(n.HomeID, n.NodeID)

	case zwave.NotificationValueRemoved:
		r.registry.RemoveValue(n.ValueID)

	case zwave.NotificationValueChanged, zwave.NotificationValueRefreshed:
		if r.opts.ResyncNeighborsOnChange && n.NodeID != zwave.ControllerNodeID && r.registry.Contains(n.NodeID) {
			if err := r.manager.RequestNodeNeighborUpdate(n.HomeID, n.NodeID); err != nil {
				r.logger.Debug("neighbor update request failed", "node_id", n.NodeID, "error", err)
			}
		}

	case zwave.NotificationNodeNew, zwave.NotificationNodeAdded:
		r.addNode(n)

	case zwave.NotificationNodeRemoved:
		if r.registry.Remove(n.NodeID) && r.opts.Publisher != nil {
			r.opts.Publisher.PublishNodeRemoved(n.HomeID, n.NodeID)
		}

	case zwave.NotificationNodeNaming, zwave.NotificationNodeProtocolInfo:
		r.refreshDescription(n.HomeID, n.NodeID)

	case zwave.NotificationNodeQueriesComplete:
		r.refreshNeighbors(n.HomeID, n.NodeID)

	case zwave.NotificationDriverReady:
		r.registry.SetHomeID(n.HomeID)
		r.logger.Info("driver ready", "home_id", n.HomeID)

	case zwave.NotificationDriverReset:
		r.registry.Clear()
		r.logger.Warn("driver reset, registry cleared", "home_id", n.HomeID)

	case zwave.NotificationDriverFailed, zwave.NotificationDriverRemoved:
		r.logger.Warn("driver unavailable", "type", n.Type.String(), "home_id", n.HomeID)

	case zwave.NotificationAllNodesQueried, zwave.NotificationAllNodesQueriedSomeDead,
		zwave.NotificationAwakeNodesQueried:
		r.logger.Info("network query complete", "type", n.Type.String(),
			"nodes", r.registry.Count(), "dead", r.registry.CountDead())

	default:
		// logged by process
	}
}

// addNode creates the node on first sight. The controller is asked for its
// description before the registry lock is taken.
func (r *Reactor) addNode(n zwave.Notification) {
	if r.registry.Contains(n.NodeID) {
		return
	}

	info := node.NewNodeInfo(n.HomeID, n.NodeID)
	info.Name, info.Type = r.describe(n.HomeID, n.NodeID)
	if n.ValueID.IsValid() {
		info.Values = []zwave.ValueID{n.ValueID}
	}

	if !r.registry.Upsert(info) {
		return
	}
	if r.opts.Publisher != nil {
		r.opts.Publisher.PublishNodeStatus(info)
	}
}

func (r *Reactor) refreshDescription(homeID uint32, nodeID uint8) {
	if !r.registry.Contains(nodeID) {
		return
	}
	name, typ := r.describe(homeID, nodeID)
	r.registry.SetDescription(nodeID, name, typ)
}

// describe returns the node's display name and type. The product name stands
// in for a node that has not been named.
func (r *Reactor) describe(homeID uint32, nodeID uint8) (name, typ string) {
	var err error
	if name, err = r.manager.GetNodeName(homeID, nodeID); err != nil {
		r.logger.Debug("node name unavailable", "node_id", nodeID, "error", err)
	}
	if name == "" {
		if name, err = r.manager.GetNodeProductName(homeID, nodeID); err != nil {
			r.logger.Debug("product name unavailable", "node_id", nodeID, "error", err)
		}
	}
	if typ, err = r.manager.GetNodeType(homeID, nodeID); err != nil {
		r.logger.Debug("node type unavailable", "node_id", nodeID, "error", err)
	}
	return name, typ
}

func (r *Reactor) refreshNeighbors(homeID uint32, nodeID uint8) {
	if nodeID == zwave.ControllerNodeID || !r.registry.Contains(nodeID) {
		return
	}
	bitmap, err := r.manager.GetNodeNeighbors(homeID, nodeID)
	if err != nil {
		r.logger.Debug("neighbors unavailable", "node_id", nodeID, "error", err)
		return
	}
	r.registry.SetNeighbors(nodeID, bitmap)
}

func (r *Reactor) refreshLiveness(nodeID uint8) {
	flipped, ok := r.registry.MarkAlive(nodeID, r.opts.Now())
	if !ok || !flipped {
		return
	}
	r.logger.Info("node alive", "node_id", nodeID)
	if r.opts.Publisher == nil {
		return
	}
	if info, ok := r.registry.Get(nodeID); ok {
		r.opts.Publisher.PublishNodeStatus(info)
	}
}

func (r *Reactor) appendLog(n zwave.Notification) {
	if r.opts.Logs == nil || !r.registry.Contains(n.NodeID) {
		return
	}

	var label string
	if n.ValueID.IsValid() {
		var err error
		if label, err = r.manager.GetValueLabel(n.ValueID); err != nil {
			r.logger.Debug("value label unavailable", "value", n.ValueID.String(), "error", err)
		}
	}
	ccName := r.manager.GetCommandClassName(n.ValueID.CommandClass)

	if err := r.opts.Logs.Append(n.NodeID, n.Type.String(), ccName, n.ValueID.Index, label); err != nil {
		r.logger.Warn("writing node log failed", "node_id", n.NodeID, "error", err)
	}
}
