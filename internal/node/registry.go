package node

import (
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-zwave/internal/zwave"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// LogRemover deletes the per-node event log when a node leaves the network.
// LogStore satisfies it.
type LogRemover interface {
	Remove(nodeID uint8) error
}

// Registry is the authoritative in-process view of the network: which nodes
// exist, which values they expose, and whether they are reachable.
//
// Nodes are kept in a map for lookup plus an order slice so that All()
// enumerates in insertion order. One mutex guards the nodes and the home id
// cell; every mutation happens while holding it. The Registry never calls the
// controller, so holding the lock can never wait on controller I/O.
//
// All public methods are thread-safe. Returned NodeInfo values are deep copies.
type Registry struct {
	mu     sync.Mutex
	homeID uint32
	nodes  map[uint8]*NodeInfo
	order  []uint8

	logs   LogRemover
	logger Logger
}

// NewRegistry creates an empty registry. logs may be nil.
func NewRegistry(logs LogRemover) *Registry {
	return &Registry{
		nodes:  make(map[uint8]*NodeInfo),
		logs:   logs,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// HomeID returns the home id of the network the registry tracks.
func (r *Registry) HomeID() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.homeID
}

// SetHomeID records the home id announced by the driver.
func (r *Registry) SetHomeID(homeID uint32) {
	r.mu.Lock()
	r.homeID = homeID
	r.mu.Unlock()
}

// Upsert inserts info unless a node with the same id already exists.
// The first writer wins; it reports whether the node was inserted.
func (r *Registry) Upsert(info NodeInfo) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.nodes[info.NodeID]; exists {
		return false
	}

	n := info.DeepCopy()
	n.Values = dedupValues(n.Values)
	if info.NodeID == zwave.ControllerNodeID {
		n.Neighbors = zwave.NeighborBitmap{}
	}
	r.nodes[info.NodeID] = &n
	r.order = append(r.order, info.NodeID)

	r.logger.Info("node registered", "node_id", info.NodeID, "name", info.Name)
	return true
}

// Remove deletes a node and asks the log store to delete its event log.
// A log deletion failure is logged and does not undo the removal. Removing
// an absent node is a no-op; it reports whether a node was removed.
func (r *Registry) Remove(nodeID uint8) bool {
	r.mu.Lock()
	_, exists := r.nodes[nodeID]
	if exists {
		delete(r.nodes, nodeID)
		r.order = removeID(r.order, nodeID)
	}
	r.mu.Unlock()

	if r.logs != nil {
		if err := r.logs.Remove(nodeID); err != nil {
			r.logger.Warn("removing node log failed", "node_id", nodeID, "error", err)
		}
	}

	if exists {
		r.logger.Info("node removed", "node_id", nodeID)
	}
	return exists
}

// Clear drops every node. The home id is kept.
func (r *Registry) Clear() {
	r.mu.Lock()
	count := len(r.nodes)
	r.nodes = make(map[uint8]*NodeInfo)
	r.order = nil
	r.mu.Unlock()

	r.logger.Info("registry cleared", "released", count)
}

// AddValue appends v to the node's values unless a value with the same id is
// already present. It is a no-op if the node is unknown.
func (r *Registry) AddValue(nodeID uint8, v zwave.ValueID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.nodes[nodeID]
	if !ok || n.hasValue(v.ID) {
		return false
	}
	n.Values = append(n.Values, v)
	return true
}

// RemoveValue removes the value with v's id from its owning node.
// It is a no-op if the node or the value is absent.
func (r *Registry) RemoveValue(v zwave.ValueID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.nodes[v.NodeID]
	if !ok {
		return false
	}
	for i, existing := range n.Values {
		if existing.ID == v.ID {
			n.Values = append(n.Values[:i], n.Values[i+1:]...)
			return true
		}
	}
	return false
}

// Get returns a copy of the node with the given id.
func (r *Registry) Get(nodeID uint8) (NodeInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.nodes[nodeID]
	if !ok {
		return NodeInfo{}, false
	}
	return n.DeepCopy(), true
}

// Contains reports whether a node with the given id is registered.
func (r *Registry) Contains(nodeID uint8) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.nodes[nodeID]
	return ok
}

// All returns copies of every node in insertion order.
func (r *Registry) All() []NodeInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]NodeInfo, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.nodes[id].DeepCopy())
	}
	return out
}

// Count returns the number of registered nodes, controller included.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.nodes)
}

// FindValue looks a value up by its external id across all nodes.
func (r *Registry) FindValue(valueID uint64) (zwave.ValueID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range r.order {
		for _, v := range r.nodes[id].Values {
			if v.ID == valueID {
				return v, true
			}
		}
	}
	return zwave.ValueID{}, false
}

// CountDead returns the number of dead nodes, excluding the controller.
func (r *Registry) CountDead() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.countDeadLocked()
}

// CountAlive returns the number of reachable nodes, excluding the controller.
func (r *Registry) CountAlive() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.countNonControllerLocked() - r.countDeadLocked()
}

func (r *Registry) countDeadLocked() int {
	dead := 0
	for id, n := range r.nodes {
		if id != zwave.ControllerNodeID && n.IsDead {
			dead++
		}
	}
	return dead
}

func (r *Registry) countNonControllerLocked() int {
	total := len(r.nodes)
	if _, ok := r.nodes[zwave.ControllerNodeID]; ok {
		total--
	}
	return total
}

// SetDescription refreshes the descriptive name and type of a node.
// Empty arguments leave the current field unchanged.
func (r *Registry) SetDescription(nodeID uint8, name, nodeType string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.nodes[nodeID]
	if !ok {
		return false
	}
	if name != "" {
		n.Name = name
	}
	if nodeType != "" {
		n.Type = nodeType
	}
	return true
}

// MarkAlive records a liveness-qualifying event at t. It reports whether the
// node flipped from dead to alive.
func (r *Registry) MarkAlive(nodeID uint8, t time.Time) (flipped, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.nodes[nodeID]
	if !ok {
		return false, false
	}
	flipped = n.IsDead
	n.IsDead = false
	n.LastSync = t
	return flipped, true
}

// Classify applies fn to every non-controller node under the lock.
// fn returns the new dead flag and whether to apply it. The ids of nodes whose
// flag changed are returned.
func (r *Registry) Classify(fn func(n NodeInfo) (dead, apply bool)) []uint8 {
	r.mu.Lock()
	defer r.mu.Unlock()

	var changed []uint8
	for _, id := range r.order {
		if id == zwave.ControllerNodeID {
			continue
		}
		n := r.nodes[id]
		dead, apply := fn(n.DeepCopy())
		if !apply {
			continue
		}
		if n.IsDead != dead {
			changed = append(changed, id)
		}
		n.IsDead = dead
	}
	return changed
}

// SetNeighbors stores a node's neighbor bitmap. The controller never has one.
func (r *Registry) SetNeighbors(nodeID uint8, bitmap zwave.NeighborBitmap) bool {
	if nodeID == zwave.ControllerNodeID {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.nodes[nodeID]
	if !ok {
		return false
	}
	n.Neighbors = bitmap
	return true
}

func dedupValues(values []zwave.ValueID) []zwave.ValueID {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[uint64]bool, len(values))
	out := values[:0]
	for _, v := range values {
		if seen[v.ID] {
			continue
		}
		seen[v.ID] = true
		out = append(out, v)
	}
	return out
}

func removeID(ids []uint8, id uint8) []uint8 {
	for i, existing := range ids {
		if existing == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
