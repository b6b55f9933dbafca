// Package sim provides an in-memory Z-Wave controller implementing zwave.Manager.
//
// It backs the "simulator" driver and doubles as the controller used in tests:
// nodes and values are declared up front or at runtime, notifications are
// delivered synchronously to the registered watcher, and every call is
// recorded so tests can assert on the traffic that reached the controller.
package sim

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/nerrad567/gray-logic-zwave/internal/zwave"
)

// Node describes a simulated node.
type Node struct {
	ID        uint8
	Name      string
	Product   string
	Type      string
	Failed    bool
	Awake     bool
	Neighbors zwave.NeighborBitmap
	Groups    map[uint8][]uint8
}

type value struct {
	id    zwave.ValueID
	label string
	data  string
	items []string
}

// Controller is a simulated controller. The zero value is not usable; call New.
type Controller struct {
	mu          sync.Mutex
	homeID      uint32
	watcher     zwave.Watcher
	driver      string
	ready       bool
	destroyed   bool
	unavailable bool
	nodes       map[uint8]*Node
	order       []uint8
	values      map[uint64]*value
	valueOrder  []uint64
	calls       []string
}

// New creates a controller for homeID containing only the controller node.
func New(homeID uint32) *Controller {
	c := &Controller{
		homeID: homeID,
		nodes:  make(map[uint8]*Node),
		values: make(map[uint64]*value),
	}
	c.nodes[zwave.ControllerNodeID] = &Node{
		ID:      zwave.ControllerNodeID,
		Name:    "controller",
		Product: "Z-Stick Gen5",
		Type:    "Static PC Controller",
		Awake:   true,
	}
	c.order = append(c.order, zwave.ControllerNodeID)
	return c
}

// HomeID returns the simulated network's home id.
func (c *Controller) HomeID() uint32 {
	return c.homeID
}

// SetUnavailable makes every subsequent accessor fail with zwave.ErrNotAvailable.
func (c *Controller) SetUnavailable(unavailable bool) {
	c.mu.Lock()
	c.unavailable = unavailable
	c.mu.Unlock()
}

// Calls returns the recorded controller calls, oldest first.
func (c *Controller) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.calls))
	copy(out, c.calls)
	return out
}

// AddSimNode declares a node. If the driver is ready a NodeAdded notification
// is emitted.
func (c *Controller) AddSimNode(n Node) {
	c.mu.Lock()
	if n.Groups == nil {
		n.Groups = make(map[uint8][]uint8)
	}
	node := n
	if _, exists := c.nodes[n.ID]; !exists {
		c.order = append(c.order, n.ID)
	}
	c.nodes[n.ID] = &node
	ready := c.ready
	c.mu.Unlock()

	if ready {
		c.emit(zwave.Notification{Type: zwave.NotificationNodeAdded, HomeID: c.homeID, NodeID: n.ID})
	}
}

// RemoveSimNode drops a node and its values, emitting NodeRemoved when ready.
func (c *Controller) RemoveSimNode(nodeID uint8) {
	c.mu.Lock()
	delete(c.nodes, nodeID)
	for i, id := range c.order {
		if id == nodeID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	kept := c.valueOrder[:0]
	for _, id := range c.valueOrder {
		if c.values[id].id.NodeID == nodeID {
			delete(c.values, id)
			continue
		}
		kept = append(kept, id)
	}
	c.valueOrder = kept
	ready := c.ready
	c.mu.Unlock()

	if ready {
		c.emit(zwave.Notification{Type: zwave.NotificationNodeRemoved, HomeID: c.homeID, NodeID: nodeID})
	}
}

// AddSimValue declares a value on an existing node and returns its reference.
// If the driver is ready a ValueAdded notification is emitted.
func (c *Controller) AddSimValue(nodeID, commandClass, instance, index uint8, typ zwave.ValueType, label, initial string, items ...string) zwave.ValueID {
	id := zwave.MakeValueID(c.homeID, nodeID, commandClass, instance, index, typ, zwave.GenreUser)
	c.putValue(id, label, initial, items)
	return id
}

// AddSimValueWithID declares a value using an explicit external id.
func (c *Controller) AddSimValueWithID(id zwave.ValueID, label, initial string, items ...string) zwave.ValueID {
	if id.HomeID == 0 {
		id.HomeID = c.homeID
	}
	c.putValue(id, label, initial, items)
	return id
}

func (c *Controller) putValue(id zwave.ValueID, label, initial string, items []string) {
	c.mu.Lock()
	if _, exists := c.values[id.ID]; !exists {
		c.valueOrder = append(c.valueOrder, id.ID)
	}
	c.values[id.ID] = &value{id: id, label: label, data: initial, items: items}
	ready := c.ready
	c.mu.Unlock()

	if ready {
		c.emit(zwave.Notification{Type: zwave.NotificationValueAdded, HomeID: c.homeID, NodeID: id.NodeID, ValueID: id})
	}
}

// Emit delivers an arbitrary notification to the watcher.
func (c *Controller) Emit(n zwave.Notification) {
	if n.HomeID == 0 {
		n.HomeID = c.homeID
	}
	c.emit(n)
}

// TouchValue emits a ValueRefreshed for v, simulating a node report.
func (c *Controller) TouchValue(v zwave.ValueID) {
	c.emit(zwave.Notification{Type: zwave.NotificationValueRefreshed, HomeID: c.homeID, NodeID: v.NodeID, ValueID: v})
}

// Value returns the current string form of a value.
func (c *Controller) Value(v zwave.ValueID) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sv, ok := c.values[v.ID]
	if !ok {
		return "", false
	}
	return sv.data, true
}

func (c *Controller) emit(n zwave.Notification) {
	c.mu.Lock()
	w := c.watcher
	c.mu.Unlock()
	if w != nil {
		w(n)
	}
}

func (c *Controller) record(format string, args ...any) {
	c.calls = append(c.calls, fmt.Sprintf(format, args...))
}

// check must be called with c.mu held.
func (c *Controller) check() error {
	if c.destroyed {
		return zwave.ErrDestroyed
	}
	if c.unavailable {
		return zwave.ErrNotAvailable
	}
	return nil
}

// AddWatcher implements zwave.Manager.
func (c *Controller) AddWatcher(w zwave.Watcher) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return zwave.ErrDestroyed
	}
	if c.watcher != nil {
		return zwave.ErrWatcherExists
	}
	c.watcher = w
	return nil
}

// RemoveWatcher implements zwave.Manager.
func (c *Controller) RemoveWatcher() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("RemoveWatcher")
	c.watcher = nil
	return nil
}

// AddDriver implements zwave.Manager. It replays the start-up sequence a real
// controller produces: DriverReady, NodeAdded and ValueAdded for every known
// node and value, NodeQueriesComplete per node, then AllNodesQueried.
func (c *Controller) AddDriver(devicePath string) error {
	c.mu.Lock()
	if err := c.check(); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.ready {
		c.mu.Unlock()
		return fmt.Errorf("driver for %s already exists", devicePath)
	}
	c.record("AddDriver %s", devicePath)
	c.driver = devicePath
	c.ready = true
	order := append([]uint8(nil), c.order...)
	var values []zwave.ValueID
	for _, id := range c.valueOrder {
		values = append(values, c.values[id].id)
	}
	c.mu.Unlock()

	c.emit(zwave.Notification{Type: zwave.NotificationDriverReady, HomeID: c.homeID})
	for _, id := range order {
		c.emit(zwave.Notification{Type: zwave.NotificationNodeAdded, HomeID: c.homeID, NodeID: id})
		for _, v := range values {
			if v.NodeID == id {
				c.emit(zwave.Notification{Type: zwave.NotificationValueAdded, HomeID: c.homeID, NodeID: id, ValueID: v})
			}
		}
	}
	for _, id := range order {
		c.emit(zwave.Notification{Type: zwave.NotificationNodeQueriesComplete, HomeID: c.homeID, NodeID: id})
	}
	c.emit(zwave.Notification{Type: zwave.NotificationAllNodesQueried, HomeID: c.homeID})
	return nil
}

// RemoveDriver implements zwave.Manager.
func (c *Controller) RemoveDriver(devicePath string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("RemoveDriver %s", devicePath)
	if c.driver != devicePath {
		return zwave.ErrNotAvailable
	}
	c.ready = false
	c.driver = ""
	return nil
}

// Destroy implements zwave.Manager.
func (c *Controller) Destroy() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("Destroy")
	c.destroyed = true
	c.ready = false
	c.watcher = nil
	return nil
}

func (c *Controller) node(homeID uint32, nodeID uint8) (*Node, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	if homeID != c.homeID {
		return nil, zwave.ErrNotAvailable
	}
	n, ok := c.nodes[nodeID]
	if !ok {
		return nil, zwave.ErrUnknownNode
	}
	return n, nil
}

// GetNodeName implements zwave.Manager.
func (c *Controller) GetNodeName(homeID uint32, nodeID uint8) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, err := c.node(homeID, nodeID)
	if err != nil {
		return "", err
	}
	return n.Name, nil
}

// GetNodeProductName implements zwave.Manager.
func (c *Controller) GetNodeProductName(homeID uint32, nodeID uint8) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, err := c.node(homeID, nodeID)
	if err != nil {
		return "", err
	}
	return n.Product, nil
}

// GetNodeType implements zwave.Manager.
func (c *Controller) GetNodeType(homeID uint32, nodeID uint8) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, err := c.node(homeID, nodeID)
	if err != nil {
		return "", err
	}
	return n.Type, nil
}

// GetNodeNeighbors implements zwave.Manager.
func (c *Controller) GetNodeNeighbors(homeID uint32, nodeID uint8) (zwave.NeighborBitmap, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, err := c.node(homeID, nodeID)
	if err != nil {
		return zwave.NeighborBitmap{}, err
	}
	return n.Neighbors, nil
}

// IsNodeFailed implements zwave.Manager.
func (c *Controller) IsNodeFailed(homeID uint32, nodeID uint8) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, err := c.node(homeID, nodeID)
	if err != nil {
		return false, err
	}
	return n.Failed, nil
}

// IsNodeAwake implements zwave.Manager.
func (c *Controller) IsNodeAwake(homeID uint32, nodeID uint8) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, err := c.node(homeID, nodeID)
	if err != nil {
		return false, err
	}
	return n.Awake, nil
}

// GetNumGroups implements zwave.Manager.
func (c *Controller) GetNumGroups(homeID uint32, nodeID uint8) (uint8, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, err := c.node(homeID, nodeID)
	if err != nil {
		return 0, err
	}
	return uint8(len(n.Groups)), nil //nolint:gosec // bounded by protocol
}

// GetAssociations implements zwave.Manager.
func (c *Controller) GetAssociations(homeID uint32, nodeID uint8, group uint8) ([]uint8, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, err := c.node(homeID, nodeID)
	if err != nil {
		return nil, err
	}
	members, ok := n.Groups[group]
	if !ok {
		return nil, zwave.ErrNotAvailable
	}
	return append([]uint8(nil), members...), nil
}

func (c *Controller) value(v zwave.ValueID) (*value, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	sv, ok := c.values[v.ID]
	if !ok {
		return nil, zwave.ErrUnknownValue
	}
	return sv, nil
}

// GetValueLabel implements zwave.Manager.
func (c *Controller) GetValueLabel(v zwave.ValueID) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sv, err := c.value(v)
	if err != nil {
		return "", err
	}
	return sv.label, nil
}

// GetValueAsString implements zwave.Manager.
func (c *Controller) GetValueAsString(v zwave.ValueID) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sv, err := c.value(v)
	if err != nil {
		return "", err
	}
	return sv.data, nil
}

// GetValueAsInt implements zwave.Manager.
func (c *Controller) GetValueAsInt(v zwave.ValueID) (int32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sv, err := c.value(v)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(sv.data, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", zwave.ErrInvalidValue, sv.data)
	}
	return int32(n), nil
}

// SetValueFromString implements zwave.Manager. The input is coerced according
// to the value's type and a ValueChanged notification is emitted on success.
func (c *Controller) SetValueFromString(v zwave.ValueID, input string) error {
	c.mu.Lock()
	sv, err := c.value(v)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	normalised, err := coerce(sv, input)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.record("SetValue %d %s", v.ID, normalised)
	sv.data = normalised
	id := sv.id
	c.mu.Unlock()

	c.emit(zwave.Notification{Type: zwave.NotificationValueChanged, HomeID: c.homeID, NodeID: id.NodeID, ValueID: id})
	return nil
}

func coerce(sv *value, input string) (string, error) {
	input = strings.TrimSpace(input)
	switch sv.id.Type {
	case zwave.ValueTypeBool:
		switch strings.ToLower(input) {
		case "true", "on", "1":
			return "True", nil
		case "false", "off", "0":
			return "False", nil
		}
	case zwave.ValueTypeByte:
		if n, err := strconv.ParseUint(input, 10, 8); err == nil {
			return strconv.FormatUint(n, 10), nil
		}
	case zwave.ValueTypeShort:
		if n, err := strconv.ParseInt(input, 10, 16); err == nil {
			return strconv.FormatInt(n, 10), nil
		}
	case zwave.ValueTypeInt:
		if n, err := strconv.ParseInt(input, 10, 32); err == nil {
			return strconv.FormatInt(n, 10), nil
		}
	case zwave.ValueTypeDecimal:
		if f, err := strconv.ParseFloat(input, 64); err == nil {
			return strconv.FormatFloat(f, 'f', -1, 64), nil
		}
	case zwave.ValueTypeList:
		for _, item := range sv.items {
			if strings.EqualFold(item, input) {
				return item, nil
			}
		}
	case zwave.ValueTypeString, zwave.ValueTypeRaw, zwave.ValueTypeSchedule:
		return input, nil
	case zwave.ValueTypeButton:
		switch strings.ToLower(input) {
		case "press", "true", "1":
			return "True", nil
		case "release", "false", "0":
			return "False", nil
		}
	}
	return "", fmt.Errorf("%w: %q for %s value", zwave.ErrInvalidValue, input, sv.id.Type)
}

// SetValueBool implements zwave.Manager.
func (c *Controller) SetValueBool(v zwave.ValueID, b bool) error {
	return c.SetValueFromString(v, strconv.FormatBool(b))
}

// GetValueListItems implements zwave.Manager.
func (c *Controller) GetValueListItems(v zwave.ValueID) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sv, err := c.value(v)
	if err != nil {
		return nil, err
	}
	if sv.id.Type != zwave.ValueTypeList {
		return nil, zwave.ErrNotAvailable
	}
	return append([]string(nil), sv.items...), nil
}

// GetValueListSelection implements zwave.Manager.
func (c *Controller) GetValueListSelection(v zwave.ValueID) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sv, err := c.value(v)
	if err != nil {
		return "", err
	}
	if sv.id.Type != zwave.ValueTypeList {
		return "", zwave.ErrNotAvailable
	}
	return sv.data, nil
}

// SetValueListSelection implements zwave.Manager.
func (c *Controller) SetValueListSelection(v zwave.ValueID, item string) error {
	return c.SetValueFromString(v, item)
}

// PressButton implements zwave.Manager.
func (c *Controller) PressButton(v zwave.ValueID) error {
	return c.SetValueFromString(v, "press")
}

// ReleaseButton implements zwave.Manager.
func (c *Controller) ReleaseButton(v zwave.ValueID) error {
	return c.SetValueFromString(v, "release")
}

// RefreshValue implements zwave.Manager. It emits ValueRefreshed.
func (c *Controller) RefreshValue(v zwave.ValueID) error {
	c.mu.Lock()
	sv, err := c.value(v)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.record("RefreshValue %d", v.ID)
	id := sv.id
	c.mu.Unlock()

	c.TouchValue(id)
	return nil
}

// GetCommandClassName implements zwave.Manager.
func (c *Controller) GetCommandClassName(commandClass uint8) string {
	return zwave.CommandClassName(commandClass)
}

func (c *Controller) network(homeID uint32, action string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.check(); err != nil {
		return err
	}
	if homeID != c.homeID {
		return zwave.ErrNotAvailable
	}
	c.record("%s", action)
	return nil
}

// AddNode implements zwave.Manager.
func (c *Controller) AddNode(homeID uint32) error {
	return c.network(homeID, "AddNode")
}

// RemoveNode implements zwave.Manager.
func (c *Controller) RemoveNode(homeID uint32) error {
	return c.network(homeID, "RemoveNode")
}

// HealNetwork implements zwave.Manager.
func (c *Controller) HealNetwork(homeID uint32) error {
	return c.network(homeID, "HealNetwork")
}

// HealNode implements zwave.Manager.
func (c *Controller) HealNode(homeID uint32, nodeID uint8) error {
	c.mu.Lock()
	_, err := c.node(homeID, nodeID)
	c.mu.Unlock()
	if err != nil {
		return err
	}
	return c.network(homeID, fmt.Sprintf("HealNode %d", nodeID))
}

// ResetController implements zwave.Manager. All nodes but the controller are
// forgotten and DriverReset is emitted.
func (c *Controller) ResetController(homeID uint32) error {
	if err := c.network(homeID, "ResetController"); err != nil {
		return err
	}
	c.mu.Lock()
	for id := range c.nodes {
		if id != zwave.ControllerNodeID {
			delete(c.nodes, id)
		}
	}
	c.order = []uint8{zwave.ControllerNodeID}
	c.values = make(map[uint64]*value)
	c.valueOrder = nil
	c.mu.Unlock()

	c.emit(zwave.Notification{Type: zwave.NotificationDriverReset, HomeID: c.homeID})
	return nil
}

// SoftReset implements zwave.Manager.
func (c *Controller) SoftReset(homeID uint32) error {
	return c.network(homeID, "SoftReset")
}

// RequestNodeNeighborUpdate implements zwave.Manager.
func (c *Controller) RequestNodeNeighborUpdate(homeID uint32, nodeID uint8) error {
	c.mu.Lock()
	_, err := c.node(homeID, nodeID)
	c.mu.Unlock()
	if err != nil {
		return err
	}
	return c.network(homeID, fmt.Sprintf("RequestNodeNeighborUpdate %d", nodeID))
}

// PingNode implements zwave.Manager. Failed nodes never acknowledge.
func (c *Controller) PingNode(homeID uint32, nodeID uint8) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, err := c.node(homeID, nodeID)
	if err != nil {
		return false, err
	}
	c.record("PingNode %d", nodeID)
	return !n.Failed, nil
}

var _ zwave.Manager = (*Controller)(nil)
