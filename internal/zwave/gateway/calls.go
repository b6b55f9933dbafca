package gateway

import (
	"fmt"

	"github.com/nerrad567/gray-logic-zwave/internal/zwave"
)

// GetNodeName implements zwave.Manager.
func (g *Gateway) GetNodeName(homeID uint32, nodeID uint8) (string, error) {
	var s string
	err := g.call("GetNodeName", node(homeID, nodeID), &s)
	return s, err
}

// GetNodeProductName implements zwave.Manager.
func (g *Gateway) GetNodeProductName(homeID uint32, nodeID uint8) (string, error) {
	var s string
	err := g.call("GetNodeProductName", node(homeID, nodeID), &s)
	return s, err
}

// GetNodeType implements zwave.Manager.
func (g *Gateway) GetNodeType(homeID uint32, nodeID uint8) (string, error) {
	var s string
	err := g.call("GetNodeType", node(homeID, nodeID), &s)
	return s, err
}

// GetNodeNeighbors implements zwave.Manager. The gateway answers with the
// list of neighbor node ids.
func (g *Gateway) GetNodeNeighbors(homeID uint32, nodeID uint8) (zwave.NeighborBitmap, error) {
	var ids []int
	var bitmap zwave.NeighborBitmap
	if err := g.call("GetNodeNeighbors", node(homeID, nodeID), &ids); err != nil {
		return bitmap, err
	}
	for _, id := range ids {
		if id < 1 || id > zwave.NeighborBitmapSize*8 {
			return zwave.NeighborBitmap{}, fmt.Errorf("%w: neighbor id %d", ErrBadResponse, id)
		}
		bitmap[(id-1)/8] |= 1 << ((id - 1) % 8)
	}
	return bitmap, nil
}

// IsNodeFailed implements zwave.Manager.
func (g *Gateway) IsNodeFailed(homeID uint32, nodeID uint8) (bool, error) {
	var b bool
	err := g.call("IsNodeFailed", node(homeID, nodeID), &b)
	return b, err
}

// IsNodeAwake implements zwave.Manager.
func (g *Gateway) IsNodeAwake(homeID uint32, nodeID uint8) (bool, error) {
	var b bool
	err := g.call("IsNodeAwake", node(homeID, nodeID), &b)
	return b, err
}

// GetNumGroups implements zwave.Manager.
func (g *Gateway) GetNumGroups(homeID uint32, nodeID uint8) (uint8, error) {
	var n uint8
	err := g.call("GetNumGroups", node(homeID, nodeID), &n)
	return n, err
}

// GetAssociations implements zwave.Manager.
func (g *Gateway) GetAssociations(homeID uint32, nodeID uint8, group uint8) ([]uint8, error) {
	p := node(homeID, nodeID)
	p.Group = group

	var ids []int
	if err := g.call("GetAssociations", p, &ids); err != nil {
		return nil, err
	}
	out := make([]uint8, 0, len(ids))
	for _, id := range ids {
		if id < 1 || id > 0xFF {
			return nil, fmt.Errorf("%w: member id %d", ErrBadResponse, id)
		}
		out = append(out, uint8(id)) // #nosec G115 -- range checked above
	}
	return out, nil
}

// GetValueLabel implements zwave.Manager.
func (g *Gateway) GetValueLabel(v zwave.ValueID) (string, error) {
	var s string
	err := g.call("GetValueLabel", value(v), &s)
	return s, err
}

// GetValueAsString implements zwave.Manager.
func (g *Gateway) GetValueAsString(v zwave.ValueID) (string, error) {
	var s string
	err := g.call("GetValueAsString", value(v), &s)
	return s, err
}

// GetValueAsInt implements zwave.Manager.
func (g *Gateway) GetValueAsInt(v zwave.ValueID) (int32, error) {
	var n int32
	err := g.call("GetValueAsInt", value(v), &n)
	return n, err
}

// SetValueFromString implements zwave.Manager.
func (g *Gateway) SetValueFromString(v zwave.ValueID, s string) error {
	p := value(v)
	p.Value = &s
	return g.call("SetValueFromString", p, nil)
}

// SetValueBool implements zwave.Manager.
func (g *Gateway) SetValueBool(v zwave.ValueID, b bool) error {
	p := value(v)
	p.Bool = &b
	return g.call("SetValueBool", p, nil)
}

// GetValueListItems implements zwave.Manager.
func (g *Gateway) GetValueListItems(v zwave.ValueID) ([]string, error) {
	var items []string
	err := g.call("GetValueListItems", value(v), &items)
	return items, err
}

// GetValueListSelection implements zwave.Manager.
func (g *Gateway) GetValueListSelection(v zwave.ValueID) (string, error) {
	var s string
	err := g.call("GetValueListSelection", value(v), &s)
	return s, err
}

// SetValueListSelection implements zwave.Manager.
func (g *Gateway) SetValueListSelection(v zwave.ValueID, item string) error {
	p := value(v)
	p.Value = &item
	return g.call("SetValueListSelection", p, nil)
}

// PressButton implements zwave.Manager.
func (g *Gateway) PressButton(v zwave.ValueID) error {
	return g.call("PressButton", value(v), nil)
}

// ReleaseButton implements zwave.Manager.
func (g *Gateway) ReleaseButton(v zwave.ValueID) error {
	return g.call("ReleaseButton", value(v), nil)
}

// RefreshValue implements zwave.Manager.
func (g *Gateway) RefreshValue(v zwave.ValueID) error {
	return g.call("RefreshValue", value(v), nil)
}

// GetCommandClassName implements zwave.Manager. Names are resolved locally.
func (g *Gateway) GetCommandClassName(commandClass uint8) string {
	return zwave.CommandClassName(commandClass)
}

// AddNode implements zwave.Manager.
func (g *Gateway) AddNode(homeID uint32) error {
	return g.call("AddNode", params{HomeID: homeID}, nil)
}

// RemoveNode implements zwave.Manager.
func (g *Gateway) RemoveNode(homeID uint32) error {
	return g.call("RemoveNode", params{HomeID: homeID}, nil)
}

// HealNetwork implements zwave.Manager.
func (g *Gateway) HealNetwork(homeID uint32) error {
	return g.call("HealNetwork", params{HomeID: homeID}, nil)
}

// HealNode implements zwave.Manager.
func (g *Gateway) HealNode(homeID uint32, nodeID uint8) error {
	return g.call("HealNode", node(homeID, nodeID), nil)
}

// ResetController implements zwave.Manager.
func (g *Gateway) ResetController(homeID uint32) error {
	return g.call("ResetController", params{HomeID: homeID}, nil)
}

// SoftReset implements zwave.Manager.
func (g *Gateway) SoftReset(homeID uint32) error {
	return g.call("SoftReset", params{HomeID: homeID}, nil)
}

// RequestNodeNeighborUpdate implements zwave.Manager.
func (g *Gateway) RequestNodeNeighborUpdate(homeID uint32, nodeID uint8) error {
	return g.call("RequestNodeNeighborUpdate", node(homeID, nodeID), nil)
}

// PingNode implements zwave.Manager.
func (g *Gateway) PingNode(homeID uint32, nodeID uint8) (bool, error) {
	var acked bool
	err := g.call("PingNode", node(homeID, nodeID), &acked)
	return acked, err
}

var _ zwave.Manager = (*Gateway)(nil)
