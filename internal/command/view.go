package command

import (
	"time"

	"github.com/nerrad567/gray-logic-zwave/internal/node"
	"github.com/nerrad567/gray-logic-zwave/internal/zwave"
)

// ValueView is the client-facing form of one value.
// IDs are encoded as strings because they exceed the range JSON clients can
// represent exactly.
type ValueView struct {
	ID           uint64   `json:"id,string"`
	NodeID       uint8    `json:"nodeId"`
	CommandClass string   `json:"commandClass"`
	Instance     uint8    `json:"instance"`
	Index        uint8    `json:"index"`
	Type         string   `json:"type"`
	Label        string   `json:"label"`
	Value        string   `json:"value"`
	Items        []string `json:"items,omitempty"`
}

// NodeView is the client-facing form of one node.
type NodeView struct {
	HomeID    uint32      `json:"homeId"`
	NodeID    uint8       `json:"nodeId"`
	Name      string      `json:"name"`
	Type      string      `json:"type"`
	IsDead    bool        `json:"isDead"`
	LastSync  string      `json:"lastSync"`
	Values    []ValueView `json:"values"`
	Neighbors []int       `json:"neighbors,omitempty"`
}

// viewValue reads a value's label and current string form from the
// controller. Unavailable fields are left empty.
func (d *Dispatcher) viewValue(v zwave.ValueID) ValueView {
	view := ValueView{
		ID:           v.ID,
		NodeID:       v.NodeID,
		CommandClass: d.manager.GetCommandClassName(v.CommandClass),
		Instance:     v.Instance,
		Index:        v.Index,
		Type:         v.Type.String(),
	}

	var err error
	if view.Label, err = d.manager.GetValueLabel(v); err != nil {
		d.logger.Debug("value label unavailable", "value", v.String(), "error", err)
	}
	if view.Value, err = d.manager.GetValueAsString(v); err != nil {
		d.logger.Debug("value unavailable", "value", v.String(), "error", err)
	}
	if v.Type == zwave.ValueTypeList {
		if view.Items, err = d.manager.GetValueListItems(v); err != nil {
			d.logger.Debug("list items unavailable", "value", v.String(), "error", err)
		}
	}
	return view
}

// viewNode renders a registry snapshot. Controller calls happen on the copy,
// never under the registry lock.
func (d *Dispatcher) viewNode(n node.NodeInfo) NodeView {
	view := NodeView{
		HomeID: n.HomeID,
		NodeID: n.NodeID,
		Name:   n.Name,
		Type:   n.Type,
		IsDead: n.IsDead,
		Values: make([]ValueView, 0, len(n.Values)),
	}
	if !n.LastSync.IsZero() {
		view.LastSync = n.LastSync.UTC().Format(time.RFC3339)
	}
	for _, v := range n.Values {
		view.Values = append(view.Values, d.viewValue(v))
	}
	if !n.IsController() {
		view.Neighbors = n.Neighbors.NodeIDs()
	}
	return view
}
