package command

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/nerrad567/gray-logic-zwave/internal/mode"
	"github.com/nerrad567/gray-logic-zwave/internal/node"
	"github.com/nerrad567/gray-logic-zwave/internal/zwave"
)

// Ping count bounds.
const (
	minPingCount = 1
	maxPingCount = 100
)

// isNumeric reports whether s is a non-empty run of decimal digits.
func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// resolveNode runs the shape and existence checks on a node id argument.
func (d *Dispatcher) resolveNode(arg string) (node.NodeInfo, Message, bool) {
	if !isNumeric(arg) {
		return node.NodeInfo{}, MessageValueTypeError, false
	}
	id, err := strconv.ParseUint(arg, 10, 8)
	if err != nil {
		return node.NodeInfo{}, MessageNodeNotFound, false
	}
	n, ok := d.registry.Get(uint8(id))
	if !ok {
		return node.NodeInfo{}, MessageNodeNotFound, false
	}
	return n, "", true
}

// resolveValue runs the shape and existence checks on a value id argument.
func (d *Dispatcher) resolveValue(arg string) (zwave.ValueID, Message, bool) {
	if !isNumeric(arg) {
		return zwave.ValueID{}, MessageInvalidArgument, false
	}
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return zwave.ValueID{}, MessageValueNotFound, false
	}
	v, ok := d.registry.FindValue(id)
	if !ok {
		return zwave.ValueID{}, MessageValueNotFound, false
	}
	return v, "", true
}

// managerFailure logs a controller error and returns the matching message.
func (d *Dispatcher) managerFailure(command string, err error) *Body {
	d.logger.Warn("controller call failed", "command", command, "error", err)
	return NewBody(MessageManagerError).Set("error", err.Error())
}

func (d *Dispatcher) setValue(_ context.Context, args []string) (*Body, Stop) {
	if len(args) < 2 {
		return NewBody(MessageArgumentError), StopNone
	}
	v, msg, ok := d.resolveValue(args[0])
	if !ok {
		return NewBody(msg), StopNone
	}

	newValue := strings.Join(args[1:], " ")
	if err := d.manager.SetValueFromString(v, newValue); err != nil {
		if errors.Is(err, zwave.ErrInvalidValue) {
			return NewBody(MessageInvalidArgument).Set("error", err.Error()), StopNone
		}
		return d.managerFailure("setValue", err), StopNone
	}

	return NewBody(MessageAccepted).
		Set("valueId", strconv.FormatUint(v.ID, 10)).
		Set("nodeId", v.NodeID).
		Set("value", newValue), StopNone
}

func (d *Dispatcher) getValue(_ context.Context, args []string) (*Body, Stop) {
	if len(args) != 1 {
		return NewBody(MessageArgumentError), StopNone
	}
	v, msg, ok := d.resolveValue(args[0])
	if !ok {
		return NewBody(msg), StopNone
	}
	return NewBody(MessageOk).Set("value", d.viewValue(v)), StopNone
}

func (d *Dispatcher) refresh(_ context.Context, args []string) (*Body, Stop) {
	if len(args) != 1 {
		return NewBody(MessageArgumentError), StopNone
	}
	v, msg, ok := d.resolveValue(args[0])
	if !ok {
		return NewBody(msg), StopNone
	}
	if err := d.manager.RefreshValue(v); err != nil {
		return d.managerFailure("refresh", err), StopNone
	}
	return NewBody(MessageAccepted).Set("valueId", strconv.FormatUint(v.ID, 10)), StopNone
}

// include and exclude report a controller refusal in the body; the status
// only acknowledges that the flow was requested.
func (d *Dispatcher) include(_ context.Context, _ []string) (*Body, Stop) {
	body := NewBody(MessageCreated)
	if err := d.manager.AddNode(d.registry.HomeID()); err != nil {
		d.logger.Warn("add-node flow not started", "error", err)
		return body.Set("started", false).Set("error", err.Error()), StopNone
	}
	return body.Set("started", true), StopNone
}

func (d *Dispatcher) exclude(_ context.Context, _ []string) (*Body, Stop) {
	body := NewBody(MessageAccepted)
	if err := d.manager.RemoveNode(d.registry.HomeID()); err != nil {
		d.logger.Warn("remove-node flow not started", "error", err)
		return body.Set("started", false).Set("error", err.Error()), StopNone
	}
	return body.Set("started", true), StopNone
}

func (d *Dispatcher) getNode(_ context.Context, args []string) (*Body, Stop) {
	switch len(args) {
	case 0:
		all := d.registry.All()
		views := make([]NodeView, 0, len(all))
		for _, n := range all {
			views = append(views, d.viewNode(n))
		}
		alive, dead := d.registry.CountAlive(), d.registry.CountDead()
		return NewBody(MessageOk).
			Set("nodes", views).
			Set("alive", alive).
			Set("dead", dead).
			Set("total", alive+dead), StopNone
	case 1:
		n, msg, ok := d.resolveNode(args[0])
		if !ok {
			return NewBody(msg), StopNone
		}
		return NewBody(MessageOk).Set("node", d.viewNode(n)), StopNone
	default:
		return NewBody(MessageArgumentError), StopNone
	}
}

func (d *Dispatcher) neighbors(_ context.Context, args []string) (*Body, Stop) {
	if len(args) != 1 {
		return NewBody(MessageArgumentError), StopNone
	}
	n, msg, ok := d.resolveNode(args[0])
	if !ok {
		return NewBody(msg), StopNone
	}

	body := NewBody(MessageOk).Set("nodeId", n.NodeID)
	if n.IsController() {
		return body.Set("neighbors", []int{}), StopNone
	}

	bitmap, err := d.manager.GetNodeNeighbors(n.HomeID, n.NodeID)
	if err != nil {
		d.logger.Debug("neighbors unavailable, using cached bitmap", "node_id", n.NodeID, "error", err)
		bitmap = n.Neighbors
	} else {
		d.registry.SetNeighbors(n.NodeID, bitmap)
	}

	return body.Set("neighbors", bitmap.NodeIDs()), StopNone
}

func (d *Dispatcher) reset(_ context.Context, args []string) (*Body, Stop) {
	if len(args) != 1 {
		return NewBody(MessageArgumentError), StopNone
	}
	if isNumeric(args[0]) {
		return NewBody(MessageValueTypeError), StopNone
	}

	homeID := d.registry.HomeID()
	kind := strings.ToLower(args[0])
	switch kind {
	case "hard":
		if err := d.manager.ResetController(homeID); err != nil {
			return d.managerFailure("reset", err), StopNone
		}
		return NewBody(MessageAccepted).Set("reset", kind), StopNone
	case "soft":
		if err := d.manager.SoftReset(homeID); err != nil {
			return d.managerFailure("reset", err), StopNone
		}
		return NewBody(MessageAccepted).Set("reset", kind), StopNone
	case "bash":
		return NewBody(MessageAccepted).Set("reset", kind), StopReinstall
	default:
		return NewBody(MessageInvalidArgument), StopNone
	}
}

func (d *Dispatcher) heal(_ context.Context, args []string) (*Body, Stop) {
	homeID := d.registry.HomeID()

	switch len(args) {
	case 0:
		body := NewBody(MessageNoContent).Set("target", "network")
		if err := d.manager.HealNetwork(homeID); err != nil {
			d.logger.Warn("network heal not started", "error", err)
			return body.Set("started", false).Set("error", err.Error()), StopNone
		}
		return body.Set("started", true), StopNone
	case 1:
		n, msg, ok := d.resolveNode(args[0])
		if !ok {
			return NewBody(msg), StopNone
		}
		body := NewBody(MessageNoContent).Set("target", n.NodeID)
		if err := d.manager.HealNode(n.HomeID, n.NodeID); err != nil {
			d.logger.Warn("node heal not started", "node_id", n.NodeID, "error", err)
			return body.Set("started", false).Set("error", err.Error()), StopNone
		}
		return body.Set("started", true), StopNone
	default:
		return NewBody(MessageArgumentError), StopNone
	}
}

func (d *Dispatcher) isFailed(_ context.Context, args []string) (*Body, Stop) {
	if len(args) != 1 {
		return NewBody(MessageArgumentError), StopNone
	}
	n, msg, ok := d.resolveNode(args[0])
	if !ok {
		return NewBody(msg), StopNone
	}
	failed, err := d.manager.IsNodeFailed(n.HomeID, n.NodeID)
	if err != nil {
		return d.managerFailure("isFailed", err), StopNone
	}
	return NewBody(MessageNoContent).Set("nodeId", n.NodeID).Set("isFailed", failed), StopNone
}

func (d *Dispatcher) ping(ctx context.Context, args []string) (*Body, Stop) {
	if len(args) != 2 {
		return NewBody(MessageArgumentError), StopNone
	}
	if !isNumeric(args[0]) || !isNumeric(args[1]) {
		return NewBody(MessageValueTypeError), StopNone
	}
	n, msg, ok := d.resolveNode(args[0])
	if !ok {
		return NewBody(msg), StopNone
	}
	count, err := strconv.Atoi(args[1])
	if err != nil || count < minPingCount || count > maxPingCount {
		return NewBody(MessageInvalidArgument), StopNone
	}

	sent, received := 0, 0
	for i := 0; i < count; i++ {
		if ctx.Err() != nil {
			break
		}
		sent++
		acked, err := d.manager.PingNode(n.HomeID, n.NodeID)
		if err != nil {
			d.logger.Debug("ping failed", "node_id", n.NodeID, "error", err)
			continue
		}
		if acked {
			received++
		}
	}

	return NewBody(MessageNoContent).
		Set("nodeId", n.NodeID).
		Set("sent", sent).
		Set("received", received).
		Set("lost", sent-received), StopNone
}

func (d *Dispatcher) broadcast(_ context.Context, args []string) (*Body, Stop) {
	if len(args) != 0 {
		return NewBody(MessageArgumentError), StopNone
	}
	all := d.registry.All()
	if d.publisher != nil {
		for _, n := range all {
			d.publisher.PublishNodeStatus(n)
		}
	}
	return NewBody(MessageOk).Set("nodes", len(all)), StopNone
}

func (d *Dispatcher) setMode(_ context.Context, args []string) (*Body, Stop) {
	if len(args) != 1 {
		return NewBody(MessageArgumentError), StopNone
	}

	m, err := d.modes.Set(args[0])
	if errors.Is(err, mode.ErrUnknownMode) {
		return NewBody(MessageInvalidArgument).Set("modes", d.modes.Catalog().Names()), StopNone
	}
	if err != nil {
		d.logger.Error("persisting mode failed", "mode", args[0], "error", err)
		return NewBody(MessageManagerError).Set("error", err.Error()), StopNone
	}

	if d.journal != nil {
		d.journal.SetLevel(m.Log)
	}
	if d.monitor != nil {
		d.monitor.SetInterval(m.Interval())
	}
	for _, l := range d.listeners {
		l.ModeChanged(m)
	}
	return NewBody(MessageNoContent).
		Set("mode", m.Name).
		Set("log", m.Log.String()).
		Set("pollInterval", m.PollInterval), StopNone
}

func (d *Dispatcher) help(_ context.Context, _ []string) (*Body, Stop) {
	return NewBody(MessageOk).Set("commands", Catalog), StopNone
}

func (d *Dispatcher) reboot(_ context.Context, _ []string) (*Body, Stop) {
	return NewBody(MessageOk), StopReboot
}

func (d *Dispatcher) shutdown(_ context.Context, _ []string) (*Body, Stop) {
	return NewBody(MessageNoContent), StopShutdown
}
