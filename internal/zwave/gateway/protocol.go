package gateway

import (
	"encoding/json"
	"fmt"

	"github.com/nerrad567/gray-logic-zwave/internal/zwave"
)

// request is published on {prefix}/request/{id}.
type request struct {
	ID     string `json:"id"`
	Method string `json:"method"`
	Params params `json:"params"`
}

// params carries the arguments of every Manager call. Unused fields are
// omitted from the wire.
type params struct {
	Device  string         `json:"device,omitempty"`
	HomeID  uint32         `json:"homeId,omitempty"`
	NodeID  uint8          `json:"nodeId,omitempty"`
	Group   uint8          `json:"group,omitempty"`
	ValueID *zwave.ValueID `json:"valueId,omitempty"`
	Value   *string        `json:"value,omitempty"`
	Bool    *bool          `json:"bool,omitempty"`
}

// response is published by the gateway on {prefix}/response/{id}.
type response struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *remoteError    `json:"error,omitempty"`
}

type remoteError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes the gateway reports. Each maps onto a zwave sentinel.
const (
	CodeNotAvailable = "not_available"
	CodeUnknownNode  = "unknown_node"
	CodeUnknownValue = "unknown_value"
	CodeInvalidValue = "invalid_value"
	CodeDestroyed    = "destroyed"
)

var codeErrors = map[string]error{
	CodeNotAvailable: zwave.ErrNotAvailable,
	CodeUnknownNode:  zwave.ErrUnknownNode,
	CodeUnknownValue: zwave.ErrUnknownValue,
	CodeInvalidValue: zwave.ErrInvalidValue,
	CodeDestroyed:    zwave.ErrDestroyed,
}

func (e *remoteError) err() error {
	sentinel, ok := codeErrors[e.Code]
	if !ok {
		sentinel = ErrRemote
	}
	if e.Message == "" {
		return sentinel
	}
	return fmt.Errorf("%w: %s", sentinel, e.Message)
}

// event is published by the gateway on {prefix}/event/{kind} for every
// driver notification. Type uses the controller's numeric codes.
type event struct {
	Type    uint8         `json:"type"`
	HomeID  uint32        `json:"homeId"`
	NodeID  uint8         `json:"nodeId"`
	ValueID zwave.ValueID `json:"valueId"`
	Byte    uint8         `json:"byte,omitempty"`
}

func (e event) notification() zwave.Notification {
	return zwave.Notification{
		Type:    zwave.NotificationType(e.Type),
		HomeID:  e.HomeID,
		NodeID:  e.NodeID,
		ValueID: e.ValueID,
		Byte:    e.Byte,
	}
}

func node(homeID uint32, nodeID uint8) params {
	return params{HomeID: homeID, NodeID: nodeID}
}

func value(v zwave.ValueID) params {
	return params{ValueID: &v}
}
