package mqtt

import (
	"fmt"
	"strconv"
)

// DefaultTopicPrefix roots every topic zwaved publishes when the
// configuration leaves mqtt.topic_prefix empty.
const DefaultTopicPrefix = "zwave"

// Topics builds the topics zwaved publishes on. The zero value uses
// DefaultTopicPrefix.
//
//	topics := mqtt.Topics{Prefix: "site1/zwave"}
//	topics.NodeState(7) // "site1/zwave/state/node/7"
type Topics struct {
	Prefix string
}

func (t Topics) prefix() string {
	if t.Prefix == "" {
		return DefaultTopicPrefix
	}
	return t.Prefix
}

// Status is the retained daemon status topic, also used for the LWT.
//
// Example: zwave/system/status
func (t Topics) Status() string {
	return t.prefix() + "/system/status"
}

// Mode carries the active operating mode after each change.
//
// Example: zwave/system/mode
func (t Topics) Mode() string {
	return t.prefix() + "/system/mode"
}

// NodeState is the retained per-node status topic.
//
// Example: zwave/state/node/7
func (t Topics) NodeState(nodeID uint8) string {
	return fmt.Sprintf("%s/state/node/%d", t.prefix(), nodeID)
}

// Liveness carries the alive/dead totals after each sweep.
//
// Example: zwave/state/liveness
func (t Topics) Liveness() string {
	return t.prefix() + "/state/liveness"
}

// AllNodeStates matches every NodeState topic.
//
// Pattern: zwave/state/node/+
func (t Topics) AllNodeStates() string {
	return t.prefix() + "/state/node/+"
}

// GatewayTopics builds the request/response topics of a remote Z-Wave
// gateway that owns the serial controller.
//
//	g := mqtt.GatewayTopics{Prefix: "zwave/gateway"}
//	g.Request("9f1c...") // "zwave/gateway/request/9f1c..."
type GatewayTopics struct {
	Prefix string
}

// Request is where zwaved sends a controller call.
func (g GatewayTopics) Request(requestID string) string {
	return g.Prefix + "/request/" + requestID
}

// Response is where the gateway answers a request.
func (g GatewayTopics) Response(requestID string) string {
	return g.Prefix + "/response/" + requestID
}

// AllResponses matches every Response topic.
func (g GatewayTopics) AllResponses() string {
	return g.Prefix + "/response/+"
}

// Event carries one driver notification from the gateway.
func (g GatewayTopics) Event(kind string) string {
	return g.Prefix + "/event/" + kind
}

// AllEvents matches every Event topic.
func (g GatewayTopics) AllEvents() string {
	return g.Prefix + "/event/+"
}

// LastSegment returns the final level of topic, e.g. the request id of a
// response topic.
func LastSegment(topic string) string {
	for i := len(topic) - 1; i >= 0; i-- {
		if topic[i] == '/' {
			return topic[i+1:]
		}
	}
	return topic
}

// ParseNodeID extracts the node id from a NodeState topic.
func ParseNodeID(topic string) (uint8, error) {
	id, err := strconv.ParseUint(LastSegment(topic), 10, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidTopic, topic)
	}
	return uint8(id), nil
}
