package zwave

import "fmt"

// NotificationType identifies the kind of event delivered to the watcher.
// Numeric codes match the controller stack and are logged verbatim for
// unrecognised events.
type NotificationType uint8

// Notification types.
const (
	NotificationValueAdded NotificationType = iota
	NotificationValueRemoved
	NotificationValueChanged
	NotificationValueRefreshed
	NotificationGroup
	NotificationNodeNew
	NotificationNodeAdded
	NotificationNodeRemoved
	NotificationNodeProtocolInfo
	NotificationNodeNaming
	NotificationNodeEvent
	NotificationPollingDisabled
	NotificationPollingEnabled
	NotificationSceneEvent
	NotificationCreateButton
	NotificationDeleteButton
	NotificationButtonOn
	NotificationButtonOff
	NotificationDriverReady
	NotificationDriverFailed
	NotificationDriverReset
	NotificationEssentialNodeQueriesComplete
	NotificationNodeQueriesComplete
	NotificationAwakeNodesQueried
	NotificationAllNodesQueriedSomeDead
	NotificationAllNodesQueried
	NotificationNotification
	NotificationDriverRemoved
	NotificationControllerCommand
	NotificationNodeReset
	NotificationUserAlerts
	NotificationManufacturerSpecificDBReady
)

var notificationNames = map[NotificationType]string{
	NotificationValueAdded:                   "VALUE_ADDED",
	NotificationValueRemoved:                 "VALUE_REMOVED",
	NotificationValueChanged:                 "VALUE_CHANGED",
	NotificationValueRefreshed:               "VALUE_REFRESHED",
	NotificationGroup:                        "GROUP",
	NotificationNodeNew:                      "NODE_NEW",
	NotificationNodeAdded:                    "NODE_ADDED",
	NotificationNodeRemoved:                  "NODE_REMOVED",
	NotificationNodeProtocolInfo:             "NODE_PROTOCOL_INFO",
	NotificationNodeNaming:                   "NODE_NAMING",
	NotificationNodeEvent:                    "NODE_EVENT",
	NotificationPollingDisabled:              "POLLING_DISABLED",
	NotificationPollingEnabled:               "POLLING_ENABLED",
	NotificationSceneEvent:                   "SCENE_EVENT",
	NotificationCreateButton:                 "CREATE_BUTTON",
	NotificationDeleteButton:                 "DELETE_BUTTON",
	NotificationButtonOn:                     "BUTTON_ON",
	NotificationButtonOff:                    "BUTTON_OFF",
	NotificationDriverReady:                  "DRIVER_READY",
	NotificationDriverFailed:                 "DRIVER_FAILED",
	NotificationDriverReset:                  "DRIVER_RESET",
	NotificationEssentialNodeQueriesComplete: "ESSENTIAL_NODE_QUERIES_COMPLETE",
	NotificationNodeQueriesComplete:          "NODE_QUERIES_COMPLETE",
	NotificationAwakeNodesQueried:            "AWAKE_NODES_QUERIED",
	NotificationAllNodesQueriedSomeDead:      "ALL_NODES_QUERIED_SOME_DEAD",
	NotificationAllNodesQueried:              "ALL_NODES_QUERIED",
	NotificationNotification:                 "NOTIFICATION",
	NotificationDriverRemoved:                "DRIVER_REMOVED",
	NotificationControllerCommand:            "CONTROLLER_COMMAND",
	NotificationNodeReset:                    "NODE_RESET",
	NotificationUserAlerts:                   "USER_ALERTS",
	NotificationManufacturerSpecificDBReady:  "MANUFACTURER_SPECIFIC_DB_READY",
}

// String returns the upper-case event name used in node log files.
func (t NotificationType) String() string {
	if name, ok := notificationNames[t]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", uint8(t))
}

// Known reports whether t is one of the defined notification types.
func (t NotificationType) Known() bool {
	_, ok := notificationNames[t]
	return ok
}

// LivenessQualifying reports whether receiving t proves the node is reachable.
func (t NotificationType) LivenessQualifying() bool {
	return t == NotificationValueChanged || t == NotificationValueRefreshed
}

// CarriesNode reports whether notifications of type t refer to a specific node.
func (t NotificationType) CarriesNode() bool {
	switch t {
	case NotificationDriverReady, NotificationDriverFailed, NotificationDriverReset,
		NotificationDriverRemoved, NotificationAwakeNodesQueried,
		NotificationAllNodesQueried, NotificationAllNodesQueriedSomeDead,
		NotificationManufacturerSpecificDBReady, NotificationControllerCommand:
		return false
	default:
		return t.Known()
	}
}

// Notification is one event delivered by the controller stack.
type Notification struct {
	Type    NotificationType
	HomeID  uint32
	NodeID  uint8
	ValueID ValueID

	// Byte carries the type-specific payload (event code, group index,
	// controller state, ...). Zero when unused.
	Byte uint8
}

// String returns a compact description used in logs.
func (n Notification) String() string {
	return fmt.Sprintf("%s home=0x%08x node=%d", n.Type, n.HomeID, n.NodeID)
}
