package zwave

import "fmt"

// ControllerNodeID is the node id reserved for the primary controller.
// It is excluded from neighbor and liveness tracking.
const ControllerNodeID uint8 = 1

// NeighborBitmapSize is the number of bytes in a node neighbor bitmap.
// 29 bytes cover the 232 node ids a Z-Wave network can address.
const NeighborBitmapSize = 29

// NeighborBitmap is the adjacency bitmap returned by the controller for one node.
// Bit n of byte b set means node (b*8 + n + 1) is a direct neighbor.
type NeighborBitmap [NeighborBitmapSize]byte

// NodeIDs expands the bitmap into a sorted list of neighbor node ids. The
// result is never nil and encodes as a JSON array of numbers.
func (b NeighborBitmap) NodeIDs() []int {
	ids := []int{}
	for i, octet := range b {
		for bit := 0; bit < 8; bit++ {
			if octet&(1<<bit) != 0 {
				ids = append(ids, i*8+bit+1)
			}
		}
	}
	return ids
}

// ValueType identifies how a value's payload is represented.
type ValueType uint8

// Value types, in controller order.
const (
	ValueTypeBool ValueType = iota
	ValueTypeByte
	ValueTypeDecimal
	ValueTypeInt
	ValueTypeList
	ValueTypeSchedule
	ValueTypeShort
	ValueTypeString
	ValueTypeButton
	ValueTypeRaw
)

var valueTypeNames = [...]string{
	"bool", "byte", "decimal", "int", "list", "schedule", "short", "string", "button", "raw",
}

// String returns the lowercase type name.
func (t ValueType) String() string {
	if int(t) < len(valueTypeNames) {
		return valueTypeNames[t]
	}
	return fmt.Sprintf("type(%d)", uint8(t))
}

// ValueGenre classifies a value by audience.
type ValueGenre uint8

// Value genres.
const (
	GenreBasic ValueGenre = iota
	GenreUser
	GenreConfig
	GenreSystem
)

// Command class identifiers used by zwaved.
const (
	CommandClassSwitchBinary     uint8 = 0x25
	CommandClassSwitchMultilevel uint8 = 0x26
	CommandClassSensorBinary     uint8 = 0x30
	CommandClassSensorMultilevel uint8 = 0x31
	CommandClassConfiguration    uint8 = 0x70
	CommandClassBattery          uint8 = 0x80
	CommandClassWakeUp           uint8 = 0x84
)

// WakeUpIntervalIndex is the value index of the wake-up interval (seconds)
// within the WAKE_UP command class.
const WakeUpIntervalIndex uint8 = 0

// ValueID is an opaque reference to one parameter exposed by a node.
// Two ValueIDs refer to the same parameter when their ID fields are equal.
type ValueID struct {
	HomeID       uint32     `json:"homeId"`
	ID           uint64     `json:"id"`
	NodeID       uint8      `json:"nodeId"`
	CommandClass uint8      `json:"commandClass"`
	Instance     uint8      `json:"instance"`
	Index        uint8      `json:"index"`
	Type         ValueType  `json:"type"`
	Genre        ValueGenre `json:"genre"`
}

// IsValid reports whether the reference points at a value at all.
// Notifications that are not about a value carry a zero ValueID.
func (v ValueID) IsValid() bool {
	return v.ID != 0
}

// IsWakeUpInterval reports whether v is a node's wake-up interval value.
func (v ValueID) IsWakeUpInterval() bool {
	return v.CommandClass == CommandClassWakeUp && v.Index == WakeUpIntervalIndex
}

// String returns a compact human-readable form used in logs.
func (v ValueID) String() string {
	return fmt.Sprintf("0x%08x:%d:%d:%d:%d", v.HomeID, v.NodeID, v.CommandClass, v.Instance, v.Index)
}

// MakeValueID builds a ValueID whose ID packs the addressing fields the same
// way the controller does, so that ids stay stable across restarts.
func MakeValueID(homeID uint32, nodeID, commandClass, instance, index uint8, typ ValueType, genre ValueGenre) ValueID {
	id := uint64(nodeID)<<32 |
		uint64(genre)<<30 |
		uint64(commandClass)<<22 |
		uint64(index)<<12 |
		uint64(instance)<<4 |
		uint64(typ)
	return ValueID{
		HomeID:       homeID,
		ID:           id,
		NodeID:       nodeID,
		CommandClass: commandClass,
		Instance:     instance,
		Index:        index,
		Type:         typ,
		Genre:        genre,
	}
}

var commandClassNames = map[uint8]string{
	CommandClassSwitchBinary:     "COMMAND_CLASS_SWITCH_BINARY",
	CommandClassSwitchMultilevel: "COMMAND_CLASS_SWITCH_MULTILEVEL",
	CommandClassSensorBinary:     "COMMAND_CLASS_SENSOR_BINARY",
	CommandClassSensorMultilevel: "COMMAND_CLASS_SENSOR_MULTILEVEL",
	CommandClassConfiguration:    "COMMAND_CLASS_CONFIGURATION",
	CommandClassBattery:          "COMMAND_CLASS_BATTERY",
	CommandClassWakeUp:           "COMMAND_CLASS_WAKE_UP",
}

// CommandClassName returns the symbolic name of a command class, or a hex
// placeholder for classes zwaved does not know.
func CommandClassName(commandClass uint8) string {
	if name, ok := commandClassNames[commandClass]; ok {
		return name
	}
	return fmt.Sprintf("COMMAND_CLASS_0x%02X", commandClass)
}
