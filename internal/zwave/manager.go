package zwave

// Watcher receives notifications from the controller stack.
//
// The controller may invoke the watcher from its own goroutines and may do so
// while a Manager call made by the watcher's owner is still in progress.
// Implementations must therefore return quickly and must not assume they are
// called from a single goroutine.
type Watcher func(n Notification)

// Manager is the capability surface of a Z-Wave controller stack.
//
// Lifecycle: construct the implementation, AddWatcher, AddDriver, use it,
// then RemoveWatcher and Destroy. Calls after Destroy return ErrDestroyed.
//
// Every method may return ErrNotAvailable.
type Manager interface {
	// Watcher registration. Only one watcher is supported.
	AddWatcher(w Watcher) error
	RemoveWatcher() error

	// Driver control.
	AddDriver(devicePath string) error
	RemoveDriver(devicePath string) error
	Destroy() error

	// Node accessors.
	GetNodeName(homeID uint32, nodeID uint8) (string, error)
	GetNodeProductName(homeID uint32, nodeID uint8) (string, error)
	GetNodeType(homeID uint32, nodeID uint8) (string, error)
	GetNodeNeighbors(homeID uint32, nodeID uint8) (NeighborBitmap, error)
	IsNodeFailed(homeID uint32, nodeID uint8) (bool, error)
	IsNodeAwake(homeID uint32, nodeID uint8) (bool, error)
	GetNumGroups(homeID uint32, nodeID uint8) (uint8, error)
	GetAssociations(homeID uint32, nodeID uint8, group uint8) ([]uint8, error)

	// Value accessors and mutators.
	GetValueLabel(v ValueID) (string, error)
	GetValueAsString(v ValueID) (string, error)
	GetValueAsInt(v ValueID) (int32, error)
	SetValueFromString(v ValueID, value string) error
	SetValueBool(v ValueID, value bool) error
	GetValueListItems(v ValueID) ([]string, error)
	GetValueListSelection(v ValueID) (string, error)
	SetValueListSelection(v ValueID, item string) error
	PressButton(v ValueID) error
	ReleaseButton(v ValueID) error
	RefreshValue(v ValueID) error
	GetCommandClassName(commandClass uint8) string

	// Network-wide actions.
	AddNode(homeID uint32) error
	RemoveNode(homeID uint32) error
	HealNetwork(homeID uint32) error
	HealNode(homeID uint32, nodeID uint8) error
	ResetController(homeID uint32) error
	SoftReset(homeID uint32) error
	RequestNodeNeighborUpdate(homeID uint32, nodeID uint8) error

	// PingNode sends a single no-operation frame and reports whether the
	// node acknowledged it.
	PingNode(homeID uint32, nodeID uint8) (bool, error)
}
