package telemetry

import "errors"

var (
	// ErrQueueFull is logged when an event is dropped because the recorder
	// is not keeping up.
	ErrQueueFull = errors.New("telemetry: event queue full")

	// ErrSnapshotNotFound is returned by SnapshotStore.Get for an unknown node.
	ErrSnapshotNotFound = errors.New("telemetry: snapshot not found")
)
