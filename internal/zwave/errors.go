package zwave

import "errors"

// Domain errors for the zwave package.
var (
	// ErrNotAvailable is returned when the controller cannot answer a request,
	// for example because the driver is not ready or the node has not been
	// interviewed yet.
	ErrNotAvailable = errors.New("zwave: not available")

	// ErrUnknownNode is returned when the controller does not know the node.
	ErrUnknownNode = errors.New("zwave: unknown node")

	// ErrUnknownValue is returned when the controller does not know the value.
	ErrUnknownValue = errors.New("zwave: unknown value")

	// ErrInvalidValue is returned when a value cannot be set from the given input.
	ErrInvalidValue = errors.New("zwave: invalid value")

	// ErrWatcherExists is returned when a second watcher is registered.
	ErrWatcherExists = errors.New("zwave: watcher already registered")

	// ErrDestroyed is returned by any call made after Destroy.
	ErrDestroyed = errors.New("zwave: manager destroyed")
)
