// Package zwave defines the capability surface zwaved consumes from a Z-Wave
// controller stack.
//
// The controller stack (driver bring-up, serial framing, command-class
// encoding) is an external collaborator. zwaved only sees it through the
// Manager interface and the Notification values it delivers to a single
// registered Watcher.
//
// Two implementations ship with the module:
//   - sim: an in-memory controller used by tests and the "simulator" driver
//   - gateway: a client for a remote Z-Wave gateway reachable over MQTT
//
// Every Manager method may fail with ErrNotAvailable. Callers treat that as
// "the controller has no data yet", never as a fatal condition.
package zwave
