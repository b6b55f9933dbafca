// Package reactor turns controller notifications into Registry updates.
//
// The controller delivers notifications from its own goroutines, sometimes
// while a call made by this process is still in progress. Reactor.Handle
// therefore only enqueues. A single worker (Run) applies the queue in order,
// which keeps every handler serialised without a recursive lock.
//
// Per event the worker:
//
//   - applies the type-specific registry change (add/remove node or value,
//     home id, neighbor bitmap, description refresh)
//   - marks the node alive if the event is VALUE_CHANGED or VALUE_REFRESHED
//   - appends a line to the node's event log
//
// Controller errors are logged at debug level and otherwise ignored; the
// controller may simply not have the data yet.
package reactor
