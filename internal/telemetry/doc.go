// Package telemetry carries zwaved's state to the outside world.
//
// The Recorder is handed to the registry, the liveness monitor and the
// command dispatcher. It queues their events without blocking and delivers
// them on its own goroutine to any number of sinks:
//
//   - MQTTSink: retained node status, liveness totals and mode on the broker
//   - InfluxSink: time-series points in InfluxDB
//   - SnapshotStore: last known node state in the node_snapshots table
//
// Metrics exposes Prometheus counters and gauges and is wired directly as
// the reactor and dispatcher observer, since incrementing a counter never
// blocks.
package telemetry
