// Package liveness classifies battery-powered nodes as dead or alive.
//
// Battery nodes sleep and report in once per wake-up interval. The Monitor
// treats a node as dead once more than one interval has passed since its last
// liveness-qualifying event. Nodes without a wake-up interval rely on the
// reactor alone.
package liveness
