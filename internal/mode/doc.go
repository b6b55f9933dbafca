// Package mode manages zwaved's runtime operating modes.
//
// A mode bundles the audit verbosity with the liveness poll interval. The
// catalog comes from configuration; the active mode survives restarts in a
// small JSON document that is rewritten on every successful switch.
package mode
