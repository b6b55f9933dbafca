// Package api implements the read-only HTTP status API of zwaved.
//
// This package provides:
//   - GET /api/v1/health: component health, 503 when any probe fails
//   - GET /api/v1/metrics: JSON runtime and registry summary
//   - GET /api/v1/mode: the active operating mode
//   - GET /api/v1/nodes and /api/v1/nodes/{id}: the live node registry
//   - GET /api/v1/snapshots and /api/v1/snapshots/{id}: persisted node state
//   - GET /api/v1/audit: the command journal, filterable and paginated
//   - GET /metrics: Prometheus exposition
//
// Control stays on the line-oriented socket protocol served by the server
// package. The API never mutates state, so it carries no authentication and
// should be bound to a trusted interface.
package api
