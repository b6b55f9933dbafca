// Package audit journals every command received on the control socket.
//
// Each entry carries the status, message, command name and arguments. The
// Journal appends entries to info.log or error.log depending on the active
// verbosity and hands every entry to a Repository (SQLite audit_logs) through
// a bounded channel drained by Run.
package audit
