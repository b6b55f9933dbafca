// Package server exposes the command Dispatcher on a local TCP socket.
//
// The protocol is deliberately minimal: a client connects, writes one
// comma-separated request, reads one JSON response terminated by a newline
// and the server closes the connection. Connections are served one at a time
// so commands never interleave.
//
// A command carrying a stop action (reboot, shutdown, reinstall) ends the
// accept loop. The server then tears the process down in a fixed order:
// detach the watcher, destroy the controller, clear the registry, close the
// listener, close the reactor queue and finally run the host script for the
// action. Cancelling the Serve context performs the same teardown without a
// script.
package server
