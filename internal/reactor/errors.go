package reactor

import "errors"

// ErrClosed is returned by Flush once the reactor has been closed.
var ErrClosed = errors.New("reactor: closed")
