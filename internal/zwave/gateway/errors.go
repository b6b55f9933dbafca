package gateway

import "errors"

// Domain errors for the gateway package.
var (
	// ErrTimeout is returned when the gateway does not answer a request in time.
	ErrTimeout = errors.New("gateway: request timed out")

	// ErrBadResponse is returned when a response cannot be decoded.
	ErrBadResponse = errors.New("gateway: malformed response")

	// ErrRemote is returned for a gateway error code zwaved does not map.
	ErrRemote = errors.New("gateway: remote error")
)
