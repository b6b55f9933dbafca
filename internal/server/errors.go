package server

import "errors"

var (
	// ErrNotListening is returned by Serve before Listen succeeded.
	ErrNotListening = errors.New("server: not listening")

	// ErrAlreadyListening is returned by a second Listen call.
	ErrAlreadyListening = errors.New("server: already listening")
)
