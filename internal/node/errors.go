package node

import "errors"

// Errors returned by the node package.
var (
	// ErrLogDirRequired is returned when a LogStore is created without a directory.
	ErrLogDirRequired = errors.New("node: log directory required")

	// ErrLogStoreClosed is returned when writing to a closed LogStore.
	ErrLogStoreClosed = errors.New("node: log store closed")
)
