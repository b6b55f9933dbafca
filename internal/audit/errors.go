package audit

import "errors"

// Errors returned by the audit package.
var (
	// ErrDirRequired is returned when a Journal is created without a directory.
	ErrDirRequired = errors.New("audit: directory required")

	// ErrInvalidFilter is returned for an unsupported List filter.
	ErrInvalidFilter = errors.New("audit: invalid filter")
)
