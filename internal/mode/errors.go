package mode

import "errors"

// Errors returned by the mode package.
var (
	// ErrUnknownMode is returned when a mode name is not in the catalog.
	ErrUnknownMode = errors.New("mode: unknown mode")

	// ErrInvalidMode is returned when a catalog entry is malformed.
	ErrInvalidMode = errors.New("mode: invalid mode")

	// ErrInvalidLevel is returned for an unrecognised verbosity name.
	ErrInvalidLevel = errors.New("mode: invalid log level")

	// ErrEmptyCatalog is returned when no modes are configured.
	ErrEmptyCatalog = errors.New("mode: empty catalog")
)
