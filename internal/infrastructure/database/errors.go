package database

import "errors"

var (
	// ErrNoPath is returned by Open when Config.Path is empty.
	ErrNoPath = errors.New("database: path is required")

	// ErrUnhealthy wraps a failed health check query.
	ErrUnhealthy = errors.New("database: health check failed")

	// ErrMissingDown is returned when rolling back a migration that has no
	// .down.sql file.
	ErrMissingDown = errors.New("database: migration has no down script")

	// ErrUnknownMigration is returned when the newest applied version is not
	// in the supplied migration set.
	ErrUnknownMigration = errors.New("database: applied migration not found")
)
