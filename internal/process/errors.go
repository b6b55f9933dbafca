package process

import "errors"

var (
	// ErrUnknownAction is returned for an action with no configured slot.
	ErrUnknownAction = errors.New("process: unknown action")

	// ErrNoScript is returned when the action's script path is empty.
	ErrNoScript = errors.New("process: no script configured")

	// ErrTimeout is returned when a script outlives its timeout.
	ErrTimeout = errors.New("process: script timed out")
)
