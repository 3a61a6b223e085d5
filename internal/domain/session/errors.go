package session

import "errors"

var (
	// ErrNoActiveProject indicates the command needs a selected project.
	ErrNoActiveProject = errors.New("no active project")
	// ErrNotEditing indicates no round-entry episode is open.
	ErrNotEditing = errors.New("no round edit in progress")
	// ErrEditInProgress indicates the command is not allowed while a round edit is open.
	ErrEditInProgress = errors.New("round edit in progress")
	// ErrPositionOutOfRange indicates an entry position outside the roster.
	ErrPositionOutOfRange = errors.New("entry position out of range")
	// ErrStoreRequired indicates a controller was built without a store.
	ErrStoreRequired = errors.New("project store is required")
)
