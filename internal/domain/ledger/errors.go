package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput indicates a project failed validation.
	ErrInvalidInput = errors.New("invalid project input")
	// ErrEmptyName indicates the project name was blank after trimming.
	ErrEmptyName = fmt.Errorf("%w: project name is required", ErrInvalidInput)
	// ErrNoMembers indicates the roster was empty after trimming.
	ErrNoMembers = fmt.Errorf("%w: at least one member is required", ErrInvalidInput)
	// ErrTooManyMembers indicates the roster exceeded MaxMembers.
	ErrTooManyMembers = fmt.Errorf("%w: at most %d members are allowed", ErrInvalidInput, MaxMembers)

	// ErrRoundOutOfRange indicates a round index outside the project's rounds.
	ErrRoundOutOfRange = errors.New("round index out of range")

	// ErrTotalOverflow indicates a change would push a member total past the int64 range.
	ErrTotalOverflow = errors.New("member total out of range")
)
