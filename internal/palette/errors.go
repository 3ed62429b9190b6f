package palette

import "errors"

var (
	// ErrInvalidConfiguration is returned before any generation happens when
	// the step domain, scale factors or classifier thresholds are unusable.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrInvalidFilterSpec is returned when a filter contains a contradictory
	// or out-of-range predicate.
	ErrInvalidFilterSpec = errors.New("invalid filter spec")

	// ErrIndexOutOfRange is returned when a record index is not part of the
	// current generated set.
	ErrIndexOutOfRange = errors.New("record index out of range")
)
