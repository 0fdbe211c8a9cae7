package scheduling

import "errors"

var (
	// ErrInvalidDate means the requested date or time is outside the
	// bookable window or off the slot grid.
	ErrInvalidDate = errors.New("scheduling: invalid date")

	// ErrSlotUnavailable means the requested slot was already taken when
	// availability was re-derived at booking time.
	ErrSlotUnavailable = errors.New("scheduling: slot unavailable")

	// ErrSlotConflict means another booking claimed the slot between the
	// availability check and the write. Exactly one of the racing requests
	// gets this error.
	ErrSlotConflict = errors.New("scheduling: slot conflict")

	ErrNotFound = errors.New("scheduling: appointment not found")
)
