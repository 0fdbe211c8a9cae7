package campaign

import "errors"

var (
	// ErrNotFound indicates no campaign matches the given id or thread.
	ErrNotFound = errors.New("campaign: not found")

	// ErrPatientNotFound indicates the campaign references a patient that
	// does not exist.
	ErrPatientNotFound = errors.New("campaign: patient not found")

	// ErrInvalidInput flags request fields that fail validation.
	ErrInvalidInput = errors.New("campaign: invalid input")

	// ErrConcurrentModification indicates the record changed between read and
	// write; the caller should reload and re-evaluate.
	ErrConcurrentModification = errors.New("campaign: concurrent modification")

	// ErrIllegalTransition guards the state machine against programming
	// errors; it is never used for expected flow.
	ErrIllegalTransition = errors.New("campaign: illegal state transition")
)
