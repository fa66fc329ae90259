package attendance

import "errors"

// Attendance domain errors
var (
	// Engine errors
	ErrInvalidTransition  = errors.New("action is not allowed in the current attendance state")
	ErrDuplicateRecord    = errors.New("an attendance record already exists for this employee and date")
	ErrRecordNotFound     = errors.New("attendance record not found")
	ErrStorageUnavailable = errors.New("attendance storage is unavailable")

	// Repository compare-and-swap miss
	ErrVersionConflict = errors.New("attendance record was modified concurrently")

	// Input errors
	ErrInvalidAction = errors.New("unknown attendance action")
)
