package database

import "errors"

var (
	// ErrNotFound signals a missing row for a lookup by id.
	ErrNotFound = errors.New("record not found")

	// ErrSlotConflict signals that the requested window overlaps a blocking
	// appointment. Expected under concurrency; callers should recompute
	// availability and retry once.
	ErrSlotConflict = errors.New("slot already booked")

	// ErrInvalidTransition signals a status update whose guard on the
	// expected current status did not hold.
	ErrInvalidTransition = errors.New("invalid status transition")
)
