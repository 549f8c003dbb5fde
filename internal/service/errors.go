package service

import "errors"

var (
	// ErrStylistNotFound signals that a requested stylist name matched no
	// qualified stylist. A negative business result, not a system fault.
	ErrStylistNotFound = errors.New("stylist not found")

	// ErrNoStylistAvailable signals that no eligible stylist can take the
	// requested window.
	ErrNoStylistAvailable = errors.New("no stylist available")

	// ErrOutsideWorkingHours signals a booking attempt outside the
	// stylist's effective working hours.
	ErrOutsideWorkingHours = errors.New("slot outside working hours")
)

// Slot rejection reasons returned by availability checks.
const (
	ReasonOutsideWorkingHours = "outside_working_hours"
	ReasonConflict            = "conflict"
)
