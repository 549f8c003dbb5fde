package models

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusScheduled   Status = "scheduled"
	StatusRescheduled Status = "rescheduled"
	StatusCheckedIn   Status = "checked_in"
	StatusCheckedOut  Status = "checked_out"
	StatusCompleted   Status = "completed"
	StatusCancelled   Status = "cancelled"
)

// blockingStatuses occupy the stylist's calendar for conflict checks.
// Membership is a named set so a typo cannot silently break the
// no-double-booking invariant.
var blockingStatuses = map[Status]struct{}{
	StatusScheduled:   {},
	StatusRescheduled: {},
	StatusCheckedIn:   {},
}

// Blocks reports whether an appointment in this status occupies the calendar.
func (s Status) Blocks() bool {
	_, ok := blockingStatuses[s]
	return ok
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusRescheduled, StatusCheckedIn,
		StatusCheckedOut, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// transitions is the appointment state machine. Cancellation is reachable
// from every pre-completed state; everything else moves forward only.
var transitions = map[Status][]Status{
	StatusScheduled:   {StatusRescheduled, StatusCheckedIn, StatusCancelled},
	StatusRescheduled: {StatusRescheduled, StatusCheckedIn, StatusCancelled},
	StatusCheckedIn:   {StatusCheckedOut, StatusCancelled},
	StatusCheckedOut:  {StatusCompleted, StatusCancelled},
	StatusCompleted:   {},
	StatusCancelled:   {},
}

// CanTransition reports whether from -> to is a legal status change.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
