package schedule

import (
	"time"

	"belleza/internal/models"
)

// Conflicts returns the IDs of appointments whose blocking-status interval
// overlaps the candidate [start, end). Touching boundaries do not conflict:
// a 14:00-15:00 slot is compatible with a 15:00-16:00 appointment.
// Non-blocking appointments (checked out, completed, cancelled) never
// conflict.
func Conflicts(start, end time.Time, appointments []*models.Appointment) []int64 {
	var ids []int64
	for _, appt := range appointments {
		if !appt.Status.Blocks() {
			continue
		}
		if appt.Overlaps(start, end) {
			ids = append(ids, appt.ID)
		}
	}
	return ids
}
