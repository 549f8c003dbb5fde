package schedule

import (
	"iter"

	"belleza/internal/models"
)

// Granularity is the fixed step, in minutes, at which candidate slot starts
// are enumerated inside an open window.
const Granularity = 30

// Candidates enumerates candidate start offsets (minutes of day) for a
// service of the given duration inside the window ranges. The sequence is
// lazy, finite and restartable; starts ascend and a slot is yielded only
// when it fits entirely before the range close. Conflicts with existing
// appointments are not considered here.
func Candidates(window []models.TimeRange, durationMinutes int) iter.Seq[int] {
	return func(yield func(int) bool) {
		if durationMinutes <= 0 {
			return
		}
		for _, r := range window {
			for start := r.Open; start+durationMinutes <= r.Close; start += Granularity {
				if !yield(start) {
					return
				}
			}
		}
	}
}

// CandidateList materializes Candidates into a slice.
func CandidateList(window []models.TimeRange, durationMinutes int) []int {
	var out []int
	for start := range Candidates(window, durationMinutes) {
		out = append(out, start)
	}
	return out
}

// Contains reports whether a slot starting at the given minute offset with
// the given duration lies inside one of the window ranges. The start bound
// is inclusive, the close bound applies to the slot end.
func Contains(window []models.TimeRange, startMinute, durationMinutes int) bool {
	for _, r := range window {
		if startMinute >= r.Open && startMinute+durationMinutes <= r.Close {
			return true
		}
	}
	return false
}
