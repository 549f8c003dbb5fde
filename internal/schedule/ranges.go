package schedule

import "belleza/internal/models"

// Intersect returns all non-empty pairwise intersections of two sets of
// disjoint, ascending minute ranges. The result is itself disjoint and
// ascending. Pure function: inputs are never mutated.
func Intersect(a, b []models.TimeRange) []models.TimeRange {
	var out []models.TimeRange

	i, j := 0, 0
	for i < len(a) && j < len(b) {
		open := max(a[i].Open, b[j].Open)
		close_ := min(a[i].Close, b[j].Close)
		if close_ > open {
			out = append(out, models.TimeRange{Open: open, Close: close_})
		}

		// Advance whichever range ends first; the other may still intersect
		// the next range on the opposite side.
		if a[i].Close < b[j].Close {
			i++
		} else {
			j++
		}
	}
	return out
}

// EffectiveWindow computes the open ranges for a stylist on one weekday.
// With no stylist override for that day the tenant ranges apply as-is;
// with an override the result is the intersection of both.
func EffectiveWindow(tenant models.WeeklySchedule, override models.WeeklySchedule, day models.Weekday) []models.TimeRange {
	tenantDay := tenant[day]
	if !tenantDay.Active {
		return nil
	}

	stylistDay, overridden := override[day]
	if !overridden {
		return tenantDay.Ranges
	}
	if !stylistDay.Active {
		return nil
	}
	return Intersect(tenantDay.Ranges, stylistDay.Ranges)
}
