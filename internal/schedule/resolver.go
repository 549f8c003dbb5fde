package schedule

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"belleza/internal/models"
)

// ScheduleValidationError reports a malformed working-hours definition. Day
// names the offending canonical day (or the raw key when the value shape
// itself is broken).
type ScheduleValidationError struct {
	Day    string
	Reason string
}

func (e *ScheduleValidationError) Error() string {
	return fmt.Sprintf("invalid schedule for %s: %s", e.Day, e.Reason)
}

// dayAliases maps every accepted day spelling to its canonical key. Spanish
// names are accepted with and without diacritics. The table is deliberately a
// finite lookup, not pattern matching, so the resolver stays total.
var dayAliases = map[string]models.Weekday{
	"monday":    models.Monday,
	"tuesday":   models.Tuesday,
	"wednesday": models.Wednesday,
	"thursday":  models.Thursday,
	"friday":    models.Friday,
	"saturday":  models.Saturday,
	"sunday":    models.Sunday,

	"lunes":     models.Monday,
	"martes":    models.Tuesday,
	"miercoles": models.Wednesday,
	"miércoles": models.Wednesday,
	"jueves":    models.Thursday,
	"viernes":   models.Friday,
	"sabado":    models.Saturday,
	"sábado":    models.Saturday,
	"domingo":   models.Sunday,
}

// closedMarkers are string day values meaning "not open that day".
var closedMarkers = map[string]struct{}{
	"closed":  {},
	"cerrado": {},
	"off":     {},
	"no":      {},
	"":        {},
}

// CanonicalDay maps a raw day key to its canonical weekday. ok is false for
// unrecognized keys, which the resolver skips for forward compatibility.
func CanonicalDay(key string) (models.Weekday, bool) {
	day, ok := dayAliases[strings.ToLower(strings.TrimSpace(key))]
	return day, ok
}

// Resolve normalizes a raw schedule into a full WeeklySchedule: all seven
// canonical days present, missing days inactive, every range validated.
func Resolve(raw models.RawSchedule) (models.WeeklySchedule, error) {
	resolved, err := resolveDays(raw)
	if err != nil {
		return nil, err
	}

	full := make(models.WeeklySchedule, len(models.WeekdayOrder))
	for _, day := range models.WeekdayOrder {
		if ds, ok := resolved[day]; ok {
			full[day] = ds
		} else {
			full[day] = models.DaySchedule{Active: false}
		}
	}
	return full, nil
}

// ResolveOverride normalizes a partial schedule, keeping only the days the
// raw input actually mentions. Used for stylist overrides, where an absent
// day means "inherit the tenant schedule".
func ResolveOverride(raw models.RawSchedule) (models.WeeklySchedule, error) {
	return resolveDays(raw)
}

func resolveDays(raw models.RawSchedule) (models.WeeklySchedule, error) {
	out := make(models.WeeklySchedule)
	for key, value := range raw {
		day, ok := CanonicalDay(key)
		if !ok {
			continue
		}
		ds, err := resolveDayValue(day, value)
		if err != nil {
			return nil, err
		}
		out[day] = ds
	}
	return out, nil
}

// resolveDayValue accepts the supported day value shapes: a "HH:MM-HH:MM"
// string, a closed marker, an {active, open, close} record, or a list of
// either strings or records.
func resolveDayValue(day models.Weekday, value any) (models.DaySchedule, error) {
	switch v := value.(type) {
	case nil:
		return models.DaySchedule{Active: false}, nil
	case string:
		s := strings.ToLower(strings.TrimSpace(v))
		if _, closed := closedMarkers[s]; closed {
			return models.DaySchedule{Active: false}, nil
		}
		r, err := parseRangeString(day, v)
		if err != nil {
			return models.DaySchedule{}, err
		}
		return finishDay(day, []models.TimeRange{r})
	case map[string]any:
		r, active, err := parseRangeRecord(day, v)
		if err != nil {
			return models.DaySchedule{}, err
		}
		if !active {
			return models.DaySchedule{Active: false}, nil
		}
		return finishDay(day, []models.TimeRange{r})
	case []any:
		var ranges []models.TimeRange
		for _, item := range v {
			switch entry := item.(type) {
			case string:
				r, err := parseRangeString(day, entry)
				if err != nil {
					return models.DaySchedule{}, err
				}
				ranges = append(ranges, r)
			case map[string]any:
				r, active, err := parseRangeRecord(day, entry)
				if err != nil {
					return models.DaySchedule{}, err
				}
				if active {
					ranges = append(ranges, r)
				}
			default:
				return models.DaySchedule{}, &ScheduleValidationError{Day: string(day), Reason: "unsupported range entry"}
			}
		}
		if len(ranges) == 0 {
			return models.DaySchedule{Active: false}, nil
		}
		return finishDay(day, ranges)
	default:
		return models.DaySchedule{}, &ScheduleValidationError{Day: string(day), Reason: "unsupported day value"}
	}
}

func parseRangeRecord(day models.Weekday, record map[string]any) (models.TimeRange, bool, error) {
	if active, ok := record["active"].(bool); ok && !active {
		return models.TimeRange{}, false, nil
	}
	open, okOpen := record["open"].(string)
	close_, okClose := record["close"].(string)
	if !okOpen || !okClose {
		return models.TimeRange{}, false, &ScheduleValidationError{Day: string(day), Reason: "open and close are required"}
	}
	r, err := parseRangeString(day, open+"-"+close_)
	if err != nil {
		return models.TimeRange{}, false, err
	}
	return r, true, nil
}

func parseRangeString(day models.Weekday, s string) (models.TimeRange, error) {
	parts := strings.SplitN(strings.TrimSpace(s), "-", 2)
	if len(parts) != 2 {
		return models.TimeRange{}, &ScheduleValidationError{Day: string(day), Reason: fmt.Sprintf("range %q must be HH:MM-HH:MM", s)}
	}
	open, err := ParseClock(parts[0])
	if err != nil {
		return models.TimeRange{}, &ScheduleValidationError{Day: string(day), Reason: err.Error()}
	}
	close_, err := ParseClock(parts[1])
	if err != nil {
		return models.TimeRange{}, &ScheduleValidationError{Day: string(day), Reason: err.Error()}
	}
	if close_ <= open {
		return models.TimeRange{}, &ScheduleValidationError{Day: string(day), Reason: fmt.Sprintf("close %s must be after open %s", parts[1], parts[0])}
	}
	return models.TimeRange{Open: open, Close: close_}, nil
}

// ParseClock parses an "HH:MM" 24-hour token into minutes of day.
func ParseClock(s string) (int, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("time %q is not HH:MM", s)
	}
	hh, errH := strconv.Atoi(parts[0])
	mm, errM := strconv.Atoi(parts[1])
	if errH != nil || errM != nil || len(parts[1]) != 2 {
		return 0, fmt.Errorf("time %q is not HH:MM", s)
	}
	if hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return 0, fmt.Errorf("time %q is out of range", s)
	}
	return hh*60 + mm, nil
}

// finishDay sorts the ranges and rejects overlapping pairs on the same day.
func finishDay(day models.Weekday, ranges []models.TimeRange) (models.DaySchedule, error) {
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].Open < ranges[j].Open })
	for i := 1; i < len(ranges); i++ {
		if ranges[i].Open < ranges[i-1].Close {
			return models.DaySchedule{}, &ScheduleValidationError{
				Day:    string(day),
				Reason: fmt.Sprintf("ranges %s and %s overlap", ranges[i-1], ranges[i]),
			}
		}
	}
	return models.DaySchedule{Active: true, Ranges: ranges}, nil
}
