package models

import "fmt"

// Weekday is a canonical English lowercase weekday key. Raw schedules may use
// localized day names; the resolver maps them onto these keys.
type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

// WeekdayOrder lists the canonical keys Monday first.
var WeekdayOrder = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// TimeRange is a half-open [Open, Close) span in minutes of day.
type TimeRange struct {
	Open  int `json:"open"`
	Close int `json:"close"`
}

func (r TimeRange) String() string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d", r.Open/60, r.Open%60, r.Close/60, r.Close%60)
}

// DaySchedule holds the open ranges for one weekday. Inactive days carry no
// ranges.
type DaySchedule struct {
	Active bool        `json:"active"`
	Ranges []TimeRange `json:"ranges,omitempty"`
}

// WeeklySchedule maps every canonical weekday to its day schedule. A resolved
// schedule always has all seven keys present.
type WeeklySchedule map[Weekday]DaySchedule

// RawSchedule is an unvalidated schedule as stored or received: day keys in
// any supported spelling, values as range strings, closed markers or
// structured records. The resolver turns it into a WeeklySchedule.
type RawSchedule map[string]any
