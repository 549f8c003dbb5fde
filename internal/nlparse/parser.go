// Package nlparse normalizes free-form date and time phrases coming from the
// conversational front end into canonical values in a tenant's operating
// timezone. Parsing is advisory: unrecognized input degrades to a default
// with Confident=false so the conversation can ask for confirmation instead
// of failing.
package nlparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical date form produced by ParseDate.
const DateLayout = "2006-01-02"

// DefaultTime is the fallback for unparseable time phrases.
const DefaultTime = "10:00"

// nextWeekdayCapDays bounds the "next <weekday>" modifier: when adding a week
// would land more than this many days out, the nearer occurrence is used
// instead. Inherited business rule, kept as documented.
const nextWeekdayCapDays = 13

// DateResult carries a canonical date plus a confidence flag. A low-confidence
// result means the phrase was not understood and the default (today) was used.
type DateResult struct {
	Date      string
	Confident bool
}

// TimeResult carries a canonical HH:MM time plus a confidence flag.
type TimeResult struct {
	Time      string
	Confident bool
}

var todayWords = map[string]struct{}{
	"hoy": {}, "today": {},
}

var tomorrowWords = map[string]struct{}{
	"manana": {}, "tomorrow": {},
}

var nextWords = map[string]struct{}{
	"proximo": {}, "proxima": {}, "siguiente": {}, "next": {}, "following": {},
}

var weekdayWords = map[string]time.Weekday{
	"lunes": time.Monday, "monday": time.Monday,
	"martes": time.Tuesday, "tuesday": time.Tuesday,
	"miercoles": time.Wednesday, "wednesday": time.Wednesday,
	"jueves": time.Thursday, "thursday": time.Thursday,
	"viernes": time.Friday, "friday": time.Friday,
	"sabado": time.Saturday, "saturday": time.Saturday,
	"domingo": time.Sunday, "sunday": time.Sunday,
}

var monthWords = map[string]time.Month{
	"enero": time.January, "january": time.January,
	"febrero": time.February, "february": time.February,
	"marzo": time.March, "march": time.March,
	"abril": time.April, "april": time.April,
	"mayo": time.May, "may": time.May,
	"junio": time.June, "june": time.June,
	"julio": time.July, "july": time.July,
	"agosto": time.August, "august": time.August,
	"septiembre": time.September, "setiembre": time.September, "september": time.September,
	"octubre": time.October, "october": time.October,
	"noviembre": time.November, "november": time.November,
	"diciembre": time.December, "december": time.December,
}

// diacriticFolder strips the accented characters that occur in Spanish day
// and month names, so "mañana" and "manana" parse alike.
var diacriticFolder = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u", "ñ", "n",
	"Á", "a", "É", "e", "Í", "i", "Ó", "o", "Ú", "u", "Ü", "u", "Ñ", "n",
)

var isoDateRe = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
var timePhraseRe = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s*(am|pm)?$`)

func normalize(phrase string) string {
	return diacriticFolder.Replace(strings.ToLower(strings.TrimSpace(phrase)))
}

// ParseDate resolves a free-text date phrase relative to now in the given
// location. Rules are applied in order: today/tomorrow keywords, bare weekday
// names (next strict occurrence, with an optional "next" modifier), a
// YYYY-MM-DD literal, then day-plus-month-name phrases. Anything else yields
// today with Confident=false.
func ParseDate(phrase string, now time.Time, loc *time.Location) DateResult {
	if loc == nil {
		loc = time.UTC
	}
	today := civil(now.In(loc))
	text := normalize(phrase)

	if _, ok := todayWords[text]; ok {
		return DateResult{Date: today.Format(DateLayout), Confident: true}
	}
	if _, ok := tomorrowWords[text]; ok {
		return DateResult{Date: today.AddDate(0, 0, 1).Format(DateLayout), Confident: true}
	}

	tokens := strings.Fields(text)

	if d, ok := parseWeekdayPhrase(tokens, today); ok {
		return DateResult{Date: d.Format(DateLayout), Confident: true}
	}
	if d, ok := parseISODate(text, today, loc); ok {
		return DateResult{Date: d.Format(DateLayout), Confident: true}
	}
	if d, ok := parseDayMonthPhrase(tokens, today, loc); ok {
		return DateResult{Date: d.Format(DateLayout), Confident: true}
	}

	return DateResult{Date: today.Format(DateLayout), Confident: false}
}

// ParseTime resolves a free-text time phrase into canonical 24-hour HH:MM.
// Accepted forms: "3pm", "3:30 PM", "15:04", "9". Anything else yields
// DefaultTime with Confident=false.
func ParseTime(phrase string) TimeResult {
	text := normalize(phrase)
	text = strings.ReplaceAll(text, ".", "")

	m := timePhraseRe.FindStringSubmatch(text)
	if m == nil {
		return TimeResult{Time: DefaultTime, Confident: false}
	}

	hour, _ := strconv.Atoi(m[1])
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}

	switch m[3] {
	case "am":
		if hour < 1 || hour > 12 {
			return TimeResult{Time: DefaultTime, Confident: false}
		}
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour < 1 || hour > 12 {
			return TimeResult{Time: DefaultTime, Confident: false}
		}
		if hour != 12 {
			hour += 12
		}
	default:
		if hour > 23 {
			return TimeResult{Time: DefaultTime, Confident: false}
		}
	}
	if minute > 59 {
		return TimeResult{Time: DefaultTime, Confident: false}
	}

	return TimeResult{
		Time:      time.Date(0, 1, 1, hour, minute, 0, 0, time.UTC).Format("15:04"),
		Confident: true,
	}
}

// parseWeekdayPhrase handles bare weekday names with an optional next/following
// modifier anywhere in the phrase.
func parseWeekdayPhrase(tokens []string, today time.Time) (time.Time, bool) {
	var target time.Weekday
	found := false
	next := false

	for _, tok := range tokens {
		tok = strings.Trim(tok, ",.")
		if wd, ok := weekdayWords[tok]; ok {
			if found {
				return time.Time{}, false
			}
			target = wd
			found = true
			continue
		}
		if _, ok := nextWords[tok]; ok {
			next = true
			continue
		}
		if tok == "el" || tok == "the" || tok == "on" || tok == "que" || tok == "viene" {
			continue
		}
		return time.Time{}, false
	}
	if !found {
		return time.Time{}, false
	}

	days := int(target-today.Weekday()+7) % 7
	if days == 0 {
		days = 7 // strictly after today
	}
	if next {
		days += 7
		if days > nextWeekdayCapDays {
			days -= 7
		}
	}
	return today.AddDate(0, 0, days), true
}

func parseISODate(text string, today time.Time, loc *time.Location) (time.Time, bool) {
	if !isoDateRe.MatchString(text) {
		return time.Time{}, false
	}
	d, err := time.ParseInLocation(DateLayout, text, loc)
	if err != nil {
		return time.Time{}, false
	}
	// A date already behind us means the caller most plausibly wants the same
	// month and day next year.
	if d.Before(today) {
		d = d.AddDate(1, 0, 0)
	}
	return d, true
}

// parseDayMonthPhrase handles phrases like "15 de julio", "july 15" or
// "15 julio". The year is the current one unless that date already passed.
func parseDayMonthPhrase(tokens []string, today time.Time, loc *time.Location) (time.Time, bool) {
	day := 0
	var month time.Month

	for _, tok := range tokens {
		tok = strings.Trim(tok, ",.")
		if tok == "de" || tok == "del" || tok == "of" || tok == "el" || tok == "the" {
			continue
		}
		if m, ok := monthWords[tok]; ok {
			if month != 0 {
				return time.Time{}, false
			}
			month = m
			continue
		}
		if n, err := strconv.Atoi(tok); err == nil {
			if day != 0 || n < 1 || n > 31 {
				return time.Time{}, false
			}
			day = n
			continue
		}
		return time.Time{}, false
	}
	if day == 0 || month == 0 {
		return time.Time{}, false
	}

	d := time.Date(today.Year(), month, day, 0, 0, 0, 0, loc)
	if d.Month() != month || d.Day() != day {
		return time.Time{}, false // e.g. 31 de febrero
	}
	if d.Before(today) {
		d = time.Date(today.Year()+1, month, day, 0, 0, 0, 0, loc)
	}
	return d, true
}

func civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
