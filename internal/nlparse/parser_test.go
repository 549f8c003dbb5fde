package nlparse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bogota(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Bogota")
	require.NoError(t, err)
	return loc
}

func TestParseDateKeywords(t *testing.T) {
	loc := bogota(t)
	// 2025-06-10 is a Tuesday.
	now := time.Date(2025, 6, 10, 15, 0, 0, 0, loc)

	tests := []struct {
		phrase    string
		want      string
		confident bool
	}{
		{"hoy", "2025-06-10", true},
		{"today", "2025-06-10", true},
		{"mañana", "2025-06-11", true},
		{"manana", "2025-06-11", true},
		{"Tomorrow", "2025-06-11", true},
	}

	for _, tt := range tests {
		t.Run(tt.phrase, func(t *testing.T) {
			got := ParseDate(tt.phrase, now, loc)
			assert.Equal(t, tt.want, got.Date)
			assert.Equal(t, tt.confident, got.Confident)
		})
	}
}

func TestParseDateKeywordsAcrossUTCBoundary(t *testing.T) {
	loc := bogota(t)
	// 02:00 UTC on the 11th is still the evening of the 10th in Bogota.
	now := time.Date(2025, 6, 11, 2, 0, 0, 0, time.UTC)

	got := ParseDate("mañana", now, loc)
	assert.Equal(t, "2025-06-11", got.Date)
	assert.True(t, got.Confident)
}

func TestParseDateWeekdays(t *testing.T) {
	loc := bogota(t)
	// Tuesday.
	now := time.Date(2025, 6, 10, 9, 0, 0, 0, loc)

	tests := []struct {
		phrase string
		want   string
	}{
		{"viernes", "2025-06-13"},
		{"friday", "2025-06-13"},
		{"martes", "2025-06-17"},            // same weekday: strictly after today
		{"el sábado", "2025-06-14"},
		{"proximo viernes", "2025-06-20"},   // +3 days would be near, modifier adds a week
		{"next friday", "2025-06-20"},
		{"el lunes que viene", "2025-06-16"},
		{"proximo lunes", "2025-06-23"},     // 6+7=13 days, right at the cap
		{"proximo martes", "2025-06-17"},    // 7+7=14 days exceeds the cap, nearer occurrence
	}

	for _, tt := range tests {
		t.Run(tt.phrase, func(t *testing.T) {
			got := ParseDate(tt.phrase, now, loc)
			assert.Equal(t, tt.want, got.Date)
			assert.True(t, got.Confident)
		})
	}
}

func TestParseDateLiteralsAndMonths(t *testing.T) {
	loc := bogota(t)
	now := time.Date(2025, 6, 10, 9, 0, 0, 0, loc)

	tests := []struct {
		phrase string
		want   string
	}{
		{"2025-07-01", "2025-07-01"},
		{"2025-06-10", "2025-06-10"},   // today itself is not in the past
		{"2025-01-15", "2026-01-15"},   // past literal rolls forward a year
		{"15 de julio", "2025-07-15"},
		{"julio 15", "2025-07-15"},
		{"15 de enero", "2026-01-15"},  // already passed this year
		{"march 3", "2026-03-03"},
		{"10 de junio", "2025-06-10"},  // today, not past
	}

	for _, tt := range tests {
		t.Run(tt.phrase, func(t *testing.T) {
			got := ParseDate(tt.phrase, now, loc)
			assert.Equal(t, tt.want, got.Date)
			assert.True(t, got.Confident)
		})
	}
}

func TestParseDateFallback(t *testing.T) {
	loc := bogota(t)
	now := time.Date(2025, 6, 10, 9, 0, 0, 0, loc)

	for _, phrase := range []string{"cuando pueda", "asap", "31 de febrero", "someday", ""} {
		t.Run("fallback: "+phrase, func(t *testing.T) {
			got := ParseDate(phrase, now, loc)
			assert.Equal(t, "2025-06-10", got.Date)
			assert.False(t, got.Confident)
		})
	}
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		phrase    string
		want      string
		confident bool
	}{
		{"3pm", "15:00", true},
		{"3 PM", "15:00", true},
		{"3:30pm", "15:30", true},
		{"3:30 p.m.", "15:30", true},
		{"12pm", "12:00", true},
		{"12am", "00:00", true},
		{"9am", "09:00", true},
		{"15:04", "15:04", true},
		{"09:00", "09:00", true},
		{"9", "09:00", true},
		{"25:00", DefaultTime, false},
		{"13pm", DefaultTime, false},
		{"9:75", DefaultTime, false},
		{"temprano", DefaultTime, false},
		{"", DefaultTime, false},
	}

	for _, tt := range tests {
		t.Run(tt.phrase, func(t *testing.T) {
			got := ParseTime(tt.phrase)
			assert.Equal(t, tt.want, got.Time)
			assert.Equal(t, tt.confident, got.Confident)
		})
	}
}
