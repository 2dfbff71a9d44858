// Package domain defines the persistence models for reservations, standing
// notification requests, users, reviews, and the aggregate statistics rows.
// This file holds the canonical date handling shared by every component.
//
// Dates are persisted as formatted strings in DateFormat. The format is
// zero-padded and big-endian (year/month/day hour:minute), so lexicographic
// comparison on the stored column is equivalent to chronological comparison.
// The archiver and the range queries in the repo layer depend on this.
package domain

import (
	"strings"
	"time"
)

// DateFormat is the minute-precision layout used for every persisted date.
// Keep it zero-padded and big-endian; string ordering must stay chronological.
const DateFormat = "2006/01/02 15:04"

// Time-of-day slot labels. A reservation belongs to exactly one slot,
// derived from its hour of day.
const (
	SlotMorning = "morning" // 06:00–11:59
	SlotNoon    = "noon"    // 12:00–16:59
	SlotEvening = "evening" // 17:00–21:59
	SlotNight   = "night"   // 22:00–05:59
)

// FormatDate renders t in the canonical persisted layout.
func FormatDate(t time.Time) string {
	return t.Format(DateFormat)
}

// ParseDate parses a persisted date string. Leading/trailing whitespace is
// tolerated; an empty string is not a date (callers treat it as a wildcard)
// and yields an error.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateFormat, strings.TrimSpace(s))
}

// DayLabel returns the day-of-week label ("Sunday" … "Saturday") used as the
// statistics and review bucket key.
func DayLabel(t time.Time) string {
	return t.Weekday().String()
}

// SlotLabel buckets t's hour into one of the four time-of-day slots.
func SlotLabel(t time.Time) string {
	switch h := t.Hour(); {
	case h >= 6 && h < 12:
		return SlotMorning
	case h >= 12 && h < 17:
		return SlotNoon
	case h >= 17 && h < 22:
		return SlotEvening
	default:
		return SlotNight
	}
}
