package common

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// WindowMode selects how report dates are chosen.
type WindowMode string

const (
	// WindowBusinessDays walks back from today over Monday-Friday only.
	WindowBusinessDays WindowMode = "business-days"
	// WindowCalendarDays takes consecutive calendar days ending today.
	WindowCalendarDays WindowMode = "calendar-days"
)

// DefaultWindowDays is the number of report dates when none is configured.
const DefaultWindowDays = 3

// ParseWindowMode validates a mode string from config or flags.
func ParseWindowMode(s string) (WindowMode, error) {
	switch WindowMode(strings.ToLower(strings.TrimSpace(s))) {
	case WindowBusinessDays:
		return WindowBusinessDays, nil
	case WindowCalendarDays:
		return WindowCalendarDays, nil
	}
	return "", fmt.Errorf("unknown window mode %q (want %s or %s)", s, WindowBusinessDays, WindowCalendarDays)
}

// DefaultWorkingDays returns standard Monday-Friday working days.
func DefaultWorkingDays() []time.Weekday {
	return []time.Weekday{
		time.Monday,
		time.Tuesday,
		time.Wednesday,
		time.Thursday,
		time.Friday,
	}
}

// IsWorkingDay checks if a given date falls on one of the working weekdays.
// Holidays are not excluded.
func IsWorkingDay(t time.Time, workingDays []time.Weekday) bool {
	dayOfWeek := t.Weekday()
	for _, wd := range workingDays {
		if wd == dayOfWeek {
			return true
		}
	}
	return false
}

// DateOnly truncates t to midnight UTC on its calendar date.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ReportWindow returns n distinct report dates in ascending order, ending on
// or before now. n below 1 is treated as 1.
func ReportWindow(now time.Time, n int, mode WindowMode) []time.Time {
	if n < 1 {
		n = 1
	}
	today := DateOnly(now)

	if mode == WindowCalendarDays {
		dates := make([]time.Time, n)
		for i := 0; i < n; i++ {
			dates[i] = today.AddDate(0, 0, i-(n-1))
		}
		return dates
	}

	workingDays := DefaultWorkingDays()
	dates := make([]time.Time, 0, n)
	for current := today; len(dates) < n; current = current.AddDate(0, 0, -1) {
		if IsWorkingDay(current, workingDays) {
			dates = append(dates, current)
		}
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// LatestDate returns the most recent date of an ascending window.
func LatestDate(dates []time.Time) (time.Time, bool) {
	if len(dates) == 0 {
		return time.Time{}, false
	}
	return dates[len(dates)-1], true
}
