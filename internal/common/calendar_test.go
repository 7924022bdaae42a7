package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper to create a time easily
func mustTime(t *testing.T, layout, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(layout, value)
	if err != nil {
		t.Fatalf("failed to parse time %q: %v", value, err)
	}
	return parsed
}

func formatDates(dates []time.Time) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format("2006-01-02")
	}
	return out
}

func TestIsWorkingDay(t *testing.T) {
	workingDays := DefaultWorkingDays()

	tests := []struct {
		name        string
		date        string
		wantWorking bool
	}{
		{"monday", "2025-01-06", true},
		{"tuesday", "2025-01-07", true},
		{"wednesday", "2025-01-08", true},
		{"thursday", "2025-01-09", true},
		{"friday", "2025-01-10", true},
		{"saturday", "2025-01-11", false},
		{"sunday", "2025-01-12", false},
		{"new year is not a holiday", "2025-01-01", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			date := mustTime(t, "2006-01-02", tt.date)
			got := IsWorkingDay(date, workingDays)
			if got != tt.wantWorking {
				t.Errorf("IsWorkingDay(%s) = %v, want %v", tt.date, got, tt.wantWorking)
			}
		})
	}
}

func TestReportWindowBusinessDays(t *testing.T) {
	tests := []struct {
		name string
		now  string
		n    int
		want []string
	}{
		{"monday reaches back over weekend", "2025-06-16T09:30:00Z", 3, []string{"2025-06-12", "2025-06-13", "2025-06-16"}},
		{"saturday starts from friday", "2025-06-14T12:00:00Z", 3, []string{"2025-06-11", "2025-06-12", "2025-06-13"}},
		{"sunday starts from friday", "2025-06-15T23:59:00Z", 2, []string{"2025-06-12", "2025-06-13"}},
		{"midweek", "2025-06-18T00:00:00Z", 3, []string{"2025-06-16", "2025-06-17", "2025-06-18"}},
		{"single day", "2025-06-16T08:00:00Z", 1, []string{"2025-06-16"}},
		{"zero clamps to one", "2025-06-16T08:00:00Z", 0, []string{"2025-06-16"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := mustTime(t, time.RFC3339, tt.now)
			got := ReportWindow(now, tt.n, WindowBusinessDays)
			assert.Equal(t, tt.want, formatDates(got))
		})
	}
}

func TestReportWindowBusinessDaysProperties(t *testing.T) {
	start := mustTime(t, "2006-01-02", "2025-01-01")

	for offset := 0; offset < 14; offset++ {
		now := start.AddDate(0, 0, offset)
		for n := 1; n <= 12; n++ {
			dates := ReportWindow(now, n, WindowBusinessDays)
			require.Len(t, dates, n)

			for i, d := range dates {
				assert.NotEqual(t, time.Saturday, d.Weekday(), "now=%s n=%d", now, n)
				assert.NotEqual(t, time.Sunday, d.Weekday(), "now=%s n=%d", now, n)
				assert.False(t, d.After(now), "date %s after now %s", d, now)
				if i > 0 {
					assert.True(t, d.After(dates[i-1]), "dates not strictly increasing: %v", formatDates(dates))
				}
			}
		}
	}
}

func TestReportWindowCalendarDays(t *testing.T) {
	now := mustTime(t, time.RFC3339, "2025-06-16T17:45:00+08:00")

	got := ReportWindow(now, 3, WindowCalendarDays)
	assert.Equal(t, []string{"2025-06-14", "2025-06-15", "2025-06-16"}, formatDates(got))

	got = ReportWindow(mustTime(t, "2006-01-02", "2025-03-01"), 2, WindowCalendarDays)
	assert.Equal(t, []string{"2025-02-28", "2025-03-01"}, formatDates(got))
}

func TestParseWindowMode(t *testing.T) {
	mode, err := ParseWindowMode("Business-Days")
	require.NoError(t, err)
	assert.Equal(t, WindowBusinessDays, mode)

	mode, err = ParseWindowMode(" calendar-days ")
	require.NoError(t, err)
	assert.Equal(t, WindowCalendarDays, mode)

	_, err = ParseWindowMode("weekly")
	assert.Error(t, err)
}

func TestLatestDate(t *testing.T) {
	_, ok := LatestDate(nil)
	assert.False(t, ok)

	dates := ReportWindow(mustTime(t, "2006-01-02", "2025-06-16"), 3, WindowBusinessDays)
	latest, ok := LatestDate(dates)
	require.True(t, ok)
	assert.Equal(t, "2025-06-16", latest.Format("2006-01-02"))
}
