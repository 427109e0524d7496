// Package dateutils provides the date parsing and calendar arithmetic used by
// the ingestion core. All dates are calendar dates stored as UTC midnight.
package dateutils

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Common date format constants used throughout the application
const (
	DateLayoutISO       = "2006-01-02"
	DateLayoutUS        = "01/02/2006"
	DateLayoutUSShort   = "1/2/2006"
	DateLayoutUSYear2   = "1/2/06"
	DateLayoutUSDash    = "01-02-2006"
	DateLayoutFull      = "2006-01-02 15:04:05"
	DateLayoutISOTime   = "2006-01-02T15:04:05"
	DateLayoutWithMonth = "2-Jan-2006"
)

// CommonFormats is the ordered list of layouts tried when parsing dates.
// US month-first layouts win over day-first ones; the sources are US bank
// and card exports.
var CommonFormats = []string{
	DateLayoutISO,
	DateLayoutUS,
	DateLayoutUSShort,
	DateLayoutUSYear2,
	DateLayoutUSDash,
	DateLayoutFull,
	DateLayoutISOTime,
	time.RFC3339,
	DateLayoutWithMonth,
	"2006/01/02",
	"Jan 2, 2006",
	"January 2, 2006",
	"02 Jan 2006",
}

var whitespace = regexp.MustCompile(`\s+`)

// ParseDate attempts to parse a date string using CommonFormats and returns
// the calendar date (UTC midnight) together with the layout that matched.
func ParseDate(dateStr string) (time.Time, string, error) {
	dateStr = CleanDateString(dateStr)
	if dateStr == "" {
		return time.Time{}, "", fmt.Errorf("unable to parse date: empty value")
	}

	for _, format := range CommonFormats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return TruncateDay(t), format, nil
		}
	}

	return time.Time{}, "", fmt.Errorf("unable to parse date: %s", dateStr)
}

// TruncateDay drops the clock and zone of t, keeping its calendar date.
func TruncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ToISODate formats a time.Time value as an ISO date (YYYY-MM-DD)
func ToISODate(date time.Time) string {
	return date.Format(DateLayoutISO)
}

// CleanDateString removes unwanted characters and normalizes a date string
func CleanDateString(dateStr string) string {
	dateStr = strings.TrimSpace(dateStr)
	return whitespace.ReplaceAllString(dateStr, " ")
}

// DaysBetween returns the absolute number of calendar days separating two dates.
func DaysBetween(a, b time.Time) int {
	d := TruncateDay(a).Sub(TruncateDay(b))
	if d < 0 {
		d = -d
	}
	return int(d.Hours() / 24)
}

// CompareDates compares two dates and returns:
//
//	-1 if date1 is before date2
//	 0 if date1 is equal to date2
//	 1 if date1 is after date2
func CompareDates(date1, date2 time.Time) int {
	date1 = TruncateDay(date1)
	date2 = TruncateDay(date2)

	if date1.Before(date2) {
		return -1
	} else if date1.After(date2) {
		return 1
	}
	return 0
}
