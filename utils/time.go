// Package utils provides utility functions for the application.
package utils

import (
	"time"
)

// UTCNow returns the current time in UTC
func UTCNow() time.Time {
	return time.Now().UTC()
}

// StartOfDay truncates t to midnight UTC of the same calendar day
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// FormatDate renders the calendar day of t as YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}
