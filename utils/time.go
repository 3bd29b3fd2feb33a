// Package utils provides utility functions for the application.
package utils

import (
	"time"
)

// UTCNow returns the current time in UTC
func UTCNow() time.Time {
	return time.Now().UTC()
}

// DaysToDuration converts a whole number of days to a duration
func DaysToDuration(days int) time.Duration {
	return time.Duration(days) * 24 * time.Hour
}

// HoursToDuration converts a whole number of hours to a duration
func HoursToDuration(hours int) time.Duration {
	return time.Duration(hours) * time.Hour
}

// FormatRFC3339Ptr formats an optional time, returning nil when unset
func FormatRFC3339Ptr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
