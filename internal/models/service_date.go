package models

import (
	"fmt"
	"time"
)

// ServiceDateLayout is the YYYYMMDD key format used by GTFS calendars
const ServiceDateLayout = "20060102"

// DateParseError is returned when a service-date key is not a valid YYYYMMDD date
type DateParseError struct {
	Key string
	Err error
}

func (e *DateParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid service date %q: %v", e.Key, e.Err)
	}
	return fmt.Sprintf("invalid service date %q", e.Key)
}

func (e *DateParseError) Unwrap() error {
	return e.Err
}

// FormatServiceDate renders the calendar day of t (in t's location) as YYYYMMDD
func FormatServiceDate(t time.Time) string {
	return t.Format(ServiceDateLayout)
}

// ParseServiceDate parses a YYYYMMDD key to midnight of that day in loc
func ParseServiceDate(key string, loc *time.Location) (time.Time, error) {
	if len(key) != len(ServiceDateLayout) {
		return time.Time{}, &DateParseError{Key: key}
	}
	for _, r := range key {
		if r < '0' || r > '9' {
			return time.Time{}, &DateParseError{Key: key}
		}
	}
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(ServiceDateLayout, key, loc)
	if err != nil {
		return time.Time{}, &DateParseError{Key: key, Err: err}
	}
	return t, nil
}

// ServiceDayStart returns the GTFS service day origin: noon minus twelve hours,
// which differs from midnight on daylight saving transition days
func ServiceDayStart(date time.Time) time.Time {
	noon := time.Date(date.Year(), date.Month(), date.Day(), 12, 0, 0, 0, date.Location())
	return noon.Add(-12 * time.Hour)
}
