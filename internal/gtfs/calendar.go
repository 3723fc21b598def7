package gtfs

import (
	"time"

	remoteGtfs "github.com/jamespfennell/gtfs"

	"github.com/bbernstein/nextdeparture/internal/models"
)

// serviceCalendar answers whether a service runs on a YYYYMMDD date.
// Dates are compared as keys so the zone the parser used does not matter.
type serviceCalendar struct {
	weekdays [7]bool
	start    string
	end      string
	added    map[string]bool
	removed  map[string]bool
}

func newServiceCalendar(svc *remoteGtfs.Service) *serviceCalendar {
	c := &serviceCalendar{
		added:   make(map[string]bool, len(svc.AddedDates)),
		removed: make(map[string]bool, len(svc.RemovedDates)),
	}
	c.weekdays[time.Sunday] = svc.Sunday
	c.weekdays[time.Monday] = svc.Monday
	c.weekdays[time.Tuesday] = svc.Tuesday
	c.weekdays[time.Wednesday] = svc.Wednesday
	c.weekdays[time.Thursday] = svc.Thursday
	c.weekdays[time.Friday] = svc.Friday
	c.weekdays[time.Saturday] = svc.Saturday

	if !svc.StartDate.IsZero() {
		c.start = models.FormatServiceDate(svc.StartDate)
	}
	if !svc.EndDate.IsZero() {
		c.end = models.FormatServiceDate(svc.EndDate)
	}
	for _, d := range svc.AddedDates {
		c.added[models.FormatServiceDate(d)] = true
	}
	for _, d := range svc.RemovedDates {
		c.removed[models.FormatServiceDate(d)] = true
	}
	return c
}

func (c *serviceCalendar) activeOn(key string, weekday time.Weekday) bool {
	if c.removed[key] {
		return false
	}
	if c.added[key] {
		return true
	}
	if c.start == "" || c.end == "" {
		return false
	}
	return key >= c.start && key <= c.end && c.weekdays[weekday]
}
