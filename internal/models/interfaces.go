package models

import (
	"context"
	"time"
)

// GraphStore exposes the vertices of one immutable transit graph snapshot
type GraphStore interface {
	// Version identifies the snapshot; it changes whenever the graph does
	Version() string
	Vertices() []Vertex
	TimeZone() *time.Location
}

// TimetableStore looks up the scheduled patterns serving a stop on a service date.
// A malformed serviceDateKey fails with *DateParseError.
type TimetableStore interface {
	StopTimesForStop(ctx context.Context, stopID, serviceDateKey string) ([]ScheduledPattern, error)
}
