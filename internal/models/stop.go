package models

import (
	"time"

	"github.com/paulmach/orb"
)

// Coordinate is a WGS84 position in degrees
type Coordinate struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// Point returns the coordinate as an orb point (lon, lat order)
func (c Coordinate) Point() orb.Point {
	return orb.Point{c.Longitude, c.Latitude}
}

// Valid reports whether the coordinate lies within WGS84 bounds
func (c Coordinate) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

type VertexKind string

const (
	VertexKindStreet        VertexKind = "STREET"
	VertexKindTransitStop   VertexKind = "TRANSIT_STOP"
	VertexKindPatternDepart VertexKind = "PATTERN_DEPART"
)

// Vertex is a point in the transit graph
type Vertex struct {
	ID         string
	Kind       VertexKind
	Coordinate Coordinate
	Name       string
	StopID     string
	// Location overrides the graph time zone when the stop declares its own
	Location *time.Location
}

// DepartureCapable reports whether scheduled trips depart from this vertex
func (v Vertex) DepartureCapable() bool {
	return v.Kind == VertexKindPatternDepart
}

// StopCandidate is a departure-capable stop found near a search point
type StopCandidate struct {
	ID         string
	Coordinate Coordinate
	Name       string
	StopID     string
	Location   *time.Location
	Distance   float64 // meters from the search point
}

// StopKey identifies a physical stop by value
type StopKey struct {
	Latitude  float64
	Longitude float64
	Name      string
}

// Key identifies the candidate by value: latitude, longitude and name.
// Two distinct vertices can describe the same physical stop.
func (s StopCandidate) Key() StopKey {
	return StopKey{
		Latitude:  s.Coordinate.Latitude,
		Longitude: s.Coordinate.Longitude,
		Name:      s.Name,
	}
}

// NewStopCandidate builds a candidate from a graph vertex
func NewStopCandidate(v Vertex, fallback *time.Location, distance float64) StopCandidate {
	loc := v.Location
	if loc == nil {
		loc = fallback
	}
	if loc == nil {
		loc = time.UTC
	}
	return StopCandidate{
		ID:         v.ID,
		Coordinate: v.Coordinate,
		Name:       v.Name,
		StopID:     v.StopID,
		Location:   loc,
		Distance:   distance,
	}
}
