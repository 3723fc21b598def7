package models

import (
	"time"
)

const (
	DefaultRadiusMeters  = 500.0
	MaxStopSearchRadius  = 5000.0
	DefaultOffsetMinutes = 30
)

// SearchRequest is the immutable configuration of one next-departure search.
// Build it with NewSearchRequest so defaults and the radius clamp are applied.
type SearchRequest struct {
	Coordinate    Coordinate
	RadiusMeters  float64
	ReferenceTime int64 // epoch seconds
	OffsetMinutes int
	LineFilter    *string
	// TimeResolved is false when the caller supplied a time that could not be
	// turned into a single instant
	TimeResolved bool
	Parameters   map[string]string
}

type SearchOption func(*SearchRequest)

// WithRadius sets the search radius in meters
func WithRadius(meters float64) SearchOption {
	return func(r *SearchRequest) {
		r.RadiusMeters = meters
	}
}

// WithReferenceTime sets the reference instant in epoch seconds
func WithReferenceTime(epoch int64) SearchOption {
	return func(r *SearchRequest) {
		r.ReferenceTime = epoch
		r.TimeResolved = true
	}
}

// WithUnresolvedTime marks the reference time as unusable
func WithUnresolvedTime() SearchOption {
	return func(r *SearchRequest) {
		r.ReferenceTime = 0
		r.TimeResolved = false
	}
}

// WithOffsetMinutes sets the offset added to the reference time
func WithOffsetMinutes(minutes int) SearchOption {
	return func(r *SearchRequest) {
		r.OffsetMinutes = minutes
	}
}

// WithLineFilter restricts results to lines whose descriptor contains line
func WithLineFilter(line string) SearchOption {
	return func(r *SearchRequest) {
		r.LineFilter = &line
	}
}

// WithParameters records the caller's raw parameters for echoing back
func WithParameters(params map[string]string) SearchOption {
	return func(r *SearchRequest) {
		r.Parameters = make(map[string]string, len(params))
		for k, v := range params {
			r.Parameters[k] = v
		}
	}
}

// NewSearchRequest applies defaults (500m, now, 30 minutes) and then options
func NewSearchRequest(coord Coordinate, now time.Time, opts ...SearchOption) SearchRequest {
	req := SearchRequest{
		Coordinate:    coord,
		RadiusMeters:  DefaultRadiusMeters,
		ReferenceTime: now.Unix(),
		OffsetMinutes: DefaultOffsetMinutes,
		TimeResolved:  true,
		Parameters:    map[string]string{},
	}

	for _, opt := range opts {
		opt(&req)
	}

	req.RadiusMeters = ClampRadius(req.RadiusMeters)
	return req
}

// Threshold is the instant a departure must be strictly after
func (r SearchRequest) Threshold() int64 {
	return r.ReferenceTime + int64(r.OffsetMinutes)*60
}

// ClampRadius limits a radius to [0, MaxStopSearchRadius]. NaN becomes 0.
func ClampRadius(meters float64) float64 {
	if !(meters >= 0) {
		return 0
	}
	if meters > MaxStopSearchRadius {
		return MaxStopSearchRadius
	}
	return meters
}
