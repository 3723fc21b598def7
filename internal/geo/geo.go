// Package geo holds the distance helpers used to pre-filter and refine stop searches.
package geo

import (
	"math"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"

	"github.com/bbernstein/nextdeparture/internal/models"
)

// EarthRadiusMeters matches the radius used by orb/geo
const EarthRadiusMeters = orb.EarthRadius

// DistanceMeters returns the great-circle distance between two coordinates
func DistanceMeters(a, b models.Coordinate) float64 {
	return orbgeo.DistanceHaversine(a.Point(), b.Point())
}

// MetersToDegrees converts a distance along a meridian to degrees of arc
func MetersToDegrees(meters float64) float64 {
	return meters * 180 / (math.Pi * EarthRadiusMeters)
}

// EnvelopeAround returns a bounding box containing every point within meters
// of center; callers still refine with DistanceMeters. The longitude range
// may extend past ±180. When the circle reaches a pole the box spans every
// longitude.
func EnvelopeAround(center models.Coordinate, meters float64) orb.Bound {
	latPad := MetersToDegrees(meters)
	minLat := center.Latitude - latPad
	maxLat := center.Latitude + latPad

	if minLat <= -90 || maxLat >= 90 {
		return orb.Bound{
			Min: orb.Point{-180, math.Max(minLat, -90)},
			Max: orb.Point{180, math.Min(maxLat, 90)},
		}
	}

	// widest longitude offset of a spherical cap
	ratio := math.Sin(meters/EarthRadiusMeters) / math.Cos(center.Latitude*math.Pi/180)
	lonPad := 180.0
	if ratio < 1 {
		lonPad = math.Min(math.Asin(ratio)*180/math.Pi, 180)
	}

	if lonPad >= 180 {
		return orb.Bound{
			Min: orb.Point{-180, minLat},
			Max: orb.Point{180, maxLat},
		}
	}

	return orb.Bound{
		Min: orb.Point{center.Longitude - lonPad, minLat},
		Max: orb.Point{center.Longitude + lonPad, maxLat},
	}
}

// EnvelopesAround is EnvelopeAround split at the antimeridian, so every
// returned bound lies within [-180, 180]
func EnvelopesAround(center models.Coordinate, meters float64) []orb.Bound {
	b := EnvelopeAround(center, meters)

	switch {
	case b.Min[0] < -180:
		return []orb.Bound{
			{Min: orb.Point{b.Min[0] + 360, b.Min[1]}, Max: orb.Point{180, b.Max[1]}},
			{Min: orb.Point{-180, b.Min[1]}, Max: b.Max},
		}
	case b.Max[0] > 180:
		return []orb.Bound{
			{Min: b.Min, Max: orb.Point{180, b.Max[1]}},
			{Min: orb.Point{-180, b.Min[1]}, Max: orb.Point{b.Max[0] - 360, b.Max[1]}},
		}
	default:
		return []orb.Bound{b}
	}
}

// PointEnvelope returns the degenerate bound of a single coordinate
func PointEnvelope(c models.Coordinate) orb.Bound {
	return c.Point().Bound()
}
