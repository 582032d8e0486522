// Package geo holds the geodesic helpers used by the trip filters:
// the great-circle distance between pickup and dropoff and the service area bound.
package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// EarthRadiusKm is the mean Earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0

// NYCBound is the service area. Longitude in [-74.05, -73.69], latitude in [40.55, 40.90].
var NYCBound = orb.Bound{
	Min: orb.Point{-74.05, 40.55},
	Max: orb.Point{-73.69, 40.90},
}

// Haversine returns the great-circle distance in kilometers between two
// lon/lat points. Coincident points yield exactly 0.
func Haversine(pickup, dropoff orb.Point) float64 {
	lat1 := deg2rad(pickup.Lat())
	lat2 := deg2rad(dropoff.Lat())
	dLat := (lat2 - lat1) / 2
	dLon := (deg2rad(dropoff.Lon()) - deg2rad(pickup.Lon())) / 2

	inner := math.Sin(dLat)*math.Sin(dLat) +
		math.Cos(lat2)*math.Cos(lat1)*math.Sin(dLon)*math.Sin(dLon)

	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(inner), math.Sqrt(1-inner))
}

// Contains reports whether p lies inside b, edges included.
// Points with a NaN coordinate are never contained.
func Contains(b orb.Bound, p orb.Point) bool {
	if math.IsNaN(p.Lon()) || math.IsNaN(p.Lat()) {
		return false
	}
	return b.Contains(p)
}

func deg2rad(d float64) float64 {
	return d * math.Pi / 180
}
