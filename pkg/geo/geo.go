// Package geo holds the distance math shared by job listing and job acceptance.
package geo

import (
	"math"

	"github.com/Nafis5858/Krishak/pkg/types"
)

const (
	// MaxDistanceKM is the service radius a transporter is expected to cover.
	MaxDistanceKM = 50.0

	earthRadiusKM = 6371.0
)

// DistanceKM returns the great-circle distance between a and b.
func DistanceKM(a, b types.Coordinates) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKM * math.Asin(math.Min(1, math.Sqrt(h)))
}

// DistanceFrom returns nil when either side is unknown. The value is not
// rounded; range checks must see the raw distance.
func DistanceFrom(origin, target *types.Coordinates) *float64 {
	if origin == nil || target == nil {
		return nil
	}
	d := DistanceKM(*origin, *target)
	return &d
}

// WithinRadius treats an unknown distance as in range.
func WithinRadius(distance *float64) bool {
	return distance == nil || *distance <= MaxDistanceKM
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
