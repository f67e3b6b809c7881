package geometry

import (
	"math"

	"github.com/mealdash/surge-areas/internal/models"
)

// CircleArea returns pi*r^2 rounded to 2 decimal places.
func CircleArea(radiusKm float64) float64 {
	return round2(math.Pi * radiusKm * radiusKm)
}

// RingArea estimates a polygon ring's area in km^2 using the shoelace
// formula over raw (lon, lat) degrees, converted with a flat
// KmPerDegree^2 factor. Unlike CircleRing this applies no cos(latitude)
// correction, so the estimate drifts at high latitude or for elongated
// shapes; the behavior is kept for parity with the stored areas already
// derived from it.
func RingArea(ring []models.Point) float64 {
	if DistinctVertices(ring) < 3 {
		return 0
	}
	var sum float64
	n := len(ring)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += ring[i].Lon()*ring[j].Lat() - ring[j].Lon()*ring[i].Lat()
	}
	areaDeg := math.Abs(sum) / 2
	return round2(areaDeg * KmPerDegree * KmPerDegree)
}

// EstimateArea dispatches on the geometry kind.
func EstimateArea(g models.Geometry) float64 {
	switch g.Kind {
	case models.GeometryKindCircle:
		return CircleArea(g.RadiusKm)
	case models.GeometryKindPolygon:
		return RingArea(g.Ring)
	default:
		return 0
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
