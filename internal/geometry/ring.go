package geometry

import (
	"math"

	"github.com/mealdash/surge-areas/internal/models"
)

// KmPerDegree is the equirectangular approximation used throughout the
// zone geometry: 111.32 km per degree of latitude at the equator. It is
// intentionally not a geodesic model; downstream area estimates and the
// pricing consumer both assume this exact approximation.
const KmPerDegree = 111.32

// circleSegments is the number of samples used to approximate a circle.
const circleSegments = 64

// CircleRing approximates a circle as a closed ring of exactly
// circleSegments+1 points (the first point is repeated to close the ring).
func CircleRing(center models.Point, radiusKm float64) []models.Point {
	ring := make([]models.Point, 0, circleSegments+1)
	latRad := center.Lat() * math.Pi / 180
	for i := 0; i < circleSegments; i++ {
		theta := 2 * math.Pi * float64(i) / circleSegments
		dx := radiusKm * math.Cos(theta) / KmPerDegree
		dy := radiusKm * math.Sin(theta) / (KmPerDegree * math.Cos(latRad))
		ring = append(ring, models.Point{center.Lon() + dx, center.Lat() + dy})
	}
	ring = append(ring, ring[0])
	return ring
}

// DistinctVertices counts ring vertices ignoring consecutive duplicates
// and the closing point.
func DistinctVertices(ring []models.Point) int {
	if len(ring) == 0 {
		return 0
	}
	pts := ring
	if len(pts) > 1 && pts[0] == pts[len(pts)-1] {
		pts = pts[:len(pts)-1]
	}
	n := 0
	for i, p := range pts {
		if i == 0 || p != pts[i-1] {
			n++
		}
	}
	return n
}

// IsClosed reports whether the ring's first and last coordinates coincide.
func IsClosed(ring []models.Point) bool {
	return len(ring) >= 2 && ring[0] == ring[len(ring)-1]
}

// ValidRing reports whether a user-drawn ring is usable as a polygon
// geofence: closed, with at least 3 distinct vertices.
func ValidRing(ring []models.Point) bool {
	return IsClosed(ring) && DistinctVertices(ring) >= 3
}
