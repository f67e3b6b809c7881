package geometry

import (
	"math"
	"testing"

	"github.com/mealdash/surge-areas/internal/models"
)

func TestCircleArea_HalfKmRadius(t *testing.T) {
	// pi * 0.5^2 = 0.7853... rounds to 0.79
	if got := CircleArea(0.5); got != 0.79 {
		t.Errorf("expected 0.79, got %v", got)
	}
}

func TestCircleArea_MatchesRoundedPiR2(t *testing.T) {
	for _, r := range []float64{0.1, 0.5, 1, 2.5, 10, 42.42} {
		want := math.Round(math.Pi*r*r*100) / 100
		if got := CircleArea(r); got != want {
			t.Errorf("r=%v: expected %v, got %v", r, want, got)
		}
	}
}

func TestRingArea_UnitSquare(t *testing.T) {
	// 1x1 degree square: shoelace area 1 deg^2 -> 111.32^2 km^2.
	ring := []models.Point{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}
	want := math.Round(KmPerDegree*KmPerDegree*100) / 100
	if got := RingArea(ring); got != want {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestRingArea_WindingOrderIrrelevant(t *testing.T) {
	cw := []models.Point{{0, 0}, {0, 1}, {1, 1}, {1, 0}, {0, 0}}
	ccw := []models.Point{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}
	if RingArea(cw) != RingArea(ccw) {
		t.Errorf("winding order changed area: cw=%v ccw=%v", RingArea(cw), RingArea(ccw))
	}
}

func TestRingArea_DegenerateIsZero(t *testing.T) {
	if got := RingArea([]models.Point{{0, 0}, {1, 1}, {0, 0}}); got != 0 {
		t.Errorf("expected 0 for degenerate ring, got %v", got)
	}
	if got := RingArea(nil); got != 0 {
		t.Errorf("expected 0 for nil ring, got %v", got)
	}
}

func TestEstimateArea_Dispatch(t *testing.T) {
	circle := models.CircleGeometry(models.Point{76.32, 9.995}, 0.5)
	if got := EstimateArea(circle); got != 0.79 {
		t.Errorf("circle: expected 0.79, got %v", got)
	}

	poly := models.PolygonGeometry([]models.Point{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}})
	if got := EstimateArea(poly); got == 0 {
		t.Errorf("polygon: expected non-zero area")
	}

	if got := EstimateArea(models.Geometry{}); got != 0 {
		t.Errorf("unknown kind: expected 0, got %v", got)
	}
}

func TestEstimateArea_NoLatitudeCorrectionForPolygons(t *testing.T) {
	// The polygon conversion is deliberately flat: the same ring shape
	// yields the same area regardless of latitude.
	low := []models.Point{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}
	high := []models.Point{{0, 60}, {1, 60}, {1, 61}, {0, 61}, {0, 60}}
	if RingArea(low) != RingArea(high) {
		t.Errorf("expected identical areas, got %v and %v", RingArea(low), RingArea(high))
	}
}
