package api

import (
	"time"

	"github.com/mealdash/surge-areas/internal/geometry"
	"github.com/mealdash/surge-areas/internal/models"
)

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}
type Geometry struct {
	Type        string           `json:"type"`
	Coordinates [][]models.Point `json:"coordinates"`
}

// toGeoJSON renders every zone as a polygon feature. Circles are expanded
// to their 64-sample display ring; stored polygons pass through as-is.
func toGeoJSON(areas []models.SurgeArea, now time.Time) FeatureCollection {
	features := make([]Feature, 0, len(areas))

	for i := range areas {
		a := &areas[i]

		var ring []models.Point
		switch a.Geometry.Kind {
		case models.GeometryKindCircle:
			ring = geometry.CircleRing(a.Geometry.Center, a.Geometry.RadiusKm)
		case models.GeometryKindPolygon:
			ring = a.Geometry.Ring
		}

		f := Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Polygon",
				Coordinates: [][]models.Point{ring},
			},
			Properties: map[string]any{
				"id":           a.ID,
				"name":         a.Name,
				"surge_reason": a.SurgeReason,
				"reason_group": models.ReasonGroup(a.SurgeReason),
				"surge_type":   a.SurgeType,
				"surge_value":  a.SurgeValue,
				"area_km2":     a.AreaSizeKm2,
				"is_active":    a.IsActive,
				"live_status":  a.LiveStatus(now),
			},
		}
		features = append(features, f)
	}

	return FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}
