package models

import (
	"encoding/json"
	"fmt"
)

type GeometryKind string

const (
	GeometryKindCircle  GeometryKind = "Circle"
	GeometryKindPolygon GeometryKind = "Polygon"
)

// Point is a [longitude, latitude] pair in degrees, GeoJSON order.
type Point [2]float64

func (p Point) Lon() float64 { return p[0] }
func (p Point) Lat() float64 { return p[1] }

// Geometry is a tagged union. For circles the authoritative shape is
// center+radius; any display ring is derived from it. For polygons the
// ring itself is authoritative.
type Geometry struct {
	Kind     GeometryKind `json:"kind"`
	Center   Point        `json:"center,omitempty"`
	RadiusKm float64      `json:"radiusKm,omitempty"`
	Ring     []Point      `json:"ring,omitempty"`
}

func CircleGeometry(center Point, radiusKm float64) Geometry {
	return Geometry{Kind: GeometryKindCircle, Center: center, RadiusKm: radiusKm}
}

func PolygonGeometry(ring []Point) Geometry {
	return Geometry{Kind: GeometryKindPolygon, Ring: ring}
}

// geometryJSON is the persisted/wire shape of the union.
type geometryJSON struct {
	Kind     GeometryKind `json:"kind"`
	Center   *Point       `json:"center,omitempty"`
	RadiusKm float64      `json:"radiusKm,omitempty"`
	Ring     []Point      `json:"ring,omitempty"`
}

func (g Geometry) MarshalJSON() ([]byte, error) {
	out := geometryJSON{Kind: g.Kind}
	switch g.Kind {
	case GeometryKindCircle:
		c := g.Center
		out.Center = &c
		out.RadiusKm = g.RadiusKm
	case GeometryKindPolygon:
		out.Ring = g.Ring
	default:
		return nil, fmt.Errorf("unknown geometry kind: %q", g.Kind)
	}
	return json.Marshal(out)
}

func (g *Geometry) UnmarshalJSON(data []byte) error {
	var in geometryJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	switch in.Kind {
	case GeometryKindCircle:
		if in.Center == nil {
			return fmt.Errorf("circle geometry missing center")
		}
		g.Kind = GeometryKindCircle
		g.Center = *in.Center
		g.RadiusKm = in.RadiusKm
		g.Ring = nil
	case GeometryKindPolygon:
		g.Kind = GeometryKindPolygon
		g.Ring = in.Ring
		g.Center = Point{}
		g.RadiusKm = 0
	default:
		return fmt.Errorf("unknown geometry kind: %q", in.Kind)
	}
	return nil
}
