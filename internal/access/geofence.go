package access

import (
	"errors"
	"fmt"
	"math"
)

// earthRadiusMeters is the spherical-earth approximation used by the
// haversine distance. Accurate to well under a meter at city scale.
const earthRadiusMeters = 6371000

var (
	// ErrInvalidGeofence reports a geofence record the evaluator cannot
	// interpret. Like a corrupt CIDR, it fails the evaluation closed.
	ErrInvalidGeofence = errors.New("invalid geofence")
)

// Point is a GPS coordinate.
type Point struct {
	Lat float64
	Lon float64
}

// Geofence is a tagged variant: a circle (center + radius) or a polygon
// ring. Kind selects which fields are meaningful.
type Geofence struct {
	Kind         string
	Center       Point
	RadiusMeters float64
	Ring         []Point
}

const (
	GeofenceCircle  = "circle"
	GeofencePolygon = "polygon"
)

// Validate rejects records the evaluator cannot interpret. A polygon ring
// with fewer than three vertices is not an error here: configuration-time
// validation rejects it, and the evaluator defensively treats it as
// never-containing.
func (f Geofence) Validate() error {
	switch f.Kind {
	case GeofenceCircle:
		if f.RadiusMeters < 0 || math.IsNaN(f.RadiusMeters) {
			return fmt.Errorf("%w: circle radius %v", ErrInvalidGeofence, f.RadiusMeters)
		}
		return nil
	case GeofencePolygon:
		return nil
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidGeofence, f.Kind)
	}
}

// Contains reports whether the point lies inside the geofence. Circle
// containment is inclusive of the boundary.
func Contains(p Point, f Geofence) bool {
	switch f.Kind {
	case GeofenceCircle:
		return haversineMeters(p, f.Center) <= f.RadiusMeters
	case GeofencePolygon:
		return pointInRing(p, f.Ring)
	}
	return false
}

// AnyContains reports whether the point lies inside at least one geofence.
// Geofences model an allow-region set, so membership is a logical OR.
func AnyContains(p Point, fences []Geofence) bool {
	for _, f := range fences {
		if Contains(p, f) {
			return true
		}
	}
	return false
}

// haversineMeters is the great-circle distance between two points.
func haversineMeters(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMeters * c
}

// pointInRing is the even-odd ray cast over (lat, lon) treated as planar
// coordinates. The ring is implicitly closed. Fewer than three vertices is
// degenerate and never contains anything.
func pointInRing(p Point, ring []Point) bool {
	if len(ring) < 3 {
		return false
	}

	inside := false
	j := len(ring) - 1
	for i := 0; i < len(ring); i++ {
		vi, vj := ring[i], ring[j]
		if (vi.Lat > p.Lat) != (vj.Lat > p.Lat) &&
			p.Lon < (vj.Lon-vi.Lon)*(p.Lat-vi.Lat)/(vj.Lat-vi.Lat)+vi.Lon {
			inside = !inside
		}
		j = i
	}
	return inside
}
