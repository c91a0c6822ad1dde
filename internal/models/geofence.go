package models

import (
	"encoding/json"
	"time"
)

// Geofence is one allow-region for a site, either a circle (center+radius)
// or a polygon ring. Exactly one shape is populated; which one is decided
// by Kind.
type Geofence struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	UUID   string `json:"uuid" gorm:"uniqueIndex"`
	SiteID uint   `json:"site_id" gorm:"index"`
	Name   string `json:"name"`
	Kind   string `json:"kind"` // "circle" or "polygon"

	CenterLat    float64 `json:"center_lat"`
	CenterLon    float64 `json:"center_lon"`
	RadiusMeters float64 `json:"radius_meters"`

	// Ring is a JSON array of [lat,lon] pairs, in order, implicitly closed.
	Ring string `json:"ring" gorm:"type:text"`

	IsActive bool `json:"is_active" gorm:"default:true"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	GeofenceKindCircle  = "circle"
	GeofenceKindPolygon = "polygon"
)

// RingPoints decodes the stored polygon ring.
func (g *Geofence) RingPoints() ([][2]float64, error) {
	if g.Ring == "" {
		return nil, nil
	}
	var pts [][2]float64
	if err := json.Unmarshal([]byte(g.Ring), &pts); err != nil {
		return nil, err
	}
	return pts, nil
}

// SetRingPoints encodes and stores a polygon ring.
func (g *Geofence) SetRingPoints(pts [][2]float64) error {
	data, err := json.Marshal(pts)
	if err != nil {
		return err
	}
	g.Ring = string(data)
	return nil
}
