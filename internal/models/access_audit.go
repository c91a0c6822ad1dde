package models

import (
	"time"
)

// AccessAudit records one evaluated public request. Entries are append-only:
// exactly one row is written per evaluation, before any artifact capture or
// content fetch, and the only later mutation is attaching an artifact key.
type AccessAudit struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UUID      string    `json:"uuid" gorm:"uniqueIndex"`
	SiteID    uint      `json:"site_id" gorm:"index"`
	Timestamp time.Time `json:"timestamp" gorm:"index"`

	ClientIP     string `json:"client_ip" gorm:"index"`
	IPGeoCountry string `json:"ip_geo_country,omitempty"`
	IPGeoCity    string `json:"ip_geo_city,omitempty"`

	ClientGPSLat *float64 `json:"client_gps_lat,omitempty"`
	ClientGPSLon *float64 `json:"client_gps_lon,omitempty"`

	Decision  string `json:"decision"` // "allowed" or "blocked"
	Reason    string `json:"reason"`
	UserAgent string `json:"user_agent,omitempty"`

	// ArtifactKey is the storage key of a block-page screenshot, filled in
	// after the fact when capture succeeds.
	ArtifactKey string `json:"artifact_key,omitempty"`
}

const (
	DecisionAllowed = "allowed"
	DecisionBlocked = "blocked"
)
