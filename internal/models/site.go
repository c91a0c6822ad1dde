package models

import (
	"time"
)

// FilterMode selects which access checks are mandatory for a site.
type FilterMode string

const (
	// FilterModeDisabled skips all checks; every request is allowed.
	FilterModeDisabled FilterMode = "disabled"
	// FilterModeIP requires the client IP to pass the site's CIDR rules.
	FilterModeIP FilterMode = "ip"
	// FilterModeGeo requires the client GPS position to fall inside a geofence.
	FilterModeGeo FilterMode = "geo"
	// FilterModeIPAndGeo requires both checks to pass.
	FilterModeIPAndGeo FilterMode = "ip_and_geo"
)

// Valid reports whether the mode is one of the known filter modes.
func (m FilterMode) Valid() bool {
	switch m {
	case FilterModeDisabled, FilterModeIP, FilterModeGeo, FilterModeIPAndGeo:
		return true
	}
	return false
}

// Site is one gated tenant. Public requests resolve a site by UUID or
// hostname, then get evaluated against its rules and geofences.
type Site struct {
	ID               uint       `json:"id" gorm:"primaryKey"`
	UUID             string     `json:"uuid" gorm:"uniqueIndex"`
	Name             string     `json:"name" gorm:"index"`
	Hostname         string     `json:"hostname" gorm:"uniqueIndex"`
	PathPrefix       string     `json:"path_prefix" gorm:"default:'/'"`
	OwnerUserID      uint       `json:"owner_user_id" gorm:"index"`
	FilterMode       FilterMode `json:"filter_mode" gorm:"default:'disabled'"`
	BlockPageTitle   string     `json:"block_page_title" gorm:"default:'Access Denied'"`
	BlockPageMessage string     `json:"block_page_message" gorm:"default:'Your location or IP address does not meet the access requirements for this site.'"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
