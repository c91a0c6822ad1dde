package models

import (
	"time"
)

// RuleAction is the verdict an IP rule carries.
type RuleAction string

const (
	RuleActionAllow RuleAction = "allow"
	RuleActionDeny  RuleAction = "deny"
)

// IPRule is one network range policy for a site. A bare IP is treated as a
// /32 (or /128) range. Rules are immutable for the duration of one
// evaluation; precedence is by CIDR specificity, not the Priority field,
// which is kept only for display ordering in the admin UI.
type IPRule struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	UUID        string     `json:"uuid" gorm:"uniqueIndex"`
	SiteID      uint       `json:"site_id" gorm:"index"`
	CIDR        string     `json:"cidr"`
	Action      RuleAction `json:"action"`
	Description string     `json:"description"`
	IsActive    bool       `json:"is_active" gorm:"default:true"`
	Priority    int        `json:"priority" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
