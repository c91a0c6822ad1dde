package access

// Reason is a machine-checkable explanation for an access decision. The set
// is closed and stable: audit search and dashboards filter on these values,
// so renaming one is a breaking change.
type Reason string

const (
	ReasonDisabled              Reason = "disabled"
	ReasonIPRuleAllow           Reason = "ip_rule_allow"
	ReasonIPRuleDeny            Reason = "ip_rule_deny"
	ReasonIPNoMatch             Reason = "ip_no_match"
	ReasonGeoInside             Reason = "geo_inside"
	ReasonGeoOutside            Reason = "geo_outside"
	ReasonGeoNoGeofences        Reason = "geo_no_geofences"
	ReasonGeoMissingCoordinates Reason = "geo_missing_coordinates"
	ReasonEvaluationError       Reason = "evaluation_error"
)

// String returns the wire form of the reason code.
func (r Reason) String() string { return string(r) }
