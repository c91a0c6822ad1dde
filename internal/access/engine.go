package access

// FilterMode selects which checks are mandatory for an evaluation. Values
// match the site configuration wire format.
type FilterMode string

const (
	ModeDisabled FilterMode = "disabled"
	ModeIP       FilterMode = "ip"
	ModeGeo      FilterMode = "geo"
	ModeIPAndGeo FilterMode = "ip_and_geo"
)

// EvaluationInput is the immutable snapshot one evaluation runs against.
// It is built per request from the site's current configuration; concurrent
// administrative edits only affect the next snapshot.
type EvaluationInput struct {
	FilterMode FilterMode
	ClientIP   string
	ClientGPS  *Point
	IPRules    []IPRule
	Geofences  []Geofence
}

// Decision is the outcome of one evaluation. Reason fully explains Allowed
// and is always one of the closed reason codes.
type Decision struct {
	Allowed bool
	Reason  Reason
}

// Evaluate produces a single deterministic allow/deny decision for one
// request. It is pure and total: no I/O, no panics for well-formed input,
// and any malformed input (bad client IP, corrupt rule or geofence record)
// fails closed with ReasonEvaluationError. It never defaults to allow on
// error.
func Evaluate(in EvaluationInput) Decision {
	switch in.FilterMode {
	case ModeDisabled:
		return Decision{Allowed: true, Reason: ReasonDisabled}
	case ModeIP:
		return evaluateIP(in)
	case ModeGeo:
		return evaluateGeo(in)
	case ModeIPAndGeo:
		ip := evaluateIP(in)
		if !ip.Allowed {
			return ip
		}
		return evaluateGeo(in)
	}

	// Unknown mode is a configuration error, never an implicit allow.
	return Decision{Allowed: false, Reason: ReasonEvaluationError}
}

// evaluateIP applies longest-prefix-match over the snapshot's active rules.
// No matching rule is a default deny.
func evaluateIP(in EvaluationInput) Decision {
	matches, err := MatchRules(in.ClientIP, in.IPRules)
	if err != nil {
		return Decision{Allowed: false, Reason: ReasonEvaluationError}
	}
	if len(matches) == 0 {
		return Decision{Allowed: false, Reason: ReasonIPNoMatch}
	}
	if matches[0].Action == ActionAllow {
		return Decision{Allowed: true, Reason: ReasonIPRuleAllow}
	}
	return Decision{Allowed: false, Reason: ReasonIPRuleDeny}
}

// evaluateGeo requires a client position inside at least one active
// geofence. Missing coordinates and an empty geofence set are hard misses,
// not implicit allows.
func evaluateGeo(in EvaluationInput) Decision {
	if in.ClientGPS == nil {
		return Decision{Allowed: false, Reason: ReasonGeoMissingCoordinates}
	}
	if len(in.Geofences) == 0 {
		return Decision{Allowed: false, Reason: ReasonGeoNoGeofences}
	}
	for _, f := range in.Geofences {
		if err := f.Validate(); err != nil {
			return Decision{Allowed: false, Reason: ReasonEvaluationError}
		}
	}
	if AnyContains(*in.ClientGPS, in.Geofences) {
		return Decision{Allowed: true, Reason: ReasonGeoInside}
	}
	return Decision{Allowed: false, Reason: ReasonGeoOutside}
}
