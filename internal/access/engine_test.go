package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func activeRule(cidr string, action Action) IPRule {
	return IPRule{CIDR: cidr, Action: action, IsActive: true}
}

func TestEvaluate_Disabled(t *testing.T) {
	// Disabled mode allows everything, even with deny rules present and
	// no GPS supplied.
	in := EvaluationInput{
		FilterMode: ModeDisabled,
		ClientIP:   "203.0.113.7",
		IPRules:    []IPRule{activeRule("0.0.0.0/0", ActionDeny)},
	}

	d := Evaluate(in)
	assert.True(t, d.Allowed)
	assert.Equal(t, ReasonDisabled, d.Reason)
}

func TestEvaluate_IPOnly(t *testing.T) {
	rules := []IPRule{
		activeRule("10.0.0.0/8", ActionDeny),
		activeRule("10.0.0.5/32", ActionAllow),
	}

	t.Run("specific allow overrides broad deny", func(t *testing.T) {
		d := Evaluate(EvaluationInput{FilterMode: ModeIP, ClientIP: "10.0.0.5", IPRules: rules})
		assert.True(t, d.Allowed)
		assert.Equal(t, ReasonIPRuleAllow, d.Reason)
	})

	t.Run("broad deny applies to the rest of the range", func(t *testing.T) {
		d := Evaluate(EvaluationInput{FilterMode: ModeIP, ClientIP: "10.0.0.6", IPRules: rules})
		assert.False(t, d.Allowed)
		assert.Equal(t, ReasonIPRuleDeny, d.Reason)
	})

	t.Run("no matching rule is default deny", func(t *testing.T) {
		d := Evaluate(EvaluationInput{FilterMode: ModeIP, ClientIP: "192.0.2.1", IPRules: rules})
		assert.False(t, d.Allowed)
		assert.Equal(t, ReasonIPNoMatch, d.Reason)
	})

	t.Run("empty rule set is default deny", func(t *testing.T) {
		d := Evaluate(EvaluationInput{FilterMode: ModeIP, ClientIP: "192.0.2.1"})
		assert.False(t, d.Allowed)
		assert.Equal(t, ReasonIPNoMatch, d.Reason)
	})

	t.Run("malformed client IP fails closed", func(t *testing.T) {
		d := Evaluate(EvaluationInput{FilterMode: ModeIP, ClientIP: "nope", IPRules: rules})
		assert.False(t, d.Allowed)
		assert.Equal(t, ReasonEvaluationError, d.Reason)
	})

	t.Run("corrupt rule fails closed", func(t *testing.T) {
		corrupt := append([]IPRule{activeRule("bad/cidr", ActionAllow)}, rules...)
		d := Evaluate(EvaluationInput{FilterMode: ModeIP, ClientIP: "10.0.0.5", IPRules: corrupt})
		assert.False(t, d.Allowed)
		assert.Equal(t, ReasonEvaluationError, d.Reason)
	})
}

func TestEvaluate_GeoOnly(t *testing.T) {
	london := Geofence{Kind: GeofenceCircle, Center: Point{Lat: 51.505, Lon: -0.09}, RadiusMeters: 5000}

	t.Run("inside geofence", func(t *testing.T) {
		d := Evaluate(EvaluationInput{
			FilterMode: ModeGeo,
			ClientIP:   "203.0.113.7",
			ClientGPS:  &Point{Lat: 51.505, Lon: -0.09},
			Geofences:  []Geofence{london},
		})
		assert.True(t, d.Allowed)
		assert.Equal(t, ReasonGeoInside, d.Reason)
	})

	t.Run("outside all geofences", func(t *testing.T) {
		d := Evaluate(EvaluationInput{
			FilterMode: ModeGeo,
			ClientIP:   "203.0.113.7",
			ClientGPS:  &Point{Lat: 0, Lon: 0},
			Geofences:  []Geofence{london},
		})
		assert.False(t, d.Allowed)
		assert.Equal(t, ReasonGeoOutside, d.Reason)
	})

	t.Run("missing coordinates is a hard miss", func(t *testing.T) {
		d := Evaluate(EvaluationInput{
			FilterMode: ModeGeo,
			ClientIP:   "203.0.113.7",
			Geofences:  []Geofence{london},
		})
		assert.False(t, d.Allowed)
		assert.Equal(t, ReasonGeoMissingCoordinates, d.Reason)
	})

	t.Run("no geofences configured is default deny", func(t *testing.T) {
		d := Evaluate(EvaluationInput{
			FilterMode: ModeGeo,
			ClientIP:   "203.0.113.7",
			ClientGPS:  &Point{Lat: 51.505, Lon: -0.09},
		})
		assert.False(t, d.Allowed)
		assert.Equal(t, ReasonGeoNoGeofences, d.Reason)
	})

	t.Run("corrupt geofence fails closed", func(t *testing.T) {
		d := Evaluate(EvaluationInput{
			FilterMode: ModeGeo,
			ClientIP:   "203.0.113.7",
			ClientGPS:  &Point{Lat: 51.505, Lon: -0.09},
			Geofences:  []Geofence{{Kind: "hexagon"}},
		})
		assert.False(t, d.Allowed)
		assert.Equal(t, ReasonEvaluationError, d.Reason)
	})

	t.Run("inside any of several geofences", func(t *testing.T) {
		square := Geofence{Kind: GeofencePolygon, Ring: []Point{
			{Lat: -1, Lon: -1}, {Lat: -1, Lon: 1}, {Lat: 1, Lon: 1}, {Lat: 1, Lon: -1},
		}}
		d := Evaluate(EvaluationInput{
			FilterMode: ModeGeo,
			ClientIP:   "203.0.113.7",
			ClientGPS:  &Point{Lat: 0, Lon: 0},
			Geofences:  []Geofence{london, square},
		})
		assert.True(t, d.Allowed)
		assert.Equal(t, ReasonGeoInside, d.Reason)
	})
}

func TestEvaluate_IPAndGeo(t *testing.T) {
	rules := []IPRule{activeRule("10.0.0.0/8", ActionAllow)}
	london := Geofence{Kind: GeofenceCircle, Center: Point{Lat: 51.505, Lon: -0.09}, RadiusMeters: 5000}

	t.Run("both pass", func(t *testing.T) {
		d := Evaluate(EvaluationInput{
			FilterMode: ModeIPAndGeo,
			ClientIP:   "10.1.2.3",
			ClientGPS:  &Point{Lat: 51.505, Lon: -0.09},
			IPRules:    rules,
			Geofences:  []Geofence{london},
		})
		assert.True(t, d.Allowed)
		assert.Equal(t, ReasonGeoInside, d.Reason)
	})

	t.Run("IP passes but GPS missing", func(t *testing.T) {
		d := Evaluate(EvaluationInput{
			FilterMode: ModeIPAndGeo,
			ClientIP:   "10.1.2.3",
			IPRules:    rules,
			Geofences:  []Geofence{london},
		})
		assert.False(t, d.Allowed)
		assert.Equal(t, ReasonGeoMissingCoordinates, d.Reason)
	})

	t.Run("both fail reports the IP reason", func(t *testing.T) {
		d := Evaluate(EvaluationInput{
			FilterMode: ModeIPAndGeo,
			ClientIP:   "192.0.2.1",
			ClientGPS:  &Point{Lat: 0, Lon: 0},
			IPRules:    rules,
			Geofences:  []Geofence{london},
		})
		assert.False(t, d.Allowed)
		assert.Equal(t, ReasonIPNoMatch, d.Reason)
	})

	t.Run("IP deny short-circuits before geo", func(t *testing.T) {
		d := Evaluate(EvaluationInput{
			FilterMode: ModeIPAndGeo,
			ClientIP:   "192.0.2.1",
			ClientGPS:  &Point{Lat: 51.505, Lon: -0.09},
			IPRules:    []IPRule{activeRule("192.0.2.0/24", ActionDeny)},
			Geofences:  []Geofence{london},
		})
		assert.False(t, d.Allowed)
		assert.Equal(t, ReasonIPRuleDeny, d.Reason)
	})
}

func TestEvaluate_UnknownMode(t *testing.T) {
	d := Evaluate(EvaluationInput{FilterMode: "whitelist", ClientIP: "10.0.0.1"})
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonEvaluationError, d.Reason)
}

func TestEvaluate_Deterministic(t *testing.T) {
	in := EvaluationInput{
		FilterMode: ModeIPAndGeo,
		ClientIP:   "10.0.0.5",
		ClientGPS:  &Point{Lat: 51.505, Lon: -0.09},
		IPRules: []IPRule{
			activeRule("10.0.0.0/8", ActionDeny),
			activeRule("10.0.0.0/24", ActionAllow),
			activeRule("10.0.0.5/32", ActionAllow),
		},
		Geofences: []Geofence{
			{Kind: GeofenceCircle, Center: Point{Lat: 51.505, Lon: -0.09}, RadiusMeters: 5000},
		},
	}

	first := Evaluate(in)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, Evaluate(in))
	}
}
