package geoip

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_Disabled(t *testing.T) {
	r, err := New("", "")
	require.NoError(t, err)
	defer r.Close()

	assert.False(t, r.Enabled())

	t.Run("public IP with no database resolves to nil", func(t *testing.T) {
		assert.Nil(t, r.Lookup(context.Background(), "203.0.113.7"))
	})

	t.Run("private IPs short-circuit without a database", func(t *testing.T) {
		for _, ip := range []string{"127.0.0.1", "10.1.2.3", "192.168.0.10", "172.16.5.5", "::1"} {
			loc := r.Lookup(context.Background(), ip)
			require.NotNil(t, loc, "expected private shortcut for %s", ip)
			assert.True(t, loc.Private)
			assert.Equal(t, "XX", loc.Country)
		}
	})

	t.Run("garbage IP resolves to nil", func(t *testing.T) {
		assert.Nil(t, r.Lookup(context.Background(), "not-an-ip"))
		assert.Nil(t, r.Lookup(context.Background(), ""))
	})
}

func TestResolver_NilReceiver(t *testing.T) {
	// A nil resolver is a valid "enrichment absent" collaborator.
	var r *Resolver
	assert.False(t, r.Enabled())
	assert.Nil(t, r.Lookup(context.Background(), "203.0.113.7"))
	assert.NoError(t, r.Close())
}

func TestNew_BadInputs(t *testing.T) {
	_, err := New("/nonexistent/geo.mmdb", "")
	assert.Error(t, err)

	_, err = New("", "://bad-url")
	assert.Error(t, err)
}
