package geoip

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/oschwald/geoip2-golang"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/japperJ/geo2-ip-webserver/internal/logger"
)

// Location is the best-effort enrichment attached to audit entries. A nil
// Location simply means "unknown"; it never affects the access decision.
type Location struct {
	Country string  `json:"country"`
	City    string  `json:"city"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Private bool    `json:"private"`
}

// Resolver looks up IP geolocation from a local MaxMind database, with an
// optional Redis cache in front and singleflight dedup for concurrent
// lookups of the same address.
type Resolver struct {
	reader   *geoip2.Reader
	cache    *redis.Client
	group    singleflight.Group
	cacheTTL time.Duration
}

// New builds a resolver. An empty mmdbPath disables lookups entirely; an
// empty redisURL disables the shared cache. Both are valid deployments.
func New(mmdbPath, redisURL string) (*Resolver, error) {
	r := &Resolver{cacheTTL: time.Hour}

	if mmdbPath != "" {
		reader, err := geoip2.Open(mmdbPath)
		if err != nil {
			return nil, fmt.Errorf("open geoip database: %w", err)
		}
		r.reader = reader
	}

	if redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		r.cache = redis.NewClient(opts)
	}

	return r, nil
}

// Enabled reports whether a MaxMind database is loaded.
func (r *Resolver) Enabled() bool {
	return r != nil && r.reader != nil
}

// Lookup resolves a location for ip. It is best-effort by contract: every
// failure path returns nil rather than an error so enrichment can never
// block or fail an access decision.
func (r *Resolver) Lookup(ctx context.Context, ip string) *Location {
	if r == nil {
		return nil
	}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return nil
	}

	if isPrivate(parsed) {
		return &Location{Country: "XX", City: "Private", Private: true}
	}

	if r.reader == nil {
		return nil
	}

	if loc := r.cached(ctx, ip); loc != nil {
		return loc
	}

	result, err, _ := r.group.Do(ip, func() (interface{}, error) {
		record, err := r.reader.City(parsed)
		if err != nil {
			return nil, err
		}
		loc := &Location{
			Country: record.Country.IsoCode,
			City:    record.City.Names["en"],
			Lat:     record.Location.Latitude,
			Lon:     record.Location.Longitude,
		}
		r.store(ctx, ip, loc)
		return loc, nil
	})
	if err != nil {
		logger.WithFields(map[string]interface{}{"ip": ip}).WithError(err).Debug("geoip lookup failed")
		return nil
	}

	return result.(*Location)
}

// Close releases the MaxMind reader and cache connection.
func (r *Resolver) Close() error {
	if r == nil {
		return nil
	}
	if r.cache != nil {
		_ = r.cache.Close()
	}
	if r.reader != nil {
		return r.reader.Close()
	}
	return nil
}

func cacheKey(ip string) string { return "ip_geo:" + ip }

func (r *Resolver) cached(ctx context.Context, ip string) *Location {
	if r.cache == nil {
		return nil
	}
	raw, err := r.cache.Get(ctx, cacheKey(ip)).Bytes()
	if err != nil {
		return nil
	}
	var loc Location
	if err := json.Unmarshal(raw, &loc); err != nil {
		return nil
	}
	return &loc
}

func (r *Resolver) store(ctx context.Context, ip string, loc *Location) {
	if r.cache == nil {
		return
	}
	raw, err := json.Marshal(loc)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, cacheKey(ip), raw, r.cacheTTL).Err(); err != nil {
		logger.Log().WithError(err).Debug("geoip cache set failed")
	}
}

var privateNetworks = mustParseCIDRs(
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"127.0.0.0/8",
	"169.254.0.0/16",
	"fc00::/7",
	"fe80::/10",
	"::1/128",
)

func mustParseCIDRs(cidrs ...string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, c := range cidrs {
		_, ipNet, err := net.ParseCIDR(c)
		if err != nil {
			panic(err)
		}
		nets = append(nets, ipNet)
	}
	return nets
}

func isPrivate(ip net.IP) bool {
	for _, n := range privateNetworks {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
