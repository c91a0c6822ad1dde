package access

import (
	"errors"
	"fmt"
	"net"
	"sort"
)

var (
	// ErrInvalidIP reports a client IP literal that cannot be parsed. The
	// caller must treat this as a hard input error, not as "no match".
	ErrInvalidIP = errors.New("invalid IP address")
	// ErrInvalidCIDR reports a rule whose CIDR cannot be parsed. A corrupt
	// rule is a configuration error and fails the whole evaluation closed.
	ErrInvalidCIDR = errors.New("invalid CIDR in rule set")
)

// Action is the verdict an IP rule carries.
type Action string

const (
	ActionAllow Action = "allow"
	ActionDeny  Action = "deny"
)

// IPRule is one network range policy in an evaluation snapshot. Slice order
// is creation order (oldest first); it is the tiebreak between rules of
// equal prefix length.
type IPRule struct {
	CIDR     string
	Action   Action
	IsActive bool
}

// prefixLength returns how specific a rule is. A bare IP counts as a full
// host prefix: /32 for IPv4, /128 for IPv6.
func prefixLength(cidr string) (int, *net.IPNet, error) {
	if ip := net.ParseIP(cidr); ip != nil {
		if v4 := ip.To4(); v4 != nil {
			return 32, &net.IPNet{IP: v4, Mask: net.CIDRMask(32, 32)}, nil
		}
		return 128, &net.IPNet{IP: ip, Mask: net.CIDRMask(128, 128)}, nil
	}

	_, ipNet, err := net.ParseCIDR(cidr)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %q", ErrInvalidCIDR, cidr)
	}
	ones, _ := ipNet.Mask.Size()
	return ones, ipNet, nil
}

// MatchRules returns the active rules whose range contains ip, ordered by
// descending prefix length so the most specific rule comes first. Rules with
// equal prefix length keep their snapshot (creation) order, which makes
// repeated evaluations of the same snapshot agree. Specificity deliberately
// supersedes any authored priority: a /32 allow beats a /8 deny no matter
// how the rules were entered.
func MatchRules(ip string, rules []IPRule) ([]IPRule, error) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidIP, ip)
	}

	type scored struct {
		rule   IPRule
		prefix int
	}

	var matches []scored
	for _, rule := range rules {
		if !rule.IsActive {
			continue
		}
		prefix, ipNet, err := prefixLength(rule.CIDR)
		if err != nil {
			return nil, err
		}
		if ipNet.Contains(parsed) {
			matches = append(matches, scored{rule: rule, prefix: prefix})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].prefix > matches[j].prefix
	})

	out := make([]IPRule, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.rule)
	}
	return out, nil
}

// ValidCIDR reports whether s parses as a bare IP or a CIDR range. The
// admin API uses it to reject malformed rules at write time.
func ValidCIDR(s string) bool {
	_, _, err := prefixLength(s)
	return err == nil
}
