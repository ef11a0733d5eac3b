package accesscontrol

import (
	"fmt"
	"net"
	"strings"

	"github.com/intelink/console/internal/countries"
)

// Decision is the outcome of testing a visitor against a configuration.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
	Mode    Mode   `json:"mode"`
}

// Evaluate tests whether a visitor would be redirected. Either visitorIP or
// visitorCountry may be empty, not both.
func Evaluate(d Data, visitorIP, visitorCountry string) (Decision, error) {
	visitorIP = strings.TrimSpace(visitorIP)
	visitorCountry = countries.Normalize(visitorCountry)
	if visitorIP == "" && visitorCountry == "" {
		return Decision{}, ErrNoVisitor
	}

	var ip net.IP
	if visitorIP != "" {
		ip = net.ParseIP(visitorIP)
		if ip == nil {
			return Decision{}, fmt.Errorf("%w: %s", ErrInvalidIPAddress, visitorIP)
		}
	}

	mode := d.EffectiveMode()
	if mode == ModeNone {
		return Decision{Allowed: true, Reason: "No access restrictions", Mode: mode}, nil
	}

	rule, matched := match(d, ip, visitorCountry)
	switch {
	case mode == ModeAllow && matched:
		return Decision{Allowed: true, Reason: "Allowed by whitelist rule: " + rule, Mode: mode}, nil
	case mode == ModeAllow:
		return Decision{Allowed: false, Reason: "Not in whitelist", Mode: mode}, nil
	case matched:
		return Decision{Allowed: false, Reason: "Blocked by blacklist rule: " + rule, Mode: mode}, nil
	default:
		return Decision{Allowed: true, Reason: "Not in blacklist", Mode: mode}, nil
	}
}

func match(d Data, ip net.IP, country string) (string, bool) {
	if ip != nil {
		for _, r := range d.IPRanges {
			if Contains(r, ip) {
				return r, true
			}
		}
	}
	if country != "" {
		for _, c := range d.Countries {
			if countries.Normalize(c) == country {
				return "country " + country, true
			}
		}
	}
	return "", false
}
