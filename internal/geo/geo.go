// Package geo resolves visitor IP addresses to ISO country codes.
package geo

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"

	"github.com/oschwald/geoip2-golang"
)

var (
	ErrUnavailable = errors.New("geoip database not configured")
	ErrInvalidIP   = errors.New("invalid IP address")
	ErrNotFound    = errors.New("no country for address")
)

// Resolver maps an IP address to an upper-case ISO-3166 alpha-2 code.
type Resolver interface {
	Country(ip net.IP) (string, error)
}

// Lookup parses address and resolves it with r.
func Lookup(r Resolver, address string) (string, error) {
	ip := net.ParseIP(strings.TrimSpace(address))
	if ip == nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidIP, address)
	}
	return r.Country(ip)
}

// GeoIP resolves against a MaxMind GeoLite2/GeoIP2 country database.
type GeoIP struct {
	mu     sync.RWMutex
	reader *geoip2.Reader
}

// Open loads the database at path into memory.
func Open(path string) (*GeoIP, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read geoip database: %w", err)
	}
	return FromBytes(data)
}

func FromBytes(data []byte) (*GeoIP, error) {
	reader, err := geoip2.FromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parse geoip database: %w", err)
	}
	return &GeoIP{reader: reader}, nil
}

func (g *GeoIP) Country(ip net.IP) (string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.reader == nil {
		return "", ErrUnavailable
	}
	record, err := g.reader.Country(ip)
	if err != nil {
		return "", fmt.Errorf("geoip lookup: %w", err)
	}
	if record.Country.IsoCode == "" {
		return "", ErrNotFound
	}
	return strings.ToUpper(record.Country.IsoCode), nil
}

// Close releases the database. Lookups afterwards return ErrUnavailable.
func (g *GeoIP) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.reader == nil {
		return nil
	}
	err := g.reader.Close()
	g.reader = nil
	return err
}

// Unavailable is the resolver used when no database is configured.
type Unavailable struct{}

func (Unavailable) Country(net.IP) (string, error) { return "", ErrUnavailable }

// Static resolves from a fixed CIDR-to-country table. Useful for private
// ranges the public databases don't cover.
type Static struct {
	nets  []*net.IPNet
	codes []string
}

// NewStatic builds a table from CIDR (or bare IPv4) keys.
func NewStatic(table map[string]string) (*Static, error) {
	s := &Static{}
	for cidr, code := range table {
		if !strings.Contains(cidr, "/") {
			cidr += "/32"
		}
		_, n, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, fmt.Errorf("static geo entry %q: %w", cidr, err)
		}
		s.nets = append(s.nets, n)
		s.codes = append(s.codes, strings.ToUpper(code))
	}
	return s, nil
}

// Country returns the code of the most specific matching network.
func (s *Static) Country(ip net.IP) (string, error) {
	best, bestOnes := "", -1
	for i, n := range s.nets {
		if !n.Contains(ip) {
			continue
		}
		if ones, _ := n.Mask.Size(); ones > bestOnes {
			best, bestOnes = s.codes[i], ones
		}
	}
	if bestOnes < 0 {
		return "", ErrNotFound
	}
	return best, nil
}

// Chain tries each resolver in turn and returns the first answer.
type Chain []Resolver

func (c Chain) Country(ip net.IP) (string, error) {
	err := ErrUnavailable
	for _, r := range c {
		code, rerr := r.Country(ip)
		if rerr == nil {
			return code, nil
		}
		err = rerr
	}
	return "", err
}
