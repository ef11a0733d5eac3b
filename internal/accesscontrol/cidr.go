package accesscontrol

import (
	"net"
	"regexp"
	"strconv"
	"strings"
)

// Kind classifies an IP/CIDR entry.
type Kind int

const (
	KindInvalid Kind = iota
	KindIPv4
	KindCIDR
)

func (k Kind) String() string {
	switch k {
	case KindIPv4:
		return "ip"
	case KindCIDR:
		return "cidr"
	default:
		return "invalid"
	}
}

// MarshalText lets Kind serialize as its name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Validation messages shown inline next to the IP range input.
const (
	MsgIPRequired     = "IP address is required"
	MsgIPFormat       = "Invalid IP address format. Use IPv4 (e.g., 192.168.1.1) or CIDR (e.g., 192.168.1.0/24)"
	MsgOctetRange     = "Each octet must be between 0 and 255"
	MsgPrefixRange    = "CIDR prefix must be between 0 and 32"
	MsgDuplicateIP    = "This IP/CIDR is already added"
	MsgUnknownCountry = "Unknown country code"
)

var ipv4Pattern = regexp.MustCompile(`^(\d{1,3})\.(\d{1,3})\.(\d{1,3})\.(\d{1,3})(?:/(\d+))?$`)

// Classification is the outcome of validating one IP or CIDR string.
// Invalid input is reported through Message rather than an error value so
// callers can render it next to the field.
type Classification struct {
	Input   string `json:"input"`
	Kind    Kind   `json:"kind"`
	Prefix  int    `json:"prefix"`
	Size    uint64 `json:"size"`
	Message string `json:"message,omitempty"`
}

// Valid reports whether the input was accepted.
func (c Classification) Valid() bool {
	return c.Kind != KindInvalid
}

// String renders the normalised entry.
func (c Classification) String() string {
	return c.Input
}

// Classify validates a single IPv4 address or CIDR block.
// For CIDR input Size is the number of addresses in the block, 2^(32-prefix).
func Classify(input string) Classification {
	s := strings.TrimSpace(input)
	if s == "" {
		return Classification{Input: s, Message: MsgIPRequired}
	}

	m := ipv4Pattern.FindStringSubmatch(s)
	if m == nil {
		return Classification{Input: s, Message: MsgIPFormat}
	}
	for _, octet := range m[1:5] {
		if len(octet) > 1 && octet[0] == '0' {
			return Classification{Input: s, Message: MsgIPFormat}
		}
		n, err := strconv.Atoi(octet)
		if err != nil || n > 255 {
			return Classification{Input: s, Message: MsgOctetRange}
		}
	}

	if m[5] == "" {
		return Classification{Input: s, Kind: KindIPv4, Prefix: 32, Size: 1}
	}

	prefix, err := strconv.Atoi(m[5])
	if err != nil || len(m[5]) > 2 || (len(m[5]) > 1 && m[5][0] == '0') || prefix > 32 {
		return Classification{Input: s, Message: MsgPrefixRange}
	}
	return Classification{Input: s, Kind: KindCIDR, Prefix: prefix, Size: SubnetSize(prefix)}
}

// SubnetSize returns the number of IPv4 addresses covered by a prefix length.
func SubnetSize(prefix int) uint64 {
	if prefix < 0 || prefix > 32 {
		return 0
	}
	return uint64(1) << uint(32-prefix)
}

// Contains reports whether an IP/CIDR entry covers ip.
func Contains(entry string, ip net.IP) bool {
	if ip == nil {
		return false
	}
	entry = strings.TrimSpace(entry)
	if single := net.ParseIP(entry); single != nil {
		return ip.Equal(single)
	}
	_, ipNet, err := net.ParseCIDR(entry)
	if err != nil {
		return false
	}
	return ipNet.Contains(ip)
}
