package accesscontrol

import (
	"fmt"
	"strings"
	"sync"

	"github.com/intelink/console/internal/countries"
)

// Mode selects whitelist or blacklist semantics.
type Mode string

const (
	ModeAllow Mode = "ALLOW"
	ModeBlock Mode = "BLOCK"
	// ModeNone is only ever sent on the wire, when nothing is restricted.
	ModeNone Mode = "NONE"
)

// ParseMode accepts ALLOW, BLOCK or NONE in any case.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToUpper(strings.TrimSpace(s))) {
	case ModeAllow:
		return ModeAllow, nil
	case ModeBlock:
		return ModeBlock, nil
	case ModeNone:
		return ModeNone, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// Data is the access-control configuration of one short URL draft.
type Data struct {
	Mode      Mode     `json:"mode"`
	Countries []string `json:"countries"`
	IPRanges  []string `json:"ipRanges"`
}

// HasRestrictions reports whether any country or IP range is selected.
func (d Data) HasRestrictions() bool {
	return len(d.Countries) > 0 || len(d.IPRanges) > 0
}

// EffectiveMode is the mode sent to the backend: NONE whenever both lists
// are empty, regardless of the selected mode.
func (d Data) EffectiveMode() Mode {
	if !d.HasRestrictions() {
		return ModeNone
	}
	if d.Mode == ModeBlock {
		return ModeBlock
	}
	return ModeAllow
}

// Payload is the access-control fragment of a create-short-URL request.
type Payload struct {
	Mode      Mode     `json:"accessControlMode"`
	Countries []string `json:"accessControlCountries"`
	IPRanges  []string `json:"accessControlIpRanges"`
}

// Payload serializes d for the create-short-URL request body.
func (d Data) Payload() Payload {
	p := Payload{
		Mode:      d.EffectiveMode(),
		Countries: []string{},
		IPRanges:  []string{},
	}
	if p.Mode == ModeNone {
		return p
	}
	p.Countries = append(p.Countries, d.Countries...)
	p.IPRanges = append(p.IPRanges, d.IPRanges...)
	return p
}

// State holds the access-control configuration while a short URL is being
// created. Every mutation is applied atomically under a lock; Snapshot is the
// single source of truth for both the chip list and the country checklist.
type State struct {
	mu   sync.Mutex
	data Data
}

// NewState returns the default configuration: ALLOW with empty lists.
func NewState() *State {
	s := &State{}
	s.reset()
	return s
}

// FromData builds a state by replaying d through the regular operations.
// Entries that would be rejected interactively are dropped and reported.
func FromData(d Data) (*State, []string) {
	s := NewState()
	if d.Mode == ModeBlock {
		s.SetMode(ModeBlock)
	}
	var problems []string
	for _, code := range d.Countries {
		if msg := s.AddCountry(code); msg != "" {
			problems = append(problems, fmt.Sprintf("%s: %s", code, msg))
		}
	}
	for _, r := range d.IPRanges {
		if msg := s.AddIPRange(r); msg != "" {
			problems = append(problems, fmt.Sprintf("%s: %s", strings.TrimSpace(r), msg))
		}
	}
	return s, problems
}

func (s *State) reset() {
	s.data = Data{Mode: ModeAllow, Countries: []string{}, IPRanges: []string{}}
}

// Reset restores the defaults, as on modal close or after a successful submit.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

// SetMode replaces the mode and leaves both lists untouched.
// NONE cannot be selected; it is derived at serialization time.
func (s *State) SetMode(mode Mode) {
	if mode != ModeAllow && mode != ModeBlock {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Mode = mode
}

// AddCountry adds a country code. Adding a code twice is a no-op.
// It returns an empty string on success and a display message otherwise.
func (s *State) AddCountry(code string) string {
	code = countries.Normalize(code)
	if !countries.Valid(code) {
		return MsgUnknownCountry
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.data.Countries {
		if c == code {
			return ""
		}
	}
	s.data.Countries = append(s.data.Countries, code)
	return ""
}

// RemoveCountry removes a country code; absent codes are ignored.
func (s *State) RemoveCountry(code string) {
	code = countries.Normalize(code)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.data.Countries {
		if c == code {
			s.data.Countries = append(s.data.Countries[:i:i], s.data.Countries[i+1:]...)
			return
		}
	}
}

// ToggleCountry flips the selection of a code, as the checklist does.
func (s *State) ToggleCountry(code string) string {
	if s.HasCountry(code) {
		s.RemoveCountry(code)
		return ""
	}
	return s.AddCountry(code)
}

// HasCountry reports whether code is selected.
func (s *State) HasCountry(code string) bool {
	code = countries.Normalize(code)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.data.Countries {
		if c == code {
			return true
		}
	}
	return false
}

// AddIPRange validates and appends an IP or CIDR entry. Invalid and duplicate
// entries are rejected with a message; nothing is appended in that case.
func (s *State) AddIPRange(value string) string {
	c := Classify(value)
	if !c.Valid() {
		return c.Message
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.data.IPRanges {
		if existing == c.Input {
			return MsgDuplicateIP
		}
	}
	s.data.IPRanges = append(s.data.IPRanges, c.Input)
	return ""
}

// RemoveIPRange removes the entry at index; out-of-range indexes are ignored.
func (s *State) RemoveIPRange(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.data.IPRanges) {
		return
	}
	s.data.IPRanges = append(s.data.IPRanges[:index:index], s.data.IPRanges[index+1:]...)
}

// HasRestrictions reports whether any country or IP range is selected.
func (s *State) HasRestrictions() bool {
	return s.Snapshot().HasRestrictions()
}

// Snapshot returns a copy of the current configuration.
func (s *State) Snapshot() Data {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Data{
		Mode:      s.data.Mode,
		Countries: append([]string{}, s.data.Countries...),
		IPRanges:  append([]string{}, s.data.IPRanges...),
	}
}

// Payload serializes the current configuration for the backend.
func (s *State) Payload() Payload {
	return s.Snapshot().Payload()
}
