package accesscontrol

import (
	"fmt"

	"github.com/intelink/console/internal/countries"
)

// Display limits of the preview card. The underlying data is never cut.
const (
	PreviewCountryLimit = 5
	PreviewIPLimit      = 3
)

// MsgNoRestrictions is shown whenever both lists are empty.
const MsgNoRestrictions = "No access restrictions - anyone can access this link"

// Tone colours of the preview card.
const (
	ToneNeutral = "neutral"
	ToneAllow   = "allow"
	ToneBlock   = "block"

	ColorNeutral = "#6b7280"
	ColorAllow   = "#16a34a"
	ColorBlock   = "#dc2626"
)

// Badge is one chip of the preview card.
type Badge struct {
	Code  string `json:"code,omitempty"`
	Label string `json:"label"`
	Flag  string `json:"flag,omitempty"`
}

// Summary is the human-readable rendering of a configuration.
type Summary struct {
	Restricted    bool     `json:"restricted"`
	Tone          string   `json:"tone"`
	Color         string   `json:"color"`
	Headline      string   `json:"headline"`
	Message       string   `json:"message,omitempty"`
	Countries     []Badge  `json:"countries"`
	CountriesMore string   `json:"countriesMore,omitempty"`
	IPRanges      []Badge  `json:"ipRanges"`
	IPRangesMore  string   `json:"ipRangesMore,omitempty"`
	MapCountries  []string `json:"mapCountries"`
}

// Preview renders d for the create-URL form.
func Preview(d Data) Summary {
	if !d.HasRestrictions() {
		return Summary{
			Tone:         ToneNeutral,
			Color:        ColorNeutral,
			Headline:     "Public link",
			Message:      MsgNoRestrictions,
			Countries:    []Badge{},
			IPRanges:     []Badge{},
			MapCountries: []string{},
		}
	}

	s := Summary{Restricted: true}
	if d.EffectiveMode() == ModeBlock {
		s.Tone, s.Color = ToneBlock, ColorBlock
		s.Headline = "Blacklist: visitors matching these rules are blocked"
	} else {
		s.Tone, s.Color = ToneAllow, ColorAllow
		s.Headline = "Whitelist: only visitors matching these rules can access"
	}

	shown, more := truncate(len(d.Countries), PreviewCountryLimit)
	s.Countries = make([]Badge, 0, shown)
	for _, code := range d.Countries[:shown] {
		b := Badge{Code: code, Label: code, Flag: countries.Flag(code)}
		if c, ok := countries.Lookup(code); ok {
			b.Label = c.Name
		}
		s.Countries = append(s.Countries, b)
	}
	s.CountriesMore = moreSuffix(more)

	shown, more = truncate(len(d.IPRanges), PreviewIPLimit)
	s.IPRanges = make([]Badge, 0, shown)
	for _, r := range d.IPRanges[:shown] {
		s.IPRanges = append(s.IPRanges, Badge{Label: r})
	}
	s.IPRangesMore = moreSuffix(more)

	s.MapCountries = append([]string{}, d.Countries...)
	return s
}

func truncate(n, limit int) (shown, more int) {
	if n <= limit {
		return n, 0
	}
	return limit, n - limit
}

func moreSuffix(n int) string {
	if n <= 0 {
		return ""
	}
	return fmt.Sprintf("+%d more", n)
}
