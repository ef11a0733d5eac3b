// Package countries is the static ISO 3166-1 catalog used by the country
// selector and the world map.
package countries

import (
	"strings"
	"sync"
)

// Country is an immutable catalog entry.
type Country struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Flag string `json:"flag"`
}

// Option is a checklist row of the country selector.
type Option struct {
	Country
	Selected bool `json:"selected"`
}

var (
	loadOnce sync.Once
	all      []Country
	byCode   map[string]Country
)

func load() {
	loadOnce.Do(func() {
		all = make([]Country, 0, len(table))
		byCode = make(map[string]Country, len(table))
		for _, row := range table {
			c := Country{Code: row.code, Name: row.name, Flag: Flag(row.code)}
			all = append(all, c)
			byCode[row.code] = c
		}
	})
}

// Flag renders the emoji flag of a two-letter code using regional indicator symbols.
// Anything that is not two ASCII letters yields an empty string.
func Flag(code string) string {
	code = strings.ToUpper(code)
	if len(code) != 2 {
		return ""
	}
	var b strings.Builder
	for i := 0; i < 2; i++ {
		ch := code[i]
		if ch < 'A' || ch > 'Z' {
			return ""
		}
		b.WriteRune(rune(0x1F1E6 + int(ch-'A')))
	}
	return b.String()
}

// All returns a copy of the full catalog in code order.
func All() []Country {
	load()
	out := make([]Country, len(all))
	copy(out, all)
	return out
}

// Lookup finds a country by code, ignoring case and surrounding whitespace.
func Lookup(code string) (Country, bool) {
	load()
	c, ok := byCode[Normalize(code)]
	return c, ok
}

// Valid reports whether code is a known ISO alpha-2 code.
func Valid(code string) bool {
	_, ok := Lookup(code)
	return ok
}

// Normalize upper-cases and trims a code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Search filters the catalog by a case-insensitive substring of the name or
// an exact code match. An empty query returns the whole catalog.
func Search(query string) []Country {
	load()
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return All()
	}
	out := make([]Country, 0)
	for _, c := range all {
		if strings.EqualFold(c.Code, q) || strings.Contains(strings.ToLower(c.Name), q) {
			out = append(out, c)
		}
	}
	return out
}

// Options renders the search result as checklist rows, marking the codes
// present in selected.
func Options(query string, selected []string) []Option {
	picked := make(map[string]struct{}, len(selected))
	for _, code := range selected {
		picked[Normalize(code)] = struct{}{}
	}
	matches := Search(query)
	out := make([]Option, 0, len(matches))
	for _, c := range matches {
		_, ok := picked[c.Code]
		out = append(out, Option{Country: c, Selected: ok})
	}
	return out
}

// Names maps codes to display names, keeping unknown codes as-is.
func Names(codes []string) []string {
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		if c, ok := Lookup(code); ok {
			out = append(out, c.Name)
			continue
		}
		out = append(out, code)
	}
	return out
}
