// Package charts renders pre-aggregated statistics as SVG. Renderers never
// mutate their input and never touch the network.
package charts

import (
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/lucasb-eyer/go-colorful"
)

// DefaultPalette is used when Options.Palette has no usable colour.
var DefaultPalette = []string{"#6366f1", "#22c55e", "#f59e0b", "#ef4444", "#06b6d4", "#a855f7", "#ec4899", "#84cc16"}

const (
	textColor = "#374151"
	gridColor = "#e5e7eb"
	fontStyle = `font-family="sans-serif"`

	// MinWidth and MinHeight keep every plot area positive.
	MinWidth  = 160
	MinHeight = 120
)

// Options are the display options shared by every chart.
type Options struct {
	Width       int      `json:"width"`
	Height      int      `json:"height"`
	LabelLength int      `json:"labelLength"`
	Palette     []string `json:"palette"`
	Title       string   `json:"title"`
}

func (o Options) withDefaults(width, height int) Options {
	if o.Width <= 0 {
		o.Width = width
	}
	if o.Height <= 0 {
		o.Height = height
	}
	o.Width = max(o.Width, MinWidth)
	o.Height = max(o.Height, MinHeight)
	if o.LabelLength <= 0 {
		o.LabelLength = 12
	}
	o.Palette = validPalette(o.Palette)
	if len(o.Palette) == 0 {
		o.Palette = DefaultPalette
	}
	return o
}

// validPalette keeps the entries that parse as hex colours, re-encoded so
// nothing but "#rrggbb" reaches an attribute.
func validPalette(palette []string) []string {
	out := make([]string, 0, len(palette))
	for _, p := range palette {
		c, err := colorful.Hex(strings.TrimSpace(p))
		if err != nil {
			continue
		}
		out = append(out, c.Hex())
	}
	return out
}

func (o Options) color(i int) string {
	return o.Palette[i%len(o.Palette)]
}

// AxisMax is the top of the value axis: max(1, max(values)). It keeps
// height and percentage math finite on all-zero data.
func AxisMax(values []float64) float64 {
	top := 1.0
	for _, v := range values {
		if v > top {
			top = v
		}
	}
	return top
}

// Percentages returns value/total*100 for each value. A zero total yields zeros.
func Percentages(values []float64) []float64 {
	total := 0.0
	for _, v := range values {
		if v > 0 {
			total += v
		}
	}
	out := make([]float64, len(values))
	if total == 0 {
		return out
	}
	for i, v := range values {
		if v > 0 {
			out[i] = v / total * 100
		}
	}
	return out
}

// FormatValue renders an axis or tooltip value with thousands separators.
func FormatValue(v float64) string {
	if v == math.Trunc(v) {
		return humanize.Comma(int64(v))
	}
	return humanize.CommafWithDigits(v, 1)
}

func round(v float64) int {
	return int(math.Round(v))
}
